package llm

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// Synthesize sends a single completion request building a structured context
// brief from the user's goal, context blob and optional code. One shot, no
// retry: the caller surfaces any failure directly.
func (c *Client) Synthesize(ctx context.Context, in SynthesisInput) (string, error) {
	userMessage := c.truncate(BuildSynthesisUserMessage(in))

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: synthesisSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userMessage},
		},
		Temperature: synthesisTemperature,
	})
	if err != nil {
		return "", fmt.Errorf("groq error: %w", err)
	}

	return firstChoice(resp)
}
