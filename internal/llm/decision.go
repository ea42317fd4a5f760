package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// safeDOMLimit caps the DOM tree embedded in a decision prompt.
const safeDOMLimit = 60000

const decisionMaxAttempts = 5

// DecideAction asks the model for the next browser step. Rate-limit errors
// are retried with backoff; everything else fails immediately.
func (c *Client) DecideAction(ctx context.Context, input DecisionInput) (*DecisionOutput, error) {
	var sb strings.Builder
	sb.WriteString("TASK: " + input.Task + "\n")
	sb.WriteString("URL: " + input.CurrentURL + "\n")

	if input.History != "" {
		sb.WriteString("HISTORY:\n" + input.History + "\n")
	}

	dom := input.DOMTree
	if len(dom) > safeDOMLimit {
		dom = dom[:safeDOMLimit] + "\n...[TRUNCATED]"
	}
	sb.WriteString("\nDOM:\n" + dom)

	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: decisionSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: sb.String()},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0,
		MaxTokens:   300,
	}

	var resp openai.ChatCompletionResponse
	var err error

	for attempt := 0; attempt < decisionMaxAttempts; attempt++ {
		resp, err = c.api.CreateChatCompletion(ctx, req)
		if err == nil {
			break
		}
		if !strings.Contains(err.Error(), "429") {
			return nil, fmt.Errorf("groq error: %w", err)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(3*(1<<attempt)) * time.Second):
		}
	}
	if err != nil {
		return nil, fmt.Errorf("groq error: %w", err)
	}

	content, err := firstChoice(resp)
	if err != nil {
		return nil, err
	}
	content = strings.Trim(content, "`")

	var out DecisionOutput
	if err := json.Unmarshal([]byte(content), &out); err != nil {
		return nil, fmt.Errorf("decision parse error: %w | content: %s", err, content)
	}

	normalizeActionType(&out.Action)
	return &out, nil
}

func normalizeActionType(a *Action) {
	switch strings.ToLower(strings.TrimSpace(string(a.Type))) {
	case "click":
		a.Type = ActionClick
	case "scroll_down", "scroll":
		a.Type = ActionScroll
	default:
		// Anything unrecognized (including "finish"/"done" variants) ends the
		// loop with an extraction, the safe terminal state for a single page.
		a.Type = ActionExtract
	}
}
