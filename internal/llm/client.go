// Package llm talks to the Groq chat-completions API. Groq speaks the OpenAI
// protocol, so the client is a go-openai client with a custom base URL.
package llm

import (
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// GroqBaseURL is the OpenAI-compatible endpoint of the Groq API.
const GroqBaseURL = "https://api.groq.com/openai/v1"

const synthesisTemperature = 0.5

type Client struct {
	api            *openai.Client
	model          string
	maxPromptBytes int
}

// NewClient creates a client against the Groq API.
func NewClient(apiKey, model string, maxPromptBytes int) (*Client, error) {
	return NewClientWithBaseURL(apiKey, model, maxPromptBytes, GroqBaseURL)
}

// NewClientWithBaseURL is NewClient with an explicit endpoint, used by tests
// to point the client at a stub server.
func NewClientWithBaseURL(apiKey, model string, maxPromptBytes int, baseURL string) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("api key is not set")
	}
	if model == "" {
		return nil, fmt.Errorf("model is not set")
	}
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = baseURL
	return &Client{
		api:            openai.NewClientWithConfig(cfg),
		model:          model,
		maxPromptBytes: maxPromptBytes,
	}, nil
}

// truncate caps s at the client's prompt budget. The tail is dropped rather
// than the head: the goal and context lead the message.
func (c *Client) truncate(s string) string {
	if c.maxPromptBytes > 0 && len(s) > c.maxPromptBytes {
		return s[:c.maxPromptBytes] + "\n... (truncated)"
	}
	return s
}

func firstChoice(resp openai.ChatCompletionResponse) (string, error) {
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
