package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chatRequest mirrors the fields of the chat-completions payload the tests
// care about.
type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
	Temperature float64 `json:"temperature"`
}

// newStubAPI starts a chat-completions endpoint that records the last request
// and answers with the given content.
func newStubAPI(t *testing.T, content string, status int) (*httptest.Server, *chatRequest) {
	t.Helper()
	last := &chatRequest{}

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(last))

		if status != http.StatusOK {
			w.WriteHeader(status)
			fmt.Fprint(w, `{"error": {"message": "stub failure", "type": "server_error"}}`)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		resp := map[string]any{
			"id":     "chatcmpl-test",
			"object": "chat.completion",
			"choices": []map[string]any{
				{
					"index":         0,
					"message":       map[string]string{"role": "assistant", "content": content},
					"finish_reason": "stop",
				},
			},
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	})

	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	return ts, last
}

func newTestClient(t *testing.T, baseURL string, maxPromptBytes int) *Client {
	t.Helper()
	c, err := NewClientWithBaseURL("test-key", "mixtral-8x7b-32768", maxPromptBytes, baseURL)
	require.NoError(t, err)
	return c
}

func TestNewClientRequiresKey(t *testing.T) {
	_, err := NewClient("", "model", 0)
	assert.Error(t, err)
}

func TestSynthesize(t *testing.T) {
	ts, last := newStubAPI(t, "### CONTEXT BRIEF ###\n**Goal:** ...", http.StatusOK)
	c := newTestClient(t, ts.URL, 0)

	out, err := c.Synthesize(context.Background(), SynthesisInput{
		Purpose:       "summarize",
		ParsedContext: "history",
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "### CONTEXT BRIEF ###"))

	require.Len(t, last.Messages, 2)
	assert.Equal(t, "system", last.Messages[0].Role)
	assert.Contains(t, last.Messages[0].Content, "### CONTEXT BRIEF ###")
	assert.Equal(t, "user", last.Messages[1].Role)
	assert.Contains(t, last.Messages[1].Content, "summarize")
	assert.Contains(t, last.Messages[1].Content, "N/A")
	assert.Equal(t, "mixtral-8x7b-32768", last.Model)
	assert.InDelta(t, 0.5, last.Temperature, 0.001)
}

func TestSynthesizeWithCodeSendsFencedBlock(t *testing.T) {
	ts, last := newStubAPI(t, "ok", http.StatusOK)
	c := newTestClient(t, ts.URL, 0)

	_, err := c.Synthesize(context.Background(), SynthesisInput{
		Purpose:       "debug",
		ParsedContext: "ctx",
		UserCode:      "print(1)",
	})
	require.NoError(t, err)
	assert.Contains(t, last.Messages[1].Content, "```\nprint(1)\n```")
	assert.NotContains(t, last.Messages[1].Content, "N/A")
}

func TestSynthesizeTruncatesLongContext(t *testing.T) {
	ts, last := newStubAPI(t, "ok", http.StatusOK)
	c := newTestClient(t, ts.URL, 512)

	_, err := c.Synthesize(context.Background(), SynthesisInput{
		Purpose:       "summarize",
		ParsedContext: strings.Repeat("a", 4096),
	})
	require.NoError(t, err)
	assert.LessOrEqual(t, len(last.Messages[1].Content), 512+len("\n... (truncated)"))
	assert.Contains(t, last.Messages[1].Content, "(truncated)")
}

func TestSynthesizeUpstreamError(t *testing.T) {
	ts, _ := newStubAPI(t, "", http.StatusInternalServerError)
	c := newTestClient(t, ts.URL, 0)

	_, err := c.Synthesize(context.Background(), SynthesisInput{Purpose: "p"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "groq error")
}

func TestDecideAction(t *testing.T) {
	decision := `{"thought": "cookie banner in the way", "action": {"type": "click", "target_id": 7}}`
	ts, last := newStubAPI(t, decision, http.StatusOK)
	c := newTestClient(t, ts.URL, 0)

	out, err := c.DecideAction(context.Background(), DecisionInput{
		Task:       "extract text",
		DOMTree:    "[7] <button label=\"Accept\">",
		CurrentURL: "http://example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, ActionClick, out.Action.Type)
	assert.Equal(t, 7, out.Action.TargetID)
	assert.Equal(t, "cookie banner in the way", out.Thought)

	assert.Contains(t, last.Messages[1].Content, "TASK: extract text")
	assert.Contains(t, last.Messages[1].Content, "URL: http://example.com")
}

func TestDecideActionTruncatesDOM(t *testing.T) {
	decision := `{"thought": "done", "action": {"type": "extract"}}`
	ts, last := newStubAPI(t, decision, http.StatusOK)
	c := newTestClient(t, ts.URL, 0)

	_, err := c.DecideAction(context.Background(), DecisionInput{
		Task:    "extract",
		DOMTree: strings.Repeat("x", safeDOMLimit+1000),
	})
	require.NoError(t, err)
	assert.Contains(t, last.Messages[1].Content, "[TRUNCATED]")
}

func TestDecideActionBadJSON(t *testing.T) {
	ts, _ := newStubAPI(t, "not json at all", http.StatusOK)
	c := newTestClient(t, ts.URL, 0)

	_, err := c.DecideAction(context.Background(), DecisionInput{Task: "t"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decision parse error")
}

func TestNormalizeActionType(t *testing.T) {
	tests := []struct {
		in   string
		want ActionType
	}{
		{"click", ActionClick},
		{"CLICK", ActionClick},
		{"scroll_down", ActionScroll},
		{"scroll", ActionScroll},
		{"extract", ActionExtract},
		{"finish", ActionExtract},
		{"navigate", ActionExtract},
		{"", ActionExtract},
	}

	for _, tt := range tests {
		a := Action{Type: ActionType(tt.in)}
		normalizeActionType(&a)
		assert.Equal(t, tt.want, a.Type, "input %q", tt.in)
	}
}
