package llm

import "context"

type ActionType string

const (
	ActionClick   ActionType = "click"
	ActionScroll  ActionType = "scroll_down"
	ActionExtract ActionType = "extract"
)

// Action is a single browser step chosen by the model.
type Action struct {
	Type     ActionType `json:"type"`
	TargetID int        `json:"target_id,omitempty"`
}

type DecisionInput struct {
	Task       string
	DOMTree    string
	CurrentURL string
	History    string // short description of previous steps
}

type DecisionOutput struct {
	Thought string `json:"thought"`
	Action  Action `json:"action"`
}

// SynthesisInput carries the three user-supplied parts of a synthesis request.
type SynthesisInput struct {
	Purpose       string
	ParsedContext string
	UserCode      string // empty means "no code provided"
}

// Decider chooses the next browser action for the extraction agent.
type Decider interface {
	DecideAction(ctx context.Context, input DecisionInput) (*DecisionOutput, error)
}
