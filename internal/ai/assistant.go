package ai

import (
	"context"
	"errors"
)

// ErrUpstreamUnavailable marks failures of the model transport itself.
var ErrUpstreamUnavailable = errors.New("model upstream unavailable")

// Role identifies who authored a message sent to the model.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of the history. Tool names the tool whose output Content
// carries; such messages keep the assistant role.
type Message struct {
	Role    Role
	Content string
	Tool    string
}

// ParamType is the JSON type of a tool parameter.
type ParamType string

const (
	ParamString ParamType = "string"
)

type Param struct {
	Name        string
	Type        ParamType
	Description string
	Required    bool
}

// ToolDeclaration describes a callable tool to the model.
type ToolDeclaration struct {
	Name        string
	Description string
	Params      []Param
}

// ToolCall is a single tool invocation requested by the model.
type ToolCall struct {
	Name string
	Args map[string]any
}

// ChatRequest is one decision request: instructions, the recent turns and the tools on offer.
type ChatRequest struct {
	System      string
	Messages    []Message
	Tools       []ToolDeclaration
	Temperature float32
}

// ChatReply is either plain text or a list of requested tool calls.
type ChatReply struct {
	Text      string
	ToolCalls []ToolCall
}

// HasToolCalls reports whether the model asked for at least one tool.
func (r *ChatReply) HasToolCalls() bool {
	return r != nil && len(r.ToolCalls) > 0
}

// GenerateOptions tunes a single free-form generation.
type GenerateOptions struct {
	Temperature float32
	MaxTokens   int
}

// Chatter decides the next action of the conversation.
type Chatter interface {
	Chat(ctx context.Context, req *ChatRequest) (*ChatReply, error)
}

// Generator produces free-form text for a single prompt.
type Generator interface {
	GenerateContent(ctx context.Context, prompt string, opts GenerateOptions) (string, error)
}
