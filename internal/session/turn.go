package session

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spigell/linkedin-coach/internal/ai"
)

type TurnKind string

const (
	TurnUser      TurnKind = "user"
	TurnAssistant TurnKind = "assistant"
	TurnTool      TurnKind = "tool"
)

// Turn is one message of the conversation. Tool is set only for tool turns.
type Turn struct {
	Kind    TurnKind `json:"kind"`
	Content string   `json:"content"`
	Tool    string   `json:"tool,omitempty"`
}

func UserTurn(content string) Turn {
	return Turn{Kind: TurnUser, Content: content}
}

func AssistantTurn(content string) Turn {
	return Turn{Kind: TurnAssistant, Content: content}
}

func ToolTurn(tool, content string) Turn {
	return Turn{Kind: TurnTool, Tool: tool, Content: content}
}

func (t Turn) validate() error {
	switch t.Kind {
	case TurnUser, TurnAssistant:
		if t.Tool != "" {
			return fmt.Errorf("%s turn must not carry a tool name", t.Kind)
		}
	case TurnTool:
		if strings.TrimSpace(t.Tool) == "" {
			return errors.New("tool turn without tool name")
		}
	default:
		return fmt.Errorf("unknown turn kind %q", t.Kind)
	}
	return nil
}

// message renders the turn for the model. ok is false when the turn is dropped.
func (t Turn) message() (ai.Message, bool) {
	switch t.Kind {
	case TurnUser:
		return ai.Message{Role: ai.RoleUser, Content: "User asked: " + t.Content}, true
	case TurnAssistant:
		if strings.TrimSpace(t.Content) == "" {
			return ai.Message{}, false
		}
		return ai.Message{Role: ai.RoleAssistant, Content: t.Content}, true
	case TurnTool:
		return ai.Message{Role: ai.RoleAssistant, Tool: t.Tool, Content: fmt.Sprintf("[Tool: %s] %s", t.Tool, t.Content)}, true
	default:
		return ai.Message{}, false
	}
}
