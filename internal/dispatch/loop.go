// Package dispatch drives one user turn: the model either answers or asks for a
// tool, and tool results are fed back until a plain answer arrives.
package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	_ "embed"

	"go.uber.org/zap"

	"github.com/spigell/linkedin-coach/internal/ai"
	"github.com/spigell/linkedin-coach/internal/session"
)

//go:embed system.md
var systemPrompt string

const (
	DefaultHistoryWindow = 6
	DefaultMaxToolCalls  = 4

	// DegradedReply ends a turn when the model cannot be reached.
	DegradedReply = "Sorry, I cannot reach the language model right now. Please try again in a moment."
	// EmptyReply ends a turn when the model answered with nothing usable.
	EmptyReply = "Sorry, I could not come up with an answer. Could you rephrase the question?"
)

// Phase names the loop position. It is only reported in logs.
type Phase string

const (
	AwaitingUserInput Phase = "awaiting_user_input"
	ModelDeciding     Phase = "model_deciding"
	ToolExecuting     Phase = "tool_executing"
	Responding        Phase = "responding"
)

// Executor runs tool calls against the state.
type Executor interface {
	Declarations() []ai.ToolDeclaration
	Execute(ctx context.Context, st *session.State, call ai.ToolCall) (string, error)
}

type Options struct {
	HistoryWindow int
	MaxToolCalls  int
}

type Loop struct {
	model  ai.Chatter
	tools  Executor
	opts   Options
	logger *zap.Logger
}

func New(model ai.Chatter, tools Executor, opts Options, logger *zap.Logger) *Loop {
	if opts.HistoryWindow <= 0 {
		opts.HistoryWindow = DefaultHistoryWindow
	}
	if opts.MaxToolCalls <= 0 {
		opts.MaxToolCalls = DefaultMaxToolCalls
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Loop{model: model, tools: tools, opts: opts, logger: logger}
}

// Run appends message to st and loops until the model replies in text. The reply is
// appended to st as an assistant turn and returned. Invalid state before or after
// the turn fails with session.ErrStateValidation.
func (l *Loop) Run(ctx context.Context, st *session.State, message string) (string, error) {
	if err := st.Validate(); err != nil {
		return "", fmt.Errorf("before turn: %w", err)
	}

	message = strings.TrimSpace(message)
	if message == "" {
		return "", errors.New("message must not be empty")
	}

	st.Append(session.UserTurn(message))

	reply, err := l.turn(ctx, st)
	if err != nil {
		return "", err
	}

	if err := st.Validate(); err != nil {
		return "", fmt.Errorf("after turn: %w", err)
	}

	l.logger.Debug("turn finished", zap.String("phase", string(AwaitingUserInput)))
	return reply, nil
}

func (l *Loop) turn(ctx context.Context, st *session.State) (string, error) {
	toolCalls := 0

	for {
		decls := l.tools.Declarations()
		if toolCalls >= l.opts.MaxToolCalls {
			l.logger.Warn("tool call limit reached, asking for a plain answer", zap.Int("tool_calls", toolCalls))
			decls = nil
		}

		l.logger.Debug("asking model", zap.String("phase", string(ModelDeciding)), zap.Int("tool_calls", toolCalls))

		reply, err := l.model.Chat(ctx, &ai.ChatRequest{
			System:      systemPrompt,
			Messages:    st.Window(l.opts.HistoryWindow),
			Tools:       decls,
			Temperature: 0,
		})
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			l.logger.Error("model unavailable, degrading reply", zap.Error(err))
			return l.respond(st, DegradedReply), nil
		}

		if reply.HasToolCalls() && decls != nil {
			call := reply.ToolCalls[0]
			if len(reply.ToolCalls) > 1 {
				discarded := make([]string, 0, len(reply.ToolCalls)-1)
				for _, extra := range reply.ToolCalls[1:] {
					discarded = append(discarded, extra.Name)
				}
				l.logger.Warn("model requested several tools, only the first runs",
					zap.String("tool", call.Name),
					zap.Strings("discarded", discarded),
				)
			}

			if err := l.execute(ctx, st, call); err != nil {
				return "", err
			}
			toolCalls++
			continue
		}

		text := strings.TrimSpace(reply.Text)
		if text == "" {
			l.logger.Warn("model returned an empty answer")
			text = EmptyReply
		}
		return l.respond(st, text), nil
	}
}

// execute runs one tool call and records its result. Tool errors become a tool
// turn with an error body so the model can correct itself.
func (l *Loop) execute(ctx context.Context, st *session.State, call ai.ToolCall) error {
	l.logger.Debug("running tool", zap.String("phase", string(ToolExecuting)), zap.String("tool", call.Name))

	body, err := l.tools.Execute(ctx, st, call)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		l.logger.Warn("tool failed", zap.String("tool", call.Name), zap.Error(err))

		encoded, merr := json.Marshal(map[string]string{"error": err.Error()})
		if merr != nil {
			return fmt.Errorf("encode tool error: %w", merr)
		}
		body = string(encoded)
	}

	st.Append(session.ToolTurn(call.Name, body))
	return nil
}

func (l *Loop) respond(st *session.State, text string) string {
	l.logger.Debug("answering", zap.String("phase", string(Responding)))
	st.Append(session.AssistantTurn(text))
	return text
}
