// Package tools implements the operations the model may call during a turn.
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"

	"github.com/spigell/linkedin-coach/internal/ai"
	"github.com/spigell/linkedin-coach/internal/ai/structured"
	"github.com/spigell/linkedin-coach/internal/session"
)

// Name identifies a tool in model requests and tool turns.
type Name string

const (
	ProfileAnalyzer  Name = "profile_analyzer"
	JobMatcher       Name = "job_matcher"
	ExtractFromState Name = "extract_from_state_tool"
)

var (
	ErrToolArgumentMissing = errors.New("tool argument missing")
	ErrUnknownTool         = errors.New("unknown tool")
)

type handler func(ctx context.Context, st *session.State, args map[string]any) (any, error)

type tool struct {
	decl ai.ToolDeclaration
	run  handler
}

// Set is the closed table of tools offered to the model.
type Set struct {
	parser *structured.Parser
	logger *zap.Logger
	tools  map[Name]tool
	order  []Name
}

type jobMatcherArgs struct {
	TargetRole string `json:"target_role"`
}

type extractArgs struct {
	Key string `json:"key"`
}

func NewSet(parser *structured.Parser, logger *zap.Logger) *Set {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Set{
		parser: parser,
		logger: logger,
		tools:  make(map[Name]tool, 3),
	}

	s.register(ai.ToolDeclaration{
		Name: string(ProfileAnalyzer),
		Description: "Analyze the whole profile and return strengths, weaknesses and suggestions. " +
			"Use it only when a full analysis of the profile is needed. Takes no arguments.",
	}, func(ctx context.Context, st *session.State, _ map[string]any) (any, error) {
		return s.AnalyzeProfile(ctx, st)
	})

	s.register(ai.ToolDeclaration{
		Name: string(JobMatcher),
		Description: "Estimate how well the profile fits a target job role. " +
			"Returns a match score, missing skills and suggestions.",
		Params: []ai.Param{{
			Name:        "target_role",
			Type:        ai.ParamString,
			Description: "Job role to compare the profile against, e.g. Data Scientist.",
			Required:    true,
		}},
	}, func(ctx context.Context, st *session.State, args map[string]any) (any, error) {
		var a jobMatcherArgs
		if err := decodeArgs(args, &a); err != nil {
			return nil, err
		}
		return s.MatchJob(ctx, st, a.TargetRole)
	})

	s.register(ai.ToolDeclaration{
		Name: string(ExtractFromState),
		Description: "Return a single part of the profile or of earlier results when the user asks about it. " +
			"Pass exactly one key: " + strings.Join(ExtractKeys(), ", ") + ".",
		Params: []ai.Param{{
			Name:        "key",
			Type:        ai.ParamString,
			Description: "Dot separated path, e.g. sections.about or job_fit.match_score.",
			Required:    true,
		}},
	}, func(_ context.Context, st *session.State, args map[string]any) (any, error) {
		var a extractArgs
		if err := decodeArgs(args, &a); err != nil {
			return nil, err
		}
		if strings.TrimSpace(a.Key) == "" {
			return nil, fmt.Errorf("%w: key", ErrToolArgumentMissing)
		}
		return Extract(st, a.Key), nil
	})

	return s
}

func (s *Set) register(decl ai.ToolDeclaration, run handler) {
	name := Name(decl.Name)
	s.tools[name] = tool{decl: decl, run: run}
	s.order = append(s.order, name)
}

// Declarations returns the model facing description of every tool.
func (s *Set) Declarations() []ai.ToolDeclaration {
	decls := make([]ai.ToolDeclaration, 0, len(s.order))
	for _, name := range s.order {
		decls = append(decls, s.tools[name].decl)
	}
	return decls
}

// Execute runs call against st and returns the JSON body of the tool turn.
func (s *Set) Execute(ctx context.Context, st *session.State, call ai.ToolCall) (string, error) {
	t, ok := s.tools[Name(call.Name)]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownTool, call.Name)
	}

	s.logger.Debug("executing tool", zap.String("tool", call.Name), zap.Any("args", call.Args))

	result, err := t.run(ctx, st, call.Args)
	if err != nil {
		return "", fmt.Errorf("%s: %w", call.Name, err)
	}

	body, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("marshal %s result: %w", call.Name, err)
	}
	return string(body), nil
}

func decodeArgs(args map[string]any, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "json",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	if err := decoder.Decode(args); err != nil {
		return fmt.Errorf("decode tool arguments: %w", err)
	}
	return nil
}
