package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/spigell/linkedin-coach/internal/ai"
	"github.com/spigell/linkedin-coach/internal/logger"
	"github.com/spigell/linkedin-coach/internal/utils"
)

const (
	Provider = "gemini"

	defaultModel        = "gemini-2.5-flash"
	defaultMaxRetries   = 3
	defaultMaxLogLength = 200
	maxQuotaWait        = 10 * time.Second

	// DefaultThinkingBudget disables thinking for structured calls, whose
	// output token limit would otherwise be spent before any JSON is written.
	DefaultThinkingBudget = 0
)

var (
	wait = utils.WaitFor

	retryHintRe = regexp.MustCompile(`(?i)retry (?:after|in) ([0-9]+(?:\.[0-9]+)?)\s*s`)
)

// models is the subset of genai.Models used by the generator.
type models interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Generator wraps the Google GenAI client and implements both ai.Generator and ai.Chatter.
type Generator struct {
	models         models
	model          string
	maxRetries     int
	maxLogLen      int
	thinkingBudget int
	logger         *zap.Logger
}

// NewGenerator creates a new Generator configured for the Gemini API backend.
func NewGenerator(ctx context.Context, apiKey, model string, maxRetries, maxLogLength int, log *zap.Logger) (*Generator, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return newGenerator(client.Models, model, maxRetries, maxLogLength, log), nil
}

func newGenerator(m models, model string, maxRetries, maxLogLength int, log *zap.Logger) *Generator {
	if model = strings.TrimSpace(model); model == "" {
		model = defaultModel
	}
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}

	return &Generator{
		models:     m,
		model:      model,
		maxRetries: maxRetries,
		maxLogLen:  maxLogLength,
		logger:     logger.WithCommonFields(log, Provider, model),
	}
}

// WithThinkingBudget sets the thinking token budget of structured calls.
// Negative values keep the model default.
func (g *Generator) WithThinkingBudget(budget int) *Generator {
	g.thinkingBudget = budget
	return g
}

// GenerateContent sends a single prompt and returns the concatenated text of the response.
func (g *Generator) GenerateContent(ctx context.Context, prompt string, opts ai.GenerateOptions) (string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", errors.New("prompt must not be empty")
	}

	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(opts.Temperature),
	}
	if opts.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(opts.MaxTokens)
	}
	if g.thinkingBudget >= 0 {
		cfg.ThinkingConfig = &genai.ThinkingConfig{ThinkingBudget: genai.Ptr(int32(g.thinkingBudget))}
	}

	g.logger.Debug("gemini generate content request",
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, g.maxLogLen)),
	)

	resp, err := g.generate(ctx, genai.Text(prompt), cfg)
	if err != nil {
		return "", err
	}

	reply := collectReply(resp)
	if reply.Text == "" {
		return "", fmt.Errorf("%w: gemini api returned empty response", ai.ErrUpstreamUnavailable)
	}

	g.logger.Debug("gemini generate content response",
		zap.Int("response_length", utf8.RuneCountInString(reply.Text)),
		zap.String("response_preview", utils.TruncateForLog(reply.Text, g.maxLogLen)),
	)

	return reply.Text, nil
}

// Chat asks the model for the next conversation step, offering the declared tools.
func (g *Generator) Chat(ctx context.Context, req *ai.ChatRequest) (*ai.ChatReply, error) {
	if req == nil || len(req.Messages) == 0 {
		return nil, errors.New("chat request must contain at least one message")
	}

	contents := make([]*genai.Content, 0, len(req.Messages))
	for _, msg := range req.Messages {
		contents = append(contents, &genai.Content{
			Role:  contentRole(msg),
			Parts: []*genai.Part{{Text: msg.Content}},
		})
	}

	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(req.Temperature),
	}
	if system := strings.TrimSpace(req.System); system != "" {
		cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: system}}}
	}
	if len(req.Tools) > 0 {
		cfg.Tools = []*genai.Tool{{FunctionDeclarations: declarations(req.Tools)}}
	}

	g.logger.Debug("gemini chat request",
		zap.Int("messages", len(contents)),
		zap.Int("tools", len(req.Tools)),
	)

	resp, err := g.generate(ctx, contents, cfg)
	if err != nil {
		return nil, err
	}

	reply := collectReply(resp)

	g.logger.Debug("gemini chat response",
		zap.Int("tool_calls", len(reply.ToolCalls)),
		zap.String("text_preview", utils.TruncateForLog(reply.Text, g.maxLogLen)),
	)

	return reply, nil
}

// contentRole maps a message to a Gemini role. Tool output goes back as user
// text: Gemini expects a conversation to end on a user turn.
func contentRole(msg ai.Message) string {
	if msg.Role == ai.RoleAssistant && msg.Tool == "" {
		return string(genai.RoleModel)
	}
	return string(genai.RoleUser)
}

func (g *Generator) Model() string {
	if g == nil {
		return ""
	}
	return g.model
}

func (g *Generator) generate(ctx context.Context, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	if g == nil || g.models == nil {
		return nil, errors.New("gemini generator is not initialized")
	}

	var lastErr error
	for attempt := 1; attempt <= g.maxRetries; attempt++ {
		resp, err := g.models.GenerateContent(ctx, g.model, contents, cfg)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		delay, retry := retryDelay(err, attempt)
		if !retry || attempt == g.maxRetries {
			break
		}

		g.logger.Warn("gemini request failed, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err),
		)

		if err := wait(ctx, delay); err != nil {
			return nil, err
		}
	}

	return nil, fmt.Errorf("%w: generate content: %w", ai.ErrUpstreamUnavailable, lastErr)
}

// retryDelay decides whether err is temporary and how long to wait before the next attempt.
func retryDelay(err error, attempt int) (time.Duration, bool) {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return 0, false
	}

	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		// transport level failure
		return time.Duration(attempt) * time.Second, true
	}

	switch {
	case apiErr.Code == http.StatusTooManyRequests:
		hint, ok := parseRetryHint(apiErr.Message)
		if !ok {
			return time.Duration(attempt) * time.Second, true
		}
		if hint > maxQuotaWait {
			return 0, false
		}
		return hint, true
	case apiErr.Code >= http.StatusInternalServerError:
		return time.Duration(attempt) * time.Second, true
	default:
		return 0, false
	}
}

func parseRetryHint(message string) (time.Duration, bool) {
	match := retryHintRe.FindStringSubmatch(message)
	if len(match) != 2 {
		return 0, false
	}
	seconds, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return 0, false
	}
	return time.Duration(seconds * float64(time.Second)), true
}

func declarations(tools []ai.ToolDeclaration) []*genai.FunctionDeclaration {
	decls := make([]*genai.FunctionDeclaration, 0, len(tools))
	for _, tool := range tools {
		decl := &genai.FunctionDeclaration{
			Name:        tool.Name,
			Description: tool.Description,
		}
		if len(tool.Params) > 0 {
			schema := &genai.Schema{
				Type:       genai.TypeObject,
				Properties: make(map[string]*genai.Schema, len(tool.Params)),
			}
			for _, p := range tool.Params {
				schema.Properties[p.Name] = &genai.Schema{
					Type:        schemaType(p.Type),
					Description: p.Description,
				}
				if p.Required {
					schema.Required = append(schema.Required, p.Name)
				}
			}
			decl.Parameters = schema
		}
		decls = append(decls, decl)
	}
	return decls
}

func schemaType(t ai.ParamType) genai.Type {
	switch t {
	case ai.ParamString:
		return genai.TypeString
	default:
		return genai.TypeString
	}
}

func collectReply(resp *genai.GenerateContentResponse) *ai.ChatReply {
	reply := &ai.ChatReply{}
	if resp == nil {
		return reply
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			if part.FunctionCall != nil {
				reply.ToolCalls = append(reply.ToolCalls, ai.ToolCall{
					Name: part.FunctionCall.Name,
					Args: part.FunctionCall.Args,
				})
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(text)
		}
		// only the first usable candidate counts
		if builder.Len() > 0 || len(reply.ToolCalls) > 0 {
			break
		}
	}

	reply.Text = strings.TrimSpace(builder.String())
	return reply
}
