// Package structured turns free-form model output into validated Go values.
package structured

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/spigell/linkedin-coach/internal/ai"
	"github.com/spigell/linkedin-coach/internal/utils"
)

var (
	ErrNoJSONFound      = errors.New("no json object found")
	ErrMalformedJSON    = errors.New("malformed json")
	ErrSchemaValidation = errors.New("schema validation failed")
)

// Kind classifies the last error of an exhausted generation.
type Kind string

const (
	KindNoJSONFound         Kind = "NoJsonFound"
	KindMalformedJSON       Kind = "MalformedJson"
	KindSchemaValidation    Kind = "SchemaValidationFailed"
	KindUpstreamUnavailable Kind = "UpstreamUnavailable"
	KindCanceled            Kind = "Canceled"
)

// Failure is returned once every attempt failed. It carries the last raw text so
// callers can degrade instead of crashing.
type Failure struct {
	Kind     Kind
	Attempts int
	Raw      string
	Err      error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("validation failed after %d retries: %v", f.Attempts, f.Err)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// Options tune the retry loop and the sampling used for structured calls.
type Options struct {
	MaxAttempts  int
	Delay        time.Duration
	Temperature  float32
	MaxTokens    int
	MaxLogLength int
}

func DefaultOptions() Options {
	return Options{
		MaxAttempts:  3,
		Delay:        time.Second,
		Temperature:  0.3,
		MaxTokens:    800,
		MaxLogLength: 200,
	}
}

var wait = utils.WaitFor

type Parser struct {
	generator ai.Generator
	opts      Options
	logger    *zap.Logger
}

func NewParser(generator ai.Generator, opts Options, logger *zap.Logger) *Parser {
	defaults := DefaultOptions()
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = defaults.MaxAttempts
	}
	if opts.Delay < 0 {
		opts.Delay = 0
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = defaults.MaxTokens
	}
	if opts.MaxLogLength <= 0 {
		opts.MaxLogLength = defaults.MaxLogLength
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Parser{generator: generator, opts: opts, logger: logger}
}

// Generate prompts the model until its answer validates against schema. Attempt n
// failing waits Delay*n before the next one. After MaxAttempts a *Failure is returned.
func Generate[T any](ctx context.Context, p *Parser, prompt string, schema *Schema[T]) (*T, error) {
	var (
		lastErr  error
		lastRaw  string
		attempts int
	)

	log := p.logger.With(zap.String("schema", schema.Name()))

	for attempt := 1; attempt <= p.opts.MaxAttempts; attempt++ {
		attempts = attempt
		log.Debug("sending structured prompt", zap.Int("attempt", attempt))

		raw, err := p.generator.GenerateContent(ctx, prompt, ai.GenerateOptions{
			Temperature: p.opts.Temperature,
			MaxTokens:   p.opts.MaxTokens,
		})
		if err == nil {
			log.Debug("structured response received",
				zap.Int("attempt", attempt),
				zap.Int("response_length", utf8.RuneCountInString(raw)),
				zap.String("response_preview", utils.TruncateForLog(raw, p.opts.MaxLogLength)),
			)

			var (
				value *T
				span  string
			)
			value, span, err = schema.Decode(raw)
			if err == nil {
				return value, nil
			}

			lastRaw = raw
			if span != "" {
				lastRaw = span
			}
		} else if !errors.Is(err, ai.ErrUpstreamUnavailable) && ctx.Err() == nil {
			err = fmt.Errorf("%w: %w", ai.ErrUpstreamUnavailable, err)
		}
		lastErr = err

		log.Warn("structured response rejected", zap.Int("attempt", attempt), zap.Error(err))

		if ctx.Err() != nil {
			break
		}

		if attempt < p.opts.MaxAttempts {
			if werr := wait(ctx, p.opts.Delay*time.Duration(attempt)); werr != nil {
				lastErr = werr
				break
			}
		}
	}

	failure := &Failure{
		Kind:     classify(lastErr),
		Attempts: attempts,
		Raw:      lastRaw,
		Err:      lastErr,
	}

	log.Error("structured generation failed", zap.String("kind", string(failure.Kind)), zap.Error(lastErr))

	return nil, failure
}

func classify(err error) Kind {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindCanceled
	case errors.Is(err, ErrNoJSONFound):
		return KindNoJSONFound
	case errors.Is(err, ErrMalformedJSON):
		return KindMalformedJSON
	case errors.Is(err, ErrSchemaValidation):
		return KindSchemaValidation
	default:
		return KindUpstreamUnavailable
	}
}
