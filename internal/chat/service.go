// Package chat opens profile threads and runs user turns against them.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/spigell/linkedin-coach/internal/checkpoint"
	"github.com/spigell/linkedin-coach/internal/logger"
	"github.com/spigell/linkedin-coach/internal/profile"
	"github.com/spigell/linkedin-coach/internal/scraper"
	"github.com/spigell/linkedin-coach/internal/session"
)

// Mode selects what happens when a thread already exists for a url.
type Mode string

const (
	ModeContinue Mode = "continue"
	ModeNew      Mode = "new"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeContinue, "":
		return ModeContinue, nil
	case ModeNew:
		return ModeNew, nil
	default:
		return "", fmt.Errorf("unknown mode %q (expected %s or %s)", s, ModeContinue, ModeNew)
	}
}

// Store persists thread state.
type Store interface {
	NewThreadID() (string, error)
	Get(ctx context.Context, id string) (*session.State, error)
	Put(ctx context.Context, id string, st *session.State) error
	FindByURL(ctx context.Context, url string) (string, error)
}

// Runner drives one user turn.
type Runner interface {
	Run(ctx context.Context, st *session.State, message string) (string, error)
}

// Session identifies an opened thread.
type Session struct {
	ThreadID   string `json:"thread_id"`
	ProfileURL string `json:"profile_url"`
	Resumed    bool   `json:"resumed"`
}

// Service serializes turns so that a thread is never loaded twice concurrently.
type Service struct {
	mu      sync.Mutex
	store   Store
	scraper scraper.Source
	runner  Runner
	logger  *zap.Logger
}

func NewService(store Store, source scraper.Source, runner Runner, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: store, scraper: source, runner: runner, logger: log}
}

// Lookup returns the thread that already exists for url.
func (s *Service) Lookup(ctx context.Context, url string) (string, bool, error) {
	if err := profile.ValidateURL(url); err != nil {
		return "", false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.store.FindByURL(ctx, url)
	if errors.Is(err, checkpoint.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return id, true, nil
}

// Open returns the thread for url. An existing thread is resumed in ModeContinue.
// In ModeNew, or when the stored state is unusable, the profile is scraped again
// and the thread starts over under the same id.
func (s *Service) Open(ctx context.Context, url string, mode Mode) (*Session, error) {
	if err := profile.ValidateURL(url); err != nil {
		return nil, err
	}
	url = profile.NormalizeURL(url)

	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.store.FindByURL(ctx, url)
	switch {
	case errors.Is(err, checkpoint.ErrNotFound):
		id = ""
	case err != nil:
		return nil, fmt.Errorf("find thread: %w", err)
	}

	log := logger.WithThread(s.logger, id, url)

	if id != "" && mode == ModeContinue {
		st, err := s.store.Get(ctx, id)
		if err == nil {
			err = st.Validate()
		}
		if err == nil {
			log.Info("continuing thread", zap.Int("messages", len(st.Messages)))
			return &Session{ThreadID: id, ProfileURL: url, Resumed: true}, nil
		}
		log.Warn("stored thread is unusable, starting over", zap.Error(err))
	}

	// an existing thread is overwritten by Put, so it survives a failed restart
	if id == "" {
		if id, err = s.store.NewThreadID(); err != nil {
			return nil, err
		}
		log = logger.WithThread(s.logger, id, url)
	}

	record := s.scraper.Fetch(ctx, url)
	p, err := profile.FromRecord(record)
	if err != nil {
		log.Warn("profile record partially decoded", zap.Error(err))
	}
	if p.IsEmpty() {
		log.Warn("no profile data scraped, continuing with empty sections")
	}

	st := session.NewState(p, url)
	if err := s.store.Put(ctx, id, st); err != nil {
		return nil, fmt.Errorf("store thread: %w", err)
	}

	log.Info("started thread", zap.String("full_name", p.FullName))
	return &Session{ThreadID: id, ProfileURL: url}, nil
}

// Send runs message as one user turn on thread id and persists the result.
func (s *Service) Send(ctx context.Context, id, message string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.store.Get(ctx, id)
	if err != nil {
		return "", err
	}

	reply, err := s.runner.Run(ctx, st, message)
	if err != nil {
		return "", err
	}

	if err := s.store.Put(ctx, id, st); err != nil {
		return "", fmt.Errorf("store thread: %w", err)
	}

	return reply, nil
}

// History returns the turns of thread id.
func (s *Service) History(ctx context.Context, id string) ([]session.Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return st.Messages, nil
}

// State returns the full state of thread id.
func (s *Service) State(ctx context.Context, id string) (*session.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.store.Get(ctx, id)
}
