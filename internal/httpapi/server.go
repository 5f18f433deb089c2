// Package httpapi exposes the chat service over JSON HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/spigell/linkedin-coach/internal/chat"
	"github.com/spigell/linkedin-coach/internal/checkpoint"
	"github.com/spigell/linkedin-coach/internal/profile"
	"github.com/spigell/linkedin-coach/internal/session"
	"github.com/spigell/linkedin-coach/internal/tools"
)

// Chat is the part of chat.Service the API serves.
type Chat interface {
	Lookup(ctx context.Context, url string) (string, bool, error)
	Open(ctx context.Context, url string, mode chat.Mode) (*chat.Session, error)
	Send(ctx context.Context, id, message string) (string, error)
	History(ctx context.Context, id string) ([]session.Turn, error)
	State(ctx context.Context, id string) (*session.State, error)
}

type Handler struct {
	chat   Chat
	logger *zap.Logger
}

type openRequest struct {
	ProfileURL string `json:"profile_url"`
	Mode       string `json:"mode"`
}

type messageRequest struct {
	Message string `json:"message"`
}

type messageResponse struct {
	Reply string `json:"reply"`
}

type lookupResponse struct {
	ThreadID string `json:"thread_id,omitempty"`
	Found    bool   `json:"found"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// NewRouter wires the API routes.
func NewRouter(c Chat, logger *zap.Logger) http.Handler {
	h := &Handler{chat: c, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1/sessions", func(r chi.Router) {
		r.Post("/", h.handleOpen)
		r.Get("/lookup", h.handleLookup)
		r.Get("/{threadID}", h.handleState)
		r.Get("/{threadID}/messages", h.handleHistory)
		r.Post("/{threadID}/messages", h.handleSend)
	})

	return r
}

// NewServer returns an http.Server with the configured timeouts.
func NewServer(addr string, handler http.Handler, readTimeout, writeTimeout time.Duration) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadTimeout:       readTimeout,
		ReadHeaderTimeout: readTimeout,
		WriteTimeout:      writeTimeout,
	}
}

// POST /api/v1/sessions
func (h *Handler) handleOpen(w http.ResponseWriter, r *http.Request) {
	var req openRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	mode, err := chat.ParseMode(req.Mode)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sess, err := h.chat.Open(r.Context(), req.ProfileURL, mode)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	status := http.StatusCreated
	if sess.Resumed {
		status = http.StatusOK
	}
	writeJSON(w, status, sess)
}

// GET /api/v1/sessions/lookup?profile_url=...
func (h *Handler) handleLookup(w http.ResponseWriter, r *http.Request) {
	id, found, err := h.chat.Lookup(r.Context(), r.URL.Query().Get("profile_url"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, lookupResponse{ThreadID: id, Found: found})
}

// GET /api/v1/sessions/{threadID}
func (h *Handler) handleState(w http.ResponseWriter, r *http.Request) {
	st, err := h.chat.State(r.Context(), chi.URLParam(r, "threadID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// GET /api/v1/sessions/{threadID}/messages
func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	turns, err := h.chat.History(r.Context(), chi.URLParam(r, "threadID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, turns)
}

// POST /api/v1/sessions/{threadID}/messages
func (h *Handler) handleSend(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	reply, err := h.chat.Send(r.Context(), chi.URLParam(r, "threadID"), req.Message)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Reply: reply})
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, profile.ErrInvalidURL), errors.Is(err, tools.ErrToolArgumentMissing):
		status = http.StatusBadRequest
	case errors.Is(err, checkpoint.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, checkpoint.ErrCapacityExceeded), errors.Is(err, checkpoint.ErrURLTaken):
		status = http.StatusConflict
	case errors.Is(err, session.ErrStateValidation):
		status = http.StatusUnprocessableEntity
	}

	h.logger.Warn("request failed",
		zap.String("path", r.URL.Path),
		zap.Int("status", status),
		zap.Error(err),
	)
	writeError(w, status, err.Error())
}

func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		h.logger.Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
