// internal/association/handler.go
package association

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var (
	ErrWorkflowNotFound = errors.New("workflow not found")
	ErrRateLimited      = errors.New("rate limit exceeded")
	ErrTooManyWorkflows = errors.New("too many open workflows")
)

const (
	DefaultSessionIdleTimeout = 30 * time.Minute
	DefaultMaxSessions        = 1000
)

// session serialises events for one workflow. lastUsed is guarded by
// Handler.mu.
type session struct {
	mu       sync.Mutex
	wf       Workflow
	lastUsed time.Time
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithSessionLimits sets how long an untouched workflow is kept and how many
// workflows may be open at once.
func WithSessionLimits(idleTimeout time.Duration, maxSessions int) HandlerOption {
	return func(h *Handler) {
		h.idleTimeout = idleTimeout
		h.maxSessions = maxSessions
	}
}

// Handler binds workflows to HTTP so a presentation layer can drive them.
type Handler struct {
	directory Directory
	submitter Submitter
	limiter   *rate.Limiter
	logger    *zap.Logger

	idleTimeout time.Duration
	maxSessions int
	now         func() time.Time

	mu       sync.Mutex
	sessions map[uuid.UUID]*session
}

func NewHandler(directory Directory, submitter Submitter, limiter *rate.Limiter, logger *zap.Logger, opts ...HandlerOption) *Handler {
	h := &Handler{
		directory:   directory,
		submitter:   submitter,
		limiter:     limiter,
		logger:      logger,
		idleTimeout: DefaultSessionIdleTimeout,
		maxSessions: DefaultMaxSessions,
		now:         time.Now,
		sessions:    make(map[uuid.UUID]*session),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Routes returns the router for the workflow endpoints.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/workflows", h.handleStart)
	r.Route("/workflows/{workflowID}", func(r chi.Router) {
		r.Get("/", h.handleView)
		r.Delete("/", h.handleDiscard)
		r.Patch("/fields/{field}", h.handleEditField)
		r.Put("/search", h.handleSearch)
		r.Post("/dropdown/toggle", h.handleToggleDropdown)
		r.Post("/members", h.handleAddMember)
		r.Delete("/members/{memberID}", h.handleRemoveMember)
		r.Post("/submit", h.handleSubmit)
	})
	return r
}

func (h *Handler) handleStart(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	h.evictIdleLocked()
	full := len(h.sessions) >= h.maxSessions
	h.mu.Unlock()
	if full {
		http.Error(w, ErrTooManyWorkflows.Error(), http.StatusServiceUnavailable)
		return
	}

	wf, err := NewWorkflow(r.Context(), h.directory, h.submitter, h.logger)
	if err != nil {
		h.logger.Error("failed to start workflow", zap.Error(err))
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	id := uuid.New()
	h.mu.Lock()
	if len(h.sessions) >= h.maxSessions {
		h.mu.Unlock()
		http.Error(w, ErrTooManyWorkflows.Error(), http.StatusServiceUnavailable)
		return
	}
	h.sessions[id] = &session{wf: wf, lastUsed: h.now()}
	h.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(struct {
		ID   uuid.UUID `json:"id"`
		View View      `json:"view"`
	}{ID: id, View: wf.View()})
}

func (h *Handler) handleView(w http.ResponseWriter, r *http.Request) {
	h.withWorkflow(w, r, func(wf Workflow) int {
		return http.StatusOK
	})
}

func (h *Handler) handleDiscard(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "workflowID"))
	if err != nil {
		http.Error(w, "invalid workflow ID", http.StatusBadRequest)
		return
	}

	h.mu.Lock()
	_, ok := h.sessions[id]
	delete(h.sessions, id)
	h.mu.Unlock()

	if !ok {
		http.Error(w, ErrWorkflowNotFound.Error(), http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleEditField(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Value string `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	field := chi.URLParam(r, "field")
	h.withWorkflow(w, r, func(wf Workflow) int {
		wf.EditField(field, req.Value)
		return http.StatusOK
	})
}

func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Term string `json:"term"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.withWorkflow(w, r, func(wf Workflow) int {
		wf.SetSearchTerm(req.Term)
		return http.StatusOK
	})
}

func (h *Handler) handleToggleDropdown(w http.ResponseWriter, r *http.Request) {
	h.withWorkflow(w, r, func(wf Workflow) int {
		wf.ToggleDropdown()
		return http.StatusOK
	})
}

func (h *Handler) handleAddMember(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.withWorkflow(w, r, func(wf Workflow) int {
		m, ok := wf.Candidate(req.ID)
		if !ok {
			return http.StatusNotFound
		}
		wf.AddMember(m)
		return http.StatusOK
	})
}

func (h *Handler) handleRemoveMember(w http.ResponseWriter, r *http.Request) {
	memberID := chi.URLParam(r, "memberID")
	h.withWorkflow(w, r, func(wf Workflow) int {
		wf.RemoveMember(memberID)
		return http.StatusOK
	})
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Actor Actor `json:"actor"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s, ok := h.session(w, r)
	if !ok {
		return
	}

	if !h.limiter.Allow() {
		http.Error(w, ErrRateLimited.Error(), http.StatusTooManyRequests)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	errs, err := s.wf.Submit(r.Context(), req.Actor)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	resp := struct {
		Message string `json:"message,omitempty"`
		View    View   `json:"view"`
	}{View: s.wf.View()}

	status := http.StatusOK
	if errs.Valid() {
		resp.Message = SuccessMessage
	} else {
		status = http.StatusUnprocessableEntity
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}

// withWorkflow runs fn under the session lock and writes the resulting view.
// A non-2xx status from fn is written as a plain error.
func (h *Handler) withWorkflow(w http.ResponseWriter, r *http.Request, fn func(wf Workflow) int) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	status := fn(s.wf)
	if status >= http.StatusBadRequest {
		http.Error(w, http.StatusText(status), status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(s.wf.View())
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*session, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "workflowID"))
	if err != nil {
		http.Error(w, "invalid workflow ID", http.StatusBadRequest)
		return nil, false
	}

	h.mu.Lock()
	h.evictIdleLocked()
	s, ok := h.sessions[id]
	if ok {
		s.lastUsed = h.now()
	}
	h.mu.Unlock()
	if !ok {
		http.Error(w, ErrWorkflowNotFound.Error(), http.StatusNotFound)
		return nil, false
	}
	return s, true
}

// evictIdleLocked drops workflows untouched for longer than idleTimeout.
// h.mu must be held.
func (h *Handler) evictIdleLocked() {
	cutoff := h.now().Add(-h.idleTimeout)
	for id, s := range h.sessions {
		if s.lastUsed.Before(cutoff) {
			delete(h.sessions, id)
			h.logger.Debug("evicted idle workflow", zap.String("workflow_id", id.String()))
		}
	}
}
