// Package handler exposes the exam engine and the study agenda over a JSON
// HTTP API.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sentinela-pmsp/sentinela/internal/content"
	"github.com/sentinela-pmsp/sentinela/internal/exam"
	"github.com/sentinela-pmsp/sentinela/internal/i18n"
	"github.com/sentinela-pmsp/sentinela/internal/model"
	"github.com/sentinela-pmsp/sentinela/internal/profile"
	"github.com/sentinela-pmsp/sentinela/internal/schedule"
	"github.com/sentinela-pmsp/sentinela/internal/store"
)

// finishedSessionTTL is how long a finished session stays readable for
// result and review requests before it is dropped from the registry. The
// persisted results history outlives it.
const finishedSessionTTL = time.Hour

// Config holds the exam defaults applied when a start request leaves them
// out.
type Config struct {
	Title           string
	Quotas          []model.Quota
	DurationMinutes int
}

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	content   content.Service
	assembler *exam.Assembler
	analyzer  *exam.Analyzer
	agenda    *schedule.Store
	profiles  *profile.Manager
	kv        *store.Store
	config    Config
	retention time.Duration

	mu       sync.Mutex
	sessions map[string]*activeSession
}

// activeSession pairs a running session with the cancel that stops its tick
// loop.
type activeSession struct {
	session *exam.Session
	cancel  context.CancelFunc
}

// New creates a new Handler.
func New(svc content.Service, agenda *schedule.Store, profiles *profile.Manager, kv *store.Store, cfg Config, reviewFallback string) *Handler {
	return &Handler{
		content:   svc,
		assembler: exam.NewAssembler(svc),
		analyzer:  exam.NewAnalyzer(svc, reviewFallback),
		agenda:    agenda,
		profiles:  profiles,
		kv:        kv,
		config:    cfg,
		retention: finishedSessionTTL,
		sessions:  make(map[string]*activeSession),
	}
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/exam/start", h.handleStartExam)
	r.Get("/exam/{sessionID}", h.handleExamState)
	r.Post("/exam/{sessionID}/answer", h.handleAnswer)
	r.Post("/exam/{sessionID}/navigate", h.handleNavigate)
	r.Post("/exam/{sessionID}/hint", h.handleHint)
	r.Post("/exam/{sessionID}/submit", h.handleSubmit)
	r.Delete("/exam/{sessionID}", h.handleCancel)
	r.Get("/exam/{sessionID}/result", h.handleResult)
	r.Post("/exam/{sessionID}/review", h.handleReview)

	r.Get("/agenda", h.handleListSlots)
	r.Post("/agenda", h.handleAddSlot)
	r.Delete("/agenda/{slotID}", h.handleRemoveSlot)
	r.Put("/agenda/{slotID}", h.handleUpdateSlot)

	r.Get("/profile", h.handleGetProfile)
	r.Put("/profile", h.handlePutProfile)

	r.Get("/results", h.handleResultsHistory)
}

// questionView omits the answer key and explanation while an attempt is
// running.
type questionView struct {
	ID      string        `json:"id"`
	Subject model.Subject `json:"subject"`
	Text    string        `json:"text"`
	Options []string      `json:"options"`
}

type examView struct {
	ID              string         `json:"id"`
	Title           string         `json:"title"`
	DurationMinutes int            `json:"durationMinutes"`
	Questions       []questionView `json:"questions"`
}

func viewOf(e *model.Exam) examView {
	v := examView{
		ID:              e.ID,
		Title:           e.Title,
		DurationMinutes: e.DurationMinutes,
		Questions:       make([]questionView, 0, len(e.Questions)),
	}
	for _, q := range e.Questions {
		v.Questions = append(v.Questions, questionView{
			ID:      q.ID,
			Subject: q.Subject,
			Text:    q.Text,
			Options: q.Options,
		})
	}
	return v
}

type startExamRequest struct {
	Title           string        `json:"title"`
	Quotas          []model.Quota `json:"quotas"`
	DurationMinutes int           `json:"durationMinutes"`
}

func (h *Handler) handleStartExam(w http.ResponseWriter, r *http.Request) {
	var req startExamRequest
	if err := decodeBody(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Title == "" {
		req.Title = h.config.Title
	}
	if len(req.Quotas) == 0 {
		req.Quotas = h.config.Quotas
	}
	if req.DurationMinutes == 0 {
		req.DurationMinutes = h.config.DurationMinutes
	}

	assembled, err := h.assembler.Assemble(r.Context(), req.Title, req.Quotas, req.DurationMinutes)
	if err != nil {
		if errors.Is(err, model.ErrContentUnavailable) {
			http.Error(w, i18n.T(r.Context(), "ContentError"), http.StatusBadGateway)
			return
		}
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	hintFallback := i18n.T(r.Context(), "HintFallback")
	session := exam.NewSession(assembled, h.content, hintFallback, func(res model.Result) {
		h.recordResult(res)
		// The finish freezes the session; keep it readable for a while,
		// then only the history record remains.
		time.AfterFunc(h.retention, func() { h.evict(assembled.ID) })
	})
	ctx, cancel := context.WithCancel(context.Background())
	go session.Run(ctx)

	h.mu.Lock()
	h.sessions[assembled.ID] = &activeSession{session: session, cancel: cancel}
	h.mu.Unlock()

	respondJSON(w, http.StatusCreated, viewOf(assembled))
}

// recordResult appends a finished attempt to the persisted history.
func (h *Handler) recordResult(res model.Result) {
	var history []model.Result
	if _, err := h.kv.Get(store.KeyResults, &history); err != nil {
		slog.Error("load results history", "error", err)
		return
	}
	history = append(history, res)
	if err := h.kv.Set(store.KeyResults, history); err != nil {
		slog.Error("persist results history", "error", err)
	}
}

// evict drops a session from the registry and stops its tick loop. It
// reports whether the session was still registered.
func (h *Handler) evict(id string) bool {
	h.mu.Lock()
	as, ok := h.sessions[id]
	delete(h.sessions, id)
	h.mu.Unlock()
	if ok {
		as.cancel()
	}
	return ok
}

func (h *Handler) lookup(w http.ResponseWriter, r *http.Request) *activeSession {
	id := chi.URLParam(r, "sessionID")
	h.mu.Lock()
	defer h.mu.Unlock()
	as, ok := h.sessions[id]
	if !ok {
		http.Error(w, "session not found", http.StatusNotFound)
		return nil
	}
	return as
}

func (h *Handler) handleExamState(w http.ResponseWriter, r *http.Request) {
	as := h.lookup(w, r)
	if as == nil {
		return
	}
	respondJSON(w, http.StatusOK, struct {
		Exam  examView      `json:"exam"`
		State exam.Snapshot `json:"state"`
	}{viewOf(as.session.Exam()), as.session.State()})
}

type answerRequest struct {
	QuestionID string `json:"questionId"`
	Option     int    `json:"option"`
}

func (h *Handler) handleAnswer(w http.ResponseWriter, r *http.Request) {
	as := h.lookup(w, r)
	if as == nil {
		return
	}
	var req answerRequest
	if err := decodeBody(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := as.session.SelectAnswer(req.QuestionID, req.Option); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type navigateRequest struct {
	Index int `json:"index"`
}

func (h *Handler) handleNavigate(w http.ResponseWriter, r *http.Request) {
	as := h.lookup(w, r)
	if as == nil {
		return
	}
	var req navigateRequest
	if err := decodeBody(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := as.session.Navigate(req.Index); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type hintRequest struct {
	QuestionID string `json:"questionId"`
}

func (h *Handler) handleHint(w http.ResponseWriter, r *http.Request) {
	as := h.lookup(w, r)
	if as == nil {
		return
	}
	var req hintRequest
	if err := decodeBody(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	hint, err := as.session.RequestHint(r.Context(), req.QuestionID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"hint": hint})
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	as := h.lookup(w, r)
	if as == nil {
		return
	}
	result, err := as.session.Submit()
	if err != nil {
		respondError(w, err)
		return
	}
	as.cancel()
	respondJSON(w, http.StatusOK, result)
}

func (h *Handler) handleCancel(w http.ResponseWriter, r *http.Request) {
	// Eviction stops the tick loop; the attempt is discarded without
	// scoring.
	if !h.evict(chi.URLParam(r, "sessionID")) {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleResult(w http.ResponseWriter, r *http.Request) {
	as := h.lookup(w, r)
	if as == nil {
		return
	}
	result, ok := as.session.Result()
	if !ok {
		http.Error(w, "session still active", http.StatusConflict)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

type reviewRequest struct {
	QuestionID string `json:"questionId"`
}

func (h *Handler) handleReview(w http.ResponseWriter, r *http.Request) {
	as := h.lookup(w, r)
	if as == nil {
		return
	}
	result, ok := as.session.Result()
	if !ok {
		http.Error(w, "session still active", http.StatusConflict)
		return
	}
	var req reviewRequest
	if err := decodeBody(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	q, ok := as.session.Exam().QuestionByID(req.QuestionID)
	if !ok {
		http.Error(w, "question not in exam", http.StatusNotFound)
		return
	}
	selected := model.Unanswered
	if sel, ok := result.Answers[q.ID]; ok {
		selected = sel
	}
	analysis := h.analyzer.Explain(r.Context(), q, selected)
	respondJSON(w, http.StatusOK, map[string]string{
		"explanation": q.Explanation,
		"analysis":    analysis,
	})
}

func (h *Handler) handleListSlots(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.agenda.List())
}

func (h *Handler) handleAddSlot(w http.ResponseWriter, r *http.Request) {
	var slot model.StudySlot
	if err := decodeBody(r, &slot); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	slot.Active = true
	added, err := h.agenda.Add(slot)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	respondJSON(w, http.StatusCreated, added)
}

func (h *Handler) handleRemoveSlot(w http.ResponseWriter, r *http.Request) {
	if err := h.agenda.Remove(chi.URLParam(r, "slotID")); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type updateSlotRequest struct {
	Active bool `json:"active"`
}

func (h *Handler) handleUpdateSlot(w http.ResponseWriter, r *http.Request) {
	var req updateSlotRequest
	if err := decodeBody(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.agenda.SetActive(chi.URLParam(r, "slotID"), req.Active); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.profiles.Current())
}

func (h *Handler) handlePutProfile(w http.ResponseWriter, r *http.Request) {
	var p model.Profile
	if err := decodeBody(r, &p); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.profiles.Update(p); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	respondJSON(w, http.StatusOK, h.profiles.Current())
}

func (h *Handler) handleResultsHistory(w http.ResponseWriter, r *http.Request) {
	var history []model.Result
	if _, err := h.kv.Get(store.KeyResults, &history); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if history == nil {
		history = []model.Result{}
	}
	respondJSON(w, http.StatusOK, history)
}

func decodeBody(r *http.Request, dest any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dest)
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

// respondError maps the error taxonomy onto HTTP statuses.
func respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, model.ErrAlreadyFinished), errors.Is(err, model.ErrInvalidOperation):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, model.ErrContentUnavailable):
		http.Error(w, err.Error(), http.StatusBadGateway)
	default:
		http.Error(w, err.Error(), http.StatusBadRequest)
	}
}
