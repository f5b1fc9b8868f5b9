package exam

import (
	"context"
	"log/slog"
	"sync"

	"github.com/sentinela-pmsp/sentinela/internal/content"
	"github.com/sentinela-pmsp/sentinela/internal/model"
)

// Analyzer produces post-exam explanations of answer outcomes, memoized per
// question. The cache key is the question id only, not the selected option:
// a second call for the same question returns the first explanation even if
// the answer differs.
type Analyzer struct {
	content  content.Service
	fallback string

	mu    sync.Mutex
	cache map[string]string
}

// NewAnalyzer creates an analyzer. fallback is returned when the content
// service fails; the caller always gets text, never an error.
func NewAnalyzer(svc content.Service, fallback string) *Analyzer {
	return &Analyzer{
		content:  svc,
		fallback: fallback,
		cache:    make(map[string]string),
	}
}

// Explain returns an explanation of the candidate's outcome on a question.
// selected is the chosen option index, or model.Unanswered.
func (a *Analyzer) Explain(ctx context.Context, q model.Question, selected int) string {
	a.mu.Lock()
	if text, ok := a.cache[q.ID]; ok {
		a.mu.Unlock()
		return text
	}
	a.mu.Unlock()

	text, err := a.content.ExplainOutcome(ctx, q, selected)
	if err != nil {
		slog.Warn("explanation request failed", "question", q.ID, "error", err)
		text = a.fallback
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if cached, ok := a.cache[q.ID]; ok {
		return cached
	}
	a.cache[q.ID] = text
	return text
}
