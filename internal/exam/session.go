package exam

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sentinela-pmsp/sentinela/internal/content"
	"github.com/sentinela-pmsp/sentinela/internal/model"
)

// Session drives one exam attempt: free navigation, answer capture, hint
// retrieval, the countdown, and submission. All state is owned by the
// session and guarded by a single mutex; it is discarded when the attempt
// finishes or is cancelled.
type Session struct {
	mu           sync.Mutex
	exam         *model.Exam
	content      content.Service
	hintFallback string
	onFinish     func(model.Result)

	idx       int
	answers   map[string]int
	remaining int
	hints     map[string]string
	finished  bool
	result    model.Result
	done      chan struct{}
}

// NewSession starts an attempt on the given exam in the Active state.
// hintFallback is returned when a hint request fails; onFinish receives the
// scored result exactly once, may be nil, and must not call back into the
// session (it runs with the session lock held).
func NewSession(exam *model.Exam, svc content.Service, hintFallback string, onFinish func(model.Result)) *Session {
	return &Session{
		exam:         exam,
		content:      svc,
		hintFallback: hintFallback,
		onFinish:     onFinish,
		answers:      make(map[string]int),
		remaining:    exam.DurationMinutes * 60,
		hints:        make(map[string]string),
		done:         make(chan struct{}),
	}
}

// Exam returns the exam definition the session runs against.
func (s *Session) Exam() *model.Exam { return s.exam }

// Snapshot is a read-only view of the session for display.
type Snapshot struct {
	CurrentIndex     int            `json:"currentIndex"`
	Answers          map[string]int `json:"answers"`
	RemainingSeconds int            `json:"remainingSeconds"`
	Finished         bool           `json:"finished"`
}

// State returns a copy of the current session state.
func (s *Session) State() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	answers := make(map[string]int, len(s.answers))
	for id, sel := range s.answers {
		answers[id] = sel
	}
	return Snapshot{
		CurrentIndex:     s.idx,
		Answers:          answers,
		RemainingSeconds: s.remaining,
		Finished:         s.finished,
	}
}

// SelectAnswer records the selected option for a question, overwriting any
// prior answer. Valid only while the session is active.
func (s *Session) SelectAnswer(questionID string, option int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finished {
		return fmt.Errorf("select answer: %w", model.ErrInvalidOperation)
	}
	if option < 0 || option >= model.OptionsPerQuestion {
		return fmt.Errorf("select answer: option %d out of range", option)
	}
	if _, ok := s.exam.QuestionByID(questionID); !ok {
		return fmt.Errorf("select answer: question %s not in exam", questionID)
	}
	s.answers[questionID] = option
	return nil
}

// Navigate moves the current question index. Forward and backward jumps of
// any distance are allowed; the current question need not be answered.
func (s *Session) Navigate(target int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finished {
		return fmt.Errorf("navigate: %w", model.ErrInvalidOperation)
	}
	if target < 0 || target >= len(s.exam.Questions) {
		return fmt.Errorf("navigate: index %d out of range [0,%d)", target, len(s.exam.Questions))
	}
	s.idx = target
	return nil
}

// RequestHint returns a hint for a question, calling the content service at
// most once per question: a cached hint is returned without network access.
// Content failures are recovered with the fallback text, which is cached
// like any other hint. Hints never touch the countdown or the answer map.
func (s *Session) RequestHint(ctx context.Context, questionID string) (string, error) {
	s.mu.Lock()
	if s.finished {
		s.mu.Unlock()
		return "", fmt.Errorf("request hint: %w", model.ErrInvalidOperation)
	}
	q, ok := s.exam.QuestionByID(questionID)
	if !ok {
		s.mu.Unlock()
		return "", fmt.Errorf("request hint: question %s not in exam", questionID)
	}
	if hint, ok := s.hints[questionID]; ok {
		s.mu.Unlock()
		return hint, nil
	}
	s.mu.Unlock()

	// Network access happens outside the lock so hint latency never blocks
	// ticks or navigation.
	hint, err := s.content.GetHint(ctx, q)
	if err != nil {
		slog.Warn("hint request failed", "question", questionID, "error", err)
		hint = s.hintFallback
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// The attempt may have ended while the hint was in flight. State is
	// frozen after the finish, so the text is returned without caching.
	if s.finished {
		return hint, nil
	}
	// A concurrent call may have filled the cache meanwhile; the first
	// stored text wins so repeated requests stay byte-identical.
	if cached, ok := s.hints[questionID]; ok {
		return cached, nil
	}
	s.hints[questionID] = hint
	return hint, nil
}

// Tick decrements the countdown by one second. When it reaches zero the
// session auto-submits with whatever answers exist at that instant. Ticking
// a finished session is a no-op.
func (s *Session) Tick() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finished {
		return
	}
	s.remaining--
	if s.remaining <= 0 {
		s.remaining = 0
		s.finishLocked()
	}
}

// Submit finishes the attempt early with the current, possibly partial,
// answer map. A second submit reports model.ErrAlreadyFinished.
func (s *Session) Submit() (model.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finished {
		return model.Result{}, model.ErrAlreadyFinished
	}
	s.finishLocked()
	return s.result, nil
}

// Result returns the scored result once the session has finished.
func (s *Session) Result() (model.Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result, s.finished
}

// finishLocked scores the attempt and transitions to Finished. Called with
// the mutex held, exactly once.
func (s *Session) finishLocked() {
	s.finished = true
	s.result = Score(s.exam, s.answers, s.remaining)
	close(s.done)
	slog.Info("session finished", "exam", s.exam.ID,
		"score", s.result.Score, "total", s.result.Total,
		"time_spent_minutes", s.result.TimeSpentMinutes)
	if s.onFinish != nil {
		s.onFinish(s.result)
	}
}

// Run drives Tick on a one-second cadence until the session finishes or ctx
// is cancelled. Cancellation discards the attempt without scoring.
func (s *Session) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			slog.Info("session cancelled", "exam", s.exam.ID)
			return
		case <-s.done:
			return
		case <-ticker.C:
			s.Tick()
		}
	}
}
