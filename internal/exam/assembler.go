// Package exam implements the assessment session engine: exam assembly,
// the timed session state machine, scoring, and post-exam review.
package exam

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/sentinela-pmsp/sentinela/internal/content"
	"github.com/sentinela-pmsp/sentinela/internal/model"
)

// Assembler builds exams from per-subject question batches.
type Assembler struct {
	content content.Service
	shuffle func(n int, swap func(i, j int))
}

// NewAssembler creates an assembler backed by the given content service.
func NewAssembler(svc content.Service) *Assembler {
	return &Assembler{content: svc, shuffle: rand.Shuffle}
}

// Assemble requests one batch per quota, all in parallel, and merges the
// results into a freshly shuffled exam. Assembly is all-or-nothing: any
// failed or short batch aborts with model.ErrContentUnavailable and no
// partial exam is returned.
func (a *Assembler) Assemble(ctx context.Context, title string, quotas []model.Quota, durationMinutes int) (*model.Exam, error) {
	if len(quotas) == 0 {
		return nil, fmt.Errorf("no quotas given")
	}
	for _, q := range quotas {
		if !q.Subject.Valid() {
			return nil, fmt.Errorf("quota for unknown subject %q", q.Subject)
		}
		if q.Count <= 0 {
			return nil, fmt.Errorf("quota for %s: count %d is not positive", q.Subject, q.Count)
		}
	}
	if durationMinutes <= 0 {
		return nil, fmt.Errorf("duration %d minutes is not positive", durationMinutes)
	}

	// Fan out one request per subject and join; total latency is bounded by
	// the slowest batch, not their sum.
	batches := make([][]model.Question, len(quotas))
	g, gctx := errgroup.WithContext(ctx)
	for i, quota := range quotas {
		i, quota := i, quota
		g.Go(func() error {
			batch, err := a.content.GenerateBatch(gctx, quota.Subject, quota.Count)
			if err != nil {
				return err
			}
			if err := verifyBatch(batch, quota); err != nil {
				return err
			}
			batches[i] = batch
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("assemble %q: %w", title, err)
	}

	var questions []model.Question
	for _, batch := range batches {
		questions = append(questions, batch...)
	}

	// Presentation order is decided here, once, and is deliberately not
	// reproducible across assemblies.
	a.shuffle(len(questions), func(i, j int) {
		questions[i], questions[j] = questions[j], questions[i]
	})

	exam := &model.Exam{
		ID:              uuid.NewString(),
		Title:           title,
		Questions:       questions,
		DurationMinutes: durationMinutes,
	}
	if err := exam.Validate(); err != nil {
		return nil, fmt.Errorf("assemble %q: %w", title, err)
	}

	slog.Info("assembled exam", "id", exam.ID, "title", title,
		"questions", len(questions), "duration_minutes", durationMinutes)
	return exam, nil
}

// verifyBatch rejects batches the service should not have produced: too few
// or too many questions, the wrong subject, or malformed entries. The
// assembler owns the all-or-nothing guarantee and does not rely on the
// service checking its own output.
func verifyBatch(batch []model.Question, quota model.Quota) error {
	if len(batch) != quota.Count {
		return fmt.Errorf("%s batch has %d questions, want %d: %w",
			quota.Subject, len(batch), quota.Count, model.ErrContentUnavailable)
	}
	for _, q := range batch {
		if err := q.Validate(); err != nil {
			return fmt.Errorf("%s batch: %v: %w", quota.Subject, err, model.ErrContentUnavailable)
		}
		if q.Subject != quota.Subject {
			return fmt.Errorf("%s batch contains a %s question: %w",
				quota.Subject, q.Subject, model.ErrContentUnavailable)
		}
	}
	return nil
}
