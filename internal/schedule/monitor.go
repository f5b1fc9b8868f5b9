package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sentinela-pmsp/sentinela/internal/model"
)

// Notifier receives fire-and-forget study reminders. No delivery guarantee
// is modeled.
type Notifier interface {
	Notify(subject model.Subject, body string)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(subject model.Subject, body string)

func (f NotifierFunc) Notify(subject model.Subject, body string) { f(subject, body) }

// DefaultPollInterval keeps at least one poll inside every minute.
const DefaultPollInterval = 30 * time.Second

// Monitor polls wall-clock time against the agenda and fires a notification
// at most once per (slot, minute).
type Monitor struct {
	store    *Store
	notifier Notifier
	body     func(subject model.Subject) string
	now      func() time.Time

	lastFired string
}

// NewMonitor creates a monitor over the given agenda. body renders the
// notification text for a subject and may be nil.
func NewMonitor(store *Store, notifier Notifier, body func(subject model.Subject) string) *Monitor {
	if body == nil {
		body = func(subject model.Subject) string { return subject.DisplayName() }
	}
	return &Monitor{
		store:    store,
		notifier: notifier,
		body:     body,
		now:      time.Now,
	}
}

// Poll checks the agenda against the current minute. The first active slot
// whose (day, time) matches wins; a composite slotID+minute key dedups
// repeated polls within the minute while letting the same slot fire again
// next week.
func (m *Monitor) Poll() {
	now := m.now()
	day := int(now.Weekday())
	minute := fmt.Sprintf("%02d:%02d", now.Hour(), now.Minute())

	for _, slot := range m.store.List() {
		if !slot.Active || slot.DayOfWeek != day || slot.Time != minute {
			continue
		}
		key := slot.ID + minute
		if key == m.lastFired {
			return
		}
		m.lastFired = key
		slog.Info("study slot reached", "slot", slot.ID, "subject", slot.Subject, "time", minute)
		m.notifier.Notify(slot.Subject, m.body(slot.Subject))
		return
	}
}

// Run polls at the given interval until ctx is cancelled. Intervals above a
// minute would let slots slip past unnoticed, so they are clamped.
func (m *Monitor) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 || interval > time.Minute {
		interval = DefaultPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Poll()
		}
	}
}
