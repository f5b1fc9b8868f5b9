package schedule

import (
	"testing"
	"time"

	"github.com/sentinela-pmsp/sentinela/internal/model"
	"github.com/sentinela-pmsp/sentinela/internal/store"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	kv, err := store.New(":memory:")
	if err != nil {
		t.Fatalf("open kv store: %v", err)
	}
	t.Cleanup(func() { kv.Close() })
	s, err := NewStore(kv)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return s
}

func addTestSlot(t *testing.T, s *Store, subject model.Subject, day int, at string) model.StudySlot {
	t.Helper()
	slot, err := s.Add(model.StudySlot{Subject: subject, DayOfWeek: day, Time: at, Active: true})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	return slot
}

// recorder collects fired notifications.
type recorder struct {
	fired []model.Subject
}

func (r *recorder) Notify(subject model.Subject, _ string) {
	r.fired = append(r.fired, subject)
}

func TestStoreAddRemove(t *testing.T) {
	s := newTestStore(t)

	slot := addTestSlot(t, s, model.SubjectPortuguese, 2, "08:00")
	if slot.ID == "" {
		t.Fatal("slot has empty id")
	}
	if got := len(s.List()); got != 1 {
		t.Fatalf("list has %d slots, want 1", got)
	}

	if err := s.Remove(slot.ID); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if got := len(s.List()); got != 0 {
		t.Fatalf("list has %d slots after remove, want 0", got)
	}
	if err := s.Remove(slot.ID); err == nil {
		t.Error("expected error removing missing slot")
	}
}

func TestStoreValidation(t *testing.T) {
	s := newTestStore(t)

	tests := []struct {
		name string
		slot model.StudySlot
	}{
		{"bad day", model.StudySlot{Subject: model.SubjectPortuguese, DayOfWeek: 7, Time: "08:00"}},
		{"bad time", model.StudySlot{Subject: model.SubjectPortuguese, DayOfWeek: 1, Time: "8am"}},
		{"bad subject", model.StudySlot{Subject: "HISTORY", DayOfWeek: 1, Time: "08:00"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := s.Add(tt.slot); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestStorePersistence(t *testing.T) {
	kv, err := store.New(":memory:")
	if err != nil {
		t.Fatalf("open kv store: %v", err)
	}
	defer kv.Close()

	s1, err := NewStore(kv)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	slot, err := s1.Add(model.StudySlot{Subject: model.SubjectMathematics, DayOfWeek: 3, Time: "19:30", Active: true})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	// A fresh store over the same record sees the slot.
	s2, err := NewStore(kv)
	if err != nil {
		t.Fatalf("NewStore reload: %v", err)
	}
	got := s2.List()
	if len(got) != 1 || got[0].ID != slot.ID || got[0].Time != "19:30" {
		t.Fatalf("reloaded agenda = %+v, want the persisted slot", got)
	}
}

func TestMonitorFiresOncePerMinute(t *testing.T) {
	s := newTestStore(t)
	addTestSlot(t, s, model.SubjectPortuguese, 2, "08:00")

	rec := &recorder{}
	m := NewMonitor(s, rec, nil)

	// A Tuesday. Poll every 10 simulated seconds from 07:59:50 to 08:00:50.
	base := time.Date(2024, 1, 2, 7, 59, 50, 0, time.UTC)
	var firedAt []time.Time
	for i := 0; i <= 6; i++ {
		now := base.Add(time.Duration(i) * 10 * time.Second)
		m.now = func() time.Time { return now }
		before := len(rec.fired)
		m.Poll()
		if len(rec.fired) > before {
			firedAt = append(firedAt, now)
		}
	}

	if len(rec.fired) != 1 {
		t.Fatalf("fired %d times, want exactly 1", len(rec.fired))
	}
	want := base.Add(10 * time.Second) // first poll inside the 08:00 minute
	if firedAt[0] != want {
		t.Errorf("fired at %v, want %v", firedAt[0], want)
	}
}

func TestMonitorIgnoresInactiveSlot(t *testing.T) {
	s := newTestStore(t)
	slot := addTestSlot(t, s, model.SubjectPortuguese, 2, "08:00")
	if err := s.SetActive(slot.ID, false); err != nil {
		t.Fatalf("SetActive: %v", err)
	}

	rec := &recorder{}
	m := NewMonitor(s, rec, nil)
	m.now = func() time.Time { return time.Date(2024, 1, 2, 8, 0, 10, 0, time.UTC) }
	m.Poll()

	if len(rec.fired) != 0 {
		t.Errorf("inactive slot fired %d times", len(rec.fired))
	}
}

func TestMonitorFirstSlotWinsOnCollision(t *testing.T) {
	s := newTestStore(t)
	addTestSlot(t, s, model.SubjectPortuguese, 2, "08:00")
	addTestSlot(t, s, model.SubjectMathematics, 2, "08:00")

	rec := &recorder{}
	m := NewMonitor(s, rec, nil)
	m.now = func() time.Time { return time.Date(2024, 1, 2, 8, 0, 10, 0, time.UTC) }
	m.Poll()
	m.Poll()

	if len(rec.fired) != 1 {
		t.Fatalf("fired %d times, want 1", len(rec.fired))
	}
	if rec.fired[0] != model.SubjectPortuguese {
		t.Errorf("fired for %s, want the first slot in store order", rec.fired[0])
	}
}

func TestMonitorRefiresAfterOtherSlot(t *testing.T) {
	s := newTestStore(t)
	addTestSlot(t, s, model.SubjectPortuguese, 2, "08:00")
	addTestSlot(t, s, model.SubjectMathematics, 2, "09:00")

	rec := &recorder{}
	m := NewMonitor(s, rec, nil)

	at := func(hour int) {
		now := time.Date(2024, 1, 2, hour, 0, 10, 0, time.UTC)
		m.now = func() time.Time { return now }
		m.Poll()
	}
	at(8)
	at(9)
	// Next week's matching minute fires again because the composite key moved
	// on when the 09:00 slot fired.
	at(8)

	if len(rec.fired) != 3 {
		t.Fatalf("fired %d times, want 3", len(rec.fired))
	}
}
