// Package schedule holds the weekly study agenda and the monitor that fires
// notifications when wall-clock time crosses a scheduled slot.
package schedule

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/sentinela-pmsp/sentinela/internal/model"
	"github.com/sentinela-pmsp/sentinela/internal/store"
)

// Store is the ordered collection of study slots. It is read once from the
// key-value store at construction and written back on every mutation; the
// monitor reads it concurrently with user edits.
type Store struct {
	mu    sync.Mutex
	kv    *store.Store
	slots []model.StudySlot
}

// NewStore loads the persisted agenda.
func NewStore(kv *store.Store) (*Store, error) {
	s := &Store{kv: kv}
	if _, err := kv.Get(store.KeyAgenda, &s.slots); err != nil {
		return nil, fmt.Errorf("load agenda: %w", err)
	}
	return s, nil
}

// Add validates and appends a slot, assigning it a fresh id.
func (s *Store) Add(slot model.StudySlot) (model.StudySlot, error) {
	slot.ID = uuid.NewString()
	if err := slot.Validate(); err != nil {
		return model.StudySlot{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slots = append(s.slots, slot)
	if err := s.kv.Set(store.KeyAgenda, s.slots); err != nil {
		s.slots = s.slots[:len(s.slots)-1]
		return model.StudySlot{}, fmt.Errorf("persist agenda: %w", err)
	}
	return slot, nil
}

// Remove deletes the slot with the given id.
func (s *Store) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, slot := range s.slots {
		if slot.ID == id {
			s.slots = append(s.slots[:i], s.slots[i+1:]...)
			if err := s.kv.Set(store.KeyAgenda, s.slots); err != nil {
				return fmt.Errorf("persist agenda: %w", err)
			}
			return nil
		}
	}
	return fmt.Errorf("slot %s not found", id)
}

// SetActive toggles a slot without changing its position in the agenda.
func (s *Store) SetActive(id string, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, slot := range s.slots {
		if slot.ID == id {
			s.slots[i].Active = active
			if err := s.kv.Set(store.KeyAgenda, s.slots); err != nil {
				return fmt.Errorf("persist agenda: %w", err)
			}
			return nil
		}
	}
	return fmt.Errorf("slot %s not found", id)
}

// List returns a copy of the agenda in stable order.
func (s *Store) List() []model.StudySlot {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.StudySlot, len(s.slots))
	copy(out, s.slots)
	return out
}
