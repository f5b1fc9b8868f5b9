// Package profile holds the process-wide candidate profile. State is loaded
// once at startup and observed through explicit subscriptions instead of
// ambient globals.
package profile

import (
	"fmt"
	"sync"

	"github.com/sentinela-pmsp/sentinela/internal/model"
	"github.com/sentinela-pmsp/sentinela/internal/store"
)

// DefaultName is used until the candidate sets a display name.
const DefaultName = "Recruta"

// Manager owns the profile record.
type Manager struct {
	mu          sync.Mutex
	kv          *store.Store
	current     model.Profile
	subscribers []func(model.Profile)
}

// NewManager loads the persisted profile, falling back to defaults when none
// exists yet.
func NewManager(kv *store.Store) (*Manager, error) {
	m := &Manager{
		kv:      kv,
		current: model.Profile{Name: DefaultName, Theme: model.ThemeLight},
	}
	if _, err := kv.Get(store.KeyProfile, &m.current); err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	return m, nil
}

// Current returns the profile as last loaded or updated.
func (m *Manager) Current() model.Profile {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Update persists the new profile and notifies subscribers.
func (m *Manager) Update(p model.Profile) error {
	if p.Name == "" {
		p.Name = DefaultName
	}
	switch p.Theme {
	case model.ThemeLight, model.ThemeDark, model.ThemeDynamic:
	default:
		return fmt.Errorf("unknown theme %q", p.Theme)
	}

	m.mu.Lock()
	if err := m.kv.Set(store.KeyProfile, p); err != nil {
		m.mu.Unlock()
		return fmt.Errorf("persist profile: %w", err)
	}
	m.current = p
	subs := make([]func(model.Profile), len(m.subscribers))
	copy(subs, m.subscribers)
	m.mu.Unlock()

	for _, sub := range subs {
		sub(p)
	}
	return nil
}

// Subscribe registers a callback invoked after every successful update.
func (m *Manager) Subscribe(fn func(model.Profile)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscribers = append(m.subscribers, fn)
}
