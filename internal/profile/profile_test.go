package profile

import (
	"testing"

	"github.com/sentinela-pmsp/sentinela/internal/model"
	"github.com/sentinela-pmsp/sentinela/internal/store"
)

func newTestKV(t *testing.T) *store.Store {
	t.Helper()
	kv, err := store.New(":memory:")
	if err != nil {
		t.Fatalf("open kv store: %v", err)
	}
	t.Cleanup(func() { kv.Close() })
	return kv
}

func TestManagerDefaults(t *testing.T) {
	m, err := NewManager(newTestKV(t))
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	p := m.Current()
	if p.Name != DefaultName {
		t.Errorf("default name = %q, want %q", p.Name, DefaultName)
	}
	if p.Theme != model.ThemeLight {
		t.Errorf("default theme = %q, want light", p.Theme)
	}
}

func TestUpdatePersistsAndNotifies(t *testing.T) {
	kv := newTestKV(t)
	m, err := NewManager(kv)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	var observed []model.Profile
	m.Subscribe(func(p model.Profile) { observed = append(observed, p) })

	want := model.Profile{Name: "Silva", Theme: model.ThemeDark}
	if err := m.Update(want); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if m.Current() != want {
		t.Errorf("current = %+v, want %+v", m.Current(), want)
	}
	if len(observed) != 1 || observed[0] != want {
		t.Errorf("subscriber saw %+v, want one update %+v", observed, want)
	}

	// A fresh manager over the same record reads the update back.
	m2, err := NewManager(kv)
	if err != nil {
		t.Fatalf("NewManager reload: %v", err)
	}
	if m2.Current() != want {
		t.Errorf("reloaded profile = %+v, want %+v", m2.Current(), want)
	}
}

func TestUpdateRejectsUnknownTheme(t *testing.T) {
	m, err := NewManager(newTestKV(t))
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	if err := m.Update(model.Profile{Name: "Silva", Theme: "sepia"}); err == nil {
		t.Error("expected error for unknown theme")
	}
}
