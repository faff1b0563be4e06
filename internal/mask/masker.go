package mask

import (
	"fmt"
	"sync"
)

// Settings is the persisted masking preference.
type Settings struct {
	Enabled bool   `toml:"enabled" json:"enabled"`
	Policy  Policy `toml:"policy" json:"policy"`
}

// DefaultSettings leaves addresses visible and uses the partial policy once
// masking is switched on.
func DefaultSettings() Settings {
	return Settings{Enabled: false, Policy: PolicyPartial}
}

// Store persists masking settings between runs.
type Store interface {
	LoadMasking() (Settings, error)
	SaveMasking(Settings) error
}

// Masker holds the active preference. It loads once at construction and
// saves on every change.
type Masker struct {
	store Store

	mu       sync.RWMutex
	settings Settings
}

func NewMasker(store Store) (*Masker, error) {
	m := &Masker{store: store, settings: DefaultSettings()}
	if store == nil {
		return m, nil
	}
	s, err := store.LoadMasking()
	if err != nil {
		return nil, fmt.Errorf("load masking settings: %w", err)
	}
	if _, err := ParsePolicy(string(s.Policy)); err != nil {
		s.Policy = PolicyPartial
	}
	m.settings = s
	return m, nil
}

func (m *Masker) Settings() Settings {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.settings
}

// Apply masks ip with the current preference.
func (m *Masker) Apply(ip string) string {
	s := m.Settings()
	return Mask(ip, s.Policy, s.Enabled)
}

func (m *Masker) SetEnabled(enabled bool) error {
	return m.update(func(s *Settings) { s.Enabled = enabled })
}

func (m *Masker) Toggle() error {
	return m.update(func(s *Settings) { s.Enabled = !s.Enabled })
}

func (m *Masker) SetPolicy(p Policy) error {
	if _, err := ParsePolicy(string(p)); err != nil {
		return err
	}
	return m.update(func(s *Settings) { s.Policy = p })
}

func (m *Masker) update(fn func(*Settings)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	next := m.settings
	fn(&next)
	if m.store != nil {
		if err := m.store.SaveMasking(next); err != nil {
			return fmt.Errorf("save masking settings: %w", err)
		}
	}
	m.settings = next
	return nil
}
