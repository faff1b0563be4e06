package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/vedsharma/pingforge/internal/mask"
)

const SettingsFileName = "settings.toml"

// Settings is UI state that survives between runs.
type Settings struct {
	Masking             mask.Settings `toml:"masking"`
	SelectedEnvironment string        `toml:"selected_environment"`
}

func DefaultSettings() Settings {
	return Settings{Masking: mask.DefaultSettings()}
}

// SettingsFile reads and writes settings.toml. Every save rewrites the whole
// file, so it also serves as the mask.Store for the Masker.
type SettingsFile struct {
	path string
	mu   sync.Mutex
}

func NewSettingsFile(dataDir string) *SettingsFile {
	return &SettingsFile{path: filepath.Join(dataDir, SettingsFileName)}
}

func (f *SettingsFile) Path() string { return f.path }

// Load returns defaults when the file does not exist yet.
func (f *SettingsFile) Load() (Settings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.load()
}

func (f *SettingsFile) load() (Settings, error) {
	s := DefaultSettings()
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return s, fmt.Errorf("read settings %q: %w", f.path, err)
	}
	if err := toml.Unmarshal(data, &s); err != nil {
		return DefaultSettings(), fmt.Errorf("parse settings %q: %w", f.path, err)
	}
	if s.Masking.Policy == "" {
		s.Masking.Policy = mask.PolicyPartial
	}
	return s, nil
}

func (f *SettingsFile) Save(s Settings) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.save(s)
}

func (f *SettingsFile) save(s Settings) error {
	data, err := toml.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write settings %q: %w", f.path, err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("write settings %q: %w", f.path, err)
	}
	return nil
}

// Update applies fn to the stored settings and saves the result.
func (f *SettingsFile) Update(fn func(*Settings)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, err := f.load()
	if err != nil {
		return err
	}
	fn(&s)
	return f.save(s)
}

func (f *SettingsFile) LoadMasking() (mask.Settings, error) {
	s, err := f.Load()
	return s.Masking, err
}

func (f *SettingsFile) SaveMasking(m mask.Settings) error {
	return f.Update(func(s *Settings) { s.Masking = m })
}

func (f *SettingsFile) SelectedEnvironment() (string, error) {
	s, err := f.Load()
	return s.SelectedEnvironment, err
}

// SelectEnvironment stores id as the selection; "" clears it.
func (f *SettingsFile) SelectEnvironment(id string) error {
	return f.Update(func(s *Settings) { s.SelectedEnvironment = id })
}

// ClearSelectionIf resets the selection when it points at id, as happens
// when the selected environment is deleted.
func (f *SettingsFile) ClearSelectionIf(id string) (bool, error) {
	if id == "" {
		return false, nil
	}
	cleared := false
	err := f.Update(func(s *Settings) {
		if s.SelectedEnvironment == id {
			s.SelectedEnvironment = ""
			cleared = true
		}
	})
	return cleared, err
}

var _ mask.Store = (*SettingsFile)(nil)
