package settings

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"quran-tui/internal/state"
)

const (
	ThemeDark  = "dark"
	ThemeLight = "light"
)

type Settings struct {
	Theme       string `json:"current_theme"` // "dark", "light" or empty for the terminal default
	Reciter     string `json:"reciter"`
	LastChapter int    `json:"last_chapter"`
}

// Dark resolves the theme flag, using fallback when none was saved.
func (s Settings) Dark(fallback bool) bool {
	switch s.Theme {
	case ThemeDark:
		return true
	case ThemeLight:
		return false
	default:
		return fallback
	}
}

func DefaultPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "quran-tui", "settings.json"), nil
}

// Store reads and writes settings at a fixed path.
type Store struct {
	path string
	mu   sync.Mutex
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Path() string { return s.path }

func (s *Store) Load() (Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var st Settings
	data, err := os.ReadFile(s.path)
	if err != nil {
		// No settings = just return zero value, no error
		if os.IsNotExist(err) {
			return st, nil
		}
		return st, err
	}

	if err := json.Unmarshal(data, &st); err != nil {
		return Settings{}, err
	}

	return st, nil
}

func (s *Store) Save(st Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(s.path, data, 0o644)
}

// Update loads, modifies and saves the settings in one step.
func (s *Store) Update(fn func(*Settings)) error {
	st, err := s.Load()
	if err != nil {
		return err
	}
	fn(&st)
	return s.Save(st)
}

// Track persists theme and reciter changes made through app until the
// returned function is called. Save errors go to onErr.
func Track(app *state.App, store *Store, onErr func(error)) func() {
	report := func(err error) {
		if err != nil && onErr != nil {
			onErr(err)
		}
	}

	unsubDark := app.Dark.Subscribe(func(dark bool) {
		report(store.Update(func(st *Settings) {
			st.Theme = ThemeLight
			if dark {
				st.Theme = ThemeDark
			}
		}))
	})
	unsubReciter := app.Reciter.Subscribe(func(reciter string) {
		report(store.Update(func(st *Settings) { st.Reciter = reciter }))
	})

	return func() {
		unsubDark()
		unsubReciter()
	}
}
