package prefs

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Mode is the persisted theme marker.
type Mode string

const (
	ModeLight Mode = "light"
	ModeDark  Mode = "dark"
)

// ThemeKey is the storage key holding the Mode.
const ThemeKey = "theme"

// Presenter applies the dark flag to whatever renders the UI. It is called
// with the store's lock held and must not call back into the store.
type Presenter interface {
	SetDark(dark bool)
}

// PresenterFunc adapts a function to Presenter.
type PresenterFunc func(dark bool)

func (f PresenterFunc) SetDark(dark bool) { f(dark) }

// ThemeStore owns the dark/light preference. Every change is written to
// storage first; memory and the presenter only follow a successful write.
type ThemeStore struct {
	mu        sync.Mutex
	storage   Storage
	presenter Presenter
	logger    *zap.Logger
	dark      bool
}

// NewThemeStore loads the stored mode (anything but "dark" is light),
// applies it to presenter and writes the normalized marker back. A failed
// read or write is logged; the store stays usable.
func NewThemeStore(storage Storage, presenter Presenter, logger *zap.Logger) *ThemeStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &ThemeStore{storage: storage, presenter: presenter, logger: logger}

	stored, _, err := storage.Get(ThemeKey)
	if err != nil {
		logger.Warn("theme preference unreadable, using light", zap.Error(err))
	}
	s.dark = err == nil && Mode(stored) == ModeDark

	if err := storage.Set(ThemeKey, string(s.mode())); err != nil {
		logger.Warn("theme preference not persisted", zap.Error(err))
	}
	if presenter != nil {
		presenter.SetDark(s.dark)
	}
	return s
}

// IsDark reports the current preference.
func (s *ThemeStore) IsDark() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dark
}

// Mode returns the current preference as its persisted marker.
func (s *ThemeStore) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode()
}

// Toggle flips the preference and returns the new mode. On a storage error
// nothing changes.
func (s *ThemeStore) Toggle() (Mode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.setLocked(!s.dark); err != nil {
		return s.mode(), err
	}
	return s.mode(), nil
}

// Set stores an explicit preference.
func (s *ThemeStore) Set(dark bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setLocked(dark)
}

// SetPresenter replaces the presenter and applies the current flag to it.
func (s *ThemeStore) SetPresenter(p Presenter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.presenter = p
	if p != nil {
		p.SetDark(s.dark)
	}
}

func (s *ThemeStore) setLocked(dark bool) error {
	if err := s.storage.Set(ThemeKey, string(modeFor(dark))); err != nil {
		return fmt.Errorf("persist theme: %w", err)
	}
	s.dark = dark
	if s.presenter != nil {
		s.presenter.SetDark(dark)
	}
	s.logger.Debug("theme changed", zap.String("mode", string(modeFor(dark))))
	return nil
}

func (s *ThemeStore) mode() Mode { return modeFor(s.dark) }

func modeFor(dark bool) Mode {
	if dark {
		return ModeDark
	}
	return ModeLight
}

// ParseMode maps a user-supplied word to a Mode.
func ParseMode(value string) (Mode, error) {
	switch Mode(value) {
	case ModeDark, ModeLight:
		return Mode(value), nil
	default:
		return "", fmt.Errorf("unknown theme %q (want dark or light)", value)
	}
}
