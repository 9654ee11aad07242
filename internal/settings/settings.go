// Package settings owns the accessibility configuration of one client: it is
// loaded from a persisted key-value blob, seeded from ambient platform
// preferences, and mutated only through Store.Update.
package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
)

// StorageKey is the single key under which the settings blob is persisted.
const StorageKey = "accessibility-settings"

const (
	keyHighContrast = "highContrast"
	keyLargeFonts   = "largeFonts"
	keyReduceMotion = "reduceMotion"
	keyScreenReader = "screenReader"
)

var ErrPersist = errors.New("failed to persist accessibility settings")

type Settings struct {
	HighContrast bool `json:"highContrast"`
	LargeFonts   bool `json:"largeFonts"`
	ReduceMotion bool `json:"reduceMotion"`
	ScreenReader bool `json:"screenReader"`
}

// Patch is a partial update; nil fields are left untouched.
type Patch struct {
	HighContrast *bool `json:"highContrast,omitempty"`
	LargeFonts   *bool `json:"largeFonts,omitempty"`
	ReduceMotion *bool `json:"reduceMotion,omitempty"`
	ScreenReader *bool `json:"screenReader,omitempty"`
}

func (p Patch) Empty() bool {
	return p.HighContrast == nil && p.LargeFonts == nil && p.ReduceMotion == nil && p.ScreenReader == nil
}

// KV is the persisted key-value store backing a Store.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// Ambient reports platform-level accessibility preferences.
type Ambient interface {
	PrefersHighContrast() bool
	PrefersReducedMotion() bool
}

// StaticAmbient is an Ambient with fixed answers.
type StaticAmbient struct {
	HighContrast  bool
	ReducedMotion bool
}

func (a StaticAmbient) PrefersHighContrast() bool  { return a.HighContrast }
func (a StaticAmbient) PrefersReducedMotion() bool { return a.ReducedMotion }

// Store holds the current settings. Every mutation is persisted and then
// delivered synchronously to subscribers before the mutating call returns.
type Store struct {
	kv     KV
	logger *slog.Logger

	mu       sync.RWMutex
	current  Settings
	explicit map[string]bool
	subs     map[int]func(Settings)
	nextSub  int
}

func NewStore(kv KV, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		kv:       kv,
		logger:   logger,
		explicit: make(map[string]bool),
		subs:     make(map[int]func(Settings)),
	}
}

// Load reads the persisted blob. A missing, unreadable or malformed blob
// yields the all-false defaults; Load never fails.
func (s *Store) Load(ctx context.Context) Settings {
	loaded, explicit := s.read(ctx)

	s.mu.Lock()
	s.current = loaded
	s.explicit = explicit
	s.mu.Unlock()

	s.notify(loaded)
	return loaded
}

func (s *Store) read(ctx context.Context) (Settings, map[string]bool) {
	explicit := make(map[string]bool)
	if s.kv == nil {
		return Settings{}, explicit
	}

	raw, ok, err := s.kv.Get(ctx, StorageKey)
	if err != nil {
		s.logger.Warn("settings load failed, using defaults", "error", err)
		return Settings{}, explicit
	}
	if !ok || raw == "" {
		return Settings{}, explicit
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		s.logger.Warn("settings blob malformed, using defaults", "error", err)
		return Settings{}, explicit
	}
	var loaded Settings
	if err := json.Unmarshal([]byte(raw), &loaded); err != nil {
		s.logger.Warn("settings blob malformed, using defaults", "error", err)
		return Settings{}, explicit
	}
	for key := range fields {
		explicit[key] = true
	}
	return loaded, explicit
}

// DetectAmbient seeds highContrast and reduceMotion from platform signals.
// A signal only applies while the setting is still false and was never
// persisted. Ambient values live in memory until the next Update persists
// the full object.
func (s *Store) DetectAmbient(ambient Ambient) Settings {
	if ambient == nil {
		return s.Current()
	}

	s.mu.Lock()
	next := s.current
	changed := false
	if ambient.PrefersHighContrast() && !next.HighContrast && !s.explicit[keyHighContrast] {
		next.HighContrast = true
		changed = true
	}
	if ambient.PrefersReducedMotion() && !next.ReduceMotion && !s.explicit[keyReduceMotion] {
		next.ReduceMotion = true
		changed = true
	}
	s.current = next
	s.mu.Unlock()

	if changed {
		s.logger.Info("ambient accessibility preferences applied",
			"high_contrast", next.HighContrast, "reduce_motion", next.ReduceMotion)
		s.notify(next)
	}
	return next
}

// Update merges p into the current settings, persists the full result and
// notifies subscribers. A persist failure is returned wrapped in ErrPersist;
// the in-memory value is still updated and remains authoritative.
func (s *Store) Update(ctx context.Context, p Patch) (Settings, error) {
	s.mu.Lock()
	next := s.current
	if p.HighContrast != nil {
		next.HighContrast = *p.HighContrast
		s.explicit[keyHighContrast] = true
	}
	if p.LargeFonts != nil {
		next.LargeFonts = *p.LargeFonts
		s.explicit[keyLargeFonts] = true
	}
	if p.ReduceMotion != nil {
		next.ReduceMotion = *p.ReduceMotion
		s.explicit[keyReduceMotion] = true
	}
	if p.ScreenReader != nil {
		next.ScreenReader = *p.ScreenReader
		s.explicit[keyScreenReader] = true
	}
	s.current = next
	s.mu.Unlock()

	err := s.persist(ctx, next)
	s.notify(next)
	return next, err
}

func (s *Store) persist(ctx context.Context, v Settings) error {
	if s.kv == nil {
		return nil
	}
	blob, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersist, err)
	}
	if err := s.kv.Set(ctx, StorageKey, string(blob)); err != nil {
		s.logger.Warn("settings persist failed, keeping in-memory value", "error", err)
		return fmt.Errorf("%w: %v", ErrPersist, err)
	}
	return nil
}

func (s *Store) Current() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// NarrationEnabled gates audible narration.
func (s *Store) NarrationEnabled() bool {
	return s.Current().ScreenReader
}

// Subscribe registers fn for every settings change and returns a func that
// removes it.
func (s *Store) Subscribe(fn func(Settings)) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *Store) notify(v Settings) {
	s.mu.RLock()
	ids := make([]int, 0, len(s.subs))
	for id := range s.subs {
		ids = append(ids, id)
	}
	fns := make([]func(Settings), 0, len(ids))
	slices.Sort(ids)
	for _, id := range ids {
		fns = append(fns, s.subs[id])
	}
	s.mu.RUnlock()

	for _, fn := range fns {
		fn(v)
	}
}
