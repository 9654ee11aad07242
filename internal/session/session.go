// Package session keeps one settings store, narration queue and interaction
// surface per signed-in user and client device.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ahmetcoskunkizilkaya/ablelink-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/ablelink-backend/internal/modes"
	"github.com/ahmetcoskunkizilkaya/ablelink-backend/internal/narration"
	"github.com/ahmetcoskunkizilkaya/ablelink-backend/internal/settings"
	"github.com/google/uuid"
)

// Session is the per-user, per-device bundle. Settings and Narration are safe
// for concurrent use; the surface is guarded by the session.
type Session struct {
	Key       string
	ClientID  string
	Settings  *settings.Store
	Narration *narration.Queue

	styles      *settings.StyleMirror
	unsubscribe func()
	logger      *slog.Logger
	lastUsed    atomic.Int64

	mu      sync.Mutex
	userID  uuid.UUID
	profile models.Profile
	surface modes.Surface
	prev    settings.Settings
	banner  *modes.Banner
	expires time.Time
	now     func() time.Time
}

func (s *Session) Surface() modes.Surface {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.surface
}

func (s *Session) UserID() uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID
}

func (s *Session) touch(t time.Time) {
	s.lastUsed.Store(t.UnixNano())
}

func (s *Session) idleSince() time.Time {
	return time.Unix(0, s.lastUsed.Load())
}

func (s *Session) Styles() settings.StyleFlags {
	return s.styles.Flags()
}

// React passes e to the surface and keeps any banner it returns until the
// banner's duration elapses.
func (s *Session) React(e modes.Event) *modes.Banner {
	surface := s.Surface()
	b := surface.React(s.Narration, e)
	if b == nil {
		return nil
	}
	s.mu.Lock()
	s.banner = b
	s.expires = s.now().Add(b.Duration)
	s.mu.Unlock()
	return b
}

// Banner returns the active banner, or nil once it has expired.
func (s *Session) Banner() *modes.Banner {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.banner == nil || !s.now().Before(s.expires) {
		s.banner = nil
		return nil
	}
	b := *s.banner
	return &b
}

// settingsChanged turns a settings notification into one event per key that
// changed.
func (s *Session) settingsChanged(next settings.Settings) {
	s.mu.Lock()
	prev := s.prev
	s.prev = next
	s.mu.Unlock()

	for _, c := range []struct {
		key     string
		was, is bool
	}{
		{"highContrast", prev.HighContrast, next.HighContrast},
		{"largeFonts", prev.LargeFonts, next.LargeFonts},
		{"reduceMotion", prev.ReduceMotion, next.ReduceMotion},
		{"screenReader", prev.ScreenReader, next.ScreenReader},
	} {
		if c.was != c.is {
			s.React(modes.Event{Kind: modes.SettingChanged, Setting: c.key, Enabled: c.is})
		}
	}
}

func (s *Session) close() error {
	s.unsubscribe()
	s.styles.Close()
	err := s.Narration.Close()
	if errors.Is(err, narration.ErrClosed) {
		return nil
	}
	return err
}

const (
	DefaultIdleTimeout = 30 * time.Minute
	DefaultMaxSessions = 1000
)

// Options configures a Registry.
type Options struct {
	// KV returns the settings store for a session key. Nil keeps settings in
	// memory only.
	KV        func(key string) settings.KV
	Synth     narration.Synthesizer
	Router    *modes.Router
	Narration narration.Options
	Logger    *slog.Logger
	Now       func() time.Time

	// IdleTimeout closes sessions not opened for this long. MaxSessions
	// caps the registry; the least recently used session is closed first.
	IdleTimeout time.Duration
	MaxSessions int
}

// Key scopes a client id to the user it belongs to, so two users on the same
// device, or a forged client id, never share a session.
func Key(userID uuid.UUID, clientID string) string {
	return userID.String() + ":" + clientID
}

type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	opts     Options
}

func NewRegistry(opts Options) *Registry {
	if opts.Router == nil {
		opts.Router = modes.NewRouter()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Narration.Logger == nil {
		opts.Narration.Logger = opts.Logger
	}
	if opts.IdleTimeout <= 0 {
		opts.IdleTimeout = DefaultIdleTimeout
	}
	if opts.MaxSessions <= 0 {
		opts.MaxSessions = DefaultMaxSessions
	}
	return &Registry{
		sessions: make(map[string]*Session),
		opts:     opts,
	}
}

// Open returns the user's session on clientID, creating it on first use.
// Ambient signals are read only when the session is created. An existing
// session re-selects its surface when the user's profile changed. Creating a
// session first closes idle sessions and, at capacity, the least recently
// used one.
func (r *Registry) Open(ctx context.Context, clientID string, user models.User, ambient settings.Ambient) *Session {
	key := Key(user.ID, clientID)
	now := r.opts.Now()

	r.mu.RLock()
	s, ok := r.sessions[key]
	r.mu.RUnlock()
	if ok {
		s.touch(now)
		r.reselect(s, user)
		return s
	}

	r.mu.Lock()
	if s, ok := r.sessions[key]; ok {
		r.mu.Unlock()
		s.touch(now)
		r.reselect(s, user)
		return s
	}
	evicted := r.evictLocked(now)
	s = r.create(ctx, key, clientID, user, ambient)
	s.touch(now)
	r.sessions[key] = s
	r.mu.Unlock()

	for _, e := range evicted {
		if err := e.close(); err != nil {
			e.logger.Warn("session close failed", "error", err)
		}
	}
	return s
}

// evictLocked removes idle sessions and makes room for one more. The caller
// closes the returned sessions after releasing r.mu.
func (r *Registry) evictLocked(now time.Time) []*Session {
	var out []*Session
	for key, s := range r.sessions {
		if now.Sub(s.idleSince()) > r.opts.IdleTimeout {
			delete(r.sessions, key)
			out = append(out, s)
			s.logger.Info("session evicted", "reason", "idle")
		}
	}
	for len(r.sessions) >= r.opts.MaxSessions {
		var oldest *Session
		for _, s := range r.sessions {
			if oldest == nil || s.idleSince().Before(oldest.idleSince()) {
				oldest = s
			}
		}
		delete(r.sessions, oldest.Key)
		out = append(out, oldest)
		oldest.logger.Info("session evicted", "reason", "capacity")
	}
	return out
}

func (r *Registry) create(ctx context.Context, key, clientID string, user models.User, ambient settings.Ambient) *Session {
	logger := r.opts.Logger.With("client_id", clientID, "user_id", user.ID.String())

	var kv settings.KV
	if r.opts.KV != nil {
		kv = r.opts.KV(key)
	}
	store := settings.NewStore(kv, logger)
	store.Load(ctx)
	current := store.DetectAmbient(ambient)

	nopts := r.opts.Narration
	nopts.Logger = logger
	s := &Session{
		Key:       key,
		ClientID:  clientID,
		Settings:  store,
		Narration: narration.New(r.opts.Synth, store, nopts),
		styles:    settings.MirrorStyles(store, nil),
		logger:    logger,
		userID:    user.ID,
		profile:   profileOf(user),
		surface:   r.opts.Router.Select(user),
		prev:      current,
		now:       r.opts.Now,
	}
	s.unsubscribe = store.Subscribe(s.settingsChanged)

	logger.Info("session opened",
		"surface", modes.Name(s.surface), "narration_available", s.Narration.Available())
	return s
}

func (r *Registry) reselect(s *Session, user models.User) {
	p := profileOf(user)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.profile == p {
		return
	}
	s.Narration.Cancel()
	s.profile = p
	s.surface = r.opts.Router.Select(user)
	s.banner = nil
	s.logger.Info("surface reselected", "surface", modes.Name(s.surface))
}

func profileOf(u models.User) models.Profile {
	if u.DisabilityType == nil {
		return ""
	}
	return *u.DisabilityType
}

func (r *Registry) Get(userID uuid.UUID, clientID string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[Key(userID, clientID)]
	return s, ok
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Close ends one session, stopping its narration.
func (r *Registry) Close(userID uuid.UUID, clientID string) error {
	key := Key(userID, clientID)
	r.mu.Lock()
	s, ok := r.sessions[key]
	delete(r.sessions, key)
	r.mu.Unlock()
	if !ok {
		return nil
	}
	return s.close()
}

// CloseAll ends every session. Used on shutdown.
func (r *Registry) CloseAll() error {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()

	var errs []error
	for _, s := range sessions {
		if err := s.close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
