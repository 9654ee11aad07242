package modes

import (
	"sync"

	"github.com/ahmetcoskunkizilkaya/ablelink-backend/internal/models"
)

// Factory creates a fresh surface for one session.
type Factory func() Surface

// Router selects a surface by disability profile. Adding a profile is one
// Register call; Select never branches on profile names.
type Router struct {
	mu        sync.RWMutex
	factories map[models.Profile]Factory
}

// NewRouter returns a router with the four built-in surfaces registered.
func NewRouter() *Router {
	r := &Router{factories: make(map[models.Profile]Factory)}
	r.Register(models.ProfileCognitive, func() Surface { return NewCognitive() })
	r.Register(models.ProfileVisual, func() Surface { return NewVisual() })
	r.Register(models.ProfileHearing, func() Surface { return NewHearing() })
	r.Register(models.ProfilePhysical, func() Surface { return NewPhysical() })
	return r
}

func (r *Router) Register(p models.Profile, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[p] = f
}

// Select returns a new surface for the user. Users without a profile, or
// with one nothing is registered for, get the NeedsConfiguration placeholder.
func (r *Router) Select(u models.User) Surface {
	if u.DisabilityType == nil {
		return NeedsConfiguration{}
	}
	r.mu.RLock()
	f, ok := r.factories[*u.DisabilityType]
	r.mu.RUnlock()
	if !ok {
		return NeedsConfiguration{}
	}
	return f()
}

// Name identifies a surface in views and logs.
func Name(s Surface) string {
	if p := s.Profile(); p != "" {
		return string(p)
	}
	return needsConfigurationName
}

const needsConfigurationName = "needs_configuration"

// NeedsConfiguration prompts the user to choose a profile. It renders no
// task data and never narrates.
type NeedsConfiguration struct{}

func (NeedsConfiguration) Profile() models.Profile { return "" }

func (NeedsConfiguration) Render(c Content) View {
	return View{
		Surface:            needsConfigurationName,
		Title:              "Choose how AbleLink works for you",
		Subtitle:           "Pick an interaction mode to set up your dashboard",
		Styles:             c.Settings.Styles().Classes(),
		Tasks:              []TaskItem{},
		Alerts:             []AlertItem{},
		NeedsConfiguration: true,
	}
}

func (NeedsConfiguration) Announce(Narrator, Content) {}

func (NeedsConfiguration) React(Narrator, Event) *Banner { return nil }
