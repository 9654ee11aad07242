// Package modes maps a user's disability profile to the interaction surface
// that renders and narrates their day.
package modes

import (
	"time"

	"github.com/ahmetcoskunkizilkaya/ablelink-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/ablelink-backend/internal/narration"
	"github.com/ahmetcoskunkizilkaya/ablelink-backend/internal/settings"
	"github.com/google/uuid"
)

// BannerDuration is how long a transient banner stays on screen.
const BannerDuration = 3 * time.Second

// Narrator is the part of the narration queue a surface drives.
type Narrator interface {
	SpeakOne(text string)
	SpeakSequence(fragments []string)
	Cancel()
	State() narration.State
}

// Content is the shared data every surface consumes.
type Content struct {
	User     models.User
	Date     string
	Tasks    []models.Task
	Log      *models.Log
	Alerts   []models.Alert
	Settings settings.Settings
}

// Surface is one interaction variant. Surfaces are created per session and
// may keep per-session state such as a task cursor.
type Surface interface {
	// Profile returns the profile served, or "" for the placeholder.
	Profile() models.Profile

	// Render builds the view for the given content.
	Render(c Content) View

	// Announce is called once when the surface is loaded.
	Announce(n Narrator, c Content)

	// React handles a state change and may return a visual banner for it.
	React(n Narrator, e Event) *Banner
}

// Stepper is implemented by surfaces that focus one task at a time.
type Stepper interface {
	Next(n Narrator) bool
	Prev(n Narrator) bool
	Current() (models.Task, bool)
	ReadCurrent(n Narrator)
}

// Reader is implemented by surfaces with a global read/pause toggle. Toggle
// reports whether reading started.
type Reader interface {
	Toggle(n Narrator, c Content) bool
}

type EventKind string

const (
	TaskToggled    EventKind = "task_toggled"
	AlertResolved  EventKind = "alert_resolved"
	SettingChanged EventKind = "setting_changed"
)

// Event describes a change the surface may react to. Setting names are the
// persisted settings keys (highContrast, largeFonts, ...).
type Event struct {
	Kind    EventKind
	Task    *models.Task
	Alert   *models.Alert
	Setting string
	Enabled bool
}

type Banner struct {
	Message  string        `json:"message"`
	Cue      Cue           `json:"cue"`
	Duration time.Duration `json:"duration"`
}

// Cue is the non-auditory equivalent of a state: a color, an icon and a
// symbolic gesture glyph.
type Cue struct {
	Color   string `json:"color"`
	Icon    string `json:"icon"`
	Gesture string `json:"gesture"`
	Label   string `json:"label"`
}

type Layout struct {
	MaxWidth string `json:"max_width"`
	Spacing  int    `json:"spacing"`
	Padding  int    `json:"padding"`
}

type TaskItem struct {
	ID          uuid.UUID `json:"id"`
	Description string    `json:"description"`
	Time        string    `json:"time"`
	Icon        string    `json:"icon"`
	Completed   bool      `json:"completed"`
	Cue         *Cue      `json:"cue,omitempty"`
}

type AlertItem struct {
	ID          uuid.UUID        `json:"id"`
	Message     string           `json:"message"`
	Type        models.AlertType `json:"type"`
	TriggeredAt time.Time        `json:"triggered_at"`
	Urgent      bool             `json:"urgent"`
	Cue         *Cue             `json:"cue,omitempty"`
}

type View struct {
	Surface            string      `json:"surface"`
	Title              string      `json:"title"`
	Subtitle           string      `json:"subtitle"`
	Layout             Layout      `json:"layout"`
	Styles             []string    `json:"styles"`
	Summary            string      `json:"summary,omitempty"`
	Tasks              []TaskItem  `json:"tasks"`
	Alerts             []AlertItem `json:"alerts"`
	Focus              *int        `json:"focus,omitempty"`
	TargetMinPx        int         `json:"target_min_px,omitempty"`
	NeedsConfiguration bool        `json:"needs_configuration"`
}

var layouts = map[models.Profile]Layout{
	models.ProfileCognitive: {MaxWidth: "2xl", Spacing: 8, Padding: 6},
	models.ProfileVisual:    {MaxWidth: "4xl", Spacing: 6, Padding: 8},
	models.ProfileHearing:   {MaxWidth: "6xl", Spacing: 4, Padding: 4},
	models.ProfilePhysical:  {MaxWidth: "3xl", Spacing: 12, Padding: 8},
}

// baseView fills the parts every concrete surface shares.
func baseView(p models.Profile, c Content) View {
	v := View{
		Surface: string(p),
		Layout:  layouts[p],
		Styles:  c.Settings.Styles().Classes(),
		Tasks:   make([]TaskItem, 0, len(c.Tasks)),
		Alerts:  make([]AlertItem, 0, len(c.Alerts)),
	}
	for _, t := range c.Tasks {
		v.Tasks = append(v.Tasks, taskItem(t))
	}
	for _, a := range c.Alerts {
		v.Alerts = append(v.Alerts, alertItem(a))
	}
	return v
}

func taskItem(t models.Task) TaskItem {
	return TaskItem{
		ID:          t.ID,
		Description: t.Description,
		Time:        t.Time,
		Icon:        t.Icon,
		Completed:   t.Completed,
	}
}

func alertItem(a models.Alert) AlertItem {
	return AlertItem{
		ID:          a.ID,
		Message:     a.Message,
		Type:        a.Type,
		TriggeredAt: a.TriggeredAt,
		Urgent:      a.Type == models.AlertError || a.Type == models.AlertWarning,
	}
}

var settingNames = map[string]string{
	"highContrast": "High contrast mode",
	"largeFonts":   "Large fonts",
	"reduceMotion": "Reduced motion",
	"screenReader": "Screen reader",
}

// settingPhrase renders a settings toggle, e.g. "Large fonts enabled".
func settingPhrase(key string, enabled bool) string {
	name, ok := settingNames[key]
	if !ok {
		name = key
	}
	if enabled {
		return name + " enabled"
	}
	return name + " disabled"
}

func taskPhrase(completed bool) string {
	if completed {
		return "Task completed"
	}
	return "Task unmarked"
}
