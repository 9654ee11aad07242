package modes

import "github.com/ahmetcoskunkizilkaya/ablelink-backend/internal/models"

var alertCues = map[models.AlertType]Cue{
	models.AlertInfo:    {Color: "blue", Icon: "bell", Gesture: "☝️", Label: "Information"},
	models.AlertWarning: {Color: "yellow", Icon: "alert-triangle", Gesture: "✋", Label: "Warning"},
	models.AlertError:   {Color: "red", Icon: "alert-octagon", Gesture: "🙌", Label: "Urgent"},
	models.AlertSuccess: {Color: "green", Icon: "check-circle", Gesture: "👍", Label: "Done"},
}

var (
	taskDoneCue    = Cue{Color: "green", Icon: "check-circle", Gesture: "👍", Label: "Completed"}
	taskPendingCue = Cue{Color: "gray", Icon: "clock", Gesture: "👉", Label: "Pending"}
	dismissedCue   = Cue{Color: "green", Icon: "check-circle", Gesture: "👌", Label: "Dismissed"}
	settingCue     = Cue{Color: "blue", Icon: "settings", Gesture: "👆", Label: "Setting"}
)

// AlertCue returns the visual cue for an alert type. Unknown types use the
// info cue.
func AlertCue(t models.AlertType) Cue {
	if c, ok := alertCues[t]; ok {
		return c
	}
	return alertCues[models.AlertInfo]
}

func TaskCue(completed bool) Cue {
	if completed {
		return taskDoneCue
	}
	return taskPendingCue
}

// Hearing gives every task and alert state a color, icon and gesture glyph,
// and answers changes with a transient banner. It never narrates.
type Hearing struct{}

func NewHearing() *Hearing {
	return &Hearing{}
}

func (*Hearing) Profile() models.Profile { return models.ProfileHearing }

func (h *Hearing) Render(c Content) View {
	v := baseView(models.ProfileHearing, c)
	v.Title = "Visual Dashboard"
	v.Subtitle = "All information displayed visually"
	for i := range v.Tasks {
		cue := TaskCue(v.Tasks[i].Completed)
		v.Tasks[i].Cue = &cue
	}
	for i := range v.Alerts {
		cue := AlertCue(v.Alerts[i].Type)
		v.Alerts[i].Cue = &cue
	}
	if len(v.Alerts) == 0 {
		v.Summary = "All caught up!"
	}
	return v
}

func (h *Hearing) Announce(Narrator, Content) {}

func (h *Hearing) React(_ Narrator, e Event) *Banner {
	switch e.Kind {
	case TaskToggled:
		if e.Task == nil {
			return nil
		}
		msg := "Task marked incomplete"
		if e.Task.Completed {
			msg = "Task completed"
		}
		return &Banner{Message: msg, Cue: TaskCue(e.Task.Completed), Duration: BannerDuration}
	case AlertResolved:
		return &Banner{Message: "Notification dismissed", Cue: dismissedCue, Duration: BannerDuration}
	case SettingChanged:
		return &Banner{Message: settingPhrase(e.Setting, e.Enabled), Cue: settingCue, Duration: BannerDuration}
	}
	return nil
}
