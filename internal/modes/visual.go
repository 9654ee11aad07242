package modes

import (
	"fmt"
	"strings"

	"github.com/ahmetcoskunkizilkaya/ablelink-backend/internal/models"
)

// Visual narrates the page for screen-reader users: a summary, then every
// task, then every unresolved alert.
type Visual struct{}

func NewVisual() *Visual {
	return &Visual{}
}

func (*Visual) Profile() models.Profile { return models.ProfileVisual }

func (v *Visual) Render(c Content) View {
	view := baseView(models.ProfileVisual, c)
	view.Title = "Your Dashboard"
	view.Subtitle = "Press read to hear everything on this page"
	view.Summary = summaryFragment(c.Tasks)
	return view
}

// Fragments returns the narration sequence for the page, in fixed order.
func (v *Visual) Fragments(c Content) []string {
	out := make([]string, 0, 1+len(c.Tasks)+len(c.Alerts))
	out = append(out, summaryFragment(c.Tasks))
	for _, t := range c.Tasks {
		out = append(out, taskFragment(t))
	}
	for _, a := range c.Alerts {
		out = append(out, alertFragment(a))
	}
	return out
}

func (v *Visual) Announce(n Narrator, c Content) {
	n.SpeakSequence(v.Fragments(c))
}

func (v *Visual) Toggle(n Narrator, c Content) bool {
	if n.State().Reading() {
		n.Cancel()
		return false
	}
	n.SpeakSequence(v.Fragments(c))
	return true
}

func (v *Visual) React(n Narrator, e Event) *Banner {
	switch e.Kind {
	case TaskToggled:
		if e.Task != nil {
			n.SpeakOne(taskPhrase(e.Task.Completed))
		}
	case AlertResolved:
		n.SpeakOne("Alert resolved")
	case SettingChanged:
		n.SpeakOne(settingPhrase(e.Setting, e.Enabled))
	}
	return nil
}

func summaryFragment(tasks []models.Task) string {
	done := 0
	for _, t := range tasks {
		if t.Completed {
			done++
		}
	}
	switch len(tasks) {
	case 0:
		return "Welcome to your dashboard. You have no tasks today."
	case 1:
		return fmt.Sprintf("Welcome to your dashboard. You have 1 task today, %d completed.", done)
	default:
		return fmt.Sprintf("Welcome to your dashboard. You have %d tasks today, %d completed.", len(tasks), done)
	}
}

func taskFragment(t models.Task) string {
	state := "not completed"
	if t.Completed {
		state = "completed"
	}
	if t.Time == "" {
		return fmt.Sprintf("%s, %s.", t.Description, state)
	}
	return fmt.Sprintf("%s at %s, %s.", t.Description, t.Time, state)
}

func alertFragment(a models.Alert) string {
	kind := string(a.Type)
	if kind == "" {
		kind = string(models.AlertInfo)
	}
	return fmt.Sprintf("%s alert: %s", strings.ToUpper(kind[:1])+kind[1:], a.Message)
}
