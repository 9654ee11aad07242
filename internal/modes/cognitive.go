package modes

import (
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/ahmetcoskunkizilkaya/ablelink-backend/internal/models"
	"github.com/google/uuid"
)

var clockLayouts = []string{"3:04 PM", "3:04PM", "15:04", "3 PM", "3PM"}

// minuteOfDay parses a task's time of day. ok is false for unparseable times.
func minuteOfDay(s string) (int, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Hour()*60 + t.Minute(), true
		}
	}
	return 0, false
}

// SortByTime orders tasks by time of day, ascending. Tasks with unparseable
// times keep their relative order after all parseable ones.
func SortByTime(tasks []models.Task) []models.Task {
	out := slices.Clone(tasks)
	slices.SortStableFunc(out, func(a, b models.Task) int {
		am, aok := minuteOfDay(a.Time)
		bm, bok := minuteOfDay(b.Time)
		switch {
		case aok && bok:
			return am - bm
		case aok:
			return -1
		case bok:
			return 1
		}
		return 0
	})
	return out
}

// Cognitive focuses one task at a time and steps through today's tasks in
// time order.
type Cognitive struct {
	mu     sync.Mutex
	tasks  []models.Task
	cursor int
}

func NewCognitive() *Cognitive {
	return &Cognitive{}
}

func (*Cognitive) Profile() models.Profile { return models.ProfileCognitive }

// Render refreshes the task list. The cursor stays on the same task when it
// is still present, otherwise it is clamped.
func (s *Cognitive) Render(c Content) View {
	s.mu.Lock()
	s.load(c.Tasks)
	tasks := slices.Clone(s.tasks)
	cursor := s.cursor
	s.mu.Unlock()

	v := baseView(models.ProfileCognitive, Content{Tasks: tasks, Alerts: c.Alerts, Settings: c.Settings})
	v.Title = "Today's Schedule"
	v.Subtitle = "One task at a time"
	if len(tasks) > 0 {
		v.Focus = &cursor
	}
	return v
}

func (s *Cognitive) load(tasks []models.Task) {
	var focused uuid.UUID
	if s.cursor < len(s.tasks) {
		focused = s.tasks[s.cursor].ID
	}
	s.tasks = SortByTime(tasks)
	s.cursor = 0
	for i, t := range s.tasks {
		if t.ID == focused {
			s.cursor = i
			return
		}
	}
}

func (s *Cognitive) Announce(Narrator, Content) {}

func (s *Cognitive) React(n Narrator, e Event) *Banner {
	if e.Kind != TaskToggled || e.Task == nil {
		return nil
	}
	s.mu.Lock()
	for i := range s.tasks {
		if s.tasks[i].ID == e.Task.ID {
			s.tasks[i].Completed = e.Task.Completed
		}
	}
	s.mu.Unlock()
	n.SpeakOne(taskPhrase(e.Task.Completed))
	return nil
}

// Next moves to the following task and speaks it. It reports false, and says
// nothing, when already on the last task.
func (s *Cognitive) Next(n Narrator) bool {
	s.mu.Lock()
	if s.cursor >= len(s.tasks)-1 {
		s.mu.Unlock()
		return false
	}
	s.cursor++
	desc := s.tasks[s.cursor].Description
	s.mu.Unlock()

	n.SpeakOne("Next task: " + desc)
	return true
}

func (s *Cognitive) Prev(n Narrator) bool {
	s.mu.Lock()
	if s.cursor == 0 || len(s.tasks) == 0 {
		s.mu.Unlock()
		return false
	}
	s.cursor--
	desc := s.tasks[s.cursor].Description
	s.mu.Unlock()

	n.SpeakOne("Previous task: " + desc)
	return true
}

func (s *Cognitive) Current() (models.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.tasks) == 0 {
		return models.Task{}, false
	}
	return s.tasks[s.cursor], true
}

func (s *Cognitive) ReadCurrent(n Narrator) {
	t, ok := s.Current()
	if !ok {
		n.SpeakOne("No tasks today")
		return
	}
	n.SpeakOne("Current task: " + t.Description + " at " + t.Time)
}
