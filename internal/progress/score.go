// Package progress turns a user's tasks and mood logs into a 0-100 progress
// score, alone or across a watched population.
package progress

import (
	"fmt"
	"math"
	"time"

	"github.com/ahmetcoskunkizilkaya/ablelink-backend/internal/models"
)

// DateLayout is the calendar date format used by tasks and logs.
const DateLayout = "2006-01-02"

// Policy holds the scoring constants. Product may tune them; nothing else in
// the package hard-codes them.
type Policy struct {
	WindowDays int     // trailing mood window, reference date included
	TaskWeight float64 // share of task completion in the composite; mood gets the rest
	MoodScale  int     // highest mood value
}

func DefaultPolicy() Policy {
	return Policy{WindowDays: 7, TaskWeight: 0.5, MoodScale: 5}
}

func (p Policy) normalized() Policy {
	d := DefaultPolicy()
	if p.WindowDays < 1 {
		p.WindowDays = d.WindowDays
	}
	if p.TaskWeight < 0 || p.TaskWeight > 1 {
		p.TaskWeight = d.TaskWeight
	}
	if p.MoodScale < 1 {
		p.MoodScale = d.MoodScale
	}
	return p
}

// WindowStart is the first date of the mood window ending on ref.
func (p Policy) WindowStart(ref time.Time) string {
	p = p.normalized()
	return ref.AddDate(0, 0, -(p.WindowDays - 1)).Format(DateLayout)
}

type Score struct {
	TasksCompleted    int     `json:"tasks_completed"`
	TasksTotal        int     `json:"tasks_total"`
	CompletionPercent float64 `json:"completion_percent"`
	AverageRecentMood float64 `json:"average_recent_mood"`
	MoodScore         float64 `json:"mood_score"`
	NoMoodData        bool    `json:"no_mood_data"`
	CompositeScore    int     `json:"composite_score"`
}

// Compute scores one user for the reference date. Tasks not dated ref and
// logs outside the mood window are ignored, so callers may pass wider sets.
func Compute(tasks []models.Task, logs []models.Log, ref time.Time, p Policy) Score {
	p = p.normalized()
	day := ref.Format(DateLayout)
	from := p.WindowStart(ref)

	var s Score
	for _, t := range tasks {
		if t.Date != day {
			continue
		}
		s.TasksTotal++
		if t.Completed {
			s.TasksCompleted++
		}
	}
	if s.TasksTotal > 0 {
		s.CompletionPercent = float64(s.TasksCompleted) / float64(s.TasksTotal) * 100
	}

	moodSum, moodCount := 0, 0
	for _, l := range logs {
		if l.Date < from || l.Date > day || !l.HasMood() {
			continue
		}
		moodSum += min(l.Mood, p.MoodScale)
		moodCount++
	}
	if moodCount == 0 {
		s.NoMoodData = true
	} else {
		s.AverageRecentMood = float64(moodSum) / float64(moodCount)
		s.MoodScore = s.AverageRecentMood / float64(p.MoodScale) * 100
	}

	composite := math.Round(p.TaskWeight*s.CompletionPercent + (1-p.TaskWeight)*s.MoodScore)
	s.CompositeScore = int(max(0, min(100, composite)))
	return s
}

var moodLabels = []string{"Very low", "Low", "Okay", "Good", "Great"}

// MoodLabel renders the average mood for display. Missing mood data renders
// as "Not logged", never as zero.
func (s Score) MoodLabel() string {
	if s.NoMoodData {
		return "Not logged"
	}
	return MoodName(int(math.Round(s.AverageRecentMood)))
}

// MoodName labels a single mood value. Values outside 1..5 are clamped; 0 is
// "Not logged".
func MoodName(mood int) string {
	if mood <= models.MoodNotLogged {
		return "Not logged"
	}
	return moodLabels[min(len(moodLabels), mood)-1]
}

// MoodDisplay is the mood percentage as shown on care dashboards.
func (s Score) MoodDisplay() string {
	if s.NoMoodData {
		return "Not logged"
	}
	return fmt.Sprintf("%d%%", int(math.Round(s.MoodScore)))
}

// StatusLine summarises today's task progress.
func (s Score) StatusLine() string {
	pending := s.TasksTotal - s.TasksCompleted
	switch {
	case s.TasksTotal == 0:
		return "No tasks today"
	case pending == 0:
		return "All tasks completed"
	case pending == 1:
		return "1 task pending"
	default:
		return fmt.Sprintf("%d tasks pending", pending)
	}
}
