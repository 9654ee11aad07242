// Package dashboard assembles the per-role read models: the end user's day
// and the caregiver / therapist population view.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/ahmetcoskunkizilkaya/ablelink-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/ablelink-backend/internal/modes"
	"github.com/ahmetcoskunkizilkaya/ablelink-backend/internal/progress"
	"github.com/ahmetcoskunkizilkaya/ablelink-backend/internal/records"
	"github.com/ahmetcoskunkizilkaya/ablelink-backend/internal/settings"
	"github.com/google/uuid"
)

var (
	ErrForbidden  = errors.New("not allowed for this user")
	ErrInvalidLog = errors.New("mood must be between 0 and 5")
	ErrEmptyLog   = errors.New("no log fields to save")
)

// Notice is a non-blocking message shown alongside a degraded view.
type Notice struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

const (
	NoticeFetchFailed   = "fetch_failed"
	NoticePersistFailed = "persist_failed"
)

type UserView struct {
	User    models.User    `json:"user"`
	Date    string         `json:"date"`
	Tasks   []models.Task  `json:"tasks"`
	Log     *models.Log    `json:"log"`
	Alerts  []models.Alert `json:"alerts"`
	Notices []Notice       `json:"notices,omitempty"`
}

// Content adapts the view for an interaction surface.
func (v UserView) Content(s settings.Settings) modes.Content {
	return modes.Content{
		User:     v.User,
		Date:     v.Date,
		Tasks:    v.Tasks,
		Log:      v.Log,
		Alerts:   v.Alerts,
		Settings: s,
	}
}

type Recipient struct {
	ID             uuid.UUID       `json:"id"`
	Name           string          `json:"name"`
	DisabilityType *models.Profile `json:"disability_type,omitempty"`
	Score          progress.Score  `json:"score"`
	Status         string          `json:"status"`
	Mood           string          `json:"mood"`
	MoodDisplay    string          `json:"mood_display"`
	Progress       int             `json:"progress"`
	LastActive     time.Time       `json:"last_active"`
	Degraded       bool            `json:"degraded"`
}

const (
	ActivityTaskCompleted = "task_completed"
	ActivityMoodLogged    = "mood_logged"
)

type Activity struct {
	Kind     string    `json:"kind"`
	UserID   uuid.UUID `json:"user_id"`
	UserName string    `json:"user_name"`
	RecordID uuid.UUID `json:"record_id"`
	Action   string    `json:"action"`
	At       time.Time `json:"at"`
}

type CareAlert struct {
	models.Alert
	UserName string `json:"user_name"`
}

type CareView struct {
	Role       models.Role                `json:"role"`
	Date       string                     `json:"date"`
	Summary    progress.PopulationSummary `json:"summary"`
	Recipients []Recipient                `json:"recipients"`
	Activity   []Activity                 `json:"activity"`
	Alerts     []CareAlert                `json:"alerts"`
	Notices    []Notice                   `json:"notices,omitempty"`
}

type Service struct {
	src    records.Source
	agg    *progress.Aggregator
	logger *slog.Logger
}

func NewService(src records.Source, agg *progress.Aggregator, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{src: src, agg: agg, logger: logger}
}

func (s *Service) Source() records.Source {
	return s.src
}

// UserView reads today's tasks and log plus the user's unresolved alerts. A
// failed read leaves that part empty and adds a notice.
func (s *Service) UserView(ctx context.Context, user models.User, ref time.Time) UserView {
	v := UserView{
		User:   user,
		Date:   ref.Format(progress.DateLayout),
		Tasks:  []models.Task{},
		Alerts: []models.Alert{},
	}

	fail := func(entity string, err error) {
		s.logger.Error("dashboard fetch failed",
			"user_id", user.ID.String(), "action", "fetch_"+entity, "error", err.Error())
		v.Notices = append(v.Notices, Notice{Kind: NoticeFetchFailed, Message: "Could not load " + entity})
	}

	if tasks, err := s.src.TasksForDate(ctx, user.ID, v.Date); err != nil {
		fail(records.EntityTasks, err)
	} else if tasks != nil {
		v.Tasks = tasks
	}
	if log, err := s.src.LogForDate(ctx, user.ID, v.Date); err != nil {
		fail(records.EntityLogs, err)
	} else {
		v.Log = log
	}
	if alerts, err := s.src.ActiveAlerts(ctx, user.ID); err != nil {
		fail(records.EntityAlerts, err)
	} else if alerts != nil {
		v.Alerts = alerts
	}
	return v
}

// CareView aggregates every end user for a caregiver or therapist.
func (s *Service) CareView(ctx context.Context, viewer models.User, ref time.Time) (CareView, error) {
	if !viewer.IsCareRole() {
		return CareView{}, ErrForbidden
	}
	v := CareView{
		Role:       viewer.Role,
		Date:       ref.Format(progress.DateLayout),
		Recipients: []Recipient{},
		Activity:   []Activity{},
		Alerts:     []CareAlert{},
	}

	users, err := s.src.UsersByRole(ctx, models.RoleUser)
	if err != nil {
		s.logger.Error("dashboard fetch failed",
			"user_id", viewer.ID.String(), "action", "fetch_"+records.EntityUsers, "error", err.Error())
		v.Notices = append(v.Notices, Notice{Kind: NoticeFetchFailed, Message: "Could not load users"})
		return v, nil
	}

	results := s.agg.Population(ctx, users, ref)
	v.Summary = progress.Summarize(results)

	for _, r := range results {
		v.Recipients = append(v.Recipients, recipient(r))
		for _, t := range r.Tasks {
			if !t.Completed {
				continue
			}
			at := t.CreatedAt
			if t.CompletedAt != nil {
				at = *t.CompletedAt
			}
			v.Activity = append(v.Activity, Activity{
				Kind:     ActivityTaskCompleted,
				UserID:   r.User.ID,
				UserName: r.User.Name,
				RecordID: t.ID,
				Action:   "Completed " + t.Description,
				At:       at,
			})
		}
		if l := r.TodayLog; l != nil && l.HasMood() {
			v.Activity = append(v.Activity, Activity{
				Kind:     ActivityMoodLogged,
				UserID:   r.User.ID,
				UserName: r.User.Name,
				RecordID: l.ID,
				Action:   fmt.Sprintf("Logged mood as %q", progress.MoodName(l.Mood)),
				At:       l.CreatedAt,
			})
		}
		for _, a := range r.ActiveAlerts {
			v.Alerts = append(v.Alerts, CareAlert{Alert: a, UserName: r.User.Name})
		}
		for _, f := range r.Failures {
			v.Notices = append(v.Notices, Notice{
				Kind:    NoticeFetchFailed,
				Message: fmt.Sprintf("%s for %s", f.Message, r.User.Name),
			})
		}
	}

	slices.SortStableFunc(v.Activity, func(a, b Activity) int { return b.At.Compare(a.At) })
	slices.SortStableFunc(v.Alerts, func(a, b CareAlert) int { return b.TriggeredAt.Compare(a.TriggeredAt) })
	return v, nil
}

func recipient(r progress.UserResult) Recipient {
	return Recipient{
		ID:             r.User.ID,
		Name:           r.User.Name,
		DisabilityType: r.User.DisabilityType,
		Score:          r.Score,
		Status:         r.Score.StatusLine(),
		Mood:           r.Score.MoodLabel(),
		MoodDisplay:    r.Score.MoodDisplay(),
		Progress:       r.Score.CompositeScore,
		LastActive:     r.LastActive,
		Degraded:       r.Degraded(),
	}
}

// ToggleTask flips a task's completion. Users may toggle their own tasks;
// caregivers and therapists may toggle anyone's.
func (s *Service) ToggleTask(ctx context.Context, actor models.User, id uuid.UUID, now time.Time) (*models.Task, error) {
	t, err := s.src.Task(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.UserID != actor.ID && !actor.IsCareRole() {
		return nil, ErrForbidden
	}
	updated, err := s.src.SetTaskCompleted(ctx, id, !t.Completed, now)
	if err != nil {
		return nil, err
	}
	s.logger.Info("task toggled",
		"user_id", actor.ID.String(), "action", "toggle_task", "task_id", id.String(), "completed", updated.Completed)
	return updated, nil
}

// ResolveAlert marks an alert resolved. Resolving twice is not an error.
func (s *Service) ResolveAlert(ctx context.Context, actor models.User, id uuid.UUID) (*models.Alert, error) {
	a, err := s.src.Alert(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.UserID != actor.ID && !actor.IsCareRole() {
		return nil, ErrForbidden
	}
	if a.Resolved {
		return a, nil
	}
	updated, err := s.src.ResolveAlert(ctx, id)
	if err != nil {
		return nil, err
	}
	s.logger.Info("alert resolved",
		"user_id", actor.ID.String(), "action", "resolve_alert", "alert_id", id.String())
	return updated, nil
}

// SaveLog records the actor's own health log for the day of ref. Only the
// given fields change; the mood must be 0 (not logged) through 5.
func (s *Service) SaveLog(ctx context.Context, actor models.User, ref time.Time, f records.LogFields) (*models.Log, error) {
	if f.Empty() {
		return nil, ErrEmptyLog
	}
	if f.Mood != nil && (*f.Mood < models.MoodNotLogged || *f.Mood > models.MoodMax) {
		return nil, ErrInvalidLog
	}
	date := ref.Format(progress.DateLayout)
	l, err := s.src.UpsertLog(ctx, actor.ID, date, f)
	if err != nil {
		return nil, err
	}
	s.logger.Info("log saved",
		"user_id", actor.ID.String(), "action", "save_log", "date", date, "mood", l.Mood)
	return l, nil
}
