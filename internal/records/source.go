package records

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ahmetcoskunkizilkaya/ablelink-backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	EntityUsers  = "users"
	EntityTasks  = "tasks"
	EntityLogs   = "logs"
	EntityAlerts = "alerts"
)

// Source is the read/write surface of the remote data service that the
// dashboard core depends on.
type Source interface {
	User(ctx context.Context, id uuid.UUID) (*models.User, error)
	UsersByRole(ctx context.Context, role models.Role) ([]models.User, error)
	TasksForDate(ctx context.Context, userID uuid.UUID, date string) ([]models.Task, error)
	LogForDate(ctx context.Context, userID uuid.UUID, date string) (*models.Log, error)
	LogsSince(ctx context.Context, userID uuid.UUID, date string) ([]models.Log, error)
	LatestLog(ctx context.Context, userID uuid.UUID) (*models.Log, error)
	ActiveAlerts(ctx context.Context, userID uuid.UUID) ([]models.Alert, error)
	Task(ctx context.Context, id uuid.UUID) (*models.Task, error)
	Alert(ctx context.Context, id uuid.UUID) (*models.Alert, error)
	SetTaskCompleted(ctx context.Context, id uuid.UUID, completed bool, at time.Time) (*models.Task, error)
	ResolveAlert(ctx context.Context, id uuid.UUID) (*models.Alert, error)
	UpsertLog(ctx context.Context, userID uuid.UUID, date string, f LogFields) (*models.Log, error)
}

// LogFields is a partial daily log. Nil fields keep their stored value, or
// start empty when the log is created.
type LogFields struct {
	Mood        *int
	Medications *string
	Food        *string
	Notes       *string
}

func (f LogFields) Empty() bool {
	return f.Mood == nil && f.Medications == nil && f.Food == nil && f.Notes == nil
}

// Apply copies the set fields onto l and returns their column names.
func (f LogFields) Apply(l *models.Log) []string {
	var cols []string
	if f.Mood != nil {
		l.Mood = *f.Mood
		cols = append(cols, "mood")
	}
	if f.Medications != nil {
		l.Medications = *f.Medications
		cols = append(cols, "medications")
	}
	if f.Food != nil {
		l.Food = *f.Food
		cols = append(cols, "food")
	}
	if f.Notes != nil {
		l.Notes = *f.Notes
		cols = append(cols, "notes")
	}
	return cols
}

// Store implements Source on GORM.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

var _ Source = (*Store)(nil)

func (s *Store) User(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u, err := Get[models.User](ctx, s.db, id)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fetchErr(EntityUsers, id, err)
	}
	return u, err
}

func (s *Store) UsersByRole(ctx context.Context, role models.Role) ([]models.User, error) {
	users, err := List[models.User](ctx, s.db, Query{
		Filters: []Filter{Eq("role", role)},
		OrderBy: "name",
	})
	return users, fetchErr(EntityUsers, uuid.Nil, err)
}

func (s *Store) TasksForDate(ctx context.Context, userID uuid.UUID, date string) ([]models.Task, error) {
	tasks, err := List[models.Task](ctx, s.db, Query{
		Filters: []Filter{Eq("user_id", userID), Eq("date", date)},
		OrderBy: "created_at",
	})
	return tasks, fetchErr(EntityTasks, userID, err)
}

func (s *Store) LogForDate(ctx context.Context, userID uuid.UUID, date string) (*models.Log, error) {
	l, err := First[models.Log](ctx, s.db, Query{
		Filters: []Filter{Eq("user_id", userID), Eq("date", date)},
	})
	return l, fetchErr(EntityLogs, userID, err)
}

func (s *Store) LogsSince(ctx context.Context, userID uuid.UUID, date string) ([]models.Log, error) {
	logs, err := List[models.Log](ctx, s.db, Query{
		Filters: []Filter{Eq("user_id", userID), Gte("date", date)},
		OrderBy: "date",
		Desc:    true,
	})
	return logs, fetchErr(EntityLogs, userID, err)
}

func (s *Store) LatestLog(ctx context.Context, userID uuid.UUID) (*models.Log, error) {
	l, err := First[models.Log](ctx, s.db, Query{
		Filters: []Filter{Eq("user_id", userID)},
		OrderBy: "created_at",
		Desc:    true,
	})
	return l, fetchErr(EntityLogs, userID, err)
}

func (s *Store) ActiveAlerts(ctx context.Context, userID uuid.UUID) ([]models.Alert, error) {
	alerts, err := List[models.Alert](ctx, s.db, Query{
		Filters: []Filter{Eq("user_id", userID), Eq("resolved", false)},
		OrderBy: "triggered_at",
		Desc:    true,
	})
	return alerts, fetchErr(EntityAlerts, userID, err)
}

func (s *Store) Task(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	return Get[models.Task](ctx, s.db, id)
}

func (s *Store) Alert(ctx context.Context, id uuid.UUID) (*models.Alert, error) {
	return Get[models.Alert](ctx, s.db, id)
}

// SetTaskCompleted writes the completion flag and stamps or clears CompletedAt.
func (s *Store) SetTaskCompleted(ctx context.Context, id uuid.UUID, completed bool, at time.Time) (*models.Task, error) {
	fields := map[string]any{"completed": completed, "completed_at": nil}
	if completed {
		fields["completed_at"] = at.UTC()
	}
	return Update[models.Task](ctx, s.db, id, fields)
}

func (s *Store) ResolveAlert(ctx context.Context, id uuid.UUID) (*models.Alert, error) {
	return Update[models.Alert](ctx, s.db, id, map[string]any{"resolved": true})
}

// UpsertLog creates the user's log for date or updates the given fields of
// the existing one.
func (s *Store) UpsertLog(ctx context.Context, userID uuid.UUID, date string, f LogFields) (*models.Log, error) {
	row := models.Log{UserID: userID, Date: date}
	cols := f.Apply(&row)

	conflict := clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "date"}},
	}
	if len(cols) == 0 {
		conflict.DoNothing = true
	} else {
		conflict.DoUpdates = clause.AssignmentColumns(cols)
	}
	if err := s.db.WithContext(ctx).Clauses(conflict).Create(&row).Error; err != nil {
		return nil, fmt.Errorf("failed to save log: %w", err)
	}
	return First[models.Log](ctx, s.db, Query{
		Filters: []Filter{Eq("user_id", userID), Eq("date", date)},
	})
}
