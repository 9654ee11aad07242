// Package recordstest provides an in-memory records.Source for tests.
package recordstest

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/ahmetcoskunkizilkaya/ablelink-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/ablelink-backend/internal/records"
	"github.com/google/uuid"
)

var ErrInjected = errors.New("injected failure")

type Memory struct {
	mu     sync.Mutex
	users  map[uuid.UUID]models.User
	tasks  map[uuid.UUID]models.Task
	logs   map[uuid.UUID]models.Log
	alerts map[uuid.UUID]models.Alert
	fail   map[string]map[uuid.UUID]bool
}

var _ records.Source = (*Memory)(nil)

func New() *Memory {
	return &Memory{
		users:  make(map[uuid.UUID]models.User),
		tasks:  make(map[uuid.UUID]models.Task),
		logs:   make(map[uuid.UUID]models.Log),
		alerts: make(map[uuid.UUID]models.Alert),
		fail:   make(map[string]map[uuid.UUID]bool),
	}
}

// Fail makes every fetch of entity for userID return ErrInjected.
func (m *Memory) Fail(entity string, userID uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail[entity] == nil {
		m.fail[entity] = make(map[uuid.UUID]bool)
	}
	m.fail[entity][userID] = true
}

func (m *Memory) failing(entity string, userID uuid.UUID) error {
	if m.fail[entity][userID] {
		return &records.FetchError{Entity: entity, UserID: userID, Err: ErrInjected}
	}
	return nil
}

func (m *Memory) AddUser(u models.User) models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.Role == "" {
		u.Role = models.RoleUser
	}
	m.users[u.ID] = u
	return u
}

func (m *Memory) AddTask(t models.Task) models.Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	m.tasks[t.ID] = t
	return t
}

func (m *Memory) AddLog(l models.Log) models.Log {
	m.mu.Lock()
	defer m.mu.Unlock()
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	m.logs[l.ID] = l
	return l
}

func (m *Memory) AddAlert(a models.Alert) models.Alert {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.Type == "" {
		a.Type = models.AlertInfo
	}
	m.alerts[a.ID] = a
	return a
}

func (m *Memory) User(_ context.Context, id uuid.UUID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failing(records.EntityUsers, id); err != nil {
		return nil, err
	}
	u, ok := m.users[id]
	if !ok {
		return nil, records.ErrNotFound
	}
	return &u, nil
}

func (m *Memory) UsersByRole(_ context.Context, role models.Role) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failing(records.EntityUsers, uuid.Nil); err != nil {
		return nil, err
	}
	var out []models.User
	for _, u := range m.users {
		if u.Role == role {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *Memory) TasksForDate(_ context.Context, userID uuid.UUID, date string) ([]models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failing(records.EntityTasks, userID); err != nil {
		return nil, err
	}
	var out []models.Task
	for _, t := range m.tasks {
		if t.UserID == userID && t.Date == date {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) LogForDate(_ context.Context, userID uuid.UUID, date string) (*models.Log, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failing(records.EntityLogs, userID); err != nil {
		return nil, err
	}
	for _, l := range m.logs {
		if l.UserID == userID && l.Date == date {
			return &l, nil
		}
	}
	return nil, nil
}

func (m *Memory) LogsSince(_ context.Context, userID uuid.UUID, date string) ([]models.Log, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failing(records.EntityLogs, userID); err != nil {
		return nil, err
	}
	var out []models.Log
	for _, l := range m.logs {
		if l.UserID == userID && l.Date >= date {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out, nil
}

func (m *Memory) LatestLog(_ context.Context, userID uuid.UUID) (*models.Log, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failing(records.EntityLogs, userID); err != nil {
		return nil, err
	}
	var latest *models.Log
	for _, l := range m.logs {
		if l.UserID != userID {
			continue
		}
		if latest == nil || l.CreatedAt.After(latest.CreatedAt) {
			l := l
			latest = &l
		}
	}
	return latest, nil
}

func (m *Memory) ActiveAlerts(_ context.Context, userID uuid.UUID) ([]models.Alert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failing(records.EntityAlerts, userID); err != nil {
		return nil, err
	}
	var out []models.Alert
	for _, a := range m.alerts {
		if a.UserID == userID && !a.Resolved {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TriggeredAt.After(out[j].TriggeredAt) })
	return out, nil
}

func (m *Memory) Task(_ context.Context, id uuid.UUID) (*models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok {
		return nil, records.ErrNotFound
	}
	return &t, nil
}

func (m *Memory) Alert(_ context.Context, id uuid.UUID) (*models.Alert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.alerts[id]
	if !ok {
		return nil, records.ErrNotFound
	}
	return &a, nil
}

func (m *Memory) SetTaskCompleted(_ context.Context, id uuid.UUID, completed bool, at time.Time) (*models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok {
		return nil, records.ErrNotFound
	}
	t.Completed = completed
	t.CompletedAt = nil
	if completed {
		stamp := at.UTC()
		t.CompletedAt = &stamp
	}
	m.tasks[id] = t
	return &t, nil
}

func (m *Memory) ResolveAlert(_ context.Context, id uuid.UUID) (*models.Alert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.alerts[id]
	if !ok {
		return nil, records.ErrNotFound
	}
	a.Resolved = true
	m.alerts[id] = a
	return &a, nil
}

func (m *Memory) UpsertLog(_ context.Context, userID uuid.UUID, date string, f records.LogFields) (*models.Log, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failing(records.EntityLogs, userID); err != nil {
		return nil, err
	}
	for id, l := range m.logs {
		if l.UserID == userID && l.Date == date {
			f.Apply(&l)
			m.logs[id] = l
			return &l, nil
		}
	}
	l := models.Log{ID: uuid.New(), UserID: userID, Date: date, CreatedAt: time.Now().UTC()}
	f.Apply(&l)
	m.logs[l.ID] = l
	return &l, nil
}
