package progress

import (
	"context"
	"log/slog"
	"time"

	"github.com/ahmetcoskunkizilkaya/ablelink-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/ablelink-backend/internal/records"
	"golang.org/x/sync/errgroup"
)

// Failure is a collection that could not be fetched for one user. The
// collection was treated as empty.
type Failure struct {
	Entity  string `json:"entity"`
	Message string `json:"message"`
}

type UserResult struct {
	User         models.User    `json:"user"`
	Score        Score          `json:"score"`
	LastActive   time.Time      `json:"last_active"`
	Tasks        []models.Task  `json:"-"`
	TodayLog     *models.Log    `json:"-"`
	ActiveAlerts []models.Alert `json:"-"`
	Failures     []Failure      `json:"failures,omitempty"`
}

func (r UserResult) Degraded() bool {
	return len(r.Failures) > 0
}

type PopulationSummary struct {
	Users            int     `json:"users"`
	ActiveAlerts     int     `json:"active_alerts"`
	TasksCompleted   int     `json:"tasks_completed"`
	TasksTotal       int     `json:"tasks_total"`
	AverageComposite float64 `json:"average_composite"`
	Degraded         int     `json:"degraded"`
}

type Aggregator struct {
	src    records.Source
	policy Policy
	limit  int
	logger *slog.Logger
}

// NewAggregator returns an Aggregator that fetches at most limit users at once.
func NewAggregator(src records.Source, policy Policy, limit int, logger *slog.Logger) *Aggregator {
	if limit < 1 {
		limit = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{src: src, policy: policy.normalized(), limit: limit, logger: logger}
}

func (a *Aggregator) Policy() Policy {
	return a.policy
}

// User fetches and scores one user. Fetch failures never abort: the failed
// collection counts as empty and is listed in Failures.
func (a *Aggregator) User(ctx context.Context, user models.User, ref time.Time) UserResult {
	res := UserResult{User: user, LastActive: user.CreatedAt}
	day := ref.Format(DateLayout)

	fail := func(entity string, err error) {
		a.logger.Error("progress fetch failed",
			"user_id", user.ID.String(), "action", "fetch_"+entity, "error", err.Error())
		res.Failures = append(res.Failures, Failure{Entity: entity, Message: "Could not load " + entity})
	}

	tasks, err := a.src.TasksForDate(ctx, user.ID, day)
	if err != nil {
		fail(records.EntityTasks, err)
		tasks = nil
	}
	res.Tasks = tasks

	logs, err := a.src.LogsSince(ctx, user.ID, a.policy.WindowStart(ref))
	if err != nil {
		fail(records.EntityLogs, err)
		logs = nil
	}

	for i := range logs {
		if logs[i].Date == day {
			res.TodayLog = &logs[i]
			break
		}
	}

	latest, err := a.src.LatestLog(ctx, user.ID)
	switch {
	case err != nil:
		if !hasFailure(res.Failures, records.EntityLogs) {
			fail(records.EntityLogs, err)
		}
	case latest != nil && latest.CreatedAt.After(res.LastActive):
		res.LastActive = latest.CreatedAt
	}

	alerts, err := a.src.ActiveAlerts(ctx, user.ID)
	if err != nil {
		fail(records.EntityAlerts, err)
		alerts = nil
	}
	res.ActiveAlerts = alerts

	res.Score = Compute(tasks, logs, ref, a.policy)
	return res
}

// Population scores every user independently. Results keep the order of
// users; one user's failure never affects another's result.
func (a *Aggregator) Population(ctx context.Context, users []models.User, ref time.Time) []UserResult {
	results := make([]UserResult, len(users))

	var g errgroup.Group
	g.SetLimit(a.limit)
	for i := range users {
		g.Go(func() error {
			results[i] = a.User(ctx, users[i], ref)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func Summarize(results []UserResult) PopulationSummary {
	s := PopulationSummary{Users: len(results)}
	total := 0
	for _, r := range results {
		s.ActiveAlerts += len(r.ActiveAlerts)
		s.TasksCompleted += r.Score.TasksCompleted
		s.TasksTotal += r.Score.TasksTotal
		total += r.Score.CompositeScore
		if r.Degraded() {
			s.Degraded++
		}
	}
	if len(results) > 0 {
		s.AverageComposite = float64(total) / float64(len(results))
	}
	return s
}

func hasFailure(failures []Failure, entity string) bool {
	for _, f := range failures {
		if f.Entity == entity {
			return true
		}
	}
	return false
}
