package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/ablelink-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/ablelink-backend/internal/dashboard"
	"github.com/ahmetcoskunkizilkaya/ablelink-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/ablelink-backend/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/ablelink-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/ablelink-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/ablelink-backend/internal/narration"
	"github.com/ahmetcoskunkizilkaya/ablelink-backend/internal/progress"
	"github.com/ahmetcoskunkizilkaya/ablelink-backend/internal/records/recordstest"
	"github.com/ahmetcoskunkizilkaya/ablelink-backend/internal/routes"
	"github.com/ahmetcoskunkizilkaya/ablelink-backend/internal/session"
	"github.com/ahmetcoskunkizilkaya/ablelink-backend/internal/settings"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSecret = "test-secret"
	today      = "2026-10-18"
)

var now = time.Date(2026, 10, 18, 10, 0, 0, 0, time.UTC)

type recordingSynth struct {
	mu     sync.Mutex
	spoken []string
}

func (r *recordingSynth) Speak(_ context.Context, u narration.Utterance) error {
	r.mu.Lock()
	r.spoken = append(r.spoken, u.Text)
	r.mu.Unlock()
	return nil
}

func (r *recordingSynth) texts() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.spoken...)
}

type env struct {
	app      *fiber.App
	src      *recordstest.Memory
	registry *session.Registry
	synth    *recordingSynth
}

func newEnv(t *testing.T) *env {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := &config.Config{JWTSecret: testSecret, CORSOrigins: "*"}
	src := recordstest.New()
	synth := &recordingSynth{}

	registry := session.NewRegistry(session.Options{
		Synth:     synth,
		Narration: narration.Options{Pause: time.Millisecond},
		Logger:    logger,
	})
	t.Cleanup(func() { _ = registry.CloseAll() })

	svc := dashboard.NewService(src, progress.NewAggregator(src, progress.DefaultPolicy(), 4, logger), logger)
	sessions := handlers.Sessions{Registry: registry}
	clock := func() time.Time { return now }

	app := fiber.New()
	app.Use(middleware.SecurityHeaders())
	routes.Setup(app, cfg, src, routes.Handlers{
		Health:    handlers.NewHealthHandler(registry),
		Me:        handlers.NewMeHandler(svc, sessions, clock),
		Narration: handlers.NewNarrationHandler(sessions),
		Settings:  handlers.NewSettingsHandler(sessions),
		Records:   handlers.NewRecordHandler(svc, sessions, clock),
		Care:      handlers.NewCareHandler(svc, clock),
	})
	return &env{app: app, src: src, registry: registry, synth: synth}
}

func token(t *testing.T, id uuid.UUID) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": id.String(),
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

type call struct {
	method  string
	path    string
	user    uuid.UUID
	body    any
	headers map[string]string
}

func (e *env) do(t *testing.T, c call, out any) int {
	t.Helper()
	var body io.Reader
	if c.body != nil {
		b, err := json.Marshal(c.body)
		require.NoError(t, err)
		body = bytes.NewReader(b)
	}
	req := httptest.NewRequest(c.method, c.path, body)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.HeaderClientID, "tablet")
	if c.user != uuid.Nil {
		req.Header.Set("Authorization", "Bearer "+token(t, c.user))
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func (e *env) waitIdle(t *testing.T, user uuid.UUID) {
	t.Helper()
	sess, ok := e.registry.Get(user, "tablet")
	require.True(t, ok)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, sess.Narration.Wait(ctx))
}

func (e *env) enableNarration(t *testing.T, user uuid.UUID) {
	t.Helper()
	on := true
	status := e.do(t, call{method: http.MethodPatch, path: "/api/me/settings", user: user,
		body: dto.UpdateSettingsRequest{ScreenReader: &on}}, nil)
	require.Equal(t, http.StatusOK, status)
	e.waitIdle(t, user)
}

func profile(p models.Profile) *models.Profile { return &p }

func TestHealth_Public(t *testing.T) {
	e := newEnv(t)
	var body dto.HealthResponse
	status := e.do(t, call{method: http.MethodGet, path: "/api/health"}, &body)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, 0, body.Sessions)
}

func TestAuth_RequiresTokenAndKnownUser(t *testing.T) {
	e := newEnv(t)
	var body dto.ErrorResponse

	status := e.do(t, call{method: http.MethodGet, path: "/api/me/dashboard"}, &body)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.True(t, body.Error)

	status = e.do(t, call{method: http.MethodGet, path: "/api/me/dashboard", user: uuid.New()}, &body)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Unknown user", body.Message)
}

func TestDashboard_NoProfileRendersPlaceholder(t *testing.T) {
	e := newEnv(t)
	u := e.src.AddUser(models.User{Name: "amir"})
	e.src.AddTask(models.Task{UserID: u.ID, Date: today, Description: "Eat breakfast"})

	var body dto.MeDashboardResponse
	status := e.do(t, call{method: http.MethodGet, path: "/api/me/dashboard", user: u.ID}, &body)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body.Tasks, 1)
	assert.True(t, body.Surface.View.NeedsConfiguration)
	assert.Equal(t, "needs_configuration", body.Surface.View.Surface)
	assert.Empty(t, body.Surface.View.Tasks)
}

func TestDashboard_VisualAnnouncesWhenNarrationEnabled(t *testing.T) {
	e := newEnv(t)
	u := e.src.AddUser(models.User{Name: "vera", DisabilityType: profile(models.ProfileVisual)})
	e.src.AddTask(models.Task{UserID: u.ID, Date: today, Description: "Eat breakfast", Time: "9:30 AM"})
	e.src.AddAlert(models.Alert{UserID: u.ID, Message: "Missed medication", Type: models.AlertWarning, TriggeredAt: now})

	e.do(t, call{method: http.MethodGet, path: "/api/me/dashboard", user: u.ID}, nil)
	e.waitIdle(t, u.ID)
	assert.Empty(t, e.synth.texts())

	e.enableNarration(t, u.ID)
	e.do(t, call{method: http.MethodGet, path: "/api/me/dashboard", user: u.ID}, nil)
	e.waitIdle(t, u.ID)

	assert.Equal(t, []string{
		"Screen reader enabled",
		"Welcome to your dashboard. You have 1 task today, 0 completed.",
		"Eat breakfast at 9:30 AM, not completed.",
		"Warning alert: Missed medication",
	}, e.synth.texts())
}

func TestSurface_CognitiveStepping(t *testing.T) {
	e := newEnv(t)
	u := e.src.AddUser(models.User{Name: "cleo", DisabilityType: profile(models.ProfileCognitive)})
	e.src.AddTask(models.Task{UserID: u.ID, Date: today, Description: "Exercise", Time: "2:00 PM"})
	e.src.AddTask(models.Task{UserID: u.ID, Date: today, Description: "Take medication", Time: "9:00 AM"})
	e.enableNarration(t, u.ID)

	var body dto.SurfaceResponse
	status := e.do(t, call{method: http.MethodPost, path: "/api/me/surface/next", user: u.ID}, &body)
	require.Equal(t, http.StatusOK, status)
	require.NotNil(t, body.View.Focus)
	assert.Equal(t, 1, *body.View.Focus)
	e.waitIdle(t, u.ID)

	status = e.do(t, call{method: http.MethodPost, path: "/api/me/surface/read", user: u.ID}, &body)
	require.Equal(t, http.StatusOK, status)
	e.waitIdle(t, u.ID)

	assert.Equal(t, []string{
		"Next task: Exercise",
		"Current task: Exercise at 2:00 PM",
	}, e.synth.texts())
}

func TestSurface_StepUnsupported(t *testing.T) {
	e := newEnv(t)
	u := e.src.AddUser(models.User{Name: "pat", DisabilityType: profile(models.ProfilePhysical)})

	var body dto.ErrorResponse
	status := e.do(t, call{method: http.MethodPost, path: "/api/me/surface/next", user: u.ID}, &body)
	assert.Equal(t, http.StatusConflict, status)
	assert.Contains(t, body.Message, "physical")

	status = e.do(t, call{method: http.MethodPost, path: "/api/me/surface/read", user: u.ID}, &body)
	assert.Equal(t, http.StatusConflict, status)
}

func TestNarration_SpeakValidatesAndPlays(t *testing.T) {
	e := newEnv(t)
	u := e.src.AddUser(models.User{Name: "vera", DisabilityType: profile(models.ProfileVisual)})
	e.enableNarration(t, u.ID)

	status := e.do(t, call{method: http.MethodPost, path: "/api/me/narration/speak", user: u.ID,
		body: dto.SpeakRequest{Text: "  "}}, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status = e.do(t, call{method: http.MethodPost, path: "/api/me/narration/read", user: u.ID,
		body: dto.ReadRequest{}}, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	var state dto.NarrationResponse
	status = e.do(t, call{method: http.MethodPost, path: "/api/me/narration/speak", user: u.ID,
		body: dto.SpeakRequest{Text: "Hello"}}, &state)
	assert.Equal(t, http.StatusAccepted, status)
	assert.True(t, state.Available)
	assert.True(t, state.Enabled)
	e.waitIdle(t, u.ID)

	status = e.do(t, call{method: http.MethodPost, path: "/api/me/narration/cancel", user: u.ID}, &state)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, narration.Idle, state.State.Phase)
	assert.Contains(t, e.synth.texts(), "Hello")
}

func TestSettings_PatchAndHints(t *testing.T) {
	e := newEnv(t)
	u := e.src.AddUser(models.User{Name: "amir"})

	var got dto.SettingsResponse
	status := e.do(t, call{method: http.MethodGet, path: "/api/me/settings", user: u.ID,
		headers: map[string]string{session.HeaderPrefersContrast: "more"}}, &got)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, got.Settings.HighContrast)
	assert.Equal(t, []string{"high-contrast"}, got.Classes)

	status = e.do(t, call{method: http.MethodPatch, path: "/api/me/settings", user: u.ID,
		body: map[string]any{}}, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	on := true
	status = e.do(t, call{method: http.MethodPatch, path: "/api/me/settings", user: u.ID,
		body: dto.UpdateSettingsRequest{LargeFonts: &on}}, &got)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, settings.Settings{HighContrast: true, LargeFonts: true}, got.Settings)
	assert.Equal(t, []string{"high-contrast", "large-fonts"}, got.Classes)
	assert.Empty(t, got.Notices)
}

func TestToggleTask(t *testing.T) {
	e := newEnv(t)
	owner := e.src.AddUser(models.User{Name: "hana", DisabilityType: profile(models.ProfileHearing)})
	other := e.src.AddUser(models.User{Name: "bea"})
	task := e.src.AddTask(models.Task{UserID: owner.ID, Date: today, Description: "Eat breakfast"})

	var got dto.TaskResponse
	status := e.do(t, call{method: http.MethodPost, path: "/api/tasks/" + task.ID.String() + "/toggle", user: owner.ID}, &got)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, got.Task.Completed)
	require.NotNil(t, got.Banner)
	assert.Equal(t, "Task completed", got.Banner.Message)

	status = e.do(t, call{method: http.MethodPost, path: "/api/tasks/" + task.ID.String() + "/toggle", user: other.ID}, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status = e.do(t, call{method: http.MethodPost, path: "/api/tasks/not-a-uuid/toggle", user: owner.ID}, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status = e.do(t, call{method: http.MethodPost, path: "/api/tasks/" + uuid.NewString() + "/toggle", user: owner.ID}, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestResolveAlert(t *testing.T) {
	e := newEnv(t)
	owner := e.src.AddUser(models.User{Name: "hana", DisabilityType: profile(models.ProfileHearing)})
	alert := e.src.AddAlert(models.Alert{UserID: owner.ID, Message: "Missed medication", TriggeredAt: now})

	var got dto.AlertResponse
	status := e.do(t, call{method: http.MethodPost, path: "/api/alerts/" + alert.ID.String() + "/resolve", user: owner.ID}, &got)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, got.Alert.Resolved)
	require.NotNil(t, got.Banner)
	assert.Equal(t, "Notification dismissed", got.Banner.Message)

	var surface dto.SurfaceResponse
	e.do(t, call{method: http.MethodGet, path: "/api/me/surface", user: owner.ID}, &surface)
	assert.Empty(t, surface.View.Alerts)
	require.NotNil(t, surface.Banner)
}

func TestCareDashboard(t *testing.T) {
	e := newEnv(t)
	carer := e.src.AddUser(models.User{Name: "carla", Role: models.RoleCaregiver})
	amir := e.src.AddUser(models.User{Name: "amir"})
	e.src.AddTask(models.Task{UserID: amir.ID, Date: today, Description: "Brush teeth", Completed: true, CompletedAt: &now})
	e.src.AddLog(models.Log{UserID: amir.ID, Date: today, Mood: 4, CreatedAt: now})

	status := e.do(t, call{method: http.MethodGet, path: "/api/care/dashboard", user: amir.ID}, nil)
	assert.Equal(t, http.StatusForbidden, status)

	var view dashboard.CareView
	status = e.do(t, call{method: http.MethodGet, path: "/api/care/dashboard", user: carer.ID}, &view)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, view.Recipients, 1)
	assert.Equal(t, "amir", view.Recipients[0].Name)
	assert.Equal(t, 90, view.Recipients[0].Progress)
	assert.Equal(t, "Good", view.Recipients[0].Mood)
	require.Len(t, view.Activity, 2)
	assert.Equal(t, "Completed Brush teeth", view.Activity[0].Action)
	assert.Equal(t, `Logged mood as "Good"`, view.Activity[1].Action)
	assert.Equal(t, dashboard.ActivityMoodLogged, view.Activity[1].Kind)
}

func TestSettings_ClientIDIsScopedToUser(t *testing.T) {
	e := newEnv(t)
	owner := e.src.AddUser(models.User{Name: "amir"})
	other := e.src.AddUser(models.User{Name: "bea"})
	shared := map[string]string{middleware.HeaderClientID: "user:" + owner.ID.String()}

	on := true
	status := e.do(t, call{method: http.MethodPatch, path: "/api/me/settings", user: owner.ID, headers: shared,
		body: dto.UpdateSettingsRequest{HighContrast: &on}}, nil)
	require.Equal(t, http.StatusOK, status)

	var got dto.SettingsResponse
	status = e.do(t, call{method: http.MethodPatch, path: "/api/me/settings", user: other.ID, headers: shared,
		body: dto.UpdateSettingsRequest{LargeFonts: &on}}, &got)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, settings.Settings{LargeFonts: true}, got.Settings)

	status = e.do(t, call{method: http.MethodGet, path: "/api/me/settings", user: owner.ID, headers: shared}, &got)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, settings.Settings{HighContrast: true}, got.Settings)
	assert.Equal(t, 2, e.registry.Len())
}

func TestSaveLog(t *testing.T) {
	e := newEnv(t)
	u := e.src.AddUser(models.User{Name: "amir"})
	mood, meds := 4, "Vitamin D"

	var got dto.LogResponse
	status := e.do(t, call{method: http.MethodPut, path: "/api/me/log", user: u.ID,
		body: dto.SaveLogRequest{Mood: &mood, Medications: &meds}}, &got)
	require.Equal(t, http.StatusOK, status)
	require.NotNil(t, got.Log)
	assert.Equal(t, today, got.Log.Date)
	assert.Equal(t, 4, got.Log.Mood)
	assert.Equal(t, "Vitamin D", got.Log.Medications)

	food := "Porridge"
	status = e.do(t, call{method: http.MethodPut, path: "/api/me/log", user: u.ID,
		body: dto.SaveLogRequest{Food: &food}}, &got)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 4, got.Log.Mood)
	assert.Equal(t, "Porridge", got.Log.Food)

	var body dto.MeDashboardResponse
	e.do(t, call{method: http.MethodGet, path: "/api/me/dashboard?announce=false", user: u.ID}, &body)
	require.NotNil(t, body.Log)
	assert.Equal(t, "Vitamin D", body.Log.Medications)
	assert.Equal(t, "Porridge", body.Log.Food)
}

func TestSaveLog_RejectsInvalidInput(t *testing.T) {
	e := newEnv(t)
	u := e.src.AddUser(models.User{Name: "amir"})

	for _, mood := range []int{-1, 6} {
		var body dto.ErrorResponse
		status := e.do(t, call{method: http.MethodPut, path: "/api/me/log", user: u.ID,
			body: dto.SaveLogRequest{Mood: &mood}}, &body)
		assert.Equal(t, http.StatusBadRequest, status, "mood %d", mood)
		assert.True(t, body.Error)
	}

	status := e.do(t, call{method: http.MethodPut, path: "/api/me/log", user: u.ID,
		body: map[string]any{}}, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status = e.do(t, call{method: http.MethodPut, path: "/api/me/log", body: dto.SaveLogRequest{}}, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestSecurityHeaders_RequestClientHints(t *testing.T) {
	e := newEnv(t)
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Contains(t, resp.Header.Get("Accept-CH"), session.HeaderPrefersReducedMotion)
}
