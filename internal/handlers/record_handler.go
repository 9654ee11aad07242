package handlers

import (
	"time"

	"github.com/ahmetcoskunkizilkaya/ablelink-backend/internal/dashboard"
	"github.com/ahmetcoskunkizilkaya/ablelink-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/ablelink-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/ablelink-backend/internal/modes"
	"github.com/gofiber/fiber/v2"
)

// RecordHandler serves the record mutations: task completion, alert
// resolution and the daily health log. The caller's surface reacts to the
// first two.
type RecordHandler struct {
	svc      *dashboard.Service
	sessions Sessions
	now      func() time.Time
}

func NewRecordHandler(svc *dashboard.Service, sessions Sessions, now func() time.Time) *RecordHandler {
	if now == nil {
		now = time.Now
	}
	return &RecordHandler{svc: svc, sessions: sessions, now: now}
}

func (h *RecordHandler) ToggleTask(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return badRequest(c, "Invalid task id")
	}
	sess, user, err := h.sessions.open(c)
	if err != nil {
		return respondError(c, err, "toggle_task", "Failed to update task")
	}

	task, err := h.svc.ToggleTask(c.UserContext(), user, id, h.now())
	if err != nil {
		return respondError(c, err, "toggle_task", "Failed to update task")
	}

	banner := sess.React(modes.Event{Kind: modes.TaskToggled, Task: task})
	return c.JSON(dto.TaskResponse{Task: task, Banner: banner})
}

func (h *RecordHandler) ResolveAlert(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return badRequest(c, "Invalid alert id")
	}
	sess, user, err := h.sessions.open(c)
	if err != nil {
		return respondError(c, err, "resolve_alert", "Failed to resolve alert")
	}

	alert, err := h.svc.ResolveAlert(c.UserContext(), user, id)
	if err != nil {
		return respondError(c, err, "resolve_alert", "Failed to resolve alert")
	}

	banner := sess.React(modes.Event{Kind: modes.AlertResolved, Alert: alert})
	return c.JSON(dto.AlertResponse{Alert: alert, Banner: banner})
}

// SaveLog creates or updates the caller's health log for today.
func (h *RecordHandler) SaveLog(c *fiber.Ctx) error {
	user, ok := middleware.User(c)
	if !ok {
		return unauthorized(c)
	}
	var req dto.SaveLogRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	l, err := h.svc.SaveLog(c.UserContext(), user, h.now(), req.Fields())
	if err != nil {
		return respondError(c, err, "save_log", "Failed to save log")
	}
	return c.JSON(dto.LogResponse{Log: l})
}
