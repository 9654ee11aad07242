package handlers

import (
	"time"

	"github.com/ahmetcoskunkizilkaya/ablelink-backend/internal/dashboard"
	"github.com/ahmetcoskunkizilkaya/ablelink-backend/internal/middleware"
	"github.com/gofiber/fiber/v2"
)

type CareHandler struct {
	svc *dashboard.Service
	now func() time.Time
}

func NewCareHandler(svc *dashboard.Service, now func() time.Time) *CareHandler {
	if now == nil {
		now = time.Now
	}
	return &CareHandler{svc: svc, now: now}
}

// Dashboard aggregates every end user. Each call is a fresh snapshot.
func (h *CareHandler) Dashboard(c *fiber.Ctx) error {
	viewer, ok := middleware.User(c)
	if !ok {
		return unauthorized(c)
	}
	view, err := h.svc.CareView(c.UserContext(), viewer, h.now())
	if err != nil {
		return respondError(c, err, "care_dashboard", "Failed to load dashboard")
	}
	return c.JSON(view)
}
