package handlers

import (
	"time"

	"github.com/ahmetcoskunkizilkaya/ablelink-backend/internal/database"
	"github.com/ahmetcoskunkizilkaya/ablelink-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/ablelink-backend/internal/session"
	"github.com/gofiber/fiber/v2"
)

type HealthHandler struct {
	registry *session.Registry
}

func NewHealthHandler(registry *session.Registry) *HealthHandler {
	return &HealthHandler{registry: registry}
}

func (h *HealthHandler) Check(c *fiber.Ctx) error {
	dbStatus := "ok"
	if err := database.Ping(); err != nil {
		dbStatus = "unhealthy: " + err.Error()
	}

	return c.JSON(dto.HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		DB:        dbStatus,
		Sessions:  h.registry.Len(),
	})
}
