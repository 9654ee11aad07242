package handlers

import (
	"errors"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/ablelink-backend/internal/dashboard"
	"github.com/ahmetcoskunkizilkaya/ablelink-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/ablelink-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/ablelink-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/ablelink-backend/internal/modes"
	"github.com/ahmetcoskunkizilkaya/ablelink-backend/internal/records"
	"github.com/ahmetcoskunkizilkaya/ablelink-backend/internal/session"
	"github.com/ahmetcoskunkizilkaya/ablelink-backend/internal/settings"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

var errNoUser = errors.New("no current user")

// Sessions opens the calling client's session. Ambient is the host-level
// fallback for clients that send no preference hints.
type Sessions struct {
	Registry *session.Registry
	Ambient  settings.Ambient
}

func (s Sessions) open(c *fiber.Ctx) (*session.Session, models.User, error) {
	user, ok := middleware.User(c)
	if !ok {
		return nil, models.User{}, errNoUser
	}
	ambient := session.HintsFrom(c.Get, s.Ambient)
	return s.Registry.Open(c.UserContext(), middleware.ClientID(c), user, ambient), user, nil
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
		Error: true, Message: "Unauthorized",
	})
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
		Error: true, Message: message,
	})
}

// respondError maps domain errors to status codes. Anything unrecognised is
// logged and reported as fallback.
func respondError(c *fiber.Ctx, err error, action, fallback string) error {
	switch {
	case errors.Is(err, records.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error: true, Message: "Not found",
		})
	case errors.Is(err, dashboard.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
			Error: true, Message: err.Error(),
		})
	case errors.Is(err, dashboard.ErrInvalidLog), errors.Is(err, dashboard.ErrEmptyLog):
		return badRequest(c, err.Error())
	case errors.Is(err, errNoUser):
		return unauthorized(c)
	}
	slog.Error("request failed", "action", action, "path", c.Path(), "error", err.Error())
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
		Error: true, Message: fallback,
	})
}

func paramID(c *fiber.Ctx) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Params("id"))
	return id, err == nil
}

func narrationResponse(sess *session.Session) dto.NarrationResponse {
	return dto.NarrationResponse{
		Available: sess.Narration.Available(),
		Enabled:   sess.Settings.NarrationEnabled(),
		State:     sess.Narration.State(),
	}
}

func surfaceResponse(sess *session.Session, view dashboard.UserView) dto.SurfaceResponse {
	return dto.SurfaceResponse{
		View:      sess.Surface().Render(view.Content(sess.Settings.Current())),
		Narration: narrationResponse(sess),
		Styles:    sess.Styles(),
		Banner:    sess.Banner(),
		Notices:   view.Notices,
	}
}

// surfaceConflict answers requests the current surface does not support.
func surfaceConflict(c *fiber.Ctx, surface modes.Surface, what string) error {
	return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
		Error: true, Message: "The " + modes.Name(surface) + " surface has no " + what,
	})
}
