package handlers

import (
	"errors"

	"github.com/ahmetcoskunkizilkaya/ablelink-backend/internal/dashboard"
	"github.com/ahmetcoskunkizilkaya/ablelink-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/ablelink-backend/internal/session"
	"github.com/ahmetcoskunkizilkaya/ablelink-backend/internal/settings"
	"github.com/gofiber/fiber/v2"
)

type SettingsHandler struct {
	sessions Sessions
}

func NewSettingsHandler(sessions Sessions) *SettingsHandler {
	return &SettingsHandler{sessions: sessions}
}

func (h *SettingsHandler) Get(c *fiber.Ctx) error {
	sess, _, err := h.sessions.open(c)
	if err != nil {
		return respondError(c, err, "get_settings", "Failed to load settings")
	}
	return c.JSON(settingsResponse(sess, nil))
}

// Update applies a partial change. A failed save is reported as a notice;
// the new values still apply for this session.
func (h *SettingsHandler) Update(c *fiber.Ctx) error {
	sess, _, err := h.sessions.open(c)
	if err != nil {
		return respondError(c, err, "update_settings", "Failed to update settings")
	}

	var req dto.UpdateSettingsRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	patch := req.Patch()
	if patch.Empty() {
		return badRequest(c, "No settings to update")
	}

	var notices []dashboard.Notice
	if _, err := sess.Settings.Update(c.UserContext(), patch); err != nil {
		if !errors.Is(err, settings.ErrPersist) {
			return respondError(c, err, "update_settings", "Failed to update settings")
		}
		notices = append(notices, dashboard.Notice{
			Kind:    dashboard.NoticePersistFailed,
			Message: "Settings could not be saved and will reset next time",
		})
	}
	return c.JSON(settingsResponse(sess, notices))
}

func settingsResponse(sess *session.Session, notices []dashboard.Notice) dto.SettingsResponse {
	styles := sess.Styles()
	return dto.SettingsResponse{
		Settings: sess.Settings.Current(),
		Styles:   styles,
		Classes:  styles.Classes(),
		Banner:   sess.Banner(),
		Notices:  notices,
	}
}
