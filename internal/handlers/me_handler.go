package handlers

import (
	"time"

	"github.com/ahmetcoskunkizilkaya/ablelink-backend/internal/dashboard"
	"github.com/ahmetcoskunkizilkaya/ablelink-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/ablelink-backend/internal/modes"
	"github.com/gofiber/fiber/v2"
)

// MeHandler serves the signed-in end user's dashboard through their
// interaction surface.
type MeHandler struct {
	svc      *dashboard.Service
	sessions Sessions
	now      func() time.Time
}

func NewMeHandler(svc *dashboard.Service, sessions Sessions, now func() time.Time) *MeHandler {
	if now == nil {
		now = time.Now
	}
	return &MeHandler{svc: svc, sessions: sessions, now: now}
}

// Dashboard is the page load: it reads today's data, renders it and lets the
// surface announce it. ?announce=false skips the announcement.
func (h *MeHandler) Dashboard(c *fiber.Ctx) error {
	sess, user, err := h.sessions.open(c)
	if err != nil {
		return respondError(c, err, "dashboard", "Failed to load dashboard")
	}

	view := h.svc.UserView(c.UserContext(), user, h.now())
	if c.QueryBool("announce", true) {
		sess.Surface().Announce(sess.Narration, view.Content(sess.Settings.Current()))
	}

	return c.JSON(dto.MeDashboardResponse{
		UserView: view,
		Surface:  surfaceResponse(sess, view),
	})
}

func (h *MeHandler) Surface(c *fiber.Ctx) error {
	sess, user, err := h.sessions.open(c)
	if err != nil {
		return respondError(c, err, "surface", "Failed to load surface")
	}
	view := h.svc.UserView(c.UserContext(), user, h.now())
	return c.JSON(surfaceResponse(sess, view))
}

func (h *MeHandler) Next(c *fiber.Ctx) error {
	return h.step(c, func(s modes.Stepper, n modes.Narrator) { s.Next(n) })
}

func (h *MeHandler) Prev(c *fiber.Ctx) error {
	return h.step(c, func(s modes.Stepper, n modes.Narrator) { s.Prev(n) })
}

func (h *MeHandler) step(c *fiber.Ctx, move func(modes.Stepper, modes.Narrator)) error {
	sess, user, err := h.sessions.open(c)
	if err != nil {
		return respondError(c, err, "step", "Failed to move focus")
	}
	surface := sess.Surface()
	stepper, ok := surface.(modes.Stepper)
	if !ok {
		return surfaceConflict(c, surface, "task focus")
	}

	view := h.svc.UserView(c.UserContext(), user, h.now())
	surface.Render(view.Content(sess.Settings.Current()))
	move(stepper, sess.Narration)
	return c.JSON(surfaceResponse(sess, view))
}

// Read is the surface's read-aloud action: the focused task on a stepping
// surface, or the read/pause toggle on a reading surface.
func (h *MeHandler) Read(c *fiber.Ctx) error {
	sess, user, err := h.sessions.open(c)
	if err != nil {
		return respondError(c, err, "read", "Failed to read aloud")
	}
	surface := sess.Surface()
	view := h.svc.UserView(c.UserContext(), user, h.now())
	content := view.Content(sess.Settings.Current())

	switch s := surface.(type) {
	case modes.Stepper:
		surface.Render(content)
		s.ReadCurrent(sess.Narration)
	case modes.Reader:
		s.Toggle(sess.Narration, content)
	default:
		return surfaceConflict(c, surface, "read-aloud action")
	}
	return c.JSON(surfaceResponse(sess, view))
}
