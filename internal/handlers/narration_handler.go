package handlers

import (
	"strings"

	"github.com/ahmetcoskunkizilkaya/ablelink-backend/internal/dto"
	"github.com/gofiber/fiber/v2"
)

type NarrationHandler struct {
	sessions Sessions
}

func NewNarrationHandler(sessions Sessions) *NarrationHandler {
	return &NarrationHandler{sessions: sessions}
}

func (h *NarrationHandler) State(c *fiber.Ctx) error {
	sess, _, err := h.sessions.open(c)
	if err != nil {
		return respondError(c, err, "narration_state", "Failed to read narration state")
	}
	return c.JSON(narrationResponse(sess))
}

// Speak interrupts anything playing and speaks one utterance.
func (h *NarrationHandler) Speak(c *fiber.Ctx) error {
	sess, _, err := h.sessions.open(c)
	if err != nil {
		return respondError(c, err, "speak", "Failed to speak")
	}

	var req dto.SpeakRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if strings.TrimSpace(req.Text) == "" {
		return badRequest(c, "text is required")
	}

	sess.Narration.SpeakOne(req.Text)
	return c.Status(fiber.StatusAccepted).JSON(narrationResponse(sess))
}

// Read replaces any active playback with a narration sequence.
func (h *NarrationHandler) Read(c *fiber.Ctx) error {
	sess, _, err := h.sessions.open(c)
	if err != nil {
		return respondError(c, err, "read_sequence", "Failed to start reading")
	}

	var req dto.ReadRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if len(req.Fragments) == 0 {
		return badRequest(c, "fragments are required")
	}

	sess.Narration.SpeakSequence(req.Fragments)
	return c.Status(fiber.StatusAccepted).JSON(narrationResponse(sess))
}

func (h *NarrationHandler) Cancel(c *fiber.Ctx) error {
	sess, _, err := h.sessions.open(c)
	if err != nil {
		return respondError(c, err, "cancel", "Failed to cancel narration")
	}
	sess.Narration.Cancel()
	return c.JSON(narrationResponse(sess))
}
