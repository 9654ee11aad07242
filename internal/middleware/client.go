package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

const (
	HeaderClientID = "X-Client-ID"
	// DefaultClientID names the device of clients that send no header.
	DefaultClientID = "default"
	maxClientIDLen  = 64
)

// ClientID identifies the device a request comes from. It only tells one
// user's devices apart; sessions are always scoped to the signed-in user.
func ClientID(c *fiber.Ctx) string {
	id := strings.TrimSpace(c.Get(HeaderClientID))
	if id == "" {
		return DefaultClientID
	}
	if len(id) > maxClientIDLen {
		id = id[:maxClientIDLen]
	}
	return id
}

// SecurityHeaders sets the response hardening headers and asks browsers for
// the accessibility client hints.
func SecurityHeaders() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-XSS-Protection", "1; mode=block")
		c.Set("Accept-CH", "Sec-CH-Prefers-Contrast, Sec-CH-Prefers-Reduced-Motion")
		return c.Next()
	}
}
