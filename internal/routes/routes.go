package routes

import (
	"time"

	"github.com/ahmetcoskunkizilkaya/ablelink-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/ablelink-backend/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/ablelink-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/ablelink-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/ablelink-backend/internal/records"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

type Handlers struct {
	Health    *handlers.HealthHandler
	Me        *handlers.MeHandler
	Narration *handlers.NarrationHandler
	Settings  *handlers.SettingsHandler
	Records   *handlers.RecordHandler
	Care      *handlers.CareHandler
}

func Setup(app *fiber.App, cfg *config.Config, src records.Source, h Handlers) {
	api := app.Group("/api")

	// General API rate limiter: 120 req/min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               120,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	api.Get("/health", h.Health.Check)

	// Everything below needs a verified token and a known user.
	authed := []fiber.Handler{middleware.JWTProtected(cfg), middleware.CurrentUser(src)}

	me := api.Group("/me", authed...)
	me.Get("/dashboard", h.Me.Dashboard)
	me.Get("/surface", h.Me.Surface)
	me.Post("/surface/next", h.Me.Next)
	me.Post("/surface/prev", h.Me.Prev)
	me.Post("/surface/read", h.Me.Read)

	me.Get("/narration", h.Narration.State)
	me.Post("/narration/speak", h.Narration.Speak)
	me.Post("/narration/read", h.Narration.Read)
	me.Post("/narration/cancel", h.Narration.Cancel)

	me.Get("/settings", h.Settings.Get)
	me.Patch("/settings", h.Settings.Update)

	me.Put("/log", h.Records.SaveLog)

	api.Post("/tasks/:id/toggle", append(authed, h.Records.ToggleTask)...)
	api.Post("/alerts/:id/resolve", append(authed, h.Records.ResolveAlert)...)

	care := api.Group("/care", append(authed, middleware.RoleRequired(models.RoleCaregiver, models.RoleTherapist))...)
	care.Get("/dashboard", h.Care.Dashboard)
}
