package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/acme/lead-dialer/internal/app"
	"github.com/acme/lead-dialer/internal/dialer"
	"github.com/acme/lead-dialer/internal/prefs"
	"github.com/acme/lead-dialer/internal/repository"
)

// HandlerSet bundles all HTTP handlers.
type HandlerSet struct {
	container   *app.Container
	sessions    *dialer.Manager
	preferences *prefs.Store
	leads       repository.LeadDirectory
}

// NewHandlerSet creates a new handler bundle.
func NewHandlerSet(container *app.Container) *HandlerSet {
	return &HandlerSet{
		container:   container,
		sessions:    container.Sessions(),
		preferences: container.Preferences(),
		leads:       container.Repositories().Leads,
	}
}

// Register wires all routes onto the fiber app.
func (h *HandlerSet) Register(app *fiber.App) {
	app.Get("/healthz", h.health)

	api := app.Group("/api")
	v1 := api.Group("/v1")

	sessions := v1.Group("/sessions")
	sessions.Post("/", h.openSession)
	sessions.Get("/:id", h.getSession)
	sessions.Delete("/:id", h.closeSession)
	sessions.Post("/:id/call", h.placeCall)
	sessions.Post("/:id/hangup", h.hangUp)
	sessions.Post("/:id/mute", h.toggleMute)
	sessions.Post("/:id/speaker", h.toggleSpeaker)
	sessions.Post("/:id/digits", h.pressDigit)
	sessions.Post("/:id/outcome", h.submitOutcome)

	leads := v1.Group("/leads")
	leads.Get("/lookup", h.lookupLead)

	users := v1.Group("/users")
	users.Get("/:id/preferences/dialpad", h.getDialPadPreference)
	users.Put("/:id/preferences/dialpad", h.setDialPadPreference)
}

// ErrorHandler provides centralized error responses.
func (h *HandlerSet) ErrorHandler(ctx *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := err.Error()

	if fiberErr, ok := err.(*fiber.Error); ok {
		code = fiberErr.Code
		message = fiberErr.Message
	}

	if code == fiber.StatusInternalServerError {
		h.container.Logger.Error("request failed", zap.Error(err))
	}

	return ctx.Status(code).JSON(fiber.Map{
		"error": message,
	})
}

func (h *HandlerSet) health(ctx *fiber.Ctx) error {
	healthCtx, cancel := context.WithTimeout(ctx.Context(), 2*time.Second)
	defer cancel()

	errs := make(map[string]string)

	if err := h.container.Postgres.DB().PingContext(healthCtx); err != nil {
		errs["postgres"] = err.Error()
	}

	if err := h.container.Redis.Inner().Ping(healthCtx).Err(); err != nil {
		errs["redis"] = err.Error()
	}

	if err := h.container.Scylla.Session().Query("SELECT now() FROM system.local").WithContext(healthCtx).Exec(); err != nil {
		errs["scylla"] = err.Error()
	}

	status := fiber.StatusOK
	if len(errs) > 0 {
		status = fiber.StatusServiceUnavailable
	}

	return ctx.Status(status).JSON(fiber.Map{"status": "ok", "errors": errs})
}
