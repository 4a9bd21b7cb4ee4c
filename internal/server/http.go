package server

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/oggyb/anonchat/internal/app"
)

// NewHTTPServer exposes the keep-alive root, health and live stats.
func NewHTTPServer(appCtx *app.AppContext) *fiber.App {
	srv := fiber.New(fiber.Config{
		CaseSensitive:         true,
		StrictRouting:         true,
		DisableStartupMessage: true,
		ErrorHandler: func(ctx *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			var e *fiber.Error
			if errors.As(err, &e) {
				code = e.Code
			}
			ctx.Status(code)
			return ctx.JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	srv.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("bot is running")
	})

	srv.Get("/healthz", func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()

		checks := fiber.Map{"redis": "ok", "db": "ok"}
		healthy := true
		if err := appCtx.RedisCache.Ping(ctx); err != nil {
			checks["redis"] = err.Error()
			healthy = false
		}
		if sqlDB, err := appCtx.DB.DB(); err != nil {
			checks["db"] = err.Error()
			healthy = false
		} else if err := sqlDB.PingContext(ctx); err != nil {
			checks["db"] = err.Error()
			healthy = false
		}

		if !healthy {
			return c.Status(fiber.StatusServiceUnavailable).JSON(checks)
		}
		return c.JSON(checks)
	})

	srv.Get("/stats", func(c *fiber.Ctx) error {
		matches, err := appCtx.RedisCache.Matches(c.UserContext())
		if err != nil {
			return fiber.NewError(fiber.StatusServiceUnavailable, "stats unavailable")
		}
		return c.JSON(fiber.Map{
			"queue_len":       appCtx.Matchmaker.QueueLen(),
			"active_sessions": appCtx.Sessions.Count(),
			"profiles":        appCtx.Profiles.Count(),
			"matches_total":   matches,
		})
	})

	return srv
}
