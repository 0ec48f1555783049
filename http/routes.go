// http/routes.go
package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ViniZap4/sharednotes/domain"
)

// NewApp wires the routes and middleware around s.
func NewApp(s *Server) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "sharednotes",
		DisableStartupMessage: true,
		JSONEncoder:           domain.Marshal,
		ErrorHandler:          s.handleFiberError,
		ReadTimeout:           30 * time.Second,
	})

	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Content-Type",
	}))
	app.Use(requestLogger(s.log))

	app.Get("/healthz", s.HandleHealth)
	app.Get("/notes/events", s.HandleStream)
	app.All("/notes", s.HandleNotes)
	// path of the original PHP endpoint, for existing frontends
	app.All("/notes.php", s.HandleNotes)

	return app
}

func (s *Server) handleFiberError(c *fiber.Ctx, err error) error {
	return s.writeError(c, err)
}

func requestLogger(log zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			status, _ = errorResponse(err)
		}

		ev := log.Info()
		switch {
		case status >= fiber.StatusInternalServerError:
			ev = log.Error()
		case status >= fiber.StatusBadRequest:
			ev = log.Warn()
		}
		ev.Str("request_id", c.GetRespHeader(fiber.HeaderXRequestID)).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Msg("request")

		return err
	}
}
