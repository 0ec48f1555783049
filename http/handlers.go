// http/handlers.go
package http

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"

	"github.com/ViniZap4/sharednotes/domain"
	"github.com/ViniZap4/sharednotes/feed"
)

const defaultPingInterval = 15 * time.Second

// NoteStore is the storage the handlers need. List never fails: an
// unreadable store reads as an empty log.
type NoteStore interface {
	List(ctx context.Context) []domain.Note
	Append(ctx context.Context, fields domain.RawFields) ([]domain.Note, error)
}

type Server struct {
	store        NoteStore
	hub          *feed.Hub
	log          zerolog.Logger
	pingInterval time.Duration
}

func NewServer(store NoteStore, hub *feed.Hub, log zerolog.Logger) *Server {
	return &Server{store: store, hub: hub, log: log, pingInterval: defaultPingInterval}
}

// HandleNotes dispatches /notes by method: GET lists, POST appends.
func (s *Server) HandleNotes(c *fiber.Ctx) error {
	switch c.Method() {
	case fiber.MethodGet:
		return s.HandleList(c)
	case fiber.MethodPost:
		return s.HandleAppend(c)
	default:
		c.Set(fiber.HeaderAllow, "GET, POST")
		return s.writeError(c, domain.ErrMethodNotAllowed)
	}
}

func (s *Server) HandleList(c *fiber.Ctx) error {
	if c.Query("action") != "list" {
		return s.writeError(c, domain.ErrBadRequest)
	}

	return writeJSON(c, fiber.StatusOK, s.store.List(c.UserContext()))
}

func (s *Server) HandleAppend(c *fiber.Ctx) error {
	fields, err := domain.ParseFields(c.Body())
	if err != nil {
		return s.writeError(c, err)
	}

	notes, err := s.store.Append(c.UserContext(), fields)
	if err != nil {
		return s.writeError(c, err)
	}

	if s.hub != nil && len(notes) > 0 {
		note := notes[0]
		s.hub.Broadcast(feed.EventNoteCreated, &note)
	}

	return writeJSON(c, fiber.StatusOK, notes)
}

// HandleStream streams feed events as server-sent events until the client
// goes away or the hub stops.
func (s *Server) HandleStream(c *fiber.Ctx) error {
	if s.hub == nil {
		return fiber.ErrNotFound
	}

	events, unsubscribe := s.hub.Subscribe()
	log := s.log

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	ping := s.pingInterval
	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer unsubscribe()

		ticker := time.NewTicker(ping)
		defer ticker.Stop()

		// flush headers right away so clients see the stream open
		fmt.Fprint(w, ": connected\n\n")
		if err := w.Flush(); err != nil {
			return
		}

		for {
			select {
			case ev, ok := <-events:
				if !ok {
					return
				}
				data, err := domain.Marshal(ev)
				if err != nil {
					log.Error().Err(err).Msg("encoding feed event failed")
					continue
				}
				fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, data)
			case <-ticker.C:
				fmt.Fprint(w, ": ping\n\n")
			}
			if err := w.Flush(); err != nil {
				return
			}
		}
	}))

	return nil
}

func (s *Server) HandleHealth(c *fiber.Ctx) error {
	return writeJSON(c, fiber.StatusOK, fiber.Map{"status": "ok"})
}

func (s *Server) writeError(c *fiber.Ctx, err error) error {
	status, msg := errorResponse(err)
	if status >= fiber.StatusInternalServerError {
		s.log.Error().Err(err).Str("path", c.Path()).Msg("request failed")
	}
	return writeJSON(c, status, fiber.Map{"error": msg})
}

// errorResponse maps an error to its status and the message shown to
// clients. Causes never leave the server.
func errorResponse(err error) (int, string) {
	var (
		werr *domain.WriteError
		ferr *fiber.Error
	)
	switch {
	case errors.Is(err, domain.ErrInvalidJSON):
		return fiber.StatusBadRequest, "Invalid JSON"
	case errors.Is(err, domain.ErrTextRequired):
		return fiber.StatusUnprocessableEntity, "Text required"
	case errors.Is(err, domain.ErrBadRequest):
		return fiber.StatusBadRequest, "Bad request"
	case errors.Is(err, domain.ErrMethodNotAllowed):
		return fiber.StatusMethodNotAllowed, "Method not allowed"
	case errors.As(err, &werr):
		return fiber.StatusInternalServerError, "Write failed"
	case errors.As(err, &ferr):
		return ferr.Code, ferr.Message
	default:
		return fiber.StatusInternalServerError, "Internal server error"
	}
}

func writeJSON(c *fiber.Ctx, status int, v any) error {
	return c.Status(status).JSON(v, fiber.MIMEApplicationJSONCharsetUTF8)
}
