package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
)

func (s *Server) startCapture(c echo.Context) error {
	if err := s.capture.Start(c.Request().Context()); err != nil {
		return s.fail(c, err)
	}
	return c.NoContent(http.StatusAccepted)
}

func (s *Server) stopCapture(c echo.Context) error {
	id, err := s.capture.Stop(c.Request().Context())
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusCreated, map[string]uint{"id": id})
}

func (s *Server) cancelCapture(c echo.Context) error {
	if err := s.capture.Cancel(); err != nil {
		return s.fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) captureStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"active":  s.capture.Active(),
		"elapsed": s.capture.Elapsed(),
	})
}

func (s *Server) listNotifications(c echo.Context) error {
	return c.JSON(http.StatusOK, s.notifier.List())
}

// streamNotifications pushes notifications to the client as server-sent
// events until the client disconnects.
func (s *Server) streamNotifications(c echo.Context) error {
	ch, unsubscribe := s.notifier.Subscribe()
	defer unsubscribe()

	w := c.Response()
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	w.Flush()

	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case n, ok := <-ch:
			if !ok {
				return nil
			}
			payload, err := json.Marshal(n)
			if err != nil {
				continue
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
				return nil
			}
			w.Flush()
		}
	}
}
