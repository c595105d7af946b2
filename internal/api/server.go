// Package api exposes the archive core over HTTP. It is a thin collaborator
// layer: every endpoint only invokes core operations and renders their
// results; all business rules live behind the archive and capture services.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/voicevault/voicevault/internal/archive"
	"github.com/voicevault/voicevault/internal/capture"
	"github.com/voicevault/voicevault/internal/conf"
	"github.com/voicevault/voicevault/internal/errors"
	"github.com/voicevault/voicevault/internal/logging"
	"github.com/voicevault/voicevault/internal/notification"
)

// Server wires the HTTP routes to the core services.
type Server struct {
	echo     *echo.Echo
	archive  *archive.Service
	capture  *capture.Manager
	notifier *notification.Service
	settings *conf.Settings
	logger   *slog.Logger
}

// New creates the HTTP server and registers its routes.
func New(settings *conf.Settings, archiveSvc *archive.Service, captureMgr *capture.Manager, notifier *notification.Service) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())

	s := &Server{
		echo:     e,
		archive:  archiveSvc,
		capture:  captureMgr,
		notifier: notifier,
		settings: settings,
		logger:   logging.ForService("api"),
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	v1 := s.echo.Group("/api/v1")

	v1.GET("/recordings", s.listRecordings)
	v1.POST("/recordings", s.importRecording)
	v1.GET("/recordings/:id", s.getRecording)
	v1.DELETE("/recordings/:id", s.deleteRecording)
	v1.GET("/recordings/:id/audio", s.streamAudio)
	v1.POST("/recordings/:id/cut", s.cutRecording)
	v1.POST("/recordings/:id/archive", s.archiveRecording)
	v1.POST("/recordings/:id/restore", s.restoreRecording)
	v1.POST("/recordings/:id/star", s.starRecording)
	v1.POST("/recordings/:id/rename", s.renameRecording)

	v1.POST("/capture/start", s.startCapture)
	v1.POST("/capture/stop", s.stopCapture)
	v1.POST("/capture/cancel", s.cancelCapture)
	v1.GET("/capture/status", s.captureStatus)

	v1.GET("/notifications", s.listNotifications)
	v1.GET("/notifications/stream", s.streamNotifications)
}

// Start runs the HTTP server until the context is cancelled.
func (s *Server) Start(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		_ = s.echo.Shutdown(context.Background())
	}()
	err := s.echo.Start(s.settings.Web.Address)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Echo exposes the router for tests.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// httpStatus maps core error categories to HTTP status codes.
func httpStatus(err error) int {
	switch {
	case errors.HasCategory(err, errors.CategoryValidation):
		return http.StatusBadRequest
	case errors.HasCategory(err, errors.CategoryNotFound):
		return http.StatusNotFound
	case errors.HasCategory(err, errors.CategoryState):
		return http.StatusConflict
	case errors.HasCategory(err, errors.CategoryDevice):
		return http.StatusServiceUnavailable
	case errors.HasCategory(err, errors.CategoryDatabase):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(c echo.Context, err error) error {
	return c.JSON(httpStatus(err), map[string]string{"error": err.Error()})
}

func parseID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return 0, errors.Newf("invalid id %q", c.Param("id")).
			Component("api").
			Category(errors.CategoryValidation).
			Build()
	}
	return uint(id), nil
}
