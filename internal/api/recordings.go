package api

import (
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/voicevault/voicevault/internal/archive"
)

// listRecordings serves the derived views over the entry cache. Query
// params: q (text filter), view (active|archived|all), group (date),
// order (starred).
func (s *Server) listRecordings(c echo.Context) error {
	var entries []*archive.Entry
	switch c.QueryParam("view") {
	case "archived":
		entries = s.archive.Archived()
	case "all":
		entries = s.archive.Entries()
	default:
		entries = s.archive.Active()
	}

	if q := c.QueryParam("q"); q != "" {
		entries = s.archive.FilterByName(entries, q)
	}

	if c.QueryParam("order") == "starred" {
		entries = s.archive.StarredFirst(entries)
	}

	if c.QueryParam("group") == "date" {
		return c.JSON(http.StatusOK, s.archive.GroupByDate(entries))
	}
	return c.JSON(http.StatusOK, entries)
}

// importRecording accepts a multipart audio upload and stores it as a new
// record, with the display name derived from the filename.
func (s *Server) importRecording(c echo.Context) error {
	file, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "missing file upload"})
	}

	src, err := file.Open()
	if err != nil {
		return s.fail(c, err)
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return s.fail(c, err)
	}

	name := strings.TrimSuffix(file.Filename, filepath.Ext(file.Filename))
	id, err := s.archive.ImportRecording(c.Request().Context(), name, data)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusCreated, map[string]uint{"id": id})
}

func (s *Server) getRecording(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return s.fail(c, err)
	}
	entry, ok := s.archive.Get(id)
	if !ok {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "recording not found"})
	}
	return c.JSON(http.StatusOK, entry)
}

// deleteRecording archives a visible recording, removes an archived one.
func (s *Server) deleteRecording(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return s.fail(c, err)
	}
	if err := s.archive.Delete(c.Request().Context(), id); err != nil {
		return s.fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// streamAudio materializes the entry's playback handle and serves the WAV
// file behind it. The viewer reference is released when the response is
// written.
func (s *Server) streamAudio(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return s.fail(c, err)
	}
	handle, err := s.archive.AcquireHandle(c.Request().Context(), id)
	if err != nil {
		return s.fail(c, err)
	}
	defer s.archive.ReleaseHandle(id)
	return c.File(handle.Path)
}

type cutRequest struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// cutRecording runs the non-destructive cut and returns the new record id.
func (s *Server) cutRecording(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return s.fail(c, err)
	}
	var req cutRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	newID, err := s.archive.Cut(c.Request().Context(), id, req.Start, req.End)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusCreated, map[string]uint{"id": newID})
}

func (s *Server) archiveRecording(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return s.fail(c, err)
	}
	if err := s.archive.SetArchived(c.Request().Context(), id, true); err != nil {
		return s.fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) restoreRecording(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return s.fail(c, err)
	}
	if err := s.archive.SetArchived(c.Request().Context(), id, false); err != nil {
		return s.fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) starRecording(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return s.fail(c, err)
	}
	starred, err := s.archive.ToggleStar(c.Request().Context(), id)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]bool{"starred": starred})
}

type renameRequest struct {
	Name string `json:"name"`
}

func (s *Server) renameRecording(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return s.fail(c, err)
	}
	var req renameRequest
	if err := c.Bind(&req); err != nil || req.Name == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "name is required"})
	}
	if err := s.archive.Rename(c.Request().Context(), id, req.Name); err != nil {
		return s.fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
