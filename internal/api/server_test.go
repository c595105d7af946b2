package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voicevault/voicevault/internal/archive"
	"github.com/voicevault/voicevault/internal/capture"
	"github.com/voicevault/voicevault/internal/conf"
	"github.com/voicevault/voicevault/internal/datastore"
	"github.com/voicevault/voicevault/internal/myaudio"
	"github.com/voicevault/voicevault/internal/notification"
)

// fakeAcquirer stands in for the microphone so capture endpoints can be
// exercised without real hardware.
type fakeAcquirer struct {
	mu     sync.Mutex
	onData func([]byte)
}

type fakeDevice struct{}

func (fakeDevice) Stop() error { return nil }

func (a *fakeAcquirer) Acquire(ctx context.Context, onData func([]byte)) (capture.Device, error) {
	a.mu.Lock()
	a.onData = onData
	a.mu.Unlock()
	return fakeDevice{}, nil
}

func (a *fakeAcquirer) push(chunk []byte) {
	a.mu.Lock()
	onData := a.onData
	a.mu.Unlock()
	onData(chunk)
}

type testServer struct {
	*Server
	acquirer *fakeAcquirer
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	settings := &conf.Settings{}
	settings.Database.Path = filepath.Join(t.TempDir(), "voicevault.db")
	settings.Web.Address = "127.0.0.1:0"

	store := datastore.NewSQLiteStore(settings)
	t.Cleanup(func() { _ = store.Close() })

	notifier := notification.NewService(notification.DefaultServiceConfig())
	t.Cleanup(notifier.Stop)

	archiveSvc := archive.NewService(store, notifier, t.TempDir())
	t.Cleanup(archiveSvc.Close)
	require.NoError(t, archiveSvc.Load(context.Background()))

	acquirer := &fakeAcquirer{}
	captureMgr := capture.NewManager(acquirer, archiveSvc)

	return &testServer{
		Server:   New(settings, archiveSvc, captureMgr, notifier),
		acquirer: acquirer,
	}
}

func (ts *testServer) do(method, target string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set(echoHeaderContentType, contentType)
	}
	rec := httptest.NewRecorder()
	ts.Echo().ServeHTTP(rec, req)
	return rec
}

const echoHeaderContentType = "Content-Type"

func (ts *testServer) doJSON(method, target string, payload any) *httptest.ResponseRecorder {
	body := &bytes.Buffer{}
	if payload != nil {
		_ = json.NewEncoder(body).Encode(payload)
	}
	return ts.do(method, target, body, "application/json")
}

// uploadWAV imports a WAV payload through the multipart endpoint and
// returns the new record id.
func uploadWAV(t *testing.T, ts *testServer, filename string, data []byte) uint {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	rec := ts.do(http.MethodPost, "/api/v1/recordings", body, writer.FormDataContentType())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp map[string]uint
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp["id"]
}

func testWAV(t *testing.T, seconds int) []byte {
	t.Helper()
	const rate = 8000
	pcm := make([]byte, seconds*rate*2)
	wavData, err := myaudio.EncodePCM16(pcm, rate, 1)
	require.NoError(t, err)
	return wavData
}

func TestRecordingLifecycle(t *testing.T) {
	ts := newTestServer(t)
	id := uploadWAV(t, ts, "memo.wav", testWAV(t, 1))

	rec := ts.do(http.MethodGet, fmt.Sprintf("/api/v1/recordings/%d", id), nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var entry archive.Entry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entry))
	assert.Equal(t, "memo", entry.Name, "display name comes from the filename")

	rec = ts.doJSON(http.MethodPost, fmt.Sprintf("/api/v1/recordings/%d/rename", id),
		map[string]string{"name": "standup"})
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = ts.doJSON(http.MethodPost, fmt.Sprintf("/api/v1/recordings/%d/star", id), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"starred": true}`, rec.Body.String())

	rec = ts.doJSON(http.MethodPost, fmt.Sprintf("/api/v1/recordings/%d/archive", id), nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = ts.doJSON(http.MethodPost, fmt.Sprintf("/api/v1/recordings/%d/restore", id), nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	// First delete archives, second removes for good.
	rec = ts.do(http.MethodDelete, fmt.Sprintf("/api/v1/recordings/%d", id), nil, "")
	require.Equal(t, http.StatusNoContent, rec.Code)
	rec = ts.do(http.MethodDelete, fmt.Sprintf("/api/v1/recordings/%d", id), nil, "")
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = ts.do(http.MethodGet, fmt.Sprintf("/api/v1/recordings/%d", id), nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListViews(t *testing.T) {
	ts := newTestServer(t)
	uploadWAV(t, ts, "morning memo.wav", testWAV(t, 1))
	archivedID := uploadWAV(t, ts, "old notes.wav", testWAV(t, 1))

	rec := ts.doJSON(http.MethodPost, fmt.Sprintf("/api/v1/recordings/%d/archive", archivedID), nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	var entries []archive.Entry

	rec = ts.do(http.MethodGet, "/api/v1/recordings", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, 1, "default view hides archived entries")
	assert.Equal(t, "morning memo", entries[0].Name)

	rec = ts.do(http.MethodGet, "/api/v1/recordings?view=archived", nil, "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "old notes", entries[0].Name)

	rec = ts.do(http.MethodGet, "/api/v1/recordings?view=all&q=notes", nil, "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, 1)

	// The text filter narrows the selected view, never widens it: archived
	// matches stay out of the default view and vice versa.
	rec = ts.do(http.MethodGet, "/api/v1/recordings?q=notes", nil, "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	assert.Empty(t, entries, "archived match must not leak into the default view")

	rec = ts.do(http.MethodGet, "/api/v1/recordings?view=archived&q=memo", nil, "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	assert.Empty(t, entries, "active match must not leak into the archived view")

	rec = ts.do(http.MethodGet, "/api/v1/recordings?view=archived&q=notes", nil, "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "old notes", entries[0].Name)

	rec = ts.do(http.MethodGet, "/api/v1/recordings?group=date", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var groups []archive.DateGroup
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &groups))
	require.NotEmpty(t, groups)
}

func TestCutEndpoint(t *testing.T) {
	ts := newTestServer(t)
	id := uploadWAV(t, ts, "memo.wav", testWAV(t, 3))

	rec := ts.doJSON(http.MethodPost, fmt.Sprintf("/api/v1/recordings/%d/cut", id),
		map[string]string{"start": "00:01", "end": "00:02"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp map[string]uint
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	newID := resp["id"]
	require.NotZero(t, newID)

	getRec := ts.do(http.MethodGet, fmt.Sprintf("/api/v1/recordings/%d", newID), nil, "")
	var entry archive.Entry
	require.NoError(t, json.Unmarshal(getRec.Body.Bytes(), &entry))
	assert.Equal(t, "memo (1)", entry.Name)

	// Reversed range is a validation failure.
	rec = ts.doJSON(http.MethodPost, fmt.Sprintf("/api/v1/recordings/%d/cut", id),
		map[string]string{"start": "00:02", "end": "00:01"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Missing source is not-found.
	rec = ts.doJSON(http.MethodPost, "/api/v1/recordings/9999/cut",
		map[string]string{"start": "00:00", "end": "00:01"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStreamAudio(t *testing.T) {
	ts := newTestServer(t)
	wavData := testWAV(t, 1)
	id := uploadWAV(t, ts, "memo.wav", wavData)

	rec := ts.do(http.MethodGet, fmt.Sprintf("/api/v1/recordings/%d/audio", id), nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, wavData, rec.Body.Bytes(), "served audio matches the stored blob")
}

func TestCaptureEndpoints(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodGet, "/api/v1/capture/status", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"active": false, "elapsed": 0}`, rec.Body.String())

	rec = ts.doJSON(http.MethodPost, "/api/v1/capture/start", nil)
	require.Equal(t, http.StatusAccepted, rec.Code)

	rec = ts.doJSON(http.MethodPost, "/api/v1/capture/start", nil)
	assert.Equal(t, http.StatusConflict, rec.Code, "one session at a time")

	ts.acquirer.push([]byte{1, 2, 3, 4})

	rec = ts.doJSON(http.MethodPost, "/api/v1/capture/stop", nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp map[string]uint
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotZero(t, resp["id"])

	getRec := ts.do(http.MethodGet, fmt.Sprintf("/api/v1/recordings/%d", resp["id"]), nil, "")
	require.Equal(t, http.StatusOK, getRec.Code)
	var entry archive.Entry
	require.NoError(t, json.Unmarshal(getRec.Body.Bytes(), &entry))
	assert.True(t, strings.HasPrefix(entry.Name, "Recording "))

	rec = ts.doJSON(http.MethodPost, "/api/v1/capture/stop", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestNotificationsList(t *testing.T) {
	ts := newTestServer(t)
	uploadWAV(t, ts, "memo.wav", testWAV(t, 1))

	rec := ts.do(http.MethodGet, "/api/v1/notifications", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var list []notification.Notification
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.NotEmpty(t, list, "the import reported its outcome")
	assert.Equal(t, notification.TypeSuccess, list[len(list)-1].Type)
}

func TestInvalidID(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodGet, "/api/v1/recordings/not-a-number", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
