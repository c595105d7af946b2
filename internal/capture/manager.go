// Package capture owns the microphone-acquisition lifecycle: one session at
// a time, chunk accumulation in arrival order, and commit-to-store on stop
// with unconditional device release.
package capture

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/voicevault/voicevault/internal/conf"
	"github.com/voicevault/voicevault/internal/errors"
	"github.com/voicevault/voicevault/internal/logging"
	"github.com/voicevault/voicevault/internal/myaudio"
)

// Sentinel errors for session state violations.
var (
	ErrSessionActive = errors.Newf("a capture session is already active").
				Component("capture").
				Category(errors.CategoryState).
				Build()
	ErrNoSession = errors.Newf("no active capture session").
			Component("capture").
			Category(errors.CategoryState).
			Build()
)

// RecordSink persists a finished recording. Implemented by the archive
// service, which writes through the store, mirrors the entry cache and
// reports the outcome to the user exactly once.
type RecordSink interface {
	SaveRecording(ctx context.Context, name string, wavData []byte) (uint, error)
}

// session is the transient state of an in-progress capture. Chunks are
// append-only; their order is the arrival order and must be preserved for
// correct concatenation.
type session struct {
	startInstant time.Time
	chunks       [][]byte
	chunkBytes   int
	elapsedSecs  int // display-only, no correctness role
	device       Device
	tickerStop   chan struct{}
	tickerDone   chan struct{}
}

// Manager coordinates capture sessions. Only one session may be active at a
// time; a second Start is rejected.
type Manager struct {
	mu       sync.Mutex
	acquirer Acquirer
	sink     RecordSink
	logger   *slog.Logger
	session  *session
}

// NewManager creates a capture manager using the given device acquirer and
// record sink.
func NewManager(acquirer Acquirer, sink RecordSink) *Manager {
	return &Manager{
		acquirer: acquirer,
		sink:     sink,
		logger:   logging.ForService("capture"),
	}
}

// Start acquires the microphone and begins accumulating chunks. On any
// device failure no session is created. A Start while a session is active
// is rejected with ErrSessionActive.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.session != nil {
		m.mu.Unlock()
		return ErrSessionActive
	}
	// Reserve the slot before the (slow) device acquisition so concurrent
	// Start calls are rejected instead of racing for the device.
	reserved := &session{}
	m.session = reserved
	m.mu.Unlock()

	device, err := m.acquirer.Acquire(ctx, m.onChunk)
	if err != nil {
		m.mu.Lock()
		if m.session == reserved {
			m.session = nil
		}
		m.mu.Unlock()
		return err
	}

	m.mu.Lock()
	reserved.startInstant = time.Now()
	reserved.device = device
	reserved.tickerStop = make(chan struct{})
	reserved.tickerDone = make(chan struct{})
	m.mu.Unlock()

	go m.tickLoop(reserved)

	m.logger.Info("capture session started")
	return nil
}

// onChunk appends an incoming audio chunk to the active session. The device
// may start delivering before Acquire returns, so chunks are accepted as soon
// as the session slot is reserved; if acquisition fails the reserved session
// is discarded along with anything buffered into it.
func (m *Manager) onChunk(chunk []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return
	}
	m.session.chunks = append(m.session.chunks, chunk)
	m.session.chunkBytes += len(chunk)
}

// tickLoop updates the display-only elapsed counter on a fixed cadence.
func (m *Manager) tickLoop(sess *session) {
	defer close(sess.tickerDone)
	ticker := time.NewTicker(conf.TickIntervalMs * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-sess.tickerStop:
			return
		case <-ticker.C:
			m.mu.Lock()
			sess.elapsedSecs = int(time.Since(sess.startInstant).Seconds())
			m.mu.Unlock()
		}
	}
}

// Active reports whether a capture session is in progress.
func (m *Manager) Active() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session != nil
}

// Elapsed returns the display-only elapsed seconds of the active session.
func (m *Manager) Elapsed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return 0
	}
	return m.session.elapsedSecs
}

// Stop concatenates the accumulated chunks in arrival order, wraps them as
// a WAV payload and submits one new record through the sink. The device and
// ticker are released unconditionally once the persistence attempt
// finishes, success or failure.
func (m *Manager) Stop(ctx context.Context) (uint, error) {
	m.mu.Lock()
	sess := m.session
	if sess == nil || sess.device == nil {
		m.mu.Unlock()
		return 0, ErrNoSession
	}
	m.session = nil
	m.mu.Unlock()

	defer m.release(sess)

	pcm := make([]byte, 0, sess.chunkBytes)
	for _, chunk := range sess.chunks {
		pcm = append(pcm, chunk...)
	}

	wavData, err := myaudio.EncodePCM16(pcm, conf.SampleRate, conf.NumChannels)
	if err != nil {
		return 0, err
	}

	name := fmt.Sprintf("Recording %s", sess.startInstant.Format("15:04:05"))
	id, err := m.sink.SaveRecording(ctx, name, wavData)
	if err != nil {
		return 0, err
	}

	m.logger.Info("capture session committed",
		"id", id,
		"chunks", len(sess.chunks),
		"bytes", len(wavData))
	return id, nil
}

// Cancel discards the accumulated chunks and releases the device without
// writing anything.
func (m *Manager) Cancel() error {
	m.mu.Lock()
	sess := m.session
	if sess == nil || sess.device == nil {
		m.mu.Unlock()
		return ErrNoSession
	}
	m.session = nil
	m.mu.Unlock()

	m.release(sess)
	m.logger.Info("capture session cancelled", "chunks_discarded", len(sess.chunks))
	return nil
}

// release stops the ticker and the device. Runs on every exit path from
// stop and cancel.
func (m *Manager) release(sess *session) {
	if sess.tickerStop != nil {
		close(sess.tickerStop)
		<-sess.tickerDone
	}
	if sess.device != nil {
		if err := sess.device.Stop(); err != nil {
			m.logger.Error("failed to release capture device", "error", err)
		}
	}
}
