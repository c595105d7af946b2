package archive

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/voicevault/voicevault/internal/errors"
	"github.com/voicevault/voicevault/internal/logging"
)

// PlaybackHandle is an OS-level playback resource for one cached entry: the
// audio blob materialized as a temporary WAV file. Handles are
// reference-counted; the file is removed when the last viewer releases the
// handle or when the owning entry leaves the cache, whichever comes first.
// A handle never outlives its entry.
type PlaybackHandle struct {
	Token string `json:"token"`
	Path  string `json:"path"`

	mu   sync.Mutex
	refs int
}

// handleStore manages playback handles keyed by record id. Revocation runs
// through the cache's eviction hook so every removal path (explicit
// release, entry removal, teardown) converges on the same cleanup.
type handleStore struct {
	mu      sync.Mutex
	handles *gocache.Cache
	dir     string
}

func newHandleStore(dir string) *handleStore {
	hs := &handleStore{
		handles: gocache.New(gocache.NoExpiration, 0),
		dir:     dir,
	}
	hs.handles.OnEvicted(func(key string, value any) {
		handle, ok := value.(*PlaybackHandle)
		if !ok {
			return
		}
		if err := os.Remove(handle.Path); err != nil && !os.IsNotExist(err) {
			logging.Warn("failed to remove playback file",
				"path", handle.Path, "error", err)
		}
	})
	return hs
}

func handleKey(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

// acquire returns the entry's playback handle, materializing it on first
// access, and increments its reference count.
func (hs *handleStore) acquire(id uint, blob []byte) (*PlaybackHandle, error) {
	hs.mu.Lock()
	defer hs.mu.Unlock()

	if cached, found := hs.handles.Get(handleKey(id)); found {
		handle := cached.(*PlaybackHandle)
		handle.mu.Lock()
		handle.refs++
		handle.mu.Unlock()
		return handle, nil
	}

	if err := os.MkdirAll(hs.dir, 0o755); err != nil {
		return nil, errors.New(fmt.Errorf("creating playback directory: %w", err)).
			Component("archive").
			Category(errors.CategorySystem).
			Build()
	}

	token := uuid.New().String()
	path := filepath.Join(hs.dir, token+".wav")
	if err := os.WriteFile(path, blob, 0o644); err != nil {
		return nil, errors.New(fmt.Errorf("materializing playback file: %w", err)).
			Component("archive").
			Category(errors.CategorySystem).
			Build()
	}

	handle := &PlaybackHandle{Token: token, Path: path, refs: 1}
	hs.handles.Set(handleKey(id), handle, gocache.NoExpiration)
	return handle, nil
}

// release decrements the handle's reference count and revokes it when the
// last viewer is gone.
func (hs *handleStore) release(id uint) {
	hs.mu.Lock()
	defer hs.mu.Unlock()

	cached, found := hs.handles.Get(handleKey(id))
	if !found {
		return
	}
	handle := cached.(*PlaybackHandle)

	handle.mu.Lock()
	handle.refs--
	done := handle.refs <= 0
	handle.mu.Unlock()

	if done {
		hs.handles.Delete(handleKey(id)) // eviction hook removes the file
	}
}

// revoke removes the entry's handle regardless of reference count. Called
// when the entry leaves the cache.
func (hs *handleStore) revoke(id uint) {
	hs.mu.Lock()
	defer hs.mu.Unlock()
	hs.handles.Delete(handleKey(id))
}

// revokeAll removes every handle. Called on cache teardown.
func (hs *handleStore) revokeAll() {
	hs.mu.Lock()
	defer hs.mu.Unlock()
	for key := range hs.handles.Items() {
		hs.handles.Delete(key) // eviction hook removes the file
	}
}
