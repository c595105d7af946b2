package archive

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/voicevault/voicevault/internal/datastore"
	"github.com/voicevault/voicevault/internal/errors"
	"github.com/voicevault/voicevault/internal/logging"
	"github.com/voicevault/voicevault/internal/myaudio"
	"github.com/voicevault/voicevault/internal/notification"
)

// timeNow is swapped in tests that need deterministic timestamps.
var timeNow = time.Now

// ErrEntryNotFound is returned for operations on an id absent from the
// cache and the store.
var ErrEntryNotFound = errors.Newf("entry not found").
	Component("archive").
	Category(errors.CategoryNotFound).
	Build()

// Service owns the entry cache and is the write path for every mutation:
// the durable write runs first and the cache mutation is applied only after
// the store confirms it, so the mirror never shows state the store refused.
// When the store is unavailable the service degrades to an empty ephemeral
// view: entries live in memory only and store writes become no-ops.
type Service struct {
	mu       sync.RWMutex
	store    datastore.Interface
	notifier *notification.Service
	logger   *slog.Logger

	entries []*Entry // insertion order
	byID    map[uint]*Entry
	handles *handleStore

	ephemeral   bool
	nextLocalID uint
}

// NewService creates the cache service. Call Load before serving reads.
func NewService(store datastore.Interface, notifier *notification.Service, playbackDir string) *Service {
	return &Service{
		store:    store,
		notifier: notifier,
		logger:   logging.ForService("archive"),
		byID:     make(map[uint]*Entry),
		handles:  newHandleStore(playbackDir),
	}
}

// Load builds the mirror once from a full fetch. A storage-unavailable
// fault degrades the cache to ephemeral mode instead of failing the whole
// system; any other error is returned.
func (s *Service) Load(ctx context.Context) error {
	records, err := s.store.GetAll(ctx)
	if err != nil {
		if errors.HasCategory(err, errors.CategoryDatabase) {
			s.mu.Lock()
			s.ephemeral = true
			s.entries = nil
			s.byID = make(map[uint]*Entry)
			s.mu.Unlock()
			s.logger.Warn("store unavailable, running with ephemeral entries", "error", err)
			s.notifier.NotifyWithComponent(notification.TypeWarning,
				"Storage unavailable, recordings will not be saved", "archive")
			return nil
		}
		return err
	}

	// fetchAll is unordered; rebuild insertion order from the monotonic id.
	sort.Slice(records, func(i, j int) bool { return records[i].ID < records[j].ID })

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make([]*Entry, 0, len(records))
	s.byID = make(map[uint]*Entry, len(records))
	for i := range records {
		entry := entryFromRecord(&records[i])
		s.entries = append(s.entries, entry)
		s.byID[entry.ID] = entry
	}
	s.logger.Info("entry cache loaded", "entries", len(s.entries))
	return nil
}

// Ephemeral reports whether the cache is running without a backing store.
func (s *Service) Ephemeral() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ephemeral
}

// refetch rebuilds the mirror after the store reported an id the cache
// believed in. Handles of entries that vanished are revoked.
func (s *Service) refetch(ctx context.Context) {
	records, err := s.store.GetAll(ctx)
	if err != nil {
		s.logger.Error("cache refetch failed", "error", err)
		return
	}
	sort.Slice(records, func(i, j int) bool { return records[i].ID < records[j].ID })

	s.mu.Lock()
	defer s.mu.Unlock()
	known := make(map[uint]struct{}, len(records))
	entries := make([]*Entry, 0, len(records))
	byID := make(map[uint]*Entry, len(records))
	for i := range records {
		entry := entryFromRecord(&records[i])
		entries = append(entries, entry)
		byID[entry.ID] = entry
		known[entry.ID] = struct{}{}
	}
	for id := range s.byID {
		if _, ok := known[id]; !ok {
			s.handles.revoke(id)
		}
	}
	s.entries = entries
	s.byID = byID
}

// notFound surfaces a missing id once and schedules the cache re-fetch.
func (s *Service) notFound(ctx context.Context, id uint) error {
	s.notifier.NotifyWithComponent(notification.TypeError, "Recording no longer exists", "archive")
	s.refetch(ctx)
	return errors.New(ErrEntryNotFound).
		Component("archive").
		Category(errors.CategoryNotFound).
		Context("id", id).
		Build()
}

// --- read projections ---

// snapshot returns cloned entries in insertion order.
func (s *Service) snapshot() []*Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Entry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e.clone())
	}
	return out
}

// Entries returns every cached entry in insertion order.
func (s *Service) Entries() []*Entry {
	return s.snapshot()
}

// Search returns entries whose name matches the query text.
func (s *Service) Search(query string) []*Entry {
	return filterSearch(s.snapshot(), query)
}

// FilterByName narrows the given entries to those whose name matches the
// query text, so a text filter composes with the other views.
func (s *Service) FilterByName(entries []*Entry, query string) []*Entry {
	return filterSearch(entries, query)
}

// Active returns the default view: entries that are not archived.
func (s *Service) Active() []*Entry {
	return filterArchived(s.snapshot(), false)
}

// Archived returns the archived view.
func (s *Service) Archived() []*Entry {
	return filterArchived(s.snapshot(), true)
}

// GroupByDate buckets the given entries per calendar day.
func (s *Service) GroupByDate(entries []*Entry) []DateGroup {
	return groupByDate(entries)
}

// StarredFirst orders starred entries ahead of the rest.
func (s *Service) StarredFirst(entries []*Entry) []*Entry {
	return starredFirst(entries)
}

// Get returns one cached entry.
func (s *Service) Get(id uint) (*Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.byID[id]
	if !ok {
		return nil, false
	}
	return entry.clone(), true
}

// --- mutations (durable write first, then cache) ---

// SaveRecording persists a finished capture as a new record. Implements the
// capture manager's sink. The outcome is reported to the user exactly once.
func (s *Service) SaveRecording(ctx context.Context, name string, wavData []byte) (uint, error) {
	id, err := s.createRecord(ctx, name, wavData, nil)
	if err != nil {
		s.notifier.NotifyWithComponent(notification.TypeError, "Failed to save recording", "archive")
		return 0, err
	}
	s.notifier.NotifyWithComponent(notification.TypeSuccess, "Recording saved", "archive")
	return id, nil
}

// ImportRecording persists an externally supplied audio payload.
func (s *Service) ImportRecording(ctx context.Context, displayName string, data []byte) (uint, error) {
	id, err := s.createRecord(ctx, displayName, data, nil)
	if err != nil {
		s.notifier.NotifyWithComponent(notification.TypeError, "Failed to import "+displayName, "archive")
		return 0, err
	}
	s.notifier.NotifyWithComponent(notification.TypeSuccess, "Imported "+displayName, "archive")
	return id, nil
}

// createRecord writes a new record through the store and mirrors it in the
// cache. In ephemeral mode the record lives in memory only.
func (s *Service) createRecord(ctx context.Context, name string, blob []byte, hashes []string) (uint, error) {
	s.mu.RLock()
	ephemeral := s.ephemeral
	s.mu.RUnlock()

	if ephemeral {
		s.mu.Lock()
		s.nextLocalID++
		id := s.nextLocalID
		entry := &Entry{
			ID:        id,
			Name:      name,
			Timestamp: timeNow(),
			Hashes:    hashes,
			blob:      blob,
		}
		s.entries = append(s.entries, entry)
		s.byID[id] = entry
		s.mu.Unlock()
		return id, nil
	}

	record := &datastore.AudioRecord{Blob: blob}
	if name != "" {
		record.Name = &name
	}
	for i, h := range hashes {
		record.IntervalHashes = append(record.IntervalHashes, datastore.IntervalHash{Position: i, Hash: h})
	}

	id, err := s.store.Create(ctx, record)
	if err != nil {
		return 0, err
	}

	entry := entryFromRecord(record)
	s.mu.Lock()
	s.entries = append(s.entries, entry)
	s.byID[id] = entry
	s.mu.Unlock()
	return id, nil
}

// Cut produces a new record from an existing one with the half-open time
// interval [start, end) removed. The source record is never touched; the
// new record's title is the first unused "<base> (N)" among cached titles.
func (s *Service) Cut(ctx context.Context, id uint, start, end string) (uint, error) {
	blob, srcName, err := s.sourceBlob(ctx, id)
	if err != nil {
		return 0, err
	}

	out, err := myaudio.Transform(blob, start, end)
	if err != nil {
		if errors.HasCategory(err, errors.CategoryValidation) {
			s.notifier.NotifyWithComponent(notification.TypeError,
				"Invalid time input. Please use MM:SS or HH:MM:SS format and try again.", "archive")
		} else {
			s.notifier.NotifyWithComponent(notification.TypeError, "Failed to cut audio", "archive")
		}
		return 0, err
	}

	s.mu.RLock()
	existing := make([]string, 0, len(s.entries))
	for _, e := range s.entries {
		existing = append(existing, e.Name)
	}
	s.mu.RUnlock()
	title := myaudio.VersionedTitle(srcName, existing)

	newID, err := s.createRecord(ctx, title, out, nil)
	if err != nil {
		s.notifier.NotifyWithComponent(notification.TypeError, "Failed to save cut audio", "archive")
		return 0, err
	}
	s.notifier.NotifyWithComponent(notification.TypeSuccess, "Saved "+title, "archive")
	return newID, nil
}

// sourceBlob fetches the raw audio of an entry: from memory in ephemeral
// mode, from the store otherwise.
func (s *Service) sourceBlob(ctx context.Context, id uint) (blob []byte, name string, err error) {
	s.mu.RLock()
	entry, ok := s.byID[id]
	if ok {
		name = entry.Name
		blob = entry.blob
	}
	ephemeral := s.ephemeral
	s.mu.RUnlock()

	if !ok {
		return nil, "", s.notFound(ctx, id)
	}
	if ephemeral {
		return blob, name, nil
	}

	record, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, datastore.ErrRecordNotFound) {
			return nil, "", s.notFound(ctx, id)
		}
		return nil, "", err
	}
	return record.Blob, name, nil
}

// Rename updates an entry's display name.
func (s *Service) Rename(ctx context.Context, id uint, name string) error {
	apply := func(e *Entry) { e.Name = name }
	err := s.updateEntry(ctx, id, map[string]any{"name": name}, apply)
	if err != nil {
		s.notifier.NotifyWithComponent(notification.TypeError, "Failed to rename recording", "archive")
		return err
	}
	s.notifier.NotifyWithComponent(notification.TypeSuccess, "Renamed to "+name, "archive")
	return nil
}

// ToggleStar flips the starred flag and returns the new value.
func (s *Service) ToggleStar(ctx context.Context, id uint) (bool, error) {
	s.mu.RLock()
	entry, ok := s.byID[id]
	var starred bool
	if ok {
		starred = !entry.Starred
	}
	s.mu.RUnlock()
	if !ok {
		return false, s.notFound(ctx, id)
	}

	apply := func(e *Entry) { e.Starred = starred }
	if err := s.updateEntry(ctx, id, map[string]any{"starred": starred}, apply); err != nil {
		s.notifier.NotifyWithComponent(notification.TypeError, "Failed to update recording", "archive")
		return false, err
	}
	return starred, nil
}

// SetArchived sets the archived flag. Archiving an already-archived entry
// is an idempotent no-op at the data level; the flag simply persists.
func (s *Service) SetArchived(ctx context.Context, id uint, archived bool) error {
	apply := func(e *Entry) { e.Archived = archived }
	if err := s.updateEntry(ctx, id, map[string]any{"archived": archived}, apply); err != nil {
		s.notifier.NotifyWithComponent(notification.TypeError, "Failed to update recording", "archive")
		return err
	}
	if archived {
		s.notifier.NotifyWithComponent(notification.TypeInfo, "Recording archived", "archive")
	} else {
		s.notifier.NotifyWithComponent(notification.TypeInfo, "Recording restored", "archive")
	}
	return nil
}

// Delete soft-deletes a visible entry (archives it) and hard-deletes an
// entry that is already archived, revoking its playback handle.
func (s *Service) Delete(ctx context.Context, id uint) error {
	s.mu.RLock()
	entry, ok := s.byID[id]
	var alreadyArchived bool
	if ok {
		alreadyArchived = entry.Archived
	}
	s.mu.RUnlock()
	if !ok {
		return s.notFound(ctx, id)
	}

	if !alreadyArchived {
		return s.SetArchived(ctx, id, true)
	}

	s.mu.RLock()
	ephemeral := s.ephemeral
	s.mu.RUnlock()

	if !ephemeral {
		if err := s.store.Delete(ctx, id); err != nil {
			if errors.Is(err, datastore.ErrRecordNotFound) {
				return s.notFound(ctx, id)
			}
			s.notifier.NotifyWithComponent(notification.TypeError, "Failed to delete recording", "archive")
			return err
		}
	}

	s.mu.Lock()
	delete(s.byID, id)
	for i, e := range s.entries {
		if e.ID == id {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			break
		}
	}
	s.mu.Unlock()

	s.handles.revoke(id)
	s.notifier.NotifyWithComponent(notification.TypeInfo, "Recording deleted", "archive")
	return nil
}

// updateEntry performs the durable partial update, then applies the same
// change to the cached entry.
func (s *Service) updateEntry(ctx context.Context, id uint, fields map[string]any, apply func(*Entry)) error {
	s.mu.RLock()
	_, ok := s.byID[id]
	ephemeral := s.ephemeral
	s.mu.RUnlock()
	if !ok {
		return s.notFound(ctx, id)
	}

	if !ephemeral {
		if err := s.store.Update(ctx, id, fields); err != nil {
			if errors.Is(err, datastore.ErrRecordNotFound) {
				return s.notFound(ctx, id)
			}
			return err
		}
	}

	s.mu.Lock()
	if entry, ok := s.byID[id]; ok {
		apply(entry)
	}
	s.mu.Unlock()
	return nil
}

// --- playback handles ---

// AcquireHandle materializes (or reuses) the entry's playback handle and
// takes a viewer reference on it.
func (s *Service) AcquireHandle(ctx context.Context, id uint) (*PlaybackHandle, error) {
	blob, _, err := s.sourceBlob(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.handles.acquire(id, blob)
}

// ReleaseHandle drops a viewer reference; the handle is revoked when the
// last reference is gone.
func (s *Service) ReleaseHandle(id uint) {
	s.handles.release(id)
}

// Close tears the cache down, revoking every playback handle.
func (s *Service) Close() {
	s.handles.revokeAll()
}
