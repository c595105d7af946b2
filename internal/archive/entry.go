// Package archive maintains the in-memory entry cache: an insertion-ordered
// mirror of the persistent store decorated with ephemeral playback handles
// and pure derived views. It is the only surface the UI layers touch.
package archive

import (
	"time"

	"github.com/voicevault/voicevault/internal/datastore"
)

// Entry is the ephemeral view model of one stored recording. It is never
// persisted; the durable fields mirror the AudioRecord and the playback
// handle is materialized lazily on first access.
type Entry struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	Timestamp time.Time `json:"timestamp"`
	Archived  bool      `json:"archived"`
	Starred   bool      `json:"starred"`
	Hashes    []string  `json:"intervalHashes,omitempty"`

	// blob is only populated in ephemeral (store-less) mode, where memory
	// is the sole copy of the audio.
	blob []byte
}

// entryFromRecord builds the view model for a stored record.
func entryFromRecord(record *datastore.AudioRecord) *Entry {
	return &Entry{
		ID:        record.ID,
		Name:      record.DisplayName(),
		Timestamp: record.CreatedAt(),
		Archived:  record.Archived,
		Starred:   record.Starred,
		Hashes:    record.Hashes(),
	}
}

// clone returns a copy safe to hand out of the cache.
func (e *Entry) clone() *Entry {
	c := *e
	if e.Hashes != nil {
		c.Hashes = append([]string(nil), e.Hashes...)
	}
	c.blob = nil
	return &c
}

// DateKey returns the calendar-day grouping key of the entry.
func (e *Entry) DateKey() string {
	return e.Timestamp.Format("2006-01-02")
}
