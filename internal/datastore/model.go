// model.go this code defines the data model for the voice archive
package datastore

import "time"

// AudioRecord is the durable unit of stored audio and metadata. The Blob is
// immutable once written: every edit produces a brand-new record.
type AudioRecord struct {
	ID             uint           `gorm:"primaryKey"`
	Blob           []byte         `gorm:"type:blob;not null"`
	Name           *string        `gorm:"index:idx_audio_files_name"`
	Timestamp      int64          `gorm:"index:idx_audio_files_timestamp"` // ms since epoch
	Archived       bool           `gorm:"index:idx_audio_files_archived"`
	Starred        bool
	IntervalHashes []IntervalHash `gorm:"foreignKey:RecordID;constraint:OnDelete:CASCADE"`
}

// TableName keeps the table name aligned with the logical schema.
func (AudioRecord) TableName() string {
	return "audio_files"
}

// IntervalHash is one entry of a record's ordered interval-hash list,
// reserved for content-addressed lookup. The hash column is indexed so a
// single hash can resolve to every record containing it.
type IntervalHash struct {
	ID       uint   `gorm:"primaryKey"`
	RecordID uint   `gorm:"index;not null"`
	Position int    `gorm:"not null"` // order within the record's hash list
	Hash     string `gorm:"index:idx_interval_hashes_hash;not null"`
}

// DisplayName returns the record name or an empty string when unset.
func (r *AudioRecord) DisplayName() string {
	if r.Name == nil {
		return ""
	}
	return *r.Name
}

// CreatedAt returns the record creation instant.
func (r *AudioRecord) CreatedAt() time.Time {
	return time.UnixMilli(r.Timestamp)
}

// Hashes returns the ordered opaque hash values of the record.
func (r *AudioRecord) Hashes() []string {
	if len(r.IntervalHashes) == 0 {
		return nil
	}
	hashes := make([]string, len(r.IntervalHashes))
	for i := range r.IntervalHashes {
		hashes[i] = r.IntervalHashes[i].Hash
	}
	return hashes
}
