// interfaces.go: this code defines the interface for the database operations
package datastore

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/voicevault/voicevault/internal/errors"
)

// Sentinel errors for store operations. Both carry a category so callers can
// match with errors.Is regardless of the wrapped cause.
var (
	ErrRecordNotFound = errors.Newf("audio record not found").
				Component("datastore").
				Category(errors.CategoryNotFound).
				Build()
	ErrStoreUnavailable = errors.Newf("datastore unavailable").
				Component("datastore").
				Category(errors.CategoryDatabase).
				Build()
)

// Interface abstracts the underlying database implementation and defines the
// operations of the persistent store. Every operation runs in its own
// transaction and triggers lazy initialization on first use.
type Interface interface {
	Open(ctx context.Context) error
	Create(ctx context.Context, record *AudioRecord) (uint, error)
	Get(ctx context.Context, id uint) (AudioRecord, error)
	GetAll(ctx context.Context) ([]AudioRecord, error)
	Update(ctx context.Context, id uint, fields map[string]any) error
	Delete(ctx context.Context, id uint) error
	Close() error
}

// DataStore implements the store operations using a GORM database. The DB
// handle is set by the concrete store's Open.
type DataStore struct {
	DB *gorm.DB
}

// Create stores a new record in a single transaction and returns the
// store-assigned id. A zero Timestamp is stamped with the current instant.
func (ds *DataStore) create(ctx context.Context, record *AudioRecord) (uint, error) {
	if record.ID != 0 {
		return 0, errors.Newf("record already has an id: %d", record.ID).
			Component("datastore").
			Category(errors.CategoryValidation).
			Build()
	}
	if record.Timestamp == 0 {
		record.Timestamp = time.Now().UnixMilli()
	}
	for i := range record.IntervalHashes {
		record.IntervalHashes[i].Position = i
	}

	err := ds.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(record).Error
	})
	if err != nil {
		return 0, fmt.Errorf("saving audio record: %w", err)
	}
	return record.ID, nil
}

// Get retrieves a record by its id, including its ordered interval hashes.
func (ds *DataStore) get(ctx context.Context, id uint) (AudioRecord, error) {
	var record AudioRecord
	err := ds.DB.WithContext(ctx).
		Preload("IntervalHashes", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		First(&record, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return AudioRecord{}, ErrRecordNotFound
		}
		return AudioRecord{}, fmt.Errorf("getting audio record %d: %w", id, err)
	}
	return record, nil
}

// GetAll retrieves every record. No ordering is guaranteed; callers project
// and sort over the result.
func (ds *DataStore) getAll(ctx context.Context) ([]AudioRecord, error) {
	var records []AudioRecord
	err := ds.DB.WithContext(ctx).
		Preload("IntervalHashes", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("getting all audio records: %w", err)
	}
	return records, nil
}

// Update applies a partial field update to a record in a single
// transaction. The record is fetched first so an absent id is reported as
// not-found rather than silently affecting zero rows.
func (ds *DataStore) update(ctx context.Context, id uint, fields map[string]any) error {
	err := ds.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var record AudioRecord
		if err := tx.Select("id").First(&record, id).Error; err != nil {
			return err
		}
		if len(fields) == 0 {
			return nil
		}
		return tx.Model(&AudioRecord{ID: id}).Updates(fields).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRecordNotFound
		}
		return fmt.Errorf("updating audio record %d: %w", id, err)
	}
	return nil
}

// Delete removes a record and its interval hashes in a single transaction.
func (ds *DataStore) delete(ctx context.Context, id uint) error {
	err := ds.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("record_id = ?", id).Delete(&IntervalHash{}).Error; err != nil {
			return fmt.Errorf("deleting interval hashes for record %d: %w", id, err)
		}
		result := tx.Delete(&AudioRecord{}, id)
		if result.Error != nil {
			return fmt.Errorf("deleting audio record %d: %w", id, result.Error)
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRecordNotFound
		}
		return err
	}
	return nil
}
