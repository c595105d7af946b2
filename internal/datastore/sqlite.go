package datastore

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sync/singleflight"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/voicevault/voicevault/internal/conf"
	"github.com/voicevault/voicevault/internal/errors"
	"github.com/voicevault/voicevault/internal/logging"
)

// SQLiteStore implements Interface for SQLite with lazy, idempotent
// initialization: the first caller opens the database and runs the schema
// migration, concurrent first callers coalesce into that same in-flight
// open, and a failed open is fatal once: it is remembered and returned to
// every later call without retrying.
type SQLiteStore struct {
	DataStore
	Settings *conf.Settings

	openGroup singleflight.Group
	mu        sync.Mutex
	opened    bool
	openErr   error
	logger    *slog.Logger
}

// NewSQLiteStore creates a store for the configured database path. No I/O
// happens until the first operation (or an explicit Open).
func NewSQLiteStore(settings *conf.Settings) *SQLiteStore {
	return &SQLiteStore{
		Settings: settings,
		logger:   logging.ForService("datastore"),
	}
}

// Open ensures the database is open and migrated. Safe to call
// concurrently; the schema setup runs exactly once.
func (store *SQLiteStore) Open(ctx context.Context) error {
	return store.ensureOpen(ctx)
}

func (store *SQLiteStore) ensureOpen(ctx context.Context) error {
	store.mu.Lock()
	if store.opened {
		err := store.openErr
		store.mu.Unlock()
		return err
	}
	store.mu.Unlock()

	resultCh := store.openGroup.DoChan("open", func() (any, error) {
		err := store.openAndMigrate()
		store.mu.Lock()
		store.opened = true
		store.openErr = err
		store.mu.Unlock()
		return nil, err
	})

	select {
	case <-ctx.Done():
		return errors.New(ctx.Err()).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "open").
			Build()
	case result := <-resultCh:
		return result.Err
	}
}

func (store *SQLiteStore) openAndMigrate() error {
	path := store.Settings.Database.Path

	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return store.unavailable(fmt.Errorf("creating database directory: %w", err))
		}
	}

	// Concurrent first writers land right after the coalesced open, so
	// give SQLite a busy timeout instead of surfacing SQLITE_BUSY.
	dsn := path + "?_busy_timeout=5000&_journal_mode=WAL"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return store.unavailable(fmt.Errorf("failed to open SQLite database: %w", err))
	}

	if err := db.AutoMigrate(&AudioRecord{}, &IntervalHash{}); err != nil {
		return store.unavailable(fmt.Errorf("failed to migrate schema: %w", err))
	}

	store.DB = db
	store.logger.Info("database opened", "path", path)
	return nil
}

// unavailable wraps an open failure as a storage-unavailable fault and logs
// it once.
func (store *SQLiteStore) unavailable(err error) error {
	store.logger.Error("database unavailable", "error", err)
	return errors.New(fmt.Errorf("%w: %w", ErrStoreUnavailable, err)).
		Component("datastore").
		Category(errors.CategoryDatabase).
		Build()
}

// Create stores a new record and returns the store-assigned id.
func (store *SQLiteStore) Create(ctx context.Context, record *AudioRecord) (uint, error) {
	if err := store.ensureOpen(ctx); err != nil {
		return 0, err
	}
	return store.create(ctx, record)
}

// Get retrieves a record by id.
func (store *SQLiteStore) Get(ctx context.Context, id uint) (AudioRecord, error) {
	if err := store.ensureOpen(ctx); err != nil {
		return AudioRecord{}, err
	}
	return store.get(ctx, id)
}

// GetAll retrieves every stored record.
func (store *SQLiteStore) GetAll(ctx context.Context) ([]AudioRecord, error) {
	if err := store.ensureOpen(ctx); err != nil {
		return nil, err
	}
	return store.getAll(ctx)
}

// Update applies a partial field update to a record.
func (store *SQLiteStore) Update(ctx context.Context, id uint, fields map[string]any) error {
	if err := store.ensureOpen(ctx); err != nil {
		return err
	}
	return store.update(ctx, id, fields)
}

// Delete removes a record.
func (store *SQLiteStore) Delete(ctx context.Context, id uint) error {
	if err := store.ensureOpen(ctx); err != nil {
		return err
	}
	return store.delete(ctx, id)
}

// Close releases the underlying database connection.
func (store *SQLiteStore) Close() error {
	store.mu.Lock()
	defer store.mu.Unlock()
	if store.DB == nil {
		return nil
	}
	sqlDB, err := store.DB.DB()
	if err != nil {
		return err
	}
	store.DB = nil
	store.opened = false
	store.openErr = nil
	return sqlDB.Close()
}
