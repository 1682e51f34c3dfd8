package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite3 driver

	"terra/internal/logging"
	"terra/internal/metrics"
)

// Default timeout for database operations
const defaultTimeout = 5 * time.Second

var (
	// ErrAlbumNotFound is returned when an album id does not exist.
	ErrAlbumNotFound = errors.New("album not found")
	// ErrEmptyAlbumName is returned when an album name is blank.
	ErrEmptyAlbumName = errors.New("album name must not be empty")
)

// Database is the metadata store for photos, albums and album membership.
// A single process owns the file; writes are serialised through mu and a
// single connection.
type Database struct {
	db     *sql.DB
	dbPath string
	mu     sync.RWMutex
	now    func() time.Time
}

// New opens (creating if needed) the store at dbPath and brings the schema
// up to date. The parent directory must already exist.
func New(ctx context.Context, dbPath string) (*Database, error) {
	logging.Info("Database path: %s", dbPath)

	if err := diagnoseDatabasePermissions(dbPath); err != nil {
		logging.Warn("Database permission diagnostics: %v", err)
	}

	// busy_timeout avoids "database is locked" when the CLI and the bridge
	// touch the same file.
	connStr := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000&_foreign_keys=on", dbPath)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close database after ping failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	d := &Database{
		db:     db,
		dbPath: dbPath,
		now:    time.Now,
	}

	if err := d.initialize(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close database after initialization failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to initialize database schema: %w", err)
	}

	logging.Info("Database initialized successfully at %s", dbPath)
	return d, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS photos (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	path TEXT NOT NULL UNIQUE,
	name TEXT NOT NULL,
	date_taken INTEGER NOT NULL,
	width INTEGER NOT NULL DEFAULT 0,
	height INTEGER NOT NULL DEFAULT 0,
	source_type TEXT NOT NULL DEFAULT 'scan',
	created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_date_taken ON photos(date_taken DESC);

CREATE TABLE IF NOT EXISTS albums (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	cover_photo_path TEXT,
	created_at INTEGER NOT NULL
);

-- No foreign key on photo_path: memberships outlive the delete-then-insert
-- of an INSERT OR REPLACE on the same path.
CREATE TABLE IF NOT EXISTS album_photos (
	album_id INTEGER NOT NULL,
	photo_path TEXT NOT NULL,
	added_at INTEGER NOT NULL,
	PRIMARY KEY (album_id, photo_path),
	FOREIGN KEY (album_id) REFERENCES albums(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_album_photos_path ON album_photos(photo_path);

CREATE TABLE IF NOT EXISTS metadata (
	key TEXT PRIMARY KEY,
	value TEXT
);
`

func (d *Database) initialize(ctx context.Context) (err error) {
	done := observeQuery("initialize_schema")
	defer func() { done(err) }()

	if _, err = d.db.ExecContext(ctx, schema); err != nil {
		return err
	}

	return d.runMigrations(ctx)
}

// migration is one additive schema step. Steps must be idempotent; new
// steps are appended, never reordered or removed.
type migration struct {
	name  string
	apply func(ctx context.Context, db *sql.DB) error
}

var migrations = []migration{
	{
		name:  "photos.is_favorite",
		apply: addColumn("photos", "is_favorite", "INTEGER NOT NULL DEFAULT 0"),
	},
	{
		name:  "idx_photos_favorite",
		apply: execStatement("CREATE INDEX IF NOT EXISTS idx_photos_favorite ON photos(date_taken DESC) WHERE is_favorite = 1"),
	},
}

// runMigrations applies every migration in order.
func (d *Database) runMigrations(ctx context.Context) (err error) {
	done := observeQuery("migrate")
	defer func() { done(err) }()

	start := time.Now()
	defer func() {
		metrics.DBTransactionDuration.WithLabelValues("migrate").Observe(time.Since(start).Seconds())
	}()

	for _, m := range migrations {
		if err = m.apply(ctx, d.db); err != nil {
			return fmt.Errorf("migration %s: %w", m.name, err)
		}
	}
	return nil
}

// addColumn adds a column when pragma_table_info does not list it. A
// "duplicate column" error is tolerated so concurrent first starts agree.
func addColumn(table, column, definition string) func(context.Context, *sql.DB) error {
	return func(ctx context.Context, db *sql.DB) error {
		exists, err := columnExists(ctx, db, table, column)
		if err != nil {
			return fmt.Errorf("failed to check for %s column: %w", column, err)
		}
		if exists {
			return nil
		}

		logging.Info("Migrating database: adding %s column to %s table", column, table)

		_, err = db.ExecContext(ctx, fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, definition))
		if err != nil && !strings.Contains(err.Error(), "duplicate column") {
			return fmt.Errorf("failed to add %s column: %w", column, err)
		}

		logging.Info("Migration complete: %s.%s added", table, column)
		return nil
	}
}

func execStatement(stmt string) func(context.Context, *sql.DB) error {
	return func(ctx context.Context, db *sql.DB) error {
		_, err := db.ExecContext(ctx, stmt)
		return err
	}
}

func columnExists(ctx context.Context, db *sql.DB, table, column string) (bool, error) {
	var exists bool
	err := db.QueryRowContext(ctx, `
		SELECT COUNT(*) > 0
		FROM pragma_table_info(?)
		WHERE name = ?
	`, table, column).Scan(&exists)
	return exists, err
}

// Close closes the database connection.
func (d *Database) Close() error {
	return d.db.Close()
}

// Path returns the database file path.
func (d *Database) Path() string {
	return d.dbPath
}

// observeQuery starts timing operation and returns the func that records it.
func observeQuery(operation string) func(error) {
	start := time.Now()
	return func(err error) {
		recordQuery(operation, start, err)
	}
}

// recordQuery records database query metrics
func recordQuery(operation string, start time.Time, err error) {
	duration := time.Since(start).Seconds()
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.DBQueryTotal.WithLabelValues(operation, status).Inc()
	metrics.DBQueryDuration.WithLabelValues(operation).Observe(duration)
}

// withTx runs fn in a transaction, committing on success. The duration is
// recorded under operation.
func (d *Database) withTx(ctx context.Context, operation string, fn func(tx *sql.Tx) error) error {
	start := time.Now()
	defer func() {
		metrics.DBTransactionDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	}()

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Join(err, fmt.Errorf("rollback also failed: %w", rbErr))
		}
		return err
	}

	return tx.Commit()
}

// diagnoseDatabasePermissions logs the state of the database directory and
// files, fixing read-only WAL/SHM files when it can.
func diagnoseDatabasePermissions(dbPath string) error {
	dir := filepath.Dir(dbPath)

	dirInfo, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("cannot stat database directory: %w", err)
	}

	logging.Debug("Database directory: %s (mode: %v)", dir, dirInfo.Mode())

	if dbInfo, err := os.Stat(dbPath); err == nil {
		logging.Debug("Database file exists: %s (mode: %v, size: %d bytes)", dbPath, dbInfo.Mode(), dbInfo.Size())
		if dbInfo.Mode().Perm()&0o200 == 0 {
			logging.Warn("Database file is read-only! Mode: %v", dbInfo.Mode())
		}
	}

	for _, sidecar := range []string{dbPath + "-wal", dbPath + "-shm"} {
		info, err := os.Stat(sidecar)
		if err != nil || info.Mode().Perm()&0o200 != 0 {
			continue
		}
		logging.Warn("%s is read-only (mode %v), writes will fail", sidecar, info.Mode())
		if chmodErr := os.Chmod(sidecar, 0o600); chmodErr != nil {
			logging.Error("Failed to fix permissions on %s: %v", sidecar, chmodErr)
		} else {
			logging.Info("Fixed permissions on %s", sidecar)
		}
	}

	return nil
}
