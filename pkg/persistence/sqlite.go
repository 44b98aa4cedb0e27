package persistence

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"contextwindow/pkg/contextmgr"
	"contextwindow/pkg/logx"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS edit_logs (
	task_id    TEXT PRIMARY KEY,
	edit_log   BLOB NOT NULL,
	updated_at INTEGER NOT NULL
);
`

// SQLiteStore is a modernc.org/sqlite-backed contextmgr.Store: a single
// edit_logs table keyed by task id, storing the encoded EditLog as a blob.
// Unlike the teacher's persistence package this is an instance, not a
// process-wide singleton — a Manager fleet in one process may each own an
// independent SQLiteStore over the same or different files.
type SQLiteStore struct {
	db  *sql.DB
	log *logx.Logger
}

var _ contextmgr.Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens (and if necessary creates) a SQLite database at path,
// in WAL mode with a busy timeout, and ensures the schema exists.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	// SQLite only supports one writer at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize sqlite schema: %w", err)
	}

	return &SQLiteStore{db: db, log: logx.NewLogger("persistence.sqlite")}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Load implements contextmgr.Store.
func (s *SQLiteStore) Load(taskID string) (*contextmgr.EditLog, error) {
	var blob []byte
	err := s.db.QueryRow(`SELECT edit_log FROM edit_logs WHERE task_id = ?`, taskID).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return contextmgr.NewEditLog(), nil
	}
	if err != nil {
		s.log.Warn("failed to query edit log for task %s, starting from empty log: %v", taskID, err)
		return contextmgr.NewEditLog(), nil
	}

	l, err := contextmgr.DecodeEditLog(blob, s.log.Warn)
	if err != nil {
		s.log.Warn("failed to decode edit log for task %s, starting from empty log: %v", taskID, err)
		return contextmgr.NewEditLog(), nil
	}
	return l, nil
}

// Store implements contextmgr.Store.
func (s *SQLiteStore) Store(taskID string, l *contextmgr.EditLog) error {
	data, err := l.Encode()
	if err != nil {
		return fmt.Errorf("failed to encode edit log: %w", err)
	}

	ts := time.Now().UnixMilli()

	_, err = s.db.Exec(`
		INSERT INTO edit_logs (task_id, edit_log, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(task_id) DO UPDATE SET edit_log = excluded.edit_log, updated_at = excluded.updated_at
	`, taskID, data, ts)
	if err != nil {
		return fmt.Errorf("failed to upsert edit log for task %s: %w", taskID, err)
	}
	return nil
}
