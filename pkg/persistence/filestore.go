// Package persistence provides contextmgr.Store implementations.
package persistence

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"contextwindow/pkg/contextmgr"
	"contextwindow/pkg/logx"
)

// editLogFilename is the fixed filename written inside each task's directory.
const editLogFilename = "edit_log.json"

// FileStore is a JSON-file-backed contextmgr.Store: one file per task under
// baseDir/<taskID>/edit_log.json. Writes are atomic via a uuid-suffixed temp
// file plus rename; loads are lenient, degrading a missing or corrupt file to
// an empty log with a warning rather than failing the caller.
type FileStore struct {
	baseDir string
	log     *logx.Logger
}

var _ contextmgr.Store = (*FileStore)(nil)

// NewFileStore returns a FileStore rooted at baseDir, creating it if absent.
func NewFileStore(baseDir string) (*FileStore, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create persistence base directory: %w", err)
	}
	return &FileStore{baseDir: baseDir, log: logx.NewLogger("persistence.file")}, nil
}

// Load implements contextmgr.Store.
func (s *FileStore) Load(taskID string) (*contextmgr.EditLog, error) {
	path := s.pathFor(taskID)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return contextmgr.NewEditLog(), nil
		}
		s.log.Warn("failed to read edit log file %s, starting from empty log: %v", path, err)
		return contextmgr.NewEditLog(), nil
	}

	l, err := contextmgr.DecodeEditLog(data, s.log.Warn)
	if err != nil {
		s.log.Warn("failed to decode edit log file %s, starting from empty log: %v", path, err)
		return contextmgr.NewEditLog(), nil
	}
	return l, nil
}

// Store implements contextmgr.Store.
func (s *FileStore) Store(taskID string, l *contextmgr.EditLog) error {
	dir := filepath.Join(s.baseDir, taskID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create task directory: %w", err)
	}

	data, err := l.Encode()
	if err != nil {
		return fmt.Errorf("failed to encode edit log: %w", err)
	}

	final := filepath.Join(dir, editLogFilename)
	tmp := filepath.Join(dir, fmt.Sprintf(".%s.tmp-%s", editLogFilename, uuid.NewString()))

	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write temp edit log file: %w", err)
	}
	if err := os.Rename(tmp, final); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to rename temp edit log file into place: %w", err)
	}
	return nil
}

func (s *FileStore) pathFor(taskID string) string {
	return filepath.Join(s.baseDir, taskID, editLogFilename)
}
