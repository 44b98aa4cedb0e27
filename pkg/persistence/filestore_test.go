package persistence

import (
	"os"
	"path/filepath"
	"testing"

	"contextwindow/pkg/contextmgr"
)

func TestFileStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}

	l := contextmgr.NewEditLog()
	l.AppendEdit(0, contextmgr.EditTypeUser, 0, contextmgr.Edit{Timestamp: 1, Kind: contextmgr.EditReplaceContent, Payload: "hi"})

	if err := store.Store("task-a", l); err != nil {
		t.Fatalf("Store failed: %v", err)
	}

	loaded, err := store.Load("task-a")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !l.Equal(loaded) {
		t.Errorf("expected loaded log to equal stored log")
	}

	if err := store.Store("task-a", l); err != nil {
		t.Fatalf("second Store failed: %v", err)
	}
	finalPath := filepath.Join(dir, "task-a", editLogFilename)
	if _, err := os.Stat(finalPath); err != nil {
		t.Errorf("expected final file to exist at %s: %v", finalPath, err)
	}
}

func TestFileStoreLoadMissingTaskReturnsEmptyLog(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}

	l, err := store.Load("never-written")
	if err != nil {
		t.Fatalf("Load should never fail the caller for a missing file: %v", err)
	}
	if !l.IsEmpty() {
		t.Errorf("expected an empty log for a task never stored")
	}
}

func TestFileStoreLoadCorruptFileDegradesToEmptyLog(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}

	taskDir := filepath.Join(dir, "task-b")
	if err := os.MkdirAll(taskDir, 0o755); err != nil {
		t.Fatalf("failed to create task dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(taskDir, editLogFilename), []byte("not json"), 0o644); err != nil {
		t.Fatalf("failed to write corrupt file: %v", err)
	}

	l, err := store.Load("task-b")
	if err != nil {
		t.Fatalf("Load should never fail the caller for a corrupt file: %v", err)
	}
	if !l.IsEmpty() {
		t.Errorf("expected a corrupt file to degrade to an empty log")
	}
}
