package contextmgr

import "testing"

type memStore struct {
	saved map[string]*EditLog
}

func newMemStore() *memStore {
	return &memStore{saved: make(map[string]*EditLog)}
}

func (s *memStore) Load(taskID string) (*EditLog, error) {
	if l, ok := s.saved[taskID]; ok {
		return l.Clone(), nil
	}
	return NewEditLog(), nil
}

func (s *memStore) Store(taskID string, l *EditLog) error {
	s.saved[taskID] = l.Clone()
	return nil
}

func wordTokenizer() Tokenizer {
	return TokenizerFunc(func(text string) int { return len(text) / 4 })
}

func ticker(start int64) Clock {
	t := start
	return func() int64 {
		t++
		return t
	}
}

func TestManagerProcessReturnsUnchangedHistoryWhenUnderBudget(t *testing.T) {
	store := newMemStore()
	m := NewManager("task-1", store, wordTokenizer(), Config{}, WithClock(ticker(0)), WithLogger(logxNoop()))

	raw := buildHistory(4)
	result := m.Process(raw, 0)

	if result.WasTruncated {
		t.Errorf("expected no truncation on first call with low prevRequestTokens")
	}
	if len(result.PreparedHistory) != len(raw) {
		t.Errorf("expected unchanged history length, got %d want %d", len(result.PreparedHistory), len(raw))
	}
}

func TestManagerProcessTruncatesWhenPreviousRequestOverflowed(t *testing.T) {
	store := newMemStore()
	cfg := Config{ReservedResponseTokens: 0, TokenBuffer: 0}
	m := NewManager("task-2", store, wordTokenizer(), cfg, WithClock(ticker(0)), WithLogger(logxNoop()))
	m.UpdateModel(&ModelDescriptor{ContextWindow: 64000})

	raw := buildHistory(20)
	result := m.Process(raw, 10_000_000) // wildly over budget

	if !result.WasTruncated {
		t.Errorf("expected truncation when prevRequestTokens greatly exceeds effective budget")
	}
	if len(result.PreparedHistory) >= len(raw) {
		t.Errorf("expected prepared history to shrink")
	}

	notice := DefaultNotices{}.ContextTruncationNotice()
	got := result.PreparedHistory[1].Blocks[0].Text
	if len(got) < len(notice) || got[:len(notice)] != notice {
		t.Errorf("expected the preserved assistant message's first text block to start with the truncation notice, got %q", got)
	}
}

func TestManagerProcessPersistsOnlyWhenLogChanges(t *testing.T) {
	store := newMemStore()
	m := NewManager("task-3", store, wordTokenizer(), Config{}, WithClock(ticker(0)), WithLogger(logxNoop()))

	raw := History{
		NewMessage(RoleUser, TextBlock("[read_file for 'a.go'] Result:"), TextBlock("v1")),
		NewMessage(RoleUser, TextBlock("[read_file for 'a.go'] Result:"), TextBlock("v2")),
	}
	m.Process(raw, 0)

	if _, ok := store.saved["task-3"]; !ok {
		t.Errorf("expected a persisted log once duplicate elision produced new edits")
	}
}

func TestManagerProcessDoesNotPersistWhenNothingChanged(t *testing.T) {
	store := newMemStore()
	m := NewManager("task-4", store, wordTokenizer(), Config{}, WithClock(ticker(0)), WithLogger(logxNoop()))

	raw := buildHistory(4)
	m.Process(raw, 0)

	if _, ok := store.saved["task-4"]; ok {
		t.Errorf("expected no persisted log when elision and truncation both no-op")
	}
}

func TestManagerRollbackAtTimestampPersistsOnChange(t *testing.T) {
	store := newMemStore()
	m := NewManager("task-5", store, wordTokenizer(), Config{}, WithClock(ticker(0)), WithLogger(logxNoop()))

	raw := History{
		NewMessage(RoleUser, TextBlock("[read_file for 'a.go'] Result:"), TextBlock("v1")),
		NewMessage(RoleUser, TextBlock("[read_file for 'a.go'] Result:"), TextBlock("v2")),
	}
	m.Process(raw, 0)

	m.RollbackAtTimestamp(0) // rolls back everything after t=0

	saved, ok := store.saved["task-5"]
	if !ok {
		t.Fatalf("expected a persisted log after rollback")
	}
	if !saved.IsEmpty() {
		t.Errorf("expected rollback to timestamp 0 to remove all edits (all were added with ticker timestamps > 0)")
	}
}

func TestManagerUpdateModelIsNoOpWhenUnchanged(t *testing.T) {
	store := newMemStore()
	m := NewManager("task-6", store, wordTokenizer(), Config{}, WithLogger(logxNoop()))

	desc := &ModelDescriptor{ContextWindow: 200000}
	m.UpdateModel(desc)
	m.UpdateModel(&ModelDescriptor{ContextWindow: 200000})

	if m.model != desc {
		t.Errorf("expected UpdateModel to skip replacing an equal descriptor")
	}
}
