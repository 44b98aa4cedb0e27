package contextmgr

import "testing"

func buildHistory(n int) History {
	h := make(History, 0, n)
	for i := 0; i < n; i++ {
		role := RoleUser
		if i%2 == 1 {
			role = RoleAssistant
		}
		h = append(h, NewTextMessage(role, "message"))
	}
	return h
}

func TestTruncateNoOpWhenUnderBudget(t *testing.T) {
	h := buildHistory(10)
	out, log, truncated := Truncate(h, NewEditLog(), 1000, 500, 0, 0, logxNoop())
	if truncated {
		t.Errorf("expected no truncation when prevRequestTokens <= effectiveMax")
	}
	if len(out) != len(h) {
		t.Errorf("expected history unchanged")
	}
	if !log.IsEmpty() {
		t.Errorf("expected log unchanged")
	}
}

func TestTruncateEvictsPreservingPrefix(t *testing.T) {
	h := buildHistory(10)
	out, _, truncated := Truncate(h, NewEditLog(), 100, 5000, 0.5, 42, logxNoop())
	if !truncated {
		t.Fatalf("expected truncation to fire")
	}
	if len(out) >= len(h) {
		t.Errorf("expected history to shrink, got %d from %d", len(out), len(h))
	}
	if len(out) < preservedPrefixLen {
		t.Errorf("expected at least the preserved prefix to survive")
	}
}

func TestTruncateShiftsEditLogIndices(t *testing.T) {
	h := buildHistory(10)
	log := NewEditLog()
	log.AppendEdit(8, EditTypeAssistant, 0, Edit{Timestamp: 1, Kind: EditReplaceContent, Payload: "late edit"})

	_, newLog, truncated := Truncate(h, log, 100, 5000, 0.5, 42, logxNoop())
	if !truncated {
		t.Fatalf("expected truncation to fire")
	}

	found := false
	for _, i := range newLog.Indices() {
		if me, _ := newLog.Get(i); me != nil {
			if last, ok := me.Blocks[0]; ok && len(last) > 0 && last[len(last)-1].Payload == "late edit" {
				found = true
			}
		}
	}
	if !found {
		t.Errorf("expected the shifted edit log to still carry the late edit at its new index")
	}
}

func TestTruncateInsertsNoticeOnlyOnce(t *testing.T) {
	h := buildHistory(10)

	_, log1, _ := Truncate(h, NewEditLog(), 100, 5000, 0.5, 1, logxNoop())
	_, log2, _ := Truncate(h, log1, 100, 5000, 0.5, 2, logxNoop())

	me, ok := log2.Get(1)
	if !ok {
		t.Fatalf("expected an entry at the preserved assistant message index")
	}
	edits := me.Blocks[0]
	count := 0
	for _, e := range edits {
		if e.Kind == EditAddTruncationNotice {
			count++
		}
	}
	if count != 1 {
		t.Errorf("expected exactly one add_truncation_notice edit after two truncations, got %d", count)
	}
}

func TestTruncateNothingEvictableWarnsAndReturnsUnchanged(t *testing.T) {
	h := buildHistory(preservedPrefixLen)
	out, log, truncated := Truncate(h, NewEditLog(), 100, 5000, 0.5, 1, logxNoop())
	if !truncated {
		t.Errorf("expected WasTruncated=true even when nothing could be evicted")
	}
	if len(out) != len(h) {
		t.Errorf("expected history unchanged when nothing is evictable")
	}
	if !log.IsEmpty() {
		t.Errorf("expected log unchanged when nothing is evictable")
	}
}
