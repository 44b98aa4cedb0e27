package contextmgr

import (
	"reflect"
	"sort"
)

// EditKind identifies the variant of a single Edit.
type EditKind string

const (
	// EditReplaceContent replaces the full text of a text block.
	EditReplaceContent EditKind = "replace_content"
	// EditAddTruncationNotice prepends the canonical truncation notice to a text block.
	EditAddTruncationNotice EditKind = "add_truncation_notice"
	// EditOther is a reserved no-op edit kind.
	EditOther EditKind = "other"
)

// EditType records which role a message had when its first edit was added.
type EditType string

const (
	EditTypeUser      EditType = "user"
	EditTypeAssistant EditType = "assistant"
)

// EditMetadata carries optional structured hints about why an edit was made.
type EditMetadata struct {
	OriginalPath    string `json:"originalPath,omitempty"`
	ReplacedMention bool   `json:"replacedMention,omitempty"`
}

// Edit is a single timestamped mutation targeting one (message, block) pair.
type Edit struct {
	Timestamp int64
	Kind      EditKind
	Payload   any
	Metadata  *EditMetadata
}

func (e Edit) equal(o Edit) bool {
	if e.Timestamp != o.Timestamp || e.Kind != o.Kind {
		return false
	}
	if !reflect.DeepEqual(e.Payload, o.Payload) {
		return false
	}
	if (e.Metadata == nil) != (o.Metadata == nil) {
		return false
	}
	if e.Metadata != nil && *e.Metadata != *o.Metadata {
		return false
	}
	return true
}

func (e Edit) clone() Edit {
	cp := e
	if e.Metadata != nil {
		md := *e.Metadata
		cp.Metadata = &md
	}
	return cp
}

// MessageEdits holds every edit recorded against one message index.
type MessageEdits struct {
	EditType EditType
	Blocks   map[int][]Edit
}

func newMessageEdits(editType EditType) *MessageEdits {
	return &MessageEdits{EditType: editType, Blocks: make(map[int][]Edit)}
}

func (me *MessageEdits) clone() *MessageEdits {
	cp := &MessageEdits{EditType: me.EditType, Blocks: make(map[int][]Edit, len(me.Blocks))}
	for b, edits := range me.Blocks {
		cloned := make([]Edit, len(edits))
		for i, e := range edits {
			cloned[i] = e.clone()
		}
		cp.Blocks[b] = cloned
	}
	return cp
}

func (me *MessageEdits) equal(o *MessageEdits) bool {
	if me.EditType != o.EditType {
		return false
	}
	if len(me.Blocks) != len(o.Blocks) {
		return false
	}
	for b, edits := range me.Blocks {
		oedits, ok := o.Blocks[b]
		if !ok || len(edits) != len(oedits) {
			return false
		}
		for i := range edits {
			if !edits[i].equal(oedits[i]) {
				return false
			}
		}
	}
	return true
}

// EditLog is the ordered, timestamped record of mutations overlaid on a raw
// History. It maps message index -> MessageEdits; within a MessageEdits, it
// maps block index -> an append-ordered list of Edits. Only the last edit of
// each (message, block) pair is applied to the raw block; earlier edits are
// retained purely so rollback can walk them back.
type EditLog struct {
	entries map[int]*MessageEdits
}

// NewEditLog returns an empty EditLog.
func NewEditLog() *EditLog {
	return &EditLog{entries: make(map[int]*MessageEdits)}
}

// Indices returns the message indices present in the log, sorted ascending.
func (l *EditLog) Indices() []int {
	out := make([]int, 0, len(l.entries))
	for i := range l.entries {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

// Get returns the MessageEdits for message index i, if present.
func (l *EditLog) Get(i int) (*MessageEdits, bool) {
	me, ok := l.entries[i]
	return me, ok
}

// Set installs entry as the MessageEdits for message index i, replacing any
// existing entry. A nil entry deletes the index.
func (l *EditLog) Set(i int, entry *MessageEdits) {
	if entry == nil {
		delete(l.entries, i)
		return
	}
	l.entries[i] = entry
}

// Delete removes message index i entirely.
func (l *EditLog) Delete(i int) {
	delete(l.entries, i)
}

// IsEmpty reports whether the log has no entries.
func (l *EditLog) IsEmpty() bool {
	return len(l.entries) == 0
}

// AppendEdit appends e to the edit list for (i, b), creating the message and
// block entries as needed. role is recorded as the message's EditType only
// the first time an edit is added for message i (invariant 2 in the spec);
// subsequent calls for the same i ignore role.
func (l *EditLog) AppendEdit(i int, role EditType, b int, e Edit) {
	me, ok := l.entries[i]
	if !ok {
		me = newMessageEdits(role)
		l.entries[i] = me
	}
	me.Blocks[b] = append(me.Blocks[b], e)
}

// LastEdit returns the most recently appended edit for (i, b), if any.
func (l *EditLog) LastEdit(i, b int) (Edit, bool) {
	me, ok := l.entries[i]
	if !ok {
		return Edit{}, false
	}
	edits, ok := me.Blocks[b]
	if !ok || len(edits) == 0 {
		return Edit{}, false
	}
	return edits[len(edits)-1], true
}

// Clone returns a deep copy of the log.
func (l *EditLog) Clone() *EditLog {
	cp := NewEditLog()
	for i, me := range l.entries {
		cp.entries[i] = me.clone()
	}
	return cp
}

// Equal reports whether l and o are deeply structurally equal. This is the
// definition of "changed" used to decide whether to persist.
func (l *EditLog) Equal(o *EditLog) bool {
	if l == nil || o == nil {
		return l == o
	}
	if len(l.entries) != len(o.entries) {
		return false
	}
	for i, me := range l.entries {
		ome, ok := o.entries[i]
		if !ok || !me.equal(ome) {
			return false
		}
	}
	return true
}

// RollbackAtTimestamp removes every edit with Timestamp > t. A block whose
// edit list becomes empty is dropped from its message entry; a message entry
// whose block map becomes empty is dropped from the log.
func (l *EditLog) RollbackAtTimestamp(t int64) {
	for i, me := range l.entries {
		for b, edits := range me.Blocks {
			kept := edits[:0:0]
			for _, e := range edits {
				if e.Timestamp <= t {
					kept = append(kept, e)
				}
			}
			if len(kept) == 0 {
				delete(me.Blocks, b)
			} else {
				me.Blocks[b] = kept
			}
		}
		if len(me.Blocks) == 0 {
			delete(l.entries, i)
		}
	}
}

// ShiftIndices rewrites the log for a truncation that evicts the half-open
// range [evictStart, evictEnd): entries below evictStart are kept as-is,
// entries within the range are dropped, entries at or above evictEnd are
// re-keyed by subtracting (evictEnd - evictStart).
func (l *EditLog) ShiftIndices(evictStart, evictEnd int) *EditLog {
	remove := evictEnd - evictStart
	out := NewEditLog()
	for _, i := range l.Indices() {
		me := l.entries[i]
		switch {
		case i < evictStart:
			out.entries[i] = me.clone()
		case i >= evictStart && i < evictEnd:
			// discarded: falls within the evicted range
		default:
			out.entries[i-remove] = me.clone()
		}
	}
	return out
}
