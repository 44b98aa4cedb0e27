package contextmgr

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// serializedEditLog is the on-disk shape of an EditLog: message index and
// block index are rendered as base-10 strings so the map keys survive JSON's
// string-keyed object requirement.
type serializedEditLog map[string]serializedMessageEdits

type serializedMessageEdits struct {
	EditType string                     `json:"editType"`
	Blocks   map[string][]serializedEdit `json:"blocks"`
}

// serializedEdit is a 3- or 4-element ordered tuple:
// [timestamp, kind, payload_or_null, metadata?].
type serializedEdit struct {
	Timestamp int64
	Kind      string
	Payload   any
	Metadata  *EditMetadata
}

// MarshalJSON renders the edit as its tuple form.
func (e serializedEdit) MarshalJSON() ([]byte, error) {
	if e.Metadata != nil {
		return json.Marshal([]any{e.Timestamp, e.Kind, e.Payload, e.Metadata})
	}
	return json.Marshal([]any{e.Timestamp, e.Kind, e.Payload})
}

// UnmarshalJSON parses the tuple form. Malformed tuples return an error so
// the caller can drop them and keep decoding the rest of the log.
func (e *serializedEdit) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) < 3 {
		return fmt.Errorf("edit tuple has %d elements, want at least 3", len(raw))
	}
	if err := json.Unmarshal(raw[0], &e.Timestamp); err != nil {
		return fmt.Errorf("edit timestamp: %w", err)
	}
	if err := json.Unmarshal(raw[1], &e.Kind); err != nil {
		return fmt.Errorf("edit kind: %w", err)
	}
	if err := json.Unmarshal(raw[2], &e.Payload); err != nil {
		return fmt.Errorf("edit payload: %w", err)
	}
	if len(raw) >= 4 {
		var md EditMetadata
		if err := json.Unmarshal(raw[3], &md); err != nil {
			return fmt.Errorf("edit metadata: %w", err)
		}
		e.Metadata = &md
	}
	return nil
}

func toSerializedEdit(e Edit) serializedEdit {
	return serializedEdit{Timestamp: e.Timestamp, Kind: string(e.Kind), Payload: e.Payload, Metadata: e.Metadata}
}

func (e serializedEdit) toEdit() Edit {
	return Edit{Timestamp: e.Timestamp, Kind: EditKind(e.Kind), Payload: e.Payload, Metadata: e.Metadata}
}

// Encode renders the log to its on-disk JSON representation.
func (l *EditLog) Encode() ([]byte, error) {
	out := make(serializedEditLog, len(l.entries))
	for i, me := range l.entries {
		blocks := make(map[string][]serializedEdit, len(me.Blocks))
		for b, edits := range me.Blocks {
			tuples := make([]serializedEdit, len(edits))
			for k, e := range edits {
				tuples[k] = toSerializedEdit(e)
			}
			blocks[strconv.Itoa(b)] = tuples
		}
		out[strconv.Itoa(i)] = serializedMessageEdits{EditType: string(me.EditType), Blocks: blocks}
	}
	data, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("encode edit log: %w", err)
	}
	return data, nil
}

// rawMessageEdits mirrors serializedMessageEdits but keeps each block's
// tuple list as raw JSON, so one malformed tuple doesn't poison decoding of
// its siblings.
type rawMessageEdits struct {
	EditType string                     `json:"editType"`
	Blocks   map[string]json.RawMessage `json:"blocks"`
}

// DecodeEditLog parses the on-disk JSON representation. Decoding is lenient
// at every level: a message entry whose index does not parse as an integer
// is dropped, as is a block entry whose index does not parse, or an
// individual edit tuple that fails to unmarshal — decoding continues with
// whatever remains. Only a document that isn't a JSON object at all fails
// outright; callers still get an empty, usable log back in that case,
// matching the persistence port's "load never fails the caller" contract,
// but DecodeEditLog itself returns the error so callers can log it.
func DecodeEditLog(data []byte, warn func(format string, args ...any)) (*EditLog, error) {
	if warn == nil {
		warn = func(string, ...any) {}
	}
	if len(data) == 0 {
		return NewEditLog(), nil
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return NewEditLog(), fmt.Errorf("decode edit log: %w", err)
	}

	out := NewEditLog()
	for key, rawEntry := range raw {
		i, err := strconv.Atoi(key)
		if err != nil {
			warn("dropping edit log entry with non-numeric message index %q", key)
			continue
		}

		var rme rawMessageEdits
		if err := json.Unmarshal(rawEntry, &rme); err != nil {
			warn("dropping edit log entry %d: %v", i, err)
			continue
		}

		me := newMessageEdits(EditType(rme.EditType))
		for bkey, rawBlock := range rme.Blocks {
			b, err := strconv.Atoi(bkey)
			if err != nil {
				warn("dropping edit log block with non-numeric index %q on message %d", bkey, i)
				continue
			}

			var rawTuples []json.RawMessage
			if err := json.Unmarshal(rawBlock, &rawTuples); err != nil {
				warn("dropping edit log block %d on message %d: %v", b, i, err)
				continue
			}

			edits := make([]Edit, 0, len(rawTuples))
			for _, rawTuple := range rawTuples {
				var se serializedEdit
				if err := json.Unmarshal(rawTuple, &se); err != nil {
					warn("dropping malformed edit at message %d block %d: %v", i, b, err)
					continue
				}
				edits = append(edits, se.toEdit())
			}
			if len(edits) > 0 {
				me.Blocks[b] = edits
			}
		}
		if len(me.Blocks) > 0 {
			out.entries[i] = me
		}
	}
	return out, nil
}
