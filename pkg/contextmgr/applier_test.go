package contextmgr

import "testing"

func TestApplyReplacesContentOfLastEditOnly(t *testing.T) {
	h := History{NewTextMessage(RoleUser, "original")}
	l := NewEditLog()
	l.AppendEdit(0, EditTypeUser, 0, Edit{Timestamp: 1, Kind: EditReplaceContent, Payload: "first replacement"})
	l.AppendEdit(0, EditTypeUser, 0, Edit{Timestamp: 2, Kind: EditReplaceContent, Payload: "second replacement"})

	out := Apply(h, l, nil, logxNoop())

	if out[0].Blocks[0].Text != "second replacement" {
		t.Errorf("expected last edit to win, got %q", out[0].Blocks[0].Text)
	}
	if h[0].Blocks[0].Text != "original" {
		t.Errorf("expected Apply not to mutate the raw history, got %q", h[0].Blocks[0].Text)
	}
}

func TestApplyIsIdempotent(t *testing.T) {
	h := History{NewTextMessage(RoleUser, "original")}
	l := NewEditLog()
	l.AppendEdit(0, EditTypeUser, 0, Edit{Timestamp: 1, Kind: EditReplaceContent, Payload: "replacement"})

	first := Apply(h, l, nil, logxNoop())
	second := Apply(h, l, nil, logxNoop())

	if first[0].Blocks[0].Text != second[0].Blocks[0].Text {
		t.Errorf("expected applying the same log twice to yield the same result")
	}
}

func TestApplyAddTruncationNoticeIsNotDoubledByRepeatedApply(t *testing.T) {
	h := History{NewTextMessage(RoleAssistant, "body")}
	l := NewEditLog()
	l.AppendEdit(0, EditTypeAssistant, 0, Edit{Timestamp: 1, Kind: EditAddTruncationNotice})

	out := Apply(h, l, nil, logxNoop())
	out2 := Apply(out, l, nil, logxNoop())

	notice := DefaultNotices{}.ContextTruncationNotice()
	count := 0
	text := out2[0].Blocks[0].Text
	for i := 0; i+len(notice) <= len(text); i++ {
		if text[i:i+len(notice)] == notice {
			count++
		}
	}
	if count != 1 {
		t.Errorf("expected exactly one occurrence of the truncation notice, got %d in %q", count, text)
	}
}

func TestApplySkipsOutOfRangeIndices(t *testing.T) {
	h := History{NewTextMessage(RoleUser, "only message")}
	l := NewEditLog()
	l.AppendEdit(5, EditTypeUser, 0, Edit{Timestamp: 1, Kind: EditReplaceContent, Payload: "ghost"})

	out := Apply(h, l, nil, logxNoop())
	if len(out) != 1 || out[0].Blocks[0].Text != "only message" {
		t.Errorf("expected out-of-range edit to be skipped without panicking, got %+v", out)
	}
}

func TestApplyReplaceContentSkipsNonStringPayload(t *testing.T) {
	h := History{NewTextMessage(RoleUser, "original")}
	l := NewEditLog()
	l.AppendEdit(0, EditTypeUser, 0, Edit{Timestamp: 1, Kind: EditReplaceContent, Payload: 12345})

	out := Apply(h, l, nil, logxNoop())
	if out[0].Blocks[0].Text != "original" {
		t.Errorf("expected non-string payload to be skipped, got %q", out[0].Blocks[0].Text)
	}
}
