package contextmgr

import (
	"strings"

	"contextwindow/pkg/logx"
)

// Apply projects raw history h through edit log l, producing a new History
// with every (message, block)'s last edit applied. The copy is made on write:
// a message whose blocks change gets a fresh block slice, while every other
// message shares its blocks with h. It never mutates h or l. Invalid indices
// and type mismatches are logged and skipped; the rest of
// the log still applies. Applying the same log twice to the same raw history
// yields the same result (idempotence).
func Apply(h History, l *EditLog, notices NoticeFormatter, log *logx.Logger) History {
	if notices == nil {
		notices = DefaultNotices{}
	}
	out := make(History, len(h))
	copy(out, h)

	for _, i := range l.Indices() {
		if i < 0 || i >= len(out) {
			log.Warn("edit log references out-of-range message index %d (history length %d), skipping", i, len(out))
			continue
		}
		me, _ := l.Get(i)
		out[i] = applyMessageEdits(out[i], me, notices, log, i)
	}

	return out
}

func applyMessageEdits(m Message, me *MessageEdits, notices NoticeFormatter, log *logx.Logger, msgIndex int) Message {
	if m.LegacyContent != nil {
		if len(me.Blocks) > 0 {
			log.Warn("edit log targets blocks on legacy-content message %d, skipping", msgIndex)
		}
		return m
	}

	var newBlocks []Block
	copied := false
	ensureCopy := func() {
		if copied {
			return
		}
		newBlocks = make([]Block, len(m.Blocks))
		copy(newBlocks, m.Blocks)
		copied = true
	}

	for b, edits := range me.Blocks {
		if len(edits) == 0 {
			continue
		}
		if b < 0 || b >= len(m.Blocks) {
			log.Warn("edit log references out-of-range block %d on message %d, skipping", b, msgIndex)
			continue
		}
		last := edits[len(edits)-1]
		switch last.Kind {
		case EditReplaceContent:
			target := m.Blocks[b]
			if target.Kind != BlockText {
				log.Warn("replace_content targets non-text block %d on message %d, skipping", b, msgIndex)
				continue
			}
			payload, ok := last.Payload.(string)
			if !ok {
				log.Warn("replace_content payload on message %d block %d is not a string, skipping", msgIndex, b)
				continue
			}
			ensureCopy()
			blk := newBlocks[b]
			blk.Text = payload
			newBlocks[b] = blk

		case EditAddTruncationNotice:
			target := m.Blocks[b]
			if target.Kind != BlockText {
				log.Warn("add_truncation_notice targets non-text block %d on message %d, skipping", b, msgIndex)
				continue
			}
			ensureCopy()
			notice := notices.ContextTruncationNotice()
			if !strings.HasPrefix(newBlocks[b].Text, notice) {
				blk := newBlocks[b]
				blk.Text = notice + "\n" + blk.Text
				newBlocks[b] = blk
			}

		case EditOther:
			// reserved no-op

		default:
			log.Warn("unknown edit kind %q on message %d block %d, skipping", last.Kind, msgIndex, b)
		}
	}

	if copied {
		m.Blocks = newBlocks
	}
	return m
}
