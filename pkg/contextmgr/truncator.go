package contextmgr

import (
	"math"

	"contextwindow/pkg/logx"
)

// preservedPrefixLen is the number of leading messages the Truncator never
// evicts: the first user/assistant pair.
const preservedPrefixLen = 2

// defaultTruncationFraction is φ, the fraction of the evictable tail removed
// when a truncation fires, absent an explicit override.
const defaultTruncationFraction = 0.5

// Truncate evicts a contiguous middle range of hist when prevRequestTokens
// exceeds effectiveMax, rewriting log's indices to match and inserting a
// truncation notice on the first preserved assistant message. It is a no-op
// (wasTruncated=false) if the trigger doesn't fire, and returns hist/log
// unchanged (wasTruncated=true, with a warning) if there is nothing evictable.
func Truncate(hist History, log *EditLog, effectiveMax, prevRequestTokens int, phi float64, now int64, l *logx.Logger) (History, *EditLog, bool) {
	if phi <= 0 {
		phi = defaultTruncationFraction
	}

	if prevRequestTokens <= effectiveMax {
		return hist, log, false
	}

	n := len(hist)
	evictable := n - preservedPrefixLen
	if evictable <= 0 {
		l.Warn("truncation triggered but history has only %d messages, nothing evictable", n)
		return hist, log, true
	}

	remove := int(math.Ceil(float64(evictable) * phi))
	if remove%2 != 0 {
		remove++
	}
	if remove > evictable {
		remove = evictable
	}

	evictStart := preservedPrefixLen
	evictEnd := evictStart + remove

	newHist := make(History, 0, n-remove)
	newHist = append(newHist, hist[:evictStart]...)
	newHist = append(newHist, hist[evictEnd:]...)

	newLog := log.ShiftIndices(evictStart, evictEnd)

	insertTruncationNotice(newLog, hist, now, l)

	return newHist, newLog, true
}

// insertTruncationNotice ensures newLog carries an add_truncation_notice
// edit on (message index 1, block 0) of the preserved prefix, unless one is
// already the last edit there. The notice's rendered text is applied later
// by the Edit Applier via the configured NoticeFormatter; the edit itself
// carries no payload. preHist is the pre-truncation history, used only to
// check that message index 1 is actually an assistant message.
func insertTruncationNotice(newLog *EditLog, preHist History, now int64, l *logx.Logger) {
	const noticeMsgIndex = 1
	const noticeBlockIndex = 0

	if len(preHist) <= noticeMsgIndex {
		l.Warn("cannot insert truncation notice: history has no message at index %d", noticeMsgIndex)
		return
	}
	if preHist[noticeMsgIndex].Role != RoleAssistant {
		l.Warn("cannot insert truncation notice: message at index %d is not assistant", noticeMsgIndex)
		return
	}

	if last, ok := newLog.LastEdit(noticeMsgIndex, noticeBlockIndex); ok && last.Kind == EditAddTruncationNotice {
		return
	}

	newLog.AppendEdit(noticeMsgIndex, EditTypeAssistant, noticeBlockIndex, Edit{
		Timestamp: now,
		Kind:      EditAddTruncationNotice,
	})
}
