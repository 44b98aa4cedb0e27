package contextmgr

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	toolResultReadRe = regexp.MustCompile(`^\[read_file for '([^']+)'\] Result:$`)
	fileMentionRe    = regexp.MustCompile(`<file_content path="([^"]*)">([\s\S]*?)</file_content>`)
)

type occurrenceShape int

const (
	shapeToolResult occurrenceShape = iota
	shapeMention
)

type occurrence struct {
	path       string
	shape      occurrenceShape
	msgIndex   int
	blockIndex int
	fullMatch  string // mention shape only: exact substring to replace in place
}

// detectDuplicateReads scans the raw history (never the projected one) for
// file-read occurrences, grouped by path in scan order. Only user messages
// are scanned, per the spec's detection rule.
func detectDuplicateReads(raw History) (order []string, byPath map[string][]occurrence) {
	byPath = make(map[string][]occurrence)

	addOccurrence := func(o occurrence) {
		if _, seen := byPath[o.path]; !seen {
			order = append(order, o.path)
		}
		byPath[o.path] = append(byPath[o.path], o)
	}

	for i, m := range raw {
		if m.Role != RoleUser || m.LegacyContent != nil {
			continue
		}

		if len(m.Blocks) >= 2 && m.Blocks[0].Kind == BlockText {
			if match := toolResultReadRe.FindStringSubmatch(m.Blocks[0].Text); match != nil {
				addOccurrence(occurrence{
					path:       match[1],
					shape:      shapeToolResult,
					msgIndex:   i,
					blockIndex: 1,
				})
			}
		}

		for b, blk := range m.Blocks {
			if blk.Kind != BlockText {
				continue
			}
			for _, loc := range fileMentionRe.FindAllStringSubmatchIndex(blk.Text, -1) {
				addOccurrence(occurrence{
					path:       blk.Text[loc[2]:loc[3]],
					shape:      shapeMention,
					msgIndex:   i,
					blockIndex: b,
					fullMatch:  blk.Text[loc[0]:loc[1]],
				})
			}
		}
	}

	return order, byPath
}

// planDuplicateElision detects duplicate file reads in raw and builds the
// edits needed to elide every occurrence but the last one for each path. It
// returns two logs: candidate is live cloned with the new elision edits
// appended, and added holds only the newly appended edits (so the manager
// can apply them without re-timestamping the caller's existing live edits).
// Paths are processed in first-seen scan order and each new edit is folded
// into candidate before the next one is planned, so a block mentioning two
// distinct duplicated paths sees both replacements chained correctly.
func planDuplicateElision(raw History, live *EditLog, notices NoticeFormatter, now int64) (candidate, added *EditLog) {
	candidate = live.Clone()
	added = NewEditLog()

	order, byPath := detectDuplicateReads(raw)

	for _, path := range order {
		occs := byPath[path]
		if len(occs) < 2 {
			continue
		}
		for _, occ := range occs[:len(occs)-1] {
			role := editTypeForRole(raw[occ.msgIndex].Role)

			var e Edit
			switch occ.shape {
			case shapeToolResult:
				e = Edit{
					Timestamp: now,
					Kind:      EditReplaceContent,
					Payload:   notices.DuplicateFileReadNotice(),
				}
			case shapeMention:
				currentText := resolveCurrentText(raw, candidate, occ.msgIndex, occ.blockIndex)
				replacement := fmt.Sprintf(`<file_content path="%s">%s</file_content>`, path, notices.DuplicateFileReadNotice())
				newText := strings.Replace(currentText, occ.fullMatch, replacement, 1)
				e = Edit{
					Timestamp: now,
					Kind:      EditReplaceContent,
					Payload:   newText,
					Metadata:  &EditMetadata{OriginalPath: path, ReplacedMention: true},
				}
			}

			candidate.AppendEdit(occ.msgIndex, role, occ.blockIndex, e)
			added.AppendEdit(occ.msgIndex, role, occ.blockIndex, e)
		}
	}

	return candidate, added
}

func editTypeForRole(r Role) EditType {
	if r == RoleAssistant {
		return EditTypeAssistant
	}
	return EditTypeUser
}

// resolveCurrentText reads the text a mention-shape edit should be based on:
// the latest existing edit for that block in log, if any, else the raw
// block's own text.
func resolveCurrentText(raw History, log *EditLog, msgIndex, blockIndex int) string {
	if log != nil {
		if last, ok := log.LastEdit(msgIndex, blockIndex); ok {
			if s, ok := last.Payload.(string); ok {
				return s
			}
		}
	}
	return raw[msgIndex].Blocks[blockIndex].Text
}
