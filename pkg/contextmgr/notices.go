package contextmgr

// NoticeFormatter supplies the canonical notice strings the Truncator and
// Duplicate Elider embed in prepared history. It is expressed as an
// interface, not constants, so a deployment can localize the text — but the
// Edit Applier depends on its exact output for idempotence checks (a
// notice's identity is defined by string equality, not by structure), so a
// given Manager must use one formatter consistently across its lifetime.
type NoticeFormatter interface {
	// ContextTruncationNotice is prepended to the first preserved assistant
	// message's first text block after truncation.
	ContextTruncationNotice() string

	// DuplicateFileReadNotice is the payload used to elide a superseded file
	// read, in both the tool-result and mention shapes.
	DuplicateFileReadNotice() string
}

// DefaultNotices is the built-in, unlocalized NoticeFormatter.
type DefaultNotices struct{}

// ContextTruncationNotice implements NoticeFormatter.
func (DefaultNotices) ContextTruncationNotice() string {
	return "[Context truncated: earlier turns were removed to stay within the model's context window.]"
}

// DuplicateFileReadNotice implements NoticeFormatter.
func (DefaultNotices) DuplicateFileReadNotice() string {
	return "[File content omitted: a more recent read of this file appears later in the conversation.]"
}
