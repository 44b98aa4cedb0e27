// Package contextmgr implements the context window manager: it prepares a raw
// conversation history for submission to a token-limited language model by
// eliding redundant file reads and evicting older turns, recording every
// mutation as a reversible, timestamped edit rather than mutating the raw
// history in place.
package contextmgr

// Role identifies who authored a raw message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// BlockKind identifies the variant of a content block.
type BlockKind string

const (
	BlockText       BlockKind = "text"
	BlockImage      BlockKind = "image"
	BlockToolUse    BlockKind = "tool_use"
	BlockToolResult BlockKind = "tool_result"
)

// Block is a single content unit inside a message. Exactly one group of
// fields is meaningful, selected by Kind:
//
//	BlockText       -> Text
//	BlockImage      -> (none; costed at a fixed estimate)
//	BlockToolUse    -> ToolName, ToolInput
//	BlockToolResult -> ToolResult
type Block struct {
	Kind BlockKind

	Text string

	ToolName  string
	ToolInput any

	ToolResult any // string, or a structured value
}

// TextBlock builds a BlockText content block.
func TextBlock(text string) Block {
	return Block{Kind: BlockText, Text: text}
}

// ImageBlock builds a BlockImage content block.
func ImageBlock() Block {
	return Block{Kind: BlockImage}
}

// ToolUseBlock builds a BlockToolUse content block.
func ToolUseBlock(name string, input any) Block {
	return Block{Kind: BlockToolUse, ToolName: name, ToolInput: input}
}

// ToolResultBlock builds a BlockToolResult content block.
func ToolResultBlock(content any) Block {
	return Block{Kind: BlockToolResult, ToolResult: content}
}

// Message is a single raw conversation turn. Content is normally a sequence
// of Blocks; LegacyContent, when non-nil, marks a message using the older
// bare-string content shape instead — Blocks is ignored in that case. Legacy
// messages are never produced by the Duplicate Elider or the Truncator; the
// shape exists solely so the Token Estimator can cost pre-block-era history.
type Message struct {
	Role          Role
	Blocks        []Block
	LegacyContent *string
}

// NewMessage builds a Message with block content.
func NewMessage(role Role, blocks ...Block) Message {
	return Message{Role: role, Blocks: blocks}
}

// NewTextMessage is a convenience constructor for a single-text-block message.
func NewTextMessage(role Role, text string) Message {
	return Message{Role: role, Blocks: []Block{TextBlock(text)}}
}

// NewLegacyMessage builds a Message whose content is a bare string.
func NewLegacyMessage(role Role, content string) Message {
	return Message{Role: role, LegacyContent: &content}
}

// History is an ordered, zero-indexed sequence of raw messages. It is
// immutable from the CWM's viewpoint: preparation never mutates a History
// value in place, it produces a new one.
type History []Message

// Clone returns a deep copy of h, safe to hand to code that must not observe
// mutations made through the original slice's backing array.
func (h History) Clone() History {
	if h == nil {
		return nil
	}
	out := make(History, len(h))
	for i, m := range h {
		out[i] = m.clone()
	}
	return out
}

func (m Message) clone() Message {
	cp := Message{Role: m.Role}
	if m.LegacyContent != nil {
		text := *m.LegacyContent
		cp.LegacyContent = &text
		return cp
	}
	if m.Blocks != nil {
		cp.Blocks = make([]Block, len(m.Blocks))
		copy(cp.Blocks, m.Blocks)
	}
	return cp
}
