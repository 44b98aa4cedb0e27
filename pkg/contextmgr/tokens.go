package contextmgr

import "encoding/json"

// Tokenizer is the narrow, pure interface the Token Estimator depends on. A
// real deployment plugs in pkg/tokenizer's tiktoken-backed adapter; tests can
// plug in a trivial length-based stub.
type Tokenizer interface {
	Count(text string) int
}

// TokenizerFunc adapts a plain function to the Tokenizer interface.
type TokenizerFunc func(text string) int

// Count implements Tokenizer.
func (f TokenizerFunc) Count(text string) int { return f(text) }

const (
	// imageTokenCost is the fixed per-image token estimate. It is a tunable
	// constant, not a computed value, per the open question in the source
	// material: a real deployment may want to fork it without touching the
	// estimator's control flow.
	imageTokenCost = 1500

	toolUseOverhead    = 20
	toolResultOverhead = 20
)

// EstimateTokens sums the token cost of every block in h under tok. It is
// pure and total: it never fails, falling back to an empty string for
// content it cannot serialize.
func EstimateTokens(h History, tok Tokenizer) int {
	total := 0
	for _, m := range h {
		if m.LegacyContent != nil {
			total += tok.Count(*m.LegacyContent)
			continue
		}
		for _, b := range m.Blocks {
			total += estimateBlockTokens(b, tok)
		}
	}
	return total
}

func estimateBlockTokens(b Block, tok Tokenizer) int {
	switch b.Kind {
	case BlockText:
		return tok.Count(b.Text)
	case BlockImage:
		return imageTokenCost
	case BlockToolUse:
		return tok.Count(serializeForTokens(b.ToolInput)) + tok.Count(b.ToolName) + toolUseOverhead
	case BlockToolResult:
		return tok.Count(toolResultAsText(b.ToolResult)) + toolResultOverhead
	default:
		return 0
	}
}

func toolResultAsText(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return serializeForTokens(v)
}

func serializeForTokens(v any) string {
	if v == nil {
		return ""
	}
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(data)
}
