package contextmgr

import "testing"

func charTokenizer() Tokenizer {
	return TokenizerFunc(func(text string) int { return len(text) })
}

func TestEstimateTokensTextBlocks(t *testing.T) {
	h := History{
		NewTextMessage(RoleUser, "hello"),
		NewTextMessage(RoleAssistant, "world!"),
	}
	got := EstimateTokens(h, charTokenizer())
	want := len("hello") + len("world!")
	if got != want {
		t.Errorf("got %d, want %d", got, want)
	}
}

func TestEstimateTokensImageBlockIsFixedCost(t *testing.T) {
	h := History{NewMessage(RoleUser, ImageBlock())}
	got := EstimateTokens(h, charTokenizer())
	if got != imageTokenCost {
		t.Errorf("got %d, want fixed image cost %d", got, imageTokenCost)
	}
}

func TestEstimateTokensLegacyContent(t *testing.T) {
	h := History{NewLegacyMessage(RoleUser, "legacy text")}
	got := EstimateTokens(h, charTokenizer())
	if got != len("legacy text") {
		t.Errorf("got %d, want %d", got, len("legacy text"))
	}
}

func TestEstimateTokensToolUseAndResultOverhead(t *testing.T) {
	h := History{
		NewMessage(RoleAssistant, ToolUseBlock("read_file", map[string]string{"path": "a.go"})),
		NewMessage(RoleUser, ToolResultBlock("file contents")),
	}
	got := EstimateTokens(h, charTokenizer())
	if got <= toolUseOverhead+toolResultOverhead {
		t.Errorf("expected tool blocks to cost more than their fixed overhead alone, got %d", got)
	}
}

func TestEstimateTokensIsTotalOnUnserializableToolInput(t *testing.T) {
	h := History{
		NewMessage(RoleAssistant, ToolUseBlock("x", make(chan int))), // not JSON-marshalable
	}
	got := EstimateTokens(h, charTokenizer())
	if got != toolUseOverhead+len("x") {
		t.Errorf("expected estimator to degrade gracefully instead of panicking, got %d", got)
	}
}
