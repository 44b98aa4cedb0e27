// Package tokenizer provides contextmgr.Tokenizer adapters.
package tokenizer

import (
	"github.com/tiktoken-go/tokenizer"

	"contextwindow/pkg/contextmgr"
	"contextwindow/pkg/logx"
)

// TiktokenCounter is a GPT-4-encoding-backed contextmgr.Tokenizer. Claude and
// other non-OpenAI models are approximated with the same encoding: the Budget
// Oracle's buffers already assume estimator error, so exact per-model
// tokenizers are not required for the budget arithmetic to hold.
type TiktokenCounter struct {
	codec tokenizer.Codec
	log   *logx.Logger
}

var _ contextmgr.Tokenizer = (*TiktokenCounter)(nil)

// NewTiktokenCounter builds a TiktokenCounter using the GPT-4 codec. If the
// codec cannot be constructed, the returned counter is still usable: Count
// falls back to character-based estimation for every call.
func NewTiktokenCounter() *TiktokenCounter {
	log := logx.NewLogger("tokenizer")
	codec, err := tokenizer.ForModel(tokenizer.GPT4)
	if err != nil {
		log.Warn("failed to load GPT-4 tiktoken codec, falling back to character estimation: %v", err)
		return &TiktokenCounter{log: log}
	}
	return &TiktokenCounter{codec: codec, log: log}
}

// Count implements contextmgr.Tokenizer.
func (t *TiktokenCounter) Count(text string) int {
	if t.codec == nil {
		return fallbackCount(text)
	}
	n, err := t.codec.Count(text)
	if err != nil {
		t.log.Warn("tiktoken count failed, falling back to character estimation: %v", err)
		return fallbackCount(text)
	}
	return n
}

// fallbackCount approximates 4 characters per token.
func fallbackCount(text string) int {
	return len(text) / 4
}
