// Package budget provides token budget estimation and context trimming for
// question answering. Because answers can come from several LLM backends with
// different tokenizers, this package uses a character-based heuristic:
// 1 token ≈ 4 characters (English prose and code).
package budget

import (
	"github.com/cloudwego/eino/schema"
)

const (
	// charsPerToken is the character-to-token ratio used for estimation.
	charsPerToken = 4

	// DefaultMaxContextTokens is the default input context budget in tokens.
	// Conservative enough to fit within 8k-context models (Llama 3 8B, GPT-3.5)
	// while leaving room for the output. Override via answer.max_context_tokens.
	DefaultMaxContextTokens = 6000
)

// Estimate returns a rough token count for s using the character heuristic.
func Estimate(s string) int {
	n := len(s) / charsPerToken
	if n == 0 && len(s) > 0 {
		return 1
	}
	return n
}

// EstimateMessages returns the estimated total token count for a slice of
// schema.Message values, summing role + content for each message.
func EstimateMessages(msgs []*schema.Message) int {
	total := 0
	for _, m := range msgs {
		// Each message has a small per-message overhead (~4 tokens in most APIs).
		total += 4
		total += Estimate(string(m.Role))
		total += Estimate(m.Content)
	}
	return total
}

// passageOverhead is the separator cost charged per retrieved passage.
const passageOverhead = 1

// FitContext drops retrieved passages from the end (least relevant first)
// until the estimated token count of fixed plus the remaining passages fits
// within maxTokens. fixed holds the messages that must not be trimmed: the
// prompt template and the question. Passages keep their order.
//
// If even zero passages exceed the budget an empty slice is returned; callers
// should warn separately since fixed messages are never dropped here.
func FitContext(fixed []*schema.Message, passages []string, maxTokens int) []string {
	remaining := maxTokens - EstimateMessages(fixed)
	for i, p := range passages {
		remaining -= Estimate(p) + passageOverhead
		if remaining < 0 {
			return passages[:i]
		}
	}
	return passages
}
