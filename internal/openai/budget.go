package openai

import "encoding/json"

// defaultCharsPerToken is the practical ratio used for token
// estimation. OpenAI ships no official tokenizer for Go; as an
// approximation, one token averages four characters in English or
// Portuguese text. Override per client with WithCharsPerToken.
const defaultCharsPerToken = 4

// estimateTokens estimates the token count of a serialized message
// list: length of the JSON payload divided by the chars-per-token
// ratio. This is a heuristic to bound history growth, not the value
// the remote tokenizer would compute — it is deterministic and
// monotonic in serialized length, nothing more.
func estimateTokens(messages []Message, charsPerToken int) int {
	if charsPerToken <= 0 {
		charsPerToken = defaultCharsPerToken
	}
	b, _ := json.Marshal(messages)
	return len(b) / charsPerToken
}

// enforceTokenLimit evicts oldest pairs until the estimated size of
// the full snapshot (system message included) fits maxTokens, or only
// one history entry remains. The system message is never evicted.
// Each eviction strictly shrinks the payload, so the loop terminates
// in at most len(history)/2 steps; with exactly one pair left the
// request goes out over budget rather than with no context at all.
func (s *session) enforceTokenLimit(maxTokens, charsPerToken int) {
	for len(s.history) > 1 && estimateTokens(s.snapshot(), charsPerToken) > maxTokens {
		if !s.evictOldestPair() {
			return
		}
	}
}
