package openai

// session owns the conversation history of one Client: an optional
// system directive plus an ordered sequence of user/assistant messages.
//
// Invariant: outside an in-flight exchange the history holds only
// complete user→assistant pairs (even length, alternating, starting
// with user). While a request is pending there may be exactly one
// trailing unpaired user entry — the speculative append — which must
// resolve to a commit or a rollback before the owning Client releases
// its lock. The session itself is not safe for concurrent use; the
// Client's mutex serializes all access.
type session struct {
	system  *Message
	history []Message
}

// speculativeMark identifies a pending speculative user entry so a
// rollback can verify it is still the unpaired tail. Evictions shift
// indexes, so the mark carries the message itself rather than a
// position.
type speculativeMark struct {
	msg Message
}

// setSystem replaces the system directive. The previous value is
// discarded entirely; history is untouched.
func (s *session) setSystem(content string) {
	s.system = &Message{Role: RoleSystem, Content: content}
}

// appendSpeculativeUser appends a user message ahead of the API call
// and returns a mark for rolling it back if the call fails.
func (s *session) appendSpeculativeUser(content string) speculativeMark {
	msg := Message{Role: RoleUser, Content: content}
	s.history = append(s.history, msg)
	return speculativeMark{msg: msg}
}

// commitAssistant completes the pending pair with the assistant reply.
func (s *session) commitAssistant(content string) {
	s.history = append(s.history, Message{Role: RoleAssistant, Content: content})
}

// rollback removes the speculative user entry if it is still present
// and still unpaired. No-op once the pair was committed, leaving the
// history exactly as it was before the append.
func (s *session) rollback(mark speculativeMark) {
	n := len(s.history)
	if n == 0 || n%2 == 0 {
		return // already committed (or nothing pending)
	}
	if s.history[n-1] != mark.msg {
		return
	}
	s.history = s.history[:n-1]
}

// snapshot returns the system message (if set) followed by the history,
// in insertion order. The returned slice is a copy: callers may hold or
// mutate it without affecting the session.
func (s *session) snapshot() []Message {
	out := make([]Message, 0, len(s.history)+1)
	if s.system != nil {
		out = append(out, *s.system)
	}
	return append(out, s.history...)
}

// evictOldestPair drops the oldest user/assistant pair. It refuses to
// evict when fewer than two entries remain so that at least one pair —
// or the single in-flight speculative message — always survives.
// Reports whether an eviction happened.
func (s *session) evictOldestPair() bool {
	if len(s.history) < 2 {
		return false
	}
	n := copy(s.history, s.history[2:])
	s.history = s.history[:n]
	return true
}
