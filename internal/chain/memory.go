package chain

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// DefaultMemoryTurns is the default conversation memory capacity.
const DefaultMemoryTurns = 10

// ConversationTurn is one completed query/answer exchange.
type ConversationTurn struct {
	Query     string    `json:"query"`
	Answer    string    `json:"answer"`
	Timestamp time.Time `json:"timestamp"`
}

// ConversationMemory keeps a bounded FIFO of conversation turns so follow-up
// queries can reference earlier answers. Oldest turns are evicted once the
// capacity is exceeded.
type ConversationMemory struct {
	maxTurns int
	mu       sync.Mutex
	turns    []ConversationTurn
}

// NewConversationMemory creates a memory holding at most maxTurns turns.
// Non-positive capacities fall back to DefaultMemoryTurns.
func NewConversationMemory(maxTurns int) *ConversationMemory {
	if maxTurns <= 0 {
		maxTurns = DefaultMemoryTurns
	}
	return &ConversationMemory{maxTurns: maxTurns}
}

// AddTurn appends a completed turn, evicting the oldest if over capacity.
func (m *ConversationMemory) AddTurn(query, answer string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.turns = append(m.turns, ConversationTurn{
		Query:     query,
		Answer:    answer,
		Timestamp: time.Now(),
	})
	if len(m.turns) > m.maxTurns {
		m.turns = m.turns[len(m.turns)-m.maxTurns:]
	}
}

// Context formats the history for inclusion in a prompt. Returns "" when
// the memory is empty.
func (m *ConversationMemory) Context() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.turns) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("=== CONVERSATION HISTORY (use this for context) ===\n")
	for i, turn := range m.turns {
		fmt.Fprintf(&b, "User Question %d: %s\n", i+1, turn.Query)
		fmt.Fprintf(&b, "Your Answer %d: %s\n\n", i+1, turn.Answer)
	}
	b.WriteString("=== END OF HISTORY ===\n\n")
	b.WriteString("Use the above history to understand references like 'that', 'it', 'the result', etc.\n")
	return b.String()
}

// History returns a copy of the stored turns, oldest first.
func (m *ConversationMemory) History() []ConversationTurn {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]ConversationTurn, len(m.turns))
	copy(out, m.turns)
	return out
}

// Clear removes all turns.
func (m *ConversationMemory) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.turns = nil
}

// TurnCount returns the number of stored turns.
func (m *ConversationMemory) TurnCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.turns)
}

// IsEmpty reports whether the memory has no turns.
func (m *ConversationMemory) IsEmpty() bool {
	return m.TurnCount() == 0
}
