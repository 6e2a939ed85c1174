package chain

import (
	"fmt"
	"strings"
	"testing"
)

func TestMemoryEviction(t *testing.T) {
	m := NewConversationMemory(10)
	for i := 1; i <= 11; i++ {
		m.AddTurn(fmt.Sprintf("q%d", i), fmt.Sprintf("a%d", i))
	}

	if m.TurnCount() != 10 {
		t.Fatalf("got %d turns, want 10", m.TurnCount())
	}
	history := m.History()
	if history[0].Query != "q2" {
		t.Errorf("oldest turn should be evicted; got %q first", history[0].Query)
	}
	if history[9].Query != "q11" {
		t.Errorf("newest turn missing; got %q last", history[9].Query)
	}
}

func TestMemoryDefaultCapacity(t *testing.T) {
	m := NewConversationMemory(0)
	for i := 0; i < DefaultMemoryTurns+5; i++ {
		m.AddTurn("q", "a")
	}
	if m.TurnCount() != DefaultMemoryTurns {
		t.Errorf("got %d turns, want %d", m.TurnCount(), DefaultMemoryTurns)
	}
}

func TestMemoryContext(t *testing.T) {
	m := NewConversationMemory(10)
	if m.Context() != "" {
		t.Error("empty memory must produce empty context")
	}

	m.AddTurn("What is 15% of 240?", "36")
	m.AddTurn("Double that", "72")
	ctx := m.Context()

	for _, want := range []string{
		"=== CONVERSATION HISTORY (use this for context) ===",
		"User Question 1: What is 15% of 240?",
		"Your Answer 1: 36",
		"User Question 2: Double that",
		"Your Answer 2: 72",
		"=== END OF HISTORY ===",
	} {
		if !strings.Contains(ctx, want) {
			t.Errorf("context missing %q:\n%s", want, ctx)
		}
	}
}

func TestMemoryClear(t *testing.T) {
	m := NewConversationMemory(10)
	m.AddTurn("q", "a")
	if m.IsEmpty() {
		t.Fatal("memory should hold the added turn")
	}
	m.Clear()
	if !m.IsEmpty() || m.Context() != "" {
		t.Error("cleared memory must be empty")
	}
}

func TestMemoryHistoryIsCopy(t *testing.T) {
	m := NewConversationMemory(10)
	m.AddTurn("q", "a")

	history := m.History()
	history[0].Query = "mutated"

	if m.History()[0].Query != "q" {
		t.Error("History must return a copy")
	}
}
