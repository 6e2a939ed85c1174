package strategy

import (
	"strings"
	"testing"

	"github.com/nidhogg/ponder/internal/chain"
)

func parseInto(t *testing.T, response string) *chain.ReasoningChain {
	t.Helper()
	return ParseResponse(response, chain.New("test query", "mock", "mock-model", "standard"))
}

func TestParseNumberedSteps(t *testing.T) {
	c := parseInto(t, "Step 1: A\nStep 2: B\nAnswer: C")

	if len(c.Steps) != 2 {
		t.Fatalf("got %d steps, want 2", len(c.Steps))
	}
	if c.Steps[0].Content != "A" || c.Steps[1].Content != "B" {
		t.Errorf("got step contents %q, %q; want A, B", c.Steps[0].Content, c.Steps[1].Content)
	}
	if c.Answer != "C" {
		t.Errorf("got answer %q, want C", c.Answer)
	}
	if c.Confidence != 0.9 {
		t.Errorf("got confidence %v, want 0.9", c.Confidence)
	}
}

func TestParseAlternativeNumbering(t *testing.T) {
	c := parseInto(t, "1. First step here\n2) Second step here\n3: Third step here\nFinal Answer: The result is 100")

	if len(c.Steps) != 3 {
		t.Fatalf("got %d steps, want 3", len(c.Steps))
	}
	if c.Answer != "The result is 100" {
		t.Errorf("got answer %q, want %q", c.Answer, "The result is 100")
	}
}

func TestParseStoredNumbersIgnoreSourceNumbers(t *testing.T) {
	// Source jumps from Step 1 to Step 5; stored numbering stays contiguous.
	c := parseInto(t, "Step 1: first\nStep 5: second")

	if len(c.Steps) != 2 {
		t.Fatalf("got %d steps, want 2", len(c.Steps))
	}
	if c.Steps[0].Number != 1 || c.Steps[1].Number != 2 {
		t.Errorf("got step numbers %d, %d; want 1, 2", c.Steps[0].Number, c.Steps[1].Number)
	}
}

func TestParseMultilineStep(t *testing.T) {
	c := parseInto(t, "Step 1: first line\nsecond line\nthird line\nAnswer: done")

	if len(c.Steps) != 1 {
		t.Fatalf("got %d steps, want 1", len(c.Steps))
	}
	want := "first line second line third line"
	if c.Steps[0].Content != want {
		t.Errorf("got %q, want %q", c.Steps[0].Content, want)
	}
}

func TestParseLeadingProse(t *testing.T) {
	c := parseInto(t, "Let me think about this.\nStep 1: actual reasoning\nAnswer: 7")

	if len(c.Steps) != 2 {
		t.Fatalf("got %d steps, want 2", len(c.Steps))
	}
	if c.Steps[0].Content != "Let me think about this." {
		t.Errorf("got %q for implicit first step", c.Steps[0].Content)
	}
}

func TestParseUnstructuredWithoutAnswerMarkers(t *testing.T) {
	c := parseInto(t, "Just some prose\nmore prose")

	if len(c.Steps) != 1 {
		t.Fatalf("got %d steps, want 1", len(c.Steps))
	}
	if c.Steps[0].Content != "Just some prose more prose" {
		t.Errorf("got %q", c.Steps[0].Content)
	}
	if c.Answer != "" {
		t.Errorf("expected no answer, got %q", c.Answer)
	}
}

func TestParseInferredAnswerFromLastStep(t *testing.T) {
	c := parseInto(t, "The total is 10")

	if c.Answer != "The total is 10" {
		t.Errorf("got answer %q, want inferred last step", c.Answer)
	}
	if c.Confidence != 0.7 {
		t.Errorf("got confidence %v, want 0.7", c.Confidence)
	}
}

func TestParseInferredAnswerFromEquation(t *testing.T) {
	c := parseInto(t, "Step 1: compute\nStep 2: 0.15 * 240 = 36")

	if c.Answer != "0.15 * 240 = 36" {
		t.Errorf("got answer %q", c.Answer)
	}
	if c.Confidence != 0.7 {
		t.Errorf("got confidence %v, want 0.7", c.Confidence)
	}
}

func TestParseLastAnswerWins(t *testing.T) {
	c := parseInto(t, "Answer: first\nAnswer: second")

	if c.Answer != "second" {
		t.Errorf("got answer %q, want second", c.Answer)
	}
}

func TestParseEmptyInput(t *testing.T) {
	for _, input := range []string{"", "   ", "\n\n\n"} {
		c := parseInto(t, input)
		if len(c.Steps) != 0 {
			t.Errorf("input %q: got %d steps, want 0", input, len(c.Steps))
		}
		if c.Answer != "" {
			t.Errorf("input %q: got answer %q, want none", input, c.Answer)
		}
	}
}

func TestParseCaseInsensitiveMarkers(t *testing.T) {
	c := parseInto(t, "step 1: lower\nSTEP 2: upper\nanswer: mixed")

	if len(c.Steps) != 2 {
		t.Fatalf("got %d steps, want 2", len(c.Steps))
	}
	if c.Answer != "mixed" {
		t.Errorf("got answer %q, want mixed", c.Answer)
	}
}

func TestParseFinalAloneDoesNotMatch(t *testing.T) {
	// "Final" without "Answer" is ordinary step content.
	c := parseInto(t, "Step 1: work\nFinal: 42")

	if c.Answer == "42" {
		t.Error("bare 'Final:' line must not be treated as an answer")
	}
	if len(c.Steps) != 1 || !strings.Contains(c.Steps[0].Content, "Final: 42") {
		t.Errorf("got steps %+v, want 'Final: 42' folded into step content", c.Steps)
	}
}
