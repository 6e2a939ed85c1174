package strategy

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/nidhogg/ponder/internal/chain"
)

// Line patterns for structured responses. The answer pattern is tested
// first; a line matching both is treated as an answer line.
var (
	stepPattern   = regexp.MustCompile(`(?i)^(?:Step\s*)?(\d+)[.:)]\s*(.*)$`)
	answerPattern = regexp.MustCompile(`(?i)^(?:Final\s+)?Answer[:\s]+(.*)$`)
)

// Confidence assigned to answers depending on how they were found.
const (
	explicitAnswerConfidence = 0.9
	inferredAnswerConfidence = 0.7
)

// ParseResponse extracts reasoning steps and a final answer from raw LLM
// output, appending to the given chain. It is best-effort and total:
// malformed input degrades to partial or empty chains, never an error.
//
// Recognized line forms:
//   - "Answer: ..." or "Final Answer: ..." sets the chain's answer; a later
//     answer line overwrites an earlier one.
//   - "Step N: ...", "N. ...", "N) ..." opens a new step. The number parsed
//     from the text is ignored for storage; steps are always numbered by
//     insertion order.
//   - Any other line continues the open step, or seeds an implicit first
//     step when nothing has been recognized yet.
func ParseResponse(response string, c *chain.ReasoningChain) *chain.ReasoningChain {
	var pending []string
	currentStepNum := 0

	flush := func() {
		if len(pending) > 0 {
			c.AddStep(strings.Join(pending, " "), 1.0)
			pending = nil
		}
	}

	for _, line := range strings.Split(strings.TrimSpace(response), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if m := answerPattern.FindStringSubmatch(line); m != nil {
			flush()
			c.SetAnswer(strings.TrimSpace(m[1]), explicitAnswerConfidence)
		} else if m := stepPattern.FindStringSubmatch(line); m != nil {
			flush()
			currentStepNum, _ = strconv.Atoi(m[1])
			if text := strings.TrimSpace(m[2]); text != "" {
				pending = []string{text}
			}
		} else if currentStepNum > 0 {
			pending = append(pending, line)
		} else if len(c.Steps) == 0 && c.Answer == "" {
			// Leading prose before any marker becomes implicit step 1.
			pending = append(pending, line)
		}
	}
	flush()

	// Heuristic fallback: no explicit answer, but the last step looks like a
	// conclusion. A guess, not a guarantee.
	if c.Answer == "" && len(c.Steps) > 0 {
		last := c.Steps[len(c.Steps)-1].Content
		if strings.Contains(last, "=") || strings.Contains(strings.ToLower(last), "is") {
			c.SetAnswer(last, inferredAnswerConfidence)
		}
	}

	return c
}
