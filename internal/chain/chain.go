package chain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ReasoningStep is a single step in a reasoning chain. Steps are numbered
// 1..N in insertion order; the number is assigned by AddStep and never
// reassigned afterwards.
type ReasoningStep struct {
	Number     int       `json:"number"`
	Content    string    `json:"content"`
	Confidence float64   `json:"confidence"`
	Timestamp  time.Time `json:"timestamp"`
}

func (s ReasoningStep) String() string {
	return fmt.Sprintf("Step %d: %s", s.Number, s.Content)
}

// ReasoningChain is a complete chain of reasoning for one query: ordered
// steps, an optional final answer, and provenance. Answer is empty until
// set; Confidence stays 0 until an answer is set.
type ReasoningChain struct {
	Query       string                 `json:"query"`
	Steps       []ReasoningStep        `json:"steps"`
	Answer      string                 `json:"answer"`
	Confidence  float64                `json:"confidence"`
	Provider    string                 `json:"provider"`
	Model       string                 `json:"model"`
	Strategy    string                 `json:"strategy"`
	TotalTokens int                    `json:"total_tokens"`
	CreatedAt   time.Time              `json:"created_at"`
	Metadata    map[string]interface{} `json:"metadata"`
}

// New creates an empty chain with provenance fields set.
func New(query, providerName, model, strategyName string) *ReasoningChain {
	return &ReasoningChain{
		Query:     query,
		Provider:  providerName,
		Model:     model,
		Strategy:  strategyName,
		CreatedAt: time.Now(),
		Metadata:  make(map[string]interface{}),
	}
}

// AddStep appends a step numbered len(Steps)+1 and returns it.
func (c *ReasoningChain) AddStep(content string, confidence float64) ReasoningStep {
	step := ReasoningStep{
		Number:     len(c.Steps) + 1,
		Content:    content,
		Confidence: confidence,
		Timestamp:  time.Now(),
	}
	c.Steps = append(c.Steps, step)
	return step
}

// SetAnswer records the final answer with a confidence score.
func (c *ReasoningChain) SetAnswer(answer string, confidence float64) {
	c.Answer = answer
	c.Confidence = confidence
}

// IsComplete reports whether the chain has a final answer.
func (c *ReasoningChain) IsComplete() bool {
	return c.Answer != ""
}

// StepCount returns the number of reasoning steps.
func (c *ReasoningChain) StepCount() int {
	return len(c.Steps)
}

// ToJSON serializes the chain.
func (c *ReasoningChain) ToJSON() ([]byte, error) {
	return json.MarshalIndent(c, "", "  ")
}

// FromJSON reconstructs a chain serialized with ToJSON.
func FromJSON(data []byte) (*ReasoningChain, error) {
	var c ReasoningChain
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse chain: %w", err)
	}
	if c.Metadata == nil {
		c.Metadata = make(map[string]interface{})
	}
	return &c, nil
}

// FormatSteps renders the steps as readable lines.
func (c *ReasoningChain) FormatSteps() string {
	lines := make([]string, 0, len(c.Steps))
	for _, s := range c.Steps {
		lines = append(lines, s.String())
	}
	return strings.Join(lines, "\n")
}

func (c *ReasoningChain) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Query: %s\n\nReasoning:\n%s", c.Query, c.FormatSteps())
	if c.Answer != "" {
		fmt.Fprintf(&b, "\n\nAnswer: %s (confidence: %.2f)", c.Answer, c.Confidence)
	}
	return b.String()
}
