package strategy

import "fmt"

// Prompt template pairs per strategy. The user templates take the query as
// their single substitution.
const (
	standardPrompt = `Please solve the following problem step by step.

Problem: %s

Let's think through this step by step:`

	standardSystem = `You are a reasoning assistant. When solving problems:
1. Break down the problem into clear steps
2. Show your work for each step
3. Number each reasoning step
4. End with a clear final answer

IMPORTANT: If previous conversation context is provided, use it to understand references like "that", "this", "the result", etc. The user may be referring to values or results from earlier questions.

Format your response as:
Step 1: [First reasoning step]
Step 2: [Second reasoning step]
...
Answer: [Your final answer]`

	zeroShotPrompt = `%s

Let's think step by step.`

	zeroShotSystem = `You are a logical reasoning assistant. When presented with any problem, think through it step by step before providing your answer. Always show your reasoning process.

IMPORTANT: If previous conversation context is provided, use it to understand references like "that", "this", "the result", etc. The user may be referring to values or results from earlier questions.`

	selfConsistencyPrompt = `Problem: %s

Please solve this problem using careful reasoning. Show your complete thought process step by step, then provide your final answer.

Think step by step:`

	selfConsistencySystem = `You are an expert problem solver. For each problem:
1. Consider the problem from multiple angles
2. Work through the solution step by step
3. Double-check your reasoning
4. Provide a confident final answer

IMPORTANT: If previous conversation context is provided, use it to understand references like "that", "this", "the result", etc. The user may be referring to values or results from earlier questions.

Always show clear, numbered reasoning steps.`
)

// PromptTemplates returns the (user, system) template pair for a strategy
// name, falling back to the standard pair for unknown names. The user
// template still needs the query substituted with fmt.Sprintf.
func PromptTemplates(name string) (user, system string) {
	switch name {
	case ZeroShotName:
		return zeroShotPrompt, zeroShotSystem
	case SelfConsistencyName:
		return selfConsistencyPrompt, selfConsistencySystem
	default:
		return standardPrompt, standardSystem
	}
}

// buildPrompt formats the user template with the query and, when
// conversation context is present, prepends it verbatim followed by a
// "Current question: " label. Context arrives pre-formatted and is never
// truncated here.
func buildPrompt(template, query, convContext string) string {
	prompt := fmt.Sprintf(template, query)
	if convContext != "" {
		return convContext + "\nCurrent question: " + prompt
	}
	return prompt
}
