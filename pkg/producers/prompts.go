package producers

import "strings"

// Prompts holds the system prompt templates for the three producer
// operations. Prompt text is configuration passed to the producers; the
// zero value gets the defaults below.
type Prompts struct {
	// Plan is the system prompt for plan generation.
	Plan string

	// Code is the system prompt for code generation.
	Code string

	// Repair is the system prompt for code repair.
	Repair string
}

// withDefaults fills empty prompt fields.
func (p Prompts) withDefaults() Prompts {
	if p.Plan == "" {
		p.Plan = defaultPlanPrompt
	}
	if p.Code == "" {
		p.Code = defaultCodePrompt
	}
	if p.Repair == "" {
		p.Repair = defaultRepairPrompt
	}
	return p
}

const defaultPlanPrompt = `You are a senior data scientist creating a data preparation plan.

You will receive a profile of a tabular dataset and a description of the user's modeling goal. Produce a logical, step-by-step plan that transforms the raw data into a form suitable for the goal. Each step must be specific: name the columns involved, the method to use, and the rationale.

Your response MUST be a valid JSON array of objects, each with exactly these keys:
- "id": integer step number starting from 1
- "task": a clear, self-contained description of the action and rationale

Return ONLY the JSON array, with no surrounding text or markdown.`

const defaultCodePrompt = `You are an expert Python developer specializing in pandas DataFrame operations.

Write a Python function named 'transform_data' that performs the requested transformation. Requirements:
1. The function MUST be named 'transform_data', accept one pandas DataFrame argument named 'df', and return the modified DataFrame.
2. Respond with ONLY the Python code: no explanations, no markdown fences, no conversation.
3. Handle missing columns and values gracefully.
4. Do not print or plot anything.`

const defaultRepairPrompt = `You are an expert Python debugger specializing in pandas operations.

You will receive faulty code and the error traceback it produced. Return a corrected version of the code. Requirements:
1. Respond with ONLY the corrected Python code: no explanations, no markdown fences.
2. Keep the 'transform_data' function name and signature.
3. Fix all issues, not just the one raising the immediate error.`

// stripFences removes a surrounding markdown code fence if the model
// ignored the no-markdown instruction.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```python")
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	if idx := strings.LastIndex(s, "```"); idx >= 0 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}
