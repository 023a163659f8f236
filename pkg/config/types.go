package config

import "time"

// RunSpec is the top-level configuration for a pipeline run.
type RunSpec struct {
	// Dataset is the path to the input CSV file.
	Dataset string `yaml:"dataset" validate:"required"`

	// Goal is the user's cleaning objective in natural language.
	Goal string `yaml:"goal" validate:"required"`

	// Model is the LLM model identifier used for plan and code generation.
	Model string `yaml:"model,omitempty"`

	// MaxAttempts is the per-task execution budget, including the first try.
	MaxAttempts int `yaml:"max_attempts,omitempty" validate:"omitempty,min=1,max=10"`

	// Execution configures the Python sandbox.
	Execution ExecutionSpec `yaml:"execution,omitempty"`

	// OutputRoot is the directory under which run workspaces are created.
	OutputRoot string `yaml:"output_root,omitempty"`

	// LedgerDB is the path to the SQLite ledger database. Empty disables
	// persistence; the ledger is still printed and written to the report.
	LedgerDB string `yaml:"ledger_db,omitempty"`

	// Prompts optionally replaces the built-in prompt templates.
	Prompts PromptOverrides `yaml:"prompts,omitempty"`
}

// ExecutionSpec configures the subprocess executor.
type ExecutionSpec struct {
	// Interpreter is the Python binary to invoke (default "python3").
	Interpreter string `yaml:"interpreter,omitempty"`

	// Timeout bounds a single code execution attempt.
	Timeout time.Duration `yaml:"timeout,omitempty"`

	// WorkDir overrides the scratch directory root. Empty uses the
	// system temp directory.
	WorkDir string `yaml:"work_dir,omitempty"`
}

// PromptOverrides replaces built-in prompt templates when set.
type PromptOverrides struct {
	// Plan replaces the planning prompt template.
	Plan string `yaml:"plan,omitempty"`

	// Code replaces the code generation prompt template.
	Code string `yaml:"code,omitempty"`

	// Repair replaces the repair prompt template.
	Repair string `yaml:"repair,omitempty"`
}
