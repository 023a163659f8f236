package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultModel is used when the spec does not name one.
	DefaultModel = "gpt-4o-mini"

	// DefaultMaxAttempts is the per-task execution budget.
	DefaultMaxAttempts = 3

	// DefaultTimeout bounds a single execution attempt.
	DefaultTimeout = 2 * time.Minute

	// DefaultOutputRoot is where run workspaces are created.
	DefaultOutputRoot = "runs"

	// DefaultInterpreter is the Python binary used by the executor.
	DefaultInterpreter = "python3"
)

// Load parses a run spec from YAML content, applies defaults, and
// validates it.
func Load(content []byte) (*RunSpec, error) {
	spec := &RunSpec{}
	if err := yaml.Unmarshal(content, spec); err != nil {
		return nil, fmt.Errorf("failed to parse run spec: %w", err)
	}
	spec.ApplyDefaults()
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return spec, nil
}

// LoadFile reads and parses a run spec from a YAML file.
func LoadFile(path string) (*RunSpec, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read run spec %s: %w", path, err)
	}
	spec, err := Load(content)
	if err != nil {
		return nil, fmt.Errorf("invalid run spec %s: %w", path, err)
	}
	return spec, nil
}

// ApplyDefaults fills in zero-valued fields.
func (s *RunSpec) ApplyDefaults() {
	if s.Model == "" {
		s.Model = DefaultModel
	}
	if s.MaxAttempts == 0 {
		s.MaxAttempts = DefaultMaxAttempts
	}
	if s.Execution.Interpreter == "" {
		s.Execution.Interpreter = DefaultInterpreter
	}
	if s.Execution.Timeout == 0 {
		s.Execution.Timeout = DefaultTimeout
	}
	if s.OutputRoot == "" {
		s.OutputRoot = DefaultOutputRoot
	}
}

// Validate checks the spec against its struct tags.
func (s *RunSpec) Validate() error {
	if err := validator.New().Struct(s); err != nil {
		return fmt.Errorf("run spec validation failed: %w", err)
	}
	return nil
}
