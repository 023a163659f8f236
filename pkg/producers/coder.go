package producers

import (
	"context"
	"fmt"

	"github.com/autoprep/autoprep/pkg/telemetry"
)

// Coder produces candidate transformation code for task descriptions and
// repairs candidates that failed during execution.
type Coder struct {
	client  LLMClient
	prompts Prompts
	log     *telemetry.Logger
}

// NewCoder creates a code producer.
func NewCoder(client LLMClient, prompts Prompts, log *telemetry.Logger) *Coder {
	if log == nil {
		log = telemetry.Nop()
	}
	return &Coder{
		client:  client,
		prompts: prompts.withDefaults(),
		log:     log.NewComponentLogger("coder"),
	}
}

// ProduceCode implements half of engine.CodeProducer: task description
// to candidate code.
func (c *Coder) ProduceCode(ctx context.Context, task string) (string, error) {
	out, err := c.client.Generate(ctx, c.prompts.Code, task, Params{
		Temperature: float32Ptr(0.2),
		MaxTokens:   intPtr(1000),
	})
	if err != nil {
		return "", fmt.Errorf("code generation call failed: %w", err)
	}
	code := stripFences(out)
	if code == "" {
		return "", fmt.Errorf("code generation returned empty code")
	}
	c.log.Debugf("generated %d bytes of code", len(code))
	return code, nil
}

// RepairCode implements the other half: faulty code plus error text to a
// repaired candidate.
func (c *Coder) RepairCode(ctx context.Context, code, errorText string) (string, error) {
	user := fmt.Sprintf("Faulty code:\n\n%s\n\nError traceback:\n\n%s", code, errorText)
	out, err := c.client.Generate(ctx, c.prompts.Repair, user, Params{
		Temperature: float32Ptr(0.2),
		MaxTokens:   intPtr(1000),
	})
	if err != nil {
		return "", fmt.Errorf("code repair call failed: %w", err)
	}
	repaired := stripFences(out)
	if repaired == "" {
		return "", fmt.Errorf("code repair returned empty code")
	}
	c.log.Debugf("repaired code is %d bytes", len(repaired))
	return repaired, nil
}
