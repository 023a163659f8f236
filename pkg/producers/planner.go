package producers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/autoprep/autoprep/pkg/dataset"
	"github.com/autoprep/autoprep/pkg/engine"
	"github.com/autoprep/autoprep/pkg/telemetry"
)

// Planner produces an ordered task list from a dataset profile and a
// goal description.
type Planner struct {
	client   LLMClient
	prompts  Prompts
	validate *validator.Validate
	log      *telemetry.Logger
}

// NewPlanner creates a plan producer.
func NewPlanner(client LLMClient, prompts Prompts, log *telemetry.Logger) *Planner {
	if log == nil {
		log = telemetry.Nop()
	}
	return &Planner{
		client:   client,
		prompts:  prompts.withDefaults(),
		validate: validator.New(),
		log:      log.NewComponentLogger("planner"),
	}
}

// ProducePlan implements engine.PlanProducer. Transport failures return
// an error; a response that cannot be parsed into a valid plan degrades
// to a single-task fallback plan signaling the parse failure, never a
// silently dropped response.
func (p *Planner) ProducePlan(ctx context.Context, profile dataset.Profile, goal string) (engine.Plan, error) {
	profileJSON, err := profile.JSON()
	if err != nil {
		return engine.Plan{}, fmt.Errorf("failed to render profile: %w", err)
	}

	user := fmt.Sprintf("Data Profile:\n%s\n\nUser Context:\n%s", profileJSON, goal)
	out, err := p.client.Generate(ctx, p.prompts.Plan, user, Params{
		Temperature: float32Ptr(0.2),
		MaxTokens:   intPtr(2000),
	})
	if err != nil {
		return engine.Plan{}, fmt.Errorf("plan generation call failed: %w", err)
	}

	plan, err := p.parsePlan(out)
	if err != nil {
		p.log.WithError(err).Warn("plan response unparseable, issuing fallback plan")
		return engine.Plan{
			Tasks: []engine.Task{{
				ID:          1,
				Description: fmt.Sprintf("Plan response could not be parsed (%v). Review the data profile and restate the goal.", err),
			}},
			Fallback: true,
		}, nil
	}
	p.log.Infof("produced plan with %d tasks", len(plan.Tasks))
	return plan, nil
}

// parsePlan decodes and validates the model's JSON plan: every task must
// have a unique positive id and a non-empty description.
func (p *Planner) parsePlan(out string) (engine.Plan, error) {
	var tasks []engine.Task
	if err := json.Unmarshal([]byte(stripFences(out)), &tasks); err != nil {
		return engine.Plan{}, fmt.Errorf("invalid plan JSON: %w", err)
	}
	if len(tasks) == 0 {
		return engine.Plan{}, fmt.Errorf("plan is empty")
	}

	seen := make(map[int]struct{}, len(tasks))
	for i, task := range tasks {
		if err := p.validate.Struct(task); err != nil {
			return engine.Plan{}, fmt.Errorf("invalid task at position %d: %w", i, err)
		}
		if _, dup := seen[task.ID]; dup {
			return engine.Plan{}, fmt.Errorf("duplicate task id %d", task.ID)
		}
		seen[task.ID] = struct{}{}
	}
	return engine.Plan{Tasks: tasks}, nil
}
