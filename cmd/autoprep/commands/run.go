package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/autoprep/autoprep/pkg/config"
	"github.com/autoprep/autoprep/pkg/engine"
	"github.com/autoprep/autoprep/pkg/executor"
	"github.com/autoprep/autoprep/pkg/producers"
	"github.com/autoprep/autoprep/pkg/state"
	"github.com/autoprep/autoprep/pkg/stores"
	"github.com/autoprep/autoprep/pkg/telemetry"
)

func newRunCommand() *cobra.Command {
	var (
		goal        string
		model       string
		maxAttempts int
		outputRoot  string
		ledgerDB    string
		interpreter string
	)

	cmd := &cobra.Command{
		Use:   "run [dataset.csv]",
		Short: "Run the data preparation pipeline",
		Long: `Execute the full preparation pipeline against a CSV dataset.

The pipeline profiles the dataset, generates a preparation plan for the
stated goal, then executes each plan step as generated pandas code in an
isolated Python subprocess. Steps that fail are repaired and retried up
to the attempt budget. The run directory receives the final dataset,
a run report, and the full ledger.

The dataset and goal come either from positional/flag arguments or from
a YAML run spec (--spec); flags override spec values.`,
		Example: `  # Run against a dataset with an inline goal
  autoprep run sales.csv --goal "predict monthly revenue"

  # Run from a spec file
  autoprep run --spec prep.yaml

  # Tighter retry budget and persistent ledger
  autoprep run sales.csv --goal "churn model" --max-attempts 2 --ledger-db ledger.db`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := resolveSpec(args, goal, model, maxAttempts, outputRoot, ledgerDB, interpreter)
			if err != nil {
				return err
			}
			return runPipeline(cmd.Context(), spec)
		},
	}

	cmd.Flags().StringVarP(&goal, "goal", "g", "", "cleaning goal in natural language")
	cmd.Flags().StringVarP(&model, "model", "m", "", "LLM model identifier")
	cmd.Flags().IntVar(&maxAttempts, "max-attempts", 0, "execution attempts per task, including the first")
	cmd.Flags().StringVarP(&outputRoot, "output", "o", "", "root directory for run workspaces")
	cmd.Flags().StringVar(&ledgerDB, "ledger-db", "", "SQLite database for persistent run history")
	cmd.Flags().StringVar(&interpreter, "interpreter", "", "Python interpreter for code execution")

	return cmd
}

// resolveSpec merges the spec file (if any) with command-line overrides.
func resolveSpec(args []string, goal, model string, maxAttempts int, outputRoot, ledgerDB, interpreter string) (*config.RunSpec, error) {
	spec := &config.RunSpec{}
	if specPath != "" {
		loaded, err := config.LoadFile(specPath)
		if err != nil {
			return nil, err
		}
		spec = loaded
	}

	if len(args) > 0 {
		spec.Dataset = args[0]
	}
	if goal != "" {
		spec.Goal = goal
	}
	if model != "" {
		spec.Model = model
	}
	if maxAttempts > 0 {
		spec.MaxAttempts = maxAttempts
	}
	if outputRoot != "" {
		spec.OutputRoot = outputRoot
	}
	if ledgerDB != "" {
		spec.LedgerDB = ledgerDB
	}
	if interpreter != "" {
		spec.Execution.Interpreter = interpreter
	}

	spec.ApplyDefaults()
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return spec, nil
}

func runPipeline(ctx context.Context, spec *config.RunSpec) error {
	logger := newCLILogger()

	runCtx, err := state.NewRunContext(spec.OutputRoot)
	if err != nil {
		return fmt.Errorf("failed to create run workspace: %w", err)
	}
	logger.WithRunID(runCtx.RunID).Infof("run workspace at %s", runCtx.Dir)

	var store stores.Store
	if spec.LedgerDB != "" {
		store, err = openStore(ctx, spec.LedgerDB)
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.CreateRun(ctx, &stores.Run{
			ID:          runCtx.RunID,
			DatasetPath: spec.Dataset,
			Goal:        spec.Goal,
		}); err != nil {
			return err
		}
	}

	exec, err := executor.NewPythonExecutor(executor.Config{
		Interpreter: spec.Execution.Interpreter,
		Timeout:     spec.Execution.Timeout,
		WorkDir:     spec.Execution.WorkDir,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to create executor: %w", err)
	}

	client, err := producers.NewOpenAIClient(spec.Model, logger)
	if err != nil {
		return err
	}
	prompts := producers.Prompts{
		Plan:   spec.Prompts.Plan,
		Code:   spec.Prompts.Code,
		Repair: spec.Prompts.Repair,
	}

	holder := state.NewHolder(logger)
	metrics := telemetry.NewRunMetrics()

	var recorder engine.Recorder
	if store != nil {
		recorder = store
	}

	orch := engine.NewOrchestrator(
		holder,
		exec,
		producers.NewPlanner(client, prompts, logger),
		producers.NewCoder(client, prompts, logger),
		engine.Options{
			RunID:       runCtx.RunID,
			MaxAttempts: spec.MaxAttempts,
			Logger:      logger,
			Recorder:    recorder,
			Metrics:     metrics,
		},
	)

	ledger, runErr := orch.RunPipeline(ctx, spec.Dataset, spec.Goal)
	if runErr != nil {
		finishRun(ctx, store, runCtx.RunID, stores.RunStatusFailed, runErr)
		return fmt.Errorf("pipeline failed: %w", runErr)
	}

	if err := writeRunArtifacts(runCtx, holder, ledger, metrics, logger); err != nil {
		logger.WithError(err).Warn("failed to write run artifacts")
	}
	finishRun(ctx, store, runCtx.RunID, stores.RunStatusCompleted, nil)

	return printResult(runCtx, holder, ledger)
}

func newCLILogger() *telemetry.Logger {
	level := "info"
	if verbose {
		level = "debug"
	}
	format := "console"
	if jsonOutput {
		format = "json"
	}
	return telemetry.NewLogger(telemetry.LoggingConfig{Level: level, Format: format})
}

func openStore(ctx context.Context, path string) (stores.Store, error) {
	store, err := stores.NewSQLiteStore(path)
	if err != nil {
		return nil, err
	}
	if err := store.Init(ctx); err != nil {
		return nil, err
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}
	return store, nil
}

func finishRun(ctx context.Context, store stores.Store, runID string, status stores.RunStatus, runErr error) {
	if store == nil {
		return
	}
	var errText *string
	if runErr != nil {
		msg := runErr.Error()
		errText = &msg
	}
	if err := store.FinishRun(ctx, runID, status, errText); err != nil {
		// The run itself already finished; a bookkeeping failure is
		// not worth failing the command over.
		fmt.Fprintf(os.Stderr, "warning: failed to record run completion: %v\n", err)
	}
}

// writeRunArtifacts saves the final dataset snapshot, the ledger, and a
// human-readable report into the run workspace.
func writeRunArtifacts(runCtx *state.RunContext, holder *state.Holder, ledger []engine.LedgerEntry, metrics *telemetry.RunMetrics, logger *telemetry.Logger) error {
	if frame, ok := holder.Snapshot(); ok {
		if _, err := runCtx.SaveSnapshot("final_dataset.csv", frame); err != nil {
			return err
		}
	}

	ledgerJSON, err := json.MarshalIndent(ledger, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal ledger: %w", err)
	}
	if _, err := runCtx.SaveReport("ledger.json", string(ledgerJSON)); err != nil {
		return err
	}

	report := buildReport(runCtx.RunID, ledger)
	if metricsText, err := metrics.Report(); err == nil {
		report += "\n## Metrics\n\n" + metricsText
	} else {
		logger.WithError(err).Warn("failed to gather run metrics")
	}
	_, err = runCtx.SaveReport("run_report.md", report)
	return err
}

func buildReport(runID string, ledger []engine.LedgerEntry) string {
	summary := engine.Summarize(ledger)

	var b strings.Builder
	fmt.Fprintf(&b, "# Run Report: %s\n\n", runID)
	fmt.Fprintf(&b, "Tasks: %d total, %d succeeded, %d failed\n\n", summary.Total, summary.Succeeded, summary.Failed)
	b.WriteString("## Ledger\n\n")
	for _, entry := range ledger {
		fmt.Fprintf(&b, "### Task %d: %s\n\n", entry.TaskID, entry.Description)
		fmt.Fprintf(&b, "- Status: %s\n", entry.Status)
		fmt.Fprintf(&b, "- Attempts: %d\n", entry.AttemptsUsed)
		if entry.Stage != "" {
			fmt.Fprintf(&b, "- Failed stage: %s\n", entry.Stage)
		}
		if entry.Error != "" {
			fmt.Fprintf(&b, "- Error: %s\n", entry.Error)
		}
		if entry.Code != "" {
			fmt.Fprintf(&b, "\n```python\n%s\n```\n", entry.Code)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func printResult(runCtx *state.RunContext, holder *state.Holder, ledger []engine.LedgerEntry) error {
	summary := engine.Summarize(ledger)

	if jsonOutput {
		out := struct {
			RunID   string               `json:"run_id"`
			Dir     string               `json:"dir"`
			Summary engine.RunSummary    `json:"summary"`
			Ledger  []engine.LedgerEntry `json:"ledger"`
		}{runCtx.RunID, runCtx.Dir, summary, ledger}
		encoded, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(encoded))
		return nil
	}

	fmt.Printf("Run %s finished: %d/%d tasks succeeded\n", runCtx.RunID, summary.Succeeded, summary.Total)
	if frame, ok := holder.Snapshot(); ok {
		fmt.Printf("Final dataset shape: %s\n", frame.Shape())
		head := frame.Head(5)
		fmt.Println(strings.Join(head.Columns, ","))
		for _, row := range head.Rows {
			fmt.Println(strings.Join(row, ","))
		}
	}
	fmt.Printf("Artifacts in %s\n", runCtx.Dir)
	for _, entry := range ledger {
		marker := "ok"
		if entry.Status == engine.TaskStatusFailed {
			marker = "FAILED"
		}
		fmt.Printf("  [%s] task %d: %s (attempts: %d)\n", marker, entry.TaskID, entry.Description, entry.AttemptsUsed)
	}
	return nil
}
