package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/autoprep/autoprep/pkg/engine"
	"github.com/autoprep/autoprep/pkg/stores"
)

func newRunsCommand() *cobra.Command {
	var (
		ledgerDB string
		limit    int
	)

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect persisted run history",
		Long: `List past pipeline runs recorded in the SQLite ledger database,
or show the full ledger of a single run.`,
		Example: `  # List recent runs
  autoprep runs --ledger-db ledger.db

  # Show one run's ledger
  autoprep runs show run_20260831_120000_a1b2c3d4 --ledger-db ledger.db`,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(cmd.Context(), ledgerDB)
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.ListRuns(cmd.Context(), limit, 0)
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(runs)
			}
			if len(runs) == 0 {
				fmt.Println("No runs recorded")
				return nil
			}
			for _, run := range runs {
				status := string(run.Status)
				fmt.Printf("%s  %-9s  %s  %q\n", run.ID, status, run.StartedAt.Format("2006-01-02 15:04:05"), run.Goal)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&ledgerDB, "ledger-db", "ledger.db", "SQLite database with run history")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum runs to list")

	showCmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show the ledger of one run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(cmd.Context(), ledgerDB)
			if err != nil {
				return err
			}
			defer store.Close()

			run, err := store.GetRun(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			ledger, err := store.GetLedger(cmd.Context(), run.ID)
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(struct {
					Run    *stores.Run          `json:"run"`
					Ledger []engine.LedgerEntry `json:"ledger"`
				}{run, ledger})
			}

			fmt.Printf("Run %s (%s)\n", run.ID, run.Status)
			fmt.Printf("Dataset: %s\n", run.DatasetPath)
			fmt.Printf("Goal: %s\n\n", run.Goal)
			for _, entry := range ledger {
				fmt.Printf("task %d [%s] attempts=%d: %s\n", entry.TaskID, entry.Status, entry.AttemptsUsed, entry.Description)
				if entry.Error != "" {
					fmt.Printf("  error: %s\n", entry.Error)
				}
			}
			return nil
		},
	}
	cmd.AddCommand(showCmd)

	return cmd
}

func printJSON(v any) error {
	encoded, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(encoded))
	return nil
}
