package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/autoprep/autoprep/pkg/dataset"
)

func newProfileCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile <dataset.csv>",
		Short: "Profile a CSV dataset",
		Long: `Compute and print the statistical profile of a CSV dataset.

The profile is the same digest the pipeline sends to the LLM for
planning: shape, per-column missing and distinct counts, numeric
summaries, and a small sample of head rows.`,
		Example: `  # Print the profile as JSON
  autoprep profile sales.csv`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			frame, err := dataset.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read dataset: %w", err)
			}

			profile := dataset.NewProfile(frame)
			encoded, err := profile.JSON()
			if err != nil {
				return fmt.Errorf("failed to encode profile: %w", err)
			}
			fmt.Println(encoded)
			return nil
		},
	}
	return cmd
}
