package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"tagchain/config"
)

var runsJSON bool

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List stored runs",
	Long: `List the runs stored in the result store, oldest first. Runs produced with
settings that differ from the current configuration are marked stale.`,
	Args: cobra.NoArgs,
	RunE: runRuns,
}

func init() {
	rootCmd.AddCommand(runsCmd)
	runsCmd.Flags().BoolVar(&runsJSON, "json", false, "output as JSON")
}

func runRuns(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	st, err := existingStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	runs, err := st.ListRuns(ctx)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	if runsJSON {
		output, _ := json.MarshalIndent(runs, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	if len(runs) == 0 {
		fmt.Println("No runs stored.")
		return nil
	}

	current := config.ComputeConfigHash(GetConfig())
	for _, r := range runs {
		stale := ""
		if r.ConfigHash != current {
			stale = "  (stale)"
		}
		fmt.Printf("%s  %s  %-20s %-4s %5d docs %7d tokens%s\n",
			r.ID, r.CreatedAt.Local().Format("2006-01-02 15:04:05"), r.Processor, r.Language,
			r.DocCount, r.TokenCount, stale)
	}
	return nil
}
