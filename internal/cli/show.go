package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"tagchain/internal/domain"
	"tagchain/internal/port"
)

var (
	showTagged bool
	showJSON   bool
)

var showCmd = &cobra.Command{
	Use:   "show [run-id]",
	Short: "Show a stored run (default: the latest)",
	Long: `Show the cleaned documents of a stored run, and with --tagged the full
surface/tag/lemma structure of every document.

Examples:
  tagchain show
  tagchain show 01J9Z3Q4X8T3M6K2D1V0C7B5N4 --tagged`,
	Args: cobra.MaximumNArgs(1),
	RunE: runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().BoolVar(&showTagged, "tagged", false, "include tagged tokens")
	showCmd.Flags().BoolVar(&showJSON, "json", false, "output as JSON")
}

func runShow(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	st, err := existingStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	run, err := loadRun(ctx, st, args)
	if err != nil {
		return err
	}

	if showJSON {
		var v any = run.Source
		if showTagged {
			v = run
		}
		output, _ := json.MarshalIndent(v, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	fmt.Printf("Run %s (%s, %s, %s)\n\n", run.ID, run.Processor, run.Language,
		run.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	for i, d := range run.Source.Docs {
		fmt.Printf("--- [%d] %s (%d tokens) ---\n", i+1, d.UID, len(d.Tokens))
		fmt.Println(strings.Join(d.Tokens, " "))
		if showTagged {
			for _, tok := range run.Tagged[i] {
				fmt.Printf("  %-20s %-6s %s\n", tok.Surface, tok.Tag, tok.Lemma)
			}
		}
		fmt.Println()
	}
	return nil
}

func loadRun(ctx context.Context, st port.ResultStore, args []string) (*domain.Run, error) {
	if len(args) > 0 {
		return st.GetRun(ctx, args[0])
	}
	return st.LatestRun(ctx)
}
