package cli

import (
	"bufio"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"tagchain/internal/adapter/export"
)

var (
	exportFormat string
	exportOutput string
)

var exportCmd = &cobra.Command{
	Use:   "export [run-id]",
	Short: "Export a stored run as JSON or XLSX",
	Long: `Export a stored run (default: the latest). Without -o the file is written
to <run-id>.<format> in the current directory; "-o -" writes to stdout.

Examples:
  tagchain export --format json -o - | jq '.data_source.docs[0]'
  tagchain export --format xlsx -o corpus.xlsx`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "json", "export format: json or xlsx")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output file (\"-\" for stdout)")
}

func runExport(cmd *cobra.Command, args []string) error {
	exporter, err := export.ForFormat(exportFormat, logger)
	if err != nil {
		return err
	}

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

	if exportOutput == "-" {
		w := bufio.NewWriter(os.Stdout)
		if err := exporter.Export(w, run); err != nil {
			return fmt.Errorf("export failed: %w", err)
		}
		return w.Flush()
	}

	path := exportOutput
	if path == "" {
		path = run.ID + "." + exporter.Extension()
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := exporter.Export(f, run); err != nil {
		f.Close()
		return fmt.Errorf("export failed: %w", err)
	}
	if err := f.Close(); err != nil {
		return err
	}

	fmt.Printf("Exported run %s to %s\n", run.ID, path)
	return nil
}
