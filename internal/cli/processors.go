package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"tagchain/internal/registry"
)

var processorsJSON bool

var processorsCmd = &cobra.Command{
	Use:   "processors",
	Short: "List registered processors and whether they can run",
	Args:  cobra.NoArgs,
	RunE:  runProcessors,
}

func init() {
	rootCmd.AddCommand(processorsCmd)
	processorsCmd.Flags().BoolVar(&processorsJSON, "json", false, "output as JSON")
}

type processorInfo struct {
	Name       string `json:"name"`
	Available  bool   `json:"available"`
	Binary     string `json:"binary,omitempty"`
	Diagnostic string `json:"diagnostic,omitempty"`
	Default    bool   `json:"default"`
}

func runProcessors(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	reg := registry.Default(cfg.Tagger, logger)

	var infos []processorInfo
	for _, e := range reg.Entries() {
		infos = append(infos, processorInfo{
			Name:       e.Name,
			Available:  e.Availability.Available,
			Binary:     e.Availability.Binary,
			Diagnostic: e.Availability.Diagnostic,
			Default:    e.Name == cfg.Tagger.Processor,
		})
	}

	if processorsJSON {
		output, _ := json.MarshalIndent(infos, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	for _, p := range infos {
		mark := " "
		if p.Default {
			mark = "*"
		}
		status := "available"
		if !p.Available {
			status = "unavailable: " + p.Diagnostic
		} else if p.Binary != "" {
			status = "available (" + p.Binary + ")"
		}
		fmt.Printf("%s %-22s %s\n", mark, p.Name, status)
	}
	return nil
}
