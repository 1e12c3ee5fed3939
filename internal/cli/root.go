package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"tagchain/config"
	"tagchain/internal/adapter/store"
	"tagchain/internal/port"
)

var (
	cfgFile string
	cfg     *config.Config
	rootDir string
	logger  *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "tagchain",
	Short: "Tagchain - Part-of-speech tag and lemmatize documents for downstream pipelines",
	Long: `Tagchain runs a collection of documents through a part-of-speech tagger
(TreeTagger, or the builtin simple tagger), rebuilds the per-document token
structure from the tagger's stream, and keeps the cleaned lemmas as a new
tokenized data source.

Example usage:
  tagchain tag ./corpus                 # Tag every text file under ./corpus
  tagchain tag --stdin < lines.txt      # One document per input line
  tagchain processors                   # Show which taggers are available
  tagchain show --tagged                # Inspect the latest run
  tagchain export --format xlsx -o out.xlsx`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error

		if rootDir == "" {
			rootDir, err = os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get working directory: %w", err)
			}
		}

		if cfgFile != "" {
			cfg, err = config.Load(cfgFile)
		} else {
			cfg, err = config.LoadFromDir(rootDir)
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		logger = newLogger(cmd.ErrOrStderr(), cfg.Logging)
		slog.SetDefault(logger)
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./tagchain.yaml)")
	rootCmd.PersistentFlags().StringVarP(&rootDir, "dir", "d", "", "root directory (default is current directory)")
}

func GetConfig() *config.Config {
	return cfg
}

func GetRootDir() string {
	return rootDir
}

func newLogger(w io.Writer, lc config.LoggingConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(lc.Level)}
	if lc.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// openStore opens the configured result store under the root directory.
func openStore(ctx context.Context) (port.ResultStore, error) {
	if cfg.Store.Driver != "memory" && cfg.Store.Path == "" {
		if err := config.EnsureDataDir(rootDir); err != nil {
			return nil, fmt.Errorf("failed to create .tagchain directory: %w", err)
		}
	}
	st, err := store.Open(ctx, cfg.Store.Driver, config.StoreDBPath(rootDir, cfg.Store))
	if err != nil {
		return nil, fmt.Errorf("failed to open result store: %w", err)
	}
	return st, nil
}

// existingStore opens the result store for reading, failing when no run
// has been stored yet.
func existingStore(ctx context.Context) (port.ResultStore, error) {
	if cfg.Store.Driver == "memory" {
		return nil, fmt.Errorf("store.driver is memory, runs are not kept between invocations")
	}
	if _, err := os.Stat(config.StoreDBPath(rootDir, cfg.Store)); os.IsNotExist(err) {
		return nil, fmt.Errorf("no results found. Run 'tagchain tag' first")
	}
	return openStore(ctx)
}
