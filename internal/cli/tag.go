package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"tagchain/config"
	"tagchain/internal/adapter/cache"
	"tagchain/internal/adapter/fs"
	"tagchain/internal/domain"
	"tagchain/internal/port"
	"tagchain/internal/registry"
	"tagchain/internal/tagstream"
	"tagchain/internal/usecase"
)

var (
	tagStdin     bool
	tagProcessor string
	tagLanguage  string
	tagTagDir    string
	tagBatchSize int
	tagWorkers   int
	tagTimeout   time.Duration
	tagJSON      bool
	tagNoStore   bool
)

var tagCmd = &cobra.Command{
	Use:   "tag [path]",
	Short: "Tag and lemmatize documents",
	Long: `Tag every matching file under path (default: the root directory), or every
line of standard input with --stdin, and store the tagged and cleaned result
as a run in .tagchain/.

Examples:
  tagchain tag .                          # Tag the current directory
  tagchain tag ./corpus --lang fr         # French parameter file
  tagchain tag --stdin --processor tagging.simple --json < lines.txt`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTag,
}

func init() {
	rootCmd.AddCommand(tagCmd)
	tagCmd.Flags().BoolVar(&tagStdin, "stdin", false, "read one document per line from standard input")
	tagCmd.Flags().StringVarP(&tagProcessor, "processor", "p", "", "processor name (default from config)")
	tagCmd.Flags().StringVarP(&tagLanguage, "lang", "l", "", "tagger language (default from config)")
	tagCmd.Flags().StringVar(&tagTagDir, "tagdir", "", "TreeTagger install directory (overrides $"+config.TagDirEnv+")")
	tagCmd.Flags().IntVar(&tagBatchSize, "batch-size", -1, "documents per tagger call, 0 = all (default from config)")
	tagCmd.Flags().IntVar(&tagWorkers, "workers", 0, "parallel tagger calls (default from config)")
	tagCmd.Flags().DurationVar(&tagTimeout, "timeout", 0, "abort tagging after this duration (default from config)")
	tagCmd.Flags().BoolVar(&tagJSON, "json", false, "print the run as JSON")
	tagCmd.Flags().BoolVar(&tagNoStore, "no-store", false, "do not store the run")
}

func runTag(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	applyTagFlags(cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if cfg.Tagger.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Tagger.Timeout)
		defer cancel()
	}

	source, err := documentSource(args)
	if err != nil {
		return err
	}
	docs, err := source.Documents(ctx)
	if err != nil {
		return fmt.Errorf("failed to read documents: %w", err)
	}

	reg := registry.Default(cfg.Tagger, logger)
	var tagger port.Tagger
	tagger, err = reg.Build(cfg.Tagger.Processor, cfg.Tagger)
	if err != nil {
		return err
	}
	var tagCache *cache.TagCache
	if cfg.Tagger.CacheSize > 0 {
		tagCache = cache.NewTagCache(cfg.Tagger.CacheSize)
		tagger = cache.NewCachedTagger(tagger, tagCache)
	}

	filter := tagstream.NewFilter(cfg.Filter.Tags, cfg.Filter.MinLemmaLength)
	tagUC := usecase.NewTagUseCase(tagger, usecase.TagOptions{
		Language:   cfg.Tagger.Language,
		Sentinel:   cfg.Tagger.Sentinel,
		Unknown:    cfg.Tagger.UnknownLemma,
		Filter:     &filter,
		BatchSize:  cfg.Tagger.BatchSize,
		Workers:    cfg.Tagger.Workers,
		ConfigHash: config.ComputeConfigHash(cfg),
	}, logger)

	var progress usecase.ProgressFunc
	if !tagJSON {
		fmt.Printf("Tagging %d documents with %s...\n", len(docs), tagger.Name())
		progress = newTagProgress()
	}

	start := time.Now()
	run, err := tagUC.Run(ctx, docs, progress)
	if err != nil {
		return fmt.Errorf("tagging failed: %w", err)
	}
	if tagCache != nil {
		hits, misses := tagCache.Stats()
		logger.Info("tag cache", "hits", hits, "misses", misses, "entries", tagCache.Size())
	}

	if !tagNoStore {
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()
		if err := st.SaveRun(ctx, run); err != nil {
			return fmt.Errorf("failed to store run: %w", err)
		}
	}

	if tagJSON {
		output, _ := json.MarshalIndent(run, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	summary := run.Summary()
	fmt.Printf("\nTagging complete:\n")
	fmt.Printf("  Run:        %s\n", run.ID)
	fmt.Printf("  Processor:  %s (%s)\n", run.Processor, run.Language)
	fmt.Printf("  Documents:  %d\n", summary.DocCount)
	fmt.Printf("  Tokens:     %d tagged, %d kept\n", countTagged(run.Tagged), summary.TokenCount)
	fmt.Printf("  Duration:   %s\n", formatDuration(time.Since(start)))
	if !tagNoStore {
		fmt.Printf("\nResults stored at: %s\n", config.StoreDBPath(GetRootDir(), cfg.Store))
	}
	return nil
}

func applyTagFlags(cfg *config.Config) {
	if tagProcessor != "" {
		cfg.Tagger.Processor = tagProcessor
	}
	if tagLanguage != "" {
		cfg.Tagger.Language = tagLanguage
	}
	if tagTagDir != "" {
		cfg.Tagger.TagDir = tagTagDir
	}
	if tagBatchSize >= 0 {
		cfg.Tagger.BatchSize = tagBatchSize
	}
	if tagWorkers > 0 {
		cfg.Tagger.Workers = tagWorkers
	}
	if tagTimeout > 0 {
		cfg.Tagger.Timeout = tagTimeout
	}
}

func documentSource(args []string) (port.DocumentSource, error) {
	if tagStdin {
		if len(args) > 0 {
			return nil, fmt.Errorf("--stdin does not take a path")
		}
		return fs.NewLineSource(os.Stdin), nil
	}

	path := GetRootDir()
	if len(args) > 0 {
		var err error
		path, err = filepath.Abs(args[0])
		if err != nil {
			return nil, fmt.Errorf("invalid path: %w", err)
		}
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("path does not exist: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", path)
	}

	cfg := GetConfig()
	walker := fs.NewWalker(cfg.Source.Includes, cfg.Source.Excludes)
	return fs.NewSource(path, walker, logger), nil
}

func newTagProgress() usecase.ProgressFunc {
	var (
		bar       *progressbar.ProgressBar
		mu        sync.Mutex
		startTime time.Time
	)
	return func(done, total int) {
		mu.Lock()
		defer mu.Unlock()

		if bar == nil {
			startTime = time.Now()
			bar = progressbar.NewOptions(total,
				progressbar.OptionEnableColorCodes(true),
				progressbar.OptionShowBytes(false),
				progressbar.OptionSetWidth(40),
				progressbar.OptionShowCount(),
				progressbar.OptionSetDescription("[cyan]Tagging[reset]"),
				progressbar.OptionSetTheme(progressbar.Theme{
					Saucer:        "[green]=[reset]",
					SaucerHead:    "[green]>[reset]",
					SaucerPadding: " ",
					BarStart:      "[",
					BarEnd:        "]",
				}),
				progressbar.OptionOnCompletion(func() {
					fmt.Println()
				}),
			)
		}

		bar.Set(done)

		if done > 0 {
			elapsed := time.Since(startTime)
			rate := float64(done) / elapsed.Seconds()
			if rate > 0 {
				eta := time.Duration(float64(total-done)/rate) * time.Second
				bar.Describe(fmt.Sprintf("[cyan]Tagging[reset] ETA: %s", formatDuration(eta)))
			}
		}
	}
}

func countTagged(docs [][]domain.TaggedToken) int {
	n := 0
	for _, d := range docs {
		n += len(d)
	}
	return n
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return "<1s"
	}
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm%ds", m, s)
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh%dm", h, m)
}
