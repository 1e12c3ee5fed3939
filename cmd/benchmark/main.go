package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"tagchain/config"
	"tagchain/internal/adapter/fs"
	"tagchain/internal/registry"
	"tagchain/internal/tagstream"
	"tagchain/internal/usecase"
)

func main() {
	dir := flag.String("dir", ".", "Corpus directory")
	processor := flag.String("processor", "", "Processor to benchmark (default from config)")
	batches := flag.String("batch-sizes", "0,10,50", "Comma-separated batch sizes to try")
	workers := flag.Int("workers", 4, "Parallel tagger calls for batched runs")
	flag.Parse()

	cfg, err := config.LoadFromDir(*dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *processor != "" {
		cfg.Tagger.Processor = *processor
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	ctx := context.Background()

	docs, err := fs.NewSource(*dir, fs.NewWalker(cfg.Source.Includes, cfg.Source.Excludes), logger).Documents(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading corpus: %v\n", err)
		os.Exit(1)
	}
	if len(docs) == 0 {
		fmt.Println("Usage: go run cmd/benchmark/main.go -dir ./corpus [-processor tagging.simple]")
		fmt.Println("\nNo documents matched the configured includes.")
		os.Exit(1)
	}

	tagger, err := registry.Default(cfg.Tagger, logger).Build(cfg.Tagger.Processor, cfg.Tagger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Processor not available: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("TAGGING BENCHMARK")
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("Documents: %d\n", len(docs))
	fmt.Printf("Processor: %s (%s)\n", tagger.Name(), cfg.Tagger.Language)
	fmt.Println(strings.Repeat("-", 70))

	var baseline []int
	for _, s := range strings.Split(*batches, ",") {
		size, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil || size < 0 {
			fmt.Fprintf(os.Stderr, "Invalid batch size %q\n", s)
			os.Exit(1)
		}
		w := *workers
		if size == 0 {
			w = 1
		}

		filter := tagstream.NewFilter(cfg.Filter.Tags, cfg.Filter.MinLemmaLength)
		uc := usecase.NewTagUseCase(tagger, usecase.TagOptions{
			Language:  cfg.Tagger.Language,
			Sentinel:  cfg.Tagger.Sentinel,
			Unknown:   cfg.Tagger.UnknownLemma,
			Filter:    &filter,
			BatchSize: size,
			Workers:   w,
		}, logger)

		start := time.Now()
		run, err := uc.Run(ctx, docs, nil)
		elapsed := time.Since(start)
		if err != nil {
			fmt.Fprintf(os.Stderr, "batch-size %d failed: %v\n", size, err)
			os.Exit(1)
		}

		counts := make([]int, len(run.Source.Docs))
		for i, d := range run.Source.Docs {
			counts[i] = len(d.Tokens)
		}
		status := "OK"
		if baseline == nil {
			baseline = counts
		} else if !equalCounts(baseline, counts) {
			status = "MISMATCH - output differs from first configuration"
		}

		rate := float64(len(docs)) / elapsed.Seconds()
		fmt.Printf("batch-size %-5d workers %-3d %10s %10.1f docs/s  %s\n", size, w, elapsed.Round(time.Millisecond), rate, status)
	}
}

func equalCounts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
