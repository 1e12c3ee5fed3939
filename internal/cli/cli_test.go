package cli

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"

	"tagchain/config"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"WARN", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"info", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.in); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNewLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger(&buf, config.LoggingConfig{Level: "info", Format: "json"})
	l.Debug("hidden")
	l.Info("shown", "run_id", "01A")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("debug record should be filtered at info level")
	}
	if !strings.Contains(out, `"run_id":"01A"`) {
		t.Errorf("expected JSON record, got %q", out)
	}
}

func TestApplyTagFlags(t *testing.T) {
	defer func() {
		tagProcessor, tagLanguage, tagTagDir = "", "", ""
		tagBatchSize, tagWorkers, tagTimeout = -1, 0, 0
	}()

	cfg := config.DefaultConfig()
	tagBatchSize = -1
	applyTagFlags(cfg)
	if cfg.Tagger.BatchSize != config.DefaultConfig().Tagger.BatchSize {
		t.Error("unset flags should leave config untouched")
	}

	tagProcessor = "tagging.simple"
	tagLanguage = "fr"
	tagBatchSize = 0
	tagWorkers = 3
	tagTimeout = time.Minute
	applyTagFlags(cfg)

	if cfg.Tagger.Processor != "tagging.simple" || cfg.Tagger.Language != "fr" {
		t.Errorf("unexpected tagger config: %+v", cfg.Tagger)
	}
	if cfg.Tagger.BatchSize != 0 || cfg.Tagger.Workers != 3 || cfg.Tagger.Timeout != time.Minute {
		t.Errorf("unexpected batching config: %+v", cfg.Tagger)
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{500 * time.Millisecond, "<1s"},
		{42 * time.Second, "42s"},
		{3*time.Minute + 5*time.Second, "3m5s"},
		{2*time.Hour + 10*time.Minute, "2h10m"},
	}
	for _, tt := range tests {
		if got := formatDuration(tt.d); got != tt.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}
