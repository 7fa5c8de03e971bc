package logging

import (
	"context"
	"log/slog"
	"testing"

	"github.com/evently/evently/internal/config"
)

func TestNewConfiguresSupportedFormats(t *testing.T) {
	tests := []struct {
		name   string
		cfg    config.LoggingConfig
		errsOK bool
	}{
		{name: "json", cfg: config.LoggingConfig{Level: slog.LevelInfo, Format: "json"}},
		{name: "text", cfg: config.LoggingConfig{Level: slog.LevelDebug, Format: "text"}},
		{name: "unsupported", cfg: config.LoggingConfig{Format: "xml"}, errsOK: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := New(tt.cfg)
			if tt.errsOK {
				if err == nil {
					t.Fatal("expected error for unsupported format")
				}
				return
			}
			if err != nil {
				t.Fatalf("New returned error: %v", err)
			}
			if !logger.Enabled(context.Background(), tt.cfg.Level) {
				t.Errorf("logger not enabled at configured level %v", tt.cfg.Level)
			}
		})
	}
}

func TestNewRespectsLevelThreshold(t *testing.T) {
	logger, err := New(config.LoggingConfig{Level: slog.LevelWarn, Format: "json"})
	if err != nil {
		t.Fatal(err)
	}
	if logger.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("debug should be disabled at warn level")
	}
	if !logger.Enabled(context.Background(), slog.LevelError) {
		t.Error("error should be enabled at warn level")
	}
}
