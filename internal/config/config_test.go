// ABOUTME: Tests for environment configuration
// ABOUTME: Tests defaults, overrides and validation failures
package config

import (
	"testing"
	"time"

	"github.com/Resonate-Protocol/ringplay/pkg/audio/resample"
	"github.com/Resonate-Protocol/ringplay/pkg/ringplay"
	"github.com/rs/zerolog"
)

func TestDefaults(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{})
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Backend != "malgo" {
		t.Errorf("expected malgo backend, got %s", cfg.Backend)
	}
	if cfg.QueueSamples != 8192 {
		t.Errorf("expected 8192 queue samples, got %d", cfg.QueueSamples)
	}
	if cfg.DrainTimeout != 2*time.Second {
		t.Errorf("expected 2s drain timeout, got %s", cfg.DrainTimeout)
	}
	if cfg.NoTUI || cfg.LogFile != "" || cfg.FFmpeg != "" {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if cfg.Level() != zerolog.InfoLevel {
		t.Errorf("expected info level, got %s", cfg.Level())
	}

	opts := cfg.PlayerOptions()
	if opts.QueueSize != 8192 || opts.Policy != ringplay.AdmitFreeSpace || opts.Quality != resample.Linear {
		t.Errorf("unexpected player options %+v", opts)
	}
	if opts.Open == nil {
		t.Error("expected opener set")
	}
}

func TestOverrides(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{
		"RINGPLAY_BACKEND":       "null",
		"RINGPLAY_QUEUE_SAMPLES": "2048",
		"RINGPLAY_POLICY":        "when-empty",
		"RINGPLAY_RESAMPLER":     "cubic",
		"RINGPLAY_DRAIN_TIMEOUT": "500ms",
		"RINGPLAY_LOG_FILE":      "/tmp/ringplay.log",
		"RINGPLAY_LOG_LEVEL":     "debug",
		"RINGPLAY_NO_TUI":        "true",
		"RINGPLAY_FFMPEG":        "/opt/ffmpeg/bin/ffmpeg",
		"BACKEND":                "oto",
	})
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Backend != "null" {
		t.Errorf("expected prefixed variable to win, got %s", cfg.Backend)
	}
	if !cfg.NoTUI || cfg.LogFile != "/tmp/ringplay.log" || cfg.FFmpeg != "/opt/ffmpeg/bin/ffmpeg" {
		t.Errorf("unexpected config %+v", cfg)
	}
	if cfg.Level() != zerolog.DebugLevel {
		t.Errorf("expected debug level, got %s", cfg.Level())
	}

	opts := cfg.PlayerOptions()
	if opts.QueueSize != 2048 || opts.Policy != ringplay.AdmitWhenEmpty || opts.Quality != resample.Cubic {
		t.Errorf("unexpected player options %+v", opts)
	}
	if opts.DrainTimeout != 500*time.Millisecond {
		t.Errorf("expected 500ms drain timeout, got %s", opts.DrainTimeout)
	}
}

func TestInvalid(t *testing.T) {
	tests := []struct {
		name string
		vars map[string]string
	}{
		{"backend", map[string]string{"RINGPLAY_BACKEND": "jack"}},
		{"queue zero", map[string]string{"RINGPLAY_QUEUE_SAMPLES": "0"}},
		{"queue not a number", map[string]string{"RINGPLAY_QUEUE_SAMPLES": "lots"}},
		{"policy", map[string]string{"RINGPLAY_POLICY": "drop-oldest"}},
		{"resampler", map[string]string{"RINGPLAY_RESAMPLER": "sinc"}},
		{"log level", map[string]string{"RINGPLAY_LOG_LEVEL": "loud"}},
		{"drain timeout", map[string]string{"RINGPLAY_DRAIN_TIMEOUT": "-1s"}},
		{"no tui", map[string]string{"RINGPLAY_NO_TUI": "maybe"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadFrom(tt.vars); err == nil {
				t.Error("expected error")
			}
		})
	}
}
