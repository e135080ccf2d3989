// ABOUTME: Environment configuration for the player
// ABOUTME: Parses RINGPLAY_* variables with defaults and validates them
package config

import (
	"fmt"
	"slices"
	"time"

	"github.com/Resonate-Protocol/ringplay/pkg/audio/decode"
	"github.com/Resonate-Protocol/ringplay/pkg/audio/output"
	"github.com/Resonate-Protocol/ringplay/pkg/audio/resample"
	"github.com/Resonate-Protocol/ringplay/pkg/ringplay"
	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog"
)

// Prefix is prepended to every variable name
const Prefix = "RINGPLAY_"

// Config holds everything that can be tuned without flags
type Config struct {
	// Backend is the audio host: malgo, oto, portaudio or null
	Backend string `env:"BACKEND" envDefault:"malgo"`

	// QueueSamples is the sample queue capacity
	QueueSamples int `env:"QUEUE_SAMPLES" envDefault:"8192"`

	// Policy is the queue admission policy: free-space or when-empty
	Policy string `env:"POLICY" envDefault:"free-space"`

	// Resampler is the interpolation quality: linear or cubic
	Resampler string `env:"RESAMPLER" envDefault:"linear"`

	// DrainTimeout bounds the wait for queued audio at end of file
	DrainTimeout time.Duration `env:"DRAIN_TIMEOUT" envDefault:"2s"`

	// LogFile receives logs; with the TUI active it defaults to ringplay.log
	LogFile string `env:"LOG_FILE"`

	// LogLevel is a zerolog level name
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// NoTUI disables the terminal UI even on a terminal
	NoTUI bool `env:"NO_TUI"`

	// FFmpeg is the ffmpeg binary used for formats without a native decoder
	FFmpeg string `env:"FFMPEG"`
}

// Load reads the process environment
func Load() (Config, error) {
	return parse(env.Options{Prefix: Prefix})
}

// LoadFrom reads the given variables instead of the process environment
func LoadFrom(vars map[string]string) (Config, error) {
	return parse(env.Options{Prefix: Prefix, Environment: vars})
}

func parse(opts env.Options) (Config, error) {
	cfg, err := env.ParseAsWithOptions[Config](opts)
	if err != nil {
		return Config{}, fmt.Errorf("failed to parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks every value that parses into a richer type
func (c Config) Validate() error {
	if !slices.Contains(output.Backends, c.Backend) {
		return fmt.Errorf("invalid %sBACKEND %q (choose from %v)", Prefix, c.Backend, output.Backends)
	}
	if c.QueueSamples <= 0 {
		return fmt.Errorf("invalid %sQUEUE_SAMPLES %d: must be positive", Prefix, c.QueueSamples)
	}
	if c.DrainTimeout <= 0 {
		return fmt.Errorf("invalid %sDRAIN_TIMEOUT %s: must be positive", Prefix, c.DrainTimeout)
	}
	if _, err := ringplay.ParsePolicy(c.Policy); err != nil {
		return fmt.Errorf("invalid %sPOLICY: %w", Prefix, err)
	}
	if _, err := resample.ParseQuality(c.Resampler); err != nil {
		return fmt.Errorf("invalid %sRESAMPLER: %w", Prefix, err)
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid %sLOG_LEVEL: %w", Prefix, err)
	}
	return nil
}

// Level returns the parsed log level
func (c Config) Level() zerolog.Level {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}

// PlayerOptions converts the configuration for ringplay.NewPlayer
func (c Config) PlayerOptions() ringplay.Options {
	policy, _ := ringplay.ParsePolicy(c.Policy)
	quality, _ := resample.ParseQuality(c.Resampler)
	return ringplay.Options{
		QueueSize:    c.QueueSamples,
		Policy:       policy,
		Quality:      quality,
		DrainTimeout: c.DrainTimeout,
		Open:         decode.Opener{FFmpegPath: c.FFmpeg}.Open,
	}
}
