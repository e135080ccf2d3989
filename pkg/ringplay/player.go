// ABOUTME: Player orchestrating one playback run of a media file
// ABOUTME: Negotiates the device, builds the pipeline, plays and drains
package ringplay

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Resonate-Protocol/ringplay/pkg/audio"
	"github.com/Resonate-Protocol/ringplay/pkg/audio/decode"
	"github.com/Resonate-Protocol/ringplay/pkg/audio/output"
	"github.com/Resonate-Protocol/ringplay/pkg/audio/resample"
	"github.com/Resonate-Protocol/ringplay/pkg/audio/ring"
	"github.com/rs/zerolog/log"
)

// DefaultDrainTimeout bounds the wait for queued samples at end of stream
const DefaultDrainTimeout = 2 * time.Second

// Options configures a Player
type Options struct {
	// QueueSize is the sample queue capacity in samples (default: 8192)
	QueueSize int

	// Policy is the queue admission policy
	Policy Policy

	// Quality selects the resampler interpolation
	Quality resample.Quality

	// TapSize keeps this many played samples for Samples; 0 disables the tap
	TapSize int

	// DrainTimeout bounds the end of stream drain (default: 2s)
	DrainTimeout time.Duration

	// Open opens the media file (default: decode.Open)
	Open func(path string) (decode.Container, error)

	// OnStart is called once the device stream is playing
	OnStart func(Info)
}

// Info describes a run once playback has started
type Info struct {
	Path    string
	Stream  decode.Stream
	Format  audio.Format
	Backend string
	Device  string
	Config  audio.StreamConfig
}

// Stats is a snapshot of playback progress
type Stats struct {
	Queued    int
	Capacity  int
	Played    int64
	Underruns int64
	Faults    int64
	Packets   int64
	Discarded int64
	Frames    int64
	Pushed    int64
	Dropped   int64
	// DeviceErrors counts asynchronous errors reported by the device
	DeviceErrors int64
}

// Player plays media files on a host's default output device
type Player struct {
	host output.Host
	opts Options

	mu           sync.Mutex
	session      session
	deviceErrors atomic.Int64
}

// NewPlayer creates a player, filling in option defaults
func NewPlayer(host output.Host, opts Options) *Player {
	if opts.QueueSize <= 0 {
		opts.QueueSize = ring.DefaultCapacity
	}
	if opts.DrainTimeout <= 0 {
		opts.DrainTimeout = DefaultDrainTimeout
	}
	if opts.Open == nil {
		opts.Open = decode.Open
	}
	return &Player{host: host, opts: opts}
}

// Play decodes path and streams it to the default device, returning once
// every sample has been played, ctx is done, or an error occurs. Errors
// the device reports asynchronously are logged and do not stop playback.
func (p *Player) Play(ctx context.Context, path string) error {
	dev, cfg, err := Negotiate(p.host)
	if err != nil {
		return err
	}

	container, err := p.opts.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer container.Close()

	stream, err := decode.BestStream(container.Streams())
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if sel, ok := container.(decode.Selector); ok {
		if err := sel.SelectStream(stream.Index); err != nil {
			return fmt.Errorf("failed to select stream %d: %w", stream.Index, err)
		}
	}

	dec, err := decode.NewDecoder(stream)
	if err != nil {
		return fmt.Errorf("failed to create decoder: %w", err)
	}
	defer dec.Close()

	format := dec.Format()
	rs, err := resample.New(resample.Config{
		InFormat:    format.SampleFormat,
		InLayout:    format.Layout,
		InRate:      format.SampleRate,
		InChannels:  format.Channels,
		OutFormat:   cfg.Format,
		OutRate:     cfg.SampleRate,
		OutChannels: cfg.Channels,
		Quality:     p.opts.Quality,
	})
	if err != nil {
		return fmt.Errorf("failed to create resampler: %w", err)
	}

	s, err := newSession(cfg.Format, p.opts, container, stream.Index, dec, rs)
	if err != nil {
		return err
	}
	p.setSession(s)

	out, err := dev.OpenOutputStream(cfg, s.fill, p.deviceError)
	if err != nil {
		return fmt.Errorf("failed to open output stream: %w", err)
	}
	defer out.Close()

	if err := out.Play(); err != nil {
		return fmt.Errorf("failed to start playback: %w", err)
	}

	info := Info{
		Path:    path,
		Stream:  stream,
		Format:  format,
		Backend: p.host.Name(),
		Device:  dev.Name(),
		Config:  cfg,
	}
	log.Info().
		Str("file", path).
		Str("codec", stream.SourceCodec).
		Str("decoded", fmt.Sprintf("%s %dHz %dch", format.SampleFormat, format.SampleRate, format.Channels)).
		Str("device", dev.Name()).
		Str("config", cfg.String()).
		Str("policy", p.opts.Policy.String()).
		Msg("Playback started")
	if p.opts.OnStart != nil {
		p.opts.OnStart(info)
	}

	if err := s.run(ctx); err != nil {
		return err
	}
	s.endOfStream()

	drainCtx, cancel := context.WithTimeout(ctx, p.opts.DrainTimeout)
	defer cancel()
	if err := s.drain(drainCtx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if errors.Is(err, context.DeadlineExceeded) {
			log.Warn().Dur("timeout", p.opts.DrainTimeout).Msg("Queue did not drain before timeout")
		}
	}

	stats := p.Stats()
	log.Info().
		Int64("played", stats.Played).
		Int64("underruns", stats.Underruns).
		Int64("dropped", stats.Dropped).
		Int64("discarded", stats.Discarded).
		Int64("device_errors", stats.DeviceErrors).
		Msg("Playback finished")
	return nil
}

// Stats returns current counters; zero before Play has built its pipeline
func (p *Player) Stats() Stats {
	p.mu.Lock()
	s := p.session
	p.mu.Unlock()

	var stats Stats
	if s != nil {
		stats = s.stats()
	}
	stats.DeviceErrors = p.deviceErrors.Load()
	return stats
}

// Samples copies samples played since the last call, normalized to
// [-1, 1], into dst and returns how many were written. Requires a positive
// TapSize. Only one goroutine may call it.
func (p *Player) Samples(dst []float64) int {
	p.mu.Lock()
	s := p.session
	p.mu.Unlock()

	if s == nil {
		return 0
	}
	return s.tapped(dst)
}

func (p *Player) setSession(s session) {
	p.mu.Lock()
	p.session = s
	p.mu.Unlock()
}

// deviceError runs on a backend thread
func (p *Player) deviceError(err error) {
	p.deviceErrors.Add(1)
	log.Error().Err(err).Msg("Output stream error")
}
