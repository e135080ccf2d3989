// ABOUTME: Player application orchestration
// ABOUTME: Runs playback alongside the TUI and a stats monitor
package app

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/Resonate-Protocol/ringplay/internal/ui"
	"github.com/Resonate-Protocol/ringplay/pkg/audio/output"
	"github.com/Resonate-Protocol/ringplay/pkg/ringplay"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultStatsInterval is how often the monitor samples player stats
	DefaultStatsInterval = 100 * time.Millisecond

	defaultTapSize = 4 * ui.FFTSize * 2
)

// Options configures the application around the player
type Options struct {
	// TUI runs the full-screen interface; otherwise progress is logged
	TUI bool

	// ProgramOptions are passed to the bubbletea program
	ProgramOptions []tea.ProgramOption

	// StatsInterval is the monitor period (default: 100ms)
	StatsInterval time.Duration
}

// App plays one file with optional terminal UI
type App struct {
	host   output.Host
	opts   Options
	player *ringplay.Player
	prog   *tea.Program
	info   atomic.Pointer[ringplay.Info]
}

// New creates an application. playerOpts.OnStart is replaced.
func New(host output.Host, playerOpts ringplay.Options, opts Options) *App {
	if opts.StatsInterval <= 0 {
		opts.StatsInterval = DefaultStatsInterval
	}
	if opts.TUI && playerOpts.TapSize <= 0 {
		playerOpts.TapSize = defaultTapSize
	}

	a := &App{host: host, opts: opts}
	playerOpts.OnStart = a.started
	a.player = ringplay.NewPlayer(host, playerOpts)
	return a
}

// Player returns the underlying player
func (a *App) Player() *ringplay.Player {
	return a.player
}

// Run plays path until it finishes, ctx is done, or the user quits.
// Quitting from the TUI returns context.Canceled.
func (a *App) Run(ctx context.Context, path string) error {
	g, gctx := errgroup.WithContext(ctx)
	playCtx, cancel := context.WithCancel(gctx)
	defer cancel()

	if a.opts.TUI {
		model := ui.NewModel(cancel)
		opts := append([]tea.ProgramOption{tea.WithContext(gctx)}, a.opts.ProgramOptions...)
		a.prog = ui.NewProgram(model, opts...)

		g.Go(func() error {
			_, err := a.prog.Run()
			if errors.Is(err, tea.ErrProgramKilled) {
				return nil
			}
			if err != nil {
				return fmt.Errorf("TUI failed: %w", err)
			}
			return nil
		})
	}

	done := make(chan struct{})
	g.Go(func() error {
		defer close(done)
		err := a.player.Play(playCtx, path)
		a.send(ui.DoneMsg{Err: err})
		return err
	})

	g.Go(func() error {
		a.monitor(done)
		return nil
	})

	return g.Wait()
}

func (a *App) started(info ringplay.Info) {
	a.info.Store(&info)
	a.send(ui.StartMsg{
		File:    info.Path,
		Codec:   info.Stream.SourceCodec,
		Decoded: fmt.Sprintf("%s %dHz %dch", info.Format.SampleFormat, info.Format.SampleRate, info.Format.Channels),
		Backend: info.Backend,
		Device:  info.Device,
		Config:  info.Config.String(),
	})
}

func (a *App) send(msg tea.Msg) {
	if a.prog != nil {
		a.prog.Send(msg)
	}
}

// monitor reports stats every interval until done is closed
func (a *App) monitor(done <-chan struct{}) {
	ticker := time.NewTicker(a.opts.StatsInterval)
	defer ticker.Stop()

	var (
		viz    *ui.Visualizer
		tap    []float64
		window []float64
	)

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
		}

		info := a.info.Load()
		if info == nil {
			continue
		}
		stats := a.player.Stats()
		msg := ui.StatsMsg{
			Queued:       stats.Queued,
			Capacity:     stats.Capacity,
			Played:       stats.Played,
			Underruns:    stats.Underruns,
			Dropped:      stats.Dropped,
			Discarded:    stats.Discarded,
			DeviceErrors: stats.DeviceErrors,
			Elapsed:      Elapsed(stats.Played, info.Config.Channels, info.Config.SampleRate),
		}

		if a.prog == nil {
			log.Debug().
				Int("queued", stats.Queued).
				Int64("played", stats.Played).
				Int64("underruns", stats.Underruns).
				Dur("elapsed", msg.Elapsed).
				Msg("Playback progress")
			continue
		}

		if viz == nil {
			viz = ui.NewVisualizer(info.Config.SampleRate)
			tap = make([]float64, defaultTapSize)
		}
		n := a.player.Samples(tap)
		window = appendWindow(window, tap[:n], ui.FFTSize*info.Config.Channels)
		bands := viz.Analyze(window, info.Config.Channels)
		msg.Bands = &bands

		a.send(msg)
	}
}

// appendWindow appends samples and keeps only the newest limit of them
func appendWindow(window, samples []float64, limit int) []float64 {
	window = append(window, samples...)
	if over := len(window) - limit; over > 0 {
		window = append(window[:0], window[over:]...)
	}
	return window
}

// Elapsed converts a count of played samples to playback time
func Elapsed(played int64, channels, rate int) time.Duration {
	if channels <= 0 || rate <= 0 {
		return 0
	}
	frames := played / int64(channels)
	return time.Duration(frames) * time.Second / time.Duration(rate)
}
