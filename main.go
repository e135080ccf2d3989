// ABOUTME: Entry point for the ringplay audio player
// ABOUTME: Plays the file named on the command line on the default output device
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/Resonate-Protocol/ringplay/internal/app"
	"github.com/Resonate-Protocol/ringplay/internal/config"
	"github.com/Resonate-Protocol/ringplay/internal/logging"
	"github.com/Resonate-Protocol/ringplay/internal/version"
	"github.com/Resonate-Protocol/ringplay/pkg/audio/output"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog/log"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintf(os.Stderr, "usage: %s <file>\n", os.Args[0])
		os.Exit(1)
	}

	if err := run(os.Args[1]); err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		fmt.Fprintf(os.Stderr, "%s: %v\n", os.Args[0], err)
		os.Exit(1)
	}
}

func run(path string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	useTUI := !cfg.NoTUI && isatty.IsTerminal(os.Stdout.Fd())

	logOpts := logging.Options{Level: cfg.Level(), File: cfg.LogFile}
	if useTUI {
		// TUI mode: log only to file
		if logOpts.File == "" {
			logOpts.File = logging.DefaultFile
		}
	} else {
		logOpts.Console = os.Stderr
	}
	closer, err := logging.Setup(logOpts)
	if err != nil {
		return err
	}
	defer func(c io.Closer) { _ = c.Close() }(closer)

	log.Info().Str("version", version.String()).Str("backend", cfg.Backend).Msg("Starting")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	host, err := output.NewHost(cfg.Backend)
	if err != nil {
		return err
	}
	defer host.Close()

	a := app.New(host, cfg.PlayerOptions(), app.Options{TUI: useTUI})
	if err := a.Run(ctx, path); err != nil {
		if !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("Playback failed")
		}
		return err
	}
	return nil
}
