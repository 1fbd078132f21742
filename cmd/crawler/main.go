// Command crawler runs the resumable, single-host web crawler described by
// internal/crawlloop, wiring the CLI, config, ledger, and every component
// together.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/igoriokas/web-crawler/internal/artifacts"
	"github.com/igoriokas/web-crawler/internal/cli"
	"github.com/igoriokas/web-crawler/internal/control"
	"github.com/igoriokas/web-crawler/internal/crawlloop"
	"github.com/igoriokas/web-crawler/internal/dashboard"
	"github.com/igoriokas/web-crawler/internal/fetcher"
	"github.com/igoriokas/web-crawler/internal/inject"
	"github.com/igoriokas/web-crawler/internal/ledger"
	"github.com/igoriokas/web-crawler/internal/linkextract"
	"github.com/igoriokas/web-crawler/internal/reporter"
	"github.com/igoriokas/web-crawler/internal/retrycontrol"
	"github.com/igoriokas/web-crawler/internal/worklock"
	"github.com/rs/zerolog"
)

func main() {
	cli.Run = run
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(opts cli.Options) error {
	cfg := opts.Config

	if err := os.MkdirAll(cfg.WorkDir(), 0755); err != nil {
		return fmt.Errorf("creating work dir: %w", err)
	}

	log, logFile, err := newLogger(cfg.WorkDir())
	if err != nil {
		return err
	}
	defer logFile.Close()

	lock := worklock.New(filepath.Join(cfg.WorkDir(), "lock"))
	if err := lock.Acquire(); err != nil {
		log.Error().Err(err).Msg("another crawler is already running in this work dir")
		os.Exit(2)
	}
	defer lock.Release()

	if err := cfg.Persist(); err != nil {
		return fmt.Errorf("persisting config: %w", err)
	}

	l, err := ledger.Open(filepath.Join(cfg.WorkDir(), "state.db"))
	if err != nil {
		return fmt.Errorf("opening ledger: %w", err)
	}
	defer l.Close()

	injector := inject.Injector(inject.Noop{})
	if cfg.ErrorInjection() {
		injector = inject.NewRandom(time.Now().UnixNano())
	}

	httpFetcher := fetcher.New().WithInjector(injector).WithLogger(log)

	extractor, err := linkextract.New(cfg.SeedURL(), cfg.MaxDepth(), l)
	if err != nil {
		return fmt.Errorf("building link extractor: %w", err)
	}
	extractor.WithInjector(injector).WithLogger(log)

	store := artifacts.New(cfg.WorkDir(), extractor.ProDomain).WithInjector(injector).WithLogger(log)

	makeRetry := func(recorder retrycontrol.AttemptRecorder) *retrycontrol.Controller {
		return retrycontrol.New(httpFetcher, recorder, cfg.MaxAttempts()).WithLogger(log)
	}

	flags := &control.Flags{}
	loop := crawlloop.New(l, makeRetry, extractor, store, flags, cfg.SeedURL(), cfg.MaxDepth(), cfg.PageDelay(), log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	notifySignals(flags)

	if !opts.NoUI {
		board := dashboard.New(l, flags, filepath.Join(cfg.WorkDir(), "log.log"))
		done := make(chan struct{})
		defer close(done)
		go board.Run(done)
	}

	started := time.Now()
	if err := loop.Run(ctx); err != nil {
		return err
	}

	if err := reporter.Write(cfg.WorkDir(), cfg.SeedURL(), started, l); err != nil {
		log.Error().Err(err).Msg("writing completion report")
		return err
	}
	return nil
}

// notifySignals stops the crawl on SIGINT/SIGTERM instead of killing the
// process mid-write, letting the current page finish and the ledger close
// cleanly.
func notifySignals(flags *control.Flags) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		flags.Stop()
	}()
}

func newLogger(workDir string) (zerolog.Logger, *os.File, error) {
	logFile, err := os.OpenFile(filepath.Join(workDir, "log.log"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return zerolog.Logger{}, nil, fmt.Errorf("opening log file: %w", err)
	}

	fileWriter := zerolog.ConsoleWriter{Out: logFile, NoColor: true, TimeFormat: time.RFC3339}
	consoleWriter := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	multi := zerolog.MultiLevelWriter(fileWriter, consoleWriter)

	return zerolog.New(multi).With().Timestamp().Logger(), logFile, nil
}
