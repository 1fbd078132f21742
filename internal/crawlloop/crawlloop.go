// Package crawlloop implements the single-threaded driver that pulls URLs
// off the Ledger's frontier, fetches them, extracts links and text, writes
// artifacts, and records the outcome.
package crawlloop

import (
	"context"
	"time"

	"github.com/igoriokas/web-crawler/internal/artifacts"
	"github.com/igoriokas/web-crawler/internal/control"
	"github.com/igoriokas/web-crawler/internal/faults"
	"github.com/igoriokas/web-crawler/internal/ledger"
	"github.com/igoriokas/web-crawler/internal/linkextract"
	"github.com/igoriokas/web-crawler/internal/retrycontrol"
	"github.com/igoriokas/web-crawler/internal/textextract"
	"github.com/igoriokas/web-crawler/pkg/failure"
	"github.com/igoriokas/web-crawler/pkg/timeutil"
	"github.com/rs/zerolog"
)

// attemptRecorder adapts a *ledger.Ledger to retrycontrol.AttemptRecorder
// for one URL, supplying the sid/depth that LogAttempt's schema needs but
// the Controller never sees.
type attemptRecorder struct {
	ledger *ledger.Ledger
	sid    int64
	url    string
	depth  int
}

func (r *attemptRecorder) MarkAttempt(url string) error {
	return r.ledger.MarkAttempt(r.url)
}

func (r *attemptRecorder) LogAttempt(url string, ordinal, statusCode int, duration time.Duration, errStr string) error {
	return r.ledger.LogAttempt(r.sid, r.url, r.depth, ordinal, statusCode, duration.Seconds(), errStr)
}

// warmupDelay gives a resumed crawl's target host a moment before the first
// request lands, mirroring the pause crawler_loop() took on restart.
const warmupDelay = 3 * time.Second

// Loop drives the crawl: peek, fetch-with-retry, extract, persist, repeat.
type Loop struct {
	Ledger        *ledger.Ledger
	MakeRetry     func(recorder retrycontrol.AttemptRecorder) *retrycontrol.Controller
	LinkExtractor *linkextract.Extractor
	Artifacts     *artifacts.Store
	Flags         *control.Flags
	Sleeper       timeutil.Sleeper
	PauseInterval time.Duration
	PageDelay     time.Duration
	SeedURL       string
	MaxDepth      int
	Log           zerolog.Logger
}

// New wires a Loop with production defaults: a real sleeper and a 1-second
// pause poll interval.
func New(l *ledger.Ledger, makeRetry func(retrycontrol.AttemptRecorder) *retrycontrol.Controller, extractor *linkextract.Extractor, store *artifacts.Store, flags *control.Flags, seedURL string, maxDepth int, pageDelay time.Duration, log zerolog.Logger) *Loop {
	return &Loop{
		Ledger:        l,
		MakeRetry:     makeRetry,
		LinkExtractor: extractor,
		Artifacts:     store,
		Flags:         flags,
		Sleeper:       timeutil.NewRealSleeper(),
		PauseInterval: time.Second,
		PageDelay:     pageDelay,
		SeedURL:       seedURL,
		MaxDepth:      maxDepth,
		Log:           log,
	}
}

// Run executes the crawl to completion, graceful stop, or a fatal
// environment fault. A fatal fault (an EnvironmentFault) or a failed ledger
// call is returned as an error; page faults are recorded and the loop
// continues.
func (l *Loop) Run(ctx context.Context) error {
	n, err := l.Ledger.Length()
	if err != nil {
		return err
	}

	if n == 0 {
		l.Log.Info().Str("url", l.SeedURL).Int("max_depth", l.MaxDepth).Msg("starting new crawl")
		if err := l.Ledger.Enqueue(l.SeedURL, 0); err != nil {
			return err
		}
	} else {
		url, depth, err := l.Ledger.StartURL()
		if err != nil {
			return err
		}
		l.Log.Info().Str("url", url).Int("depth", depth).Msg("resuming previous crawl")
		l.Sleeper.Sleep(warmupDelay)
	}

	for !l.Flags.Stopped() {
		for l.Flags.Paused() && !l.Flags.Stopped() {
			l.Sleeper.Sleep(l.PauseInterval)
		}
		if l.Flags.Stopped() {
			return nil
		}

		row, ok, err := l.Ledger.Peek()
		if err != nil {
			return err
		}
		if !ok {
			l.Log.Info().Msg("crawl completed")
			return nil
		}

		if classified := l.processOne(ctx, row); classified != nil {
			if classified.Severity() == failure.SeverityFatal {
				if err := l.Ledger.DecreaseAttempt(row.URL); err != nil {
					l.Log.Error().Err(err).Msg("decrease attempt after fatal fault")
				}
				l.Log.Error().Str("url", row.URL).Msg(classified.Error())
				l.Log.Error().Msg("fix environment and restart")
				return classified
			}

			if err := l.Ledger.MarkFailure(row.URL, shortMessage(classified)); err != nil {
				return err
			}
			l.Log.Error().Str("url", row.URL).Msg(classified.Error())
		}

		l.Sleeper.Sleep(l.PageDelay)
	}

	return nil
}

func (l *Loop) processOne(ctx context.Context, row ledger.PeekRow) failure.ClassifiedError {
	recorder := &attemptRecorder{ledger: l.Ledger, sid: row.SID, url: row.URL, depth: row.Depth}
	controller := l.MakeRetry(recorder)

	res, fetchErr := controller.Fetch(ctx, row.URL, row.Attempts)
	if fetchErr != nil {
		return fetchErr
	}

	if linkErr := l.LinkExtractor.Extract(row.URL, res.ContentType, res.Body, row.Depth); linkErr != nil {
		return linkErr
	}

	relPath, pathErr := l.Artifacts.RelativePath(row.URL, res.ContentType)
	if pathErr != nil {
		return pathErr
	}

	if writeErr := l.Artifacts.WritePage(relPath, res.Body); writeErr != nil {
		return writeErr
	}

	text, textErr := textextract.ExtractText(res.ContentType, res.Body)
	if textErr != nil {
		return faults.NewPageFault("extracting text: %v", textErr)
	}
	if writeErr := l.Artifacts.WriteText(relPath, text); writeErr != nil {
		return writeErr
	}

	words := textextract.CountWords(text)
	if writeErr := l.Artifacts.WriteWordCounts(relPath, words); writeErr != nil {
		return writeErr
	}

	if err := l.Ledger.CommitSuccess(row.URL, words); err != nil {
		return faults.NewEnvironmentFault("committing success: %v", err)
	}

	return nil
}

func shortMessage(err failure.ClassifiedError) string {
	if page, ok := err.(*faults.PageFault); ok {
		return page.Short()
	}
	return err.Error()
}
