// Package dashboard implements the terminal, read-only crawl observer: it
// polls the Ledger for counts, tails the log file, and lets an operator
// toggle pause/stop without touching the engine directly.
package dashboard

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/igoriokas/web-crawler/internal/control"
	"github.com/igoriokas/web-crawler/internal/ledger"
)

// Dashboard redraws a one-line crawl summary on a fixed interval and reads
// single-key operator commands from stdin.
type Dashboard struct {
	Ledger       *ledger.Ledger
	Flags        *control.Flags
	LogPath      string
	Out          io.Writer
	In           io.Reader
	PollInterval time.Duration

	quitArmed bool
}

// New builds a Dashboard against a running Ledger and the engine's
// pause/stop flags.
func New(l *ledger.Ledger, flags *control.Flags, logPath string) *Dashboard {
	return &Dashboard{
		Ledger:       l,
		Flags:        flags,
		LogPath:      logPath,
		Out:          os.Stdout,
		In:           os.Stdin,
		PollInterval: time.Second,
	}
}

// Run redraws the dashboard and handles keystrokes until the done channel
// closes; setting the stop flag does not end it by itself. It is meant to
// run in its own goroutine alongside the Crawl Loop.
func (d *Dashboard) Run(done <-chan struct{}) {
	keys := make(chan byte)
	go d.readKeys(keys)

	ticker := time.NewTicker(d.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case key := <-keys:
			d.HandleKey(key)
		case <-ticker.C:
			d.Render()
		}
	}
}

func (d *Dashboard) readKeys(keys chan<- byte) {
	reader := bufio.NewReader(d.In)
	for {
		b, err := reader.ReadByte()
		if err != nil {
			return
		}
		keys <- b
	}
}

// HandleKey applies a single operator keystroke: p toggles pause, q arms a
// quit and a second consecutive q confirms it, mirroring the confirmation
// the CLI's purge flag asks for. Any other key disarms a pending quit.
// Exported so tests can drive it without a live stdin reader.
func (d *Dashboard) HandleKey(key byte) {
	switch key {
	case 'p', 'P':
		d.quitArmed = false
		if d.Flags.Paused() {
			d.Flags.Resume()
		} else {
			d.Flags.Pause()
		}
	case 'q', 'Q':
		if d.quitArmed {
			d.Flags.Stop()
		} else {
			d.quitArmed = true
		}
	default:
		d.quitArmed = false
	}
}

// Render redraws the one-line summary. Exported so tests can assert on a
// single frame without running the poll loop.
func (d *Dashboard) Render() {
	stats, err := d.Ledger.Snapshot()
	if err != nil {
		fmt.Fprintf(d.Out, "\rdashboard: snapshot error: %v", err)
		return
	}

	state := "running"
	if d.Flags.Paused() {
		state = "paused"
	}

	hint := "(p=pause/resume, q=quit)"
	if d.quitArmed {
		hint = "(press q again to quit, any other key cancels)"
	}

	fmt.Fprintf(d.Out, "\rvisited=%d failed=%d queued=%d [%s] %s   ",
		stats.Visited, stats.Failed, stats.Queued, state, hint)

	if line := d.lastLogLine(); line != "" {
		fmt.Fprintf(d.Out, "\n  last: %s", line)
	}
}

// lastLogLine returns the final line of LogPath, or "" if it can't be read.
// Re-opened on every poll since the engine process owns the file and keeps
// appending to it.
func (d *Dashboard) lastLogLine() string {
	f, err := os.Open(d.LogPath)
	if err != nil {
		return ""
	}
	defer f.Close()

	var last string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		last = scanner.Text()
	}
	return last
}
