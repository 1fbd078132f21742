// Package control holds the pause/stop flags the Dashboard uses to steer a
// running Crawl Loop without shared locks.
package control

import "sync/atomic"

// Flags are safe for concurrent use by the Crawl Loop (reader) and the
// Dashboard (writer).
type Flags struct {
	stop  atomic.Bool
	pause atomic.Bool
}

func (f *Flags) Stop() {
	f.stop.Store(true)
}

func (f *Flags) Stopped() bool {
	return f.stop.Load()
}

func (f *Flags) Pause() {
	f.pause.Store(true)
}

func (f *Flags) Resume() {
	f.pause.Store(false)
}

func (f *Flags) Paused() bool {
	return f.pause.Load()
}
