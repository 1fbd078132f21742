package control_test

import (
	"testing"

	"github.com/igoriokas/web-crawler/internal/control"
	"github.com/stretchr/testify/assert"
)

func TestFlagsDefaultToRunning(t *testing.T) {
	var f control.Flags
	assert.False(t, f.Stopped())
	assert.False(t, f.Paused())
}

func TestStopIsSticky(t *testing.T) {
	var f control.Flags
	f.Stop()
	assert.True(t, f.Stopped())
}

func TestPauseResume(t *testing.T) {
	var f control.Flags
	f.Pause()
	assert.True(t, f.Paused())
	f.Resume()
	assert.False(t, f.Paused())
}
