package ledger_test

import (
	"path/filepath"
	"testing"

	"github.com/igoriokas/web-crawler/internal/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestLedger(t *testing.T) *ledger.Ledger {
	t.Helper()
	path := filepath.Join(t.TempDir(), "state.db")
	l, err := ledger.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })
	return l
}

func TestEnqueueIsIdempotent(t *testing.T) {
	l := openTestLedger(t)

	require.NoError(t, l.Enqueue("https://s/index.html", 0))
	require.NoError(t, l.Enqueue("https://s/index.html", 0))

	n, err := l.Length()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestPeekOrdering(t *testing.T) {
	l := openTestLedger(t)

	require.NoError(t, l.Enqueue("https://s/deep.html", 2))
	require.NoError(t, l.Enqueue("https://s/shallow.html", 0))
	require.NoError(t, l.Enqueue("https://s/mid.html", 1))

	row, ok, err := l.Peek()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "https://s/shallow.html", row.URL)
	assert.Equal(t, 0, row.Depth)
}

func TestPeekPrefersMoreAttemptsAtSameDepth(t *testing.T) {
	l := openTestLedger(t)

	require.NoError(t, l.Enqueue("https://s/a.html", 0))
	require.NoError(t, l.Enqueue("https://s/b.html", 0))
	require.NoError(t, l.MarkAttempt("https://s/b.html"))

	row, ok, err := l.Peek()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "https://s/b.html", row.URL)
}

func TestPeekEmptyQueue(t *testing.T) {
	l := openTestLedger(t)

	_, ok, err := l.Peek()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMarkAttemptAndDecreaseAttempt(t *testing.T) {
	l := openTestLedger(t)
	require.NoError(t, l.Enqueue("https://s/a.html", 0))

	require.NoError(t, l.MarkAttempt("https://s/a.html"))
	row, ok, err := l.Peek()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1, row.Attempts)

	require.NoError(t, l.DecreaseAttempt("https://s/a.html"))
	row, ok, err = l.Peek()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 0, row.Attempts)
}

func TestMarkFailureRemovesFromFrontier(t *testing.T) {
	l := openTestLedger(t)
	require.NoError(t, l.Enqueue("https://s/a.html", 0))

	require.NoError(t, l.MarkFailure("https://s/a.html", "Max attempts reached"))

	_, ok, err := l.Peek()
	require.NoError(t, err)
	assert.False(t, ok)

	stats, err := l.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, 0, stats.Queued)
}

func TestCommitSuccessMarksVisitedAndMergesWordCounts(t *testing.T) {
	l := openTestLedger(t)
	require.NoError(t, l.Enqueue("https://s/a.html", 0))
	require.NoError(t, l.Enqueue("https://s/b.html", 0))

	require.NoError(t, l.CommitSuccess("https://s/a.html", map[string]int{"hello": 2, "world": 1}))
	require.NoError(t, l.CommitSuccess("https://s/b.html", map[string]int{"hello": 1}))

	stats, err := l.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Visited)
	assert.Equal(t, 0, stats.Queued)

	top, err := l.TopWords(10)
	require.NoError(t, err)
	assert.Equal(t, 3, top["hello"])
	assert.Equal(t, 1, top["world"])
}

func TestStartURL(t *testing.T) {
	l := openTestLedger(t)
	require.NoError(t, l.Enqueue("https://s/index.html", 0))
	require.NoError(t, l.Enqueue("https://s/a.html", 1))

	url, depth, err := l.StartURL()
	require.NoError(t, err)
	assert.Equal(t, "https://s/index.html", url)
	assert.Equal(t, 0, depth)
}

func TestLogAttemptDoesNotTouchPages(t *testing.T) {
	l := openTestLedger(t)
	require.NoError(t, l.Enqueue("https://s/a.html", 0))

	require.NoError(t, l.LogAttempt(1, "https://s/a.html", 0, 1, 503, 0.123, "Retryable HTTP error [503]"))

	n, err := l.Length()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestReopenPersistsAcrossConnections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")

	l1, err := ledger.Open(path)
	require.NoError(t, err)
	require.NoError(t, l1.Enqueue("https://s/a.html", 0))
	require.NoError(t, l1.CommitSuccess("https://s/a.html", map[string]int{"word": 5}))
	require.NoError(t, l1.Close())

	l2, err := ledger.Open(path)
	require.NoError(t, err)
	defer l2.Close()

	stats, err := l2.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Visited)

	top, err := l2.TopWords(10)
	require.NoError(t, err)
	assert.Equal(t, 5, top["word"])
}
