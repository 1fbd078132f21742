package reporter_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/igoriokas/web-crawler/internal/ledger"
	"github.com/igoriokas/web-crawler/internal/reporter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteProducesReportWithCountsAndTopWords(t *testing.T) {
	dir := t.TempDir()
	l, err := ledger.Open(filepath.Join(dir, "state.db"))
	require.NoError(t, err)
	defer l.Close()

	require.NoError(t, l.Enqueue("https://example.com/a", 0))
	require.NoError(t, l.CommitSuccess("https://example.com/a", map[string]int{"hello": 3, "world": 1}))
	require.NoError(t, l.Enqueue("https://example.com/b", 0))
	require.NoError(t, l.MarkFailure("https://example.com/b", "boom"))

	require.NoError(t, reporter.Write(dir, "https://example.com/a", time.Now().Add(-time.Minute), l))

	data, err := os.ReadFile(filepath.Join(dir, "report.txt"))
	require.NoError(t, err)

	body := string(data)
	assert.Contains(t, body, "https://example.com/a")
	assert.Contains(t, body, "pages visited: 1")
	assert.Contains(t, body, "pages failed:  1")
	assert.Contains(t, body, "hello: 3")
}
