package cli_test

import (
	"testing"

	"github.com/igoriokas/web-crawler/internal/cli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args []string) cli.Options {
	t.Helper()

	var captured cli.Options
	cli.Run = func(opts cli.Options) error {
		captured = opts
		return nil
	}
	t.Cleanup(func() { cli.Run = nil })

	require.NoError(t, cli.ExecuteArgs(args))
	return captured
}

func TestExecuteAppliesFlagDefaults(t *testing.T) {
	opts := execute(t, []string{"https://example.com/index.html", t.TempDir()})

	require.NotNil(t, opts.Config)
	assert.Equal(t, 1, opts.Config.MaxDepth())
	assert.Equal(t, 2, opts.Config.MaxAttempts())
	assert.False(t, opts.NoUI)
}

func TestExecuteAppliesFlagOverrides(t *testing.T) {
	opts := execute(t, []string{
		"-d", "5", "-a", "9", "--no-ui", "-e",
		"https://example.com/index.html", t.TempDir(),
	})

	require.NotNil(t, opts.Config)
	assert.Equal(t, 5, opts.Config.MaxDepth())
	assert.Equal(t, 9, opts.Config.MaxAttempts())
	assert.True(t, opts.NoUI)
	assert.True(t, opts.Config.ErrorInjection())
}

func TestExecuteRequiresTwoPositionals(t *testing.T) {
	cli.Run = func(cli.Options) error { return nil }
	t.Cleanup(func() { cli.Run = nil })

	err := cli.ExecuteArgs([]string{"https://example.com/index.html"})
	assert.Error(t, err)
}
