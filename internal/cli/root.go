// Package cli wires the crawler's command-line surface: two positionals
// (url, workdir) plus depth, attempts, no-ui, error-injection, and purge
// flags.
package cli

import (
	"bufio"
	"fmt"
	"os"

	"github.com/igoriokas/web-crawler/internal/build"
	"github.com/igoriokas/web-crawler/internal/config"
	"github.com/spf13/cobra"
)

var (
	maxDepth       int
	maxAttempts    int
	noUI           bool
	errorInjection bool
	purge          bool
)

// Options is the parsed, validated result of a CLI invocation, ready to
// hand to cmd/crawler's wiring.
type Options struct {
	Config *config.Config
	NoUI   bool
	Purge  bool
}

// Run is the handler that receives the parsed Options once cobra has
// validated args. cmd/crawler's main sets it before calling Execute, and
// rootCmd's RunE calls it.
var Run func(Options) error

var rootCmd = &cobra.Command{
	Use:     "web-crawler <url> <workdir>",
	Short:   "A resumable, single-host web crawler.",
	Version: build.FullVersion(),
	Long: `web-crawler crawls a single website starting from url, staying within
its scheme and host, and persists all state under workdir so an interrupted
crawl resumes exactly where it left off.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		url, workDir := args[0], args[1]

		if purge {
			if !confirmPurge(workDir) {
				fmt.Fprintln(os.Stderr, "purge cancelled")
				os.Exit(1)
			}
			if err := os.RemoveAll(workDir); err != nil {
				return fmt.Errorf("purging %s: %w", workDir, err)
			}
		}

		cfg, err := config.WithDefault(url).
			WithWorkDir(workDir).
			WithMaxDepth(maxDepth).
			WithMaxAttempts(maxAttempts).
			WithErrorInjection(errorInjection).
			WithNoUI(noUI).
			Build()
		if err != nil {
			return err
		}

		if Run == nil {
			return fmt.Errorf("cli: no Run handler registered")
		}
		return Run(Options{Config: &cfg, NoUI: cfg.NoUI(), Purge: purge})
	},
}

func confirmPurge(workDir string) bool {
	fmt.Fprintf(os.Stderr, "this will delete %s and all crawl state. continue? [y/N] ", workDir)
	reader := bufio.NewReader(os.Stdin)
	answer, _ := reader.ReadString('\n')
	return answer == "y\n" || answer == "Y\n"
}

// Execute runs the root command against os.Args. It is called once by
// cmd/crawler's main.
func Execute() error {
	return rootCmd.Execute()
}

// ExecuteArgs runs the root command against an explicit argument list,
// bypassing os.Args. Used by tests; cmd/crawler always calls Execute.
func ExecuteArgs(args []string) error {
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)
	return rootCmd.Execute()
}

func init() {
	rootCmd.Flags().IntVarP(&maxDepth, "depth", "d", 1, "maximum crawl depth")
	rootCmd.Flags().IntVarP(&maxAttempts, "attempts", "a", 2, "maximum fetch attempts per URL")
	rootCmd.Flags().BoolVar(&noUI, "no-ui", false, "run headless, without the terminal dashboard")
	rootCmd.Flags().BoolVarP(&errorInjection, "error-injection", "e", false, "enable synthetic error injection")
	rootCmd.Flags().BoolVarP(&purge, "purge", "p", false, "purge workdir before starting (prompts for confirmation)")
}
