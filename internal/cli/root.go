package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rileyhilliard/provmon/internal/ui"
	"github.com/spf13/cobra"
)

// Global flags
var (
	cfgFile string
	noColor bool
)

var rootCmd = &cobra.Command{
	Use:   "provmon",
	Short: "Monitor provider health across your machines",
	Long: `provmon polls the status endpoint of every configured machine,
summarizes how many providers are working, waiting or unknown, and shows
the fleet in a searchable, sortable dashboard.

Get started:
  provmon machines add --name "Geode 0" --url http://10.0.0.5:8080/providers
  provmon dashboard

Try it without real machines:
  provmon demo-endpoint --addr :8080 &
  provmon machines add --name Demo --url http://localhost:8080/providers`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if noColor {
			ui.DisableColors()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "settings file (default: search for .provmon.yaml)")
	rootCmd.PersistentFlags().BoolVar(&machineMode, "json", false, "output JSON for scripts")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		reportError(os.Stdout, os.Stderr, err)
		os.Exit(1)
	}
}

// reportError prints err as a JSON envelope in machine mode, otherwise as
// the structured three-line message on stderr.
func reportError(stdout, stderr io.Writer, err error) {
	if machineMode {
		_ = WriteJSONFromError(stdout, err)
		return
	}

	if isUnknownCommandError(err) {
		fmt.Fprintf(stderr, "%s %s\n", ui.SymbolFail, err)
		if name := extractUnknownCommand(err); name != "" {
			if suggestions := rootCmd.SuggestionsFor(name); len(suggestions) > 0 {
				fmt.Fprintf(stderr, "\n  Did you mean: %s?\n", strings.Join(suggestions, ", "))
			}
		}
		fmt.Fprintln(stderr, "\n  Run 'provmon --help' for usage.")
		return
	}

	msg := err.Error()
	if !strings.HasPrefix(msg, ui.SymbolFail) {
		msg = ui.SymbolFail + " " + msg
	}
	fmt.Fprintln(stderr, strings.TrimRight(msg, "\n"))
}

// isUnknownCommandError reports cobra's usage errors for unknown commands
// and flags.
func isUnknownCommandError(err error) bool {
	msg := err.Error()
	return strings.HasPrefix(msg, "unknown command") ||
		strings.HasPrefix(msg, "unknown flag") ||
		strings.HasPrefix(msg, "unknown shorthand flag")
}

// extractUnknownCommand pulls the quoted name out of
// `unknown command "foo" for "provmon"`.
func extractUnknownCommand(err error) string {
	msg := err.Error()
	start := strings.Index(msg, `"`)
	if start < 0 {
		return ""
	}
	end := strings.Index(msg[start+1:], `"`)
	if end < 0 {
		return ""
	}
	return msg[start+1 : start+1+end]
}
