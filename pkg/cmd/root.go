// Package cmd wires the analyzer into a cobra CLI: a root command carrying
// the shared verbosity/config flags, and one subcommand per top-level
// operation (analyze, export).
package cmd

import (
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// Version is filled in via -ldflags ("-X") at build time; it is left empty
// for a plain "go build", "go install" or "go run".
var Version string

var rootCmd = &cobra.Command{
	Use:   "loat",
	Short: "A complexity analyzer for integer transition systems.",
	Long: `loat parses an integer transition system given in the CTS input
dialect, simplifies it through loop acceleration and chaining, and reports
its worst-case asymptotic runtime (and, for the underlying cost measure,
size) complexity.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if getFlag(cmd, "verbose") {
			log.SetLevel(log.DebugLevel)
		}
	},
}

// Execute runs the root command. Called once from cmd/loat/main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "increase logging verbosity")
	rootCmd.PersistentFlags().String("config", "", "path to a YAML analysis configuration file (see pkg/config.AnalysisConfig)")
}
