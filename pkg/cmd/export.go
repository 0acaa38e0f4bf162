package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mmjb/LoAT/internal/parse"
	"github.com/mmjb/LoAT/internal/report"
	"github.com/mmjb/LoAT/pkg/driver"
)

var exportCmd = &cobra.Command{
	Use:   "export [flags] input_file",
	Short: "Simplify an integer transition system and re-emit it.",
	Long: `Parse and simplify an integer transition system as far as the
configured time budget allows, then print the resulting store either as a
CTS-style rule listing or as a Graphviz dot graph, without computing a
complexity bound.`,
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) < 1 {
			fmt.Println(cmd.UsageString())
			os.Exit(1)
		}
		logger := newCLILogger()

		src := readInputFile(args[0])
		problem, err := parse.Parse(src)
		if err != nil {
			logger.Error("failed to parse input", "error", err)
			os.Exit(2)
		}

		cfg := loadConfig(cmd)
		d := driver.New(cfg)
		if !d.Run(problem.Store) {
			logger.Warn("soft or hard timeout reached; exporting the partially simplified store")
		}

		switch getString(cmd, "format") {
		case "dot":
			fmt.Println(report.RenderDot(problem.Store, "export"))
		case "cts", "":
			fmt.Println(report.RenderCTS(problem.Store))
		default:
			logger.Error("unknown export format", "format", getString(cmd, "format"))
			os.Exit(2)
		}
	},
}

func init() {
	exportCmd.Flags().String("format", "cts", `output format: "cts" or "dot"`)
	rootCmd.AddCommand(exportCmd)
}
