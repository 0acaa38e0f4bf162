package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mmjb/LoAT/internal/alg"
	"github.com/mmjb/LoAT/internal/asymp"
	"github.com/mmjb/LoAT/internal/parse"
	"github.com/mmjb/LoAT/internal/report"
	"github.com/mmjb/LoAT/pkg/complexity"
	"github.com/mmjb/LoAT/pkg/driver"
	"github.com/mmjb/LoAT/pkg/its"
)

// prove adapts internal/asymp.DetermineComplexity to pkg/complexity.Prover,
// the only wiring needed to break the import cycle the two packages would
// otherwise form (pkg/complexity/extract.go's doc comment explains why).
func prove(guard its.Guard, cost alg.Expr, final bool) complexity.ProveResult {
	r := asymp.DetermineComplexity(guard, cost, final)
	return complexity.ProveResult{Cpx: r.Cpx, ReducedCpx: r.ReducedCpx, Cost: r.Cost, Reason: r.Reason}
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze [flags] input_file",
	Short: "Analyze the worst-case runtime complexity of an integer transition system.",
	Long: `Parse an integer transition system from the CTS input dialect,
drive it to a fully simplified form (or as far as the configured time budget
allows), and report its worst-case asymptotic runtime complexity and a
closed-form bound.`,
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
		proof := report.NewProofLog()
		d.Rec = proof

		var result complexity.Result
		if d.Run(problem.Store) {
			result = complexity.GetMaxRuntime(problem.Store, prove, d.Signal, cfg.FinalInfinityCheck)
		} else {
			logger.Warn("soft or hard timeout reached before reaching a fully simplified store; falling back to a partial result")
			result = complexity.GetMaxPartialResult(problem.Store, prove, d.Signal, cfg.FinalInfinityCheck)
		}

		if result.Unsound {
			logger.Warn("final_infinity_check disabled: complexity reported is an unsound syntactic estimate, not a proved bound")
		}

		logger.Info("analysis complete",
			"complexity", result.Cpx.String(),
			"bound", result.Bound.String(),
			"reduced_complexity", result.ReducedCpx.String())

		if getFlag(cmd, "proof") {
			fmt.Println(proof.String())
		}
		if cfg.PrintSimplifiedAsInputFormat {
			fmt.Println(report.RenderCTS(problem.Store))
		}
		if cfg.DotOutput {
			fmt.Println(report.RenderDot(problem.Store, "final"))
		}
	},
}

func init() {
	analyzeCmd.Flags().Bool("proof", false, "print the stepwise simplification proof log")
	rootCmd.AddCommand(analyzeCmd)
}
