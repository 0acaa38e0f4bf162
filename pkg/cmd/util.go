package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/mmjb/LoAT/pkg/config"
)

// getFlag fetches an expected bool flag, exiting on the programmer error of
// a missing or mistyped flag name.
func getFlag(cmd *cobra.Command, flag string) bool {
	r, err := cmd.Flags().GetBool(flag)
	if err != nil {
		fmt.Println(err)
		os.Exit(2)
	}
	return r
}

func getString(cmd *cobra.Command, flag string) string {
	r, err := cmd.Flags().GetString(flag)
	if err != nil {
		fmt.Println(err)
		os.Exit(2)
	}
	return r
}

// loadConfig resolves the --config flag against pkg/config, falling back to
// config.DefaultConfig when the flag is unset.
func loadConfig(cmd *cobra.Command) config.AnalysisConfig {
	path := getString(cmd, "config")
	if path == "" {
		return config.DefaultConfig()
	}
	cfg, err := config.Load(path)
	if err != nil {
		fmt.Println(err)
		os.Exit(2)
	}
	return cfg
}

func readInputFile(filename string) string {
	data, err := os.ReadFile(filename)
	if err != nil {
		fmt.Println(err)
		os.Exit(2)
	}
	return string(data)
}

// newCLILogger builds the user-facing result printer: a tint-colored
// slog.Logger layered above the diagnostic logrus logging the driver and
// friends already do internally. Color is disabled automatically when
// stderr is not an interactive terminal (e.g. piped into a CI log).
func newCLILogger() *slog.Logger {
	return slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      slog.LevelInfo,
		TimeFormat: "15:04:05",
		NoColor:    !term.IsTerminal(int(os.Stderr.Fd())),
	}))
}
