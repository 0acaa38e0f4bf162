package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommandRegistersSubcommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["analyze"])
	assert.True(t, names["export"])
}

func TestVerboseAndConfigArePersistentFlags(t *testing.T) {
	require.NotNil(t, rootCmd.PersistentFlags().Lookup("verbose"))
	require.NotNil(t, rootCmd.PersistentFlags().Lookup("config"))
}

func TestAnalyzeProofFlagDefaultsOff(t *testing.T) {
	f := analyzeCmd.Flags().Lookup("proof")
	require.NotNil(t, f)
	assert.Equal(t, "false", f.DefValue)
}

func TestExportFormatFlagDefaultsToCTS(t *testing.T) {
	f := exportCmd.Flags().Lookup("format")
	require.NotNil(t, f)
	assert.Equal(t, "cts", f.DefValue)
}
