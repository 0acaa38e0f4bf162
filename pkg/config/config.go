// Package config holds the YAML-loadable analysis configuration of spec.md
// §6: every knob is a plain field on a value struct passed explicitly to the
// driver, rather than a package-global singleton (DESIGN NOTES §9 — multiple
// independent analyses must be able to run in the same process), which is
// why this package, unlike some teacher-style config loaders, never reads
// into a shared `Global` variable.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// AnalysisConfig carries every configuration option of spec.md §6.
type AnalysisConfig struct {
	DoPreprocessing              bool `yaml:"do_preprocessing"`
	EliminateCostConstraints     bool `yaml:"eliminate_cost_constraints"`
	PrintSimplifiedAsInputFormat bool `yaml:"print_simplified_as_input_format"`
	DotOutput                    bool `yaml:"dot_output"`
	FinalInfinityCheck           bool `yaml:"final_infinity_check"`
	PruningEnable                bool `yaml:"pruning_enable"`
	MaxParallel                  int  `yaml:"max_parallel"`
	FreevarInstantiateMaxBounds  int  `yaml:"freevar_instantiate_maxbounds"`
	SoftTimeoutSecs              int  `yaml:"soft_timeout_secs"`
	HardTimeoutSecs              int  `yaml:"hard_timeout_secs"`
}

// DefaultConfig mirrors the original tool's defaults (spec.md §6): every
// soundness-affecting switch on, a generous instantiation bound, and a
// 60s/120s soft/hard timeout pair.
func DefaultConfig() AnalysisConfig {
	return AnalysisConfig{
		DoPreprocessing:              true,
		EliminateCostConstraints:     true,
		PrintSimplifiedAsInputFormat: false,
		DotOutput:                    false,
		FinalInfinityCheck:           true,
		PruningEnable:                true,
		MaxParallel:                  8,
		FreevarInstantiateMaxBounds:  4,
		SoftTimeoutSecs:              60,
		HardTimeoutSecs:              120,
	}
}

// Load reads and parses an AnalysisConfig from the YAML file at path,
// starting from DefaultConfig so that a partial file only overrides the
// fields it mentions.
func Load(path string) (AnalysisConfig, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: failed to read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: failed to parse %s: %w", path, err)
	}
	return cfg, nil
}

// Save marshals cfg as YAML to path.
func Save(cfg AnalysisConfig, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config: failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("config: failed to write %s: %w", path, err)
	}
	return nil
}
