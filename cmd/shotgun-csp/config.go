// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"github.com/spf13/viper"

	"github.com/pdiddy/shotgun-csp/pkg/types"
)

// pipelineConfig assembles the stage configuration: documented defaults,
// overlaid with values from the config file or SHOTGUN_CSP_* environment
// where set. Command flags override on top of this.
func pipelineConfig() types.PipelineConfig {
	cfg := types.DefaultConfig()

	if viper.IsSet("seed") {
		seed := viper.GetUint64("seed")
		cfg.Substitution.Seed = seed
		cfg.Wyckoff.Seed = seed
	}
	if v := viper.GetInt("max_candidates"); v > 0 {
		cfg.Substitution.MaxCandidates = v
		cfg.Wyckoff.MaxCandidates = v
	}
	if v := viper.GetFloat64("min_distance_factor"); v > 0 {
		cfg.Substitution.MinDistanceFactor = v
		cfg.Wyckoff.MinDistanceFactor = v
	}
	if v := viper.GetFloat64("radius_tolerance"); v > 0 {
		cfg.Substitution.RadiusTolerance = v
	}
	if v := viper.GetInt("max_templates"); v > 0 {
		cfg.Substitution.MaxTemplates = v
		cfg.Library.MaxTemplates = v
	}
	if v := viper.GetInt("max_formula_units"); v > 0 {
		cfg.Wyckoff.MaxFormulaUnits = v
	}
	if v := viper.GetInt("placement_attempts"); v > 0 {
		cfg.Wyckoff.PlacementAttempts = v
	}
	if v := viper.GetInt("shortlist"); v > 0 {
		cfg.Screen.ShortlistSize = v
	}
	if v := viper.GetFloat64("dedup_tolerance"); v > 0 {
		cfg.Screen.DedupTolerance = v
	}
	if v := viper.GetInt("workers"); v > 0 {
		cfg.Screen.Workers = v
	}
	if v := viper.GetDuration("predict_timeout"); v > 0 {
		cfg.Screen.PredictTimeout = v
	}
	if v := viper.GetString("library"); v != "" {
		cfg.Library.Path = v
	}
	if v := viper.GetString("model"); v != "" {
		cfg.Predictor.ModelPath = v
	}
	return cfg
}
