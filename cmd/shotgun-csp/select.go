// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/shotgun-csp/internal/descriptor"
	"github.com/pdiddy/shotgun-csp/internal/library"
	"github.com/pdiddy/shotgun-csp/internal/predictor"
	"github.com/pdiddy/shotgun-csp/internal/screen"
	"github.com/pdiddy/shotgun-csp/internal/selector"
	"github.com/pdiddy/shotgun-csp/pkg/types"
)

var selectCmd = &cobra.Command{
	Use:   "select [formula]",
	Short: "Run the selection pipeline for a target composition",
	Long: `Select generates candidate structures for the target composition with the
template-substitution and Wyckoff generators, screens them against the
energy model, and prints the ranked shortlist.

Without --volume the target cell volume is estimated from covalent radii.
Without --model a packing-fraction heuristic stands in for a trained
predictor.`,
	RunE: runSelect,
}

func runSelect(cmd *cobra.Command, args []string) error {
	formulaArg, _ := cmd.Flags().GetString("formula")
	if formulaArg == "" && len(args) > 0 {
		formulaArg = args[0]
	}
	if formulaArg == "" {
		return fmt.Errorf("formula required: pass --formula or a positional argument")
	}
	comp, err := types.ParseFormula(formulaArg)
	if err != nil {
		return err
	}

	cfg := pipelineConfig()
	applySelectFlags(cmd, &cfg)

	volume, _ := cmd.Flags().GetFloat64("volume")
	if volume <= 0 {
		volume, err = selector.EstimateVolume(comp)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Estimated cell volume: %.1f Å³ per formula unit\n", volume)
	}

	log, err := buildLogger(cmd)
	if err != nil {
		return err
	}
	defer log.Sync()

	lib, err := library.Open(cfg.Library)
	if err != nil {
		return err
	}
	defer lib.Close()

	pred, err := buildPredictor(cfg)
	if err != nil {
		return err
	}

	sel := selector.New(lib, pred, cfg, log)
	result, err := sel.Select(cmd.Context(), comp, volume)
	if err != nil {
		return err
	}

	if out, _ := cmd.Flags().GetString("out"); out != "" {
		if err := writeResultYAML(out, result); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Wrote shortlist to %s\n", out)
	}

	if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
		return selector.FormatJSON(result, os.Stdout)
	}
	selector.FormatTable(result, os.Stdout)
	return nil
}

// applySelectFlags overrides config values with explicitly set flags.
func applySelectFlags(cmd *cobra.Command, cfg *types.PipelineConfig) {
	if cmd.Flags().Changed("seed") {
		seed, _ := cmd.Flags().GetUint64("seed")
		cfg.Substitution.Seed = seed
		cfg.Wyckoff.Seed = seed
	}
	if v, _ := cmd.Flags().GetInt("shortlist"); v > 0 {
		cfg.Screen.ShortlistSize = v
	}
	if v, _ := cmd.Flags().GetInt("max-candidates"); v > 0 {
		cfg.Substitution.MaxCandidates = v
		cfg.Wyckoff.MaxCandidates = v
	}
	if v, _ := cmd.Flags().GetString("library"); v != "" {
		cfg.Library.Path = v
	}
	if v, _ := cmd.Flags().GetString("model"); v != "" {
		cfg.Predictor.ModelPath = v
	}
}

// buildPredictor loads the configured model artifact, or falls back to the
// packing-fraction heuristic when none is configured.
func buildPredictor(cfg types.PipelineConfig) (screen.Predictor, error) {
	extractor := descriptor.NewExtractor()
	if cfg.Predictor.ModelPath == "" {
		fmt.Fprintln(os.Stderr, "No model configured; scoring with the packing-fraction heuristic.")
		return predictor.NewHeuristic(extractor.FeatureNames())
	}
	model, err := predictor.Load(cfg.Predictor.ModelPath)
	if err != nil {
		return nil, err
	}
	if model.FeatureCount() != extractor.Length() {
		return nil, fmt.Errorf("model expects %d features, descriptor produces %d",
			model.FeatureCount(), extractor.Length())
	}
	return model, nil
}

func writeResultYAML(path string, result types.RankedResult) error {
	data, err := yaml.Marshal(result)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func init() {
	selectCmd.Flags().String("formula", "", "target composition (e.g. NaCl, SrTiO3)")
	selectCmd.Flags().Float64("volume", 0, "target cell volume in Å³ per formula unit (0 = estimate)")
	selectCmd.Flags().Int("shortlist", 0, "shortlist size (0 = config default)")
	selectCmd.Flags().Uint64("seed", 1, "generation seed")
	selectCmd.Flags().Int("max-candidates", 0, "per-generator candidate cap (0 = config default)")
	selectCmd.Flags().String("library", "", "template library database path")
	selectCmd.Flags().String("model", "", "energy-model artifact (YAML)")
	selectCmd.Flags().Bool("json", false, "output the full result as JSON")
	selectCmd.Flags().String("out", "", "also write the result to a YAML file")

	rootCmd.AddCommand(selectCmd)
}
