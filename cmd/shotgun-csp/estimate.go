// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/shotgun-csp/internal/selector"
	"github.com/pdiddy/shotgun-csp/pkg/types"
)

var estimateVolumeCmd = &cobra.Command{
	Use:   "estimate-volume [formula]",
	Short: "Estimate a target cell volume for a composition",
	Long: `Estimate-volume guesses the cell volume for one reduced formula unit of the
composition from covalent sphere volumes. The figure seeds select --volume
when nothing better is known.`,
	RunE: runEstimateVolume,
}

func runEstimateVolume(cmd *cobra.Command, args []string) error {
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

	volume, err := selector.EstimateVolume(comp)
	if err != nil {
		return err
	}
	fmt.Printf("%s: %.1f Å³ per formula unit\n", comp.Formula(), volume)
	return nil
}

func init() {
	estimateVolumeCmd.Flags().String("formula", "", "target composition (e.g. NaCl, SrTiO3)")

	rootCmd.AddCommand(estimateVolumeCmd)
}
