// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the shotgun-csp CLI.
// Implements: prd006-selection (CLI surface).
// See docs/ARCHITECTURE § Pipeline Interface, § Project Structure.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the shotgun-csp CLI.
var rootCmd = &cobra.Command{
	Use:   "shotgun-csp",
	Short: "Non-iterative crystal-structure candidate selection",
	Long: `shotgun-csp screens candidate crystal structures for a target composition
without iterative optimization: generate a wide pool of candidates from
library templates and Wyckoff-position enumeration, featurize each one,
score it with a surrogate energy model, and return a ranked shortlist.

Each pipeline area is a subcommand: select runs the full pipeline, library
manages the template store, estimate-volume guesses a cell volume for a
composition.`,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./shotgun-csp.yaml or ~/.config/shotgun-csp/config.yaml)")
	rootCmd.PersistentFlags().Bool("verbose", false, "enable debug logging to stderr")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("shotgun-csp")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "shotgun-csp"))
		}
	}

	viper.SetEnvPrefix("SHOTGUN_CSP")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// buildLogger returns the pipeline logger: silent by default, a development
// console logger on stderr with --verbose.
func buildLogger(cmd *cobra.Command) (*zap.Logger, error) {
	verbose, _ := cmd.Flags().GetBool("verbose")
	if !verbose {
		return zap.NewNop(), nil
	}
	return zap.NewDevelopment()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
