// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/shotgun-csp/internal/library"
	"github.com/pdiddy/shotgun-csp/pkg/types"
)

var libraryCmd = &cobra.Command{
	Use:   "library",
	Short: "Manage the template library (import, list, stats)",
	Long: `Library manages the local SQLite template store that the substitution
generator draws from. Use subcommands to import template YAML files, list
stored templates, or summarize the collection.`,
}

// --- import subcommand ---

var libraryImportCmd = &cobra.Command{
	Use:   "import <dir>",
	Short: "Import template YAML files into the library",
	Long: `Import reads every .yaml/.yml file in the given directory and upserts the
templates into the library. A template that fails validation is reported and
skipped; the rest of the file is still imported.`,
	Args: cobra.ExactArgs(1),
	RunE: runLibraryImport,
}

func runLibraryImport(cmd *cobra.Command, args []string) error {
	store, err := openLibrary(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	summary, err := store.ImportDir(cmd.Context(), args[0], os.Stdout)
	if err != nil {
		return err
	}
	fmt.Printf("Imported %d, replaced %d, failed %d\n",
		summary.Imported, summary.Replaced, summary.Failed)
	if summary.HasFailures() {
		return fmt.Errorf("%d template(s) failed to import", summary.Failed)
	}
	return nil
}

// --- list subcommand ---

var libraryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored templates",
	Long: `List prints the stored templates, optionally restricted to one anonymous
stoichiometric pattern (e.g. AB or AB2).`,
	RunE: runLibraryList,
}

func runLibraryList(cmd *cobra.Command, args []string) error {
	store, err := openLibrary(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	limit, _ := cmd.Flags().GetInt("limit")
	pattern, _ := cmd.Flags().GetString("pattern")

	var templates []types.Template
	if pattern != "" {
		templates, err = store.TemplatesByPattern(cmd.Context(), pattern, limit)
		if errors.Is(err, library.ErrNoTemplate) {
			fmt.Println("No templates found.")
			return nil
		}
	} else {
		templates, err = store.List(cmd.Context(), limit)
	}
	if err != nil {
		return err
	}
	if len(templates) == 0 {
		fmt.Println("No templates found.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-18s  %-16s  %-12s  %-16s  %s\n",
		"ID", "Prototype", "Formula", "Spacegroup", "Sites")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 74))
	for _, tmpl := range templates {
		formula := "?"
		if comp, err := tmpl.Structure.Composition(); err == nil {
			formula = comp.Formula()
		}
		sg := "-"
		if tmpl.SpaceGroupNumber > 0 {
			sg = fmt.Sprintf("%s (%d)", tmpl.SpaceGroupSymbol, tmpl.SpaceGroupNumber)
		}
		fmt.Fprintf(os.Stdout, "%-18s  %-16s  %-12s  %-16s  %d\n",
			truncateCell(tmpl.ID, 18), truncateCell(tmpl.Prototype, 16),
			formula, sg, tmpl.Structure.NumSites())
	}
	fmt.Fprintf(os.Stdout, "\n%d templates\n", len(templates))
	return nil
}

// --- stats subcommand ---

var libraryStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize the library contents",
	RunE:  runLibraryStats,
}

func runLibraryStats(cmd *cobra.Command, args []string) error {
	store, err := openLibrary(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	stats, err := store.Stats(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Printf("Templates: %d\n", stats.Templates)
	if len(stats.Patterns) > 0 {
		patterns := make([]string, 0, len(stats.Patterns))
		for p := range stats.Patterns {
			patterns = append(patterns, p)
		}
		sort.Strings(patterns)
		fmt.Println("\nBy pattern:")
		for _, p := range patterns {
			fmt.Printf("  %-8s  %d\n", p, stats.Patterns[p])
		}
	}
	return nil
}

// --- shared helpers ---

func openLibrary(cmd *cobra.Command) (*library.Store, error) {
	cfg := pipelineConfig()
	if v, _ := cmd.Flags().GetString("library"); v != "" {
		cfg.Library.Path = v
	}
	return library.Open(cfg.Library)
}

func truncateCell(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

func init() {
	// Shared flag on the parent command, inherited by subcommands.
	libraryCmd.PersistentFlags().String("library", "", "template library database path")

	// List flags.
	libraryListCmd.Flags().String("pattern", "", "filter by anonymous pattern (e.g. AB2)")
	libraryListCmd.Flags().Int("limit", 0, "maximum templates to list (0 = all)")

	// Wire subcommands.
	libraryCmd.AddCommand(libraryImportCmd)
	libraryCmd.AddCommand(libraryListCmd)
	libraryCmd.AddCommand(libraryStatsCmd)

	rootCmd.AddCommand(libraryCmd)
}
