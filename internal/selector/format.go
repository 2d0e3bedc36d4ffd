// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package selector

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/pdiddy/shotgun-csp/pkg/types"
)

// FormatTable writes the shortlist as a human-readable table to w, followed
// by the run diagnostics.
func FormatTable(result types.RankedResult, w io.Writer) {
	if len(result.Entries) == 0 {
		fmt.Fprintln(w, "No candidates survived screening.")
	} else {
		fmt.Fprintf(w, "%-4s  %-14s  %-16s  %-3s  %-28s  %-9s  %s\n",
			"Rank", "Formula", "Spacegroup", "Z", "Source", "Energy", "Unc")
		fmt.Fprintln(w, strings.Repeat("-", 92))

		for _, entry := range result.Entries {
			p := entry.Candidate.Provenance
			fmt.Fprintf(w, "%-4d  %-14s  %-16s  %-3d  %-28s  %-9.4f  %.4f\n",
				entry.Rank,
				formulaLabel(entry.Candidate.Structure),
				spaceGroupLabel(p),
				p.FormulaUnits,
				truncate(sourceLabel(p), 28),
				entry.Candidate.Energy,
				entry.Candidate.Uncertainty)
		}
	}

	fmt.Fprintf(w, "\n%d of %d candidates ranked", len(result.Entries), result.Considered)
	if result.DuplicatesRemoved > 0 {
		fmt.Fprintf(w, " (%d duplicates removed)", result.DuplicatesRemoved)
	}
	if n := result.Dropped.Total(); n > 0 {
		fmt.Fprintf(w, ", %d dropped", n)
	}
	if result.Partial {
		fmt.Fprint(w, " [partial]")
	}
	fmt.Fprintln(w)
	for _, msg := range result.GeneratorErrors {
		fmt.Fprintf(w, "warning: generator %s\n", msg)
	}
}

// FormatJSON writes the full result, diagnostics included, as indented JSON.
func FormatJSON(result types.RankedResult, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func formulaLabel(s *types.Structure) string {
	if s == nil {
		return "?"
	}
	comp, err := s.Composition()
	if err != nil {
		return "?"
	}
	return comp.Formula()
}

func spaceGroupLabel(p types.Provenance) string {
	switch {
	case p.SpaceGroupSymbol != "" && p.SpaceGroupNumber > 0:
		return fmt.Sprintf("%s (%d)", p.SpaceGroupSymbol, p.SpaceGroupNumber)
	case p.SpaceGroupNumber > 0:
		return fmt.Sprintf("(%d)", p.SpaceGroupNumber)
	default:
		return "-"
	}
}

func sourceLabel(p types.Provenance) string {
	switch p.Generator {
	case types.GeneratorSubstitution:
		if p.TemplateID != "" {
			return p.Generator + " " + p.TemplateID
		}
	case types.GeneratorWyckoff:
		if len(p.WyckoffLetters) > 0 {
			return p.Generator + " " + strings.Join(p.WyckoffLetters, ",")
		}
	}
	return p.Generator
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
