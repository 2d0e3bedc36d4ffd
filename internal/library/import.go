// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/shotgun-csp/pkg/types"
)

// templateFile is the on-disk YAML layout for template imports. Cell
// parameters are given the way crystallographic data is published (lengths
// and angles) rather than as a raw matrix.
type templateFile struct {
	Templates []templateEntry `yaml:"templates"`
}

type templateEntry struct {
	ID               string        `yaml:"id"`
	Prototype        string        `yaml:"prototype"`
	SpaceGroupNumber int           `yaml:"space_group_number"`
	SpaceGroupSymbol string        `yaml:"space_group_symbol"`
	Lattice          latticeParams `yaml:"lattice"`
	Sites            []siteEntry   `yaml:"sites"`
}

type latticeParams struct {
	A     float64 `yaml:"a"`
	B     float64 `yaml:"b"`
	C     float64 `yaml:"c"`
	Alpha float64 `yaml:"alpha"`
	Beta  float64 `yaml:"beta"`
	Gamma float64 `yaml:"gamma"`
}

type siteEntry struct {
	Species string     `yaml:"species"`
	Frac    [3]float64 `yaml:"frac"`
	Wyckoff string     `yaml:"wyckoff,omitempty"`
}

// ParseTemplates decodes a template YAML document and validates every entry
// through the data-model constructors, so imported files cannot introduce
// invalid structures (R3.2).
func ParseTemplates(data []byte) ([]types.Template, error) {
	var file templateFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing template file: %w", err)
	}
	if len(file.Templates) == 0 {
		return nil, fmt.Errorf("template file has no templates")
	}

	out := make([]types.Template, 0, len(file.Templates))
	for i, entry := range file.Templates {
		if entry.ID == "" {
			return nil, fmt.Errorf("template %d has no id", i)
		}
		lp := entry.Lattice
		lattice, err := types.LatticeFromParameters(lp.A, lp.B, lp.C, lp.Alpha, lp.Beta, lp.Gamma)
		if err != nil {
			return nil, fmt.Errorf("template %s: %w", entry.ID, err)
		}

		sites := make([]types.Site, len(entry.Sites))
		wyckoff := make([]string, 0, len(entry.Sites))
		haveWyckoff := false
		for j, se := range entry.Sites {
			sites[j] = types.Site{Species: se.Species, Frac: se.Frac}
			wyckoff = append(wyckoff, se.Wyckoff)
			if se.Wyckoff != "" {
				haveWyckoff = true
			}
		}

		structure, err := types.NewStructure(lattice, sites)
		if err != nil {
			return nil, fmt.Errorf("template %s: %w", entry.ID, err)
		}
		structure.SpaceGroupNumber = entry.SpaceGroupNumber
		structure.SpaceGroupSymbol = entry.SpaceGroupSymbol
		if haveWyckoff {
			structure.Wyckoff = wyckoff
		}

		out = append(out, types.Template{
			ID:               entry.ID,
			Prototype:        entry.Prototype,
			SpaceGroupNumber: entry.SpaceGroupNumber,
			SpaceGroupSymbol: entry.SpaceGroupSymbol,
			Structure:        structure,
		})
	}
	return out, nil
}

// ImportSummary holds counts from a library import run (R3.4).
type ImportSummary struct {
	Imported int
	Replaced int
	Failed   int
}

// Total returns the number of templates processed.
func (s ImportSummary) Total() int {
	return s.Imported + s.Replaced + s.Failed
}

// HasFailures reports whether any template failed to import.
func (s ImportSummary) HasFailures() bool {
	return s.Failed > 0
}

// ImportDir reads every .yaml/.yml file in dir and inserts the templates it
// finds. Files are processed in name order; a file or template that fails
// validation is reported to w and skipped without aborting the rest
// (R3.1-R3.4).
func (s *Store) ImportDir(ctx context.Context, dir string, w io.Writer) (ImportSummary, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ImportSummary{}, fmt.Errorf("reading template directory %s: %w", dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if ext := filepath.Ext(entry.Name()); ext != ".yaml" && ext != ".yml" {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	var summary ImportSummary
	for _, name := range names {
		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", name, err)
			summary.Failed++
			continue
		}
		templates, err := ParseTemplates(data)
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", name, err)
			summary.Failed++
			continue
		}

		for _, tmpl := range templates {
			replacing, err := s.exists(ctx, tmpl.ID)
			if err != nil {
				fmt.Fprintf(w, "failed  %s: %v\n", tmpl.ID, err)
				summary.Failed++
				continue
			}
			if err := s.Insert(ctx, tmpl); err != nil {
				fmt.Fprintf(w, "failed  %s: %v\n", tmpl.ID, err)
				summary.Failed++
				continue
			}
			if replacing {
				fmt.Fprintf(w, "replaced %s (%s)\n", tmpl.ID, strings.TrimSpace(tmpl.Prototype))
				summary.Replaced++
			} else {
				fmt.Fprintf(w, "imported %s (%s)\n", tmpl.ID, strings.TrimSpace(tmpl.Prototype))
				summary.Imported++
			}
		}
	}

	fmt.Fprintf(w, "\nimported: %d, replaced: %d, failed: %d\n",
		summary.Imported, summary.Replaced, summary.Failed)
	return summary, nil
}

func (s *Store) exists(ctx context.Context, id string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM templates WHERE id = ?`, id).Scan(&one)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, sql.ErrNoRows):
		return false, nil
	default:
		return false, fmt.Errorf("checking template %s: %w", id, err)
	}
}
