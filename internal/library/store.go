// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package library persists the template library: known crystal structures
// indexed by their anonymous stoichiometric pattern so the substitution
// generator can shortlist scaffolds for a target composition.
// Implements: prd002-library (R1-R5);
//
//	docs/ARCHITECTURE § Template Library.
package library

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/shotgun-csp/pkg/types"
)

// ErrNoTemplate marks a pattern query that matched nothing, including
// queries against an empty library. Per prd002-library R2.4 callers treat it
// as "zero substitution candidates", never as a fatal failure.
var ErrNoTemplate = errors.New("no matching template")

const defaultMaxTemplates = 100

// Store manages the template library SQLite database.
type Store struct {
	db           *sql.DB
	maxTemplates int
}

// Open opens or creates the template library database at cfg.Path, creating
// the schema if it does not exist (R1.1, R1.2).
func Open(cfg types.LibraryConfig) (*Store, error) {
	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating library directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxTemplates := cfg.MaxTemplates
	if maxTemplates <= 0 {
		maxTemplates = defaultMaxTemplates
	}

	s := &Store{db: db, maxTemplates: maxTemplates}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS templates (
			id TEXT PRIMARY KEY,
			prototype TEXT,
			space_group_number INTEGER,
			space_group_symbol TEXT,
			pattern TEXT NOT NULL,
			num_elements INTEGER NOT NULL,
			num_sites INTEGER NOT NULL,
			lattice TEXT NOT NULL,
			sites TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_templates_pattern ON templates(pattern)`,
		`CREATE INDEX IF NOT EXISTS idx_templates_space_group ON templates(space_group_number)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Insert validates and stores one template. Inserting an ID that already
// exists replaces the stored entry (R1.4).
func (s *Store) Insert(ctx context.Context, tmpl types.Template) error {
	if tmpl.ID == "" {
		return fmt.Errorf("template has no id")
	}
	if tmpl.Structure == nil {
		return fmt.Errorf("template %s has no structure", tmpl.ID)
	}
	pattern, err := tmpl.Pattern()
	if err != nil {
		return fmt.Errorf("template %s: %w", tmpl.ID, err)
	}

	latticeJSON, err := json.Marshal(tmpl.Structure.Lattice)
	if err != nil {
		return fmt.Errorf("encoding lattice for %s: %w", tmpl.ID, err)
	}
	sitesJSON, err := json.Marshal(tmpl.Structure.Sites)
	if err != nil {
		return fmt.Errorf("encoding sites for %s: %w", tmpl.ID, err)
	}

	comp, err := tmpl.Structure.Composition()
	if err != nil {
		return fmt.Errorf("template %s: %w", tmpl.ID, err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO templates (id, prototype, space_group_number, space_group_symbol,
			pattern, num_elements, num_sites, lattice, sites)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			prototype=excluded.prototype, space_group_number=excluded.space_group_number,
			space_group_symbol=excluded.space_group_symbol, pattern=excluded.pattern,
			num_elements=excluded.num_elements, num_sites=excluded.num_sites,
			lattice=excluded.lattice, sites=excluded.sites`,
		tmpl.ID, tmpl.Prototype, tmpl.SpaceGroupNumber, tmpl.SpaceGroupSymbol,
		pattern, comp.NumElements(), tmpl.Structure.NumSites(),
		string(latticeJSON), string(sitesJSON),
	)
	if err != nil {
		return fmt.Errorf("inserting template %s: %w", tmpl.ID, err)
	}
	return nil
}

// TemplatesByPattern returns templates whose anonymous stoichiometric
// pattern equals pattern, ordered by prototype then ID so results are stable
// across runs (R2.3). A limit ≤ 0 falls back to the configured maximum.
// No match returns ErrNoTemplate (R2.4).
func (s *Store) TemplatesByPattern(ctx context.Context, pattern string, limit int) ([]types.Template, error) {
	if limit <= 0 {
		limit = s.maxTemplates
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, prototype, space_group_number, space_group_symbol, lattice, sites
		 FROM templates WHERE pattern = ?
		 ORDER BY prototype, id LIMIT ?`, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("querying templates: %w", err)
	}
	defer rows.Close()

	templates, err := scanTemplates(rows)
	if err != nil {
		return nil, err
	}
	if len(templates) == 0 {
		return nil, fmt.Errorf("%w: pattern %s", ErrNoTemplate, pattern)
	}
	return templates, nil
}

// List returns up to limit templates ordered by ID, for inspection tooling.
// A limit ≤ 0 falls back to the configured maximum.
func (s *Store) List(ctx context.Context, limit int) ([]types.Template, error) {
	if limit <= 0 {
		limit = s.maxTemplates
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, prototype, space_group_number, space_group_symbol, lattice, sites
		 FROM templates ORDER BY id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying templates: %w", err)
	}
	defer rows.Close()
	return scanTemplates(rows)
}

func scanTemplates(rows *sql.Rows) ([]types.Template, error) {
	var templates []types.Template
	for rows.Next() {
		var (
			tmpl        types.Template
			latticeJSON string
			sitesJSON   string
		)
		if err := rows.Scan(&tmpl.ID, &tmpl.Prototype, &tmpl.SpaceGroupNumber,
			&tmpl.SpaceGroupSymbol, &latticeJSON, &sitesJSON); err != nil {
			return nil, fmt.Errorf("scanning template: %w", err)
		}

		var lattice types.Lattice
		if err := json.Unmarshal([]byte(latticeJSON), &lattice); err != nil {
			return nil, fmt.Errorf("decoding lattice for %s: %w", tmpl.ID, err)
		}
		var sites []types.Site
		if err := json.Unmarshal([]byte(sitesJSON), &sites); err != nil {
			return nil, fmt.Errorf("decoding sites for %s: %w", tmpl.ID, err)
		}

		// Revalidate on the way out so a corrupted row cannot smuggle an
		// invalid structure into the pipeline.
		structure, err := types.NewStructure(lattice, sites)
		if err != nil {
			return nil, fmt.Errorf("template %s: %w", tmpl.ID, err)
		}
		structure.SpaceGroupNumber = tmpl.SpaceGroupNumber
		structure.SpaceGroupSymbol = tmpl.SpaceGroupSymbol
		tmpl.Structure = structure

		templates = append(templates, tmpl)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating templates: %w", err)
	}
	return templates, nil
}

// Stats summarizes the library contents (R5.2).
type Stats struct {
	// Templates is the total number of stored templates.
	Templates int

	// Patterns counts templates per anonymous stoichiometric pattern.
	Patterns map[string]int
}

// Stats returns library-wide counts for inspection tooling.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	out := Stats{Patterns: make(map[string]int)}

	if err := s.db.QueryRowContext(ctx,
		`SELECT count(*) FROM templates`).Scan(&out.Templates); err != nil {
		return Stats{}, fmt.Errorf("counting templates: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT pattern, count(*) FROM templates GROUP BY pattern`)
	if err != nil {
		return Stats{}, fmt.Errorf("counting patterns: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var pattern string
		var n int
		if err := rows.Scan(&pattern, &n); err != nil {
			return Stats{}, fmt.Errorf("scanning pattern count: %w", err)
		}
		out.Patterns[pattern] = n
	}
	if err := rows.Err(); err != nil {
		return Stats{}, fmt.Errorf("iterating pattern counts: %w", err)
	}
	return out, nil
}
