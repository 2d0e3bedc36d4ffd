// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package generator

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/pdiddy/shotgun-csp/internal/crystal"
	"github.com/pdiddy/shotgun-csp/internal/elements"
	"github.com/pdiddy/shotgun-csp/internal/library"
	"github.com/pdiddy/shotgun-csp/pkg/types"
)

// Substitution derives candidates by replacing the species of isostructural
// library templates with the target elements and rescaling the cell to the
// target volume. Implements: prd004-generation (R3.3-R3.5).
type Substitution struct {
	lib Library
	cfg types.SubstitutionConfig
	log *zap.Logger
}

// NewSubstitution returns a substitution generator reading templates from
// lib. A nil logger disables logging.
func NewSubstitution(lib Library, cfg types.SubstitutionConfig, log *zap.Logger) *Substitution {
	if log == nil {
		log = zap.NewNop()
	}
	return &Substitution{lib: lib, cfg: cfg, log: log}
}

// Name implements Generator.
func (g *Substitution) Name() string { return types.GeneratorSubstitution }

// Generate emits one candidate per accepted (template, mapping) pair, in
// library order with mappings enumerated lexicographically. An empty library
// result is not an error: the Wyckoff generator covers compositions without
// isostructural precedent.
func (g *Substitution) Generate(ctx context.Context, query Query) ([]types.Candidate, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}
	pattern, err := query.Composition.AnonymousPattern()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}
	templates, err := g.lib.TemplatesByPattern(ctx, pattern, g.cfg.MaxTemplates)
	if errors.Is(err, library.ErrNoTemplate) {
		g.log.Debug("no templates for pattern", zap.String("pattern", pattern))
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query templates: %w", err)
	}
	targetElems, targetCounts, _, err := query.Composition.ReducedCounts()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}

	limit := query.MaxCandidates
	if limit <= 0 {
		limit = g.cfg.MaxCandidates
	}

	var out []types.Candidate
	for _, tmpl := range templates {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		if len(out) >= limit {
			break
		}
		candidates, err := g.expand(tmpl, targetElems, targetCounts, query, limit-len(out))
		if err != nil {
			// A malformed template must not sink the others.
			g.log.Warn("skipping template",
				zap.String("template", tmpl.ID),
				zap.Error(err))
			continue
		}
		out = append(out, candidates...)
	}
	for i := range out {
		out[i].Provenance.Index = i
	}
	g.log.Debug("substitution generation done",
		zap.String("pattern", pattern),
		zap.Int("templates", len(templates)),
		zap.Int("candidates", len(out)))
	return out, nil
}

// expand emits up to limit candidates from one template, one per species
// mapping that passes the radius and minimum-distance gates.
func (g *Substitution) expand(tmpl types.Template, targetElems []string, targetCounts []int, query Query, limit int) ([]types.Candidate, error) {
	comp, err := tmpl.Structure.Composition()
	if err != nil {
		return nil, err
	}
	tmplElems, tmplCounts, _, err := comp.ReducedCounts()
	if err != nil {
		return nil, err
	}
	var (
		out      []types.Candidate
		buildErr error
	)
	forEachMapping(tmplElems, tmplCounts, targetElems, targetCounts, func(mapping map[string]string) bool {
		if !g.radiusOK(mapping) {
			return true
		}
		cand, ok, err := g.build(tmpl, mapping, query)
		if err != nil {
			buildErr = err
			return false
		}
		if ok {
			out = append(out, cand)
		}
		return len(out) < limit
	})
	if buildErr != nil {
		return nil, buildErr
	}
	return out, nil
}

// radiusOK accepts a mapping when every substituted pair keeps the relative
// covalent-radius mismatch |r_new-r_old|/r_old within the tolerance. Pairs
// with an untabulated radius on either side are accepted.
func (g *Substitution) radiusOK(mapping map[string]string) bool {
	for from, to := range mapping {
		rOld, okOld := elements.CovalentRadius(from)
		rNew, okNew := elements.CovalentRadius(to)
		if !okOld || !okNew {
			continue
		}
		if mismatch := (rNew - rOld) / rOld; mismatch > g.cfg.RadiusTolerance || mismatch < -g.cfg.RadiusTolerance {
			return false
		}
	}
	return true
}

// build applies mapping to the template, rescales the cell to the target
// volume, and gates on the minimum interatomic distance. ok is false when the
// geometry is rejected.
func (g *Substitution) build(tmpl types.Template, mapping map[string]string, query Query) (types.Candidate, bool, error) {
	substituted := tmpl.Structure.Copy()
	for i := range substituted.Sites {
		to, found := mapping[substituted.Sites[i].Species]
		if !found {
			return types.Candidate{}, false, fmt.Errorf("template %s: species %s not covered by mapping", tmpl.ID, substituted.Sites[i].Species)
		}
		substituted.Sites[i].Species = to
	}
	z, ok := substituted.FormulaUnits(query.Composition)
	if !ok {
		return types.Candidate{}, false, nil
	}
	lattice, err := substituted.Lattice.ScaleToVolume(query.Volume * float64(z))
	if err != nil {
		return types.Candidate{}, false, err
	}
	scaled := substituted.WithLattice(lattice)
	distOK, err := crystal.MinDistanceOK(scaled, g.cfg.MinDistanceFactor)
	if err != nil {
		return types.Candidate{}, false, err
	}
	if !distOK {
		return types.Candidate{}, false, nil
	}
	return types.Candidate{
		Structure: scaled,
		Provenance: types.Provenance{
			Generator:        types.GeneratorSubstitution,
			TemplateID:       tmpl.ID,
			Prototype:        tmpl.Prototype,
			Mapping:          mapping,
			SpaceGroupNumber: tmpl.SpaceGroupNumber,
			SpaceGroupSymbol: tmpl.SpaceGroupSymbol,
			FormulaUnits:     z,
		},
	}, true, nil
}

// forEachMapping enumerates every bijection from template species to target
// species that preserves per-species reduced counts, in lexicographic order
// of the assigned target species. yield returning false stops the
// enumeration. Nothing is yielded when the count multisets differ.
func forEachMapping(fromElems []string, fromCounts []int, toElems []string, toCounts []int, yield func(map[string]string) bool) {
	if len(fromElems) != len(toElems) {
		return
	}
	groupsFrom := groupByCount(fromElems, fromCounts)
	groupsTo := groupByCount(toElems, toCounts)
	if len(groupsFrom) != len(groupsTo) {
		return
	}
	counts := make([]int, 0, len(groupsFrom))
	for c := range groupsFrom {
		if len(groupsFrom[c]) != len(groupsTo[c]) {
			return
		}
		counts = append(counts, c)
	}
	sort.Ints(counts)

	assign := make(map[string]string, len(fromElems))
	var rec func(gi int) bool
	rec = func(gi int) bool {
		if gi == len(counts) {
			mapping := make(map[string]string, len(assign))
			for k, v := range assign {
				mapping[k] = v
			}
			return yield(mapping)
		}
		from := groupsFrom[counts[gi]]
		return permute(groupsTo[counts[gi]], func(perm []string) bool {
			for i, f := range from {
				assign[f] = perm[i]
			}
			return rec(gi + 1)
		})
	}
	rec(0)
}

// groupByCount buckets element symbols by their reduced count. Symbols keep
// their (already sorted) input order within each bucket.
func groupByCount(elems []string, counts []int) map[int][]string {
	m := make(map[int][]string)
	for i, e := range elems {
		m[counts[i]] = append(m[counts[i]], e)
	}
	return m
}

// permute calls yield with every permutation of items, in lexicographic order
// for sorted input. yield returning false stops the enumeration; permute
// reports whether it ran to completion. The slice passed to yield is reused
// between calls.
func permute(items []string, yield func([]string) bool) bool {
	n := len(items)
	used := make([]bool, n)
	perm := make([]string, 0, n)
	var rec func() bool
	rec = func() bool {
		if len(perm) == n {
			return yield(perm)
		}
		for i := 0; i < n; i++ {
			if used[i] {
				continue
			}
			used[i] = true
			perm = append(perm, items[i])
			if !rec() {
				return false
			}
			perm = perm[:len(perm)-1]
			used[i] = false
		}
		return true
	}
	return rec()
}
