// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package generator

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/shotgun-csp/internal/crystal"
	"github.com/pdiddy/shotgun-csp/pkg/types"
)

// maxAssignmentsPerGroup bounds the Wyckoff assignments enumerated for one
// (space group, cell size) pair, so combinatorially rich groups cannot starve
// the rest of the table.
const maxAssignmentsPerGroup = 64

// Wyckoff builds candidates from symmetry alone: it enumerates assignments of
// the target atoms onto Wyckoff positions of curated space groups, then
// samples cell shapes and free coordinates until the geometry clears the
// minimum-distance gate. Covers compositions the template library has no
// precedent for. Implements: prd004-generation (R3.6-R3.9).
type Wyckoff struct {
	cfg types.WyckoffConfig
	log *zap.Logger
}

// NewWyckoff returns a Wyckoff-construction generator. A nil logger disables
// logging.
func NewWyckoff(cfg types.WyckoffConfig, log *zap.Logger) *Wyckoff {
	if log == nil {
		log = zap.NewNop()
	}
	return &Wyckoff{cfg: cfg, log: log}
}

// Name implements Generator.
func (g *Wyckoff) Name() string { return types.GeneratorWyckoff }

// Generate emits at most one candidate per (cell size, space group,
// assignment) triple, iterating cell sizes from one formula unit upward so
// small cells fill the cap first. Every random draw comes from a stream keyed
// by the assignment signature, so a candidate's geometry does not depend on
// how many other assignments were enumerated before it.
func (g *Wyckoff) Generate(ctx context.Context, query Query) ([]types.Candidate, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}
	elems, counts, _, err := query.Composition.ReducedCounts()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}

	limit := query.MaxCandidates
	if limit <= 0 {
		limit = g.cfg.MaxCandidates
	}

	var out []types.Candidate
	for z := 1; z <= g.cfg.MaxFormulaUnits && len(out) < limit; z++ {
		needed := make([]int, len(counts))
		for i, c := range counts {
			needed[i] = c * z
		}
		for _, sg := range Groups() {
			if err := ctx.Err(); err != nil {
				return out, err
			}
			if len(out) >= limit {
				break
			}
			for _, asg := range enumerateAssignments(sg, needed, maxAssignmentsPerGroup) {
				cand, ok := g.place(sg, asg, elems, query, z)
				if ok {
					out = append(out, cand)
				}
				if len(out) >= limit {
					break
				}
			}
		}
	}
	for i := range out {
		out[i].Provenance.Index = i
	}
	g.log.Debug("wyckoff generation done",
		zap.String("composition", query.Composition.Formula()),
		zap.Int("candidates", len(out)))
	return out, nil
}

// assignment lists, per element (in sorted-element order), the indices of the
// Wyckoff positions its atoms occupy. Indices within an element are
// non-decreasing, which makes each multiset of positions appear exactly once.
type assignment [][]int

// enumerateAssignments returns up to limit assignments whose multiplicities
// sum exactly to needed for every element. Positions with no free parameters
// pin atoms to exact coordinates, so they are occupied at most once across
// the whole structure; free positions may recur with fresh parameters.
func enumerateAssignments(sg SpaceGroup, needed []int, limit int) []assignment {
	var results []assignment
	current := make(assignment, len(needed))
	usedFixed := make([]bool, len(sg.Positions))

	var rec func(elem, remaining, minIdx int) bool
	rec = func(elem, remaining, minIdx int) bool {
		if remaining == 0 {
			if elem == len(needed)-1 {
				cp := make(assignment, len(current))
				for i, ps := range current {
					cp[i] = append([]int(nil), ps...)
				}
				results = append(results, cp)
				return len(results) < limit
			}
			return rec(elem+1, needed[elem+1], 0)
		}
		for i := minIdx; i < len(sg.Positions); i++ {
			p := sg.Positions[i]
			if p.Multiplicity > remaining {
				continue
			}
			if p.DOF == 0 && usedFixed[i] {
				continue
			}
			if p.DOF == 0 {
				usedFixed[i] = true
			}
			current[elem] = append(current[elem], i)
			next := i
			if p.DOF == 0 {
				next = i + 1
			}
			ok := rec(elem, remaining-p.Multiplicity, next)
			current[elem] = current[elem][:len(current[elem])-1]
			if p.DOF == 0 {
				usedFixed[i] = false
			}
			if !ok {
				return false
			}
		}
		return true
	}
	rec(0, needed[0], 0)
	return results
}

// place realizes one assignment as a concrete structure. It retries with
// fresh cell shapes and coordinates up to the configured attempt budget and
// reports ok=false when every attempt fails the minimum-distance gate.
func (g *Wyckoff) place(sg SpaceGroup, asg assignment, elems []string, query Query, z int) (types.Candidate, bool) {
	cellVolume := query.Volume * float64(z)
	sig := assignmentSignature(sg, asg, elems, z)

	var letters []string
	for _, positions := range asg {
		for _, pi := range positions {
			letters = append(letters, sg.Positions[pi].Letter)
		}
	}

	for attempt := 0; attempt < g.cfg.PlacementAttempts; attempt++ {
		rng := stream(query.Seed, "wyckoff", sig, strconv.Itoa(attempt))
		lattice, err := sampleLattice(sg.System, cellVolume, rng)
		if err != nil {
			continue
		}
		var (
			sites       []types.Site
			siteLetters []string
		)
		for ei, positions := range asg {
			for _, pi := range positions {
				p := sg.Positions[pi]
				var params [3]float64
				for d := 0; d < p.DOF; d++ {
					params[d] = rng.Float64()
				}
				for _, frac := range sg.Expand(p, params[0], params[1], params[2]) {
					sites = append(sites, types.Site{Species: elems[ei], Frac: frac})
					siteLetters = append(siteLetters, p.Letter)
				}
			}
		}
		s, err := types.NewStructure(lattice, sites)
		if err != nil {
			continue
		}
		s.SpaceGroupNumber = sg.Number
		s.SpaceGroupSymbol = sg.Symbol
		s.Wyckoff = siteLetters
		ok, err := crystal.MinDistanceOK(s, g.cfg.MinDistanceFactor)
		if err != nil || !ok {
			continue
		}
		return types.Candidate{
			Structure: s,
			Provenance: types.Provenance{
				Generator:        types.GeneratorWyckoff,
				SpaceGroupNumber: sg.Number,
				SpaceGroupSymbol: sg.Symbol,
				WyckoffLetters:   letters,
				FormulaUnits:     z,
			},
		}, true
	}
	return types.Candidate{}, false
}

// assignmentSignature renders an assignment as a stable string for keying the
// per-assignment random stream, e.g. "sg225|z1|Cl:4b|Na:4a".
func assignmentSignature(sg SpaceGroup, asg assignment, elems []string, z int) string {
	parts := make([]string, 0, len(asg)+2)
	parts = append(parts, "sg"+strconv.Itoa(sg.Number), "z"+strconv.Itoa(z))
	for ei, positions := range asg {
		letters := make([]string, len(positions))
		for i, pi := range positions {
			letters[i] = sg.Positions[pi].Letter
		}
		parts = append(parts, elems[ei]+":"+strings.Join(letters, ","))
	}
	return strings.Join(parts, "|")
}

// sampleLattice draws a cell of the given volume whose shape honors the
// crystal-system constraints. Axial ratios and free angles are drawn from
// ranges wide enough to cover common prototypes without producing needle
// cells that no placement could survive.
func sampleLattice(system System, volume float64, rng *rand.Rand) (types.Lattice, error) {
	span := func(lo, hi float64) float64 { return lo + (hi-lo)*rng.Float64() }

	var rb, rc, alpha, beta, gamma float64
	switch system {
	case Cubic:
		rb, rc, alpha, beta, gamma = 1, 1, 90, 90, 90
	case Tetragonal:
		rc = span(0.6, 1.8)
		rb, alpha, beta, gamma = 1, 90, 90, 90
	case Orthorhombic:
		rb = span(0.6, 1.4)
		rc = span(0.6, 1.8)
		alpha, beta, gamma = 90, 90, 90
	case Hexagonal, Trigonal:
		rc = span(0.6, 1.8)
		rb, alpha, beta, gamma = 1, 90, 90, 120
	case Monoclinic:
		rb = span(0.6, 1.5)
		rc = span(0.6, 1.5)
		beta = span(95, 130)
		alpha, gamma = 90, 90
	case Triclinic:
		rb = span(0.7, 1.4)
		rc = span(0.7, 1.4)
		alpha = span(75, 110)
		beta = span(75, 110)
		gamma = span(75, 110)
	default:
		return types.Lattice{}, fmt.Errorf("unknown crystal system %q", system)
	}

	unit, err := types.LatticeFromParameters(1, rb, rc, alpha, beta, gamma)
	if err != nil {
		return types.Lattice{}, err
	}
	return unit.ScaleToVolume(volume)
}
