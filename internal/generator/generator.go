// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package generator produces candidate crystal structures for a target
// composition. Two generators implement the same interface per the Strategy
// pattern: substitution derives candidates from library templates, wyckoff
// builds them from symmetry constraints. Implements: prd004-generation
// (R1-R5);
//
//	docs/ARCHITECTURE § Generators.
package generator

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"math"
	"math/rand/v2"

	"github.com/pdiddy/shotgun-csp/internal/elements"
	"github.com/pdiddy/shotgun-csp/pkg/types"
)

// ErrInvalidQuery marks a malformed generation query. Unlike per-candidate
// failures, an invalid query aborts the run before any work starts (R1.2).
var ErrInvalidQuery = errors.New("invalid query")

// Query asks a generator for candidates realizing Composition at the
// predicted volume. Volume is Å³ per formula unit of the reduced
// composition; generators building multi-unit cells scale it up (R1.1).
type Query struct {
	// Composition is the target composition. It must reduce to integer
	// stoichiometry.
	Composition types.Composition

	// Volume is the predicted volume of one reduced formula unit, in Å³.
	Volume float64

	// MaxCandidates caps this generator's output; 0 uses the generator's
	// configured cap.
	MaxCandidates int

	// Seed drives every stochastic choice. Equal queries with equal seeds
	// produce identical candidates (R1.4).
	Seed uint64
}

// Validate checks the query. Violations return an error wrapping
// ErrInvalidQuery.
func (q Query) Validate() error {
	if q.Composition.IsZero() {
		return fmt.Errorf("%w: empty composition", ErrInvalidQuery)
	}
	for _, symbol := range q.Composition.Elements() {
		if !elements.Known(symbol) {
			return fmt.Errorf("%w: unknown element %s", ErrInvalidQuery, symbol)
		}
	}
	if _, _, _, err := q.Composition.ReducedCounts(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}
	if math.IsNaN(q.Volume) || math.IsInf(q.Volume, 0) || q.Volume <= 0 {
		return fmt.Errorf("%w: volume %v must be positive", ErrInvalidQuery, q.Volume)
	}
	if q.MaxCandidates < 0 {
		return fmt.Errorf("%w: max candidates %d must be ≥ 0", ErrInvalidQuery, q.MaxCandidates)
	}
	return nil
}

// Generator produces candidate structures for a query. Implementations are
// deterministic given the query seed, emit at most the configured number of
// candidates, and return the candidates produced so far together with
// ctx.Err() when cancelled (R1.3-R1.5). An unsatisfiable query yields an
// empty slice and a nil error.
type Generator interface {
	Name() string
	Generate(ctx context.Context, query Query) ([]types.Candidate, error)
}

// Library provides read access to the template library. The substitution
// generator treats a library.ErrNoTemplate result as "zero candidates".
type Library interface {
	TemplatesByPattern(ctx context.Context, pattern string, limit int) ([]types.Template, error)
}

// stream returns a deterministic random stream for the given labels under
// seed. Distinct labels yield independent streams, so candidates keep their
// coordinates regardless of how many other candidates a run enumerates.
func stream(seed uint64, labels ...string) *rand.Rand {
	h := fnv.New64a()
	for _, label := range labels {
		h.Write([]byte(label))
		h.Write([]byte{0})
	}
	return rand.New(rand.NewPCG(seed, h.Sum64()))
}
