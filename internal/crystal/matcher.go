// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package crystal

import (
	"math"

	"github.com/pdiddy/shotgun-csp/pkg/types"
)

// Matcher decides whether two candidates are near-duplicates: same species
// counts and structure fingerprints within Tolerance of each other
// (Euclidean distance). Per prd005-screening R4.2 the fingerprint distance
// stands in for a full symmetry-aware comparison; with all candidates built
// at the same target volume it collapses re-origined, site-permuted, and
// trivially perturbed copies of the same structure while keeping genuinely
// different polymorphs apart.
type Matcher struct {
	// Tolerance is the fingerprint-distance threshold at or below which
	// two structures count as the same.
	Tolerance float64
}

// Equivalent reports whether a and b are near-duplicates, given their
// precomputed structure fingerprints fa and fb.
func (m Matcher) Equivalent(a, b *types.Structure, fa, fb []float64) bool {
	if len(fa) != len(fb) || len(fa) == 0 {
		return false
	}
	if !sameSpeciesCounts(a, b) {
		return false
	}
	return L2(fa, fb) <= m.Tolerance
}

func sameSpeciesCounts(a, b *types.Structure) bool {
	if len(a.Sites) != len(b.Sites) {
		return false
	}
	ca, cb := a.SpeciesCounts(), b.SpeciesCounts()
	if len(ca) != len(cb) {
		return false
	}
	for species, n := range ca {
		if cb[species] != n {
			return false
		}
	}
	return true
}

// L2 returns the Euclidean distance between two equal-length vectors.
func L2(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}
