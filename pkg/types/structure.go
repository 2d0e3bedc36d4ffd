// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"math"
)

// minLatticeVolume is the smallest cell volume (Å³) accepted as
// non-degenerate. Below this the basis vectors are treated as linearly
// dependent.
const minLatticeVolume = 1e-8

// Lattice holds the three cell basis vectors as rows of a 3×3 matrix, in
// Ångström. Lattice is a value type: transformations return a new Lattice
// and never mutate the receiver (R1.4).
type Lattice struct {
	// Matrix rows are the a, b, c basis vectors in Cartesian coordinates.
	Matrix [3][3]float64 `json:"matrix" yaml:"matrix"`
}

// NewLattice validates that the basis vectors span a cell of positive volume
// and that every component is finite. Violations return an error wrapping
// ErrInvalidStructure (R1.3).
func NewLattice(matrix [3][3]float64) (Lattice, error) {
	for i := range matrix {
		for j := range matrix[i] {
			if math.IsNaN(matrix[i][j]) || math.IsInf(matrix[i][j], 0) {
				return Lattice{}, fmt.Errorf("%w: non-finite lattice component at [%d][%d]", ErrInvalidStructure, i, j)
			}
		}
	}
	l := Lattice{Matrix: matrix}
	if l.Volume() < minLatticeVolume {
		return Lattice{}, fmt.Errorf("%w: degenerate lattice, volume %.3g", ErrInvalidStructure, l.Volume())
	}
	return l, nil
}

// LatticeFromParameters builds a lattice from cell lengths a, b, c (Å) and
// angles alpha, beta, gamma (degrees), using the standard orientation with a
// along x and b in the xy plane.
func LatticeFromParameters(a, b, c, alpha, beta, gamma float64) (Lattice, error) {
	for _, v := range [...]float64{a, b, c} {
		if !(v > 0) || math.IsInf(v, 0) {
			return Lattice{}, fmt.Errorf("%w: cell length %v must be positive", ErrInvalidStructure, v)
		}
	}
	for _, v := range [...]float64{alpha, beta, gamma} {
		if !(v > 0) || v >= 180 {
			return Lattice{}, fmt.Errorf("%w: cell angle %v° outside (0°, 180°)", ErrInvalidStructure, v)
		}
	}

	ca := math.Cos(alpha * math.Pi / 180)
	cb := math.Cos(beta * math.Pi / 180)
	cg := math.Cos(gamma * math.Pi / 180)
	sg := math.Sin(gamma * math.Pi / 180)

	cx := c * cb
	cy := c * (ca - cb*cg) / sg
	czSq := c*c - cx*cx - cy*cy
	if czSq <= 0 {
		return Lattice{}, fmt.Errorf("%w: angles %.1f°/%.1f°/%.1f° do not close a cell", ErrInvalidStructure, alpha, beta, gamma)
	}

	return NewLattice([3][3]float64{
		{a, 0, 0},
		{b * cg, b * sg, 0},
		{cx, cy, math.Sqrt(czSq)},
	})
}

// Volume returns the cell volume |det(Matrix)| in Å³.
func (l Lattice) Volume() float64 {
	m := l.Matrix
	det := m[0][0]*(m[1][1]*m[2][2]-m[1][2]*m[2][1]) -
		m[0][1]*(m[1][0]*m[2][2]-m[1][2]*m[2][0]) +
		m[0][2]*(m[1][0]*m[2][1]-m[1][1]*m[2][0])
	return math.Abs(det)
}

// Lengths returns the basis vector lengths |a|, |b|, |c| in Å.
func (l Lattice) Lengths() [3]float64 {
	var out [3]float64
	for i, row := range l.Matrix {
		out[i] = math.Sqrt(row[0]*row[0] + row[1]*row[1] + row[2]*row[2])
	}
	return out
}

// Angles returns the cell angles alpha, beta, gamma in degrees, where alpha
// is the angle between b and c, beta between a and c, gamma between a and b.
func (l Lattice) Angles() [3]float64 {
	lengths := l.Lengths()
	angle := func(i, j int) float64 {
		dot := l.Matrix[i][0]*l.Matrix[j][0] + l.Matrix[i][1]*l.Matrix[j][1] + l.Matrix[i][2]*l.Matrix[j][2]
		cos := dot / (lengths[i] * lengths[j])
		cos = math.Max(-1, math.Min(1, cos))
		return math.Acos(cos) * 180 / math.Pi
	}
	return [3]float64{angle(1, 2), angle(0, 2), angle(0, 1)}
}

// ScaleToVolume returns a new lattice isotropically rescaled so its volume
// equals target Å³. Shape (length ratios and angles) is preserved (R1.4).
func (l Lattice) ScaleToVolume(target float64) (Lattice, error) {
	if !(target > 0) || math.IsInf(target, 0) {
		return Lattice{}, fmt.Errorf("%w: target volume %v must be positive", ErrInvalidStructure, target)
	}
	s := math.Cbrt(target / l.Volume())
	out := l.Matrix
	for i := range out {
		for j := range out[i] {
			out[i][j] *= s
		}
	}
	return Lattice{Matrix: out}, nil
}

// CartesianCoords converts fractional coordinates to Cartesian Å.
func (l Lattice) CartesianCoords(frac [3]float64) [3]float64 {
	var out [3]float64
	for j := 0; j < 3; j++ {
		out[j] = frac[0]*l.Matrix[0][j] + frac[1]*l.Matrix[1][j] + frac[2]*l.Matrix[2][j]
	}
	return out
}

// Site is one atom position: an element symbol and fractional coordinates in
// [0, 1) relative to the lattice basis.
type Site struct {
	// Species is the element symbol occupying the site.
	Species string `json:"species" yaml:"species"`

	// Frac holds fractional coordinates along the a, b, c basis vectors.
	Frac [3]float64 `json:"frac" yaml:"frac"`
}

// Structure is a periodic crystal: a lattice, an ordered site list, and
// optional symmetry annotations. Built through NewStructure, which enforces
// the data-model invariants (R1.3); afterwards callers treat it as read-only
// and derive modified copies with WithLattice or Copy.
type Structure struct {
	// Lattice holds the cell basis vectors.
	Lattice Lattice `json:"lattice" yaml:"lattice"`

	// Sites lists the atoms in a stable order. Site order is meaningful:
	// generators and dedup use it as the deterministic identity of the
	// structure within a run.
	Sites []Site `json:"sites" yaml:"sites"`

	// SpaceGroupNumber is the international space-group number (1-230),
	// 0 when unknown.
	SpaceGroupNumber int `json:"space_group_number,omitempty" yaml:"space_group_number,omitempty"`

	// SpaceGroupSymbol is the Hermann-Mauguin symbol (e.g. "Fm-3m"),
	// empty when unknown.
	SpaceGroupSymbol string `json:"space_group_symbol,omitempty" yaml:"space_group_symbol,omitempty"`

	// Wyckoff lists the Wyckoff letter of each site in Sites order, when
	// the structure was built from a symmetry assignment. Empty otherwise.
	Wyckoff []string `json:"wyckoff,omitempty" yaml:"wyckoff,omitempty"`
}

// NewStructure validates the lattice and sites and returns a Structure with
// all fractional coordinates wrapped into [0, 1). Violations return an error
// wrapping ErrInvalidStructure.
func NewStructure(lattice Lattice, sites []Site) (*Structure, error) {
	if lattice.Volume() < minLatticeVolume {
		return nil, fmt.Errorf("%w: degenerate lattice, volume %.3g", ErrInvalidStructure, lattice.Volume())
	}
	if len(sites) == 0 {
		return nil, fmt.Errorf("%w: no sites", ErrInvalidStructure)
	}
	cp := make([]Site, len(sites))
	for i, site := range sites {
		if !validSymbol(site.Species) {
			return nil, fmt.Errorf("%w: site %d has malformed species %q", ErrInvalidStructure, i, site.Species)
		}
		for axis, f := range site.Frac {
			if math.IsNaN(f) || math.IsInf(f, 0) {
				return nil, fmt.Errorf("%w: site %d has non-finite coordinate on axis %d", ErrInvalidStructure, i, axis)
			}
		}
		cp[i] = Site{Species: site.Species, Frac: WrapFrac(site.Frac)}
	}
	return &Structure{Lattice: lattice, Sites: cp}, nil
}

// WrapFrac maps each fractional coordinate into [0, 1).
func WrapFrac(frac [3]float64) [3]float64 {
	for i, f := range frac {
		f -= math.Floor(f)
		if f >= 1 { // 1-ulp fallout of the subtraction
			f = 0
		}
		frac[i] = f
	}
	return frac
}

// NumSites returns the number of sites.
func (s *Structure) NumSites() int {
	return len(s.Sites)
}

// SpeciesCounts returns the number of sites per element symbol.
func (s *Structure) SpeciesCounts() map[string]int {
	counts := make(map[string]int)
	for _, site := range s.Sites {
		counts[site.Species]++
	}
	return counts
}

// Composition returns the structure's species counts as a Composition.
func (s *Structure) Composition() (Composition, error) {
	counts := make(map[string]float64)
	for _, site := range s.Sites {
		counts[site.Species]++
	}
	return NewComposition(counts)
}

// FormulaUnits returns the integer Z such that the structure contains exactly
// Z formula units of target's reduced composition, or false when the species
// multiset is not an integral multiple of it (R1.5).
func (s *Structure) FormulaUnits(target Composition) (int, bool) {
	own, err := s.Composition()
	if err != nil {
		return 0, false
	}
	return own.FormulaUnits(target)
}

// Copy returns a deep copy whose site slice shares nothing with s.
func (s *Structure) Copy() *Structure {
	cp := *s
	cp.Sites = make([]Site, len(s.Sites))
	copy(cp.Sites, s.Sites)
	if s.Wyckoff != nil {
		cp.Wyckoff = make([]string, len(s.Wyckoff))
		copy(cp.Wyckoff, s.Wyckoff)
	}
	return &cp
}

// WithLattice returns a copy of s under a different lattice; fractional
// coordinates are preserved, so the sites move with the cell.
func (s *Structure) WithLattice(lattice Lattice) *Structure {
	cp := s.Copy()
	cp.Lattice = lattice
	return cp
}
