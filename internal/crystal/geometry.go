// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package crystal implements periodic-geometry calculations on structures:
// minimum-image distances, neighbor statistics, and the near-duplicate
// matcher used by screening. Implements: prd001-structures (geometry,
// R1.3, R1.5); prd005-screening (near-duplicate test, R4.2);
//
//	docs/ARCHITECTURE § Geometry.
package crystal

import (
	"fmt"
	"math"

	"github.com/pdiddy/shotgun-csp/internal/elements"
	"github.com/pdiddy/shotgun-csp/pkg/types"
)

// imageShifts lists the fractional translations to the 27 neighboring cell
// images. Searching one shell of images is sufficient for the compact,
// reasonably-shaped cells the generators produce.
var imageShifts = buildImageShifts()

func buildImageShifts() [][3]float64 {
	shifts := make([][3]float64, 0, 27)
	for i := -1.0; i <= 1; i++ {
		for j := -1.0; j <= 1; j++ {
			for k := -1.0; k <= 1; k++ {
				shifts = append(shifts, [3]float64{i, j, k})
			}
		}
	}
	return shifts
}

// Distance returns the minimum-image distance in Å between two fractional
// points under the given lattice.
func Distance(lat types.Lattice, f1, f2 [3]float64) float64 {
	diff := [3]float64{f2[0] - f1[0], f2[1] - f1[1], f2[2] - f1[2]}
	min := math.Inf(1)
	for _, shift := range imageShifts {
		d := cartesianLength(lat, [3]float64{diff[0] + shift[0], diff[1] + shift[1], diff[2] + shift[2]})
		if d < min {
			min = d
		}
	}
	return min
}

// shortestTranslation returns the length of the shortest nonzero lattice
// translation within one image shell. An atom is never closer to its own
// periodic image than this.
func shortestTranslation(lat types.Lattice) float64 {
	min := math.Inf(1)
	for _, shift := range imageShifts {
		if shift == [3]float64{} {
			continue
		}
		if d := cartesianLength(lat, shift); d < min {
			min = d
		}
	}
	return min
}

func cartesianLength(lat types.Lattice, frac [3]float64) float64 {
	c := lat.CartesianCoords(frac)
	return math.Sqrt(c[0]*c[0] + c[1]*c[1] + c[2]*c[2])
}

// NearestDistances returns, for each site, the distance to its nearest
// neighbor in Å, counting periodic images and the site's own images.
func NearestDistances(s *types.Structure) []float64 {
	out := make([]float64, len(s.Sites))
	self := shortestTranslation(s.Lattice)
	for i := range s.Sites {
		min := self
		for j := range s.Sites {
			if i == j {
				continue
			}
			if d := Distance(s.Lattice, s.Sites[i].Frac, s.Sites[j].Frac); d < min {
				min = d
			}
		}
		out[i] = min
	}
	return out
}

// CoordinationNumbers returns, for each site, the number of neighbors within
// factor × (covalent radius sum of the pair), counting periodic images.
// Unknown elements return an error.
func CoordinationNumbers(s *types.Structure, factor float64) ([]float64, error) {
	radii, err := siteRadii(s)
	if err != nil {
		return nil, err
	}

	out := make([]float64, len(s.Sites))
	for i := range s.Sites {
		count := 0.0
		for j := range s.Sites {
			cutoff := factor * (radii[i] + radii[j])
			for _, shift := range imageShifts {
				if i == j && shift == [3]float64{} {
					continue
				}
				diff := [3]float64{
					s.Sites[j].Frac[0] - s.Sites[i].Frac[0] + shift[0],
					s.Sites[j].Frac[1] - s.Sites[i].Frac[1] + shift[1],
					s.Sites[j].Frac[2] - s.Sites[i].Frac[2] + shift[2],
				}
				if cartesianLength(s.Lattice, diff) <= cutoff {
					count++
				}
			}
		}
		out[i] = count
	}
	return out, nil
}

// MinDistanceOK reports whether every interatomic distance, including
// distances to periodic images, is at least factor × the covalent-radius sum
// of the pair. Generators use it to reject overlapping geometries before
// scoring (R3.8).
func MinDistanceOK(s *types.Structure, factor float64) (bool, error) {
	radii, err := siteRadii(s)
	if err != nil {
		return false, err
	}

	self := shortestTranslation(s.Lattice)
	for i := range s.Sites {
		if self < factor*(radii[i]+radii[i]) {
			return false, nil
		}
		for j := i + 1; j < len(s.Sites); j++ {
			if Distance(s.Lattice, s.Sites[i].Frac, s.Sites[j].Frac) < factor*(radii[i]+radii[j]) {
				return false, nil
			}
		}
	}
	return true, nil
}

func siteRadii(s *types.Structure) ([]float64, error) {
	radii := make([]float64, len(s.Sites))
	for i, site := range s.Sites {
		r, ok := elements.CovalentRadius(site.Species)
		if !ok {
			return nil, fmt.Errorf("%w: no covalent radius for element %s", types.ErrInvalidStructure, site.Species)
		}
		radii[i] = r
	}
	return radii, nil
}
