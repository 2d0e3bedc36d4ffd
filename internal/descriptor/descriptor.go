// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package descriptor turns structures and compositions into the fixed-length
// numeric feature vectors consumed by the energy predictor.
// Implements: prd003-descriptor (R1-R4);
//
//	docs/ARCHITECTURE § Descriptors.
//
// The vector has two blocks. The composition block applies five statistics
// (weighted average, weighted sum, weighted variance, max, min) to each
// tabulated elemental property, with labels prefixed ave:, sum:, var:, max:,
// min:. The structure block summarizes the geometry: volume per atom,
// packing fraction, and the shape fingerprint (coordination and
// nearest-neighbor statistics plus normalized cell parameters) that the
// screening stage also uses for near-duplicate detection.
package descriptor

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/pdiddy/shotgun-csp/internal/crystal"
	"github.com/pdiddy/shotgun-csp/internal/elements"
	"github.com/pdiddy/shotgun-csp/pkg/types"
)

// ErrExtraction marks a feature-extraction failure, most commonly an element
// missing from the property table. Per prd005-screening R4.4 the screening
// stage drops the affected candidate and continues.
var ErrExtraction = errors.New("feature extraction failed")

// coordinationFactor scales covalent-radius sums into the neighbor cutoff
// used for coordination numbers.
const coordinationFactor = 1.2

// maxCoordination normalizes coordination numbers into O(1) fingerprint
// components. 12 is the densest packing's coordination.
const maxCoordination = 12

var statPrefixes = []string{"ave", "sum", "var", "max", "min"}

// fingerprintNames labels the shape-fingerprint components, in order.
var fingerprintNames = []string{
	"cn_mean", "cn_std", "cn_min", "cn_max",
	"nn_mean", "nn_std", "nn_min", "nn_max",
	"len_a", "len_b", "len_c",
	"cos_alpha", "cos_beta", "cos_gamma",
}

// Extractor computes feature vectors. It is stateless and safe for
// concurrent use.
type Extractor struct {
	names []string
}

// NewExtractor returns an Extractor with the standard feature layout.
func NewExtractor() *Extractor {
	names := make([]string, 0, len(statPrefixes)*len(elements.PropertyNames())+2+len(fingerprintNames))
	for _, prefix := range statPrefixes {
		for _, prop := range elements.PropertyNames() {
			names = append(names, prefix+":"+prop)
		}
	}
	names = append(names, "str:volume_per_atom", "str:packing_fraction")
	for _, n := range fingerprintNames {
		names = append(names, "str:"+n)
	}
	return &Extractor{names: names}
}

// FeatureNames returns the labels of the features Extract produces, in
// order. The returned slice is shared: callers must not modify it.
func (e *Extractor) FeatureNames() []string {
	return e.names
}

// Length returns the number of features Extract produces.
func (e *Extractor) Length() int {
	return len(e.names)
}

// Extract computes the full feature vector for a candidate structure and the
// composition it realizes. The output is deterministic: equal inputs produce
// bit-identical vectors (R2.3). Unknown elements and missing properties
// return an error wrapping ErrExtraction.
func (e *Extractor) Extract(s *types.Structure, c types.Composition) ([]float64, error) {
	comp, err := e.CompositionFeatures(c)
	if err != nil {
		return nil, err
	}

	vpa := s.Lattice.Volume() / float64(s.NumSites())
	packing, err := packingFraction(s)
	if err != nil {
		return nil, err
	}
	fp, err := e.StructureFingerprint(s)
	if err != nil {
		return nil, err
	}

	out := make([]float64, 0, len(e.names))
	out = append(out, comp...)
	out = append(out, vpa, packing)
	out = append(out, fp...)
	return out, nil
}

// Fingerprint returns the structure-fingerprint components of a full feature
// vector produced by Extract, as a subslice. The deduplication stage compares
// candidates on this block alone, since the composition block is shared by
// every candidate of a run.
func (e *Extractor) Fingerprint(features []float64) []float64 {
	return features[len(e.names)-len(fingerprintNames):]
}

// CompositionFeatures computes the composition block alone: five statistics
// over each elemental property, element weights proportional to
// stoichiometric counts (R2.1).
func (e *Extractor) CompositionFeatures(c types.Composition) ([]float64, error) {
	symbols := c.Elements()
	if len(symbols) == 0 {
		return nil, fmt.Errorf("%w: empty composition", ErrExtraction)
	}

	props := make([][]float64, len(symbols))
	weights := make([]float64, len(symbols))
	total := c.NumAtoms()
	for i, symbol := range symbols {
		p, ok := elements.Properties(symbol)
		if !ok {
			return nil, fmt.Errorf("%w: element %s not in property table", ErrExtraction, symbol)
		}
		props[i] = p
		weights[i] = c.Count(symbol) / total
	}

	nprops := len(elements.PropertyNames())
	ave := make([]float64, nprops)
	sum := make([]float64, nprops)
	for i, symbol := range symbols {
		for j := 0; j < nprops; j++ {
			ave[j] += weights[i] * props[i][j]
			sum[j] += c.Count(symbol) * props[i][j]
		}
	}
	vari := make([]float64, nprops)
	maxP := make([]float64, nprops)
	minP := make([]float64, nprops)
	for j := 0; j < nprops; j++ {
		maxP[j] = math.Inf(-1)
		minP[j] = math.Inf(1)
	}
	for i := range symbols {
		for j := 0; j < nprops; j++ {
			d := props[i][j] - ave[j]
			vari[j] += weights[i] * d * d
			maxP[j] = math.Max(maxP[j], props[i][j])
			minP[j] = math.Min(minP[j], props[i][j])
		}
	}

	out := make([]float64, 0, 5*nprops)
	for _, block := range [][]float64{ave, sum, vari, maxP, minP} {
		out = append(out, block...)
	}
	return out, nil
}

// StructureFingerprint computes the shape fingerprint: coordination-number
// statistics, nearest-neighbor distances normalized by the per-atom length
// scale, and sorted normalized cell parameters. All components are O(1), so
// Euclidean distances between fingerprints compare meaningfully against the
// dedup tolerance (R3.1-R3.3).
func (e *Extractor) StructureFingerprint(s *types.Structure) ([]float64, error) {
	cns, err := crystal.CoordinationNumbers(s, coordinationFactor)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtraction, err)
	}
	for i := range cns {
		cns[i] /= maxCoordination
	}

	// Length scale: cube root of volume per atom.
	scale := math.Cbrt(s.Lattice.Volume() / float64(s.NumSites()))
	nns := crystal.NearestDistances(s)
	for i := range nns {
		nns[i] /= scale
	}

	lengths := s.Lattice.Lengths()
	cbrtV := math.Cbrt(s.Lattice.Volume())
	normLengths := []float64{lengths[0] / cbrtV, lengths[1] / cbrtV, lengths[2] / cbrtV}
	sort.Float64s(normLengths)

	angles := s.Lattice.Angles()
	cosines := []float64{
		math.Cos(angles[0] * math.Pi / 180),
		math.Cos(angles[1] * math.Pi / 180),
		math.Cos(angles[2] * math.Pi / 180),
	}
	sort.Float64s(cosines)

	out := make([]float64, 0, len(fingerprintNames))
	out = append(out, stats(cns)...)
	out = append(out, stats(nns)...)
	out = append(out, normLengths...)
	out = append(out, cosines...)
	return out, nil
}

func packingFraction(s *types.Structure) (float64, error) {
	var spheres float64
	for _, site := range s.Sites {
		el, ok := elements.Lookup(site.Species)
		if !ok {
			return 0, fmt.Errorf("%w: element %s not in property table", ErrExtraction, site.Species)
		}
		spheres += el.CovalentVolume()
	}
	return spheres / s.Lattice.Volume(), nil
}

// stats returns mean, population standard deviation, min, and max of values.
func stats(values []float64) []float64 {
	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))

	variance := 0.0
	min, max := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		d := v - mean
		variance += d * d
		min = math.Min(min, v)
		max = math.Max(max, v)
	}
	variance /= float64(len(values))

	return []float64{mean, math.Sqrt(variance), min, max}
}
