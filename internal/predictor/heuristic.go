// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package predictor

import (
	"context"
	"fmt"
)

// packingFeature is the descriptor label the heuristic reads.
const packingFeature = "str:packing_fraction"

// Heuristic is a zero-configuration stand-in predictor used when no trained
// artifact is available: it scores candidates by negated packing fraction,
// so denser packings rank first. It carries no physics beyond that and is
// meant for smoke-testing the pipeline, not for real screening.
type Heuristic struct {
	packingIdx int
	length     int
}

// NewHeuristic builds a Heuristic over the descriptor's feature layout,
// given the labels Extract produces.
func NewHeuristic(featureNames []string) (*Heuristic, error) {
	for i, name := range featureNames {
		if name == packingFeature {
			return &Heuristic{packingIdx: i, length: len(featureNames)}, nil
		}
	}
	return nil, fmt.Errorf("feature %s not present in layout", packingFeature)
}

// Predict returns the negated packing fraction with a flat uncertainty.
func (h *Heuristic) Predict(ctx context.Context, features []float64) (float64, float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, 0, err
	}
	if len(features) != h.length {
		return 0, 0, fmt.Errorf("feature vector has length %d, want %d", len(features), h.length)
	}
	return -features[h.packingIdx], 0.1, nil
}

// InDomain accepts every candidate; the heuristic has no training domain.
func (h *Heuristic) InDomain([]float64) bool {
	return true
}
