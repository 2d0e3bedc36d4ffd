// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package selector

import (
	"fmt"

	"github.com/pdiddy/shotgun-csp/internal/elements"
	"github.com/pdiddy/shotgun-csp/internal/generator"
	"github.com/pdiddy/shotgun-csp/pkg/types"
)

// packingEfficiency is the assumed fill fraction of covalent spheres in the
// estimated cell. Ionic and covalent solids mostly land between 0.4 and 0.7
// on this measure; 0.5 keeps the estimate usable as a generation target
// across both.
const packingEfficiency = 0.5

// EstimateVolume guesses a target cell volume for comp, in Å³ per reduced
// formula unit: summed covalent sphere volumes divided by packingEfficiency.
// It stands in for a fitted volume model with something inspectable; pass an
// explicit volume to Select when a better figure is known.
func EstimateVolume(comp types.Composition) (float64, error) {
	elems, counts, _, err := comp.ReducedCounts()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", generator.ErrInvalidQuery, err)
	}
	var spheres float64
	for i, sym := range elems {
		el, ok := elements.Lookup(sym)
		if !ok {
			return 0, fmt.Errorf("%w: element %s not in property table", generator.ErrInvalidQuery, sym)
		}
		if el.CovalentRadius <= 0 {
			return 0, fmt.Errorf("%w: element %s has no covalent radius", generator.ErrInvalidQuery, sym)
		}
		spheres += float64(counts[i]) * el.CovalentVolume()
	}
	return spheres / packingEfficiency, nil
}
