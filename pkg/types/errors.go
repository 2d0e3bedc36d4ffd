// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "errors"

// Sentinel errors for data-model validation. Stages wrap these with
// fmt.Errorf("...: %w", ...) so callers can classify failures with errors.Is
// without parsing messages. Per prd001-structures R1.6: an invalid structure
// or composition inside a batch is dropped and counted, never fatal to the
// run; only malformed top-level queries abort (see generator.ErrInvalidQuery).
var (
	// ErrInvalidComposition marks a composition that failed validation:
	// no elements, malformed symbols, or non-positive counts.
	ErrInvalidComposition = errors.New("invalid composition")

	// ErrInvalidStructure marks a structure that failed validation:
	// degenerate lattice, no sites, non-finite coordinates, or a species
	// multiset inconsistent with the target composition.
	ErrInvalidStructure = errors.New("invalid structure")
)
