// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package generator

import "github.com/pdiddy/shotgun-csp/pkg/types"

// System labels the crystal family constraining the cell shape.
type System string

const (
	Triclinic    System = "triclinic"
	Monoclinic   System = "monoclinic"
	Orthorhombic System = "orthorhombic"
	Tetragonal   System = "tetragonal"
	Trigonal     System = "trigonal"
	Hexagonal    System = "hexagonal"
	Cubic        System = "cubic"
)

// WyckoffPosition is one orbit type of a space group. orbit returns the base
// orbit before lattice centering; free parameters are consumed in x, y, z
// argument order and surplus arguments are ignored, whichever cell axes they
// land on.
type WyckoffPosition struct {
	Letter       string
	Multiplicity int

	// DOF is the number of free coordinate parameters, 0 to 3. Positions
	// with DOF 0 pin their atoms exactly and can host at most one orbit
	// per structure.
	DOF int

	orbit func(x, y, z float64) [][3]float64
}

// SpaceGroup is one curated space-group entry: Wyckoff positions in the
// conventional cell plus the centering translations of the lattice.
type SpaceGroup struct {
	Number    int
	Symbol    string
	System    System
	centering [][3]float64
	Positions []WyckoffPosition
}

// Expand returns the full orbit of p at parameters (x, y, z), wrapped into
// the unit cell. The result has exactly p.Multiplicity points.
func (g SpaceGroup) Expand(p WyckoffPosition, x, y, z float64) [][3]float64 {
	base := p.orbit(x, y, z)
	out := make([][3]float64, 0, len(base)*len(g.centering))
	for _, t := range g.centering {
		for _, b := range base {
			out = append(out, types.WrapFrac([3]float64{b[0] + t[0], b[1] + t[1], b[2] + t[2]}))
		}
	}
	return out
}

// Position returns the group's Wyckoff position with the given letter.
func (g SpaceGroup) Position(letter string) (WyckoffPosition, bool) {
	for _, p := range g.Positions {
		if p.Letter == letter {
			return p, true
		}
	}
	return WyckoffPosition{}, false
}

var (
	centerP = [][3]float64{{0, 0, 0}}
	centerC = [][3]float64{{0, 0, 0}, {0.5, 0.5, 0}}
	centerI = [][3]float64{{0, 0, 0}, {0.5, 0.5, 0.5}}
	centerF = [][3]float64{{0, 0, 0}, {0, 0.5, 0.5}, {0.5, 0, 0.5}, {0.5, 0.5, 0}}
	centerR = [][3]float64{{0, 0, 0}, {2. / 3, 1. / 3, 1. / 3}, {1. / 3, 2. / 3, 2. / 3}}
)

// fixed builds the orbit of a position with no free parameters.
func fixed(points ...[3]float64) func(x, y, z float64) [][3]float64 {
	return func(_, _, _ float64) [][3]float64 {
		out := make([][3]float64, len(points))
		copy(out, points)
		return out
	}
}

// Groups returns the curated space groups in ascending number order. The set
// covers the high-symmetry groups that dominate known inorganic prototypes
// (rock salt, CsCl, fluorite, zinc blende, wurtzite, rutile, perovskite,
// Laves, NiAs) plus one low-symmetry group per crystal system so every
// composition has somewhere to go.
func Groups() []SpaceGroup {
	return groups
}

// ByNumber returns the curated entry for a space-group number.
func ByNumber(number int) (SpaceGroup, bool) {
	for _, g := range groups {
		if g.Number == number {
			return g, true
		}
	}
	return SpaceGroup{}, false
}

var groups = []SpaceGroup{
	{
		Number: 1, Symbol: "P1", System: Triclinic, centering: centerP,
		Positions: []WyckoffPosition{
			{Letter: "1a", Multiplicity: 1, DOF: 3, orbit: func(x, y, z float64) [][3]float64 {
				return [][3]float64{{x, y, z}}
			}},
		},
	},
	{
		Number: 2, Symbol: "P-1", System: Triclinic, centering: centerP,
		Positions: []WyckoffPosition{
			{Letter: "1a", Multiplicity: 1, orbit: fixed([3]float64{0, 0, 0})},
			{Letter: "1b", Multiplicity: 1, orbit: fixed([3]float64{0, 0, 0.5})},
			{Letter: "1c", Multiplicity: 1, orbit: fixed([3]float64{0, 0.5, 0})},
			{Letter: "1d", Multiplicity: 1, orbit: fixed([3]float64{0.5, 0, 0})},
			{Letter: "1e", Multiplicity: 1, orbit: fixed([3]float64{0.5, 0.5, 0})},
			{Letter: "1f", Multiplicity: 1, orbit: fixed([3]float64{0.5, 0, 0.5})},
			{Letter: "1g", Multiplicity: 1, orbit: fixed([3]float64{0, 0.5, 0.5})},
			{Letter: "1h", Multiplicity: 1, orbit: fixed([3]float64{0.5, 0.5, 0.5})},
			{Letter: "2i", Multiplicity: 2, DOF: 3, orbit: func(x, y, z float64) [][3]float64 {
				return [][3]float64{{x, y, z}, {-x, -y, -z}}
			}},
		},
	},
	{
		Number: 14, Symbol: "P2_1/c", System: Monoclinic, centering: centerP,
		Positions: []WyckoffPosition{
			{Letter: "2a", Multiplicity: 2, orbit: fixed([3]float64{0, 0, 0}, [3]float64{0, 0.5, 0.5})},
			{Letter: "2b", Multiplicity: 2, orbit: fixed([3]float64{0.5, 0, 0}, [3]float64{0.5, 0.5, 0.5})},
			{Letter: "2c", Multiplicity: 2, orbit: fixed([3]float64{0, 0, 0.5}, [3]float64{0, 0.5, 0})},
			{Letter: "2d", Multiplicity: 2, orbit: fixed([3]float64{0.5, 0, 0.5}, [3]float64{0.5, 0.5, 0})},
			{Letter: "4e", Multiplicity: 4, DOF: 3, orbit: func(x, y, z float64) [][3]float64 {
				return [][3]float64{
					{x, y, z}, {-x, y + 0.5, -z + 0.5},
					{-x, -y, -z}, {x, -y + 0.5, z + 0.5},
				}
			}},
		},
	},
	{
		Number: 62, Symbol: "Pnma", System: Orthorhombic, centering: centerP,
		Positions: []WyckoffPosition{
			{Letter: "4a", Multiplicity: 4, orbit: fixed(
				[3]float64{0, 0, 0}, [3]float64{0.5, 0, 0.5},
				[3]float64{0, 0.5, 0}, [3]float64{0.5, 0.5, 0.5})},
			{Letter: "4b", Multiplicity: 4, orbit: fixed(
				[3]float64{0, 0, 0.5}, [3]float64{0.5, 0, 0},
				[3]float64{0, 0.5, 0.5}, [3]float64{0.5, 0.5, 0})},
			{Letter: "4c", Multiplicity: 4, DOF: 2, orbit: func(x, y, _ float64) [][3]float64 {
				// Free parameters land on the a and c axes; y is pinned
				// to the mirror plane at 1/4.
				return [][3]float64{
					{x, 0.25, y}, {-x + 0.5, 0.75, y + 0.5},
					{-x, 0.75, -y}, {x + 0.5, 0.25, -y + 0.5},
				}
			}},
			{Letter: "8d", Multiplicity: 8, DOF: 3, orbit: func(x, y, z float64) [][3]float64 {
				return [][3]float64{
					{x, y, z}, {-x + 0.5, -y, z + 0.5},
					{-x, y + 0.5, -z}, {x + 0.5, -y + 0.5, -z + 0.5},
					{-x, -y, -z}, {x + 0.5, y, -z + 0.5},
					{x, -y + 0.5, z}, {-x + 0.5, y + 0.5, z + 0.5},
				}
			}},
		},
	},
	{
		Number: 63, Symbol: "Cmcm", System: Orthorhombic, centering: centerC,
		Positions: []WyckoffPosition{
			{Letter: "4a", Multiplicity: 4, orbit: fixed([3]float64{0, 0, 0}, [3]float64{0, 0, 0.5})},
			{Letter: "4b", Multiplicity: 4, orbit: fixed([3]float64{0, 0.5, 0}, [3]float64{0, 0.5, 0.5})},
			{Letter: "4c", Multiplicity: 4, DOF: 1, orbit: func(x, _, _ float64) [][3]float64 {
				return [][3]float64{{0, x, 0.25}, {0, -x, 0.75}}
			}},
			{Letter: "8f", Multiplicity: 8, DOF: 2, orbit: func(x, y, _ float64) [][3]float64 {
				return [][3]float64{
					{0, x, y}, {0, -x, y + 0.5},
					{0, -x, -y}, {0, x, -y + 0.5},
				}
			}},
			{Letter: "8g", Multiplicity: 8, DOF: 2, orbit: func(x, y, _ float64) [][3]float64 {
				return [][3]float64{
					{x, y, 0.25}, {-x, -y, 0.75},
					{x, -y, 0.75}, {-x, y, 0.25},
				}
			}},
		},
	},
	{
		Number: 123, Symbol: "P4/mmm", System: Tetragonal, centering: centerP,
		Positions: []WyckoffPosition{
			{Letter: "1a", Multiplicity: 1, orbit: fixed([3]float64{0, 0, 0})},
			{Letter: "1b", Multiplicity: 1, orbit: fixed([3]float64{0, 0, 0.5})},
			{Letter: "1c", Multiplicity: 1, orbit: fixed([3]float64{0.5, 0.5, 0})},
			{Letter: "1d", Multiplicity: 1, orbit: fixed([3]float64{0.5, 0.5, 0.5})},
			{Letter: "2e", Multiplicity: 2, orbit: fixed([3]float64{0, 0.5, 0.5}, [3]float64{0.5, 0, 0.5})},
			{Letter: "2f", Multiplicity: 2, orbit: fixed([3]float64{0, 0.5, 0}, [3]float64{0.5, 0, 0})},
			{Letter: "2g", Multiplicity: 2, DOF: 1, orbit: func(x, _, _ float64) [][3]float64 {
				return [][3]float64{{0, 0, x}, {0, 0, -x}}
			}},
			{Letter: "2h", Multiplicity: 2, DOF: 1, orbit: func(x, _, _ float64) [][3]float64 {
				return [][3]float64{{0.5, 0.5, x}, {0.5, 0.5, -x}}
			}},
			{Letter: "4i", Multiplicity: 4, DOF: 1, orbit: func(x, _, _ float64) [][3]float64 {
				return [][3]float64{
					{0, 0.5, x}, {0.5, 0, x},
					{0, 0.5, -x}, {0.5, 0, -x},
				}
			}},
		},
	},
	{
		Number: 136, Symbol: "P4_2/mnm", System: Tetragonal, centering: centerP,
		Positions: []WyckoffPosition{
			{Letter: "2a", Multiplicity: 2, orbit: fixed([3]float64{0, 0, 0}, [3]float64{0.5, 0.5, 0.5})},
			{Letter: "2b", Multiplicity: 2, orbit: fixed([3]float64{0, 0, 0.5}, [3]float64{0.5, 0.5, 0})},
			{Letter: "4c", Multiplicity: 4, orbit: fixed(
				[3]float64{0, 0.5, 0}, [3]float64{0, 0.5, 0.5},
				[3]float64{0.5, 0, 0}, [3]float64{0.5, 0, 0.5})},
			{Letter: "4d", Multiplicity: 4, orbit: fixed(
				[3]float64{0, 0.5, 0.25}, [3]float64{0.5, 0, 0.25},
				[3]float64{0, 0.5, 0.75}, [3]float64{0.5, 0, 0.75})},
			{Letter: "4e", Multiplicity: 4, DOF: 1, orbit: func(x, _, _ float64) [][3]float64 {
				return [][3]float64{
					{0, 0, x}, {0, 0, -x},
					{0.5, 0.5, x + 0.5}, {0.5, 0.5, -x + 0.5},
				}
			}},
			{Letter: "4f", Multiplicity: 4, DOF: 1, orbit: func(x, _, _ float64) [][3]float64 {
				// The rutile oxygen position.
				return [][3]float64{
					{x, x, 0}, {-x, -x, 0},
					{x + 0.5, -x + 0.5, 0.5}, {-x + 0.5, x + 0.5, 0.5},
				}
			}},
		},
	},
	{
		Number: 139, Symbol: "I4/mmm", System: Tetragonal, centering: centerI,
		Positions: []WyckoffPosition{
			{Letter: "2a", Multiplicity: 2, orbit: fixed([3]float64{0, 0, 0})},
			{Letter: "2b", Multiplicity: 2, orbit: fixed([3]float64{0, 0, 0.5})},
			{Letter: "4c", Multiplicity: 4, orbit: fixed([3]float64{0, 0.5, 0}, [3]float64{0.5, 0, 0})},
			{Letter: "4d", Multiplicity: 4, orbit: fixed([3]float64{0, 0.5, 0.25}, [3]float64{0.5, 0, 0.25})},
			{Letter: "4e", Multiplicity: 4, DOF: 1, orbit: func(x, _, _ float64) [][3]float64 {
				return [][3]float64{{0, 0, x}, {0, 0, -x}}
			}},
			{Letter: "8h", Multiplicity: 8, DOF: 1, orbit: func(x, _, _ float64) [][3]float64 {
				return [][3]float64{
					{x, x, 0}, {-x, -x, 0},
					{-x, x, 0}, {x, -x, 0},
				}
			}},
		},
	},
	{
		Number: 166, Symbol: "R-3m", System: Trigonal, centering: centerR,
		Positions: []WyckoffPosition{
			{Letter: "3a", Multiplicity: 3, orbit: fixed([3]float64{0, 0, 0})},
			{Letter: "3b", Multiplicity: 3, orbit: fixed([3]float64{0, 0, 0.5})},
			{Letter: "6c", Multiplicity: 6, DOF: 1, orbit: func(x, _, _ float64) [][3]float64 {
				return [][3]float64{{0, 0, x}, {0, 0, -x}}
			}},
			{Letter: "9d", Multiplicity: 9, orbit: fixed(
				[3]float64{0.5, 0, 0.5}, [3]float64{0, 0.5, 0.5}, [3]float64{0.5, 0.5, 0.5})},
			{Letter: "9e", Multiplicity: 9, orbit: fixed(
				[3]float64{0.5, 0, 0}, [3]float64{0, 0.5, 0}, [3]float64{0.5, 0.5, 0})},
		},
	},
	{
		Number: 186, Symbol: "P6_3mc", System: Hexagonal, centering: centerP,
		Positions: []WyckoffPosition{
			{Letter: "2a", Multiplicity: 2, DOF: 1, orbit: func(x, _, _ float64) [][3]float64 {
				return [][3]float64{{0, 0, x}, {0, 0, x + 0.5}}
			}},
			{Letter: "2b", Multiplicity: 2, DOF: 1, orbit: func(x, _, _ float64) [][3]float64 {
				// The wurtzite position.
				return [][3]float64{{1. / 3, 2. / 3, x}, {2. / 3, 1. / 3, x + 0.5}}
			}},
			{Letter: "6c", Multiplicity: 6, DOF: 2, orbit: func(x, y, _ float64) [][3]float64 {
				return [][3]float64{
					{x, -x, y}, {x, 2 * x, y}, {-2 * x, -x, y},
					{-x, x, y + 0.5}, {-x, -2 * x, y + 0.5}, {2 * x, x, y + 0.5},
				}
			}},
		},
	},
	{
		Number: 194, Symbol: "P6_3/mmc", System: Hexagonal, centering: centerP,
		Positions: []WyckoffPosition{
			{Letter: "2a", Multiplicity: 2, orbit: fixed([3]float64{0, 0, 0}, [3]float64{0, 0, 0.5})},
			{Letter: "2b", Multiplicity: 2, orbit: fixed([3]float64{0, 0, 0.25}, [3]float64{0, 0, 0.75})},
			{Letter: "2c", Multiplicity: 2, orbit: fixed([3]float64{1. / 3, 2. / 3, 0.25}, [3]float64{2. / 3, 1. / 3, 0.75})},
			{Letter: "2d", Multiplicity: 2, orbit: fixed([3]float64{1. / 3, 2. / 3, 0.75}, [3]float64{2. / 3, 1. / 3, 0.25})},
			{Letter: "4f", Multiplicity: 4, DOF: 1, orbit: func(x, _, _ float64) [][3]float64 {
				return [][3]float64{
					{1. / 3, 2. / 3, x}, {2. / 3, 1. / 3, x + 0.5},
					{2. / 3, 1. / 3, -x}, {1. / 3, 2. / 3, -x + 0.5},
				}
			}},
			{Letter: "6h", Multiplicity: 6, DOF: 1, orbit: func(x, _, _ float64) [][3]float64 {
				return [][3]float64{
					{x, 2 * x, 0.25}, {-2 * x, -x, 0.25}, {x, -x, 0.25},
					{-x, -2 * x, 0.75}, {2 * x, x, 0.75}, {-x, x, 0.75},
				}
			}},
		},
	},
	{
		Number: 216, Symbol: "F-43m", System: Cubic, centering: centerF,
		Positions: []WyckoffPosition{
			{Letter: "4a", Multiplicity: 4, orbit: fixed([3]float64{0, 0, 0})},
			{Letter: "4b", Multiplicity: 4, orbit: fixed([3]float64{0.5, 0.5, 0.5})},
			{Letter: "4c", Multiplicity: 4, orbit: fixed([3]float64{0.25, 0.25, 0.25})},
			{Letter: "4d", Multiplicity: 4, orbit: fixed([3]float64{0.75, 0.75, 0.75})},
			{Letter: "16e", Multiplicity: 16, DOF: 1, orbit: func(x, _, _ float64) [][3]float64 {
				return [][3]float64{
					{x, x, x}, {x, -x, -x},
					{-x, x, -x}, {-x, -x, x},
				}
			}},
		},
	},
	{
		Number: 221, Symbol: "Pm-3m", System: Cubic, centering: centerP,
		Positions: []WyckoffPosition{
			{Letter: "1a", Multiplicity: 1, orbit: fixed([3]float64{0, 0, 0})},
			{Letter: "1b", Multiplicity: 1, orbit: fixed([3]float64{0.5, 0.5, 0.5})},
			{Letter: "3c", Multiplicity: 3, orbit: fixed(
				[3]float64{0, 0.5, 0.5}, [3]float64{0.5, 0, 0.5}, [3]float64{0.5, 0.5, 0})},
			{Letter: "3d", Multiplicity: 3, orbit: fixed(
				[3]float64{0.5, 0, 0}, [3]float64{0, 0.5, 0}, [3]float64{0, 0, 0.5})},
			{Letter: "6e", Multiplicity: 6, DOF: 1, orbit: func(x, _, _ float64) [][3]float64 {
				return [][3]float64{
					{x, 0, 0}, {-x, 0, 0}, {0, x, 0},
					{0, -x, 0}, {0, 0, x}, {0, 0, -x},
				}
			}},
			{Letter: "8g", Multiplicity: 8, DOF: 1, orbit: func(x, _, _ float64) [][3]float64 {
				return [][3]float64{
					{x, x, x}, {-x, -x, x}, {-x, x, -x}, {x, -x, -x},
					{x, x, -x}, {-x, -x, -x}, {-x, x, x}, {x, -x, x},
				}
			}},
		},
	},
	{
		Number: 225, Symbol: "Fm-3m", System: Cubic, centering: centerF,
		Positions: []WyckoffPosition{
			{Letter: "4a", Multiplicity: 4, orbit: fixed([3]float64{0, 0, 0})},
			{Letter: "4b", Multiplicity: 4, orbit: fixed([3]float64{0.5, 0.5, 0.5})},
			{Letter: "8c", Multiplicity: 8, orbit: fixed([3]float64{0.25, 0.25, 0.25}, [3]float64{0.75, 0.75, 0.75})},
			{Letter: "24d", Multiplicity: 24, orbit: fixed(
				[3]float64{0, 0.25, 0.25}, [3]float64{0, 0.75, 0.25},
				[3]float64{0.25, 0, 0.25}, [3]float64{0.25, 0, 0.75},
				[3]float64{0.25, 0.25, 0}, [3]float64{0.75, 0.25, 0})},
			{Letter: "24e", Multiplicity: 24, DOF: 1, orbit: func(x, _, _ float64) [][3]float64 {
				return [][3]float64{
					{x, 0, 0}, {-x, 0, 0}, {0, x, 0},
					{0, -x, 0}, {0, 0, x}, {0, 0, -x},
				}
			}},
			{Letter: "32f", Multiplicity: 32, DOF: 1, orbit: func(x, _, _ float64) [][3]float64 {
				return [][3]float64{
					{x, x, x}, {-x, -x, x}, {-x, x, -x}, {x, -x, -x},
					{x, x, -x}, {-x, -x, -x}, {-x, x, x}, {x, -x, x},
				}
			}},
		},
	},
	{
		Number: 227, Symbol: "Fd-3m", System: Cubic, centering: centerF,
		Positions: []WyckoffPosition{
			// Origin choice 1 (at -43m).
			{Letter: "8a", Multiplicity: 8, orbit: fixed([3]float64{0, 0, 0}, [3]float64{0.25, 0.25, 0.25})},
			{Letter: "8b", Multiplicity: 8, orbit: fixed([3]float64{0.5, 0.5, 0.5}, [3]float64{0.75, 0.75, 0.75})},
			{Letter: "16c", Multiplicity: 16, orbit: fixed(
				[3]float64{0.125, 0.125, 0.125}, [3]float64{0.125, 0.875, 0.875},
				[3]float64{0.875, 0.125, 0.875}, [3]float64{0.875, 0.875, 0.125})},
			{Letter: "16d", Multiplicity: 16, orbit: fixed(
				[3]float64{0.625, 0.625, 0.625}, [3]float64{0.625, 0.375, 0.375},
				[3]float64{0.375, 0.625, 0.375}, [3]float64{0.375, 0.375, 0.625})},
		},
	},
	{
		Number: 229, Symbol: "Im-3m", System: Cubic, centering: centerI,
		Positions: []WyckoffPosition{
			{Letter: "2a", Multiplicity: 2, orbit: fixed([3]float64{0, 0, 0})},
			{Letter: "6b", Multiplicity: 6, orbit: fixed(
				[3]float64{0, 0.5, 0.5}, [3]float64{0.5, 0, 0.5}, [3]float64{0.5, 0.5, 0})},
			{Letter: "8c", Multiplicity: 8, orbit: fixed(
				[3]float64{0.25, 0.25, 0.25}, [3]float64{0.75, 0.75, 0.25},
				[3]float64{0.75, 0.25, 0.75}, [3]float64{0.25, 0.75, 0.75})},
			{Letter: "12d", Multiplicity: 12, orbit: fixed(
				[3]float64{0.25, 0, 0.5}, [3]float64{0.75, 0, 0.5},
				[3]float64{0.5, 0.25, 0}, [3]float64{0.5, 0.75, 0},
				[3]float64{0, 0.5, 0.25}, [3]float64{0, 0.5, 0.75})},
			{Letter: "12e", Multiplicity: 12, DOF: 1, orbit: func(x, _, _ float64) [][3]float64 {
				return [][3]float64{
					{x, 0, 0}, {-x, 0, 0}, {0, x, 0},
					{0, -x, 0}, {0, 0, x}, {0, 0, -x},
				}
			}},
		},
	},
}
