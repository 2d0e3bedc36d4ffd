package generator

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/pdiddy/shotgun-csp/internal/crystal"
	"github.com/pdiddy/shotgun-csp/pkg/types"
)

func testWyckoffConfig() types.WyckoffConfig {
	cfg := types.DefaultConfig().Wyckoff
	cfg.MaxFormulaUnits = 1
	cfg.MaxCandidates = 12
	return cfg
}

// --- assignment enumeration ---

func TestEnumerateAssignmentsRockSalt(t *testing.T) {
	sg, _ := ByNumber(225)
	// Four atoms of each element: only the 4a/4b pair fits, in both
	// element orders.
	got := enumerateAssignments(sg, []int{4, 4}, 100)
	if len(got) != 2 {
		t.Fatalf("got %d assignments, want 2", len(got))
	}
	for _, asg := range got {
		if len(asg[0]) != 1 || len(asg[1]) != 1 {
			t.Fatalf("assignment %v: want one orbit per element", asg)
		}
	}
	first := []string{sg.Positions[got[0][0][0]].Letter, sg.Positions[got[0][1][0]].Letter}
	if first[0] != "4a" || first[1] != "4b" {
		t.Errorf("first assignment = %v, want [4a 4b]", first)
	}
}

func TestEnumerateAssignmentsFixedPositionsUsedOnce(t *testing.T) {
	sg, _ := ByNumber(221)
	// Two atoms of one element: 1a+1b is the only multiset; reusing a
	// pinned position would stack two atoms on the same point.
	got := enumerateAssignments(sg, []int{2}, 100)
	if len(got) != 1 {
		t.Fatalf("got %d assignments, want 1", len(got))
	}
	letters := []string{sg.Positions[got[0][0][0]].Letter, sg.Positions[got[0][0][1]].Letter}
	if letters[0] != "1a" || letters[1] != "1b" {
		t.Errorf("assignment = %v, want [1a 1b]", letters)
	}
}

func TestEnumerateAssignmentsFreePositionsRecur(t *testing.T) {
	sg, _ := ByNumber(186)
	// All positions of P6_3mc carry a free parameter, so 2a and 2b can
	// each host two orbits: {2a,2a}, {2a,2b}, {2b,2b}.
	got := enumerateAssignments(sg, []int{4}, 100)
	if len(got) != 3 {
		t.Fatalf("got %d assignments, want 3", len(got))
	}
}

func TestEnumerateAssignmentsLimit(t *testing.T) {
	sg, _ := ByNumber(2)
	got := enumerateAssignments(sg, []int{1, 1}, 10)
	if len(got) != 10 {
		t.Fatalf("got %d assignments, want the limit of 10", len(got))
	}
}

func TestEnumerateAssignmentsUnsatisfiable(t *testing.T) {
	sg, _ := ByNumber(225)
	// Three atoms cannot be composed from multiplicities {4, 8, 24, 32}.
	if got := enumerateAssignments(sg, []int{3}, 100); len(got) != 0 {
		t.Fatalf("got %d assignments for an unsatisfiable count, want 0", len(got))
	}
}

// --- placement ---

// Placing Cl on 4a and Na on 4b of Fm-3m at Z=4 must reproduce rock salt:
// an octahedrally coordinated 8-atom cell at 4x the formula-unit volume.
func TestWyckoffPlaceRockSalt(t *testing.T) {
	gen := NewWyckoff(testWyckoffConfig(), nil)
	sg, _ := ByNumber(225)
	query := Query{Composition: formula(t, "NaCl"), Volume: 45, Seed: 1}

	cand, ok := gen.place(sg, assignment{{0}, {1}}, []string{"Cl", "Na"}, query, 4)
	if !ok {
		t.Fatal("placement failed")
	}
	s := cand.Structure

	if s.NumSites() != 8 {
		t.Fatalf("got %d sites, want 8", s.NumSites())
	}
	counts := s.SpeciesCounts()
	if counts["Cl"] != 4 || counts["Na"] != 4 {
		t.Errorf("species counts = %v, want Cl:4 Na:4", counts)
	}
	if v := s.Lattice.Volume(); math.Abs(v-180) > 1e-9 {
		t.Errorf("cell volume = %v, want 180", v)
	}
	lengths := s.Lattice.Lengths()
	if math.Abs(lengths[0]-lengths[1]) > 1e-9 || math.Abs(lengths[1]-lengths[2]) > 1e-9 {
		t.Errorf("cubic cell has unequal lengths: %v", lengths)
	}
	if s.SpaceGroupNumber != 225 || s.SpaceGroupSymbol != "Fm-3m" {
		t.Errorf("space group = %d/%s, want 225/Fm-3m", s.SpaceGroupNumber, s.SpaceGroupSymbol)
	}
	if len(s.Wyckoff) != 8 {
		t.Fatalf("got %d site letters, want 8", len(s.Wyckoff))
	}

	cns, err := crystal.CoordinationNumbers(s, 1.2)
	if err != nil {
		t.Fatal(err)
	}
	for i, cn := range cns {
		if cn != 6 {
			t.Errorf("site %d coordination = %v, want 6", i, cn)
		}
	}

	p := cand.Provenance
	if p.Generator != types.GeneratorWyckoff || p.FormulaUnits != 4 {
		t.Errorf("provenance = %s/Z=%d, want wyckoff/Z=4", p.Generator, p.FormulaUnits)
	}
	if len(p.WyckoffLetters) != 2 || p.WyckoffLetters[0] != "4a" || p.WyckoffLetters[1] != "4b" {
		t.Errorf("letters = %v, want [4a 4b]", p.WyckoffLetters)
	}
}

// --- generation ---

func TestWyckoffGenerate(t *testing.T) {
	gen := NewWyckoff(testWyckoffConfig(), nil)
	query := Query{Composition: formula(t, "NaCl"), Volume: 45, Seed: 3}

	got, err := gen.Generate(context.Background(), query)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 12 {
		t.Fatalf("got %d candidates, want the cap of 12", len(got))
	}
	for i, cand := range got {
		if cand.Provenance.Index != i {
			t.Errorf("candidate %d: index = %d", i, cand.Provenance.Index)
		}
		if cand.Provenance.Generator != types.GeneratorWyckoff {
			t.Errorf("candidate %d: generator = %q", i, cand.Provenance.Generator)
		}
		if cand.Provenance.FormulaUnits != 1 {
			t.Errorf("candidate %d: Z = %d, want 1", i, cand.Provenance.FormulaUnits)
		}
		if cand.Provenance.SpaceGroupNumber == 0 {
			t.Errorf("candidate %d: missing space group", i)
		}

		s := cand.Structure
		if s.NumSites() != 2 {
			t.Errorf("candidate %d: %d sites, want 2", i, s.NumSites())
		}
		counts := s.SpeciesCounts()
		if counts["Na"] != 1 || counts["Cl"] != 1 {
			t.Errorf("candidate %d: species counts = %v", i, counts)
		}
		if v := s.Lattice.Volume(); math.Abs(v-45) > 1e-6 {
			t.Errorf("candidate %d: volume = %v, want 45", i, v)
		}
		ok, err := crystal.MinDistanceOK(s, 0.6)
		if err != nil {
			t.Fatal(err)
		}
		if !ok {
			t.Errorf("candidate %d: emitted below the minimum-distance gate", i)
		}
		if len(s.Wyckoff) != s.NumSites() {
			t.Errorf("candidate %d: %d site letters for %d sites", i, len(s.Wyckoff), s.NumSites())
		}
	}
}

func TestWyckoffDeterminism(t *testing.T) {
	cfg := testWyckoffConfig()
	cfg.MaxCandidates = 8
	query := Query{Composition: formula(t, "NaCl"), Volume: 45, Seed: 11}

	first, err := NewWyckoff(cfg, nil).Generate(context.Background(), query)
	if err != nil {
		t.Fatal(err)
	}
	second, err := NewWyckoff(cfg, nil).Generate(context.Background(), query)
	if err != nil {
		t.Fatal(err)
	}
	if len(first) != len(second) {
		t.Fatalf("runs disagree on count: %d vs %d", len(first), len(second))
	}
	for i := range first {
		a, b := first[i].Structure, second[i].Structure
		if a.Lattice != b.Lattice {
			t.Fatalf("candidate %d: lattices differ", i)
		}
		for j := range a.Sites {
			if a.Sites[j] != b.Sites[j] {
				t.Fatalf("candidate %d site %d: %v vs %v", i, j, a.Sites[j], b.Sites[j])
			}
		}
	}
}

func TestWyckoffSeedChangesGeometry(t *testing.T) {
	cfg := testWyckoffConfig()
	cfg.MaxCandidates = 4

	first, err := NewWyckoff(cfg, nil).Generate(context.Background(), Query{Composition: formula(t, "NaCl"), Volume: 45, Seed: 1})
	if err != nil {
		t.Fatal(err)
	}
	second, err := NewWyckoff(cfg, nil).Generate(context.Background(), Query{Composition: formula(t, "NaCl"), Volume: 45, Seed: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(first) == 0 || len(second) == 0 {
		t.Fatal("no candidates to compare")
	}
	same := true
	for i := 0; i < len(first) && i < len(second); i++ {
		if first[i].Structure.Lattice != second[i].Structure.Lattice {
			same = false
			break
		}
		for j := range first[i].Structure.Sites {
			if first[i].Structure.Sites[j] != second[i].Structure.Sites[j] {
				same = false
			}
		}
	}
	if same {
		t.Fatal("different seeds reproduced identical geometries")
	}
}

func TestWyckoffInvalidQuery(t *testing.T) {
	gen := NewWyckoff(testWyckoffConfig(), nil)
	_, err := gen.Generate(context.Background(), Query{Composition: formula(t, "NaCl"), Volume: 0})
	if !errors.Is(err, ErrInvalidQuery) {
		t.Fatalf("Generate() error = %v, want ErrInvalidQuery", err)
	}
}

func TestWyckoffCancelled(t *testing.T) {
	gen := NewWyckoff(testWyckoffConfig(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := gen.Generate(ctx, Query{Composition: formula(t, "NaCl"), Volume: 45, Seed: 1})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Generate() error = %v, want context.Canceled", err)
	}
}

// --- lattice sampling ---

func TestSampleLattice(t *testing.T) {
	const volume = 120.0
	tests := []struct {
		system System
		check  func(t *testing.T, lengths, angles [3]float64)
	}{
		{Cubic, func(t *testing.T, l, a [3]float64) {
			assertClose(t, "a=b", l[0], l[1])
			assertClose(t, "b=c", l[1], l[2])
			assertAngles(t, a, 90, 90, 90)
		}},
		{Tetragonal, func(t *testing.T, l, a [3]float64) {
			assertClose(t, "a=b", l[0], l[1])
			assertAngles(t, a, 90, 90, 90)
		}},
		{Orthorhombic, func(t *testing.T, l, a [3]float64) {
			assertAngles(t, a, 90, 90, 90)
		}},
		{Hexagonal, func(t *testing.T, l, a [3]float64) {
			assertClose(t, "a=b", l[0], l[1])
			assertAngles(t, a, 90, 90, 120)
		}},
		{Trigonal, func(t *testing.T, l, a [3]float64) {
			assertClose(t, "a=b", l[0], l[1])
			assertAngles(t, a, 90, 90, 120)
		}},
		{Monoclinic, func(t *testing.T, l, a [3]float64) {
			assertClose(t, "alpha", a[0], 90)
			assertClose(t, "gamma", a[2], 90)
			if a[1] < 95 || a[1] > 130 {
				t.Errorf("beta = %v, want within [95, 130]", a[1])
			}
		}},
		{Triclinic, func(t *testing.T, l, a [3]float64) {
			for i, angle := range a {
				if angle < 75 || angle > 110 {
					t.Errorf("angle %d = %v, want within [75, 110]", i, angle)
				}
			}
		}},
	}
	for _, tt := range tests {
		t.Run(string(tt.system), func(t *testing.T) {
			lattice, err := sampleLattice(tt.system, volume, stream(5, "lattice", string(tt.system)))
			if err != nil {
				t.Fatal(err)
			}
			if v := lattice.Volume(); math.Abs(v-volume) > 1e-9 {
				t.Errorf("volume = %v, want %v", v, volume)
			}
			tt.check(t, lattice.Lengths(), lattice.Angles())
		})
	}
}

func assertClose(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 1e-6 {
		t.Errorf("%s: %v != %v", name, got, want)
	}
}

func assertAngles(t *testing.T, got [3]float64, alpha, beta, gamma float64) {
	t.Helper()
	assertClose(t, "alpha", got[0], alpha)
	assertClose(t, "beta", got[1], beta)
	assertClose(t, "gamma", got[2], gamma)
}
