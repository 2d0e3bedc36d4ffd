package types

import (
	"errors"
	"math"
	"testing"
)

const geomTolerance = 1e-9

func cubicLattice(t *testing.T, a float64) Lattice {
	t.Helper()
	l, err := NewLattice([3][3]float64{{a, 0, 0}, {0, a, 0}, {0, 0, a}})
	if err != nil {
		t.Fatal(err)
	}
	return l
}

func TestNewLatticeRejectsDegenerate(t *testing.T) {
	tests := []struct {
		name   string
		matrix [3][3]float64
	}{
		{"zero matrix", [3][3]float64{}},
		{"coplanar rows", [3][3]float64{{1, 0, 0}, {0, 1, 0}, {1, 1, 0}}},
		{"nan component", [3][3]float64{{math.NaN(), 0, 0}, {0, 1, 0}, {0, 0, 1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewLattice(tt.matrix); !errors.Is(err, ErrInvalidStructure) {
				t.Errorf("NewLattice = %v, want ErrInvalidStructure", err)
			}
		})
	}
}

func TestLatticeFromParameters(t *testing.T) {
	l, err := LatticeFromParameters(4, 5, 6, 90, 90, 120)
	if err != nil {
		t.Fatal(err)
	}

	lengths := l.Lengths()
	for i, want := range [3]float64{4, 5, 6} {
		if math.Abs(lengths[i]-want) > 1e-9 {
			t.Errorf("length[%d] = %v, want %v", i, lengths[i], want)
		}
	}
	angles := l.Angles()
	for i, want := range [3]float64{90, 90, 120} {
		if math.Abs(angles[i]-want) > 1e-9 {
			t.Errorf("angle[%d] = %v, want %v", i, angles[i], want)
		}
	}
}

func TestLatticeFromParametersRejectsBadCell(t *testing.T) {
	if _, err := LatticeFromParameters(-1, 5, 6, 90, 90, 90); !errors.Is(err, ErrInvalidStructure) {
		t.Errorf("negative length: got %v, want ErrInvalidStructure", err)
	}
	if _, err := LatticeFromParameters(4, 5, 6, 0, 90, 90); !errors.Is(err, ErrInvalidStructure) {
		t.Errorf("zero angle: got %v, want ErrInvalidStructure", err)
	}
	// Angle triple that cannot close a parallelepiped.
	if _, err := LatticeFromParameters(4, 5, 6, 170, 10, 90); !errors.Is(err, ErrInvalidStructure) {
		t.Errorf("impossible angles: got %v, want ErrInvalidStructure", err)
	}
}

func TestLatticeVolume(t *testing.T) {
	l := cubicLattice(t, 4)
	if v := l.Volume(); math.Abs(v-64) > geomTolerance {
		t.Errorf("Volume = %v, want 64", v)
	}
}

func TestScaleToVolume(t *testing.T) {
	l, err := LatticeFromParameters(3, 4, 5, 90, 90, 120)
	if err != nil {
		t.Fatal(err)
	}

	scaled, err := l.ScaleToVolume(100)
	if err != nil {
		t.Fatal(err)
	}
	if v := scaled.Volume(); math.Abs(v-100) > 1e-9 {
		t.Errorf("scaled volume = %v, want 100", v)
	}

	// Isotropic: angles unchanged, length ratios unchanged.
	a0, a1 := l.Angles(), scaled.Angles()
	for i := range a0 {
		if math.Abs(a0[i]-a1[i]) > 1e-9 {
			t.Errorf("angle[%d] changed: %v → %v", i, a0[i], a1[i])
		}
	}
	l0, l1 := l.Lengths(), scaled.Lengths()
	ratio := l1[0] / l0[0]
	for i := range l0 {
		if math.Abs(l1[i]/l0[i]-ratio) > 1e-9 {
			t.Errorf("anisotropic rescale: length ratios %v vs %v", l1[i]/l0[i], ratio)
		}
	}

	if _, err := l.ScaleToVolume(-5); !errors.Is(err, ErrInvalidStructure) {
		t.Errorf("negative target: got %v, want ErrInvalidStructure", err)
	}
}

func TestCartesianCoords(t *testing.T) {
	l := cubicLattice(t, 4)
	got := l.CartesianCoords([3]float64{0.5, 0.5, 0.5})
	for i, want := range [3]float64{2, 2, 2} {
		if math.Abs(got[i]-want) > geomTolerance {
			t.Errorf("coord[%d] = %v, want %v", i, got[i], want)
		}
	}
}

func TestNewStructureWrapsCoords(t *testing.T) {
	s, err := NewStructure(cubicLattice(t, 4), []Site{
		{Species: "Na", Frac: [3]float64{1.25, -0.25, 2.0}},
	})
	if err != nil {
		t.Fatal(err)
	}
	want := [3]float64{0.25, 0.75, 0}
	for i := range want {
		if math.Abs(s.Sites[0].Frac[i]-want[i]) > geomTolerance {
			t.Errorf("wrapped coord[%d] = %v, want %v", i, s.Sites[0].Frac[i], want[i])
		}
	}
}

func TestNewStructureValidation(t *testing.T) {
	lat := cubicLattice(t, 4)

	if _, err := NewStructure(lat, nil); !errors.Is(err, ErrInvalidStructure) {
		t.Errorf("no sites: got %v, want ErrInvalidStructure", err)
	}
	if _, err := NewStructure(lat, []Site{{Species: "", Frac: [3]float64{0, 0, 0}}}); !errors.Is(err, ErrInvalidStructure) {
		t.Errorf("empty species: got %v, want ErrInvalidStructure", err)
	}
	if _, err := NewStructure(lat, []Site{{Species: "Na", Frac: [3]float64{math.Inf(1), 0, 0}}}); !errors.Is(err, ErrInvalidStructure) {
		t.Errorf("infinite coord: got %v, want ErrInvalidStructure", err)
	}
	if _, err := NewStructure(Lattice{}, []Site{{Species: "Na"}}); !errors.Is(err, ErrInvalidStructure) {
		t.Errorf("zero lattice: got %v, want ErrInvalidStructure", err)
	}
}

func TestStructureFormulaUnits(t *testing.T) {
	// Rock-salt cell: 4 Na + 4 Cl.
	sites := make([]Site, 0, 8)
	for _, f := range [][3]float64{{0, 0, 0}, {0, 0.5, 0.5}, {0.5, 0, 0.5}, {0.5, 0.5, 0}} {
		sites = append(sites, Site{Species: "Na", Frac: f})
	}
	for _, f := range [][3]float64{{0.5, 0.5, 0.5}, {0.5, 0, 0}, {0, 0.5, 0}, {0, 0, 0.5}} {
		sites = append(sites, Site{Species: "Cl", Frac: f})
	}
	s, err := NewStructure(cubicLattice(t, 5.64), sites)
	if err != nil {
		t.Fatal(err)
	}

	target, err := ParseFormula("NaCl")
	if err != nil {
		t.Fatal(err)
	}
	z, ok := s.FormulaUnits(target)
	if !ok || z != 4 {
		t.Errorf("FormulaUnits = (%d, %v), want (4, true)", z, ok)
	}

	other, err := ParseFormula("KCl")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := s.FormulaUnits(other); ok {
		t.Error("FormulaUnits matched a different element set")
	}
}

func TestStructureCopyIsDeep(t *testing.T) {
	s, err := NewStructure(cubicLattice(t, 4), []Site{{Species: "Na", Frac: [3]float64{0, 0, 0}}})
	if err != nil {
		t.Fatal(err)
	}
	cp := s.Copy()
	cp.Sites[0].Species = "K"
	if s.Sites[0].Species != "Na" {
		t.Error("mutating the copy changed the original")
	}
}
