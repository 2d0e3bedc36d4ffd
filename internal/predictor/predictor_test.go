package predictor

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoHeadSpec() Spec {
	return Spec{
		FeatureCount: 2,
		Means:        []float64{1, 2},
		Stds:         []float64{1, 2},
		Heads: [][]float64{
			{1, 0, 0.5},  // z0 + 0.5
			{0, 1, -0.5}, // z1 - 0.5
		},
		DomainMin:    []float64{0, 0},
		DomainMax:    []float64{2, 4},
		DomainMargin: 0.1,
	}
}

func TestNewValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Spec)
	}{
		{"zero feature count", func(s *Spec) { s.FeatureCount = 0 }},
		{"short means", func(s *Spec) { s.Means = []float64{1} }},
		{"negative std", func(s *Spec) { s.Stds = []float64{-1, 1} }},
		{"no heads", func(s *Spec) { s.Heads = nil }},
		{"head wrong width", func(s *Spec) { s.Heads = [][]float64{{1, 2}} }},
		{"domain length mismatch", func(s *Spec) { s.DomainMin = []float64{0} }},
		{"negative margin", func(s *Spec) { s.DomainMargin = -0.5 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := twoHeadSpec()
			tt.mutate(&spec)
			_, err := New(spec)
			assert.Error(t, err)
		})
	}

	_, err := New(twoHeadSpec())
	assert.NoError(t, err)
}

func TestPredictEnsemble(t *testing.T) {
	m, err := New(twoHeadSpec())
	require.NoError(t, err)

	// Features {2, 4} standardize to z = {1, 1}.
	// Head outputs: 1 + 0.5 = 1.5 and 1 - 0.5 = 0.5.
	value, uncertainty, err := m.Predict(context.Background(), []float64{2, 4})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, value, 1e-12)
	// Sample std of {1.5, 0.5} is 1/√2.
	assert.InDelta(t, 0.7071067811865476, uncertainty, 1e-12)
}

func TestPredictDeterministic(t *testing.T) {
	m, err := New(twoHeadSpec())
	require.NoError(t, err)

	v1, u1, err := m.Predict(context.Background(), []float64{1.3, 2.7})
	require.NoError(t, err)
	v2, u2, err := m.Predict(context.Background(), []float64{1.3, 2.7})
	require.NoError(t, err)
	assert.Equal(t, v1, v2)
	assert.Equal(t, u1, u2)
}

func TestPredictRejectsWrongLength(t *testing.T) {
	m, err := New(twoHeadSpec())
	require.NoError(t, err)

	_, _, err = m.Predict(context.Background(), []float64{1})
	assert.Error(t, err)
}

func TestPredictHonorsCancelledContext(t *testing.T) {
	m, err := New(twoHeadSpec())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err = m.Predict(ctx, []float64{2, 4})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSingleHeadHasZeroUncertainty(t *testing.T) {
	spec := twoHeadSpec()
	spec.Heads = [][]float64{{1, 1, 0}}
	m, err := New(spec)
	require.NoError(t, err)

	_, uncertainty, err := m.Predict(context.Background(), []float64{2, 4})
	require.NoError(t, err)
	assert.Zero(t, uncertainty)
}

func TestInDomain(t *testing.T) {
	m, err := New(twoHeadSpec())
	require.NoError(t, err)

	// Bounds are [0,2] and [0,4] with 10% slack: [-0.2,2.2] and [-0.4,4.4].
	assert.True(t, m.InDomain([]float64{1, 2}))
	assert.True(t, m.InDomain([]float64{2.1, 4.3}))
	assert.False(t, m.InDomain([]float64{2.5, 2}))
	assert.False(t, m.InDomain([]float64{1, -1}))
	assert.False(t, m.InDomain([]float64{1}))

	// Models without bounds accept everything.
	spec := twoHeadSpec()
	spec.DomainMin, spec.DomainMax = nil, nil
	open, err := New(spec)
	require.NoError(t, err)
	assert.True(t, open.InDomain([]float64{1e9, -1e9}))
}

func TestLoadRoundTrip(t *testing.T) {
	artifact := `feature_count: 2
means: [1, 2]
stds: [1, 2]
heads:
  - [1, 0, 0.5]
  - [0, 1, -0.5]
domain_min: [0, 0]
domain_max: [2, 4]
domain_margin: 0.1
`
	path := filepath.Join(t.TempDir(), "model.yaml")
	require.NoError(t, os.WriteFile(path, []byte(artifact), 0o644))

	m, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, m.FeatureCount())

	value, _, err := m.Predict(context.Background(), []float64{2, 4})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, value, 1e-12)
}

func TestLoadRejectsCorruptArtifact(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.yaml")
	require.NoError(t, os.WriteFile(path, []byte("feature_count: [not a number"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestHeuristic(t *testing.T) {
	names := []string{"ave:atomic_number", "str:volume_per_atom", "str:packing_fraction"}
	h, err := NewHeuristic(names)
	require.NoError(t, err)

	value, uncertainty, err := h.Predict(context.Background(), []float64{10, 20, 0.4})
	require.NoError(t, err)
	assert.InDelta(t, -0.4, value, 1e-12)
	assert.Greater(t, uncertainty, 0.0)
	assert.True(t, h.InDomain([]float64{10, 20, 0.4}))

	_, _, err = h.Predict(context.Background(), []float64{1})
	assert.Error(t, err)

	_, err = NewHeuristic([]string{"ave:atomic_number"})
	assert.Error(t, err)
}
