// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package predictor evaluates trained surrogate energy models. Models are
// consumed, never trained here: Load reads a YAML artifact produced by an
// external training pipeline and exposes it behind the screening stage's
// Predictor boundary. Implements: prd005-screening (predictor artifact,
// R2.1-R2.5);
//
//	docs/ARCHITECTURE § Energy Predictor.
package predictor

import (
	"context"
	"fmt"
	"math"
	"os"

	"go.yaml.in/yaml/v3"
)

// Spec is the on-disk layout of a model artifact. The model is a linear
// ensemble over standardized features: each head is a weight vector with a
// trailing bias; the prediction is the head mean and the uncertainty is the
// spread across heads.
type Spec struct {
	// FeatureCount is the expected input vector length.
	FeatureCount int `yaml:"feature_count"`

	// Means and Stds standardize each input feature before the heads are
	// applied. A zero std leaves the feature at zero after centering.
	Means []float64 `yaml:"means"`
	Stds  []float64 `yaml:"stds"`

	// Heads holds one weight vector per ensemble member, each of length
	// FeatureCount+1 with the bias last.
	Heads [][]float64 `yaml:"heads"`

	// DomainMin and DomainMax bound each raw feature as seen in training.
	// Empty bounds disable the applicability-domain check.
	DomainMin []float64 `yaml:"domain_min"`
	DomainMax []float64 `yaml:"domain_max"`

	// DomainMargin widens each bound by this fraction of the feature's
	// training range before the in-domain test.
	DomainMargin float64 `yaml:"domain_margin"`
}

// Model is a loaded surrogate. It is immutable and safe for concurrent use.
type Model struct {
	spec Spec
}

// Load reads and validates a model artifact from path.
func Load(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading model artifact: %w", err)
	}
	var spec Spec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("parsing model artifact %s: %w", path, err)
	}
	m, err := New(spec)
	if err != nil {
		return nil, fmt.Errorf("model artifact %s: %w", path, err)
	}
	return m, nil
}

// New validates a Spec and returns the Model over it.
func New(spec Spec) (*Model, error) {
	if spec.FeatureCount <= 0 {
		return nil, fmt.Errorf("feature_count %d must be positive", spec.FeatureCount)
	}
	if len(spec.Means) != spec.FeatureCount || len(spec.Stds) != spec.FeatureCount {
		return nil, fmt.Errorf("means/stds have lengths %d/%d, want %d",
			len(spec.Means), len(spec.Stds), spec.FeatureCount)
	}
	for i, s := range spec.Stds {
		if s < 0 || math.IsNaN(s) {
			return nil, fmt.Errorf("std %d is %v, want ≥ 0", i, s)
		}
	}
	if len(spec.Heads) == 0 {
		return nil, fmt.Errorf("model has no heads")
	}
	for i, head := range spec.Heads {
		if len(head) != spec.FeatureCount+1 {
			return nil, fmt.Errorf("head %d has %d weights, want %d", i, len(head), spec.FeatureCount+1)
		}
	}
	if (len(spec.DomainMin) > 0 || len(spec.DomainMax) > 0) &&
		(len(spec.DomainMin) != spec.FeatureCount || len(spec.DomainMax) != spec.FeatureCount) {
		return nil, fmt.Errorf("domain bounds have lengths %d/%d, want %d",
			len(spec.DomainMin), len(spec.DomainMax), spec.FeatureCount)
	}
	if spec.DomainMargin < 0 {
		return nil, fmt.Errorf("domain_margin %v must be ≥ 0", spec.DomainMargin)
	}
	return &Model{spec: spec}, nil
}

// FeatureCount returns the input vector length the model expects.
func (m *Model) FeatureCount() int {
	return m.spec.FeatureCount
}

// Predict evaluates the ensemble on features and returns the head-mean
// energy and the sample standard deviation across heads as the uncertainty.
// Equal inputs produce bit-identical outputs (R2.3).
func (m *Model) Predict(ctx context.Context, features []float64) (float64, float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, 0, err
	}
	if len(features) != m.spec.FeatureCount {
		return 0, 0, fmt.Errorf("feature vector has length %d, model expects %d",
			len(features), m.spec.FeatureCount)
	}

	z := make([]float64, len(features))
	for i, x := range features {
		if m.spec.Stds[i] > 0 {
			z[i] = (x - m.spec.Means[i]) / m.spec.Stds[i]
		}
	}

	outputs := make([]float64, len(m.spec.Heads))
	for h, head := range m.spec.Heads {
		v := head[len(head)-1] // bias
		for i, w := range head[:len(head)-1] {
			v += w * z[i]
		}
		outputs[h] = v
	}

	mean := 0.0
	for _, v := range outputs {
		mean += v
	}
	mean /= float64(len(outputs))

	uncertainty := 0.0
	if len(outputs) > 1 {
		variance := 0.0
		for _, v := range outputs {
			d := v - mean
			variance += d * d
		}
		uncertainty = math.Sqrt(variance / float64(len(outputs)-1))
	}
	return mean, uncertainty, nil
}

// InDomain reports whether features sits inside the model's training-domain
// bounds, widened by the configured margin. Models without bounds accept
// everything (R2.4).
func (m *Model) InDomain(features []float64) bool {
	if len(m.spec.DomainMin) == 0 {
		return true
	}
	if len(features) != m.spec.FeatureCount {
		return false
	}
	for i, x := range features {
		span := m.spec.DomainMax[i] - m.spec.DomainMin[i]
		slack := m.spec.DomainMargin * span
		if x < m.spec.DomainMin[i]-slack || x > m.spec.DomainMax[i]+slack {
			return false
		}
	}
	return true
}
