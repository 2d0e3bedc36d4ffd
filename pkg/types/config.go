package types

import "time"

// GeneratorConfig holds shared settings used by both candidate generators.
type GeneratorConfig struct {
	// MaxCandidates caps how many candidates a single generator may emit
	// (default 500). Generation stops at the cap; it is not an error.
	MaxCandidates int `json:"max_candidates" yaml:"max_candidates"`

	// Seed initializes the deterministic random streams. Runs with equal
	// seed, inputs, and configuration produce identical candidates
	// (default 1).
	Seed uint64 `json:"seed" yaml:"seed"`

	// MinDistanceFactor rejects geometries in which two atoms sit closer
	// than this fraction of the sum of their covalent radii (default 0.6).
	MinDistanceFactor float64 `json:"min_distance_factor" yaml:"min_distance_factor"`
}

// SubstitutionConfig holds settings for the template-substitution generator.
// Per prd004-generation R3.3-R3.5.
type SubstitutionConfig struct {
	GeneratorConfig `yaml:",inline"`

	// RadiusTolerance is the maximum relative covalent-radius mismatch
	// accepted when substituting one element for another (default 0.3).
	// Substitutions involving an element with no tabulated radius are
	// always accepted.
	RadiusTolerance float64 `json:"radius_tolerance" yaml:"radius_tolerance"`

	// MaxTemplates caps how many library templates are expanded per query
	// (default 100).
	MaxTemplates int `json:"max_templates" yaml:"max_templates"`
}

// WyckoffConfig holds settings for the symmetry-construction generator.
// Per prd004-generation R3.6-R3.9.
type WyckoffConfig struct {
	GeneratorConfig `yaml:",inline"`

	// MaxFormulaUnits is the largest cell size, in formula units of the
	// reduced target composition, that assignments are enumerated for
	// (default 4).
	MaxFormulaUnits int `json:"max_formula_units" yaml:"max_formula_units"`

	// PlacementAttempts is how many deterministic coordinate resamples are
	// tried per assignment before the assignment is abandoned for failing
	// the minimum-distance check (default 20).
	PlacementAttempts int `json:"placement_attempts" yaml:"placement_attempts"`
}

// ScreenConfig holds settings for the screening and ranking stage.
// Per prd005-screening R4.1-R4.5.
type ScreenConfig struct {
	// ShortlistSize is the maximum number of ranked entries returned
	// (default 10).
	ShortlistSize int `json:"shortlist_size" yaml:"shortlist_size"`

	// DedupTolerance is the fingerprint-distance threshold below which two
	// candidates with equal species counts are treated as the same
	// structure (default 0.15). Raise it to collapse more aggressively.
	DedupTolerance float64 `json:"dedup_tolerance" yaml:"dedup_tolerance"`

	// Workers bounds the number of concurrent predictor calls (default 4).
	Workers int `json:"workers" yaml:"workers"`

	// PredictTimeout is the per-candidate time budget for one predictor
	// call (default 30s). A candidate that exceeds it is dropped; the run
	// continues.
	PredictTimeout time.Duration `json:"predict_timeout" yaml:"predict_timeout"`
}

// LibraryConfig holds settings for the template library.
// Per prd002-library R2.3-R2.4.
type LibraryConfig struct {
	// Path is the SQLite database file holding the template library.
	Path string `json:"path" yaml:"path"`

	// MaxTemplates is the default cap on templates returned per pattern
	// query (default 100).
	MaxTemplates int `json:"max_templates" yaml:"max_templates"`
}

// PredictorConfig holds settings for the energy-predictor artifact.
type PredictorConfig struct {
	// ModelPath is the YAML artifact holding the trained surrogate model.
	ModelPath string `json:"model_path" yaml:"model_path"`
}

// PipelineConfig groups all stage configurations for the selection pipeline.
type PipelineConfig struct {
	Substitution SubstitutionConfig `json:"substitution" yaml:"substitution"`
	Wyckoff      WyckoffConfig      `json:"wyckoff" yaml:"wyckoff"`
	Screen       ScreenConfig       `json:"screen" yaml:"screen"`
	Library      LibraryConfig      `json:"library" yaml:"library"`
	Predictor    PredictorConfig    `json:"predictor" yaml:"predictor"`
}

// DefaultConfig returns the pipeline defaults documented on each field.
func DefaultConfig() PipelineConfig {
	return PipelineConfig{
		Substitution: SubstitutionConfig{
			GeneratorConfig: GeneratorConfig{MaxCandidates: 500, Seed: 1, MinDistanceFactor: 0.6},
			RadiusTolerance: 0.3,
			MaxTemplates:    100,
		},
		Wyckoff: WyckoffConfig{
			GeneratorConfig:   GeneratorConfig{MaxCandidates: 500, Seed: 1, MinDistanceFactor: 0.6},
			MaxFormulaUnits:   4,
			PlacementAttempts: 20,
		},
		Screen: ScreenConfig{
			ShortlistSize:  10,
			DedupTolerance: 0.15,
			Workers:        4,
			PredictTimeout: 30 * time.Second,
		},
		Library: LibraryConfig{
			Path:         "templates.db",
			MaxTemplates: 100,
		},
	}
}
