// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Names of the candidate generators, recorded in Provenance.Generator.
// Ranking uses this order to break exact score ties: substitution candidates
// sort ahead of Wyckoff candidates because they inherit a relaxed geometry.
const (
	GeneratorSubstitution = "substitution"
	GeneratorWyckoff      = "wyckoff"
)

// Provenance records how a candidate was produced. Per prd004-generation
// R3.2: every candidate is traceable to its generator, template or space
// group, and emission index.
type Provenance struct {
	// Generator names the producing generator: GeneratorSubstitution or
	// GeneratorWyckoff.
	Generator string `json:"generator" yaml:"generator"`

	// TemplateID identifies the library template a substitution candidate
	// was derived from. Empty for Wyckoff candidates.
	TemplateID string `json:"template_id,omitempty" yaml:"template_id,omitempty"`

	// Prototype is the template's structure-family label, when known.
	Prototype string `json:"prototype,omitempty" yaml:"prototype,omitempty"`

	// Mapping records the element substitution applied to the template,
	// template species → target species. Empty for Wyckoff candidates.
	Mapping map[string]string `json:"mapping,omitempty" yaml:"mapping,omitempty"`

	// SpaceGroupNumber is the space group the candidate was built in.
	SpaceGroupNumber int `json:"space_group_number,omitempty" yaml:"space_group_number,omitempty"`

	// SpaceGroupSymbol is the Hermann-Mauguin symbol of that group.
	SpaceGroupSymbol string `json:"space_group_symbol,omitempty" yaml:"space_group_symbol,omitempty"`

	// WyckoffLetters lists the Wyckoff positions a Wyckoff candidate
	// occupies, in assignment order (e.g. ["4a", "4b"]).
	WyckoffLetters []string `json:"wyckoff_letters,omitempty" yaml:"wyckoff_letters,omitempty"`

	// FormulaUnits is the number of formula units Z in the candidate cell.
	FormulaUnits int `json:"formula_units" yaml:"formula_units"`

	// Index is the candidate's emission index within its generator, the
	// deterministic within-generator ordering used for tie-breaks.
	Index int `json:"index" yaml:"index"`
}

// Candidate is a generated structure plus its provenance and, once the
// screening stage scored it, the predicted energy.
type Candidate struct {
	// Structure is the candidate crystal structure.
	Structure *Structure `json:"structure" yaml:"structure"`

	// Provenance records how the candidate was produced.
	Provenance Provenance `json:"provenance" yaml:"provenance"`

	// Energy is the predicted formation energy per atom (eV/atom).
	// Meaningful only when Scored is true.
	Energy float64 `json:"energy" yaml:"energy"`

	// Uncertainty is the predictor's uncertainty estimate for Energy.
	Uncertainty float64 `json:"uncertainty" yaml:"uncertainty"`

	// Scored reports whether the predictor was applied successfully.
	Scored bool `json:"scored" yaml:"scored"`
}

// DropCounts tallies candidates removed before ranking, by cause.
// Per prd005-screening R4.4: drops are diagnostics, never errors; a drop of
// one candidate must not affect the others.
type DropCounts struct {
	// Invalid counts candidates that failed structure validation.
	Invalid int `json:"invalid" yaml:"invalid"`

	// Extraction counts candidates whose feature extraction failed.
	Extraction int `json:"extraction" yaml:"extraction"`

	// Filtered counts candidates rejected by a caller-supplied filter.
	Filtered int `json:"filtered" yaml:"filtered"`

	// OutOfDomain counts candidates outside the predictor's declared
	// applicability domain.
	OutOfDomain int `json:"out_of_domain" yaml:"out_of_domain"`

	// PredictFailed counts candidates for which the predictor returned an
	// error.
	PredictFailed int `json:"predict_failed" yaml:"predict_failed"`

	// PredictTimeout counts candidates whose prediction exceeded the
	// per-candidate time budget.
	PredictTimeout int `json:"predict_timeout" yaml:"predict_timeout"`
}

// Total returns the number of dropped candidates across all causes.
func (d DropCounts) Total() int {
	return d.Invalid + d.Extraction + d.Filtered + d.OutOfDomain + d.PredictFailed + d.PredictTimeout
}

// Any reports whether any candidate was dropped.
func (d DropCounts) Any() bool {
	return d.Total() > 0
}

// RankedEntry is one shortlist position.
type RankedEntry struct {
	// Rank is the 1-based shortlist position.
	Rank int `json:"rank" yaml:"rank"`

	// Candidate is the surviving representative of its duplicate cluster.
	Candidate Candidate `json:"candidate" yaml:"candidate"`

	// Duplicates is the number of near-duplicate candidates collapsed into
	// this entry.
	Duplicates int `json:"duplicates" yaml:"duplicates"`
}

// RankedResult is the output of a screening run: the shortlist plus the
// diagnostics needed to judge it. Per prd005-screening R4.1-R4.5.
type RankedResult struct {
	// Entries is the shortlist in ascending predicted-energy order.
	Entries []RankedEntry `json:"entries" yaml:"entries"`

	// Considered is the number of candidates entering the screening stage.
	Considered int `json:"considered" yaml:"considered"`

	// Unique is the number of candidates remaining after deduplication.
	Unique int `json:"unique" yaml:"unique"`

	// DuplicatesRemoved is the number of candidates collapsed by dedup.
	DuplicatesRemoved int `json:"duplicates_removed" yaml:"duplicates_removed"`

	// Dropped tallies candidates removed before ranking, by cause.
	Dropped DropCounts `json:"dropped" yaml:"dropped"`

	// GeneratorErrors lists generator failures that reduced the candidate
	// pool without aborting the run, as "name: message" strings.
	GeneratorErrors []string `json:"generator_errors,omitempty" yaml:"generator_errors,omitempty"`

	// Partial is true when the run was cancelled and the shortlist covers
	// only the candidates scored before cancellation.
	Partial bool `json:"partial" yaml:"partial"`

	// RunID uniquely identifies this screening run in logs and exports.
	RunID string `json:"run_id" yaml:"run_id"`

	// Elapsed is the wall-clock duration of the run.
	Elapsed time.Duration `json:"elapsed" yaml:"elapsed"`
}

// Survival returns the fraction of considered candidates that reached the
// ranked pool, 0 when nothing was considered. A low survival ratio with a
// dominant drop cause is the first thing to inspect when a run returns fewer
// results than expected.
func (r RankedResult) Survival() float64 {
	if r.Considered == 0 {
		return 0
	}
	ranked := r.Unique - r.Dropped.OutOfDomain - r.Dropped.PredictFailed - r.Dropped.PredictTimeout
	if ranked < 0 {
		ranked = 0
	}
	return float64(ranked) / float64(r.Considered)
}
