// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package screen turns a raw candidate pool into a ranked shortlist. The
// pipeline is validate, extract, filter, deduplicate, score, rank, truncate;
// every per-candidate failure is tallied as a drop diagnostic rather than an
// error, so one bad candidate never sinks a run. Implements: prd005-screening
// (R4.1-R4.5);
//
//	docs/ARCHITECTURE § Screening.
package screen

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/shotgun-csp/internal/crystal"
	"github.com/pdiddy/shotgun-csp/internal/descriptor"
	"github.com/pdiddy/shotgun-csp/pkg/types"
)

// Predictor scores a feature vector with a formation energy and an
// uncertainty estimate. Implementations must be safe for concurrent use.
type Predictor interface {
	Predict(ctx context.Context, features []float64) (energy, uncertainty float64, err error)

	// InDomain reports whether the feature vector lies inside the
	// predictor's declared applicability domain. Out-of-domain candidates
	// are dropped without calling Predict.
	InDomain(features []float64) bool
}

// Filter accepts or rejects a candidate before deduplication. Rejections are
// tallied under the Filtered drop cause.
type Filter func(types.Candidate) bool

// Engine screens candidate pools against one predictor.
type Engine struct {
	extractor *descriptor.Extractor
	predictor Predictor
	cfg       types.ScreenConfig
	log       *zap.Logger
}

// New returns an Engine. Zero config fields fall back to the documented
// defaults; a nil logger disables logging.
func New(extractor *descriptor.Extractor, predictor Predictor, cfg types.ScreenConfig, log *zap.Logger) *Engine {
	defaults := types.DefaultConfig().Screen
	if cfg.ShortlistSize <= 0 {
		cfg.ShortlistSize = defaults.ShortlistSize
	}
	if cfg.DedupTolerance <= 0 {
		cfg.DedupTolerance = defaults.DedupTolerance
	}
	if cfg.Workers <= 0 {
		cfg.Workers = defaults.Workers
	}
	if cfg.PredictTimeout <= 0 {
		cfg.PredictTimeout = defaults.PredictTimeout
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{extractor: extractor, predictor: predictor, cfg: cfg, log: log}
}

// poolEntry is a candidate that survived validation and extraction.
type poolEntry struct {
	cand     types.Candidate
	features []float64
}

// Scoring outcomes per duplicate-cluster representative.
const (
	outcomePending = iota // not scored: run was cancelled first
	outcomeScored
	outcomeOutOfDomain
	outcomeFailed
	outcomeTimeout
)

// Screen ranks candidates by predicted energy and returns the shortlist with
// full drop diagnostics. comp is the target composition the candidates
// realize; it feeds the composition block of the feature vector. On
// cancellation Screen returns the partial result alongside the context error,
// with Partial set.
func (e *Engine) Screen(ctx context.Context, comp types.Composition, candidates []types.Candidate, filter Filter) (types.RankedResult, error) {
	start := time.Now()
	result := types.RankedResult{
		RunID:      uuid.NewString(),
		Considered: len(candidates),
	}
	e.log.Info("screening started",
		zap.String("run_id", result.RunID),
		zap.String("composition", comp.Formula()),
		zap.Int("considered", len(candidates)))

	kept, interrupted := e.admit(ctx, comp, candidates, filter, &result)
	if interrupted != nil {
		result.Partial = true
		result.Elapsed = time.Since(start)
		return result, interrupted
	}

	structures := make([]*types.Structure, len(kept))
	fingerprints := make([][]float64, len(kept))
	for i, entry := range kept {
		structures[i] = entry.cand.Structure
		fingerprints[i] = e.extractor.Fingerprint(entry.features)
	}
	clusters := clusterDuplicates(crystal.Matcher{Tolerance: e.cfg.DedupTolerance}, structures, fingerprints)
	result.Unique = len(clusters)
	result.DuplicatesRemoved = len(kept) - len(clusters)

	outcomes, energies, uncertainties, runErr := e.score(ctx, kept, clusters)
	if runErr != nil {
		result.Partial = true
	}

	ranked := make([]int, 0, len(clusters))
	for ci, outcome := range outcomes {
		switch outcome {
		case outcomeScored:
			ranked = append(ranked, ci)
		case outcomeOutOfDomain:
			result.Dropped.OutOfDomain++
		case outcomeFailed:
			result.Dropped.PredictFailed++
		case outcomeTimeout:
			result.Dropped.PredictTimeout++
		}
	}
	sort.Slice(ranked, func(a, b int) bool {
		ca, cb := ranked[a], ranked[b]
		if energies[ca] != energies[cb] {
			return energies[ca] < energies[cb]
		}
		if uncertainties[ca] != uncertainties[cb] {
			return uncertainties[ca] < uncertainties[cb]
		}
		ga := generatorRank(kept[clusters[ca].rep].cand.Provenance.Generator)
		gb := generatorRank(kept[clusters[cb].rep].cand.Provenance.Generator)
		if ga != gb {
			return ga < gb
		}
		return clusters[ca].rep < clusters[cb].rep
	})
	if len(ranked) > e.cfg.ShortlistSize {
		ranked = ranked[:e.cfg.ShortlistSize]
	}

	result.Entries = make([]types.RankedEntry, len(ranked))
	for i, ci := range ranked {
		cand := kept[clusters[ci].rep].cand
		cand.Energy = energies[ci]
		cand.Uncertainty = uncertainties[ci]
		cand.Scored = true
		result.Entries[i] = types.RankedEntry{
			Rank:       i + 1,
			Candidate:  cand,
			Duplicates: len(clusters[ci].members) - 1,
		}
	}

	result.Elapsed = time.Since(start)
	e.log.Info("screening done",
		zap.String("run_id", result.RunID),
		zap.Int("unique", result.Unique),
		zap.Int("ranked", len(result.Entries)),
		zap.Int("dropped", result.Dropped.Total()),
		zap.Bool("partial", result.Partial),
		zap.Duration("elapsed", result.Elapsed))
	return result, runErr
}

// admit runs the sequential pre-dedup phase: structure validation, feature
// extraction, and the caller's filter. It tallies drops into result and
// returns the surviving pool, or the context error if the run was cancelled
// mid-phase. All candidates share comp's composition block, so feature
// vectors stay comparable across cell sizes.
func (e *Engine) admit(ctx context.Context, comp types.Composition, candidates []types.Candidate, filter Filter, result *types.RankedResult) ([]poolEntry, error) {
	kept := make([]poolEntry, 0, len(candidates))
	for _, cand := range candidates {
		if err := ctx.Err(); err != nil {
			return kept, err
		}
		if !validStructure(cand.Structure) {
			result.Dropped.Invalid++
			e.dropped(cand, "invalid")
			continue
		}
		features, err := e.extractor.Extract(cand.Structure, comp)
		if err != nil {
			result.Dropped.Extraction++
			e.dropped(cand, "extraction")
			continue
		}
		if filter != nil && !filter(cand) {
			result.Dropped.Filtered++
			e.dropped(cand, "filtered")
			continue
		}
		kept = append(kept, poolEntry{cand: cand, features: features})
	}
	return kept, nil
}

func (e *Engine) dropped(cand types.Candidate, cause string) {
	e.log.Debug("candidate dropped",
		zap.String("cause", cause),
		zap.String("generator", cand.Provenance.Generator),
		zap.Int("index", cand.Provenance.Index))
}

// score runs the predictor over cluster representatives with bounded
// concurrency. Outcome classification is per representative; the returned
// error is non-nil only when the run context was cancelled.
func (e *Engine) score(ctx context.Context, kept []poolEntry, clusters []cluster) (outcomes []int, energies, uncertainties []float64, err error) {
	outcomes = make([]int, len(clusters))
	energies = make([]float64, len(clusters))
	uncertainties = make([]float64, len(clusters))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Workers)
	for ci := range clusters {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			entry := kept[clusters[ci].rep]
			if !e.predictor.InDomain(entry.features) {
				outcomes[ci] = outcomeOutOfDomain
				return nil
			}
			energy, uncertainty, err := e.predict(gctx, entry.features)
			switch {
			case err == nil:
				outcomes[ci] = outcomeScored
				energies[ci] = energy
				uncertainties[ci] = uncertainty
			case gctx.Err() != nil:
				// The run itself was cancelled; this representative
				// stays unscored.
				return gctx.Err()
			case errors.Is(err, context.DeadlineExceeded):
				outcomes[ci] = outcomeTimeout
				e.dropped(entry.cand, "predict_timeout")
			default:
				outcomes[ci] = outcomeFailed
				e.dropped(entry.cand, "predict_failed")
			}
			return nil
		})
	}
	return outcomes, energies, uncertainties, g.Wait()
}

// predict applies the per-candidate time budget around one predictor call.
// The select guards against predictors that ignore their context: the call
// keeps running in its goroutine, but the run moves on.
func (e *Engine) predict(ctx context.Context, features []float64) (float64, float64, error) {
	tctx, cancel := context.WithTimeout(ctx, e.cfg.PredictTimeout)
	defer cancel()

	type reply struct {
		energy, uncertainty float64
		err                 error
	}
	ch := make(chan reply, 1)
	go func() {
		energy, uncertainty, err := e.predictor.Predict(tctx, features)
		ch <- reply{energy, uncertainty, err}
	}()
	select {
	case r := <-ch:
		return r.energy, r.uncertainty, r.err
	case <-tctx.Done():
		return 0, 0, tctx.Err()
	}
}

// validStructure rejects the malformed shapes that reach the engine when a
// caller bypasses the constructors.
func validStructure(s *types.Structure) bool {
	if s == nil || s.NumSites() == 0 {
		return false
	}
	return s.Lattice.Volume() > 1e-8
}

// generatorRank orders generators for exact score ties: substitution
// candidates inherit a relaxed geometry and rank ahead.
func generatorRank(name string) int {
	switch name {
	case types.GeneratorSubstitution:
		return 0
	case types.GeneratorWyckoff:
		return 1
	default:
		return 2
	}
}
