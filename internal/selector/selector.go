// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package selector wires the candidate generators and the screening engine
// into the one-call selection pipeline. Implements: prd006-selection (R1-R5);
//
//	docs/ARCHITECTURE § Selection.
package selector

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/pdiddy/shotgun-csp/internal/descriptor"
	"github.com/pdiddy/shotgun-csp/internal/generator"
	"github.com/pdiddy/shotgun-csp/internal/screen"
	"github.com/pdiddy/shotgun-csp/pkg/types"
)

// Selector runs the full selection pipeline: fan the query out to every
// configured generator, pool their candidates, and screen the pool into a
// ranked shortlist.
type Selector struct {
	generators []generator.Generator
	extractor  *descriptor.Extractor
	predictor  screen.Predictor
	cfg        types.PipelineConfig
	log        *zap.Logger
}

// New assembles the standard pipeline: the substitution generator over lib,
// the Wyckoff generator, and a screening engine around predictor. A nil
// logger disables logging.
func New(lib generator.Library, predictor screen.Predictor, cfg types.PipelineConfig, log *zap.Logger) *Selector {
	if log == nil {
		log = zap.NewNop()
	}
	return &Selector{
		generators: []generator.Generator{
			generator.NewSubstitution(lib, cfg.Substitution, log),
			generator.NewWyckoff(cfg.Wyckoff, log),
		},
		extractor: descriptor.NewExtractor(),
		predictor: predictor,
		cfg:       cfg,
		log:       log,
	}
}

// Option adjusts a single Select call without touching the pipeline
// configuration.
type Option func(*options)

type options struct {
	filter        screen.Filter
	shortlist     int
	seed          uint64
	seedSet       bool
	maxCandidates int
}

// WithFilter prunes candidates with a caller predicate before scoring.
// Rejections count under the Filtered drop cause.
func WithFilter(f screen.Filter) Option {
	return func(o *options) { o.filter = f }
}

// WithShortlistSize overrides the configured shortlist size for this call.
func WithShortlistSize(n int) Option {
	return func(o *options) { o.shortlist = n }
}

// WithSeed overrides the configured generation seed for this call.
func WithSeed(seed uint64) Option {
	return func(o *options) { o.seed = seed; o.seedSet = true }
}

// WithMaxCandidates overrides the per-generator candidate cap for this call.
func WithMaxCandidates(n int) Option {
	return func(o *options) { o.maxCandidates = n }
}

// Select generates candidates for comp at the target volume (Å³ per reduced
// formula unit), screens them, and returns the ranked shortlist. A generator
// failure shrinks the pool and is reported in RankedResult.GeneratorErrors;
// only an invalid query is an error. On cancellation the partial result comes
// back alongside the context error, with Partial set.
func (s *Selector) Select(ctx context.Context, comp types.Composition, volume float64, opts ...Option) (types.RankedResult, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	// The generator sections share one seed by convention; WithSeed
	// overrides it for both.
	seed := s.cfg.Substitution.Seed
	if o.seedSet {
		seed = o.seed
	}
	query := generator.Query{
		Composition:   comp,
		Volume:        volume,
		MaxCandidates: o.maxCandidates,
		Seed:          seed,
	}
	if err := query.Validate(); err != nil {
		return types.RankedResult{}, err
	}
	if len(s.generators) == 0 {
		return types.RankedResult{}, fmt.Errorf("no generators configured")
	}
	reduced, err := comp.Reduced()
	if err != nil {
		return types.RankedResult{}, fmt.Errorf("%w: %v", generator.ErrInvalidQuery, err)
	}

	type generated struct {
		name       string
		candidates []types.Candidate
		err        error
	}
	ch := make(chan generated, len(s.generators))
	var wg sync.WaitGroup
	for _, g := range s.generators {
		wg.Add(1)
		go func(g generator.Generator) {
			defer wg.Done()
			candidates, err := g.Generate(ctx, query)
			ch <- generated{name: g.Name(), candidates: candidates, err: err}
		}(g)
	}
	go func() {
		wg.Wait()
		close(ch)
	}()

	byName := make(map[string]generated, len(s.generators))
	for res := range ch {
		byName[res.name] = res
	}

	// Merge in configured generator order so the pool ordering, and with it
	// every downstream tie-break, is independent of goroutine scheduling.
	var pool []types.Candidate
	var generatorErrors []string
	for _, g := range s.generators {
		res := byName[g.Name()]
		pool = append(pool, res.candidates...)
		if res.err == nil {
			continue
		}
		if errors.Is(res.err, context.Canceled) || errors.Is(res.err, context.DeadlineExceeded) {
			// The run itself is being cancelled; screening reports that.
			continue
		}
		generatorErrors = append(generatorErrors, fmt.Sprintf("%s: %v", g.Name(), res.err))
		s.log.Warn("generator failed",
			zap.String("generator", g.Name()),
			zap.Error(res.err))
	}

	s.log.Info("generation done",
		zap.String("composition", comp.Formula()),
		zap.Int("pool", len(pool)),
		zap.Int("generator_errors", len(generatorErrors)))

	engine := screen.New(s.extractor, s.predictor, s.screenConfig(o), s.log)
	result, err := engine.Screen(ctx, reduced, pool, o.filter)
	result.GeneratorErrors = generatorErrors
	return result, err
}

func (s *Selector) screenConfig(o options) types.ScreenConfig {
	cfg := s.cfg.Screen
	if o.shortlist > 0 {
		cfg.ShortlistSize = o.shortlist
	}
	return cfg
}
