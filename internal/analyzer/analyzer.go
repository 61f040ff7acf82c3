// Package analyzer drives the scoring pipeline for a single start index:
// extract swings, enumerate options, assemble, validate, score, and project
// targets for the best surviving candidates.
package analyzer

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"example.com/elliott-wave-analyzer/internal/confirm"
	"example.com/elliott-wave-analyzer/internal/kline"
	"example.com/elliott-wave-analyzer/internal/score"
	"example.com/elliott-wave-analyzer/internal/target"
	"example.com/elliott-wave-analyzer/internal/wave"
)

// Config bounds the search of one driver call.
type Config struct {
	// MinProbability is the 0-100 floor below which candidates are discarded.
	MinProbability float64
	// MaxSwings caps how many swings an option may consume.
	MaxSwings int
	// MaxResults caps how many candidates a call returns.
	MaxResults int
	// Workers sizes the option-scoring pool; 0 means GOMAXPROCS.
	Workers int
	// Confirmation attaches reversal-candle signals near the primary target
	// and the invalidation level when targets are computed.
	Confirmation bool
}

// Validate rejects configurations before any search begins.
func (c Config) Validate() error {
	if c.MinProbability < 0 || c.MinProbability > 100 {
		return fmt.Errorf("analyzer: min probability %.2f outside [0,100]", c.MinProbability)
	}
	if c.MaxSwings < 3 {
		return fmt.Errorf("analyzer: max swings %d below minimum pattern size", c.MaxSwings)
	}
	if c.MaxResults < 1 {
		return fmt.Errorf("analyzer: max results %d must be positive", c.MaxResults)
	}
	if c.Workers < 0 {
		return fmt.Errorf("analyzer: workers %d must not be negative", c.Workers)
	}
	return nil
}

// Candidate is one valid, scored pattern.
type Candidate struct {
	Pattern     wave.Pattern       `json:"pattern"`
	Option      wave.Option        `json:"option"`
	Probability score.Probability  `json:"probability"`
	Targets     *target.Projection `json:"targets,omitempty"`
	Confirms    []confirm.Signal   `json:"confirmations,omitempty"`
}

// Result of one driver call. Found is false when no candidate clears the
// probability floor; the driver never returns a partial best-effort guess.
type Result struct {
	Found      bool        `json:"found"`
	Candidates []Candidate `json:"candidates,omitempty"`
}

// Analyzer chains the pipeline stages. It holds no per-call state; a single
// instance may serve concurrent calls.
type Analyzer struct {
	cfg     Config
	log     zerolog.Logger
	checker *confirm.Checker
}

// New builds an analyzer, failing fast on an invalid configuration.
func New(cfg Config, log zerolog.Logger) (*Analyzer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Analyzer{
		cfg:     cfg,
		log:     log.With().Str("component", "analyzer").Logger(),
		checker: confirm.NewChecker(),
	}, nil
}

// Analyze returns the highest-probability valid patterns of the given shape
// starting at or after startIdx, ordered by descending probability with ties
// broken by earliest start then smallest span.
func (a *Analyzer) Analyze(ctx context.Context, series kline.Series, startIdx int, kind wave.Kind) (Result, error) {
	if !kind.Valid() {
		return Result{}, fmt.Errorf("analyzer: unknown pattern kind %q", kind)
	}
	if err := series.Validate(); err != nil {
		return Result{}, err
	}
	swings := kline.ExtractSwings(series)
	return a.analyzeSwings(ctx, swings, startIdx, kind)
}

// AnalyzeWithTargets runs Analyze and projects the next expected wave of each
// surviving candidate against currentPrice.
func (a *Analyzer) AnalyzeWithTargets(ctx context.Context, series kline.Series, startIdx int, kind wave.Kind, currentPrice float64) (Result, error) {
	res, err := a.Analyze(ctx, series, startIdx, kind)
	if err != nil || !res.Found {
		return res, err
	}
	for i := range res.Candidates {
		c := &res.Candidates[i]
		proj, err := target.ForPattern(c.Pattern, currentPrice)
		if err != nil {
			return Result{}, err
		}
		c.Targets = &proj
		if a.cfg.Confirmation && len(proj.Targets) > 0 {
			c.Confirms = append(c.Confirms, a.checker.AtLevel(series, proj.Targets[0].Price)...)
			c.Confirms = append(c.Confirms, a.checker.AtLevel(series, proj.Invalidation)...)
		}
	}
	return res, nil
}

// analyzeSwings scores every option in parallel. Each option reads only its
// own slice of the immutable swing chain, so workers share nothing; results
// are merged after the pool drains.
func (a *Analyzer) analyzeSwings(ctx context.Context, swings []kline.Swing, startIdx int, kind wave.Kind) (Result, error) {
	start := firstSwingAt(swings, startIdx)
	if start < 0 {
		return Result{}, nil
	}
	available := len(swings) - start
	if available < kind.Segments() {
		return Result{}, nil
	}

	workers := a.cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	jobs := make(chan wave.Option)
	results := make(chan Candidate, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for opt := range jobs {
				if ctx.Err() != nil {
					return
				}
				p, ok := wave.Assemble(swings, start, opt, kind)
				if !ok {
					continue
				}
				if wave.IntraInvalidated(swings, start, opt, kind) {
					continue
				}
				prob := score.Score(p)
				if !prob.Valid || prob.Overall < a.cfg.MinProbability {
					continue
				}
				results <- Candidate{Pattern: p, Option: opt, Probability: prob}
			}
		}()
	}

	go func() {
		defer close(jobs)
		it := wave.NewOptionIterator(kind.Segments(), available, a.cfg.MaxSwings)
		for {
			opt, ok := it.Next()
			if !ok {
				return
			}
			select {
			case jobs <- opt:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	var candidates []Candidate
	for c := range results {
		candidates = append(candidates, c)
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	sortCandidates(candidates)
	if len(candidates) > a.cfg.MaxResults {
		candidates = candidates[:a.cfg.MaxResults]
	}
	if len(candidates) == 0 {
		a.log.Debug().Int("start", startIdx).Str("kind", string(kind)).Msg("no pattern cleared the probability floor")
		return Result{}, nil
	}
	return Result{Found: true, Candidates: candidates}, nil
}

// sortCandidates orders by probability descending; ties prefer the earliest
// start index, then the smallest span (the simpler explanation).
func sortCandidates(cs []Candidate) {
	sort.SliceStable(cs, func(i, j int) bool {
		a, b := cs[i], cs[j]
		if a.Probability.Overall != b.Probability.Overall {
			return a.Probability.Overall > b.Probability.Overall
		}
		if a.Pattern.StartIdx() != b.Pattern.StartIdx() {
			return a.Pattern.StartIdx() < b.Pattern.StartIdx()
		}
		return a.Pattern.Span() < b.Pattern.Span()
	})
}

// firstSwingAt returns the position of the first swing starting at or after
// idx, or -1 when the chain ends before it.
func firstSwingAt(swings []kline.Swing, idx int) int {
	for i, s := range swings {
		if s.StartIdx >= idx {
			return i
		}
	}
	return -1
}
