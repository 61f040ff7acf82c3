// Package labeler scans an entire series for wave patterns and resolves the
// overlapping candidates into one consistent labeling of every index.
package labeler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"example.com/elliott-wave-analyzer/internal/analyzer"
	"example.com/elliott-wave-analyzer/internal/kline"
	"example.com/elliott-wave-analyzer/internal/wave"
)

// Strategy selects the candidate ordering used during overlap resolution.
type Strategy string

const (
	// StrategyHighestProbability claims ranges in descending probability.
	StrategyHighestProbability Strategy = "highest_probability"
	// StrategyLongestSpan claims ranges in descending total span.
	StrategyLongestSpan Strategy = "longest_span"
	// StrategyChronological claims ranges in ascending start index.
	StrategyChronological Strategy = "chronological"
)

// ParseStrategy parses an overlap-resolution strategy name.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case StrategyHighestProbability, StrategyLongestSpan, StrategyChronological:
		return Strategy(s), nil
	default:
		return "", fmt.Errorf("labeler: unknown overlap strategy %q", s)
	}
}

// Config bounds a historical scan.
type Config struct {
	// MinProbability is the floor for collected patterns.
	MinProbability float64
	// Stride steps the start index between scans.
	Stride int
	// MaxPerStart caps the patterns kept per start index and shape.
	MaxPerStart int
	// Strategy resolves contested index ranges.
	Strategy Strategy
	// MinWindow is the minimum number of bars that must remain after a
	// start index for it to be scanned.
	MinWindow int
	// Workers sizes the scan pool; 0 means one worker per available CPU.
	Workers int
	// Impulse and Correction select the shapes scanned for.
	Impulse    bool
	Correction bool
}

// Validate rejects configurations before any scan begins.
func (c Config) Validate() error {
	if c.MinProbability < 0 || c.MinProbability > 100 {
		return fmt.Errorf("labeler: min probability %.2f outside [0,100]", c.MinProbability)
	}
	if c.Stride < 1 {
		return fmt.Errorf("labeler: stride %d must be positive", c.Stride)
	}
	if c.MaxPerStart < 1 {
		return fmt.Errorf("labeler: max patterns per start %d must be positive", c.MaxPerStart)
	}
	if _, err := ParseStrategy(string(c.Strategy)); err != nil {
		return err
	}
	if !c.Impulse && !c.Correction {
		return fmt.Errorf("labeler: at least one pattern shape must be enabled")
	}
	return nil
}

// Segment is one labeled wave segment of the final labeling. Several
// segments share a PatternID since a pattern covers all of its waves.
type Segment struct {
	PatternID   int             `json:"pattern_id"`
	Kind        wave.Kind       `json:"kind"`
	Label       string          `json:"label"`
	StartIdx    int             `json:"start_idx"`
	EndIdx      int             `json:"end_idx"`
	StartPrice  float64         `json:"start_price"`
	EndPrice    float64         `json:"end_price"`
	Direction   kline.Direction `json:"direction"`
	Probability float64         `json:"probability"`
}

// PatternRecord is one considered candidate, kept for audit whether or not
// resolution accepted any of its segments.
type PatternRecord struct {
	ID          int                `json:"id"`
	Kind        wave.Kind          `json:"kind"`
	StartIdx    int                `json:"start_idx"`
	EndIdx      int                `json:"end_idx"`
	Probability float64            `json:"probability"`
	Accepted    bool               `json:"accepted"`
	Candidate   analyzer.Candidate `json:"candidate"`
}

// Result is the complete outcome of one labeling run.
type Result struct {
	Segments []Segment       `json:"segments"`
	Patterns []PatternRecord `json:"patterns"`
	Stats    Stats           `json:"stats"`
	// ElapsedSeconds is the wall-clock run time in seconds.
	ElapsedSeconds float64 `json:"elapsed_seconds"`
}

// Labeler owns one scan configuration and the analyzer it drives.
type Labeler struct {
	cfg Config
	an  *analyzer.Analyzer
	log zerolog.Logger
}

// New builds a labeler, failing fast on an invalid configuration.
func New(cfg Config, an *analyzer.Analyzer, log zerolog.Logger) (*Labeler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.MinWindow <= 0 {
		cfg.MinWindow = 50
	}
	return &Labeler{
		cfg: cfg,
		an:  an,
		log: log.With().Str("component", "labeler").Logger(),
	}, nil
}

// Label scans the whole series and resolves overlaps into a consistent
// labeling. The same series and configuration always produce the same result.
func (l *Labeler) Label(ctx context.Context, series kline.Series) (Result, error) {
	return l.LabelStream(ctx, series, nil)
}

// LabelStream is Label with a per-segment callback invoked, in claim order,
// for every segment resolution accepts. A non-nil callback error aborts the
// run.
func (l *Labeler) LabelStream(ctx context.Context, series kline.Series, emit func(Segment) error) (Result, error) {
	if err := series.Validate(); err != nil {
		return Result{}, err
	}

	started := time.Now()
	candidates, err := l.scan(ctx, series)
	if err != nil {
		return Result{}, err
	}
	l.log.Info().Int("candidates", len(candidates)).Str("strategy", string(l.cfg.Strategy)).
		Msg("scan complete, resolving overlaps")

	res, err := l.resolve(len(series), candidates, emit)
	if err != nil {
		return Result{}, err
	}
	res.Stats = computeStats(res)
	res.ElapsedSeconds = time.Since(started).Seconds()
	return res, nil
}

// scan runs the driver at strided start indices with a bounded worker pool.
// Each iteration's output is self-contained, so cancellation between
// iterations leaves no partial state behind.
func (l *Labeler) scan(ctx context.Context, series kline.Series) ([]PatternRecord, error) {
	var starts []int
	for idx := 0; idx+l.cfg.MinWindow <= len(series); idx += l.cfg.Stride {
		starts = append(starts, idx)
	}

	workers := l.cfg.Workers
	if workers <= 0 {
		workers = defaultWorkers()
	}

	jobs := make(chan int)
	type scanOut struct {
		candidates []analyzer.Candidate
		kinds      []wave.Kind
		err        error
	}
	results := make(chan scanOut, workers)

	var kinds []wave.Kind
	if l.cfg.Impulse {
		kinds = append(kinds, wave.KindImpulse)
	}
	if l.cfg.Correction {
		kinds = append(kinds, wave.KindCorrection)
	}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				if ctx.Err() != nil {
					return
				}
				var out scanOut
				for _, kind := range kinds {
					res, err := l.an.Analyze(ctx, series, idx, kind)
					if err != nil {
						out.err = err
						break
					}
					kept := res.Candidates
					if len(kept) > l.cfg.MaxPerStart {
						kept = kept[:l.cfg.MaxPerStart]
					}
					for _, c := range kept {
						if c.Probability.Overall < l.cfg.MinProbability {
							continue
						}
						out.candidates = append(out.candidates, c)
						out.kinds = append(out.kinds, kind)
					}
				}
				results <- out
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, idx := range starts {
			select {
			case jobs <- idx:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	// Merge and dedupe: adjacent start indices often rediscover the same
	// pattern from the same first swing. Keep draining after an error so no
	// worker stays blocked on send.
	seen := make(map[string]bool)
	var records []PatternRecord
	var scanErr error
	for out := range results {
		if out.err != nil {
			if scanErr == nil {
				scanErr = out.err
			}
			continue
		}
		if scanErr != nil {
			continue
		}
		for i, c := range out.candidates {
			key := dedupeKey(out.kinds[i], c)
			if seen[key] {
				continue
			}
			seen[key] = true
			records = append(records, PatternRecord{
				Kind:        out.kinds[i],
				StartIdx:    c.Pattern.StartIdx(),
				EndIdx:      c.Pattern.EndIdx(),
				Probability: c.Probability.Overall,
				Candidate:   c,
			})
		}
	}
	if scanErr != nil {
		return nil, scanErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// A stable global order (and stable IDs) regardless of worker timing.
	// The dedupe key is a total order: no two kept records share one.
	sort.Slice(records, func(i, j int) bool {
		if records[i].StartIdx != records[j].StartIdx {
			return records[i].StartIdx < records[j].StartIdx
		}
		return dedupeKey(records[i].Kind, records[i].Candidate) < dedupeKey(records[j].Kind, records[j].Candidate)
	})
	for i := range records {
		records[i].ID = i
	}
	return records, nil
}

func dedupeKey(kind wave.Kind, c analyzer.Candidate) string {
	return fmt.Sprintf("%s|%d|%d|%v", kind, c.Pattern.StartIdx(), c.Pattern.EndIdx(), c.Option.Counts)
}
