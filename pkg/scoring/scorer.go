package scoring

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/ChrisMcGann/LipidKey/pkg/core"
	"github.com/ChrisMcGann/LipidKey/pkg/logging"
)

// ErrInvalidPopulation is returned when an annotation cannot be scored. The
// whole batch is rejected and no annotation is modified.
var ErrInvalidPopulation = errors.New("invalid annotation population")

// Summary reports what a scoring pass did.
type Summary struct {
	Annotations int            // population size
	Pairs       int            // ordered pairs evaluated
	Matches     int            // rule firings
	Compared    int            // annotations with at least one rule match
	RuleHits    map[string]int // firings per rule name
}

// Scorer applies elution-order rules to every ordered pair of a population.
type Scorer struct {
	rules   []Rule
	workers int
	logger  *slog.Logger
}

// Option configures a Scorer.
type Option func(*Scorer)

// WithRules replaces the default rule table.
func WithRules(rules []Rule) Option {
	return func(s *Scorer) {
		s.rules = append([]Rule(nil), rules...)
	}
}

// WithWorkers sets the number of goroutines (0 means GOMAXPROCS, 1 runs inline).
func WithWorkers(n int) Option {
	return func(s *Scorer) {
		s.workers = n
	}
}

// WithLogger sets the logger for pass summaries.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scorer) {
		s.logger = logging.OrNoop(logger)
	}
}

// NewScorer creates a scorer with the default rules running inline.
func NewScorer(opts ...Option) *Scorer {
	s := &Scorer{
		rules:   DefaultRules(),
		workers: 1,
		logger:  logging.Noop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Rules returns a copy of the scorer's rule table.
func (s *Scorer) Rules() []Rule {
	return append([]Rule(nil), s.rules...)
}

// Evaluate returns the rules that fire for the ordered pair (a1, a2) without
// touching either accumulator.
func (s *Scorer) Evaluate(a1, a2 *core.Annotation) []Rule {
	var matched []Rule
	for _, r := range s.rules {
		if r.Matches(a1, a2) {
			matched = append(matched, r)
		}
	}
	return matched
}

// ValidatePopulation checks every annotation before any scoring happens. An
// annotation may appear only once.
func ValidatePopulation(population []*core.Annotation) error {
	seen := make(map[*core.Annotation]int, len(population))
	for i, a := range population {
		if a == nil {
			return fmt.Errorf("%w: annotation %d is nil", ErrInvalidPopulation, i)
		}
		if first, ok := seen[a]; ok {
			return fmt.Errorf("%w: annotation %d repeats annotation %d", ErrInvalidPopulation, i, first)
		}
		seen[a] = i
		if err := a.Validate(); err != nil {
			return fmt.Errorf("%w: annotation %d (%s): %w", ErrInvalidPopulation, i, a, err)
		}
	}
	return nil
}

// partial holds one worker's private totals, folded after all workers finish.
type partial struct {
	scores   []int
	counts   []int
	ruleHits []int
	pairs    int
}

func (s *Scorer) newPartial(n int) *partial {
	return &partial{
		scores:   make([]int, n),
		counts:   make([]int, n),
		ruleHits: make([]int, len(s.rules)),
	}
}

// evaluateRange scores every ordered pair whose first member index is in [lo, hi).
func (s *Scorer) evaluateRange(ctx context.Context, population []*core.Annotation, lo, hi int, p *partial) error {
	for i := lo; i < hi; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		a1 := population[i]
		for j, a2 := range population {
			if a1 == a2 {
				continue
			}
			p.pairs++
			for k, r := range s.rules {
				if !r.Matches(a1, a2) {
					continue
				}
				p.scores[i] += r.Delta
				p.counts[i]++
				p.scores[j] += r.Delta
				p.counts[j]++
				p.ruleHits[k]++
			}
		}
	}
	return nil
}

// Score evaluates all ordered pairs of population and accumulates each fired
// rule's delta on both members. Invalid input or cancellation leaves every
// annotation untouched.
func (s *Scorer) Score(ctx context.Context, population []*core.Annotation) (Summary, error) {
	if err := ValidatePopulation(population); err != nil {
		return Summary{}, err
	}

	n := len(population)
	workers := s.workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > n {
		workers = n
	}

	var partials []*partial
	if workers <= 1 {
		p := s.newPartial(n)
		if err := s.evaluateRange(ctx, population, 0, n, p); err != nil {
			return Summary{}, err
		}
		partials = append(partials, p)
	} else {
		partials = make([]*partial, workers)
		chunk := (n + workers - 1) / workers

		g, gctx := errgroup.WithContext(ctx)
		for w := 0; w < workers; w++ {
			lo := w * chunk
			hi := min(lo+chunk, n)
			p := s.newPartial(n)
			partials[w] = p
			if lo >= hi {
				continue
			}
			g.Go(func() error {
				return s.evaluateRange(gctx, population, lo, hi, p)
			})
		}
		if err := g.Wait(); err != nil {
			return Summary{}, err
		}
	}

	summary := s.fold(population, partials)
	s.logger.Info("scoring pass complete",
		"annotations", summary.Annotations,
		"pairs", summary.Pairs,
		"matches", summary.Matches,
		"compared", summary.Compared,
	)
	return summary, nil
}

// fold applies the per-worker totals to the annotations.
func (s *Scorer) fold(population []*core.Annotation, partials []*partial) Summary {
	summary := Summary{
		Annotations: len(population),
		RuleHits:    make(map[string]int, len(s.rules)),
	}
	for _, r := range s.rules {
		summary.RuleHits[r.Name] = 0
	}

	scores := make([]int, len(population))
	counts := make([]int, len(population))
	for _, p := range partials {
		summary.Pairs += p.pairs
		for i := range population {
			scores[i] += p.scores[i]
			counts[i] += p.counts[i]
		}
		for k, hits := range p.ruleHits {
			summary.RuleHits[s.rules[k].Name] += hits
			summary.Matches += hits
		}
	}

	for i, a := range population {
		if counts[i] == 0 {
			continue
		}
		a.AddScores(scores[i], counts[i])
		summary.Compared++
	}
	return summary
}
