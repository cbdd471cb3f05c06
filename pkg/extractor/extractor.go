// Package extractor pulls candidate testimonials out of a page snapshot with
// an ordered chain of heuristic strategies and keeps the ones that survive
// normalization and the contamination rules.
package extractor

import (
	"log/slog"
	"strings"

	"github.com/jmylchreest/reviewsift/internal/logger"
	"github.com/jmylchreest/reviewsift/pkg/author"
	"github.com/jmylchreest/reviewsift/pkg/contamination"
	"github.com/jmylchreest/reviewsift/pkg/dedupe"
	"github.com/jmylchreest/reviewsift/pkg/normalize"
	"github.com/jmylchreest/reviewsift/pkg/patterns"
	"github.com/jmylchreest/reviewsift/pkg/source"
	"github.com/jmylchreest/reviewsift/pkg/testimonial"
)

// Candidate is a raw span a strategy believes is a review.
type Candidate struct {
	Text     string
	Author   string
	DateText string
	Source   testimonial.Source

	// Context is the surrounding text the author resolver searches when
	// Author is empty.
	Context string

	// Element is the container the candidate came from, if any.
	Element source.Container
}

// Strategy finds candidates in a snapshot.
type Strategy interface {
	// Name returns the strategy identifier used in logs and stats.
	Name() string

	// TryExtract returns candidates in page order. It never fails; an empty
	// result means the strategy found nothing.
	TryExtract(src source.TextSource) []Candidate
}

// StrategyStats counts what one strategy contributed to an extraction.
type StrategyStats struct {
	Name       string `json:"name"`
	Candidates int    `json:"candidates"`
	Accepted   int    `json:"accepted"`
	Distinct   int    `json:"distinct"`
}

// Stats summarizes an extraction run.
type Stats struct {
	Strategies []StrategyStats              `json:"strategies"`
	Rejected   map[contamination.Class]int `json:"rejected,omitempty"`
}

// Extractor runs strategies in order until enough distinct testimonials
// have been accepted.
type Extractor struct {
	set        *patterns.Set
	strategies []Strategy
	resolver   *author.Resolver
	normalizer *normalize.Normalizer
	filter     *contamination.Filter
	log        *slog.Logger
}

// New creates an Extractor. If set is nil the default pattern table is used;
// if log is nil the "extractor" component logger is used; if no strategies
// are given the built-in chain is used.
func New(set *patterns.Set, log *slog.Logger, strategies ...Strategy) *Extractor {
	if set == nil {
		set = patterns.DefaultSet()
	}
	if log == nil {
		log = logger.Component("extractor")
	}
	if len(strategies) == 0 {
		strategies = DefaultStrategies(set)
	}
	return &Extractor{
		set:        set,
		strategies: strategies,
		resolver:   author.New(set),
		normalizer: normalize.New(set),
		filter:     contamination.New(set),
		log:        log,
	}
}

// DefaultStrategies returns the built-in chain, most trustworthy first:
// structured containers, verified-review blocks, text patterns, generic
// paragraphs.
func DefaultStrategies(set *patterns.Set) []Strategy {
	return []Strategy{
		NewStructured(set),
		NewVerifiedReview(set),
		NewTextPattern(set),
		NewGeneric(set),
	}
}

// Strategies returns the chain in execution order.
func (e *Extractor) Strategies() []Strategy {
	return append([]Strategy(nil), e.strategies...)
}

// Name returns the chain name.
func (e *Extractor) Name() string {
	names := make([]string, 0, len(e.strategies))
	for _, s := range e.strategies {
		names = append(names, s.Name())
	}
	return "chain(" + strings.Join(names, "->") + ")"
}

// Extract returns the accepted testimonials in strategy-priority order.
// Near-duplicates are still present; the pipeline removes them.
func (e *Extractor) Extract(src source.TextSource) []testimonial.Testimonial {
	out, _ := e.ExtractWithStats(src)
	return out
}

// ExtractWithStats is Extract that also reports per-strategy counts.
func (e *Extractor) ExtractWithStats(src source.TextSource) ([]testimonial.Testimonial, Stats) {
	stats := Stats{Rejected: make(map[contamination.Class]int)}
	if src == nil {
		return nil, stats
	}

	var out []testimonial.Testimonial
	distinct := dedupe.New(e.set.SimilarityThreshold())
	target := e.set.TargetCount()

	for _, strategy := range e.strategies {
		candidates := strategy.TryExtract(src)
		st := StrategyStats{Name: strategy.Name(), Candidates: len(candidates)}

		for _, c := range candidates {
			t, class := e.accept(c)
			if class != contamination.Valid {
				stats.Rejected[class]++
				continue
			}
			st.Accepted++
			if distinct.Add(t.Text) {
				st.Distinct++
			}
			out = append(out, t)
		}

		stats.Strategies = append(stats.Strategies, st)
		e.log.Debug("strategy finished",
			"strategy", st.Name,
			"candidates", st.Candidates,
			"accepted", st.Accepted,
			"distinct", st.Distinct)

		if distinct.Len() >= target {
			break
		}
	}

	return out, stats
}

// accept runs one candidate through author resolution, normalization and the
// contamination filter.
func (e *Extractor) accept(c Candidate) (testimonial.Testimonial, contamination.Class) {
	who := strings.TrimSpace(c.Author)
	if who == "" {
		who = e.resolver.Resolve(c.Context, c.Element)
	}

	text := e.normalizer.Normalize(c.Text)
	if text == e.set.Placeholder().Text {
		// A page echoing our own fallback text must not pass as a review.
		e.log.Debug("candidate rejected",
			"class", contamination.LowQuality.String(),
			"reason", "placeholder text",
			"source", string(c.Source))
		return testimonial.Testimonial{}, contamination.LowQuality
	}
	if class := e.filter.Evaluate(text, who); class != contamination.Valid {
		e.log.Debug("candidate rejected",
			"class", class.String(),
			"source", string(c.Source),
			"text", preview(text))
		return testimonial.Testimonial{}, class
	}

	return testimonial.Testimonial{
		Text:     text,
		Author:   who,
		DateText: strings.TrimSpace(c.DateText),
		Source:   c.Source,
	}, contamination.Valid
}

func preview(s string) string {
	const limit = 60
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit]) + "..."
}
