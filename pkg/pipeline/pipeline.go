// Package pipeline turns a page snapshot and its rating summary into the
// testimonials section of an agent profile.
package pipeline

import (
	"log/slog"

	"github.com/jmylchreest/reviewsift/internal/logger"
	"github.com/jmylchreest/reviewsift/pkg/dedupe"
	"github.com/jmylchreest/reviewsift/pkg/extractor"
	"github.com/jmylchreest/reviewsift/pkg/patterns"
	"github.com/jmylchreest/reviewsift/pkg/source"
	"github.com/jmylchreest/reviewsift/pkg/testimonial"
)

// Stats reports what each stage did.
type Stats struct {
	// Gated is true when the rating summary closed the gate and nothing ran.
	Gated bool `json:"gated"`

	Extraction  extractor.Stats `json:"extraction"`
	Extracted   int             `json:"extracted"`
	Duplicates  int             `json:"duplicates"`
	Capped      int             `json:"capped"`
	Invalid     int             `json:"invalid"`
	Emitted     int             `json:"emitted"`
	Placeholder bool            `json:"placeholder"`
}

// Pipeline runs extraction, deduplication and the placeholder fallback.
// It holds no per-run state and is safe for concurrent use.
type Pipeline struct {
	set       *patterns.Set
	extractor *extractor.Extractor
	log       *slog.Logger
}

// New creates a Pipeline.
func New(opts ...Option) *Pipeline {
	var cfg Config
	for _, opt := range opts {
		opt(&cfg)
	}

	set := cfg.Patterns
	if set == nil {
		set = patterns.DefaultSet()
	}
	log := cfg.Logger
	if log == nil {
		log = logger.Component("pipeline")
	}

	return &Pipeline{
		set:       set,
		extractor: extractor.New(set, cfg.Logger, cfg.Strategies...),
		log:       log,
	}
}

// Extractor returns the extraction chain the pipeline runs.
func (p *Pipeline) Extractor() *extractor.Extractor {
	return p.extractor
}

// Run returns nil when ratings is nil or has no ratings. Otherwise it returns
// the distinct accepted testimonials as recommendations, capped at the
// configured maximum, or the fixed placeholder when none survive.
// Recommendations whose author could not be resolved carry the configured
// unknown-author label.
func (p *Pipeline) Run(ratings *testimonial.RatingSummary, src source.TextSource) *testimonial.ExtractionResult {
	result, _ := p.RunWithStats(ratings, src)
	return result
}

// RunWithStats is Run that also reports per-stage counts.
func (p *Pipeline) RunWithStats(ratings *testimonial.RatingSummary, src source.TextSource) (*testimonial.ExtractionResult, Stats) {
	var stats Stats
	if !ratings.HasRatings() {
		stats.Gated = true
		p.log.Debug("no ratings, skipping testimonials")
		return nil, stats
	}

	candidates, exStats := p.extractor.ExtractWithStats(src)
	stats.Extraction = exStats
	stats.Extracted = len(candidates)

	distinct, dd := dedupe.DedupeWithStats(candidates, p.set.SimilarityThreshold())
	stats.Duplicates = dd.Dropped

	if limit := p.set.MaxResults(); len(distinct) > limit {
		stats.Capped = len(distinct) - limit
		distinct = distinct[:limit]
	}

	recommendations := make([]testimonial.Testimonial, 0, len(distinct))
	for _, t := range distinct {
		if err := t.Validate(p.set.MinLength(), p.set.MaxLength()); err != nil {
			stats.Invalid++
			p.log.Debug("dropping invalid testimonial", "error", err)
			continue
		}
		if t.Author == "" {
			t.Author = p.set.UnknownAuthor()
		}
		recommendations = append(recommendations, t)
	}

	if len(recommendations) == 0 {
		recommendations = append(recommendations, p.Placeholder())
		stats.Placeholder = true
	}
	stats.Emitted = len(recommendations)

	p.log.Debug("testimonials extracted",
		"extracted", stats.Extracted,
		"duplicates", stats.Duplicates,
		"capped", stats.Capped,
		"emitted", stats.Emitted,
		"placeholder", stats.Placeholder)

	return &testimonial.ExtractionResult{
		Overall:         ratings,
		Individual:      []testimonial.Testimonial{},
		Recommendations: recommendations,
	}, stats
}

// Placeholder returns the fixed non-attributed testimonial.
func (p *Pipeline) Placeholder() testimonial.Testimonial {
	ph := p.set.Placeholder()
	return testimonial.Testimonial{
		Text:   ph.Text,
		Author: ph.Author,
		Source: testimonial.SourcePlaceholder,
	}
}
