// Package batch re-applies the extraction-time validity rules to testimonials
// that are already stored, deciding per record whether to keep, rewrite or
// delete it. It performs no I/O; callers execute the decisions.
package batch

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/jmylchreest/reviewsift/internal/logger"
	"github.com/jmylchreest/reviewsift/pkg/contamination"
	"github.com/jmylchreest/reviewsift/pkg/normalize"
	"github.com/jmylchreest/reviewsift/pkg/patterns"
	"github.com/jmylchreest/reviewsift/pkg/testimonial"
)

// Summary counts decisions by action.
type Summary struct {
	Total   int                         `json:"total"`
	Kept    int                         `json:"kept"`
	Updated int                         `json:"updated"`
	Deleted int                         `json:"deleted"`
	Reasons map[contamination.Class]int `json:"reasons,omitempty"`
}

// Add counts one decision.
func (s *Summary) Add(d testimonial.CleanDecision, class contamination.Class) {
	s.Total++
	switch d.Action {
	case testimonial.ActionKeep:
		s.Kept++
	case testimonial.ActionUpdate:
		s.Updated++
	case testimonial.ActionDelete:
		s.Deleted++
		if s.Reasons == nil {
			s.Reasons = make(map[contamination.Class]int)
		}
		s.Reasons[class]++
	}
}

func (s Summary) String() string {
	return fmt.Sprintf("%d records: %d kept, %d updated, %d deleted", s.Total, s.Kept, s.Updated, s.Deleted)
}

// Cleaner decides what to do with stored testimonials. It shares its
// normalizer and filter rules with the extraction pipeline through the
// pattern set, and is safe for concurrent use.
type Cleaner struct {
	set        *patterns.Set
	normalizer *normalize.Normalizer
	filter     *contamination.Filter
	log        *slog.Logger
}

// New creates a Cleaner. If set is nil the default pattern table is used.
func New(set *patterns.Set) *Cleaner {
	if set == nil {
		set = patterns.DefaultSet()
	}
	return &Cleaner{
		set:        set,
		normalizer: normalize.New(set),
		filter:     contamination.New(set),
		log:        logger.Component("batch"),
	}
}

// CleanRecord normalizes text and classifies the result. An invalid result is
// deleted; a valid result that differs from the stored text is updated;
// anything else is kept. The stored placeholder testimonial is always kept.
func (c *Cleaner) CleanRecord(text, author string) testimonial.CleanDecision {
	d, _ := c.decide(text, author)
	return d
}

func (c *Cleaner) decide(text, author string) (testimonial.CleanDecision, contamination.Class) {
	if text == c.set.Placeholder().Text {
		return testimonial.CleanDecision{Action: testimonial.ActionKeep}, contamination.Valid
	}

	cleaned := c.normalizer.Normalize(text)
	if class := c.filter.Evaluate(cleaned, author); class != contamination.Valid {
		return testimonial.CleanDecision{
			Action: testimonial.ActionDelete,
			Reason: c.reason(class, cleaned),
		}, class
	}

	if cleaned != text {
		return testimonial.CleanDecision{
			Action:  testimonial.ActionUpdate,
			NewText: cleaned,
		}, contamination.Valid
	}
	return testimonial.CleanDecision{Action: testimonial.ActionKeep}, contamination.Valid
}

func (c *Cleaner) reason(class contamination.Class, text string) string {
	if class != contamination.LowQuality {
		return class.String()
	}
	issues := c.filter.QualityIssues(text)
	if len(issues) == 0 {
		return class.String()
	}
	return class.String() + ": " + issues[0]
}

// CleanAll decides every record with up to concurrency workers. Decisions are
// returned in input order with the record ID filled in. If ctx is cancelled
// the error is returned along with whatever was decided so far.
func (c *Cleaner) CleanAll(ctx context.Context, records []testimonial.Record, concurrency int) ([]testimonial.CleanDecision, Summary, error) {
	if concurrency <= 0 {
		concurrency = runtime.GOMAXPROCS(0)
	}

	decisions := make([]testimonial.CleanDecision, len(records))
	classes := make([]contamination.Class, len(records))
	done := make([]bool, len(records))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, rec := range records {
		i, rec := i, rec // per-iteration copy (go directive is 1.21)
		if gCtx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			d, class := c.decide(rec.Text, rec.Author)
			d.ID = rec.ID
			decisions[i] = d
			classes[i] = class
			done[i] = true
			return nil
		})
	}

	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}

	var summary Summary
	out := make([]testimonial.CleanDecision, 0, len(records))
	for i := range records {
		if !done[i] {
			continue
		}
		out = append(out, decisions[i])
		summary.Add(decisions[i], classes[i])
	}

	c.log.Debug("batch cleaned", "records", len(records), "kept", summary.Kept,
		"updated", summary.Updated, "deleted", summary.Deleted)

	if err != nil {
		return out, summary, fmt.Errorf("batch cleanup interrupted: %w", err)
	}
	return out, summary, nil
}
