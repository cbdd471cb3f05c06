// Package testimonial defines the data model shared by the extraction
// pipeline and the batch cleaner.
package testimonial

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// Source records where a testimonial came from, for downstream trust weighting.
type Source string

const (
	SourceStructured  Source = "structured"
	SourceTextPattern Source = "text_pattern"
	SourceGenericPage Source = "generic_page"
	SourcePlaceholder Source = "placeholder"
)

// Testimonial is a validated customer review with its attribution.
// Empty Author or DateText means the value is unknown.
type Testimonial struct {
	Text     string `json:"text" yaml:"text" validate:"required"`
	Author   string `json:"author,omitempty" yaml:"author,omitempty"`
	DateText string `json:"date_text,omitempty" yaml:"date_text,omitempty"`
	Source   Source `json:"source" yaml:"source" validate:"required,oneof=structured text_pattern generic_page placeholder"`
}

// RatingSummary is the page-level rating widget, independent of individual reviews.
type RatingSummary struct {
	Count   int      `json:"count" yaml:"count" validate:"gte=0"`
	Average *float64 `json:"average,omitempty" yaml:"average,omitempty"`
}

// ParseRatingSummary builds a summary from the string values page scrapers
// hand over. An unparseable count yields nil; an unparseable average is
// dropped.
func ParseRatingSummary(count, average string) *RatingSummary {
	count = strings.TrimSpace(strings.ReplaceAll(count, ",", ""))
	n, err := strconv.Atoi(count)
	if err != nil || n < 0 {
		return nil
	}

	summary := &RatingSummary{Count: n}
	if avg, err := strconv.ParseFloat(strings.TrimSpace(average), 64); err == nil {
		summary.Average = &avg
	}
	return summary
}

// HasRatings reports whether the summary opens the testimonial gate.
func (r *RatingSummary) HasRatings() bool {
	return r != nil && r.Count > 0
}

// ExtractionResult is the pipeline output. A nil *ExtractionResult means no
// testimonials section is emitted at all.
type ExtractionResult struct {
	Overall         *RatingSummary `json:"overall" yaml:"overall"`
	Individual      []Testimonial  `json:"individual" yaml:"individual"`
	Recommendations []Testimonial  `json:"recommendations" yaml:"recommendations"`
}

// Record is an already-persisted testimonial row handed to the batch cleaner.
type Record struct {
	ID     string `json:"id" yaml:"id"`
	Text   string `json:"text" yaml:"text"`
	Author string `json:"author" yaml:"author"`
}

// CleanAction is the decision the batch cleaner returns for a record.
type CleanAction string

const (
	ActionKeep   CleanAction = "keep"
	ActionUpdate CleanAction = "update"
	ActionDelete CleanAction = "delete"
)

// CleanDecision tells the storage collaborator what to do with a record.
// NewText is only set for ActionUpdate.
type CleanDecision struct {
	ID      string      `json:"id,omitempty" yaml:"id,omitempty"`
	Action  CleanAction `json:"action" yaml:"action"`
	NewText string      `json:"new_text,omitempty" yaml:"new_text,omitempty"`
	Reason  string      `json:"reason,omitempty" yaml:"reason,omitempty"`
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Validate checks the structural invariants and the text length bounds
// (counted in runes).
func (t Testimonial) Validate(minLength, maxLength int) error {
	if err := getValidator().Struct(t); err != nil {
		return fmt.Errorf("invalid testimonial: %w", err)
	}
	bounds := fmt.Sprintf("min=%d,max=%d", minLength, maxLength)
	if err := getValidator().Var(t.Text, bounds); err != nil {
		return fmt.Errorf("testimonial text out of bounds (%s): %w", bounds, err)
	}
	return nil
}
