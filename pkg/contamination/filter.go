// Package contamination classifies candidate text as a genuine testimonial
// or as navigation, rating-widget, truncated or too-short debris.
package contamination

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/jmylchreest/reviewsift/pkg/patterns"
)

// Class is the outcome of classifying a text span.
type Class int

const (
	Valid Class = iota
	Navigation
	RatingOnly
	Truncated
	TooShort
	// LowQuality passes the contamination rules but fails the content-quality
	// heuristic. Only Evaluate returns it.
	LowQuality
)

var classNames = map[Class]string{
	Valid:      "valid",
	Navigation: "navigation",
	RatingOnly: "rating_only",
	Truncated:  "truncated",
	TooShort:   "too_short",
	LowQuality: "low_quality",
}

func (c Class) String() string {
	if name, ok := classNames[c]; ok {
		return name
	}
	return fmt.Sprintf("class(%d)", int(c))
}

// MarshalText renders the class name in JSON and YAML output.
func (c Class) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

var (
	sentenceSplitRe = regexp.MustCompile(`[.!?]+`)
	terminalRe      = regexp.MustCompile(`[.!?]`)
)

// Filter applies the contamination and content-quality rules of a pattern set.
// The live pipeline and the batch cleaner share one Filter so the rules
// cannot drift apart.
type Filter struct {
	set *patterns.Set
}

// New creates a Filter. If set is nil, the default pattern table is used.
func New(set *patterns.Set) *Filter {
	if set == nil {
		set = patterns.DefaultSet()
	}
	return &Filter{set: set}
}

// Classify applies the contamination rules in order: navigation, rating-only,
// truncated, too short. The first match wins.
func (f *Filter) Classify(text, author string) Class {
	t := strings.TrimSpace(text)

	switch {
	case f.isNavigation(t, strings.TrimSpace(author)):
		return Navigation
	case f.isRatingOnly(t):
		return RatingOnly
	case f.isTruncated(t):
		return Truncated
	case utf8.RuneCountInString(t) < f.set.MinLength():
		return TooShort
	}
	return Valid
}

// Evaluate is Classify followed by the content-quality heuristic.
func (f *Filter) Evaluate(text, author string) Class {
	if c := f.Classify(text, author); c != Valid {
		return c
	}
	if len(f.QualityIssues(text)) > 0 {
		return LowQuality
	}
	return Valid
}

// IsValidTestimonial reports whether text passes every check.
func (f *Filter) IsValidTestimonial(text, author string) bool {
	return f.Evaluate(text, author) == Valid
}

// QualityIssues lists the content-quality checks the text fails. A genuine
// review carries a positive-sentiment marker, reads as prose, and contains no
// listing, bio, brokerage or legal boilerplate.
func (f *Filter) QualityIssues(text string) []string {
	var issues []string

	if !f.set.HasPositiveMarker(text) {
		issues = append(issues, "no positive-sentiment marker")
	}

	if !terminalRe.MatchString(text) {
		issues = append(issues, "no terminal punctuation")
	} else if avg := averageSentenceLength(text); avg <= float64(f.set.MinAvgSentenceLength()) {
		issues = append(issues, fmt.Sprintf("average sentence length %.1f too short", avg))
	}

	if f.set.Noise != nil {
		if m := f.set.Noise.FindString(text); m != "" {
			issues = append(issues, fmt.Sprintf("contains noise term %q", strings.ToLower(m)))
		}
	}

	return issues
}

func (f *Filter) isNavigation(text, author string) bool {
	if f.set.IsBoilerplateText(text) {
		return true
	}
	for _, re := range f.set.Navigation {
		if re.MatchString(text) {
			return true
		}
	}
	return f.IsBadAuthor(author)
}

// IsBadAuthor reports whether an author value is a UI label or a company
// name rather than a person. An empty author is not bad, just unknown.
func (f *Filter) IsBadAuthor(author string) bool {
	if author == "" {
		return false
	}
	if f.set.IsBoilerplateAuthor(author) {
		return true
	}
	for _, sub := range f.set.AuthorSubstrings() {
		if strings.Contains(author, sub) {
			return true
		}
	}
	return f.set.BadAuthor != nil && f.set.BadAuthor.MatchString(author)
}

func (f *Filter) isRatingOnly(text string) bool {
	return text != "" && f.set.RatingOnly.MatchString(text) && f.set.RatingLabel.MatchString(text)
}

// isTruncated detects text cut off mid-word or mid-sentence: a long text
// without terminal punctuation, or a trailing lowercase fragment that is not
// a complete short word but begins a common word ("... in our co").
func (f *Filter) isTruncated(text string) bool {
	if text == "" {
		return false
	}

	last, _ := utf8.DecodeLastRuneInString(text)
	if isTerminal(last) {
		return false
	}
	if utf8.RuneCountInString(text) > f.set.TruncationLength() {
		return true
	}

	fields := strings.Fields(text)
	word := fields[len(fields)-1]
	n := utf8.RuneCountInString(word)
	if n < 2 || n > 3 || !isLowerWord(word) || f.set.IsShortWord(word) {
		return false
	}
	for _, common := range f.set.CommonWords() {
		if len(common) > len(word) && strings.HasPrefix(strings.ToLower(common), word) {
			return true
		}
	}
	return false
}

func isTerminal(r rune) bool {
	switch r {
	case '.', '!', '?', '"', '\'', ')':
		return true
	}
	return false
}

func isLowerWord(s string) bool {
	for _, r := range s {
		if !unicode.IsLower(r) {
			return false
		}
	}
	return true
}

func averageSentenceLength(text string) float64 {
	var total, count int
	for _, part := range sentenceSplitRe.Split(text, -1) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		total += utf8.RuneCountInString(part)
		count++
	}
	if count == 0 {
		return 0
	}
	return float64(total) / float64(count)
}
