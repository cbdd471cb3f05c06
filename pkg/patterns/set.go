package patterns

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
)

// Set is a compiled, read-only view of a Config. It is safe for concurrent use.
type Set struct {
	cfg *Config

	Navigation  []*regexp.Regexp
	BadAuthor   *regexp.Regexp
	RatingOnly  *regexp.Regexp
	RatingLabel *regexp.Regexp
	ScoreLabels *regexp.Regexp
	GluedLabels *regexp.Regexp
	LabelOnly   *regexp.Regexp
	Noise       *regexp.Regexp

	boilerplateTexts   map[string]bool
	boilerplateAuthors map[string]bool
	nameStopwords      map[string]bool
	shortWords         map[string]bool
	positiveMarkers    []string
}

// Compile builds the regexes and lookup sets for the config.
func (c *Config) Compile() (*Set, error) {
	s := &Set{
		cfg:                c.Clone(),
		boilerplateTexts:   lowerSet(c.BoilerplateTexts),
		boilerplateAuthors: lowerSet(c.BoilerplateAuthors),
		nameStopwords:      lowerSet(c.NameStopwords),
		shortWords:         lowerSet(c.ShortWords),
	}

	for _, p := range c.NavigationPatterns {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return nil, fmt.Errorf("invalid navigation pattern %q: %w", p, err)
		}
		s.Navigation = append(s.Navigation, re)
	}

	if c.BadAuthorPattern != "" {
		re, err := regexp.Compile("(?i)" + c.BadAuthorPattern)
		if err != nil {
			return nil, fmt.Errorf("invalid bad author pattern %q: %w", c.BadAuthorPattern, err)
		}
		s.BadAuthor = re
	}

	labels := alternation(c.RatingCategories)
	if labels == "" {
		labels = neverMatch
	}
	s.RatingLabel = regexp.MustCompile(`(?i)\b(?:` + labels + `)\b`)
	// A label list joined by "&", "and", commas or bare scores, nothing else.
	s.RatingOnly = regexp.MustCompile(`(?i)^(?:\s*(?:` + labels + `|&|and|,|/|[0-5](?:\.\d)?)\s*)+$`)

	if len(c.ScoreCategories) > 0 {
		score := alternation(c.ScoreCategories)
		// Labels are widget debris only beside an N.N score or glued to
		// another label. "Responsiveness was great" is prose.
		s.ScoreLabels = regexp.MustCompile(`(?:[0-5]\.\d\s*)?(?:` + score + `)\s*[0-5]\.\d\b|\b[0-5]\.\d\s*(?:` + score + `)`)
		s.GluedLabels = regexp.MustCompile(`(?:` + score + `)(?:\s*(?:` + score + `))+`)
		s.LabelOnly = regexp.MustCompile(`^\s*(?:` + score + `)\s*$`)
	}

	if len(c.NoiseTerms) > 0 {
		s.Noise = regexp.MustCompile(`(?i)\b(?:` + alternation(c.NoiseTerms) + `)\b`)
	}

	for _, m := range c.PositiveMarkers {
		s.positiveMarkers = append(s.positiveMarkers, strings.ToLower(m))
	}

	return s, nil
}

// MustCompile is like Compile but panics on error.
func (c *Config) MustCompile() *Set {
	s, err := c.Compile()
	if err != nil {
		panic(err)
	}
	return s
}

var (
	defaultSet     *Set
	defaultSetOnce sync.Once
)

// DefaultSet returns the compiled default table, compiled once per process.
func DefaultSet() *Set {
	defaultSetOnce.Do(func() {
		defaultSet = Default().MustCompile()
	})
	return defaultSet
}

// Config returns a copy of the config the set was compiled from.
func (s *Set) Config() *Config {
	return s.cfg.Clone()
}

func (s *Set) MinLength() int               { return s.cfg.MinLength }
func (s *Set) MaxLength() int               { return s.cfg.MaxLength }
func (s *Set) TruncationLength() int        { return s.cfg.TruncationLength }
func (s *Set) SimilarityThreshold() float64 { return s.cfg.SimilarityThreshold }
func (s *Set) TargetCount() int             { return s.cfg.TargetCount }
func (s *Set) MaxResults() int              { return s.cfg.MaxResults }
func (s *Set) MinAvgSentenceLength() int    { return s.cfg.MinAvgSentenceLength }
func (s *Set) Placeholder() Placeholder     { return s.cfg.Placeholder }
func (s *Set) UnknownAuthor() string        { return s.cfg.UnknownAuthor }

func (s *Set) AuthorSubstrings() []string   { return s.cfg.AuthorSubstrings }
func (s *Set) CommonWords() []string        { return s.cfg.CommonWords }
func (s *Set) ContainerSelectors() []string { return s.cfg.ContainerSelectors }
func (s *Set) AuthorSelectors() []string    { return s.cfg.AuthorSelectors }
func (s *Set) DateSelectors() []string      { return s.cfg.DateSelectors }
func (s *Set) RemoveSelectors() []string    { return s.cfg.RemoveSelectors }

// IsBoilerplateText reports a verbatim match against known UI strings.
func (s *Set) IsBoilerplateText(text string) bool {
	return s.boilerplateTexts[strings.ToLower(strings.TrimSpace(text))]
}

// IsBoilerplateAuthor reports a verbatim match against known non-author labels.
func (s *Set) IsBoilerplateAuthor(author string) bool {
	return s.boilerplateAuthors[strings.ToLower(strings.TrimSpace(author))]
}

// IsNameStopword reports whether a word can never be part of a person's name.
func (s *Set) IsNameStopword(word string) bool {
	return s.nameStopwords[strings.ToLower(word)]
}

// IsShortWord reports whether a short token is a complete word.
func (s *Set) IsShortWord(word string) bool {
	return s.shortWords[strings.ToLower(word)]
}

// HasPositiveMarker reports whether the text carries any positive-sentiment marker.
func (s *Set) HasPositiveMarker(text string) bool {
	lower := strings.ToLower(text)
	for _, m := range s.positiveMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

// neverMatch is an alternation branch that cannot match any input.
const neverMatch = `[^\s\S]`

func lowerSet(items []string) map[string]bool {
	m := make(map[string]bool, len(items))
	for _, item := range items {
		m[strings.ToLower(strings.TrimSpace(item))] = true
	}
	return m
}

// alternation quotes the terms and orders them longest first so the
// longest label wins when labels share a prefix.
func alternation(terms []string) string {
	sorted := make([]string, 0, len(terms))
	for _, t := range terms {
		if t = strings.TrimSpace(t); t != "" {
			sorted = append(sorted, t)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool { return len(sorted[i]) > len(sorted[j]) })

	quoted := make([]string, len(sorted))
	for i, t := range sorted {
		quoted[i] = strings.ReplaceAll(regexp.QuoteMeta(t), ` `, `\s+`)
	}
	return strings.Join(quoted, "|")
}
