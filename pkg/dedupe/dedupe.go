// Package dedupe collapses near-duplicate testimonials by word-set Jaccard
// similarity. The first item seen wins, so callers control priority through
// input order.
package dedupe

import (
	"regexp"
	"strings"

	"github.com/jmylchreest/reviewsift/pkg/testimonial"
)

// DefaultThreshold is the similarity at or above which two texts are duplicates.
const DefaultThreshold = 0.8

var wordRe = regexp.MustCompile(`[\p{L}\p{N}']+`)

// TokenSet is a set of lowercase word tokens.
type TokenSet map[string]struct{}

// Tokenize splits text into its set of lowercase words.
func Tokenize(text string) TokenSet {
	set := make(TokenSet)
	for _, w := range wordRe.FindAllString(strings.ToLower(text), -1) {
		if w = strings.Trim(w, "'"); w != "" {
			set[w] = struct{}{}
		}
	}
	return set
}

// Jaccard returns |a∩b| / |a∪b|. Two empty sets are identical.
func Jaccard(a, b TokenSet) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	if len(a) > len(b) {
		a, b = b, a
	}
	inter := 0
	for w := range a {
		if _, ok := b[w]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}

// Similarity is Jaccard over the token sets of two texts.
func Similarity(a, b string) float64 {
	return Jaccard(Tokenize(a), Tokenize(b))
}

// Stats counts what a deduplicator did.
type Stats struct {
	Input   int `json:"input"`
	Kept    int `json:"kept"`
	Dropped int `json:"dropped"`
}

// Deduplicator accepts texts one at a time and rejects any text too similar
// to one already accepted. It is not safe for concurrent use; create one per
// extraction run.
type Deduplicator struct {
	threshold float64
	accepted  []TokenSet
	stats     Stats
}

// New creates a Deduplicator. A threshold outside (0, 1] falls back to DefaultThreshold.
func New(threshold float64) *Deduplicator {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultThreshold
	}
	return &Deduplicator{threshold: threshold}
}

// Add reports whether text is distinct from everything accepted so far, and
// if so accepts it.
func (d *Deduplicator) Add(text string) bool {
	d.stats.Input++
	tokens := Tokenize(text)
	for _, prev := range d.accepted {
		if Jaccard(tokens, prev) >= d.threshold {
			d.stats.Dropped++
			return false
		}
	}
	d.accepted = append(d.accepted, tokens)
	d.stats.Kept++
	return true
}

// Len returns the number of accepted texts.
func (d *Deduplicator) Len() int {
	return len(d.accepted)
}

// Stats returns the running counts.
func (d *Deduplicator) Stats() Stats {
	return d.stats
}

// Dedupe returns items with near-duplicates removed, preserving order.
func Dedupe(items []testimonial.Testimonial, threshold float64) []testimonial.Testimonial {
	out, _ := DedupeWithStats(items, threshold)
	return out
}

// DedupeWithStats is Dedupe that also reports counts.
func DedupeWithStats(items []testimonial.Testimonial, threshold float64) ([]testimonial.Testimonial, Stats) {
	d := New(threshold)
	out := make([]testimonial.Testimonial, 0, len(items))
	for _, item := range items {
		if d.Add(item.Text) {
			out = append(out, item)
		}
	}
	return out, d.Stats()
}
