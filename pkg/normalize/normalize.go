// Package normalize strips page artifacts from candidate review text.
package normalize

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/jmylchreest/reviewsift/pkg/patterns"
)

// maxPasses bounds the fixed-point loop. Every pass that changes the text
// shortens it, so real inputs settle in two or three passes.
const maxPasses = 64

var (
	// Step 1: CSS-like blocks and generated class names.
	cssBlockRe   = regexp.MustCompile(`[.#]?[A-Za-z0-9_-]*\s*\{[^{}]*\}`)
	classTokenRe = regexp.MustCompile(`\b(?:css|sc|jsx|emotion|styled)-[A-Za-z0-9_-]{4,}\b`)

	// Step 2: rating summary phrases.
	overallRatingRe = regexp.MustCompile(`(?i)overall\s+rating\s*(?::\s*)?(?:\d(?:\.\d+)?|\(\s*\d+\s*\))`)
	addRatingRe     = regexp.MustCompile(`(?i)add\s+rating\s+and\s+review`)

	// Step 3: "Name | Year" prefixes.
	nameYearRe = regexp.MustCompile(`^\p{Lu}[\p{L}.'-]*(?:\s+\p{Lu}[\p{L}.'-]*){0,3}\s*\|\s*(?:19|20)\d{2}\s*`)

	// Step 4: "Verified review 5.0" banners.
	verifiedRe = regexp.MustCompile(`(?i)verified\s+review\s*(?:[0-5](?:\.\d)?)?`)

	// Step 5: runs of N.N scores.
	scoreRunRe = regexp.MustCompile(`(?:\b[0-5]\.\d\b\s*){2,}`)

	// Step 6: truncation suffixes.
	readMoreRe = regexp.MustCompile(`(?i)\s*(?:\.{3,})?\s*read\s+more\.?\s*$`)
	ellipsisRe = regexp.MustCompile(`\s*\.{3,}\s*$`)

	// Step 7: standalone years and "City, ST" prefixes.
	yearRe      = regexp.MustCompile(`(^|\s)(?:19|20)\d{2}(\s|$)`)
	cityStateRe = regexp.MustCompile(`^\p{Lu}[\p{L}.'-]*(?:\s+\p{Lu}[\p{L}.'-]*){0,3},\s*[A-Z]{2}\b[\s,:|-]*`)

	// Step 8: whitespace and stray leading punctuation.
	whitespaceRe   = regexp.MustCompile(`\s+`)
	leadingPunctRe = regexp.MustCompile(`^[\s,;:.!?|•·*–—-]+`)
)

var quoteReplacer = strings.NewReplacer(
	"\u201c", `"`, "\u201d", `"`, "\u201e", `"`, "\u201f", `"`, "\u2033", `"`,
	"\u2018", "'", "\u2019", "'", "\u201a", "'", "\u201b", "'", "\u2032", "'",
	"\u200b", "", "\u200c", "", "\u200d", "", "\ufeff", "",
)

// Normalizer cleans candidate text. It holds no mutable state and is safe
// for concurrent use.
type Normalizer struct {
	set *patterns.Set
}

// New creates a Normalizer. If set is nil, the default pattern table is used.
func New(set *patterns.Set) *Normalizer {
	if set == nil {
		set = patterns.DefaultSet()
	}
	return &Normalizer{set: set}
}

// Name returns the normalizer name for logging.
func (n *Normalizer) Name() string {
	return "normalize"
}

// Normalize returns the cleaned text. It is idempotent:
// Normalize(Normalize(x)) == Normalize(x).
func (n *Normalizer) Normalize(raw string) string {
	s := raw
	for i := 0; i < maxPasses; i++ {
		next := n.pass(s)
		if next == s {
			return s
		}
		s = next
	}
	return s
}

// Normalize cleans text with the default pattern table.
func Normalize(raw string) string {
	return New(nil).Normalize(raw)
}

// pass applies every step once. Order matters: later steps assume the
// artifacts removed by earlier ones are gone.
func (n *Normalizer) pass(s string) string {
	s = canonicalize(s)

	// 1. markup fragments
	s = replaceAllUntilStable(cssBlockRe, s, " ")
	s = classTokenRe.ReplaceAllString(s, " ")

	// 2. rating summary phrases
	s = addRatingRe.ReplaceAllString(s, " ")
	s = overallRatingRe.ReplaceAllString(s, " ")

	// 3. "Name | Year"
	s = nameYearRe.ReplaceAllString(strings.TrimSpace(s), "")

	// 4. verified banners
	s = verifiedRe.ReplaceAllString(s, " ")

	// 5. scores and category labels
	s = scoreRunRe.ReplaceAllString(s, " ")
	if n.set.ScoreLabels != nil {
		s = n.set.ScoreLabels.ReplaceAllString(s, " ")
		s = n.set.GluedLabels.ReplaceAllString(s, " ")
		s = n.set.LabelOnly.ReplaceAllString(s, "")
	}

	// 6. truncation suffixes
	s = readMoreRe.ReplaceAllString(s, "")
	s = ellipsisRe.ReplaceAllString(s, "")

	// 7. years and location prefixes
	s = yearRe.ReplaceAllString(s, " ")
	s = cityStateRe.ReplaceAllString(strings.TrimSpace(s), "")

	// 8. whitespace, leading punctuation, quotes
	s = whitespaceRe.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)
	s = leadingPunctRe.ReplaceAllString(s, "")
	s = balanceQuotes(s)

	// 9. hard limit
	s = truncateRunes(s, n.set.MaxLength())
	return strings.TrimSpace(s)
}

// canonicalize repairs invalid UTF-8, applies NFKC (which also expands the
// ellipsis character to three dots) and straightens typographic quotes.
func canonicalize(s string) string {
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "")
	}
	s = norm.NFKC.String(s)
	return quoteReplacer.Replace(s)
}

// balanceQuotes handles text that opens with a quotation mark but does not
// end with one: it is cut at the last quotation mark found, or the opening
// mark is dropped when it is the only one.
func balanceQuotes(s string) string {
	if !strings.HasPrefix(s, `"`) || strings.HasSuffix(s, `"`) {
		return s
	}
	if i := strings.LastIndex(s, `"`); i > 0 {
		return s[:i+1]
	}
	return strings.TrimSpace(strings.TrimLeft(s, `"`))
}

func truncateRunes(s string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit])
}

func replaceAllUntilStable(re *regexp.Regexp, s, repl string) string {
	for {
		next := re.ReplaceAllString(s, repl)
		if next == s {
			return s
		}
		s = next
	}
}
