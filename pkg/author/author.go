// Package author recovers a plausible reviewer name from the text and markup
// around a review. It prefers returning nothing over returning a wrong name.
package author

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/jmylchreest/reviewsift/pkg/patterns"
	"github.com/jmylchreest/reviewsift/pkg/source"
)

const (
	namePart = `\p{Lu}[\p{L}'.-]*`
	name     = namePart + `(?:\s+` + namePart + `){1,3}`

	months = `(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Sept|Oct|Nov|Dec)[a-z]*\.?`

	// RelativeDate matches the date stamps review widgets print next to names.
	RelativeDate = `(?:(?:\d+|a|an|one)\s+(?:second|minute|hour|day|week|month|year)s?\s+ago` +
		`|yesterday|today` +
		`|` + months + `\s+\d{1,2}(?:st|nd|rd|th)?,?\s+\d{4}` +
		`|` + months + `\s+\d{4}` +
		`|\d{1,2}/\d{1,2}/\d{2,4})`
)

var (
	// PrefixPattern matches "Name - <date>: text".
	PrefixPattern = regexp.MustCompile(`^(` + name + `)\s*[-–—]\s*(` + `(?i:` + RelativeDate + `)` + `)\s*:\s*(.*)$`)

	// SuffixPattern matches "text - Name".
	SuffixPattern = regexp.MustCompile(`^(.*\S)\s+[-–—~]\s*(` + name + `)\s*$`)

	// SaysPattern matches "Name says: text".
	SaysPattern = regexp.MustCompile(`^(` + name + `)\s+(?i:says)\s*:\s*(.*)$`)

	// Separators that end the name part of an author label ("Jane Doe | 2021",
	// "Jane Doe, Austin TX").
	labelCutRe    = regexp.MustCompile(`\s*(?:[|,(•·]|\s[-–—]\s).*$`)
	labelPrefixRe = regexp.MustCompile(`^(?i:[-–—~\s]+|by\s+|reviewed\s+by\s+|posted\s+by\s+)+`)
)

// Resolver finds author names.
type Resolver struct {
	set *patterns.Set
}

// New creates a Resolver. If set is nil, the default pattern table is used.
func New(set *patterns.Set) *Resolver {
	if set == nil {
		set = patterns.DefaultSet()
	}
	return &Resolver{set: set}
}

// Resolve returns the author of a review, or "" when no strategy yields a
// plausible name. Strategies run in order: author markup in el, the
// "Name - date:" prefix, the "text - Name" suffix, "Name says:", and finally
// any line of context that is itself shaped like a name.
func (r *Resolver) Resolve(context string, el source.Container) string {
	if el != nil {
		if n := r.FromMarkup(el); n != "" {
			return n
		}
	}

	lines := source.Lines(context)

	for _, re := range []*regexp.Regexp{PrefixPattern, SuffixPattern, SaysPattern} {
		for _, line := range lines {
			if n := r.fromPattern(re, line); n != "" {
				return n
			}
		}
	}

	for _, line := range lines {
		if n := CleanLabel(line); r.LooksLikeName(n) {
			return n
		}
	}
	return ""
}

// FromMarkup returns the first author element inside el whose text is a name.
func (r *Resolver) FromMarkup(el source.Container) string {
	for _, candidate := range el.Find(r.set.AuthorSelectors()) {
		for _, line := range source.Lines(candidate.Text()) {
			if n := CleanLabel(line); r.LooksLikeName(n) {
				return n
			}
		}
	}
	return ""
}

func (r *Resolver) fromPattern(re *regexp.Regexp, line string) string {
	m := re.FindStringSubmatch(line)
	if m == nil {
		return ""
	}
	// The suffix pattern captures the name last; the others capture it first.
	n := m[1]
	if re == SuffixPattern {
		n = m[2]
	}
	n = CleanLabel(n)
	if !r.LooksLikeName(n) {
		return ""
	}
	return n
}

// LooksLikeName reports whether s is two to four capitalized words, none of
// which is a navigation label, rating category or company word.
func (r *Resolver) LooksLikeName(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" || utf8.RuneCountInString(s) > 60 {
		return false
	}

	words := strings.Fields(s)
	if len(words) < 2 || len(words) > 4 {
		return false
	}

	for _, w := range words {
		first, _ := utf8.DecodeRuneInString(w)
		if !unicode.IsUpper(first) {
			return false
		}
		for _, c := range w {
			if !unicode.IsLetter(c) && c != '.' && c != '\'' && c != '-' {
				return false
			}
		}
		if r.set.IsNameStopword(strings.Trim(w, ".'-")) {
			return false
		}
	}
	return true
}

// CleanLabel strips decoration around an author label: leading dashes and
// "by", and anything after a separator such as "|" or ",".
func CleanLabel(s string) string {
	s = strings.TrimSpace(s)
	s = labelPrefixRe.ReplaceAllString(s, "")
	s = labelCutRe.ReplaceAllString(s, "")
	return strings.TrimSpace(strings.TrimRight(s, ".:;!"))
}
