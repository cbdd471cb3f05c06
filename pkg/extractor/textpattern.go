package extractor

import (
	"strings"

	"github.com/jmylchreest/reviewsift/pkg/author"
	"github.com/jmylchreest/reviewsift/pkg/patterns"
	"github.com/jmylchreest/reviewsift/pkg/source"
	"github.com/jmylchreest/reviewsift/pkg/testimonial"
)

// TextPatternStrategy applies the attribution patterns "Name - <date>: text",
// "Name says: text" and "text - Name" to each line of the page text.
type TextPatternStrategy struct {
	set      *patterns.Set
	resolver *author.Resolver
}

// NewTextPattern creates the line-pattern strategy.
func NewTextPattern(set *patterns.Set) *TextPatternStrategy {
	return &TextPatternStrategy{set: set, resolver: author.New(set)}
}

// Name returns "text_pattern".
func (s *TextPatternStrategy) Name() string {
	return string(testimonial.SourceTextPattern)
}

// TryExtract returns one candidate per attributed line. When the pattern
// leaves the text empty ("Jane Doe - 2 days ago:" on its own line) the next
// line is the body. Lines inside review containers are skipped.
func (s *TextPatternStrategy) TryExtract(src source.TextSource) []Candidate {
	lines := source.Lines(src.FullText())
	owned := containerLines(s.set, src)

	var out []Candidate
	for i := 0; i < len(lines); i++ {
		line := lines[i]
		if owned[line] {
			continue
		}
		who, date, text, ok := s.match(line)
		if !ok {
			continue
		}
		if text == "" {
			if i+1 >= len(lines) {
				continue
			}
			i++
			text = lines[i]
		}
		out = append(out, Candidate{
			Text:     text,
			Author:   who,
			DateText: date,
			Source:   testimonial.SourceTextPattern,
			Context:  line,
		})
	}
	return out
}

func (s *TextPatternStrategy) match(line string) (who, date, text string, ok bool) {
	if m := author.PrefixPattern.FindStringSubmatch(line); m != nil {
		if n := author.CleanLabel(m[1]); s.resolver.LooksLikeName(n) {
			return n, strings.TrimSpace(m[2]), strings.TrimSpace(m[3]), true
		}
	}
	if m := author.SaysPattern.FindStringSubmatch(line); m != nil {
		if n := author.CleanLabel(m[1]); s.resolver.LooksLikeName(n) {
			return n, "", strings.TrimSpace(m[2]), true
		}
	}
	if m := author.SuffixPattern.FindStringSubmatch(line); m != nil {
		if n := author.CleanLabel(m[2]); s.resolver.LooksLikeName(n) {
			return n, findDate(m[1]), strings.TrimSpace(m[1]), true
		}
	}
	return "", "", "", false
}
