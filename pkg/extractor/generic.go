package extractor

import (
	"unicode/utf8"

	"github.com/jmylchreest/reviewsift/pkg/patterns"
	"github.com/jmylchreest/reviewsift/pkg/source"
	"github.com/jmylchreest/reviewsift/pkg/testimonial"
)

// GenericStrategy is the fallback: any paragraph-length line carrying a
// positive-sentiment marker, attributed or not. Lines inside review
// containers and lines the text pattern strategy claims are skipped.
type GenericStrategy struct {
	set     *patterns.Set
	claimed *TextPatternStrategy
}

// NewGeneric creates the fallback strategy.
func NewGeneric(set *patterns.Set) *GenericStrategy {
	return &GenericStrategy{set: set, claimed: NewTextPattern(set)}
}

// Name returns "generic_page".
func (s *GenericStrategy) Name() string {
	return string(testimonial.SourceGenericPage)
}

// TryExtract returns one candidate per qualifying line. The preceding line
// is kept as context when it looks like a header, so a name printed above
// the paragraph can still be resolved.
func (s *GenericStrategy) TryExtract(src source.TextSource) []Candidate {
	lines := source.Lines(src.FullText())
	owned := containerLines(s.set, src)

	var out []Candidate
	for i, line := range lines {
		if utf8.RuneCountInString(line) < s.set.MinLength() || !s.set.HasPositiveMarker(line) {
			continue
		}
		if owned[line] {
			continue
		}
		if isVerifiedMarker(line) {
			continue
		}
		if _, _, _, ok := s.claimed.match(line); ok {
			continue
		}

		context := line
		if i > 0 && isHeaderLine(lines[i-1]) {
			context = lines[i-1] + "\n" + line
		}
		out = append(out, Candidate{
			Text:    line,
			Source:  testimonial.SourceGenericPage,
			Context: context,
		})
	}
	return out
}
