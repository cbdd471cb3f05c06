package extractor

import (
	"strings"

	"github.com/jmylchreest/reviewsift/pkg/author"
	"github.com/jmylchreest/reviewsift/pkg/patterns"
	"github.com/jmylchreest/reviewsift/pkg/source"
	"github.com/jmylchreest/reviewsift/pkg/testimonial"
)

// StructuredStrategy reads review containers found by CSS selector families
// (testimonial, review, recommendation, feedback blocks). The body is the
// container text minus its author and date nodes.
type StructuredStrategy struct {
	set      *patterns.Set
	resolver *author.Resolver
}

// NewStructured creates the container strategy.
func NewStructured(set *patterns.Set) *StructuredStrategy {
	return &StructuredStrategy{set: set, resolver: author.New(set)}
}

// Name returns "structured".
func (s *StructuredStrategy) Name() string {
	return string(testimonial.SourceStructured)
}

// TryExtract returns one candidate per container.
func (s *StructuredStrategy) TryExtract(src source.TextSource) []Candidate {
	var out []Candidate
	for _, c := range src.FindContainers(s.set.ContainerSelectors()) {
		if cand, ok := s.fromContainer(c); ok {
			out = append(out, cand)
		}
	}
	return out
}

func (s *StructuredStrategy) fromContainer(c source.Container) (Candidate, bool) {
	who := s.resolver.FromMarkup(c)

	var date string
	for _, el := range c.Find(s.set.DateSelectors()) {
		if lines := source.Lines(el.Text()); len(lines) > 0 && isHeaderLine(lines[0]) {
			date = lines[0]
			break
		}
	}

	body := c.Without(s.set.AuthorSelectors(), func(el source.Container) bool {
		return who != "" && strings.Contains(el.Text(), who)
	}).Without(s.set.DateSelectors(), func(el source.Container) bool {
		return isHeaderLine(strings.TrimSpace(el.Text()))
	})

	var lines []string
	for _, line := range source.Lines(body.Text()) {
		if line == who || isChromeLine(s.set, line) {
			continue
		}
		if date == "" && isHeaderLine(line) {
			if d := findDate(line); d != "" && len(d) == len(line) {
				date = d
				continue
			}
		}
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		return Candidate{}, false
	}

	return Candidate{
		Text:     strings.Join(lines, " "),
		Author:   who,
		DateText: date,
		Source:   testimonial.SourceStructured,
		Context:  c.Text(),
		Element:  c,
	}, true
}
