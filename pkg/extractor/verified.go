package extractor

import (
	"strings"

	"github.com/jmylchreest/reviewsift/pkg/author"
	"github.com/jmylchreest/reviewsift/pkg/patterns"
	"github.com/jmylchreest/reviewsift/pkg/source"
	"github.com/jmylchreest/reviewsift/pkg/testimonial"
)

// maxHeaderLines is how far back from a "Verified review" marker the
// strategy looks for the reviewer name and date.
const maxHeaderLines = 3

// VerifiedReviewStrategy splits the page text at "Verified review" markers.
// Each block's author and date come from the short lines just above its
// marker; its body runs to the next block's header.
type VerifiedReviewStrategy struct {
	set      *patterns.Set
	resolver *author.Resolver
}

// NewVerifiedReview creates the verified-review block strategy.
func NewVerifiedReview(set *patterns.Set) *VerifiedReviewStrategy {
	return &VerifiedReviewStrategy{set: set, resolver: author.New(set)}
}

// Name returns "verified_review".
func (s *VerifiedReviewStrategy) Name() string {
	return "verified_review"
}

// TryExtract returns one candidate per marker.
func (s *VerifiedReviewStrategy) TryExtract(src source.TextSource) []Candidate {
	lines := source.Lines(src.FullText())

	var markers []int
	for i, line := range lines {
		if isVerifiedMarker(line) {
			markers = append(markers, i)
		}
	}
	if len(markers) == 0 {
		return nil
	}

	// headerStart[k] is the first header line belonging to marker k.
	headerStart := make([]int, len(markers))
	for k, m := range markers {
		floor := 0
		if k > 0 {
			floor = markers[k-1] + 1
		}
		start := m
		for start > floor && m-start < maxHeaderLines && isHeaderLine(lines[start-1]) && !isChromeLine(s.set, lines[start-1]) {
			start--
		}
		headerStart[k] = start
	}

	out := make([]Candidate, 0, len(markers))
	for k, m := range markers {
		end := len(lines)
		if k+1 < len(markers) {
			end = headerStart[k+1]
		}

		header := lines[headerStart[k]:m]
		var body []string
		if rest := strings.TrimSpace(verifiedMarkerRe.ReplaceAllString(lines[m], "")); rest != "" {
			body = append(body, rest)
		}
		for _, line := range lines[m+1 : end] {
			if isChromeLine(s.set, line) {
				continue
			}
			body = append(body, line)
		}
		if len(body) == 0 {
			continue
		}

		who, date := s.readHeader(header)
		out = append(out, Candidate{
			Text:     strings.Join(body, " "),
			Author:   who,
			DateText: date,
			// Verified blocks are recognized by text pattern, not markup.
			Source:  testimonial.SourceTextPattern,
			Context: strings.Join(header, "\n"),
		})
	}
	return out
}

func (s *VerifiedReviewStrategy) readHeader(header []string) (who, date string) {
	for _, line := range header {
		if date == "" {
			if d := findDate(line); d != "" {
				date = d
			}
		}
		if who == "" {
			if m := author.PrefixPattern.FindStringSubmatch(line); m != nil {
				who = author.CleanLabel(m[1])
				if date == "" {
					date = strings.TrimSpace(m[2])
				}
				continue
			}
			if n := author.CleanLabel(line); s.resolver.LooksLikeName(n) {
				who = n
			}
		}
	}
	if who != "" && !s.resolver.LooksLikeName(who) {
		who = ""
	}
	return who, date
}
