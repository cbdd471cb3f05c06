package extractor

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/jmylchreest/reviewsift/pkg/author"
	"github.com/jmylchreest/reviewsift/pkg/patterns"
	"github.com/jmylchreest/reviewsift/pkg/source"
)

// headerMaxRunes bounds the lines treated as review headers (name, date,
// badge) rather than review prose.
const headerMaxRunes = 60

var (
	dateRe = regexp.MustCompile(`(?i)\b` + author.RelativeDate)

	// Star glyphs, bare scores and "5/5" style ratings.
	starLineRe = regexp.MustCompile(`^[\s★☆✩✪⭐0-9.,/()]*$`)

	verifiedMarkerRe = regexp.MustCompile(`(?i)^verified\s+review\b[\s\d.:|\-–—]*`)
)

// findDate returns the first date stamp in s.
func findDate(s string) string {
	return strings.TrimSpace(dateRe.FindString(s))
}

// isHeaderLine reports whether a line is short and unpunctuated, as names,
// dates and badges are.
func isHeaderLine(line string) bool {
	if line == "" || utf8.RuneCountInString(line) >= headerMaxRunes {
		return false
	}
	last, _ := utf8.DecodeLastRuneInString(line)
	switch last {
	case '.', '!', '?', '"':
		return false
	}
	return true
}

// isChromeLine reports lines that are widget furniture rather than review
// prose: star rows, rating labels, navigation labels.
func isChromeLine(set *patterns.Set, line string) bool {
	if starLineRe.MatchString(line) {
		return true
	}
	if set.IsBoilerplateText(line) {
		return true
	}
	if set.RatingOnly.MatchString(line) && set.RatingLabel.MatchString(line) {
		return true
	}
	for _, re := range set.Navigation {
		if re.MatchString(line) {
			return true
		}
	}
	return false
}

func isVerifiedMarker(line string) bool {
	return verifiedMarkerRe.MatchString(line)
}

// containerLines returns the lines of every review container on the page.
// The structured strategy owns them as whole reviews, so the line based
// strategies leave them alone.
func containerLines(set *patterns.Set, src source.TextSource) map[string]bool {
	owned := make(map[string]bool)
	for _, c := range src.FindContainers(set.ContainerSelectors()) {
		for _, line := range source.Lines(c.Text()) {
			owned[line] = true
		}
	}
	return owned
}
