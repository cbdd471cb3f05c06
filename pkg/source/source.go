// Package source abstracts the page snapshot the extractor reads from.
// A TextSource exposes only flattened text and simple container queries, so
// the core can be exercised with plain strings as well as parsed HTML.
package source

import (
	"strings"
)

// TextSource is a read-only page snapshot.
type TextSource interface {
	// FindContainers returns review-like blocks matching any of the selectors,
	// in document order. Sources without structure return nil.
	FindContainers(selectors []string) []Container

	// FullText returns the page text with one line per block element.
	FullText() string
}

// Container is a block of the snapshot.
type Container interface {
	// Text returns the block text with one line per nested block element.
	Text() string

	// Find returns descendants matching any of the selectors, in document order.
	Find(selectors []string) []Container

	// Without returns a copy of the block with the descendants matching the
	// selectors removed, where drop reports true for them. The receiver is
	// not modified.
	Without(selectors []string, drop func(Container) bool) Container
}

// TextSnapshot is a TextSource over plain text. It has no containers.
type TextSnapshot struct {
	text string
}

// FromText wraps plain page text. Line endings are normalized to "\n".
func FromText(text string) *TextSnapshot {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return &TextSnapshot{text: text}
}

// FindContainers always returns nil for plain text.
func (t *TextSnapshot) FindContainers([]string) []Container {
	return nil
}

// FullText returns the wrapped text.
func (t *TextSnapshot) FullText() string {
	return t.text
}

// Lines splits text into trimmed, non-empty lines.
func Lines(text string) []string {
	raw := strings.Split(text, "\n")
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}
