package source

import (
	"fmt"
	"sort"
	"strings"
)

// Stats captures what sanitizing an HTML snapshot did.
type Stats struct {
	InputBytes      int            `json:"input_bytes"`
	TextBytes       int            `json:"text_bytes"`
	ElementsRemoved map[string]int `json:"elements_removed"` // tag -> count
}

// NewStats creates a new Stats instance with initialized maps.
func NewStats() *Stats {
	return &Stats{
		ElementsRemoved: make(map[string]int),
	}
}

// RecordRemoval records that an element was removed.
func (s *Stats) RecordRemoval(tag string) {
	s.ElementsRemoved[strings.ToLower(tag)]++
}

// TotalElementsRemoved returns the sum of all removed elements.
func (s *Stats) TotalElementsRemoved() int {
	total := 0
	for _, count := range s.ElementsRemoved {
		total += count
	}
	return total
}

// ReductionPercent returns how much smaller the text is than the HTML.
func (s *Stats) ReductionPercent() float64 {
	if s.InputBytes == 0 {
		return 0
	}
	return float64(s.InputBytes-s.TextBytes) / float64(s.InputBytes) * 100
}

// String returns a human-readable summary of the stats.
func (s *Stats) String() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Size: %d -> %d bytes of text (%.1f%% reduction)\n",
		s.InputBytes, s.TextBytes, s.ReductionPercent()))
	sb.WriteString(fmt.Sprintf("Elements removed: %d\n", s.TotalElementsRemoved()))

	if len(s.ElementsRemoved) > 0 {
		tags := make([]string, 0, len(s.ElementsRemoved))
		for tag := range s.ElementsRemoved {
			tags = append(tags, tag)
		}
		sort.Strings(tags)

		parts := make([]string, 0, len(tags))
		for _, tag := range tags {
			parts = append(parts, fmt.Sprintf("%s=%d", tag, s.ElementsRemoved[tag]))
		}
		sb.WriteString("Removed by tag: ")
		sb.WriteString(strings.Join(parts, ", "))
		sb.WriteString("\n")
	}

	return sb.String()
}
