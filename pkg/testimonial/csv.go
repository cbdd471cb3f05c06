package testimonial

import (
	"fmt"
	"strings"
)

// CSVHeader returns the column names for CleanDecision rows.
func (d CleanDecision) CSVHeader() []string {
	return []string{"id", "action", "new_text", "reason"}
}

// CSVRow returns the decision as a CSV row.
func (d CleanDecision) CSVRow() []string {
	return []string{d.ID, string(d.Action), d.NewText, d.Reason}
}

// CSVHeader returns the column names for Testimonial rows.
func (t Testimonial) CSVHeader() []string {
	return []string{"text", "author", "date_text", "source"}
}

// CSVRow returns the testimonial as a CSV row.
func (t Testimonial) CSVRow() []string {
	return []string{t.Text, t.Author, t.DateText, string(t.Source)}
}

// RecordColumns locates the id, text and author columns in a CSV header.
// Matching is case-insensitive; "testimonial", "review" and "content" are
// accepted for text and "name" and "reviewer" for author.
type RecordColumns struct {
	ID, Text, Author int
}

var columnAliases = map[string]string{
	"id": "id", "record_id": "id", "testimonial_id": "id",
	"text": "text", "testimonial": "text", "review": "text", "content": "text", "testimonial_text": "text",
	"author": "author", "name": "author", "reviewer": "author", "author_name": "author",
}

// ParseRecordColumns resolves the column positions. A missing id or author
// column is reported as -1; a missing text column is an error.
func ParseRecordColumns(header []string) (RecordColumns, error) {
	cols := RecordColumns{ID: -1, Text: -1, Author: -1}
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		var slot *int
		switch columnAliases[h] {
		case "id":
			slot = &cols.ID
		case "text":
			slot = &cols.Text
		case "author":
			slot = &cols.Author
		default:
			continue
		}
		if *slot < 0 {
			*slot = i
		}
	}
	if cols.Text < 0 {
		return cols, fmt.Errorf("no text column in header %v", header)
	}
	return cols, nil
}

// Record builds a Record from a CSV row. Rows shorter than the header yield
// empty fields.
func (c RecordColumns) Record(row []string) Record {
	get := func(i int) string {
		if i < 0 || i >= len(row) {
			return ""
		}
		return row[i]
	}
	return Record{ID: get(c.ID), Text: get(c.Text), Author: get(c.Author)}
}
