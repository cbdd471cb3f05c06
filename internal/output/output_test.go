package output

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"
)

type testItem struct {
	Name  string `json:"name" yaml:"name"`
	Value int    `json:"value" yaml:"value"`
}

type testRow struct {
	ID   string
	Note string
}

func (r testRow) CSVHeader() []string { return []string{"id", "note"} }
func (r testRow) CSVRow() []string    { return []string{r.ID, r.Note} }

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{in: "json", want: FormatJSON},
		{in: " JSONL ", want: FormatJSONL},
		{in: "ndjson", want: FormatJSONL},
		{in: "yml", want: FormatYAML},
		{in: "csv", want: FormatCSV},
		{in: "xml", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrUnsupportedFormat) {
					t.Fatalf("ParseFormat(%q) error = %v, want ErrUnsupportedFormat", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseFormat(%q) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNewWriter(t *testing.T) {
	tests := []struct {
		format Format
		want   string
	}{
		{FormatJSON, "*output.JSONWriter"},
		{FormatJSONL, "*output.JSONLWriter"},
		{FormatYAML, "*output.YAMLWriter"},
		{FormatCSV, "*output.CSVWriter"},
	}
	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			w, err := NewWriter(&bytes.Buffer{}, tt.format)
			if err != nil {
				t.Fatalf("NewWriter() error = %v", err)
			}
			if got := typeName(w); got != tt.want {
				t.Errorf("NewWriter(%s) = %s, want %s", tt.format, got, tt.want)
			}
		})
	}

	if _, err := NewWriter(&bytes.Buffer{}, Format("unsupported")); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func typeName(w Writer) string {
	switch w.(type) {
	case *JSONWriter:
		return "*output.JSONWriter"
	case *JSONLWriter:
		return "*output.JSONLWriter"
	case *YAMLWriter:
		return "*output.YAMLWriter"
	case *CSVWriter:
		return "*output.CSVWriter"
	}
	return "unknown"
}

func TestJSONWriter_SingleItemIsBare(t *testing.T) {
	buf := &bytes.Buffer{}
	w := NewJSONWriter(buf, true, "  ")

	if err := w.Write(testItem{Name: "test", Value: 42}); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}

	var got testItem
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("failed to unmarshal output: %v", err)
	}
	if diff := cmp.Diff(testItem{Name: "test", Value: 42}, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestJSONWriter_MultipleItemsAreArray(t *testing.T) {
	buf := &bytes.Buffer{}
	w := NewJSONWriter(buf, false, "")

	items := []testItem{{"a", 1}, {"b", 2}, {"c", 3}}
	if err := w.WriteAll(Items(items)); err != nil {
		t.Fatalf("WriteAll() error = %v", err)
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}

	var got []testItem
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("failed to unmarshal output: %v", err)
	}
	if diff := cmp.Diff(items, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
	if lines := strings.Split(strings.TrimSpace(buf.String()), "\n"); len(lines) != 1 {
		t.Errorf("compact output should be one line, got %d", len(lines))
	}
}

func TestJSONWriter_FlushThenCloseWritesOnce(t *testing.T) {
	buf := &bytes.Buffer{}
	w := NewJSONWriter(buf, true, "  ")

	_ = w.Write(testItem{Name: "once", Value: 1})
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if n := strings.Count(buf.String(), `"once"`); n != 1 {
		t.Errorf("item written %d times, want 1:\n%s", n, buf.String())
	}
}

func TestJSONWriter_NilPointerIsNull(t *testing.T) {
	buf := &bytes.Buffer{}
	w := NewJSONWriter(buf, true, "  ")

	var result *testItem
	_ = w.Write(result)
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if got := strings.TrimSpace(buf.String()); got != "null" {
		t.Errorf("got %q, want null", got)
	}
}

func TestJSONLWriter(t *testing.T) {
	buf := &bytes.Buffer{}
	w := NewJSONLWriter(buf)

	items := []testItem{{"a", 1}, {"b<&>", 2}}
	if err := w.WriteAll(Items(items)); err != nil {
		t.Fatalf("WriteAll() error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if !strings.Contains(lines[1], "b<&>") {
		t.Errorf("HTML characters should not be escaped: %s", lines[1])
	}
	var got testItem
	if err := json.Unmarshal([]byte(lines[0]), &got); err != nil {
		t.Fatalf("line 0 is not JSON: %v", err)
	}
	if got != items[0] {
		t.Errorf("line 0 = %+v, want %+v", got, items[0])
	}
}

func TestYAMLWriter(t *testing.T) {
	tests := []struct {
		name  string
		items []testItem
	}{
		{name: "single", items: []testItem{{"only", 7}}},
		{name: "multiple", items: []testItem{{"a", 1}, {"b", 2}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			w := NewYAMLWriter(buf)
			if err := w.WriteAll(Items(tt.items)); err != nil {
				t.Fatalf("WriteAll() error = %v", err)
			}
			if err := w.Flush(); err != nil {
				t.Fatalf("Flush() error = %v", err)
			}
			if err := w.Close(); err != nil {
				t.Fatalf("Close() error = %v", err)
			}

			var got []testItem
			if len(tt.items) == 1 {
				var one testItem
				if err := yaml.Unmarshal(buf.Bytes(), &one); err != nil {
					t.Fatalf("failed to unmarshal: %v", err)
				}
				got = []testItem{one}
			} else if err := yaml.Unmarshal(buf.Bytes(), &got); err != nil {
				t.Fatalf("failed to unmarshal: %v", err)
			}
			if diff := cmp.Diff(tt.items, got); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCSVWriter(t *testing.T) {
	buf := &bytes.Buffer{}
	w := NewCSVWriter(buf)

	rows := []testRow{{"1", "plain"}, {"2", "has, comma and \"quotes\""}}
	if err := w.WriteAll(Items(rows)); err != nil {
		t.Fatalf("WriteAll() error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	got, err := csv.NewReader(buf).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid CSV: %v", err)
	}
	want := [][]string{
		{"id", "note"},
		{"1", "plain"},
		{"2", "has, comma and \"quotes\""},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestCSVWriter_RejectsNonRow(t *testing.T) {
	w := NewCSVWriter(&bytes.Buffer{})
	if err := w.Write(testItem{Name: "x"}); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}
}
