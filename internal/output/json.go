package output

import (
	"bufio"
	"encoding/json"
	"io"
)

// JSONWriter buffers items and writes them as one JSON document on Flush.
// A single item is written bare rather than as a one-element array.
type JSONWriter struct {
	w       *bufio.Writer
	pretty  bool
	indent  string
	items   []any
	pending bool
}

// NewJSONWriter creates a JSON writer.
func NewJSONWriter(w io.Writer, pretty bool, indent string) *JSONWriter {
	return &JSONWriter{
		w:      bufio.NewWriter(w),
		pretty: pretty,
		indent: indent,
		items:  make([]any, 0),
	}
}

// Write buffers a single item.
func (w *JSONWriter) Write(data any) error {
	w.items = append(w.items, data)
	w.pending = true
	return nil
}

// WriteAll buffers multiple items.
func (w *JSONWriter) WriteAll(data []any) error {
	w.items = append(w.items, data...)
	w.pending = true
	return nil
}

// Flush writes the buffered items. Flushing twice without new writes is a no-op.
func (w *JSONWriter) Flush() error {
	if !w.pending {
		return w.w.Flush()
	}

	var doc any = w.items
	if len(w.items) == 1 {
		doc = w.items[0]
	}

	var output []byte
	var err error
	if w.pretty {
		output, err = json.MarshalIndent(doc, "", w.indent)
	} else {
		output, err = json.Marshal(doc)
	}
	if err != nil {
		return err
	}

	if _, err := w.w.Write(output); err != nil {
		return err
	}
	if _, err := w.w.WriteString("\n"); err != nil {
		return err
	}

	w.items = w.items[:0]
	w.pending = false
	return w.w.Flush()
}

// Close flushes the writer.
func (w *JSONWriter) Close() error {
	return w.Flush()
}

// JSONLWriter writes newline-delimited JSON (JSONL).
type JSONLWriter struct {
	w   *bufio.Writer
	enc *json.Encoder
}

// NewJSONLWriter creates a JSONL writer.
func NewJSONLWriter(w io.Writer) *JSONLWriter {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	enc.SetEscapeHTML(false)
	return &JSONLWriter{w: bw, enc: enc}
}

// Write writes a single item as a JSON line.
func (w *JSONLWriter) Write(data any) error {
	if err := w.enc.Encode(data); err != nil {
		return err
	}
	return w.w.Flush()
}

// WriteAll writes multiple items as JSON lines.
func (w *JSONLWriter) WriteAll(data []any) error {
	for _, item := range data {
		if err := w.Write(item); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes the buffer.
func (w *JSONLWriter) Flush() error {
	return w.w.Flush()
}

// Close flushes the writer.
func (w *JSONLWriter) Close() error {
	return w.Flush()
}
