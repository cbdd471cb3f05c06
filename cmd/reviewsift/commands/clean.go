package commands

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/reviewsift/internal/logger"
	"github.com/jmylchreest/reviewsift/internal/output"
	"github.com/jmylchreest/reviewsift/pkg/batch"
	"github.com/jmylchreest/reviewsift/pkg/testimonial"
)

// ErrNoRecords is returned when the input holds no records.
var ErrNoRecords = errors.New("no records in input")

var cleanCmd = &cobra.Command{
	Use:   "clean [file|-]",
	Short: "Re-validate stored testimonials",
	Long: `Apply the extraction-time normalization and validity rules to
testimonials that are already stored, and emit one decision per record:
keep, update (with the cleaned text) or delete.

Input is JSONL ({"id": ..., "text": ..., "author": ...} per line) or CSV with
a header naming the id, text and author columns. Nothing is modified; the
decisions are for the caller to execute.

Examples:
  reviewsift clean testimonials.jsonl
  reviewsift clean export.csv --format csv -o decisions.csv --explain
  reviewsift clean export.csv --only-changes --concurrency 8`,
	Args: cobra.MaximumNArgs(1),
	RunE: runClean,
}

func init() {
	rootCmd.AddCommand(cleanCmd)

	flags := cleanCmd.Flags()
	flags.String("input-format", "auto", "input format: auto, jsonl, csv")
	flags.String("max-input-size", "100MB", "max input size (e.g. 10MB, 0=unlimited)")
	flags.StringP("output", "o", "", "output file (default: stdout)")
	flags.String("format", "jsonl", "output format: json, jsonl, yaml, csv")
	flags.IntP("concurrency", "c", 0, "parallel workers (0 = number of CPUs)")
	flags.Bool("explain", false, "include the rejection reason for deleted records")
	flags.Bool("only-changes", false, "omit keep decisions from the output")
}

func runClean(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	_, set, err := loadPatterns()
	if err != nil {
		logger.Error("failed to load patterns", "error", err)
		return err
	}

	sizeStr, _ := flags.GetString("max-input-size")
	limit, err := parseSize(sizeStr)
	if err != nil {
		return err
	}

	name := inputName(args)
	in, err := openInput(name)
	if err != nil {
		return err
	}
	data, err := readLimited(in, limit)
	_ = in.Close()
	if err != nil {
		logger.Error("failed to read input", "input", name, "error", err)
		return err
	}

	inputFormat, _ := flags.GetString("input-format")
	records, err := readRecords(bytes.NewReader(data), resolveRecordFormat(inputFormat, name, data))
	if err != nil {
		logger.Error("failed to read records", "input", name, "error", err)
		return err
	}
	logger.Debug("records loaded", "count", len(records))

	concurrency, _ := flags.GetInt("concurrency")
	decisions, summary, err := batch.New(set).CleanAll(ctx, records, concurrency)
	if err != nil {
		return err
	}

	explain, _ := flags.GetBool("explain")
	onlyChanges, _ := flags.GetBool("only-changes")
	items := make([]any, 0, len(decisions))
	for _, d := range decisions {
		if onlyChanges && d.Action == testimonial.ActionKeep {
			continue
		}
		if !explain {
			d.Reason = ""
		}
		items = append(items, d)
	}

	outPath, _ := flags.GetString("output")
	formatStr, _ := flags.GetString("format")
	format, err := formatFor(formatStr, flags.Changed("format"), outPath)
	if err != nil {
		return err
	}

	out, err := openOutput(outPath)
	if err != nil {
		return err
	}
	defer func() { _ = out.Close() }()

	w, err := output.NewWriter(out, format)
	if err != nil {
		return err
	}
	if err := w.WriteAll(items); err != nil {
		return fmt.Errorf("failed to write decisions: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to write decisions: %w", err)
	}

	logInfo("%s", summary)
	if explain {
		for class, n := range summary.Reasons {
			logInfo("  %s: %d", class, n)
		}
	}
	return nil
}

// resolveRecordFormat picks jsonl or csv for "auto" from the file extension
// or, for stdin, from the first non-blank character.
func resolveRecordFormat(flag, name string, data []byte) string {
	switch f := strings.ToLower(flag); f {
	case "jsonl", "csv":
		return f
	case "json", "ndjson":
		return "jsonl"
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		return "csv"
	case ".jsonl", ".ndjson", ".json":
		return "jsonl"
	}
	if bytes.HasPrefix(bytes.TrimSpace(data), []byte("{")) {
		return "jsonl"
	}
	return "csv"
}

// readRecords parses persisted testimonial rows.
func readRecords(r io.Reader, format string) ([]testimonial.Record, error) {
	var records []testimonial.Record
	var err error
	switch format {
	case "csv":
		records, err = readCSVRecords(r)
	default:
		records, err = readJSONLRecords(r)
	}
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrNoRecords
	}
	return records, nil
}

func readJSONLRecords(r io.Reader) ([]testimonial.Record, error) {
	var records []testimonial.Record
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := bytes.TrimSpace(scanner.Bytes())
		if len(text) == 0 {
			continue
		}
		var rec testimonial.Record
		if err := json.Unmarshal(text, &rec); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if rec.ID == "" {
			rec.ID = fmt.Sprintf("%d", line)
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read records: %w", err)
	}
	return records, nil
}

func readCSVRecords(r io.Reader) ([]testimonial.Record, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrNoRecords
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	cols, err := testimonial.ParseRecordColumns(header)
	if err != nil {
		return nil, err
	}

	var records []testimonial.Record
	for row := 2; ; row++ {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}
		rec := cols.Record(fields)
		if rec.ID == "" {
			rec.ID = fmt.Sprintf("%d", row)
		}
		records = append(records, rec)
	}
	return records, nil
}
