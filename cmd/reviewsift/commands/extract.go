package commands

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/reviewsift/internal/logger"
	"github.com/jmylchreest/reviewsift/internal/output"
	"github.com/jmylchreest/reviewsift/pkg/patterns"
	"github.com/jmylchreest/reviewsift/pkg/pipeline"
	"github.com/jmylchreest/reviewsift/pkg/source"
	"github.com/jmylchreest/reviewsift/pkg/testimonial"
)

var extractCmd = &cobra.Command{
	Use:   "extract [file|-]",
	Short: "Extract testimonials from a page snapshot",
	Long: `Extract testimonials from a saved HTML page or its visible text.

The rating summary gates the output: without --rating-count (or with a
count of 0) the result is null. With ratings but no usable review text, a
single placeholder testimonial is returned. CSV output carries one row per
recommendation (text, author, date_text, source) and no rating summary.

Examples:
  reviewsift extract profile.html --rating-count 45 --rating-average 4.9
  curl -s "$URL" | reviewsift extract - --rating-count 12 --format yaml
  reviewsift extract page.txt --input-format text --rating-count 3 --stats
  reviewsift extract profile.html --rating-count 45 -o testimonials.csv`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)

	flags := extractCmd.Flags()
	flags.String("input-format", "auto", "input format: auto, html, text")
	flags.String("rating-count", "", "number of ratings on the page (e.g. 45 or 1,204)")
	flags.String("rating-average", "", "average rating on the page (e.g. 4.9)")
	flags.String("max-input-size", "10MB", "max input size (e.g. 512KB, 10MB, 0=unlimited)")
	flags.StringP("output", "o", "", "output file (default: stdout)")
	flags.String("format", "json", "output format: json, jsonl, yaml, csv")
	flags.Bool("stats", false, "log per-stage extraction counts")
}

func runExtract(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()

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
	logger.Debug("input read", "input", name, "size", humanize.Bytes(uint64(len(data))))

	inputFormat, _ := flags.GetString("input-format")
	src, err := buildSource(data, resolveInputFormat(inputFormat, name, data), set)
	if err != nil {
		return err
	}

	countStr, _ := flags.GetString("rating-count")
	avgStr, _ := flags.GetString("rating-average")
	ratings := testimonial.ParseRatingSummary(countStr, avgStr)
	if ratings == nil && strings.TrimSpace(countStr) != "" {
		logger.Warn("ignoring unparseable rating count", "value", countStr)
	}

	p := pipeline.New(pipeline.WithConfig(set))
	result, stats := p.RunWithStats(ratings, src)

	if showStats, _ := flags.GetBool("stats"); showStats {
		logStats(stats, src)
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
	// CSV has no room for the rating summary: one row per recommendation,
	// nothing at all when the section is omitted.
	if format == output.FormatCSV {
		if result != nil {
			err = w.WriteAll(output.Items(result.Recommendations))
		}
	} else {
		err = w.Write(result)
	}
	if err != nil {
		return fmt.Errorf("failed to write result: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to write result: %w", err)
	}

	if result == nil {
		logInfo("no ratings: testimonials section omitted")
	} else {
		logInfo("%d testimonial(s)%s", len(result.Recommendations), placeholderNote(stats))
	}
	return nil
}

func placeholderNote(stats pipeline.Stats) string {
	if stats.Placeholder {
		return " (placeholder)"
	}
	return ""
}

// resolveInputFormat picks html or text for "auto" from the file extension
// or, for stdin, from whether the content looks like markup.
func resolveInputFormat(flag, name string, data []byte) string {
	switch strings.ToLower(flag) {
	case "html", "text":
		return strings.ToLower(flag)
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".html", ".htm", ".xhtml":
		return "html"
	case ".txt", ".text":
		return "text"
	}
	if bytes.HasPrefix(bytes.TrimSpace(data), []byte("<")) {
		return "html"
	}
	return "text"
}

func buildSource(data []byte, format string, set *patterns.Set) (source.TextSource, error) {
	if format == "text" {
		return source.FromText(string(data)), nil
	}
	snap, err := source.FromHTML(bytes.NewReader(data), source.HTMLOptions{
		RemoveSelectors: set.RemoveSelectors(),
		MinBlockLength:  set.MinLength(),
	})
	if err != nil {
		logger.Error("failed to parse HTML", "error", err)
		return nil, err
	}
	logger.Debug("html sanitized",
		"input", humanize.Bytes(uint64(snap.Stats().InputBytes)),
		"text", humanize.Bytes(uint64(snap.Stats().TextBytes)),
		"removed", snap.Stats().TotalElementsRemoved())
	return snap, nil
}

func logStats(stats pipeline.Stats, src source.TextSource) {
	if snap, ok := src.(*source.HTMLSnapshot); ok {
		fmt.Fprint(os.Stderr, snap.Stats().String())
	}
	enc := json.NewEncoder(os.Stderr)
	enc.SetIndent("", "  ")
	_ = enc.Encode(stats)
}
