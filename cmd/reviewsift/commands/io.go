package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/jmylchreest/reviewsift/internal/output"
)

// ErrInputTooLarge is returned when an input exceeds --max-input-size.
var ErrInputTooLarge = errors.New("input exceeds size limit")

// inputName returns the file argument, or "-" for stdin.
func inputName(args []string) string {
	if len(args) == 0 || args[0] == "" {
		return "-"
	}
	return args[0]
}

// openInput opens a file, or stdin for "-".
func openInput(name string) (io.ReadCloser, error) {
	if name == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	f, err := os.Open(name) //#nosec G304 -- user-specified input file
	if err != nil {
		return nil, fmt.Errorf("failed to open input: %w", err)
	}
	return f, nil
}

// parseSize parses a human-readable size such as "5MB". Empty or "0" means
// unlimited.
func parseSize(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "0" {
		return 0, nil
	}
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", s, err)
	}
	return int64(n), nil
}

// readLimited reads all of r, failing if more than limit bytes are available.
// A limit of 0 means unlimited.
func readLimited(r io.Reader, limit int64) ([]byte, error) {
	if limit <= 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w (%s)", ErrInputTooLarge, humanize.Bytes(uint64(limit)))
	}
	return data, nil
}

// openOutput returns stdout for an empty path, else creates the file.
func openOutput(path string) (io.WriteCloser, error) {
	if path == "" || path == "-" {
		return nopWriteCloser{os.Stdout}, nil
	}
	f, err := os.Create(path) //#nosec G304 -- user-specified output file
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, nil
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

// formatFor resolves --format, falling back to the output file extension
// when the flag was left at its default.
func formatFor(flag string, changed bool, outPath string) (output.Format, error) {
	if !changed && outPath != "" {
		if f, err := output.ParseFormat(strings.TrimPrefix(filepath.Ext(outPath), ".")); err == nil {
			return f, nil
		}
	}
	return output.ParseFormat(flag)
}
