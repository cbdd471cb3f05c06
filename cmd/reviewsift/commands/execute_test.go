package commands

import (
	"bufio"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/pflag"

	"github.com/jmylchreest/reviewsift/pkg/testimonial"
)

const profilePage = `<html><body>
  <nav><a href="/">Home</a> <a href="/reviews">Reviews</a></nav>
  <section class="testimonials">
    <div class="testimonial">
      <p>Sam helped us find our dream home in a tough market. Highly recommend him!</p>
      <span class="author">Tom Baker</span>
    </div>
    <div class="testimonial">
      <p>Sam was patient, responsive and knew every neighborhood we looked at.</p>
      <span class="author">Lisa Chen</span>
    </div>
  </section>
</body></html>`

const (
	storedReview = "Sam helped us find our dream home in a tough market. Highly recommend him!"
	paddedReview = "Sam was patient, responsive and knew every neighborhood we looked at."
	storedCSV    = "id,text,author\n1," + storedReview + ",Tom Baker\n2,Newest first,\n"
)

const storedRecords = `{"id":"1","text":"` + storedReview + `","author":"Tom Baker"}
{"id":"2","text":"Newest first","author":""}
{"id":"3","text":"  ` + paddedReview + `  ","author":"Lisa Chen"}
`

// resetFlags restores every flag the commands share, since rootCmd is a
// package-level singleton.
func resetFlags() {
	for _, fs := range []*pflag.FlagSet{rootCmd.PersistentFlags(), extractCmd.Flags(), cleanCmd.Flags()} {
		fs.VisitAll(func(f *pflag.Flag) {
			_ = f.Value.Set(f.DefValue)
			f.Changed = false
		})
	}
}

func execute(t *testing.T, args ...string) error {
	t.Helper()
	t.Cleanup(resetFlags)
	rootCmd.SetArgs(args)
	rootCmd.SetOut(io.Discard)
	rootCmd.SetErr(io.Discard)
	return rootCmd.Execute()
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func decodeDecisions(t *testing.T, data string) []testimonial.CleanDecision {
	t.Helper()
	var out []testimonial.CleanDecision
	scanner := bufio.NewScanner(strings.NewReader(data))
	for scanner.Scan() {
		var d testimonial.CleanDecision
		if err := json.Unmarshal(scanner.Bytes(), &d); err != nil {
			t.Fatalf("decoding %q: %v", scanner.Text(), err)
		}
		out = append(out, d)
	}
	return out
}

func TestExecute_Extract(t *testing.T) {
	dir := t.TempDir()
	page := writeFile(t, dir, "profile.html", profilePage)

	tests := []struct {
		name  string
		args  []string
		check func(t *testing.T, out string)
	}{
		{
			name: "json with ratings",
			args: []string{"--rating-count", "12", "--rating-average", "4.9", "--format", "json"},
			check: func(t *testing.T, out string) {
				var result testimonial.ExtractionResult
				if err := json.Unmarshal([]byte(out), &result); err != nil {
					t.Fatalf("decoding result: %v", err)
				}
				var authors []string
				for _, r := range result.Recommendations {
					authors = append(authors, r.Author)
				}
				if diff := cmp.Diff([]string{"Tom Baker", "Lisa Chen"}, authors); diff != "" {
					t.Errorf("authors mismatch (-want +got):\n%s", diff)
				}
				if result.Overall == nil || result.Overall.Count != 12 {
					t.Errorf("Overall = %+v, want count 12", result.Overall)
				}
			},
		},
		{
			name: "no ratings is null",
			args: []string{"--rating-count", "0", "--format", "json"},
			check: func(t *testing.T, out string) {
				if got := strings.TrimSpace(out); got != "null" {
					t.Errorf("output = %q, want null", got)
				}
			},
		},
		{
			name: "csv rows per recommendation",
			args: []string{"--rating-count", "12", "--format", "csv"},
			check: func(t *testing.T, out string) {
				want := []string{
					"text,author,date_text,source",
					"Sam helped us find our dream home in a tough market. Highly recommend him!,Tom Baker,,structured",
					"\"Sam was patient, responsive and knew every neighborhood we looked at.\",Lisa Chen,,structured",
				}
				if diff := cmp.Diff(want, strings.Split(strings.TrimSpace(out), "\n")); diff != "" {
					t.Errorf("csv mismatch (-want +got):\n%s", diff)
				}
			},
		},
		{
			name: "csv without ratings is empty",
			args: []string{"--format", "csv"},
			check: func(t *testing.T, out string) {
				if out != "" {
					t.Errorf("output = %q, want nothing", out)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := filepath.Join(t.TempDir(), "result")
			args := append([]string{"extract", page, "-q", "-o", out}, tt.args...)
			if err := execute(t, args...); err != nil {
				t.Fatalf("Execute() error = %v", err)
			}
			tt.check(t, readFile(t, out))
		})
	}
}

func TestExecute_Clean(t *testing.T) {
	dir := t.TempDir()
	jsonl := writeFile(t, dir, "stored.jsonl", storedRecords)
	csvIn := writeFile(t, dir, "stored.csv", storedCSV)

	t.Run("jsonl with reasons", func(t *testing.T) {
		out := filepath.Join(t.TempDir(), "decisions.jsonl")
		if err := execute(t, "clean", jsonl, "-q", "--explain", "--format", "jsonl", "-o", out); err != nil {
			t.Fatalf("Execute() error = %v", err)
		}

		want := []testimonial.CleanDecision{
			{ID: "1", Action: testimonial.ActionKeep},
			{ID: "2", Action: testimonial.ActionDelete, Reason: "navigation"},
			{ID: "3", Action: testimonial.ActionUpdate, NewText: paddedReview},
		}
		if diff := cmp.Diff(want, decodeDecisions(t, readFile(t, out))); diff != "" {
			t.Errorf("decisions mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("csv changes only", func(t *testing.T) {
		out := filepath.Join(t.TempDir(), "decisions.csv")
		if err := execute(t, "clean", csvIn, "-q", "--only-changes", "--format", "csv", "-o", out); err != nil {
			t.Fatalf("Execute() error = %v", err)
		}

		want := "id,action,new_text,reason\n2,delete,,\n"
		if diff := cmp.Diff(want, readFile(t, out)); diff != "" {
			t.Errorf("csv mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("empty input", func(t *testing.T) {
		empty := writeFile(t, dir, "empty.jsonl", "\n")
		err := execute(t, "clean", empty, "-q", "--format", "jsonl", "-o", filepath.Join(t.TempDir(), "out.jsonl"))
		if !errors.Is(err, ErrNoRecords) {
			t.Errorf("Execute() error = %v, want %v", err, ErrNoRecords)
		}
	})
}
