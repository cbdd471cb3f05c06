package pipeline

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/jmylchreest/reviewsift/pkg/extractor"
	"github.com/jmylchreest/reviewsift/pkg/patterns"
	"github.com/jmylchreest/reviewsift/pkg/source"
	"github.com/jmylchreest/reviewsift/pkg/testimonial"
)

const (
	firstReview  = "Sam helped us find our dream home in a tough market. Highly recommend him!"
	secondReview = "Sam was patient, responsive and knew every neighborhood we looked at."
	thirdReview  = "Lisa negotiated hard and got us far more than we expected. Highly recommend her!"
)

const reviewPage = `<html><body>
  <nav><a href="/">Home</a> <a href="/reviews">Reviews</a></nav>
  <section class="testimonials">
    <div class="testimonial">
      <p>Sam helped us find our dream home in a tough market. Highly recommend him!</p>
      <span class="author">Tom Baker</span>
      <time>March 2023</time>
    </div>
    <div class="testimonial">
      <p>Sam was patient, responsive and knew every neighborhood we looked at.</p>
      <span class="author">Lisa Chen</span>
      <time>June 2022</time>
    </div>
  </section>
</body></html>`

type fakeStrategy struct {
	candidates []extractor.Candidate
}

func (f *fakeStrategy) Name() string { return "fake" }

func (f *fakeStrategy) TryExtract(source.TextSource) []extractor.Candidate {
	return f.candidates
}

func fake(texts ...string) *fakeStrategy {
	f := &fakeStrategy{}
	for _, text := range texts {
		f.candidates = append(f.candidates, extractor.Candidate{Text: text, Source: testimonial.SourceStructured})
	}
	return f
}

func ratings(t *testing.T, count, average string) *testimonial.RatingSummary {
	t.Helper()
	r := testimonial.ParseRatingSummary(count, average)
	if r == nil {
		t.Fatalf("ParseRatingSummary(%q, %q) = nil", count, average)
	}
	return r
}

func TestRun_Gate(t *testing.T) {
	p := New(WithStrategies(fake(firstReview)))
	src := source.FromText(firstReview)

	tests := []struct {
		name    string
		ratings *testimonial.RatingSummary
	}{
		{name: "no summary", ratings: nil},
		{name: "zero ratings", ratings: &testimonial.RatingSummary{Count: 0}},
		{name: "unparseable count", ratings: testimonial.ParseRatingSummary("n/a", "4.5")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, stats := p.RunWithStats(tt.ratings, src)
			if result != nil {
				t.Errorf("RunWithStats() = %+v, want nil", result)
			}
			if !stats.Gated {
				t.Error("stats.Gated = false, want true")
			}
		})
	}
}

func TestRun_PlaceholderOnlyPage(t *testing.T) {
	p := New()
	placeholder := patterns.Default().Placeholder

	result, stats := p.RunWithStats(ratings(t, "45", "5"), source.FromText(placeholder.Text))
	if result == nil {
		t.Fatal("RunWithStats() = nil, want a result")
	}

	want := &testimonial.ExtractionResult{
		Overall:    ratings(t, "45", "5"),
		Individual: []testimonial.Testimonial{},
		Recommendations: []testimonial.Testimonial{{
			Text:   placeholder.Text,
			Author: "Satisfied Client",
			Source: testimonial.SourcePlaceholder,
		}},
	}
	if diff := cmp.Diff(want, result); diff != "" {
		t.Errorf("RunWithStats() mismatch (-want +got):\n%s", diff)
	}
	if !stats.Placeholder || stats.Emitted != 1 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestRun_StructuredPage(t *testing.T) {
	set := patterns.DefaultSet()
	src, err := source.FromHTMLString(reviewPage, source.HTMLOptions{
		RemoveSelectors: set.RemoveSelectors(),
		MinBlockLength:  set.MinLength(),
	})
	if err != nil {
		t.Fatal(err)
	}

	result, stats := New(WithConfig(set)).RunWithStats(ratings(t, "12", "4.9"), src)
	if result == nil {
		t.Fatal("RunWithStats() = nil")
	}

	want := []testimonial.Testimonial{
		{Text: firstReview, Author: "Tom Baker", DateText: "March 2023", Source: testimonial.SourceStructured},
		{Text: secondReview, Author: "Lisa Chen", DateText: "June 2022", Source: testimonial.SourceStructured},
	}
	if diff := cmp.Diff(want, result.Recommendations); diff != "" {
		t.Errorf("Recommendations mismatch (-want +got):\n%s", diff)
	}
	if stats.Extracted != 2 || stats.Duplicates != 0 || stats.Placeholder {
		t.Errorf("stats = %+v", stats)
	}
}

func TestRun_DropsTimestampVariants(t *testing.T) {
	src := source.FromText(`Jane Doe - 2 days ago: Sam was a great agent and very helpful with our first purchase.
Jane Doe - 5 days ago: Sam was a great agent and very helpful with our first purchase.`)

	result := New().Run(ratings(t, "3", ""), src)
	if result == nil {
		t.Fatal("Run() = nil")
	}
	if len(result.Recommendations) != 1 {
		t.Fatalf("got %d recommendations, want 1: %+v", len(result.Recommendations), result.Recommendations)
	}
	got := result.Recommendations[0]
	if got.Author != "Jane Doe" || got.DateText != "2 days ago" {
		t.Errorf("first occurrence should win, got %+v", got)
	}
}

func TestRun_CapsResults(t *testing.T) {
	cfg, err := patterns.FromYAML([]byte("max_results: 2\n"))
	if err != nil {
		t.Fatal(err)
	}

	p := New(WithConfig(cfg.MustCompile()), WithStrategies(fake(firstReview, secondReview, thirdReview)))
	result, stats := p.RunWithStats(ratings(t, "10", "5"), source.FromText(""))

	if len(result.Recommendations) != 2 {
		t.Fatalf("got %d recommendations, want 2", len(result.Recommendations))
	}
	if result.Recommendations[0].Text != firstReview || result.Recommendations[1].Text != secondReview {
		t.Errorf("cap must keep the earliest results, got %+v", result.Recommendations)
	}
	if stats.Capped != 1 {
		t.Errorf("stats.Capped = %d, want 1", stats.Capped)
	}
}

func TestRun_DropsStructurallyInvalid(t *testing.T) {
	bad := &fakeStrategy{candidates: []extractor.Candidate{
		{Text: firstReview, Source: "scraped"},
		{Text: secondReview, Source: testimonial.SourceGenericPage},
	}}

	result, stats := New(WithStrategies(bad)).RunWithStats(ratings(t, "2", ""), source.FromText(""))
	if len(result.Recommendations) != 1 || result.Recommendations[0].Text != secondReview {
		t.Errorf("Recommendations = %+v", result.Recommendations)
	}
	if stats.Invalid != 1 {
		t.Errorf("stats.Invalid = %d, want 1", stats.Invalid)
	}
}

func TestRun_LengthBounds(t *testing.T) {
	long := strings.Repeat("Sam was wonderful and patient with every question we asked. ", 20)

	result := New(WithStrategies(fake(long, firstReview))).Run(ratings(t, "5", ""), source.FromText(""))
	set := patterns.DefaultSet()
	for _, r := range result.Recommendations {
		if err := r.Validate(set.MinLength(), set.MaxLength()); err != nil {
			t.Errorf("emitted testimonial violates bounds: %v", err)
		}
	}
}

func TestWithLogger(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	New(WithLogger(log), WithStrategies(fake(firstReview, "Newest first"))).Run(ratings(t, "1", ""), source.FromText(""))

	// Extraction logs go through the same logger as the pipeline's own.
	for _, want := range []string{"testimonials extracted", "strategy finished", "candidate rejected"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("log output missing %q:\n%s", want, buf.String())
		}
	}
}

func TestPipeline_Extractor(t *testing.T) {
	if got := New().Extractor().Name(); got != "chain(structured->verified_review->text_pattern->generic_page)" {
		t.Errorf("Extractor().Name() = %q", got)
	}
	if got := New(WithStrategies(fake())).Extractor().Name(); got != "chain(fake)" {
		t.Errorf("Extractor().Name() = %q", got)
	}
}

func TestRun_MultiParagraphReview(t *testing.T) {
	const page = `<html><body>
<div class="testimonial-card">
  <p>Mark found us a wonderful home near the lake and handled every detail.</p>
  <p>He was patient with our questions and we would highly recommend him.</p>
  <span class="author">Mark Jensen</span>
</div>
</body></html>`

	set := patterns.DefaultSet()
	src, err := source.FromHTMLString(page, source.HTMLOptions{
		RemoveSelectors: set.RemoveSelectors(),
		MinBlockLength:  set.MinLength(),
	})
	if err != nil {
		t.Fatal(err)
	}

	result, stats := New(WithConfig(set)).RunWithStats(ratings(t, "3", ""), src)
	if result == nil {
		t.Fatal("RunWithStats() = nil")
	}

	want := []testimonial.Testimonial{{
		Text: "Mark found us a wonderful home near the lake and handled every detail. " +
			"He was patient with our questions and we would highly recommend him.",
		Author: "Mark Jensen",
		Source: testimonial.SourceStructured,
	}}
	if diff := cmp.Diff(want, result.Recommendations); diff != "" {
		t.Errorf("Recommendations mismatch (-want +got):\n%s", diff)
	}
	if stats.Extracted != 1 {
		t.Errorf("stats.Extracted = %d, want 1", stats.Extracted)
	}
}

func TestRun_UnknownAuthor(t *testing.T) {
	const review = "She found us a wonderful home near the park and we are so grateful for her help."

	cleared, err := patterns.FromYAML([]byte("unknown_author: ''\n"))
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		set  *patterns.Set
		want string
	}{
		{name: "default label", set: patterns.DefaultSet(), want: "Satisfied Client"},
		{name: "label disabled", set: cleared.MustCompile(), want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, stats := New(WithConfig(tt.set)).RunWithStats(ratings(t, "5", ""), source.FromText(review))
			if result == nil {
				t.Fatal("RunWithStats() = nil")
			}

			want := []testimonial.Testimonial{{
				Text:   review,
				Author: tt.want,
				Source: testimonial.SourceGenericPage,
			}}
			if diff := cmp.Diff(want, result.Recommendations); diff != "" {
				t.Errorf("Recommendations mismatch (-want +got):\n%s", diff)
			}
			if stats.Placeholder {
				t.Error("a resolved review must not fall back to the placeholder")
			}
		})
	}
}

func TestRun_ResolvedAuthorKept(t *testing.T) {
	result := New(WithStrategies(&fakeStrategy{candidates: []extractor.Candidate{
		{Text: firstReview, Author: "Tom Baker", Source: testimonial.SourceStructured},
	}})).Run(ratings(t, "1", ""), source.FromText(""))

	if got := result.Recommendations[0].Author; got != "Tom Baker" {
		t.Errorf("Author = %q, want %q", got, "Tom Baker")
	}
}
