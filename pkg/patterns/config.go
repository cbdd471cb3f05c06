// Package patterns holds the single table of named pattern sets and
// thresholds shared by the extraction pipeline and the batch cleaner.
package patterns

import (
	_ "embed"
	"fmt"
	"os"
	"slices"
	"sync"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Placeholder is the fixed, non-attributed testimonial emitted when a page
// has ratings but no extractable review text.
type Placeholder struct {
	Text   string `yaml:"text" json:"text" validate:"required"`
	Author string `yaml:"author" json:"author" validate:"required"`
}

// Config defines every tunable threshold and pattern list.
type Config struct {
	// === Thresholds ===

	// MinLength is the minimum normalized testimonial length in runes.
	MinLength int `yaml:"min_length" json:"min_length" validate:"gt=0"`

	// MaxLength is the hard truncation length in runes.
	MaxLength int `yaml:"max_length" json:"max_length" validate:"gtfield=MinLength"`

	// TruncationLength is the length above which text without terminal
	// punctuation is treated as cut off.
	TruncationLength int `yaml:"truncation_length" json:"truncation_length" validate:"gt=0"`

	// SimilarityThreshold is the Jaccard coefficient at or above which two
	// testimonials are duplicates.
	SimilarityThreshold float64 `yaml:"similarity_threshold" json:"similarity_threshold" validate:"gt=0,lte=1"`

	// TargetCount stops the extractor once this many distinct testimonials were accepted.
	TargetCount int `yaml:"target_count" json:"target_count" validate:"gt=0"`

	// MaxResults caps the pipeline output.
	MaxResults int `yaml:"max_results" json:"max_results" validate:"gt=0"`

	// MinAvgSentenceLength is the average sentence length a testimonial must exceed.
	MinAvgSentenceLength int `yaml:"min_avg_sentence_length" json:"min_avg_sentence_length" validate:"gte=0"`

	Placeholder Placeholder `yaml:"placeholder" json:"placeholder"`

	// UnknownAuthor labels emitted testimonials whose author could not be
	// resolved. Empty leaves the author unset.
	UnknownAuthor string `yaml:"unknown_author" json:"unknown_author"`

	// === Contamination ===

	RatingCategories   []string `yaml:"rating_categories" json:"rating_categories" validate:"required,dive,required"`
	ScoreCategories    []string `yaml:"score_categories" json:"score_categories" validate:"dive,required"`
	NavigationPatterns []string `yaml:"navigation_patterns" json:"navigation_patterns" validate:"dive,required"`
	BoilerplateTexts   []string `yaml:"boilerplate_texts" json:"boilerplate_texts" validate:"dive,required"`
	BoilerplateAuthors []string `yaml:"boilerplate_authors" json:"boilerplate_authors" validate:"dive,required"`
	AuthorSubstrings   []string `yaml:"author_substrings" json:"author_substrings" validate:"dive,required"`
	BadAuthorPattern   string   `yaml:"bad_author_pattern" json:"bad_author_pattern"`

	// === Content quality ===

	PositiveMarkers []string `yaml:"positive_markers" json:"positive_markers" validate:"required,dive,required"`
	NoiseTerms      []string `yaml:"noise_terms" json:"noise_terms" validate:"dive,required"`

	// === Names and truncation ===

	NameStopwords []string `yaml:"name_stopwords" json:"name_stopwords" validate:"dive,required"`
	ShortWords    []string `yaml:"short_words" json:"short_words" validate:"dive,required"`
	CommonWords   []string `yaml:"common_words" json:"common_words" validate:"dive,required"`

	// === DOM selectors ===

	ContainerSelectors []string `yaml:"container_selectors" json:"container_selectors" validate:"dive,required"`
	AuthorSelectors    []string `yaml:"author_selectors" json:"author_selectors" validate:"dive,required"`
	DateSelectors      []string `yaml:"date_selectors" json:"date_selectors" validate:"dive,required"`
	RemoveSelectors    []string `yaml:"remove_selectors" json:"remove_selectors" validate:"dive,required"`
}

var (
	defaultConfig Config
	defaultErr    error
	defaultOnce   sync.Once
)

// Default returns a copy of the embedded default table.
func Default() *Config {
	defaultOnce.Do(func() {
		defaultErr = yaml.Unmarshal(defaultsYAML, &defaultConfig)
	})
	if defaultErr != nil {
		// The embedded document is part of the build; a parse failure is a programming error.
		panic(fmt.Sprintf("patterns: embedded defaults are invalid: %v", defaultErr))
	}
	return defaultConfig.Clone()
}

// Load reads a YAML override file and applies it on top of the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- user-specified pattern file
	if err != nil {
		return nil, fmt.Errorf("failed to read pattern file: %w", err)
	}
	return FromYAML(data)
}

// FromYAML applies a YAML override document on top of the defaults.
// Keys absent from the document keep their default values.
func FromYAML(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse pattern YAML: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks thresholds with struct tags and compiles every regex.
func (c *Config) Validate() error {
	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(c); err != nil {
		return fmt.Errorf("invalid pattern config: %w", err)
	}
	if _, err := c.Compile(); err != nil {
		return err
	}
	return nil
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	out := *c
	out.RatingCategories = slices.Clone(c.RatingCategories)
	out.ScoreCategories = slices.Clone(c.ScoreCategories)
	out.NavigationPatterns = slices.Clone(c.NavigationPatterns)
	out.BoilerplateTexts = slices.Clone(c.BoilerplateTexts)
	out.BoilerplateAuthors = slices.Clone(c.BoilerplateAuthors)
	out.AuthorSubstrings = slices.Clone(c.AuthorSubstrings)
	out.PositiveMarkers = slices.Clone(c.PositiveMarkers)
	out.NoiseTerms = slices.Clone(c.NoiseTerms)
	out.NameStopwords = slices.Clone(c.NameStopwords)
	out.ShortWords = slices.Clone(c.ShortWords)
	out.CommonWords = slices.Clone(c.CommonWords)
	out.ContainerSelectors = slices.Clone(c.ContainerSelectors)
	out.AuthorSelectors = slices.Clone(c.AuthorSelectors)
	out.DateSelectors = slices.Clone(c.DateSelectors)
	out.RemoveSelectors = slices.Clone(c.RemoveSelectors)
	return &out
}

// YAML renders the config as a YAML document.
func (c *Config) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}
