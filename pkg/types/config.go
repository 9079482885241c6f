package types

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout" validate:"gt=0"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "paper-qa/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent" validate:"required"`
}

// ModelConfig selects and configures the language model used for query synthesis.
type ModelConfig struct {
	// Provider is "anthropic" or "gemini".
	Provider string `json:"provider" yaml:"provider" mapstructure:"provider" validate:"oneof=anthropic gemini"`

	// Model is the provider's model name.
	Model string `json:"model" yaml:"model" mapstructure:"model" validate:"required"`

	// APIKey is normally supplied through .secrets/ rather than the config file.
	APIKey string `json:"-" yaml:"-" mapstructure:"api_key"`

	MaxTokens int           `json:"max_tokens" yaml:"max_tokens" mapstructure:"max_tokens" validate:"gte=64"`
	Timeout   time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout" validate:"gt=0"`
}

// SearchConfig holds settings for the OpenAlex search client.
type SearchConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// BaseURL is the OpenAlex API root.
	BaseURL string `json:"base_url" yaml:"base_url" mapstructure:"base_url" validate:"required,url"`

	// Email is sent as mailto for the polite pool.
	Email string `json:"email,omitempty" yaml:"email,omitempty" mapstructure:"email" validate:"omitempty,email"`

	APIKey string `json:"-" yaml:"-" mapstructure:"api_key"`

	// MaxResults is the number of candidates requested per search (default 20).
	MaxResults int `json:"max_results" yaml:"max_results" mapstructure:"max_results" validate:"min=1,max=200"`

	// MaxRetries is the number of retries on RetryStatus responses. Zero disables retries.
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries" validate:"min=0,max=10"`

	// RetryBackoff is the base delay between retries, doubled per attempt.
	RetryBackoff time.Duration `json:"retry_backoff" yaml:"retry_backoff" mapstructure:"retry_backoff" validate:"gte=0"`

	RetryStatus []int `json:"retry_status" yaml:"retry_status" mapstructure:"retry_status" validate:"dive,min=400,max=599"`
}

// AcquisitionConfig holds settings for the download manager.
type AcquisitionConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// PaperDir is the local paper store. Every *.pdf directly inside it counts
	// as downloaded.
	PaperDir string `json:"paper_dir" yaml:"paper_dir" mapstructure:"paper_dir" validate:"required"`

	// Concurrency bounds the number of simultaneous downloads (default 4).
	Concurrency int `json:"concurrency" yaml:"concurrency" mapstructure:"concurrency" validate:"min=1,max=64"`

	// RequestsPerSecond paces download starts. Zero disables pacing.
	RequestsPerSecond float64 `json:"requests_per_second" yaml:"requests_per_second" mapstructure:"requests_per_second" validate:"gte=0"`
}

// CorpusConfig holds settings for the document corpus.
type CorpusConfig struct {
	// Dir holds corpus.db.
	Dir string `json:"dir" yaml:"dir" mapstructure:"dir" validate:"required"`

	// SearchLimit is the default number of rows returned by corpus search.
	SearchLimit int `json:"search_limit" yaml:"search_limit" mapstructure:"search_limit" validate:"min=1"`
}

// LoggingConfig controls the structured logger.
type LoggingConfig struct {
	Level  string `json:"level" yaml:"level" mapstructure:"level" validate:"oneof=trace debug info warn error"`
	Format string `json:"format" yaml:"format" mapstructure:"format" validate:"oneof=json console"`
	Output string `json:"output" yaml:"output" mapstructure:"output" validate:"oneof=stdout stderr"`
}

// MetricsConfig controls metric export. An empty File disables it.
type MetricsConfig struct {
	File string `json:"file,omitempty" yaml:"file,omitempty" mapstructure:"file"`
}

// Config is the whole pipeline configuration.
type Config struct {
	Model       ModelConfig       `json:"model" yaml:"model" mapstructure:"model"`
	Search      SearchConfig      `json:"search" yaml:"search" mapstructure:"search"`
	Acquisition AcquisitionConfig `json:"acquisition" yaml:"acquisition" mapstructure:"acquisition"`
	Corpus      CorpusConfig      `json:"corpus" yaml:"corpus" mapstructure:"corpus"`
	Logging     LoggingConfig     `json:"logging" yaml:"logging" mapstructure:"logging"`
	Metrics     MetricsConfig     `json:"metrics" yaml:"metrics" mapstructure:"metrics"`
}

const defaultUserAgent = "paper-qa/0.1"

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() Config {
	return Config{
		Model: ModelConfig{
			Provider:  "anthropic",
			Model:     "claude-sonnet-4-20250514",
			MaxTokens: 1024,
			Timeout:   60 * time.Second,
		},
		Search: SearchConfig{
			HTTPConfig:   HTTPConfig{Timeout: 30 * time.Second, UserAgent: defaultUserAgent},
			BaseURL:      "https://api.openalex.org",
			MaxResults:   20,
			MaxRetries:   0,
			RetryBackoff: 100 * time.Millisecond,
			RetryStatus:  []int{429, 500, 503},
		},
		Acquisition: AcquisitionConfig{
			HTTPConfig:  HTTPConfig{Timeout: 15 * time.Second, UserAgent: defaultUserAgent},
			PaperDir:    "papers",
			Concurrency: 4,
		},
		Corpus: CorpusConfig{
			Dir:         "corpus",
			SearchLimit: 20,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
			Output: "stderr",
		},
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints and reports every violation in one error.
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validating config: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}
