package main

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/destiny-evidence/paper-qa/internal/secrets"
	"github.com/destiny-evidence/paper-qa/pkg/types"
)

// setDefaults registers every configuration key so that PAPER_QA_* variables
// resolve even when no config file mentions the key.
func setDefaults(v *viper.Viper, d types.Config) {
	v.SetDefault("model.provider", d.Model.Provider)
	v.SetDefault("model.model", d.Model.Model)
	v.SetDefault("model.api_key", d.Model.APIKey)
	v.SetDefault("model.max_tokens", d.Model.MaxTokens)
	v.SetDefault("model.timeout", d.Model.Timeout)

	v.SetDefault("search.timeout", d.Search.Timeout)
	v.SetDefault("search.user_agent", d.Search.UserAgent)
	v.SetDefault("search.base_url", d.Search.BaseURL)
	v.SetDefault("search.email", d.Search.Email)
	v.SetDefault("search.api_key", d.Search.APIKey)
	v.SetDefault("search.max_results", d.Search.MaxResults)
	v.SetDefault("search.max_retries", d.Search.MaxRetries)
	v.SetDefault("search.retry_backoff", d.Search.RetryBackoff)
	v.SetDefault("search.retry_status", d.Search.RetryStatus)

	v.SetDefault("acquisition.timeout", d.Acquisition.Timeout)
	v.SetDefault("acquisition.user_agent", d.Acquisition.UserAgent)
	v.SetDefault("acquisition.paper_dir", d.Acquisition.PaperDir)
	v.SetDefault("acquisition.concurrency", d.Acquisition.Concurrency)
	v.SetDefault("acquisition.requests_per_second", d.Acquisition.RequestsPerSecond)

	v.SetDefault("corpus.dir", d.Corpus.Dir)
	v.SetDefault("corpus.search_limit", d.Corpus.SearchLimit)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.output", d.Logging.Output)

	v.SetDefault("metrics.file", d.Metrics.File)
}

// loadConfig resolves defaults, config file, environment and flags, fills
// missing credentials from s and validates the result.
func loadConfig(s secrets.Secrets) (types.Config, error) {
	return decodeConfig(viper.GetViper(), s)
}

func decodeConfig(v *viper.Viper, s secrets.Secrets) (types.Config, error) {
	c := types.DefaultConfig()
	setDefaults(v, c)
	if err := v.Unmarshal(&c); err != nil {
		return types.Config{}, fmt.Errorf("decoding config: %w", err)
	}
	s.Apply(&c)
	if err := c.Validate(); err != nil {
		return types.Config{}, err
	}
	return c, nil
}
