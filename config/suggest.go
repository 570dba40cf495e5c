package config

import (
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/theplant/casefilter/suggest"
)

// SuggestConfig configures the suggestion client. Durations use time.ParseDuration syntax.
type SuggestConfig struct {
	BaseURL   string `mapstructure:"base_url"   yaml:"base_url"`
	RetryMax  int    `mapstructure:"retry_max"  yaml:"retry_max"`
	Timeout   string `mapstructure:"timeout"    yaml:"timeout"`
	CacheSize int    `mapstructure:"cache_size" yaml:"cache_size"`
	CacheTTL  string `mapstructure:"cache_ttl"  yaml:"cache_ttl"`
}

// NewClient builds the suggestion client, or returns nil when no base URL is configured.
func (cfg SuggestConfig) NewClient(logger zerolog.Logger) (*suggest.Client, error) {
	if cfg.BaseURL == "" {
		return nil, nil
	}

	opts := []suggest.Option{
		suggest.WithRetryMax(cfg.RetryMax),
		suggest.WithLogger(logger),
	}
	if cfg.Timeout != "" {
		timeout, err := time.ParseDuration(cfg.Timeout)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid suggest timeout %q", cfg.Timeout)
		}
		opts = append(opts, suggest.WithTimeout(timeout))
	}
	if cfg.CacheSize > 0 {
		ttl, err := time.ParseDuration(cfg.CacheTTL)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid suggest cache ttl %q", cfg.CacheTTL)
		}
		opts = append(opts, suggest.WithCache(cfg.CacheSize, ttl))
	}
	return suggest.NewClient(cfg.BaseURL, opts...), nil
}
