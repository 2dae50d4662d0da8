// Package enrich implements the article enricher (C3): body extraction with
// fallback to the feed description, content-hash dedup, and per-outlet
// observability counters.
package enrich

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config controls body-extraction behavior and its safety limits.
type Config struct {
	// MinWords is the word count below which the feed description is
	// considered too thin and a body fetch is attempted.
	MinWords int

	// MinScrapedWords is the minimum word count a fetched body must clear
	// to be accepted; shorter bodies are rejected as short_content.
	MinScrapedWords int

	// Timeout bounds a single body-fetch HTTP request.
	Timeout time.Duration

	// Parallelism bounds concurrent enrichment workers.
	Parallelism int

	// MaxBodySize caps the HTTP response body read for a single article.
	MaxBodySize int64

	// MaxRedirects caps HTTP redirects followed per request.
	MaxRedirects int

	// DenyPrivateIPs blocks fetches that resolve to private/loopback IPs.
	DenyPrivateIPs bool
}

// DefaultConfig mirrors the original scraper's NewsScraper defaults
// (min_word_threshold=100, min_scraped_words=100, request_timeout=8).
func DefaultConfig() Config {
	return Config{
		MinWords:        100,
		MinScrapedWords: 100,
		Timeout:         8 * time.Second,
		Parallelism:     10,
		MaxBodySize:     10 * 1024 * 1024,
		MaxRedirects:    5,
		DenyPrivateIPs:  true,
	}
}

func (c *Config) Validate() error {
	if c.MinWords < 0 {
		return fmt.Errorf("min words must be non-negative, got %d", c.MinWords)
	}
	if c.MinScrapedWords < 0 {
		return fmt.Errorf("min scraped words must be non-negative, got %d", c.MinScrapedWords)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %v", c.Timeout)
	}
	if c.Parallelism < 1 || c.Parallelism > 50 {
		return fmt.Errorf("parallelism must be between 1 and 50, got %d", c.Parallelism)
	}
	if c.MaxBodySize < 1024 || c.MaxBodySize > 100*1024*1024 {
		return fmt.Errorf("max body size must be between 1KB and 100MB, got %d", c.MaxBodySize)
	}
	if c.MaxRedirects < 0 || c.MaxRedirects > 10 {
		return fmt.Errorf("max redirects must be between 0 and 10, got %d", c.MaxRedirects)
	}
	return nil
}

// LoadConfigFromEnv loads Config from environment variables, falling back to
// DefaultConfig for anything unset, then validates the result.
//
// Environment variables: ENRICH_MIN_WORDS, ENRICH_MIN_SCRAPED_WORDS,
// ENRICH_TIMEOUT, ENRICH_PARALLELISM, ENRICH_MAX_BODY_SIZE,
// ENRICH_MAX_REDIRECTS, ENRICH_DENY_PRIVATE_IPS.
func LoadConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()

	if val := os.Getenv("ENRICH_MIN_WORDS"); val != "" {
		parsed, err := strconv.Atoi(val)
		if err != nil {
			return cfg, fmt.Errorf("invalid ENRICH_MIN_WORDS: %w", err)
		}
		cfg.MinWords = parsed
	}
	if val := os.Getenv("ENRICH_MIN_SCRAPED_WORDS"); val != "" {
		parsed, err := strconv.Atoi(val)
		if err != nil {
			return cfg, fmt.Errorf("invalid ENRICH_MIN_SCRAPED_WORDS: %w", err)
		}
		cfg.MinScrapedWords = parsed
	}
	if val := os.Getenv("ENRICH_TIMEOUT"); val != "" {
		parsed, err := time.ParseDuration(val)
		if err != nil {
			return cfg, fmt.Errorf("invalid ENRICH_TIMEOUT: %w", err)
		}
		cfg.Timeout = parsed
	}
	if val := os.Getenv("ENRICH_PARALLELISM"); val != "" {
		parsed, err := strconv.Atoi(val)
		if err != nil {
			return cfg, fmt.Errorf("invalid ENRICH_PARALLELISM: %w", err)
		}
		cfg.Parallelism = parsed
	}
	if val := os.Getenv("ENRICH_MAX_BODY_SIZE"); val != "" {
		parsed, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			return cfg, fmt.Errorf("invalid ENRICH_MAX_BODY_SIZE: %w", err)
		}
		cfg.MaxBodySize = parsed
	}
	if val := os.Getenv("ENRICH_MAX_REDIRECTS"); val != "" {
		parsed, err := strconv.Atoi(val)
		if err != nil {
			return cfg, fmt.Errorf("invalid ENRICH_MAX_REDIRECTS: %w", err)
		}
		cfg.MaxRedirects = parsed
	}
	if val := os.Getenv("ENRICH_DENY_PRIVATE_IPS"); val != "" {
		cfg.DenyPrivateIPs = val == "true"
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}
