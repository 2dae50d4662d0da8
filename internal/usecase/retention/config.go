// Package retention implements the C8 retention sweeper: a daily pass that
// protects articles still referenced by an active NeutralGroup and deletes
// everything else older than the retention window, ported from
// cleanup_old_news/src/{cleanup_news_collection,delete,protect}.py.
package retention

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// ArticleBatchSize is the conservative delete-batch ceiling for the
// articles collection, smaller than the generic repository.BatchSize to
// stay within transaction size (mirrors the original's
// "Reduced from 450 to 200" comment).
const ArticleBatchSize = 200

// Config holds the sweeper's one tunable, the retention window.
type Config struct {
	RetentionDays int
}

func DefaultConfig() Config {
	return Config{RetentionDays: 7}
}

func (c Config) Validate() error {
	if c.RetentionDays <= 0 {
		return fmt.Errorf("retention: RETENTION_DAYS must be positive, got %d", c.RetentionDays)
	}
	return nil
}

// LoadConfigFromEnv reads RETENTION_DAYS, defaulting to 7.
func LoadConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()
	if v := os.Getenv("RETENTION_DAYS"); v != "" {
		days, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("retention: invalid RETENTION_DAYS %q: %w", v, err)
		}
		cfg.RetentionDays = days
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Threshold computes the cutoff instant: documents created before this are
// eligible for deletion unless protected.
func (c Config) Threshold(now time.Time) time.Time {
	return now.AddDate(0, 0, -c.RetentionDays)
}
