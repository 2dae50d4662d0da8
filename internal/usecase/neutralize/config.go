package neutralize

import "time"

// InitialWorkers sizes the per-run worker pool (§5): Run's channel
// semaphore holds InitialWorkers slots for the whole run. Nothing reads
// MaxWorkers; the pool does not grow beyond InitialWorkers.
const (
	InitialWorkers = 10
	MaxWorkers     = 25
)

// CallsPerMinute is the global LLM call budget shared across every worker.
const CallsPerMinute = 500

// RateLimitCooldown is how long every worker backs off after a 429.
const RateLimitCooldown = 2 * time.Minute

// RetryQueueInterGroupDelay paces the single retry-queue worker.
const RetryQueueInterGroupDelay = 1 * time.Second

// transientBackoff is the fixed 2/4/8s schedule applied to non-rate-limit
// errors before giving up on a group for this run.
var transientBackoff = []time.Duration{2 * time.Second, 4 * time.Second, 8 * time.Second}
