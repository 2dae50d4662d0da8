// Package llm provides the neutralizer's pluggable language-model client:
// a single Complete call behind an interface, with OpenAI and Anthropic
// implementations switchable by NEUTRALIZER_PROVIDER, mirroring the
// teacher's summarizer package.
package llm

import (
	"context"
	"encoding/json"
)

// Provider turns a system/user prompt pair into the raw JSON object the
// neutralizer expects back. Implementations perform exactly one attempt;
// retry and rate-limit handling live in the usecase layer, which needs to
// tell apart rate limits, context-length errors, and everything else.
type Provider interface {
	Complete(ctx context.Context, system, user string) (json.RawMessage, error)
}
