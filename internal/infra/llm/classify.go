package llm

import "strings"

// ErrorClass buckets a provider error by the substrings the OpenAI and
// Anthropic SDKs surface in their error messages (§6.5), so the usecase
// layer can apply the right recovery strategy without depending on either
// SDK's concrete error types.
type ErrorClass int

const (
	ErrClassUnknown ErrorClass = iota
	ErrClassRateLimited
	ErrClassInsufficientQuota
	ErrClassContextLengthExceeded
)

// Classify inspects err's message for the known substrings. Order matters:
// context_length_exceeded is checked before the generic rate-limit
// substrings since some gateways mention both in the same message.
func Classify(err error) ErrorClass {
	if err == nil {
		return ErrClassUnknown
	}
	msg := strings.ToLower(err.Error())

	switch {
	case strings.Contains(msg, "context_length_exceeded"):
		return ErrClassContextLengthExceeded
	case strings.Contains(msg, "insufficient_quota"):
		return ErrClassInsufficientQuota
	case strings.Contains(msg, "429"), strings.Contains(msg, "rate_limit"):
		return ErrClassRateLimited
	default:
		return ErrClassUnknown
	}
}
