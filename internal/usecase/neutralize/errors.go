package neutralize

import "errors"

// Class is the closed error taxonomy the neutralizer reports per group
// (§7), generalizing the teacher's sentinel-error-plus-errors.Is idiom
// (entity.ErrNotFound style) into a typed classifier.
type Class int

const (
	ClassTransient Class = iota
	ClassRateLimited
	ClassInsufficientSources
	ClassInvalidPayload
	ClassStoreWriteFailure
	ClassFatal
)

func (c Class) String() string {
	switch c {
	case ClassRateLimited:
		return "rate_limited"
	case ClassInsufficientSources:
		return "insufficient_sources"
	case ClassInvalidPayload:
		return "invalid_payload"
	case ClassStoreWriteFailure:
		return "store_write_failure"
	case ClassFatal:
		return "fatal"
	default:
		return "transient"
	}
}

var (
	// ErrInsufficientSources means source selection left fewer than
	// entity.MinSources usable articles.
	ErrInsufficientSources = errors.New("neutralize: insufficient sources after selection")
	// ErrInvalidPayload means the model's response didn't parse or violated
	// the schema (e.g. relevance out of [1,5]).
	ErrInvalidPayload = errors.New("neutralize: invalid llm payload")
	// ErrStoreWriteFailure wraps a failed PutGroup/PatchGroup/UpdateNeutralScore call.
	ErrStoreWriteFailure = errors.New("neutralize: store write failed")
	// ErrRateLimited wraps a 429/insufficient_quota response, or a
	// context-length-exceeded error whose single retry also failed.
	ErrRateLimited = errors.New("neutralize: rate limited")
	// ErrGivingUp wraps the last error after the transient retry budget is
	// exhausted.
	ErrGivingUp = errors.New("neutralize: giving up after retries")
)

// Classify maps an error produced anywhere in the per-group pipeline onto
// the closed Class taxonomy.
func Classify(err error) Class {
	switch {
	case err == nil:
		return ClassTransient
	case errors.Is(err, ErrInsufficientSources):
		return ClassInsufficientSources
	case errors.Is(err, ErrInvalidPayload):
		return ClassInvalidPayload
	case errors.Is(err, ErrStoreWriteFailure):
		return ClassStoreWriteFailure
	case errors.Is(err, ErrRateLimited):
		return ClassRateLimited
	case errors.Is(err, ErrGivingUp):
		return ClassFatal
	default:
		return ClassTransient
	}
}
