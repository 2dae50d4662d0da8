package enrich

import "errors"

// Sentinel errors surfaced by body fetching; none of these ever abort a
// batch. Enrich logs them at debug level and keeps the feed description;
// no counter in metrics.go records a failed fetch.
var (
	ErrInvalidURL        = errors.New("enrich: invalid url")
	ErrPrivateIP         = errors.New("enrich: url resolves to private ip")
	ErrTooManyRedirects  = errors.New("enrich: too many redirects")
	ErrTimeout           = errors.New("enrich: request timed out")
	ErrBodyTooLarge      = errors.New("enrich: response body too large")
	ErrReadabilityFailed = errors.New("enrich: readability extraction failed")
)
