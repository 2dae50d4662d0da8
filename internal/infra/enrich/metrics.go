package enrich

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// eventsTotal counts the per-outlet enrichment outcomes named by spec
// §4.3: requests_made, successful_scrapes, empty_content, short_content,
// duplicate_content, blocked_by_robots. Mirrors the teacher's
// ContentFetchAttemptsTotal pattern, generalized with an outlet label.
var eventsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "enrich_outlet_events_total",
		Help: "Article enrichment outcomes by outlet and event",
	},
	[]string{"outlet", "event"},
)

const (
	eventRequestsMade      = "requests_made"
	eventSuccessfulScrapes = "successful_scrapes"
	eventEmptyContent      = "empty_content"
	eventShortContent      = "short_content"
	eventDuplicateContent  = "duplicate_content"
	eventBlockedByRobots   = "blocked_by_robots"
)

func recordEvent(outlet, event string) {
	eventsTotal.WithLabelValues(outlet, event).Inc()
}
