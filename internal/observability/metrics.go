package observability

import (
	"regexp"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// APIRequestsTotal counts outbound API calls by endpoint, method and status.
	APIRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "smilegift_api_requests_total",
		Help: "Total number of outbound API requests",
	}, []string{"endpoint", "method", "status"})

	// APIRequestDuration records outbound API latency.
	APIRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "smilegift_api_request_duration_seconds",
		Help:    "Outbound API request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint", "method"})

	// SessionTeardowns counts session destructions by reason.
	SessionTeardowns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "smilegift_session_teardowns_total",
		Help: "Total number of session teardowns by reason",
	}, []string{"reason"})

	// QueryCacheEvents counts query cache lookups by result (hit, miss, shared).
	QueryCacheEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "smilegift_query_cache_events_total",
		Help: "Total number of query cache lookups by result",
	}, []string{"result"})

	// GiftLinks counts UPI link dispatch attempts by outcome.
	GiftLinks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "smilegift_gift_links_total",
		Help: "Total number of UPI link dispatch attempts by outcome",
	}, []string{"outcome"})
)

var objectIDSegment = regexp.MustCompile(`^[0-9a-fA-F]{24}$`)

// EndpointLabel collapses object ids in a request path so metric labels stay bounded.
func EndpointLabel(path string) string {
	segments := strings.Split(path, "/")
	for i, s := range segments {
		if objectIDSegment.MatchString(s) {
			segments[i] = ":id"
		}
	}
	return strings.Join(segments, "/")
}
