package monitoring

import "github.com/prometheus/client_golang/prometheus"

var (
	HttpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"path", "status"},
	)

	HttpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path"},
	)

	ActiveConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "active_connections",
			Help: "Number of active connections",
		},
	)

	IndexCacheRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "index_cache_requests_total",
			Help: "Index page cache lookups by result",
		},
		[]string{"result"},
	)

	PostsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "posts_created_total",
			Help: "Total number of posts created",
		},
	)

	CommentsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "comments_created_total",
			Help: "Total number of comments created",
		},
	)

	FollowChanges = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "follow_changes_total",
			Help: "Follow edge mutations by action",
		},
		[]string{"action"},
	)
)

func Register() {
	prometheus.MustRegister(
		HttpRequestsTotal,
		HttpRequestDuration,
		ActiveConnections,
		IndexCacheRequests,
		PostsCreated,
		CommentsCreated,
		FollowChanges,
	)
}
