package observability

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"secondmain/internal/models"
)

var (
	// ListingsCreated counts listings persisted by the creation workflow.
	ListingsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "secondmain_listings_created_total",
		Help: "Total number of listings created",
	})

	// ListingCreateFailures counts aborted listing creations by error code.
	ListingCreateFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "secondmain_listing_create_failures_total",
		Help: "Total number of listing creations that failed, by error code",
	}, []string{"code"})

	// UploadRollbacks counts stored files removed after a failed creation,
	// labelled by whether the removal succeeded.
	UploadRollbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "secondmain_upload_rollbacks_total",
		Help: "Total number of stored uploads deleted during rollback",
	}, []string{"result"})

	// AuthFailures counts rejected authentications by reason.
	AuthFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "secondmain_auth_failures_total",
		Help: "Total number of rejected authentications by reason",
	}, []string{"reason"})

	// RateLimitRejections counts requests refused by the rate limiter.
	RateLimitRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "secondmain_rate_limit_rejections_total",
		Help: "Total number of requests rejected by rate limiting",
	}, []string{"resource"})

	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "secondmain_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "secondmain_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}

// AuthFailureReason maps an authorization error onto a low-cardinality label.
func AuthFailureReason(err error) string {
	switch {
	case errors.Is(err, models.ErrMissingCredential):
		return "missing"
	case errors.Is(err, models.ErrExpiredToken):
		return "expired"
	case errors.Is(err, models.ErrInvalidToken):
		return "invalid"
	case errors.Is(err, models.ErrUnknownPrincipal):
		return "unknown_user"
	case errors.Is(err, models.ErrAccountDisabled):
		return "disabled"
	case errors.Is(err, models.ErrBadCredentials):
		return "bad_credentials"
	default:
		return "other"
	}
}

// ErrorCode returns the AppError code of err, or INTERNAL_ERROR.
func ErrorCode(err error) string {
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return models.CodeInternal
}
