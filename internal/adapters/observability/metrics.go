package observability

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
	"github.com/rs/zerolog/log"
)

var (
	ExternalRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "sirius", Name: "external_requests_total", Help: "Outbound requests."},
		[]string{"service", "endpoint", "status"},
	)
	ExternalLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "sirius", Name: "external_request_duration_seconds",
			Help:    "Outbound request duration seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "endpoint"},
	)
	ExportedRecords = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "sirius", Name: "exported_records_total", Help: "Records written per sink."},
		[]string{"sink"}, // sink: table|mysql
	)
	RunDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "sirius", Name: "run_duration_seconds",
			Help:    "Export run duration seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"outcome"},
	)
)

func InitRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(ExternalRequests, ExternalLatency, ExportedRecords, RunDuration)
	return reg
}

// Push sends the registry to a Pushgateway once. An empty url disables it.
func Push(ctx context.Context, url, job string, reg *prometheus.Registry) error {
	if url == "" {
		return nil
	}
	if err := push.New(url, job).Gatherer(reg).PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics: %w", err)
	}
	log.Debug().Str("url", url).Str("job", job).Msg("metrics pushed")
	return nil
}

func ObserveExternal(service, endpoint string, status int, dur time.Duration) {
	ExternalRequests.WithLabelValues(service, endpoint, strconv.Itoa(status)).Inc()
	ExternalLatency.WithLabelValues(service, endpoint).Observe(dur.Seconds())
}

func ObserveExported(sink string, n int) {
	ExportedRecords.WithLabelValues(sink).Add(float64(n))
}

func ObserveRun(err error, dur time.Duration) {
	RunDuration.WithLabelValues(LabelErr(err)).Observe(dur.Seconds())
}

func LabelErr(err error) string {
	if err == nil {
		return "none"
	}
	return fmt.Sprintf("%T", err)
}
