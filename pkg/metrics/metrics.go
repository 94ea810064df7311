// Package metrics defines Prometheus collectors of gemdclient.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Requests observes requests sent to the platform.
type Requests struct {
	total    *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewRequests creates collectors and registers them to reg, if reg is not nil.
func NewRequests(reg prometheus.Registerer) (*Requests, error) {
	r := &Requests{
		total: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "gemd",
				Subsystem: "client",
				Name:      "requests_total",
				Help:      "Number of requests sent to the platform, by method and status code. Code 0 is a transport failure.",
			},
			[]string{"method", "code"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "gemd",
				Subsystem: "client",
				Name:      "request_duration_seconds",
				Help:      "Latency of requests sent to the platform.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method"},
		),
	}
	if reg == nil {
		return r, nil
	}
	for _, c := range []prometheus.Collector{r.total, r.duration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Observe records a request. code is 0 when no response is received.
func (r *Requests) Observe(method string, code int, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.total.WithLabelValues(method, strconv.Itoa(code)).Inc()
	r.duration.WithLabelValues(method).Observe(elapsed.Seconds())
}

// Total returns the counter for method and code.
func (r *Requests) Total(method string, code int) prometheus.Counter {
	return r.total.WithLabelValues(method, strconv.Itoa(code))
}
