// Package metrics records API client activity on a private registry that the
// CLI can flush to a node_exporter textfile.
package metrics

import (
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type Client struct {
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	expired  prometheus.Counter
}

func NewClient() *Client {
	c := &Client{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fittrack",
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "API requests issued by the client, by endpoint, method and status code.",
		}, []string{"endpoint", "method", "code"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "fittrack",
			Subsystem: "api",
			Name:      "request_duration_seconds",
			Help:      "Latency of API requests issued by the client.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint", "method"}),
		expired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fittrack",
			Subsystem: "api",
			Name:      "session_expired_total",
			Help:      "Responses that ended the local session with 401.",
		}),
	}
	c.registry.MustRegister(c.requests, c.duration, c.expired)
	return c
}

// ObserveRequest records one request. code 0 marks a transport failure.
func (c *Client) ObserveRequest(endpoint, method string, code int, elapsed time.Duration) {
	if c == nil {
		return
	}
	label := "transport_error"
	if code > 0 {
		label = strconv.Itoa(code)
	}
	c.requests.WithLabelValues(endpoint, method, label).Inc()
	c.duration.WithLabelValues(endpoint, method).Observe(elapsed.Seconds())
}

func (c *Client) ObserveSessionExpired() {
	if c == nil {
		return
	}
	c.expired.Inc()
}

// WriteTextfile writes the registry in the Prometheus text format.
func (c *Client) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
