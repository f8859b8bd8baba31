// Package metrics exposes Prometheus collectors fed by domain events and
// the HTTP middleware.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/billed/bill-review/internal/application/dispatcher"
	"github.com/billed/bill-review/internal/domain/event"
)

const namespace = "bill_review"

// Recorder owns a registry and the collectors registered on it
type Recorder struct {
	registry *prometheus.Registry

	decisions      *prometheus.CounterVec
	toggles        *prometheus.CounterVec
	editRequests   *prometheus.CounterVec
	snapshotBills  prometheus.Gauge
	requestLatency *prometheus.HistogramVec
}

// NewRecorder creates a Recorder with Go runtime and process collectors
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decisions_total",
			Help:      "Reviewer decisions persisted, by status.",
		}, []string{"status"}),
		toggles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "group_toggles_total",
			Help:      "Status group expand/collapse toggles.",
		}, []string{"status", "expanded"}),
		editRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "edit_requests_total",
			Help:      "Bill card selections, by whether the form opened.",
		}, []string{"opened"}),
		snapshotBills: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "snapshot_bills",
			Help:      "Bills in the most recently loaded dashboard snapshot.",
		}),
		requestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "code"}),
	}

	r.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.decisions,
		r.toggles,
		r.editRequests,
		r.snapshotBills,
		r.requestLatency,
	)
	return r
}

// Registry returns the underlying registry
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Subscribe registers the recorder on every event type it counts
func (r *Recorder) Subscribe(d dispatcher.Dispatcher) {
	d.SubscribeNamed(event.TypeBillAccepted, "metrics", r.HandleEvent)
	d.SubscribeNamed(event.TypeBillRefused, "metrics", r.HandleEvent)
	d.SubscribeNamed(event.TypeGroupToggled, "metrics", r.HandleEvent)
	d.SubscribeNamed(event.TypeEditRequested, "metrics", r.HandleEvent)
	d.SubscribeNamed(event.TypeSnapshotLoaded, "metrics", r.HandleEvent)
}

// HandleEvent is a dispatcher.Handler
func (r *Recorder) HandleEvent(ctx context.Context, evt *event.Event) error {
	if evt.Type.IsDecision() {
		r.decisions.WithLabelValues(evt.GetPayloadString(event.KeyStatus)).Inc()
		return nil
	}
	switch evt.Type {
	case event.TypeGroupToggled:
		r.toggles.WithLabelValues(
			evt.GetPayloadString(event.KeyStatus),
			strconv.FormatBool(evt.GetPayloadBool(event.KeyExpanded)),
		).Inc()
	case event.TypeEditRequested:
		r.editRequests.WithLabelValues(strconv.FormatBool(evt.GetPayloadBool(event.KeyOpened))).Inc()
	case event.TypeSnapshotLoaded:
		r.snapshotBills.Set(float64(evt.GetPayloadInt(event.KeyCount)))
	}
	return nil
}

// ObserveRequest records one HTTP request
func (r *Recorder) ObserveRequest(method, route string, code int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	r.requestLatency.WithLabelValues(method, route, strconv.Itoa(code)).Observe(elapsed.Seconds())
}
