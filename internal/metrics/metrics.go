// Package metrics exposes bridge activity as Prometheus collectors.
//
// Each bridge context owns a Metrics with its own registry, so several
// contexts (and tests) never collide on collector registration.
package metrics

import (
	"net/http"
	"sort"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"

	"github.com/dshills/imebridge/internal/event"
	"github.com/dshills/imebridge/internal/outbound"
	"github.com/dshills/imebridge/internal/updater"
)

// Metrics holds the bridge collectors.
type Metrics struct {
	registry *prometheus.Registry

	EventsSent      *prometheus.CounterVec
	BarrierWaits    prometheus.Histogram
	UpdatesCoalesce prometheus.Counter
	UpdatesApplied  *prometheus.CounterVec
	RestartInputs   prometheus.Counter
	Notifications   *prometheus.CounterVec
	Ignored         *prometheus.CounterVec
	KeySynthesis    *prometheus.CounterVec
}

// New creates collectors on a fresh registry. Metric names are prefixed
// with namespace.
func New(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		registry: reg,

		EventsSent: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "outbound_events_total",
				Help:      "Events sent to the remote engine",
			},
			[]string{"kind"},
		),
		BarrierWaits: f.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "barrier_wait_seconds",
				Help:      "Time the UI loop spent blocked on the sync barrier",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
			},
		),
		UpdatesCoalesce: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "updater_coalesced_total",
				Help:      "Keyboard state requests merged into a pending request",
			},
		),
		UpdatesApplied: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "updater_applied_total",
				Help:      "Pending keyboard state requests applied on the UI loop",
			},
			[]string{"flags"},
		),
		RestartInputs: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "restart_input_total",
				Help:      "Input restarts requested from the host",
			},
		),
		Notifications: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "notifications_total",
				Help:      "Engine notifications received",
			},
			[]string{"kind"},
		),
		Ignored: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "notifications_ignored_total",
				Help:      "Engine text notifications ignored during a composition",
			},
			[]string{"kind"},
		),
		KeySynthesis: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "key_synthesis_total",
				Help:      "Single character commits by delivery path",
			},
			[]string{"path"},
		),
	}
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the collectors in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// EventSent implements outbound.Observer.
func (m *Metrics) EventSent(kind outbound.Kind) {
	m.EventsSent.WithLabelValues(kind.String()).Inc()
}

// BarrierWait implements outbound.Observer.
func (m *Metrics) BarrierWait(d time.Duration) {
	m.BarrierWaits.Observe(d.Seconds())
}

// Coalesced implements updater.Observer.
func (m *Metrics) Coalesced() {
	m.UpdatesCoalesce.Inc()
}

// Applied implements updater.Observer. Every applied request restarts
// input once.
func (m *Metrics) Applied(flags updater.Flags) {
	m.UpdatesApplied.WithLabelValues(flags.String()).Inc()
	m.RestartInputs.Inc()
}

// Notification counts an engine notification.
func (m *Metrics) Notification(kind event.Kind) {
	m.Notifications.WithLabelValues(kind.String()).Inc()
}

// NotificationIgnored counts a notification dropped while composing.
func (m *Metrics) NotificationIgnored(kind event.Kind) {
	m.Ignored.WithLabelValues(kind.String()).Inc()
}

// Synthesized counts a single character commit by path ("keys" or
// "text").
func (m *Metrics) Synthesized(path string) {
	m.KeySynthesis.WithLabelValues(path).Inc()
}

// Snapshot returns counter and histogram sample counts by metric name and
// label values, for logs and the demo status line.
func (m *Metrics) Snapshot() (map[string]float64, error) {
	families, err := m.registry.Gather()
	if err != nil {
		return nil, err
	}
	out := make(map[string]float64)
	for _, mf := range families {
		for _, metric := range mf.GetMetric() {
			out[seriesName(mf.GetName(), metric.GetLabel())] = value(mf.GetType(), metric)
		}
	}
	return out, nil
}

func seriesName(name string, labels []*dto.LabelPair) string {
	if len(labels) == 0 {
		return name
	}
	parts := make([]string, 0, len(labels))
	for _, l := range labels {
		parts = append(parts, l.GetName()+"="+l.GetValue())
	}
	sort.Strings(parts)
	s := name + "{"
	for i, p := range parts {
		if i > 0 {
			s += ","
		}
		s += p
	}
	return s + "}"
}

func value(t dto.MetricType, m *dto.Metric) float64 {
	switch t {
	case dto.MetricType_COUNTER:
		return m.GetCounter().GetValue()
	case dto.MetricType_GAUGE:
		return m.GetGauge().GetValue()
	case dto.MetricType_HISTOGRAM:
		return float64(m.GetHistogram().GetSampleCount())
	default:
		return 0
	}
}

var (
	_ outbound.Observer = (*Metrics)(nil)
	_ updater.Observer  = (*Metrics)(nil)
)
