package usermetrics

import (
	"errors"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
)

// Tags are the dimension labels attached to an exported series.
type Tags map[string]string

// Counter is a handle to a monotonically increasing exported series.
type Counter interface {
	Inc()
}

// Sink receives named, tagged series from the aggregator. Both methods are
// register-or-get: calling them repeatedly with identical name+tags must
// collapse onto the same underlying series. Gauge values are read from the
// value function at scrape time, so the binding is by reference.
type Sink interface {
	Counter(name, help string, tags Tags) Counter
	Gauge(name, help string, tags Tags, value func() float64)
}

// PromSink exports series through a Prometheus registerer. Dotted metric
// names and tag keys are sanitized to the Prometheus character set; the
// dotted form is the aggregator-boundary naming convention.
type PromSink struct {
	reg prometheus.Registerer
}

// NewPromSink creates a sink on the given registerer.
func NewPromSink(reg prometheus.Registerer) *PromSink {
	return &PromSink{reg: reg}
}

// Counter registers (or reuses) a counter with const labels.
func (s *PromSink) Counter(name, help string, tags Tags) Counter {
	c := prometheus.NewCounter(prometheus.CounterOpts{
		Name:        sanitize(name),
		Help:        help,
		ConstLabels: sanitizeTags(tags),
	})
	if err := s.reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			return already.ExistingCollector.(prometheus.Counter)
		}
		// Deliberate best-effort fallback: the unregistered counter still
		// accepts increments (they just never reach a scrape), so the
		// caller's business operation is never disturbed.
		log.Error().Err(err).Str("metric", name).Msg("Failed to register counter")
	}
	return c
}

// Gauge registers (or reuses) a gauge whose value is polled at scrape time.
func (s *PromSink) Gauge(name, help string, tags Tags, value func() float64) {
	g := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name:        sanitize(name),
		Help:        help,
		ConstLabels: sanitizeTags(tags),
	}, value)
	if err := s.reg.Register(g); err != nil {
		var already prometheus.AlreadyRegisteredError
		if !errors.As(err, &already) {
			log.Error().Err(err).Str("metric", name).Msg("Failed to register gauge")
		}
	}
}

func sanitize(name string) string {
	return strings.ReplaceAll(name, ".", "_")
}

func sanitizeTags(tags Tags) prometheus.Labels {
	labels := make(prometheus.Labels, len(tags))
	for k, v := range tags {
		labels[sanitize(k)] = v
	}
	return labels
}
