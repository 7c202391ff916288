package metrics

import (
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	"chalresp/internal/domain"
)

// Collector counts emitted records. It implements domain.Observer.
type Collector struct {
	registry *prometheus.Registry

	exchanges *prometheus.CounterVec
	detected  *prometheus.CounterVec
	missed    *prometheus.CounterVec
	steps     prometheus.Histogram
	bytes     prometheus.Histogram
}

// NewCollector returns a Collector with a fresh registry.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		exchanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chalresp",
			Name:      "exchanges_total",
			Help:      "Exchanges emitted, by variant, verdict and attack label.",
		}, []string{"variant", "verdict", "label"}),
		detected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chalresp",
			Name:      "attacks_detected_total",
			Help:      "Attacked exchanges that did not authenticate.",
		}, []string{"label", "reason"}),
		missed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chalresp",
			Name:      "attacks_undetected_total",
			Help:      "Attacked exchanges that authenticated anyway.",
		}, []string{"label"}),
		steps: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "chalresp",
			Name:      "exchange_steps",
			Help:      "State transitions per exchange.",
			Buckets:   prometheus.LinearBuckets(1, 1, 8),
		}),
		bytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "chalresp",
			Name:      "exchange_bytes",
			Help:      "Bytes on the wire per exchange.",
			Buckets:   prometheus.ExponentialBuckets(32, 2, 6),
		}),
	}
	c.registry.MustRegister(c.exchanges, c.detected, c.missed, c.steps, c.bytes)
	return c
}

// ObserveRecord updates the metrics for rec.
func (c *Collector) ObserveRecord(rec domain.Record) {
	c.exchanges.WithLabelValues(rec.Variant.String(), rec.Verdict.String(), rec.AttackLabel.String()).Inc()
	c.steps.Observe(float64(rec.StepCount))
	c.bytes.Observe(float64(rec.TotalBytes))

	if !rec.AttackFlag {
		return
	}
	if rec.Verdict == domain.VerdictAuthenticated {
		c.missed.WithLabelValues(rec.AttackLabel.String()).Inc()
		return
	}
	c.detected.WithLabelValues(rec.AttackLabel.String(), rec.Reason.String()).Inc()
}

// Exchanges returns the counter of emitted exchanges.
func (c *Collector) Exchanges() *prometheus.CounterVec { return c.exchanges }

// Detected returns the counter of rejected attacks.
func (c *Collector) Detected() *prometheus.CounterVec { return c.detected }

// Missed returns the counter of attacks that authenticated.
func (c *Collector) Missed() *prometheus.CounterVec { return c.missed }

// Registry returns the registry holding the collector's metrics.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// WriteTextfile writes the metrics in the text exposition format to path.
func (c *Collector) WriteTextfile(path string) error {
	return errors.Wrapf(prometheus.WriteToTextfile(path, c.registry), "write metrics to %s", path)
}

// Compile-time assertion that Collector implements domain.Observer.
var _ domain.Observer = (*Collector)(nil)
