// Package metrics exposes session outcomes as Prometheus metrics.
//
// Each Collector owns its registry, so concurrent runs never share counters.
package metrics
