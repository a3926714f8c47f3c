// Package metrics exposes crawl counters in the Prometheus text format.
//
// Every component accepts a *Metrics and treats a nil value as "metrics
// disabled", so tests and the diagnostic listing commands never need a registry.
package metrics
