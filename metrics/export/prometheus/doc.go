// Package prometheus renders HRive engine counters in the Prometheus text
// exposition format. Mount [Exporter.Handler] on /metrics; nothing is
// registered globally.
package prometheus
