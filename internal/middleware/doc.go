// Package middleware provides HTTP middleware for the host bridge.
//
// [Logger] writes one access line per call and tags slow scans and uploads.
// [Metrics] records Prometheus request counters, durations and the
// in-flight gauge. Inside a mux router the path label is the route
// template; outside one, numeric segments are collapsed to {id}.
// Health checks and /metrics are skipped by default.
package middleware
