/*
Package observability exposes Prometheus instrumentation for the intake
engine: per-step execution counters, validation failures, generation
retry counts and record-store outcomes. A single Metrics value is
shared by the driver and the HTTP adapter, which serves it on /metrics.
*/
package observability
