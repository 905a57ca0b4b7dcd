// Package observability provides logging, the task history event log, and
// the metrics, alerts and notifiers derived from it. Events are stored as
// JSON Lines and metrics are computed on demand.
package observability
