// Package telemetry provides structured logging and run metrics for the
// autoprep pipeline.
//
// Logging is built on zerolog. Components obtain child loggers carrying a
// component field, and the pipeline threads run, task, and attempt fields
// through the execution loop so every line is attributable to a specific
// try of a specific task:
//
//	log := telemetry.NewLogger(telemetry.LoggingConfig{Level: "info", Format: "console"})
//	taskLog := log.WithRunID(runID).WithTaskID(3).WithAttempt(2)
//	taskLog.Warn("execution failed, attempting repair")
//
// Metrics are Prometheus counters scoped to a single pipeline run. The
// process is a one-shot CLI, so nothing is served over HTTP; the final
// counter values are gathered from the registry and written into the run
// report alongside the ledger.
package telemetry
