/*
Package observability provides Prometheus instrumentation for the vitae engine.

It counts document mutations by kind, times change analysis, records the size
of each change set and tracks the outcome of AI rewrites. A nil *Metrics is
valid and records nothing, so components can be instrumented unconditionally.
*/
package observability
