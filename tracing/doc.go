// Package tracing wraps OpenTelemetry so that interrupt entry points can be
// traced without importing the SDK. Spans are no-op until Init installs a
// provider.
package tracing
