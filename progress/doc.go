// Package progress aggregates process counters for a single boot from the
// stream of state transitions.
package progress
