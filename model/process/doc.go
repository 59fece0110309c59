// Package process holds the process control block and the values that
// describe its scheduling state.
package process
