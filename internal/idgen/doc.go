// Package idgen issues the opaque ids of boots and queued messages. Tests
// replace NewFunc for predictable values.
package idgen
