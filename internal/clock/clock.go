// Package clock is the wall time source of events and records.
package clock

import "time"

// NowFunc returns current time. Override in tests for determinism.
var NowFunc = time.Now

// Now is a thin wrapper around NowFunc.
func Now() time.Time { return NowFunc() }

// Freeze makes Now return t until the returned restore func is called.
func Freeze(t time.Time) (restore func()) {
	NowFunc = func() time.Time { return t }
	return func() { NowFunc = time.Now }
}
