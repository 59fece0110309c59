package idgen

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
)

// NewFunc returns a new globally unique identifier.
var NewFunc = func() string { return uuid.New().String() }

// New returns a new identifier.
func New() string { return NewFunc() }

// Sequence makes New return prefix-1, prefix-2, ... until the returned
// restore func is called.
func Sequence(prefix string) (restore func()) {
	var next atomic.Int64
	NewFunc = func() string {
		return fmt.Sprintf("%s-%d", prefix, next.Add(1))
	}
	return func() { NewFunc = func() string { return uuid.New().String() } }
}
