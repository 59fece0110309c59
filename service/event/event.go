package event

import (
	"time"

	"github.com/Solero93/OperatingSystems1/internal/clock"
)

// Event types of process transitions.
const (
	TypeCreated      = "created"
	TypeStateChanged = "stateChanged"
	TypeTerminated   = "terminated"
)

// deliveredKey prefixes the metadata entries marking the subscribers that
// handled an event.
const deliveredKey = "delivered."

type Context struct {
	BootID    string `json:"bootID"`
	PID       int    `json:"pid"`
	EventType string `json:"eventType"`
	Tick      uint64 `json:"tick"`
}

type Event[T any] struct {
	Context   *Context               `json:"context"`
	CreatedAt time.Time              `json:"createdAt"`
	Metadata  map[string]interface{} `json:"metadata"`
	Data      T                      `json:"data"`
}

func NewEvent[T any](context *Context, data T) *Event[T] {
	return &Event[T]{
		Context:   context,
		CreatedAt: clock.Now(),
		Metadata:  make(map[string]interface{}),
		Data:      data,
	}
}
