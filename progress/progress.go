package progress

import (
	"sync"
	"time"

	"github.com/Solero93/OperatingSystems1/model/process"
)

// Delta is a signed counter change derived from one transition.
type Delta struct {
	Created    int
	Terminated int
	Dispatched int
	Ready      int
	Running    int
	Sleeping   int
	Waiting    int
}

// FromTransition returns the counter change caused by t: the source state
// loses a process and the target state gains one.
func FromTransition(t *process.Transition) Delta {
	var ret Delta
	ret.add(t.From, -1)
	ret.add(t.To, 1)
	switch {
	case t.From == process.StateUnused:
		ret.Created = 1
	case t.To == process.StateTerminated:
		ret.Terminated = 1
	}
	if t.To == process.StateRunning {
		ret.Dispatched = 1
	}
	return ret
}

func (d *Delta) add(state process.State, n int) {
	switch state {
	case process.StateReady:
		d.Ready += n
	case process.StateRunning:
		d.Running += n
	case process.StateSleeping:
		d.Sleeping += n
	case process.StateWaiting:
		d.Waiting += n
	}
}

// Counters is a point-in-time copy of the tracked values.
type Counters struct {
	BootID    string    `json:"bootId" yaml:"bootId"`
	StartedAt time.Time `json:"startedAt" yaml:"startedAt"`

	Created    int `json:"created" yaml:"created"`
	Terminated int `json:"terminated" yaml:"terminated"`
	Dispatched int `json:"dispatched" yaml:"dispatched"`
	Ready      int `json:"ready" yaml:"ready"`
	Running    int `json:"running" yaml:"running"`
	Sleeping   int `json:"sleeping" yaml:"sleeping"`
	Waiting    int `json:"waiting" yaml:"waiting"`
	PeakLive   int `json:"peakLive" yaml:"peakLive"`
}

// Live returns the number of created processes not yet terminated.
func (c Counters) Live() int {
	return c.Created - c.Terminated
}

// Progress keeps aggregated process counters. It is safe for concurrent use.
type Progress struct {
	mux      sync.Mutex
	counters Counters
	onChange func(Counters)
}

// New creates a tracker; onChange, when set, runs after every update.
func New(bootID string, startedAt time.Time, onChange func(Counters)) *Progress {
	return &Progress{counters: Counters{BootID: bootID, StartedAt: startedAt}, onChange: onChange}
}

// Update applies d. The onChange callback sees a copy, outside the lock.
func (p *Progress) Update(d Delta) {
	if p == nil {
		return
	}
	p.mux.Lock()
	c := &p.counters
	c.Created += d.Created
	c.Terminated += d.Terminated
	c.Dispatched += d.Dispatched
	c.Ready += d.Ready
	c.Running += d.Running
	c.Sleeping += d.Sleeping
	c.Waiting += d.Waiting
	if live := c.Live(); live > c.PeakLive {
		c.PeakLive = live
	}
	snapshot := *c
	cb := p.onChange
	p.mux.Unlock()
	if cb != nil {
		cb(snapshot)
	}
}

// Snapshot returns a copy of the counters.
func (p *Progress) Snapshot() Counters {
	if p == nil {
		return Counters{}
	}
	p.mux.Lock()
	defer p.mux.Unlock()
	return p.counters
}
