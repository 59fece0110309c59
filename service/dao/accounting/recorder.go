package accounting

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Solero93/OperatingSystems1/internal/clock"
	"github.com/Solero93/OperatingSystems1/model/process"
	"github.com/Solero93/OperatingSystems1/service/dao"
	"github.com/Solero93/OperatingSystems1/service/event"
)

// recordKey holds the record built for a termination event so that retries
// save it under the same Seq.
const recordKey = "accounting.record"

// Recorder turns termination events into stored records.
type Recorder struct {
	dao     dao.Service[int, Record]
	logger  *slog.Logger
	mux     sync.Mutex
	created map[process.ID]uint64
	seq     int
}

// NewRecorder creates a recorder saving through service.
func NewRecorder(service dao.Service[int, Record], logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{dao: service, logger: logger, created: map[process.ID]uint64{}}
}

// Handle consumes one transition event; it is meant for event.Service.Subscribe.
// A failed save is returned so the event is retried.
func (r *Recorder) Handle(e *event.Event[process.Transition]) error {
	ctx := context.Background()
	record, retry := e.Metadata[recordKey].(*Record)
	if retry {
		if r.saved(ctx, record) {
			return nil
		}
	} else if record = r.build(e); record == nil {
		return nil
	}
	if err := r.dao.Save(ctx, record); err != nil {
		r.logger.Error("failed to save accounting record", "pid", record.PID, "seq", record.Seq, "retry", retry, "error", err)
		return fmt.Errorf("failed to save record %d of pid %d: %w", record.Seq, record.PID, err)
	}
	return nil
}

// build tracks creations and returns the record of a termination.
func (r *Recorder) build(e *event.Event[process.Transition]) *Record {
	transition := &e.Data
	r.mux.Lock()
	defer r.mux.Unlock()
	switch event.TypeOf(transition) {
	case event.TypeCreated:
		r.created[transition.PID] = transition.Tick
		return nil
	case event.TypeStateChanged:
		return nil
	}
	r.seq++
	record := &Record{
		Seq:            r.seq,
		PID:            transition.PID,
		Program:        transition.PCB.Program,
		ParentID:       transition.PCB.ParentID,
		CPUTicks:       transition.PCB.CPUTicks,
		RoundCount:     transition.PCB.RoundCount,
		ExitReason:     transition.PCB.ExitReason,
		CreatedTick:    r.created[transition.PID],
		TerminatedTick: transition.Tick,
		RecordedAt:     clock.Now(),
	}
	if e.Context != nil {
		record.BootID = e.Context.BootID
	}
	delete(r.created, transition.PID)
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[recordKey] = record
	return record
}

// saved reports whether an earlier attempt stored record despite failing.
func (r *Recorder) saved(ctx context.Context, record *Record) bool {
	stored, err := r.dao.Load(ctx, record.Seq)
	if err != nil {
		return false
	}
	return stored.BootID == record.BootID && stored.PID == record.PID && stored.TerminatedTick == record.TerminatedTick
}

// Records lists the stored records ordered by Seq.
func (r *Recorder) Records(ctx context.Context, parameters ...*dao.Parameter) ([]*Record, error) {
	records, err := r.dao.List(ctx, parameters...)
	if err != nil {
		return nil, err
	}
	Sort(records)
	return records, nil
}
