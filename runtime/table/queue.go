package table

import (
	"github.com/Solero93/OperatingSystems1/model/process"
)

// Queue is a singly linked list of table slots. Links live in PCB.Link, so a
// PCB can be a member of one queue at a time; callers must remove a PCB from
// its current queue before inserting it elsewhere.
type Queue struct {
	name  string
	table *Table
	first process.ID
	last  process.ID
	size  int
}

// NewQueue creates an empty queue over t.
func NewQueue(name string, t *Table) *Queue {
	return &Queue{name: name, table: t, first: process.None, last: process.None}
}

func (q *Queue) Name() string      { return q.name }
func (q *Queue) Len() int          { return q.size }
func (q *Queue) Empty() bool       { return q.first == process.None }
func (q *Queue) First() process.ID { return q.first }
func (q *Queue) Last() process.ID  { return q.last }

// Next returns the member following id.
func (q *Queue) Next(id process.ID) process.ID {
	return q.table.Get(id).Link
}

// EnqueueTail appends id.
func (q *Queue) EnqueueTail(id process.ID) {
	pcb := q.table.Get(id)
	pcb.Link = process.None
	if q.first == process.None {
		q.first = id
	} else {
		q.table.Get(q.last).Link = id
	}
	q.last = id
	q.size++
}

// EnqueueSecond inserts id right after the head, or as the head of an empty queue.
func (q *Queue) EnqueueSecond(id process.ID) {
	if q.first == process.None || q.first == q.last {
		q.EnqueueTail(id)
		return
	}
	head := q.table.Get(q.first)
	q.table.Get(id).Link = head.Link
	head.Link = id
	q.size++
}

// DequeueHead removes and returns the head, or None when empty.
func (q *Queue) DequeueHead() process.ID {
	id := q.first
	if id == process.None {
		return process.None
	}
	pcb := q.table.Get(id)
	q.first = pcb.Link
	if q.first == process.None {
		q.last = process.None
	}
	pcb.Link = process.None
	q.size--
	return id
}

// Remove unlinks id wherever it is; it reports false when id is not a member.
func (q *Queue) Remove(id process.ID) bool {
	if q.first == id {
		return q.DequeueHead() != process.None
	}
	for prev := q.first; prev != process.None; prev = q.table.Get(prev).Link {
		prevPCB := q.table.Get(prev)
		if prevPCB.Link != id {
			continue
		}
		pcb := q.table.Get(id)
		prevPCB.Link = pcb.Link
		if q.last == id {
			q.last = prev
		}
		pcb.Link = process.None
		q.size--
		return true
	}
	return false
}

// Visit calls fn for each member in order. The next link is read before fn
// runs, so fn may remove the visited member.
func (q *Queue) Visit(fn func(pcb *process.PCB)) {
	for cur := q.first; cur != process.None; {
		pcb := q.table.Get(cur)
		next := pcb.Link
		fn(pcb)
		cur = next
	}
}

// IDs returns the members in order.
func (q *Queue) IDs() []process.ID {
	ret := make([]process.ID, 0, q.size)
	for cur := q.first; cur != process.None; cur = q.table.Get(cur).Link {
		ret = append(ret, cur)
	}
	return ret
}
