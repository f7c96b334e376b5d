package statemachine

import (
	"github.com/xuperchain/xabi/kernel/abi"
)

// EventQueue collects the events of one block or one transaction
type EventQueue struct {
	height uint32
	events []*abi.Event
}

func NewEventQueue(height uint32) *EventQueue {
	return &EventQueue{height: height}
}

func (q *EventQueue) Add(module, name string, data []byte, topics [][]byte) {
	if data == nil {
		data = []byte{}
	}
	q.events = append(q.events, &abi.Event{
		Module: module,
		Name:   name,
		Data:   data,
		Topics: topics,
		Height: q.height,
		Index:  uint32(len(q.events)),
	})
}

// Snapshot returns a mark RestoreSnapshot can drop back to
func (q *EventQueue) Snapshot() int {
	return len(q.events)
}

func (q *EventQueue) RestoreSnapshot(id int) {
	if id < 0 || id > len(q.events) {
		return
	}
	q.events = q.events[:id]
}

func (q *EventQueue) Events() []*abi.Event {
	out := make([]*abi.Event, len(q.events))
	copy(out, q.events)
	return out
}

func (q *EventQueue) Len() int {
	return len(q.events)
}
