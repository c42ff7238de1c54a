package session

import (
	"sync"
	"time"
)

// EventType enumerates all event kinds emitted by the engine.
type EventType string

const (
	EventSessionStart  EventType = "session.start"
	EventSessionStop   EventType = "session.stop"
	EventStepForward   EventType = "step.forward"
	EventStepBackward  EventType = "step.backward"
	EventHistoryEmpty  EventType = "history.empty"
	EventBoardEdit     EventType = "board.edit"
	EventRunStart      EventType = "run.start"
	EventRunStop       EventType = "run.stop"
	EventSpeed         EventType = "run.speed"
	EventCycle         EventType = "cycle.detected"
	EventRuleChange    EventType = "rule.change"
	EventPatternLoad   EventType = "pattern.load"
	EventPatternSave   EventType = "pattern.save"
	EventPatternDelete EventType = "pattern.delete"
	EventPatternRemote EventType = "pattern.remote"
	EventScriptStart   EventType = "script.start"
	EventScriptStep    EventType = "script.step"
	EventScriptDone    EventType = "script.done"
	EventCommand       EventType = "command"
	EventInfo          EventType = "info"
	EventError         EventType = "error"
)

// Event is stored in the ring buffer and streamed via SSE.
type Event struct {
	Seq     uint64                 `json:"seq"`
	At      time.Time              `json:"at"`
	Type    EventType              `json:"type"`
	Message string                 `json:"message"`
	Fields  map[string]interface{} `json:"fields,omitempty"`
}

// RingBuffer is a fixed-size buffer used for event history.
type RingBuffer struct {
	mu       sync.Mutex
	capacity int
	events   []Event
	nextSeq  uint64
}

// NewRingBuffer constructs a ring buffer with the given capacity.
func NewRingBuffer(capacity int) *RingBuffer {
	if capacity <= 0 {
		capacity = 2000
	}
	return &RingBuffer{capacity: capacity, nextSeq: 1}
}

// Append adds an event and returns its assigned sequence.
func (r *RingBuffer) Append(ev Event) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	ev.Seq = r.nextSeq
	r.nextSeq++
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	if len(r.events) >= r.capacity {
		copy(r.events, r.events[1:])
		r.events[len(r.events)-1] = ev
	} else {
		r.events = append(r.events, ev)
	}
	return ev.Seq
}

// Since returns events with seq > after and the latest delivered seq.
func (r *RingBuffer) Since(after uint64) ([]Event, uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	latest := after
	idx := 0
	for idx < len(r.events) && r.events[idx].Seq <= after {
		idx++
	}
	if idx == len(r.events) {
		return nil, latest
	}
	out := make([]Event, len(r.events)-idx)
	copy(out, r.events[idx:])
	latest = out[len(out)-1].Seq
	return out, latest
}

// Last returns up to n of the newest events, oldest first.
func (r *RingBuffer) Last(n int) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n <= 0 || len(r.events) == 0 {
		return nil
	}
	if n > len(r.events) {
		n = len(r.events)
	}
	out := make([]Event, n)
	copy(out, r.events[len(r.events)-n:])
	return out
}
