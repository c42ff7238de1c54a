package lifeback

import (
	"fmt"
	"sync"

	"github.com/suyash-sneo/lifeback/history"
)

// Coordinator owns the current state of a session and its bounded undo
// history. Forward steps push the outgoing state; backward steps pop it.
type Coordinator[S any] struct {
	// stepMu serializes steppers so a transition always sees a stable current.
	stepMu sync.Mutex

	mu      sync.Mutex
	buf     *history.Buffer[S]
	current S
	depth   int

	logger  Logger
	metrics Metrics
}

// CoordinatorOption customizes a Coordinator.
type CoordinatorOption func(*coordinatorOptions)

type coordinatorOptions struct {
	logger  Logger
	metrics Metrics
}

// WithCoordinatorLogger sets the logger used for step tracing.
func WithCoordinatorLogger(l Logger) CoordinatorOption {
	return func(o *coordinatorOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithCoordinatorMetrics sets the metrics recorder.
func WithCoordinatorMetrics(m Metrics) CoordinatorOption {
	return func(o *coordinatorOptions) {
		if m != nil {
			o.metrics = m
		}
	}
}

// NewCoordinator builds a coordinator holding initial with an empty history
// of the given capacity. A capacity of 1 is legal but keeps no undo steps.
func NewCoordinator[S any](capacity int, initial S, opts ...CoordinatorOption) (*Coordinator[S], error) {
	o := coordinatorOptions{logger: NopLogger(), metrics: NopMetrics()}
	for _, opt := range opts {
		opt(&o)
	}
	buf, err := history.New[S](capacity)
	if err != nil {
		return nil, fmt.Errorf("new coordinator: %w", err)
	}
	c := &Coordinator[S]{
		buf:     buf,
		current: initial,
		logger:  o.logger,
		metrics: o.metrics,
	}
	c.metrics.SetGauge(MetricUndoDepth, 0)
	return c, nil
}

// StepForward computes the next state from the current one, records the
// outgoing state in history and adopts the result. next runs outside the
// state lock, so readers are never blocked by a slow transition.
func (c *Coordinator[S]) StepForward(next func(S) S) S {
	c.stepMu.Lock()
	defer c.stepMu.Unlock()

	c.mu.Lock()
	prev := c.current
	c.mu.Unlock()

	return c.push(prev, next(prev), "forward")
}

// Commit records the current state in history and adopts next. It is the
// undoable form of a board edit.
func (c *Coordinator[S]) Commit(next S) S {
	c.stepMu.Lock()
	defer c.stepMu.Unlock()

	c.mu.Lock()
	prev := c.current
	c.mu.Unlock()

	return c.push(prev, next, "commit")
}

func (c *Coordinator[S]) push(prev, next S, reason string) S {
	c.mu.Lock()
	limit := c.buf.Cap() - 1
	evicted := c.depth >= limit
	c.buf.Push(prev)
	c.current = next
	if c.depth < limit {
		c.depth++
	}
	depth := c.depth
	c.mu.Unlock()

	c.metrics.IncCounter(MetricStepsForward, 1, Label{Name: "reason", Value: reason})
	if evicted {
		c.metrics.IncCounter(MetricEvictions, 1)
	}
	c.metrics.SetGauge(MetricUndoDepth, float64(depth))
	c.logger.Debug("history push", Field{Key: "reason", Value: reason}, Field{Key: "depth", Value: depth}, Field{Key: "evicted", Value: evicted})
	return next
}

// StepBackward restores the most recent state from history. On an empty
// history it returns the unchanged current state and false.
func (c *Coordinator[S]) StepBackward() (S, bool) {
	c.stepMu.Lock()
	defer c.stepMu.Unlock()

	c.mu.Lock()
	prev, ok := c.buf.Pop()
	if ok {
		c.current = prev
		if c.depth > 0 {
			c.depth--
		}
	}
	cur := c.current
	depth := c.depth
	c.mu.Unlock()

	if !ok {
		c.metrics.IncCounter(MetricEmptyPops, 1)
		c.logger.Debug("history empty")
		return cur, false
	}
	c.metrics.IncCounter(MetricStepsBackward, 1)
	c.metrics.SetGauge(MetricUndoDepth, float64(depth))
	c.logger.Debug("history pop", Field{Key: "depth", Value: depth})
	return cur, true
}

// Amend rewrites the current state in place. History is untouched, so an
// amended state is lost on the next backward step.
func (c *Coordinator[S]) Amend(fn func(S) S) S {
	c.stepMu.Lock()
	defer c.stepMu.Unlock()

	c.mu.Lock()
	prev := c.current
	c.mu.Unlock()

	next := fn(prev)

	c.mu.Lock()
	c.current = next
	c.mu.Unlock()
	return next
}

// Reset drops all history and adopts initial.
func (c *Coordinator[S]) Reset(initial S) {
	c.stepMu.Lock()
	defer c.stepMu.Unlock()

	c.mu.Lock()
	c.buf.Clear()
	c.current = initial
	c.depth = 0
	c.mu.Unlock()
	c.metrics.SetGauge(MetricUndoDepth, 0)
}

// Depth is the number of backward steps currently available.
func (c *Coordinator[S]) Depth() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.depth
}

// Capacity is the history capacity given at construction.
func (c *Coordinator[S]) Capacity() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buf.Cap()
}

// Current returns the adopted state.
func (c *Coordinator[S]) Current() S {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// History visits retained states from newest (age 0) to oldest. fn runs
// under the state lock and must not call back into the coordinator.
func (c *Coordinator[S]) History(fn func(age int, s S) bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.buf.Each(fn)
}

// retained reports the buffer's own count; tests compare it to depth.
func (c *Coordinator[S]) retained() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buf.Len()
}
