package handoff

import (
	"context"
	"errors"
	"time"

	"github.com/TerryYan26/RTOS/internal/sensor"
)

// ErrFull means the queue stayed full for the whole bounded enqueue wait.
// It is a soft error: the producer counts it and moves on to its next
// cycle.
var ErrFull = errors.New("handoff queue full")

// Queue is the bounded hand-off between the acquisition scheduler and
// whatever consumes composite samples. Samples cross by value in strict
// enqueue order. A slow or absent consumer costs samples but can never
// stall a producer beyond the configured wait.
type Queue struct {
	ch   chan sensor.CompositeSample
	wait time.Duration
}

// New sizes the queue: depth samples are absorbed before enqueues start
// waiting, and wait bounds how long a blocked enqueue may take.
func New(depth int, wait time.Duration) *Queue {
	if depth <= 0 {
		depth = 1
	}
	return &Queue{
		ch:   make(chan sensor.CompositeSample, depth),
		wait: wait,
	}
}

// Enqueue appends one sample, waiting up to the configured bound for a
// free slot when the queue is full.
func (q *Queue) Enqueue(smp sensor.CompositeSample) error {
	select {
	case q.ch <- smp:
		return nil
	default:
	}
	if q.wait <= 0 {
		return ErrFull
	}
	t := time.NewTimer(q.wait)
	defer t.Stop()
	select {
	case q.ch <- smp:
		return nil
	case <-t.C:
		return ErrFull
	}
}

// Dequeue blocks until a sample arrives or ctx ends.
func (q *Queue) Dequeue(ctx context.Context) (sensor.CompositeSample, error) {
	select {
	case smp := <-q.ch:
		return smp, nil
	case <-ctx.Done():
		return sensor.CompositeSample{}, ctx.Err()
	}
}

// C exposes the consumer end of the queue for select loops.
func (q *Queue) C() <-chan sensor.CompositeSample {
	return q.ch
}

// Len returns the number of samples currently queued.
func (q *Queue) Len() int { return len(q.ch) }

// Cap returns the configured queue depth.
func (q *Queue) Cap() int { return cap(q.ch) }
