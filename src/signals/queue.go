package signals

import (
	"sync"

	"github.com/gopherflux/signals/src/telemetry"
)

// dispatchJob is one enqueued event delivery. run performs the actual
// fan-out to subscribers and reports whether at least one subscriber was
// live at delivery time; done (if non-nil) receives that result.
type dispatchJob struct {
	run  func() bool
	done chan bool
}

// eventQueue serializes every dispatch belonging to one store onto a single
// logical delivery sequence, the way the juju eventqueue package serializes
// changestream events through one "actions chan func()" worker — except
// here the backing structure is a mutex-guarded slice rather than a fixed
// channel, so a dispatch issued synchronously from inside another
// dispatch's delivery (a reaction) can be appended without the enqueuing
// goroutine blocking on its own drain loop.
type eventQueue struct {
	mu       sync.Mutex
	pending  []dispatchJob
	draining bool
	closed   bool

	warnThreshold int
	logger        telemetry.Logger
}

// newEventQueue builds a queue that logs a backlog warning once pending
// jobs reach warnThreshold (0 disables the warning).
func newEventQueue(warnThreshold int, logger telemetry.Logger) *eventQueue {
	if logger == nil {
		logger = telemetry.NoOpLogger{}
	}
	return &eventQueue{warnThreshold: warnThreshold, logger: logger}
}

// enqueue schedules run for execution on the queue's delivery sequence and
// returns a completion handle that resolves once run has executed. Calls
// made while already draining (i.e. from within a subscriber callback)
// are appended after every already-queued job, preserving FIFO order.
func (q *eventQueue) enqueue(run func() bool) <-chan bool {
	done := make(chan bool, 1)

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		done <- false
		return done
	}
	q.pending = append(q.pending, dispatchJob{run: run, done: done})
	shouldDrain := !q.draining
	if shouldDrain {
		q.draining = true
	}
	backlog := len(q.pending)
	threshold := q.warnThreshold
	q.mu.Unlock()

	if threshold > 0 && backlog >= threshold {
		q.logger.Warn(telemetry.CategoryQueue, "dispatch backlog exceeds threshold", "pending", backlog, "threshold", threshold)
	}

	if shouldDrain {
		go q.drain()
	}
	return done
}

func (q *eventQueue) drain() {
	for {
		q.mu.Lock()
		if len(q.pending) == 0 {
			q.draining = false
			q.mu.Unlock()
			return
		}
		job := q.pending[0]
		q.pending = q.pending[1:]
		q.mu.Unlock()

		delivered := job.run()
		if job.done != nil {
			job.done <- delivered
		}
	}
}

// close stops accepting new jobs and drops everything still pending,
// resolving their completion handles to false. Matches the Open Question
// resolution that CompleteAllSignals drops rather than drains the queue.
func (q *eventQueue) close() {
	q.mu.Lock()
	q.closed = true
	dropped := q.pending
	q.pending = nil
	q.mu.Unlock()

	for _, job := range dropped {
		if job.done != nil {
			job.done <- false
		}
	}
}
