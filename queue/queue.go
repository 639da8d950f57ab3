// Package queue implements the client's outstanding-request bookkeeping:
// at most one "tracked" command (one whose completion is signalled by a
// specific inbound frame, such as an eval or a backtrace) is ever in
// flight; everything else is fire-and-forget and resolves as soon as the
// transport accepts it. Grounded on the response-channel queue in
// the teacher's client session (push/pop of a FIFO of pending replies,
// with a small pool of reusable channels), adapted to gate submission
// itself rather than just reply delivery.
package queue

import (
	"sync"

	"github.com/pkg/errors"
)

// ErrTransportSubmitFailed is returned (and used to fail a request's
// result) when the caller-supplied submit function reports failure.
var ErrTransportSubmitFailed = errors.New("queue: failed to submit request")

// Result is delivered to a tracked request's completion channel either by
// Complete (success, protocol-level outcome) or internally on a submit
// failure.
type Result struct {
	Value interface{}
	Err   error
}

type trackedRequest struct {
	submit func() bool
	result chan Result
}

// Queue serializes tracked command submission against the single
// in-flight slot the engine's protocol allows, while letting
// fire-and-forget commands bypass it entirely.
type Queue struct {
	mu       sync.Mutex
	inFlight *trackedRequest
	waiting  []*trackedRequest
	pool     []chan Result
}

// New returns an empty Queue.
func New() *Queue {
	return &Queue{}
}

// Fire submits a fire-and-forget command: submit is invoked immediately,
// and the call resolves as soon as it returns, never waiting for any reply
// frame.
func (q *Queue) Fire(submit func() bool) error {
	if !submit() {
		return ErrTransportSubmitFailed
	}
	return nil
}

// Submit enqueues a tracked command. If no tracked command is currently in
// flight, submit is invoked before Submit returns; otherwise the request
// waits at the tail of the FIFO until Complete drains it. The returned
// channel receives exactly one Result.
func (q *Queue) Submit(submit func() bool) <-chan Result {
	req := &trackedRequest{submit: submit, result: q.allocChan()}

	q.mu.Lock()
	if q.inFlight == nil {
		q.inFlight = req
		q.mu.Unlock()
		q.trySend(req)
		return req.result
	}
	q.waiting = append(q.waiting, req)
	q.mu.Unlock()
	return req.result
}

// trySend calls req.submit outside the lock (submit functions typically
// perform I/O) and, on failure, resolves the request immediately and frees
// the in-flight slot without advancing the queue further: a submit
// failure fails only the request at hand.
func (q *Queue) trySend(req *trackedRequest) {
	if req.submit() {
		return
	}
	req.result <- Result{Err: ErrTransportSubmitFailed}

	q.mu.Lock()
	if q.inFlight == req {
		q.inFlight = nil
	}
	q.mu.Unlock()
}

// Complete resolves the in-flight tracked request with res and, if another
// request is waiting, submits it next (FIFO).
func (q *Queue) Complete(res Result) {
	q.mu.Lock()
	req := q.inFlight
	q.inFlight = nil
	if req == nil {
		q.mu.Unlock()
		return
	}

	var next *trackedRequest
	if len(q.waiting) > 0 {
		next, q.waiting = q.waiting[0], q.waiting[1:]
		q.inFlight = next
	}
	q.mu.Unlock()

	req.result <- res
	q.relChan(req.result)

	if next != nil {
		q.trySend(next)
	}
}

// Reset fails the in-flight request and every waiting request with err,
// used when the transport disconnects and every pending completion must
// be unblocked.
func (q *Queue) Reset(err error) {
	q.mu.Lock()
	req := q.inFlight
	q.inFlight = nil
	waiting := q.waiting
	q.waiting = nil
	q.mu.Unlock()

	if req != nil {
		req.result <- Result{Err: err}
	}
	for _, w := range waiting {
		w.result <- Result{Err: err}
	}
}

// Depth returns the number of tracked requests not yet submitted (waiting
// behind the in-flight one), for trace/metrics purposes only.
func (q *Queue) Depth() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.waiting)
}

func (q *Queue) allocChan() chan Result {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := len(q.pool)
	if n == 0 {
		return make(chan Result, 1)
	}
	var ch chan Result
	q.pool, ch = q.pool[:n-1], q.pool[n-1]
	return ch
}

func (q *Queue) relChan(ch chan Result) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pool = append(q.pool, ch)
}
