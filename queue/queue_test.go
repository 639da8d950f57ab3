package queue

import (
	"testing"
	"time"

	assert "github.com/stretchr/testify/require"
)

func recv(t *testing.T, ch <-chan Result) Result {
	t.Helper()
	select {
	case r := <-ch:
		return r
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for result")
		return Result{}
	}
}

func TestFireResolvesImmediately(t *testing.T) {
	q := New()
	called := false
	err := q.Fire(func() bool { called = true; return true })
	assert.NoError(t, err)
	assert.True(t, called)
}

func TestFireReportsSubmitFailure(t *testing.T) {
	q := New()
	err := q.Fire(func() bool { return false })
	assert.ErrorIs(t, err, ErrTransportSubmitFailed)
}

func TestSubmitSendsImmediatelyWhenIdle(t *testing.T) {
	q := New()
	sent := false
	ch := q.Submit(func() bool { sent = true; return true })
	assert.True(t, sent)

	q.Complete(Result{Value: "ok"})
	r := recv(t, ch)
	assert.NoError(t, r.Err)
	assert.Equal(t, "ok", r.Value)
}

func TestSubmitQueuesBehindInFlightRequest(t *testing.T) {
	q := New()
	var secondSent bool

	first := q.Submit(func() bool { return true })
	second := q.Submit(func() bool { secondSent = true; return true })

	assert.False(t, secondSent, "second request must not be submitted while first is in flight")
	assert.Equal(t, 1, q.Depth())

	q.Complete(Result{Value: 1})
	assert.Equal(t, 1, recv(t, first).Value)

	assert.True(t, secondSent, "completing the first must submit the second")
	q.Complete(Result{Value: 2})
	assert.Equal(t, 2, recv(t, second).Value)
}

func TestSubmitFailureDoesNotAdvanceQueue(t *testing.T) {
	q := New()
	var secondSent bool

	first := q.Submit(func() bool { return false })
	r := recv(t, first)
	assert.ErrorIs(t, r.Err, ErrTransportSubmitFailed)

	second := q.Submit(func() bool { secondSent = true; return true })
	assert.True(t, secondSent, "a fresh Submit after a submit failure may proceed immediately")
	q.Complete(Result{Value: "done"})
	assert.Equal(t, "done", recv(t, second).Value)
}

func TestResetFailsAllPendingRequests(t *testing.T) {
	q := New()
	first := q.Submit(func() bool { return true })
	second := q.Submit(func() bool { return true })

	q.Reset(ErrTransportSubmitFailed)

	assert.ErrorIs(t, recv(t, first).Err, ErrTransportSubmitFailed)
	assert.ErrorIs(t, recv(t, second).Err, ErrTransportSubmitFailed)
}
