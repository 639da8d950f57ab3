package dbgclient

import (
	"testing"
	"time"

	assert "github.com/stretchr/testify/require"

	"github.com/jerryscript-client/dbg/dbgtestserver"
	"github.com/jerryscript-client/dbg/protocol"
	"github.com/jerryscript-client/dbg/wire"
)

func TestConnectWaitsForHandshake(t *testing.T) {
	eng := dbgtestserver.NewDefault()
	eng.PushFrame(eng.Handshake(0x80))

	c, err := Connect(eng, nil, DefaultConfig)
	assert.NoError(t, err)
	assert.NotNil(t, c)
	_ = c.Close()
}

func TestConnectTimesOutWithoutHandshake(t *testing.T) {
	eng := dbgtestserver.NewDefault()
	_, err := Connect(eng, nil, &Config{HandshakeTimeoutSecs: 0})
	assert.ErrorIs(t, err, ErrHandshakeTimeout)
}

func TestConnectFailsOnBadHandshake(t *testing.T) {
	eng := dbgtestserver.NewDefault()
	eng.PushFrame([]byte{byte(wire.TagConfiguration), 0x80, 3, 1, wire.ProtocolVersion})

	_, err := Connect(eng, nil, DefaultConfig)
	assert.Error(t, err)
}

// drive pushes a full handshake + one script + one function + a halt so
// commands become legal, leaving the client sitting at a breakpoint.
func drive(t *testing.T) (*Client, *dbgtestserver.FakeEngine) {
	t.Helper()
	eng := dbgtestserver.NewDefault()
	eng.PushFrame(eng.Handshake(0x80))

	c, err := Connect(eng, nil, DefaultConfig)
	assert.NoError(t, err)

	eng.PushFrame(eng.SourceCode("x"))
	eng.StageSimpleFunction(42, []uint32{1}, []uint32{0})
	eng.PushFrame(eng.BreakpointHit(42, 0))

	assert.Eventually(t, func() bool {
		_, err := c.FindBreakpoint(1, 1)
		return err == nil
	}, time.Second, time.Millisecond)

	return c, eng
}

func TestResumeSendsContinueAndClearsHalt(t *testing.T) {
	c, eng := drive(t)
	defer c.Close()

	assert.NoError(t, c.Resume())
	assert.Eventually(t, func() bool { return len(eng.SentFrames()) > 0 }, time.Second, time.Millisecond)

	frames := eng.SentFrames()
	last := frames[len(frames)-1]
	assert.Equal(t, byte(wire.TagContinue), last[0])

	assert.ErrorIs(t, c.Resume(), protocol.ErrNotHalted)
}

func TestEvaluateRoundTrip(t *testing.T) {
	c, eng := drive(t)
	defer c.Close()

	done := make(chan struct{})
	var result string
	var evalErr error
	go func() {
		res, err := c.Evaluate("1+1", 0)
		result, evalErr = res.Value, err
		close(done)
	}()

	assert.Eventually(t, func() bool { return len(eng.SentFrames()) > 0 }, time.Second, time.Millisecond)
	eng.PushFrame(eng.EvalResult(wire.EvalOK, "2"))

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Evaluate did not complete")
	}
	assert.NoError(t, evalErr)
	assert.Equal(t, "2", result)
}

func TestDisconnectUnblocksPendingEvaluate(t *testing.T) {
	c, _ := drive(t)

	done := make(chan error, 1)
	go func() {
		_, err := c.Evaluate("1", 0)
		done <- err
	}()

	time.Sleep(10 * time.Millisecond)
	assert.NoError(t, c.Close())

	select {
	case err := <-done:
		assert.Error(t, err)
	case <-time.After(time.Second):
		t.Fatal("Evaluate did not unblock on disconnect")
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	eng := dbgtestserver.NewDefault()
	eng.PushFrame(eng.Handshake(0x80))
	c, err := Connect(eng, nil, DefaultConfig)
	assert.NoError(t, err)

	assert.NoError(t, c.Close())
	assert.NoError(t, c.Close())
}
