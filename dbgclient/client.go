// Package dbgclient wires the wire, breakpoints, protocol and transport
// packages into a connected JerryScript remote debugger session, the way
// netconf/client wires codec+transport into a Session. Client owns the
// reactor goroutine; every exported method is safe to call from any
// goroutine.
package dbgclient

import (
	"sync"
	"time"

	"github.com/imdario/mergo"
	"github.com/pkg/errors"

	"github.com/jerryscript-client/dbg/breakpoints"
	"github.com/jerryscript-client/dbg/protocol"
	"github.com/jerryscript-client/dbg/queue"
	"github.com/jerryscript-client/dbg/transport"
	"github.com/jerryscript-client/dbg/wire"
)

// ErrHandshakeTimeout is returned by Connect if the engine's CONFIGURATION
// frame does not arrive within cfg.HandshakeTimeoutSecs.
var ErrHandshakeTimeout = errors.New("dbgclient: timed out waiting for handshake")

// Client is a connected debug session: one reactor goroutine owns the
// transport's read side and feeds whole frames to the protocol handler,
// grounded on the teacher's sesImpl/handleIncomingMessages
// (netconf/client/message.go). Command methods serialize against each
// other with reqLock, the same scope as the teacher's si.reqLock around
// si.execute: it guards command submission, not the reactor, which is free
// to keep draining inbound frames (including the one that will complete a
// currently-blocked tracked command) while a caller waits.
type Client struct {
	cfg   *Config
	t     transport.Transport
	table *breakpoints.Table
	q     *queue.Queue
	h     *protocol.Handler
	trace *Trace

	readyOnce sync.Once
	ready     chan error

	closeOnce sync.Once
	reqLock   sync.Mutex
}

// Connect starts the reactor against t and blocks until the engine's
// handshake has been received and applied. On any failure t is closed
// before Connect returns.
func Connect(t transport.Transport, trace *Trace, cfg *Config) (*Client, error) {
	resolved := Config{}
	if cfg != nil {
		resolved = *cfg
	}
	_ = mergo.Merge(&resolved, DefaultConfig)

	c := &Client{
		cfg:   &resolved,
		t:     t,
		table: breakpoints.NewTable(),
		q:     queue.New(),
		trace: trace,
		ready: make(chan error, 1),
	}
	c.h = protocol.New(c.table, c.q, trace, t.Send)
	t.OnClose(c.handleDisconnect)

	go c.reactor()

	select {
	case err := <-c.ready:
		if err != nil {
			_ = t.Close()
			return nil, err
		}
	case <-time.After(time.Duration(resolved.HandshakeTimeoutSecs) * time.Second):
		_ = t.Close()
		return nil, ErrHandshakeTimeout
	}
	return c, nil
}

// reactor is the sole reader of t; it feeds every frame to the handler
// until the transport closes or the handler declares the session dead.
func (c *Client) reactor() {
	first := true
	for {
		frame, err := c.t.NextFrame()
		if err != nil {
			return
		}

		herr := c.h.HandleFrame(frame)
		if first {
			first = false
			c.signalReady(herr)
		}
		if herr != nil {
			_ = c.t.Close()
			return
		}
	}
}

func (c *Client) signalReady(err error) {
	c.readyOnce.Do(func() { c.ready <- err })
}

// handleDisconnect runs exactly once, whichever goroutine first observes
// the transport closing, and unblocks every outstanding tracked request,
// mirroring sesImpl.closeChannels.
func (c *Client) handleDisconnect(err error) {
	c.q.Reset(err)
	c.signalReady(err)
	if c.trace != nil && c.trace.ConnectionClosed != nil {
		c.trace.ConnectionClosed(err)
	}
}

// Close disconnects the session. Safe to call more than once.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() { err = c.t.Close() })
	return err
}

// StepOver issues NEXT.
func (c *Client) StepOver() error {
	c.reqLock.Lock()
	defer c.reqLock.Unlock()
	return c.h.StepOver()
}

// StepInto issues STEP.
func (c *Client) StepInto() error {
	c.reqLock.Lock()
	defer c.reqLock.Unlock()
	return c.h.StepInto()
}

// StepOut issues FINISH.
func (c *Client) StepOut() error {
	c.reqLock.Lock()
	defer c.reqLock.Unlock()
	return c.h.StepOut()
}

// Resume issues CONTINUE.
func (c *Client) Resume() error {
	c.reqLock.Lock()
	defer c.reqLock.Unlock()
	return c.h.Resume()
}

// Pause requests a break at the engine's next opportunity.
func (c *Client) Pause() error {
	c.reqLock.Lock()
	defer c.reqLock.Unlock()
	return c.h.Pause()
}

// Evaluate submits expression for evaluation at the halted frame identified
// by scopeChainIndex and blocks for the result.
func (c *Client) Evaluate(expression string, scopeChainIndex uint32) (protocol.EvalResult, error) {
	c.reqLock.Lock()
	defer c.reqLock.Unlock()
	return c.h.Evaluate(expression, scopeChainIndex)
}

// SendClientSource uploads a program while the engine is waiting for one.
func (c *Client) SendClientSource(name, source string) error {
	c.reqLock.Lock()
	defer c.reqLock.Unlock()
	return c.h.SendClientSource(name, source)
}

// SendClientSourceControl sends NO_MORE_SOURCES or CONTEXT_RESET while the
// engine is waiting for a source upload.
func (c *Client) SendClientSourceControl(code wire.Tag) error {
	c.reqLock.Lock()
	defer c.reqLock.Unlock()
	return c.h.SendClientSourceControl(code)
}

// Restart aborts the currently running program back to its start.
func (c *Client) Restart() error {
	c.reqLock.Lock()
	defer c.reqLock.Unlock()
	return c.h.Restart()
}

// UpdateBreakpoint enables or disables bp.
func (c *Client) UpdateBreakpoint(bp *breakpoints.Breakpoint, enable bool) error {
	c.reqLock.Lock()
	defer c.reqLock.Unlock()
	return c.h.UpdateBreakpoint(bp, enable)
}

// RequestBacktrace asks the engine for a full backtrace and blocks for it.
func (c *Client) RequestBacktrace() ([]BacktraceFrame, error) {
	c.reqLock.Lock()
	defer c.reqLock.Unlock()
	return c.h.RequestBacktrace()
}

// FindBreakpoint resolves (scriptID, line) to a breakpoint, for building a
// front-end breakpoint request before calling UpdateBreakpoint.
func (c *Client) FindBreakpoint(scriptID, line uint32) (*breakpoints.Breakpoint, error) {
	return c.table.FindBreakpoint(scriptID, line)
}

// GetScript looks up a previously-parsed script by id.
func (c *Client) GetScript(id uint32) (*breakpoints.Script, error) {
	return c.table.GetScript(id)
}
