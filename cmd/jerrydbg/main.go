// Command jerrydbg is a thin smoke-test harness for dbgclient: it connects
// to a JerryScript engine's debugger endpoint, logs every event via
// dbgclient.DiagnosticLoggingHooks, and issues a resume on every
// breakpoint hit until the engine disconnects.
package main

import (
	"context"
	"flag"
	"log"

	"github.com/imdario/mergo"

	"github.com/jerryscript-client/dbg/breakpoints"
	"github.com/jerryscript-client/dbg/dbgclient"
)

func main() {
	url := flag.String("ws", "", "debugger WebSocket URL, e.g. ws://127.0.0.1:5001/jerry-debugger")
	serial := flag.String("serial", "", "serial config, e.g. /dev/ttyUSB0,115200,8,N,1")
	flag.Parse()

	if (*url == "") == (*serial == "") {
		log.Fatal("exactly one of -ws or -serial must be given")
	}

	var c *dbgclient.Client
	trace := &dbgclient.Trace{
		OnBreakpointHit: func(bp *breakpoints.Breakpoint, exact bool, label string) {
			dbgclient.DiagnosticLoggingHooks.OnBreakpointHit(bp, exact, label)
			if err := c.Resume(); err != nil {
				log.Printf("jerrydbg-AutoResume failed: %v", err)
			}
		},
	}
	_ = mergo.Merge(trace, dbgclient.DiagnosticLoggingHooks)

	var err error
	if *url != "" {
		c, err = dbgclient.DialWebSocket(context.Background(), *url, trace)
	} else {
		c, err = dbgclient.DialSerial(*serial, trace)
	}
	if err != nil {
		log.Fatalf("connect: %v", err)
	}
	defer c.Close()

	log.Print("connected; auto-resuming on every breakpoint hit (ctrl-C to quit)")
	select {}
}
