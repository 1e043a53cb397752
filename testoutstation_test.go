package iec104

import (
	"io"
	"net"
	"testing"
	"time"
)

/*
testOutstation is a minimal in-process controlled-station double used by
connection_test.go and client_test.go to drive the literal wire-byte
scenarios of spec.md §8 without a real substation. It speaks raw APCI
frames only: callers script the exact bytes to send back and assert on
the bytes the link engine under test produces. An outstation (server)
role is an explicit non-goal for the shipped package (spec.md §4.4
Non-goals); this fixture exists only for tests and is never exported
outside _test.go files.

Adapted from the teacher's server.go (NewServer/Serve/listen/Conn), kept
to the same accept-then-serve shape but trimmed to the raw byte
scripting a test needs instead of a real ASDU-handling outstation.
*/
type testOutstation struct {
	t        *testing.T
	listener net.Listener
	conn     net.Conn
	frames   chan []byte
}

// newTestOutstation starts listening on an ephemeral localhost port and
// begins accepting in the background.
func newTestOutstation(t *testing.T) *testOutstation {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("test outstation: listen: %v", err)
	}
	o := &testOutstation{t: t, listener: ln, frames: make(chan []byte, 16)}
	go o.acceptAndRead()
	return o
}

// Addr returns the host:port a Connection/Client under test should dial.
func (o *testOutstation) Addr() string {
	return o.listener.Addr().String()
}

func (o *testOutstation) acceptAndRead() {
	conn, err := o.listener.Accept()
	if err != nil {
		close(o.frames)
		return
	}
	o.conn = conn
	header := make([]byte, 2)
	for {
		if _, err := io.ReadFull(conn, header); err != nil {
			close(o.frames)
			return
		}
		length := int(header[1])
		body := make([]byte, length)
		if length > 0 {
			if _, err := io.ReadFull(conn, body); err != nil {
				close(o.frames)
				return
			}
		}
		full := append(append([]byte{}, header...), body...)
		o.frames <- full
	}
}

// NextFrame blocks until the client sends one complete frame (start
// byte, length octet and body), or fails the test after timeout.
func (o *testOutstation) NextFrame(timeout time.Duration) []byte {
	o.t.Helper()
	select {
	case f, ok := <-o.frames:
		if !ok {
			o.t.Fatalf("test outstation: connection closed before a frame arrived")
		}
		return f
	case <-time.After(timeout):
		o.t.Fatalf("test outstation: timed out waiting for a frame")
		return nil
	}
}

func (o *testOutstation) waitForConn(timeout time.Duration) {
	o.t.Helper()
	deadline := time.Now().Add(timeout)
	for o.conn == nil {
		if time.Now().After(deadline) {
			o.t.Fatalf("test outstation: no client connected")
		}
		time.Sleep(time.Millisecond)
	}
}

// Send writes raw bytes to the client: a literal scenario frame, or
// anything a test wants to script byte-for-byte.
func (o *testOutstation) Send(b []byte) {
	o.t.Helper()
	o.waitForConn(time.Second)
	if _, err := o.conn.Write(b); err != nil {
		o.t.Fatalf("test outstation: write: %v", err)
	}
}

// SendUFrame writes a bare U-frame with the given function bits.
func (o *testOutstation) SendUFrame(fn UFrameFunction) {
	o.t.Helper()
	f := newOutboundFrame()
	if err := f.PrepareUFrame(fn); err != nil {
		o.t.Fatalf("test outstation: prepare u-frame: %v", err)
	}
	o.Send(f.Buffer())
}

// SendSFrame writes a bare S-frame acknowledging receiveCount.
func (o *testOutstation) SendSFrame(receiveCount uint16) {
	o.t.Helper()
	f := newOutboundFrame()
	if err := f.PrepareSFrame(receiveCount); err != nil {
		o.t.Fatalf("test outstation: prepare s-frame: %v", err)
	}
	o.Send(f.Buffer())
}

// SendIFrame writes an I-frame carrying asdu, stamped with the given
// send/receive counts.
func (o *testOutstation) SendIFrame(sendCount, receiveCount uint16, asdu []byte) {
	o.t.Helper()
	f := newOutboundFrame()
	f.AppendBytes(asdu)
	if err := f.PrepareToSend(sendCount, receiveCount); err != nil {
		o.t.Fatalf("test outstation: prepare i-frame: %v", err)
	}
	o.Send(f.Buffer())
}

// Close shuts down the listener and any accepted connection.
func (o *testOutstation) Close() {
	o.listener.Close()
	if o.conn != nil {
		o.conn.Close()
	}
}
