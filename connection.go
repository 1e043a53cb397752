package iec104

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"syscall"
	"time"
)

// State is the lifecycle state of the APCI link engine (spec §4.4).
type State int

const (
	StateIdle State = iota
	StateConnecting
	StateUnconfirmedOpen
	StateActive
	StateClosing
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateConnecting:
		return "CONNECTING"
	case StateUnconfirmedOpen:
		return "UNCONFIRMED_OPEN"
	case StateActive:
		return "ACTIVE"
	case StateClosing:
		return "CLOSING"
	default:
		return "UNKNOWN"
	}
}

// Event is a lifecycle notification delivered to the user's event handler.
type Event int

const (
	EventOpened Event = iota
	EventStartDTConfirmed
	EventStopDTConfirmed
	EventClosed
)

func (e Event) String() string {
	switch e {
	case EventOpened:
		return "OPENED"
	case EventStartDTConfirmed:
		return "STARTDT_CON_RECEIVED"
	case EventStopDTConfirmed:
		return "STOPDT_CON_RECEIVED"
	case EventClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

// pendingAck records one outbound I-frame awaiting acknowledgement.
type pendingAck struct {
	seq    uint16
	sentAt time.Time
}

// ASDUHandler receives every decoded ASDU delivered on the receive task.
// Implementations must not block for long and must not call Close on the
// same connection; they may call any send* method.
type ASDUHandler func(conn *Connection, asdu *ASDU)

// EventHandler receives lifecycle events: OPENED on the goroutine that
// called Connect, all others on the receive task.
type EventHandler func(conn *Connection, ev Event)

/*
Connection is the APCI link engine (spec §4.4): it owns one TCP endpoint,
the send/receive sequence counters, the U-frame handshake, the S-frame
acknowledgement cadence, the I-frame pipeline and its flow-control
back-pressure, and the t0..t3 timers. A Connection is used once per
connect cycle; Close releases the socket and the instance is not reused.
*/
type Connection struct {
	addr   string
	params ConnectionParameters
	tlsCfg *tls.Config

	onASDU  ASDUHandler
	onEvent EventHandler

	mu    sync.Mutex
	cond  *sync.Cond
	state State

	conn net.Conn

	sendCount           uint16
	receiveCount        uint16
	unconfirmedReceived int
	lastAckTime         time.Time
	pendingAcks         []pendingAck

	testFrOutstanding bool

	t1 *time.Timer
	t2 *time.Timer
	t3 *time.Timer

	writeCh chan []byte
	closed  chan struct{}
	closeOnce sync.Once
}

// NewConnection returns a Connection targeting addr (host:port), not yet
// dialed. params is validated and defaulted in place.
func NewConnection(addr string, params ConnectionParameters, opts ...ConnectionOption) (*Connection, error) {
	if err := params.Valid(); err != nil {
		return nil, err
	}
	c := &Connection{
		addr:    addr,
		params:  params,
		writeCh: make(chan []byte, 64),
		closed:  make(chan struct{}),
	}
	c.cond = sync.NewCond(&c.mu)
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ConnectionOption configures a Connection at construction time.
type ConnectionOption func(*Connection)

// WithTLS enables TLS for the TCP dial.
func WithTLS(cfg *tls.Config) ConnectionOption {
	return func(c *Connection) { c.tlsCfg = cfg }
}

// WithASDUHandler registers the callback invoked for every decoded ASDU.
func WithASDUHandler(h ASDUHandler) ConnectionOption {
	return func(c *Connection) { c.onASDU = h }
}

// WithEventHandler registers the callback invoked for lifecycle events.
func WithEventHandler(h EventHandler) ConnectionOption {
	return func(c *Connection) { c.onEvent = h }
}

// State returns the current lifecycle state.
func (c *Connection) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// IsActive reports whether the link is in ACTIVE state.
func (c *Connection) IsActive() bool {
	return c.State() == StateActive
}

// Connect dials the TCP endpoint, honoring T0 as the connect deadline,
// and blocks until the state leaves CONNECTING (spec §5's suspension
// point): either UNCONFIRMED_OPEN on success or IDLE on failure.
func (c *Connection) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateIdle {
		st := c.state
		c.mu.Unlock()
		if st == StateConnecting {
			return ErrAlreadyConnecting
		}
		return ErrAlreadyConnected
	}
	c.state = StateConnecting
	c.mu.Unlock()

	dialer := net.Dialer{Timeout: c.params.T0}
	var conn net.Conn
	var err error
	if c.tlsCfg != nil {
		conn, err = tls.DialWithDialer(&dialer, "tcp", c.addr, c.tlsCfg)
	} else {
		conn, err = dialer.DialContext(ctx, "tcp", c.addr)
	}
	if err != nil {
		c.mu.Lock()
		c.state = StateIdle
		c.mu.Unlock()
		kind := "unreachable"
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			kind = "timeout"
		} else if errors.Is(err, syscall.ECONNREFUSED) {
			kind = "refused"
		}
		return &ConnectError{Kind: kind, Err: err}
	}

	c.mu.Lock()
	c.conn = conn
	c.state = StateUnconfirmedOpen
	c.lastAckTime = time.Now()
	c.mu.Unlock()

	go c.writeLoop()
	go c.recvLoop()
	c.armT3()
	c.raiseEvent(EventOpened)

	if c.params.Autostart {
		if err := c.sendUFrame(UFrameFunctionStartDTA); err != nil {
			return err
		}
		c.armT1ForUFrame()
	}
	return nil
}

// raiseEvent invokes the event handler, if any, synchronously on the
// caller's goroutine.
func (c *Connection) raiseEvent(ev Event) {
	if c.onEvent != nil {
		c.onEvent(c, ev)
	}
}

// SendStartDT requests data transfer start; legal in UNCONFIRMED_OPEN.
// Autostart connections send this automatically and callers need not.
func (c *Connection) SendStartDT() error {
	c.mu.Lock()
	st := c.state
	c.mu.Unlock()
	if st != StateUnconfirmedOpen {
		return ErrNotConnected
	}
	if err := c.sendUFrame(UFrameFunctionStartDTA); err != nil {
		return err
	}
	c.armT1ForUFrame()
	return nil
}

// SendStopDT requests data transfer stop; legal in ACTIVE.
func (c *Connection) SendStopDT() error {
	c.mu.Lock()
	st := c.state
	c.mu.Unlock()
	if st != StateActive {
		return ErrNotConnected
	}
	if err := c.sendUFrame(UFrameFunctionStopDTA); err != nil {
		return err
	}
	c.armT1ForUFrame()
	return nil
}

// Send transmits asdu as an I-frame. Legal only in ACTIVE. Blocks while
// K unacknowledged I-frames are already in flight, until the peer
// acknowledges at least one or t1 fires.
func (c *Connection) Send(asdu *ASDU) error {
	c.mu.Lock()
	for {
		if c.state == StateClosing || c.state == StateIdle {
			c.mu.Unlock()
			return ErrNotConnected
		}
		if c.state != StateActive {
			c.mu.Unlock()
			return ErrNotConnected
		}
		if uint16(len(c.pendingAcks)) < c.params.K {
			break
		}
		c.cond.Wait()
	}

	frame := newOutboundFrame()
	frame.AppendBytes(asdu.Encode())
	seq := c.sendCount
	if err := frame.PrepareToSend(c.sendCount, c.receiveCount); err != nil {
		c.mu.Unlock()
		return err
	}
	c.sendCount = (c.sendCount + 1) % 0x8000
	c.pendingAcks = append(c.pendingAcks, pendingAck{seq: seq, sentAt: time.Now()})
	c.armT1Locked()
	c.mu.Unlock()

	c.armT3()
	return c.write(frame.Buffer())
}

// sendUFrame writes a U-frame directly to the socket.
func (c *Connection) sendUFrame(fn UFrameFunction) error {
	frame := newOutboundFrame()
	if err := frame.PrepareUFrame(fn); err != nil {
		return err
	}
	c.armT3()
	return c.write(frame.Buffer())
}

// sendSFrame acknowledges receiveCount with a bare S-frame.
func (c *Connection) sendSFrame() error {
	c.mu.Lock()
	recv := c.receiveCount
	c.mu.Unlock()
	frame := newOutboundFrame()
	if err := frame.PrepareSFrame(recv); err != nil {
		return err
	}
	c.armT3()
	return c.write(frame.Buffer())
}

// write hands frame bytes to the write pump; it never blocks on the
// socket itself from the caller's goroutine.
func (c *Connection) write(b []byte) error {
	select {
	case c.writeCh <- b:
		return nil
	case <-c.closed:
		return ErrClosed
	}
}

func (c *Connection) writeLoop() {
	for {
		select {
		case b := <-c.writeCh:
			if _, err := c.conn.Write(b); err != nil {
				_lg.WithError(err).Warn("iec104: write failed")
				c.fail(&FramingError{Reason: "socket write failed"})
				return
			}
			if c.params.DebugTrace {
				_lg.Debugf("iec104: sent [% X]", b)
			}
		case <-c.closed:
			return
		}
	}
}

// recvLoop is the re-entrant framing loop (spec §4.4 Receive, §9's
// partial-read fix): it reads exactly the start+length octets, then
// exactly length more, looping with io.ReadFull so a slow link cannot
// under-read a frame.
func (c *Connection) recvLoop() {
	defer c.teardown()

	header := make([]byte, 2)
	for {
		if _, err := io.ReadFull(c.conn, header); err != nil {
			return
		}
		if header[0] != startByte {
			c.fail(&FramingError{Reason: fmt.Sprintf("bad start octet 0x%02x", header[0])})
			return
		}
		length := int(header[1])
		if length > maxFrameLength {
			c.fail(&FramingError{Reason: fmt.Sprintf("apdu length %d exceeds maximum %d", length, maxFrameLength)})
			return
		}
		body := make([]byte, length)
		if length > 0 {
			if _, err := io.ReadFull(c.conn, body); err != nil {
				return
			}
		}
		if c.params.DebugTrace {
			_lg.Debugf("iec104: recv [% X % X]", header, body)
		}
		c.armT3()
		if err := c.handleAPDU(body); err != nil {
			c.fail(err)
			return
		}
	}
}

func (c *Connection) handleAPDU(body []byte) error {
	apdu, err := ParseAPDU(c.params, body)
	if err != nil {
		var pe *ASDUParsingError
		if !errors.As(err, &pe) {
			return err
		}
		// The I-frame's APCI decoded but its ASDU did not: count and
		// acknowledge the frame so the link stays open, without
		// delivering the ASDU.
		_lg.WithError(err).Warn("iec104: dropping unparsable asdu")
		f, ferr := (&APCI{}).Parse(body[:4])
		if ferr != nil {
			return ferr
		}
		return c.handleIFrame(f.(*IFrame), nil)
	}
	switch f := apdu.Frame.(type) {
	case *IFrame:
		return c.handleIFrame(f, apdu.ASDU)
	case *SFrame:
		c.handleSFrame(f)
		return nil
	case *UFrame:
		return c.handleUFrame(f)
	default:
		return &FramingError{Reason: "unrecognized frame kind"}
	}
}

func (c *Connection) handleIFrame(f *IFrame, asdu *ASDU) error {
	c.mu.Lock()
	if c.state != StateActive {
		c.mu.Unlock()
		return &FramingError{Reason: "i-frame received outside active state"}
	}
	c.receiveCount = (f.SendSN + 1) % 0x8000
	c.unconfirmedReceived++
	c.ackOutstanding(f.RecvSN)
	needAck := c.unconfirmedReceived >= int(c.params.W) || time.Since(c.lastAckTime) >= c.params.T2
	c.mu.Unlock()

	if c.onASDU != nil && asdu != nil {
		c.onASDU(c, asdu)
	}
	if asdu != nil && asdu.TypeID == CTsTa1 {
		if err := c.autoReplyTestCommand(asdu); err != nil {
			return err
		}
	}
	if needAck {
		if err := c.sendSFrame(); err != nil {
			return err
		}
		c.mu.Lock()
		c.unconfirmedReceived = 0
		c.lastAckTime = time.Now()
		c.disarmT2()
		c.mu.Unlock()
	} else {
		c.armT2()
	}
	return nil
}

// autoReplyTestCommand mirrors a received time-tagged test command
// (CTsTa1) back to the peer: the link engine acknowledges it directly
// instead of leaving that to the user callback, which still runs and may
// still call Element(i) on the same ASDU.
func (c *Connection) autoReplyTestCommand(asdu *ASDU) error {
	obj, err := asdu.Element(0)
	if err != nil {
		return nil
	}
	info, ok := obj.(*TestCommandInfo)
	if !ok {
		return nil
	}
	reply := NewASDU(c.params, Identifier{
		TypeID:     CTsTa1,
		COT:        CotActCon,
		CommonAddr: asdu.CommonAddr,
	})
	reply.AddObject(info.Ioa, info.encode(CTsTa1))
	return c.Send(reply)
}

func (c *Connection) handleSFrame(f *SFrame) {
	c.mu.Lock()
	c.ackOutstanding(f.RecvSN)
	c.mu.Unlock()
}

// ackOutstanding drops every pendingAck with seq <= recvSN (mod-15-bit
// comparison) and wakes any Send blocked on the K limit. Caller holds mu.
func (c *Connection) ackOutstanding(recvSN uint16) {
	kept := c.pendingAcks[:0]
	for _, p := range c.pendingAcks {
		if seqLessEqual(p.seq, recvSN) {
			continue
		}
		kept = append(kept, p)
	}
	c.pendingAcks = kept
	if len(c.pendingAcks) == 0 {
		c.disarmT1()
	} else {
		c.armT1Locked()
	}
	c.cond.Broadcast()
}

// seqLessEqual compares two 15-bit modular sequence numbers, a <= b,
// treating wraparound as "less than" per spec's "≤ that count" rule.
func seqLessEqual(a, b uint16) bool {
	diff := (b - a) & 0x7fff
	return diff < 0x4000
}

func (c *Connection) handleUFrame(f *UFrame) error {
	switch f.Cmd[0] {
	case UFrameFunctionStartDTA[0]:
		return c.sendUFrame(UFrameFunctionStartDTC)
	case UFrameFunctionStartDTC[0]:
		c.mu.Lock()
		c.state = StateActive
		c.disarmT1()
		c.mu.Unlock()
		c.raiseEvent(EventStartDTConfirmed)
		return nil
	case UFrameFunctionStopDTA[0]:
		c.mu.Lock()
		c.pendingAcks = nil
		c.disarmT1()
		c.cond.Broadcast()
		c.mu.Unlock()
		return c.sendUFrame(UFrameFunctionStopDTC)
	case UFrameFunctionStopDTC[0]:
		c.mu.Lock()
		c.state = StateUnconfirmedOpen
		c.disarmT1()
		c.mu.Unlock()
		c.raiseEvent(EventStopDTConfirmed)
		return nil
	case UFrameFunctionTestFA[0]:
		return c.sendUFrame(UFrameFunctionTestFC)
	case UFrameFunctionTestFC[0]:
		c.mu.Lock()
		c.testFrOutstanding = false
		c.disarmT1()
		c.mu.Unlock()
		return nil
	default:
		return &FramingError{Reason: fmt.Sprintf("bad u-frame bit pattern 0x%02x", f.Cmd[0])}
	}
}

// fail transitions the link to CLOSING and begins teardown; it is safe
// to call from either the receive or write goroutine.
func (c *Connection) fail(err error) {
	if err != nil {
		_lg.WithError(err).Warn("iec104: link failure")
	}
	c.mu.Lock()
	c.state = StateClosing
	c.mu.Unlock()
	_ = c.conn.Close()
}

// Close shuts down both socket halves and blocks until the receive task
// observes the half-closed socket and the connection reaches IDLE.
func (c *Connection) Close() error {
	c.mu.Lock()
	if c.state == StateIdle {
		c.mu.Unlock()
		return nil
	}
	c.state = StateClosing
	c.mu.Unlock()
	if c.conn != nil {
		_ = c.conn.Close()
	}
	<-c.closed
	return nil
}

// teardown runs once, on the receive task, after the socket closes for
// any reason: it stops timers, releases the write pump, wakes blocked
// senders, and publishes CLOSED.
func (c *Connection) teardown() {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.state = StateIdle
		c.stopAllTimers()
		c.pendingAcks = nil
		c.cond.Broadcast()
		c.mu.Unlock()
		close(c.closed)
		c.raiseEvent(EventClosed)
	})
}
