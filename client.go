package iec104

import "context"

/*
Client is the command facade (spec §4.5): it wraps a Connection and turns
each IEC 60870-5-104 system/control procedure into one exported method
that builds the matching ASDU and hands it to the link engine. Client
does not duplicate the link engine's state machine; every send goes
through Connection.Send, which already rejects anything attempted
outside ACTIVE with ErrNotConnected.

Client in IEC 104 is also called master or controlling station. Server in
IEC 104 is also called slave or controlled station.
*/
type Client struct {
	addr   string
	params ConnectionParameters
	opts   []ConnectionOption
	conn   *Connection
}

// NewClient constructs a Client targeting addr, not yet dialed.
func NewClient(addr string, params ConnectionParameters, opts ...ConnectionOption) (*Client, error) {
	conn, err := NewConnection(addr, params, opts...)
	if err != nil {
		return nil, err
	}
	return &Client{addr: addr, params: params, opts: opts, conn: conn}, nil
}

// Connect dials the server and blocks until the state leaves CONNECTING.
func (c *Client) Connect(ctx context.Context) error {
	return c.conn.Connect(ctx)
}

// Close tears down the link.
func (c *Client) Close() error {
	return c.conn.Close()
}

// IsConnected reports whether the underlying link is ACTIVE.
func (c *Client) IsConnected() bool {
	return c.conn.IsActive()
}

// State returns the underlying link's lifecycle state.
func (c *Client) State() State {
	return c.conn.State()
}

// Connection returns the Client's underlying link engine, for callers
// that need SendStartDT/SendStopDT or direct Send access.
func (c *Client) Connection() *Connection {
	return c.conn
}

// send builds a single-object, SQ=0 ASDU addressed to ca and hands it to
// the link engine.
func (c *Client) send(ca COA, typeID TypeID, cot COT, ioa IOA, payload []byte) error {
	asdu := NewASDU(c.params, Identifier{
		TypeID:     typeID,
		COT:        cot,
		CommonAddr: ca,
	})
	asdu.AddObject(ioa, payload)
	return c.conn.Send(asdu)
}

// SendInterrogation issues an interrogation command (CIcNa1, QOI=20,
// station interrogation) with the given cause of transmission (typically
// ACTIVATION, or DEACTIVATION to cancel an ongoing one).
func (c *Client) SendInterrogation(cot COT, ca COA) error {
	info := &InterrogationInfo{Qualifier: QOIStation}
	return c.send(ca, CIcNa1, cot, 0, info.encode())
}

// SendCounterInterrogation issues a counter interrogation (CCiNa1) with
// the given cause of transmission and freeze/reset qualifier.
func (c *Client) SendCounterInterrogation(cot COT, ca COA, qualifier QCC) error {
	info := &CounterInterrogationInfo{Qualifier: qualifier}
	return c.send(ca, CCiNa1, cot, 0, info.encode())
}

// SendRead issues a read command (CRdNa1) for a single information
// object address, cause of transmission REQUEST.
func (c *Client) SendRead(ca COA, ioa IOA) error {
	return c.send(ca, CRdNa1, CotReq, ioa, nil)
}

// SendClockSync issues a clock synchronization command (CCsNa1) carrying t.
func (c *Client) SendClockSync(ca COA, t CP56Time2a) error {
	info := &ClockSyncInfo{Time: t}
	return c.send(ca, CCsNa1, CotAct, 0, info.encode())
}

// SendTestCommand issues a link test (CTsNa1) with the fixed test
// pattern; the controlled station is expected to mirror it back unchanged.
func (c *Client) SendTestCommand(ca COA) error {
	info := NewTestCommandInfo(CTsNa1, nil)
	return c.send(ca, CTsNa1, CotAct, 0, info.encode(CTsNa1))
}

// SendResetProcess issues a reset-process command (CRpNc1) with the given
// cause of transmission and qualifier.
func (c *Client) SendResetProcess(cot COT, ca COA, qualifier QRP) error {
	info := &ResetProcessInfo{Qualifier: qualifier}
	return c.send(ca, CRpNc1, cot, 0, info.encode())
}

// SendDelayAcquisition issues a delay acquisition command (CCdNa1) with
// the given cause of transmission, carrying the measured transmission delay.
func (c *Client) SendDelayAcquisition(cot COT, ca COA, delay CP16Time2a) error {
	info := &DelayAcquisitionInfo{Delay: delay}
	return c.send(ca, CCdNa1, cot, 0, info.encode())
}

// controlInfo is implemented by every control-direction command and
// setpoint struct in information_control.go.
type controlInfo interface {
	encode(id TypeID) []byte
}

// controlFamily reports whether typeID is a legal wire variant for
// info's Go type, and returns the family's canonical (no-time) TypeID
// for use in a TypeMismatchError.
func controlFamily(typeID TypeID, info controlInfo) (TypeID, bool) {
	switch info.(type) {
	case *SingleCommandInfo:
		return CScNa1, typeID == CScNa1 || typeID == CScTa1
	case *DoubleCommandInfo:
		return CDcNa1, typeID == CDcNa1 || typeID == CDcTa1
	case *StepCommandInfo:
		return CRcNa1, typeID == CRcNa1 || typeID == CRcTa1
	case *SetpointNormalizedInfo:
		return CSeNa1, typeID == CSeNa1 || typeID == CSeTa1
	case *SetpointScaledInfo:
		return CSeNb1, typeID == CSeNb1 || typeID == CSeTb1
	case *SetpointFloatInfo:
		return CSeNc1, typeID == CSeNc1 || typeID == CSeTc1
	case *BitstringCommandInfo:
		return CBoNa1, typeID == CBoNa1 || typeID == CBoTa1
	default:
		return 0, false
	}
}

// SendControl issues a control-direction command or setpoint with the
// given cause of transmission (typically ACTIVATION, or DEACTIVATION to
// cancel one already in progress). typeID selects the no-time or
// CP56Time2a-tagged wire variant; info's Go type must belong to that
// variant's family, or SendControl returns a TypeMismatchError without
// touching the link.
func (c *Client) SendControl(typeID TypeID, cot COT, ca COA, ioa IOA, info controlInfo) error {
	family, ok := controlFamily(typeID, info)
	if !ok {
		return &TypeMismatchError{Want: typeID, Got: family}
	}
	return c.send(ca, typeID, cot, ioa, info.encode(typeID))
}
