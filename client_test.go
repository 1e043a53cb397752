package iec104

import (
	"bytes"
	"context"
	"testing"
	"time"
)

// newActiveClient dials outstation through a Client and drives the STARTDT
// handshake to completion.
func newActiveClient(t *testing.T, params ConnectionParameters) (*Client, *testOutstation) {
	t.Helper()
	outstation := newTestOutstation(t)
	params.Autostart = true
	client, err := NewClient(outstation.Addr(), params)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if err := client.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	outstation.NextFrame(time.Second) // STARTDT_ACT
	outstation.SendUFrame(UFrameFunctionStartDTC)
	waitForState(t, client.Connection(), StateActive, time.Second)
	return client, outstation
}

// wireBody reads one frame off outstation and returns its ASDU bytes.
func wireBody(t *testing.T, outstation *testOutstation) []byte {
	t.Helper()
	frame := outstation.NextFrame(time.Second)
	return frame[6:]
}

func TestClientSendInterrogationWireBytes(t *testing.T) {
	params := testParams()
	client, outstation := newActiveClient(t, params)
	defer client.Close()
	defer outstation.Close()

	if err := client.SendInterrogation(CotAct, 1); err != nil {
		t.Fatalf("SendInterrogation: %v", err)
	}
	want := NewASDU(params, Identifier{TypeID: CIcNa1, COT: CotAct, CommonAddr: 1})
	want.AddObject(0, (&InterrogationInfo{Qualifier: QOIStation}).encode())
	if got := wireBody(t, outstation); !bytes.Equal(got, want.Encode()) {
		t.Fatalf("body = % X, want % X", got, want.Encode())
	}
}

func TestClientSendCounterInterrogationWireBytes(t *testing.T) {
	params := testParams()
	client, outstation := newActiveClient(t, params)
	defer client.Close()
	defer outstation.Close()

	qualifier := NewQCC(3, CounterFreezeWithReset)
	if err := client.SendCounterInterrogation(CotAct, 1, qualifier); err != nil {
		t.Fatalf("SendCounterInterrogation: %v", err)
	}
	want := NewASDU(params, Identifier{TypeID: CCiNa1, COT: CotAct, CommonAddr: 1})
	want.AddObject(0, (&CounterInterrogationInfo{Qualifier: qualifier}).encode())
	if got := wireBody(t, outstation); !bytes.Equal(got, want.Encode()) {
		t.Fatalf("body = % X, want % X", got, want.Encode())
	}
}

func TestClientSendReadWireBytes(t *testing.T) {
	params := testParams()
	client, outstation := newActiveClient(t, params)
	defer client.Close()
	defer outstation.Close()

	if err := client.SendRead(1, 42); err != nil {
		t.Fatalf("SendRead: %v", err)
	}
	want := NewASDU(params, Identifier{TypeID: CRdNa1, COT: CotReq, CommonAddr: 1})
	want.AddObject(42, nil)
	if got := wireBody(t, outstation); !bytes.Equal(got, want.Encode()) {
		t.Fatalf("body = % X, want % X", got, want.Encode())
	}
}

func TestClientSendClockSyncWireBytes(t *testing.T) {
	params := testParams()
	client, outstation := newActiveClient(t, params)
	defer client.Close()
	defer outstation.Close()

	tag := CP56Time2a{Millisecond: 500, Minute: 12, Hour: 9, Day: 3, DayOfWeek: 5, Month: 8, Year: 26}
	if err := client.SendClockSync(1, tag); err != nil {
		t.Fatalf("SendClockSync: %v", err)
	}
	want := NewASDU(params, Identifier{TypeID: CCsNa1, COT: CotAct, CommonAddr: 1})
	want.AddObject(0, (&ClockSyncInfo{Time: tag}).encode())
	if got := wireBody(t, outstation); !bytes.Equal(got, want.Encode()) {
		t.Fatalf("body = % X, want % X", got, want.Encode())
	}
}

func TestClientSendTestCommandWireBytes(t *testing.T) {
	params := testParams()
	client, outstation := newActiveClient(t, params)
	defer client.Close()
	defer outstation.Close()

	if err := client.SendTestCommand(1); err != nil {
		t.Fatalf("SendTestCommand: %v", err)
	}
	want := NewASDU(params, Identifier{TypeID: CTsNa1, COT: CotAct, CommonAddr: 1})
	want.AddObject(0, NewTestCommandInfo(CTsNa1, nil).encode(CTsNa1))
	if got := wireBody(t, outstation); !bytes.Equal(got, want.Encode()) {
		t.Fatalf("body = % X, want % X", got, want.Encode())
	}
}

func TestClientSendResetProcessWireBytes(t *testing.T) {
	params := testParams()
	client, outstation := newActiveClient(t, params)
	defer client.Close()
	defer outstation.Close()

	if err := client.SendResetProcess(CotAct, 1, QRPGeneralReset); err != nil {
		t.Fatalf("SendResetProcess: %v", err)
	}
	want := NewASDU(params, Identifier{TypeID: CRpNc1, COT: CotAct, CommonAddr: 1})
	want.AddObject(0, (&ResetProcessInfo{Qualifier: QRPGeneralReset}).encode())
	if got := wireBody(t, outstation); !bytes.Equal(got, want.Encode()) {
		t.Fatalf("body = % X, want % X", got, want.Encode())
	}
}

func TestClientSendDelayAcquisitionWireBytes(t *testing.T) {
	params := testParams()
	client, outstation := newActiveClient(t, params)
	defer client.Close()
	defer outstation.Close()

	delay := ParseCP16Time2a([]byte{0xE8, 0x03}) // 1000ms
	if err := client.SendDelayAcquisition(CotAct, 1, delay); err != nil {
		t.Fatalf("SendDelayAcquisition: %v", err)
	}
	want := NewASDU(params, Identifier{TypeID: CCdNa1, COT: CotAct, CommonAddr: 1})
	want.AddObject(0, (&DelayAcquisitionInfo{Delay: delay}).encode())
	if got := wireBody(t, outstation); !bytes.Equal(got, want.Encode()) {
		t.Fatalf("body = % X, want % X", got, want.Encode())
	}
}

func TestClientSendControlSingleCommandWireBytes(t *testing.T) {
	params := testParams()
	client, outstation := newActiveClient(t, params)
	defer client.Close()
	defer outstation.Close()

	info := &SingleCommandInfo{Value: true, Qualify: NewQOC(0x08, false)}
	if err := client.SendControl(CScNa1, CotAct, 1, 7, info); err != nil {
		t.Fatalf("SendControl: %v", err)
	}
	want := NewASDU(params, Identifier{TypeID: CScNa1, COT: CotAct, CommonAddr: 1})
	want.AddObject(7, info.encode(CScNa1))
	if got := wireBody(t, outstation); !bytes.Equal(got, want.Encode()) {
		t.Fatalf("body = % X, want % X", got, want.Encode())
	}
}

func TestClientSendControlTimeTaggedVariant(t *testing.T) {
	params := testParams()
	client, outstation := newActiveClient(t, params)
	defer client.Close()
	defer outstation.Close()

	tag := CP56Time2a{Millisecond: 250, Minute: 1, Hour: 0, Day: 1, DayOfWeek: 1, Month: 1, Year: 26}
	info := &SingleCommandInfo{Value: false, Qualify: NewQOC(0x08, false), Tag56: &tag}
	if err := client.SendControl(CScTa1, CotAct, 1, 7, info); err != nil {
		t.Fatalf("SendControl: %v", err)
	}
	want := NewASDU(params, Identifier{TypeID: CScTa1, COT: CotAct, CommonAddr: 1})
	want.AddObject(7, info.encode(CScTa1))
	if got := wireBody(t, outstation); !bytes.Equal(got, want.Encode()) {
		t.Fatalf("body = % X, want % X", got, want.Encode())
	}
}

// TestClientSendControlFamilyMismatch checks that pairing a command's Go
// type with a wire variant belonging to another family fails locally
// without sending anything.
func TestClientSendControlFamilyMismatch(t *testing.T) {
	params := testParams()
	client, outstation := newActiveClient(t, params)
	defer client.Close()
	defer outstation.Close()

	info := &SingleCommandInfo{Value: true, Qualify: NewQOC(0x08, false)}
	err := client.SendControl(CDcNa1, CotAct, 1, 7, info)
	if err == nil {
		t.Fatal("expected a type mismatch error")
	}
	mismatch, ok := err.(*TypeMismatchError)
	if !ok {
		t.Fatalf("got %T, want *TypeMismatchError", err)
	}
	if mismatch.Want != CDcNa1 || mismatch.Got != CScNa1 {
		t.Fatalf("got %+v, want Want=CDcNa1 Got=CScNa1", mismatch)
	}

	select {
	case <-outstation.frames:
		t.Fatal("SendControl sent a frame despite the type mismatch")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestClientIsConnectedAndState(t *testing.T) {
	params := testParams()
	client, outstation := newActiveClient(t, params)
	defer client.Close()
	defer outstation.Close()

	if !client.IsConnected() {
		t.Fatal("IsConnected = false, want true once ACTIVE")
	}
	if client.State() != StateActive {
		t.Fatalf("State = %v, want ACTIVE", client.State())
	}
}
