package iec104

import "testing"

func TestAPCIParseIFrame(t *testing.T) {
	f := newOutboundFrame()
	if err := f.PrepareToSend(3, 5); err != nil {
		t.Fatalf("PrepareToSend: %v", err)
	}
	apci := &APCI{}
	frame, err := apci.Parse(f.Buffer()[2:6])
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if frame.Type() != FrameTypeI {
		t.Fatalf("type = %v, want FrameTypeI", frame.Type())
	}
	i := frame.(*IFrame)
	if i.SendSN != 3 || i.RecvSN != 5 {
		t.Errorf("got SendSN=%d RecvSN=%d, want 3/5", i.SendSN, i.RecvSN)
	}
}

func TestAPCIParseSFrame(t *testing.T) {
	f := newOutboundFrame()
	if err := f.PrepareSFrame(9); err != nil {
		t.Fatalf("PrepareSFrame: %v", err)
	}
	apci := &APCI{}
	frame, err := apci.Parse(f.Buffer()[2:6])
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if frame.Type() != FrameTypeS {
		t.Fatalf("type = %v, want FrameTypeS", frame.Type())
	}
	if frame.(*SFrame).RecvSN != 9 {
		t.Errorf("got RecvSN=%d, want 9", frame.(*SFrame).RecvSN)
	}
}

func TestAPCIParseUFrame(t *testing.T) {
	tests := []struct {
		name string
		fn   UFrameFunction
	}{
		{"StartDTA", UFrameFunctionStartDTA},
		{"StartDTC", UFrameFunctionStartDTC},
		{"StopDTA", UFrameFunctionStopDTA},
		{"StopDTC", UFrameFunctionStopDTC},
		{"TestFA", UFrameFunctionTestFA},
		{"TestFC", UFrameFunctionTestFC},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newOutboundFrame()
			if err := f.PrepareUFrame(tt.fn); err != nil {
				t.Fatalf("PrepareUFrame: %v", err)
			}
			apci := &APCI{}
			frame, err := apci.Parse(f.Buffer()[2:6])
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			if frame.Type() != FrameTypeU {
				t.Fatalf("type = %v, want FrameTypeU", frame.Type())
			}
			if frame.(*UFrame).Cmd != tt.fn {
				t.Errorf("got %+v, want %+v", frame.(*UFrame).Cmd, tt.fn)
			}
		})
	}
}

func TestAPCIParseUFrameBadBitPattern(t *testing.T) {
	apci := &APCI{}
	_, err := apci.Parse([]byte{0x33, 0x00, 0x00, 0x00})
	if err == nil {
		t.Fatal("expected error for a u-frame control byte matching no known function")
	}
}

func TestAPCIParseShortControlField(t *testing.T) {
	apci := &APCI{}
	if _, err := apci.Parse([]byte{0x00, 0x00, 0x00}); err == nil {
		t.Fatal("expected error for a control field shorter than 4 octets")
	}
}

func TestAPDUParseIFrameCarriesASDU(t *testing.T) {
	params := testParams()
	a := NewASDU(params, Identifier{TypeID: MSpNa1, COT: CotSpt, CommonAddr: 1})
	a.AddObject(1, (&SinglePointInfo{Value: true, Quality: QDSOK}).encode(MSpNa1))

	f := newOutboundFrame()
	f.AppendBytes(a.Encode())
	if err := f.PrepareToSend(0, 0); err != nil {
		t.Fatalf("PrepareToSend: %v", err)
	}

	apdu, err := ParseAPDU(params, f.Buffer()[2:])
	if err != nil {
		t.Fatalf("ParseAPDU: %v", err)
	}
	if apdu.Frame.Type() != FrameTypeI {
		t.Fatalf("frame type = %v, want FrameTypeI", apdu.Frame.Type())
	}
	if apdu.ASDU == nil || apdu.ASDU.TypeID != MSpNa1 {
		t.Fatalf("got ASDU %+v", apdu.ASDU)
	}
}

func TestAPDUParseUFrameCarriesNoASDU(t *testing.T) {
	params := testParams()
	f := newOutboundFrame()
	if err := f.PrepareUFrame(UFrameFunctionStartDTA); err != nil {
		t.Fatalf("PrepareUFrame: %v", err)
	}
	apdu, err := ParseAPDU(params, f.Buffer()[2:])
	if err != nil {
		t.Fatalf("ParseAPDU: %v", err)
	}
	if apdu.ASDU != nil {
		t.Fatalf("u-frame apdu should carry no ASDU, got %+v", apdu.ASDU)
	}
}

func TestAPDUParseTooShort(t *testing.T) {
	params := testParams()
	if _, err := ParseAPDU(params, []byte{0x00, 0x00}); err == nil {
		t.Fatal("expected error for an apdu shorter than the control field")
	}
}
