package iec104

import "testing"

func TestConnectionParametersValidDefaults(t *testing.T) {
	p := ConnectionParameters{}
	if err := p.Valid(); err != nil {
		t.Fatalf("Valid: %v", err)
	}
	want := DefaultConnectionParameters()
	if p != want {
		t.Fatalf("got %+v, want %+v", p, want)
	}
}

func TestConnectionParametersValidRejectsOutOfRange(t *testing.T) {
	tests := []struct {
		name string
		mut  func(*ConnectionParameters)
	}{
		{"SizeOfCOT", func(p *ConnectionParameters) { p.SizeOfCOT = 3 }},
		{"SizeOfCA", func(p *ConnectionParameters) { p.SizeOfCA = 3 }},
		{"SizeOfIOA", func(p *ConnectionParameters) { p.SizeOfIOA = 4 }},
		{"K too large", func(p *ConnectionParameters) { p.K = MaxK + 1 }},
		{"W too large", func(p *ConnectionParameters) { p.W = MaxW + 1 }},
		{"W exceeds K", func(p *ConnectionParameters) { p.K = 5; p.W = 6 }},
		{"T0 too small", func(p *ConnectionParameters) { p.T0 = MinT0 / 2 }},
		{"T1 too large", func(p *ConnectionParameters) { p.T1 = MaxT1 * 2 }},
		{"T2 not less than T1", func(p *ConnectionParameters) { p.T1 = 5e9; p.T2 = 5e9 }},
		{"T3 too small", func(p *ConnectionParameters) { p.T3 = MinT3 / 2 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := ConnectionParameters{}
			tt.mut(&p)
			if err := p.Valid(); err == nil {
				t.Fatalf("expected an error")
			}
		})
	}
}

func TestConnectionParametersCloneIsIndependent(t *testing.T) {
	p := DefaultConnectionParameters()
	c := p.Clone()
	c.K = 1
	if p.K == c.K {
		t.Fatalf("clone shares state with the original")
	}
}

func TestConnectionParametersIdentifierSize(t *testing.T) {
	p := DefaultConnectionParameters()
	// type id (1) + vsq (1) + cot (2, with originator) + common address (2)
	if got := p.identifierSize(); got != 6 {
		t.Fatalf("identifierSize = %d, want 6", got)
	}
	p.SizeOfCOT = 1
	p.SizeOfCA = 1
	if got := p.identifierSize(); got != 4 {
		t.Fatalf("identifierSize = %d, want 4", got)
	}
}

func TestConnectionParametersBroadcastCOA(t *testing.T) {
	if BroadcastCOA(1) != 0xFF {
		t.Errorf("1-octet broadcast = %#x, want 0xFF", BroadcastCOA(1))
	}
	if BroadcastCOA(2) != 0xFFFF {
		t.Errorf("2-octet broadcast = %#x, want 0xFFFF", BroadcastCOA(2))
	}
}
