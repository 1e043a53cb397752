package iec104

import "fmt"

const startByte = 0x68

// maxFrameLength is the largest legal APCI length octet: the four control
// octets plus at most 249 octets of ASDU body.
const maxFrameLength = 255 - 2

/*
outboundFrame is an append-only octet buffer carrying one APCI+ASDU. The
first two octets are always the start marker 0x68 and a length octet
counting all octets after itself; the frame's total on-wire size is
length+2. An outboundFrame is created empty, appended to during encoding,
and stamped with send/receive counts immediately before transmission by
PrepareToSend.
*/
type outboundFrame struct {
	buf []byte
}

// newOutboundFrame returns an outboundFrame with the two-octet APCI header
// reserved (start byte + length placeholder) followed by four zeroed
// control octets.
func newOutboundFrame() *outboundFrame {
	f := &outboundFrame{buf: make([]byte, 6, 32)}
	f.buf[0] = startByte
	return f
}

// Append adds a single octet to the frame body, after the 6-octet APCI header.
func (f *outboundFrame) Append(b byte) *outboundFrame {
	f.buf = append(f.buf, b)
	return f
}

// AppendBytes adds a slice of octets to the frame body.
func (f *outboundFrame) AppendBytes(b []byte) *outboundFrame {
	f.buf = append(f.buf, b...)
	return f
}

// Size returns the total on-wire size of the frame, including the start
// byte and length octet.
func (f *outboundFrame) Size() int {
	return len(f.buf)
}

// Buffer returns the frame's raw octets, ready for transmission.
func (f *outboundFrame) Buffer() []byte {
	return f.buf
}

// prepareLength writes octet 1 to totalSize-2, failing if the frame would
// exceed the 255-octet APDU maximum.
func (f *outboundFrame) prepareLength() error {
	n := len(f.buf) - 2
	if n > maxFrameLength {
		return &FramingError{Reason: fmt.Sprintf("apdu length %d exceeds maximum %d", n, maxFrameLength)}
	}
	f.buf[1] = byte(n)
	return nil
}

// PrepareToSend stamps the frame as an I-frame: control octets 2-5 carry
// send count (low bit clear) and receive count (low bit clear), both
// 15-bit, little-endian-ish per spec §4.1.
func (f *outboundFrame) PrepareToSend(sendCount, receiveCount uint16) error {
	s := serializeLittleEndianUint16(sendCount << 1)
	r := serializeLittleEndianUint16(receiveCount << 1)
	f.buf[2], f.buf[3], f.buf[4], f.buf[5] = s[0], s[1], r[0], r[1]
	return f.prepareLength()
}

// PrepareSFrame stamps the frame as an S-frame: C1=0x01, C2=0x00, receive
// count in C3/C4.
func (f *outboundFrame) PrepareSFrame(receiveCount uint16) error {
	r := serializeLittleEndianUint16(receiveCount << 1)
	f.buf[2], f.buf[3], f.buf[4], f.buf[5] = 0x01, 0x00, r[0], r[1]
	return f.prepareLength()
}

// PrepareUFrame stamps the frame as a U-frame with the given function bitmask.
func (f *outboundFrame) PrepareUFrame(fn UFrameFunction) error {
	f.buf[2], f.buf[3], f.buf[4], f.buf[5] = fn[0], fn[1], fn[2], fn[3]
	return f.prepareLength()
}
