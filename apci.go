package iec104

import "fmt"

/*
APCI (Application Protocol Control Information).

Each APCI starts with a start byte with value 0x68 followed by the 8-bit
length of APDU and four 8-bit control fields (CF). Generally, the length of APCI is 6 bytes.

  | <-   8 bits    -> |  -----
  | Start Byte (Ox68) |    |
  | Length of APDU    |    |
  | Control Field 1   |   APCI
  | Control Field 2   |    |
  | Control Field 3   |    |
  | Control Field 4   |    |
  | <-   8 bits    -> |  -----
*/
type APCI struct {
	Cf1 byte
	Cf2 byte
	Cf3 byte
	Cf4 byte
}

/*
Parse is responsible for parsing control fields in APCI, dispatching on the
low bits of Cf1 to the concrete I/S/U frame it represents.
*/
func (apci *APCI) Parse(data []byte) (Frame, error) {
	if len(data) < 4 {
		return nil, &FramingError{Reason: "apci control field shorter than 4 octets"}
	}
	apci.Cf1 = data[0]
	apci.Cf2 = data[1]
	apci.Cf3 = data[2]
	apci.Cf4 = data[3]

	switch {
	case apci.Cf1&0x1 == FrameTypeI:
		return apci.parseIFrame(), nil
	case apci.Cf1&0x3 == FrameTypeS:
		return apci.parseSFrame(), nil
	case apci.Cf1&0x3 == FrameTypeU:
		return apci.parseUFrame()
	default:
		return nil, &FramingError{Reason: "unrecognized control field pattern"}
	}
}

/*
parseIFrame is responsible for parsing IFrame from the control fields.
*/
func (apci *APCI) parseIFrame() *IFrame {
	send := uint16(apci.Cf1)>>1 | uint16(apci.Cf2)<<7
	recv := uint16(apci.Cf3)>>1 | uint16(apci.Cf4)<<7
	return &IFrame{
		SendSN: send & 0x7fff,
		RecvSN: recv & 0x7fff,
	}
}

/*
parseSFrame is responsible for parsing SFrame from the control fields.
*/
func (apci *APCI) parseSFrame() *SFrame {
	recv := uint16(apci.Cf3)>>1 | uint16(apci.Cf4)<<7
	return &SFrame{
		RecvSN: recv & 0x7fff,
	}
}

/*
parseUFrame is responsible for parsing UFrame from the control fields. Fails
if none, or more than one, of the six known function bits is set.
*/
func (apci *APCI) parseUFrame() (*UFrame, error) {
	switch apci.Cf1 {
	case UFrameFunctionStartDTA[0], UFrameFunctionStartDTC[0],
		UFrameFunctionStopDTA[0], UFrameFunctionStopDTC[0],
		UFrameFunctionTestFA[0], UFrameFunctionTestFC[0]:
		return &UFrame{Cmd: UFrameFunction{apci.Cf1, apci.Cf2, apci.Cf3, apci.Cf4}}, nil
	default:
		return nil, &FramingError{Reason: fmt.Sprintf("bad u-frame bit pattern 0x%02x", apci.Cf1)}
	}
}

/*
FrameType is the transmission frame format.

The frame format is determined by the two last bits of the first control field (CF1).
*/
type FrameType = byte // transmission frame format

const (
	FrameTypeI FrameType = iota
	FrameTypeS
	FrameTypeU FrameType = iota + 1
)

// UFrameFunction is the fixed 4-octet control field of a U-frame; exactly
// one bit position in Cf1 is set, selecting the sub-kind.
type UFrameFunction [4]byte

var (
	UFrameFunctionStartDTA = UFrameFunction{0x07, 0x00, 0x00, 0x00} // Start Data Transfer Activation   CF1: 0 0 0 0 0 1 | 1 1
	UFrameFunctionStartDTC = UFrameFunction{0x0B, 0x00, 0x00, 0x00} // Start Data Transfer Confirmation CF1: 0 0 0 0 1 0 | 1 1
	UFrameFunctionStopDTA  = UFrameFunction{0x13, 0x00, 0x00, 0x00} // Stop Data Transfer Activation    CF1: 0 0 0 1 0 0 | 1 1
	UFrameFunctionStopDTC  = UFrameFunction{0x23, 0x00, 0x00, 0x00} // Stop Data Transfer Confirmation  CF1: 0 0 1 0 0 0 | 1 1
	UFrameFunctionTestFA   = UFrameFunction{0x43, 0x00, 0x00, 0x00} // Test Frame Activation            CF1: 0 1 0 0 0 0 | 1 1
	UFrameFunctionTestFC   = UFrameFunction{0x83, 0x00, 0x00, 0x00} // Test Frame Confirmation          CF1: 1 0 0 0 0 0 | 1 1
)

// uFrameName returns a short diagnostic name for a U-frame function, for log lines only.
func uFrameName(fn UFrameFunction) string {
	switch fn[0] {
	case UFrameFunctionStartDTA[0]:
		return "STARTDT_ACT"
	case UFrameFunctionStartDTC[0]:
		return "STARTDT_CON"
	case UFrameFunctionStopDTA[0]:
		return "STOPDT_ACT"
	case UFrameFunctionStopDTC[0]:
		return "STOPDT_CON"
	case UFrameFunctionTestFA[0]:
		return "TESTFR_ACT"
	case UFrameFunctionTestFC[0]:
		return "TESTFR_CON"
	default:
		return fmt.Sprintf("unknown(0x%02x)", fn[0])
	}
}

type Frame interface {
	Type() FrameType
	Data() []byte
}

/*
IFrame (Information Transfer Format), last bit of CF1 is (0)B.

Control fields of I-format frame:
 | <-              8 bits              -> |
 | Send sequence no. N(S)     [LSB]   | 0 |
 | Send sequence no. N(S)     [MSB]       |
 | Receive sequence no. N(R)  [LSB]   | 0 |
 | Receive sequence no. N(R)  [MSB]       |

- It is used to perform numbered information transfer between the controlling and controlled station.
- I-format APDUs always contain an ASDU, so it has variable length.
- Control fields of I-format indicate message direction. It contains two 15-bit sequence numbers that are sequentially
  increased by one for each APDU and each direction.
  - The sender increases the send sequence number N(S) and the receiver increases the receive sequence number N(R).
    The receiving station acknowledges each APDU or a number of APDUs when it returns the receive sequence number
    up to the number whose APDUs are properly received.
  - The sending station holds the APDU or APDUs in a buffer until it receives back its own send sequence number as a
    receive sequence number which is valid acknowledge for all numbers less or equal to the received number.
- The right interpretation of sequence numbers depends on the position of LSB (the Least Significant Bit) and
  MSB (the Most Significant Bit).
  - N(S) = CF1 >> 1 + CF2 << 7
  - N(R) = CF3 >> 1 + CF4 << 7
*/
type IFrame struct {
	APCI
	SendSN uint16
	RecvSN uint16
}

func (i *IFrame) Type() FrameType {
	return FrameTypeI
}

func (i *IFrame) Data() []byte {
	sBytes, rBytes := serializeLittleEndianUint16(i.SendSN<<1), serializeLittleEndianUint16(i.RecvSN<<1)
	return []byte{sBytes[0], sBytes[1], rBytes[0], rBytes[1]}
}

/*
SFrame (Numbered Supervisory functions), last two bits of CF1 is (01)B.

- It is used to perform numbered supervisory functions.
- S-format APDUs always consist of one APCI only, so it has fixed length.
*/
type SFrame struct {
	APCI
	RecvSN uint16
}

func (s *SFrame) Type() FrameType {
	return FrameTypeS
}

func (s *SFrame) Data() []byte {
	rBytes := serializeLittleEndianUint16(s.RecvSN << 1)
	return []byte{0b1, 0b0, rBytes[0], rBytes[1]}
}

/*
UFrame (Unnumbered control functions), last two bits of CF1 is (11)B.

- It is used to perform unnumbered control functions: activation and
  confirmation of STARTDT, STOPDT and TESTFR. Only one function bit is set
  at a time.
- U-format APDUs always contain one APCI only, so it has fixed length.
- STARTDT/STOPDT are sent only by the controlling station; the default
  state after TCP open is STOPDT (no I-frame traffic) until the
  controlling station activates transfer.
- Either station may initiate the TESTFR keep-alive procedure after an
  idle period (t3).
*/
type UFrame struct {
	APCI
	Cmd UFrameFunction
}

func (u *UFrame) Type() FrameType {
	return FrameTypeU
}

func (u *UFrame) Data() []byte {
	return u.Cmd[:]
}
