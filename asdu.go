package iec104

import "fmt"

/*
ASDU (Application Service Data Unit).

The ASDU contains two main sections:
- the data unit identifier (4 to 6 octets, width governed by
  ConnectionParameters):
  - the type identification, applied to every information object in the
    ASDU;
  - SQ/NOO, T/PN/COT, an optional originator address, and the common
    address of ASDU;
- one or more information objects, each either carrying its own
  Information Object Address (SQ=0, discrete addressing) or sharing a
  single base address with elements addressed by offset (SQ=1, sequence
  addressing).

 | <-              8 bits              -> |
 | Type Identification                    |  --------------------
 | SQ | Number of objects                 |           |
 | T  | P/N | Cause of transmission (COT) |           |
 | Originator address (if SizeOfCOT==2)   |  Data Unit Identifier
 | Common address of ASDU                 |           |
 | Common address of ASDU (if 2 octets)   |  --------------------
 | Information object address (IOA)       |  --------------------
 | Information Elements                   |  Information Object 1
 | Time Tag (if used)                     |  --------------------
 | ...                                     |  Information Object N
*/
type ASDU struct {
	Params ConnectionParameters
	Identifier

	ioas []IOA  // one entry (SQ=1) or NOO entries (SQ=0)
	body []byte // information elements, IOA-less, back to back, each elementWidth() long
}

// Identifier is the fixed header shared by every ASDU.
type Identifier struct {
	TypeID     TypeID
	SQ         SQ
	NOO        NOO
	T          T
	PN         PN
	COT        COT
	OrigAddr   uint8
	CommonAddr COA
}

// decodeIOA reads an Information Object Address of the given width
// (1, 2 or 3 octets), little-endian.
func decodeIOA(b []byte, width int) IOA {
	switch width {
	case 1:
		return IOA(b[0])
	case 2:
		return IOA(parseLittleEndianUint16(b[:2]))
	default:
		return IOA(parseUint24(b[:3]))
	}
}

// encodeIOA writes an IOA using the given width.
func encodeIOA(ioa IOA, width int) []byte {
	switch width {
	case 1:
		return []byte{byte(ioa)}
	case 2:
		return serializeLittleEndianUint16(uint16(ioa))
	default:
		return serializeUint24(uint32(ioa))
	}
}

// NewASDU returns an empty outgoing ASDU ready for AddObject calls.
func NewASDU(params ConnectionParameters, id Identifier) *ASDU {
	return &ASDU{Params: params, Identifier: id}
}

// Parse decodes data (the I-frame payload following the 4-octet APCI
// control field) into a, per params' configured field widths.
func (a *ASDU) Parse(params ConnectionParameters, data []byte) error {
	a.Params = params
	if len(data) < params.identifierSize() {
		return &ASDUParsingError{Reason: fmt.Sprintf("asdu identifier shorter than %d octets", params.identifierSize())}
	}
	a.TypeID = TypeID(data[0])
	a.SQ = data[1]&0x80 != 0
	a.NOO = data[1] & 0x7f

	pos := 2
	cotByte := data[pos]
	a.T = cotByte&0x80 != 0
	a.PN = cotByte&0x40 != 0
	a.COT = COT(cotByte & 0x3f)
	pos++
	if params.SizeOfCOT == 2 {
		a.OrigAddr = data[pos]
		pos++
	}
	if params.SizeOfCA == 1 {
		a.CommonAddr = COA(data[pos])
		pos++
	} else {
		a.CommonAddr = COA(parseLittleEndianUint16(data[pos : pos+2]))
		pos += 2
	}
	body := data[pos:]

	n := int(a.NOO)
	if n == 0 {
		// A legal empty ASDU (e.g. a pure confirmation): no information
		// objects to decode, so the width table is never consulted.
		a.ioas = nil
		a.body = nil
		return nil
	}

	shape, err := lookupShape(a.TypeID)
	if err != nil {
		// Unknown type identification. The fixed header above decodes
		// independently of the width table, so it still updates link
		// counters/framing normally; only per-element decoding needs the
		// width table, and that is deferred to Element(i), which will
		// surface this same error when the caller enumerates objects.
		a.ioas = nil
		a.body = append([]byte(nil), body...)
		return nil
	}
	if bool(a.SQ) && !shape.sqLegal {
		return &ASDUParsingError{Reason: "type does not support sequence (SQ=1) addressing"}
	}
	ioaWidth := params.SizeOfIOA
	elemW := shape.elementWidth()

	if a.SQ {
		if len(body) < ioaWidth {
			return &ASDUParsingError{Reason: "truncated information object address"}
		}
		a.ioas = []IOA{decodeIOA(body, ioaWidth)}
		rest := body[ioaWidth:]
		want := elemW * n
		if len(rest) != want {
			return &ASDUParsingError{Reason: fmt.Sprintf("sequence payload is %d octets, want %d", len(rest), want)}
		}
		a.body = rest[:want]
		return nil
	}

	want := n * (ioaWidth + elemW)
	if len(body) != want {
		return &ASDUParsingError{Reason: fmt.Sprintf("information objects are %d octets, want %d", len(body), want)}
	}
	a.ioas = make([]IOA, n)
	flat := make([]byte, 0, n*elemW)
	for i := 0; i < n; i++ {
		off := i * (ioaWidth + elemW)
		a.ioas[i] = decodeIOA(body[off:off+ioaWidth], ioaWidth)
		flat = append(flat, body[off+ioaWidth:off+ioaWidth+elemW]...)
	}
	a.body = flat
	return nil
}

// ioaAt returns the address of the i-th information object/element.
func (a *ASDU) ioaAt(i int) IOA {
	if a.SQ {
		return a.ioas[0] + IOA(i)
	}
	return a.ioas[i]
}

// AddObject appends one information object's already-encoded payload
// (produced by one of the information_*.go encode() methods). ioa is
// written verbatim for the first object; for subsequent objects in a
// sequence ASDU (a.SQ == true) it must equal the previous ioa+1.
func (a *ASDU) AddObject(ioa IOA, payload []byte) {
	a.ioas = append(a.ioas, ioa)
	a.body = append(a.body, payload...)
	a.NOO++
}

// Encode serializes the ASDU to its wire form per a.Params' field widths.
func (a *ASDU) Encode() []byte {
	out := make([]byte, 0, a.Params.identifierSize()+len(a.body)+len(a.ioas)*3)
	out = append(out, byte(a.TypeID))

	noo := a.NOO & 0x7f
	if a.SQ {
		noo |= 0x80
	}
	out = append(out, noo)

	cot := byte(a.COT) & 0x3f
	if a.T {
		cot |= 0x80
	}
	if a.PN {
		cot |= 0x40
	}
	out = append(out, cot)
	if a.Params.SizeOfCOT == 2 {
		out = append(out, a.OrigAddr)
	}
	if a.Params.SizeOfCA == 1 {
		out = append(out, byte(a.CommonAddr))
	} else {
		out = append(out, serializeLittleEndianUint16(uint16(a.CommonAddr))...)
	}

	if a.SQ {
		out = append(out, encodeIOA(a.ioas[0], a.Params.SizeOfIOA)...)
		out = append(out, a.body...)
		return out
	}

	shape, err := lookupShape(a.TypeID)
	if err != nil {
		// A type outside the width table (including one that Parse
		// kept with an unknown type identification) has no known
		// element width, so only the header is encoded.
		return out
	}
	elemW := shape.elementWidth()
	for i, ioa := range a.ioas {
		out = append(out, encodeIOA(ioa, a.Params.SizeOfIOA)...)
		out = append(out, a.body[i*elemW:(i+1)*elemW]...)
	}
	return out
}

// Element decodes the i-th information element, dispatching on TypeID to
// the matching struct from information_monitor.go/information_control.go/
// information_system.go.
func (a *ASDU) Element(i int) (interface{}, error) {
	shape, err := lookupShape(a.TypeID)
	if err != nil {
		return nil, err
	}
	w := shape.elementWidth()
	if i < 0 || i >= int(a.NOO) || (i+1)*w > len(a.body) {
		return nil, &ASDUParsingError{Reason: "information element index out of range"}
	}
	slice := a.body[i*w : (i+1)*w]
	ioa := a.ioaAt(i)

	switch a.TypeID {
	case MSpNa1, MSpTa1, MSpTb1:
		v, _, err := decodeSinglePointInfo(a.TypeID, ioa, slice)
		return v, err
	case MDpNa1, MDpTa1, MDpTb1:
		v, _, err := decodeDoublePointInfo(a.TypeID, ioa, slice)
		return v, err
	case MStNa1, MStTa1, MStTb1:
		v, _, err := decodeStepPositionInfo(a.TypeID, ioa, slice)
		return v, err
	case MBoNa1, MBoTa1, MBoTb1:
		v, _, err := decodeBitstringInfo(a.TypeID, ioa, slice)
		return v, err
	case MMeNa1, MMeTa1, MMeTd1:
		v, _, err := decodeMeasuredValueNormalized(a.TypeID, ioa, slice)
		return v, err
	case MMeNd1:
		v, _, err := decodeMeasuredValueNormalizedNoQuality(ioa, slice)
		return v, err
	case MMeNb1, MMeTb1, MMeTe1:
		v, _, err := decodeMeasuredValueScaled(a.TypeID, ioa, slice)
		return v, err
	case MMeNc1, MMeTc1, MMeTf1:
		v, _, err := decodeMeasuredValueFloat(a.TypeID, ioa, slice)
		return v, err
	case MItNa1, MItTa1, MItTb1:
		v, _, err := decodeIntegratedTotalsInfo(a.TypeID, ioa, slice)
		return v, err
	case MPsNa1:
		v, _, err := decodePackedSinglePointWithSCD(ioa, slice)
		return v, err
	case MEpTa1, MEpTd1:
		v, _, err := decodeProtectionEventInfo(a.TypeID, ioa, slice)
		return v, err
	case MEpTb1, MEpTe1:
		v, _, err := decodeProtectionStartEventsInfo(a.TypeID, ioa, slice)
		return v, err
	case MEpTc1, MEpTf1:
		v, _, err := decodeProtectionOutputCircuitsInfo(a.TypeID, ioa, slice)
		return v, err
	case MEiNa1:
		v, _, err := decodeEndOfInitializationInfo(ioa, slice)
		return v, err

	case CScNa1, CScTa1:
		v, _, err := decodeSingleCommandInfo(a.TypeID, ioa, slice)
		return v, err
	case CDcNa1, CDcTa1:
		v, _, err := decodeDoubleCommandInfo(a.TypeID, ioa, slice)
		return v, err
	case CRcNa1, CRcTa1:
		v, _, err := decodeStepCommandInfo(a.TypeID, ioa, slice)
		return v, err
	case CSeNa1, CSeTa1:
		v, _, err := decodeSetpointNormalizedInfo(a.TypeID, ioa, slice)
		return v, err
	case CSeNb1, CSeTb1:
		v, _, err := decodeSetpointScaledInfo(a.TypeID, ioa, slice)
		return v, err
	case CSeNc1, CSeTc1:
		v, _, err := decodeSetpointFloatInfo(a.TypeID, ioa, slice)
		return v, err
	case CBoNa1, CBoTa1:
		v, _, err := decodeBitstringCommandInfo(a.TypeID, ioa, slice)
		return v, err

	case CIcNa1:
		v, _, err := decodeInterrogationInfo(ioa, slice)
		return v, err
	case CCiNa1:
		v, _, err := decodeCounterInterrogationInfo(ioa, slice)
		return v, err
	case CRdNa1:
		v, _, err := decodeReadInfo(ioa, slice)
		return v, err
	case CCsNa1:
		v, _, err := decodeClockSyncInfo(ioa, slice)
		return v, err
	case CTsNa1, CTsTa1:
		v, _, err := decodeTestCommandInfo(a.TypeID, ioa, slice)
		return v, err
	case CRpNc1:
		v, _, err := decodeResetProcessInfo(ioa, slice)
		return v, err
	case CCdNa1:
		v, _, err := decodeDelayAcquisitionInfo(ioa, slice)
		return v, err

	case PMeNa1:
		v, _, err := decodeParameterNormalizedInfo(ioa, slice)
		return v, err
	case PMeNb1:
		v, _, err := decodeParameterScaledInfo(ioa, slice)
		return v, err
	case PMeNc1:
		v, _, err := decodeParameterFloatInfo(ioa, slice)
		return v, err
	case PAcNa1:
		v, _, err := decodeParameterActivationInfo(ioa, slice)
		return v, err

	default:
		return nil, &ASDUParsingError{Reason: fmt.Sprintf("no decoder registered for type id %d", a.TypeID)}
	}
}

// String renders a short diagnostic summary for log lines.
func (a *ASDU) String() string {
	return fmt.Sprintf("ASDU{type=%d sq=%v noo=%d cot=%d coa=%d}", a.TypeID, a.SQ, a.NOO, a.COT, a.CommonAddr)
}
