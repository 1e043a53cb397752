package iec104

/*
Information objects in monitor direction (spec §4.3). Each family is one
struct shared by its no-time, CP24Time2a and CP56Time2a variants; the
concrete TypeID is supplied explicitly by the caller (ASDU.Element, or
the encode(id) call whose output is passed to ASDU.AddObject) rather
than encoded in the Go type, following the width
table's tagged-variant design.

Every decode function consumes exactly the bytes belonging to one
element (value/quality plus time tag, if the TypeID carries one) and
returns the IOA-less remainder of body so callers can step through an
SQ=1 sequence.
*/

// SinglePointInfo carries MSpNa1/MSpTa1/MSpTb1.
type SinglePointInfo struct {
	Ioa     IOA
	Value   bool
	Quality QualityDescriptor
	Tag24   *CP24Time2a
	Tag56   *CP56Time2a
}

func decodeSinglePointInfo(id TypeID, ioa IOA, body []byte) (*SinglePointInfo, []byte, error) {
	shape, err := lookupShape(id)
	if err != nil {
		return nil, nil, err
	}
	if len(body) < shape.elementWidth() {
		return nil, nil, &ASDUParsingError{Reason: "truncated single-point information"}
	}
	siq := SIQ(body[0])
	info := &SinglePointInfo{Ioa: ioa, Value: siq.Value(), Quality: siq.Quality()}
	rest := body[1:]
	switch id {
	case MSpTa1:
		t := ParseCP24Time2a(rest[:3])
		info.Tag24 = &t
		rest = rest[3:]
	case MSpTb1:
		t := ParseCP56Time2a(rest[:7])
		info.Tag56 = &t
		rest = rest[7:]
	}
	return info, rest, nil
}

func (s *SinglePointInfo) encode(id TypeID) []byte {
	b := []byte{byte(NewSIQ(s.Value, s.Quality))}
	switch id {
	case MSpTa1:
		if s.Tag24 != nil {
			b = append(b, s.Tag24.Bytes()...)
		}
	case MSpTb1:
		if s.Tag56 != nil {
			b = append(b, s.Tag56.Bytes()...)
		}
	}
	return b
}

// DoublePointInfo carries MDpNa1/MDpTa1/MDpTb1.
type DoublePointInfo struct {
	Ioa     IOA
	Value   DoublePointState
	Quality QualityDescriptor
	Tag24   *CP24Time2a
	Tag56   *CP56Time2a
}

func decodeDoublePointInfo(id TypeID, ioa IOA, body []byte) (*DoublePointInfo, []byte, error) {
	shape, err := lookupShape(id)
	if err != nil {
		return nil, nil, err
	}
	if len(body) < shape.elementWidth() {
		return nil, nil, &ASDUParsingError{Reason: "truncated double-point information"}
	}
	diq := DIQ(body[0])
	info := &DoublePointInfo{Ioa: ioa, Value: diq.State(), Quality: diq.Quality()}
	rest := body[1:]
	switch id {
	case MDpTa1:
		t := ParseCP24Time2a(rest[:3])
		info.Tag24 = &t
		rest = rest[3:]
	case MDpTb1:
		t := ParseCP56Time2a(rest[:7])
		info.Tag56 = &t
		rest = rest[7:]
	}
	return info, rest, nil
}

func (d *DoublePointInfo) encode(id TypeID) []byte {
	b := []byte{byte(NewDIQ(d.Value, d.Quality))}
	switch id {
	case MDpTa1:
		if d.Tag24 != nil {
			b = append(b, d.Tag24.Bytes()...)
		}
	case MDpTb1:
		if d.Tag56 != nil {
			b = append(b, d.Tag56.Bytes()...)
		}
	}
	return b
}

// StepPositionInfo carries MStNa1/MStTa1/MStTb1. Value is a transposed
// 7-bit signed step position (-64..63); Transient marks a device in
// intermediate state between steps.
type StepPositionInfo struct {
	Ioa       IOA
	Value     int8
	Transient bool
	Quality   QualityDescriptor
	Tag24     *CP24Time2a
	Tag56     *CP56Time2a
}

func decodeStepPositionInfo(id TypeID, ioa IOA, body []byte) (*StepPositionInfo, []byte, error) {
	shape, err := lookupShape(id)
	if err != nil {
		return nil, nil, err
	}
	if len(body) < shape.elementWidth() {
		return nil, nil, &ASDUParsingError{Reason: "truncated step position information"}
	}
	vti := body[0]
	info := &StepPositionInfo{
		Ioa:       ioa,
		Value:     int8(vti<<1) >> 1,
		Transient: vti&0x80 != 0,
		Quality:   QualityDescriptor(body[1]),
	}
	rest := body[2:]
	switch id {
	case MStTa1:
		t := ParseCP24Time2a(rest[:3])
		info.Tag24 = &t
		rest = rest[3:]
	case MStTb1:
		t := ParseCP56Time2a(rest[:7])
		info.Tag56 = &t
		rest = rest[7:]
	}
	return info, rest, nil
}

func (s *StepPositionInfo) encode(id TypeID) []byte {
	vti := byte(s.Value) & 0x7f
	if s.Transient {
		vti |= 0x80
	}
	b := []byte{vti, byte(s.Quality)}
	switch id {
	case MStTa1:
		if s.Tag24 != nil {
			b = append(b, s.Tag24.Bytes()...)
		}
	case MStTb1:
		if s.Tag56 != nil {
			b = append(b, s.Tag56.Bytes()...)
		}
	}
	return b
}

// BitstringInfo carries MBoNa1/MBoTa1/MBoTb1: a 32-bit status bitstring.
type BitstringInfo struct {
	Ioa     IOA
	Value   uint32
	Quality QualityDescriptor
	Tag24   *CP24Time2a
	Tag56   *CP56Time2a
}

func decodeBitstringInfo(id TypeID, ioa IOA, body []byte) (*BitstringInfo, []byte, error) {
	shape, err := lookupShape(id)
	if err != nil {
		return nil, nil, err
	}
	if len(body) < shape.elementWidth() {
		return nil, nil, &ASDUParsingError{Reason: "truncated bitstring information"}
	}
	info := &BitstringInfo{
		Ioa:     ioa,
		Value:   parseLittleEndianUint32(body[0:4]),
		Quality: QualityDescriptor(body[4]),
	}
	rest := body[5:]
	switch id {
	case MBoTa1:
		t := ParseCP24Time2a(rest[:3])
		info.Tag24 = &t
		rest = rest[3:]
	case MBoTb1:
		t := ParseCP56Time2a(rest[:7])
		info.Tag56 = &t
		rest = rest[7:]
	}
	return info, rest, nil
}

func (b *BitstringInfo) encode(id TypeID) []byte {
	out := append(serializeLittleEndianUint32(b.Value), byte(b.Quality))
	switch id {
	case MBoTa1:
		if b.Tag24 != nil {
			out = append(out, b.Tag24.Bytes()...)
		}
	case MBoTb1:
		if b.Tag56 != nil {
			out = append(out, b.Tag56.Bytes()...)
		}
	}
	return out
}

// normalizedToFloat converts a raw NVA (16-bit signed, full scale ±1) to a
// float64 in [-1, 1).
func normalizedToFloat(raw int16) float64 {
	return float64(raw) / 32768.0
}

func floatToNormalized(v float64) int16 {
	return int16(v * 32768.0)
}

// MeasuredValueNormalized carries MMeNa1/MMeTa1/MMeTd1: NVA + QDS.
type MeasuredValueNormalized struct {
	Ioa     IOA
	Value   float64
	Quality QualityDescriptor
	Tag24   *CP24Time2a
	Tag56   *CP56Time2a
}

func decodeMeasuredValueNormalized(id TypeID, ioa IOA, body []byte) (*MeasuredValueNormalized, []byte, error) {
	shape, err := lookupShape(id)
	if err != nil {
		return nil, nil, err
	}
	if len(body) < shape.elementWidth() {
		return nil, nil, &ASDUParsingError{Reason: "truncated normalized measured value"}
	}
	raw := parseLittleEndianInt16(body[0:2])
	info := &MeasuredValueNormalized{Ioa: ioa, Value: normalizedToFloat(raw), Quality: QualityDescriptor(body[2])}
	rest := body[3:]
	switch id {
	case MMeTa1:
		t := ParseCP24Time2a(rest[:3])
		info.Tag24 = &t
		rest = rest[3:]
	case MMeTd1:
		t := ParseCP56Time2a(rest[:7])
		info.Tag56 = &t
		rest = rest[7:]
	}
	return info, rest, nil
}

func (m *MeasuredValueNormalized) encode(id TypeID) []byte {
	v := serializeLittleEndianUint16(uint16(floatToNormalized(m.Value)))
	b := append(v, byte(m.Quality))
	switch id {
	case MMeTa1:
		if m.Tag24 != nil {
			b = append(b, m.Tag24.Bytes()...)
		}
	case MMeTd1:
		if m.Tag56 != nil {
			b = append(b, m.Tag56.Bytes()...)
		}
	}
	return b
}

// MeasuredValueNormalizedNoQuality carries MMeNd1: NVA without a quality octet.
type MeasuredValueNormalizedNoQuality struct {
	Ioa   IOA
	Value float64
}

func decodeMeasuredValueNormalizedNoQuality(ioa IOA, body []byte) (*MeasuredValueNormalizedNoQuality, []byte, error) {
	if len(body) < 2 {
		return nil, nil, &ASDUParsingError{Reason: "truncated normalized measured value without quality"}
	}
	raw := parseLittleEndianInt16(body[0:2])
	return &MeasuredValueNormalizedNoQuality{Ioa: ioa, Value: normalizedToFloat(raw)}, body[2:], nil
}

func (m *MeasuredValueNormalizedNoQuality) encode() []byte {
	return serializeLittleEndianUint16(uint16(floatToNormalized(m.Value)))
}

// MeasuredValueScaled carries MMeNb1/MMeTb1/MMeTe1: SVA + QDS.
type MeasuredValueScaled struct {
	Ioa     IOA
	Value   int16
	Quality QualityDescriptor
	Tag24   *CP24Time2a
	Tag56   *CP56Time2a
}

func decodeMeasuredValueScaled(id TypeID, ioa IOA, body []byte) (*MeasuredValueScaled, []byte, error) {
	shape, err := lookupShape(id)
	if err != nil {
		return nil, nil, err
	}
	if len(body) < shape.elementWidth() {
		return nil, nil, &ASDUParsingError{Reason: "truncated scaled measured value"}
	}
	info := &MeasuredValueScaled{
		Ioa:     ioa,
		Value:   parseLittleEndianInt16(body[0:2]),
		Quality: QualityDescriptor(body[2]),
	}
	rest := body[3:]
	switch id {
	case MMeTb1:
		t := ParseCP24Time2a(rest[:3])
		info.Tag24 = &t
		rest = rest[3:]
	case MMeTe1:
		t := ParseCP56Time2a(rest[:7])
		info.Tag56 = &t
		rest = rest[7:]
	}
	return info, rest, nil
}

func (m *MeasuredValueScaled) encode(id TypeID) []byte {
	b := append(serializeLittleEndianUint16(uint16(m.Value)), byte(m.Quality))
	switch id {
	case MMeTb1:
		if m.Tag24 != nil {
			b = append(b, m.Tag24.Bytes()...)
		}
	case MMeTe1:
		if m.Tag56 != nil {
			b = append(b, m.Tag56.Bytes()...)
		}
	}
	return b
}

// MeasuredValueFloat carries MMeNc1/MMeTc1/MMeTf1: IEEE-754 short float + QDS.
type MeasuredValueFloat struct {
	Ioa     IOA
	Value   float32
	Quality QualityDescriptor
	Tag24   *CP24Time2a
	Tag56   *CP56Time2a
}

func decodeMeasuredValueFloat(id TypeID, ioa IOA, body []byte) (*MeasuredValueFloat, []byte, error) {
	shape, err := lookupShape(id)
	if err != nil {
		return nil, nil, err
	}
	if len(body) < shape.elementWidth() {
		return nil, nil, &ASDUParsingError{Reason: "truncated short floating point measured value"}
	}
	info := &MeasuredValueFloat{
		Ioa:     ioa,
		Value:   parseFloat32(body[0:4]),
		Quality: QualityDescriptor(body[4]),
	}
	rest := body[5:]
	switch id {
	case MMeTc1:
		t := ParseCP24Time2a(rest[:3])
		info.Tag24 = &t
		rest = rest[3:]
	case MMeTf1:
		t := ParseCP56Time2a(rest[:7])
		info.Tag56 = &t
		rest = rest[7:]
	}
	return info, rest, nil
}

func (m *MeasuredValueFloat) encode(id TypeID) []byte {
	b := append(serializeFloat32(m.Value), byte(m.Quality))
	switch id {
	case MMeTc1:
		if m.Tag24 != nil {
			b = append(b, m.Tag24.Bytes()...)
		}
	case MMeTf1:
		if m.Tag56 != nil {
			b = append(b, m.Tag56.Bytes()...)
		}
	}
	return b
}

// IntegratedTotalsInfo carries MItNa1/MItTa1/MItTb1: a binary counter reading.
type IntegratedTotalsInfo struct {
	Ioa     IOA
	Counter BCR
	Tag24   *CP24Time2a
	Tag56   *CP56Time2a
}

func decodeIntegratedTotalsInfo(id TypeID, ioa IOA, body []byte) (*IntegratedTotalsInfo, []byte, error) {
	shape, err := lookupShape(id)
	if err != nil {
		return nil, nil, err
	}
	if len(body) < shape.elementWidth() {
		return nil, nil, &ASDUParsingError{Reason: "truncated integrated totals"}
	}
	info := &IntegratedTotalsInfo{Ioa: ioa, Counter: ParseBCR(body[0:5])}
	rest := body[5:]
	switch id {
	case MItTa1:
		t := ParseCP24Time2a(rest[:3])
		info.Tag24 = &t
		rest = rest[3:]
	case MItTb1:
		t := ParseCP56Time2a(rest[:7])
		info.Tag56 = &t
		rest = rest[7:]
	}
	return info, rest, nil
}

func (i *IntegratedTotalsInfo) encode(id TypeID) []byte {
	b := i.Counter.Bytes()
	switch id {
	case MItTa1:
		if i.Tag24 != nil {
			b = append(b, i.Tag24.Bytes()...)
		}
	case MItTb1:
		if i.Tag56 != nil {
			b = append(b, i.Tag56.Bytes()...)
		}
	}
	return b
}

// PackedSinglePointWithSCD carries MPsNa1: 16 packed single points with
// change detection, plus a shared quality descriptor.
type PackedSinglePointWithSCD struct {
	Ioa     IOA
	Status  SCD
	Quality QualityDescriptor
}

func decodePackedSinglePointWithSCD(ioa IOA, body []byte) (*PackedSinglePointWithSCD, []byte, error) {
	if len(body) < 5 {
		return nil, nil, &ASDUParsingError{Reason: "truncated packed single-point information"}
	}
	return &PackedSinglePointWithSCD{Ioa: ioa, Status: ParseSCD(body[0:4]), Quality: QualityDescriptor(body[4])}, body[5:], nil
}

func (p *PackedSinglePointWithSCD) encode() []byte {
	return append(p.Status.Bytes(), byte(p.Quality))
}

// ProtectionEventInfo carries MEpTa1/MEpTd1: a single protection-equipment
// event (SEP) with its relay operating time (CP16) and time tag.
type ProtectionEventInfo struct {
	Ioa     IOA
	Event   StartEvents
	Quality QualityDescriptor
	Elapsed CP16Time2a
	Tag24   *CP24Time2a
	Tag56   *CP56Time2a
}

func decodeProtectionEventInfo(id TypeID, ioa IOA, body []byte) (*ProtectionEventInfo, []byte, error) {
	shape, err := lookupShape(id)
	if err != nil {
		return nil, nil, err
	}
	if len(body) < shape.elementWidth() {
		return nil, nil, &ASDUParsingError{Reason: "truncated protection event"}
	}
	sep := body[0]
	info := &ProtectionEventInfo{
		Ioa:     ioa,
		Event:   StartEvents(sep & 0x3f),
		Quality: QualityDescriptor(sep) &^ 0x3f,
		Elapsed: ParseCP16Time2a(body[1:3]),
	}
	rest := body[3:]
	switch id {
	case MEpTa1:
		t := ParseCP24Time2a(rest[:3])
		info.Tag24 = &t
		rest = rest[3:]
	case MEpTd1:
		t := ParseCP56Time2a(rest[:7])
		info.Tag56 = &t
		rest = rest[7:]
	}
	return info, rest, nil
}

func (p *ProtectionEventInfo) encode(id TypeID) []byte {
	sep := byte(p.Event&0x3f) | byte(p.Quality&^0x3f)
	b := append([]byte{sep}, p.Elapsed.Bytes()...)
	switch id {
	case MEpTa1:
		if p.Tag24 != nil {
			b = append(b, p.Tag24.Bytes()...)
		}
	case MEpTd1:
		if p.Tag56 != nil {
			b = append(b, p.Tag56.Bytes()...)
		}
	}
	return b
}

// ProtectionStartEventsInfo carries MEpTb1/MEpTe1: packed start events (SPE)
// with quality, relay duration and time tag.
type ProtectionStartEventsInfo struct {
	Ioa      IOA
	Events   StartEvents
	Quality  QualityDescriptor
	Duration CP16Time2a
	Tag24    *CP24Time2a
	Tag56    *CP56Time2a
}

func decodeProtectionStartEventsInfo(id TypeID, ioa IOA, body []byte) (*ProtectionStartEventsInfo, []byte, error) {
	shape, err := lookupShape(id)
	if err != nil {
		return nil, nil, err
	}
	if len(body) < shape.elementWidth() {
		return nil, nil, &ASDUParsingError{Reason: "truncated packed start events"}
	}
	info := &ProtectionStartEventsInfo{
		Ioa:      ioa,
		Events:   StartEvents(body[0]),
		Quality:  QualityDescriptor(body[1]),
		Duration: ParseCP16Time2a(body[2:4]),
	}
	rest := body[4:]
	switch id {
	case MEpTb1:
		t := ParseCP24Time2a(rest[:3])
		info.Tag24 = &t
		rest = rest[3:]
	case MEpTe1:
		t := ParseCP56Time2a(rest[:7])
		info.Tag56 = &t
		rest = rest[7:]
	}
	return info, rest, nil
}

func (p *ProtectionStartEventsInfo) encode(id TypeID) []byte {
	b := []byte{byte(p.Events), byte(p.Quality)}
	b = append(b, p.Duration.Bytes()...)
	switch id {
	case MEpTb1:
		if p.Tag24 != nil {
			b = append(b, p.Tag24.Bytes()...)
		}
	case MEpTe1:
		if p.Tag56 != nil {
			b = append(b, p.Tag56.Bytes()...)
		}
	}
	return b
}

// ProtectionOutputCircuitsInfo carries MEpTc1/MEpTf1: output circuit
// information with quality, operating duration and time tag.
type ProtectionOutputCircuitsInfo struct {
	Ioa      IOA
	Circuits OutputCircuits
	Quality  QualityDescriptor
	Duration CP16Time2a
	Tag24    *CP24Time2a
	Tag56    *CP56Time2a
}

func decodeProtectionOutputCircuitsInfo(id TypeID, ioa IOA, body []byte) (*ProtectionOutputCircuitsInfo, []byte, error) {
	shape, err := lookupShape(id)
	if err != nil {
		return nil, nil, err
	}
	if len(body) < shape.elementWidth() {
		return nil, nil, &ASDUParsingError{Reason: "truncated output circuit information"}
	}
	info := &ProtectionOutputCircuitsInfo{
		Ioa:      ioa,
		Circuits: OutputCircuits(body[0]),
		Quality:  QualityDescriptor(body[1]),
		Duration: ParseCP16Time2a(body[2:4]),
	}
	rest := body[4:]
	switch id {
	case MEpTc1:
		t := ParseCP24Time2a(rest[:3])
		info.Tag24 = &t
		rest = rest[3:]
	case MEpTf1:
		t := ParseCP56Time2a(rest[:7])
		info.Tag56 = &t
		rest = rest[7:]
	}
	return info, rest, nil
}

func (p *ProtectionOutputCircuitsInfo) encode(id TypeID) []byte {
	b := []byte{byte(p.Circuits), byte(p.Quality)}
	b = append(b, p.Duration.Bytes()...)
	switch id {
	case MEpTc1:
		if p.Tag24 != nil {
			b = append(b, p.Tag24.Bytes()...)
		}
	case MEpTf1:
		if p.Tag56 != nil {
			b = append(b, p.Tag56.Bytes()...)
		}
	}
	return b
}

// EndOfInitializationInfo carries MEiNa1: the cause of a controlled
// station (re)initialization (COI, 1 octet: bit 7 BS = caused by a local
// automatic behavior, bits 0-6 reason code).
type EndOfInitializationInfo struct {
	Ioa         IOA
	Reason      byte
	LocalChange bool
}

func decodeEndOfInitializationInfo(ioa IOA, body []byte) (*EndOfInitializationInfo, []byte, error) {
	if len(body) < 1 {
		return nil, nil, &ASDUParsingError{Reason: "truncated end-of-initialization"}
	}
	return &EndOfInitializationInfo{Ioa: ioa, Reason: body[0] & 0x7f, LocalChange: body[0]&0x80 != 0}, body[1:], nil
}

func (e *EndOfInitializationInfo) encode() []byte {
	v := e.Reason & 0x7f
	if e.LocalChange {
		v |= 0x80
	}
	return []byte{v}
}
