package iec104

/*
Information objects in control direction (spec §4.3): commands issued by
the controlling station and mirrored back by the controlled station as
activation confirmation/termination. None of these types may appear in an
SQ=1 ASDU (spec §4.3 invariant): each command addresses exactly one IOA.
*/

// SingleCommandInfo carries CScNa1/CScTa1 (SCO, 1 octet): bit 0 the
// command state, bits 1-2 reserved, bits 3-6 the QOC qualifier, bit 7 S/E.
type SingleCommandInfo struct {
	Ioa      IOA
	Value    bool
	Qualify  QOC
	Tag56    *CP56Time2a
}

func decodeSingleCommandInfo(id TypeID, ioa IOA, body []byte) (*SingleCommandInfo, []byte, error) {
	if len(body) < 1 {
		return nil, nil, &ASDUParsingError{Reason: "truncated single command"}
	}
	sco := body[0]
	info := &SingleCommandInfo{
		Ioa:     ioa,
		Value:   sco&0x01 != 0,
		Qualify: QOC(sco) &^ 0x01,
	}
	rest := body[1:]
	if id == CScTa1 {
		t := ParseCP56Time2a(rest[:7])
		info.Tag56 = &t
		rest = rest[7:]
	}
	return info, rest, nil
}

func (s *SingleCommandInfo) encode(id TypeID) []byte {
	sco := byte(s.Qualify) &^ 0x01
	if s.Value {
		sco |= 0x01
	}
	b := []byte{sco}
	if id == CScTa1 && s.Tag56 != nil {
		b = append(b, s.Tag56.Bytes()...)
	}
	return b
}

// DoubleCommandInfo carries CDcNa1/CDcTa1 (DCO, 1 octet): bits 0-1 the
// double-point state, bits 2-6 QOC qualifier, bit 7 S/E.
type DoubleCommandInfo struct {
	Ioa     IOA
	Value   DoublePointState
	Qualify QOC
	Tag56   *CP56Time2a
}

func decodeDoubleCommandInfo(id TypeID, ioa IOA, body []byte) (*DoubleCommandInfo, []byte, error) {
	if len(body) < 1 {
		return nil, nil, &ASDUParsingError{Reason: "truncated double command"}
	}
	dco := body[0]
	info := &DoubleCommandInfo{
		Ioa:     ioa,
		Value:   DoublePointState(dco & 0x03),
		Qualify: QOC(dco) &^ 0x03,
	}
	rest := body[1:]
	if id == CDcTa1 {
		t := ParseCP56Time2a(rest[:7])
		info.Tag56 = &t
		rest = rest[7:]
	}
	return info, rest, nil
}

func (d *DoubleCommandInfo) encode(id TypeID) []byte {
	dco := byte(d.Qualify)&^0x03 | byte(d.Value&0x03)
	b := []byte{dco}
	if id == CDcTa1 && d.Tag56 != nil {
		b = append(b, d.Tag56.Bytes()...)
	}
	return b
}

// StepCommandInfo carries CRcNa1/CRcTa1 (RCO, 1 octet): bits 0-1 the
// step-command direction (1=lower, 2=higher), bits 2-6 QOC qualifier,
// bit 7 S/E.
type StepCommandInfo struct {
	Ioa     IOA
	Value   DoublePointState
	Qualify QOC
	Tag56   *CP56Time2a
}

func decodeStepCommandInfo(id TypeID, ioa IOA, body []byte) (*StepCommandInfo, []byte, error) {
	if len(body) < 1 {
		return nil, nil, &ASDUParsingError{Reason: "truncated regulating step command"}
	}
	rco := body[0]
	info := &StepCommandInfo{
		Ioa:     ioa,
		Value:   DoublePointState(rco & 0x03),
		Qualify: QOC(rco) &^ 0x03,
	}
	rest := body[1:]
	if id == CRcTa1 {
		t := ParseCP56Time2a(rest[:7])
		info.Tag56 = &t
		rest = rest[7:]
	}
	return info, rest, nil
}

func (s *StepCommandInfo) encode(id TypeID) []byte {
	rco := byte(s.Qualify)&^0x03 | byte(s.Value&0x03)
	b := []byte{rco}
	if id == CRcTa1 && s.Tag56 != nil {
		b = append(b, s.Tag56.Bytes()...)
	}
	return b
}

// SetpointNormalizedInfo carries CSeNa1/CSeTa1: NVA + QOS.
type SetpointNormalizedInfo struct {
	Ioa     IOA
	Value   float64
	Qualify QOS
	Tag56   *CP56Time2a
}

func decodeSetpointNormalizedInfo(id TypeID, ioa IOA, body []byte) (*SetpointNormalizedInfo, []byte, error) {
	if len(body) < 3 {
		return nil, nil, &ASDUParsingError{Reason: "truncated normalized setpoint"}
	}
	info := &SetpointNormalizedInfo{
		Ioa:     ioa,
		Value:   normalizedToFloat(parseLittleEndianInt16(body[0:2])),
		Qualify: QOS(body[2]),
	}
	rest := body[3:]
	if id == CSeTa1 {
		t := ParseCP56Time2a(rest[:7])
		info.Tag56 = &t
		rest = rest[7:]
	}
	return info, rest, nil
}

func (s *SetpointNormalizedInfo) encode(id TypeID) []byte {
	b := append(serializeLittleEndianUint16(uint16(floatToNormalized(s.Value))), byte(s.Qualify))
	if id == CSeTa1 && s.Tag56 != nil {
		b = append(b, s.Tag56.Bytes()...)
	}
	return b
}

// SetpointScaledInfo carries CSeNb1/CSeTb1: SVA + QOS.
type SetpointScaledInfo struct {
	Ioa     IOA
	Value   int16
	Qualify QOS
	Tag56   *CP56Time2a
}

func decodeSetpointScaledInfo(id TypeID, ioa IOA, body []byte) (*SetpointScaledInfo, []byte, error) {
	if len(body) < 3 {
		return nil, nil, &ASDUParsingError{Reason: "truncated scaled setpoint"}
	}
	info := &SetpointScaledInfo{
		Ioa:     ioa,
		Value:   parseLittleEndianInt16(body[0:2]),
		Qualify: QOS(body[2]),
	}
	rest := body[3:]
	if id == CSeTb1 {
		t := ParseCP56Time2a(rest[:7])
		info.Tag56 = &t
		rest = rest[7:]
	}
	return info, rest, nil
}

func (s *SetpointScaledInfo) encode(id TypeID) []byte {
	b := append(serializeLittleEndianUint16(uint16(s.Value)), byte(s.Qualify))
	if id == CSeTb1 && s.Tag56 != nil {
		b = append(b, s.Tag56.Bytes()...)
	}
	return b
}

// SetpointFloatInfo carries CSeNc1/CSeTc1: short float + QOS.
type SetpointFloatInfo struct {
	Ioa     IOA
	Value   float32
	Qualify QOS
	Tag56   *CP56Time2a
}

func decodeSetpointFloatInfo(id TypeID, ioa IOA, body []byte) (*SetpointFloatInfo, []byte, error) {
	if len(body) < 5 {
		return nil, nil, &ASDUParsingError{Reason: "truncated short float setpoint"}
	}
	info := &SetpointFloatInfo{
		Ioa:     ioa,
		Value:   parseFloat32(body[0:4]),
		Qualify: QOS(body[4]),
	}
	rest := body[5:]
	if id == CSeTc1 {
		t := ParseCP56Time2a(rest[:7])
		info.Tag56 = &t
		rest = rest[7:]
	}
	return info, rest, nil
}

func (s *SetpointFloatInfo) encode(id TypeID) []byte {
	b := append(serializeFloat32(s.Value), byte(s.Qualify))
	if id == CSeTc1 && s.Tag56 != nil {
		b = append(b, s.Tag56.Bytes()...)
	}
	return b
}

// BitstringCommandInfo carries CBoNa1/CBoTa1: a 32-bit command bitstring,
// no qualifier octet.
type BitstringCommandInfo struct {
	Ioa   IOA
	Value uint32
	Tag56 *CP56Time2a
}

func decodeBitstringCommandInfo(id TypeID, ioa IOA, body []byte) (*BitstringCommandInfo, []byte, error) {
	if len(body) < 4 {
		return nil, nil, &ASDUParsingError{Reason: "truncated bitstring command"}
	}
	info := &BitstringCommandInfo{Ioa: ioa, Value: parseLittleEndianUint32(body[0:4])}
	rest := body[4:]
	if id == CBoTa1 {
		t := ParseCP56Time2a(rest[:7])
		info.Tag56 = &t
		rest = rest[7:]
	}
	return info, rest, nil
}

func (b *BitstringCommandInfo) encode(id TypeID) []byte {
	out := serializeLittleEndianUint32(b.Value)
	if id == CBoTa1 && b.Tag56 != nil {
		out = append(out, b.Tag56.Bytes()...)
	}
	return out
}
