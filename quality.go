package iec104

/*
QualityDescriptor (QDS, 1 octet) attaches validity flags to a measured or
counted value. Bit 0 carries OV, bits 1-3 are reserved (0), bits 4-7
carry BL/SB/NT/IV.

  bit 0   OV  overflow
  bit 4   BL  blocked
  bit 5   SB  substituted
  bit 6   NT  not topical
  bit 7   IV  invalid
*/
type QualityDescriptor byte

const (
	QDSOverflow     QualityDescriptor = 0x01
	QDSBlocked      QualityDescriptor = 0x10
	QDSSubstituted  QualityDescriptor = 0x20
	QDSNotTopical   QualityDescriptor = 0x40
	QDSInvalid      QualityDescriptor = 0x80
	QDSOK           QualityDescriptor = 0x00
	qdsReservedMask QualityDescriptor = 0x0e
)

func (q QualityDescriptor) Overflow() bool    { return q&QDSOverflow != 0 }
func (q QualityDescriptor) Blocked() bool     { return q&QDSBlocked != 0 }
func (q QualityDescriptor) Substituted() bool { return q&QDSSubstituted != 0 }
func (q QualityDescriptor) NotTopical() bool  { return q&QDSNotTopical != 0 }
func (q QualityDescriptor) Invalid() bool     { return q&QDSInvalid != 0 }

/*
SIQ (Single-point Information with Quality, 1 octet): bit 0 is the SPI
value, bits 1-3 reserved, bits 4-7 share the BL/SB/NT/IV layout of QDS.
*/
type SIQ byte

const siqSPIMask = 0x01

func NewSIQ(on bool, q QualityDescriptor) SIQ {
	v := SIQ(q &^ (qdsReservedMask | QDSOverflow))
	if on {
		v |= siqSPIMask
	}
	return v
}

func (s SIQ) Value() bool              { return s&siqSPIMask != 0 }
func (s SIQ) Quality() QualityDescriptor { return QualityDescriptor(s) &^ siqSPIMask }

/*
DIQ (Double-point Information with Quality, 1 octet): bits 0-1 are the DPI
state (0=intermediate, 1=off, 2=on, 3=indeterminate), bits 4-7 share the
BL/SB/NT/IV layout of QDS.
*/
type DIQ byte

// DoublePointState is the 2-bit state carried by a DIQ.
type DoublePointState byte

const (
	DPIIntermediate DoublePointState = 0
	DPIOff          DoublePointState = 1
	DPIOn           DoublePointState = 2
	DPIIndeterminate DoublePointState = 3

	diqStateMask = 0x03
)

func NewDIQ(state DoublePointState, q QualityDescriptor) DIQ {
	return DIQ(q&^(qdsReservedMask|QDSOverflow)) | DIQ(state&diqStateMask)
}

func (d DIQ) State() DoublePointState     { return DoublePointState(d & diqStateMask) }
func (d DIQ) Quality() QualityDescriptor  { return QualityDescriptor(d) &^ diqStateMask }

/*
QOI (Qualifier Of Interrogation, 1 octet): 20 = station interrogation,
21-36 = interrogation group 1-16.
*/
type QOI byte

const QOIStation QOI = 20

/*
QCC (Qualifier of Counter interrogation Command, 1 octet): bits 0-5
request group (0=all, 1-4=group 1-4), bits 6-7 select the freeze/reset
action (0=read, 1=freeze without reset, 2=freeze with reset, 3=reset).
*/
type QCC byte

type CounterFreeze byte

const (
	CounterRead               CounterFreeze = 0
	CounterFreezeWithoutReset CounterFreeze = 1
	CounterFreezeWithReset    CounterFreeze = 2
	CounterReset              CounterFreeze = 3
)

func NewQCC(group byte, action CounterFreeze) QCC {
	return QCC(group&0x3f) | QCC(action)<<6
}

func (q QCC) Group() byte           { return byte(q & 0x3f) }
func (q QCC) Freeze() CounterFreeze { return CounterFreeze(q >> 6) }

/*
QOC (Qualifier Of Command, 1 octet): bits 0-6 qualifier (0=no additional
definition, 1=short pulse, 2=long pulse, 3=persistent), bit 7 S/E
(select/execute). Command encoders overwrite the low bits that carry the
command state (bit 0 for SCO, bits 0-1 for DCO/RCO).
*/
type QOC byte

const (
	QOCNoAdditionalDefinition byte = 0
	QOCShortPulse             byte = 1
	QOCLongPulse              byte = 2
	QOCPersistent             byte = 3

	qocSelectMask = 0x80
)

func NewQOC(qualifier byte, selectNotExecute bool) QOC {
	v := QOC(qualifier & 0x7f)
	if selectNotExecute {
		v |= qocSelectMask
	}
	return v
}

func (q QOC) Qualifier() byte { return byte(q & 0x7f) }
func (q QOC) Select() bool    { return q&qocSelectMask != 0 }

/*
QOS (Qualifier Of a Set-point command, 1 octet): shares the same
qualifier/select layout as QOC.
*/
type QOS = QOC

/*
QPM (Qualifier of Parameter of Measured value, 1 octet): bits 0-5
parameter kind (1=threshold, 2=smoothing factor, 3=low limit for
transmission of measured values, others reserved), bit 6 LPC (local
parameter change), bit 7 POP (parameter operation).
*/
type QPM byte

const (
	QPMThreshold      byte = 1
	QPMSmoothingFactor byte = 2
	QPMLowLimit        byte = 3

	qpmLPCMask = 0x40
	qpmPOPMask = 0x80
)

func NewQPM(kind byte, localChange, notInOperation bool) QPM {
	v := QPM(kind & 0x3f)
	if localChange {
		v |= qpmLPCMask
	}
	if notInOperation {
		v |= qpmPOPMask
	}
	return v
}

func (q QPM) Kind() byte          { return byte(q & 0x3f) }
func (q QPM) LocalChange() bool   { return q&qpmLPCMask != 0 }
func (q QPM) NotInOperation() bool { return q&qpmPOPMask != 0 }

// QPA (Qualifier of Parameter Activation, 1 octet): 1 = act/deact of
// previously loaded parameters, 2 = act/deact of the persistent cyclic or
// periodic transmission, 3 = act/deact of parameters loaded with PMeNa1/b1/c1.
type QPA byte

const (
	QPAActivatePrevious  QPA = 1
	QPAActivateCyclic    QPA = 2
	QPAActivateParameter QPA = 3
)

// QRP (Qualifier of Reset Process command, 1 octet): 1 = general reset, 2 =
// reset pending remote changes.
type QRP byte

const (
	QRPGeneralReset          QRP = 1
	QRPResetPendingChanges   QRP = 2
)

/*
SCD (Status and Change Detection, 4 octets): 16 single-point states packed
low-to-high in octets 1-2 followed by 16 change-detection bits in octets
3-4, one bit pair per information object address offset.
*/
type SCD struct {
	Status uint16
	Change uint16
}

func ParseSCD(b []byte) SCD {
	return SCD{
		Status: parseLittleEndianUint16(b[0:2]),
		Change: parseLittleEndianUint16(b[2:4]),
	}
}

func (s SCD) Bytes() []byte {
	st := serializeLittleEndianUint16(s.Status)
	ch := serializeLittleEndianUint16(s.Change)
	return []byte{st[0], st[1], ch[0], ch[1]}
}

/*
BCR (Binary Counter Reading, 5 octets): 4-octet signed counter value
followed by a sequence-number/quality octet (bits 0-4 sequence number,
bit 5 carry, bit 6 counter adjusted, bit 7 invalid).
*/
type BCR struct {
	Value    int32
	Sequence byte
	Carry    bool
	Adjusted bool
	Invalid  bool
}

func ParseBCR(b []byte) BCR {
	return BCR{
		Value:    parseLittleEndianInt32(b[0:4]),
		Sequence: b[4] & 0x1f,
		Carry:    b[4]&0x20 != 0,
		Adjusted: b[4]&0x40 != 0,
		Invalid:  b[4]&0x80 != 0,
	}
}

func (c BCR) Bytes() []byte {
	v := serializeLittleEndianUint32(uint32(c.Value))
	flags := c.Sequence & 0x1f
	if c.Carry {
		flags |= 0x20
	}
	if c.Adjusted {
		flags |= 0x40
	}
	if c.Invalid {
		flags |= 0x80
	}
	return []byte{v[0], v[1], v[2], v[3], flags}
}

// StartEvents (SEP, 1 octet) packs the six protection-equipment start
// flags (general start, phase L1/L2/L3, earth, reverse) in bits 0-5.
// Quality is carried outside these bits.
type StartEvents byte

const (
	SEPGeneralStart StartEvents = 0x01
	SEPPhaseL1      StartEvents = 0x02
	SEPPhaseL2      StartEvents = 0x04
	SEPPhaseL3      StartEvents = 0x08
	SEPEarth        StartEvents = 0x10
	SEPReverse      StartEvents = 0x20
)

// OutputCircuits (OCI, 1 octet) packs the four output-circuit-info flags
// (general command, phase L1/L2/L3) in bits 0-3. Quality is carried in a
// separate octet.
type OutputCircuits byte

const (
	OCIGeneralCommand OutputCircuits = 0x01
	OCIPhaseL1        OutputCircuits = 0x02
	OCIPhaseL2        OutputCircuits = 0x04
	OCIPhaseL3        OutputCircuits = 0x08
)
