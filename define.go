package iec104

import (
	"encoding/binary"
	"math"

	"github.com/sirupsen/logrus"
)

var _lg = logrus.New()

// SetLogger replaces the package-level logger used by the connection,
// client and frame layers.
func SetLogger(lg *logrus.Logger) {
	_lg = lg
}

func serializeBigEndianUint16(i uint16) []byte {
	bytes := make([]byte, 2, 2)
	binary.BigEndian.PutUint16(bytes, i)
	return bytes
}

func parseLittleEndianUint16(x []byte) uint16 {
	return binary.LittleEndian.Uint16(x)
}

func parseLittleEndianInt16(x []byte) int16 {
	return int16(parseLittleEndianUint16(x))
}

func serializeLittleEndianUint16(i uint16) []byte {
	bytes := make([]byte, 2, 2)
	binary.LittleEndian.PutUint16(bytes, i)
	return bytes
}

func parseLittleEndianUint32(x []byte) uint32 {
	return binary.LittleEndian.Uint32(x)
}

func parseLittleEndianInt32(x []byte) int32 {
	return int32(parseLittleEndianUint32(x))
}

func serializeLittleEndianUint32(i uint32) []byte {
	bytes := make([]byte, 4, 4)
	binary.LittleEndian.PutUint32(bytes, i)
	return bytes
}

func serializeUint24(i uint32) []byte {
	x := serializeLittleEndianUint32(i)
	return x[:3]
}

func parseUint24(x []byte) uint32 {
	return parseLittleEndianUint32([]byte{x[0], x[1], x[2], 0x00})
}

func parseFloat32(x []byte) float32 {
	return math.Float32frombits(parseLittleEndianUint32(x))
}

func serializeFloat32(f float32) []byte {
	return serializeLittleEndianUint32(math.Float32bits(f))
}

/*
TypeID (Type Identification, 1 byte):
- value range:
  - 0 is not used;
  - 1-127 is used for standard IEC 101 definitions, there are presently 58 specific types defined:
    | Type ID | Group                                    |
    | 1-40    | Process information in monitor direction |
    | 45-51   | Process information in control direction |
    | 70      | System information in monitor direction  |
    | 100-107 | System information in control direction  |
    | 110-113 | Parameter in control direction           |
    | 120-127 | File transfer                            |
  - 128-135 is reserved for message routing;
  - 136-255 for special use.
*/
type TypeID uint8

const (
	// Process information in monitor direction, no time tag.

	MSpNa1 TypeID = 1  // single-point information                         [遥信 - 单点 - 不带时标]
	MDpNa1 TypeID = 3  // double-point information                         [遥信 - 双点 - 不带时标]
	MStNa1 TypeID = 5  // step position information                        [遥信 - 步位置 - 不带时标]
	MBoNa1 TypeID = 7  // bitstring of 32 bit                              [遥信 - 32 位串 - 不带时标]
	MMeNa1 TypeID = 9  // measured value, normalized value                 [遥测 - 归一化值 - 不带时标]
	MMeNb1 TypeID = 11 // measured value, scaled value                     [遥测 - 标度化值 - 不带时标]
	MMeNc1 TypeID = 13 // measured value, short floating point number      [遥测 - 短浮点数 - 不带时标]
	MItNa1 TypeID = 15 // integrated totals                                [电度 - 累计量 - 不带时标]
	MPsNa1 TypeID = 20 // packed single-point information with SCD         [遥信 - 带变位检出的成组单点 - 不带时标]
	MMeNd1 TypeID = 21 // measured value, normalized value without quality [遥测 - 归一化值 - 不带时标 - 不带品质描述]

	// Process information in monitor direction, CP24Time2a time tag.

	MSpTa1 TypeID = 2  // single-point information with time tag            [遥信 - 单点 - 3 字节时标]
	MDpTa1 TypeID = 4  // double-point information with time tag            [遥信 - 双点 - 3 字节时标]
	MStTa1 TypeID = 6  // step position information with time tag
	MBoTa1 TypeID = 8  // bitstring of 32 bit with time tag
	MMeTa1 TypeID = 10 // measured value, normalized value with time tag
	MMeTb1 TypeID = 12 // measured value, scaled value with time tag
	MMeTc1 TypeID = 14 // measured value, short floating point with time tag
	MItTa1 TypeID = 16 // integrated totals with time tag
	MEpTa1 TypeID = 17 // event of protection equipment with time tag
	MEpTb1 TypeID = 18 // packed start events of protection equipment with time tag
	MEpTc1 TypeID = 19 // packed output circuit information with time tag

	// Process telegrams with long time tag (CP56Time2a, 7 bytes).

	MSpTb1 TypeID = 30 // single-point information with time tag CP56Time2a
	MDpTb1 TypeID = 31 // double-point information with time tag CP56Time2a
	MStTb1 TypeID = 32 // step position information with time tag CP56Time2a
	MBoTb1 TypeID = 33 // bitstring of 32 bit with time tag CP56Time2a
	MMeTd1 TypeID = 34 // measured value, normalized value with time tag CP56Time2a
	MMeTe1 TypeID = 35 // measured value, scaled value with time tag CP56Time2a
	MMeTf1 TypeID = 36 // measured value, short floating point with time tag CP56Time2a
	MItTb1 TypeID = 37 // integrated totals with time tag CP56Time2a
	MEpTd1 TypeID = 38 // event of protection equipment with time tag CP56Time2a
	MEpTe1 TypeID = 39 // packed start events of protection equipment with time tag CP56Time2a
	MEpTf1 TypeID = 40 // packed output circuit information with time tag CP56Time2a

	// Process information in control direction, no time tag. [遥控]

	CScNa1 TypeID = 45 // single command
	CDcNa1 TypeID = 46 // double command
	CRcNa1 TypeID = 47 // regulating step command
	CSeNa1 TypeID = 48 // set-point command, normalized value
	CSeNb1 TypeID = 49 // set-point command, scaled value
	CSeNc1 TypeID = 50 // set-point command, short floating point number
	CBoNa1 TypeID = 51 // bitstring of 32 bit command

	// Process information in control direction, with CP56Time2a time tag.

	CScTa1 TypeID = 58 // single command with time tag
	CDcTa1 TypeID = 59 // double command with time tag
	CRcTa1 TypeID = 60 // regulating step command with time tag
	CSeTa1 TypeID = 61 // set-point command, normalized value with time tag
	CSeTb1 TypeID = 62 // set-point command, scaled value with time tag
	CSeTc1 TypeID = 63 // set-point command, short floating point with time tag
	CBoTa1 TypeID = 64 // bitstring of 32 bit command with time tag

	// System information in monitor direction.

	MEiNa1 TypeID = 70 // end of initialization [初始化结束]

	// System information in control direction. [系统信息 - 控制方向]

	CIcNa1 TypeID = 100 // general interrogation command [召唤全数据]
	CCiNa1 TypeID = 101 // counter interrogation command [召唤全电度]
	CRdNa1 TypeID = 102 // read command                  [读命令]
	CCsNa1 TypeID = 103 // clock synchronization command [时钟同步]
	CTsNa1 TypeID = 104 // test command                  [测试命令]
	CRpNc1 TypeID = 105 // reset process command         [复位进程]
	CCdNa1 TypeID = 106 // delay acquisition command     [延时获得]
	CTsTa1 TypeID = 107 // test command with time tag

	// Parameter in control direction.

	PMeNa1 TypeID = 110 // parameter of measured value, normalized value
	PMeNb1 TypeID = 111 // parameter of measured value, scaled value
	PMeNc1 TypeID = 112 // parameter of measured value, short floating point
	PAcNa1 TypeID = 113 // parameter activation

	// File transfer. Catalogued only, not required for core compliance (see spec §6.1).

	FFile   TypeID = 120 // file ready
	FSecti  TypeID = 121 // section ready
	FScq    TypeID = 122 // call directory, select file, call file, call section
	FFrlst  TypeID = 123 // last section, last segment
	FSegmt  TypeID = 124 // ack file, ack section
	FSegmt2 TypeID = 125 // segment
	FDir    TypeID = 126 // directory
	FAfq    TypeID = 127 // query log
)

/*
SQ (Structure Qualifier, 1 bit) specifies how information objects or elements are addressed.
- SQ=0 (false): each ASDU contains one or more equal information objects, each with its own IOA.
- SQ=1  (true): each ASDU contains just one information object address, followed by N elements
  addressed ioa, ioa+1, ..., ioa+N-1.
*/
type SQ bool

// NOO (Number of Objects/Elements, 7 bits).
type NOO = uint8

// T (Test, 1 bit) marks ASDUs generated under test conditions.
type T bool

// PN (Positive/Negative, 1 bit) indicates positive or negative confirmation
// of an activation mirrored in the monitor direction.
type PN bool

// COT (Cause of Transmission, 6 bits) controls message routing.
type COT uint8

const (
	CotPer, CotCyc COT = 1, 1 // periodic, cyclic
	CotBack        COT = 2    // background scan
	CotSpt         COT = 3    // spontaneous
	CotInit        COT = 4    // initialized
	CotReq         COT = 5    // request or requested
	CotAct         COT = 6    // activation
	CotActCon      COT = 7    // activation confirmation
	CotDeact       COT = 8    // deactivation
	CotDeactCon    COT = 9    // deactivation confirmation
	CotActTerm     COT = 10   // activation termination
	CotRetRem      COT = 11   // return information caused by a remote command
	CotRetLoc      COT = 12   // return information caused by a local command
	CotFile        COT = 13   // file transfer
	CotInrogen     COT = 20   // interrogated by general interrogation
	CotInro1       COT = 21
	CotInro2       COT = 22
	CotInro3       COT = 23
	CotInro4       COT = 24
	CotInro5       COT = 25
	CotInro6       COT = 26
	CotInro7       COT = 27
	CotInro8       COT = 28
	CotInro9       COT = 29
	CotInro10      COT = 30
	CotInro11      COT = 31
	CotInro12      COT = 32
	CotInro13      COT = 33
	CotInro14      COT = 34
	CotInro15      COT = 35
	CotInro16      COT = 36 // interrogated by interrogation group16
	CotReqcogen    COT = 37 // interrogated by counter general interrogation
	CotReqco1      COT = 38 // interrogated by interrogation counter group 1
	CotReqco2      COT = 39
	CotReqco3      COT = 40
	CotReqco4      COT = 41
	CotUnType      COT = 44 // unknown type
	CotUnCause     COT = 45 // unknown cause
	CotUnAsduAddr  COT = 46 // unknown asdu address
	CotUnObjAddr   COT = 47 // unknown object address
)

// IOA is an Information Object Address: up to 3 octets, width governed by
// ConnectionParameters.SizeOfIOA.
type IOA uint32

// COA is the Common Address of ASDU: 1 or 2 octets, width governed by
// ConnectionParameters.SizeOfCA. All-ones is the broadcast value for the
// configured width.
type COA uint16

// BroadcastCOA returns the all-ones common address for the configured
// SizeOfCA width.
func BroadcastCOA(sizeOfCA int) COA {
	if sizeOfCA == 1 {
		return 0xFF
	}
	return 0xFFFF
}
