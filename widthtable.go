package iec104

import "fmt"

// elementShape describes the wire layout of one information element for a
// given TypeID: the width of the type-specific payload (value + quality,
// excluding any time tag) and the width of the trailing time tag, if any.
// sqLegal reports whether the type may legally appear in an SQ=1
// (sequence) ASDU; file-transfer and parameter types never do.
type elementShape struct {
	valueWidth int
	timeWidth  int
	sqLegal    bool
}

// shapeTable is indexed by TypeID and is the single source of truth for
// ASDU encode/decode sizing (spec §4.3's width table design note).
var shapeTable = map[TypeID]elementShape{
	MSpNa1: {1, 0, true},
	MSpTa1: {1, 3, false},
	MSpTb1: {1, 7, false},

	MDpNa1: {1, 0, true},
	MDpTa1: {1, 3, false},
	MDpTb1: {1, 7, false},

	MStNa1: {2, 0, true},
	MStTa1: {2, 3, false},
	MStTb1: {2, 7, false},

	MBoNa1: {5, 0, true},
	MBoTa1: {5, 3, false},
	MBoTb1: {5, 7, false},

	MMeNa1: {3, 0, true},
	MMeTa1: {3, 3, false},
	MMeTd1: {3, 7, false},
	MMeNd1: {2, 0, true},

	MMeNb1: {3, 0, true},
	MMeTb1: {3, 3, false},
	MMeTe1: {3, 7, false},

	MMeNc1: {5, 0, true},
	MMeTc1: {5, 3, false},
	MMeTf1: {5, 7, false},

	MItNa1: {5, 0, true},
	MItTa1: {5, 3, false},
	MItTb1: {5, 7, false},

	MPsNa1: {5, 0, true},

	MEpTa1: {3, 3, false},
	MEpTd1: {3, 7, false},
	MEpTb1: {4, 3, false},
	MEpTe1: {4, 7, false},
	MEpTc1: {4, 3, false},
	MEpTf1: {4, 7, false},

	CScNa1: {1, 0, false},
	CScTa1: {1, 7, false},
	CDcNa1: {1, 0, false},
	CDcTa1: {1, 7, false},
	CRcNa1: {1, 0, false},
	CRcTa1: {1, 7, false},
	CSeNa1: {3, 0, false},
	CSeTa1: {3, 7, false},
	CSeNb1: {3, 0, false},
	CSeTb1: {3, 7, false},
	CSeNc1: {5, 0, false},
	CSeTc1: {5, 7, false},
	CBoNa1: {4, 0, false},
	CBoTa1: {4, 7, false},

	MEiNa1: {1, 0, false},

	CIcNa1: {1, 0, false},
	CCiNa1: {1, 0, false},
	CRdNa1: {0, 0, false},
	CCsNa1: {0, 7, false},
	CTsNa1: {2, 0, false},
	CTsTa1: {2, 7, false},
	CRpNc1: {1, 0, false},
	CCdNa1: {2, 0, false},

	PMeNa1: {3, 0, false},
	PMeNb1: {3, 0, false},
	PMeNc1: {5, 0, false},
	PAcNa1: {1, 0, false},
}

// lookupShape returns the element layout for id, or an ASDUParsingError if
// id is not a recognized type.
func lookupShape(id TypeID) (elementShape, error) {
	s, ok := shapeTable[id]
	if !ok {
		return elementShape{}, &ASDUParsingError{Reason: fmt.Sprintf("unknown type identification %d", id)}
	}
	return s, nil
}

// elementWidth is the total on-wire width of one information element
// (value+quality+time), excluding its IOA.
func (s elementShape) elementWidth() int {
	return s.valueWidth + s.timeWidth
}
