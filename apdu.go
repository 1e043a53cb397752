package iec104

/*
APDU (Application Protocol Data Unit): an APCI, optionally followed by an
ASDU when the APCI is an I-frame.

  | <-   8 bits    -> |  -----    -----
  | Start Byte (Ox68) |    |        |
  | Length of APDU    |    |        |
  | Control Field 1   |   APCI     APDU
  | Control Field 2   |    |        |
  | Control Field 3   |    |        |
  | Control Field 4   |    |        |
  | ASDU (I-frame only)    |        |
  | <-   8 bits    -> |  -----    -----
*/
type APDU struct {
	Frame Frame
	ASDU  *ASDU
}

// ParseAPDU decodes body, the bytes following the start byte and length
// octet of one received frame, into an APDU. For I-frames, the ASDU
// immediately follows the 4-octet control field and is decoded per params.
func ParseAPDU(params ConnectionParameters, body []byte) (*APDU, error) {
	if len(body) < 4 {
		return nil, &FramingError{Reason: "apdu shorter than control field"}
	}
	apci := &APCI{}
	frame, err := apci.Parse(body[:4])
	if err != nil {
		return nil, err
	}
	apdu := &APDU{Frame: frame}
	if frame.Type() != FrameTypeI {
		return apdu, nil
	}
	asdu := &ASDU{}
	if err := asdu.Parse(params, body[4:]); err != nil {
		return nil, err
	}
	apdu.ASDU = asdu
	return apdu, nil
}
