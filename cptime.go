package iec104

import "time"

/*
CP16Time2a is a 2-octet binary time: milliseconds elapsed within the
current minute (0..59999), no validity/carry bits.
*/
type CP16Time2a uint16

// ParseCP16Time2a decodes 2 octets into a millisecond-within-minute count.
func ParseCP16Time2a(b []byte) CP16Time2a {
	return CP16Time2a(parseLittleEndianUint16(b))
}

// Bytes encodes the millisecond count into 2 octets.
func (t CP16Time2a) Bytes() []byte {
	return serializeLittleEndianUint16(uint16(t))
}

/*
CP24Time2a is a 3-octet time tag: millisecond (0..59999) followed by a
6-bit minute with an IV (invalid) flag in the top bit of octet 3.

  octet 1-2: milliseconds, little-endian
  octet 3  : bit 0-5 minute, bit 7 IV
*/
type CP24Time2a struct {
	Millisecond int
	Minute      int
	Invalid     bool
}

// ParseCP24Time2a decodes 3 octets per spec §3.5.
func ParseCP24Time2a(b []byte) CP24Time2a {
	ms := parseLittleEndianUint16(b[0:2])
	return CP24Time2a{
		Millisecond: int(ms),
		Minute:      int(b[2] & 0x3f),
		Invalid:     b[2]&0x80 != 0,
	}
}

// Bytes encodes the time tag into 3 octets.
func (t CP24Time2a) Bytes() []byte {
	ms := serializeLittleEndianUint16(uint16(t.Millisecond))
	m := byte(t.Minute & 0x3f)
	if t.Invalid {
		m |= 0x80
	}
	return []byte{ms[0], ms[1], m}
}

/*
CP56Time2a is a 7-octet absolute time tag: millisecond, minute+IV, hour+SU
(summer time), day-of-month+day-of-week, month, year (2-digit).

  octet 1-2: milliseconds, little-endian (0..59999)
  octet 3  : bit 0-5 minute, bit 7 IV
  octet 4  : bit 0-4 hour,   bit 7 SU (summer time)
  octet 5  : bit 0-4 day of month (1..31), bit 5-7 day of week (1..7)
  octet 6  : bit 0-3 month (1..12)
  octet 7  : bit 0-6 year (0..99)
*/
type CP56Time2a struct {
	Millisecond int
	Minute      int
	Invalid     bool
	Hour        int
	Summertime  bool
	Day         int
	DayOfWeek   int
	Month       int
	Year        int
}

// ParseCP56Time2a decodes 7 octets per spec §3.5.
func ParseCP56Time2a(b []byte) CP56Time2a {
	ms := parseLittleEndianUint16(b[0:2])
	return CP56Time2a{
		Millisecond: int(ms),
		Minute:      int(b[2] & 0x3f),
		Invalid:     b[2]&0x80 != 0,
		Hour:        int(b[3] & 0x1f),
		Summertime:  b[3]&0x80 != 0,
		Day:         int(b[4] & 0x1f),
		DayOfWeek:   int(b[4]>>5) & 0x07,
		Month:       int(b[5] & 0x0f),
		Year:        int(b[6] & 0x7f),
	}
}

// Bytes encodes the time tag into 7 octets.
func (t CP56Time2a) Bytes() []byte {
	ms := serializeLittleEndianUint16(uint16(t.Millisecond))
	minute := byte(t.Minute & 0x3f)
	if t.Invalid {
		minute |= 0x80
	}
	hour := byte(t.Hour & 0x1f)
	if t.Summertime {
		hour |= 0x80
	}
	day := byte(t.Day&0x1f) | byte(t.DayOfWeek&0x07)<<5
	month := byte(t.Month & 0x0f)
	year := byte(t.Year & 0x7f)
	return []byte{ms[0], ms[1], minute, hour, day, month, year}
}

// Time converts the tag to a time.Time in loc, placing the two-digit year
// in the 2000s (the wire format only carries the last two digits).
// Invalid and Summertime are not reflected in the result.
func (t CP56Time2a) Time(loc *time.Location) time.Time {
	century := 2000
	return time.Date(century+t.Year, time.Month(t.Month), t.Day, t.Hour, t.Minute,
		t.Millisecond/1000, (t.Millisecond%1000)*1e6, loc)
}

// CP56Time2aFromTime builds a CP56Time2a from a wall-clock time.Time.
func CP56Time2aFromTime(t time.Time) CP56Time2a {
	return CP56Time2a{
		Millisecond: t.Second()*1000 + t.Nanosecond()/1e6,
		Minute:      t.Minute(),
		Hour:        t.Hour(),
		Day:         t.Day(),
		DayOfWeek:   int(t.Weekday()+6)%7 + 1,
		Month:       int(t.Month()),
		Year:        t.Year() % 100,
	}
}
