package domain

// HeaderSize is the fixed length of the DNS message header in bytes.
const HeaderSize = 12

// Header flag bit positions within the 16-bit flags word (RFC 1035 §4.1.1).
const (
	flagQR     = 1 << 15
	flagAA     = 1 << 10
	flagTC     = 1 << 9
	flagRD     = 1 << 8
	flagRA     = 1 << 7
	opcodeBits = 11
	zBits      = 4
)

// Flags holds the decoded second word of the DNS header.
type Flags struct {
	Response           bool
	OpCode             OpCode
	Authoritative      bool
	Truncated          bool
	RecursionDesired   bool
	RecursionAvailable bool
	Z                  uint8 // 3 reserved bits
	RCode              RCode
}

// Pack assembles the flags word exactly as laid out in the header.
// Fields wider than their wire width are masked.
func (f Flags) Pack() uint16 {
	var w uint16
	if f.Response {
		w |= flagQR
	}
	w |= uint16(f.OpCode&0x0F) << opcodeBits
	if f.Authoritative {
		w |= flagAA
	}
	if f.Truncated {
		w |= flagTC
	}
	if f.RecursionDesired {
		w |= flagRD
	}
	if f.RecursionAvailable {
		w |= flagRA
	}
	w |= uint16(f.Z&0x07) << zBits
	w |= uint16(f.RCode & 0x0F)
	return w
}

// UnpackFlags splits a header flags word into its fields.
func UnpackFlags(w uint16) Flags {
	return Flags{
		Response:           w&flagQR != 0,
		OpCode:             OpCode(w >> opcodeBits & 0x0F),
		Authoritative:      w&flagAA != 0,
		Truncated:          w&flagTC != 0,
		RecursionDesired:   w&flagRD != 0,
		RecursionAvailable: w&flagRA != 0,
		Z:                  uint8(w >> zBits & 0x07),
		RCode:              RCode(w & 0x0F),
	}
}
