package rrdata

import (
	"net/netip"

	"github.com/haukened/rr-doh/internal/dns/domain"
)

// ReadAddress6 consumes exactly 16 bytes and returns them in colon-hex form.
// IPv4-mapped addresses keep their IPv6 spelling (::ffff:a.b.c.d).
func (r *Reader) ReadAddress6() (string, error) {
	if err := r.need("IPv6 address", 16); err != nil {
		return "", err
	}
	addr := netip.AddrFrom16([16]byte(r.buf[r.pos : r.pos+16]))
	r.pos += 16
	return addr.String(), nil
}

// EncodeAddress6 encodes an IPv6 address into AAAA record data.
func EncodeAddress6(s string) ([]byte, error) {
	addr, err := netip.ParseAddr(s)
	if err != nil || !addr.Is6() {
		return nil, malformed("invalid AAAA record IP: %s", s)
	}
	b := addr.As16()
	return b[:], nil
}

func decodeAAAAData(r *Reader) (domain.RData, error) {
	addr, err := r.ReadAddress6()
	if err != nil {
		return domain.RData{}, err
	}
	return domain.RData{Kind: domain.RDataAddress6, Address: addr}, nil
}
