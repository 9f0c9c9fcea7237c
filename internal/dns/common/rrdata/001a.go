package rrdata

import (
	"net/netip"

	"github.com/haukened/rr-doh/internal/dns/domain"
)

// ReadAddress4 consumes exactly 4 bytes and returns them in dotted-quad form.
func (r *Reader) ReadAddress4() (string, error) {
	if err := r.need("IPv4 address", 4); err != nil {
		return "", err
	}
	addr := netip.AddrFrom4([4]byte(r.buf[r.pos : r.pos+4]))
	r.pos += 4
	return addr.String(), nil
}

// EncodeAddress4 encodes a dotted-quad IPv4 address into A record data.
func EncodeAddress4(s string) ([]byte, error) {
	addr, err := netip.ParseAddr(s)
	if err != nil || !addr.Is4() {
		return nil, malformed("invalid A record IP: %s", s)
	}
	b := addr.As4()
	return b[:], nil
}

func decodeAData(r *Reader) (domain.RData, error) {
	addr, err := r.ReadAddress4()
	if err != nil {
		return domain.RData{}, err
	}
	return domain.RData{Kind: domain.RDataAddress, Address: addr}, nil
}
