package rrdata

import (
	"github.com/haukened/rr-doh/internal/dns/domain"
)

// Expand reads the payload of a name-bearing record (NS, CNAME, SOA, PTR,
// MX, SRV) from r and re-encodes it with every name spelled out, so the result
// no longer depends on the message it was read from. Other types are
// returned as the raw remaining bytes.
//
// The payload must be consumed exactly; bytes left over after the last field
// fail with domain.ErrMalformedRecord.
func Expand(rrType domain.RRType, r *Reader) ([]byte, error) {
	var (
		out []byte
		err error
	)
	switch rrType {
	case domain.RRTypeNS, domain.RRTypeCNAME, domain.RRTypePTR:
		var name string
		if name, err = r.ReadDomainName(); err == nil {
			out, err = EncodeDomainName(name)
		}
	case domain.RRTypeSOA:
		var soa domain.StartOfAuthority
		if soa, err = r.ReadStartOfAuthority(); err == nil {
			out, err = EncodeStartOfAuthority(soa)
		}
	case domain.RRTypeMX:
		var mx domain.MailExchange
		if mx, err = r.ReadMailExchange(); err == nil {
			out, err = EncodeMailExchange(mx)
		}
	case domain.RRTypeSRV:
		var srv domain.Service
		if srv, err = r.ReadService(); err == nil {
			out, err = EncodeService(srv)
		}
	default:
		return r.ReadBytes(r.Remaining())
	}
	if err != nil {
		return nil, err
	}
	if n := r.Remaining(); n != 0 {
		return nil, malformed("%d trailing bytes after %s data", n, rrType)
	}
	return out, nil
}
