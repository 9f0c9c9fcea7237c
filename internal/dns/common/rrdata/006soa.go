package rrdata

import (
	"encoding/binary"

	"github.com/haukened/rr-doh/internal/dns/domain"
)

// ReadStartOfAuthority reads the primary server name, the mailbox name and
// the five 32-bit timers of an SOA record.
func (r *Reader) ReadStartOfAuthority() (domain.StartOfAuthority, error) {
	var soa domain.StartOfAuthority
	var err error
	if soa.MName, err = r.ReadDomainName(); err != nil {
		return soa, err
	}
	if soa.RName, err = r.ReadDomainName(); err != nil {
		return soa, err
	}
	// serial, refresh, retry, expire, minimum
	for _, field := range []*uint32{&soa.Serial, &soa.Refresh, &soa.Retry, &soa.Expire, &soa.Minimum} {
		if *field, err = r.ReadUint32(); err != nil {
			return soa, err
		}
	}
	return soa, nil
}

// EncodeStartOfAuthority encodes SOA record data.
func EncodeStartOfAuthority(soa domain.StartOfAuthority) ([]byte, error) {
	b, err := EncodeDomainName(soa.MName)
	if err != nil {
		return nil, err
	}
	if b, err = AppendDomainName(b, soa.RName); err != nil {
		return nil, err
	}
	for _, v := range []uint32{soa.Serial, soa.Refresh, soa.Retry, soa.Expire, soa.Minimum} {
		b = binary.BigEndian.AppendUint32(b, v)
	}
	return b, nil
}

func decodeSOAData(r *Reader) (domain.RData, error) {
	soa, err := r.ReadStartOfAuthority()
	if err != nil {
		return domain.RData{}, err
	}
	return domain.RData{Kind: domain.RDataStartOfAuthority, SOA: soa}, nil
}
