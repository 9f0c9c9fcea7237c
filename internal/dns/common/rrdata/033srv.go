package rrdata

import (
	"encoding/binary"

	"github.com/haukened/rr-doh/internal/dns/domain"
)

// ReadService reads priority, weight and port followed by the target name.
func (r *Reader) ReadService() (domain.Service, error) {
	var fields [3]uint16
	for i := range fields {
		v, err := r.ReadUint16()
		if err != nil {
			return domain.Service{}, err
		}
		fields[i] = v
	}
	target, err := r.ReadDomainName()
	if err != nil {
		return domain.Service{}, err
	}
	return domain.Service{
		Priority: fields[0],
		Weight:   fields[1],
		Port:     fields[2],
		Target:   target,
	}, nil
}

// EncodeService encodes SRV record data.
func EncodeService(s domain.Service) ([]byte, error) {
	b := make([]byte, 6, 6+len(s.Target)+2)
	binary.BigEndian.PutUint16(b[0:], s.Priority)
	binary.BigEndian.PutUint16(b[2:], s.Weight)
	binary.BigEndian.PutUint16(b[4:], s.Port)
	return AppendDomainName(b, s.Target)
}

func decodeSRVData(r *Reader) (domain.RData, error) {
	srv, err := r.ReadService()
	if err != nil {
		return domain.RData{}, err
	}
	return domain.RData{Kind: domain.RDataService, Service: srv}, nil
}
