package rrdata

import (
	"encoding/binary"

	"github.com/haukened/rr-doh/internal/dns/domain"
)

// ReadMailExchange reads a 16-bit preference followed by the exchange name.
func (r *Reader) ReadMailExchange() (domain.MailExchange, error) {
	pref, err := r.ReadUint16()
	if err != nil {
		return domain.MailExchange{}, err
	}
	exchange, err := r.ReadDomainName()
	if err != nil {
		return domain.MailExchange{}, err
	}
	return domain.MailExchange{Preference: pref, Exchange: exchange}, nil
}

// EncodeMailExchange encodes MX record data.
func EncodeMailExchange(mx domain.MailExchange) ([]byte, error) {
	b := binary.BigEndian.AppendUint16(nil, mx.Preference)
	return AppendDomainName(b, mx.Exchange)
}

func decodeMXData(r *Reader) (domain.RData, error) {
	mx, err := r.ReadMailExchange()
	if err != nil {
		return domain.RData{}, err
	}
	return domain.RData{Kind: domain.RDataMailExchange, MailExchange: mx}, nil
}
