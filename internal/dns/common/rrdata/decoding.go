package rrdata

import (
	"github.com/haukened/rr-doh/internal/dns/domain"
)

var decoders = map[domain.RRType]func(*Reader) (domain.RData, error){
	domain.RRTypeA:     decodeAData,    // 1
	domain.RRTypeNS:    decodeNameData, // 2
	domain.RRTypeCNAME: decodeNameData, // 5
	domain.RRTypeSOA:   decodeSOAData,  // 6
	domain.RRTypePTR:   decodeNameData, // 12
	domain.RRTypeMX:    decodeMXData,   // 15
	domain.RRTypeTXT:   decodeTXTData,  // 16
	domain.RRTypeAAAA:  decodeAAAAData, // 28
	domain.RRTypeSRV:   decodeSRVData,  // 33
}

// Decode builds the typed view of a record payload. Types without a decoder
// yield an opaque view and no error. When decoding fails the opaque view is
// returned together with the error.
func Decode(rrType domain.RRType, data []byte) (domain.RData, error) {
	dec, ok := decoders[rrType]
	if !ok {
		return domain.OpaqueRData(data), nil
	}
	view, err := dec(NewReader(data))
	if err != nil {
		return domain.OpaqueRData(data), err
	}
	return view, nil
}
