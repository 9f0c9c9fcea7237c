package rrdata

import "github.com/haukened/rr-doh/internal/dns/domain"

// decodeNameData decodes the single domain name carried by NS, CNAME and PTR
// records.
func decodeNameData(r *Reader) (domain.RData, error) {
	name, err := r.ReadDomainName()
	if err != nil {
		return domain.RData{}, err
	}
	return domain.RData{Kind: domain.RDataDomainName, DomainName: name}, nil
}
