package domain

import (
	"encoding/hex"
	"fmt"
)

// RDataKind tags the payload carried by an RData view.
type RDataKind uint8

const (
	RDataOpaque RDataKind = iota
	RDataAddress
	RDataAddress6
	RDataDomainName
	RDataMailExchange
	RDataText
	RDataService
	RDataStartOfAuthority
)

// String returns the kind label used in logs.
func (k RDataKind) String() string {
	switch k {
	case RDataAddress:
		return "address"
	case RDataAddress6:
		return "address6"
	case RDataDomainName:
		return "domain_name"
	case RDataMailExchange:
		return "mail_exchange"
	case RDataText:
		return "text"
	case RDataService:
		return "service"
	case RDataStartOfAuthority:
		return "soa"
	default:
		return "opaque"
	}
}

// MailExchange is the payload of an MX record.
type MailExchange struct {
	Preference uint16
	Exchange   string
}

// Service is the payload of an SRV record (RFC 2782).
type Service struct {
	Priority uint16
	Weight   uint16
	Port     uint16
	Target   string
}

// StartOfAuthority is the payload of an SOA record.
type StartOfAuthority struct {
	MName   string
	RName   string
	Serial  uint32
	Refresh uint32
	Retry   uint32
	Expire  uint32
	Minimum uint32
}

// RData is a typed, read-only view of a record payload. It exists for
// logging and introspection; the wire bytes in ResourceRecord.Data stay
// authoritative. Exactly one payload field is meaningful, selected by Kind.
type RData struct {
	Kind         RDataKind
	Address      string // RDataAddress, RDataAddress6
	DomainName   string // RDataDomainName
	MailExchange MailExchange
	Text         string
	Service      Service
	SOA          StartOfAuthority
	Raw          []byte // RDataOpaque
}

// OpaqueRData wraps bytes that have no typed interpretation.
func OpaqueRData(b []byte) RData {
	return RData{Kind: RDataOpaque, Raw: b}
}

var rdataFields = map[RDataKind]func(RData) map[string]any{
	RDataOpaque: func(d RData) map[string]any {
		return map[string]any{"rdlength": len(d.Raw), "rdata": hex.EncodeToString(d.Raw)}
	},
	RDataAddress: func(d RData) map[string]any {
		return map[string]any{"address": d.Address}
	},
	RDataAddress6: func(d RData) map[string]any {
		return map[string]any{"address": d.Address}
	},
	RDataDomainName: func(d RData) map[string]any {
		return map[string]any{"domain_name": d.DomainName}
	},
	RDataMailExchange: func(d RData) map[string]any {
		return map[string]any{"preference": d.MailExchange.Preference, "exchange": d.MailExchange.Exchange}
	},
	RDataText: func(d RData) map[string]any {
		return map[string]any{"text": d.Text}
	},
	RDataService: func(d RData) map[string]any {
		return map[string]any{
			"priority": d.Service.Priority,
			"weight":   d.Service.Weight,
			"port":     d.Service.Port,
			"target":   d.Service.Target,
		}
	},
	RDataStartOfAuthority: func(d RData) map[string]any {
		return map[string]any{
			"mname":   d.SOA.MName,
			"rname":   d.SOA.RName,
			"serial":  d.SOA.Serial,
			"minimum": d.SOA.Minimum,
		}
	},
}

// Fields returns the type-specific log fields of the view.
// Kinds without a formatter are rendered as opaque bytes.
func (d RData) Fields() map[string]any {
	if f, ok := rdataFields[d.Kind]; ok {
		return f(d)
	}
	return rdataFields[RDataOpaque](d)
}

// String renders the view in presentation-like form.
func (d RData) String() string {
	switch d.Kind {
	case RDataAddress, RDataAddress6:
		return d.Address
	case RDataDomainName:
		return d.DomainName
	case RDataMailExchange:
		return fmt.Sprintf("%d %s", d.MailExchange.Preference, d.MailExchange.Exchange)
	case RDataText:
		return fmt.Sprintf("%q", d.Text)
	case RDataService:
		return fmt.Sprintf("%d %d %d %s", d.Service.Priority, d.Service.Weight, d.Service.Port, d.Service.Target)
	case RDataStartOfAuthority:
		return fmt.Sprintf("%s %s %d %d %d %d %d", d.SOA.MName, d.SOA.RName,
			d.SOA.Serial, d.SOA.Refresh, d.SOA.Retry, d.SOA.Expire, d.SOA.Minimum)
	default:
		return fmt.Sprintf("\\# %d %s", len(d.Raw), hex.EncodeToString(d.Raw))
	}
}
