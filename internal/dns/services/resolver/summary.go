package resolver

import (
	"fmt"
	"net"

	"github.com/haukened/rr-doh/internal/dns/common/dnsname"
	"github.com/haukened/rr-doh/internal/dns/common/rrdata"
	"github.com/haukened/rr-doh/internal/dns/domain"
)

func addrString(a net.Addr) string {
	if a == nil {
		return ""
	}
	return a.String()
}

func questionList(qs []domain.Question) []string {
	out := make([]string, 0, len(qs))
	for _, q := range qs {
		out = append(out, fmt.Sprintf("(%s) %s", q.Type, q.Name))
	}
	return out
}

// zoneList returns the registrable domains asked about, for grouping log
// lines by site.
func zoneList(qs []domain.Question) []string {
	names := make([]string, 0, len(qs))
	for _, q := range qs {
		names = append(names, q.Name)
	}
	return dnsname.Apexes(names...)
}

func sectionCounts(m domain.Message, fields map[string]any) map[string]any {
	fields["qd"] = m.Count(domain.SectionQuestion)
	fields["an"] = m.Count(domain.SectionAnswer)
	fields["ns"] = m.Count(domain.SectionAuthority)
	fields["ar"] = m.Count(domain.SectionAdditional)
	return fields
}

func querySummary(q domain.Message) map[string]any {
	return sectionCounts(q, map[string]any{
		"query_id":  q.ID,
		"client":    addrString(q.Sender),
		"opcode":    q.Flags.OpCode.String(),
		"questions": questionList(q.Questions),
		"zones":     zoneList(q.Questions),
	})
}

func responseSummary(m domain.Message) map[string]any {
	return sectionCounts(m, map[string]any{
		"query_id":  m.ID,
		"client":    addrString(m.Recipient),
		"rcode":     m.Flags.RCode.String(),
		"truncated": m.Flags.Truncated,
		"questions": questionList(m.Questions),
		"zones":     zoneList(m.Questions),
	})
}

// recordFields merges the record header with its typed view fields.
func recordFields(section domain.Section, rr domain.ResourceRecord) map[string]any {
	view, err := rrdata.Decode(rr.Type, rr.Data)
	fields := view.Fields()
	fields["section"] = section.String()
	fields["name"] = rr.Name
	fields["type"] = rr.Type.String()
	fields["class"] = rr.Class.String()
	fields["ttl"] = rr.TTL
	fields["kind"] = view.Kind.String()
	if err != nil {
		fields["decode_error"] = err.Error()
	}
	return fields
}

// logRecords writes one debug entry per answer, authority and additional record.
func (r *Resolver) logRecords(m domain.Message) {
	for _, section := range []domain.Section{domain.SectionAnswer, domain.SectionAuthority, domain.SectionAdditional} {
		for _, rr := range m.Records(section) {
			fields := recordFields(section, rr)
			fields["query_id"] = m.ID
			r.logger.Debug(fields, "Upstream record")
		}
	}
}
