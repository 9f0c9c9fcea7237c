package wire

import (
	"encoding/binary"
	"testing"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haukened/rr-doh/internal/dns/common/log"
	"github.com/haukened/rr-doh/internal/dns/common/rrdata"
	"github.com/haukened/rr-doh/internal/dns/domain"
)

func newTestCodec() *udpCodec {
	return NewUDPCodec(log.NewNoopLogger())
}

func mustRR(t *testing.T, s string) dns.RR {
	t.Helper()
	rr, err := dns.NewRR(s)
	require.NoError(t, err)
	return rr
}

func mustPack(t *testing.T, m *dns.Msg) []byte {
	t.Helper()
	b, err := m.Pack()
	require.NoError(t, err)
	return b
}

// newReply builds a response to a single A question for example.com.
func newReply(t *testing.T, answers, authority, additional []string) *dns.Msg {
	t.Helper()
	q := new(dns.Msg)
	q.SetQuestion("example.com.", dns.TypeA)
	q.Id = 0xbeef
	resp := new(dns.Msg)
	resp.SetReply(q)
	resp.RecursionAvailable = true
	for _, s := range answers {
		resp.Answer = append(resp.Answer, mustRR(t, s))
	}
	for _, s := range authority {
		resp.Ns = append(resp.Ns, mustRR(t, s))
	}
	for _, s := range additional {
		resp.Extra = append(resp.Extra, mustRR(t, s))
	}
	return resp
}

func TestUdpCodec_EncodeQuery(t *testing.T) {
	codec := newTestCodec()
	query := domain.NewQuery(0x1234, domain.NewQuestion("example.com", domain.RRTypeA))

	got, err := codec.EncodeQuery(query)
	require.NoError(t, err)

	want := new(dns.Msg)
	want.SetQuestion("example.com.", dns.TypeA)
	want.Id = 0x1234
	assert.Equal(t, mustPack(t, want), got)

	// Check flags (0x0100 = standard query with RD=1)
	assert.Equal(t, uint16(0x0100), binary.BigEndian.Uint16(got[2:4]))
}

func TestUdpCodec_EncodeQueryOmitsRecordSections(t *testing.T) {
	codec := newTestCodec()
	query := domain.NewQuery(7, domain.NewQuestion("example.com", domain.RRTypeMX))
	query.Answers = []domain.ResourceRecord{{Name: "example.com", Type: domain.RRTypeA, Class: domain.RRClassIN, Data: []byte{1, 2, 3, 4}}}
	query.Additional = query.Answers

	got, err := codec.EncodeQuery(query)
	require.NoError(t, err)

	assert.Equal(t, uint16(1), binary.BigEndian.Uint16(got[4:6]))
	assert.Equal(t, uint16(0), binary.BigEndian.Uint16(got[6:8]))
	assert.Equal(t, uint16(0), binary.BigEndian.Uint16(got[8:10]))
	assert.Equal(t, uint16(0), binary.BigEndian.Uint16(got[10:12]))
	assert.Len(t, got, 12+13+4)
}

func TestUdpCodec_EncodeQueryErrors(t *testing.T) {
	codec := newTestCodec()
	long := "this-is-a-very-long-label-that-exceeds-the-maximum-allowed-length-of-63-characters.com"

	_, err := codec.EncodeQuery(domain.NewQuery(1, domain.NewQuestion(long, domain.RRTypeA)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "label too long")
}

func TestUdpCodec_QueryRoundTrip(t *testing.T) {
	codec := newTestCodec()
	tests := []domain.Question{
		{Name: "example.com", Type: domain.RRTypeA, Class: domain.RRClassIN},
		{Name: "_sip._udp.example.org", Type: domain.RRTypeSRV, Class: domain.RRClassIN},
		{Name: "", Type: domain.RRTypeNS, Class: domain.RRClassIN},
		{Name: "version.bind", Type: domain.RRTypeTXT, Class: domain.RRClassCH},
		{Name: "unknown.example", Type: domain.RRType(65280), Class: domain.RRClassIN},
	}
	for _, q := range tests {
		t.Run(q.Name+"/"+q.Type.String(), func(t *testing.T) {
			data, err := codec.EncodeQuery(domain.NewQuery(4242, q))
			require.NoError(t, err)

			got, err := codec.DecodeQuery(data)
			require.NoError(t, err)
			assert.Equal(t, uint16(4242), got.ID)
			assert.True(t, got.Flags.RecursionDesired)
			assert.Equal(t, []domain.Question{q}, got.Questions)
		})
	}
}

func TestUdpCodec_DecodeQuery(t *testing.T) {
	codec := newTestCodec()

	t.Run("ignores EDNS additional record", func(t *testing.T) {
		m := new(dns.Msg)
		m.SetQuestion("example.com.", dns.TypeAAAA)
		m.Id = 99
		m.SetEdns0(1232, false)

		got, err := codec.DecodeQuery(mustPack(t, m))
		require.NoError(t, err)
		assert.Equal(t, uint16(99), got.ID)
		assert.Equal(t, []domain.Question{{Name: "example.com", Type: domain.RRTypeAAAA, Class: domain.RRClassIN}}, got.Questions)
		assert.Empty(t, got.Additional)
	})

	t.Run("too short", func(t *testing.T) {
		_, err := codec.DecodeQuery([]byte{0, 1, 0, 0})
		assert.ErrorIs(t, err, domain.ErrProtocol)
	})

	t.Run("response bit set", func(t *testing.T) {
		resp := newReply(t, nil, nil, nil)
		_, err := codec.DecodeQuery(mustPack(t, resp))
		assert.ErrorIs(t, err, domain.ErrProtocol)
	})

	t.Run("truncated question", func(t *testing.T) {
		m := new(dns.Msg)
		m.SetQuestion("example.com.", dns.TypeA)
		data := mustPack(t, m)
		_, err := codec.DecodeQuery(data[:len(data)-3])
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrMalformedRecord)
	})
}

func TestUdpCodec_DecodeResponseRejectsQueries(t *testing.T) {
	codec := newTestCodec()

	m := new(dns.Msg)
	m.SetQuestion("example.com.", dns.TypeA)
	_, err := codec.DecodeResponse(mustPack(t, m))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrProtocol)
	assert.Contains(t, err.Error(), "not a response")

	// regardless of remaining content
	_, err = codec.DecodeResponse([]byte{0x12, 0x34, 0x01, 0x00})
	assert.ErrorIs(t, err, domain.ErrProtocol)

	_, err = codec.DecodeResponse([]byte{0x12})
	assert.ErrorIs(t, err, domain.ErrProtocol)

	_, err = codec.DecodeResponse([]byte{0x12, 0x34, 0x81, 0x80, 0x00})
	assert.ErrorIs(t, err, domain.ErrProtocol)
}

func TestUdpCodec_DecodeResponse(t *testing.T) {
	codec := newTestCodec()
	resp := newReply(t,
		[]string{
			"example.com. 300 IN CNAME www.example.com.",
			"www.example.com. 300 IN A 93.184.216.34",
			"www.example.com. 300 IN AAAA 2606:2800:220:1:248:1893:25c8:1946",
			"example.com. 3600 IN MX 10 mail.example.com.",
			"_sip._udp.example.com. 60 IN SRV 10 20 5060 sip.example.com.",
			`example.com. 120 IN TXT "v=spf1 -all"`,
		},
		[]string{"example.com. 86400 IN NS a.iana-servers.net."},
		[]string{"a.iana-servers.net. 86400 IN A 199.43.135.53"},
	)
	resp.Rcode = dns.RcodeSuccess
	resp.Compress = true
	data := mustPack(t, resp)

	got, err := codec.DecodeResponse(data)
	require.NoError(t, err)

	assert.Equal(t, uint16(0xbeef), got.ID)
	assert.True(t, got.Flags.Response)
	assert.True(t, got.Flags.RecursionDesired)
	assert.True(t, got.Flags.RecursionAvailable)
	assert.Equal(t, domain.RCodeNoError, got.Flags.RCode)
	assert.Equal(t, []domain.Question{{Name: "example.com", Type: domain.RRTypeA, Class: domain.RRClassIN}}, got.Questions)
	require.Len(t, got.Answers, 6)
	require.Len(t, got.Authority, 1)
	require.Len(t, got.Additional, 1)

	cname := got.Answers[0]
	assert.Equal(t, "example.com", cname.Name)
	assert.Equal(t, domain.RRTypeCNAME, cname.Type)
	assert.Equal(t, uint32(300), cname.TTL)
	want, _ := rrdata.EncodeDomainName("www.example.com")
	assert.Equal(t, want, cname.Data, "compressed rdata must be expanded")

	a := got.Answers[1]
	assert.Equal(t, "www.example.com", a.Name)
	assert.Equal(t, []byte{93, 184, 216, 34}, a.Data)

	view, err := rrdata.Decode(got.Answers[3].Type, got.Answers[3].Data)
	require.NoError(t, err)
	assert.Equal(t, domain.MailExchange{Preference: 10, Exchange: "mail.example.com"}, view.MailExchange)

	view, err = rrdata.Decode(got.Answers[4].Type, got.Answers[4].Data)
	require.NoError(t, err)
	assert.Equal(t, domain.Service{Priority: 10, Weight: 20, Port: 5060, Target: "sip.example.com"}, view.Service)

	view, err = rrdata.Decode(got.Answers[5].Type, got.Answers[5].Data)
	require.NoError(t, err)
	assert.Equal(t, "v=spf1 -all", view.Text)

	ns := got.Authority[0]
	assert.Equal(t, "example.com", ns.Name)
	assert.Equal(t, domain.RRTypeNS, ns.Type)
	want, _ = rrdata.EncodeDomainName("a.iana-servers.net")
	assert.Equal(t, want, ns.Data, "compressed NS rdata must be expanded")

	assert.Equal(t, "a.iana-servers.net", got.Additional[0].Name)
	assert.Equal(t, []byte{199, 43, 135, 53}, got.Additional[0].Data)
}

func TestUdpCodec_DecodeResponseFlagsAndRCode(t *testing.T) {
	codec := newTestCodec()
	resp := newReply(t, nil, nil, nil)
	resp.Rcode = dns.RcodeNameError
	resp.Authoritative = true
	resp.Truncated = true
	resp.Opcode = dns.OpcodeNotify

	got, err := codec.DecodeResponse(mustPack(t, resp))
	require.NoError(t, err)
	assert.Equal(t, domain.RCodeNXDomain, got.Flags.RCode)
	assert.Equal(t, domain.OpCodeNotify, got.Flags.OpCode)
	assert.True(t, got.Flags.Authoritative)
	assert.True(t, got.Flags.Truncated)
	assert.Empty(t, got.Answers)
}

func TestUdpCodec_DecodeResponseZBits(t *testing.T) {
	codec := newTestCodec()
	data := mustPack(t, newReply(t, nil, nil, nil))
	data[3] |= 0x70

	got, err := codec.DecodeResponse(data)
	require.NoError(t, err)
	assert.Equal(t, uint8(7), got.Flags.Z)
}

func TestUdpCodec_DecodeResponseTruncation(t *testing.T) {
	codec := newTestCodec()
	answers := []string{
		"example.com. 300 IN A 93.184.216.34",
		"example.com. 300 IN A 93.184.216.35",
		"example.com. 300 IN A 93.184.216.36",
	}
	authority := []string{"example.com. 86400 IN NS a.iana-servers.net."}
	additional := []string{"a.iana-servers.net. 86400 IN A 199.43.135.53"}

	full := mustPack(t, newReply(t, answers, authority, additional))
	cutAfter := func(answerCount int, withAuthority bool) int {
		var ns []string
		if withAuthority {
			ns = authority
		}
		return len(mustPack(t, newReply(t, answers[:answerCount], ns, nil)))
	}

	tests := []struct {
		name           string
		cut            int
		wantAnswers    int
		wantAuthority  int
		wantAdditional int
	}{
		{"exactly after 0 of 3 answers", cutAfter(0, false), 0, 0, 0},
		{"exactly after 2 of 3 answers", cutAfter(2, false), 2, 0, 0},
		{"mid third answer", cutAfter(2, false) + 7, 2, 0, 0},
		{"mid authority", cutAfter(3, false) + 3, 3, 0, 0},
		{"mid additional", cutAfter(3, true) + 12, 3, 1, 0},
		{"complete", len(full), 3, 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := codec.DecodeResponse(full[:tt.cut])
			require.NoError(t, err)
			assert.Len(t, got.Answers, tt.wantAnswers)
			assert.Len(t, got.Authority, tt.wantAuthority)
			assert.Len(t, got.Additional, tt.wantAdditional)
			assert.Len(t, got.Questions, 1)
		})
	}
}

func TestUdpCodec_DecodeResponseFatalErrors(t *testing.T) {
	codec := newTestCodec()

	t.Run("truncated question is fatal", func(t *testing.T) {
		data := mustPack(t, newReply(t, nil, nil, nil))
		_, err := codec.DecodeResponse(data[:len(data)-1])
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrMalformedRecord)
	})

	t.Run("bad label type in answer is fatal", func(t *testing.T) {
		data := mustPack(t, newReply(t, []string{"example.com. 300 IN A 10.0.0.1"}, nil, nil))
		qEnd := len(mustPack(t, newReply(t, nil, nil, nil)))
		data[qEnd] = 0x40
		_, err := codec.DecodeResponse(data)
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrMalformedRecord)
	})
}

func TestUdpCodec_DecodeResponseKeepsMalformedNameRData(t *testing.T) {
	codec := newTestCodec()
	data := mustPack(t, newReply(t, []string{"example.com. 300 IN CNAME a.example.com."}, nil, nil))
	// shrink rdlength by one so the name loses its root label
	qEnd := len(mustPack(t, newReply(t, nil, nil, nil)))
	rdlenOff := qEnd + 13 + 8
	rdlen := binary.BigEndian.Uint16(data[rdlenOff:])
	binary.BigEndian.PutUint16(data[rdlenOff:], rdlen-1)
	data = data[:len(data)-1]

	got, err := codec.DecodeResponse(data)
	require.NoError(t, err)
	require.Len(t, got.Answers, 1)
	assert.Len(t, got.Answers[0].Data, int(rdlen-1))
}

func TestUdpCodec_DecodeResponseKeepsRDataWithTrailingBytes(t *testing.T) {
	codec := newTestCodec()
	data := mustPack(t, newReply(t, []string{"example.com. 300 IN MX 10 mail.example.com."}, nil, nil))
	// grow rdlength by one and append a stray byte after the exchange name
	qEnd := len(mustPack(t, newReply(t, nil, nil, nil)))
	rdlenOff := qEnd + 13 + 8
	rdlen := binary.BigEndian.Uint16(data[rdlenOff:])
	binary.BigEndian.PutUint16(data[rdlenOff:], rdlen+1)
	data = append(data, 0xAA)

	got, err := codec.DecodeResponse(data)
	require.NoError(t, err)
	require.Len(t, got.Answers, 1)
	assert.Equal(t, data[rdlenOff+2:], got.Answers[0].Data)
	assert.Len(t, got.Answers[0].Data, int(rdlen+1))

	out, err := codec.EncodeResponse(got)
	require.NoError(t, err)
	assert.Equal(t, data, out)
}

func TestUdpCodec_ResponseRoundTripKeepsDotsInLabels(t *testing.T) {
	codec := newTestCodec()
	orig := newReply(t, []string{`a\.b.example.com. 300 IN CNAME c\.d.example.com.`}, nil, nil)

	decoded, err := codec.DecodeResponse(mustPack(t, orig))
	require.NoError(t, err)
	require.Len(t, decoded.Answers, 1)
	assert.Equal(t, `a\.b.example.com`, decoded.Answers[0].Name)

	data, err := codec.EncodeResponse(decoded)
	require.NoError(t, err)
	var got dns.Msg
	require.NoError(t, got.Unpack(data))
	require.Len(t, got.Answer, 1)
	assert.Equal(t, orig.Answer[0].String(), got.Answer[0].String())
	assert.Equal(t, `a\.b.example.com.`, got.Answer[0].Header().Name)
}

func TestUdpCodec_EncodeResponse(t *testing.T) {
	codec := newTestCodec()
	resp := domain.Message{
		ID:    0xbeef,
		Flags: domain.Flags{Response: true, RecursionDesired: true, RecursionAvailable: true},
		Questions: []domain.Question{
			{Name: "example.com", Type: domain.RRTypeA, Class: domain.RRClassIN},
		},
		Answers: []domain.ResourceRecord{
			{Name: "example.com", Type: domain.RRTypeA, Class: domain.RRClassIN, TTL: 300, Data: []byte{93, 184, 216, 34}},
		},
	}

	data, err := codec.EncodeResponse(resp)
	require.NoError(t, err)

	var m dns.Msg
	require.NoError(t, m.Unpack(data))
	assert.Equal(t, uint16(0xbeef), m.Id)
	assert.True(t, m.Response)
	assert.True(t, m.RecursionAvailable)
	require.Len(t, m.Answer, 1)
	a, ok := m.Answer[0].(*dns.A)
	require.True(t, ok)
	assert.Equal(t, "93.184.216.34", a.A.String())
	assert.Equal(t, uint32(300), a.Hdr.Ttl)
	assert.Equal(t, "example.com.", a.Hdr.Name)
}

func TestUdpCodec_ResponseRoundTripThroughMiekg(t *testing.T) {
	codec := newTestCodec()
	orig := newReply(t,
		[]string{
			"example.com. 300 IN CNAME www.example.com.",
			"www.example.com. 300 IN A 93.184.216.34",
			`example.com. 120 IN TXT "first" "second"`,
			"example.com. 3600 IN MX 10 mail.example.com.",
			"example.com. 3600 IN SOA ns.icann.org. noc.dns.icann.org. 2024 7200 3600 1209600 3600",
		},
		[]string{"example.com. 86400 IN NS a.iana-servers.net."},
		nil,
	)
	orig.Compress = true

	decoded, err := codec.DecodeResponse(mustPack(t, orig))
	require.NoError(t, err)
	data, err := codec.EncodeResponse(decoded)
	require.NoError(t, err)

	var got dns.Msg
	require.NoError(t, got.Unpack(data))
	assert.Equal(t, orig.Id, got.Id)
	require.Len(t, got.Answer, len(orig.Answer))
	for i := range orig.Answer {
		assert.Equal(t, orig.Answer[i].String(), got.Answer[i].String())
	}
	require.Len(t, got.Ns, 1)
	assert.Equal(t, orig.Ns[0].String(), got.Ns[0].String())

	again, err := codec.DecodeResponse(data)
	require.NoError(t, err)
	assert.Equal(t, decoded, again)
}

func TestUdpCodec_EncodeResponseCountsMatchSections(t *testing.T) {
	codec := newTestCodec()
	rr := domain.ResourceRecord{Name: "example.com", Type: domain.RRTypeA, Class: domain.RRClassIN, TTL: 1, Data: []byte{1, 1, 1, 1}}
	resp := domain.Message{
		ID:         1,
		Flags:      domain.Flags{Response: true},
		Answers:    []domain.ResourceRecord{rr, rr},
		Authority:  []domain.ResourceRecord{rr},
		Additional: []domain.ResourceRecord{rr, rr, rr},
	}

	data, err := codec.EncodeResponse(resp)
	require.NoError(t, err)
	assert.Equal(t, uint16(0), binary.BigEndian.Uint16(data[4:6]))
	assert.Equal(t, uint16(2), binary.BigEndian.Uint16(data[6:8]))
	assert.Equal(t, uint16(1), binary.BigEndian.Uint16(data[8:10]))
	assert.Equal(t, uint16(3), binary.BigEndian.Uint16(data[10:12]))
}

func TestUdpCodec_EncodeResponseErrors(t *testing.T) {
	codec := newTestCodec()

	_, err := codec.EncodeResponse(domain.Message{
		Answers: []domain.ResourceRecord{{Name: "example.com", Data: make([]byte, 65536)}},
	})
	assert.ErrorContains(t, err, "resource record data too large")

	_, err = codec.EncodeResponse(domain.Message{
		Answers: []domain.ResourceRecord{{Name: "bad..name"}},
	})
	assert.ErrorIs(t, err, domain.ErrMalformedRecord)

	_, err = codec.EncodeResponse(domain.Message{
		Questions: []domain.Question{{Name: "bad..name"}},
	})
	assert.ErrorIs(t, err, domain.ErrMalformedRecord)
}

// captureLogger records debug entries.
type captureLogger struct {
	log.Logger
	debug []map[string]any
}

func (c *captureLogger) Debug(fields map[string]any, _ string) {
	c.debug = append(c.debug, fields)
}

func TestUdpCodec_DecodeResponseTruncationLogsPosition(t *testing.T) {
	logger := &captureLogger{Logger: log.NewNoopLogger()}
	codec := NewUDPCodec(logger)
	answers := []string{
		"example.com. 300 IN A 93.184.216.34",
		"example.com. 300 IN A 93.184.216.35",
		"example.com. 300 IN A 93.184.216.36",
	}
	full := mustPack(t, newReply(t, answers, nil, nil))
	cut := len(mustPack(t, newReply(t, answers[:2], nil, nil)))

	got, err := codec.DecodeResponse(full[:cut])
	require.NoError(t, err)
	require.Len(t, got.Answers, 2)

	require.Len(t, logger.debug, 1)
	entry := logger.debug[0]
	assert.Equal(t, "answer", entry["section"])
	assert.Equal(t, uint16(3), entry["expected"])
	assert.Equal(t, 2, entry["decoded"])
	assert.Equal(t, cut, entry["offset"])
	assert.Equal(t, cut, entry["size"])
}
