// Package wire provides encoding and decoding of DNS messages.
// It handles the DNS wire format as specified in RFC 1035, for both the
// UDP listener side and the DoH upstream side.
package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/haukened/rr-doh/internal/dns/common/log"
	"github.com/haukened/rr-doh/internal/dns/common/rrdata"
	"github.com/haukened/rr-doh/internal/dns/domain"
)

const maxCount = 65535

// udpCodec implements the DNSCodec interface for standard DNS messages.
type udpCodec struct {
	logger log.Logger
}

// NewUDPCodec creates and returns a new instance of udpCodec using the provided logger.
// The logger is used for logging within the codec.
func NewUDPCodec(logger log.Logger) *udpCodec {
	return &udpCodec{
		logger: logger,
	}
}

// header is the fixed 12-byte message prologue.
type header struct {
	id             uint16
	flags          domain.Flags
	qd, an, ns, ar int
}

func writeHeader(buf *bytes.Buffer, h header) error {
	for _, n := range []int{h.qd, h.an, h.ns, h.ar} {
		if n > maxCount {
			return fmt.Errorf("too many records in section: %d (max %d)", n, maxCount)
		}
	}
	_ = binary.Write(buf, binary.BigEndian, h.id)
	_ = binary.Write(buf, binary.BigEndian, h.flags.Pack())
	_ = binary.Write(buf, binary.BigEndian, uint16(h.qd))
	_ = binary.Write(buf, binary.BigEndian, uint16(h.an))
	_ = binary.Write(buf, binary.BigEndian, uint16(h.ns))
	_ = binary.Write(buf, binary.BigEndian, uint16(h.ar))
	return nil
}

func writeName(buf *bytes.Buffer, name string) error {
	encoded, err := rrdata.EncodeDomainName(name)
	if err != nil {
		return err
	}
	buf.Write(encoded)
	return nil
}

func writeQuestion(buf *bytes.Buffer, q domain.Question) error {
	if err := writeName(buf, q.Name); err != nil {
		return fmt.Errorf("question %q: %w", q.Name, err)
	}
	_ = binary.Write(buf, binary.BigEndian, uint16(q.Type))
	_ = binary.Write(buf, binary.BigEndian, uint16(q.Class))
	return nil
}

func writeRecord(buf *bytes.Buffer, rr domain.ResourceRecord) error {
	if err := writeName(buf, rr.Name); err != nil {
		return fmt.Errorf("record %q: %w", rr.Name, err)
	}
	// Safely convert data length to uint16 with bounds check
	dataLen := len(rr.Data)
	if dataLen > maxCount {
		return fmt.Errorf("resource record data too large: %d bytes (max %d)", dataLen, maxCount)
	}
	_ = binary.Write(buf, binary.BigEndian, uint16(rr.Type))
	_ = binary.Write(buf, binary.BigEndian, uint16(rr.Class))
	_ = binary.Write(buf, binary.BigEndian, rr.TTL)
	_ = binary.Write(buf, binary.BigEndian, uint16(dataLen))
	buf.Write(rr.Data)
	return nil
}

// EncodeQuery serializes the header and question section of a query.
// Answer, authority and additional sections are never emitted for a query.
func (c *udpCodec) EncodeQuery(query domain.Message) ([]byte, error) {
	var buf bytes.Buffer

	err := writeHeader(&buf, header{id: query.ID, flags: query.Flags, qd: len(query.Questions)})
	if err != nil {
		return nil, err
	}
	for _, q := range query.Questions {
		if err := writeQuestion(&buf, q); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

// EncodeResponse serializes a complete message. The header counts always
// match the section lengths; names are written without compression.
func (c *udpCodec) EncodeResponse(resp domain.Message) ([]byte, error) {
	var buf bytes.Buffer

	err := writeHeader(&buf, header{
		id:    resp.ID,
		flags: resp.Flags,
		qd:    len(resp.Questions),
		an:    len(resp.Answers),
		ns:    len(resp.Authority),
		ar:    len(resp.Additional),
	})
	if err != nil {
		return nil, err
	}

	c.logger.Debug(map[string]any{
		"step": "header_written",
		"id":   resp.ID,
		"qd":   len(resp.Questions),
		"an":   len(resp.Answers),
		"ns":   len(resp.Authority),
		"ar":   len(resp.Additional),
	}, "Wrote DNS response header")

	for _, q := range resp.Questions {
		if err := writeQuestion(&buf, q); err != nil {
			return nil, err
		}
	}

	for _, section := range []domain.Section{domain.SectionAnswer, domain.SectionAuthority, domain.SectionAdditional} {
		for _, rr := range resp.Records(section) {
			if err := writeRecord(&buf, rr); err != nil {
				return nil, fmt.Errorf("%s section: %w", section, err)
			}
		}
	}

	c.logger.Debug(map[string]any{
		"step": "final_packet",
		"size": buf.Len(),
		"raw":  fmt.Sprintf("%x", buf.Bytes()),
	}, "Final encoded DNS response")

	return buf.Bytes(), nil
}

// readHeader reads id, flags and the four section counts.
func readHeader(r *rrdata.Reader) (header, error) {
	var h header
	id, err := r.ReadUint16()
	if err != nil {
		return h, err
	}
	flags, err := r.ReadUint16()
	if err != nil {
		return h, err
	}
	h.id = id
	h.flags = domain.UnpackFlags(flags)
	for _, n := range []*int{&h.qd, &h.an, &h.ns, &h.ar} {
		v, err := r.ReadUint16()
		if err != nil {
			return h, err
		}
		*n = int(v)
	}
	return h, nil
}

func readQuestion(r *rrdata.Reader) (domain.Question, error) {
	name, err := r.ReadDomainName()
	if err != nil {
		return domain.Question{}, err
	}
	qtype, err := r.ReadUint16()
	if err != nil {
		return domain.Question{}, err
	}
	qclass, err := r.ReadUint16()
	if err != nil {
		return domain.Question{}, err
	}
	return domain.Question{
		Name:  name,
		Type:  domain.RRType(qtype),
		Class: domain.RRClass(qclass),
	}, nil
}

func readQuestions(r *rrdata.Reader, count int) ([]domain.Question, error) {
	questions := make([]domain.Question, 0, count)
	for i := 0; i < count; i++ {
		q, err := readQuestion(r)
		if err != nil {
			return nil, fmt.Errorf("failed to decode question %d: %w", i, err)
		}
		questions = append(questions, q)
	}
	return questions, nil
}

// DecodeQuery parses the header and question section of a query datagram.
// Any records following the questions are ignored.
func (c *udpCodec) DecodeQuery(data []byte) (domain.Message, error) {
	if len(data) < domain.HeaderSize {
		return domain.Message{}, fmt.Errorf("%w: query too short: %d bytes", domain.ErrProtocol, len(data))
	}
	r := rrdata.NewMessageReader(data)
	h, err := readHeader(r)
	if err != nil {
		return domain.Message{}, fmt.Errorf("%w: %w", domain.ErrProtocol, err)
	}
	if h.flags.Response {
		return domain.Message{}, fmt.Errorf("%w: not a query", domain.ErrProtocol)
	}
	questions, err := readQuestions(r, h.qd)
	if err != nil {
		return domain.Message{}, err
	}
	return domain.Message{
		ID:        h.id,
		Flags:     h.flags,
		Questions: questions,
	}, nil
}

// DecodeResponse parses a complete response message.
//
// Questions must decode completely. If the bytes run out while reading a
// record, decoding stops and the records read so far are returned without
// an error; later sections are left empty.
func (c *udpCodec) DecodeResponse(data []byte) (domain.Message, error) {
	r := rrdata.NewMessageReader(data)

	id, err := r.ReadUint16()
	if err != nil {
		return domain.Message{}, fmt.Errorf("%w: response too short: %d bytes", domain.ErrProtocol, len(data))
	}
	word, err := r.ReadUint16()
	if err != nil {
		return domain.Message{}, fmt.Errorf("%w: response too short: %d bytes", domain.ErrProtocol, len(data))
	}
	flags := domain.UnpackFlags(word)
	if !flags.Response {
		return domain.Message{}, fmt.Errorf("%w: not a response", domain.ErrProtocol)
	}

	var counts [4]uint16
	for i := range counts {
		if counts[i], err = r.ReadUint16(); err != nil {
			return domain.Message{}, fmt.Errorf("%w: truncated header: %w", domain.ErrProtocol, err)
		}
	}

	msg := domain.Message{ID: id, Flags: flags}
	if msg.Questions, err = readQuestions(r, int(counts[0])); err != nil {
		return domain.Message{}, err
	}

	sections := []struct {
		section domain.Section
		dst     *[]domain.ResourceRecord
	}{
		{domain.SectionAnswer, &msg.Answers},
		{domain.SectionAuthority, &msg.Authority},
		{domain.SectionAdditional, &msg.Additional},
	}
	for i, s := range sections {
		records, complete, err := c.readRecords(r, int(counts[i+1]))
		if err != nil {
			return domain.Message{}, fmt.Errorf("%s section: %w", s.section, err)
		}
		*s.dst = records
		if !complete {
			c.logger.Debug(map[string]any{
				"id":       id,
				"section":  s.section.String(),
				"expected": counts[i+1],
				"decoded":  len(records),
				"offset":   r.Offset(),
				"size":     len(data),
			}, "Truncated DNS response, returning partial message")
			break
		}
	}

	return msg, nil
}

// readRecords reads up to count records. complete is false when the bytes
// ran out first; that is not an error.
func (c *udpCodec) readRecords(r *rrdata.Reader, count int) (records []domain.ResourceRecord, complete bool, err error) {
	for i := 0; i < count; i++ {
		rr, err := c.readRecord(r)
		if errors.Is(err, rrdata.ErrExhausted) {
			return records, false, nil
		}
		if err != nil {
			return nil, false, fmt.Errorf("failed to parse record %d: %w", i, err)
		}
		records = append(records, rr)
	}
	return records, true, nil
}

// readRecord extracts a single resource record. Name-bearing record data is
// rebuilt without compression pointers so it can be re-encoded on its own.
func (c *udpCodec) readRecord(r *rrdata.Reader) (domain.ResourceRecord, error) {
	name, err := r.ReadDomainName()
	if err != nil {
		return domain.ResourceRecord{}, err
	}
	typ, err := r.ReadUint16()
	if err != nil {
		return domain.ResourceRecord{}, err
	}
	class, err := r.ReadUint16()
	if err != nil {
		return domain.ResourceRecord{}, err
	}
	ttl, err := r.ReadUint32()
	if err != nil {
		return domain.ResourceRecord{}, err
	}
	rdLen, err := r.ReadUint16()
	if err != nil {
		return domain.ResourceRecord{}, err
	}
	rdr, err := r.Sub(int(rdLen))
	if err != nil {
		return domain.ResourceRecord{}, err
	}

	rrtype := domain.RRType(typ)
	data := rdr.Bytes()
	if rrtype.IsNameBearing() {
		expanded, err := rrdata.Expand(rrtype, rdr)
		if err != nil {
			// keep the payload as received; a short rdata is not a short message
			c.logger.Debug(map[string]any{
				"name":  name,
				"type":  rrtype.String(),
				"error": err.Error(),
			}, "Could not expand record data, forwarding raw bytes")
		} else {
			data = expanded
		}
	}

	return domain.ResourceRecord{
		Name:  name,
		Type:  rrtype,
		Class: domain.RRClass(class),
		TTL:   ttl,
		Data:  data,
	}, nil
}

var _ DNSCodec = &udpCodec{}
