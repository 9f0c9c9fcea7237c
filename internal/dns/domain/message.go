package domain

import "net"

// Message is a complete DNS message as carried over UDP or in a DoH body.
// This follows RFC 1035 §4.1 structure.
//
// Sender and Recipient are the datagram endpoints the message travels
// between. They are never encoded on the wire.
type Message struct {
	ID         uint16
	Flags      Flags
	Questions  []Question
	Answers    []ResourceRecord
	Authority  []ResourceRecord
	Additional []ResourceRecord

	Sender    net.Addr
	Recipient net.Addr
}

// Section identifies one of the four message sections.
type Section int

const (
	SectionQuestion Section = iota
	SectionAnswer
	SectionAuthority
	SectionAdditional
)

// String returns the section label used in logs.
func (s Section) String() string {
	switch s {
	case SectionQuestion:
		return "question"
	case SectionAnswer:
		return "answer"
	case SectionAuthority:
		return "authority"
	case SectionAdditional:
		return "additional"
	default:
		return "unknown"
	}
}

// Count returns the number of entries in the given section.
func (m Message) Count(s Section) int {
	switch s {
	case SectionQuestion:
		return len(m.Questions)
	case SectionAnswer:
		return len(m.Answers)
	case SectionAuthority:
		return len(m.Authority)
	case SectionAdditional:
		return len(m.Additional)
	default:
		return 0
	}
}

// Records returns the resource records of an answer, authority or additional
// section. The question section has no resource records and yields nil.
func (m Message) Records(s Section) []ResourceRecord {
	switch s {
	case SectionAnswer:
		return m.Answers
	case SectionAuthority:
		return m.Authority
	case SectionAdditional:
		return m.Additional
	default:
		return nil
	}
}

// IsError returns true if the response indicates an error condition.
func (m Message) IsError() bool {
	return m.Flags.RCode != RCodeNoError
}

// NewQuery builds a recursion-desired query for a single question.
func NewQuery(id uint16, q Question) Message {
	return Message{
		ID:        id,
		Flags:     Flags{OpCode: OpCodeQuery, RecursionDesired: true},
		Questions: []Question{q},
	}
}
