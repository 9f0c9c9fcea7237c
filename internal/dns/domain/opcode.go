package domain

import "fmt"

// OpCode is the 4-bit kind-of-query field of the DNS header.
type OpCode uint8

const (
	OpCodeQuery  OpCode = 0 // standard query
	OpCodeIQuery OpCode = 1 // inverse query (obsolete)
	OpCodeStatus OpCode = 2 // server status request
	OpCodeNotify OpCode = 4 // RFC 1996
	OpCodeUpdate OpCode = 5 // RFC 2136
)

// String returns the mnemonic for the opcode.
func (o OpCode) String() string {
	switch o {
	case OpCodeQuery:
		return "QUERY"
	case OpCodeIQuery:
		return "IQUERY"
	case OpCodeStatus:
		return "STATUS"
	case OpCodeNotify:
		return "NOTIFY"
	case OpCodeUpdate:
		return "UPDATE"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", o)
	}
}
