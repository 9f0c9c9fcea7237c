package wire

import (
	"github.com/haukened/rr-doh/internal/dns/domain"
)

// DNSCodec converts DNS messages to and from RFC 1035 wire format.
type DNSCodec interface {
	// Upstream Functions
	// These methods build the DoH request body and read the DoH response body.
	EncodeQuery(query domain.Message) ([]byte, error)
	DecodeResponse(data []byte) (domain.Message, error)

	// Listener Functions
	// These methods read datagrams from UDP clients and build their replies.
	DecodeQuery(data []byte) (domain.Message, error)
	EncodeResponse(resp domain.Message) ([]byte, error)
}
