package resolver

import (
	"context"
	"net"

	"github.com/haukened/rr-doh/internal/dns/domain"
)

// UpstreamClient forwards a query to the upstream resolver. sender and
// recipient are stamped onto the returned response.
type UpstreamClient interface {
	Resolve(ctx context.Context, query domain.Message, sender, recipient net.Addr) (domain.Message, error)
}

type DNSResponder interface {
	// HandleQuery processes a decoded DNS query and returns the response to send.
	// The transport handles all network protocol details - the handler only sees domain objects.
	HandleQuery(ctx context.Context, query domain.Message) (domain.Message, error)
}

// ServerTransport defines the interface for DNS server transport implementations.
type ServerTransport interface {
	// Start begins listening for requests and handling them via the provided handler.
	Start(ctx context.Context, handler DNSResponder) error

	// Stop shuts down the transport, closing connections and cleaning up resources.
	Stop() error

	// Address returns the network address the transport is bound to.
	Address() string
}
