package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/haukened/rr-doh/internal/dns/common/log"
	"github.com/haukened/rr-doh/internal/dns/gateways/wire"
	"github.com/haukened/rr-doh/internal/dns/services/resolver"
)

// UDPTransport implements resolver.ServerTransport for standard DNS over UDP (RFC 1035).
// It handles UDP socket management, packet reception/transmission, and wire format
// conversion while delegating DNS logic to the service layer.
//
// Each datagram is processed on its own goroutine. At most maxInflight run at
// once; when every slot is taken the read loop waits for one to free up.
type UDPTransport struct {
	addr   string
	codec  wire.DNSCodec
	logger log.Logger
	sem    chan struct{}

	mu       sync.RWMutex
	conn     *net.UDPConn
	state    State
	cancel   context.CancelFunc
	stopWait func() bool
	loopDone chan struct{}
}

// NewUDPTransport creates a new UDP transport instance. maxInflight <= 0
// selects DefaultMaxInflight.
func NewUDPTransport(addr string, codec wire.DNSCodec, logger log.Logger, maxInflight int) *UDPTransport {
	if maxInflight <= 0 {
		maxInflight = DefaultMaxInflight
	}
	return &UDPTransport{
		addr:   addr,
		codec:  codec,
		logger: logger,
		sem:    make(chan struct{}, maxInflight),
	}
}

// Start binds the UDP socket and starts the packet handling loop.
// If the bind fails the transport stays unbound and holds no resources.
// Cancelling ctx has the same effect as calling Stop.
func (t *UDPTransport) Start(ctx context.Context, handler resolver.DNSResponder) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch t.state {
	case StateUnbound:
	case StateClosed:
		return fmt.Errorf("UDP transport closed")
	default:
		return fmt.Errorf("UDP transport already running")
	}

	// Parse and bind to UDP address
	udpAddr, err := net.ResolveUDPAddr("udp", t.addr)
	if err != nil {
		return fmt.Errorf("failed to resolve UDP address %s: %w", t.addr, err)
	}

	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return fmt.Errorf("failed to bind UDP socket on %s: %w", t.addr, err)
	}
	t.conn = conn
	t.state = StateBound

	loopCtx, cancel := context.WithCancel(ctx)
	t.cancel = cancel
	t.loopDone = make(chan struct{})
	t.stopWait = context.AfterFunc(ctx, func() { _ = t.Stop() })

	t.logger.Info(map[string]any{
		"transport":    "udp",
		"address":      conn.LocalAddr().String(),
		"max_inflight": cap(t.sem),
	}, "DNS transport started")

	t.state = StateServing
	go t.listenLoop(loopCtx, conn, handler, t.loopDone)

	return nil
}

// Stop cancels in-flight handler contexts, closes the socket and waits for
// the read loop to exit. Replies still being resolved are abandoned.
// Stop is idempotent and is a no-op on a transport that never bound.
func (t *UDPTransport) Stop() error {
	t.mu.Lock()
	if t.state == StateUnbound || t.state == StateClosed {
		t.mu.Unlock()
		return nil
	}
	t.state = StateClosed
	t.stopWait()
	t.cancel()

	closeErr := t.conn.Close()
	if closeErr != nil {
		t.logger.Warn(map[string]any{
			"error": closeErr.Error(),
		}, "Error closing UDP connection")
	}
	done := t.loopDone
	t.mu.Unlock()

	<-done

	t.logger.Info(map[string]any{
		"transport": "udp",
		"address":   t.Address(),
	}, "DNS transport stopped")

	return closeErr
}

// Address returns the bound address once the socket is open, and the
// configured address before that.
func (t *UDPTransport) Address() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.conn != nil {
		return t.conn.LocalAddr().String()
	}
	return t.addr
}

// State reports the current lifecycle state.
func (t *UDPTransport) State() State {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state
}

// listenLoop reads datagrams until the socket is closed.
func (t *UDPTransport) listenLoop(ctx context.Context, conn *net.UDPConn, handler resolver.DNSResponder, done chan struct{}) {
	defer close(done)
	buffer := make([]byte, maxDatagramSize)

	for {
		n, clientAddr, err := conn.ReadFromUDP(buffer)
		if err != nil {
			if errors.Is(err, net.ErrClosed) || ctx.Err() != nil {
				t.logger.Debug(nil, "UDP transport read loop exiting")
				return
			}
			t.logger.Warn(map[string]any{
				"error": err.Error(),
			}, "Failed to read UDP packet")
			continue
		}

		packet := make([]byte, n)
		copy(packet, buffer[:n])

		select {
		case t.sem <- struct{}{}:
		case <-ctx.Done():
			return
		}
		go func() {
			defer func() { <-t.sem }()
			t.handlePacket(ctx, conn, packet, clientAddr, handler)
		}()
	}
}

// handlePacket processes a single UDP DNS packet.
func (t *UDPTransport) handlePacket(ctx context.Context, conn *net.UDPConn, data []byte, clientAddr *net.UDPAddr, handler resolver.DNSResponder) {
	// Debug log raw incoming data
	t.logger.Debug(map[string]any{
		"client": clientAddr.String(),
		"size":   len(data),
		"raw":    fmt.Sprintf("%x", data),
	}, "Received raw DNS query data")

	// Decode wire format to domain object
	query, err := t.codec.DecodeQuery(data)
	if err != nil {
		t.logger.Warn(map[string]any{
			"client": clientAddr.String(),
			"error":  err.Error(),
			"size":   len(data),
		}, "Failed to decode DNS query")
		return
	}
	query.Sender = clientAddr
	query.Recipient = conn.LocalAddr()

	// Pass domain object to service layer
	response, err := handler.HandleQuery(ctx, query)
	if err != nil {
		t.logger.Error(map[string]any{
			"client":   clientAddr.String(),
			"query_id": query.ID,
			"error":    err.Error(),
		}, "Failed to handle DNS query")
		return
	}

	// Encode domain object back to wire format
	responseData, err := t.codec.EncodeResponse(response)
	if err != nil {
		t.logger.Error(map[string]any{
			"client":   clientAddr.String(),
			"query_id": query.ID,
			"error":    err.Error(),
		}, "Failed to encode DNS response")
		return
	}

	var dest net.Addr = clientAddr
	if response.Recipient != nil {
		dest = response.Recipient
	}

	// Send response back to client
	if _, err := conn.WriteTo(responseData, dest); err != nil {
		t.logger.Error(map[string]any{
			"client":   dest.String(),
			"query_id": response.ID,
			"error":    err.Error(),
		}, "Failed to send DNS response")
		return
	}

	t.logger.Debug(map[string]any{
		"client":   dest.String(),
		"query_id": response.ID,
		"rcode":    response.Flags.RCode.String(),
		"answers":  len(response.Answers),
		"size":     len(responseData),
	}, "Sent DNS response")
}

var _ resolver.ServerTransport = (*UDPTransport)(nil)
