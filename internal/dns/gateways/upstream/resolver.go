// Package upstream forwards DNS queries to a DNS-over-HTTPS resolver
// (RFC 8484) using the POST method.
package upstream

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/net/http2"
	"golang.org/x/net/proxy"

	"github.com/haukened/rr-doh/internal/dns/common/log"
	"github.com/haukened/rr-doh/internal/dns/domain"
	"github.com/haukened/rr-doh/internal/dns/gateways/wire"
	"github.com/haukened/rr-doh/internal/dns/services/resolver"
)

// MediaType is the content type of DNS wire-format messages over HTTP.
const MediaType = "application/dns-message"

// maxMessageSize bounds the response body.
const maxMessageSize = 65535

// Error message constants for consistent error handling
const (
	errURLRequired      = "upstream URL is required"
	errInvalidURL       = "invalid upstream URL %q: %w"
	errUnsupportedURL   = "upstream URL %q must be an absolute http or https URL"
	errInvalidProxy     = "invalid proxy URL %q: %w"
	errUnsupportedProxy = "unsupported proxy scheme %q"
	errCodecRequired    = "DNS codec is required"
	errEncodeFailed     = "encode failed: %w"
	errTransportSetup   = "%w: transport setup failed: %w"
	errRequestFailed    = "%w: request to %s failed: %w"
	errBadStatus        = "%w: upstream %s returned status %d"
	errReadFailed       = "%w: read failed: %w"
	errBodyTooLarge     = "%w: response body exceeds %d bytes"
	errDecodeFailed     = "decode failed: %w"
)

// Resolver sends each query to a single DoH endpoint. Every call builds its
// own HTTP transport; nothing is pooled or reused between queries.
type Resolver struct {
	url       *url.URL
	proxy     *url.URL
	timeout   time.Duration
	codec     wire.DNSCodec
	tlsConfig *tls.Config
	logger    log.Logger
}

// Options defines configuration parameters for the DoH resolver.
type Options struct {
	// required parameters
	URL     string
	Codec   wire.DNSCodec
	Timeout time.Duration
	// Proxy is an optional forward proxy: http, https, socks5 or socks5h.
	Proxy  string
	Logger log.Logger
	// options to inject for testing purposes
	TLSClientConfig *tls.Config
}

// NewResolver creates a DoH resolver with the specified options.
// URL and proxy problems are reported as domain.ErrConfig. The timeout
// defaults to 5 seconds.
func NewResolver(opts Options) (*Resolver, error) {
	if opts.URL == "" {
		return nil, fmt.Errorf("%w: %s", domain.ErrConfig, errURLRequired)
	}
	u, err := url.Parse(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("%w: "+errInvalidURL, domain.ErrConfig, opts.URL, err)
	}
	if !u.IsAbs() || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, fmt.Errorf("%w: "+errUnsupportedURL, domain.ErrConfig, opts.URL)
	}

	var proxyURL *url.URL
	if opts.Proxy != "" {
		proxyURL, err = ParseProxy(opts.Proxy)
		if err != nil {
			return nil, err
		}
	}

	if opts.Codec == nil {
		return nil, fmt.Errorf(errCodecRequired)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = log.NewNoopLogger()
	}
	return &Resolver{
		url:       u,
		proxy:     proxyURL,
		timeout:   opts.Timeout,
		codec:     opts.Codec,
		tlsConfig: opts.TLSClientConfig,
		logger:    opts.Logger,
	}, nil
}

// ParseProxy parses a forward proxy URL and checks its scheme.
func ParseProxy(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: "+errInvalidProxy, domain.ErrConfig, raw, err)
	}
	switch u.Scheme {
	case "http", "https", "socks5", "socks5h":
	default:
		return nil, fmt.Errorf("%w: "+errUnsupportedProxy, domain.ErrConfig, u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w: "+errInvalidProxy, domain.ErrConfig, raw, fmt.Errorf("missing host"))
	}
	return u, nil
}

// URL returns the upstream endpoint.
func (r *Resolver) URL() string {
	return r.url.String()
}

// newTransport builds a single-use HTTP transport. HTTP/2 is negotiated via
// ALPN when the upstream offers it.
func (r *Resolver) newTransport() (*http.Transport, error) {
	tr := &http.Transport{
		DisableKeepAlives:   true,
		ForceAttemptHTTP2:   true,
		TLSHandshakeTimeout: r.timeout,
		DialContext:         (&net.Dialer{Timeout: r.timeout}).DialContext,
	}
	if r.tlsConfig != nil {
		tr.TLSClientConfig = r.tlsConfig.Clone()
	}

	if r.proxy != nil {
		switch r.proxy.Scheme {
		case "http", "https":
			tr.Proxy = http.ProxyURL(r.proxy)
		case "socks5", "socks5h":
			dialer, err := proxy.FromURL(r.proxy, &net.Dialer{Timeout: r.timeout})
			if err != nil {
				return nil, err
			}
			cd, ok := dialer.(proxy.ContextDialer)
			if !ok {
				return nil, fmt.Errorf("socks dialer does not support contexts")
			}
			tr.DialContext = cd.DialContext
		}
	}

	if err := http2.ConfigureTransport(tr); err != nil {
		return nil, err
	}
	return tr, nil
}

// Resolve encodes query, POSTs it to the upstream and decodes the reply.
// sender and recipient are copied onto the response so the caller knows
// where to send it. Network, TLS, timeout and HTTP status failures wrap
// domain.ErrTransport; an undecodable body carries the codec's error.
func (r *Resolver) Resolve(ctx context.Context, query domain.Message, sender, recipient net.Addr) (domain.Message, error) {
	payload, err := r.codec.EncodeQuery(query)
	if err != nil {
		return domain.Message{}, fmt.Errorf(errEncodeFailed, err)
	}

	tr, err := r.newTransport()
	if err != nil {
		return domain.Message{}, fmt.Errorf(errTransportSetup, domain.ErrTransport, err)
	}
	defer tr.CloseIdleConnections()
	client := &http.Client{Transport: tr, Timeout: r.timeout}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url.String(), bytes.NewReader(payload))
	if err != nil {
		return domain.Message{}, fmt.Errorf(errRequestFailed, domain.ErrTransport, r.url.Host, err)
	}
	req.Header.Set("Content-Type", MediaType)
	req.Header.Set("Accept", MediaType)

	resp, err := client.Do(req)
	if err != nil {
		return domain.Message{}, fmt.Errorf(errRequestFailed, domain.ErrTransport, r.url.Host, err)
	}
	defer resp.Body.Close()

	r.logger.Debug(map[string]any{
		"query_id": query.ID,
		"upstream": r.url.Host,
		"status":   resp.StatusCode,
		"proto":    resp.Proto,
	}, "Received DoH response")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return domain.Message{}, fmt.Errorf(errBadStatus, domain.ErrTransport, r.url.Host, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxMessageSize+1))
	if err != nil {
		return domain.Message{}, fmt.Errorf(errReadFailed, domain.ErrTransport, err)
	}
	if len(body) > maxMessageSize {
		return domain.Message{}, fmt.Errorf(errBodyTooLarge, domain.ErrProtocol, maxMessageSize)
	}

	msg, err := r.codec.DecodeResponse(body)
	if err != nil {
		return domain.Message{}, fmt.Errorf(errDecodeFailed, err)
	}
	if msg.ID == 0 {
		msg.ID = query.ID
	}
	msg.Sender = sender
	msg.Recipient = recipient
	return msg, nil
}

var _ resolver.UpstreamClient = (*Resolver)(nil)
