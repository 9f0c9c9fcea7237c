// Package resolver contains the forwarding service that sits between the UDP
// transport and the DoH upstream. Each query is logged, forwarded, and its
// response logged together with the time the upstream took.
package resolver

import (
	"context"

	"github.com/haukened/rr-doh/internal/dns/common/clock"
	"github.com/haukened/rr-doh/internal/dns/common/log"
	"github.com/haukened/rr-doh/internal/dns/domain"
)

type Resolver struct {
	clock    clock.Clock
	logger   log.Logger
	upstream UpstreamClient
}

type ResolverOptions struct {
	Clock    clock.Clock
	Logger   log.Logger
	Upstream UpstreamClient
}

func NewResolver(opts ResolverOptions) *Resolver {
	if opts.Clock == nil {
		opts.Clock = clock.RealClock{}
	}
	if opts.Logger == nil {
		opts.Logger = log.NewNoopLogger()
	}
	return &Resolver{
		clock:    opts.Clock,
		logger:   opts.Logger,
		upstream: opts.Upstream,
	}
}

// HandleQuery forwards query upstream and returns the upstream's response,
// addressed back to the query's sender. Upstream errors are logged and
// returned unchanged.
func (r *Resolver) HandleQuery(ctx context.Context, query domain.Message) (domain.Message, error) {
	start := r.clock.Now()
	r.logger.Info(querySummary(query), "Received DNS query")

	resp, err := r.upstream.Resolve(ctx, query, query.Recipient, query.Sender)
	elapsed := clock.Since(r.clock, start)
	if err != nil {
		r.logger.Error(map[string]any{
			"query_id":   query.ID,
			"client":     addrString(query.Sender),
			"elapsed_ms": elapsed.Milliseconds(),
			"error":      err.Error(),
		}, "Upstream resolution failed")
		return domain.Message{}, err
	}

	fields := responseSummary(resp)
	fields["elapsed_ms"] = elapsed.Milliseconds()
	if resp.IsError() {
		r.logger.Warn(fields, "Received upstream response")
	} else {
		r.logger.Info(fields, "Received upstream response")
	}
	r.logRecords(resp)

	return resp, nil
}

var _ DNSResponder = (*Resolver)(nil)
