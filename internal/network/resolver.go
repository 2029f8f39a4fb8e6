package network

import (
	"context"
	"errors"
	"net/netip"
	"time"

	"go.uber.org/ratelimit"
	"golang.org/x/sync/singleflight"
)

// Resolver wraps a Lookup, throttling outbound queries and sharing the result of concurrent
// queries for the same address.
type Resolver struct {
	lookup  Lookup
	limiter ratelimit.Limiter
	group   singleflight.Group
	timeout time.Duration
}

// NewResolver creates a Resolver allowing at most perSecond queries per second. A value <= 0 disables
// throttling.
func NewResolver(lookup Lookup, perSecond int, timeout time.Duration) *Resolver {
	limiter := ratelimit.NewUnlimited()
	if perSecond > 0 {
		limiter = ratelimit.New(perSecond)
	}

	return &Resolver{lookup: lookup, limiter: limiter, timeout: timeout}
}

// Lookup resolves addr, joining an in flight query for the same address. The shared query is not
// tied to the caller that started it, a cancelled caller only stops waiting.
func (r *Resolver) Lookup(ctx context.Context, addr netip.Addr) (Record, error) {
	results := r.group.DoChan(addr.String(), func() (any, error) {
		r.limiter.Take()

		lookupCtx := context.WithoutCancel(ctx)
		if r.timeout > 0 {
			var cancel context.CancelFunc
			lookupCtx, cancel = context.WithTimeout(lookupCtx, r.timeout)

			defer cancel()
		}

		return r.lookup.Lookup(lookupCtx, addr)
	})

	select {
	case <-ctx.Done():
		return Record{}, errors.Join(ctx.Err(), ErrLookup)
	case result := <-results:
		if result.Err != nil {
			return Record{}, result.Err
		}

		record, _ := result.Val.(Record)

		return record, nil
	}
}
