package triage

import (
	"context"
	"log/slog"
	"net/netip"

	"github.com/leighmacdonald/ipreview/internal/log"
	"github.com/leighmacdonald/ipreview/internal/network"
	"golang.org/x/sync/errgroup"
)

// OwnerResult is the outcome of BlockOwner.
type OwnerResult struct {
	Status       Status   `json:"status"`
	RemainingIPs []string `json:"remaining_ips,omitzero"`
	Message      string   `json:"message,omitempty"`
}

type ownerMatch struct {
	subnet  netip.Prefix
	matched bool
}

// BlockOwner blocks the subnet of every pending address announced by owner in one pass.
//
// Unlike Process, addresses which cannot be parsed, are private/reserved or fail to resolve
// are kept in RemainingIPs using their original text. Blocklist failures are only logged.
func (p *Processor) BlockOwner(ctx context.Context, owner string, pending []string) OwnerResult {
	if owner == "" || len(pending) == 0 {
		return OwnerResult{Status: StatusError, Message: "Missing owner or IP list."}
	}

	matches := p.matchOwner(ctx, owner, pending)

	var (
		remaining = make([]string, 0, len(pending))
		subnets   []string
		seen      = map[netip.Prefix]struct{}{}
	)

	for idx, value := range pending {
		match := matches[idx]
		if !match.matched {
			remaining = append(remaining, value)

			continue
		}

		if _, found := seen[match.subnet]; found {
			continue
		}

		seen[match.subnet] = struct{}{}
		subnets = append(subnets, match.subnet.String())
	}

	if len(subnets) > 0 {
		added, errAdd := p.blocklist.AddAll(ctx, subnets)
		if errAdd != nil {
			slog.Error("Failed to write owner subnets to blocklist", log.ErrAttr(errAdd),
				slog.String("owner", owner), slog.Int("subnets", len(subnets)))
		} else {
			p.metrics.Blocked("owner", len(added))
			slog.Info("Blocked owner subnets", slog.String("owner", owner),
				slog.Int("matched", len(subnets)), slog.Int("added", len(added)))
		}
	}

	return OwnerResult{Status: StatusSuccess, RemainingIPs: remaining}
}

// matchOwner resolves every pending address concurrently. The result is indexed like pending.
func (p *Processor) matchOwner(ctx context.Context, owner string, pending []string) []ownerMatch {
	var (
		matches = make([]ownerMatch, len(pending))
		group   errgroup.Group
	)

	group.SetLimit(p.concurrency)

	for idx, value := range pending {
		group.Go(func() error {
			addr, errParse := network.ParseAddr(value)
			if errParse != nil {
				slog.Warn("Could not process address for owner block", log.ErrAttr(errParse), slog.String("ip", value))

				return nil
			}

			if !network.IsGlobal(addr) {
				return nil
			}

			record, errLookup := p.resolve(ctx, addr)
			if errLookup != nil {
				slog.Warn("Could not process address for owner block", log.ErrAttr(errLookup), slog.String("ip", value))

				return nil
			}

			if record.Owner == owner {
				matches[idx] = ownerMatch{subnet: record.Subnet, matched: true}
			}

			return nil
		})
	}

	_ = group.Wait()

	return matches
}
