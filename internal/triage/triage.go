// Package triage walks a pending list of addresses, grouping them by the subnet that announces them.
package triage

import (
	"context"
	"fmt"
	"log/slog"
	"net/netip"
	"time"

	"github.com/leighmacdonald/ipreview/internal/log"
	"github.com/leighmacdonald/ipreview/internal/metrics"
	"github.com/leighmacdonald/ipreview/internal/network"
)

type Status string

const (
	StatusComplete   Status = "complete"
	StatusInProgress Status = "in_progress"
	StatusError      Status = "error"
	StatusSuccess    Status = "success"
)

const ReviewTypeSubnet = "subnet"

// ReviewItem is a candidate subnet for the analyst to decide on.
type ReviewItem struct {
	Type    string `json:"type"`
	Value   string `json:"value"`
	Owner   string `json:"owner"`
	IPCount int    `json:"ip_count"`
}

// Result is the outcome of a single Process step. RemainingIPs is omitted when nil and
// encoded as [] when empty.
type Result struct {
	Status       Status      `json:"status"`
	ReviewItem   *ReviewItem `json:"review_item,omitempty"`
	RemainingIPs []string    `json:"remaining_ips,omitzero"`
	Message      string      `json:"message,omitempty"`
}

// Blocklist is the write side of the blocklist used by BlockOwner.
type Blocklist interface {
	AddAll(ctx context.Context, subnets []string) ([]string, error)
}

type Processor struct {
	lookup      network.Lookup
	blocklist   Blocklist
	metrics     *metrics.Metrics
	concurrency int
}

// NewProcessor creates a Processor. concurrency bounds the parallel lookups made by BlockOwner.
func NewProcessor(lookup network.Lookup, blocklist Blocklist, metrics *metrics.Metrics, concurrency int) *Processor {
	if concurrency <= 0 {
		concurrency = 1
	}

	return &Processor{
		lookup:      lookup,
		blocklist:   blocklist,
		metrics:     metrics,
		concurrency: concurrency,
	}
}

// Process takes the first address off pending, resolves its subnet and claims every other
// pending address inside it.
//
// The first address is dropped when it is private/reserved or its lookup fails, the client
// continues with RemainingIPs.
func (p *Processor) Process(ctx context.Context, pending []string) Result {
	result := p.process(ctx, pending)
	p.metrics.Processed(string(result.Status))

	return result
}

func (p *Processor) process(ctx context.Context, pending []string) Result {
	if len(pending) == 0 {
		return Result{Status: StatusComplete}
	}

	addrs := make([]netip.Addr, 0, len(pending))

	for _, value := range pending {
		addr, errParse := network.ParseAddr(value)
		if errParse != nil {
			slog.Warn("Invalid address in pending list", log.ErrAttr(errParse))

			return Result{Status: StatusError, Message: "Invalid IP address in list: " + value}
		}

		addrs = append(addrs, addr)
	}

	current, rest := addrs[0], addrs[1:]

	if !network.IsGlobal(current) {
		return Result{
			Status:       StatusError,
			Message:      "Skipping private/reserved IP " + current.String(),
			RemainingIPs: addrStrings(rest),
		}
	}

	record, errLookup := p.resolve(ctx, current)
	if errLookup != nil {
		slog.Warn("Failed to lookup address", log.ErrAttr(errLookup), slog.String("ip", current.String()))

		return Result{
			Status:       StatusError,
			Message:      "Failed to process " + current.String(),
			RemainingIPs: addrStrings(rest),
		}
	}

	claimed := 1
	remaining := make([]string, 0, len(rest))

	for _, addr := range rest {
		if record.Subnet.Contains(addr) {
			claimed++

			continue
		}

		remaining = append(remaining, addr.String())
	}

	return Result{
		Status: StatusInProgress,
		ReviewItem: &ReviewItem{
			Type:    ReviewTypeSubnet,
			Value:   record.Subnet.String(),
			Owner:   record.Owner,
			IPCount: claimed,
		},
		RemainingIPs: remaining,
	}
}

func (p *Processor) resolve(ctx context.Context, addr netip.Addr) (network.Record, error) {
	started := time.Now()

	record, errLookup := p.lookup.Lookup(ctx, addr)
	p.metrics.Lookup(started, errLookup)

	if errLookup != nil {
		return network.Record{}, errLookup
	}

	if !record.Subnet.IsValid() {
		return network.Record{}, fmt.Errorf("%w: %s", network.ErrNoSubnetData, addr)
	}

	record.Subnet = record.Subnet.Masked()

	return record, nil
}

func addrStrings(addrs []netip.Addr) []string {
	values := make([]string, 0, len(addrs))
	for _, addr := range addrs {
		values = append(values, addr.String())
	}

	return values
}
