package network

import (
	"context"
	"errors"
	"net/netip"
)

var (
	ErrLookup        = errors.New("failed to lookup address")
	ErrNoSubnetData  = errors.New("no subnet data returned for address")
	ErrUnknownSource = errors.New("unknown lookup provider")
)

// Record is the registry information for the network announcing an address.
type Record struct {
	Subnet   netip.Prefix
	Owner    string
	ASNum    uint
	Country  string
	Registry string
}

// Lookup resolves an address to the subnet and owner that announce it.
type Lookup interface {
	Lookup(ctx context.Context, addr netip.Addr) (Record, error)
}

type Provider string

const (
	ProviderCymru   Provider = "cymru"
	ProviderGeoLite Provider = "geolite"
)

func (p Provider) Valid() bool {
	return p == ProviderCymru || p == ProviderGeoLite
}
