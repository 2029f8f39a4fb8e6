package network

import (
	"context"
	"errors"
	"fmt"
	"net/netip"

	"github.com/oschwald/geoip2-golang"
	"github.com/oschwald/maxminddb-golang"
)

var ErrDatabaseOpen = errors.New("failed to open asn database")

// GeoLite resolves addresses using a local GeoLite2-ASN database.
type GeoLite struct {
	reader *maxminddb.Reader
}

func NewGeoLite(path string) (*GeoLite, error) {
	reader, errOpen := maxminddb.Open(path)
	if errOpen != nil {
		return nil, errors.Join(errOpen, ErrDatabaseOpen)
	}

	return &GeoLite{reader: reader}, nil
}

func (g *GeoLite) Lookup(ctx context.Context, addr netip.Addr) (Record, error) {
	if errCtx := ctx.Err(); errCtx != nil {
		return Record{}, errors.Join(errCtx, ErrLookup)
	}

	var asn geoip2.ASN

	network, found, errLookup := g.reader.LookupNetwork(addr.Unmap().AsSlice(), &asn)
	if errLookup != nil {
		return Record{}, errors.Join(errLookup, ErrLookup)
	}

	if !found {
		return Record{}, fmt.Errorf("%w: %s", ErrNoSubnetData, addr)
	}

	subnet, ok := prefixFromIPNet(network)
	if !ok {
		return Record{}, fmt.Errorf("%w: %s", ErrNoSubnetData, addr)
	}

	return Record{
		Subnet: subnet,
		Owner:  asn.AutonomousSystemOrganization,
		ASNum:  asn.AutonomousSystemNumber,
	}, nil
}

func (g *GeoLite) Close() error {
	return g.reader.Close()
}
