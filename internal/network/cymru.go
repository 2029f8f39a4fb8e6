package network

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/netip"
	"strconv"
	"strings"
	"time"

	"github.com/likexian/whois"
)

const DefaultCymruServer = "whois.cymru.com"

var ErrCymruResponse = errors.New("unexpected whois response")

type whoisQuerier interface {
	Whois(domain string, servers ...string) (string, error)
}

// Cymru performs lookups against the Team Cymru IP to ASN whois service.
type Cymru struct {
	client whoisQuerier
	server string
}

func NewCymru(server string, timeout time.Duration) *Cymru {
	if server == "" {
		server = DefaultCymruServer
	}

	client := whois.NewClient()
	if timeout > 0 {
		client.SetTimeout(timeout)
	}

	return &Cymru{client: client, server: server}
}

type whoisResult struct {
	raw string
	err error
}

func (c *Cymru) Lookup(ctx context.Context, addr netip.Addr) (Record, error) {
	results := make(chan whoisResult, 1)

	// The whois client has no context support, so the query is abandoned rather than cancelled.
	go func() {
		raw, errQuery := c.client.Whois("-v "+addr.String(), c.server)
		results <- whoisResult{raw: raw, err: errQuery}
	}()

	select {
	case <-ctx.Done():
		return Record{}, errors.Join(ctx.Err(), ErrLookup)
	case result := <-results:
		if result.err != nil {
			return Record{}, errors.Join(result.err, ErrLookup)
		}

		return ParseCymru(addr, result.raw)
	}
}

// ParseCymru parses the verbose pipe delimited output of the Cymru whois service:
//
//	AS      | IP               | BGP Prefix          | CC | Registry | Allocated  | AS Name
//	15169   | 8.8.8.8          | 8.8.8.0/24          | US | arin     | 2023-12-28 | GOOGLE, US
func ParseCymru(addr netip.Addr, raw string) (Record, error) {
	scanner := bufio.NewScanner(strings.NewReader(raw))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "Bulk mode") {
			continue
		}

		if strings.HasPrefix(line, "Error:") {
			return Record{}, fmt.Errorf("%w: %s", ErrCymruResponse, line)
		}

		fields := strings.Split(line, "|")
		if len(fields) < 7 {
			continue
		}

		for i := range fields {
			fields[i] = strings.TrimSpace(fields[i])
		}

		if fields[0] == "AS" {
			continue
		}

		rowAddr, errAddr := netip.ParseAddr(fields[1])
		if errAddr != nil || rowAddr.Unmap() != addr.Unmap() {
			continue
		}

		return cymruRecord(addr, fields)
	}

	if errScan := scanner.Err(); errScan != nil {
		return Record{}, errors.Join(errScan, ErrCymruResponse)
	}

	return Record{}, fmt.Errorf("%w: %s", ErrNoSubnetData, addr)
}

func cymruRecord(addr netip.Addr, fields []string) (Record, error) {
	if fields[2] == "" || fields[2] == "NA" {
		return Record{}, fmt.Errorf("%w: %s", ErrNoSubnetData, addr)
	}

	subnet, errPrefix := ParsePrefix(fields[2])
	if errPrefix != nil {
		return Record{}, errors.Join(errPrefix, fmt.Errorf("%w: %s", ErrNoSubnetData, addr))
	}

	record := Record{
		Subnet:   subnet,
		Country:  fields[3],
		Registry: fields[4],
		Owner:    strings.Join(fields[6:], "|"),
	}

	if asNum, errAS := strconv.ParseUint(fields[0], 10, 32); errAS == nil {
		record.ASNum = uint(asNum)
	}

	return record, nil
}
