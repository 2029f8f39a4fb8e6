// Package network classifies addresses and resolves them to their announcing subnet and owner.
package network

import (
	"errors"
	"fmt"
	"net"
	"net/netip"

	"github.com/yl2chen/cidranger"
)

var (
	ErrInvalidAddress = errors.New("invalid ip address")
	ErrInvalidCIDR    = errors.New("failed to parse CIDR address")
)

// Special purpose ranges which are never considered globally routable. Multicast and the deprecated
// site-local range are not listed and count as global.
//
//nolint:gochecknoglobals
var reservedNetworks = []string{
	// IPv4
	"0.0.0.0/8",          // "This" network
	"10.0.0.0/8",         // Private-use
	"100.64.0.0/10",      // Carrier-grade NAT
	"127.0.0.0/8",        // Loopback
	"169.254.0.0/16",     // Link-local
	"172.16.0.0/12",      // Private-use
	"192.0.0.0/24",       // IETF protocol assignments
	"192.0.2.0/24",       // TEST-NET-1
	"192.168.0.0/16",     // Private-use
	"198.18.0.0/15",      // Benchmarking
	"198.51.100.0/24",    // TEST-NET-2
	"203.0.113.0/24",     // TEST-NET-3
	"240.0.0.0/4",        // Reserved
	"255.255.255.255/32", // Limited broadcast
	// IPv6
	"::/128",         // Unspecified
	"::1/128",        // Loopback
	"64:ff9b:1::/48", // Local-use IPv4/IPv6 translation
	"100::/64",       // Discard-only
	"2001::/23",      // IETF protocol assignments
	"2001:db8::/32",  // Documentation
	"2002::/16",      // 6to4
	"3fff::/20",      // Documentation
	"fc00::/7",       // Unique local
	"fe80::/10",      // Link-local unicast
}

// Globally reachable assignments carved out of the reserved blocks above.
//
//nolint:gochecknoglobals
var globalExceptions = []string{
	"192.0.0.9/32",    // Port Control Protocol anycast
	"192.0.0.10/32",   // TURN anycast
	"2001:1::1/128",   // Port Control Protocol anycast
	"2001:1::2/128",   // TURN anycast
	"2001:3::/32",     // AMT
	"2001:4:112::/48", // AS112-v6
	"2001:20::/28",    // ORCHIDv2
	"2001:30::/28",    // Drone remote ID
}

//nolint:gochecknoglobals
var (
	reservedRanger  = mustRanger(reservedNetworks)
	exceptionRanger = mustRanger(globalExceptions)
)

func mustRanger(networks []string) cidranger.Ranger {
	ranger := cidranger.NewPCTrieRanger()

	for _, cidr := range networks {
		_, network, errParse := net.ParseCIDR(cidr)
		if errParse != nil {
			panic(fmt.Sprintf("invalid reserved network %s: %v", cidr, errParse))
		}

		if errInsert := ranger.Insert(cidranger.NewBasicRangerEntry(*network)); errInsert != nil {
			panic(fmt.Sprintf("failed to insert reserved network %s: %v", cidr, errInsert))
		}
	}

	return ranger
}

// IsGlobal reports whether the address is publicly routable. IPv4-mapped IPv6 addresses are
// classified by their embedded IPv4 address.
func IsGlobal(addr netip.Addr) bool {
	if !addr.IsValid() {
		return false
	}

	addr = addr.Unmap().WithZone("")
	ip := net.IP(addr.AsSlice())

	if allowed, _ := exceptionRanger.Contains(ip); allowed {
		return true
	}

	reserved, errContains := reservedRanger.Contains(ip)
	if errContains != nil {
		return false
	}

	return !reserved
}

// ParseAddr parses a single textual address. Leading zeros and surrounding whitespace are rejected.
func ParseAddr(value string) (netip.Addr, error) {
	addr, errParse := netip.ParseAddr(value)
	if errParse != nil {
		return netip.Addr{}, errors.Join(errParse, fmt.Errorf("%w: %q", ErrInvalidAddress, value))
	}

	return addr, nil
}

// ParseAddrs parses every value, failing on the first invalid entry.
func ParseAddrs(values []string) ([]netip.Addr, error) {
	addrs := make([]netip.Addr, 0, len(values))

	for _, value := range values {
		addr, errParse := ParseAddr(value)
		if errParse != nil {
			return nil, errParse
		}

		addrs = append(addrs, addr)
	}

	return addrs, nil
}

// ParsePrefix parses a CIDR leniently, allowing host bits to be set, and returns the
// canonical network form.
func ParsePrefix(value string) (netip.Prefix, error) {
	prefix, errParse := netip.ParsePrefix(value)
	if errParse != nil {
		return netip.Prefix{}, errors.Join(errParse, ErrInvalidCIDR)
	}

	return prefix.Masked(), nil
}

func prefixFromIPNet(network *net.IPNet) (netip.Prefix, bool) {
	if network == nil {
		return netip.Prefix{}, false
	}

	addr, ok := netip.AddrFromSlice(network.IP)
	if !ok {
		return netip.Prefix{}, false
	}

	ones, bits := network.Mask.Size()
	if addr.Is4In6() && bits == 128 {
		ones -= 96
	}

	return netip.PrefixFrom(addr.Unmap(), ones).Masked(), true
}
