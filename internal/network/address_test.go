package network_test

import (
	"net/netip"
	"testing"

	"github.com/leighmacdonald/ipreview/internal/network"
	"github.com/stretchr/testify/require"
)

func TestIsGlobal(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		addr   string
		global bool
	}{
		{"8.8.8.8", true},
		{"1.1.1.1", true},
		{"203.0.114.1", true},
		{"192.0.0.9", true},
		{"10.0.0.5", false},
		{"172.16.4.4", false},
		{"192.168.1.1", false},
		{"127.0.0.1", false},
		{"100.64.0.1", false},
		{"169.254.1.1", false},
		{"192.0.2.55", false},
		{"224.0.0.1", true},
		{"239.255.255.250", true},
		{"255.255.255.255", false},
		{"0.0.0.0", false},
		{"2001:4860:4860::8888", true},
		{"::1", false},
		{"fe80::1", false},
		{"fe80::1%eth0", false},
		{"fd00::1", false},
		{"2001:db8::1", false},
		{"ff02::1", true},
		{"fec0::1", true},
		{"3fff::1", false},
		{"2001:20::1", true},
		{"::ffff:8.8.8.8", true},
		{"::ffff:10.1.1.1", false},
	} {
		require.Equal(t, tc.global, network.IsGlobal(netip.MustParseAddr(tc.addr)), tc.addr)
	}

	require.False(t, network.IsGlobal(netip.Addr{}))
}

func TestParseAddrs(t *testing.T) {
	t.Parallel()

	addrs, errParse := network.ParseAddrs([]string{"8.8.8.8", "2001:4860:4860:0::8888"})
	require.NoError(t, errParse)
	require.Len(t, addrs, 2)
	require.Equal(t, "2001:4860:4860::8888", addrs[1].String())

	_, errInvalid := network.ParseAddrs([]string{"8.8.8.8", "not-an-ip"})
	require.ErrorIs(t, errInvalid, network.ErrInvalidAddress)

	_, errSpace := network.ParseAddr(" 8.8.8.8")
	require.ErrorIs(t, errSpace, network.ErrInvalidAddress)

	_, errZeros := network.ParseAddr("010.1.1.1")
	require.ErrorIs(t, errZeros, network.ErrInvalidAddress)
}

func TestParsePrefix(t *testing.T) {
	t.Parallel()

	prefix, errParse := network.ParsePrefix("8.8.8.8/24")
	require.NoError(t, errParse)
	require.Equal(t, "8.8.8.0/24", prefix.String())

	_, errInvalid := network.ParsePrefix("8.8.8.8")
	require.ErrorIs(t, errInvalid, network.ErrInvalidCIDR)
}
