package ipam

import (
	"context"
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRange(t *testing.T) {
	t.Parallel()

	tests := []struct {
		prefix string
		first  string
		last   string
	}{
		{prefix: "10.0.0.0/24", first: "10.0.0.0", last: "10.0.0.255"},
		{prefix: "10.0.0.0/8", first: "10.0.0.0", last: "10.255.255.255"},
		{prefix: "192.0.2.64/27", first: "192.0.2.64", last: "192.0.2.95"},
		{prefix: "198.51.100.7/32", first: "198.51.100.7", last: "198.51.100.7"},
		{prefix: "10.0.0.77/24", first: "10.0.0.0", last: "10.0.0.255"},
		{prefix: "2001:db8::/32", first: "2001:db8::", last: "2001:db8:ffff:ffff:ffff:ffff:ffff:ffff"},
		{prefix: "2001:db8:1::/48", first: "2001:db8:1::", last: "2001:db8:1:ffff:ffff:ffff:ffff:ffff"},
	}

	for _, tt := range tests {
		t.Run(tt.prefix, func(t *testing.T) {
			t.Parallel()
			first, last := Range(netip.MustParsePrefix(tt.prefix))
			assert.Equal(t, tt.first, first.String())
			assert.Equal(t, tt.last, last.String())
		})
	}
}

func TestContains(t *testing.T) {
	t.Parallel()

	outer := netip.MustParsePrefix("10.0.0.0/16")
	assert.True(t, Contains(outer, netip.MustParsePrefix("10.0.1.0/24")))
	assert.False(t, Contains(outer, outer))
	assert.False(t, Contains(outer, netip.MustParsePrefix("10.1.0.0/24")))
	assert.False(t, Contains(outer, netip.MustParsePrefix("10.0.0.0/8")))
}

func TestMemorySource(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := NewMemory()
	m.PutAggregate(Aggregate{ID: 1, RIR: "ARIN", Prefix: netip.MustParsePrefix("10.0.0.0/16")})
	m.PutAggregate(Aggregate{ID: 2, RIR: "RIPE", Prefix: netip.MustParsePrefix("172.16.0.0/12")})
	m.PutPrefix(Prefix{ID: 10, Prefix: netip.MustParsePrefix("10.0.1.0/24"), Status: PrefixActive})
	m.PutPrefix(Prefix{ID: 11, Prefix: netip.MustParsePrefix("10.0.0.0/16"), Status: PrefixContainer})
	m.PutPrefix(Prefix{ID: 12, Prefix: netip.MustParsePrefix("172.16.1.0/24"), Status: PrefixActive})

	aggs, err := m.ListAggregates(ctx, "ARIN")
	require.NoError(t, err)
	require.Len(t, aggs, 1)
	assert.Equal(t, int64(1), aggs[0].ID)

	within, err := m.ListPrefixesWithin(ctx, aggs[0].Prefix)
	require.NoError(t, err)
	require.Len(t, within, 1)
	assert.Equal(t, int64(10), within[0].ID)

	agg, err := m.FindAggregateContaining(ctx, netip.MustParsePrefix("10.0.1.0/24"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), agg.ID)

	_, err = m.FindAggregateContaining(ctx, netip.MustParsePrefix("192.168.0.0/24"))
	assert.ErrorIs(t, err, ErrNotFound)

	pfx, err := m.FindPrefix(ctx, netip.MustParsePrefix("10.0.1.0/24"))
	require.NoError(t, err)
	assert.Equal(t, int64(10), pfx.ID)

	_, err = m.GetTenant(ctx, 99)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPrefixFromRange(t *testing.T) {
	t.Parallel()

	tests := []struct {
		first string
		last  string
		want  string
		ok    bool
	}{
		{first: "10.0.0.0", last: "10.0.0.255", want: "10.0.0.0/24", ok: true},
		{first: "192.0.2.128", last: "192.0.2.191", want: "192.0.2.128/26", ok: true},
		{first: "192.0.2.1", last: "192.0.2.1", want: "192.0.2.1/32", ok: true},
		{first: "2001:db8::", last: "2001:db8:0:ffff:ffff:ffff:ffff:ffff", want: "2001:db8::/48", ok: true},
		{first: "10.0.0.0", last: "10.0.2.255", ok: false},
		{first: "10.0.0.1", last: "10.0.0.255", ok: false},
		{first: "10.0.0.0", last: "2001:db8::1", ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.first+"-"+tt.last, func(t *testing.T) {
			t.Parallel()

			got, ok := PrefixFromRange(netip.MustParseAddr(tt.first), netip.MustParseAddr(tt.last))
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, netip.MustParsePrefix(tt.want), got)
			}
		})
	}
}
