package sync

import (
	"context"
	"errors"
	"fmt"
	"net/netip"

	"github.com/ipam-rir/rir-manager/internal/ipam"
	"github.com/ipam-rir/rir-manager/internal/models"
	"github.com/ipam-rir/rir-manager/internal/registry"
)

// Linker matches registry networks to local aggregates and prefixes.
type Linker struct {
	source ipam.Source
}

// NewLinker creates a Linker reading from src.
func NewLinker(src ipam.Source) *Linker {
	return &Linker{source: src}
}

// Link sets the aggregate or prefix of n when neither is set and one of the
// blocks matches a local record exactly. Aggregates are tried before
// prefixes. With no blocks, the network's own address range is used. It
// reports whether a link was made.
func (l *Linker) Link(ctx context.Context, n *models.Network, blocks []registry.NetBlock) (bool, error) {
	if n.AggregateID != nil || n.PrefixID != nil {
		return false, nil
	}

	candidates := candidatePrefixes(n, blocks)
	if len(candidates) == 0 {
		return false, nil
	}

	for _, p := range candidates {
		agg, err := l.source.FindAggregate(ctx, p)
		if errors.Is(err, ipam.ErrNotFound) {
			continue
		}
		if err != nil {
			return false, fmt.Errorf("failed to match aggregate %s: %w", p, err)
		}
		n.AggregateID = &agg.ID
		return true, nil
	}

	for _, p := range candidates {
		prefix, err := l.source.FindPrefix(ctx, p)
		if errors.Is(err, ipam.ErrNotFound) {
			continue
		}
		if err != nil {
			return false, fmt.Errorf("failed to match prefix %s: %w", p, err)
		}
		n.PrefixID = &prefix.ID
		return true, nil
	}
	return false, nil
}

func candidatePrefixes(n *models.Network, blocks []registry.NetBlock) []netip.Prefix {
	if len(blocks) == 0 {
		blocks = []registry.NetBlock{{Start: n.StartAddress, End: n.EndAddress}}
	}

	var out []netip.Prefix
	for _, b := range blocks {
		start, err := netip.ParseAddr(b.Start)
		if err != nil {
			continue
		}
		if b.CIDRLength > 0 && b.CIDRLength <= start.BitLen() {
			out = append(out, netip.PrefixFrom(start, b.CIDRLength).Masked())
			continue
		}
		end, err := netip.ParseAddr(b.End)
		if err != nil {
			continue
		}
		if p, ok := ipam.PrefixFromRange(start, end); ok {
			out = append(out, p)
		}
	}
	return out
}
