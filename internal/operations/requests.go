package operations

import (
	"net/netip"
	"regexp"
	"strings"

	"github.com/ipam-rir/rir-manager/internal/models"
)

// Mode selects how a reassignment identifies the recipient.
type Mode string

// Reassignment modes
const (
	// ModeSimple creates a customer record at the registry first.
	ModeSimple Mode = "simple"
	// ModeDetailed reassigns to an existing registry organization.
	ModeDetailed Mode = "detailed"
)

// ReassignRequest describes a reassignment of part of a network.
type ReassignRequest struct {
	Mode         Mode   `json:"reassignment_type"`
	NetName      string `json:"net_name,omitempty"`
	StartAddress string `json:"start_address"`
	EndAddress   string `json:"end_address"`

	// Detailed mode
	OrgHandle string `json:"org_handle,omitempty"`

	// Simple mode
	CustomerName string `json:"customer_name,omitempty"`
	models.Address

	// TenantID links a created customer to a local tenant.
	TenantID *int64 `json:"tenant_id,omitempty"`
	// PrefixID links the child network to a local prefix.
	PrefixID *int64 `json:"prefix_id,omitempty"`
}

// ReallocateRequest describes a reallocation of part of a network.
type ReallocateRequest struct {
	OrgHandle    string `json:"org_handle"`
	NetName      string `json:"net_name,omitempty"`
	StartAddress string `json:"start_address"`
	EndAddress   string `json:"end_address"`
	PrefixID     *int64 `json:"prefix_id,omitempty"`
}

func validateRange(start, end string) (netip.Addr, error) {
	first, err := netip.ParseAddr(strings.TrimSpace(start))
	if err != nil {
		return netip.Addr{}, invalid("start_address", "must be an IP address")
	}
	last, err := netip.ParseAddr(strings.TrimSpace(end))
	if err != nil {
		return netip.Addr{}, invalid("end_address", "must be an IP address")
	}
	if first.Is4() != last.Is4() {
		return netip.Addr{}, invalid("end_address", "must be in the same address family as start_address")
	}
	if last.Less(first) {
		return netip.Addr{}, invalid("end_address", "must not precede start_address")
	}
	return first, nil
}

// Validate checks the fields required by the request mode.
func (r *ReassignRequest) Validate() error {
	switch r.Mode {
	case ModeSimple:
		if strings.TrimSpace(r.CustomerName) == "" {
			return invalid("customer_name", "is required for simple reassignment")
		}
		if strings.TrimSpace(r.City) == "" {
			return invalid("city", "is required for simple reassignment")
		}
		if strings.TrimSpace(r.Country) == "" {
			return invalid("country", "is required for simple reassignment")
		}
	case ModeDetailed:
		if strings.TrimSpace(r.OrgHandle) == "" {
			return invalid("org_handle", "is required for detailed reassignment")
		}
	default:
		return invalid("reassignment_type", `must be "simple" or "detailed"`)
	}
	_, err := validateRange(r.StartAddress, r.EndAddress)
	return err
}

// Validate checks the required fields.
func (r *ReallocateRequest) Validate() error {
	if strings.TrimSpace(r.OrgHandle) == "" {
		return invalid("org_handle", "is required for reallocation")
	}
	_, err := validateRange(r.StartAddress, r.EndAddress)
	return err
}

var nonAlphanumeric = regexp.MustCompile(`[^A-Za-z0-9]+`)

// DefaultNetName builds a registry net name from the recipient name and the
// start address, e.g. "Acme Corp" and 192.0.2.0 give "Acme-Corp-192-0-2-0".
func DefaultNetName(recipient, start string) string {
	name := nonAlphanumeric.ReplaceAllString(recipient+"-"+start, "-")
	return strings.Trim(name, "-")
}

func (r *ReassignRequest) netName() string {
	if r.NetName != "" {
		return r.NetName
	}
	recipient := r.CustomerName
	if r.Mode == ModeDetailed {
		recipient = r.OrgHandle
	}
	return DefaultNetName(recipient, r.StartAddress)
}

func isIPv6(addr string) bool {
	a, err := netip.ParseAddr(addr)
	return err == nil && a.Is6() && !a.Is4In6()
}

func (r *ReassignRequest) defaultTicketType() models.TicketType {
	switch {
	case r.Mode == ModeSimple:
		return models.TicketIPv4SimpleReassign
	case isIPv6(r.StartAddress):
		return models.TicketIPv6DetailedReassign
	default:
		return models.TicketIPv4DetailedReassign
	}
}

func (r *ReallocateRequest) defaultTicketType() models.TicketType {
	if isIPv6(r.StartAddress) {
		return models.TicketIPv6Reallocate
	}
	return models.TicketIPv4Reallocate
}
