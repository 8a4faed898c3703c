package registry

import (
	"context"
	"time"
)

//go:generate mockgen -destination=mocks/mock_client.go -package=mocks -source=client.go Client,Backend

// POCLink references a contact from an organization record.
type POCLink struct {
	Handle      string `json:"handle"`
	Function    string `json:"function,omitempty"`
	Description string `json:"description,omitempty"`
}

// Organization is a normalized registry organization.
type Organization struct {
	Handle        string
	Name          string
	Street        string
	City          string
	StateProvince string
	PostalCode    string
	Country       string
	POCLinks      []POCLink
	Raw           map[string]any
}

// Contact is a normalized registry point of contact.
type Contact struct {
	Handle        string
	Type          string
	FirstName     string
	LastName      string
	CompanyName   string
	Email         string
	Phone         string
	Street        string
	City          string
	StateProvince string
	PostalCode    string
	Country       string
	Raw           map[string]any
}

// NetBlock is one address range of a network.
type NetBlock struct {
	Start      string `json:"start_address"`
	End        string `json:"end_address,omitempty"`
	CIDRLength int    `json:"cidr_length"`
	Type       string `json:"type,omitempty"`
}

// Network is a normalized registry network.
type Network struct {
	Handle         string
	Name           string
	Type           string
	Version        int
	OrgHandle      string
	CustomerHandle string
	ParentHandle   string
	Blocks         []NetBlock
	Raw            map[string]any
}

// Range returns the start and end address of the first block.
func (n *Network) Range() (start, end string) {
	if len(n.Blocks) == 0 {
		return "", ""
	}
	return n.Blocks[0].Start, n.Blocks[0].End
}

// FirstBlockType returns the type of the first net block, if any.
func (n *Network) FirstBlockType() string {
	if len(n.Blocks) == 0 {
		return n.Type
	}
	if n.Blocks[0].Type != "" {
		return n.Blocks[0].Type
	}
	return n.Type
}

// Customer is a normalized registry customer.
type Customer struct {
	Handle        string
	Name          string
	Street        string
	City          string
	StateProvince string
	PostalCode    string
	Country       string
	ParentOrg     string
	Raw           map[string]any
}

// TicketResult is returned by ticketed network operations.
type TicketResult struct {
	Number     string
	Status     string
	Type       string
	Resolution string
	CreatedAt  *time.Time
	ResolvedAt *time.Time
	// Network is the child allocation created by the request, if any.
	Network *Network
	Raw     map[string]any
}

// ReassignSpec describes a reassignment or reallocation request.
type ReassignSpec struct {
	NetName        string
	StartAddress   string
	EndAddress     string
	OrgHandle      string
	CustomerHandle string
}

// CustomerSpec describes a simple reassignment customer.
type CustomerSpec struct {
	Name          string
	Street        string
	City          string
	StateProvince string
	PostalCode    string
	Country       string
}

// NetworkPatch carries mutable network fields. Nil fields are left unchanged.
type NetworkPatch struct {
	Name *string `json:"name,omitempty"`
}

// Client is the registry view used by the sync and write paths. Every method
// returns nil when the object does not exist, the request was rejected, or
// the registry could not be reached after retries.
type Client interface {
	GetOrganization(ctx context.Context, handle string) *Organization
	GetNetwork(ctx context.Context, handle string) *Network
	GetContact(ctx context.Context, handle string) *Contact
	FindNetworkByRange(ctx context.Context, start, end string) *Network
	GetCustomer(ctx context.Context, handle string) *Customer
	GetTicket(ctx context.Context, number string) *TicketResult

	UpdateNetwork(ctx context.Context, handle string, patch NetworkPatch) *Network
	ReassignNetwork(ctx context.Context, parentHandle string, spec ReassignSpec) *TicketResult
	ReallocateNetwork(ctx context.Context, parentHandle string, spec ReassignSpec) *TicketResult
	RemoveNetwork(ctx context.Context, handle string) bool
	DeleteNetwork(ctx context.Context, handle string) *TicketResult
	CreateCustomer(ctx context.Context, parentHandle string, spec CustomerSpec) *Customer
}

// Backend is the transport contract implemented once per RIR. Errors should
// be *Error values so the retry layer can tell transient failures apart.
type Backend interface {
	GetOrganization(ctx context.Context, handle string) (*Organization, error)
	GetNetwork(ctx context.Context, handle string) (*Network, error)
	GetContact(ctx context.Context, handle string) (*Contact, error)
	FindNetworkByRange(ctx context.Context, start, end string) (*Network, error)
	GetCustomer(ctx context.Context, handle string) (*Customer, error)
	GetTicket(ctx context.Context, number string) (*TicketResult, error)

	UpdateNetwork(ctx context.Context, handle string, patch NetworkPatch) (*Network, error)
	ReassignNetwork(ctx context.Context, parentHandle string, spec ReassignSpec) (*TicketResult, error)
	ReallocateNetwork(ctx context.Context, parentHandle string, spec ReassignSpec) (*TicketResult, error)
	RemoveNetwork(ctx context.Context, handle string) error
	DeleteNetwork(ctx context.Context, handle string) (*TicketResult, error)
	CreateCustomer(ctx context.Context, parentHandle string, spec CustomerSpec) (*Customer, error)
}
