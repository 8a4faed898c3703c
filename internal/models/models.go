// Package models defines the locally persisted mirror of registry objects
// along with the audit trail the sync and write paths produce.
package models

import (
	"time"
)

// RawPayload holds an upstream registry document as untyped JSON.
type RawPayload map[string]any

// RegistryConfig is one registry account scope.
type RegistryConfig struct {
	ID        int64
	RIR       string
	Name      string
	APIURL    string
	OrgHandle string
	IsActive  bool
	LastSync  *time.Time
}

// UserCredential is an API key scoped to a user and a RegistryConfig.
// APIKey is always plaintext once loaded; stores encrypt it at rest.
type UserCredential struct {
	ID        int64
	UserID    int64
	ConfigID  int64
	APIKey    string
	CreatedAt time.Time
}

// Address is a normalized postal address.
type Address struct {
	Street        string `json:"street_address"`
	City          string `json:"city"`
	StateProvince string `json:"state_province"`
	PostalCode    string `json:"postal_code"`
	Country       string `json:"country"`
}

// Organization mirrors a registry organization.
type Organization struct {
	ID       int64
	ConfigID int64
	Handle   string
	Name     string
	Address
	TenantID   *int64
	RawData    RawPayload
	LastSynced *time.Time
	SyncedBy   *int64
}

// Contact mirrors a registry point of contact.
type Contact struct {
	ID          int64
	ConfigID    int64
	Handle      string
	Type        ContactType
	FirstName   string
	LastName    string
	CompanyName string
	Email       string
	Phone       string
	Address
	OrganizationID *int64
	LocalContactID *int64
	RawData        RawPayload
	LastSynced     *time.Time
	SyncedBy       *int64
}

// Network mirrors a registry network allocation.
type Network struct {
	ID             int64      `json:"id"`
	ConfigID       int64      `json:"config_id"`
	Handle         string     `json:"handle"`
	Name           string     `json:"name"`
	NetType        string     `json:"net_type"`
	StartAddress   string     `json:"start_address"`
	EndAddress     string     `json:"end_address"`
	OrganizationID *int64     `json:"organization_id,omitempty"`
	AggregateID    *int64     `json:"aggregate_id,omitempty"`
	PrefixID       *int64     `json:"prefix_id,omitempty"`
	AutoReassign   bool       `json:"auto_reassign"`
	RawData        RawPayload `json:"raw_data,omitempty"`
	LastSynced     *time.Time `json:"last_synced,omitempty"`
	SyncedBy       *int64     `json:"synced_by,omitempty"`
}

// IsRootAllocation reports whether the network is linked to a local aggregate.
func (n *Network) IsRootAllocation() bool {
	return n.AggregateID != nil
}

// IsRemovable reports whether the network is a sub-block that can be removed
// from the registry when its local prefix goes away.
func (n *Network) IsRemovable() bool {
	return n.PrefixID != nil && n.AggregateID == nil
}

// Customer is a simple reassignment customer record.
type Customer struct {
	ID           int64  `json:"id"`
	ConfigID     int64  `json:"config_id"`
	Handle       string `json:"handle"`
	CustomerName string `json:"customer_name"`
	Address
	NetworkID *int64     `json:"network_id,omitempty"`
	TenantID  *int64     `json:"tenant_id,omitempty"`
	RawData   RawPayload `json:"raw_data,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// Ticket tracks an asynchronous registry request.
type Ticket struct {
	ID          int64            `json:"id"`
	ConfigID    int64            `json:"config_id"`
	Number      string           `json:"number"`
	Type        TicketType       `json:"type"`
	Status      TicketStatus     `json:"status"`
	Resolution  TicketResolution `json:"resolution"`
	NetworkID   *int64           `json:"network_id,omitempty"`
	SubmittedBy *int64           `json:"submitted_by,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	ResolvedAt  *time.Time       `json:"resolved_at,omitempty"`
	RawData     RawPayload       `json:"raw_data,omitempty"`
}

// AuditLogEntry records one attempted sync or write operation.
type AuditLogEntry struct {
	ID           int64
	ConfigID     int64
	Operation    Operation
	ObjectType   ObjectType
	ObjectHandle string
	Status       Status
	Message      string
	UserID       *int64
	CreatedAt    time.Time
}

// Int64Ptr returns a pointer to v.
func Int64Ptr(v int64) *int64 {
	return &v
}
