// Package store defines persistence for registry configs, credentials, the
// mirrored registry objects and the audit log.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/ipam-rir/rir-manager/internal/models"
)

var (
	// ErrNotFound is returned when a requested row does not exist
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a uniqueness constraint would be violated
	ErrConflict = errors.New("conflict")
)

// Store is the persistence boundary used by the sync and write paths.
//
// Upsert methods are keyed by registry handle (ticket number for tickets),
// fill in the ID of the passed value and report whether a row was created.
// Local-only links (an organization's tenant, a contact's contact-book entry,
// a network's auto-reassign flag) are never cleared by an upsert, and nil
// aggregate or prefix links on a network keep whatever is already stored.
type Store interface {
	CreateConfig(ctx context.Context, cfg *models.RegistryConfig) error
	GetConfig(ctx context.Context, id int64) (*models.RegistryConfig, error)
	ListActiveConfigs(ctx context.Context) ([]models.RegistryConfig, error)
	TouchLastSync(ctx context.Context, configID int64, at time.Time) error

	// CreateCredential returns ErrConflict if the user already has a
	// credential for the config.
	CreateCredential(ctx context.Context, cred *models.UserCredential) error
	GetCredential(ctx context.Context, id int64) (*models.UserCredential, error)
	FindCredential(ctx context.Context, userID, configID int64) (*models.UserCredential, error)
	// ListCredentials returns credentials for a config ordered by ID.
	ListCredentials(ctx context.Context, configID int64) ([]models.UserCredential, error)
	// ListSyncedBy returns the distinct credential IDs recorded as the last
	// syncer of any organization, contact or network of the config.
	ListSyncedBy(ctx context.Context, configID int64) ([]int64, error)

	UpsertOrganization(ctx context.Context, org *models.Organization) (bool, error)
	GetOrganizationByHandle(ctx context.Context, handle string) (*models.Organization, error)
	FindOrganizationByTenant(ctx context.Context, tenantID int64) (*models.Organization, error)
	ListOrganizations(ctx context.Context, configID int64) ([]models.Organization, error)

	UpsertContact(ctx context.Context, c *models.Contact) (bool, error)
	ListContacts(ctx context.Context, configID int64) ([]models.Contact, error)

	UpsertNetwork(ctx context.Context, n *models.Network) (bool, error)
	GetNetwork(ctx context.Context, id int64) (*models.Network, error)
	GetNetworkByHandle(ctx context.Context, handle string) (*models.Network, error)
	FindNetworkByPrefix(ctx context.Context, prefixID int64) (*models.Network, error)
	FindNetworkByAggregate(ctx context.Context, aggregateID int64) (*models.Network, error)
	FindAutoReassignNetwork(ctx context.Context, aggregateID int64) (*models.Network, error)
	ListNetworks(ctx context.Context, configID int64) ([]models.Network, error)
	// SetAutoReassign is the operator switch for trigger-driven reassignment.
	SetAutoReassign(ctx context.Context, id int64, enabled bool) error
	DeleteNetwork(ctx context.Context, id int64) error

	UpsertCustomer(ctx context.Context, c *models.Customer) (bool, error)
	ListCustomers(ctx context.Context, configID int64) ([]models.Customer, error)

	UpsertTicket(ctx context.Context, t *models.Ticket) (bool, error)
	GetTicket(ctx context.Context, id int64) (*models.Ticket, error)
	ListTickets(ctx context.Context, configID int64) ([]models.Ticket, error)

	// AppendAuditLog inserts an entry; entries are never updated or removed.
	AppendAuditLog(ctx context.Context, e *models.AuditLogEntry) error
	ListAuditLog(ctx context.Context, configID int64) ([]models.AuditLogEntry, error)

	Ping(ctx context.Context) error
}
