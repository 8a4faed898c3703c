package models

import "strings"

// Operation is the kind of action an audit entry records.
type Operation string

// Audit operations
const (
	OperationSync       Operation = "sync"
	OperationCreate     Operation = "create"
	OperationUpdate     Operation = "update"
	OperationDelete     Operation = "delete"
	OperationReassign   Operation = "reassign"
	OperationReallocate Operation = "reallocate"
	OperationRemove     Operation = "remove"
)

// Status is the outcome of an audited operation.
type Status string

// Audit statuses
const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
	StatusSkipped Status = "skipped"
)

// ObjectType names the registry object an audit entry refers to.
type ObjectType string

// Audit object types
const (
	ObjectOrganization ObjectType = "organization"
	ObjectContact      ObjectType = "contact"
	ObjectNetwork      ObjectType = "network"
	ObjectCustomer     ObjectType = "customer"
	ObjectTicket       ObjectType = "ticket"
)

// ContactType is the registry POC kind.
type ContactType string

// Contact types
const (
	ContactPerson ContactType = "PERSON"
	ContactRole   ContactType = "ROLE"
)

// NormalizeContactType upper-cases a raw contact type, defaulting to PERSON.
func NormalizeContactType(raw string) ContactType {
	if strings.EqualFold(raw, string(ContactRole)) {
		return ContactRole
	}
	return ContactPerson
}

// TicketType is the registry request kind.
type TicketType string

// Ticket types
const (
	TicketIPv4SimpleReassign   TicketType = "IPV4_SIMPLE_REASSIGN"
	TicketIPv4DetailedReassign TicketType = "IPV4_DETAILED_REASSIGN"
	TicketIPv4Reallocate       TicketType = "IPV4_REALLOCATE"
	TicketIPv6DetailedReassign TicketType = "IPV6_DETAILED_REASSIGN"
	TicketIPv6Reallocate       TicketType = "IPV6_REALLOCATE"
	TicketNetDeleteRequest     TicketType = "NET_DELETE_REQUEST"
)

// TicketStatus values as reported by the registry.
type TicketStatus string

// Ticket statuses
const (
	TicketPendingConfirmation TicketStatus = "pending_confirmation"
	TicketPendingReview       TicketStatus = "pending_review"
	TicketAssigned            TicketStatus = "assigned"
	TicketInProgress          TicketStatus = "in_progress"
	TicketResolved            TicketStatus = "resolved"
	TicketClosed              TicketStatus = "closed"
	TicketApproved            TicketStatus = "approved"
)

var ticketStatuses = map[string]TicketStatus{
	"PENDING_CONFIRMATION": TicketPendingConfirmation,
	"PENDING_REVIEW":       TicketPendingReview,
	"ASSIGNED":             TicketAssigned,
	"IN_PROGRESS":          TicketInProgress,
	"RESOLVED":             TicketResolved,
	"CLOSED":               TicketClosed,
	"APPROVED":             TicketApproved,
}

// NormalizeTicketStatus maps an upstream status string to a TicketStatus.
// Unrecognized values fall back to pending_review and ok is false.
func NormalizeTicketStatus(raw string) (status TicketStatus, ok bool) {
	status, ok = ticketStatuses[strings.ToUpper(strings.TrimSpace(raw))]
	if !ok {
		return TicketPendingReview, false
	}
	return status, true
}

// IsTerminal reports whether no further transitions are expected.
func (s TicketStatus) IsTerminal() bool {
	return s == TicketResolved || s == TicketClosed
}

// TicketResolution is the final outcome of a ticket.
type TicketResolution string

// Ticket resolutions
const (
	ResolutionNone      TicketResolution = ""
	ResolutionAccepted  TicketResolution = "accepted"
	ResolutionDenied    TicketResolution = "denied"
	ResolutionAbandoned TicketResolution = "abandoned"
	ResolutionProcessed TicketResolution = "processed"
	ResolutionWithdrawn TicketResolution = "withdrawn"
	ResolutionOther     TicketResolution = "other"
)

// NormalizeTicketResolution maps an upstream resolution string. Empty input
// means the ticket is unresolved; unknown values map to other.
func NormalizeTicketResolution(raw string) TicketResolution {
	switch v := TicketResolution(strings.ToLower(strings.TrimSpace(raw))); v {
	case ResolutionNone, ResolutionAccepted, ResolutionDenied, ResolutionAbandoned,
		ResolutionProcessed, ResolutionWithdrawn:
		return v
	default:
		return ResolutionOther
	}
}
