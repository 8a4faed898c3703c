package registry

import (
	"github.com/ipam-rir/rir-manager/internal/models"
)

// ToModel maps the organization onto a local row for configID. Local-only
// links are left unset so an upsert keeps the stored values.
func (o *Organization) ToModel(configID int64) *models.Organization {
	return &models.Organization{
		ConfigID: configID,
		Handle:   o.Handle,
		Name:     o.Name,
		Address: models.Address{
			Street:        o.Street,
			City:          o.City,
			StateProvince: o.StateProvince,
			PostalCode:    o.PostalCode,
			Country:       o.Country,
		},
		RawData: models.RawPayload(o.Raw),
	}
}

// ContactHandles returns the POC handles referenced by the organization.
// When the structured links are empty the raw payload's poc_links list is
// used, whose items may be handle strings or objects with a handle key.
func (o *Organization) ContactHandles() []string {
	if len(o.POCLinks) > 0 {
		handles := make([]string, 0, len(o.POCLinks))
		for _, l := range o.POCLinks {
			if l.Handle != "" {
				handles = append(handles, l.Handle)
			}
		}
		return handles
	}
	return RawContactHandles(o.Raw)
}

// RawContactHandles extracts POC handles from a raw organization payload.
func RawContactHandles(raw map[string]any) []string {
	items, _ := raw["poc_links"].([]any)
	handles := make([]string, 0, len(items))
	for _, item := range items {
		switch v := item.(type) {
		case string:
			if v != "" {
				handles = append(handles, v)
			}
		case map[string]any:
			if h, _ := v["handle"].(string); h != "" {
				handles = append(handles, h)
			}
		}
	}
	return handles
}

// ToModel maps the contact onto a local row for configID.
func (c *Contact) ToModel(configID int64) *models.Contact {
	return &models.Contact{
		ConfigID:    configID,
		Handle:      c.Handle,
		Type:        models.NormalizeContactType(c.Type),
		FirstName:   c.FirstName,
		LastName:    c.LastName,
		CompanyName: c.CompanyName,
		Email:       c.Email,
		Phone:       c.Phone,
		Address: models.Address{
			Street:        c.Street,
			City:          c.City,
			StateProvince: c.StateProvince,
			PostalCode:    c.PostalCode,
			Country:       c.Country,
		},
		RawData: models.RawPayload(c.Raw),
	}
}

// ToModel maps the network onto a local row for configID. The address range
// and type come from the first net block.
func (n *Network) ToModel(configID int64) *models.Network {
	start, end := n.Range()
	return &models.Network{
		ConfigID:     configID,
		Handle:       n.Handle,
		Name:         n.Name,
		NetType:      n.FirstBlockType(),
		StartAddress: start,
		EndAddress:   end,
		RawData:      models.RawPayload(n.Raw),
	}
}

// ToModel maps the customer onto a local row for configID.
func (c *Customer) ToModel(configID int64) *models.Customer {
	return &models.Customer{
		ConfigID:     configID,
		Handle:       c.Handle,
		CustomerName: c.Name,
		Address: models.Address{
			Street:        c.Street,
			City:          c.City,
			StateProvince: c.StateProvince,
			PostalCode:    c.PostalCode,
			Country:       c.Country,
		},
		RawData: models.RawPayload(c.Raw),
	}
}
