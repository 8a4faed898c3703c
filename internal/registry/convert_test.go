package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ipam-rir/rir-manager/internal/models"
)

func TestOrganizationContactHandles(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		org  Organization
		want []string
	}{
		{
			name: "structured links win",
			org: Organization{
				POCLinks: []POCLink{{Handle: "ADMIN-ARIN"}, {Handle: ""}, {Handle: "TECH-ARIN"}},
				Raw:      map[string]any{"poc_links": []any{"IGNORED-ARIN"}},
			},
			want: []string{"ADMIN-ARIN", "TECH-ARIN"},
		},
		{
			name: "raw fallback with mixed items",
			org: Organization{Raw: map[string]any{"poc_links": []any{
				"ABUSE-ARIN",
				map[string]any{"handle": "NOC-ARIN", "function": "N"},
				map[string]any{"function": "T"},
				42,
			}}},
			want: []string{"ABUSE-ARIN", "NOC-ARIN"},
		},
		{
			name: "no links",
			org:  Organization{Raw: map[string]any{"poc_links": []any{}}},
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.org.ContactHandles())
		})
	}
}

func TestNetworkToModel(t *testing.T) {
	t.Parallel()

	n := Network{
		Handle: "NET-192-0-2-0-1",
		Name:   "EXAMPLE-NET",
		Type:   "A",
		Blocks: []NetBlock{{Start: "192.0.2.0", End: "192.0.2.255", CIDRLength: 24, Type: "S"}},
		Raw:    map[string]any{"handle": "NET-192-0-2-0-1"},
	}
	got := n.ToModel(7)

	assert.Equal(t, int64(7), got.ConfigID)
	assert.Equal(t, "S", got.NetType)
	assert.Equal(t, "192.0.2.0", got.StartAddress)
	assert.Equal(t, "192.0.2.255", got.EndAddress)
	assert.Nil(t, got.AggregateID)
	assert.Nil(t, got.PrefixID)
	assert.Equal(t, models.RawPayload{"handle": "NET-192-0-2-0-1"}, got.RawData)
}

func TestContactToModel(t *testing.T) {
	t.Parallel()

	c := Contact{Handle: "NOC-ARIN", Type: "role", CompanyName: "Example", City: "Reston", Country: "US"}
	got := c.ToModel(1)

	assert.Equal(t, models.ContactRole, got.Type)
	assert.Equal(t, "Reston", got.City)
	assert.Nil(t, got.OrganizationID)
}
