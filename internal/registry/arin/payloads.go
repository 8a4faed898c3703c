package arin

import (
	"encoding/json"
	"encoding/xml"
	"sort"
	"strings"
	"time"

	"github.com/ipam-rir/rir-manager/internal/registry"
)

// Namespace is the Reg-RWS core payload namespace.
const Namespace = "http://www.arin.net/regrws/core/v1"

type line struct {
	Number int    `xml:"number,attr" json:"number"`
	Text   string `xml:",chardata" json:"text"`
}

type streetAddress struct {
	Lines []line `xml:"line" json:"lines,omitempty"`
}

func (s streetAddress) String() string {
	lines := append([]line(nil), s.Lines...)
	sort.SliceStable(lines, func(i, j int) bool { return lines[i].Number < lines[j].Number })
	parts := make([]string, 0, len(lines))
	for _, l := range lines {
		if t := strings.TrimSpace(l.Text); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, "\n")
}

func newStreetAddress(street string) streetAddress {
	var s streetAddress
	for i, l := range strings.Split(street, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			s.Lines = append(s.Lines, line{Number: i + 1, Text: l})
		}
	}
	return s
}

type country struct {
	Name  string `xml:"name,omitempty" json:"name,omitempty"`
	Code2 string `xml:"code2" json:"code2"`
	Code3 string `xml:"code3,omitempty" json:"code3,omitempty"`
}

type pocLinkRef struct {
	Handle      string `xml:"handle,attr" json:"handle"`
	Function    string `xml:"function,attr,omitempty" json:"function,omitempty"`
	Description string `xml:"description,attr,omitempty" json:"description,omitempty"`
}

type orgPayload struct {
	XMLName       xml.Name      `xml:"org" json:"-"`
	Handle        string        `xml:"handle" json:"handle"`
	Name          string        `xml:"orgName" json:"org_name"`
	StreetAddress streetAddress `xml:"streetAddress" json:"street_address"`
	City          string        `xml:"city" json:"city"`
	Country       country       `xml:"iso3166-1" json:"iso3166_1"`
	Region        string        `xml:"iso3166-2" json:"iso3166_2,omitempty"`
	PostalCode    string        `xml:"postalCode" json:"postal_code,omitempty"`
	POCLinks      []pocLinkRef  `xml:"pocLinks>pocLinkRef" json:"poc_links"`
}

func (p *orgPayload) normalize() *registry.Organization {
	links := make([]registry.POCLink, 0, len(p.POCLinks))
	for _, l := range p.POCLinks {
		links = append(links, registry.POCLink{Handle: l.Handle, Function: l.Function, Description: l.Description})
	}
	return &registry.Organization{
		Handle:        p.Handle,
		Name:          p.Name,
		Street:        p.StreetAddress.String(),
		City:          p.City,
		StateProvince: p.Region,
		PostalCode:    p.PostalCode,
		Country:       p.Country.Code2,
		POCLinks:      links,
		Raw:           toRaw(p),
	}
}

type phoneType struct {
	Code string `xml:"code" json:"code"`
}

type phone struct {
	Number    string    `xml:"number" json:"number"`
	Extension string    `xml:"extension,omitempty" json:"extension,omitempty"`
	Type      phoneType `xml:"type" json:"type"`
}

type pocPayload struct {
	XMLName       xml.Name      `xml:"poc" json:"-"`
	Handle        string        `xml:"handle" json:"handle"`
	ContactType   string        `xml:"contactType" json:"contact_type"`
	FirstName     string        `xml:"firstName" json:"first_name,omitempty"`
	LastName      string        `xml:"lastName" json:"last_name,omitempty"`
	CompanyName   string        `xml:"companyName" json:"company_name,omitempty"`
	Emails        []string      `xml:"emails>email" json:"emails,omitempty"`
	Phones        []phone       `xml:"phones>phone" json:"phones,omitempty"`
	StreetAddress streetAddress `xml:"streetAddress" json:"street_address"`
	City          string        `xml:"city" json:"city"`
	Country       country       `xml:"iso3166-1" json:"iso3166_1"`
	Region        string        `xml:"iso3166-2" json:"iso3166_2,omitempty"`
	PostalCode    string        `xml:"postalCode" json:"postal_code,omitempty"`
}

func (p *pocPayload) normalize() *registry.Contact {
	c := &registry.Contact{
		Handle:        p.Handle,
		Type:          p.ContactType,
		FirstName:     p.FirstName,
		LastName:      p.LastName,
		CompanyName:   p.CompanyName,
		Street:        p.StreetAddress.String(),
		City:          p.City,
		StateProvince: p.Region,
		PostalCode:    p.PostalCode,
		Country:       p.Country.Code2,
		Raw:           toRaw(p),
	}
	if len(p.Emails) > 0 {
		c.Email = p.Emails[0]
	}
	if len(p.Phones) > 0 {
		c.Phone = p.Phones[0].Number
	}
	return c
}

type netBlock struct {
	CIDRLength   int    `xml:"cidrLength,omitempty" json:"cidr_length,omitempty"`
	EndAddress   string `xml:"endAddress,omitempty" json:"end_address,omitempty"`
	StartAddress string `xml:"startAddress" json:"start_address"`
	Type         string `xml:"type,omitempty" json:"type,omitempty"`
}

type netPayload struct {
	XMLName         xml.Name   `xml:"net" json:"-"`
	Xmlns           string     `xml:"xmlns,attr,omitempty" json:"-"`
	Version         int        `xml:"version,omitempty" json:"version,omitempty"`
	CustomerHandle  string     `xml:"customerHandle,omitempty" json:"customer_handle,omitempty"`
	Handle          string     `xml:"handle,omitempty" json:"handle,omitempty"`
	NetBlocks       []netBlock `xml:"netBlocks>netBlock" json:"net_blocks"`
	NetName         string     `xml:"netName,omitempty" json:"net_name,omitempty"`
	OrgHandle       string     `xml:"orgHandle,omitempty" json:"org_handle,omitempty"`
	ParentNetHandle string     `xml:"parentNetHandle,omitempty" json:"parent_net_handle,omitempty"`
}

func (p *netPayload) normalize() *registry.Network {
	blocks := make([]registry.NetBlock, 0, len(p.NetBlocks))
	for _, b := range p.NetBlocks {
		blocks = append(blocks, registry.NetBlock{
			Start:      b.StartAddress,
			End:        b.EndAddress,
			CIDRLength: b.CIDRLength,
			Type:       b.Type,
		})
	}
	n := &registry.Network{
		Handle:         p.Handle,
		Name:           p.NetName,
		Version:        p.Version,
		OrgHandle:      p.OrgHandle,
		CustomerHandle: p.CustomerHandle,
		ParentHandle:   p.ParentNetHandle,
		Blocks:         blocks,
		Raw:            toRaw(p),
	}
	if len(blocks) > 0 {
		n.Type = blocks[0].Type
	}
	return n
}

func newNetPayload(spec registry.ReassignSpec) *netPayload {
	version := 4
	if strings.Contains(spec.StartAddress, ":") {
		version = 6
	}
	return &netPayload{
		Xmlns:          Namespace,
		Version:        version,
		CustomerHandle: spec.CustomerHandle,
		NetName:        spec.NetName,
		OrgHandle:      spec.OrgHandle,
		NetBlocks: []netBlock{{
			StartAddress: spec.StartAddress,
			EndAddress:   spec.EndAddress,
		}},
	}
}

type netRef struct {
	Handle       string `xml:"handle,attr"`
	StartAddress string `xml:"startAddress,attr"`
	EndAddress   string `xml:"endAddress,attr"`
}

// netCollection covers range lookups answered with several matches.
type netCollection struct {
	XMLName xml.Name     `xml:"collection"`
	Nets    []netPayload `xml:"net"`
	NetRefs []netRef     `xml:"netRef"`
}

type customerPayload struct {
	XMLName         xml.Name      `xml:"customer" json:"-"`
	Xmlns           string        `xml:"xmlns,attr,omitempty" json:"-"`
	CustomerName    string        `xml:"customerName" json:"customer_name"`
	Country         country       `xml:"iso3166-1" json:"iso3166_1"`
	Handle          string        `xml:"handle,omitempty" json:"handle,omitempty"`
	StreetAddress   streetAddress `xml:"streetAddress" json:"street_address"`
	City            string        `xml:"city" json:"city"`
	Region          string        `xml:"iso3166-2,omitempty" json:"iso3166_2,omitempty"`
	PostalCode      string        `xml:"postalCode,omitempty" json:"postal_code,omitempty"`
	ParentOrgHandle string        `xml:"parentOrgHandle,omitempty" json:"parent_org_handle,omitempty"`
}

func (p *customerPayload) normalize() *registry.Customer {
	return &registry.Customer{
		Handle:        p.Handle,
		Name:          p.CustomerName,
		Street:        p.StreetAddress.String(),
		City:          p.City,
		StateProvince: p.Region,
		PostalCode:    p.PostalCode,
		Country:       p.Country.Code2,
		ParentOrg:     p.ParentOrgHandle,
		Raw:           toRaw(p),
	}
}

func newCustomerPayload(spec registry.CustomerSpec) *customerPayload {
	return &customerPayload{
		Xmlns:         Namespace,
		CustomerName:  spec.Name,
		Country:       country{Code2: strings.ToUpper(spec.Country)},
		StreetAddress: newStreetAddress(spec.Street),
		City:          spec.City,
		Region:        spec.StateProvince,
		PostalCode:    spec.PostalCode,
	}
}

type ticketPayload struct {
	TicketNo            string `xml:"ticketNo" json:"ticket_no"`
	CreatedDate         string `xml:"createdDate" json:"created_date,omitempty"`
	ResolvedDate        string `xml:"resolvedDate" json:"resolved_date,omitempty"`
	WebTicketStatus     string `xml:"webTicketStatus" json:"web_ticket_status,omitempty"`
	WebTicketType       string `xml:"webTicketType" json:"web_ticket_type,omitempty"`
	WebTicketResolution string `xml:"webTicketResolution" json:"web_ticket_resolution,omitempty"`
}

func (p *ticketPayload) normalize(raw map[string]any) *registry.TicketResult {
	return &registry.TicketResult{
		Number:     p.TicketNo,
		Status:     p.WebTicketStatus,
		Type:       p.WebTicketType,
		Resolution: p.WebTicketResolution,
		CreatedAt:  parseTime(p.CreatedDate),
		ResolvedAt: parseTime(p.ResolvedDate),
		Raw:        raw,
	}
}

type ticketedRequestPayload struct {
	XMLName xml.Name       `xml:"ticketedRequest" json:"-"`
	Ticket  *ticketPayload `xml:"ticket" json:"ticket,omitempty"`
	Net     *netPayload    `xml:"net" json:"net,omitempty"`
}

func (p *ticketedRequestPayload) normalize() *registry.TicketResult {
	var result *registry.TicketResult
	if p.Ticket != nil {
		result = p.Ticket.normalize(toRaw(p))
	} else {
		result = &registry.TicketResult{Raw: toRaw(p)}
	}
	if p.Net != nil {
		result.Network = p.Net.normalize()
	}
	return result
}

type ticketDocument struct {
	XMLName xml.Name `xml:"ticket" json:"-"`
	ticketPayload
}

type errorPayload struct {
	XMLName xml.Name `xml:"error"`
	Code    string   `xml:"code"`
	Message string   `xml:"message"`
}

func parseTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.000-0700", "2006-01-02T15:04:05-0700"} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

// toRaw renders a decoded payload as an untyped document.
func toRaw(v any) map[string]any {
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil
	}
	return out
}
