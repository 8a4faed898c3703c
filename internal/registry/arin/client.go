// Package arin implements the registry Backend for ARIN's Reg-RWS API.
package arin

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ipam-rir/rir-manager/internal/httpclient"
	"github.com/ipam-rir/rir-manager/internal/registry"
)

const (
	// RIR is the backend name this package registers under
	RIR = "ARIN"

	// DefaultBaseURL is the production Reg-RWS endpoint
	DefaultBaseURL = "https://reg.arin.net"

	// OTEBaseURL is the operational test and evaluation endpoint
	OTEBaseURL = "https://reg.ote.arin.net"

	// DefaultRateLimit keeps well under the service's per-key request ceiling
	DefaultRateLimit = 5

	errObjectNotFound = "E_OBJECT_NOT_FOUND"
	contentTypeXML    = "application/xml"
)

// Option configures the ARIN client
type Option func(*Client)

// WithHTTPClient overrides the HTTP client
func WithHTTPClient(h httpclient.Client) Option {
	return func(c *Client) {
		c.http = h
	}
}

// Client talks to Reg-RWS as one API key.
type Client struct {
	baseURL string
	apiKey  string
	http    httpclient.Client
}

var _ registry.Backend = (*Client)(nil)

// New creates a client for cfg. An empty base URL selects production.
func New(cfg registry.BackendConfig, opts ...Option) (*Client, error) {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	u, err := url.Parse(base)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid ARIN base URL %q", cfg.BaseURL)
	}
	if cfg.APIKey == "" {
		return nil, errors.New("an ARIN API key is required")
	}

	c := &Client{
		baseURL: base,
		apiKey:  cfg.APIKey,
		http:    httpclient.NewDefaultClient(httpclient.WithRateLimit(DefaultRateLimit, 1)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Register adds the ARIN factory to backends.
func Register(backends *registry.Backends, opts ...Option) {
	backends.Register(RIR, func(cfg registry.BackendConfig) (registry.Backend, error) {
		return New(cfg, opts...)
	})
}

func (c *Client) endpoint(segments ...string) string {
	escaped := make([]string, len(segments))
	for i, s := range segments {
		escaped[i] = url.PathEscape(s)
	}
	return c.baseURL + "/rest/" + strings.Join(escaped, "/") + "?apikey=" + url.QueryEscape(c.apiKey)
}

// do sends in (if any) and decodes the response into out (if any).
func (c *Client) do(ctx context.Context, op, method, endpoint string, in, out any) error {
	var body []byte
	if in != nil {
		data, err := xml.Marshal(in)
		if err != nil {
			return registry.NewError(registry.ErrorBadData, op, "failed to encode request", err)
		}
		body = append([]byte(xml.Header), data...)
	}

	req := httpclient.Request{Method: method, URL: endpoint, Body: body, Accept: contentTypeXML}
	if body != nil {
		req.ContentType = contentTypeXML
	}

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return classify(op, resp, err)
	}

	if out != nil {
		if len(bytes.TrimSpace(resp.Body)) == 0 {
			return registry.NewError(registry.ErrorBadData, op, "empty response", nil)
		}
		if err := xml.Unmarshal(resp.Body, out); err != nil {
			return registry.NewError(registry.ErrorBadData, op, "failed to decode response", err)
		}
	}
	return nil
}

// classify maps an HTTP failure and its error payload onto the registry taxonomy.
func classify(op string, resp *httpclient.Response, err error) error {
	status := httpclient.StatusCode(err)
	if status == 0 || resp == nil {
		return registry.Classify(op, err)
	}

	var payload errorPayload
	_ = xml.Unmarshal(resp.Body, &payload)
	message := payload.Message
	if message == "" {
		message = http.StatusText(status)
	}

	switch {
	case status == http.StatusNotFound || payload.Code == errObjectNotFound:
		return registry.NewError(registry.ErrorNotFound, op, message, err)
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return registry.NewError(registry.ErrorUnauthorized, op, message, err)
	case status == http.StatusTooManyRequests:
		return registry.NewError(registry.ErrorRateLimited, op, message, err)
	case status >= http.StatusInternalServerError:
		return registry.NewError(registry.ErrorUnavailable, op, message, err)
	default:
		return registry.NewError(registry.ErrorRejected, op, message, err)
	}
}

// GetOrganization implements registry.Backend
func (c *Client) GetOrganization(ctx context.Context, handle string) (*registry.Organization, error) {
	var p orgPayload
	if err := c.do(ctx, "get_organization", http.MethodGet, c.endpoint("org", handle), nil, &p); err != nil {
		return nil, err
	}
	return p.normalize(), nil
}

// GetContact implements registry.Backend
func (c *Client) GetContact(ctx context.Context, handle string) (*registry.Contact, error) {
	var p pocPayload
	if err := c.do(ctx, "get_contact", http.MethodGet, c.endpoint("poc", handle), nil, &p); err != nil {
		return nil, err
	}
	return p.normalize(), nil
}

// GetNetwork implements registry.Backend
func (c *Client) GetNetwork(ctx context.Context, handle string) (*registry.Network, error) {
	var p netPayload
	if err := c.do(ctx, "get_network", http.MethodGet, c.endpoint("net", handle), nil, &p); err != nil {
		return nil, err
	}
	return p.normalize(), nil
}

// FindNetworkByRange implements registry.Backend. When the registry answers
// with several matches the most specific, listed last, wins.
func (c *Client) FindNetworkByRange(ctx context.Context, start, end string) (*registry.Network, error) {
	const op = "find_network_by_range"

	resp, err := c.http.Do(ctx, httpclient.Request{
		Method: http.MethodGet,
		URL:    c.endpoint("net", "rng", start, end),
		Accept: contentTypeXML,
	})
	if err != nil {
		return nil, classify(op, resp, err)
	}

	var root struct {
		XMLName xml.Name
	}
	if err := xml.Unmarshal(resp.Body, &root); err != nil {
		return nil, registry.NewError(registry.ErrorBadData, op, "failed to decode response", err)
	}

	switch root.XMLName.Local {
	case "net":
		var p netPayload
		if err := xml.Unmarshal(resp.Body, &p); err != nil {
			return nil, registry.NewError(registry.ErrorBadData, op, "failed to decode net", err)
		}
		return p.normalize(), nil
	case "collection":
		var coll netCollection
		if err := xml.Unmarshal(resp.Body, &coll); err != nil {
			return nil, registry.NewError(registry.ErrorBadData, op, "failed to decode collection", err)
		}
		if n := len(coll.Nets); n > 0 {
			return coll.Nets[n-1].normalize(), nil
		}
		if n := len(coll.NetRefs); n > 0 {
			return c.GetNetwork(ctx, coll.NetRefs[n-1].Handle)
		}
		return nil, registry.NewError(registry.ErrorNotFound, op, "no network covers range", nil)
	default:
		return nil, registry.NewError(registry.ErrorBadData, op, "unexpected document "+root.XMLName.Local, nil)
	}
}

// GetCustomer implements registry.Backend
func (c *Client) GetCustomer(ctx context.Context, handle string) (*registry.Customer, error) {
	var p customerPayload
	if err := c.do(ctx, "get_customer", http.MethodGet, c.endpoint("customer", handle), nil, &p); err != nil {
		return nil, err
	}
	return p.normalize(), nil
}

// GetTicket implements registry.Backend
func (c *Client) GetTicket(ctx context.Context, number string) (*registry.TicketResult, error) {
	var p ticketDocument
	if err := c.do(ctx, "get_ticket", http.MethodGet, c.endpoint("ticket", number), nil, &p); err != nil {
		return nil, err
	}
	return p.normalize(toRaw(&p)), nil
}

// UpdateNetwork implements registry.Backend. The current record is fetched
// and sent back with the patch applied, as Reg-RWS modifies by replacement.
func (c *Client) UpdateNetwork(ctx context.Context, handle string, patch registry.NetworkPatch) (*registry.Network, error) {
	var current netPayload
	if err := c.do(ctx, "update_network", http.MethodGet, c.endpoint("net", handle), nil, &current); err != nil {
		return nil, err
	}
	current.XMLName = xml.Name{}
	current.Xmlns = Namespace
	if patch.Name != nil {
		current.NetName = *patch.Name
	}

	var updated netPayload
	if err := c.do(ctx, "update_network", http.MethodPut, c.endpoint("net", handle), &current, &updated); err != nil {
		return nil, err
	}
	return updated.normalize(), nil
}

func (c *Client) ticketed(ctx context.Context, op, method, endpoint string, in any) (*registry.TicketResult, error) {
	var p ticketedRequestPayload
	if err := c.do(ctx, op, method, endpoint, in, &p); err != nil {
		return nil, err
	}
	return p.normalize(), nil
}

// ReassignNetwork implements registry.Backend
func (c *Client) ReassignNetwork(ctx context.Context, parentHandle string, spec registry.ReassignSpec) (*registry.TicketResult, error) {
	return c.ticketed(ctx, "reassign_network", http.MethodPut, c.endpoint("net", parentHandle, "reassign"), newNetPayload(spec))
}

// ReallocateNetwork implements registry.Backend
func (c *Client) ReallocateNetwork(ctx context.Context, parentHandle string, spec registry.ReassignSpec) (*registry.TicketResult, error) {
	return c.ticketed(ctx, "reallocate_network", http.MethodPut, c.endpoint("net", parentHandle, "reallocate"), newNetPayload(spec))
}

// RemoveNetwork implements registry.Backend
func (c *Client) RemoveNetwork(ctx context.Context, handle string) error {
	return c.do(ctx, "remove_network", http.MethodDelete, c.endpoint("net", handle, "remove"), nil, nil)
}

// DeleteNetwork implements registry.Backend
func (c *Client) DeleteNetwork(ctx context.Context, handle string) (*registry.TicketResult, error) {
	return c.ticketed(ctx, "delete_network", http.MethodDelete, c.endpoint("net", handle), nil)
}

// CreateCustomer implements registry.Backend
func (c *Client) CreateCustomer(ctx context.Context, parentHandle string, spec registry.CustomerSpec) (*registry.Customer, error) {
	var p customerPayload
	err := c.do(ctx, "create_customer", http.MethodPost, c.endpoint("net", parentHandle, "customer"), newCustomerPayload(spec), &p)
	if err != nil {
		return nil, err
	}
	return p.normalize(), nil
}
