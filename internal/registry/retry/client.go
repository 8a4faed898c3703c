package retry

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/ipam-rir/rir-manager/internal/models"
	rirotel "github.com/ipam-rir/rir-manager/internal/otel"
	"github.com/ipam-rir/rir-manager/internal/registry"
	"github.com/ipam-rir/rir-manager/internal/telemetry"
)

const tracerName = "github.com/ipam-rir/rir-manager/registry"

// Option configures the retrying client
type Option func(*client)

// WithPolicy overrides the default retry policy
func WithPolicy(p Policy) Option {
	return func(c *client) {
		c.policy = p
	}
}

// WithMetrics sets the registry call metrics
func WithMetrics(m *telemetry.RegistryMetrics) Option {
	return func(c *client) {
		c.metrics = m
	}
}

// WithTracer sets the tracer used for registry call spans
func WithTracer(t trace.Tracer) Option {
	return func(c *client) {
		c.tracer = t
	}
}

type client struct {
	backend registry.Backend
	policy  Policy
	metrics *telemetry.RegistryMetrics
	tracer  trace.Tracer
}

// New wraps backend with retry, tracing and the mutation guard.
func New(backend registry.Backend, opts ...Option) registry.Client {
	c := &client{
		backend: backend,
		policy:  DefaultPolicy(),
		tracer:  otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// call runs one backend operation and folds every failure into a nil result.
func call[T any](ctx context.Context, c *client, op, key string, fn func(context.Context) (T, error)) (T, bool) {
	ctx, span := rirotel.StartSpan(ctx, c.tracer, "registry."+op, trace.WithAttributes(
		rirotel.AttrRegistryOp.String(op),
		rirotel.AttrRegistryKey.String(key),
	))
	defer span.End()

	v, err := do(ctx, c.policy, c.metrics, op, fn)
	if err == nil {
		c.metrics.RecordCall(ctx, op, "success")
		return v, true
	}

	var zero T
	category := registry.GetCategory(err)
	c.metrics.RecordCall(ctx, op, string(category))
	span.SetAttributes(rirotel.AttrErrorCategory.String(string(category)))

	if errors.Is(err, registry.ErrNotFound) {
		slog.Debug("Registry object not found", "operation", op, "key", key)
		return zero, false
	}

	rirotel.RecordError(span, err)
	slog.Warn("Registry call failed",
		"operation", op,
		"key", key,
		"category", category,
		"error", err)
	return zero, false
}

func (c *client) GetOrganization(ctx context.Context, handle string) *registry.Organization {
	org, _ := call(ctx, c, "get_organization", handle, func(ctx context.Context) (*registry.Organization, error) {
		return c.backend.GetOrganization(ctx, handle)
	})
	return org
}

func (c *client) GetNetwork(ctx context.Context, handle string) *registry.Network {
	net, _ := call(ctx, c, "get_network", handle, func(ctx context.Context) (*registry.Network, error) {
		return c.backend.GetNetwork(ctx, handle)
	})
	return net
}

func (c *client) GetContact(ctx context.Context, handle string) *registry.Contact {
	poc, _ := call(ctx, c, "get_contact", handle, func(ctx context.Context) (*registry.Contact, error) {
		return c.backend.GetContact(ctx, handle)
	})
	return poc
}

func (c *client) FindNetworkByRange(ctx context.Context, start, end string) *registry.Network {
	net, _ := call(ctx, c, "find_network_by_range", start+"-"+end, func(ctx context.Context) (*registry.Network, error) {
		return c.backend.FindNetworkByRange(ctx, start, end)
	})
	return net
}

func (c *client) GetCustomer(ctx context.Context, handle string) *registry.Customer {
	cust, _ := call(ctx, c, "get_customer", handle, func(ctx context.Context) (*registry.Customer, error) {
		return c.backend.GetCustomer(ctx, handle)
	})
	return cust
}

func (c *client) GetTicket(ctx context.Context, number string) *registry.TicketResult {
	ticket, _ := call(ctx, c, "get_ticket", number, func(ctx context.Context) (*registry.TicketResult, error) {
		return c.backend.GetTicket(ctx, number)
	})
	return ticket
}

// exists re-fetches the target network before a mutation.
func (c *client) exists(ctx context.Context, op, handle string) bool {
	if c.GetNetwork(ctx, handle) == nil {
		slog.Warn("Network not found at registry, mutation not sent", "operation", op, "handle", handle)
		return false
	}
	return true
}

func (c *client) UpdateNetwork(ctx context.Context, handle string, patch registry.NetworkPatch) *registry.Network {
	if !c.exists(ctx, "update_network", handle) {
		return nil
	}
	net, _ := call(ctx, c, "update_network", handle, func(ctx context.Context) (*registry.Network, error) {
		return c.backend.UpdateNetwork(ctx, handle, patch)
	})
	return net
}

func (c *client) ReassignNetwork(ctx context.Context, parentHandle string, spec registry.ReassignSpec) *registry.TicketResult {
	if !c.exists(ctx, "reassign_network", parentHandle) {
		return nil
	}
	ticket, _ := call(ctx, c, "reassign_network", parentHandle, func(ctx context.Context) (*registry.TicketResult, error) {
		return c.backend.ReassignNetwork(ctx, parentHandle, spec)
	})
	return ticket
}

func (c *client) ReallocateNetwork(ctx context.Context, parentHandle string, spec registry.ReassignSpec) *registry.TicketResult {
	if !c.exists(ctx, "reallocate_network", parentHandle) {
		return nil
	}
	ticket, _ := call(ctx, c, "reallocate_network", parentHandle, func(ctx context.Context) (*registry.TicketResult, error) {
		return c.backend.ReallocateNetwork(ctx, parentHandle, spec)
	})
	return ticket
}

func (c *client) RemoveNetwork(ctx context.Context, handle string) bool {
	if !c.exists(ctx, "remove_network", handle) {
		return false
	}
	_, ok := call(ctx, c, "remove_network", handle, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, c.backend.RemoveNetwork(ctx, handle)
	})
	return ok
}

func (c *client) DeleteNetwork(ctx context.Context, handle string) *registry.TicketResult {
	if !c.exists(ctx, "delete_network", handle) {
		return nil
	}
	ticket, _ := call(ctx, c, "delete_network", handle, func(ctx context.Context) (*registry.TicketResult, error) {
		return c.backend.DeleteNetwork(ctx, handle)
	})
	return ticket
}

func (c *client) CreateCustomer(ctx context.Context, parentHandle string, spec registry.CustomerSpec) *registry.Customer {
	if !c.exists(ctx, "create_customer", parentHandle) {
		return nil
	}
	cust, _ := call(ctx, c, "create_customer", parentHandle, func(ctx context.Context) (*registry.Customer, error) {
		return c.backend.CreateCustomer(ctx, parentHandle, spec)
	})
	return cust
}

type connector struct {
	backends *registry.Backends
	opts     []Option
}

// NewConnector returns a registry.Connector that builds retrying clients
// from the given backend registry.
func NewConnector(backends *registry.Backends, opts ...Option) registry.Connector {
	return &connector{backends: backends, opts: opts}
}

func (c *connector) Connect(cfg *models.RegistryConfig, cred *models.UserCredential) (registry.Client, error) {
	if cred == nil {
		return nil, errors.New("a credential is required to connect to a registry")
	}
	backend, err := c.backends.Connect(cfg, cred.APIKey)
	if err != nil {
		return nil, err
	}
	return New(backend, c.opts...), nil
}
