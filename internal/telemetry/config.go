// Package telemetry provides OpenTelemetry instrumentation for rir-manager:
// metrics exported in Prometheus format and traces exported over OTLP.
package telemetry

import (
	"errors"
	"fmt"
)

const (
	// DefaultServiceName is the default service name for telemetry
	DefaultServiceName = "rir-manager"

	// DefaultEndpoint is the default OTLP HTTP endpoint for traces
	DefaultEndpoint = "localhost:4318"

	// DefaultSampling is the default trace sampling rate (5%)
	DefaultSampling = 0.05
)

// Config represents the telemetry configuration
type Config struct {
	// ServiceName is the name of the service for telemetry identification
	// Defaults to "rir-manager" if not specified
	ServiceName string `yaml:"serviceName,omitempty"`

	// ServiceVersion is the version reported on the resource
	// Defaults to the application version if not specified
	ServiceVersion string `yaml:"serviceVersion,omitempty"`

	// Metrics controls the Prometheus scrape endpoint
	Metrics *MetricsConfig `yaml:"metrics,omitempty"`

	// Tracing controls OTLP trace export
	Tracing *TracingConfig `yaml:"tracing,omitempty"`
}

// MetricsConfig defines metrics-specific configuration
type MetricsConfig struct {
	// Enabled controls whether metrics are collected and exposed on /metrics
	Enabled bool `yaml:"enabled"`
}

// TracingConfig defines tracing-specific configuration
type TracingConfig struct {
	// Enabled controls whether spans are exported
	Enabled bool `yaml:"enabled"`

	// Endpoint is the OTLP collector "host:port"; /v1/traces is appended
	// by the exporter. Defaults to "localhost:4318"
	Endpoint string `yaml:"endpoint,omitempty"`

	// Insecure sends spans over plain HTTP
	Insecure bool `yaml:"insecure,omitempty"`

	// Sampling is the trace sampling ratio (0.0 to 1.0)
	// 0 means DefaultSampling since an unset value cannot be told apart
	Sampling float64 `yaml:"sampling,omitempty"`
}

// GetServiceName returns the configured service name or the default
func (c *Config) GetServiceName() string {
	if c == nil || c.ServiceName == "" {
		return DefaultServiceName
	}
	return c.ServiceName
}

// GetServiceVersion returns the configured version or fallback
func (c *Config) GetServiceVersion(fallback string) string {
	if c == nil || c.ServiceVersion == "" {
		return fallback
	}
	return c.ServiceVersion
}

// MetricsEnabled reports whether the Prometheus endpoint is on
func (c *Config) MetricsEnabled() bool {
	return c != nil && c.Metrics != nil && c.Metrics.Enabled
}

// TracingEnabled reports whether spans are exported
func (c *Config) TracingEnabled() bool {
	return c != nil && c.Tracing != nil && c.Tracing.Enabled
}

// GetEndpoint returns the endpoint, using default if not specified
func (c *TracingConfig) GetEndpoint() string {
	if c.Endpoint == "" {
		return DefaultEndpoint
	}
	return c.Endpoint
}

// GetSampling returns the sampling ratio, using default if not specified
func (c *TracingConfig) GetSampling() float64 {
	if c.Sampling == 0.0 {
		return DefaultSampling
	}
	return c.Sampling
}

// Validate validates the telemetry configuration
func (c *Config) Validate() error {
	if c == nil {
		return nil
	}

	var errs []error
	if c.Tracing != nil {
		if err := c.Tracing.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("tracing: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Validate validates the tracing configuration
func (c *TracingConfig) Validate() error {
	if c == nil || !c.Enabled {
		return nil
	}
	if c.Sampling < 0 || c.Sampling > 1.0 {
		return fmt.Errorf("sampling must be between 0.0 and 1.0, got %f", c.Sampling)
	}
	return nil
}
