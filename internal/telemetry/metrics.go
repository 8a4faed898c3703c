package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	// RegistryMetricsMeterName is the name used for the registry client meter
	RegistryMetricsMeterName = "github.com/ipam-rir/rir-manager/registry"

	// SyncMetricsMeterName is the name used for the sync metrics meter
	SyncMetricsMeterName = "github.com/ipam-rir/rir-manager/sync"

	// OperationMetricsMeterName is the name used for the write operation meter
	OperationMetricsMeterName = "github.com/ipam-rir/rir-manager/operations"

	// JobMetricsMeterName is the name used for the job worker meter
	JobMetricsMeterName = "github.com/ipam-rir/rir-manager/jobs"
)

// RegistryMetrics holds the instruments for calls made to a registry backend
type RegistryMetrics struct {
	calls   metric.Int64Counter
	retries metric.Int64Counter
}

// NewRegistryMetrics creates a new RegistryMetrics instance with the given meter provider.
// If provider is nil, it returns nil (no-op metrics).
func NewRegistryMetrics(provider metric.MeterProvider) (*RegistryMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	meter := provider.Meter(RegistryMetricsMeterName)

	calls, err := meter.Int64Counter(
		"rir_manager_registry_calls_total",
		metric.WithDescription("Registry calls by operation and final outcome"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	retries, err := meter.Int64Counter(
		"rir_manager_registry_retries_total",
		metric.WithDescription("Retries of transient registry failures"),
		metric.WithUnit("{retry}"),
	)
	if err != nil {
		return nil, err
	}

	return &RegistryMetrics{calls: calls, retries: retries}, nil
}

// RecordCall records the final outcome of a registry call
func (m *RegistryMetrics) RecordCall(ctx context.Context, op, outcome string) {
	if m == nil || m.calls == nil {
		return
	}
	m.calls.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", op),
		attribute.String("outcome", outcome),
	))
}

// RecordRetry records one retry of a registry call
func (m *RegistryMetrics) RecordRetry(ctx context.Context, op string) {
	if m == nil || m.retries == nil {
		return
	}
	m.retries.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", op)))
}

// SyncMetrics holds the OpenTelemetry instruments for sync operation metrics
type SyncMetrics struct {
	syncDuration metric.Float64Histogram
	entries      metric.Int64Counter
}

// NewSyncMetrics creates a new SyncMetrics instance with the given meter provider.
// If provider is nil, it returns nil (no-op metrics).
func NewSyncMetrics(provider metric.MeterProvider) (*SyncMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	meter := provider.Meter(SyncMetricsMeterName)

	syncDuration, err := meter.Float64Histogram(
		"rir_manager_sync_duration_seconds",
		metric.WithDescription("Duration of sync runs in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 900),
	)
	if err != nil {
		return nil, err
	}

	entries, err := meter.Int64Counter(
		"rir_manager_sync_audit_entries_total",
		metric.WithDescription("Audit entries written by sync runs"),
		metric.WithUnit("{entry}"),
	)
	if err != nil {
		return nil, err
	}

	return &SyncMetrics{syncDuration: syncDuration, entries: entries}, nil
}

// RecordSyncDuration records the duration of a sync run for a registry config
func (m *SyncMetrics) RecordSyncDuration(ctx context.Context, configName string, duration time.Duration, success bool) {
	if m == nil || m.syncDuration == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("config", configName),
		attribute.Bool("success", success),
	}

	m.syncDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordEntry counts one audit entry produced by a sync run
func (m *SyncMetrics) RecordEntry(ctx context.Context, objectType, status string) {
	if m == nil || m.entries == nil {
		return
	}
	m.entries.Add(ctx, 1, metric.WithAttributes(
		attribute.String("object_type", objectType),
		attribute.String("status", status),
	))
}

// OperationMetrics holds the instruments for registry write operations
type OperationMetrics struct {
	outcomes metric.Int64Counter
}

// NewOperationMetrics creates a new OperationMetrics instance.
// If provider is nil, it returns nil (no-op metrics).
func NewOperationMetrics(provider metric.MeterProvider) (*OperationMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	outcomes, err := provider.Meter(OperationMetricsMeterName).Int64Counter(
		"rir_manager_operations_total",
		metric.WithDescription("Write operations by kind and outcome"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, err
	}
	return &OperationMetrics{outcomes: outcomes}, nil
}

// RecordOutcome counts one write operation outcome
func (m *OperationMetrics) RecordOutcome(ctx context.Context, operation, status string) {
	if m == nil || m.outcomes == nil {
		return
	}
	m.outcomes.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("status", status),
	))
}

// JobMetrics holds the instruments for the background job worker
type JobMetrics struct {
	processed metric.Int64Counter
	duration  metric.Float64Histogram
}

// NewJobMetrics creates a new JobMetrics instance.
// If provider is nil, it returns nil (no-op metrics).
func NewJobMetrics(provider metric.MeterProvider) (*JobMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	meter := provider.Meter(JobMetricsMeterName)

	processed, err := meter.Int64Counter(
		"rir_manager_jobs_processed_total",
		metric.WithDescription("Jobs processed by type and result"),
		metric.WithUnit("{job}"),
	)
	if err != nil {
		return nil, err
	}

	duration, err := meter.Float64Histogram(
		"rir_manager_job_duration_seconds",
		metric.WithDescription("Duration of job execution in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300),
	)
	if err != nil {
		return nil, err
	}

	return &JobMetrics{processed: processed, duration: duration}, nil
}

// RecordJob records the result and duration of one job
func (m *JobMetrics) RecordJob(ctx context.Context, jobType string, duration time.Duration, success bool) {
	if m == nil || m.processed == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("type", jobType),
		attribute.Bool("success", success),
	)
	m.processed.Add(ctx, 1, attrs)
	m.duration.Record(ctx, duration.Seconds(), attrs)
}
