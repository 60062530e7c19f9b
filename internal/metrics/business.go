package metrics

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Outcome labels shared by the authorization and rate limit instruments.
const (
	OutcomeAllowed  = "allowed"
	OutcomeDenied   = "denied"
	OutcomeError    = "error"
	OutcomeFailOpen = "fail_open"
)

// BusinessMetrics records planner business operations.
//
// Domain examples: "auth", "relationship", "identity".
// Operation examples: "login", "check_permission", "delete_organization".
// Status examples: "success", "error".
type BusinessMetrics interface {
	// RecordOperation records a business operation with its status.
	RecordOperation(ctx context.Context, domain, operation, status string)

	// RecordDuration records the duration of a business operation with its status.
	RecordDuration(ctx context.Context, domain, operation string, duration time.Duration, status string)

	// RecordAuthorization records the outcome of a permission check.
	RecordAuthorization(ctx context.Context, resourceType, permission, outcome string)

	// RecordRateLimit records a rate limit decision for an action.
	RecordRateLimit(ctx context.Context, action, outcome string)

	// RecordCacheLookup records a settings cache hit or miss.
	RecordCacheLookup(ctx context.Context, cache string, hit bool)

	// RecordAuditFailure counts audit entries that could not be persisted.
	RecordAuditFailure(ctx context.Context, action string)
}

type businessMetrics struct {
	operationCounter     metric.Int64Counter
	durationHisto        metric.Float64Histogram
	authorizationCounter metric.Int64Counter
	rateLimitCounter     metric.Int64Counter
	cacheCounter         metric.Int64Counter
	auditFailureCounter  metric.Int64Counter
}

// NewBusinessMetrics creates a BusinessMetrics backed by the given meter provider.
// The namespace is used as a prefix for all metric names (e.g., "planner").
func NewBusinessMetrics(meterProvider metric.MeterProvider, namespace string) (BusinessMetrics, error) {
	meter := meterProvider.Meter(namespace)

	operationCounter, err := meter.Int64Counter(
		fmt.Sprintf("%s_operations_total", namespace),
		metric.WithDescription("Total number of business operations"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create operation counter: %w", err)
	}

	durationHisto, err := meter.Float64Histogram(
		fmt.Sprintf("%s_operation_duration_seconds", namespace),
		metric.WithDescription("Duration of business operations in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create duration histogram: %w", err)
	}

	authorizationCounter, err := meter.Int64Counter(
		fmt.Sprintf("%s_authorization_decisions_total", namespace),
		metric.WithDescription("Permission checks by outcome"),
		metric.WithUnit("{decision}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create authorization counter: %w", err)
	}

	rateLimitCounter, err := meter.Int64Counter(
		fmt.Sprintf("%s_rate_limit_decisions_total", namespace),
		metric.WithDescription("Rate limit decisions by action and outcome"),
		metric.WithUnit("{decision}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limit counter: %w", err)
	}

	cacheCounter, err := meter.Int64Counter(
		fmt.Sprintf("%s_cache_lookups_total", namespace),
		metric.WithDescription("Cache lookups by cache and result"),
		metric.WithUnit("{lookup}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create cache counter: %w", err)
	}

	auditFailureCounter, err := meter.Int64Counter(
		fmt.Sprintf("%s_audit_write_failures_total", namespace),
		metric.WithDescription("Audit log entries that failed to persist"),
		metric.WithUnit("{entry}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create audit failure counter: %w", err)
	}

	return &businessMetrics{
		operationCounter:     operationCounter,
		durationHisto:        durationHisto,
		authorizationCounter: authorizationCounter,
		rateLimitCounter:     rateLimitCounter,
		cacheCounter:         cacheCounter,
		auditFailureCounter:  auditFailureCounter,
	}, nil
}

func (b *businessMetrics) RecordOperation(ctx context.Context, domain, operation, status string) {
	b.operationCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("domain", domain),
			attribute.String("operation", operation),
			attribute.String("status", status),
		),
	)
}

func (b *businessMetrics) RecordDuration(
	ctx context.Context,
	domain, operation string,
	duration time.Duration,
	status string,
) {
	b.durationHisto.Record(ctx, duration.Seconds(),
		metric.WithAttributes(
			attribute.String("domain", domain),
			attribute.String("operation", operation),
			attribute.String("status", status),
		),
	)
}

func (b *businessMetrics) RecordAuthorization(ctx context.Context, resourceType, permission, outcome string) {
	b.authorizationCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("resource_type", resourceType),
			attribute.String("permission", permission),
			attribute.String("outcome", outcome),
		),
	)
}

func (b *businessMetrics) RecordRateLimit(ctx context.Context, action, outcome string) {
	b.rateLimitCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("action", action),
			attribute.String("outcome", outcome),
		),
	)
}

func (b *businessMetrics) RecordCacheLookup(ctx context.Context, cache string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	b.cacheCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("cache", cache),
			attribute.String("result", result),
		),
	)
}

func (b *businessMetrics) RecordAuditFailure(ctx context.Context, action string) {
	b.auditFailureCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("action", action)))
}

// NoOpBusinessMetrics is a no-op implementation of BusinessMetrics for when metrics are disabled.
type NoOpBusinessMetrics struct{}

// NewNoOpBusinessMetrics creates a no-op BusinessMetrics implementation.
func NewNoOpBusinessMetrics() BusinessMetrics {
	return &NoOpBusinessMetrics{}
}

func (n *NoOpBusinessMetrics) RecordOperation(ctx context.Context, domain, operation, status string) {}

func (n *NoOpBusinessMetrics) RecordDuration(
	ctx context.Context,
	domain, operation string,
	duration time.Duration,
	status string,
) {
}

func (n *NoOpBusinessMetrics) RecordAuthorization(ctx context.Context, resourceType, permission, outcome string) {
}

func (n *NoOpBusinessMetrics) RecordRateLimit(ctx context.Context, action, outcome string) {}

func (n *NoOpBusinessMetrics) RecordCacheLookup(ctx context.Context, cache string, hit bool) {}

func (n *NoOpBusinessMetrics) RecordAuditFailure(ctx context.Context, action string) {}
