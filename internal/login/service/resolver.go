// Package service holds the login pipeline: identity resolution,
// provisioning, session issuance, and the sign-up incentive, sequenced by an
// explicit state machine in the orchestrator.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"loyalty-gateway/internal/login/models"
	"loyalty-gateway/internal/login/ports"
)

const tracerName = "loyalty-gateway/login"

// Resolver performs the directory lookups. Its one policy decision: a
// directory outage is treated as "no match" so an employee-directory failure
// never blocks customer logins. Only context cancellation propagates.
type Resolver struct {
	employees ports.EmployeeDirectory
	customers ports.CustomerDirectory
	logger    *slog.Logger
	tracer    trace.Tracer
}

type ResolverOption func(*Resolver)

func WithResolverLogger(logger *slog.Logger) ResolverOption {
	return func(r *Resolver) {
		r.logger = logger
	}
}

func NewResolver(employees ports.EmployeeDirectory, customers ports.CustomerDirectory, opts ...ResolverOption) (*Resolver, error) {
	if employees == nil {
		return nil, fmt.Errorf("employee directory is required")
	}
	if customers == nil {
		return nil, fmt.Errorf("customer directory is required")
	}

	r := &Resolver{
		employees: employees,
		customers: customers,
		tracer:    otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Employee checks the employee directory. nil means no usable match.
func (r *Resolver) Employee(ctx context.Context, identityToken string) (*models.Match, error) {
	return r.lookup(ctx, "employee", identityToken, r.employees.EmployeeByToken)
}

// Customer checks the customer directory. nil means no usable match.
func (r *Resolver) Customer(ctx context.Context, identityToken string) (*models.Match, error) {
	return r.lookup(ctx, "customer", identityToken, r.customers.CustomerByToken)
}

func (r *Resolver) lookup(ctx context.Context, domain, identityToken string, find func(context.Context, string) (*models.Match, error)) (*models.Match, error) {
	ctx, span := r.tracer.Start(ctx, "login.resolve."+domain)
	defer span.End()

	match, err := find(ctx, identityToken)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		// Outage, not absence; but blocking every login on a flaky
		// directory is worse than falling through.
		if r.logger != nil {
			r.logger.WarnContext(ctx, "directory lookup failed, treating as no match",
				"domain", domain,
				"error", err,
			)
		}
		span.RecordError(err)
		return nil, nil
	}

	span.SetAttributes(attribute.Bool("login.matched", match != nil))
	return match, nil
}
