package service

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"loyalty-gateway/internal/login/models"
	"loyalty-gateway/internal/login/ports"
)

// Provisioner creates a customer record for a first-time login. Failures are
// surfaced as coded errors carrying the upstream status so the handler can
// mirror it to the caller.
type Provisioner struct {
	registrar ports.Registrar
	logger    *slog.Logger
	tracer    trace.Tracer
}

type ProvisionerOption func(*Provisioner)

func WithProvisionerLogger(logger *slog.Logger) ProvisionerOption {
	return func(p *Provisioner) {
		p.logger = logger
	}
}

func NewProvisioner(registrar ports.Registrar, opts ...ProvisionerOption) (*Provisioner, error) {
	if registrar == nil {
		return nil, fmt.Errorf("registrar is required")
	}

	p := &Provisioner{
		registrar: registrar,
		tracer:    otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Provision registers a new customer from the login request. The phone number
// is not collected on this path, so the record carries the placeholder value
// until the customer completes their profile.
func (p *Provisioner) Provision(ctx context.Context, req models.LoginRequest) (*models.Match, error) {
	ctx, span := p.tracer.Start(ctx, "login.provision")
	defer span.End()

	reg := models.Registration{
		IdentityToken: req.LineToken,
		Name:          req.Name,
		AvatarURL:     req.Avatar,
		Phone:         models.PlaceholderPhone,
		ShopID:        req.ShopID,
		BranchID:      req.BranchID,
	}

	match, err := p.registrar.RegisterCustomer(ctx, reg)
	if err != nil {
		span.RecordError(err)
		if p.logger != nil {
			p.logger.ErrorContext(ctx, "customer provisioning failed", "error", err)
		}
		return nil, err
	}

	if p.logger != nil {
		p.logger.InfoContext(ctx, "customer provisioned",
			"customer_id", match.Principal.ID,
			"shop_id", match.Principal.ShopID,
		)
	}
	return match, nil
}
