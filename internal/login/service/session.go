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

// Issuer mints a session credential for a resolved principal. Issuance never
// fails the login: when the backend refuses or returns nothing usable, the
// raw provider identity token is handed back instead, flagged as a fallback.
type Issuer struct {
	minter ports.SessionMinter
	logger *slog.Logger
	tracer trace.Tracer
}

type IssuerOption func(*Issuer)

func WithIssuerLogger(logger *slog.Logger) IssuerOption {
	return func(i *Issuer) {
		i.logger = logger
	}
}

func NewIssuer(minter ports.SessionMinter, opts ...IssuerOption) (*Issuer, error) {
	if minter == nil {
		return nil, fmt.Errorf("session minter is required")
	}

	i := &Issuer{
		minter: minter,
		tracer: otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i, nil
}

// Issue returns the credential and whether it is the raw-token fallback.
func (i *Issuer) Issue(ctx context.Context, principal models.Principal, shop models.ShopContext) (string, bool) {
	ctx, span := i.tracer.Start(ctx, "login.session_issue")
	defer span.End()

	token, err := i.minter.MintSession(ctx, models.SessionRequest{
		IdentityToken: principal.IdentityToken,
		Name:          principal.Name,
		AvatarURL:     principal.AvatarURL,
		UserType:      principal.Role,
		UserID:        principal.ID,
		ShopID:        shop.ShopID,
		BranchID:      shop.BranchID,
	})
	if err != nil || token == "" {
		span.SetAttributes(attribute.Bool("login.token_fallback", true))
		if i.logger != nil {
			i.logger.WarnContext(ctx, "session issuance failed, falling back to provider token",
				"role", string(principal.Role),
				"principal_id", principal.ID,
				"error", err,
			)
		}
		return principal.IdentityToken, true
	}

	return token, false
}
