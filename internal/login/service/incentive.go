package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"loyalty-gateway/internal/login/models"
	"loyalty-gateway/internal/login/ports"
)

// incentiveDetail is the ledger line description for the one-time credit.
const incentiveDetail = "sign-up bonus"

// Awarder grants the one-time sign-up bonus to a freshly provisioned
// customer. Every failure on this path is absorbed: the customer already
// exists and holds a credential, so the login must succeed regardless.
type Awarder struct {
	settings ports.ShopSettingsReader
	ledger   ports.PointsLedger
	logger   *slog.Logger
	tracer   trace.Tracer
}

type AwarderOption func(*Awarder)

func WithAwarderLogger(logger *slog.Logger) AwarderOption {
	return func(a *Awarder) {
		a.logger = logger
	}
}

func NewAwarder(settings ports.ShopSettingsReader, ledger ports.PointsLedger, opts ...AwarderOption) (*Awarder, error) {
	if settings == nil {
		return nil, fmt.Errorf("shop settings reader is required")
	}
	if ledger == nil {
		return nil, fmt.Errorf("points ledger is required")
	}

	a := &Awarder{
		settings: settings,
		ledger:   ledger,
		tracer:   otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Award attempts the bonus once, without retries. It returns the points
// credited (zero when skipped) and, when skipped, the reason.
func (a *Awarder) Award(ctx context.Context, customer models.Principal, credential string) (int, string) {
	ctx, span := a.tracer.Start(ctx, "login.incentive_award")
	defer span.End()

	if credential == "" {
		return a.skip(ctx, span, customer, "no session credential")
	}
	if customer.ID == "" || customer.IdentityToken == "" {
		return a.skip(ctx, span, customer, "incomplete customer record")
	}

	settings, err := a.settings.SettingsByToken(ctx, customer.IdentityToken, credential)
	if err != nil {
		span.RecordError(err)
		if a.logger != nil {
			a.logger.WarnContext(ctx, "shop settings fetch failed", "customer_id", customer.ID, "error", err)
		}
		return a.skip(ctx, span, customer, "shop settings unavailable")
	}
	if settings.RegisterPointRate <= 0 {
		return a.skip(ctx, span, customer, "sign-up rate not positive")
	}

	points := int(math.Round(settings.RegisterPointRate))
	tx := models.IncentiveTransaction{
		CustomerID: customer.ID,
		Points:     points,
		Detail:     incentiveDetail,
	}
	if err := a.ledger.AwardPoints(ctx, credential, tx); err != nil {
		span.RecordError(err)
		if a.logger != nil {
			a.logger.ErrorContext(ctx, "incentive credit failed",
				"customer_id", customer.ID,
				"points", points,
				"error", err,
			)
		}
		return a.skip(ctx, span, customer, "ledger credit failed")
	}

	span.SetAttributes(attribute.Int("login.incentive_points", points))
	if a.logger != nil {
		a.logger.InfoContext(ctx, "incentive awarded", "customer_id", customer.ID, "points", points)
	}
	return points, ""
}

func (a *Awarder) skip(ctx context.Context, span trace.Span, customer models.Principal, reason string) (int, string) {
	span.SetAttributes(attribute.String("login.incentive_skipped", reason))
	if a.logger != nil {
		a.logger.InfoContext(ctx, "incentive skipped", "customer_id", customer.ID, "reason", reason)
	}
	return 0, reason
}
