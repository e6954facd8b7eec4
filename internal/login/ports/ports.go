// Package ports defines the collaborator interfaces the login pipeline
// depends on. Adapters in internal/backend implement the record-store ports;
// internal/guard implements the registration guard.
package ports

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"loyalty-gateway/internal/login/models"
	"loyalty-gateway/pkg/platform/audit"
	"loyalty-gateway/pkg/requestcontext"
)

// EmployeeDirectory looks up employees by provider identity token.
// A nil match with a nil error is an authoritative "no such employee".
type EmployeeDirectory interface {
	EmployeeByToken(ctx context.Context, identityToken string) (*models.Match, error)
}

// CustomerDirectory looks up customers by provider identity token.
type CustomerDirectory interface {
	CustomerByToken(ctx context.Context, identityToken string) (*models.Match, error)
}

// Registrar creates a customer record for an unmatched token arriving with a
// shop referral. The call is not idempotent and is never retried.
type Registrar interface {
	RegisterCustomer(ctx context.Context, reg models.Registration) (*models.Match, error)
}

// SessionMinter requests a signed session credential from the backend.
type SessionMinter interface {
	MintSession(ctx context.Context, req models.SessionRequest) (string, error)
}

// ShopSettingsReader fetches per-shop configuration, authenticated with the
// freshly minted session credential.
type ShopSettingsReader interface {
	SettingsByToken(ctx context.Context, identityToken, credential string) (models.ShopSettings, error)
}

// PointsLedger posts a single loyalty-point transaction.
type PointsLedger interface {
	AwardPoints(ctx context.Context, credential string, tx models.IncentiveTransaction) error
}

// RegistrationGuard grants a short-lived, per-token claim ahead of
// provisioning so two gateway instances racing on the same token do not both
// create a record. The guard is advisory: the record store's uniqueness
// constraint remains the authoritative protection.
type RegistrationGuard interface {
	// Acquire returns false when another request already holds the claim.
	Acquire(ctx context.Context, identityToken string) (bool, error)
	// Release drops the claim early; expiry handles the crash case.
	Release(ctx context.Context, identityToken string)
}

// AuditPublisher emits audit events for the login pipeline.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// LogAudit records an audit action on both the structured logger and the
// audit publisher if one is wired. Request-scoped metadata is attached here
// so call sites stay small.
func LogAudit(ctx context.Context, logger *slog.Logger, publisher AuditPublisher, event audit.Event) {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	event.Category = audit.Categorize(event.Action)
	event.Timestamp = requestcontext.Now(ctx)
	event.RequestID = requestcontext.RequestID(ctx)
	event.ClientIP = requestcontext.ClientIP(ctx)
	event.DeviceOS = requestcontext.ClientDevice(ctx).OS

	if logger != nil {
		logger.InfoContext(ctx, "audit",
			"event", string(event.Action),
			"log_type", "audit",
			"role", event.Role,
			"principal_id", event.PrincipalID,
			"shop_id", event.ShopID,
			"reason", event.Reason,
			"request_id", event.RequestID,
		)
	}
	if publisher != nil {
		if err := publisher.Emit(ctx, event); err != nil && logger != nil {
			logger.WarnContext(ctx, "audit emit failed", "event", string(event.Action), "error", err)
		}
	}
}
