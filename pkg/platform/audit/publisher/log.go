package publisher

import (
	"context"
	"log/slog"

	"loyalty-gateway/pkg/platform/audit"
)

// LogPublisher writes audit events to the structured logger. It is the
// fallback sink when no broker is configured, so single-binary deployments
// still keep an audit trail in their log stream.
type LogPublisher struct {
	logger *slog.Logger
}

func NewLog(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Emit(ctx context.Context, event audit.Event) error {
	p.logger.InfoContext(ctx, "audit event",
		"log_type", "audit",
		"event_id", event.ID,
		"category", string(event.Category),
		"action", string(event.Action),
		"role", event.Role,
		"principal_id", event.PrincipalID,
		"shop_id", event.ShopID,
		"branch_id", event.BranchID,
		"reason", event.Reason,
		"points", event.Points,
		"request_id", event.RequestID,
		"subject_hash", event.SubjectHash,
	)
	return nil
}
