package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/grcplatform/grc-backend/internal/db/models"
	"github.com/grcplatform/grc-backend/internal/db/repositories"
	"github.com/grcplatform/grc-backend/internal/safego"
	"github.com/grcplatform/grc-backend/internal/telemetry"
)

// Emitter records change trail entries asynchronously. Record returns before
// the entry is persisted and never reports an error to the caller: the primary
// write's success is independent of the trail's. Failures surface only through
// logs and the audit_emit_failures_total counter.
type Emitter struct {
	logs    *repositories.AuditLogRepository
	shipper Shipper
	timeout time.Duration
}

// NewEmitter creates an Emitter. shipper may be nil when no external shipping
// is configured; timeout bounds each detached trail write.
func NewEmitter(logs *repositories.AuditLogRepository, shipper Shipper, timeout time.Duration) *Emitter {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Emitter{logs: logs, shipper: shipper, timeout: timeout}
}

// Record emits one trail entry for a completed write. actorID is nil for
// unauthenticated or system actions; changes holds the fields the operation
// wrote. The entry is persisted on a detached context so request cancellation
// after the primary write cannot drop it.
func (e *Emitter) Record(orgID uuid.UUID, actorID *uuid.UUID, action, resourceType string, resourceID *string, changes map[string]interface{}, ipAddress *string) {
	entry := &models.AuditLog{
		OrganizationID: orgID,
		ActorID:        actorID,
		Action:         action,
		ResourceType:   resourceType,
		ResourceID:     resourceID,
		Changes:        changes,
		IPAddress:      ipAddress,
	}

	safego.Go(func() {
		ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
		defer cancel()

		if err := e.logs.Create(ctx, entry); err != nil {
			telemetry.AuditEmitFailuresTotal.Inc()
			slog.Error("failed to record audit trail entry",
				"action", action,
				"resource_type", resourceType,
				"organization_id", orgID,
				"error", err,
			)
			return
		}
		telemetry.AuditEventsEmittedTotal.WithLabelValues(action).Inc()

		if e.shipper != nil {
			if err := e.shipper.Ship(ctx, entry); err != nil {
				slog.Warn("failed to ship audit trail entry", "action", action, "error", err)
			}
		}
	})
}
