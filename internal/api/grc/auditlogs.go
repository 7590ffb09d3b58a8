package grc

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/grcplatform/grc-backend/internal/db/repositories"
)

const (
	auditLogDefaultLimit = 50
	auditLogMaxLimit     = 200
)

// AuditLogHandlers contains the read-only handlers for the audit trail.
// Entries are written by the emitter, never through the API.
type AuditLogHandlers struct {
	logs *repositories.AuditLogRepository
}

// NewAuditLogHandlers creates audit trail handlers
func NewAuditLogHandlers(logs *repositories.AuditLogRepository) *AuditLogHandlers {
	return &AuditLogHandlers{logs: logs}
}

// ListAuditLogsHandler returns a page of audit trail entries, newest first.
// GET /api/v1/audit-logs?org_id=...&actor_id=...&action=...&resource_type=...&start_date=...&end_date=...&page=...&limit=...
func (h *AuditLogHandlers) ListAuditLogsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID, ok := orgIDFromQuery(c)
		if !ok {
			return
		}

		page, limit, offset := parsePagination(c, auditLogDefaultLimit, auditLogMaxLimit)

		filters := repositories.AuditLogFilters{
			Action:       queryPtr(c, "action"),
			ResourceType: queryPtr(c, "resource_type"),
		}
		if raw := c.Query("actor_id"); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "actor_id must be a valid UUID"})
				return
			}
			filters.ActorID = &id
		}
		if raw := c.Query("start_date"); raw != "" {
			t, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "start_date must be RFC3339"})
				return
			}
			filters.StartDate = &t
		}
		if raw := c.Query("end_date"); raw != "" {
			t, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "end_date must be RFC3339"})
				return
			}
			filters.EndDate = &t
		}

		entries, total, err := h.logs.List(c.Request.Context(), orgID, filters, limit, offset)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"data": entries,
			"pagination": gin.H{
				"page":       page,
				"limit":      limit,
				"total":      total,
				"totalPages": totalPages(total, limit),
			},
		})
	}
}
