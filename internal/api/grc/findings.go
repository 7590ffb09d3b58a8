package grc

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/grcplatform/grc-backend/internal/audit"
	"github.com/grcplatform/grc-backend/internal/db/repositories"
)

// FindingHandlers contains handlers for the flat findings view used by
// remediation tracking. Creation happens through the audit-scoped endpoint.
type FindingHandlers struct {
	findings *repositories.FindingRepository
	emitter  *audit.Emitter
}

// NewFindingHandlers creates finding handlers
func NewFindingHandlers(findings *repositories.FindingRepository, emitter *audit.Emitter) *FindingHandlers {
	return &FindingHandlers{findings: findings, emitter: emitter}
}

// ListFindingsHandler returns findings across all audits, newest first.
// GET /api/v1/findings?org_id=...&audit_id=...&severity=...&status=...
func (h *FindingHandlers) ListFindingsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID, ok := orgIDFromQuery(c)
		if !ok {
			return
		}

		filters := repositories.FindingFilters{
			Severity: queryPtr(c, "severity"),
			Status:   queryPtr(c, "status"),
		}
		if raw := c.Query("audit_id"); raw != "" {
			auditID, err := uuid.Parse(raw)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "audit_id must be a valid UUID"})
				return
			}
			filters.AuditID = &auditID
		}

		findings, err := h.findings.List(c.Request.Context(), orgID, filters)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"data": findings})
	}
}

type updateFindingRequest struct {
	Status      *string    `json:"status"`
	Severity    *string    `json:"severity"`
	Remediation *string    `json:"remediation"`
	DueDate     *time.Time `json:"due_date"`
}

// UpdateFindingHandler applies a partial update to a finding's remediation state.
// PATCH /api/v1/findings/:id
func (h *FindingHandlers) UpdateFindingHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID, ok := orgIDFromPrincipal(c)
		if !ok {
			return
		}
		id, ok := pathID(c)
		if !ok {
			return
		}

		var req updateFindingRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "request body must be a JSON object"})
			return
		}
		if req.Status == nil && req.Severity == nil && req.Remediation == nil && req.DueDate == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "no updatable fields provided"})
			return
		}

		found, err := h.findings.Update(c.Request.Context(), orgID, id, repositories.FindingUpdate{
			Status:      req.Status,
			Severity:    req.Severity,
			Remediation: req.Remediation,
			DueDate:     req.DueDate,
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if !found {
			c.JSON(http.StatusNotFound, gin.H{"error": "finding not found"})
			return
		}

		f, err := h.findings.GetByID(c.Request.Context(), orgID, id)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		changes := map[string]interface{}{}
		if req.Status != nil {
			changes["status"] = *req.Status
		}
		if req.Severity != nil {
			changes["severity"] = *req.Severity
		}
		if req.Remediation != nil {
			changes["remediation"] = *req.Remediation
		}
		if req.DueDate != nil {
			changes["due_date"] = req.DueDate.Format(time.RFC3339)
		}
		resourceID := id.String()
		h.emitter.Record(orgID, actorID(c), "finding.update", "finding", &resourceID, changes, clientIP(c))

		c.JSON(http.StatusOK, gin.H{"data": f})
	}
}
