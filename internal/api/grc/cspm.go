package grc

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/grcplatform/grc-backend/internal/audit"
	"github.com/grcplatform/grc-backend/internal/db/models"
	"github.com/grcplatform/grc-backend/internal/db/repositories"
)

// CSPMHandlers contains handlers for cloud security posture findings
type CSPMHandlers struct {
	cspm    *repositories.CSPMRepository
	emitter *audit.Emitter
}

// NewCSPMHandlers creates posture finding handlers
func NewCSPMHandlers(cspm *repositories.CSPMRepository, emitter *audit.Emitter) *CSPMHandlers {
	return &CSPMHandlers{cspm: cspm, emitter: emitter}
}

// ListCSPMFindingsHandler returns posture findings, most recently detected first.
// GET /api/v1/cspm/findings?org_id=...&severity=...&status=...&account_id=...
func (h *CSPMHandlers) ListCSPMFindingsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID, ok := orgIDFromQuery(c)
		if !ok {
			return
		}

		filters := repositories.CSPMFilters{
			Severity: queryPtr(c, "severity"),
			Status:   queryPtr(c, "status"),
		}
		if raw := c.Query("account_id"); raw != "" {
			accountID, err := uuid.Parse(raw)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "account_id must be a valid UUID"})
				return
			}
			filters.AccountID = &accountID
		}

		findings, err := h.cspm.ListFindings(c.Request.Context(), orgID, filters)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"data": findings})
	}
}

type createCSPMFindingRequest struct {
	AccountID   *uuid.UUID `json:"account_id"`
	ResourceID  *string    `json:"resource_id"`
	Rule        string     `json:"rule" binding:"required"`
	Title       string     `json:"title" binding:"required"`
	Description *string    `json:"description"`
	Severity    string     `json:"severity" binding:"required"`
	Status      string     `json:"status"`
	DetectedAt  *time.Time `json:"detected_at"`
}

// CreateCSPMFindingHandler records a posture finding, typically from a scanner
// pushing results in.
// POST /api/v1/cspm/findings
func (h *CSPMHandlers) CreateCSPMFindingHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID, ok := orgIDFromPrincipal(c)
		if !ok {
			return
		}

		var req createCSPMFindingRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "rule, title and severity are required"})
			return
		}
		if req.Status == "" {
			req.Status = "open"
		}

		f := &models.CSPMFinding{
			OrganizationID: orgID,
			AccountID:      req.AccountID,
			ResourceID:     req.ResourceID,
			Rule:           req.Rule,
			Title:          req.Title,
			Description:    req.Description,
			Severity:       req.Severity,
			Status:         req.Status,
		}
		if req.DetectedAt != nil {
			f.DetectedAt = *req.DetectedAt
		}

		if err := h.cspm.CreateFinding(c.Request.Context(), f); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		resourceID := f.ID.String()
		h.emitter.Record(orgID, actorID(c), "cspm_finding.create", "cspm_finding", &resourceID,
			map[string]interface{}{"rule": f.Rule, "severity": f.Severity}, clientIP(c))

		c.JSON(http.StatusCreated, gin.H{"data": f})
	}
}

// CSPMStatsHandler returns posture finding counts broken down by severity and status.
// GET /api/v1/cspm/stats?org_id=...
func (h *CSPMHandlers) CSPMStatsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID, ok := orgIDFromQuery(c)
		if !ok {
			return
		}

		stats, err := h.cspm.Stats(c.Request.Context(), orgID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"data": stats})
	}
}
