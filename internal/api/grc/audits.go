package grc

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/grcplatform/grc-backend/internal/audit"
	"github.com/grcplatform/grc-backend/internal/db/models"
	"github.com/grcplatform/grc-backend/internal/db/repositories"
)

// AuditHandlers contains handlers for audit engagements, their findings, and
// readiness assessments
type AuditHandlers struct {
	audits   *repositories.AuditRepository
	findings *repositories.FindingRepository
	emitter  *audit.Emitter
}

// NewAuditHandlers creates audit handlers
func NewAuditHandlers(audits *repositories.AuditRepository, findings *repositories.FindingRepository, emitter *audit.Emitter) *AuditHandlers {
	return &AuditHandlers{audits: audits, findings: findings, emitter: emitter}
}

// ListAuditsHandler returns the organization's audits, newest first, each
// decorated with its findings count. The counts are fanned out concurrently;
// any count failure fails the whole request rather than returning partial rows.
// GET /api/v1/audits?org_id=...&status=...&framework=...
func (h *AuditHandlers) ListAuditsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID, ok := orgIDFromQuery(c)
		if !ok {
			return
		}

		filters := repositories.AuditListFilters{
			Status:    queryPtr(c, "status"),
			Framework: queryPtr(c, "framework"),
		}

		audits, err := h.audits.List(c.Request.Context(), orgID, filters)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		g, ctx := errgroup.WithContext(c.Request.Context())
		for _, a := range audits {
			a := a
			g.Go(func() error {
				n, err := h.audits.CountFindings(ctx, orgID, a.ID)
				if err != nil {
					return err
				}
				a.FindingsCount = &n
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"data": audits})
	}
}

type createAuditRequest struct {
	Name      string     `json:"name" binding:"required"`
	Framework *string    `json:"framework"`
	Auditor   *string    `json:"auditor"`
	Status    string     `json:"status"`
	StartDate *time.Time `json:"start_date"`
	EndDate   *time.Time `json:"end_date"`
}

// CreateAuditHandler opens a new audit engagement.
// POST /api/v1/audits
func (h *AuditHandlers) CreateAuditHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID, ok := orgIDFromPrincipal(c)
		if !ok {
			return
		}

		var req createAuditRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
			return
		}
		if req.Status == "" {
			req.Status = "planning"
		}

		a := &models.Audit{
			OrganizationID: orgID,
			Name:           req.Name,
			Framework:      req.Framework,
			Auditor:        req.Auditor,
			Status:         req.Status,
			StartDate:      req.StartDate,
			EndDate:        req.EndDate,
		}

		if err := h.audits.Create(c.Request.Context(), a); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		resourceID := a.ID.String()
		h.emitter.Record(orgID, actorID(c), "audit.create", "audit", &resourceID,
			map[string]interface{}{"name": a.Name, "status": a.Status}, clientIP(c))

		c.JSON(http.StatusCreated, gin.H{"data": a})
	}
}

// ListAuditFindingsHandler returns the findings attached to one audit, newest first.
// GET /api/v1/audits/:id/findings?org_id=...
func (h *AuditHandlers) ListAuditFindingsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID, ok := orgIDFromQuery(c)
		if !ok {
			return
		}
		auditID, ok := pathID(c)
		if !ok {
			return
		}

		a, err := h.audits.GetByID(c.Request.Context(), orgID, auditID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if a == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "audit not found"})
			return
		}

		findings, err := h.findings.List(c.Request.Context(), orgID, repositories.FindingFilters{AuditID: &auditID})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"data": findings})
	}
}

type createFindingRequest struct {
	Title       string     `json:"title" binding:"required"`
	Description *string    `json:"description"`
	Severity    string     `json:"severity" binding:"required"`
	Status      string     `json:"status"`
	Remediation *string    `json:"remediation"`
	DueDate     *time.Time `json:"due_date"`
}

// CreateAuditFindingHandler raises a finding against an audit.
// POST /api/v1/audits/:id/findings
func (h *AuditHandlers) CreateAuditFindingHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID, ok := orgIDFromPrincipal(c)
		if !ok {
			return
		}
		auditID, ok := pathID(c)
		if !ok {
			return
		}

		var req createFindingRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "title and severity are required"})
			return
		}
		if req.Status == "" {
			req.Status = "open"
		}

		a, err := h.audits.GetByID(c.Request.Context(), orgID, auditID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if a == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "audit not found"})
			return
		}

		f := &models.AuditFinding{
			OrganizationID: orgID,
			AuditID:        &auditID,
			Title:          req.Title,
			Description:    req.Description,
			Severity:       req.Severity,
			Status:         req.Status,
			Remediation:    req.Remediation,
			DueDate:        req.DueDate,
		}

		if err := h.findings.Create(c.Request.Context(), f); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		resourceID := f.ID.String()
		h.emitter.Record(orgID, actorID(c), "finding.create", "finding", &resourceID,
			map[string]interface{}{"title": f.Title, "severity": f.Severity, "audit_id": auditID.String()}, clientIP(c))

		c.JSON(http.StatusCreated, gin.H{"data": f})
	}
}

// ListReadinessHandler returns the readiness assessment items for an audit.
// GET /api/v1/audits/:id/readiness?org_id=...
func (h *AuditHandlers) ListReadinessHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID, ok := orgIDFromQuery(c)
		if !ok {
			return
		}
		auditID, ok := pathID(c)
		if !ok {
			return
		}

		a, err := h.audits.GetByID(c.Request.Context(), orgID, auditID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if a == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "audit not found"})
			return
		}

		items, err := h.audits.ListReadiness(c.Request.Context(), orgID, auditID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"data": items})
	}
}

type createReadinessItemRequest struct {
	Item   string  `json:"item" binding:"required"`
	Status string  `json:"status"`
	Owner  *string `json:"owner"`
	Notes  *string `json:"notes"`
}

// CreateReadinessItemHandler adds an item to an audit's readiness assessment.
// POST /api/v1/audits/:id/readiness
func (h *AuditHandlers) CreateReadinessItemHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID, ok := orgIDFromPrincipal(c)
		if !ok {
			return
		}
		auditID, ok := pathID(c)
		if !ok {
			return
		}

		var req createReadinessItemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "item is required"})
			return
		}
		if req.Status == "" {
			req.Status = "not_started"
		}

		a, err := h.audits.GetByID(c.Request.Context(), orgID, auditID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if a == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "audit not found"})
			return
		}

		item := &models.AuditReadinessItem{
			OrganizationID: orgID,
			AuditID:        auditID,
			Item:           req.Item,
			Status:         req.Status,
			Owner:          req.Owner,
			Notes:          req.Notes,
		}

		if err := h.audits.CreateReadinessItem(c.Request.Context(), item); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		resourceID := item.ID.String()
		h.emitter.Record(orgID, actorID(c), "audit.readiness_item_create", "audit_readiness", &resourceID,
			map[string]interface{}{"item": item.Item, "audit_id": auditID.String()}, clientIP(c))

		c.JSON(http.StatusCreated, gin.H{"data": item})
	}
}
