package grc

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/grcplatform/grc-backend/internal/audit"
	"github.com/grcplatform/grc-backend/internal/db/models"
	"github.com/grcplatform/grc-backend/internal/db/repositories"
)

// RiskHandlers contains handlers for the risk register and treatment plans
type RiskHandlers struct {
	risks   *repositories.RiskRepository
	emitter *audit.Emitter
}

// NewRiskHandlers creates risk handlers
func NewRiskHandlers(risks *repositories.RiskRepository, emitter *audit.Emitter) *RiskHandlers {
	return &RiskHandlers{risks: risks, emitter: emitter}
}

// ListRisksHandler returns the organization's risk register, newest first.
// GET /api/v1/risks?org_id=...&category=...&status=...&severity=...
func (h *RiskHandlers) ListRisksHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID, ok := orgIDFromQuery(c)
		if !ok {
			return
		}

		filters := repositories.RiskFilters{
			Category: queryPtr(c, "category"),
			Status:   queryPtr(c, "status"),
			Severity: queryPtr(c, "severity"),
		}

		risks, err := h.risks.List(c.Request.Context(), orgID, filters)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"data": risks})
	}
}

type createRiskRequest struct {
	Title       string  `json:"title" binding:"required"`
	Description *string `json:"description"`
	Category    *string `json:"category"`
	Severity    string  `json:"severity"`
	Likelihood  *string `json:"likelihood"`
	Status      string  `json:"status"`
	Owner       *string `json:"owner"`
}

// CreateRiskHandler registers a risk.
// POST /api/v1/risks
func (h *RiskHandlers) CreateRiskHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID, ok := orgIDFromPrincipal(c)
		if !ok {
			return
		}

		var req createRiskRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "title is required"})
			return
		}
		if req.Severity == "" {
			req.Severity = "medium"
		}
		if req.Status == "" {
			req.Status = "open"
		}

		risk := &models.Risk{
			OrganizationID: orgID,
			Title:          req.Title,
			Description:    req.Description,
			Category:       req.Category,
			Severity:       req.Severity,
			Likelihood:     req.Likelihood,
			Status:         req.Status,
			Owner:          req.Owner,
		}

		if err := h.risks.Create(c.Request.Context(), risk); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		resourceID := risk.ID.String()
		h.emitter.Record(orgID, actorID(c), "risk.create", "risk", &resourceID,
			map[string]interface{}{"title": risk.Title, "severity": risk.Severity}, clientIP(c))

		c.JSON(http.StatusCreated, gin.H{"data": risk})
	}
}

// ListRiskTreatmentsHandler returns the treatment actions for a risk, oldest first.
// GET /api/v1/risks/:id/treatments?org_id=...
func (h *RiskHandlers) ListRiskTreatmentsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID, ok := orgIDFromQuery(c)
		if !ok {
			return
		}
		riskID, ok := pathID(c)
		if !ok {
			return
		}

		risk, err := h.risks.GetByID(c.Request.Context(), orgID, riskID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if risk == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "risk not found"})
			return
		}

		treatments, err := h.risks.ListTreatments(c.Request.Context(), orgID, riskID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"data": treatments})
	}
}

type createTreatmentRequest struct {
	Action        string     `json:"action" binding:"required"`
	TreatmentType *string    `json:"treatment_type"`
	Status        string     `json:"status"`
	Owner         *string    `json:"owner"`
	DueDate       *time.Time `json:"due_date"`
}

// CreateRiskTreatmentHandler records a treatment action for a risk.
// POST /api/v1/risks/:id/treatments
func (h *RiskHandlers) CreateRiskTreatmentHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID, ok := orgIDFromPrincipal(c)
		if !ok {
			return
		}
		riskID, ok := pathID(c)
		if !ok {
			return
		}

		var req createTreatmentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "action is required"})
			return
		}
		if req.Status == "" {
			req.Status = "planned"
		}

		risk, err := h.risks.GetByID(c.Request.Context(), orgID, riskID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if risk == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "risk not found"})
			return
		}

		t := &models.RiskTreatment{
			OrganizationID: orgID,
			RiskID:         riskID,
			Action:         req.Action,
			TreatmentType:  req.TreatmentType,
			Status:         req.Status,
			Owner:          req.Owner,
			DueDate:        req.DueDate,
		}

		if err := h.risks.CreateTreatment(c.Request.Context(), t); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		resourceID := t.ID.String()
		h.emitter.Record(orgID, actorID(c), "risk.treatment_create", "risk_treatment", &resourceID,
			map[string]interface{}{"risk_id": riskID.String(), "action": t.Action}, clientIP(c))

		c.JSON(http.StatusCreated, gin.H{"data": t})
	}
}
