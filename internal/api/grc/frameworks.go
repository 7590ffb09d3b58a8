package grc

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/grcplatform/grc-backend/internal/audit"
	"github.com/grcplatform/grc-backend/internal/db/models"
	"github.com/grcplatform/grc-backend/internal/db/repositories"
)

// FrameworkHandlers contains handlers for compliance frameworks and the
// control library
type FrameworkHandlers struct {
	frameworks *repositories.FrameworkRepository
	emitter    *audit.Emitter
}

// NewFrameworkHandlers creates framework handlers
func NewFrameworkHandlers(frameworks *repositories.FrameworkRepository, emitter *audit.Emitter) *FrameworkHandlers {
	return &FrameworkHandlers{frameworks: frameworks, emitter: emitter}
}

// ListFrameworksHandler returns the organization's adopted frameworks.
// GET /api/v1/frameworks?org_id=...
func (h *FrameworkHandlers) ListFrameworksHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID, ok := orgIDFromQuery(c)
		if !ok {
			return
		}

		frameworks, err := h.frameworks.List(c.Request.Context(), orgID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"data": frameworks})
	}
}

type createFrameworkRequest struct {
	Name        string  `json:"name" binding:"required"`
	Version     *string `json:"version"`
	Description *string `json:"description"`
}

// CreateFrameworkHandler adopts a framework for the organization.
// POST /api/v1/frameworks
func (h *FrameworkHandlers) CreateFrameworkHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID, ok := orgIDFromPrincipal(c)
		if !ok {
			return
		}

		var req createFrameworkRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
			return
		}

		f := &models.Framework{
			OrganizationID: orgID,
			Name:           req.Name,
			Version:        req.Version,
			Description:    req.Description,
		}

		if err := h.frameworks.Create(c.Request.Context(), f); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		resourceID := f.ID.String()
		h.emitter.Record(orgID, actorID(c), "framework.create", "framework", &resourceID,
			map[string]interface{}{"name": f.Name}, clientIP(c))

		c.JSON(http.StatusCreated, gin.H{"data": f})
	}
}

// ListFrameworkDomainsHandler returns a framework's domains in display order.
// GET /api/v1/frameworks/:id/domains?org_id=...
func (h *FrameworkHandlers) ListFrameworkDomainsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := orgIDFromQuery(c); !ok {
			return
		}
		frameworkID, ok := pathID(c)
		if !ok {
			return
		}

		domains, err := h.frameworks.ListDomains(c.Request.Context(), frameworkID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"data": domains})
	}
}

// ListFrameworkRequirementsHandler returns a framework's requirements ordered by code.
// GET /api/v1/frameworks/:id/requirements?org_id=...
func (h *FrameworkHandlers) ListFrameworkRequirementsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := orgIDFromQuery(c); !ok {
			return
		}
		frameworkID, ok := pathID(c)
		if !ok {
			return
		}

		reqs, err := h.frameworks.ListRequirements(c.Request.Context(), frameworkID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"data": reqs})
	}
}

// ListControlsHandler returns the organization's controls, ordered by name.
// GET /api/v1/controls?org_id=...&framework_id=...&status=...
func (h *FrameworkHandlers) ListControlsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID, ok := orgIDFromQuery(c)
		if !ok {
			return
		}

		filters := repositories.ControlFilters{
			Status: queryPtr(c, "status"),
		}
		if raw := c.Query("framework_id"); raw != "" {
			frameworkID, err := uuid.Parse(raw)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "framework_id must be a valid UUID"})
				return
			}
			filters.FrameworkID = &frameworkID
		}

		controls, err := h.frameworks.ListControls(c.Request.Context(), orgID, filters)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"data": controls})
	}
}
