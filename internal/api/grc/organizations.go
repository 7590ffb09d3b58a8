package grc

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/grcplatform/grc-backend/internal/audit"
	"github.com/grcplatform/grc-backend/internal/db/models"
	"github.com/grcplatform/grc-backend/internal/db/repositories"
)

// OrganizationHandlers contains handlers for tenant organizations
type OrganizationHandlers struct {
	orgs    *repositories.OrganizationRepository
	emitter *audit.Emitter
}

// NewOrganizationHandlers creates organization handlers
func NewOrganizationHandlers(orgs *repositories.OrganizationRepository, emitter *audit.Emitter) *OrganizationHandlers {
	return &OrganizationHandlers{orgs: orgs, emitter: emitter}
}

type createOrganizationRequest struct {
	Name     string  `json:"name" binding:"required"`
	Slug     string  `json:"slug" binding:"required"`
	Industry *string `json:"industry"`
	Stage    *string `json:"stage"`
}

// CreateOrganizationHandler provisions a new tenant.
// POST /api/v1/organizations
func (h *OrganizationHandlers) CreateOrganizationHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createOrganizationRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "name and slug are required"})
			return
		}

		org := &models.Organization{
			Name:     req.Name,
			Slug:     req.Slug,
			Industry: req.Industry,
			Stage:    req.Stage,
		}

		if err := h.orgs.Create(c.Request.Context(), org); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		resourceID := org.ID.String()
		h.emitter.Record(org.ID, actorID(c), "organization.create", "organization", &resourceID,
			map[string]interface{}{"name": org.Name, "slug": org.Slug}, clientIP(c))

		c.JSON(http.StatusCreated, gin.H{"data": org})
	}
}

// GetOrganizationHandler returns one organization by ID.
// GET /api/v1/organizations/:id
func (h *OrganizationHandlers) GetOrganizationHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}

		org, err := h.orgs.GetByID(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if org == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "organization not found"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"data": org})
	}
}

type updateOrganizationRequest struct {
	Name     *string `json:"name"`
	Industry *string `json:"industry"`
	Stage    *string `json:"stage"`
}

// UpdateOrganizationHandler updates an organization's profile. The slug is
// immutable; a slug in the request body is ignored rather than rejected.
// PATCH /api/v1/organizations/:id
func (h *OrganizationHandlers) UpdateOrganizationHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}

		var req updateOrganizationRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "request body must be a JSON object"})
			return
		}

		org, err := h.orgs.GetByID(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if org == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "organization not found"})
			return
		}

		changes := map[string]interface{}{}
		if req.Name != nil {
			org.Name = *req.Name
			changes["name"] = *req.Name
		}
		if req.Industry != nil {
			org.Industry = req.Industry
			changes["industry"] = *req.Industry
		}
		if req.Stage != nil {
			org.Stage = req.Stage
			changes["stage"] = *req.Stage
		}
		if len(changes) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "no updatable fields provided"})
			return
		}

		if err := h.orgs.Update(c.Request.Context(), org); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		resourceID := org.ID.String()
		h.emitter.Record(org.ID, actorID(c), "organization.update", "organization", &resourceID, changes, clientIP(c))

		c.JSON(http.StatusOK, gin.H{"data": org})
	}
}
