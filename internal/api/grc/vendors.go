package grc

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/grcplatform/grc-backend/internal/audit"
	"github.com/grcplatform/grc-backend/internal/db/models"
	"github.com/grcplatform/grc-backend/internal/db/repositories"
)

// VendorHandlers contains handlers for third-party vendor management
type VendorHandlers struct {
	vendors *repositories.VendorRepository
	emitter *audit.Emitter
}

// NewVendorHandlers creates vendor handlers
func NewVendorHandlers(vendors *repositories.VendorRepository, emitter *audit.Emitter) *VendorHandlers {
	return &VendorHandlers{vendors: vendors, emitter: emitter}
}

// ListVendorsHandler returns the organization's vendors, ordered by name.
// GET /api/v1/vendors?org_id=...&category=...&risk_level=...&status=...
func (h *VendorHandlers) ListVendorsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID, ok := orgIDFromQuery(c)
		if !ok {
			return
		}

		filters := repositories.VendorFilters{
			Category:  queryPtr(c, "category"),
			RiskLevel: queryPtr(c, "risk_level"),
			Status:    queryPtr(c, "status"),
		}

		vendors, err := h.vendors.List(c.Request.Context(), orgID, filters)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"data": vendors})
	}
}

type createVendorRequest struct {
	Name         string  `json:"name" binding:"required"`
	Category     *string `json:"category"`
	RiskLevel    string  `json:"risk_level"`
	Status       string  `json:"status"`
	Website      *string `json:"website"`
	ContactEmail *string `json:"contact_email"`
	Notes        *string `json:"notes"`
}

// CreateVendorHandler registers a vendor.
// POST /api/v1/vendors
func (h *VendorHandlers) CreateVendorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID, ok := orgIDFromPrincipal(c)
		if !ok {
			return
		}

		var req createVendorRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
			return
		}
		if req.RiskLevel == "" {
			req.RiskLevel = "medium"
		}
		if req.Status == "" {
			req.Status = "active"
		}

		v := &models.Vendor{
			OrganizationID: orgID,
			Name:           req.Name,
			Category:       req.Category,
			RiskLevel:      req.RiskLevel,
			Status:         req.Status,
			Website:        req.Website,
			ContactEmail:   req.ContactEmail,
			Notes:          req.Notes,
		}

		if err := h.vendors.Create(c.Request.Context(), v); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		resourceID := v.ID.String()
		h.emitter.Record(orgID, actorID(c), "vendor.create", "vendor", &resourceID,
			map[string]interface{}{"name": v.Name, "risk_level": v.RiskLevel}, clientIP(c))

		c.JSON(http.StatusCreated, gin.H{"data": v})
	}
}
