package grc

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/grcplatform/grc-backend/internal/audit"
	"github.com/grcplatform/grc-backend/internal/db/models"
	"github.com/grcplatform/grc-backend/internal/db/repositories"
)

// classificationFields is the set of asset fields that may be changed through
// the classification override endpoint. Anything else in the request body is
// silently dropped.
var classificationFields = map[string]bool{
	"classification":   true,
	"criticality":      true,
	"data_sensitivity": true,
	"environment":      true,
}

// AssetHandlers contains handlers for the asset inventory
type AssetHandlers struct {
	assets  *repositories.AssetRepository
	emitter *audit.Emitter
}

// NewAssetHandlers creates asset handlers
func NewAssetHandlers(assets *repositories.AssetRepository, emitter *audit.Emitter) *AssetHandlers {
	return &AssetHandlers{assets: assets, emitter: emitter}
}

// ListAssetsHandler returns the organization's assets, filtered and ordered by name.
// GET /api/v1/assets?org_id=...&asset_type=...&status=...&criticality=...&search=...
func (h *AssetHandlers) ListAssetsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID, ok := orgIDFromQuery(c)
		if !ok {
			return
		}

		filters := repositories.AssetFilters{
			AssetType:   queryPtr(c, "asset_type"),
			Status:      queryPtr(c, "status"),
			Criticality: queryPtr(c, "criticality"),
			Search:      queryPtr(c, "search"),
		}

		assets, err := h.assets.List(c.Request.Context(), orgID, filters)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"data": assets})
	}
}

type createAssetRequest struct {
	Name            string  `json:"name" binding:"required"`
	AssetType       string  `json:"asset_type" binding:"required"`
	Status          string  `json:"status"`
	Criticality     string  `json:"criticality"`
	Classification  *string `json:"classification"`
	DataSensitivity *string `json:"data_sensitivity"`
	Environment     *string `json:"environment"`
	Owner           *string `json:"owner"`
	Description     *string `json:"description"`
}

// CreateAssetHandler registers a new asset in the inventory.
// POST /api/v1/assets
func (h *AssetHandlers) CreateAssetHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID, ok := orgIDFromPrincipal(c)
		if !ok {
			return
		}

		var req createAssetRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "name and asset_type are required"})
			return
		}
		if req.Status == "" {
			req.Status = "active"
		}
		if req.Criticality == "" {
			req.Criticality = "medium"
		}

		asset := &models.Asset{
			OrganizationID:  orgID,
			Name:            req.Name,
			AssetType:       req.AssetType,
			Status:          req.Status,
			Criticality:     req.Criticality,
			Classification:  req.Classification,
			DataSensitivity: req.DataSensitivity,
			Environment:     req.Environment,
			Owner:           req.Owner,
			Description:     req.Description,
		}

		if err := h.assets.Create(c.Request.Context(), asset); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		resourceID := asset.ID.String()
		h.emitter.Record(orgID, actorID(c), "asset.create", "asset", &resourceID,
			map[string]interface{}{"name": asset.Name, "asset_type": asset.AssetType}, clientIP(c))

		c.JSON(http.StatusCreated, gin.H{"data": asset})
	}
}

// DeleteAssetHandler removes an asset from the inventory.
// DELETE /api/v1/assets/:id
func (h *AssetHandlers) DeleteAssetHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID, ok := orgIDFromPrincipal(c)
		if !ok {
			return
		}
		id, ok := pathID(c)
		if !ok {
			return
		}

		deleted, err := h.assets.Delete(c.Request.Context(), orgID, id)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if !deleted {
			c.JSON(http.StatusNotFound, gin.H{"error": "asset not found"})
			return
		}

		resourceID := id.String()
		h.emitter.Record(orgID, actorID(c), "asset.delete", "asset", &resourceID, nil, clientIP(c))

		c.JSON(http.StatusOK, gin.H{"data": gin.H{"id": id, "deleted": true}})
	}
}

// UpdateClassificationHandler applies manual classification overrides to an
// asset. Only the allow-listed fields are applied; unknown keys are dropped,
// and a request that names none of the allowed fields is rejected before any
// store call. Each applied field is recorded in asset_overrides.
// PATCH /api/v1/assets/:id/classification
func (h *AssetHandlers) UpdateClassificationHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID, ok := orgIDFromPrincipal(c)
		if !ok {
			return
		}
		id, ok := pathID(c)
		if !ok {
			return
		}

		var body map[string]interface{}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "request body must be a JSON object"})
			return
		}

		fields := make(map[string]string)
		for key, raw := range body {
			if !classificationFields[key] {
				continue
			}
			value, ok := raw.(string)
			if !ok || strings.TrimSpace(value) == "" {
				c.JSON(http.StatusBadRequest, gin.H{"error": key + " must be a non-empty string"})
				return
			}
			fields[key] = value
		}
		if len(fields) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "no overridable fields provided"})
			return
		}

		reason := "Manual override"
		if raw, ok := body["reason"].(string); ok && strings.TrimSpace(raw) != "" {
			reason = raw
		}

		found, err := h.assets.UpdateClassification(c.Request.Context(), orgID, id, fields, reason, actorID(c))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if !found {
			c.JSON(http.StatusNotFound, gin.H{"error": "asset not found"})
			return
		}

		asset, err := h.assets.GetByID(c.Request.Context(), orgID, id)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		changes := make(map[string]interface{}, len(fields))
		for field, value := range fields {
			changes[field] = value
		}
		resourceID := id.String()
		h.emitter.Record(orgID, actorID(c), "asset.classification_override", "asset", &resourceID, changes, clientIP(c))

		c.JSON(http.StatusOK, gin.H{"data": asset})
	}
}
