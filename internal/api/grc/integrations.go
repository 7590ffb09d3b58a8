package grc

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/grcplatform/grc-backend/internal/audit"
	"github.com/grcplatform/grc-backend/internal/crypto"
	"github.com/grcplatform/grc-backend/internal/db/models"
	"github.com/grcplatform/grc-backend/internal/db/repositories"
)

// IntegrationHandlers contains handlers for external tool integrations
type IntegrationHandlers struct {
	integrations *repositories.IntegrationRepository
	cipher       *crypto.TokenCipher
	emitter      *audit.Emitter
}

// NewIntegrationHandlers creates integration handlers
func NewIntegrationHandlers(integrations *repositories.IntegrationRepository, cipher *crypto.TokenCipher, emitter *audit.Emitter) *IntegrationHandlers {
	return &IntegrationHandlers{integrations: integrations, cipher: cipher, emitter: emitter}
}

// ListIntegrationsHandler returns the organization's integrations, ordered by
// name. Credential ciphertext never appears in the response.
// GET /api/v1/integrations?org_id=...
func (h *IntegrationHandlers) ListIntegrationsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID, ok := orgIDFromQuery(c)
		if !ok {
			return
		}

		integrations, err := h.integrations.List(c.Request.Context(), orgID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"data": integrations})
	}
}

type createIntegrationRequest struct {
	Name        string          `json:"name" binding:"required"`
	Provider    string          `json:"provider" binding:"required"`
	Status      string          `json:"status"`
	Config      json.RawMessage `json:"config"`
	Credentials json.RawMessage `json:"credentials"`
}

// CreateIntegrationHandler connects an external tool. Credentials, when
// provided, are sealed before the row is written.
// POST /api/v1/integrations
func (h *IntegrationHandlers) CreateIntegrationHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID, ok := orgIDFromPrincipal(c)
		if !ok {
			return
		}

		var req createIntegrationRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "name and provider are required"})
			return
		}
		if req.Status == "" {
			req.Status = "pending_review"
		}

		i := &models.Integration{
			OrganizationID: orgID,
			Name:           req.Name,
			Provider:       req.Provider,
			Status:         req.Status,
		}
		if len(req.Config) > 0 {
			i.Config = []byte(req.Config)
		}
		if len(req.Credentials) > 0 {
			sealed, err := h.cipher.Seal(string(req.Credentials))
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			i.CredentialsCiphertext = &sealed
		}

		if err := h.integrations.Create(c.Request.Context(), i); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		resourceID := i.ID.String()
		h.emitter.Record(orgID, actorID(c), "integration.create", "integration", &resourceID,
			map[string]interface{}{"name": i.Name, "provider": i.Provider}, clientIP(c))

		c.JSON(http.StatusCreated, gin.H{"data": i})
	}
}
