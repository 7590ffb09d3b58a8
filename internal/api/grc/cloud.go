package grc

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/grcplatform/grc-backend/internal/audit"
	"github.com/grcplatform/grc-backend/internal/cloudverify"
	"github.com/grcplatform/grc-backend/internal/crypto"
	"github.com/grcplatform/grc-backend/internal/db/models"
	"github.com/grcplatform/grc-backend/internal/db/repositories"
	"github.com/grcplatform/grc-backend/internal/telemetry"
)

// inventory pagination bounds; the limit clamp is a hard cap, larger requests
// are silently reduced rather than rejected
const (
	inventoryDefaultLimit = 50
	inventoryMaxLimit     = 200
)

// CloudHandlers contains handlers for cloud accounts and the resource inventory
type CloudHandlers struct {
	cloud    *repositories.CloudRepository
	verifier *cloudverify.Verifier
	cipher   *crypto.TokenCipher
	emitter  *audit.Emitter
}

// NewCloudHandlers creates cloud handlers
func NewCloudHandlers(cloud *repositories.CloudRepository, verifier *cloudverify.Verifier, cipher *crypto.TokenCipher, emitter *audit.Emitter) *CloudHandlers {
	return &CloudHandlers{cloud: cloud, verifier: verifier, cipher: cipher, emitter: emitter}
}

// ListCloudAccountsHandler returns the organization's cloud accounts, each
// decorated with its inventory row count. Counts are fanned out concurrently.
// GET /api/v1/cloud-accounts?org_id=...
func (h *CloudHandlers) ListCloudAccountsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID, ok := orgIDFromQuery(c)
		if !ok {
			return
		}

		accounts, err := h.cloud.ListAccounts(c.Request.Context(), orgID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		g, ctx := errgroup.WithContext(c.Request.Context())
		for _, a := range accounts {
			a := a
			g.Go(func() error {
				n, err := h.cloud.CountResources(ctx, orgID, a.ID)
				if err != nil {
					return err
				}
				a.ResourcesCount = &n
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"data": accounts})
	}
}

type createCloudAccountRequest struct {
	Name              string          `json:"name" binding:"required"`
	Provider          string          `json:"provider" binding:"required"`
	AccountIdentifier string          `json:"account_identifier" binding:"required"`
	Region            *string         `json:"region"`
	Credentials       json.RawMessage `json:"credentials"`
}

// CreateCloudAccountHandler connects a cloud account. Credentials, when
// provided, are sealed before the row is written; the plaintext never reaches
// the database.
// POST /api/v1/cloud-accounts
func (h *CloudHandlers) CreateCloudAccountHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID, ok := orgIDFromPrincipal(c)
		if !ok {
			return
		}

		var req createCloudAccountRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "name, provider and account_identifier are required"})
			return
		}

		account := &models.CloudAccount{
			OrganizationID:    orgID,
			Name:              req.Name,
			Provider:          req.Provider,
			AccountIdentifier: req.AccountIdentifier,
			Region:            req.Region,
			Status:            "pending_review",
		}

		if len(req.Credentials) > 0 {
			sealed, err := h.cipher.Seal(string(req.Credentials))
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			account.CredentialsCiphertext = &sealed
		}

		if err := h.cloud.CreateAccount(c.Request.Context(), account); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		resourceID := account.ID.String()
		h.emitter.Record(orgID, actorID(c), "cloud_account.create", "cloud_account", &resourceID,
			map[string]interface{}{"name": account.Name, "provider": account.Provider}, clientIP(c))

		c.JSON(http.StatusCreated, gin.H{"data": account})
	}
}

// VerifyCloudAccountHandler checks the account's stored credentials against
// the provider and records the outcome on the account row.
// POST /api/v1/cloud-accounts/:id/verify
func (h *CloudHandlers) VerifyCloudAccountHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID, ok := orgIDFromPrincipal(c)
		if !ok {
			return
		}
		id, ok := pathID(c)
		if !ok {
			return
		}

		account, err := h.cloud.GetAccountByID(c.Request.Context(), orgID, id)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if account == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "cloud account not found"})
			return
		}
		if account.Provider != "aws" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "credential verification is only supported for aws accounts"})
			return
		}
		if account.CredentialsCiphertext == nil || *account.CredentialsCiphertext == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "cloud account has no stored credentials"})
			return
		}

		result, err := h.verifier.VerifyAWS(c.Request.Context(), *account.CredentialsCiphertext, account.Region)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		status := "error"
		outcome := "failure"
		if result.OK {
			status = "connected"
			outcome = "success"
		}
		telemetry.CloudVerificationsTotal.WithLabelValues(account.Provider, outcome).Inc()

		if err := h.cloud.SetAccountVerification(c.Request.Context(), orgID, id, status, time.Now()); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		resourceID := id.String()
		h.emitter.Record(orgID, actorID(c), "cloud_account.verify", "cloud_account", &resourceID,
			map[string]interface{}{"status": status}, clientIP(c))

		c.JSON(http.StatusOK, gin.H{"data": gin.H{"status": status, "result": result}})
	}
}

// ListCloudInventoryHandler returns a page of discovered resources, most
// recently discovered first.
// GET /api/v1/cloud-inventory?org_id=...&account_id=...&resource_type=...&region=...&status=...&search=...&page=...&limit=...
func (h *CloudHandlers) ListCloudInventoryHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID, ok := orgIDFromQuery(c)
		if !ok {
			return
		}

		page, limit, offset := parsePagination(c, inventoryDefaultLimit, inventoryMaxLimit)

		filters := repositories.ResourceFilters{
			ResourceType: queryPtr(c, "resource_type"),
			Region:       queryPtr(c, "region"),
			Status:       queryPtr(c, "status"),
			Search:       queryPtr(c, "search"),
		}
		if raw := c.Query("account_id"); raw != "" {
			accountID, err := uuid.Parse(raw)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "account_id must be a valid UUID"})
				return
			}
			filters.AccountID = &accountID
		}

		resources, total, err := h.cloud.ListResources(c.Request.Context(), orgID, filters, limit, offset)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"data": resources,
			"pagination": gin.H{
				"page":       page,
				"limit":      limit,
				"total":      total,
				"totalPages": totalPages(total, limit),
			},
		})
	}
}

// GetCloudResourceHandler returns one inventory row.
// GET /api/v1/cloud-inventory/:id?org_id=...
func (h *CloudHandlers) GetCloudResourceHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID, ok := orgIDFromQuery(c)
		if !ok {
			return
		}
		id, ok := pathID(c)
		if !ok {
			return
		}

		resource, err := h.cloud.GetResourceByID(c.Request.Context(), orgID, id)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if resource == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "cloud resource not found"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"data": resource})
	}
}

type updateCloudResourceRequest struct {
	Name   *string         `json:"name"`
	Status *string         `json:"status"`
	Tags   json.RawMessage `json:"tags"`
}

// UpdateCloudResourceHandler applies a partial update to an inventory row.
// Tags replace the stored object wholesale.
// PATCH /api/v1/cloud-inventory/:id
func (h *CloudHandlers) UpdateCloudResourceHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID, ok := orgIDFromPrincipal(c)
		if !ok {
			return
		}
		id, ok := pathID(c)
		if !ok {
			return
		}

		var req updateCloudResourceRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "request body must be a JSON object"})
			return
		}
		if req.Name == nil && req.Status == nil && len(req.Tags) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "no updatable fields provided"})
			return
		}

		upd := repositories.ResourceUpdate{Name: req.Name, Status: req.Status}
		if len(req.Tags) > 0 {
			upd.Tags = []byte(req.Tags)
		}

		found, err := h.cloud.UpdateResource(c.Request.Context(), orgID, id, upd)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if !found {
			c.JSON(http.StatusNotFound, gin.H{"error": "cloud resource not found"})
			return
		}

		resource, err := h.cloud.GetResourceByID(c.Request.Context(), orgID, id)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		resourceID := id.String()
		h.emitter.Record(orgID, actorID(c), "cloud_resource.update", "cloud_resource", &resourceID, nil, clientIP(c))

		c.JSON(http.StatusOK, gin.H{"data": resource})
	}
}
