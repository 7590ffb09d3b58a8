// Package session implements authentication endpoints: email/password login,
// the OIDC SSO code flow, session introspection, and token refresh. A
// successful login of either kind ends in the same place, a signed platform
// JWT carrying the user, organization, and email claims.
package session

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/grcplatform/grc-backend/internal/auth"
	"github.com/grcplatform/grc-backend/internal/auth/oidc"
	"github.com/grcplatform/grc-backend/internal/config"
	"github.com/grcplatform/grc-backend/internal/db/models"
	"github.com/grcplatform/grc-backend/internal/db/repositories"
)

// stateCookieName carries the OAuth2 state between the login redirect and the
// callback. Short-lived and HttpOnly.
const stateCookieName = "sso_state"

// AuthHandlers contains the authentication endpoints
type AuthHandlers struct {
	cfg   *config.Config
	users *repositories.UserRepository
	oidc  *oidc.OIDCProvider // nil when SSO is disabled
}

// NewAuthHandlers creates authentication handlers. oidcProvider may be nil
// when SSO is not configured; the SSO endpoints then return 404.
func NewAuthHandlers(cfg *config.Config, users *repositories.UserRepository, oidcProvider *oidc.OIDCProvider) *AuthHandlers {
	return &AuthHandlers{cfg: cfg, users: users, oidc: oidcProvider}
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginHandler authenticates a local email/password account and issues a JWT.
// Lookup misses and password mismatches return the same 401 body.
// POST /api/v1/auth/login
func (h *AuthHandlers) LoginHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
			return
		}

		user, err := h.users.GetByEmail(c.Request.Context(), req.Email)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if user == nil || user.PasswordHash == nil || !auth.CheckPassword(req.Password, *user.PasswordHash) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
			return
		}

		h.issueToken(c, user)
	}
}

// MeHandler returns the authenticated principal.
// GET /api/v1/auth/me
func (h *AuthHandlers) MeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, exists := c.Get("user")
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": raw})
	}
}

// RefreshHandler issues a fresh JWT for an already-authenticated session.
// POST /api/v1/auth/refresh
func (h *AuthHandlers) RefreshHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, exists := c.Get("user")
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			return
		}
		user, ok := raw.(*models.User)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			return
		}

		h.issueToken(c, user)
	}
}

// SSOLoginHandler starts the OIDC code flow: sets the state cookie and
// redirects to the identity provider.
// GET /api/v1/auth/sso/login
func (h *AuthHandlers) SSOLoginHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if h.oidc == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "SSO is not configured"})
			return
		}

		state, err := randomState()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		// 10 minute state window, HttpOnly, scoped to the callback path
		c.SetCookie(stateCookieName, state, 600, "/api/v1/auth/sso", "", false, true)
		c.Redirect(http.StatusFound, h.oidc.GetAuthURL(state))
	}
}

// SSOCallbackHandler completes the OIDC code flow. The verified identity must
// match an already-provisioned user, matched first by subject and then by
// email; an email match links the subject for future logins. Unknown
// identities are rejected rather than auto-provisioned, since a fresh user has
// no organization to belong to.
// GET /api/v1/auth/sso/callback
func (h *AuthHandlers) SSOCallbackHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if h.oidc == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "SSO is not configured"})
			return
		}

		state, err := c.Cookie(stateCookieName)
		if err != nil || state == "" || c.Query("state") != state {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid or expired SSO state"})
			return
		}
		c.SetCookie(stateCookieName, "", -1, "/api/v1/auth/sso", "", false, true)

		code := c.Query("code")
		if code == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Missing authorization code"})
			return
		}

		token, err := h.oidc.ExchangeCode(c.Request.Context(), code)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}

		rawIDToken, ok := token.Extra("id_token").(string)
		if !ok || rawIDToken == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Identity provider response missing id_token"})
			return
		}

		idToken, err := h.oidc.VerifyIDToken(c.Request.Context(), rawIDToken)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}

		sub, email, _, err := h.oidc.ExtractUserInfo(idToken)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}

		user, err := h.users.GetBySSOSubject(c.Request.Context(), sub)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if user == nil {
			user, err = h.users.GetByEmail(c.Request.Context(), email)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
		}
		if user == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "No account is provisioned for this identity"})
			return
		}

		h.issueToken(c, user)
	}
}

// issueToken signs a JWT for the user and writes the standard login response
func (h *AuthHandlers) issueToken(c *gin.Context, user *models.User) {
	token, err := auth.GenerateJWT(user.ID.String(), user.OrganizationID.String(), user.Email, h.cfg.Auth.TokenTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"token": token,
		"user":  user,
	}})
}

func randomState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
