// Package grc implements the resource endpoints of the platform API. Every
// read takes the tenant from the org_id query parameter; every write takes it
// from the authenticated principal. Handlers issue exactly one scoped query
// per operation (plus the derived-count fan-outs on list views) and respond
// with a {data: ...} envelope on success or {error: msg} on failure.
package grc

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// orgIDFromQuery reads and validates the org_id query parameter for read
// endpoints. On failure it writes the 400 response and returns ok=false; no
// store query is issued for a request that never identified its tenant.
func orgIDFromQuery(c *gin.Context) (uuid.UUID, bool) {
	raw := c.Query("org_id")
	if raw == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "org_id is required"})
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "org_id must be a valid UUID"})
		return uuid.Nil, false
	}
	return id, true
}

// orgIDFromPrincipal reads the authenticated principal's organization for
// write endpoints. RequireAuth guarantees the value is present; the fallback
// 401 covers misregistered routes.
func orgIDFromPrincipal(c *gin.Context) (uuid.UUID, bool) {
	raw, exists := c.Get("organization_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return uuid.Nil, false
	}
	s, ok := raw.(string)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return uuid.Nil, false
	}
	id, err := uuid.Parse(s)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return uuid.Nil, false
	}
	return id, true
}

// actorID returns the authenticated principal's ID, or nil when the request
// carries no session (reads, system actions).
func actorID(c *gin.Context) *uuid.UUID {
	raw, exists := c.Get("user_id")
	if !exists {
		return nil
	}
	s, ok := raw.(string)
	if !ok {
		return nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil
	}
	return &id
}

// clientIP returns the request's client IP for audit attribution
func clientIP(c *gin.Context) *string {
	ip := c.ClientIP()
	if ip == "" {
		return nil
	}
	return &ip
}

// pathID parses the :id path parameter. On failure it writes the 400 response
// and returns ok=false.
func pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id must be a valid UUID"})
		return uuid.Nil, false
	}
	return id, true
}

// queryPtr returns a pointer to the named query parameter, or nil when absent
func queryPtr(c *gin.Context, name string) *string {
	if v := c.Query(name); v != "" {
		return &v
	}
	return nil
}

// parsePagination reads page/limit query parameters, applying the default and
// clamping to maxLimit. Out-of-range values fall back rather than erroring.
func parsePagination(c *gin.Context, defaultLimit, maxLimit int) (page, limit, offset int) {
	page = atoiDefault(c.Query("page"), 1)
	if page < 1 {
		page = 1
	}
	limit = atoiDefault(c.Query("limit"), defaultLimit)
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	offset = (page - 1) * limit
	return page, limit, offset
}

// totalPages is ceil(total/limit); zero rows still report zero pages
func totalPages(total, limit int) int {
	if limit <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}

// atoiDefault parses a query parameter, falling back to def on anything that
// is not a plain in-range integer (including values long enough to overflow).
func atoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return def
	}
	return n
}
