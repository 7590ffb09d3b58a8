package grc

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/grcplatform/grc-backend/internal/audit"
	"github.com/grcplatform/grc-backend/internal/db/models"
	"github.com/grcplatform/grc-backend/internal/db/repositories"
)

// IncidentHandlers contains handlers for incidents and their timelines
type IncidentHandlers struct {
	incidents *repositories.IncidentRepository
	emitter   *audit.Emitter
}

// NewIncidentHandlers creates incident handlers
func NewIncidentHandlers(incidents *repositories.IncidentRepository, emitter *audit.Emitter) *IncidentHandlers {
	return &IncidentHandlers{incidents: incidents, emitter: emitter}
}

// ListIncidentsHandler returns the organization's incidents, newest first.
// GET /api/v1/incidents?org_id=...&severity=...&status=...
func (h *IncidentHandlers) ListIncidentsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID, ok := orgIDFromQuery(c)
		if !ok {
			return
		}

		filters := repositories.IncidentFilters{
			Severity: queryPtr(c, "severity"),
			Status:   queryPtr(c, "status"),
		}

		incidents, err := h.incidents.List(c.Request.Context(), orgID, filters)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"data": incidents})
	}
}

type createIncidentRequest struct {
	Title       string     `json:"title" binding:"required"`
	Description *string    `json:"description"`
	Severity    string     `json:"severity" binding:"required"`
	Status      string     `json:"status"`
	ReportedBy  *string    `json:"reported_by"`
	OccurredAt  *time.Time `json:"occurred_at"`
}

// CreateIncidentHandler reports a new incident.
// POST /api/v1/incidents
func (h *IncidentHandlers) CreateIncidentHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID, ok := orgIDFromPrincipal(c)
		if !ok {
			return
		}

		var req createIncidentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "title and severity are required"})
			return
		}
		if req.Status == "" {
			req.Status = "open"
		}

		inc := &models.Incident{
			OrganizationID: orgID,
			Title:          req.Title,
			Description:    req.Description,
			Severity:       req.Severity,
			Status:         req.Status,
			ReportedBy:     req.ReportedBy,
			OccurredAt:     req.OccurredAt,
		}

		if err := h.incidents.Create(c.Request.Context(), inc); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		resourceID := inc.ID.String()
		h.emitter.Record(orgID, actorID(c), "incident.create", "incident", &resourceID,
			map[string]interface{}{"title": inc.Title, "severity": inc.Severity}, clientIP(c))

		c.JSON(http.StatusCreated, gin.H{"data": inc})
	}
}

// ListIncidentTimelineHandler returns an incident's timeline in order of occurrence.
// GET /api/v1/incidents/:id/timeline?org_id=...
func (h *IncidentHandlers) ListIncidentTimelineHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID, ok := orgIDFromQuery(c)
		if !ok {
			return
		}
		incidentID, ok := pathID(c)
		if !ok {
			return
		}

		inc, err := h.incidents.GetByID(c.Request.Context(), orgID, incidentID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if inc == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "incident not found"})
			return
		}

		events, err := h.incidents.ListEvents(c.Request.Context(), orgID, incidentID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"data": events})
	}
}

type createIncidentEventRequest struct {
	Description string     `json:"description" binding:"required"`
	Actor       *string    `json:"actor"`
	OccurredAt  *time.Time `json:"occurred_at"`
}

// CreateIncidentEventHandler appends an event to an incident's timeline.
// POST /api/v1/incidents/:id/timeline
func (h *IncidentHandlers) CreateIncidentEventHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID, ok := orgIDFromPrincipal(c)
		if !ok {
			return
		}
		incidentID, ok := pathID(c)
		if !ok {
			return
		}

		var req createIncidentEventRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "description is required"})
			return
		}

		inc, err := h.incidents.GetByID(c.Request.Context(), orgID, incidentID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if inc == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "incident not found"})
			return
		}

		event := &models.IncidentEvent{
			OrganizationID: orgID,
			IncidentID:     incidentID,
			Description:    req.Description,
			Actor:          req.Actor,
		}
		if req.OccurredAt != nil {
			event.OccurredAt = *req.OccurredAt
		}

		if err := h.incidents.CreateEvent(c.Request.Context(), event); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		resourceID := event.ID.String()
		h.emitter.Record(orgID, actorID(c), "incident.event_create", "incident_event", &resourceID,
			map[string]interface{}{"incident_id": incidentID.String()}, clientIP(c))

		c.JSON(http.StatusCreated, gin.H{"data": event})
	}
}
