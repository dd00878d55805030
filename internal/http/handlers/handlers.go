package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/grievance_desk/backend/internal/apperr"
	"github.com/grievance_desk/backend/internal/db"
	"github.com/grievance_desk/backend/internal/intel"
	"github.com/grievance_desk/backend/internal/metrics"
	"github.com/grievance_desk/backend/internal/models"
	"github.com/grievance_desk/backend/internal/service"
)

type Handler struct {
	Store     *db.Store
	Ingest    *service.IngestService
	Sessions  *service.SessionTracker
	Metrics   *metrics.Registry
	Validator *validator.Validate
	Logger    zerolog.Logger
	AdminKey  string
}

type ComplaintRequest struct {
	Text        string `json:"text" validate:"required"`
	Location    string `json:"location" validate:"required,min=2"`
	ComplaintID string `json:"complaint_id"`
	SessionID   string `json:"session_id"`
}

type BatchComplaintRequest struct {
	Complaints []ComplaintRequest `json:"complaints" validate:"required,min=1,max=50,dive"`
}

type StatusUpdateRequest struct {
	Status string `json:"status" validate:"required"`
}

func (h *Handler) Healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()
	if err := h.Store.Ping(ctx); err != nil {
		writeError(c, http.StatusServiceUnavailable, "DB_UNAVAILABLE", "Database unavailable", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// @Summary Submit a complaint
// @Description Classify, embed, group into an issue and evaluate session heuristics
// @Tags complaints
// @Accept json
// @Produce json
// @Param payload body ComplaintRequest true "complaint"
// @Success 201 {object} map[string]any
// @Failure 400 {object} map[string]any
// @Router /api/complaints [post]
func (h *Handler) ComplaintSubmit(c *gin.Context) {
	var req ComplaintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid payload", err.Error())
		return
	}
	if err := h.Validator.Struct(req); err != nil {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", err.Error())
		return
	}

	result, err := h.Ingest.Ingest(c.Request.Context(), service.IngestRequest{
		Text:        req.Text,
		Location:    req.Location,
		ComplaintID: req.ComplaintID,
		SessionID:   req.SessionID,
	})
	if err != nil {
		writeIngestError(c, err, result)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "result": result})
}

// @Summary Submit complaints in batch
// @Tags complaints
// @Accept json
// @Produce json
// @Param payload body BatchComplaintRequest true "complaints"
// @Success 200 {object} map[string]any
// @Router /api/complaints/batch [post]
func (h *Handler) ComplaintBatch(c *gin.Context) {
	var req BatchComplaintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid payload", err.Error())
		return
	}
	if err := h.Validator.Struct(req); err != nil {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", err.Error())
		return
	}

	reqs := make([]service.IngestRequest, 0, len(req.Complaints))
	for _, item := range req.Complaints {
		reqs = append(reqs, service.IngestRequest{
			Text:        item.Text,
			Location:    item.Location,
			ComplaintID: item.ComplaintID,
			SessionID:   item.SessionID,
		})
	}

	items := h.Ingest.IngestBatch(c.Request.Context(), reqs)
	out := make([]gin.H, 0, len(items))
	for _, item := range items {
		if item.Err != nil {
			out = append(out, gin.H{
				"success": false,
				"error": gin.H{
					"code":    apperr.KindOf(item.Err).Code(),
					"message": item.Err.Error(),
				},
			})
			continue
		}
		out = append(out, gin.H{"success": true, "result": item.Result})
	}
	c.JSON(http.StatusOK, gin.H{"results": out})
}

// @Summary List issues
// @Tags issues
// @Produce json
// @Success 200 {object} map[string]any
// @Router /api/issues [get]
func (h *Handler) IssuesList(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	issues, err := h.Store.ListIssues(c.Request.Context(), c.Query("status"), c.Query("location"), c.Query("category"), limit)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to list issues", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"issues": issues, "count": len(issues)})
}

func (h *Handler) IssueDetails(c *gin.Context) {
	id := c.Param("id")
	issue, err := h.Store.GetIssue(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(c, http.StatusNotFound, "NOT_FOUND", "Issue not found", nil)
			return
		}
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to load issue", err.Error())
		return
	}

	limit, _ := strconv.Atoi(c.Query("limit"))
	complaints, err := h.Store.ListComplaintsByIssue(c.Request.Context(), id, limit)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to load complaints", err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"issue":        issue,
		"complaints":   complaints,
		"intelligence": intel.ComputeSnapshot(issue, time.Now().UTC()),
	})
}

func (h *Handler) IssueDuplicates(c *gin.Context) {
	id := c.Param("id")
	if _, err := h.Store.GetIssue(c.Request.Context(), id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(c, http.StatusNotFound, "NOT_FOUND", "Issue not found", nil)
			return
		}
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to load issue", err.Error())
		return
	}

	complaints, err := h.Store.ListComplaintsByIssue(c.Request.Context(), id, 0)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to load complaints", err.Error())
		return
	}

	pairs, stats := service.DuplicateReport(complaints)
	c.JSON(http.StatusOK, gin.H{
		"issue_id":         id,
		"duplicate_pairs":  pairs,
		"similarity_stats": stats,
	})
}

func (h *Handler) SessionCreate(c *gin.Context) {
	session := h.Sessions.Create()
	h.Metrics.SessionsCreated.Add(1)
	c.JSON(http.StatusCreated, session)
}

func (h *Handler) SessionGet(c *gin.Context) {
	session, ok := h.Sessions.Snapshot(c.Param("id"))
	if !ok {
		writeError(c, http.StatusNotFound, "NOT_FOUND", "Session not found or expired", nil)
		return
	}
	c.JSON(http.StatusOK, session)
}

func (h *Handler) MetricsSnapshot(c *gin.Context) {
	c.JSON(http.StatusOK, h.Metrics.Snapshot())
}

// @Summary Prioritized admin queue
// @Description Issues enriched with health, severity, SLA and priority, sorted by priority
// @Tags admin
// @Produce json
// @Success 200 {object} map[string]any
// @Router /api/admin/queue [get]
func (h *Handler) AdminQueue(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	issues, err := h.Store.ListIssues(c.Request.Context(), c.Query("status"), "", "", limit)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to list issues", err.Error())
		return
	}

	queue := intel.BuildQueue(issues, time.Now().UTC())
	c.JSON(http.StatusOK, gin.H{"queue": queue, "count": len(queue)})
}

func (h *Handler) IssueStatusUpdate(c *gin.Context) {
	id := c.Param("id")
	var req StatusUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid payload", err.Error())
		return
	}
	if !models.ValidStatus(req.Status) {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Unknown status", req.Status)
		return
	}

	issue, err := h.Store.UpdateIssueStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(c, http.StatusNotFound, "NOT_FOUND", "Issue not found", nil)
			return
		}
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to update status", err.Error())
		return
	}

	h.Logger.Info().Str("issue_id", id).Str("status", req.Status).Msg("issue status updated")
	c.JSON(http.StatusOK, gin.H{"success": true, "issue": issue})
}

func (h *Handler) AdminStats(c *gin.Context) {
	stats, err := h.Store.GetIssueStats(c.Request.Context())
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to load stats", err.Error())
		return
	}

	sessions, entries := h.Sessions.Stats()
	c.JSON(http.StatusOK, gin.H{
		"issues": stats,
		"sessions": gin.H{
			"active_sessions": sessions,
			"tracked_entries": entries,
		},
		"pipeline": h.Metrics.Snapshot(),
	})
}

// writeIngestError maps tagged pipeline errors onto the wire envelope.
// Validation and capacity rejections are structured failures; consistency
// and backend errors are hard failures.
func writeIngestError(c *gin.Context, err error, result service.IngestResult) {
	kind := apperr.KindOf(err)
	body := gin.H{
		"success": false,
		"error": gin.H{
			"code":    kind.Code(),
			"message": err.Error(),
		},
	}
	if result.ComplaintID != "" {
		body["complaint_id"] = result.ComplaintID
	}
	if kind == apperr.KindTransientBackend {
		body["retryable"] = true
	}
	c.JSON(kind.HTTPStatus(), body)
}

func writeError(c *gin.Context, status int, code string, message string, details any) {
	c.JSON(status, gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
			"details": details,
		},
	})
}
