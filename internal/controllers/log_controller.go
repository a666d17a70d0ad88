package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/eventguard/backend/internal/models"
	"github.com/eventguard/backend/internal/services"
	"github.com/eventguard/backend/internal/store"
	"github.com/gin-gonic/gin"
)

type LogController struct {
	logs *services.LogService
}

func NewLogController(logs *services.LogService) *LogController {
	return &LogController{logs: logs}
}

type CreateLogRequest struct {
	Occurrence                 string    `json:"occurrence" binding:"required"`
	ActionTaken                string    `json:"actionTaken"`
	IncidentType               string    `json:"incidentType" binding:"required"`
	Priority                   string    `json:"priority" binding:"required"`
	Location                   string    `json:"location"`
	CallsignFrom               string    `json:"callsignFrom"`
	CallsignTo                 string    `json:"callsignTo"`
	Status                     string    `json:"status"`
	Tags                       []string  `json:"tags"`
	TimeOfOccurrence           time.Time `json:"timeOfOccurrence" binding:"required"`
	TimeLogged                 time.Time `json:"timeLogged"`
	EntryType                  string    `json:"entryType" binding:"required"`
	RetrospectiveJustification string    `json:"retrospectiveJustification"`
}

type AmendLogRequest struct {
	FieldChanged string          `json:"fieldChanged" binding:"required"`
	NewValue     json.RawMessage `json:"newValue" binding:"required"`
	Reason       string          `json:"reason" binding:"required"`
	ChangeType   string          `json:"changeType" binding:"required"`
}

func (lc *LogController) CreateLog(c *gin.Context) {
	var req CreateLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "Invalid request data",
			"errors":  err.Error(),
		})
		return
	}

	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var priority models.LogPriority
	switch req.Priority {
	case "LOW":
		priority = models.PriorityLow
	case "MEDIUM":
		priority = models.PriorityMedium
	case "HIGH":
		priority = models.PriorityHigh
	case "CRITICAL":
		priority = models.PriorityCritical
	default:
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "Invalid priority value",
		})
		return
	}

	var status models.LogStatus
	switch req.Status {
	case "":
		status = models.LogStatusOpen
	case "OPEN":
		status = models.LogStatusOpen
	case "ONGOING":
		status = models.LogStatusOngoing
	case "RESOLVED":
		status = models.LogStatusResolved
	case "CLOSED":
		status = models.LogStatusClosed
	default:
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "Invalid status value",
		})
		return
	}

	var entryType models.EntryType
	switch req.EntryType {
	case "CONTEMPORANEOUS":
		entryType = models.EntryContemporaneous
	case "RETROSPECTIVE":
		entryType = models.EntryRetrospective
	default:
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "Invalid entry type",
		})
		return
	}

	result, err := lc.logs.CreateLog(c.Request.Context(), services.CreateLogInput{
		Occurrence:                 req.Occurrence,
		ActionTaken:                req.ActionTaken,
		IncidentType:               req.IncidentType,
		Priority:                   priority,
		Location:                   req.Location,
		CallsignFrom:               req.CallsignFrom,
		CallsignTo:                 req.CallsignTo,
		Status:                     status,
		Tags:                       req.Tags,
		TimeOfOccurrence:           req.TimeOfOccurrence,
		TimeLogged:                 req.TimeLogged,
		EntryType:                  entryType,
		RetrospectiveJustification: req.RetrospectiveJustification,
	}, userID)
	if err != nil {
		respondServiceError(c, err, "Failed to create incident log")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":  true,
		"data":     result.Log,
		"warnings": result.Warnings,
	})
}

func (lc *LogController) GetLogs(c *gin.Context) {
	filter := store.LogFilter{
		Status:    c.Query("status"),
		Priority:  c.Query("priority"),
		EntryType: c.Query("entryType"),
	}

	limit := c.DefaultQuery("limit", "50")
	if limitInt, err := strconv.Atoi(limit); err == nil && limitInt > 0 {
		filter.Limit = limitInt
	}

	logs, err := lc.logs.ListLogs(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "Failed to fetch incident logs",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    logs,
	})
}

func (lc *LogController) GetLog(c *gin.Context) {
	logID, ok := parseLogID(c)
	if !ok {
		return
	}

	log, err := lc.logs.GetLog(c.Request.Context(), logID)
	if err != nil {
		respondServiceError(c, err, "Failed to fetch incident log")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    log,
	})
}

// GetPermissions reports whether the requesting user could amend this log
// right now. The decision is advisory; AmendLog re-evaluates it.
func (lc *LogController) GetPermissions(c *gin.Context) {
	logID, ok := parseLogID(c)
	if !ok {
		return
	}
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	decision, err := lc.logs.CanAmend(c.Request.Context(), logID, userID)
	if err != nil {
		respondServiceError(c, err, "Failed to check permissions")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    decision,
	})
}

func (lc *LogController) AmendLog(c *gin.Context) {
	logID, ok := parseLogID(c)
	if !ok {
		return
	}
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req AmendLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "Invalid request data",
			"errors":  err.Error(),
		})
		return
	}

	var changeType models.ChangeType
	switch req.ChangeType {
	case "AMENDMENT":
		changeType = models.ChangeAmendment
	case "CORRECTION":
		changeType = models.ChangeCorrection
	case "CLARIFICATION":
		changeType = models.ChangeClarification
	case "STATUS_CHANGE":
		changeType = models.ChangeStatusChange
	case "ESCALATION":
		changeType = models.ChangeEscalation
	default:
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "Invalid change type",
		})
		return
	}

	revision, err := lc.logs.AmendLog(c.Request.Context(), logID, req.FieldChanged, req.NewValue, req.Reason, changeType, userID)
	if err != nil {
		respondServiceError(c, err, "Failed to amend incident log")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    revision,
	})
}

// GetHistory returns the ordered revision list with rendered diffs and a
// summary block.
func (lc *LogController) GetHistory(c *gin.Context) {
	logID, ok := parseLogID(c)
	if !ok {
		return
	}

	revisions, err := lc.logs.GetHistory(c.Request.Context(), logID)
	if err != nil {
		respondServiceError(c, err, "Failed to fetch revision history")
		return
	}

	diffs := make([]services.RevisionDiff, 0, len(revisions))
	for _, rev := range revisions {
		diffs = append(diffs, services.FormatDiff(rev))
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"revisions": revisions,
			"diffs":     diffs,
			"summary":   services.Summarize(revisions),
		},
	})
}

// ExportHistory streams the plain-text audit document.
func (lc *LogController) ExportHistory(c *gin.Context) {
	logID, ok := parseLogID(c)
	if !ok {
		return
	}

	document, err := lc.logs.ExportHistory(c.Request.Context(), logID)
	if err != nil {
		respondServiceError(c, err, "Failed to export revision history")
		return
	}

	c.Header("Content-Disposition", "attachment; filename=incident-log-export.txt")
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(document))
}

// requireUserID reads the authenticated user id set by the auth
// middleware, answering 401 when the context never got one.
func requireUserID(c *gin.Context) (uint, bool) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"message": "User not authenticated",
		})
		return 0, false
	}
	id, ok := userID.(uint)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"message": "User not authenticated",
		})
		return 0, false
	}
	return id, true
}

func parseLogID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "Invalid log id",
		})
		return 0, false
	}
	return uint(id), true
}

// respondServiceError maps the service error taxonomy onto HTTP statuses:
// validation 400, authorization 403, missing records 404, write conflicts
// 409, failed permission lookups and storage faults 500.
func respondServiceError(c *gin.Context, err error, fallback string) {
	var validationErr *services.ValidationError
	var authErr *services.AuthorizationError
	var permErr *services.PermissionCheckError

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": validationErr.Message,
		})
	case errors.As(err, &authErr):
		c.JSON(http.StatusForbidden, gin.H{
			"success": false,
			"message": authErr.Reason,
		})
	case errors.As(err, &permErr):
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "Cannot verify permissions",
		})
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"message": "Incident log not found",
		})
	case errors.Is(err, store.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{
			"success": false,
			"message": "Conflicting write, please retry",
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": fallback,
		})
	}
}
