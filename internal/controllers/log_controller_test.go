package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/eventguard/backend/internal/models"
	"github.com/eventguard/backend/internal/services"
	"github.com/eventguard/backend/internal/store"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestRouter wires the log routes against a MemoryStore, with a stub
// auth middleware that trusts the X-Test-User header.
func newTestRouter(t *testing.T) (*gin.Engine, *store.MemoryStore, *models.User, *models.User) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st := store.NewMemoryStore()
	ctx := context.Background()

	officer := &models.User{Email: "officer@eventguard.test", Password: "x", FirstName: "Dana", LastName: "Reyes", Role: models.RoleOfficer}
	other := &models.User{Email: "other@eventguard.test", Password: "x", FirstName: "Sam", LastName: "Okafor", Role: models.RoleOfficer}
	require.NoError(t, st.CreateUser(ctx, officer))
	require.NoError(t, st.CreateUser(ctx, other))

	permissionService := services.NewPermissionService(st)
	revisionService := services.NewRevisionService(st)
	logService := services.NewLogService(st, permissionService, revisionService)
	logController := NewLogController(logService)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		if header := c.GetHeader("X-Test-User"); header != "" {
			var id uint
			switch header {
			case officer.Email:
				id = officer.ID
			case other.Email:
				id = other.ID
			}
			c.Set("user_id", id)
		}
		c.Next()
	})

	logs := r.Group("/api/v1/logs")
	{
		logs.POST("", logController.CreateLog)
		logs.GET("/:id", logController.GetLog)
		logs.GET("/:id/permissions", logController.GetPermissions)
		logs.POST("/:id/revisions", logController.AmendLog)
		logs.GET("/:id/revisions", logController.GetHistory)
		logs.GET("/:id/export", logController.ExportHistory)
	}

	return r, st, officer, other
}

func doJSON(t *testing.T, r *gin.Engine, method, path, user string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = strings.NewReader(string(raw))
	} else {
		reader = strings.NewReader("")
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set("X-Test-User", user)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func createLogPayload() map[string]interface{} {
	now := time.Now().UTC()
	return map[string]interface{}{
		"occurrence":       "Perimeter breach attempt at south fence line",
		"actionTaken":      "Subject detained pending police arrival",
		"incidentType":     "PERIMETER",
		"priority":         "HIGH",
		"location":         "South fence",
		"callsignFrom":     "SIERRA-4",
		"callsignTo":       "CONTROL",
		"timeOfOccurrence": now.Add(-5 * time.Minute).Format(time.RFC3339),
		"timeLogged":       now.Format(time.RFC3339),
		"entryType":        "CONTEMPORANEOUS",
	}
}

func TestCreateLogEndpoint(t *testing.T) {
	r, _, officer, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/v1/logs", officer.Email, createLogPayload())
	require.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		Success  bool               `json:"success"`
		Data     models.IncidentLog `json:"data"`
		Warnings []string           `json:"warnings"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.NotEmpty(t, resp.Data.LogNumber)
	assert.False(t, resp.Data.IsAmended)
	assert.Empty(t, resp.Warnings)
}

func TestCreateLogEndpointRetrospectiveValidation(t *testing.T) {
	r, _, officer, _ := newTestRouter(t)

	payload := createLogPayload()
	payload["entryType"] = "RETROSPECTIVE"

	w := doJSON(t, r, http.MethodPost, "/api/v1/logs", officer.Email, payload)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "justification")
}

func TestAmendEndpointDeniedForNonCreator(t *testing.T) {
	r, _, officer, other := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/v1/logs", officer.Email, createLogPayload())
	require.Equal(t, http.StatusCreated, w.Code)

	amend := map[string]interface{}{
		"fieldChanged": "occurrence",
		"newValue":     "A longer, corrected narrative",
		"reason":       "Filling in detail after debrief",
		"changeType":   "CLARIFICATION",
	}
	w = doJSON(t, r, http.MethodPost, "/api/v1/logs/1/revisions", other.Email, amend)
	require.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "creator")
}

func TestAmendAndHistoryEndpoints(t *testing.T) {
	r, _, officer, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/v1/logs", officer.Email, createLogPayload())
	require.Equal(t, http.StatusCreated, w.Code)

	amend := map[string]interface{}{
		"fieldChanged": "status",
		"newValue":     "RESOLVED",
		"reason":       "Police took over the scene",
		"changeType":   "STATUS_CHANGE",
	}
	w = doJSON(t, r, http.MethodPost, "/api/v1/logs/1/revisions", officer.Email, amend)
	require.Equal(t, http.StatusCreated, w.Code)

	var amendResp struct {
		Data models.LogRevision `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &amendResp))
	assert.Equal(t, 1, amendResp.Data.RevisionNumber)

	w = doJSON(t, r, http.MethodGet, "/api/v1/logs/1/revisions", officer.Email, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var historyResp struct {
		Data struct {
			Revisions []models.LogRevision     `json:"revisions"`
			Diffs     []services.RevisionDiff  `json:"diffs"`
			Summary   services.RevisionSummary `json:"summary"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &historyResp))
	require.Len(t, historyResp.Data.Revisions, 1)
	assert.Equal(t, 1, historyResp.Data.Summary.TotalRevisions)
	assert.Equal(t, "Status", historyResp.Data.Diffs[0].Field)
}

func TestExportEndpoint(t *testing.T) {
	r, _, officer, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/v1/logs", officer.Email, createLogPayload())
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/v1/logs/1/export", officer.Email, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/plain")
	assert.Contains(t, w.Body.String(), "INCIDENT LOG AUDIT EXPORT")
	assert.Contains(t, w.Body.String(), "No amendments have been made.")
}

func TestGetPermissionsEndpoint(t *testing.T) {
	r, _, officer, other := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/v1/logs", officer.Email, createLogPayload())
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/v1/logs/1/permissions", officer.Email, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"canAmend":true`)

	w = doJSON(t, r, http.MethodGet, "/api/v1/logs/1/permissions", other.Email, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"canAmend":false`)
}

// Requests that never went through the auth middleware get a 401, not a
// recovered panic.
func TestEndpointsRejectMissingUser(t *testing.T) {
	r, _, officer, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/v1/logs", "", createLogPayload())
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/v1/logs", officer.Email, createLogPayload())
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/v1/logs/1/permissions", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	amend := map[string]interface{}{
		"fieldChanged": "status",
		"newValue":     "RESOLVED",
		"reason":       "Attempted amendment without a session",
		"changeType":   "STATUS_CHANGE",
	}
	w = doJSON(t, r, http.MethodPost, "/api/v1/logs/1/revisions", "", amend)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGetLogNotFound(t *testing.T) {
	r, _, officer, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodGet, "/api/v1/logs/99", officer.Email, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
