package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relocrm/leadstack/config"
	"github.com/relocrm/leadstack/internal/logger"
	"github.com/relocrm/leadstack/internal/models"
	"github.com/relocrm/leadstack/internal/repository"
	"github.com/relocrm/leadstack/internal/repository/inmemory"
	"github.com/relocrm/leadstack/services"
	"github.com/relocrm/leadstack/services/notification"
	"github.com/relocrm/leadstack/services/realtime"
	"github.com/relocrm/leadstack/services/share_token"
)

const testAPIKey = "test-key"

func getLogger() logger.Logger {
	appLogger := logger.NewAppLogger(&logger.Config{DevMode: true, LogLevel: "debug"})
	appLogger.InitLogger()
	return appLogger
}

func newTestRouter(t *testing.T) (*gin.Engine, *repository.Repositories) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := getLogger()
	repos := inmemory.NewRepositories(nil)
	hub := realtime.NewHub(log)
	svcs := &services.Services{
		Hub:                 hub,
		ShareTokenService:   share_token.NewShareTokenService(repos, &config.ShareTokenConfig{ValidityDays: 7}, "https://app.relocrm.de", log),
		NotificationService: notification.NewNotificationService(repos, nil, hub, log),
	}

	router := gin.New()
	RegisterRoutes(router, svcs, repos, RouteConfig{APIKey: testAPIKey, MailboxID: "office", DefaultSyncLimit: 50})
	return router, repos
}

func do(router *gin.Engine, method, path string, body interface{}, authenticated bool) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if authenticated {
		req.Header.Set(APIKeyHeader, testAPIKey)
		req.Header.Set("X-User-Email", "office@relocrm.de")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	router, _ := newTestRouter(t)

	w := do(router, http.MethodGet, "/health", nil, false)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestV1RequiresAPIKey(t *testing.T) {
	router, _ := newTestRouter(t)

	w := do(router, http.MethodGet, "/v1/customers", nil, false)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCustomers(t *testing.T) {
	// Arrange
	router, repos := newTestRouter(t)
	require.NoError(t, repos.CustomerRepository.Create(context.Background(), &models.Customer{ID: "cust_1", Name: "Max Mustermann"}))

	// Act
	list := do(router, http.MethodGet, "/v1/customers", nil, true)
	missing := do(router, http.MethodGet, "/v1/customers/cust_404", nil, true)

	// Assert
	require.Equal(t, http.StatusOK, list.Code)
	var listed struct {
		Customers []models.Customer `json:"customers"`
		Total     int64             `json:"total"`
	}
	require.NoError(t, json.Unmarshal(list.Body.Bytes(), &listed))
	assert.Equal(t, int64(1), listed.Total)
	assert.Equal(t, http.StatusNotFound, missing.Code)
}

func TestShareLinkLifecycle(t *testing.T) {
	// Arrange
	router, repos := newTestRouter(t)
	ctx := context.Background()
	require.NoError(t, repos.CustomerRepository.Create(ctx, &models.Customer{
		ID:          "cust_1",
		Name:        "Max Mustermann",
		Email:       "max@mustermann.de",
		Phone:       "+491711234567",
		FromAddress: "Hauptstraße 1, 10115 Berlin",
		Notes:       "internal only",
	}))
	require.NoError(t, repos.QuoteRepository.Create(ctx, &models.Quote{
		ID:            "quote_bound",
		CustomerID:    "cust_1",
		CustomerEmail: "max@mustermann.de",
		Comment:       "discount approved by phone",
		Price:         1850,
		CreatedAt:     time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC),
	}))

	// Act: create
	created := do(router, http.MethodPost, "/v1/customers/cust_1/share-tokens", map[string]interface{}{
		"permissions": map[string]bool{"viewCustomer": true, "viewQuote": true},
	}, true)
	require.NoError(t, repos.QuoteRepository.Create(ctx, &models.Quote{
		ID:         "quote_newer",
		CustomerID: "cust_1",
		Price:      2400,
		CreatedAt:  time.Date(2025, 3, 5, 9, 0, 0, 0, time.UTC),
	}))
	require.Equal(t, http.StatusCreated, created.Code)
	var createdBody struct {
		Token models.ShareToken `json:"token"`
		URL   string            `json:"url"`
	}
	require.NoError(t, json.Unmarshal(created.Body.Bytes(), &createdBody))
	token := createdBody.Token.Token

	// Assert: link and public view
	assert.Equal(t, "https://app.relocrm.de/share/"+token, createdBody.URL)
	assert.Equal(t, "Max Mustermann", createdBody.Token.CustomerName)
	assert.Equal(t, "office@relocrm.de", createdBody.Token.CreatedBy)

	view := do(router, http.MethodGet, "/share/"+token, nil, false)
	require.Equal(t, http.StatusOK, view.Code)
	assert.Contains(t, view.Body.String(), `"valid":true`)
	assert.Contains(t, view.Body.String(), "Hauptstraße 1")
	assert.NotContains(t, view.Body.String(), "max@mustermann.de")
	assert.NotContains(t, view.Body.String(), "internal only")
	assert.NotContains(t, view.Body.String(), "discount approved")

	var viewBody struct {
		Quote map[string]interface{} `json:"quote"`
	}
	require.NoError(t, json.Unmarshal(view.Body.Bytes(), &viewBody))
	require.NotNil(t, viewBody.Quote)
	assert.Equal(t, "quote_bound", viewBody.Quote["id"])
	assert.Equal(t, float64(1850), viewBody.Quote["price"])
	assert.NotContains(t, viewBody.Quote, "customerEmail")
	assert.NotContains(t, viewBody.Quote, "comment")

	listed := do(router, http.MethodGet, "/v1/customers/cust_1/share-tokens", nil, true)
	require.Equal(t, http.StatusOK, listed.Code)
	assert.Contains(t, listed.Body.String(), token)

	// Act: revoke
	revoked := do(router, http.MethodDelete, "/v1/share-tokens/"+token, nil, true)
	require.Equal(t, http.StatusNoContent, revoked.Code)

	// Assert: link is dead
	gone := do(router, http.MethodGet, "/share/"+token, nil, false)
	assert.Equal(t, http.StatusNotFound, gone.Code)
	assert.JSONEq(t, `{"valid":false}`, gone.Body.String())
}

func TestShareLinkForUnknownCustomer(t *testing.T) {
	router, _ := newTestRouter(t)

	w := do(router, http.MethodPost, "/v1/customers/cust_404/share-tokens", nil, true)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestNotifications(t *testing.T) {
	// Arrange
	router, _ := newTestRouter(t)

	// Act
	created := do(router, http.MethodPost, "/v1/notifications", map[string]interface{}{
		"type":  "new_customer",
		"title": "Neuer Kunde",
	}, true)
	invalid := do(router, http.MethodPost, "/v1/notifications", map[string]interface{}{
		"type":  "unknown",
		"title": "Neuer Kunde",
	}, true)

	// Assert
	require.Equal(t, http.StatusCreated, created.Code)
	assert.Equal(t, http.StatusBadRequest, invalid.Code)

	var createdBody struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(created.Body.Bytes(), &createdBody))

	unread := do(router, http.MethodGet, "/v1/notifications/unread", nil, true)
	require.Equal(t, http.StatusOK, unread.Code)
	assert.Contains(t, unread.Body.String(), createdBody.ID)

	read := do(router, http.MethodPost, "/v1/notifications/"+createdBody.ID+"/read", nil, true)
	assert.Equal(t, http.StatusNoContent, read.Code)

	missing := do(router, http.MethodPost, "/v1/notifications/ntf_404/read", nil, true)
	assert.Equal(t, http.StatusNotFound, missing.Code)

	all := do(router, http.MethodPost, "/v1/notifications/read-all", nil, true)
	require.Equal(t, http.StatusOK, all.Code)
	assert.JSONEq(t, `{"count":0}`, all.Body.String())
}

func TestEmailsRejectsUnknownFolder(t *testing.T) {
	router, _ := newTestRouter(t)

	w := do(router, http.MethodGet, "/v1/emails?folder=spam", nil, true)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
