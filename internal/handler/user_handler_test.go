package handler

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

	"github.com/noah-isme/perfume-store-api/internal/models"
	"github.com/noah-isme/perfume-store-api/internal/service"
	"github.com/noah-isme/perfume-store-api/pkg/response"
)

type stubUserRepo struct {
	users []models.User
}

func (s *stubUserRepo) Load(_ context.Context) ([]models.User, error) {
	return append([]models.User{}, s.users...), nil
}

func (s *stubUserRepo) Save(_ context.Context, users []models.User) error {
	s.users = append([]models.User{}, users...)
	return nil
}

func newUserRouter(repo *stubUserRepo) *gin.Engine {
	gin.SetMode(gin.TestMode)

	svc := service.NewUserService(service.UserServiceConfig{
		Repo:        repo,
		DeleteDelay: 5 * time.Millisecond,
		PageSize:    6,
	})
	h := NewUserHandler(svc, nil)

	router := gin.New()
	group := router.Group("/admin/users")
	group.GET("", h.List)
	group.POST("", h.Create)
	group.GET("/stats", h.Stats)
	group.GET("/export", h.Export)
	group.GET("/:id", h.Get)
	group.PUT("/:id", h.Update)
	group.DELETE("/:id", h.Delete)
	group.POST("/:id/cancel-delete", h.CancelDelete)
	group.PATCH("/:id/status", h.ChangeStatus)
	group.PATCH("/:id/role", h.ChangeRole)
	return router
}

func seedRepo() *stubUserRepo {
	return &stubUserRepo{users: []models.User{
		{ID: "1", Name: "Alice Admin", Email: "alice@example.com", Phone: "+1 555 0100",
			Role: models.RoleAdmin, Status: models.StatusActive,
			RegistrationDate: "2024-01-15", LastLogin: "2024-06-01"},
		{ID: "2", Name: "Bob Brown", Email: "bob@example.com", Phone: "+1 555 0200",
			Role: models.RoleUser, Status: models.StatusInactive,
			RegistrationDate: "2024-02-20", LastLogin: "2024-05-10"},
	}}
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		require.NoError(t, err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestUserHandlerList(t *testing.T) {
	router := newUserRouter(seedRepo())

	w := doJSON(t, router, http.MethodGet, "/admin/users?status=active", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data []models.User `json:"data"`
		View *struct {
			TotalCount int `json:"total_count"`
		} `json:"view"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data, 1)
	assert.Equal(t, "1", envelope.Data[0].ID)
	require.NotNil(t, envelope.View)
	assert.Equal(t, 1, envelope.View.TotalCount)
}

func TestUserHandlerCreate(t *testing.T) {
	router := newUserRouter(seedRepo())

	w := doJSON(t, router, http.MethodPost, "/admin/users", gin.H{
		"name": "Carol Clark", "email": "carol@example.com", "phone": "+1 555 0300",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var envelope struct {
		Data models.User `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, "3", envelope.Data.ID)
	assert.Equal(t, models.RoleUser, envelope.Data.Role)
}

func TestUserHandlerCreateValidationError(t *testing.T) {
	router := newUserRouter(seedRepo())

	w := doJSON(t, router, http.MethodPost, "/admin/users", gin.H{"email": "no-name@example.com"})
	require.Equal(t, http.StatusBadRequest, w.Code)

	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "VALIDATION_ERROR", envelope.Error.Code)
}

func TestUserHandlerDeleteThenConflict(t *testing.T) {
	router := newUserRouter(seedRepo())

	w := doJSON(t, router, http.MethodDelete, "/admin/users/1", nil)
	require.Equal(t, http.StatusAccepted, w.Code)

	w = doJSON(t, router, http.MethodPatch, "/admin/users/1/status", gin.H{"status": "suspended"})
	require.Equal(t, http.StatusConflict, w.Code)

	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "DELETE_PENDING", envelope.Error.Code)
}

func TestUserHandlerCancelDelete(t *testing.T) {
	router := newUserRouter(seedRepo())

	w := doJSON(t, router, http.MethodDelete, "/admin/users/1", nil)
	require.Equal(t, http.StatusAccepted, w.Code)

	w = doJSON(t, router, http.MethodPost, "/admin/users/1/cancel-delete", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	data, ok := envelope.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, false, data["deleting"])

	// The entity mutates normally once the delete is cancelled.
	w = doJSON(t, router, http.MethodPatch, "/admin/users/1/status", gin.H{"status": "suspended"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUserHandlerStats(t *testing.T) {
	router := newUserRouter(seedRepo())

	w := doJSON(t, router, http.MethodGet, "/admin/users/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data models.UserStats `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, 2, envelope.Data.Total)
	assert.Equal(t, 1, envelope.Data.Active)
	assert.Equal(t, 1, envelope.Data.Admins)
}

func TestUserHandlerExportCSV(t *testing.T) {
	router := newUserRouter(seedRepo())

	w := doJSON(t, router, http.MethodGet, "/admin/users/export?format=csv", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "alice@example.com")
	assert.Contains(t, w.Header().Get("Content-Disposition"), "users.csv")
}

func TestUserHandlerExportRejectsUnknownFormat(t *testing.T) {
	router := newUserRouter(seedRepo())

	w := doJSON(t, router, http.MethodGet, "/admin/users/export?format=xlsx", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
}
