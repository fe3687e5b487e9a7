package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/perfume-store-api/internal/models"
	"github.com/noah-isme/perfume-store-api/internal/service"
	"github.com/noah-isme/perfume-store-api/internal/view"
	appErrors "github.com/noah-isme/perfume-store-api/pkg/errors"
	"github.com/noah-isme/perfume-store-api/pkg/export"
	"github.com/noah-isme/perfume-store-api/pkg/response"
)

// UserHandler exposes the admin user management endpoints.
type UserHandler struct {
	users  *service.UserService
	logger *zap.Logger
}

// NewUserHandler creates an instance of UserHandler.
func NewUserHandler(users *service.UserService, logger *zap.Logger) *UserHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserHandler{users: users, logger: logger}
}

// viewParams reads the list query parameters shared by the admin views.
func viewParams(c *gin.Context, dimensions ...string) view.Params {
	params := view.Params{
		Search:  c.Query("search"),
		Sort:    view.Key(c.Query("sort")),
		Filters: make(map[string]string, len(dimensions)),
	}
	for _, dim := range dimensions {
		if value := c.Query(dim); value != "" {
			params.Filters[dim] = value
		}
	}
	if page, err := strconv.Atoi(c.Query("page")); err == nil {
		params.Page = page
	}
	if size, err := strconv.Atoi(c.Query("page_size")); err == nil {
		params.PageSize = size
	}
	return params
}

// List godoc
// @Summary List users
// @Description Returns one page of the users view with search, filter and sort applied
// @Tags users
// @Produce json
// @Param search query string false "Search term over name and email, verbatim over phone"
// @Param role query string false "Role filter (all for no constraint)"
// @Param status query string false "Status filter (all for no constraint)"
// @Param sort query string false "Sort key: name, date or status"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/users [get]
func (h *UserHandler) List(c *gin.Context) {
	result, err := h.users.List(c.Request.Context(), viewParams(c, "role", "status"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result.Items, &result.Meta)
}

// Get godoc
// @Summary Get a user
// @Tags users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/users/{id} [get]
func (h *UserHandler) Get(c *gin.Context) {
	user, err := h.users.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, user, nil)
}

// Create godoc
// @Summary Create a user
// @Tags users
// @Accept json
// @Produce json
// @Param request body service.CreateUserRequest true "User payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/users [post]
func (h *UserHandler) Create(c *gin.Context) {
	var req service.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}

	user, err := h.users.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, user)
}

// Update godoc
// @Summary Update a user
// @Tags users
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param request body service.UpdateUserRequest true "Fields to change"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/users/{id} [put]
func (h *UserHandler) Update(c *gin.Context) {
	var req service.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}

	user, err := h.users.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, user, nil)
}

// Delete godoc
// @Summary Delete a user
// @Description Schedules removal after the grace delay; the entity stays listed, flagged deleting, until then
// @Tags users
// @Produce json
// @Param id path string true "User ID"
// @Success 202 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/users/{id} [delete]
func (h *UserHandler) Delete(c *gin.Context) {
	if err := h.users.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, gin.H{"deleting": true}, nil)
}

// CancelDelete godoc
// @Summary Cancel a pending delete
// @Tags users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Failure 409 {object} response.Envelope
// @Router /admin/users/{id}/cancel-delete [post]
func (h *UserHandler) CancelDelete(c *gin.Context) {
	if err := h.users.CancelDelete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"deleting": false}, nil)
}

type changeStatusRequest struct {
	Status models.UserStatus `json:"status" binding:"required"`
}

// ChangeStatus godoc
// @Summary Change a user's status
// @Tags users
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param request body changeStatusRequest true "New status"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/users/{id}/status [patch]
func (h *UserHandler) ChangeStatus(c *gin.Context) {
	var req changeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}

	user, err := h.users.ChangeStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, user, nil)
}

type changeRoleRequest struct {
	Role models.UserRole `json:"role" binding:"required"`
}

// ChangeRole godoc
// @Summary Change a user's role
// @Tags users
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param request body changeRoleRequest true "New role"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/users/{id}/role [patch]
func (h *UserHandler) ChangeRole(c *gin.Context) {
	var req changeRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}

	user, err := h.users.ChangeRole(c.Request.Context(), c.Param("id"), req.Role)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, user, nil)
}

// Stats godoc
// @Summary User statistics
// @Description Totals, active accounts, admins and today's logins over the live collection
// @Tags users
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/users/stats [get]
func (h *UserHandler) Stats(c *gin.Context) {
	stats, err := h.users.Stats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}

// Export godoc
// @Summary Export the filtered user roster
// @Tags users
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} file
// @Security BearerAuth
// @Router /admin/users/export [get]
func (h *UserHandler) Export(c *gin.Context) {
	format := export.Format(c.DefaultQuery("format", string(export.FormatCSV)))
	if format != export.FormatCSV && format != export.FormatPDF {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format)))
		return
	}

	users, err := h.users.Roster(c.Request.Context(), viewParams(c, "role", "status"))
	if err != nil {
		response.Error(c, err)
		return
	}

	headers := []string{"ID", "Name", "Email", "Phone", "Role", "Status", "Registered", "Last Login"}
	rows := make([]map[string]string, 0, len(users))
	for _, user := range users {
		rows = append(rows, map[string]string{
			"ID":         user.ID,
			"Name":       user.Name,
			"Email":      user.Email,
			"Phone":      user.Phone,
			"Role":       string(user.Role),
			"Status":     string(user.Status),
			"Registered": user.RegistrationDate,
			"Last Login": user.LastLogin,
		})
	}

	payload, err := export.Render(export.Dataset{
		Title:   "User Roster",
		Headers: headers,
		Rows:    rows,
	}, format)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export"))
		return
	}

	filename := "users." + string(format)
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, format.ContentType(), payload)
}
