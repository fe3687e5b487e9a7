package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/perfume-store-api/internal/service"
	appErrors "github.com/noah-isme/perfume-store-api/pkg/errors"
	"github.com/noah-isme/perfume-store-api/pkg/response"
)

// ProductHandler exposes the storefront catalog endpoints.
type ProductHandler struct {
	products *service.ProductService
	logger   *zap.Logger
}

// NewProductHandler creates an instance of ProductHandler.
func NewProductHandler(products *service.ProductService, logger *zap.Logger) *ProductHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProductHandler{products: products, logger: logger}
}

// List godoc
// @Summary List the catalog
// @Tags products
// @Produce json
// @Param search query string false "Case-insensitive term over name and brand"
// @Success 200 {object} response.Envelope
// @Router /products [get]
func (h *ProductHandler) List(c *gin.Context) {
	if term := c.Query("search"); term != "" {
		products, err := h.products.SearchLocal(c.Request.Context(), term)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, products, nil)
		return
	}

	products, err := h.products.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, products, nil)
}

// Featured godoc
// @Summary Featured products
// @Tags products
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /products/featured [get]
func (h *ProductHandler) Featured(c *gin.Context) {
	products, err := h.products.Featured(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, products, nil)
}

// NewArrivals godoc
// @Summary New arrivals
// @Tags products
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /products/new-arrivals [get]
func (h *ProductHandler) NewArrivals(c *gin.Context) {
	products, err := h.products.NewArrivals(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, products, nil)
}

// Get godoc
// @Summary Get a product
// @Tags products
// @Produce json
// @Param id path string true "Product ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /products/{id} [get]
func (h *ProductHandler) Get(c *gin.Context) {
	product, err := h.products.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, product, nil)
}

// Create godoc
// @Summary Register a product
// @Tags products
// @Accept json
// @Produce json
// @Param request body service.CreateProductRequest true "Product payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/products [post]
func (h *ProductHandler) Create(c *gin.Context) {
	var req service.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}

	product, err := h.products.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, product)
}

// Delete godoc
// @Summary Remove a product
// @Tags products
// @Produce json
// @Param id path string true "Product ID"
// @Success 204 "No Content"
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/products/{id} [delete]
func (h *ProductHandler) Delete(c *gin.Context) {
	if err := h.products.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
