// internal/handler/product_handler.go
package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"pos-service/internal/service"
	"pos-service/internal/utils"
)

// ProductHandler handles catalog requests
type ProductHandler struct {
	productService *service.ProductService
	logger         *utils.ServiceLogger
}

// NewProductHandler creates a new product handler
func NewProductHandler(productService *service.ProductService, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		productService: productService,
		logger:         utils.NewServiceLogger(logger, "product-handler"),
	}
}

// RegisterRoutes registers product routes
func (h *ProductHandler) RegisterRoutes(router *gin.RouterGroup) {
	products := router.Group("/products")
	{
		products.GET("", h.ListProducts)
		products.POST("", h.CreateProduct)
		products.GET("/:id", h.GetProduct)
		products.PUT("/:id", h.UpdateProduct)
		products.DELETE("/:id", h.DeleteProduct)
	}
}

// ListProducts lists catalog products
// @Summary List products
// @Description List every product newest first, or active products by name
// @Tags Products
// @Produce json
// @Param active query bool false "Only active products"
// @Success 200 {object} utils.APIResponse{data=[]model.Product} "Products retrieved"
// @Router /products [get]
func (h *ProductHandler) ListProducts(c *gin.Context) {
	activeOnly, _ := strconv.ParseBool(c.Query("active"))

	products, err := h.productService.ListProducts(c.Request.Context(), activeOnly)
	if err != nil {
		serviceErrorResponse(c, "Failed to list products", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Products retrieved", products)
}

// GetProduct returns one product
// @Summary Get product
// @Tags Products
// @Produce json
// @Param id path string true "Product ID"
// @Success 200 {object} utils.APIResponse{data=model.Product} "Product retrieved"
// @Failure 404 {object} utils.APIResponse "Product not found"
// @Router /products/{id} [get]
func (h *ProductHandler) GetProduct(c *gin.Context) {
	id, ok := parseID(c, "product")
	if !ok {
		return
	}

	product, err := h.productService.GetProduct(c.Request.Context(), id)
	if err != nil {
		serviceErrorResponse(c, "Failed to get product", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Product retrieved", product)
}

// CreateProduct adds a product
// @Summary Create product
// @Tags Products
// @Accept json
// @Produce json
// @Param request body service.ProductRequest true "Product"
// @Success 201 {object} utils.APIResponse{data=model.Product} "Product created"
// @Failure 400 {object} utils.APIResponse "Invalid product"
// @Router /products [post]
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var req service.ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	product, err := h.productService.CreateProduct(c.Request.Context(), &req)
	if err != nil {
		serviceErrorResponse(c, "Failed to create product", err)
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "Product created", product)
}

// UpdateProduct replaces a product's fields
// @Summary Update product
// @Tags Products
// @Accept json
// @Produce json
// @Param id path string true "Product ID"
// @Param request body service.ProductRequest true "Product"
// @Success 200 {object} utils.APIResponse{data=model.Product} "Product updated"
// @Failure 400 {object} utils.APIResponse "Invalid product"
// @Failure 404 {object} utils.APIResponse "Product not found"
// @Router /products/{id} [put]
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	id, ok := parseID(c, "product")
	if !ok {
		return
	}

	var req service.ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	product, err := h.productService.UpdateProduct(c.Request.Context(), id, &req)
	if err != nil {
		serviceErrorResponse(c, "Failed to update product", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Product updated", product)
}

// DeleteProduct deactivates or removes a product
// @Summary Delete product
// @Description Soft delete sets active=false; hard=true removes the row
// @Tags Products
// @Produce json
// @Param id path string true "Product ID"
// @Param hard query bool false "Remove permanently"
// @Success 200 {object} utils.APIResponse "Product deleted"
// @Failure 404 {object} utils.APIResponse "Product not found"
// @Router /products/{id} [delete]
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	id, ok := parseID(c, "product")
	if !ok {
		return
	}
	hard, _ := strconv.ParseBool(c.Query("hard"))

	if err := h.productService.DeleteProduct(c.Request.Context(), id, hard); err != nil {
		serviceErrorResponse(c, "Failed to delete product", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Product deleted", gin.H{"id": id, "hard": hard})
}

// parseID reads the :id path parameter
func parseID(c *gin.Context, kind string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid "+kind+" ID", err)
		return uuid.Nil, false
	}
	return id, true
}
