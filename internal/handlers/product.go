// internal/handlers/product.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/javajoker/ustock-backend/internal/i18n"
	"github.com/javajoker/ustock-backend/internal/services"
	"github.com/javajoker/ustock-backend/internal/utils"
)

type ProductHandler struct {
	productService *services.ProductService
}

func NewProductHandler(productService *services.ProductService) *ProductHandler {
	return &ProductHandler{
		productService: productService,
	}
}

// GET /products
func (h *ProductHandler) GetProducts(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	result, err := h.productService.List(c.Request.Context(), params)
	if err != nil {
		respondError(c, err, "product")
		return
	}

	utils.PaginatedResponse(c, *result)
}

// POST /products
// Returns 201 when the barcode was ingested by this call and 200 when the
// product already existed.
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var req services.IngestProductRequest
	if !bindAndValidate(c, &req) {
		return
	}

	product, created, err := h.productService.GetOrCreate(c.Request.Context(), req.Barcode)
	if err != nil {
		respondError(c, err, "product")
		return
	}

	if created {
		utils.CreatedResponse(c, product)
		return
	}
	utils.SuccessResponse(c, product)
}

// GET /products/search?q=
func (h *ProductHandler) SearchProducts(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		utils.BadRequestResponse(c, i18n.T(utils.GetLangFromContext(c), i18n.KeyProductSearchMissing), nil)
		return
	}

	results, err := h.productService.Search(c.Request.Context(), query)
	if err != nil {
		respondError(c, err, "product")
		return
	}

	utils.SuccessResponse(c, results)
}

// GET /products/barcode/:barcode
func (h *ProductHandler) GetProductByBarcode(c *gin.Context) {
	product, err := h.productService.GetByBarcode(c.Request.Context(), c.Param("barcode"))
	if err != nil {
		respondError(c, err, "product")
		return
	}

	utils.SuccessResponse(c, product)
}

// GET /products/:id
func (h *ProductHandler) GetProduct(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid product ID", nil)
		return
	}

	product, err := h.productService.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "product")
		return
	}

	utils.SuccessResponse(c, product)
}

// PATCH /products/:id/price
func (h *ProductHandler) RefreshPrice(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid product ID", nil)
		return
	}

	price, err := h.productService.RefreshPrice(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "product")
		return
	}

	c.JSON(http.StatusOK, utils.APIResponse{
		Success: true,
		Data: gin.H{
			"product_id": id,
			"price":      price.StringFixed(2),
		},
	})
}
