// internal/handlers/stock.go
package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/javajoker/ustock-backend/internal/i18n"
	"github.com/javajoker/ustock-backend/internal/services"
	"github.com/javajoker/ustock-backend/internal/utils"
)

type StockHandler struct {
	stockService     *services.StockService
	expiringSoonDays int
}

func NewStockHandler(stockService *services.StockService, expiringSoonDays int) *StockHandler {
	return &StockHandler{
		stockService:     stockService,
		expiringSoonDays: expiringSoonDays,
	}
}

// POST /stock
func (h *StockHandler) AddStock(c *gin.Context) {
	principal, ok := currentPrincipal(c)
	if !ok {
		return
	}

	var req services.AddStockRequest
	if !bindAndValidate(c, &req) {
		return
	}

	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	expirationDate, err := services.ParseDate(req.ExpirationDate)
	if err != nil {
		respondError(c, err, "stock")
		return
	}

	entry, err := h.stockService.AddStock(c.Request.Context(), principal, req.ProductID, quantity, expirationDate)
	if err != nil {
		// the caller was checked by AuthRequired, so a miss is the product
		respondError(c, err, "product")
		return
	}

	utils.CreatedResponse(c, entry)
}

// GET /stock
func (h *StockHandler) GetStock(c *gin.Context) {
	principal, ok := currentPrincipal(c)
	if !ok {
		return
	}

	entries, err := h.stockService.ListStock(c.Request.Context(), principal)
	if err != nil {
		respondError(c, err, "stock")
		return
	}

	utils.SuccessResponse(c, entries)
}

// GET /stock/expiring?days=
func (h *StockHandler) GetExpiring(c *gin.Context) {
	principal, ok := currentPrincipal(c)
	if !ok {
		return
	}

	days := h.expiringSoonDays
	if raw := c.Query("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			utils.BadRequestResponse(c, i18n.T(utils.GetLangFromContext(c), i18n.KeyValidationInvalid, "days"), nil)
			return
		}
		days = parsed
	}

	entries, err := h.stockService.ListExpiring(c.Request.Context(), principal, days)
	if err != nil {
		respondError(c, err, "stock")
		return
	}

	utils.SuccessResponse(c, entries)
}

// DELETE /stock/:id
func (h *StockHandler) RemoveStock(c *gin.Context) {
	principal, ok := currentPrincipal(c)
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid stock ID", nil)
		return
	}

	if err := h.stockService.RemoveStock(c.Request.Context(), principal, id); err != nil {
		respondError(c, err, "stock")
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(utils.GetLangFromContext(c), i18n.KeyStockRemoved),
	})
}
