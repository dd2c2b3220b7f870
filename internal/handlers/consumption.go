// internal/handlers/consumption.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/javajoker/ustock-backend/internal/i18n"
	"github.com/javajoker/ustock-backend/internal/models"
	"github.com/javajoker/ustock-backend/internal/services"
	"github.com/javajoker/ustock-backend/internal/utils"
)

type ConsumptionHandler struct {
	stockService       *services.StockService
	consumptionService *services.ConsumptionService
	statsService       *services.StatsService
}

func NewConsumptionHandler(stockService *services.StockService, consumptionService *services.ConsumptionService, statsService *services.StatsService) *ConsumptionHandler {
	return &ConsumptionHandler{
		stockService:       stockService,
		consumptionService: consumptionService,
		statsService:       statsService,
	}
}

// POST /consumption
func (h *ConsumptionHandler) Consume(c *gin.Context) {
	principal, ok := currentPrincipal(c)
	if !ok {
		return
	}

	var req services.ConsumeRequest
	if !bindAndValidate(c, &req) {
		return
	}

	event, err := h.stockService.Consume(c.Request.Context(), principal, req.StockID, req.Quantity, req.Status)
	if err != nil {
		respondError(c, err, "stock")
		return
	}

	utils.CreatedResponse(c, event)
}

// GET /consumption?status=
func (h *ConsumptionHandler) GetHistory(c *gin.Context) {
	principal, ok := currentPrincipal(c)
	if !ok {
		return
	}

	var status *models.ConsumptionStatus
	if raw := c.Query("status"); raw != "" {
		s := models.ConsumptionStatus(raw)
		if !s.Valid() {
			utils.BadRequestResponse(c, i18n.T(utils.GetLangFromContext(c), i18n.KeyConsumptionInvalidStatus), nil)
			return
		}
		status = &s
	}

	events, err := h.consumptionService.ListHistory(c.Request.Context(), principal, status)
	if err != nil {
		respondError(c, err, "stock")
		return
	}

	utils.SuccessResponse(c, events)
}

// GET /consumption/stats
func (h *ConsumptionHandler) GetStats(c *gin.Context) {
	principal, ok := currentPrincipal(c)
	if !ok {
		return
	}

	stats, err := h.statsService.Stats(c.Request.Context(), principal)
	if err != nil {
		respondError(c, err, "user")
		return
	}

	utils.SuccessResponse(c, stats)
}
