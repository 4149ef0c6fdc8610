package handlers

import (
	"net/http"

	"restaurant_pos_backend/internal/models"
	"restaurant_pos_backend/internal/services"
	"restaurant_pos_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// BoardHandler feeds the pickup and kitchen displays, which poll it.
type BoardHandler struct {
	orderService services.OrderService
}

func NewBoardHandler(os services.OrderService) *BoardHandler {
	return &BoardHandler{orderService: os}
}

// GetBoardOrders lists orders with the given status, or every open order.
func (h *BoardHandler) GetBoardOrders(c *gin.Context) {
	var status *models.OrderStatus
	if s := c.Query("status"); s != "" {
		st := models.OrderStatus(s)
		if !st.IsValid() {
			utils.RespondValidationFailed(c, "unknown status "+s)
			return
		}
		status = &st
	}

	orders, err := h.orderService.GetBoardOrders(c.Request.Context(), status)
	if err != nil {
		respondServiceError(c, err, "fetch board orders")
		return
	}
	if orders == nil {
		orders = []models.Order{}
	}
	c.JSON(http.StatusOK, gin.H{"data": orders})
}
