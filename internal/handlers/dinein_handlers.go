package handlers

import (
	"net/http"

	"restaurant_pos_backend/internal/models"
	"restaurant_pos_backend/internal/services"

	"github.com/gin-gonic/gin"
)

// DineInHandler serves the waiter app: table orders and settlement.
type DineInHandler struct {
	dineInService services.DineInService
}

func NewDineInHandler(ds services.DineInService) *DineInHandler {
	return &DineInHandler{dineInService: ds}
}

func (h *DineInHandler) CreateDineInOrder(c *gin.Context) {
	var req services.CreateDineInOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err, "CreateDineInOrder")
		return
	}

	order, err := h.dineInService.CreateDineInOrder(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err, "open table")
		return
	}
	c.JSON(http.StatusCreated, order)
}

func (h *DineInHandler) GetDineInOrder(c *gin.Context) {
	order, err := h.dineInService.GetDineInOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, err, "fetch dine-in order")
		return
	}
	c.JSON(http.StatusOK, order)
}

// UpdateDineInOrder replaces the order's items. A stale version yields 409.
func (h *DineInHandler) UpdateDineInOrder(c *gin.Context) {
	var req services.UpdateDineInOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err, "UpdateDineInOrder")
		return
	}

	order, err := h.dineInService.UpdateDineInOrder(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondServiceError(c, err, "update dine-in order")
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *DineInHandler) SettleDineInOrder(c *gin.Context) {
	var req services.SettleDineInOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err, "SettleDineInOrder")
		return
	}

	invoice, err := h.dineInService.SettleDineInOrder(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondServiceError(c, err, "settle order")
		return
	}
	c.JSON(http.StatusOK, invoice)
}

func (h *DineInHandler) GetActiveTables(c *gin.Context) {
	tables, err := h.dineInService.GetActiveTables(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, "fetch active tables")
		return
	}
	if tables == nil {
		tables = []models.ActiveTable{}
	}
	c.JSON(http.StatusOK, gin.H{"data": tables})
}
