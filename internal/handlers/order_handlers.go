package handlers

import (
	"errors"
	"io"
	"net/http"
	"time"

	"restaurant_pos_backend/internal/models"
	"restaurant_pos_backend/internal/services"
	"restaurant_pos_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

const (
	defaultPage     = 1
	defaultPageSize = 10
)

// OrderHandler holds the order service.
type OrderHandler struct {
	orderService services.OrderService
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(os services.OrderService) *OrderHandler {
	return &OrderHandler{orderService: os}
}

// CreateOrder handles a takeaway or delivery cart submission.
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req services.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err, "CreateOrder")
		return
	}

	created, err := h.orderService.CreateOrder(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err, "create order")
		return
	}
	c.JSON(http.StatusCreated, created)
}

// GetOrders handles fetching orders with filters
func (h *OrderHandler) GetOrders(c *gin.Context) {
	filters, apiErr := parseOrderFilters(c)
	if apiErr != nil {
		utils.RespondWithError(c, apiErr)
		return
	}

	orders, totalCount, err := h.orderService.GetOrders(c.Request.Context(), filters)
	if err != nil {
		respondServiceError(c, err, "fetch orders")
		return
	}
	if orders == nil {
		orders = []models.Order{}
	}
	c.JSON(http.StatusOK, gin.H{
		"data":      orders,
		"total":     totalCount,
		"page":      filters.Page,
		"page_size": filters.PageSize,
	})
}

func parseOrderFilters(c *gin.Context) (models.OrderFilters, *utils.APIError) {
	filters := models.OrderFilters{Page: defaultPage, PageSize: defaultPageSize}

	if s := c.Query("status"); s != "" {
		status := models.OrderStatus(s)
		if !status.IsValid() {
			return filters, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid status filter.", "unknown status "+s)
		}
		filters.Status = &status
	}
	if t := c.Query("order_type"); t != "" {
		orderType := models.OrderType(t)
		if !orderType.IsValid() {
			return filters, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid order_type filter.", "unknown order type "+t)
		}
		filters.OrderType = &orderType
	}
	if tableStr := c.Query("table_no"); tableStr != "" {
		tableNo, err := utils.StrToPositiveInt(tableStr)
		if err != nil {
			return filters, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid table_no format.", err.Error())
		}
		filters.TableNo = &tableNo
	}
	if dateStr := c.Query("date"); dateStr != "" {
		date, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			return filters, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid date format. Use YYYY-MM-DD.", err.Error())
		}
		filters.Date = &date
	}
	if pageStr := c.Query("page"); pageStr != "" {
		page, err := utils.StrToPositiveInt(pageStr)
		if err != nil {
			return filters, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid page format.", err.Error())
		}
		filters.Page = page
	}
	if pageSizeStr := c.Query("page_size"); pageSizeStr != "" {
		pageSize, err := utils.StrToPositiveInt(pageSizeStr)
		if err != nil {
			return filters, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid page_size format.", err.Error())
		}
		filters.PageSize = pageSize
	}
	return filters, nil
}

// GetOrderByID handles fetching a single order with its items
func (h *OrderHandler) GetOrderByID(c *gin.Context) {
	order, err := h.orderService.GetOrderByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, err, "fetch order")
		return
	}
	c.JSON(http.StatusOK, order)
}

// UpdateOrderStatus handles a status change from the counter or kitchen.
func (h *OrderHandler) UpdateOrderStatus(c *gin.Context) {
	var req services.UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err, "UpdateOrderStatus")
		return
	}

	updated, err := h.orderService.UpdateOrderStatus(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondServiceError(c, err, "update order status")
		return
	}
	c.JSON(http.StatusOK, updated)
}

// PrintOrder resends the bill, or the KOT when {"kot": true}. The body is optional.
func (h *OrderHandler) PrintOrder(c *gin.Context) {
	var req services.PrintOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		respondBindError(c, err, "PrintOrder")
		return
	}

	if err := h.orderService.PrintOrder(c.Request.Context(), c.Param("id"), req); err != nil {
		respondServiceError(c, err, "print order")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Print job sent"})
}

// GetReceipt returns the ticket text exactly as it would be printed.
func (h *OrderHandler) GetReceipt(c *gin.Context) {
	text, err := h.orderService.RenderReceipt(c.Request.Context(), c.Param("id"), c.DefaultQuery("format", services.ReceiptFormatBill))
	if err != nil {
		respondServiceError(c, err, "render receipt")
		return
	}
	c.String(http.StatusOK, text)
}
