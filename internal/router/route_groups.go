package router

import (
	"restaurant_pos_backend/internal/handlers"
	"restaurant_pos_backend/internal/middleware"
	"restaurant_pos_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// SetupOrderRoutes sets up the counter order routes.
// The kitchen reads orders and moves their status; only the counter creates and reprints.
func SetupOrderRoutes(authenticatedGroup *gin.RouterGroup, orderHandler *handlers.OrderHandler) {
	orderRoutes := authenticatedGroup.Group("/orders")
	orderRoutes.Use(middleware.RoleAuthMiddleware(utils.RoleAdmin, utils.RoleCashier, utils.RoleWaiter, utils.RoleKitchen))
	{
		orderRoutes.GET("", orderHandler.GetOrders)
		orderRoutes.GET("/:id", orderHandler.GetOrderByID)
		orderRoutes.GET("/:id/receipt", orderHandler.GetReceipt)
		orderRoutes.PATCH("/:id/status", middleware.RoleAuthMiddleware(utils.RoleAdmin, utils.RoleCashier, utils.RoleKitchen), orderHandler.UpdateOrderStatus)
	}

	counterRoutes := authenticatedGroup.Group("/orders")
	counterRoutes.Use(middleware.RoleAuthMiddleware(utils.RoleAdmin, utils.RoleCashier))
	{
		counterRoutes.POST("", orderHandler.CreateOrder)
		counterRoutes.POST("/:id/print", orderHandler.PrintOrder)
	}
}

// SetupDineInRoutes sets up the waiter app routes.
func SetupDineInRoutes(authenticatedGroup *gin.RouterGroup, dineInHandler *handlers.DineInHandler) {
	dineInRoutes := authenticatedGroup.Group("/dinein")
	dineInRoutes.Use(middleware.RoleAuthMiddleware(utils.RoleAdmin, utils.RoleCashier, utils.RoleWaiter))
	{
		dineInRoutes.GET("/tables", dineInHandler.GetActiveTables)
		dineInRoutes.POST("/orders", dineInHandler.CreateDineInOrder)
		dineInRoutes.GET("/orders/:id", dineInHandler.GetDineInOrder)
		dineInRoutes.PUT("/orders/:id", dineInHandler.UpdateDineInOrder)
		dineInRoutes.POST("/orders/:id/settle", dineInHandler.SettleDineInOrder)
	}
}

// SetupMenuRoutes sets up the read-only catalog routes.
func SetupMenuRoutes(authenticatedGroup *gin.RouterGroup, menuHandler *handlers.MenuHandler) {
	menuRoutes := authenticatedGroup.Group("/menu")
	{
		menuRoutes.GET("", menuHandler.GetMenu)
		menuRoutes.GET("/:id", menuHandler.GetMenuItem)
	}
}

// SetupBoardRoutes sets up the status board polled by display devices.
func SetupBoardRoutes(apiGroup *gin.RouterGroup, boardHandler *handlers.BoardHandler, deviceKeyHash string) {
	boardRoutes := apiGroup.Group("/board")
	boardRoutes.Use(middleware.DeviceKeyMiddleware(deviceKeyHash))
	{
		boardRoutes.GET("/orders", boardHandler.GetBoardOrders)
	}
}
