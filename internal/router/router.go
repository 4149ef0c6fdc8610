package router

import (
	"net/http"

	"restaurant_pos_backend/internal/handlers"
	"restaurant_pos_backend/internal/middleware"
	"restaurant_pos_backend/internal/services"
	"restaurant_pos_backend/pkg/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Dependencies is everything the HTTP layer needs from main.
type Dependencies struct {
	OrderService       services.OrderService
	DineInService      services.DineInService
	MenuService        services.MenuService
	JWTSecret          []byte
	DeviceKeyHash      string
	CORSAllowedOrigins []string
}

// Setup initializes the routing for the application.
func Setup(engine *gin.Engine, deps Dependencies) {
	handlers.RegisterValidators()

	engine.Use(utils.GinLogger())
	engine.Use(cors.New(corsConfig(deps.CORSAllowedOrigins)))

	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	orderHandler := handlers.NewOrderHandler(deps.OrderService)
	dineInHandler := handlers.NewDineInHandler(deps.DineInService)
	menuHandler := handlers.NewMenuHandler(deps.MenuService)
	boardHandler := handlers.NewBoardHandler(deps.OrderService)

	apiV1 := engine.Group("/api/v1")

	// Displays authenticate with a device key, not a staff token.
	SetupBoardRoutes(apiV1, boardHandler, deps.DeviceKeyHash)

	authenticated := apiV1.Group("")
	authenticated.Use(middleware.AuthMiddleware(deps.JWTSecret))
	{
		SetupOrderRoutes(authenticated, orderHandler)
		SetupDineInRoutes(authenticated, dineInHandler)
		SetupMenuRoutes(authenticated, menuHandler)
	}
}

func corsConfig(origins []string) cors.Config {
	config := cors.DefaultConfig()
	config.AllowOrigins = origins
	config.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", middleware.DeviceKeyHeader}
	config.AllowCredentials = true
	return config
}
