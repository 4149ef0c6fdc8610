package handlers

import (
	"net/http"

	"restaurant_pos_backend/internal/services"

	"github.com/gin-gonic/gin"
)

// MenuHandler serves the read-only catalog.
type MenuHandler struct {
	menuService services.MenuService
}

func NewMenuHandler(ms services.MenuService) *MenuHandler {
	return &MenuHandler{menuService: ms}
}

func (h *MenuHandler) GetMenu(c *gin.Context) {
	items, err := h.menuService.GetMenu(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, "fetch menu")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": items})
}

func (h *MenuHandler) GetMenuItem(c *gin.Context) {
	item, err := h.menuService.GetMenuItem(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, err, "fetch menu item")
		return
	}
	c.JSON(http.StatusOK, item)
}
