package handlers

import (
	"errors"
	"net/http"

	"restaurant_pos_backend/internal/printing"
	"restaurant_pos_backend/internal/services"
	"restaurant_pos_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// respondServiceError maps service sentinels onto the API error envelope.
// Anything unrecognised is reported as an internal error without details.
func respondServiceError(c *gin.Context, err error, action string) {
	switch {
	case errors.Is(err, services.ErrOrderNotFound):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Order not found.", err.Error()))
	case errors.Is(err, services.ErrMenuItemNotFound):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Menu item not found.", err.Error()))
	case errors.Is(err, services.ErrTableOccupied):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Table already has an active order.", err.Error()))
	case errors.Is(err, services.ErrConcurrencyConflict):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConcurrencyConflict, "Order was modified by another client. Reload and retry.", err.Error()))
	case errors.Is(err, printing.ErrTransportFailure):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadGateway, utils.ErrCodePrinterUnavailable, "Printer could not be reached.", err.Error()))
	case errors.Is(err, services.ErrValidation):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, validationMessage(err), err.Error()))
	default:
		utils.LogError(err, action+": unexpected error")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to "+action+".", "Internal error"))
	}
}

func validationMessage(err error) string {
	switch {
	case errors.Is(err, services.ErrSettlementRequired):
		return "Dine-in orders are completed by settlement."
	case errors.Is(err, services.ErrInvalidStatusTransition):
		return "Status transition not allowed."
	case errors.Is(err, services.ErrInvalidOrderStatus):
		return "Invalid order status provided."
	case errors.Is(err, services.ErrTotalMismatch):
		return "Total does not match the order items."
	case errors.Is(err, services.ErrOrderAlreadySettled):
		return "Order is already settled."
	case errors.Is(err, services.ErrPortionUnavailable):
		return "Portion is not available."
	default:
		return "Input validation failed."
	}
}

func respondBindError(c *gin.Context, err error, handler string) {
	utils.LogDebug(handler+": failed to bind request", map[string]interface{}{"error": err.Error()})
	utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
}
