package handlers

import (
	"sync"

	"restaurant_pos_backend/internal/models"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var registerOnce sync.Once

// RegisterValidators adds the order enum tags used in request DTOs
// (order_status, order_type, payment_method) to gin's validator engine.
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("order_status", func(fl validator.FieldLevel) bool {
			return models.OrderStatus(fl.Field().String()).IsValid()
		})
		_ = v.RegisterValidation("order_type", func(fl validator.FieldLevel) bool {
			return models.OrderType(fl.Field().String()).IsValid()
		})
		_ = v.RegisterValidation("payment_method", func(fl validator.FieldLevel) bool {
			return models.PaymentMethod(fl.Field().String()).IsValid()
		})
	})
}
