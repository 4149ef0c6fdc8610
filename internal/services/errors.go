package services

import (
	"errors"
	"fmt"

	"restaurant_pos_backend/internal/repositories"
)

var (
	ErrOrderNotFound    = errors.New("order not found")
	ErrMenuItemNotFound = errors.New("menu item not found")

	// ErrValidation is the parent of every input error; handlers answer 400.
	ErrValidation              = errors.New("validation failed")
	ErrInvalidOrderStatus      = fmt.Errorf("%w: invalid order status", ErrValidation)
	ErrInvalidStatusTransition = fmt.Errorf("%w: status transition not allowed", ErrValidation)
	ErrSettlementRequired      = fmt.Errorf("%w: dine-in orders are completed by settlement", ErrInvalidStatusTransition)
	ErrTotalMismatch           = fmt.Errorf("%w: total does not match the order items", ErrValidation)
	ErrOrderAlreadySettled     = fmt.Errorf("%w: order is already settled", ErrValidation)
	ErrPortionUnavailable      = fmt.Errorf("%w: portion is not available", ErrValidation)

	ErrTableOccupied       = errors.New("table already has an active order")
	ErrConcurrencyConflict = errors.New("order was modified by another client")
)

// mapRepositoryError converts store errors into service errors. Errors that
// already belong to this package pass through unchanged.
func mapRepositoryError(err error, action string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repositories.ErrNotFound):
		return ErrOrderNotFound
	case errors.Is(err, repositories.ErrTableOccupied):
		return fmt.Errorf("%w: %v", ErrTableOccupied, err)
	case errors.Is(err, repositories.ErrVersionConflict):
		return ErrConcurrencyConflict
	case isServiceError(err):
		return err
	default:
		return fmt.Errorf("failed to %s: %w", action, err)
	}
}

func isServiceError(err error) bool {
	for _, target := range []error{ErrOrderNotFound, ErrValidation, ErrTableOccupied, ErrConcurrencyConflict, ErrMenuItemNotFound} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
