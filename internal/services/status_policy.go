package services

import (
	"fmt"

	"restaurant_pos_backend/internal/config"
	"restaurant_pos_backend/internal/models"
)

// TransitionPolicy decides whether an order may move from one status to another.
type TransitionPolicy func(from, to models.OrderStatus) error

// StrictTransitions allows only the adjacent forward step
// PENDING → PREPARING → READY → COMPLETED.
func StrictTransitions(from, to models.OrderStatus) error {
	if !to.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidOrderStatus, to)
	}
	if from.IsTerminal() {
		return fmt.Errorf("%w: order is %s", ErrInvalidStatusTransition, from)
	}
	next, ok := from.Next()
	if !ok || to != next {
		return fmt.Errorf("%w: %s -> %s (next allowed: %s)", ErrInvalidStatusTransition, from, to, next)
	}
	return nil
}

// PermissiveTransitions accepts any valid status as long as the order is not
// yet completed.
func PermissiveTransitions(from, to models.OrderStatus) error {
	if !to.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidOrderStatus, to)
	}
	if from.IsTerminal() {
		return fmt.Errorf("%w: order is %s", ErrInvalidStatusTransition, from)
	}
	return nil
}

// TransitionPolicyFor maps the ORDER_STATUS_POLICY setting to a policy.
func TransitionPolicyFor(name string) TransitionPolicy {
	if name == config.StatusPolicyPermissive {
		return PermissiveTransitions
	}
	return StrictTransitions
}
