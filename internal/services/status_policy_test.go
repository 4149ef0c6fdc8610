package services

import (
	"testing"

	"restaurant_pos_backend/internal/config"
	"restaurant_pos_backend/internal/models"

	"github.com/stretchr/testify/assert"
)

const (
	pending   = models.OrderStatusPending
	preparing = models.OrderStatusPreparing
	ready     = models.OrderStatusReady
	completed = models.OrderStatusCompleted
)

func TestStrictTransitions(t *testing.T) {
	tests := []struct {
		from, to models.OrderStatus
		wantErr  error
	}{
		{pending, preparing, nil},
		{preparing, ready, nil},
		{ready, completed, nil},
		{pending, ready, ErrInvalidStatusTransition},
		{pending, completed, ErrInvalidStatusTransition},
		{ready, preparing, ErrInvalidStatusTransition},
		{preparing, pending, ErrInvalidStatusTransition},
		{pending, pending, ErrInvalidStatusTransition},
		{completed, pending, ErrInvalidStatusTransition},
		{completed, completed, ErrInvalidStatusTransition},
		{pending, "COOKING", ErrInvalidOrderStatus},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			err := StrictTransitions(tt.from, tt.to)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestPermissiveTransitions(t *testing.T) {
	tests := []struct {
		from, to models.OrderStatus
		wantErr  error
	}{
		{pending, preparing, nil},
		{pending, ready, nil},
		{pending, completed, nil},
		{ready, pending, nil},
		{preparing, preparing, nil},
		{completed, pending, ErrInvalidStatusTransition},
		{completed, ready, ErrInvalidStatusTransition},
		{ready, "served", ErrInvalidOrderStatus},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			err := PermissiveTransitions(tt.from, tt.to)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestTransitionPolicyFor(t *testing.T) {
	assert.NoError(t, TransitionPolicyFor(config.StatusPolicyPermissive)(pending, ready))
	assert.Error(t, TransitionPolicyFor(config.StatusPolicyStrict)(pending, ready))
	assert.Error(t, TransitionPolicyFor("")(pending, ready))
}
