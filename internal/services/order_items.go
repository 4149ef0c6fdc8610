package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"restaurant_pos_backend/internal/models"
	"restaurant_pos_backend/internal/repositories"
	"restaurant_pos_backend/pkg/utils"

	"github.com/shopspring/decimal"
)

// OrderItemRequest is one cart line. Either PortionID (catalog lookup) or
// Name and Price must be given. ID is only meaningful on dine-in updates.
type OrderItemRequest struct {
	ID        string          `json:"id"`
	PortionID string          `json:"portion_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity" binding:"required,gt=0"`
	Category  *string         `json:"category"`
	Image     *string         `json:"image"`
}

// itemResolver turns cart lines into order items, filling catalog data for
// lines that reference a portion. All lines are validated before returning.
type itemResolver struct {
	menuRepo repositories.MenuRepository
}

func (r itemResolver) resolve(ctx context.Context, reqs []OrderItemRequest) ([]models.OrderItem, error) {
	items := make([]models.OrderItem, 0, len(reqs))
	for i, req := range reqs {
		item := models.OrderItem{
			ID:       strings.TrimSpace(req.ID),
			Name:     strings.TrimSpace(req.Name),
			Price:    req.Price,
			Quantity: req.Quantity,
			Category: req.Category,
			Image:    req.Image,
		}

		if req.PortionID != "" {
			if err := r.applyPortion(ctx, &item, req.PortionID); err != nil {
				return nil, fmt.Errorf("item %d: %w", i+1, err)
			}
		}

		if err := validateItem(item); err != nil {
			return nil, fmt.Errorf("%w: item %d: %s", ErrValidation, i+1, err)
		}
		items = append(items, item)
	}
	return items, nil
}

func (r itemResolver) applyPortion(ctx context.Context, item *models.OrderItem, portionID string) error {
	if r.menuRepo == nil {
		return fmt.Errorf("%w: menu catalog unavailable", ErrValidation)
	}
	menuItem, err := r.menuRepo.GetByPortionID(ctx, portionID)
	if errors.Is(err, repositories.ErrNotFound) {
		return fmt.Errorf("%w: unknown portion %q", ErrValidation, portionID)
	}
	if err != nil {
		return fmt.Errorf("failed to look up portion %s: %w", portionID, err)
	}
	portion, ok := menuItem.FindPortion(portionID)
	if !ok {
		return fmt.Errorf("%w: unknown portion %q", ErrValidation, portionID)
	}
	if !portion.IsAvailable {
		return fmt.Errorf("%w: %s", ErrPortionUnavailable, menuItem.LineName(portion))
	}

	item.Name = menuItem.LineName(portion)
	item.Price = portion.Price
	item.Category = utils.NewNullString(menuItem.Category)
	item.Image = menuItem.Image
	return nil
}

func validateItem(item models.OrderItem) error {
	switch {
	case utils.IsEmpty(item.Name):
		return errors.New("name is required")
	case item.Quantity < 1:
		return errors.New("quantity must be at least 1")
	case item.Price.IsNegative():
		return errors.New("price must not be negative")
	case !item.Price.Equal(item.Price.Round(2)):
		return errors.New("price must have at most two decimal places")
	}
	return nil
}
