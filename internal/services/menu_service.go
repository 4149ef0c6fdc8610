package services

import (
	"context"
	"errors"
	"fmt"

	"restaurant_pos_backend/internal/models"
	"restaurant_pos_backend/internal/repositories"
)

// MenuService exposes the read-only catalog used by the cart screens.
type MenuService interface {
	GetMenu(ctx context.Context) ([]models.MenuItem, error)
	GetMenuItem(ctx context.Context, id string) (*models.MenuItem, error)
}

type menuService struct {
	menuRepo repositories.MenuRepository
}

func NewMenuService(mr repositories.MenuRepository) MenuService {
	return &menuService{menuRepo: mr}
}

func (s *menuService) GetMenu(ctx context.Context) ([]models.MenuItem, error) {
	items, err := s.menuRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve menu: %w", err)
	}
	return items, nil
}

func (s *menuService) GetMenuItem(ctx context.Context, id string) (*models.MenuItem, error) {
	item, err := s.menuRepo.GetByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrMenuItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve menu item %s: %w", id, err)
	}
	return item, nil
}
