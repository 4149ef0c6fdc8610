package models

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// MenuItem is a catalog entry. Prices live on its portions.
type MenuItem struct {
	ID       string    `json:"id" db:"id"`
	Name     string    `json:"name" db:"name"`
	Category string    `json:"category" db:"category"`
	Image    *string   `json:"image,omitempty" db:"image"`
	Portions []Portion `json:"portions"`
}

// Portion is a sized, priced variant of a menu item (M, L, XL).
type Portion struct {
	ID          string          `json:"id" db:"id"`
	MenuItemID  string          `json:"-" db:"menu_item_id"`
	Size        string          `json:"size" db:"size"`
	Price       decimal.Decimal `json:"price" db:"price"`
	IsAvailable bool            `json:"is_available" db:"is_available"`
}

var ErrInvalidMenuItem = errors.New("invalid menu item")

// Validate enforces at least one portion and unique size labels.
func (m *MenuItem) Validate() error {
	if len(m.Portions) == 0 {
		return fmt.Errorf("%w: %s has no portions", ErrInvalidMenuItem, m.ID)
	}
	seen := make(map[string]bool, len(m.Portions))
	for _, p := range m.Portions {
		size := strings.ToUpper(strings.TrimSpace(p.Size))
		if seen[size] {
			return fmt.Errorf("%w: %s has duplicate size %q", ErrInvalidMenuItem, m.ID, p.Size)
		}
		seen[size] = true
	}
	return nil
}

// FindPortion looks up a portion of this item by id.
func (m *MenuItem) FindPortion(portionID string) (*Portion, bool) {
	for i := range m.Portions {
		if m.Portions[i].ID == portionID {
			return &m.Portions[i], true
		}
	}
	return nil, false
}

// LineName is the denormalised order-item name, e.g. "Chicken Rice (L)".
func (m *MenuItem) LineName(p *Portion) string {
	return fmt.Sprintf("%s (%s)", m.Name, p.Size)
}
