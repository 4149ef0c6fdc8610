package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"

	"restaurant_pos_backend/internal/models"

	"github.com/shopspring/decimal"
)

// MenuRepository is the read-only view of the menu catalog.
type MenuRepository interface {
	List(ctx context.Context) ([]models.MenuItem, error)
	GetByID(ctx context.Context, id string) (*models.MenuItem, error)
	// GetByPortionID returns the menu item owning the given portion.
	GetByPortionID(ctx context.Context, portionID string) (*models.MenuItem, error)
}

type menuRepository struct {
	db *sql.DB
}

// NewMenuRepository creates a new Postgres-backed MenuRepository.
func NewMenuRepository(db *sql.DB) MenuRepository {
	return &menuRepository{db: db}
}

const menuSelect = `SELECT m.id, m.name, m.category, m.image,
                           p.id, p.size, p.price, p.is_available
                    FROM menu_items m
                    LEFT JOIN menu_portions p ON p.menu_item_id = m.id`

func (r *menuRepository) List(ctx context.Context) ([]models.MenuItem, error) {
	rows, err := r.db.QueryContext(ctx, menuSelect+` ORDER BY m.category, m.name, p.price`)
	if err != nil {
		return nil, fmt.Errorf("%w: querying menu: %v", ErrDatabaseError, err)
	}
	defer rows.Close()
	return scanMenuRows(rows)
}

func (r *menuRepository) GetByID(ctx context.Context, id string) (*models.MenuItem, error) {
	rows, err := r.db.QueryContext(ctx, menuSelect+` WHERE m.id = $1 ORDER BY p.price`, id)
	if err != nil {
		return nil, fmt.Errorf("%w: querying menu item %s: %v", ErrDatabaseError, id, err)
	}
	defer rows.Close()
	return firstMenuItem(rows)
}

func (r *menuRepository) GetByPortionID(ctx context.Context, portionID string) (*models.MenuItem, error) {
	query := menuSelect + ` WHERE m.id = (SELECT menu_item_id FROM menu_portions WHERE id = $1) ORDER BY p.price`
	rows, err := r.db.QueryContext(ctx, query, portionID)
	if err != nil {
		return nil, fmt.Errorf("%w: querying portion %s: %v", ErrDatabaseError, portionID, err)
	}
	defer rows.Close()
	return firstMenuItem(rows)
}

func firstMenuItem(rows *sql.Rows) (*models.MenuItem, error) {
	items, err := scanMenuRows(rows)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrNotFound
	}
	return &items[0], nil
}

// scanMenuRows folds the item × portion join back into items, keeping row order.
func scanMenuRows(rows *sql.Rows) ([]models.MenuItem, error) {
	items := []models.MenuItem{}
	index := make(map[string]int)

	for rows.Next() {
		var (
			item        models.MenuItem
			image       sql.NullString
			portionID   sql.NullString
			size        sql.NullString
			price       decimal.NullDecimal
			isAvailable sql.NullBool
		)
		if err := rows.Scan(&item.ID, &item.Name, &item.Category, &image, &portionID, &size, &price, &isAvailable); err != nil {
			return nil, fmt.Errorf("%w: scanning menu row: %v", ErrDatabaseError, err)
		}

		i, ok := index[item.ID]
		if !ok {
			if image.Valid {
				item.Image = &image.String
			}
			item.Portions = []models.Portion{}
			items = append(items, item)
			i = len(items) - 1
			index[item.ID] = i
		}
		if portionID.Valid {
			items[i].Portions = append(items[i].Portions, models.Portion{
				ID:          portionID.String,
				MenuItemID:  item.ID,
				Size:        size.String,
				Price:       price.Decimal,
				IsAvailable: isAvailable.Bool,
			})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating menu rows: %v", ErrDatabaseError, err)
	}
	return items, nil
}

type memoryMenuRepository struct {
	mu    sync.RWMutex
	items map[string]models.MenuItem
}

// NewMemoryMenuRepository creates an in-memory catalog. Items failing
// MenuItem.Validate are rejected.
func NewMemoryMenuRepository(items []models.MenuItem) (MenuRepository, error) {
	r := &memoryMenuRepository{items: make(map[string]models.MenuItem, len(items))}
	for _, item := range items {
		if err := item.Validate(); err != nil {
			return nil, err
		}
		for i := range item.Portions {
			item.Portions[i].MenuItemID = item.ID
		}
		r.items[item.ID] = item
	}
	return r, nil
}

func (r *memoryMenuRepository) List(ctx context.Context) ([]models.MenuItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	items := make([]models.MenuItem, 0, len(r.items))
	for _, item := range r.items {
		items = append(items, copyMenuItem(item))
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Category != items[j].Category {
			return items[i].Category < items[j].Category
		}
		return items[i].Name < items[j].Name
	})
	return items, nil
}

func (r *memoryMenuRepository) GetByID(ctx context.Context, id string) (*models.MenuItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	c := copyMenuItem(item)
	return &c, nil
}

func (r *memoryMenuRepository) GetByPortionID(ctx context.Context, portionID string) (*models.MenuItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, item := range r.items {
		if _, ok := item.FindPortion(portionID); ok {
			c := copyMenuItem(item)
			return &c, nil
		}
	}
	return nil, ErrNotFound
}

func copyMenuItem(item models.MenuItem) models.MenuItem {
	item.Portions = append([]models.Portion(nil), item.Portions...)
	return item
}

// DefaultMenu is the catalog served by the memory store.
func DefaultMenu() []models.MenuItem {
	portion := func(id, size, price string) models.Portion {
		return models.Portion{ID: id, Size: size, Price: decimal.RequireFromString(price), IsAvailable: true}
	}
	return []models.MenuItem{
		{ID: "fried-rice", Name: "Fried Rice", Category: "Rice", Portions: []models.Portion{
			portion("FR-M", "M", "450.00"), portion("FR-L", "L", "650.00"),
		}},
		{ID: "chicken-rice", Name: "Chicken Rice", Category: "Rice", Portions: []models.Portion{
			portion("CR-M", "M", "650.00"), portion("CR-L", "L", "850.00"),
		}},
		{ID: "burger", Name: "Burger", Category: "Fast Food", Portions: []models.Portion{
			portion("BG-M", "M", "8.99"),
		}},
		{ID: "fries", Name: "Fries", Category: "Fast Food", Portions: []models.Portion{
			portion("FF-M", "M", "3.99"), portion("FF-XL", "XL", "5.49"),
		}},
	}
}
