package repositories

import (
	"context"
	"testing"

	"restaurant_pos_backend/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var menuColumns = []string{"id", "name", "category", "image", "id", "size", "price", "is_available"}

func TestMenuRepository_ListGroupsPortions(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewMenuRepository(db)

	mock.ExpectQuery("FROM menu_items m LEFT JOIN menu_portions p").
		WillReturnRows(sqlmock.NewRows(menuColumns).
			AddRow("chicken-rice", "Chicken Rice", "Rice", nil, "CR-M", "M", "650.00", true).
			AddRow("chicken-rice", "Chicken Rice", "Rice", nil, "CR-L", "L", "850.00", false).
			AddRow("soup", "Soup", "Starters", "soup.png", nil, nil, nil, nil))

	items, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "Chicken Rice", items[0].Name)
	require.Len(t, items[0].Portions, 2)
	assert.True(t, decimal.NewFromInt(850).Equal(items[0].Portions[1].Price))
	assert.False(t, items[0].Portions[1].IsAvailable)
	assert.Equal(t, "chicken-rice", items[0].Portions[0].MenuItemID)

	assert.Empty(t, items[1].Portions)
	assert.Equal(t, "soup.png", *items[1].Image)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMenuRepository_GetByPortionIDNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewMenuRepository(db)

	mock.ExpectQuery("SELECT menu_item_id FROM menu_portions WHERE id = \\$1").
		WithArgs("nope").
		WillReturnRows(sqlmock.NewRows(menuColumns))

	_, err = repo.GetByPortionID(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMemoryMenuRepository(t *testing.T) {
	repo, err := NewMemoryMenuRepository(DefaultMenu())
	require.NoError(t, err)
	ctx := context.Background()

	item, err := repo.GetByPortionID(ctx, "CR-L")
	require.NoError(t, err)
	assert.Equal(t, "chicken-rice", item.ID)
	p, ok := item.FindPortion("CR-L")
	require.True(t, ok)
	assert.Equal(t, "Chicken Rice (L)", item.LineName(p))

	_, err = repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	items, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, items, 4)
	assert.Equal(t, "Fast Food", items[0].Category)
}

func TestMemoryMenuRepository_RejectsInvalidItems(t *testing.T) {
	_, err := NewMemoryMenuRepository([]models.MenuItem{{ID: "empty", Name: "Nothing"}})
	assert.ErrorIs(t, err, models.ErrInvalidMenuItem)

	_, err = NewMemoryMenuRepository([]models.MenuItem{{ID: "dup", Name: "Dup", Portions: []models.Portion{
		{ID: "a", Size: "M"}, {ID: "b", Size: "m"},
	}}})
	assert.ErrorIs(t, err, models.ErrInvalidMenuItem)
}
