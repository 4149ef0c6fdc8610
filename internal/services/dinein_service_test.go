package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"restaurant_pos_backend/internal/events"
	"restaurant_pos_backend/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateDineInOrder(t *testing.T) {
	f := newFixture(t, StrictTransitions)

	first := f.openTable(t, 4)
	assert.Equal(t, "5001", first.OrderNumber)
	assert.Equal(t, models.OrderTypeDineIn, first.OrderType)
	assert.Equal(t, models.OrderStatusPending, first.Status)
	assert.Empty(t, first.Items)
	assert.True(t, first.Total.IsZero())
	assert.Empty(t, f.transport.jobs, "opening a table prints nothing")

	second := f.openTable(t, 5, item("Fried Rice (L)", "650.00", 2))
	assert.Equal(t, "5002", second.OrderNumber)
	assert.Equal(t, "1300.00", second.Total.StringFixed(2))
}

func TestCreateDineInOrder_OccupiedTableRejected(t *testing.T) {
	f := newFixture(t, StrictTransitions)
	ctx := context.Background()
	existing := f.openTable(t, 4)

	_, err := f.dineIn.CreateDineInOrder(ctx, CreateDineInOrderRequest{TableNo: 4})
	assert.ErrorIs(t, err, ErrTableOccupied)

	orders, total, err := f.orders.GetOrders(ctx, models.OrderFilters{})
	require.NoError(t, err)
	assert.Equal(t, 1, total, "no duplicate order is created")
	assert.Equal(t, existing.ID, orders[0].ID)

	_, err = f.dineIn.CreateDineInOrder(ctx, CreateDineInOrderRequest{TableNo: 0})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestUpdateDineInOrder_ReconcilesItems(t *testing.T) {
	f := newFixture(t, StrictTransitions)
	ctx := context.Background()
	o := f.openTable(t, 4, item("Fried Rice (L)", "650.00", 1), item("Soup", "300.00", 1))
	riceID := o.Items[0].ID

	updated, err := f.dineIn.UpdateDineInOrder(ctx, o.ID, UpdateDineInOrderRequest{
		Version: o.Version,
		Items: []OrderItemRequest{
			{ID: riceID, Name: "Fried Rice (L)", Price: decimal.NewFromInt(650), Quantity: 2},
			item("Coke", "250.00", 2),
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, updated.Version)
	require.Len(t, updated.Items, 2)
	assert.Equal(t, riceID, updated.Items[0].ID, "matching ids are updated in place")
	assert.Equal(t, 2, updated.Items[0].Quantity)
	assert.Equal(t, "Coke", updated.Items[1].Name)
	assert.NotEmpty(t, updated.Items[1].ID)
	assert.Equal(t, "1800.00", updated.Total.StringFixed(2))
	assert.Equal(t, "5001", updated.OrderNumber)

	fresh, err := f.dineIn.GetDineInOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, updated.Items, fresh.Items)
	assert.Contains(t, f.publisher.types(), events.OrderUpdated)
}

func TestUpdateDineInOrder_StatusAndTable(t *testing.T) {
	f := newFixture(t, StrictTransitions)
	ctx := context.Background()
	o := f.openTable(t, 4)
	f.openTable(t, 6)

	preparing := models.OrderStatusPreparing
	seven := 7
	updated, err := f.dineIn.UpdateDineInOrder(ctx, o.ID, UpdateDineInOrderRequest{
		Version: 1, Status: &preparing, TableNo: &seven, Items: []OrderItemRequest{},
	})
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPreparing, updated.Status)
	assert.Equal(t, 7, *updated.TableNo)

	same := models.OrderStatusPreparing
	_, err = f.dineIn.UpdateDineInOrder(ctx, o.ID, UpdateDineInOrderRequest{Version: 2, Status: &same, Items: []OrderItemRequest{}})
	assert.NoError(t, err, "unchanged status is not a transition")

	back := models.OrderStatusPending
	_, err = f.dineIn.UpdateDineInOrder(ctx, o.ID, UpdateDineInOrderRequest{Version: 3, Status: &back, Items: []OrderItemRequest{}})
	assert.ErrorIs(t, err, ErrInvalidStatusTransition)

	done := models.OrderStatusCompleted
	_, err = f.dineIn.UpdateDineInOrder(ctx, o.ID, UpdateDineInOrderRequest{Version: 3, Status: &done, Items: []OrderItemRequest{}})
	assert.ErrorIs(t, err, ErrSettlementRequired)

	six := 6
	_, err = f.dineIn.UpdateDineInOrder(ctx, o.ID, UpdateDineInOrderRequest{Version: 3, TableNo: &six, Items: []OrderItemRequest{}})
	assert.ErrorIs(t, err, ErrTableOccupied)
}

func TestUpdateDineInOrder_PaymentMethodIgnored(t *testing.T) {
	f := newFixture(t, StrictTransitions)
	o := f.openTable(t, 2)
	card := models.PaymentMethodCard

	updated, err := f.dineIn.UpdateDineInOrder(context.Background(), o.ID, UpdateDineInOrderRequest{
		Version: 1, PaymentMethod: &card, Items: []OrderItemRequest{item("Tea", "1.00", 1)},
	})
	require.NoError(t, err)
	assert.Nil(t, updated.PaymentMethod)
}

func TestUpdateDineInOrder_StaleVersion(t *testing.T) {
	f := newFixture(t, StrictTransitions)
	ctx := context.Background()
	o := f.openTable(t, 4)

	_, err := f.dineIn.UpdateDineInOrder(ctx, o.ID, UpdateDineInOrderRequest{Version: 1, Items: []OrderItemRequest{item("Tea", "1.00", 1)}})
	require.NoError(t, err)

	_, err = f.dineIn.UpdateDineInOrder(ctx, o.ID, UpdateDineInOrderRequest{Version: 1, Items: []OrderItemRequest{item("Coffee", "2.00", 1)}})
	assert.ErrorIs(t, err, ErrConcurrencyConflict)

	stored, err := f.dineIn.GetDineInOrder(ctx, o.ID)
	require.NoError(t, err)
	require.Len(t, stored.Items, 1)
	assert.Equal(t, "Tea", stored.Items[0].Name)
}

func TestUpdateDineInOrder_ConcurrentWritersOneWins(t *testing.T) {
	f := newFixture(t, StrictTransitions)
	o := f.openTable(t, 4)
	const writers = 10

	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.dineIn.UpdateDineInOrder(context.Background(), o.ID, UpdateDineInOrderRequest{
				Version: 1,
				Items:   []OrderItemRequest{item("Waiter item", "1.00", i+1)},
			})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	succeeded := 0
	for err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, ErrConcurrencyConflict)
	}
	assert.Equal(t, 1, succeeded)

	stored, err := f.dineIn.GetDineInOrder(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.Version)
	assert.Len(t, stored.Items, 1)
}

func TestUpdateDineInOrder_InvalidItemWritesNothing(t *testing.T) {
	f := newFixture(t, StrictTransitions)
	ctx := context.Background()
	o := f.openTable(t, 4, item("Tea", "1.00", 1))

	_, err := f.dineIn.UpdateDineInOrder(ctx, o.ID, UpdateDineInOrderRequest{
		Version: 1,
		Items:   []OrderItemRequest{item("Coffee", "2.00", 1), item("Broken", "2.00", 0)},
	})
	assert.ErrorIs(t, err, ErrValidation)

	stored, err := f.dineIn.GetDineInOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Version)
	assert.Equal(t, "Tea", stored.Items[0].Name)
}

func TestUpdateDineInOrder_NotFound(t *testing.T) {
	f := newFixture(t, StrictTransitions)
	takeaway := f.takeaway(t)

	_, err := f.dineIn.UpdateDineInOrder(context.Background(), takeaway.ID, UpdateDineInOrderRequest{Version: 1, Items: []OrderItemRequest{}})
	assert.ErrorIs(t, err, ErrOrderNotFound)

	_, err = f.dineIn.UpdateDineInOrder(context.Background(), "missing", UpdateDineInOrderRequest{Version: 1, Items: []OrderItemRequest{}})
	assert.ErrorIs(t, err, ErrOrderNotFound)

	_, err = f.dineIn.GetDineInOrder(context.Background(), takeaway.ID)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestSettleDineInOrder(t *testing.T) {
	f := newFixture(t, StrictTransitions)
	ctx := context.Background()
	o := f.openTable(t, 4)
	o, err := f.dineIn.UpdateDineInOrder(ctx, o.ID, UpdateDineInOrderRequest{
		Version: o.Version,
		Items:   []OrderItemRequest{item("Fried Rice (L)", "650.00", 2)},
	})
	require.NoError(t, err)
	f.transport.jobs = nil

	wrong := decimal.NewFromInt(1000)
	_, err = f.dineIn.SettleDineInOrder(ctx, o.ID, SettleDineInOrderRequest{Total: &wrong, PaymentMethod: models.PaymentMethodCash})
	assert.ErrorIs(t, err, ErrTotalMismatch)

	total := decimal.RequireFromString("1300.00")
	resp, err := f.dineIn.SettleDineInOrder(ctx, o.ID, SettleDineInOrderRequest{Total: &total, PaymentMethod: models.PaymentMethodCard})
	require.NoError(t, err)

	assert.Equal(t, "5001", resp.OrderNumber)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "Fried Rice (L)", resp.Items[0].Name)
	assert.Equal(t, 2, resp.Items[0].Qty)
	assert.Equal(t, "650.00", resp.Items[0].Price.StringFixed(2))
	assert.Equal(t, "1300.00", resp.Total.StringFixed(2))
	assert.True(t, resp.Printed)
	assert.Equal(t, []string{"counter", "counter"}, f.transport.printers(), "bill and reference copy")
	assert.Contains(t, f.transport.jobs[0].payload, "1300.00")

	tables, err := f.dineIn.GetActiveTables(ctx)
	require.NoError(t, err)
	for _, tbl := range tables {
		assert.NotEqual(t, 4, tbl.TableNo)
	}

	stored, err := f.dineIn.GetDineInOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCompleted, stored.Status)
	assert.Nil(t, stored.TableNo)
	require.NotNil(t, stored.PaymentMethod)
	assert.Equal(t, models.PaymentMethodCard, *stored.PaymentMethod)
	assert.Equal(t, 3, stored.Version)

	_, err = f.dineIn.SettleDineInOrder(ctx, o.ID, SettleDineInOrderRequest{Total: &total, PaymentMethod: models.PaymentMethodCard})
	assert.ErrorIs(t, err, ErrOrderAlreadySettled)

	reopened := f.openTable(t, 4)
	assert.Equal(t, "5002", reopened.OrderNumber)
	assert.Equal(t, events.OrderSettled, f.publisher.events[len(f.publisher.events)-2].Type)
}

func TestSettleDineInOrder_PrintFailureKeepsSettlement(t *testing.T) {
	f := newFixture(t, StrictTransitions)
	ctx := context.Background()
	o := f.openTable(t, 8, item("Tea", "1.50", 2))
	f.transport.err = errors.New("paper out")

	total := decimal.RequireFromString("3.00")
	resp, err := f.dineIn.SettleDineInOrder(ctx, o.ID, SettleDineInOrderRequest{Total: &total, PaymentMethod: models.PaymentMethodCash})
	require.NoError(t, err)
	assert.False(t, resp.Printed)

	tables, err := f.dineIn.GetActiveTables(ctx)
	require.NoError(t, err)
	assert.Empty(t, tables)
}

func TestSettleDineInOrder_Errors(t *testing.T) {
	f := newFixture(t, StrictTransitions)
	ctx := context.Background()
	takeaway := f.takeaway(t)
	zero := decimal.Zero

	_, err := f.dineIn.SettleDineInOrder(ctx, takeaway.ID, SettleDineInOrderRequest{Total: &zero, PaymentMethod: models.PaymentMethodCash})
	assert.ErrorIs(t, err, ErrOrderNotFound)

	_, err = f.dineIn.SettleDineInOrder(ctx, "missing", SettleDineInOrderRequest{Total: &zero, PaymentMethod: models.PaymentMethodCash})
	assert.ErrorIs(t, err, ErrOrderNotFound)

	o := f.openTable(t, 1)
	_, err = f.dineIn.SettleDineInOrder(ctx, o.ID, SettleDineInOrderRequest{Total: &zero, PaymentMethod: "VOUCHER"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.dineIn.SettleDineInOrder(ctx, o.ID, SettleDineInOrderRequest{PaymentMethod: models.PaymentMethodCash})
	assert.ErrorIs(t, err, ErrValidation)
}
