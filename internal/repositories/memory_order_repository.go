package repositories

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"restaurant_pos_backend/internal/models"
)

type sequenceKey struct {
	day   time.Time
	scope models.NumberScope
}

// memoryOrderRepository keeps orders in process memory. A single mutex
// serialises every write, which gives the same guarantees as the row locks
// of the Postgres store. Used with STORE_DRIVER=memory and in tests.
type memoryOrderRepository struct {
	mu        sync.RWMutex
	orders    map[string]*models.Order
	sequences map[sequenceKey]int
	now       func() time.Time
}

// NewMemoryOrderRepository creates an empty in-memory OrderRepository.
func NewMemoryOrderRepository() OrderRepository {
	return newMemoryOrderRepository(time.Now)
}

func newMemoryOrderRepository(now func() time.Time) *memoryOrderRepository {
	return &memoryOrderRepository{
		orders:    make(map[string]*models.Order),
		sequences: make(map[sequenceKey]int),
		now:       now,
	}
}

func (r *memoryOrderRepository) Create(ctx context.Context, order *models.Order) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	prepareNewOrder(order, r.now())
	if order.OccupiesTable() {
		if err := r.checkTableFree(*order.TableNo, order.ID); err != nil {
			return err
		}
	}

	scope := order.OrderType.NumberScope()
	key := sequenceKey{day: orderDay(order.CreatedAt), scope: scope}
	r.sequences[key]++
	order.OrderNumber = strconv.Itoa(r.sequences[key] + scope.Offset())

	r.orders[order.ID] = order.Clone()
	return nil
}

func (r *memoryOrderRepository) GetByID(ctx context.Context, id string) (*models.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	o, ok := r.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	return o.Clone(), nil
}

func (r *memoryOrderRepository) List(ctx context.Context, filters models.OrderFilters) ([]models.Order, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := []models.Order{}
	for _, o := range r.orders {
		if !matchesFilters(o, filters) {
			continue
		}
		matched = append(matched, *o.Clone())
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.Before(matched[j].CreatedAt)
		}
		return matched[i].OrderNumber < matched[j].OrderNumber
	})

	total := len(matched)
	if filters.PageSize > 0 {
		start := 0
		if filters.Page > 0 {
			start = (filters.Page - 1) * filters.PageSize
		}
		if start > total {
			start = total
		}
		end := start + filters.PageSize
		if end > total {
			end = total
		}
		matched = matched[start:end]
	}
	return matched, total, nil
}

func matchesFilters(o *models.Order, f models.OrderFilters) bool {
	if f.Status != nil && o.Status != *f.Status {
		return false
	}
	if f.OrderType != nil && o.OrderType != *f.OrderType {
		return false
	}
	if f.TableNo != nil && (o.TableNo == nil || *o.TableNo != *f.TableNo) {
		return false
	}
	if f.Date != nil && !orderDay(o.CreatedAt).Equal(orderDay(*f.Date)) {
		return false
	}
	return true
}

func (r *memoryOrderRepository) ListActiveTables(ctx context.Context) ([]models.ActiveTable, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	tables := []models.ActiveTable{}
	for _, o := range r.orders {
		if !o.OccupiesTable() {
			continue
		}
		tables = append(tables, models.ActiveTable{
			TableNo:     *o.TableNo,
			OrderID:     o.ID,
			OrderNumber: o.OrderNumber,
			Status:      o.Status,
			Total:       o.Total,
			Version:     o.Version,
		})
	}
	sort.Slice(tables, func(i, j int) bool { return tables[i].TableNo < tables[j].TableNo })
	return tables, nil
}

func (r *memoryOrderRepository) Update(ctx context.Context, id string, mutate MutateFunc) (*models.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.orders[id]
	if !ok {
		return nil, ErrNotFound
	}

	next := current.Clone()
	if err := mutate(next); err != nil {
		return nil, err
	}
	sealUpdate(current, next, r.now())

	if next.OccupiesTable() && !sameTable(current, next) {
		if err := r.checkTableFree(*next.TableNo, id); err != nil {
			return nil, err
		}
	}

	r.orders[id] = next.Clone()
	return next, nil
}

// checkTableFree must be called with the write lock held.
func (r *memoryOrderRepository) checkTableFree(tableNo int, exceptOrderID string) error {
	for _, o := range r.orders {
		if o.ID != exceptOrderID && o.OccupiesTable() && *o.TableNo == tableNo {
			return fmt.Errorf("%w: table %d is held by order %s", ErrTableOccupied, tableNo, o.ID)
		}
	}
	return nil
}
