package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"restaurant_pos_backend/internal/models"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// maxNumberAttempts bounds retries when the order-number backstop index fires.
const maxNumberAttempts = 3

// MutateFunc edits a locked copy of an order. Returning an error aborts the
// update and nothing is written. Implementations must not call back into the
// repository.
type MutateFunc func(order *models.Order) error

// OrderRepository defines the interface for order persistence.
type OrderRepository interface {
	// Create allocates the daily order number and stores the order with its
	// items atomically. ID, item ids, version and timestamps are filled in.
	Create(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, id string) (*models.Order, error)
	List(ctx context.Context, filters models.OrderFilters) ([]models.Order, int, error) // orders, total count, error
	ListActiveTables(ctx context.Context) ([]models.ActiveTable, error)
	// Update locks the order, applies mutate to a copy and persists the
	// result as one transaction: header fields, version+1, and an item diff
	// keyed by item id. The stored order is re-read and returned.
	Update(ctx context.Context, id string, mutate MutateFunc) (*models.Order, error)
}

type orderRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewOrderRepository creates a new Postgres-backed OrderRepository.
func NewOrderRepository(db *sql.DB) OrderRepository {
	return &orderRepository{db: db, now: time.Now}
}

const orderColumns = `id, order_number, order_type, status, total, payment_method, table_no, version, created_at, updated_at`

// --- Create ---

func (r *orderRepository) Create(ctx context.Context, order *models.Order) error {
	prepareNewOrder(order, r.now())

	var err error
	for attempt := 1; attempt <= maxNumberAttempts; attempt++ {
		err = r.insertOrder(ctx, order)
		if !errors.Is(err, errOrderNumberTaken) {
			return err
		}
	}
	return err
}

func (r *orderRepository) insertOrder(ctx context.Context, order *models.Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: beginning order transaction: %v", ErrDatabaseError, err)
	}
	defer tx.Rollback()

	if order.OccupiesTable() {
		if err := checkTableFree(ctx, tx, *order.TableNo, order.ID); err != nil {
			return err
		}
	}

	scope := order.OrderType.NumberScope()
	day := orderDay(order.CreatedAt)
	seq, err := nextSequenceValue(ctx, tx, day, scope)
	if err != nil {
		return err
	}
	order.OrderNumber = strconv.Itoa(seq + scope.Offset())

	query := `INSERT INTO orders
	            (id, order_number, order_day, number_scope, order_type, status, total,
	             payment_method, table_no, version, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err = tx.ExecContext(ctx, query,
		order.ID, order.OrderNumber, day, string(scope), string(order.OrderType), string(order.Status), order.Total,
		paymentMethodArg(order.PaymentMethod), tableNoArg(order.TableNo), order.Version, order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		return mapWriteError(err, "creating order")
	}

	for i := range order.Items {
		if err := insertOrderItem(ctx, tx, &order.Items[i]); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: committing order: %v", ErrDatabaseError, err)
	}
	return nil
}

// nextSequenceValue bumps the per-day, per-scope counter. The upsert takes a
// row lock, so concurrent transactions are serialised on the counter row.
func nextSequenceValue(ctx context.Context, executor SQLExecutor, day time.Time, scope models.NumberScope) (int, error) {
	query := `INSERT INTO order_number_sequences (order_day, number_scope, last_value)
	          VALUES ($1, $2, 1)
	          ON CONFLICT (order_day, number_scope)
	          DO UPDATE SET last_value = order_number_sequences.last_value + 1
	          RETURNING last_value`
	var value int
	if err := executor.QueryRowContext(ctx, query, day, string(scope)).Scan(&value); err != nil {
		return 0, fmt.Errorf("%w: allocating order number for %s: %v", ErrDatabaseError, scope, err)
	}
	return value, nil
}

func checkTableFree(ctx context.Context, executor SQLExecutor, tableNo int, exceptOrderID string) error {
	query := `SELECT id FROM orders
	          WHERE order_type = 'DINEIN' AND status <> 'COMPLETED' AND table_no = $1 AND id <> $2
	          LIMIT 1`
	var holder string
	err := executor.QueryRowContext(ctx, query, tableNo, exceptOrderID).Scan(&holder)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: checking table %d: %v", ErrDatabaseError, tableNo, err)
	}
	return fmt.Errorf("%w: table %d is held by order %s", ErrTableOccupied, tableNo, holder)
}

func insertOrderItem(ctx context.Context, executor SQLExecutor, item *models.OrderItem) error {
	query := `INSERT INTO order_items (id, order_id, position, name, price, quantity, category, image)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := executor.ExecContext(ctx, query,
		item.ID, item.OrderID, item.Position, item.Name, item.Price, item.Quantity, item.Category, item.Image,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23503" {
			return fmt.Errorf("%w: creating order item (constraint: %s): %v", ErrDatabaseError, pqErr.Constraint, err)
		}
		return mapWriteError(err, "creating order item")
	}
	return nil
}

// --- Read ---

func (r *orderRepository) GetByID(ctx context.Context, id string) (*models.Order, error) {
	return getOrder(ctx, r.db, id, false)
}

func getOrder(ctx context.Context, executor SQLExecutor, id string, forUpdate bool) (*models.Order, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}

	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	order, err := scanOrder(executor.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, mapReadError(err, fmt.Sprintf("getting order by ID %s", id))
	}

	items, err := getOrderItems(ctx, executor, []string{id})
	if err != nil {
		return nil, err
	}
	order.Items = items[id]
	if order.Items == nil {
		order.Items = []models.OrderItem{}
	}
	return order, nil
}

// getOrderItems loads the items of several orders in one query, keyed by order id.
func getOrderItems(ctx context.Context, executor SQLExecutor, orderIDs []string) (map[string][]models.OrderItem, error) {
	result := make(map[string][]models.OrderItem, len(orderIDs))
	if len(orderIDs) == 0 {
		return result, nil
	}

	query := `SELECT id, order_id, position, name, price, quantity, category, image
	          FROM order_items
	          WHERE order_id = ANY($1)
	          ORDER BY order_id, position`
	rows, err := executor.QueryContext(ctx, query, pq.Array(orderIDs))
	if err != nil {
		return nil, fmt.Errorf("%w: querying order items: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var item models.OrderItem
		var category, image sql.NullString
		if err := rows.Scan(&item.ID, &item.OrderID, &item.Position, &item.Name, &item.Price, &item.Quantity, &category, &image); err != nil {
			return nil, fmt.Errorf("%w: scanning order item: %v", ErrDatabaseError, err)
		}
		if category.Valid {
			item.Category = &category.String
		}
		if image.Valid {
			item.Image = &image.String
		}
		result[item.OrderID] = append(result[item.OrderID], item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating order item rows: %v", ErrDatabaseError, err)
	}
	return result, nil
}

func (r *orderRepository) List(ctx context.Context, filters models.OrderFilters) ([]models.Order, int, error) {
	orders := []models.Order{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + orderColumns + `, COUNT(*) OVER() AS total_count FROM orders`)

	var conditions []string
	var args []interface{}
	argCounter := 1

	if filters.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argCounter))
		args = append(args, string(*filters.Status))
		argCounter++
	}
	if filters.OrderType != nil {
		conditions = append(conditions, fmt.Sprintf("order_type = $%d", argCounter))
		args = append(args, string(*filters.OrderType))
		argCounter++
	}
	if filters.TableNo != nil {
		conditions = append(conditions, fmt.Sprintf("table_no = $%d", argCounter))
		args = append(args, *filters.TableNo)
		argCounter++
	}
	if filters.Date != nil {
		conditions = append(conditions, fmt.Sprintf("order_day = $%d", argCounter))
		args = append(args, orderDay(*filters.Date))
		argCounter++
	}

	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}
	// Oldest first: the kitchen works the queue in arrival order.
	queryBuilder.WriteString(" ORDER BY created_at ASC, order_number ASC")

	if filters.PageSize > 0 {
		queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d", argCounter))
		args = append(args, filters.PageSize)
		argCounter++
		if filters.Page > 0 {
			queryBuilder.WriteString(fmt.Sprintf(" OFFSET $%d", argCounter))
			args = append(args, (filters.Page-1)*filters.PageSize)
		}
	}

	rows, err := r.db.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: querying orders: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		o, err := scanOrder(rows, &totalCount)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: scanning order: %v", ErrDatabaseError, err)
		}
		orders = append(orders, *o)
		ids = append(ids, o.ID)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating order rows: %v", ErrDatabaseError, err)
	}
	rows.Close()

	items, err := getOrderItems(ctx, r.db, ids)
	if err != nil {
		return nil, 0, err
	}
	for i := range orders {
		orders[i].Items = items[orders[i].ID]
		if orders[i].Items == nil {
			orders[i].Items = []models.OrderItem{}
		}
	}
	return orders, totalCount, nil
}

func (r *orderRepository) ListActiveTables(ctx context.Context) ([]models.ActiveTable, error) {
	query := `SELECT table_no, id, order_number, status, total, version
	          FROM orders
	          WHERE order_type = 'DINEIN' AND status <> 'COMPLETED' AND table_no IS NOT NULL
	          ORDER BY table_no`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: querying active tables: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	tables := []models.ActiveTable{}
	for rows.Next() {
		var t models.ActiveTable
		var status string
		if err := rows.Scan(&t.TableNo, &t.OrderID, &t.OrderNumber, &status, &t.Total, &t.Version); err != nil {
			return nil, fmt.Errorf("%w: scanning active table: %v", ErrDatabaseError, err)
		}
		t.Status = models.OrderStatus(status)
		tables = append(tables, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating active tables: %v", ErrDatabaseError, err)
	}
	return tables, nil
}

// --- Update ---

func (r *orderRepository) Update(ctx context.Context, id string, mutate MutateFunc) (*models.Order, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: beginning update transaction: %v", ErrDatabaseError, err)
	}
	defer tx.Rollback()

	current, err := getOrder(ctx, tx, id, true)
	if err != nil {
		return nil, err
	}

	next := current.Clone()
	if err := mutate(next); err != nil {
		return nil, err
	}
	sealUpdate(current, next, r.now())

	if next.OccupiesTable() && !sameTable(current, next) {
		if err := checkTableFree(ctx, tx, *next.TableNo, id); err != nil {
			return nil, err
		}
	}

	query := `UPDATE orders
	          SET status = $1, total = $2, payment_method = $3, table_no = $4, version = $5, updated_at = $6
	          WHERE id = $7 AND version = $8`
	result, err := tx.ExecContext(ctx, query,
		string(next.Status), next.Total, paymentMethodArg(next.PaymentMethod), tableNoArg(next.TableNo),
		next.Version, next.UpdatedAt, id, current.Version,
	)
	if err != nil {
		return nil, mapWriteError(err, fmt.Sprintf("updating order %s", id))
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("%w: getting rows affected for order %s: %v", ErrDatabaseError, id, err)
	}
	if rowsAffected == 0 {
		return nil, ErrVersionConflict
	}

	if err := reconcileItems(ctx, tx, current.Items, next.Items); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: committing order %s: %v", ErrDatabaseError, id, err)
	}
	return r.GetByID(ctx, id)
}

// reconcileItems applies the difference between the stored and desired item
// sets. Desired items must already carry their final ids (see sealUpdate).
func reconcileItems(ctx context.Context, executor SQLExecutor, existing, desired []models.OrderItem) error {
	stored := make(map[string]bool, len(existing))
	for _, item := range existing {
		stored[item.ID] = true
	}

	kept := make(map[string]bool, len(desired))
	for i := range desired {
		item := &desired[i]
		if stored[item.ID] {
			query := `UPDATE order_items
			          SET position = $1, name = $2, price = $3, quantity = $4, category = $5, image = $6
			          WHERE id = $7 AND order_id = $8`
			_, err := executor.ExecContext(ctx, query,
				item.Position, item.Name, item.Price, item.Quantity, item.Category, item.Image, item.ID, item.OrderID,
			)
			if err != nil {
				return mapWriteError(err, fmt.Sprintf("updating order item %s", item.ID))
			}
			kept[item.ID] = true
			continue
		}
		if err := insertOrderItem(ctx, executor, item); err != nil {
			return err
		}
	}

	var removed []string
	for _, item := range existing {
		if !kept[item.ID] {
			removed = append(removed, item.ID)
		}
	}
	if len(removed) == 0 {
		return nil
	}
	query := `DELETE FROM order_items WHERE id = ANY($1)`
	if _, err := executor.ExecContext(ctx, query, pq.Array(removed)); err != nil {
		return fmt.Errorf("%w: deleting order items: %v", ErrDatabaseError, err)
	}
	return nil
}

// --- helpers shared with the memory store ---

// prepareNewOrder fills server-owned fields of an order about to be inserted.
func prepareNewOrder(order *models.Order, now time.Time) {
	now = now.UTC()
	if order.ID == "" {
		order.ID = uuid.NewString()
	}
	if order.Status == "" {
		order.Status = models.OrderStatusPending
	}
	if order.Items == nil {
		order.Items = []models.OrderItem{}
	}
	order.Version = 1
	order.CreatedAt = now
	order.UpdatedAt = now
	for i := range order.Items {
		order.Items[i].ID = uuid.NewString()
		order.Items[i].OrderID = order.ID
		order.Items[i].Position = i
	}
}

// sealUpdate restores immutable fields, bumps the version and gives every
// item that does not match a stored row (or repeats one) a fresh id.
func sealUpdate(current, next *models.Order, now time.Time) {
	next.ID = current.ID
	next.OrderNumber = current.OrderNumber
	next.OrderType = current.OrderType
	next.CreatedAt = current.CreatedAt
	next.Version = current.Version + 1
	next.UpdatedAt = now.UTC()
	if next.Items == nil {
		next.Items = []models.OrderItem{}
	}

	stored := make(map[string]bool, len(current.Items))
	for _, item := range current.Items {
		stored[item.ID] = true
	}
	seen := make(map[string]bool, len(next.Items))
	for i := range next.Items {
		item := &next.Items[i]
		if !stored[item.ID] || seen[item.ID] {
			item.ID = uuid.NewString()
		}
		seen[item.ID] = true
		item.OrderID = current.ID
		item.Position = i
	}
}

func sameTable(a, b *models.Order) bool {
	if a.TableNo == nil || b.TableNo == nil {
		return a.TableNo == nil && b.TableNo == nil
	}
	return *a.TableNo == *b.TableNo && a.OccupiesTable() == b.OccupiesTable()
}

// orderDay is the UTC calendar day that order numbers are scoped to.
func orderDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

func paymentMethodArg(p *models.PaymentMethod) interface{} {
	if p == nil {
		return nil
	}
	return string(*p)
}

func tableNoArg(t *int) interface{} {
	if t == nil {
		return nil
	}
	return int64(*t)
}

// scanOrder reads orderColumns, plus any trailing destinations (total_count).
func scanOrder(s scanner, extra ...interface{}) (*models.Order, error) {
	var (
		o             models.Order
		orderType     string
		status        string
		total         decimal.Decimal
		paymentMethod sql.NullString
		tableNo       sql.NullInt64
	)
	dest := []interface{}{
		&o.ID, &o.OrderNumber, &orderType, &status, &total, &paymentMethod, &tableNo, &o.Version, &o.CreatedAt, &o.UpdatedAt,
	}
	if err := s.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	o.OrderType = models.OrderType(orderType)
	o.Status = models.OrderStatus(status)
	o.Total = total
	if paymentMethod.Valid {
		pm := models.PaymentMethod(paymentMethod.String)
		o.PaymentMethod = &pm
	}
	if tableNo.Valid {
		t := int(tableNo.Int64)
		o.TableNo = &t
	}
	o.CreatedAt = o.CreatedAt.UTC()
	o.UpdatedAt = o.UpdatedAt.UTC()
	return &o, nil
}
