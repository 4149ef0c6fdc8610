package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is a step of the kitchen lifecycle PENDING → PREPARING → READY → COMPLETED.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusPreparing OrderStatus = "PREPARING"
	OrderStatusReady     OrderStatus = "READY"
	OrderStatusCompleted OrderStatus = "COMPLETED"
)

var orderStatusSequence = []OrderStatus{
	OrderStatusPending,
	OrderStatusPreparing,
	OrderStatusReady,
	OrderStatusCompleted,
}

// IsValid checks if the status is one of the four lifecycle states.
func (s OrderStatus) IsValid() bool {
	return s.rank() >= 0
}

// IsTerminal reports whether no further transition is possible.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCompleted
}

// Next returns the adjacent forward state.
func (s OrderStatus) Next() (OrderStatus, bool) {
	r := s.rank()
	if r < 0 || r == len(orderStatusSequence)-1 {
		return "", false
	}
	return orderStatusSequence[r+1], true
}

func (s OrderStatus) rank() int {
	for i, st := range orderStatusSequence {
		if st == s {
			return i
		}
	}
	return -1
}

// OrderType distinguishes counter orders from table service.
type OrderType string

const (
	OrderTypeTakeaway OrderType = "TAKEAWAY"
	OrderTypeDineIn   OrderType = "DINEIN"
	OrderTypeDelivery OrderType = "DELIVERY"
)

func (t OrderType) IsValid() bool {
	switch t {
	case OrderTypeTakeaway, OrderTypeDineIn, OrderTypeDelivery:
		return true
	default:
		return false
	}
}

// NumberScope is the order-number range a type draws from. Takeaway and
// delivery share the cashier range; dine-in has its own.
func (t OrderType) NumberScope() NumberScope {
	if t == OrderTypeDineIn {
		return NumberScopeDineIn
	}
	return NumberScopeCounter
}

// NumberScope names a daily order-number sequence.
type NumberScope string

const (
	NumberScopeCounter NumberScope = "COUNTER"
	NumberScopeDineIn  NumberScope = "DINEIN"
)

// Offset is added to the 1-based daily sequence value: the first counter
// order of the day is 101, the first dine-in order 5001.
func (s NumberScope) Offset() int {
	if s == NumberScopeDineIn {
		return 5000
	}
	return 100
}

// PaymentMethod is recorded when the order is paid.
type PaymentMethod string

const (
	PaymentMethodCash PaymentMethod = "CASH"
	PaymentMethodCard PaymentMethod = "CARD"
)

func (p PaymentMethod) IsValid() bool {
	return p == PaymentMethodCash || p == PaymentMethodCard
}

// OrderItem is one cart line. Name is denormalised and already includes the
// portion size, e.g. "Fried Rice (L)".
type OrderItem struct {
	ID       string          `json:"id" db:"id"`
	OrderID  string          `json:"-" db:"order_id"`
	Position int             `json:"-" db:"position"`
	Name     string          `json:"name" db:"name"`
	Price    decimal.Decimal `json:"price" db:"price"`
	Quantity int             `json:"quantity" db:"quantity"`
	Category *string         `json:"category,omitempty" db:"category"`
	Image    *string         `json:"image,omitempty" db:"image"`
}

// LineAmount is price × quantity. It is never stored.
func (i OrderItem) LineAmount() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Order is the aggregate persisted in orders + order_items.
type Order struct {
	ID            string          `json:"id" db:"id"`
	OrderNumber   string          `json:"order_number" db:"order_number"`
	Items         []OrderItem     `json:"items"`
	Total         decimal.Decimal `json:"total" db:"total"`
	PaymentMethod *PaymentMethod  `json:"payment_method,omitempty" db:"payment_method"`
	Status        OrderStatus     `json:"status" db:"status"`
	OrderType     OrderType       `json:"order_type" db:"order_type"`
	TableNo       *int            `json:"table_no,omitempty" db:"table_no"`
	Version       int             `json:"version" db:"version"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at" db:"updated_at"`
}

// ComputeTotal sums the line amounts of the current item set.
func (o *Order) ComputeTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.LineAmount())
	}
	return total
}

// OccupiesTable reports whether the order currently holds its table.
func (o *Order) OccupiesTable() bool {
	return o.OrderType == OrderTypeDineIn && o.TableNo != nil && !o.Status.IsTerminal()
}

// Clone deep-copies the order so callers cannot alias store state.
func (o *Order) Clone() *Order {
	c := *o
	c.Items = make([]OrderItem, len(o.Items))
	copy(c.Items, o.Items)
	if o.TableNo != nil {
		t := *o.TableNo
		c.TableNo = &t
	}
	if o.PaymentMethod != nil {
		p := *o.PaymentMethod
		c.PaymentMethod = &p
	}
	return &c
}

// OrderFilters defines the available filters for querying orders.
// This struct is used by both the service and repository layers.
type OrderFilters struct {
	Status    *OrderStatus
	OrderType *OrderType
	TableNo   *int
	Date      *time.Time // UTC day
	Page      int
	PageSize  int
}

// Invoice is the printable projection of a settled or freshly created order.
type Invoice struct {
	OrderID     string          `json:"order_id"`
	OrderNumber string          `json:"order_number"`
	OrderType   OrderType       `json:"order_type"`
	Items       []InvoiceItem   `json:"items"`
	Total       decimal.Decimal `json:"total"`
}

type InvoiceItem struct {
	Name  string          `json:"name"`
	Qty   int             `json:"qty"`
	Price decimal.Decimal `json:"price"`
}

// Amount is qty × price for the bill's Amt column.
func (i InvoiceItem) Amount() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Qty)))
}

// NewInvoice builds the projection from the order's current item rows.
func NewInvoice(o *Order) Invoice {
	items := make([]InvoiceItem, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, InvoiceItem{Name: it.Name, Qty: it.Quantity, Price: it.Price})
	}
	return Invoice{
		OrderID:     o.ID,
		OrderNumber: o.OrderNumber,
		OrderType:   o.OrderType,
		Items:       items,
		Total:       o.Total,
	}
}

// ActiveTable is a table currently held by an unsettled dine-in order.
type ActiveTable struct {
	TableNo     int             `json:"table_no"`
	OrderID     string          `json:"order_id"`
	OrderNumber string          `json:"order_number"`
	Status      OrderStatus     `json:"status"`
	Total       decimal.Decimal `json:"total"`
	Version     int             `json:"version"`
}
