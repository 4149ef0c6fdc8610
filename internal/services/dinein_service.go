package services

import (
	"context"
	"fmt"

	"restaurant_pos_backend/internal/events"
	"restaurant_pos_backend/internal/models"
	"restaurant_pos_backend/internal/repositories"
	"restaurant_pos_backend/pkg/utils"

	"github.com/shopspring/decimal"
)

// CreateDineInOrderRequest opens a table. Items are optional on the first save.
type CreateDineInOrderRequest struct {
	TableNo int                `json:"table_no" binding:"required,gt=0"`
	Items   []OrderItemRequest `json:"items" binding:"omitempty,dive"`
}

// UpdateDineInOrderRequest replaces the item set of a table's order.
// Version is the value the client last read; a stale value is rejected.
// Omitted Status or TableNo keep their stored values. PaymentMethod is
// accepted but ignored: it is recorded at settlement only.
type UpdateDineInOrderRequest struct {
	Version       int                   `json:"version" binding:"required,gt=0"`
	Status        *models.OrderStatus   `json:"status" binding:"omitempty,order_status"`
	TableNo       *int                  `json:"table_no" binding:"omitempty,gt=0"`
	Items         []OrderItemRequest    `json:"items" binding:"required,dive"`
	PaymentMethod *models.PaymentMethod `json:"payment_method"`
}

// SettleDineInOrderRequest closes a table's order.
type SettleDineInOrderRequest struct {
	Total         *decimal.Decimal     `json:"total" binding:"required"`
	PaymentMethod models.PaymentMethod `json:"payment_method" binding:"required,payment_method"`
}

// SettlementResponse is the invoice of a settled order plus the print outcome.
type SettlementResponse struct {
	models.Invoice
	Printed bool `json:"printed"`
}

// DineInService manages table orders: one open order per table, repeated
// item saves guarded by the order version, and settlement which frees the table.
type DineInService interface {
	CreateDineInOrder(ctx context.Context, req CreateDineInOrderRequest) (*models.Order, error)
	GetDineInOrder(ctx context.Context, orderID string) (*models.Order, error)
	UpdateDineInOrder(ctx context.Context, orderID string, req UpdateDineInOrderRequest) (*models.Order, error)
	SettleDineInOrder(ctx context.Context, orderID string, req SettleDineInOrderRequest) (*SettlementResponse, error)
	GetActiveTables(ctx context.Context) ([]models.ActiveTable, error)
}

type dineInService struct {
	orderRepo repositories.OrderRepository
	items     itemResolver
	printer   PrintService
	notifier  *OrderNotifier
	policy    TransitionPolicy
}

func NewDineInService(
	or repositories.OrderRepository,
	mr repositories.MenuRepository,
	printer PrintService,
	notifier *OrderNotifier,
	policy TransitionPolicy,
) DineInService {
	if policy == nil {
		policy = StrictTransitions
	}
	if printer == nil {
		printer = NewPrintService(nil, nil, PrintSettings{})
	}
	if notifier == nil {
		notifier = NewOrderNotifier(nil, nil)
	}
	return &dineInService{
		orderRepo: or,
		items:     itemResolver{menuRepo: mr},
		printer:   printer,
		notifier:  notifier,
		policy:    policy,
	}
}

func (s *dineInService) CreateDineInOrder(ctx context.Context, req CreateDineInOrderRequest) (*models.Order, error) {
	if req.TableNo <= 0 {
		return nil, fmt.Errorf("%w: table_no must be positive", ErrValidation)
	}
	items, err := s.items.resolve(ctx, req.Items)
	if err != nil {
		return nil, err
	}

	tableNo := req.TableNo
	order := &models.Order{
		Items:     items,
		Status:    models.OrderStatusPending,
		OrderType: models.OrderTypeDineIn,
		TableNo:   &tableNo,
	}
	order.Total = order.ComputeTotal()

	if err := s.orderRepo.Create(ctx, order); err != nil {
		return nil, mapRepositoryError(err, "create dine-in order")
	}

	utils.LogInfo("Dine-in order opened", map[string]interface{}{
		"order_id":     order.ID,
		"order_number": order.OrderNumber,
		"table_no":     tableNo,
	})
	s.notifier.OrderChanged(ctx, events.OrderCreated, order)
	return order, nil
}

func (s *dineInService) GetDineInOrder(ctx context.Context, orderID string) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, mapRepositoryError(err, "retrieve dine-in order")
	}
	if order.OrderType != models.OrderTypeDineIn {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// UpdateDineInOrder reconciles the stored items with the payload. Items are
// validated before anything is written; the version check, the status
// policy and the item diff all happen under the order's row lock.
func (s *dineInService) UpdateDineInOrder(ctx context.Context, orderID string, req UpdateDineInOrderRequest) (*models.Order, error) {
	if req.Status != nil && !req.Status.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidOrderStatus, *req.Status)
	}
	if req.TableNo != nil && *req.TableNo <= 0 {
		return nil, fmt.Errorf("%w: table_no must be positive", ErrValidation)
	}
	items, err := s.items.resolve(ctx, req.Items)
	if err != nil {
		return nil, err
	}

	updated, err := s.orderRepo.Update(ctx, orderID, func(o *models.Order) error {
		if o.OrderType != models.OrderTypeDineIn {
			return ErrOrderNotFound
		}
		if o.Status.IsTerminal() {
			return ErrOrderAlreadySettled
		}
		if o.Version != req.Version {
			return fmt.Errorf("%w: expected version %d, current %d", ErrConcurrencyConflict, req.Version, o.Version)
		}

		if req.Status != nil && *req.Status != o.Status {
			if *req.Status == models.OrderStatusCompleted {
				return ErrSettlementRequired
			}
			if err := s.policy(o.Status, *req.Status); err != nil {
				return err
			}
			o.Status = *req.Status
		}
		if req.TableNo != nil {
			tableNo := *req.TableNo
			o.TableNo = &tableNo
		}

		o.Items = items
		o.Total = o.ComputeTotal()
		return nil
	})
	if err != nil {
		return nil, mapRepositoryError(err, "update dine-in order")
	}

	utils.LogInfo("Dine-in order updated", map[string]interface{}{
		"order_id":     updated.ID,
		"order_number": updated.OrderNumber,
		"version":      updated.Version,
		"items":        len(updated.Items),
		"total":        updated.Total.StringFixed(2),
	})
	s.notifier.OrderChanged(ctx, events.OrderUpdated, updated)
	return updated, nil
}

// SettleDineInOrder completes the order, records payment and releases the
// table in one write. The caller's total must equal the item sum.
func (s *dineInService) SettleDineInOrder(ctx context.Context, orderID string, req SettleDineInOrderRequest) (*SettlementResponse, error) {
	if !req.PaymentMethod.IsValid() {
		return nil, fmt.Errorf("%w: invalid payment method %q", ErrValidation, req.PaymentMethod)
	}
	if req.Total == nil {
		return nil, fmt.Errorf("%w: total is required", ErrValidation)
	}

	var releasedTable *int
	settled, err := s.orderRepo.Update(ctx, orderID, func(o *models.Order) error {
		if o.OrderType != models.OrderTypeDineIn {
			return ErrOrderNotFound
		}
		if o.Status.IsTerminal() {
			return ErrOrderAlreadySettled
		}
		total := o.ComputeTotal()
		if !req.Total.Equal(total) {
			return fmt.Errorf("%w: got %s, items sum to %s", ErrTotalMismatch, req.Total.StringFixed(2), total.StringFixed(2))
		}

		method := req.PaymentMethod
		releasedTable = o.TableNo
		o.Status = models.OrderStatusCompleted
		o.Total = total
		o.PaymentMethod = &method
		o.TableNo = nil
		return nil
	})
	if err != nil {
		return nil, mapRepositoryError(err, "settle dine-in order")
	}

	fields := map[string]interface{}{
		"order_id":       settled.ID,
		"order_number":   settled.OrderNumber,
		"total":          settled.Total.StringFixed(2),
		"payment_method": req.PaymentMethod,
	}
	if releasedTable != nil {
		fields["released_table"] = *releasedTable
	}
	utils.LogInfo("Dine-in order settled", fields)
	s.notifier.OrderChanged(ctx, events.OrderSettled, settled)

	invoice := models.NewInvoice(settled)
	printed := s.printer.PrintBill(ctx, invoice)
	return &SettlementResponse{Invoice: invoice, Printed: printed}, nil
}

func (s *dineInService) GetActiveTables(ctx context.Context) ([]models.ActiveTable, error) {
	tables, err := s.orderRepo.ListActiveTables(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve active tables: %w", err)
	}
	return tables, nil
}
