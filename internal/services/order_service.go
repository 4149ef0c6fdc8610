package services

import (
	"context"
	"errors"
	"fmt"

	"restaurant_pos_backend/internal/events"
	"restaurant_pos_backend/internal/models"
	"restaurant_pos_backend/internal/printing"
	"restaurant_pos_backend/internal/repositories"
	"restaurant_pos_backend/pkg/utils"

	"github.com/shopspring/decimal"
)

// --- Data Transfer Objects (DTOs) ---

// CreateOrderRequest is a counter (takeaway or delivery) cart submission.
// Total is accepted for compatibility but never trusted; the server sums the items.
type CreateOrderRequest struct {
	Items         []OrderItemRequest    `json:"items" binding:"required,min=1,dive"`
	Total         *decimal.Decimal      `json:"total"`
	PaymentMethod *models.PaymentMethod `json:"payment_method" binding:"omitempty,payment_method"`
	OrderType     models.OrderType      `json:"order_type" binding:"required,order_type"`
}

// UpdateOrderStatusRequest is used for updating the status of an order.
// Version is optional; when given it must match the stored version.
type UpdateOrderStatusRequest struct {
	Status  models.OrderStatus `json:"status" binding:"required,order_status"`
	Version *int               `json:"version" binding:"omitempty,gt=0"`
}

// PrintOrderRequest selects what a reprint sends.
type PrintOrderRequest struct {
	KOT bool `json:"kot"`
}

// OrderResponse is an order plus the outcome of the print jobs it triggered.
type OrderResponse struct {
	*models.Order
	Printed *bool `json:"printed,omitempty"`
}

// --- End of DTOs ---

// OrderService is the lifecycle controller for counter orders and the
// status board shared by every order type.
type OrderService interface {
	CreateOrder(ctx context.Context, req CreateOrderRequest) (*OrderResponse, error)
	GetOrders(ctx context.Context, filters models.OrderFilters) ([]models.Order, int, error)
	GetOrderByID(ctx context.Context, orderID string) (*models.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID string, req UpdateOrderStatusRequest) (*models.Order, error)
	PrintOrder(ctx context.Context, orderID string, req PrintOrderRequest) error
	RenderReceipt(ctx context.Context, orderID, format string) (string, error)
	GetBoardOrders(ctx context.Context, status *models.OrderStatus) ([]models.Order, error)
}

type orderService struct {
	orderRepo repositories.OrderRepository
	items     itemResolver
	printer   PrintService
	notifier  *OrderNotifier
	cache     repositories.BoardCache
	policy    TransitionPolicy
}

// NewOrderService creates a new instance of OrderService.
func NewOrderService(
	or repositories.OrderRepository,
	mr repositories.MenuRepository,
	printer PrintService,
	notifier *OrderNotifier,
	cache repositories.BoardCache,
	policy TransitionPolicy,
) OrderService {
	if cache == nil {
		cache = repositories.NoopBoardCache{}
	}
	if printer == nil {
		printer = NewPrintService(nil, nil, PrintSettings{})
	}
	if notifier == nil {
		notifier = NewOrderNotifier(nil, nil)
	}
	if policy == nil {
		policy = StrictTransitions
	}
	return &orderService{
		orderRepo: or,
		items:     itemResolver{menuRepo: mr},
		printer:   printer,
		notifier:  notifier,
		cache:     cache,
		policy:    policy,
	}
}

// --- Method Implementations ---

func (s *orderService) CreateOrder(ctx context.Context, req CreateOrderRequest) (*OrderResponse, error) {
	switch req.OrderType {
	case models.OrderTypeTakeaway, models.OrderTypeDelivery:
	default:
		return nil, fmt.Errorf("%w: order_type must be %s or %s; dine-in orders are opened per table",
			ErrValidation, models.OrderTypeTakeaway, models.OrderTypeDelivery)
	}
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("%w: order must contain at least one item", ErrValidation)
	}
	if req.PaymentMethod != nil && !req.PaymentMethod.IsValid() {
		return nil, fmt.Errorf("%w: invalid payment method %q", ErrValidation, *req.PaymentMethod)
	}

	items, err := s.items.resolve(ctx, req.Items)
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		Items:         items,
		PaymentMethod: req.PaymentMethod,
		Status:        models.OrderStatusPending,
		OrderType:     req.OrderType,
	}
	order.Total = order.ComputeTotal()

	if req.Total != nil && !req.Total.Equal(order.Total) {
		utils.LogDebug("Client total ignored", map[string]interface{}{
			"client_total": req.Total.String(),
			"total":        order.Total.String(),
		})
	}

	if err := s.orderRepo.Create(ctx, order); err != nil {
		return nil, mapRepositoryError(err, "create order")
	}

	utils.LogInfo("Order created", map[string]interface{}{
		"order_id":     order.ID,
		"order_number": order.OrderNumber,
		"order_type":   order.OrderType,
		"total":        order.Total.StringFixed(2),
	})
	s.notifier.OrderChanged(ctx, events.OrderCreated, order)

	printed := s.printer.PrintOrderTickets(ctx, models.NewInvoice(order))
	return &OrderResponse{Order: order, Printed: &printed}, nil
}

func (s *orderService) GetOrders(ctx context.Context, filters models.OrderFilters) ([]models.Order, int, error) {
	orders, total, err := s.orderRepo.List(ctx, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to retrieve orders: %w", err)
	}
	return orders, total, nil
}

func (s *orderService) GetOrderByID(ctx context.Context, orderID string) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, mapRepositoryError(err, "retrieve order")
	}
	return order, nil
}

func (s *orderService) UpdateOrderStatus(ctx context.Context, orderID string, req UpdateOrderStatusRequest) (*models.Order, error) {
	if !req.Status.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidOrderStatus, req.Status)
	}

	var previous models.OrderStatus
	updated, err := s.orderRepo.Update(ctx, orderID, func(o *models.Order) error {
		if req.Version != nil && *req.Version != o.Version {
			return fmt.Errorf("%w: expected version %d, current %d", ErrConcurrencyConflict, *req.Version, o.Version)
		}
		if o.OrderType == models.OrderTypeDineIn && req.Status == models.OrderStatusCompleted {
			return ErrSettlementRequired
		}
		if err := s.policy(o.Status, req.Status); err != nil {
			return err
		}
		previous = o.Status
		o.Status = req.Status
		return nil
	})
	if err != nil {
		return nil, mapRepositoryError(err, "update order status")
	}

	utils.LogInfo("Order status changed", map[string]interface{}{
		"order_id":     updated.ID,
		"order_number": updated.OrderNumber,
		"from":         previous,
		"to":           updated.Status,
	})
	s.notifier.OrderChanged(ctx, events.OrderStatusChanged, updated)
	return updated, nil
}

func (s *orderService) PrintOrder(ctx context.Context, orderID string, req PrintOrderRequest) error {
	order, err := s.GetOrderByID(ctx, orderID)
	if err != nil {
		return err
	}
	if err := s.printer.Reprint(ctx, models.NewInvoice(order), req.KOT); err != nil {
		utils.LogWarn(err, "Reprint failed", map[string]interface{}{"order_id": order.ID, "kot": req.KOT})
		if errors.Is(err, printing.ErrTransportFailure) {
			return err
		}
		return fmt.Errorf("%w: %v", printing.ErrTransportFailure, err)
	}
	return nil
}

func (s *orderService) RenderReceipt(ctx context.Context, orderID, format string) (string, error) {
	order, err := s.GetOrderByID(ctx, orderID)
	if err != nil {
		return "", err
	}
	return s.printer.Render(models.NewInvoice(order), format)
}

// GetBoardOrders lists orders for the pickup/kitchen display. Without a
// status filter every order that is not yet completed is returned.
// Snapshots are served from the board cache when available and are stored
// under the cache generation read before listing.
func (s *orderService) GetBoardOrders(ctx context.Context, status *models.OrderStatus) ([]models.Order, error) {
	if status != nil && !status.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidOrderStatus, *status)
	}

	gen, err := s.cache.Generation(ctx)
	cacheable := err == nil
	if err != nil {
		utils.LogWarn(err, "Status board cache generation read failed")
	}
	if cacheable {
		cached, hit, err := s.cache.Get(ctx, gen, status)
		if err != nil {
			utils.LogWarn(err, "Status board cache read failed")
		}
		if hit {
			return cached, nil
		}
	}

	orders, _, err := s.orderRepo.List(ctx, models.OrderFilters{Status: status})
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve board orders: %w", err)
	}
	if status == nil {
		active := orders[:0]
		for _, o := range orders {
			if !o.Status.IsTerminal() {
				active = append(active, o)
			}
		}
		orders = active
	}

	if cacheable {
		if err := s.cache.Set(ctx, gen, status, orders); err != nil {
			utils.LogWarn(err, "Status board cache write failed")
		}
	}
	return orders, nil
}
