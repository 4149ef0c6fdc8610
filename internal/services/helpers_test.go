package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"restaurant_pos_backend/internal/events"
	"restaurant_pos_backend/internal/models"
	"restaurant_pos_backend/internal/receipt"
	"restaurant_pos_backend/internal/repositories"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type printJob struct {
	printer string
	payload string
}

type recordingTransport struct {
	mu   sync.Mutex
	jobs []printJob
	err  error
}

func (r *recordingTransport) Send(_ context.Context, printer string, payload []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.jobs = append(r.jobs, printJob{printer: printer, payload: string(payload)})
	return nil
}

func (r *recordingTransport) printers() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.jobs))
	for _, j := range r.jobs {
		out = append(out, j.printer)
	}
	return out
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.OrderEvent
	err    error
}

func (r *recordingPublisher) Publish(_ context.Context, e events.OrderEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, e)
	return nil
}

func (r *recordingPublisher) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

type fixture struct {
	orders    OrderService
	dineIn    DineInService
	repo      repositories.OrderRepository
	transport *recordingTransport
	publisher *recordingPublisher
}

func newFixture(t *testing.T, policy TransitionPolicy) *fixture {
	return newFixtureWithMenu(t, policy, repositories.DefaultMenu())
}

func newFixtureWithMenu(t *testing.T, policy TransitionPolicy, menu []models.MenuItem) *fixture {
	t.Helper()
	menuRepo, err := repositories.NewMemoryMenuRepository(menu)
	require.NoError(t, err)

	repo := repositories.NewMemoryOrderRepository()
	transport := &recordingTransport{}
	publisher := &recordingPublisher{}

	formatter := receipt.NewFormatter(receipt.Plain, receipt.StoreHeader{Name: "TEST"}, time.UTC)
	formatter.Now = func() time.Time { return time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC) }
	printer := NewPrintService(formatter, transport, PrintSettings{
		BillPrinter:    "counter",
		KitchenPrinter: "kitchen",
		ReferenceCopy:  true,
	})
	notifier := NewOrderNotifier(publisher, nil)

	return &fixture{
		orders:    NewOrderService(repo, menuRepo, printer, notifier, nil, policy),
		dineIn:    NewDineInService(repo, menuRepo, printer, notifier, policy),
		repo:      repo,
		transport: transport,
		publisher: publisher,
	}
}

func item(name, price string, qty int) OrderItemRequest {
	return OrderItemRequest{Name: name, Price: decimal.RequireFromString(price), Quantity: qty}
}

func (f *fixture) takeaway(t *testing.T, items ...OrderItemRequest) *models.Order {
	t.Helper()
	if len(items) == 0 {
		items = []OrderItemRequest{item("Burger", "8.99", 1)}
	}
	resp, err := f.orders.CreateOrder(context.Background(), CreateOrderRequest{
		Items:     items,
		OrderType: models.OrderTypeTakeaway,
	})
	require.NoError(t, err)
	return resp.Order
}

func (f *fixture) openTable(t *testing.T, table int, items ...OrderItemRequest) *models.Order {
	t.Helper()
	o, err := f.dineIn.CreateDineInOrder(context.Background(), CreateDineInOrderRequest{TableNo: table, Items: items})
	require.NoError(t, err)
	return o
}
