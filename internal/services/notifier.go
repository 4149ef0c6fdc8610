package services

import (
	"context"
	"time"

	"restaurant_pos_backend/internal/events"
	"restaurant_pos_backend/internal/models"
	"restaurant_pos_backend/internal/repositories"
	"restaurant_pos_backend/pkg/utils"
)

const sideEffectTimeout = 3 * time.Second

// OrderNotifier runs the non-fatal follow-ups of every order write:
// publishing the lifecycle event and dropping status-board snapshots.
type OrderNotifier struct {
	publisher events.Publisher
	cache     repositories.BoardCache
	now       func() time.Time
}

func NewOrderNotifier(publisher events.Publisher, cache repositories.BoardCache) *OrderNotifier {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	if cache == nil {
		cache = repositories.NoopBoardCache{}
	}
	return &OrderNotifier{publisher: publisher, cache: cache, now: time.Now}
}

// OrderChanged never fails; problems are logged. It detaches from the
// request context so a client hanging up does not drop the event.
func (n *OrderNotifier) OrderChanged(ctx context.Context, eventType string, order *models.Order) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sideEffectTimeout)
	defer cancel()

	fields := map[string]interface{}{"order_id": order.ID, "order_number": order.OrderNumber, "event": eventType}

	if err := n.cache.Invalidate(ctx); err != nil {
		utils.LogWarn(err, "Failed to invalidate status board cache", fields)
	}
	if err := n.publisher.Publish(ctx, events.NewOrderEvent(eventType, order, n.now())); err != nil {
		utils.LogWarn(err, "Failed to publish order event", fields)
	}
}
