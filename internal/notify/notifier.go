// Package notify fans order lifecycle events out to live listeners:
// WebSocket subscribers get them immediately, and a RabbitMQ exchange
// carries them to out-of-process consumers. Event delivery is best
// effort; the order itself is already committed when events fire.
package notify

import (
	"context"
	"encoding/json"
	"log"

	"github.com/google/uuid"
	"github.com/littlelemon/api/internal/database"
	"github.com/littlelemon/api/internal/ws"
)

// orderEvent is the payload shared by the websocket and broker paths.
type orderEvent struct {
	OrderID      int64  `json:"order_id"`
	UserID       int64  `json:"user_id"`
	DeliveryCrew *int64 `json:"delivery_crew"`
	Status       int16  `json:"status"`
	Total        string `json:"total"`
}

// Notifier implements the order event sink over a websocket hub and an
// optional broker. Either target may be nil.
type Notifier struct {
	hub    *ws.Hub
	broker *Broker
}

func NewNotifier(hub *ws.Hub, broker *Broker) *Notifier {
	return &Notifier{hub: hub, broker: broker}
}

// OrderCreated announces a freshly placed order.
func (n *Notifier) OrderCreated(ctx context.Context, o database.Order) {
	n.emit(ctx, ws.EventOrderCreated, o)
}

// OrderUpdated announces an assignment or delivery status change.
func (n *Notifier) OrderUpdated(ctx context.Context, o database.Order) {
	n.emit(ctx, ws.EventOrderUpdated, o)
}

func (n *Notifier) emit(ctx context.Context, eventType string, o database.Order) {
	payload := orderEvent{
		OrderID: o.ID,
		UserID:  o.UserID,
		Status:  o.Status,
		Total:   numericString(o),
	}
	if o.DeliveryCrewID.Valid {
		crew := o.DeliveryCrewID.Int64
		payload.DeliveryCrew = &crew
	}

	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf("ERROR: marshal order event: %v", err)
		return
	}

	if n.hub != nil {
		event := ws.Event{ID: uuid.New(), Type: eventType, Payload: body}
		n.hub.BroadcastToUser(o.UserID, event)
		n.hub.BroadcastToStaff(event)
		if o.DeliveryCrewID.Valid {
			n.hub.BroadcastToUser(o.DeliveryCrewID.Int64, event)
		}
	}

	if err := n.broker.Publish(ctx, eventType, payload); err != nil {
		log.Printf("ERROR: publish order event: %v", err)
	}
}

func numericString(o database.Order) string {
	if !o.Total.Valid {
		return "0.00"
	}
	val, err := o.Total.Value()
	if err != nil || val == nil {
		return "0.00"
	}
	s, _ := val.(string)
	return s
}
