package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

// ordersExchange is the topic exchange order events are published on.
// Downstream consumers (kitchen displays, analytics) bind with routing
// keys like "order.created" or "order.#".
const ordersExchange = "orders"

// Broker publishes order events to RabbitMQ. A nil *Broker is a valid
// no-op publisher, so the server runs unchanged when AMQP_URL is unset.
type Broker struct {
	conn    *amqp091.Connection
	channel *amqp091.Channel
}

// DialBroker connects to RabbitMQ and declares the orders exchange.
// An empty url returns a nil broker and no error.
func DialBroker(url string) (*Broker, error) {
	if url == "" {
		return nil, nil
	}

	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}
	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := channel.ExchangeDeclare(
		ordersExchange, // name
		"topic",        // type
		true,           // durable
		false,          // auto-deleted
		false,          // internal
		false,          // no-wait
		nil,            // arguments
	); err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	return &Broker{conn: conn, channel: channel}, nil
}

// Publish sends one JSON message on the orders exchange.
func (b *Broker) Publish(ctx context.Context, routingKey string, message interface{}) error {
	if b == nil {
		return nil
	}

	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := b.channel.PublishWithContext(
		ctx,
		ordersExchange, // exchange
		routingKey,     // routing key
		false,          // mandatory
		false,          // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
		},
	); err != nil {
		return fmt.Errorf("publish message: %w", err)
	}
	return nil
}

// Close shuts down the channel and connection.
func (b *Broker) Close() error {
	if b == nil {
		return nil
	}
	b.channel.Close()
	return b.conn.Close()
}
