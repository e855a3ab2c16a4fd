// Package rabbitmq publishes sale events to a topic exchange.
package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/Janetzy-GS18/Proyecto-PIA/internal/events"
)

const (
	ExchangeName = "shop.sales"
	ExchangeType = "topic"
)

// SetupConn handles the connection and exchange declaration.
func SetupConn(url string) (*amqp.Connection, *amqp.Channel, error) {
	var conn *amqp.Connection
	var err error

	// Simple retry loop for container startup ordering.
	for i := 0; i < 5; i++ {
		conn, err = amqp.Dial(url)
		if err == nil {
			break
		}
		slog.Warn("rabbitmq not reachable yet", "attempt", i+1, "error", err)
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("rabbitmq: connect: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		return nil, nil, fmt.Errorf("rabbitmq: open channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		ExchangeName, // name
		ExchangeType, // type
		true,         // durable
		false,        // auto-deleted
		false,        // internal
		false,        // no-wait
		nil,          // arguments
	)
	if err != nil {
		return nil, nil, fmt.Errorf("rabbitmq: declare exchange: %w", err)
	}

	return conn, ch, nil
}

type publisher struct {
	ch *amqp.Channel
}

// NewPublisher returns an events.Publisher backed by an open channel.
func NewPublisher(ch *amqp.Channel) events.Publisher {
	return &publisher{ch: ch}
}

func (p *publisher) PublishSale(ctx context.Context, evt events.SaleEvent) error {
	body, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("rabbitmq: marshal sale event: %w", err)
	}

	// Routing key: sale.<type> (e.g. sale.completed, sale.voided).
	routingKey := "sale." + evt.Type

	return p.ch.PublishWithContext(ctx,
		ExchangeName,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
}
