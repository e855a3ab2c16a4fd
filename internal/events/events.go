// Package events defines the sale lifecycle events emitted after ledger
// commits, and the port used to publish them.
//
// Publishing is strictly fire-and-forget: a broker failure never fails the
// business operation that produced the event.
package events

import (
	"context"
	"time"
)

const (
	TypeSaleCompleted = "completed"
	TypeSaleVoided    = "voided"
)

// SaleEvent describes one sale state transition.
type SaleEvent struct {
	Type       string    `json:"type"`
	SaleID     string    `json:"sale_id"`
	CustomerID string    `json:"customer_id"`
	Total      string    `json:"total"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Publisher is the outbound port for sale events.
type Publisher interface {
	PublishSale(ctx context.Context, evt SaleEvent) error
}

// NopPublisher discards events. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) PublishSale(context.Context, SaleEvent) error { return nil }
