package events

import (
	"context"
	"errors"
	"time"

	"cravecart/internal/domain"

	"github.com/google/uuid"
)

type Type string

const (
	OrderCreated        Type = "order.created"
	OrderAccepted       Type = "order.accepted"
	OrderClaimed        Type = "order.claimed"
	OrderStatusAdvanced Type = "order.advanced"
)

// OrderEvent describes one applied change. Order is the state after it.
type OrderEvent struct {
	Type     Type               `json:"type"`
	OrderID  uuid.UUID          `json:"orderId"`
	From     domain.OrderStatus `json:"from,omitempty"`
	To       domain.OrderStatus `json:"to"`
	DriverID string             `json:"driverId,omitempty"`
	Order    *domain.Order      `json:"order,omitempty"`
	At       time.Time          `json:"at"`
}

type Publisher interface {
	Publish(ctx context.Context, ev OrderEvent) error
}

type PublisherFunc func(ctx context.Context, ev OrderEvent) error

func (f PublisherFunc) Publish(ctx context.Context, ev OrderEvent) error { return f(ctx, ev) }

// Multi delivers each event to every publisher and joins their failures.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, ev OrderEvent) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
