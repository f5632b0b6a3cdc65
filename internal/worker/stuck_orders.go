package worker

import (
	"context"
	"time"

	"cravecart/internal/repo"

	"github.com/sirupsen/logrus"
)

// StuckOrderMonitor periodically reports orders that have not moved for a
// while. It never changes an order: there is no compensating transition.
type StuckOrderMonitor struct {
	orderRepo  repo.OrderRepo
	interval   time.Duration
	stuckAfter time.Duration
	log        *logrus.Entry
}

func NewStuckOrderMonitor(
	orderRepo repo.OrderRepo,
	interval time.Duration,
	stuckAfter time.Duration,
	log *logrus.Entry,
) *StuckOrderMonitor {
	return &StuckOrderMonitor{
		orderRepo:  orderRepo,
		interval:   interval,
		stuckAfter: stuckAfter,
		log:        log,
	}
}

func (m *StuckOrderMonitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.log.Info("stuck order monitor started")

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := m.Check(ctx); err != nil {
				m.log.WithError(err).Warn("stuck order check failed")
			}
		}
	}
}

// Check logs every order idle for longer than stuckAfter and returns how many
// there were.
func (m *StuckOrderMonitor) Check(ctx context.Context) (int, error) {
	stuckOrders, err := m.orderRepo.FindStuckOrders(ctx, m.stuckAfter)
	if err != nil {
		return 0, err
	}

	for _, order := range stuckOrders {
		fields := logrus.Fields{
			"action":   "order_stuck",
			"order_id": order.ID,
			"status":   order.Status,
			"idle_for": time.Since(order.UpdatedAt).Round(time.Second).String(),
		}
		if order.DriverID != nil {
			fields["driver"] = *order.DriverID
		}
		m.log.WithFields(fields).Warn("order has not progressed")
	}
	return len(stuckOrders), nil
}
