package realtime

import (
	"context"
	"sync"

	"cravecart/internal/domain"
	"cravecart/internal/events"

	"github.com/sirupsen/logrus"
)

// Querier is the read side of the order store the hub re-evaluates.
type Querier interface {
	FindOrders(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, error)
}

// Hub pushes fresh order snapshots to every subscription whenever it is told
// that something changed. Notifications arriving while a refresh is running
// collapse into one further refresh.
type Hub struct {
	store   Querier
	log     *logrus.Entry
	changed chan struct{}

	mu   sync.Mutex
	subs map[*Subscription]struct{}
}

func NewHub(store Querier, log *logrus.Entry) *Hub {
	return &Hub{
		store:   store,
		log:     log,
		changed: make(chan struct{}, 1),
		subs:    make(map[*Subscription]struct{}),
	}
}

// Notify marks the order set as changed. It never blocks.
func (h *Hub) Notify() {
	select {
	case h.changed <- struct{}{}:
	default:
	}
}

// Publish lets the hub sit in an events.Multi next to remote publishers.
func (h *Hub) Publish(_ context.Context, _ events.OrderEvent) error {
	h.Notify()
	return nil
}

func (h *Hub) Run(ctx context.Context) {
	h.log.Info("realtime hub started")
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case <-h.changed:
			h.refresh(ctx)
		}
	}
}

// Subscribe registers filter and delivers the first snapshot before returning.
// The subscription ends when Close is called or ctx is done.
func (h *Hub) Subscribe(ctx context.Context, filter domain.OrderFilter) (*Subscription, error) {
	snapshot, err := h.store.FindOrders(ctx, filter)
	if err != nil {
		return nil, err
	}

	sub := newSubscription(filter, h.remove)
	sub.deliver(snapshot)

	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()

	// A change may have landed between the query and registration.
	h.Notify()

	go func() {
		select {
		case <-ctx.Done():
			sub.Close()
		case <-sub.done:
		}
	}()
	return sub, nil
}

func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

func (h *Hub) remove(sub *Subscription) {
	h.mu.Lock()
	delete(h.subs, sub)
	h.mu.Unlock()
}

func (h *Hub) snapshotSubs() []*Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()
	subs := make([]*Subscription, 0, len(h.subs))
	for s := range h.subs {
		subs = append(subs, s)
	}
	return subs
}

func (h *Hub) refresh(ctx context.Context) {
	for _, sub := range h.snapshotSubs() {
		orders, err := h.store.FindOrders(ctx, sub.filter)
		if err != nil {
			h.log.WithError(err).Warn("refresh subscription")
			continue
		}
		sub.deliver(orders)
	}
}

func (h *Hub) closeAll() {
	for _, sub := range h.snapshotSubs() {
		sub.Close()
	}
}
