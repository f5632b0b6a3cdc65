package realtime

import (
	"sync"

	"cravecart/internal/domain"
)

// Subscription is a cancellable stream of order snapshots. Each value on C is
// the complete set of orders matching the filter at that moment. Only the
// newest undelivered snapshot is kept.
type Subscription struct {
	filter   domain.OrderFilter
	out      chan []domain.Order
	done     chan struct{}
	onClose  func(*Subscription)
	mu       sync.Mutex
	closed   bool
	closeOne sync.Once
}

func newSubscription(filter domain.OrderFilter, onClose func(*Subscription)) *Subscription {
	return &Subscription{
		filter:  filter,
		out:     make(chan []domain.Order, 1),
		done:    make(chan struct{}),
		onClose: onClose,
	}
}

func (s *Subscription) C() <-chan []domain.Order { return s.out }

func (s *Subscription) Filter() domain.OrderFilter { return s.filter }

// Done is closed once the subscription has ended.
func (s *Subscription) Done() <-chan struct{} { return s.done }

func (s *Subscription) deliver(orders []domain.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.out <- orders:
		return
	default:
	}
	// Drop the stale snapshot the consumer has not read yet.
	select {
	case <-s.out:
	default:
	}
	s.out <- orders
}

// Close stops delivery. Any unread snapshot is discarded and C is closed, so
// nothing is received after Close returns. Close is safe to call more than once.
func (s *Subscription) Close() {
	s.closeOne.Do(func() {
		s.mu.Lock()
		s.closed = true
		select {
		case <-s.out:
		default:
		}
		close(s.out)
		close(s.done)
		s.mu.Unlock()
		if s.onClose != nil {
			s.onClose(s)
		}
	})
}
