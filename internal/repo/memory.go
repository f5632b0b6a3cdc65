package repo

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"cravecart/internal/domain"

	"github.com/google/uuid"
)

// MemoryStore is an in-process document store for tests and the simulator.
// It honours the same guarded-write semantics as the Postgres repos.
type MemoryStore struct {
	mu       sync.RWMutex
	orders   map[uuid.UUID]domain.Order
	partners map[string]domain.Partner
	codes    map[string]otpEntry
	stores   map[string]domain.Storefront
	profiles map[string]domain.Profile
	now      func() time.Time
}

type otpEntry struct {
	code      string
	sentAt    time.Time
	expiresAt time.Time
	attempts  int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		orders:   make(map[uuid.UUID]domain.Order),
		partners: make(map[string]domain.Partner),
		codes:    make(map[string]otpEntry),
		stores:   make(map[string]domain.Storefront),
		profiles: make(map[string]domain.Profile),
		now:      time.Now,
	}
}

func (m *MemoryStore) Orders() OrderRepo     { return memoryOrders{m} }
func (m *MemoryStore) Partners() PartnerRepo { return memoryPartners{m} }
func (m *MemoryStore) OTPs() OTPRepo         { return memoryOTPs{m} }
func (m *MemoryStore) Catalog() CatalogRepo  { return memoryCatalog{m} }
func (m *MemoryStore) Profiles() ProfileRepo { return memoryProfiles{m} }

type memoryOrders struct{ m *MemoryStore }

func (r memoryOrders) CreateOrder(_ context.Context, order *domain.Order) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, exists := r.m.orders[order.ID]; exists {
		return fmt.Errorf("order %s already exists", order.ID)
	}
	r.m.orders[order.ID] = order.Clone()
	return nil
}

func (r memoryOrders) FindById(_ context.Context, id uuid.UUID) (*domain.Order, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	order, ok := r.m.orders[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	c := order.Clone()
	return &c, nil
}

func (r memoryOrders) FindOrders(_ context.Context, filter domain.OrderFilter) ([]domain.Order, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	orders := []domain.Order{}
	for _, o := range r.m.orders {
		if filter.Matches(&o) {
			orders = append(orders, o.Clone())
		}
	}
	sortNewestFirst(orders)
	return orders, nil
}

func (r memoryOrders) UpdateStatus(_ context.Context, id uuid.UUID, from, to domain.OrderStatus) (bool, error) {
	return r.mutate(id, func(o *domain.Order) bool {
		if o.Status != from {
			return false
		}
		o.Status = to
		return true
	})
}

func (r memoryOrders) AssignDriver(_ context.Context, id uuid.UUID, driverID, driverName string) (bool, error) {
	return r.mutate(id, func(o *domain.Order) bool {
		if o.Status != domain.OrderCooking || o.IsClaimed() {
			return false
		}
		o.DriverID = &driverID
		o.DriverName = &driverName
		return true
	})
}

func (r memoryOrders) AdvanceDelivery(_ context.Context, id uuid.UUID, driverID string, from, to domain.OrderStatus) (bool, error) {
	return r.mutate(id, func(o *domain.Order) bool {
		if o.Status != from || !o.AssignedTo(driverID) {
			return false
		}
		o.Status = to
		return true
	})
}

func (r memoryOrders) mutate(id uuid.UUID, apply func(o *domain.Order) bool) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	order, ok := r.m.orders[id]
	if !ok {
		return false, nil
	}
	if !apply(&order) {
		return false, nil
	}
	order.UpdatedAt = r.m.now()
	r.m.orders[id] = order
	return true, nil
}

func (r memoryOrders) FindStuckOrders(_ context.Context, olderThan time.Duration) ([]domain.Order, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	cutoff := r.m.now().Add(-olderThan)
	orders := []domain.Order{}
	for _, o := range r.m.orders {
		if !o.Status.IsTerminal() && o.UpdatedAt.Before(cutoff) {
			orders = append(orders, o.Clone())
		}
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].UpdatedAt.Before(orders[j].UpdatedAt) })
	return orders, nil
}

func sortNewestFirst(orders []domain.Order) {
	sort.SliceStable(orders, func(i, j int) bool {
		if orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].ID.String() < orders[j].ID.String()
		}
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
}

type memoryPartners struct{ m *MemoryStore }

func (r memoryPartners) CreatePartner(_ context.Context, partner *domain.Partner) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, exists := r.m.partners[partner.Username]; exists {
		return ErrDuplicateUsername
	}
	r.m.partners[partner.Username] = *partner
	return nil
}

func (r memoryPartners) FindByUsername(_ context.Context, username string) (*domain.Partner, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	p, ok := r.m.partners[username]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

type memoryOTPs struct{ m *MemoryStore }

func (r memoryOTPs) SaveCode(_ context.Context, phone, code string, sentAt, expiresAt time.Time, minInterval time.Duration) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if prev, ok := r.m.codes[phone]; ok && prev.sentAt.After(sentAt.Add(-minInterval)) {
		return false, nil
	}
	r.m.codes[phone] = otpEntry{code: code, sentAt: sentAt, expiresAt: expiresAt}
	return true, nil
}

func (r memoryOTPs) ConsumeCode(_ context.Context, phone, code string, now time.Time, maxAttempts int) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	e, ok := r.m.codes[phone]
	if !ok {
		return domain.ErrUnauthorized
	}
	if e.code == code && now.Before(e.expiresAt) && e.attempts < maxAttempts {
		delete(r.m.codes, phone)
		return nil
	}
	e.attempts++
	if e.attempts >= maxAttempts {
		delete(r.m.codes, phone)
	} else {
		r.m.codes[phone] = e
	}
	return domain.ErrUnauthorized
}

type memoryCatalog struct{ m *MemoryStore }

func cloneStorefront(s domain.Storefront) domain.Storefront {
	s.Menu = append([]domain.MenuItem{}, s.Menu...)
	return s
}

func (r memoryCatalog) ListStorefronts(_ context.Context) ([]domain.Storefront, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	stores := make([]domain.Storefront, 0, len(r.m.stores))
	for _, s := range r.m.stores {
		stores = append(stores, cloneStorefront(s))
	}
	sort.Slice(stores, func(i, j int) bool { return stores[i].ID < stores[j].ID })
	return stores, nil
}

func (r memoryCatalog) FindStorefront(_ context.Context, id string) (*domain.Storefront, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	s, ok := r.m.stores[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	c := cloneStorefront(s)
	return &c, nil
}

func (r memoryCatalog) SaveStorefront(_ context.Context, s *domain.Storefront) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.stores[s.ID] = cloneStorefront(*s)
	return nil
}

type memoryProfiles struct{ m *MemoryStore }

func (r memoryProfiles) SaveProfile(_ context.Context, p *domain.Profile) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.profiles[p.CustomerID] = *p
	return nil
}

func (r memoryProfiles) FindProfile(_ context.Context, customerID string) (*domain.Profile, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	p, ok := r.m.profiles[customerID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}
