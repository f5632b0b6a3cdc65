package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cravecart/internal/domain"
	"cravecart/internal/events"
	"cravecart/internal/realtime"
	"cravecart/internal/repo"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// CartLine names a menu item of the chosen restaurant. Names and prices are
// looked up in the catalog.
type CartLine struct {
	ID       string `json:"id"`
	Quantity int    `json:"quantity"`
}

// CreateOrderRequest is a customer's checkout. A blank delivery address is
// filled from the customer's profile.
type CreateOrderRequest struct {
	RestaurantID    string               `json:"restaurantId"`
	Items           []CartLine           `json:"items"`
	DeliveryAddress string               `json:"deliveryAddress"`
	PaymentMethod   domain.PaymentMethod `json:"paymentMethod"`
}

// OrderService is the order lifecycle manager.
type OrderService interface {
	CreateOrder(ctx context.Context, customer domain.Customer, req CreateOrderRequest) (*domain.Order, error)
	AcceptOrder(ctx context.Context, orderId uuid.UUID, restaurant domain.Restaurant) error
	ClaimOrder(ctx context.Context, orderId uuid.UUID, driver domain.Driver) error
	AdvanceDelivery(ctx context.Context, orderId uuid.UUID, driver domain.Driver, target domain.OrderStatus) error
	GetOrder(ctx context.Context, orderId uuid.UUID, actor domain.Actor) (*domain.Order, error)
	ListOrders(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, error)
	SubscribeOrders(ctx context.Context, filter domain.OrderFilter) (*realtime.Subscription, error)
}

type orderService struct {
	orderRepo   repo.OrderRepo
	catalogRepo repo.CatalogRepo
	profileRepo repo.ProfileRepo
	hub         *realtime.Hub
	publisher   events.Publisher
	pricing     domain.Pricing
	log         *logrus.Entry
	now         func() time.Time
}

func NewOrderService(
	orderRepo repo.OrderRepo,
	catalogRepo repo.CatalogRepo,
	profileRepo repo.ProfileRepo,
	hub *realtime.Hub,
	publisher events.Publisher,
	pricing domain.Pricing,
	log *logrus.Entry,
) OrderService {
	return &orderService{
		orderRepo:   orderRepo,
		catalogRepo: catalogRepo,
		profileRepo: profileRepo,
		hub:         hub,
		publisher:   publisher,
		pricing:     pricing,
		log:         log,
		now:         time.Now,
	}
}

func (s *orderService) CreateOrder(ctx context.Context, customer domain.Customer, req CreateOrderRequest) (*domain.Order, error) {
	if err := validateCreate(req); err != nil {
		return nil, err
	}
	if req.PaymentMethod == "" {
		req.PaymentMethod = domain.PaymentCashOnDelivery
	}
	address, err := s.deliveryAddress(ctx, customer, req.DeliveryAddress)
	if err != nil {
		return nil, err
	}
	store, items, err := s.priceCart(ctx, req)
	if err != nil {
		return nil, err
	}

	quote := s.pricing.Quote(items)
	now := s.now().UTC()
	order := &domain.Order{
		ID:              uuid.New(),
		Items:           items,
		Subtotal:        quote.Subtotal,
		DeliveryFee:     quote.DeliveryFee,
		Tax:             quote.Tax,
		Total:           quote.Total,
		RestaurantID:    store.ID,
		RestaurantName:  store.Name,
		CustomerID:      customer.UID,
		CustomerName:    customer.Name,
		DeliveryAddress: address,
		PaymentMethod:   req.PaymentMethod,
		Status:          domain.OrderPlaced,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.orderRepo.CreateOrder(ctx, order); err != nil {
		return nil, unavailable("create order", err)
	}

	s.log.WithFields(logrus.Fields{
		"action":   "order_created",
		"order_id": order.ID,
		"customer": customer.UID,
		"total":    order.Total.StringFixed(2),
	}).Info("order placed")

	s.emit(ctx, events.OrderCreated, order, "")
	return order, nil
}

func validateCreate(req CreateOrderRequest) error {
	if len(req.Items) == 0 {
		return fmt.Errorf("%w: cart is empty", domain.ErrInvalidOrder)
	}
	if strings.TrimSpace(req.RestaurantID) == "" {
		return fmt.Errorf("%w: restaurant is required", domain.ErrInvalidOrder)
	}
	if req.PaymentMethod != "" && !req.PaymentMethod.IsValid() {
		return fmt.Errorf("%w: unknown payment method %q", domain.ErrInvalidOrder, req.PaymentMethod)
	}
	for i, line := range req.Items {
		switch {
		case strings.TrimSpace(line.ID) == "":
			return fmt.Errorf("%w: item %d has no id", domain.ErrInvalidOrder, i)
		case line.Quantity < 1:
			return fmt.Errorf("%w: item %q quantity must be positive", domain.ErrInvalidOrder, line.ID)
		}
	}
	return nil
}

func (s *orderService) deliveryAddress(ctx context.Context, customer domain.Customer, requested string) (string, error) {
	if address := strings.TrimSpace(requested); address != "" {
		return address, nil
	}
	profile, err := s.profileRepo.FindProfile(ctx, customer.UID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
	case err != nil:
		return "", unavailable("find profile", err)
	case strings.TrimSpace(profile.Address) != "":
		return strings.TrimSpace(profile.Address), nil
	}
	return "", fmt.Errorf("%w: delivery address is required", domain.ErrInvalidOrder)
}

// priceCart resolves every cart line against the restaurant's menu.
func (s *orderService) priceCart(ctx context.Context, req CreateOrderRequest) (*domain.Storefront, []domain.Item, error) {
	store, err := s.catalogRepo.FindStorefront(ctx, req.RestaurantID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil, fmt.Errorf("%w: unknown restaurant %q", domain.ErrInvalidOrder, req.RestaurantID)
	}
	if err != nil {
		return nil, nil, unavailable("find restaurant", err)
	}

	items := make([]domain.Item, 0, len(req.Items))
	for _, line := range req.Items {
		menu, ok := store.Item(line.ID)
		if !ok {
			return nil, nil, fmt.Errorf("%w: %s has no menu item %q", domain.ErrInvalidOrder, store.Name, line.ID)
		}
		if menu.Price.IsNegative() || !domain.WholeCents(menu.Price) {
			return nil, nil, fmt.Errorf("%w: menu item %q price %s is not a whole number of cents", domain.ErrInvalidOrder, menu.ID, menu.Price)
		}
		items = append(items, domain.Item{ID: menu.ID, Name: menu.Name, UnitPrice: menu.Price, Quantity: line.Quantity})
	}
	return store, items, nil
}

// AcceptOrder moves a placed order to cooking. Orders past placed are left
// alone so a repeated accept is harmless.
func (s *orderService) AcceptOrder(ctx context.Context, orderId uuid.UUID, restaurant domain.Restaurant) error {
	order, err := s.find(ctx, orderId)
	if err != nil {
		return err
	}

	log := s.log.WithFields(logrus.Fields{"action": "order_accept", "order_id": orderId, "restaurant": restaurant.PartnerID})
	if order.Status != domain.OrderPlaced {
		log.WithField("status", order.Status).Debug("accept ignored, order already past placed")
		return nil
	}

	applied, err := s.orderRepo.UpdateStatus(ctx, orderId, domain.OrderPlaced, domain.OrderCooking)
	if err != nil {
		return unavailable("accept order", err)
	}
	if !applied {
		log.Debug("accept ignored, another session accepted first")
		return nil
	}

	log.Info("order accepted")
	order.Status = domain.OrderCooking
	s.emit(ctx, events.OrderAccepted, order, "")
	return nil
}

// ClaimOrder assigns driver to a cooking order nobody has claimed yet.
func (s *orderService) ClaimOrder(ctx context.Context, orderId uuid.UUID, driver domain.Driver) error {
	order, err := s.find(ctx, orderId)
	if err != nil {
		return err
	}
	if order.Status != domain.OrderCooking {
		return fmt.Errorf("%w: order is %s, only cooking orders can be claimed", domain.ErrIllegalTransition, order.Status)
	}
	if order.IsClaimed() {
		return fmt.Errorf("%w: order already claimed", domain.ErrIllegalTransition)
	}

	applied, err := s.orderRepo.AssignDriver(ctx, orderId, driver.PartnerID, driver.Name)
	if err != nil {
		return unavailable("claim order", err)
	}
	if !applied {
		return fmt.Errorf("%w: order was claimed by another driver", domain.ErrIllegalTransition)
	}

	s.log.WithFields(logrus.Fields{"action": "order_claimed", "order_id": orderId, "driver": driver.PartnerID}).Info("order claimed")
	order.DriverID = &driver.PartnerID
	order.DriverName = &driver.Name
	s.emit(ctx, events.OrderClaimed, order, "")
	return nil
}

// AdvanceDelivery moves a claimed order one step towards delivered.
func (s *orderService) AdvanceDelivery(ctx context.Context, orderId uuid.UUID, driver domain.Driver, target domain.OrderStatus) error {
	order, err := s.find(ctx, orderId)
	if err != nil {
		return err
	}
	if !order.IsClaimed() {
		return fmt.Errorf("%w: order has no driver", domain.ErrIllegalTransition)
	}
	if !order.AssignedTo(driver.PartnerID) {
		return fmt.Errorf("%w: order is assigned to another driver", domain.ErrUnauthorized)
	}
	if target != domain.OrderOutForDelivery && target != domain.OrderDelivered {
		return fmt.Errorf("%w: drivers cannot set status %q", domain.ErrIllegalTransition, target)
	}
	if next, ok := order.Status.Next(); !ok || next != target {
		return fmt.Errorf("%w: %s cannot move to %s", domain.ErrIllegalTransition, order.Status, target)
	}

	from := order.Status
	applied, err := s.orderRepo.AdvanceDelivery(ctx, orderId, driver.PartnerID, from, target)
	if err != nil {
		return unavailable("advance delivery", err)
	}
	if !applied {
		return fmt.Errorf("%w: order changed concurrently", domain.ErrIllegalTransition)
	}

	s.log.WithFields(logrus.Fields{
		"action":   "order_advanced",
		"order_id": orderId,
		"driver":   driver.PartnerID,
		"from":     from,
		"to":       target,
	}).Info("delivery advanced")
	order.Status = target
	s.emit(ctx, events.OrderStatusAdvanced, order, from)
	return nil
}

func (s *orderService) GetOrder(ctx context.Context, orderId uuid.UUID, actor domain.Actor) (*domain.Order, error) {
	order, err := s.find(ctx, orderId)
	if err != nil {
		return nil, err
	}
	if !canRead(actor, order) {
		return nil, domain.ErrUnauthorized
	}
	return order, nil
}

func canRead(actor domain.Actor, order *domain.Order) bool {
	switch a := actor.(type) {
	case domain.Customer:
		return order.CustomerID == a.UID
	case domain.Driver:
		return !order.IsClaimed() || order.AssignedTo(a.PartnerID)
	case domain.Restaurant, domain.Admin:
		return true
	default:
		return false
	}
}

func (s *orderService) ListOrders(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, error) {
	orders, err := s.orderRepo.FindOrders(ctx, filter)
	if err != nil {
		return nil, unavailable("list orders", err)
	}
	return orders, nil
}

func (s *orderService) SubscribeOrders(ctx context.Context, filter domain.OrderFilter) (*realtime.Subscription, error) {
	sub, err := s.hub.Subscribe(ctx, filter)
	if err != nil {
		return nil, unavailable("subscribe orders", err)
	}
	return sub, nil
}

func (s *orderService) find(ctx context.Context, orderId uuid.UUID) (*domain.Order, error) {
	order, err := s.orderRepo.FindById(ctx, orderId)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("order %s: %w", orderId, domain.ErrNotFound)
	}
	if err != nil {
		return nil, unavailable("find order", err)
	}
	return order, nil
}

// emit runs after the write has landed; publish failures are logged only.
func (s *orderService) emit(ctx context.Context, typ events.Type, order *domain.Order, from domain.OrderStatus) {
	ev := events.OrderEvent{
		Type:    typ,
		OrderID: order.ID,
		From:    from,
		To:      order.Status,
		Order:   order,
		At:      s.now().UTC(),
	}
	if order.DriverID != nil {
		ev.DriverID = *order.DriverID
	}
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{"action": "publish_event", "order_id": order.ID, "type": typ}).Warn("event publish failed")
	}
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, domain.ErrCollaboratorUnavailable, err)
}
