package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"cravecart/internal/domain"

	"github.com/google/uuid"
)

// OrderRepo is the document store contract the lifecycle manager consumes.
// The guarded writes report applied=false when the guard did not hold; the
// stored order is untouched in that case.
type OrderRepo interface {
	CreateOrder(ctx context.Context, order *domain.Order) error
	FindById(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	FindOrders(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to domain.OrderStatus) (applied bool, err error)
	AssignDriver(ctx context.Context, id uuid.UUID, driverID, driverName string) (applied bool, err error)
	AdvanceDelivery(ctx context.Context, id uuid.UUID, driverID string, from, to domain.OrderStatus) (applied bool, err error)
	FindStuckOrders(ctx context.Context, olderThan time.Duration) ([]domain.Order, error)
}

type orderRepo struct {
	db *sql.DB
}

func NewOrderRepo(db *sql.DB) OrderRepo {
	return &orderRepo{db: db}
}

const orderColumns = `id, items, subtotal, delivery_fee, tax, total, restaurant_id, restaurant_name,
	customer_id, customer_name, delivery_address, payment_method, driver_id, driver_name,
	status, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	var (
		order domain.Order
		items []byte
	)
	err := row.Scan(
		&order.ID,
		&items,
		&order.Subtotal,
		&order.DeliveryFee,
		&order.Tax,
		&order.Total,
		&order.RestaurantID,
		&order.RestaurantName,
		&order.CustomerID,
		&order.CustomerName,
		&order.DeliveryAddress,
		&order.PaymentMethod,
		&order.DriverID,
		&order.DriverName,
		&order.Status,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(items, &order.Items); err != nil {
		return nil, fmt.Errorf("decode items of order %s: %w", order.ID, err)
	}
	return &order, nil
}

func (r *orderRepo) CreateOrder(ctx context.Context, order *domain.Order) error {
	items, err := json.Marshal(order.Items)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO orders (`+orderColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
		order.ID, items, order.Subtotal, order.DeliveryFee, order.Tax, order.Total,
		order.RestaurantID, order.RestaurantName, order.CustomerID, order.CustomerName,
		order.DeliveryAddress, order.PaymentMethod, order.DriverID, order.DriverName,
		order.Status, order.CreatedAt, order.UpdatedAt,
	)
	return err
}

func (r *orderRepo) FindById(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	order, err := scanOrder(r.db.QueryRowContext(ctx, "SELECT "+orderColumns+" FROM orders WHERE id = $1", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (r *orderRepo) FindOrders(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, error) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if filter.CustomerID != "" {
		add("customer_id = $%d", filter.CustomerID)
	}
	if filter.DriverID != "" {
		add("driver_id = $%d", filter.DriverID)
	}
	if filter.Status != "" {
		add("status = $%d", filter.Status)
	}
	if filter.Unclaimed {
		conds = append(conds, "driver_id IS NULL")
	}

	query := "SELECT " + orderColumns + " FROM orders"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC"

	return r.queryOrders(ctx, query, args...)
}

func (r *orderRepo) queryOrders(ctx context.Context, query string, args ...any) ([]domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := []domain.Order{}
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *order)
	}
	return orders, rows.Err()
}

func (r *orderRepo) UpdateStatus(ctx context.Context, id uuid.UUID, from, to domain.OrderStatus) (bool, error) {
	return r.exec(ctx,
		"UPDATE orders SET status = $1, updated_at = now() WHERE id = $2 AND status = $3",
		to, id, from,
	)
}

func (r *orderRepo) AssignDriver(ctx context.Context, id uuid.UUID, driverID, driverName string) (bool, error) {
	return r.exec(ctx,
		`UPDATE orders SET driver_id = $1, driver_name = $2, updated_at = now()
		WHERE id = $3 AND status = $4 AND driver_id IS NULL`,
		driverID, driverName, id, domain.OrderCooking,
	)
}

func (r *orderRepo) AdvanceDelivery(ctx context.Context, id uuid.UUID, driverID string, from, to domain.OrderStatus) (bool, error) {
	return r.exec(ctx,
		"UPDATE orders SET status = $1, updated_at = now() WHERE id = $2 AND status = $3 AND driver_id = $4",
		to, id, from, driverID,
	)
}

func (r *orderRepo) exec(ctx context.Context, query string, args ...any) (bool, error) {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *orderRepo) FindStuckOrders(ctx context.Context, olderThan time.Duration) ([]domain.Order, error) {
	return r.queryOrders(ctx,
		"SELECT "+orderColumns+" FROM orders WHERE status <> $1 AND updated_at < now() - make_interval(secs => $2) ORDER BY updated_at",
		domain.OrderDelivered, olderThan.Seconds(),
	)
}
