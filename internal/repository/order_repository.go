package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/fulfillment-api/internal/models"
)

const orderColumns = `id, customer_id, item_id, quantity, date,
	material_cost_per_fulfillment, status, tracking_number,
	email_subject, email_body, created_at`

// OrderRepository manages persistence for fulfillment orders.
type OrderRepository struct {
	db *sqlx.DB
}

// NewOrderRepository constructs an OrderRepository.
func NewOrderRepository(db *sqlx.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// List returns orders ordered by creation time descending, optionally
// restricted to one customer.
func (r *OrderRepository) List(ctx context.Context, filter models.OrderFilter) ([]models.Order, int, error) {
	base := "FROM orders WHERE 1=1"
	var args []interface{}

	if filter.CustomerID != nil {
		base += fmt.Sprintf(" AND customer_id = $%d", len(args)+1)
		args = append(args, *filter.CustomerID)
	}

	page, size := models.NormalizePage(filter.Page, filter.PageSize)
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY created_at DESC LIMIT %d OFFSET %d", orderColumns, base, size, offset)
	var orders []models.Order
	if err := r.db.SelectContext(ctx, &orders, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}

	return orders, total, nil
}

// FindByID fetches an order by ID.
func (r *OrderRepository) FindByID(ctx context.Context, id int64) (*models.Order, error) {
	query := fmt.Sprintf("SELECT %s FROM orders WHERE id = $1", orderColumns)
	var order models.Order
	if err := r.db.GetContext(ctx, &order, query, id); err != nil {
		return nil, err
	}
	return &order, nil
}

// Create inserts a new order record and assigns its generated id.
func (r *OrderRepository) Create(ctx context.Context, order *models.Order) error {
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO orders
	(customer_id, item_id, quantity, date, material_cost_per_fulfillment,
	 status, tracking_number, email_subject, email_body, created_at)
	VALUES (:customer_id, :item_id, :quantity, :date, :material_cost_per_fulfillment,
	 :status, :tracking_number, :email_subject, :email_body, :created_at)
	RETURNING id`
	rows, err := r.db.NamedQueryContext(ctx, query, order)
	if err != nil {
		return fmt.Errorf("create order: %w", err)
	}
	defer rows.Close()
	if rows.Next() {
		if err := rows.Scan(&order.ID); err != nil {
			return fmt.Errorf("scan order id: %w", err)
		}
	}
	return rows.Err()
}

// Update modifies an existing order record.
func (r *OrderRepository) Update(ctx context.Context, order *models.Order) error {
	const query = `UPDATE orders SET customer_id = :customer_id, item_id = :item_id,
	quantity = :quantity, date = :date,
	material_cost_per_fulfillment = :material_cost_per_fulfillment,
	status = :status, tracking_number = :tracking_number,
	email_subject = :email_subject, email_body = :email_body WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, order); err != nil {
		return fmt.Errorf("update order: %w", err)
	}
	return nil
}

// Delete removes an order record.
func (r *OrderRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM orders WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check order delete rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
