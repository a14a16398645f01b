package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/fulfillment-api/internal/models"
)

const customerColumns = `id, email, name, first_name, last_name, phone, company,
	address_line1, address_line2, city, county, state, postal_code, country, notes,
	rate_per_m3, prep_cost_per_unit, fulfillment_cost_per_unit, created_at, updated_at`

// CustomerRepository manages persistence for customers.
type CustomerRepository struct {
	db *sqlx.DB
}

// NewCustomerRepository constructs a CustomerRepository.
func NewCustomerRepository(db *sqlx.DB) *CustomerRepository {
	return &CustomerRepository{db: db}
}

// List returns customers ordered by creation time descending with total count.
func (r *CustomerRepository) List(ctx context.Context, filter models.CustomerFilter) ([]models.Customer, int, error) {
	base := "FROM customers WHERE 1=1"
	var args []interface{}

	if filter.Search != "" {
		search := "%" + strings.ToLower(filter.Search) + "%"
		base += fmt.Sprintf(" AND (LOWER(name) LIKE $%d OR LOWER(email) LIKE $%d OR LOWER(company) LIKE $%d)", len(args)+1, len(args)+1, len(args)+1)
		args = append(args, search)
	}

	page, size := models.NormalizePage(filter.Page, filter.PageSize)
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY created_at DESC LIMIT %d OFFSET %d", customerColumns, base, size, offset)
	var customers []models.Customer
	if err := r.db.SelectContext(ctx, &customers, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list customers: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count customers: %w", err)
	}

	return customers, total, nil
}

// FindByID fetches a customer by ID.
func (r *CustomerRepository) FindByID(ctx context.Context, id int64) (*models.Customer, error) {
	query := fmt.Sprintf("SELECT %s FROM customers WHERE id = $1", customerColumns)
	var customer models.Customer
	if err := r.db.GetContext(ctx, &customer, query, id); err != nil {
		return nil, err
	}
	return &customer, nil
}

// GetRates fetches just the pricing rates for a customer.
func (r *CustomerRepository) GetRates(ctx context.Context, id int64) (*models.CustomerRates, error) {
	const query = `SELECT rate_per_m3, prep_cost_per_unit, fulfillment_cost_per_unit FROM customers WHERE id = $1`
	var rates models.CustomerRates
	if err := r.db.GetContext(ctx, &rates, query, id); err != nil {
		return nil, err
	}
	return &rates, nil
}

// ExistsByEmail checks if another customer uses the same email.
func (r *CustomerRepository) ExistsByEmail(ctx context.Context, email string, excludeID int64) (bool, error) {
	query := "SELECT 1 FROM customers WHERE LOWER(email) = LOWER($1)"
	args := []interface{}{email}
	if excludeID > 0 {
		query += " AND id <> $2"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check customer email: %w", err)
	}
	return true, nil
}

// Create inserts a new customer record and assigns its generated id.
func (r *CustomerRepository) Create(ctx context.Context, customer *models.Customer) error {
	now := time.Now().UTC()
	customer.CreatedAt = now
	customer.UpdatedAt = now

	const query = `INSERT INTO customers
	(email, name, first_name, last_name, phone, company, address_line1, address_line2,
	 city, county, state, postal_code, country, notes,
	 rate_per_m3, prep_cost_per_unit, fulfillment_cost_per_unit, created_at, updated_at)
	VALUES (:email, :name, :first_name, :last_name, :phone, :company, :address_line1, :address_line2,
	 :city, :county, :state, :postal_code, :country, :notes,
	 :rate_per_m3, :prep_cost_per_unit, :fulfillment_cost_per_unit, :created_at, :updated_at)
	RETURNING id`
	rows, err := r.db.NamedQueryContext(ctx, query, customer)
	if err != nil {
		return fmt.Errorf("create customer: %w", err)
	}
	defer rows.Close()
	if rows.Next() {
		if err := rows.Scan(&customer.ID); err != nil {
			return fmt.Errorf("scan customer id: %w", err)
		}
	}
	return rows.Err()
}

// Update modifies an existing customer record.
func (r *CustomerRepository) Update(ctx context.Context, customer *models.Customer) error {
	customer.UpdatedAt = time.Now().UTC()
	const query = `UPDATE customers SET email = :email, name = :name, first_name = :first_name,
	last_name = :last_name, phone = :phone, company = :company,
	address_line1 = :address_line1, address_line2 = :address_line2, city = :city,
	county = :county, state = :state, postal_code = :postal_code, country = :country,
	notes = :notes, rate_per_m3 = :rate_per_m3, prep_cost_per_unit = :prep_cost_per_unit,
	fulfillment_cost_per_unit = :fulfillment_cost_per_unit, updated_at = :updated_at
	WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, customer); err != nil {
		return fmt.Errorf("update customer: %w", err)
	}
	return nil
}

// Delete removes a customer and every dependent item, archived item and order
// in one transaction. The cascade only runs once the target row is confirmed
// to exist, so a missing id has no side effects.
func (r *CustomerRepository) Delete(ctx context.Context, id int64) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin customer delete: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var exists int
	if err = tx.GetContext(ctx, &exists, "SELECT 1 FROM customers WHERE id = $1 FOR UPDATE", id); err != nil {
		return err
	}

	if _, err = tx.ExecContext(ctx, "DELETE FROM orders WHERE customer_id = $1", id); err != nil {
		return fmt.Errorf("cascade delete orders: %w", err)
	}
	if _, err = tx.ExecContext(ctx, "DELETE FROM archived_items WHERE customer_id = $1", id); err != nil {
		return fmt.Errorf("cascade delete archived items: %w", err)
	}
	if _, err = tx.ExecContext(ctx, "DELETE FROM items WHERE customer_id = $1", id); err != nil {
		return fmt.Errorf("cascade delete items: %w", err)
	}
	if _, err = tx.ExecContext(ctx, "DELETE FROM customers WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete customer: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit customer delete: %w", err)
	}
	return nil
}
