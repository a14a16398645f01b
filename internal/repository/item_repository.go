package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/fulfillment-api/internal/models"
)

const itemColumns = `i.id, i.customer_id, i.name, i.quantity, i.barcode,
	i.width_cm, i.length_cm, i.height_cm,
	i.pricing_mode, i.manual_monthly_cost,
	i.prep_pricing_mode, i.manual_prep_cost,
	i.fulfillment_pricing_mode, i.manual_fulfillment_cost,
	i.location, i.date_added`

const itemRateColumns = itemColumns + `,
	c.rate_per_m3, c.prep_cost_per_unit, c.fulfillment_cost_per_unit`

// ItemRepository manages persistence for stock items.
type ItemRepository struct {
	db *sqlx.DB
}

// NewItemRepository constructs an ItemRepository.
func NewItemRepository(db *sqlx.DB) *ItemRepository {
	return &ItemRepository{db: db}
}

// List returns items joined with owner rates, ordered by date_added
// descending, optionally restricted to one customer.
func (r *ItemRepository) List(ctx context.Context, filter models.ItemFilter) ([]models.ItemWithRates, int, error) {
	base := "FROM items i JOIN customers c ON c.id = i.customer_id WHERE 1=1"
	var args []interface{}

	if filter.CustomerID != nil {
		base += fmt.Sprintf(" AND i.customer_id = $%d", len(args)+1)
		args = append(args, *filter.CustomerID)
	}

	page, size := models.NormalizePage(filter.Page, filter.PageSize)
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY i.date_added DESC LIMIT %d OFFSET %d", itemRateColumns, base, size, offset)
	var items []models.ItemWithRates
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list items: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count items: %w", err)
	}

	return items, total, nil
}

// ListByCustomer returns every item a customer owns, joined with the
// owner's rates. Used for billing where pagination would break totals.
func (r *ItemRepository) ListByCustomer(ctx context.Context, customerID int64) ([]models.ItemWithRates, error) {
	query := fmt.Sprintf("SELECT %s FROM items i JOIN customers c ON c.id = i.customer_id WHERE i.customer_id = $1 ORDER BY i.date_added DESC", itemRateColumns)
	var items []models.ItemWithRates
	if err := r.db.SelectContext(ctx, &items, query, customerID); err != nil {
		return nil, fmt.Errorf("list customer items: %w", err)
	}
	return items, nil
}

// FindByID fetches an item with its owner's rates.
func (r *ItemRepository) FindByID(ctx context.Context, id int64) (*models.ItemWithRates, error) {
	query := fmt.Sprintf("SELECT %s FROM items i JOIN customers c ON c.id = i.customer_id WHERE i.id = $1", itemRateColumns)
	var item models.ItemWithRates
	if err := r.db.GetContext(ctx, &item, query, id); err != nil {
		return nil, err
	}
	return &item, nil
}

// Create inserts a new item record and assigns its generated id.
func (r *ItemRepository) Create(ctx context.Context, item *models.Item) error {
	const query = `INSERT INTO items
	(customer_id, name, quantity, barcode, width_cm, length_cm, height_cm,
	 pricing_mode, manual_monthly_cost, prep_pricing_mode, manual_prep_cost,
	 fulfillment_pricing_mode, manual_fulfillment_cost, location, date_added)
	VALUES (:customer_id, :name, :quantity, :barcode, :width_cm, :length_cm, :height_cm,
	 :pricing_mode, :manual_monthly_cost, :prep_pricing_mode, :manual_prep_cost,
	 :fulfillment_pricing_mode, :manual_fulfillment_cost, :location, :date_added)
	RETURNING id`
	rows, err := r.db.NamedQueryContext(ctx, query, item)
	if err != nil {
		return fmt.Errorf("create item: %w", err)
	}
	defer rows.Close()
	if rows.Next() {
		if err := rows.Scan(&item.ID); err != nil {
			return fmt.Errorf("scan item id: %w", err)
		}
	}
	return rows.Err()
}

// Update modifies an existing item record.
func (r *ItemRepository) Update(ctx context.Context, item *models.Item) error {
	const query = `UPDATE items SET customer_id = :customer_id, name = :name,
	quantity = :quantity, barcode = :barcode, width_cm = :width_cm,
	length_cm = :length_cm, height_cm = :height_cm, pricing_mode = :pricing_mode,
	manual_monthly_cost = :manual_monthly_cost, prep_pricing_mode = :prep_pricing_mode,
	manual_prep_cost = :manual_prep_cost, fulfillment_pricing_mode = :fulfillment_pricing_mode,
	manual_fulfillment_cost = :manual_fulfillment_cost, location = :location,
	date_added = :date_added WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, item); err != nil {
		return fmt.Errorf("update item: %w", err)
	}
	return nil
}

// Delete removes an item in one transaction, clearing the item reference on
// archived items and orders instead of deleting them. Rows referencing the
// item keep their history; only the pointer is nulled.
func (r *ItemRepository) Delete(ctx context.Context, id int64) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin item delete: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var exists int
	if err = tx.GetContext(ctx, &exists, "SELECT 1 FROM items WHERE id = $1 FOR UPDATE", id); err != nil {
		return err
	}

	if _, err = tx.ExecContext(ctx, "UPDATE archived_items SET item_id = NULL WHERE item_id = $1", id); err != nil {
		return fmt.Errorf("nullify archived item references: %w", err)
	}
	if _, err = tx.ExecContext(ctx, "UPDATE orders SET item_id = NULL WHERE item_id = $1", id); err != nil {
		return fmt.Errorf("nullify order references: %w", err)
	}
	if _, err = tx.ExecContext(ctx, "DELETE FROM items WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete item: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit item delete: %w", err)
	}
	return nil
}
