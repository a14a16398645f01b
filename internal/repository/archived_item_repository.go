package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/fulfillment-api/internal/models"
)

const archivedItemColumns = `id, customer_id, item_id, reason, notes, archived_at`

// ArchivedItemRepository manages persistence for archival records.
type ArchivedItemRepository struct {
	db *sqlx.DB
}

// NewArchivedItemRepository constructs an ArchivedItemRepository.
func NewArchivedItemRepository(db *sqlx.DB) *ArchivedItemRepository {
	return &ArchivedItemRepository{db: db}
}

// List returns archived items ordered by archive time descending, optionally
// restricted to one customer.
func (r *ArchivedItemRepository) List(ctx context.Context, filter models.ArchivedItemFilter) ([]models.ArchivedItem, int, error) {
	base := "FROM archived_items WHERE 1=1"
	var args []interface{}

	if filter.CustomerID != nil {
		base += fmt.Sprintf(" AND customer_id = $%d", len(args)+1)
		args = append(args, *filter.CustomerID)
	}

	page, size := models.NormalizePage(filter.Page, filter.PageSize)
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY archived_at DESC LIMIT %d OFFSET %d", archivedItemColumns, base, size, offset)
	var records []models.ArchivedItem
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list archived items: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count archived items: %w", err)
	}

	return records, total, nil
}

// FindByID fetches an archived item by ID.
func (r *ArchivedItemRepository) FindByID(ctx context.Context, id int64) (*models.ArchivedItem, error) {
	query := fmt.Sprintf("SELECT %s FROM archived_items WHERE id = $1", archivedItemColumns)
	var record models.ArchivedItem
	if err := r.db.GetContext(ctx, &record, query, id); err != nil {
		return nil, err
	}
	return &record, nil
}

// Create inserts a new archival record and assigns its generated id.
func (r *ArchivedItemRepository) Create(ctx context.Context, record *models.ArchivedItem) error {
	if record.ArchivedAt.IsZero() {
		record.ArchivedAt = time.Now().UTC()
	}
	const query = `INSERT INTO archived_items (customer_id, item_id, reason, notes, archived_at)
	VALUES (:customer_id, :item_id, :reason, :notes, :archived_at)
	RETURNING id`
	rows, err := r.db.NamedQueryContext(ctx, query, record)
	if err != nil {
		return fmt.Errorf("create archived item: %w", err)
	}
	defer rows.Close()
	if rows.Next() {
		if err := rows.Scan(&record.ID); err != nil {
			return fmt.Errorf("scan archived item id: %w", err)
		}
	}
	return rows.Err()
}

// Update modifies the mutable fields of an archival record. The archive
// timestamp is never rewritten.
func (r *ArchivedItemRepository) Update(ctx context.Context, record *models.ArchivedItem) error {
	const query = `UPDATE archived_items SET customer_id = :customer_id, item_id = :item_id,
	reason = :reason, notes = :notes WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("update archived item: %w", err)
	}
	return nil
}

// Delete removes an archival record.
func (r *ArchivedItemRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM archived_items WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete archived item: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check archived item delete rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
