package models

import "time"

// ArchivedItem records that an item was removed from active inventory.
// The item reference survives item deletion by becoming null so the audit
// trail outlives the stock record.
type ArchivedItem struct {
	ID         int64     `db:"id" json:"id"`
	CustomerID int64     `db:"customer_id" json:"customer"`
	ItemID     *int64    `db:"item_id" json:"item"`
	Reason     string    `db:"reason" json:"reason"`
	Notes      string    `db:"notes" json:"notes"`
	ArchivedAt time.Time `db:"archived_at" json:"archived_at"`
}

// ArchivedItemFilter captures filtering options for listing archived items.
type ArchivedItemFilter struct {
	CustomerID *int64
	Page       int
	PageSize   int
}
