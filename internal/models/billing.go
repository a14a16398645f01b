package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReportFormat selects the rendering of a billing statement.
type ReportFormat string

const (
	ReportFormatJSON ReportFormat = "json"
	ReportFormatCSV  ReportFormat = "csv"
	ReportFormatPDF  ReportFormat = "pdf"
)

// Valid reports whether the format is supported.
func (f ReportFormat) Valid() bool {
	return f == ReportFormatJSON || f == ReportFormatCSV || f == ReportFormatPDF
}

// BillingLine is one item's cost breakdown inside a statement.
type BillingLine struct {
	ItemID             int64           `json:"item_id"`
	ItemName           string          `json:"item_name"`
	Quantity           int             `json:"quantity"`
	MonthlyStorageCost decimal.Decimal `json:"monthly_storage_cost"`
	PrepCost           decimal.Decimal `json:"prep_cost"`
	FulfillmentCost    decimal.Decimal `json:"fulfillment_cost"`
	LineTotal          decimal.Decimal `json:"line_total"`
}

// ExportLink is a signed, expiring reference to a persisted statement file.
type ExportLink struct {
	Token     string    `json:"token"`
	Filename  string    `json:"filename"`
	ExpiresAt time.Time `json:"expires_at"`
}

// BillingReport aggregates the per-item costs for one customer.
type BillingReport struct {
	CustomerID    int64           `json:"customer_id"`
	CustomerName  string          `json:"customer_name"`
	CustomerEmail string          `json:"customer_email"`
	GeneratedAt   time.Time       `json:"generated_at"`
	Lines         []BillingLine   `json:"lines"`
	StorageTotal  decimal.Decimal `json:"storage_total"`
	PrepTotal     decimal.Decimal `json:"prep_total"`
	FulfillTotal  decimal.Decimal `json:"fulfillment_total"`
	GrandTotal    decimal.Decimal `json:"grand_total"`
}
