package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Customer represents a billing/shipping account that owns inventory.
type Customer struct {
	ID           int64  `db:"id" json:"id"`
	Email        string `db:"email" json:"email"`
	Name         string `db:"name" json:"name"`
	FirstName    string `db:"first_name" json:"first_name"`
	LastName     string `db:"last_name" json:"last_name"`
	Phone        string `db:"phone" json:"phone"`
	Company      string `db:"company" json:"company"`
	AddressLine1 string `db:"address_line1" json:"address_line1"`
	AddressLine2 string `db:"address_line2" json:"address_line2"`
	City         string `db:"city" json:"city"`
	County       string `db:"county" json:"county"`
	State        string `db:"state" json:"state"`
	PostalCode   string `db:"postal_code" json:"postal_code"`
	Country      string `db:"country" json:"country"`
	Notes        string `db:"notes" json:"notes"`

	// Unit-cost rates used when items are priced in auto mode.
	RatePerM3              decimal.Decimal `db:"rate_per_m3" json:"rate_per_m3"`
	PrepCostPerUnit        decimal.Decimal `db:"prep_cost_per_unit" json:"prep_cost_per_unit"`
	FulfillmentCostPerUnit decimal.Decimal `db:"fulfillment_cost_per_unit" json:"fulfillment_cost_per_unit"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// CustomerRates carries just the pricing inputs for cost derivation.
type CustomerRates struct {
	RatePerM3              decimal.Decimal `db:"rate_per_m3"`
	PrepCostPerUnit        decimal.Decimal `db:"prep_cost_per_unit"`
	FulfillmentCostPerUnit decimal.Decimal `db:"fulfillment_cost_per_unit"`
}

// CustomerFilter captures filtering options for listing customers.
type CustomerFilter struct {
	Search   string
	Page     int
	PageSize int
}
