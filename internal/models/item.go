package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PricingMode selects between derived and caller-supplied costs.
type PricingMode string

const (
	PricingAuto   PricingMode = "auto"
	PricingManual PricingMode = "manual"
)

// Valid reports whether the mode is one of the accepted values.
func (m PricingMode) Valid() bool {
	return m == PricingAuto || m == PricingManual
}

// Item represents a physical stock unit owned by one customer.
type Item struct {
	ID         int64           `db:"id" json:"id"`
	CustomerID int64           `db:"customer_id" json:"customer"`
	Name       string          `db:"name" json:"name"`
	Quantity   int             `db:"quantity" json:"quantity"`
	Barcode    string          `db:"barcode" json:"barcode"`
	WidthCm    decimal.Decimal `db:"width_cm" json:"width_cm"`
	LengthCm   decimal.Decimal `db:"length_cm" json:"length_cm"`
	HeightCm   decimal.Decimal `db:"height_cm" json:"height_cm"`

	PricingMode           PricingMode      `db:"pricing_mode" json:"pricing_mode"`
	ManualMonthlyCost     *decimal.Decimal `db:"manual_monthly_cost" json:"manual_monthly_cost"`
	PrepPricingMode       PricingMode      `db:"prep_pricing_mode" json:"prep_pricing_mode"`
	ManualPrepCost        *decimal.Decimal `db:"manual_prep_cost" json:"manual_prep_cost"`
	FulfillmentPricingMode PricingMode     `db:"fulfillment_pricing_mode" json:"fulfillment_pricing_mode"`
	ManualFulfillmentCost *decimal.Decimal `db:"manual_fulfillment_cost" json:"manual_fulfillment_cost"`

	Location  string    `db:"location" json:"location"`
	DateAdded time.Time `db:"date_added" json:"date_added"`
}

// ItemWithRates joins an item with its owner's rates for cost derivation.
type ItemWithRates struct {
	Item
	CustomerRates
}

// ItemCosts holds the effective costs resolved for an item.
type ItemCosts struct {
	MonthlyStorageCost decimal.Decimal `json:"monthly_storage_cost"`
	PrepCost           decimal.Decimal `json:"prep_cost"`
	FulfillmentCost    decimal.Decimal `json:"fulfillment_cost"`
}

// ItemView is the API representation of an item including effective costs.
type ItemView struct {
	Item
	ItemCosts
}

// ItemFilter captures filtering options for listing items.
type ItemFilter struct {
	CustomerID *int64
	Page       int
	PageSize   int
}
