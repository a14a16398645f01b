package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus enumerates the fulfillment states of an order.
type OrderStatus string

const (
	OrderPreparing OrderStatus = "Preparing"
	OrderShipped   OrderStatus = "Shipped"
	OrderDelivered OrderStatus = "Delivered"
	OrderCancelled OrderStatus = "Cancelled"
)

// Valid reports whether the status is one of the accepted values.
// Transitions between statuses are deliberately unconstrained.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPreparing, OrderShipped, OrderDelivered, OrderCancelled:
		return true
	}
	return false
}

// Order represents a fulfillment request against an item for a customer.
type Order struct {
	ID                         int64           `db:"id" json:"id"`
	CustomerID                 int64           `db:"customer_id" json:"customer"`
	ItemID                     *int64          `db:"item_id" json:"item"`
	Quantity                   int             `db:"quantity" json:"quantity"`
	Date                       time.Time       `db:"date" json:"date"`
	MaterialCostPerFulfillment decimal.Decimal `db:"material_cost_per_fulfillment" json:"material_cost_per_fulfillment"`
	Status                     OrderStatus     `db:"status" json:"status"`
	TrackingNumber             string          `db:"tracking_number" json:"tracking_number"`
	EmailSubject               string          `db:"email_subject" json:"email_subject"`
	EmailBody                  string          `db:"email_body" json:"email_body"`
	CreatedAt                  time.Time       `db:"created_at" json:"created_at"`
}

// OrderFilter captures filtering options for listing orders.
type OrderFilter struct {
	CustomerID *int64
	Page       int
	PageSize   int
}
