package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/noah-isme/fulfillment-api/internal/models"
)

// Calculator derives auto-mode costs from a customer's rates and an item's
// geometry/quantity. Implementations own the arithmetic; callers only decide
// whether derivation applies at all (auto vs manual mode).
type Calculator interface {
	MonthlyStorageCost(rates models.CustomerRates, item models.Item) decimal.Decimal
	PrepCost(rates models.CustomerRates, item models.Item) decimal.Decimal
	FulfillmentCost(rates models.CustomerRates, item models.Item) decimal.Decimal
}

// Resolve returns the effective costs for an item: manual overrides win,
// anything else is delegated to the calculator.
func Resolve(calc Calculator, rates models.CustomerRates, item models.Item) models.ItemCosts {
	costs := models.ItemCosts{}

	if item.PricingMode == models.PricingManual && item.ManualMonthlyCost != nil {
		costs.MonthlyStorageCost = *item.ManualMonthlyCost
	} else {
		costs.MonthlyStorageCost = calc.MonthlyStorageCost(rates, item)
	}

	if item.PrepPricingMode == models.PricingManual && item.ManualPrepCost != nil {
		costs.PrepCost = *item.ManualPrepCost
	} else {
		costs.PrepCost = calc.PrepCost(rates, item)
	}

	if item.FulfillmentPricingMode == models.PricingManual && item.ManualFulfillmentCost != nil {
		costs.FulfillmentCost = *item.ManualFulfillmentCost
	} else {
		costs.FulfillmentCost = calc.FulfillmentCost(rates, item)
	}

	return costs
}

var cmPerM = decimal.NewFromInt(100)

// VolumeRateCalculator is the default Calculator. Storage is billed per cubic
// metre of stocked volume, prep and fulfillment per unit handled. The
// calculator is injected so deployments can swap the arithmetic without
// touching the store.
type VolumeRateCalculator struct{}

// NewVolumeRateCalculator constructs the default calculator.
func NewVolumeRateCalculator() *VolumeRateCalculator {
	return &VolumeRateCalculator{}
}

// MonthlyStorageCost returns rate_per_m3 * unit volume (m^3) * quantity,
// rounded to 2 decimal places.
func (VolumeRateCalculator) MonthlyStorageCost(rates models.CustomerRates, item models.Item) decimal.Decimal {
	volumeM3 := item.WidthCm.Div(cmPerM).
		Mul(item.LengthCm.Div(cmPerM)).
		Mul(item.HeightCm.Div(cmPerM))
	qty := decimal.NewFromInt(int64(item.Quantity))
	return rates.RatePerM3.Mul(volumeM3).Mul(qty).Round(2)
}

// PrepCost returns the customer's per-unit prep rate.
func (VolumeRateCalculator) PrepCost(rates models.CustomerRates, item models.Item) decimal.Decimal {
	return rates.PrepCostPerUnit.Round(2)
}

// FulfillmentCost returns the customer's per-unit fulfillment rate.
func (VolumeRateCalculator) FulfillmentCost(rates models.CustomerRates, item models.Item) decimal.Decimal {
	return rates.FulfillmentCostPerUnit.Round(2)
}
