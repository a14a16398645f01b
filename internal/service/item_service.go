package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/noah-isme/fulfillment-api/internal/models"
	"github.com/noah-isme/fulfillment-api/internal/pricing"
	appErrors "github.com/noah-isme/fulfillment-api/pkg/errors"
)

const dateLayout = "2006-01-02"

type itemRepository interface {
	List(ctx context.Context, filter models.ItemFilter) ([]models.ItemWithRates, int, error)
	FindByID(ctx context.Context, id int64) (*models.ItemWithRates, error)
	Create(ctx context.Context, item *models.Item) error
	Update(ctx context.Context, item *models.Item) error
	Delete(ctx context.Context, id int64) error
}

type customerRatesRepository interface {
	GetRates(ctx context.Context, id int64) (*models.CustomerRates, error)
}

// CreateItemRequest represents payload for creating items.
type CreateItemRequest struct {
	CustomerID int64   `json:"customer" validate:"required"`
	Name       string  `json:"name" validate:"required"`
	Quantity   *int    `json:"quantity"`
	Barcode    *string `json:"barcode"`

	WidthCm  *decimal.Decimal `json:"width_cm"`
	LengthCm *decimal.Decimal `json:"length_cm"`
	HeightCm *decimal.Decimal `json:"height_cm"`

	PricingMode            *models.PricingMode `json:"pricing_mode"`
	ManualMonthlyCost      *decimal.Decimal    `json:"manual_monthly_cost"`
	PrepPricingMode        *models.PricingMode `json:"prep_pricing_mode"`
	ManualPrepCost         *decimal.Decimal    `json:"manual_prep_cost"`
	FulfillmentPricingMode *models.PricingMode `json:"fulfillment_pricing_mode"`
	ManualFulfillmentCost  *decimal.Decimal    `json:"manual_fulfillment_cost"`

	Location  *string `json:"location"`
	DateAdded string  `json:"date_added" validate:"required,datetime=2006-01-02"`
}

// UpdateItemRequest represents payload for full item replacement.
type UpdateItemRequest = CreateItemRequest

// PatchItemRequest represents payload for partial item updates.
type PatchItemRequest struct {
	CustomerID *int64  `json:"customer"`
	Name       *string `json:"name"`
	Quantity   *int    `json:"quantity"`
	Barcode    *string `json:"barcode"`

	WidthCm  *decimal.Decimal `json:"width_cm"`
	LengthCm *decimal.Decimal `json:"length_cm"`
	HeightCm *decimal.Decimal `json:"height_cm"`

	PricingMode            *models.PricingMode `json:"pricing_mode"`
	ManualMonthlyCost      *decimal.Decimal    `json:"manual_monthly_cost"`
	PrepPricingMode        *models.PricingMode `json:"prep_pricing_mode"`
	ManualPrepCost         *decimal.Decimal    `json:"manual_prep_cost"`
	FulfillmentPricingMode *models.PricingMode `json:"fulfillment_pricing_mode"`
	ManualFulfillmentCost  *decimal.Decimal    `json:"manual_fulfillment_cost"`

	Location  *string `json:"location"`
	DateAdded *string `json:"date_added" validate:"omitempty,datetime=2006-01-02"`
}

// ItemService orchestrates stock item operations.
type ItemService struct {
	repo       itemRepository
	customers  customerRatesRepository
	calculator pricing.Calculator
	validator  *validator.Validate
	logger     *zap.Logger
	billing    billingInvalidator
}

// NewItemService constructs an ItemService.
func NewItemService(repo itemRepository, customers customerRatesRepository, calculator pricing.Calculator, validate *validator.Validate, logger *zap.Logger, billing billingInvalidator) *ItemService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if calculator == nil {
		calculator = pricing.NewVolumeRateCalculator()
	}
	return &ItemService{repo: repo, customers: customers, calculator: calculator, validator: validate, logger: logger, billing: billing}
}

// List returns items with effective costs plus pagination data.
func (s *ItemService) List(ctx context.Context, filter models.ItemFilter) ([]models.ItemView, *models.Pagination, error) {
	rows, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list items")
	}
	views := make([]models.ItemView, 0, len(rows))
	for _, row := range rows {
		views = append(views, s.toView(row))
	}
	return views, paginationFor(filter.Page, filter.PageSize, total), nil
}

// Get returns an item with effective costs by id.
func (s *ItemService) Get(ctx context.Context, id int64) (*models.ItemView, error) {
	row, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "item not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load item")
	}
	view := s.toView(*row)
	return &view, nil
}

// Create registers a new item under a customer.
func (s *ItemService) Create(ctx context.Context, req CreateItemRequest) (*models.ItemView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, invalidPayload(err, "invalid item payload")
	}

	rates, err := s.ratesFor(ctx, req.CustomerID)
	if err != nil {
		return nil, err
	}

	dateAdded, _ := time.Parse(dateLayout, req.DateAdded)
	item := &models.Item{
		CustomerID: req.CustomerID,
		Name:       strings.TrimSpace(req.Name),
		Quantity:   intOr(req.Quantity, 0),
		Barcode:    normalizeString(req.Barcode),
		WidthCm:    decimalOr(req.WidthCm, decimal.Zero),
		LengthCm:   decimalOr(req.LengthCm, decimal.Zero),
		HeightCm:   decimalOr(req.HeightCm, decimal.Zero),

		PricingMode:            modeOr(req.PricingMode),
		ManualMonthlyCost:      req.ManualMonthlyCost,
		PrepPricingMode:        modeOr(req.PrepPricingMode),
		ManualPrepCost:         req.ManualPrepCost,
		FulfillmentPricingMode: modeOr(req.FulfillmentPricingMode),
		ManualFulfillmentCost:  req.ManualFulfillmentCost,

		Location:  normalizeString(req.Location),
		DateAdded: dateAdded,
	}

	if err := validateItemPricing(item); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, item); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create item")
	}
	s.invalidateBilling(ctx, item.CustomerID)

	view := s.toView(models.ItemWithRates{Item: *item, CustomerRates: *rates})
	return &view, nil
}

// Update replaces an existing item.
func (s *ItemService) Update(ctx context.Context, id int64, req UpdateItemRequest) (*models.ItemView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, invalidPayload(err, "invalid item payload")
	}

	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	rates, err := s.ratesFor(ctx, req.CustomerID)
	if err != nil {
		return nil, err
	}

	dateAdded, _ := time.Parse(dateLayout, req.DateAdded)
	item := existing.Item
	previousOwner := item.CustomerID
	item.CustomerID = req.CustomerID
	item.Name = strings.TrimSpace(req.Name)
	item.Quantity = intOr(req.Quantity, 0)
	item.Barcode = normalizeString(req.Barcode)
	item.WidthCm = decimalOr(req.WidthCm, decimal.Zero)
	item.LengthCm = decimalOr(req.LengthCm, decimal.Zero)
	item.HeightCm = decimalOr(req.HeightCm, decimal.Zero)
	item.PricingMode = modeOr(req.PricingMode)
	item.ManualMonthlyCost = req.ManualMonthlyCost
	item.PrepPricingMode = modeOr(req.PrepPricingMode)
	item.ManualPrepCost = req.ManualPrepCost
	item.FulfillmentPricingMode = modeOr(req.FulfillmentPricingMode)
	item.ManualFulfillmentCost = req.ManualFulfillmentCost
	item.Location = normalizeString(req.Location)
	item.DateAdded = dateAdded

	if err := validateItemPricing(&item); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, &item); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update item")
	}
	s.invalidateBilling(ctx, item.CustomerID)
	if previousOwner != item.CustomerID {
		// A reassigned item changes both billing statements.
		s.invalidateBilling(ctx, previousOwner)
	}

	view := s.toView(models.ItemWithRates{Item: item, CustomerRates: *rates})
	return &view, nil
}

// Patch applies a partial update, re-validating the pricing invariant on the
// merged record.
func (s *ItemService) Patch(ctx context.Context, id int64, req PatchItemRequest) (*models.ItemView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, invalidPayload(err, "invalid item payload")
	}

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "item not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load item")
	}

	item := existing.Item
	rates := existing.CustomerRates
	previousOwner := item.CustomerID
	if req.CustomerID != nil && *req.CustomerID != item.CustomerID {
		newRates, err := s.ratesFor(ctx, *req.CustomerID)
		if err != nil {
			return nil, err
		}
		item.CustomerID = *req.CustomerID
		rates = *newRates
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, appErrors.Validation("invalid item payload", map[string]string{"name": "this field may not be blank"})
		}
		item.Name = name
	}
	if req.Quantity != nil {
		item.Quantity = *req.Quantity
	}
	applyString(&item.Barcode, req.Barcode)
	applyDecimal(&item.WidthCm, req.WidthCm)
	applyDecimal(&item.LengthCm, req.LengthCm)
	applyDecimal(&item.HeightCm, req.HeightCm)
	if req.PricingMode != nil {
		item.PricingMode = *req.PricingMode
	}
	if req.ManualMonthlyCost != nil {
		item.ManualMonthlyCost = req.ManualMonthlyCost
	}
	if req.PrepPricingMode != nil {
		item.PrepPricingMode = *req.PrepPricingMode
	}
	if req.ManualPrepCost != nil {
		item.ManualPrepCost = req.ManualPrepCost
	}
	if req.FulfillmentPricingMode != nil {
		item.FulfillmentPricingMode = *req.FulfillmentPricingMode
	}
	if req.ManualFulfillmentCost != nil {
		item.ManualFulfillmentCost = req.ManualFulfillmentCost
	}
	applyString(&item.Location, req.Location)
	if req.DateAdded != nil {
		dateAdded, _ := time.Parse(dateLayout, *req.DateAdded)
		item.DateAdded = dateAdded
	}

	if err := validateItemPricing(&item); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, &item); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update item")
	}
	s.invalidateBilling(ctx, item.CustomerID)
	if previousOwner != item.CustomerID {
		s.invalidateBilling(ctx, previousOwner)
	}

	view := s.toView(models.ItemWithRates{Item: item, CustomerRates: rates})
	return &view, nil
}

// Delete removes an item, nulling references held by archived items and
// orders.
func (s *ItemService) Delete(ctx context.Context, id int64) error {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "item not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load item")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "item not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete item")
	}
	s.invalidateBilling(ctx, existing.CustomerID)
	return nil
}

func (s *ItemService) toView(row models.ItemWithRates) models.ItemView {
	return models.ItemView{
		Item:      row.Item,
		ItemCosts: pricing.Resolve(s.calculator, row.CustomerRates, row.Item),
	}
}

func (s *ItemService) ratesFor(ctx context.Context, customerID int64) (*models.CustomerRates, error) {
	rates, err := s.customers.GetRates(ctx, customerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Validation("invalid item payload", map[string]string{"customer": "customer does not exist"})
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load customer rates")
	}
	return rates, nil
}

func (s *ItemService) invalidateBilling(ctx context.Context, customerID int64) {
	if s.billing != nil {
		s.billing.InvalidateCustomer(ctx, customerID)
	}
}

// validateItemPricing enforces the cross-field invariant: a manual pricing
// mode requires its override value, and every mode must be a known value.
func validateItemPricing(item *models.Item) error {
	fields := map[string]string{}

	checkMode := func(modeField string, mode models.PricingMode, overrideField string, override *decimal.Decimal) {
		if !mode.Valid() {
			fields[modeField] = "must be one of: auto, manual"
			return
		}
		if mode == models.PricingManual && override == nil {
			fields[overrideField] = "required when " + modeField + " is manual"
		}
		if override != nil && override.IsNegative() {
			fields[overrideField] = "must be greater than or equal to 0"
		}
	}

	checkMode("pricing_mode", item.PricingMode, "manual_monthly_cost", item.ManualMonthlyCost)
	checkMode("prep_pricing_mode", item.PrepPricingMode, "manual_prep_cost", item.ManualPrepCost)
	checkMode("fulfillment_pricing_mode", item.FulfillmentPricingMode, "manual_fulfillment_cost", item.ManualFulfillmentCost)

	if item.Quantity < 0 {
		fields["quantity"] = "must be greater than or equal to 0"
	}

	if len(fields) > 0 {
		return appErrors.Validation("invalid item payload", fields)
	}
	return nil
}

func modeOr(mode *models.PricingMode) models.PricingMode {
	if mode == nil {
		return models.PricingAuto
	}
	return *mode
}

func intOr(value *int, fallback int) int {
	if value == nil {
		return fallback
	}
	return *value
}

func applyDecimal(dst *decimal.Decimal, value *decimal.Decimal) {
	if value != nil {
		*dst = *value
	}
}
