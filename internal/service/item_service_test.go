package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/fulfillment-api/internal/models"
	appErrors "github.com/noah-isme/fulfillment-api/pkg/errors"
)

type itemRepoStub struct {
	items  map[int64]models.Item
	rates  models.CustomerRates
	nextID int64
	err    error
}

func newItemRepoStub(rates models.CustomerRates) *itemRepoStub {
	return &itemRepoStub{items: map[int64]models.Item{}, rates: rates, nextID: 1}
}

func (s *itemRepoStub) List(ctx context.Context, filter models.ItemFilter) ([]models.ItemWithRates, int, error) {
	if s.err != nil {
		return nil, 0, s.err
	}
	result := make([]models.ItemWithRates, 0, len(s.items))
	for _, item := range s.items {
		result = append(result, models.ItemWithRates{Item: item, CustomerRates: s.rates})
	}
	return result, len(result), nil
}

func (s *itemRepoStub) FindByID(ctx context.Context, id int64) (*models.ItemWithRates, error) {
	if s.err != nil {
		return nil, s.err
	}
	if item, ok := s.items[id]; ok {
		return &models.ItemWithRates{Item: item, CustomerRates: s.rates}, nil
	}
	return nil, sql.ErrNoRows
}

func (s *itemRepoStub) Create(ctx context.Context, item *models.Item) error {
	if s.err != nil {
		return s.err
	}
	item.ID = s.nextID
	s.nextID++
	s.items[item.ID] = *item
	return nil
}

func (s *itemRepoStub) Update(ctx context.Context, item *models.Item) error {
	if s.err != nil {
		return s.err
	}
	s.items[item.ID] = *item
	return nil
}

func (s *itemRepoStub) Delete(ctx context.Context, id int64) error {
	if s.err != nil {
		return s.err
	}
	if _, ok := s.items[id]; !ok {
		return sql.ErrNoRows
	}
	delete(s.items, id)
	return nil
}

type ratesRepoStub struct {
	rates map[int64]models.CustomerRates
}

func (s *ratesRepoStub) GetRates(ctx context.Context, id int64) (*models.CustomerRates, error) {
	if rates, ok := s.rates[id]; ok {
		return &rates, nil
	}
	return nil, sql.ErrNoRows
}

func defaultRates() models.CustomerRates {
	return models.CustomerRates{
		RatePerM3:              decimal.NewFromInt(10),
		PrepCostPerUnit:        decimal.RequireFromString("0.50"),
		FulfillmentCostPerUnit: decimal.RequireFromString("1.25"),
	}
}

func newItemService(rates models.CustomerRates) (*ItemService, *itemRepoStub) {
	repo := newItemRepoStub(rates)
	customers := &ratesRepoStub{rates: map[int64]models.CustomerRates{2: rates}}
	return NewItemService(repo, customers, nil, nil, nil, nil), repo
}

func modePtr(m models.PricingMode) *models.PricingMode { return &m }

func decimalPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestItemServiceCreateDerivesAutoCosts(t *testing.T) {
	svc, _ := newItemService(defaultRates())

	half := decimal.RequireFromString("50")
	meter := decimal.RequireFromString("100")
	quantity := 4
	item, err := svc.Create(context.Background(), CreateItemRequest{
		CustomerID: 2,
		Name:       "Widget",
		Quantity:   &quantity,
		WidthCm:    &half,
		LengthCm:   &half,
		HeightCm:   &meter,
		DateAdded:  "2026-08-01",
	})
	require.NoError(t, err)

	// 0.25 m3 per unit * 4 units * 10 per m3
	assert.Equal(t, "10.00", item.MonthlyStorageCost.StringFixed(2))
	assert.Equal(t, "0.50", item.PrepCost.StringFixed(2))
	assert.Equal(t, "1.25", item.FulfillmentCost.StringFixed(2))
	assert.Equal(t, models.PricingAuto, item.PricingMode)
}

func TestItemServiceCreateManualWithoutOverrideFails(t *testing.T) {
	svc, _ := newItemService(defaultRates())

	_, err := svc.Create(context.Background(), CreateItemRequest{
		CustomerID:  2,
		Name:        "Widget",
		PricingMode: modePtr(models.PricingManual),
		DateAdded:   "2026-08-01",
	})
	require.Error(t, err)

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Contains(t, appErr.Fields, "manual_monthly_cost")
}

func TestItemServiceCreateManualOverrideWins(t *testing.T) {
	svc, _ := newItemService(defaultRates())

	item, err := svc.Create(context.Background(), CreateItemRequest{
		CustomerID:        2,
		Name:              "Widget",
		PricingMode:       modePtr(models.PricingManual),
		ManualMonthlyCost: decimalPtr("99.99"),
		DateAdded:         "2026-08-01",
	})
	require.NoError(t, err)
	assert.Equal(t, "99.99", item.MonthlyStorageCost.StringFixed(2))
}

func TestItemServiceCreateUnknownCustomer(t *testing.T) {
	svc, _ := newItemService(defaultRates())

	_, err := svc.Create(context.Background(), CreateItemRequest{
		CustomerID: 77,
		Name:       "Widget",
		DateAdded:  "2026-08-01",
	})
	require.Error(t, err)

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "customer does not exist", appErr.Fields["customer"])
}

func TestItemServiceCreateRequiresDate(t *testing.T) {
	svc, _ := newItemService(defaultRates())

	_, err := svc.Create(context.Background(), CreateItemRequest{CustomerID: 2, Name: "Widget"})
	require.Error(t, err)

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Contains(t, appErr.Fields, "date_added")
}

func TestItemServicePatchSwitchToManualRequiresValue(t *testing.T) {
	svc, _ := newItemService(defaultRates())

	created, err := svc.Create(context.Background(), CreateItemRequest{
		CustomerID: 2,
		Name:       "Widget",
		DateAdded:  "2026-08-01",
	})
	require.NoError(t, err)

	_, err = svc.Patch(context.Background(), created.ID, PatchItemRequest{
		PricingMode: modePtr(models.PricingManual),
	})
	require.Error(t, err)

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Contains(t, appErr.Fields, "manual_monthly_cost")

	patched, err := svc.Patch(context.Background(), created.ID, PatchItemRequest{
		PricingMode:       modePtr(models.PricingManual),
		ManualMonthlyCost: decimalPtr("5"),
	})
	require.NoError(t, err)
	assert.Equal(t, "5.00", patched.MonthlyStorageCost.StringFixed(2))
}

func TestItemServicePatchKeepsUntouchedFields(t *testing.T) {
	svc, _ := newItemService(defaultRates())

	created, err := svc.Create(context.Background(), CreateItemRequest{
		CustomerID: 2,
		Name:       "Widget",
		Barcode:    strPtr("BC-1"),
		DateAdded:  "2026-08-01",
	})
	require.NoError(t, err)

	patched, err := svc.Patch(context.Background(), created.ID, PatchItemRequest{Name: strPtr("Gadget")})
	require.NoError(t, err)
	assert.Equal(t, "Gadget", patched.Name)
	assert.Equal(t, "BC-1", patched.Barcode)
}

func TestItemServicePatchReassignInvalidatesBothOwners(t *testing.T) {
	rates := defaultRates()
	repo := newItemRepoStub(rates)
	customers := &ratesRepoStub{rates: map[int64]models.CustomerRates{2: rates, 3: rates}}
	billing := &billingInvalidatorStub{}
	svc := NewItemService(repo, customers, nil, nil, nil, billing)

	created, err := svc.Create(context.Background(), CreateItemRequest{
		CustomerID: 2,
		Name:       "Widget",
		DateAdded:  "2026-08-01",
	})
	require.NoError(t, err)
	billing.invalidated = nil

	newOwner := int64(3)
	patched, err := svc.Patch(context.Background(), created.ID, PatchItemRequest{CustomerID: &newOwner})
	require.NoError(t, err)
	assert.Equal(t, int64(3), patched.CustomerID)

	// Both statements changed: the new owner gained the item, the old one lost it.
	assert.ElementsMatch(t, []int64{3, 2}, billing.invalidated)
}

func TestItemServiceUpdateReassignInvalidatesBothOwners(t *testing.T) {
	rates := defaultRates()
	repo := newItemRepoStub(rates)
	customers := &ratesRepoStub{rates: map[int64]models.CustomerRates{2: rates, 3: rates}}
	billing := &billingInvalidatorStub{}
	svc := NewItemService(repo, customers, nil, nil, nil, billing)

	created, err := svc.Create(context.Background(), CreateItemRequest{
		CustomerID: 2,
		Name:       "Widget",
		DateAdded:  "2026-08-01",
	})
	require.NoError(t, err)
	billing.invalidated = nil

	_, err = svc.Update(context.Background(), created.ID, UpdateItemRequest{
		CustomerID: 3,
		Name:       "Widget",
		DateAdded:  "2026-08-01",
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{3, 2}, billing.invalidated)
}

func TestItemServicePatchSameOwnerInvalidatesOnce(t *testing.T) {
	rates := defaultRates()
	repo := newItemRepoStub(rates)
	customers := &ratesRepoStub{rates: map[int64]models.CustomerRates{2: rates}}
	billing := &billingInvalidatorStub{}
	svc := NewItemService(repo, customers, nil, nil, nil, billing)

	created, err := svc.Create(context.Background(), CreateItemRequest{
		CustomerID: 2,
		Name:       "Widget",
		DateAdded:  "2026-08-01",
	})
	require.NoError(t, err)
	billing.invalidated = nil

	_, err = svc.Patch(context.Background(), created.ID, PatchItemRequest{Name: strPtr("Gadget")})
	require.NoError(t, err)
	assert.Equal(t, []int64{2}, billing.invalidated)
}

func TestItemServiceGetMissing(t *testing.T) {
	svc, _ := newItemService(defaultRates())

	_, err := svc.Get(context.Background(), 404)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}
