package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/fulfillment-api/internal/models"
	appErrors "github.com/noah-isme/fulfillment-api/pkg/errors"
	"github.com/noah-isme/fulfillment-api/pkg/storage"
)

type billingCustomersStub struct {
	customers map[int64]models.Customer
}

func (s *billingCustomersStub) FindByID(ctx context.Context, id int64) (*models.Customer, error) {
	if c, ok := s.customers[id]; ok {
		return &c, nil
	}
	return nil, sql.ErrNoRows
}

type billingItemsStub struct {
	items map[int64][]models.ItemWithRates
	calls int
}

func (s *billingItemsStub) ListByCustomer(ctx context.Context, customerID int64) ([]models.ItemWithRates, error) {
	s.calls++
	return s.items[customerID], nil
}

// memCacheRepo is an in-memory CacheRepository used to exercise the
// report caching path without redis.
type memCacheRepo struct {
	entries map[string][]byte
}

func newMemCacheRepo() *memCacheRepo {
	return &memCacheRepo{entries: map[string][]byte{}}
}

func (r *memCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := r.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (r *memCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	r.entries[key] = raw
	return nil
}

func (r *memCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	delete(r.entries, pattern)
	return nil
}

func billingFixtures() (*billingCustomersStub, *billingItemsStub) {
	rates := models.CustomerRates{
		RatePerM3:              decimal.RequireFromString("10"),
		PrepCostPerUnit:        decimal.RequireFromString("0.50"),
		FulfillmentCostPerUnit: decimal.RequireFromString("1.25"),
	}
	manualStorage := decimal.RequireFromString("99.99")
	manualFulfill := decimal.RequireFromString("2.00")

	customers := &billingCustomersStub{customers: map[int64]models.Customer{
		1: {
			ID:                     1,
			Name:                   "Acme Corp",
			Email:                  "billing@acme.test",
			RatePerM3:              rates.RatePerM3,
			PrepCostPerUnit:        rates.PrepCostPerUnit,
			FulfillmentCostPerUnit: rates.FulfillmentCostPerUnit,
		},
	}}
	items := &billingItemsStub{items: map[int64][]models.ItemWithRates{
		1: {
			{
				Item: models.Item{
					ID:       11,
					Name:     "Pallet A",
					Quantity: 4,
					WidthCm:  decimal.RequireFromString("50"),
					LengthCm: decimal.RequireFromString("50"),
					HeightCm: decimal.RequireFromString("100"),
					PricingMode:            models.PricingAuto,
					PrepPricingMode:        models.PricingAuto,
					FulfillmentPricingMode: models.PricingAuto,
				},
				CustomerRates: rates,
			},
			{
				Item: models.Item{
					ID:       12,
					Name:     "Pallet B",
					Quantity: 2,
					WidthCm:  decimal.RequireFromString("10"),
					LengthCm: decimal.RequireFromString("10"),
					HeightCm: decimal.RequireFromString("10"),
					PricingMode:            models.PricingManual,
					ManualMonthlyCost:      &manualStorage,
					PrepPricingMode:        models.PricingAuto,
					FulfillmentPricingMode: models.PricingManual,
					ManualFulfillmentCost:  &manualFulfill,
				},
				CustomerRates: rates,
			},
		},
	}}
	return customers, items
}

func TestBillingServiceReportMixesAutoAndManual(t *testing.T) {
	customers, items := billingFixtures()
	svc := NewBillingService(customers, items, nil, nil, BillingConfig{}, nil, nil, nil, nil, nil)

	report, err := svc.Report(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, report.Lines, 2)

	assert.Equal(t, "Acme Corp", report.CustomerName)

	// Pallet A: 0.25 m^3 per unit, 4 units at 10/m^3.
	auto := report.Lines[0]
	assert.Equal(t, "10.00", auto.MonthlyStorageCost.StringFixed(2))
	assert.Equal(t, "0.50", auto.PrepCost.StringFixed(2))
	assert.Equal(t, "1.25", auto.FulfillmentCost.StringFixed(2))
	assert.Equal(t, "11.75", auto.LineTotal.StringFixed(2))

	// Pallet B keeps its manual overrides regardless of dimensions.
	manual := report.Lines[1]
	assert.Equal(t, "99.99", manual.MonthlyStorageCost.StringFixed(2))
	assert.Equal(t, "0.50", manual.PrepCost.StringFixed(2))
	assert.Equal(t, "2.00", manual.FulfillmentCost.StringFixed(2))

	assert.Equal(t, "109.99", report.StorageTotal.StringFixed(2))
	assert.Equal(t, "1.00", report.PrepTotal.StringFixed(2))
	assert.Equal(t, "3.25", report.FulfillTotal.StringFixed(2))
	assert.Equal(t, "114.24", report.GrandTotal.StringFixed(2))
}

func TestBillingServiceReportUnknownCustomer(t *testing.T) {
	customers, items := billingFixtures()
	svc := NewBillingService(customers, items, nil, nil, BillingConfig{}, nil, nil, nil, nil, nil)

	_, err := svc.Report(context.Background(), 404)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestBillingServiceReportCachesUntilInvalidated(t *testing.T) {
	customers, items := billingFixtures()
	cache := NewCacheService(newMemCacheRepo(), nil, time.Minute, nil, true)
	svc := NewBillingService(customers, items, nil, cache, BillingConfig{}, nil, nil, nil, nil, nil)

	_, err := svc.Report(context.Background(), 1)
	require.NoError(t, err)
	_, err = svc.Report(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 1, items.calls)

	svc.InvalidateCustomer(context.Background(), 1)

	_, err = svc.Report(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 2, items.calls)
}

func TestBillingServiceExportCSV(t *testing.T) {
	customers, items := billingFixtures()
	svc := NewBillingService(customers, items, nil, nil, BillingConfig{}, nil, nil, nil, nil, nil)

	payload, contentType, filename, err := svc.Export(context.Background(), 1, models.ReportFormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "text/csv", contentType)
	assert.True(t, strings.HasPrefix(filename, "billing-1-"))
	assert.True(t, strings.HasSuffix(filename, ".csv"))

	body := string(payload)
	assert.Contains(t, body, "Item,Quantity,Storage,Prep,Fulfillment,Total")
	assert.Contains(t, body, "Pallet A,4,10.00,0.50,1.25,11.75")
}

func TestBillingServiceExportLinkRoundTrip(t *testing.T) {
	customers, items := billingFixtures()
	store, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewLinkSigner("secret", time.Hour)
	svc := NewBillingService(customers, items, nil, nil, BillingConfig{}, nil, nil, nil, store, signer)

	link, err := svc.ExportLink(context.Background(), 1, models.ReportFormatCSV)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(link.Filename, ".csv"))
	assert.True(t, link.ExpiresAt.After(time.Now()))

	reader, contentType, filename, err := svc.OpenExport(context.Background(), link.Token)
	require.NoError(t, err)
	defer reader.Close() //nolint:errcheck
	assert.Equal(t, "text/csv", contentType)
	assert.Equal(t, link.Filename, filename)

	body, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Contains(t, string(body), "Pallet A,4,10.00,0.50,1.25,11.75")
}

func TestBillingServiceOpenExportRejectsForgedToken(t *testing.T) {
	customers, items := billingFixtures()
	store, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	svc := NewBillingService(customers, items, nil, nil, BillingConfig{}, nil, nil, nil, store, storage.NewLinkSigner("secret", time.Hour))

	forged, _, err := storage.NewLinkSigner("other", time.Hour).Generate("customer-1", "statements/1/billing.csv")
	require.NoError(t, err)

	_, _, _, err = svc.OpenExport(context.Background(), forged)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErr.Code)
}

func TestBillingServiceExportLinkWithoutStore(t *testing.T) {
	customers, items := billingFixtures()
	svc := NewBillingService(customers, items, nil, nil, BillingConfig{}, nil, nil, nil, nil, nil)

	_, err := svc.ExportLink(context.Background(), 1, models.ReportFormatCSV)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "EXPORT_DISABLED", appErr.Code)
}

func TestBillingServiceExportRejectsJSONFormat(t *testing.T) {
	customers, items := billingFixtures()
	svc := NewBillingService(customers, items, nil, nil, BillingConfig{}, nil, nil, nil, nil, nil)

	for _, format := range []models.ReportFormat{models.ReportFormatJSON, models.ReportFormat("xlsx")} {
		_, _, _, err := svc.Export(context.Background(), 1, format)
		var appErr *appErrors.Error
		require.True(t, errors.As(err, &appErr))
		assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
		assert.Contains(t, appErr.Fields, "format")
	}
}
