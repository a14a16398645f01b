package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/noah-isme/fulfillment-api/internal/models"
	"github.com/noah-isme/fulfillment-api/internal/pricing"
	appErrors "github.com/noah-isme/fulfillment-api/pkg/errors"
	"github.com/noah-isme/fulfillment-api/pkg/export"
)

type billingCustomerRepository interface {
	FindByID(ctx context.Context, id int64) (*models.Customer, error)
}

type billingItemRepository interface {
	ListByCustomer(ctx context.Context, customerID int64) ([]models.ItemWithRates, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string, summary []string) ([]byte, error)
}

type statementStore interface {
	Save(name string, data []byte) (string, error)
	Open(name string) (*os.File, error)
}

type linkSigner interface {
	Generate(owner, name string) (string, time.Time, error)
	Parse(token string, allowExpired bool) (owner, name string, expiresAt time.Time, err error)
}

// BillingConfig tunes billing statement generation.
type BillingConfig struct {
	CacheTTL      time.Duration
	StatementName string
}

// BillingService derives per-customer cost statements from current inventory.
type BillingService struct {
	customers billingCustomerRepository
	items     billingItemRepository
	calc      pricing.Calculator
	cache     *CacheService
	csv       csvRenderer
	pdf       pdfRenderer
	store     statementStore
	signer    linkSigner
	logger    *zap.Logger
	cfg       BillingConfig
}

// NewBillingService constructs a BillingService. Store and signer may be nil,
// which disables persisted exports and signed download links.
func NewBillingService(customers billingCustomerRepository, items billingItemRepository, calc pricing.Calculator, cache *CacheService, cfg BillingConfig, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer, store statementStore, signer linkSigner) *BillingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if calc == nil {
		calc = pricing.NewVolumeRateCalculator()
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 10 * time.Minute
	}
	if cfg.StatementName == "" {
		cfg.StatementName = "Monthly Billing Statement"
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &BillingService{
		customers: customers,
		items:     items,
		calc:      calc,
		cache:     cache,
		csv:       csv,
		pdf:       pdf,
		store:     store,
		signer:    signer,
		logger:    logger,
		cfg:       cfg,
	}
}

// Report builds the billing breakdown for one customer. Results are cached
// until a mutation on the customer or its items invalidates them.
func (s *BillingService) Report(ctx context.Context, customerID int64) (*models.BillingReport, error) {
	key := billingCacheKey(customerID)
	var cached models.BillingReport
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		return &cached, nil
	}

	customer, err := s.customers.FindByID(ctx, customerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "customer not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load customer")
	}

	items, err := s.items.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load customer items")
	}

	report := &models.BillingReport{
		CustomerID:    customer.ID,
		CustomerName:  customer.Name,
		CustomerEmail: customer.Email,
		GeneratedAt:   time.Now().UTC(),
		Lines:         make([]models.BillingLine, 0, len(items)),
	}

	storage := decimal.Zero
	prep := decimal.Zero
	fulfill := decimal.Zero
	for _, item := range items {
		costs := pricing.Resolve(s.calc, item.CustomerRates, item.Item)
		line := models.BillingLine{
			ItemID:             item.ID,
			ItemName:           item.Name,
			Quantity:           item.Quantity,
			MonthlyStorageCost: costs.MonthlyStorageCost,
			PrepCost:           costs.PrepCost,
			FulfillmentCost:    costs.FulfillmentCost,
			LineTotal:          costs.MonthlyStorageCost.Add(costs.PrepCost).Add(costs.FulfillmentCost),
		}
		report.Lines = append(report.Lines, line)
		storage = storage.Add(costs.MonthlyStorageCost)
		prep = prep.Add(costs.PrepCost)
		fulfill = fulfill.Add(costs.FulfillmentCost)
	}
	report.StorageTotal = storage
	report.PrepTotal = prep
	report.FulfillTotal = fulfill
	report.GrandTotal = storage.Add(prep).Add(fulfill)

	if err := s.cache.Set(ctx, key, report, s.cfg.CacheTTL); err != nil {
		s.logger.Warn("failed to cache billing report", zap.Int64("customer_id", customerID), zap.Error(err))
	}

	return report, nil
}

// Export renders the billing report in the requested format and returns the
// payload together with its content type and suggested filename.
func (s *BillingService) Export(ctx context.Context, customerID int64, format models.ReportFormat) ([]byte, string, string, error) {
	if !format.Valid() || format == models.ReportFormatJSON {
		return nil, "", "", appErrors.Validation("unsupported export format", map[string]string{
			"format": "must be one of: csv, pdf",
		})
	}

	report, err := s.Report(ctx, customerID)
	if err != nil {
		return nil, "", "", err
	}

	dataset := s.buildDataset(report)
	switch format {
	case models.ReportFormatCSV:
		payload, err := s.csv.Render(dataset)
		if err != nil {
			return nil, "", "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return payload, "text/csv", exportFilename(report, "csv"), nil
	case models.ReportFormatPDF:
		summary := []string{
			fmt.Sprintf("Storage total: %s", report.StorageTotal.StringFixed(2)),
			fmt.Sprintf("Prep total: %s", report.PrepTotal.StringFixed(2)),
			fmt.Sprintf("Fulfillment total: %s", report.FulfillTotal.StringFixed(2)),
			fmt.Sprintf("Grand total: %s", report.GrandTotal.StringFixed(2)),
		}
		payload, err := s.pdf.Render(dataset, s.cfg.StatementName, summary)
		if err != nil {
			return nil, "", "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return payload, "application/pdf", exportFilename(report, "pdf"), nil
	}
	return nil, "", "", appErrors.Clone(appErrors.ErrValidation, "unsupported export format")
}

// ExportLink renders the statement, persists it to the configured store and
// returns a signed, expiring download token for it.
func (s *BillingService) ExportLink(ctx context.Context, customerID int64, format models.ReportFormat) (*models.ExportLink, error) {
	if s.store == nil || s.signer == nil {
		return nil, appErrors.New("EXPORT_DISABLED", http.StatusNotImplemented, "statement downloads are not configured")
	}

	payload, _, filename, err := s.Export(ctx, customerID, format)
	if err != nil {
		return nil, err
	}

	name := fmt.Sprintf("statements/%d/%s", customerID, filename)
	if _, err := s.store.Save(name, payload); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist statement")
	}

	owner := fmt.Sprintf("customer-%d", customerID)
	token, expiresAt, err := s.signer.Generate(owner, name)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download link")
	}

	return &models.ExportLink{Token: token, Filename: filename, ExpiresAt: expiresAt}, nil
}

// OpenExport resolves a signed download token into the persisted statement.
// The caller owns closing the returned reader.
func (s *BillingService) OpenExport(ctx context.Context, token string) (io.ReadCloser, string, string, error) {
	if s.store == nil || s.signer == nil {
		return nil, "", "", appErrors.New("EXPORT_DISABLED", http.StatusNotImplemented, "statement downloads are not configured")
	}

	_, name, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, "", "", appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired download token")
	}

	file, err := s.store.Open(name)
	if err != nil {
		return nil, "", "", appErrors.Clone(appErrors.ErrNotFound, "statement no longer available")
	}

	return file, contentTypeFor(name), path.Base(name), nil
}

// InvalidateCustomer drops the cached billing report for one customer.
// Failures are logged and swallowed so mutations never fail on cache errors.
func (s *BillingService) InvalidateCustomer(ctx context.Context, customerID int64) {
	if err := s.cache.Invalidate(ctx, billingCacheKey(customerID)); err != nil {
		s.logger.Warn("failed to invalidate billing cache", zap.Int64("customer_id", customerID), zap.Error(err))
	}
}

func (s *BillingService) buildDataset(report *models.BillingReport) export.Dataset {
	headers := []string{"Item", "Quantity", "Storage", "Prep", "Fulfillment", "Total"}
	rows := make([]map[string]string, 0, len(report.Lines))
	for _, line := range report.Lines {
		rows = append(rows, map[string]string{
			"Item":        line.ItemName,
			"Quantity":    fmt.Sprintf("%d", line.Quantity),
			"Storage":     line.MonthlyStorageCost.StringFixed(2),
			"Prep":        line.PrepCost.StringFixed(2),
			"Fulfillment": line.FulfillmentCost.StringFixed(2),
			"Total":       line.LineTotal.StringFixed(2),
		})
	}
	return export.Dataset{Headers: headers, Rows: rows}
}

func contentTypeFor(name string) string {
	switch {
	case strings.HasSuffix(name, ".csv"):
		return "text/csv"
	case strings.HasSuffix(name, ".pdf"):
		return "application/pdf"
	}
	return "application/octet-stream"
}

func billingCacheKey(customerID int64) string {
	return fmt.Sprintf("billing:customer:%d", customerID)
}

func exportFilename(report *models.BillingReport, ext string) string {
	return fmt.Sprintf("billing-%d-%s.%s", report.CustomerID, report.GeneratedAt.Format("20060102"), ext)
}
