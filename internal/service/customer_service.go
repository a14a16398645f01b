package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/noah-isme/fulfillment-api/internal/models"
	appErrors "github.com/noah-isme/fulfillment-api/pkg/errors"
)

type customerRepository interface {
	List(ctx context.Context, filter models.CustomerFilter) ([]models.Customer, int, error)
	FindByID(ctx context.Context, id int64) (*models.Customer, error)
	ExistsByEmail(ctx context.Context, email string, excludeID int64) (bool, error)
	Create(ctx context.Context, customer *models.Customer) error
	Update(ctx context.Context, customer *models.Customer) error
	Delete(ctx context.Context, id int64) error
}

// billingInvalidator drops cached billing state after customer/item writes.
type billingInvalidator interface {
	InvalidateCustomer(ctx context.Context, customerID int64)
}

// CreateCustomerRequest represents payload for creating customers.
type CreateCustomerRequest struct {
	Email        string  `json:"email" validate:"required,email"`
	Name         string  `json:"name" validate:"required"`
	FirstName    *string `json:"first_name"`
	LastName     *string `json:"last_name"`
	Phone        *string `json:"phone"`
	Company      *string `json:"company"`
	AddressLine1 *string `json:"address_line1"`
	AddressLine2 *string `json:"address_line2"`
	City         *string `json:"city"`
	County       *string `json:"county"`
	State        *string `json:"state"`
	PostalCode   *string `json:"postal_code"`
	Country      *string `json:"country"`
	Notes        *string `json:"notes"`

	RatePerM3              *decimal.Decimal `json:"rate_per_m3"`
	PrepCostPerUnit        *decimal.Decimal `json:"prep_cost_per_unit"`
	FulfillmentCostPerUnit *decimal.Decimal `json:"fulfillment_cost_per_unit"`
}

// UpdateCustomerRequest represents payload for full customer replacement.
type UpdateCustomerRequest = CreateCustomerRequest

// PatchCustomerRequest represents payload for partial customer updates.
type PatchCustomerRequest struct {
	Email        *string `json:"email" validate:"omitempty,email"`
	Name         *string `json:"name"`
	FirstName    *string `json:"first_name"`
	LastName     *string `json:"last_name"`
	Phone        *string `json:"phone"`
	Company      *string `json:"company"`
	AddressLine1 *string `json:"address_line1"`
	AddressLine2 *string `json:"address_line2"`
	City         *string `json:"city"`
	County       *string `json:"county"`
	State        *string `json:"state"`
	PostalCode   *string `json:"postal_code"`
	Country      *string `json:"country"`
	Notes        *string `json:"notes"`

	RatePerM3              *decimal.Decimal `json:"rate_per_m3"`
	PrepCostPerUnit        *decimal.Decimal `json:"prep_cost_per_unit"`
	FulfillmentCostPerUnit *decimal.Decimal `json:"fulfillment_cost_per_unit"`
}

// CustomerService orchestrates customer operations.
type CustomerService struct {
	repo      customerRepository
	validator *validator.Validate
	logger    *zap.Logger
	billing   billingInvalidator
}

// NewCustomerService constructs a CustomerService.
func NewCustomerService(repo customerRepository, validate *validator.Validate, logger *zap.Logger, billing billingInvalidator) *CustomerService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CustomerService{repo: repo, validator: validate, logger: logger, billing: billing}
}

// List returns customers plus pagination data.
func (s *CustomerService) List(ctx context.Context, filter models.CustomerFilter) ([]models.Customer, *models.Pagination, error) {
	customers, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list customers")
	}
	pagination := paginationFor(filter.Page, filter.PageSize, total)
	return customers, pagination, nil
}

// Get returns a customer by id.
func (s *CustomerService) Get(ctx context.Context, id int64) (*models.Customer, error) {
	customer, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "customer not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load customer")
	}
	return customer, nil
}

// Create registers a new customer record.
func (s *CustomerService) Create(ctx context.Context, req CreateCustomerRequest) (*models.Customer, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, invalidPayload(err, "invalid customer payload")
	}
	if err := validateRates(req.RatePerM3, req.PrepCostPerUnit, req.FulfillmentCostPerUnit); err != nil {
		return nil, err
	}
	if err := s.ensureUniqueEmail(ctx, req.Email, 0); err != nil {
		return nil, err
	}

	customer := &models.Customer{
		Email:        strings.TrimSpace(req.Email),
		Name:         strings.TrimSpace(req.Name),
		FirstName:    normalizeString(req.FirstName),
		LastName:     normalizeString(req.LastName),
		Phone:        normalizeString(req.Phone),
		Company:      normalizeString(req.Company),
		AddressLine1: normalizeString(req.AddressLine1),
		AddressLine2: normalizeString(req.AddressLine2),
		City:         normalizeString(req.City),
		County:       normalizeString(req.County),
		State:        normalizeString(req.State),
		PostalCode:   normalizeString(req.PostalCode),
		Country:      normalizeString(req.Country),
		Notes:        normalizeString(req.Notes),

		RatePerM3:              decimalOr(req.RatePerM3, decimal.NewFromInt(10)),
		PrepCostPerUnit:        decimalOr(req.PrepCostPerUnit, decimal.Zero),
		FulfillmentCostPerUnit: decimalOr(req.FulfillmentCostPerUnit, decimal.Zero),
	}

	if err := s.repo.Create(ctx, customer); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create customer")
	}
	return customer, nil
}

// Update replaces an existing customer.
func (s *CustomerService) Update(ctx context.Context, id int64, req UpdateCustomerRequest) (*models.Customer, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, invalidPayload(err, "invalid customer payload")
	}
	if err := validateRates(req.RatePerM3, req.PrepCostPerUnit, req.FulfillmentCostPerUnit); err != nil {
		return nil, err
	}

	customer, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.ensureUniqueEmail(ctx, req.Email, id); err != nil {
		return nil, err
	}

	customer.Email = strings.TrimSpace(req.Email)
	customer.Name = strings.TrimSpace(req.Name)
	customer.FirstName = normalizeString(req.FirstName)
	customer.LastName = normalizeString(req.LastName)
	customer.Phone = normalizeString(req.Phone)
	customer.Company = normalizeString(req.Company)
	customer.AddressLine1 = normalizeString(req.AddressLine1)
	customer.AddressLine2 = normalizeString(req.AddressLine2)
	customer.City = normalizeString(req.City)
	customer.County = normalizeString(req.County)
	customer.State = normalizeString(req.State)
	customer.PostalCode = normalizeString(req.PostalCode)
	customer.Country = normalizeString(req.Country)
	customer.Notes = normalizeString(req.Notes)
	customer.RatePerM3 = decimalOr(req.RatePerM3, customer.RatePerM3)
	customer.PrepCostPerUnit = decimalOr(req.PrepCostPerUnit, customer.PrepCostPerUnit)
	customer.FulfillmentCostPerUnit = decimalOr(req.FulfillmentCostPerUnit, customer.FulfillmentCostPerUnit)

	if err := s.repo.Update(ctx, customer); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update customer")
	}
	s.invalidateBilling(ctx, id)
	return customer, nil
}

// Patch applies a partial update to an existing customer.
func (s *CustomerService) Patch(ctx context.Context, id int64, req PatchCustomerRequest) (*models.Customer, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, invalidPayload(err, "invalid customer payload")
	}
	if err := validateRates(req.RatePerM3, req.PrepCostPerUnit, req.FulfillmentCostPerUnit); err != nil {
		return nil, err
	}

	customer, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Email != nil {
		email := strings.TrimSpace(*req.Email)
		if email == "" {
			return nil, appErrors.Validation("invalid customer payload", map[string]string{"email": "this field may not be blank"})
		}
		if err := s.ensureUniqueEmail(ctx, email, id); err != nil {
			return nil, err
		}
		customer.Email = email
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, appErrors.Validation("invalid customer payload", map[string]string{"name": "this field may not be blank"})
		}
		customer.Name = name
	}
	applyString(&customer.FirstName, req.FirstName)
	applyString(&customer.LastName, req.LastName)
	applyString(&customer.Phone, req.Phone)
	applyString(&customer.Company, req.Company)
	applyString(&customer.AddressLine1, req.AddressLine1)
	applyString(&customer.AddressLine2, req.AddressLine2)
	applyString(&customer.City, req.City)
	applyString(&customer.County, req.County)
	applyString(&customer.State, req.State)
	applyString(&customer.PostalCode, req.PostalCode)
	applyString(&customer.Country, req.Country)
	applyString(&customer.Notes, req.Notes)
	customer.RatePerM3 = decimalOr(req.RatePerM3, customer.RatePerM3)
	customer.PrepCostPerUnit = decimalOr(req.PrepCostPerUnit, customer.PrepCostPerUnit)
	customer.FulfillmentCostPerUnit = decimalOr(req.FulfillmentCostPerUnit, customer.FulfillmentCostPerUnit)

	if err := s.repo.Update(ctx, customer); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update customer")
	}
	s.invalidateBilling(ctx, id)
	return customer, nil
}

// Delete removes a customer and all its dependent rows.
func (s *CustomerService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "customer not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete customer")
	}
	s.invalidateBilling(ctx, id)
	return nil
}

func (s *CustomerService) ensureUniqueEmail(ctx context.Context, email string, excludeID int64) error {
	exists, err := s.repo.ExistsByEmail(ctx, email, excludeID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check email uniqueness")
	}
	if exists {
		return appErrors.Validation("invalid customer payload", map[string]string{"email": "customer with this email already exists"})
	}
	return nil
}

func (s *CustomerService) invalidateBilling(ctx context.Context, customerID int64) {
	if s.billing != nil {
		s.billing.InvalidateCustomer(ctx, customerID)
	}
}

func validateRates(rates ...*decimal.Decimal) error {
	names := []string{"rate_per_m3", "prep_cost_per_unit", "fulfillment_cost_per_unit"}
	fields := map[string]string{}
	for i, rate := range rates {
		if rate != nil && rate.IsNegative() {
			fields[names[i]] = "must be greater than or equal to 0"
		}
	}
	if len(fields) > 0 {
		return appErrors.Validation("invalid customer payload", fields)
	}
	return nil
}

func decimalOr(value *decimal.Decimal, fallback decimal.Decimal) decimal.Decimal {
	if value == nil {
		return fallback
	}
	return *value
}

func applyString(dst *string, value *string) {
	if value != nil {
		*dst = strings.TrimSpace(*value)
	}
}

func paginationFor(page, size, total int) *models.Pagination {
	page, size = models.NormalizePage(page, size)
	return &models.Pagination{Page: page, PageSize: size, TotalCount: total}
}
