package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/noah-isme/fulfillment-api/internal/models"
	appErrors "github.com/noah-isme/fulfillment-api/pkg/errors"
)

type orderRepository interface {
	List(ctx context.Context, filter models.OrderFilter) ([]models.Order, int, error)
	FindByID(ctx context.Context, id int64) (*models.Order, error)
	Create(ctx context.Context, order *models.Order) error
	Update(ctx context.Context, order *models.Order) error
	Delete(ctx context.Context, id int64) error
}

// CreateOrderRequest represents payload for creating orders.
type CreateOrderRequest struct {
	CustomerID                 int64               `json:"customer" validate:"required"`
	ItemID                     *int64              `json:"item"`
	Quantity                   *int                `json:"quantity"`
	Date                       string              `json:"date" validate:"required,datetime=2006-01-02"`
	MaterialCostPerFulfillment *decimal.Decimal    `json:"material_cost_per_fulfillment"`
	Status                     *models.OrderStatus `json:"status"`
	TrackingNumber             *string             `json:"tracking_number"`
	EmailSubject               *string             `json:"email_subject"`
	EmailBody                  *string             `json:"email_body"`
}

// UpdateOrderRequest represents payload for full order replacement.
type UpdateOrderRequest = CreateOrderRequest

// PatchOrderRequest represents payload for partial order updates.
type PatchOrderRequest struct {
	CustomerID                 *int64              `json:"customer"`
	ItemID                     *int64              `json:"item"`
	Quantity                   *int                `json:"quantity"`
	Date                       *string             `json:"date" validate:"omitempty,datetime=2006-01-02"`
	MaterialCostPerFulfillment *decimal.Decimal    `json:"material_cost_per_fulfillment"`
	Status                     *models.OrderStatus `json:"status"`
	TrackingNumber             *string             `json:"tracking_number"`
	EmailSubject               *string             `json:"email_subject"`
	EmailBody                  *string             `json:"email_body"`
}

// OrderService orchestrates fulfillment order operations.
type OrderService struct {
	repo      orderRepository
	customers customerExistsRepository
	items     itemExistsRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewOrderService constructs an OrderService.
func NewOrderService(repo orderRepository, customers customerExistsRepository, items itemExistsRepository, validate *validator.Validate, logger *zap.Logger) *OrderService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderService{repo: repo, customers: customers, items: items, validator: validate, logger: logger}
}

// List returns orders plus pagination data.
func (s *OrderService) List(ctx context.Context, filter models.OrderFilter) ([]models.Order, *models.Pagination, error) {
	orders, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list orders")
	}
	return orders, paginationFor(filter.Page, filter.PageSize, total), nil
}

// Get returns an order by id.
func (s *OrderService) Get(ctx context.Context, id int64) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "order not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load order")
	}
	return order, nil
}

// Create registers a new fulfillment order.
func (s *OrderService) Create(ctx context.Context, req CreateOrderRequest) (*models.Order, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, invalidPayload(err, "invalid order payload")
	}
	if err := s.ensureCustomer(ctx, req.CustomerID); err != nil {
		return nil, err
	}
	if err := s.ensureItem(ctx, req.ItemID); err != nil {
		return nil, err
	}

	status := models.OrderPreparing
	if req.Status != nil {
		status = *req.Status
	}
	if !status.Valid() {
		return nil, appErrors.Validation("invalid order payload", map[string]string{"status": "must be one of: Preparing, Shipped, Delivered, Cancelled"})
	}

	date, _ := time.Parse(dateLayout, req.Date)
	order := &models.Order{
		CustomerID:                 req.CustomerID,
		ItemID:                     req.ItemID,
		Quantity:                   intOr(req.Quantity, 1),
		Date:                       date,
		MaterialCostPerFulfillment: decimalOr(req.MaterialCostPerFulfillment, decimal.Zero),
		Status:                     status,
		TrackingNumber:             normalizeString(req.TrackingNumber),
		EmailSubject:               normalizeString(req.EmailSubject),
		EmailBody:                  emailBodyOr(req.EmailBody),
	}

	if err := s.repo.Create(ctx, order); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create order")
	}
	return order, nil
}

// Update replaces an existing order. Status moves are unconstrained: any
// status may be written over any other.
func (s *OrderService) Update(ctx context.Context, id int64, req UpdateOrderRequest) (*models.Order, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, invalidPayload(err, "invalid order payload")
	}

	order, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.ensureCustomer(ctx, req.CustomerID); err != nil {
		return nil, err
	}
	if err := s.ensureItem(ctx, req.ItemID); err != nil {
		return nil, err
	}

	status := models.OrderPreparing
	if req.Status != nil {
		status = *req.Status
	}
	if !status.Valid() {
		return nil, appErrors.Validation("invalid order payload", map[string]string{"status": "must be one of: Preparing, Shipped, Delivered, Cancelled"})
	}

	date, _ := time.Parse(dateLayout, req.Date)
	order.CustomerID = req.CustomerID
	order.ItemID = req.ItemID
	order.Quantity = intOr(req.Quantity, 1)
	order.Date = date
	order.MaterialCostPerFulfillment = decimalOr(req.MaterialCostPerFulfillment, decimal.Zero)
	order.Status = status
	order.TrackingNumber = normalizeString(req.TrackingNumber)
	order.EmailSubject = normalizeString(req.EmailSubject)
	order.EmailBody = emailBodyOr(req.EmailBody)

	if err := s.repo.Update(ctx, order); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update order")
	}
	return order, nil
}

// Patch applies a partial update to an order.
func (s *OrderService) Patch(ctx context.Context, id int64, req PatchOrderRequest) (*models.Order, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, invalidPayload(err, "invalid order payload")
	}

	order, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.CustomerID != nil {
		if err := s.ensureCustomer(ctx, *req.CustomerID); err != nil {
			return nil, err
		}
		order.CustomerID = *req.CustomerID
	}
	if req.ItemID != nil {
		if err := s.ensureItem(ctx, req.ItemID); err != nil {
			return nil, err
		}
		order.ItemID = req.ItemID
	}
	if req.Quantity != nil {
		order.Quantity = *req.Quantity
	}
	if req.Date != nil {
		date, _ := time.Parse(dateLayout, *req.Date)
		order.Date = date
	}
	if req.MaterialCostPerFulfillment != nil {
		order.MaterialCostPerFulfillment = *req.MaterialCostPerFulfillment
	}
	if req.Status != nil {
		if !req.Status.Valid() {
			return nil, appErrors.Validation("invalid order payload", map[string]string{"status": "must be one of: Preparing, Shipped, Delivered, Cancelled"})
		}
		order.Status = *req.Status
	}
	applyString(&order.TrackingNumber, req.TrackingNumber)
	applyString(&order.EmailSubject, req.EmailSubject)
	if req.EmailBody != nil {
		order.EmailBody = *req.EmailBody
	}

	if err := s.repo.Update(ctx, order); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update order")
	}
	return order, nil
}

// Delete removes an order record.
func (s *OrderService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "order not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete order")
	}
	return nil
}

func (s *OrderService) ensureCustomer(ctx context.Context, customerID int64) error {
	if _, err := s.customers.FindByID(ctx, customerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Validation("invalid order payload", map[string]string{"customer": "customer does not exist"})
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load customer")
	}
	return nil
}

func (s *OrderService) ensureItem(ctx context.Context, itemID *int64) error {
	if itemID == nil {
		return nil
	}
	if _, err := s.items.FindByID(ctx, *itemID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Validation("invalid order payload", map[string]string{"item": "item does not exist"})
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load item")
	}
	return nil
}

// emailBodyOr keeps full body text untrimmed; notification bodies may carry
// meaningful leading whitespace.
func emailBodyOr(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
