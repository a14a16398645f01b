package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/fulfillment-api/internal/models"
	appErrors "github.com/noah-isme/fulfillment-api/pkg/errors"
)

type archivedItemRepository interface {
	List(ctx context.Context, filter models.ArchivedItemFilter) ([]models.ArchivedItem, int, error)
	FindByID(ctx context.Context, id int64) (*models.ArchivedItem, error)
	Create(ctx context.Context, record *models.ArchivedItem) error
	Update(ctx context.Context, record *models.ArchivedItem) error
	Delete(ctx context.Context, id int64) error
}

type customerExistsRepository interface {
	FindByID(ctx context.Context, id int64) (*models.Customer, error)
}

// itemExistsRepository guards nullable item references before they reach the
// items foreign key.
type itemExistsRepository interface {
	FindByID(ctx context.Context, id int64) (*models.ItemWithRates, error)
}

// CreateArchivedItemRequest represents payload for archiving an item.
type CreateArchivedItemRequest struct {
	CustomerID int64   `json:"customer" validate:"required"`
	ItemID     *int64  `json:"item"`
	Reason     string  `json:"reason" validate:"required"`
	Notes      *string `json:"notes"`
}

// UpdateArchivedItemRequest represents payload for full replacement.
type UpdateArchivedItemRequest = CreateArchivedItemRequest

// PatchArchivedItemRequest represents payload for partial updates.
type PatchArchivedItemRequest struct {
	CustomerID *int64  `json:"customer"`
	ItemID     *int64  `json:"item"`
	Reason     *string `json:"reason"`
	Notes      *string `json:"notes"`
}

// ArchivedItemService orchestrates archival record operations.
type ArchivedItemService struct {
	repo      archivedItemRepository
	customers customerExistsRepository
	items     itemExistsRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewArchivedItemService constructs an ArchivedItemService.
func NewArchivedItemService(repo archivedItemRepository, customers customerExistsRepository, items itemExistsRepository, validate *validator.Validate, logger *zap.Logger) *ArchivedItemService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ArchivedItemService{repo: repo, customers: customers, items: items, validator: validate, logger: logger}
}

// List returns archived items plus pagination data.
func (s *ArchivedItemService) List(ctx context.Context, filter models.ArchivedItemFilter) ([]models.ArchivedItem, *models.Pagination, error) {
	records, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list archived items")
	}
	return records, paginationFor(filter.Page, filter.PageSize, total), nil
}

// Get returns an archived item by id.
func (s *ArchivedItemService) Get(ctx context.Context, id int64) (*models.ArchivedItem, error) {
	record, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "archived item not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load archived item")
	}
	return record, nil
}

// Create registers a new archival record.
func (s *ArchivedItemService) Create(ctx context.Context, req CreateArchivedItemRequest) (*models.ArchivedItem, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, invalidPayload(err, "invalid archived item payload")
	}
	if err := s.ensureCustomer(ctx, req.CustomerID); err != nil {
		return nil, err
	}
	if err := s.ensureItem(ctx, req.ItemID); err != nil {
		return nil, err
	}

	record := &models.ArchivedItem{
		CustomerID: req.CustomerID,
		ItemID:     req.ItemID,
		Reason:     strings.TrimSpace(req.Reason),
		Notes:      normalizeString(req.Notes),
	}

	if err := s.repo.Create(ctx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create archived item")
	}
	return record, nil
}

// Update replaces the mutable fields of an archival record.
func (s *ArchivedItemService) Update(ctx context.Context, id int64, req UpdateArchivedItemRequest) (*models.ArchivedItem, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, invalidPayload(err, "invalid archived item payload")
	}

	record, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.ensureCustomer(ctx, req.CustomerID); err != nil {
		return nil, err
	}
	if err := s.ensureItem(ctx, req.ItemID); err != nil {
		return nil, err
	}

	record.CustomerID = req.CustomerID
	record.ItemID = req.ItemID
	record.Reason = strings.TrimSpace(req.Reason)
	record.Notes = normalizeString(req.Notes)

	if err := s.repo.Update(ctx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update archived item")
	}
	return record, nil
}

// Patch applies a partial update to an archival record.
func (s *ArchivedItemService) Patch(ctx context.Context, id int64, req PatchArchivedItemRequest) (*models.ArchivedItem, error) {
	record, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.CustomerID != nil {
		if err := s.ensureCustomer(ctx, *req.CustomerID); err != nil {
			return nil, err
		}
		record.CustomerID = *req.CustomerID
	}
	if req.ItemID != nil {
		if err := s.ensureItem(ctx, req.ItemID); err != nil {
			return nil, err
		}
		record.ItemID = req.ItemID
	}
	if req.Reason != nil {
		reason := strings.TrimSpace(*req.Reason)
		if reason == "" {
			return nil, appErrors.Validation("invalid archived item payload", map[string]string{"reason": "this field may not be blank"})
		}
		record.Reason = reason
	}
	applyString(&record.Notes, req.Notes)

	if err := s.repo.Update(ctx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update archived item")
	}
	return record, nil
}

// Delete removes an archival record.
func (s *ArchivedItemService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "archived item not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete archived item")
	}
	return nil
}

func (s *ArchivedItemService) ensureCustomer(ctx context.Context, customerID int64) error {
	if _, err := s.customers.FindByID(ctx, customerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Validation("invalid archived item payload", map[string]string{"customer": "customer does not exist"})
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load customer")
	}
	return nil
}

func (s *ArchivedItemService) ensureItem(ctx context.Context, itemID *int64) error {
	if itemID == nil {
		return nil
	}
	if _, err := s.items.FindByID(ctx, *itemID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Validation("invalid archived item payload", map[string]string{"item": "item does not exist"})
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load item")
	}
	return nil
}
