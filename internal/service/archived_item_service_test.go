package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/fulfillment-api/internal/models"
	appErrors "github.com/noah-isme/fulfillment-api/pkg/errors"
)

type archivedItemRepoStub struct {
	records map[int64]models.ArchivedItem
	nextID  int64
	err     error
}

func newArchivedItemRepoStub() *archivedItemRepoStub {
	return &archivedItemRepoStub{records: map[int64]models.ArchivedItem{}, nextID: 1}
}

func (s *archivedItemRepoStub) List(ctx context.Context, filter models.ArchivedItemFilter) ([]models.ArchivedItem, int, error) {
	if s.err != nil {
		return nil, 0, s.err
	}
	result := make([]models.ArchivedItem, 0, len(s.records))
	for _, r := range s.records {
		result = append(result, r)
	}
	return result, len(result), nil
}

func (s *archivedItemRepoStub) FindByID(ctx context.Context, id int64) (*models.ArchivedItem, error) {
	if s.err != nil {
		return nil, s.err
	}
	if r, ok := s.records[id]; ok {
		return &r, nil
	}
	return nil, sql.ErrNoRows
}

func (s *archivedItemRepoStub) Create(ctx context.Context, record *models.ArchivedItem) error {
	if s.err != nil {
		return s.err
	}
	record.ID = s.nextID
	s.nextID++
	s.records[record.ID] = *record
	return nil
}

func (s *archivedItemRepoStub) Update(ctx context.Context, record *models.ArchivedItem) error {
	if s.err != nil {
		return s.err
	}
	s.records[record.ID] = *record
	return nil
}

func (s *archivedItemRepoStub) Delete(ctx context.Context, id int64) error {
	if s.err != nil {
		return s.err
	}
	if _, ok := s.records[id]; !ok {
		return sql.ErrNoRows
	}
	delete(s.records, id)
	return nil
}

func newArchivedItemService() (*ArchivedItemService, *archivedItemRepoStub) {
	repo := newArchivedItemRepoStub()
	customers := &customerExistsStub{existing: map[int64]bool{2: true}}
	items := &itemExistsStub{existing: map[int64]bool{3: true}}
	return NewArchivedItemService(repo, customers, items, nil, nil), repo
}

func TestArchivedItemServiceCreate(t *testing.T) {
	svc, _ := newArchivedItemService()

	itemID := int64(3)
	record, err := svc.Create(context.Background(), CreateArchivedItemRequest{
		CustomerID: 2,
		ItemID:     &itemID,
		Reason:     "  damaged  ",
	})
	require.NoError(t, err)
	assert.Equal(t, "damaged", record.Reason)
	require.NotNil(t, record.ItemID)
	assert.Equal(t, int64(3), *record.ItemID)
}

func TestArchivedItemServiceCreateRequiresReason(t *testing.T) {
	svc, _ := newArchivedItemService()

	_, err := svc.Create(context.Background(), CreateArchivedItemRequest{CustomerID: 2})
	require.Error(t, err)

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Contains(t, appErr.Fields, "reason")
}

func TestArchivedItemServiceCreateUnknownCustomer(t *testing.T) {
	svc, _ := newArchivedItemService()

	_, err := svc.Create(context.Background(), CreateArchivedItemRequest{CustomerID: 55, Reason: "damaged"})
	require.Error(t, err)

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "customer does not exist", appErr.Fields["customer"])
}

func TestArchivedItemServiceCreateUnknownItem(t *testing.T) {
	svc, _ := newArchivedItemService()

	itemID := int64(99)
	_, err := svc.Create(context.Background(), CreateArchivedItemRequest{
		CustomerID: 2,
		ItemID:     &itemID,
		Reason:     "damaged",
	})
	require.Error(t, err)

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Equal(t, "item does not exist", appErr.Fields["item"])
}

func TestArchivedItemServicePatchUnknownItem(t *testing.T) {
	svc, _ := newArchivedItemService()

	record, err := svc.Create(context.Background(), CreateArchivedItemRequest{CustomerID: 2, Reason: "seasonal"})
	require.NoError(t, err)

	itemID := int64(99)
	_, err = svc.Patch(context.Background(), record.ID, PatchArchivedItemRequest{ItemID: &itemID})
	require.Error(t, err)

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "item does not exist", appErr.Fields["item"])
}

func TestArchivedItemServicePatchRejectsBlankReason(t *testing.T) {
	svc, _ := newArchivedItemService()

	record, err := svc.Create(context.Background(), CreateArchivedItemRequest{CustomerID: 2, Reason: "seasonal"})
	require.NoError(t, err)

	_, err = svc.Patch(context.Background(), record.ID, PatchArchivedItemRequest{Reason: strPtr(" ")})
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Contains(t, appErr.Fields, "reason")

	patched, err := svc.Patch(context.Background(), record.ID, PatchArchivedItemRequest{Notes: strPtr("shelved")})
	require.NoError(t, err)
	assert.Equal(t, "seasonal", patched.Reason)
	assert.Equal(t, "shelved", patched.Notes)
}

func TestArchivedItemServiceDeleteMissing(t *testing.T) {
	svc, _ := newArchivedItemService()

	err := svc.Delete(context.Background(), 404)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}
