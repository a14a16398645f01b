package handler

import (
	"context"
	"database/sql"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/fulfillment-api/internal/models"
	"github.com/noah-isme/fulfillment-api/internal/service"
)

type itemRepoHandlerMock struct {
	items      []models.ItemWithRates
	lastFilter models.ItemFilter
}

func (m *itemRepoHandlerMock) List(ctx context.Context, filter models.ItemFilter) ([]models.ItemWithRates, int, error) {
	m.lastFilter = filter
	return m.items, len(m.items), nil
}

func (m *itemRepoHandlerMock) FindByID(ctx context.Context, id int64) (*models.ItemWithRates, error) {
	for _, it := range m.items {
		if it.ID == id {
			return &it, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *itemRepoHandlerMock) Create(ctx context.Context, item *models.Item) error { return nil }
func (m *itemRepoHandlerMock) Update(ctx context.Context, item *models.Item) error { return nil }
func (m *itemRepoHandlerMock) Delete(ctx context.Context, id int64) error          { return nil }

type ratesRepoHandlerMock struct{}

func (ratesRepoHandlerMock) GetRates(ctx context.Context, id int64) (*models.CustomerRates, error) {
	return &models.CustomerRates{RatePerM3: decimal.RequireFromString("10")}, nil
}

func newItemHandlerFixture(repo *itemRepoHandlerMock) *ItemHandler {
	svc := service.NewItemService(repo, ratesRepoHandlerMock{}, nil, nil, nil, nil)
	return NewItemHandler(svc)
}

func TestItemHandlerListCustomerFilter(t *testing.T) {
	repo := &itemRepoHandlerMock{}
	handler := newItemHandlerFixture(repo)

	c, w := testContext(t, http.MethodGet, "/items?customer=7", nil)

	handler.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, repo.lastFilter.CustomerID)
	assert.Equal(t, int64(7), *repo.lastFilter.CustomerID)
}

func TestItemHandlerListInvalidCustomerFilter(t *testing.T) {
	handler := newItemHandlerFixture(&itemRepoHandlerMock{})

	c, w := testContext(t, http.MethodGet, "/items?customer=abc", nil)

	handler.List(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
	envelope := decodeEnvelope(t, w)
	require.NotNil(t, envelope.Error)
	assert.Contains(t, envelope.Error.Fields, "customer")
}

func TestItemHandlerGetNonNumericID(t *testing.T) {
	handler := newItemHandlerFixture(&itemRepoHandlerMock{})

	c, w := testContext(t, http.MethodGet, "/items/latest", nil)
	c.Params = gin.Params{{Key: "id", Value: "latest"}}

	handler.Get(c)
	require.Equal(t, http.StatusNotFound, w.Code)
}
