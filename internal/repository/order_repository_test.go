package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/fulfillment-api/internal/models"
)

func orderRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "customer_id", "item_id", "quantity", "date",
		"material_cost_per_fulfillment", "status", "tracking_number",
		"email_subject", "email_body", "created_at",
	})
}

func TestOrderRepositoryList(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewOrderRepository(db)

	rows := orderRows().
		AddRow(int64(1), int64(2), int64(3), 5, time.Now(),
			"0.75", "Preparing", "TRK-1", "", "", time.Now())
	mock.ExpectQuery(`FROM orders WHERE 1=1 ORDER BY created_at DESC LIMIT 20 OFFSET 0`).
		WillReturnRows(rows)
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM orders WHERE 1=1`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	orders, total, err := repo.List(context.Background(), models.OrderFilter{})
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, 1, total)
	assert.Equal(t, models.OrderPreparing, orders[0].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepositoryListFiltersByCustomer(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewOrderRepository(db)

	mock.ExpectQuery(`FROM orders WHERE 1=1 AND customer_id = \$1 ORDER BY created_at DESC`).
		WithArgs(int64(2)).
		WillReturnRows(orderRows())
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM orders WHERE 1=1 AND customer_id = \$1`).
		WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	customerID := int64(2)
	_, total, err := repo.List(context.Background(), models.OrderFilter{CustomerID: &customerID})
	require.NoError(t, err)
	assert.Equal(t, 0, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepositoryCreateAssignsID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewOrderRepository(db)

	mock.ExpectQuery(`INSERT INTO orders`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(11)))

	order := &models.Order{CustomerID: 2, Quantity: 1, Date: time.Now(), Status: models.OrderPreparing}
	err := repo.Create(context.Background(), order)
	require.NoError(t, err)
	assert.Equal(t, int64(11), order.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
