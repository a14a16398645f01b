package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/fulfillment-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func customerRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "email", "name", "first_name", "last_name", "phone", "company",
		"address_line1", "address_line2", "city", "county", "state", "postal_code", "country", "notes",
		"rate_per_m3", "prep_cost_per_unit", "fulfillment_cost_per_unit", "created_at", "updated_at",
	})
}

func TestCustomerRepositoryList(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCustomerRepository(db)

	rows := customerRows().
		AddRow(int64(1), "acme@example.com", "Acme", "", "", "", "Acme Ltd",
			"", "", "", "", "", "", "", "",
			"10", "0", "0", time.Now(), time.Now())
	mock.ExpectQuery(`FROM customers WHERE 1=1 ORDER BY created_at DESC LIMIT 20 OFFSET 0`).
		WillReturnRows(rows)
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM customers WHERE 1=1`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	customers, total, err := repo.List(context.Background(), models.CustomerFilter{})
	require.NoError(t, err)
	assert.Len(t, customers, 1)
	assert.Equal(t, 1, total)
	assert.Equal(t, "acme@example.com", customers[0].Email)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCustomerRepositoryListClampsOversizedPage(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCustomerRepository(db)

	mock.ExpectQuery(`FROM customers WHERE 1=1 ORDER BY created_at DESC LIMIT 20 OFFSET 0`).
		WillReturnRows(customerRows())
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM customers WHERE 1=1`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	_, _, err := repo.List(context.Background(), models.CustomerFilter{Page: 0, PageSize: 500})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCustomerRepositoryListSearch(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCustomerRepository(db)

	mock.ExpectQuery(`FROM customers WHERE 1=1 AND \(LOWER\(name\) LIKE \$1 OR LOWER\(email\) LIKE \$1 OR LOWER\(company\) LIKE \$1\) ORDER BY created_at DESC`).
		WithArgs("%acme%").
		WillReturnRows(customerRows())
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM customers WHERE 1=1 AND`).
		WithArgs("%acme%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	_, total, err := repo.List(context.Background(), models.CustomerFilter{Search: "Acme"})
	require.NoError(t, err)
	assert.Equal(t, 0, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCustomerRepositoryCreateAssignsID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCustomerRepository(db)

	mock.ExpectQuery(`INSERT INTO customers`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))

	customer := &models.Customer{
		Email:     "acme@example.com",
		Name:      "Acme",
		RatePerM3: decimal.NewFromInt(10),
	}
	err := repo.Create(context.Background(), customer)
	require.NoError(t, err)
	assert.Equal(t, int64(7), customer.ID)
	assert.False(t, customer.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCustomerRepositoryExistsByEmail(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCustomerRepository(db)

	mock.ExpectQuery(`SELECT 1 FROM customers WHERE LOWER\(email\) = LOWER\(\$1\) LIMIT 1`).
		WithArgs("acme@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

	exists, err := repo.ExistsByEmail(context.Background(), "acme@example.com", 0)
	require.NoError(t, err)
	assert.True(t, exists)

	mock.ExpectQuery(`SELECT 1 FROM customers WHERE LOWER\(email\) = LOWER\(\$1\) AND id <> \$2 LIMIT 1`).
		WithArgs("acme@example.com", int64(3)).
		WillReturnError(sql.ErrNoRows)

	exists, err = repo.ExistsByEmail(context.Background(), "acme@example.com", 3)
	require.NoError(t, err)
	assert.False(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCustomerRepositoryDeleteCascades(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCustomerRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT 1 FROM customers WHERE id = \$1 FOR UPDATE`).
		WithArgs(int64(4)).
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectExec(`DELETE FROM orders WHERE customer_id = \$1`).
		WithArgs(int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(`DELETE FROM archived_items WHERE customer_id = \$1`).
		WithArgs(int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM items WHERE customer_id = \$1`).
		WithArgs(int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(`DELETE FROM customers WHERE id = \$1`).
		WithArgs(int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.Delete(context.Background(), 4)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCustomerRepositoryDeleteMissingRollsBack(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCustomerRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT 1 FROM customers WHERE id = \$1 FOR UPDATE`).
		WithArgs(int64(99)).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	err := repo.Delete(context.Background(), 99)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
