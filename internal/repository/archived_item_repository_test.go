package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/fulfillment-api/internal/models"
)

func archivedItemRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "customer_id", "item_id", "reason", "notes", "archived_at"})
}

func TestArchivedItemRepositoryList(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewArchivedItemRepository(db)

	rows := archivedItemRows().
		AddRow(int64(1), int64(2), int64(3), "damaged", "", time.Now())
	mock.ExpectQuery(`FROM archived_items WHERE 1=1 ORDER BY archived_at DESC LIMIT 20 OFFSET 0`).
		WillReturnRows(rows)
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM archived_items WHERE 1=1`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	records, total, err := repo.List(context.Background(), models.ArchivedItemFilter{})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 1, total)
	assert.Equal(t, "damaged", records[0].Reason)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestArchivedItemRepositoryListFiltersByCustomer(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewArchivedItemRepository(db)

	mock.ExpectQuery(`FROM archived_items WHERE 1=1 AND customer_id = \$1 ORDER BY archived_at DESC`).
		WithArgs(int64(2)).
		WillReturnRows(archivedItemRows())
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM archived_items WHERE 1=1 AND customer_id = \$1`).
		WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	customerID := int64(2)
	_, total, err := repo.List(context.Background(), models.ArchivedItemFilter{CustomerID: &customerID})
	require.NoError(t, err)
	assert.Equal(t, 0, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestArchivedItemRepositoryCreateDefaultsArchivedAt(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewArchivedItemRepository(db)

	mock.ExpectQuery(`INSERT INTO archived_items`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(5)))

	record := &models.ArchivedItem{CustomerID: 2, Reason: "seasonal"}
	err := repo.Create(context.Background(), record)
	require.NoError(t, err)
	assert.Equal(t, int64(5), record.ID)
	assert.False(t, record.ArchivedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestArchivedItemRepositoryDeleteMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewArchivedItemRepository(db)

	mock.ExpectExec(`DELETE FROM archived_items WHERE id = \$1`).
		WithArgs(int64(404)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), 404)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
