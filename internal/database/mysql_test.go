package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"property-browser/internal/filter"
	"property-browser/internal/models"
)

func setupMockGorm(t *testing.T) (*GormDB, sqlmock.Sqlmock) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      conn,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return NewGormDBFromDB(db), mock
}

func TestGormDB_QueryProperties_PushesDownFilters(t *testing.T) {
	gdb, mock := setupMockGorm(t)
	now := time.Now()

	mock.ExpectQuery("SELECT \\* FROM `properties` WHERE price >= \\? AND price <= \\? AND bathrooms >= \\? AND property_type = \\? ORDER BY created_at DESC").
		WithArgs(100000, 900000, 2, "condo").
		WillReturnRows(sqlmock.NewRows([]string{"id", "property_id", "title", "price", "images", "created_at"}).
			AddRow("id-1", "ext-1", "Condo", int64(500000), `["a.jpg"]`, now))

	c := parseCriteria(t, filter.Raw{MinPrice: "100000", MaxPrice: "900000", Bathrooms: "2", PropertyType: "condo"})
	got, err := gdb.QueryProperties(context.Background(), c)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "ext-1", got[0].PropertyID)
	assert.Equal(t, models.JSONList[string]{"a.jpg"}, got[0].Images)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormDB_QueryProperties_NoFilters(t *testing.T) {
	gdb, mock := setupMockGorm(t)

	mock.ExpectQuery("SELECT \\* FROM `properties` ORDER BY created_at DESC").
		WillReturnRows(sqlmock.NewRows([]string{"id", "property_id"}))

	got, err := gdb.QueryProperties(context.Background(), filter.Criteria{})
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormDB_GetProperty_NotFound(t *testing.T) {
	gdb, mock := setupMockGorm(t)

	mock.ExpectQuery("SELECT \\* FROM `properties` WHERE id = \\?").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := gdb.GetProperty(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGormDB_UpsertProperty_InsertsNewRow(t *testing.T) {
	gdb, mock := setupMockGorm(t)
	created := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectExec("INSERT INTO `properties` .* ON DUPLICATE KEY UPDATE").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT `id`,`created_at` FROM `properties` WHERE property_id = \\?").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("new-id", created))

	p := &models.Property{PropertyID: "ext-7", Title: models.Ptr("House")}
	require.NoError(t, gdb.UpsertProperty(context.Background(), p))
	assert.Equal(t, "new-id", p.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormDB_UpsertProperty_KeepsExistingIdentity(t *testing.T) {
	gdb, mock := setupMockGorm(t)
	created := time.Date(2023, 11, 5, 8, 30, 0, 0, time.UTC)

	// A duplicate key update reports two affected rows.
	mock.ExpectExec("INSERT INTO `properties` .* ON DUPLICATE KEY UPDATE").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectQuery("SELECT `id`,`created_at` FROM `properties` WHERE property_id = \\?").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("existing-id", created))

	p := &models.Property{PropertyID: "M100", Title: models.Ptr("Sea View Flat")}
	require.NoError(t, gdb.UpsertProperty(context.Background(), p))

	assert.Equal(t, "existing-id", p.ID)
	assert.True(t, created.Equal(p.CreatedAt))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormDB_UpsertProperty_ReloadError(t *testing.T) {
	gdb, mock := setupMockGorm(t)

	mock.ExpectExec("INSERT INTO `properties`").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT `id`,`created_at` FROM `properties`").
		WillReturnError(errors.New("connection lost"))

	err := gdb.UpsertProperty(context.Background(), &models.Property{PropertyID: "M101"})
	assert.ErrorContains(t, err, "reload property M101")
}
