package repository

import (
	"context"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gac-api/internal/models"
)

func newCatalogMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestCatalogRepositoryListDimensions(t *testing.T) {
	db, mock, cleanup := newCatalogMock(t)
	defer cleanup()
	repo := NewCatalogRepository(db)

	rows := sqlmock.NewRows([]string{"id", "name", "hour_cap"}).
		AddRow("dim-1", "Ensino", 40.0).
		AddRow("dim-2", "Pesquisa", 30.0)
	mock.ExpectQuery(`SELECT id, name, hour_cap FROM dimensions`).WillReturnRows(rows)

	dims, err := repo.ListDimensions(context.Background())
	require.NoError(t, err)
	assert.Len(t, dims, 2)
	assert.Equal(t, "Ensino", dims[0].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCatalogRepositoryCreateActivity(t *testing.T) {
	db, mock, cleanup := newCatalogMock(t)
	defer cleanup()
	repo := NewCatalogRepository(db)

	mock.ExpectExec("INSERT INTO activities").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	act := &models.Activity{Name: "Monitoria", DimensionID: "dim-1", HourCap: 20}
	err := repo.CreateActivity(context.Background(), act)
	require.NoError(t, err)
	assert.NotEmpty(t, act.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCatalogRepositoryListActivitiesByDimension(t *testing.T) {
	db, mock, cleanup := newCatalogMock(t)
	defer cleanup()
	repo := NewCatalogRepository(db)

	rows := sqlmock.NewRows([]string{"id", "name", "dimension_id", "hour_cap"}).
		AddRow("act-1", "Monitoria", "dim-1", 20.0)
	mock.ExpectQuery(`SELECT id, name, dimension_id, hour_cap FROM activities WHERE dimension_id`).
		WithArgs("dim-1").
		WillReturnRows(rows)

	acts, err := repo.ListActivities(context.Background(), "dim-1")
	require.NoError(t, err)
	require.Len(t, acts, 1)
	assert.Equal(t, "dim-1", acts[0].DimensionID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
