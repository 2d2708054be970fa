package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wesleyautomate-ship-it/retrieval-engine/internal/model"
)

func newMockRepo(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresRepositoryFromDB(sqlx.NewDb(db, "sqlmock")), mock
}

func snapshotRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"property_id", "title", "location", "property_type", "price",
		"bedrooms", "bathrooms", "area_sqft", "listed_date", "url",
	})
}

func TestFilterSearch_BuildsClausesInConstraintOrder(t *testing.T) {
	repo, mock := newMockRepo(t)

	priceMax := 2000000.0
	bedrooms := 3
	location := "Dubai Marina"
	constraints := &model.Constraints{
		PriceMax: &priceMax,
		Bedrooms: &bedrooms,
		Location: &location,
	}

	listed := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`(?s)SELECT property_id.*FROM properties.*WHERE is_active = true AND price <= \$1 AND bedrooms = \$2 AND location ILIKE \$3.*ORDER BY listed_date DESC NULLS LAST, property_id ASC.*LIMIT \$4`).
		WithArgs(priceMax, bedrooms, "%Dubai Marina%", 20).
		WillReturnRows(snapshotRows().
			AddRow(int64(42), "Marina View 3BR", "Dubai Marina", "apartment", 1850000.0, 3, 2, 1450.5, listed, "https://example.com/42"))

	properties, err := repo.FilterSearch(context.Background(), constraints, 20)

	require.NoError(t, err)
	require.Len(t, properties, 1)
	assert.Equal(t, int64(42), properties[0].PropertyID)
	assert.Equal(t, "Marina View 3BR", properties[0].Title)
	require.NotNil(t, properties[0].Price)
	assert.Equal(t, 1850000.0, *properties[0].Price)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFilterSearch_OnlyActiveFilterWithNilConstraints(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`(?s)SELECT property_id.*WHERE is_active = true\s+ORDER BY`).
		WithArgs(10).
		WillReturnRows(snapshotRows())

	properties, err := repo.FilterSearch(context.Background(), nil, 10)

	require.NoError(t, err)
	assert.Empty(t, properties)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVectorSearch_ReturnsSimilarity(t *testing.T) {
	repo, mock := newMockRepo(t)

	rows := sqlmock.NewRows([]string{
		"property_id", "title", "location", "property_type", "price",
		"bedrooms", "bathrooms", "area_sqft", "listed_date", "url",
		"similarity",
	}).
		AddRow(int64(7), "Sea View Penthouse", "Palm Jumeirah", "penthouse", 9500000.0, 4, 5, 5200.0, nil, nil, 0.91).
		AddRow(int64(8), "Beachfront Apartment", "Jumeirah Beach Residence", "apartment", 2100000.0, 2, 2, 1200.0, nil, nil, 0.84)

	mock.ExpectQuery(`(?s)SELECT property_id.*1 - \(embedding <=> \$1\) AS similarity.*WHERE is_active = true AND embedding IS NOT NULL.*ORDER BY embedding <=> \$1, property_id ASC.*LIMIT \$2`).
		WithArgs(sqlmock.AnyArg(), 5).
		WillReturnRows(rows)

	hits, err := repo.VectorSearch(context.Background(), []float32{0.1, 0.2, 0.3}, 5)

	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, int64(7), hits[0].PropertyID)
	assert.Equal(t, 0.91, hits[0].Similarity)
	assert.Greater(t, hits[0].Similarity, hits[1].Similarity)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetPropertyByID_NotFoundIsNil(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`(?s)SELECT property_id.*WHERE property_id = \$1 AND is_active = true`).
		WithArgs(int64(999)).
		WillReturnRows(snapshotRows())

	property, err := repo.GetPropertyByID(context.Background(), 999)

	require.NoError(t, err, "a missing row is not an error")
	assert.Nil(t, property)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetPropertyByID_Found(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`(?s)SELECT property_id.*WHERE property_id = \$1 AND is_active = true`).
		WithArgs(int64(42)).
		WillReturnRows(snapshotRows().
			AddRow(int64(42), "Marina View 3BR", "Dubai Marina", "apartment", 1850000.0, 3, 2, 1450.5, nil, nil))

	property, err := repo.GetPropertyByID(context.Background(), 42)

	require.NoError(t, err)
	require.NotNil(t, property)
	assert.Equal(t, "Marina View 3BR", property.Title)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLogSearch_InsertsRow(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(`INSERT INTO search_logs`).
		WithArgs("search-123", "3 bedroom in marina", "property_search", 12, false, int64(148)).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.LogSearch(context.Background(), "search-123", "3 bedroom in marina", model.IntentPropertySearch, 12, false, 148)

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
