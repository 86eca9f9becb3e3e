package catalog

import (
	"context"
	"fmt"
	"testing"

	"bizmatch-workers/internal/common/errors"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var businessColumns = []string{
	"title", "description", "startup_cost", "profit_margin", "time_to_profit",
	"risk_level", "key_requirements", "expert_advice",
	"online_friendly", "low_risk", "urban_excluded",
}

func businessRows() *sqlmock.Rows {
	return sqlmock.NewRows(businessColumns).
		AddRow("Food Cart", "Street food", "₱40,000 - ₱80,000", "20-30%", "3-6 months",
			"Low", []byte(`["Permit","Cart"]`), "Pick a busy corner", false, true, false).
		AddRow("Online Tutoring", "Remote lessons", "₱10,000 - ₱30,000", "50-70%", "1-3 months",
			"Very Low", nil, "Record your sessions", true, true, true)
}

func TestLoadFromDB_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`FROM business_opportunities`).WillReturnRows(businessRows())
	mock.ExpectQuery(`FROM business_categories`).WillReturnRows(
		sqlmock.NewRows([]string{"category", "title"}).
			AddRow("Food & Beverage", "Food Cart").
			AddRow("Education", "Online Tutoring"))

	c, err := LoadFromDB(context.Background(), db)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())

	assert.Equal(t, 2, c.Len())
	assert.Equal(t, "postgres", c.Version())

	cart, ok := c.Lookup("food-cart")
	require.True(t, ok)
	assert.Equal(t, CostRange{Min: 40000, Max: 80000}, cart.Cost)
	assert.Equal(t, []string{"Permit", "Cart"}, cart.KeyRequirements)
	assert.True(t, cart.LowRisk)

	tutoring, ok := c.ByTitle("Online Tutoring")
	require.True(t, ok)
	assert.Equal(t, RiskVeryLow, tutoring.RiskLevel)
	assert.Empty(t, tutoring.KeyRequirements)
	assert.True(t, tutoring.OnlineFriendly)
	assert.True(t, tutoring.UrbanExcluded)

	assert.True(t, c.TitlesFor(CategoryEducation).Has("Online Tutoring"))
	assert.Empty(t, c.TitlesFor(CategoryConstruction))
}

func TestLoadFromDB_RevisionTracksRows(t *testing.T) {
	load := func(advice string) *Catalog {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`FROM business_opportunities`).WillReturnRows(
			sqlmock.NewRows(businessColumns).
				AddRow("Food Cart", "Street food", "₱40,000 - ₱80,000", "20-30%", "3-6 months",
					"Low", []byte(`["Permit"]`), advice, false, true, false))
		mock.ExpectQuery(`FROM business_categories`).WillReturnRows(
			sqlmock.NewRows([]string{"category", "title"}).AddRow("Food & Beverage", "Food Cart"))

		c, err := LoadFromDB(context.Background(), db)
		require.NoError(t, err)
		return c
	}

	before := load("Pick a busy corner")
	same := load("Pick a busy corner")
	after := load("Follow the office crowd")

	assert.Equal(t, "postgres", after.Version())
	assert.Equal(t, before.Revision(), same.Revision())
	assert.NotEqual(t, before.Revision(), after.Revision())
}

func TestLoadFromDB_QueryFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`FROM business_opportunities`).WillReturnError(fmt.Errorf("connection reset"))

	_, err = LoadFromDB(context.Background(), db)
	require.Error(t, err)

	stdErr, ok := errors.AsStandardError(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeQueryExecutionFailed, stdErr.Code)
	assert.True(t, stdErr.Retryable)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadFromDB_CategoryQueryFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`FROM business_opportunities`).WillReturnRows(businessRows())
	mock.ExpectQuery(`FROM business_categories`).WillReturnError(fmt.Errorf("relation does not exist"))

	_, err = LoadFromDB(context.Background(), db)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "catalog_categories")
}

func TestLoadFromDB_InvalidRowsFailValidation(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`FROM business_opportunities`).WillReturnRows(
		sqlmock.NewRows(businessColumns).
			AddRow("Food Cart", "", "₱80,000 - ₱40,000", "", "", "Low", nil, "", false, false, false))
	mock.ExpectQuery(`FROM business_categories`).WillReturnRows(
		sqlmock.NewRows([]string{"category", "title"}).
			AddRow("Retail", "Missing Store"))

	_, err = LoadFromDB(context.Background(), db)
	require.Error(t, err)

	stdErr, ok := errors.AsStandardError(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeCatalogInvalid, stdErr.Code)
	assert.Len(t, stdErr.Metadata["problems"], 2)
}

func TestLoadFromDB_BadRequirementsJSON(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`FROM business_opportunities`).WillReturnRows(
		sqlmock.NewRows(businessColumns).
			AddRow("Food Cart", "", "₱40,000 - ₱80,000", "", "", "Low", []byte(`{not json`), "", false, false, false))

	_, err = LoadFromDB(context.Background(), db)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "key_requirements")
}
