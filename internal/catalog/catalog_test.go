package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestViewExists(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(viewExistsQuery).
		WithArgs("kvp", "kvp_arab_2026_vw").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(viewExistsQuery).
		WithArgs("kvp", "kvp_arab_2027_vw").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	ok, err := ViewExists(context.Background(), db, "kvp", "kvp_arab_2026_vw")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = ViewExists(context.Background(), db, "kvp", "kvp_arab_2027_vw")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestViewExistsError(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(viewExistsQuery).WillReturnError(errors.New("permission denied for view pg_views"))

	_, err = ViewExists(context.Background(), db, "kvp", "kvp_arab_2026_vw")
	assert.ErrorContains(t, err, "kvp.kvp_arab_2026_vw")
}

func TestGetView(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer db.Close()

	def := " SELECT kvp_arab_2025_vw.id FROM kvp.kvp_arab_2025_vw;"
	mock.ExpectQuery(viewDefinitionQuery).
		WithArgs("kvp", "kvp_arab_rankings_vw").
		WillReturnRows(sqlmock.NewRows([]string{"definition"}).AddRow(def))

	v, err := GetView(context.Background(), db, "kvp", "kvp_arab_rankings_vw")
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, def, v.Definition)
	assert.Equal(t, "kvp.kvp_arab_rankings_vw", v.QualifiedName())
}

func TestGetViewMissing(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(viewDefinitionQuery).
		WithArgs("kvp", "kvp_arab_rankings_vw").
		WillReturnRows(sqlmock.NewRows([]string{"definition"}))

	v, err := GetView(context.Background(), db, "kvp", "kvp_arab_rankings_vw")
	require.NoError(t, err)
	assert.Nil(t, v)
}
