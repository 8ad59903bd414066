package database_test

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CoderVinit/doctor-backend/internal/adapters/database"
	apperrors "github.com/CoderVinit/doctor-backend/pkg/errors"
)

var doctorCols = []string{
	"id", "name", "email", "image", "speciality", "degree", "experience",
	"about", "keywords", "rating", "fees", "address", "available",
}

func setupMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })
	return sqlx.NewDb(mockDB, "postgres"), mock
}

func TestDoctorAdapter_GetByID(t *testing.T) {
	db, mock := setupMockDB(t)
	adapter := database.NewDoctorAdapter(db)

	mock.ExpectQuery(`SELECT .* FROM "doctors" WHERE \("id" = \$1\)`).
		WithArgs("doc-1").
		WillReturnRows(sqlmock.NewRows(doctorCols).AddRow(
			"doc-1", "Dr. Meera Iyer", "meera@example.com", "", "Cardiologist", "MBBS, DM",
			"12 Years", "Heart specialist", "{chest,heart}", 4.8, 800.0, "Mumbai", true,
		))

	doctor, err := adapter.GetByID(context.Background(), "doc-1")

	require.NoError(t, err)
	assert.Equal(t, "Dr. Meera Iyer", doctor.Name)
	assert.Equal(t, []string{"chest", "heart"}, doctor.Keywords)
	assert.Equal(t, 12, doctor.ExperienceYears())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDoctorAdapter_GetByID_NotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	adapter := database.NewDoctorAdapter(db)

	mock.ExpectQuery(`FROM "doctors"`).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(doctorCols))

	_, err := adapter.GetByID(context.Background(), "missing")

	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
}

func TestDoctorAdapter_GetByIDs(t *testing.T) {
	db, mock := setupMockDB(t)
	adapter := database.NewDoctorAdapter(db)

	mock.ExpectQuery(`FROM "doctors" WHERE \("id" IN \(\$1, \$2\)\)`).
		WithArgs("doc-1", "doc-2").
		WillReturnRows(sqlmock.NewRows(doctorCols).
			AddRow("doc-2", "Dr. B", "", "", "Dermatologist", "MBBS", "4 Years", "", nil, 4.1, 400.0, "", true))

	doctors, err := adapter.GetByIDs(context.Background(), []string{"doc-1", "doc-2"})

	require.NoError(t, err)
	require.Len(t, doctors, 1)
	assert.Equal(t, "doc-2", doctors[0].ID)
	assert.NotNil(t, doctors[0].Keywords)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDoctorAdapter_GetByIDs_Empty(t *testing.T) {
	db, mock := setupMockDB(t)
	adapter := database.NewDoctorAdapter(db)

	doctors, err := adapter.GetByIDs(context.Background(), nil)

	require.NoError(t, err)
	assert.Empty(t, doctors)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDoctorAdapter_SearchByKeywords(t *testing.T) {
	db, mock := setupMockDB(t)
	adapter := database.NewDoctorAdapter(db)

	mock.ExpectQuery(`FROM "doctors" WHERE .*"available" IS TRUE.*speciality ILIKE ANY.*about ILIKE ANY.*unnest\(keywords\).*ORDER BY "rating" DESC`).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(doctorCols).
			AddRow("doc-1", "Dr. A", "", "", "Cardiologist", "MBBS", "10 Years", "", "{heart}", 4.9, 900.0, "", true))

	doctors, err := adapter.SearchByKeywords(context.Background(), []string{"heart"}, 5)

	require.NoError(t, err)
	require.Len(t, doctors, 1)
	assert.Equal(t, "Cardiologist", doctors[0].Speciality)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDoctorAdapter_ListTopRated_Error(t *testing.T) {
	db, mock := setupMockDB(t)
	adapter := database.NewDoctorAdapter(db)

	mock.ExpectQuery(`FROM "doctors"`).WillReturnError(errors.New("connection refused"))

	_, err := adapter.ListTopRated(context.Background(), 5)

	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInternal))
}
