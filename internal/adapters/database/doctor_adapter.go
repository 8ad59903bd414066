package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/CoderVinit/doctor-backend/internal/domain/entities"
	"github.com/CoderVinit/doctor-backend/internal/domain/repositories"
	apperrors "github.com/CoderVinit/doctor-backend/pkg/errors"
)

const doctorsTable = "doctors"

var doctorColumns = []interface{}{
	"id", "name", "email", "image", "speciality", "degree", "experience",
	"about", "keywords", "rating", "fees", "address", "available",
}

// doctorRow carries the text[] keywords column that Doctor does not map
type doctorRow struct {
	entities.Doctor
	Keywords pq.StringArray `db:"keywords"`
}

func (r *doctorRow) toEntity() *entities.Doctor {
	d := r.Doctor
	d.Keywords = []string(r.Keywords)
	if d.Keywords == nil {
		d.Keywords = []string{}
	}
	return &d
}

// DoctorAdapter implements the DoctorRepository interface
type DoctorAdapter struct {
	db      *sqlx.DB
	dialect goqu.DialectWrapper
}

// NewDoctorAdapter creates a new doctor adapter
func NewDoctorAdapter(db *sqlx.DB) repositories.DoctorRepository {
	return &DoctorAdapter{
		db:      db,
		dialect: goqu.Dialect("postgres"),
	}
}

// GetByID retrieves a doctor by ID
func (a *DoctorAdapter) GetByID(ctx context.Context, id string) (*entities.Doctor, error) {
	query, args, err := a.dialect.From(doctorsTable).
		Prepared(true).
		Select(doctorColumns...).
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	var row doctorRow
	err = a.db.GetContext(ctx, &row, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("doctor with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get doctor", err)
	}
	return row.toEntity(), nil
}

// GetByIDs retrieves doctors by IDs. Unknown IDs are skipped.
func (a *DoctorAdapter) GetByIDs(ctx context.Context, ids []string) ([]*entities.Doctor, error) {
	if len(ids) == 0 {
		return []*entities.Doctor{}, nil
	}

	query, args, err := a.dialect.From(doctorsTable).
		Prepared(true).
		Select(doctorColumns...).
		Where(goqu.Ex{"id": ids}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}
	return a.selectDoctors(ctx, query, args)
}

// ListTopRated returns available doctors ordered by rating
func (a *DoctorAdapter) ListTopRated(ctx context.Context, limit int) ([]*entities.Doctor, error) {
	query, args, err := a.dialect.From(doctorsTable).
		Prepared(true).
		Select(doctorColumns...).
		Where(goqu.Ex{"available": true}).
		Order(goqu.I("rating").Desc(), goqu.I("name").Asc()).
		Limit(uint(limit)).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}
	return a.selectDoctors(ctx, query, args)
}

// SearchByKeywords returns available doctors whose specialty, about text or
// any keyword contains one of keywords, ordered by rating
func (a *DoctorAdapter) SearchByKeywords(ctx context.Context, keywords []string, limit int) ([]*entities.Doctor, error) {
	patterns := make([]string, len(keywords))
	for i, kw := range keywords {
		patterns[i] = "%" + kw + "%"
	}
	like := pq.Array(patterns)

	query, args, err := a.dialect.From(doctorsTable).
		Prepared(true).
		Select(doctorColumns...).
		Where(
			goqu.Ex{"available": true},
			goqu.Or(
				goqu.L("speciality ILIKE ANY(?)", like),
				goqu.L("about ILIKE ANY(?)", like),
				goqu.L("EXISTS (SELECT 1 FROM unnest(keywords) AS k WHERE k ILIKE ANY(?))", like),
			),
		).
		Order(goqu.I("rating").Desc(), goqu.I("name").Asc()).
		Limit(uint(limit)).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}
	return a.selectDoctors(ctx, query, args)
}

// List returns doctors for indexing
func (a *DoctorAdapter) List(ctx context.Context, filter repositories.DoctorFilter) ([]*entities.Doctor, error) {
	ds := a.dialect.From(doctorsTable).
		Prepared(true).
		Select(doctorColumns...).
		Order(goqu.I("id").Asc())

	if filter.AvailableOnly {
		ds = ds.Where(goqu.Ex{"available": true})
	}
	if filter.Limit > 0 {
		ds = ds.Limit(uint(filter.Limit))
	}
	if filter.Offset > 0 {
		ds = ds.Offset(uint(filter.Offset))
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}
	return a.selectDoctors(ctx, query, args)
}

// Create inserts a doctor
func (a *DoctorAdapter) Create(ctx context.Context, doctor *entities.Doctor) error {
	query, args, err := a.dialect.Insert(doctorsTable).
		Prepared(true).
		Rows(goqu.Record{
			"id":         doctor.ID,
			"name":       doctor.Name,
			"email":      doctor.Email,
			"image":      doctor.Image,
			"speciality": doctor.Speciality,
			"degree":     doctor.Degree,
			"experience": doctor.Experience,
			"about":      doctor.About,
			"keywords":   pq.Array(doctor.Keywords),
			"rating":     doctor.Rating,
			"fees":       doctor.Fees,
			"address":    doctor.Address,
			"available":  doctor.Available,
		}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	if _, err := a.db.ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to create doctor", err)
	}
	return nil
}

func (a *DoctorAdapter) selectDoctors(ctx context.Context, query string, args []interface{}) ([]*entities.Doctor, error) {
	var rows []doctorRow
	if err := a.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, apperrors.NewInternalError("failed to list doctors", err)
	}

	doctors := make([]*entities.Doctor, 0, len(rows))
	for i := range rows {
		doctors = append(doctors, rows[i].toEntity())
	}
	return doctors, nil
}
