package database

import (
	"context"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/jmoiron/sqlx"

	"github.com/CoderVinit/doctor-backend/internal/domain/entities"
	"github.com/CoderVinit/doctor-backend/internal/domain/repositories"
	apperrors "github.com/CoderVinit/doctor-backend/pkg/errors"
	"github.com/CoderVinit/doctor-backend/pkg/utils"
)

const appointmentsTable = "appointments"

var appointmentColumns = []interface{}{
	"id", "user_id", "doc_id", "slot_date", "slot_time", "amount",
	"cancelled", "is_completed", "payment", "created_at",
}

// AppointmentAdapter implements the AppointmentRepository interface
type AppointmentAdapter struct {
	db      *sqlx.DB
	dialect goqu.DialectWrapper
}

// NewAppointmentAdapter creates a new appointment adapter
func NewAppointmentAdapter(db *sqlx.DB) repositories.AppointmentRepository {
	return &AppointmentAdapter{
		db:      db,
		dialect: goqu.Dialect("postgres"),
	}
}

// ListByPatient returns every record of one patient, oldest first
func (a *AppointmentAdapter) ListByPatient(ctx context.Context, patientID string) ([]*entities.AppointmentRecord, error) {
	query, args, err := a.dialect.From(appointmentsTable).
		Prepared(true).
		Select(appointmentColumns...).
		Where(goqu.Ex{"user_id": patientID}).
		Order(goqu.I("created_at").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	records := []*entities.AppointmentRecord{}
	if err := a.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, apperrors.NewInternalError("failed to list patient appointments", err)
	}
	return records, nil
}

// List returns records matching filter, oldest first
func (a *AppointmentAdapter) List(ctx context.Context, filter repositories.AppointmentFilter) ([]*entities.AppointmentRecord, error) {
	ds := a.dialect.From(appointmentsTable).
		Prepared(true).
		Select(appointmentColumns...).
		Order(goqu.I("created_at").Asc(), goqu.I("id").Asc())

	if filter.DoctorID != "" {
		ds = ds.Where(goqu.Ex{"doc_id": filter.DoctorID})
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

	records := []*entities.AppointmentRecord{}
	if err := a.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, apperrors.NewInternalError("failed to list appointments", err)
	}
	return records, nil
}

// BookedSlots returns slot times of non-cancelled appointments of doctorID on
// slotDate. Rows may spell the date unpadded, zero-padded or ISO.
func (a *AppointmentAdapter) BookedSlots(ctx context.Context, doctorID, slotDate string) ([]string, error) {
	day, err := utils.ParseSlotDate(slotDate)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid slot date: " + slotDate)
	}

	query, args, err := a.dialect.From(appointmentsTable).
		Prepared(true).
		Select("slot_time").
		Where(
			goqu.Ex{
				"doc_id":    doctorID,
				"slot_date": utils.SlotDateVariants(day),
				"cancelled": false,
			},
		).
		Order(goqu.I("slot_time").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	slots := []string{}
	if err := a.db.SelectContext(ctx, &slots, query, args...); err != nil {
		return nil, apperrors.NewInternalError("failed to list booked slots", err)
	}
	return slots, nil
}

// Create inserts a record
func (a *AppointmentAdapter) Create(ctx context.Context, record *entities.AppointmentRecord) error {
	query, args, err := a.dialect.Insert(appointmentsTable).
		Prepared(true).
		Rows(goqu.Record{
			"id":           record.ID,
			"user_id":      record.PatientID,
			"doc_id":       record.DoctorID,
			"slot_date":    record.SlotDate,
			"slot_time":    record.SlotTime,
			"amount":       record.Amount,
			"cancelled":    record.Cancelled,
			"is_completed": record.Completed,
			"payment":      record.Payment,
			"created_at":   record.CreatedAt,
		}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	if _, err := a.db.ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to create appointment", err)
	}
	return nil
}
