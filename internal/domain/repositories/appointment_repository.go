package repositories

import (
	"context"

	"github.com/CoderVinit/doctor-backend/internal/domain/entities"
)

// AppointmentRepository is read access to booking history
type AppointmentRepository interface {
	// ListByPatient returns every record of one patient
	ListByPatient(ctx context.Context, patientID string) ([]*entities.AppointmentRecord, error)

	// List returns records matching the filter, oldest first
	List(ctx context.Context, filter AppointmentFilter) ([]*entities.AppointmentRecord, error)

	// BookedSlots returns slot times held by non-cancelled appointments of a
	// doctor on a stored slot date
	BookedSlots(ctx context.Context, doctorID, slotDate string) ([]string, error)

	// Create inserts a record; used by seeding
	Create(ctx context.Context, record *entities.AppointmentRecord) error
}

// AppointmentFilter narrows List
type AppointmentFilter struct {
	DoctorID string
	Limit    int
	Offset   int
}
