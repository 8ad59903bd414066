package repositories

import (
	"context"

	"github.com/CoderVinit/doctor-backend/internal/domain/entities"
)

// DoctorRepository defines doctor lookups used for recommendations
type DoctorRepository interface {
	// GetByID retrieves a doctor by ID
	GetByID(ctx context.Context, id string) (*entities.Doctor, error)

	// GetByIDs retrieves doctors by IDs; missing IDs are skipped
	GetByIDs(ctx context.Context, ids []string) ([]*entities.Doctor, error)

	// ListTopRated returns available doctors ordered by rating
	ListTopRated(ctx context.Context, limit int) ([]*entities.Doctor, error)

	// SearchByKeywords returns available doctors whose specialty or about text
	// contains any keyword, or whose keyword list includes one, ordered by rating
	SearchByKeywords(ctx context.Context, keywords []string, limit int) ([]*entities.Doctor, error)

	// List returns doctors for indexing
	List(ctx context.Context, filter DoctorFilter) ([]*entities.Doctor, error)

	// Create inserts a doctor; used by seeding
	Create(ctx context.Context, doctor *entities.Doctor) error
}

// DoctorFilter narrows List
type DoctorFilter struct {
	AvailableOnly bool
	Limit         int
	Offset        int
}

// DoctorSearchRepository is a full-text index over doctors
type DoctorSearchRepository interface {
	// Index upserts a doctor document
	Index(ctx context.Context, doctor *entities.Doctor) error

	// Delete removes a doctor document
	Delete(ctx context.Context, id string) error

	// Search returns IDs of available doctors matching the keywords, best first
	Search(ctx context.Context, keywords []string, limit int) ([]string, error)
}
