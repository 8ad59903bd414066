package providers

import (
	"context"
	"errors"

	"github.com/CoderVinit/doctor-backend/internal/domain/entities"
)

// ErrModelNotFound is returned by a ModelStore holding no model
var ErrModelNotFound = errors.New("model not found")

// ModelStore persists the live risk model across restarts
type ModelStore interface {
	// Save replaces the stored model
	Save(ctx context.Context, model *entities.TrainedModel) error

	// Load returns the stored model or ErrModelNotFound
	Load(ctx context.Context) (*entities.TrainedModel, error)
}
