package loaders

import (
	"context"
	"fmt"

	"github.com/graph-gophers/dataloader/v7"

	"github.com/CoderVinit/doctor-backend/internal/domain/entities"
	"github.com/CoderVinit/doctor-backend/internal/domain/repositories"
)

type ctxKey string

const loadersKey ctxKey = "dataloaders"

// Loaders holds the request-scoped batch loaders
type Loaders struct {
	DoctorLoader *dataloader.Loader[string, *entities.Doctor]
}

// NewLoaders creates a new set of loaders. Create one per request so cached
// results never outlive it.
func NewLoaders(doctorRepo repositories.DoctorRepository) *Loaders {
	return &Loaders{
		DoctorLoader: dataloader.NewBatchedLoader(func(ctx context.Context, keys []string) []*dataloader.Result[*entities.Doctor] {
			results := make([]*dataloader.Result[*entities.Doctor], len(keys))
			doctors, err := doctorRepo.GetByIDs(ctx, keys)

			doctorMap := make(map[string]*entities.Doctor, len(doctors))
			if err == nil {
				for _, d := range doctors {
					doctorMap[d.ID] = d
				}
			}

			for i, key := range keys {
				if err != nil {
					results[i] = &dataloader.Result[*entities.Doctor]{Error: err}
				} else if d, ok := doctorMap[key]; ok {
					results[i] = &dataloader.Result[*entities.Doctor]{Data: d}
				} else {
					results[i] = &dataloader.Result[*entities.Doctor]{Error: fmt.Errorf("doctor %s not found", key)}
				}
			}
			return results
		}),
	}
}

// For returns the loaders attached to ctx, or nil
func For(ctx context.Context) *Loaders {
	l, _ := ctx.Value(loadersKey).(*Loaders)
	return l
}

// WithLoaders returns a new context with the loaders attached
func WithLoaders(ctx context.Context, loaders *Loaders) context.Context {
	return context.WithValue(ctx, loadersKey, loaders)
}
