package middleware

import (
	"net/http"

	"github.com/CoderVinit/doctor-backend/internal/application/loaders"
	"github.com/CoderVinit/doctor-backend/internal/domain/repositories"
)

// LoadersMiddleware attaches fresh request-scoped dataloaders to every request
func LoadersMiddleware(doctorRepo repositories.DoctorRepository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := loaders.WithLoaders(r.Context(), loaders.NewLoaders(doctorRepo))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
