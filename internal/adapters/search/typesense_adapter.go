package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/typesense/typesense-go/v2/typesense/api"
	"github.com/typesense/typesense-go/v2/typesense/api/pointer"

	"github.com/CoderVinit/doctor-backend/internal/domain/entities"
	"github.com/CoderVinit/doctor-backend/internal/domain/repositories"
	tsclient "github.com/CoderVinit/doctor-backend/internal/infrastructure/clients/typesense"
)

const (
	collectionName = tsclient.DoctorsCollection
	queryFields    = "keywords,speciality,about,name"
	queryWeights   = "4,3,1,1"
)

// TypesenseAdapter implements doctor search using Typesense
type TypesenseAdapter struct {
	client *tsclient.Client
}

// Ensure TypesenseAdapter implements DoctorSearchRepository
var _ repositories.DoctorSearchRepository = (*TypesenseAdapter)(nil)

// NewTypesenseAdapter creates a new Typesense adapter
func NewTypesenseAdapter(client *tsclient.Client) *TypesenseAdapter {
	return &TypesenseAdapter{client: client}
}

// Index upserts a doctor document
func (a *TypesenseAdapter) Index(ctx context.Context, doctor *entities.Doctor) error {
	_, err := a.client.Client().Collection(collectionName).Documents().Upsert(ctx, doctorDocument(doctor))
	if err != nil {
		return fmt.Errorf("failed to index doctor: %w", err)
	}
	return nil
}

// Delete removes a doctor from the index
func (a *TypesenseAdapter) Delete(ctx context.Context, id string) error {
	_, err := a.client.Client().Collection(collectionName).Document(id).Delete(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete doctor from index: %w", err)
	}
	return nil
}

// Search returns IDs of available doctors matching any keyword
func (a *TypesenseAdapter) Search(ctx context.Context, keywords []string, limit int) ([]string, error) {
	result, err := a.client.Client().Collection(collectionName).Documents().Search(ctx, searchParams(keywords, limit))
	if err != nil {
		return nil, fmt.Errorf("failed to search doctors: %w", err)
	}

	ids := []string{}
	if result.Hits == nil {
		return ids, nil
	}
	for _, hit := range *result.Hits {
		if hit.Document == nil {
			continue
		}
		if id, ok := (*hit.Document)["id"].(string); ok && id != "" {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func doctorDocument(d *entities.Doctor) map[string]interface{} {
	keywords := make([]string, 0, len(d.Keywords))
	for _, k := range d.Keywords {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			keywords = append(keywords, k)
		}
	}
	return map[string]interface{}{
		"id":         d.ID,
		"name":       d.Name,
		"speciality": d.Speciality,
		"about":      d.About,
		"keywords":   keywords,
		"degree":     d.Degree,
		"rating":     d.Rating,
		"fees":       d.Fees,
		"available":  d.Available,
	}
}

// searchParams ORs the keywords by dropping them all as tokens into one
// query and letting Typesense drop tokens that do not match.
func searchParams(keywords []string, limit int) *api.SearchCollectionParams {
	return &api.SearchCollectionParams{
		Q:                   pointer.String(strings.Join(keywords, " ")),
		QueryBy:             pointer.String(queryFields),
		QueryByWeights:      pointer.String(queryWeights),
		FilterBy:            pointer.String("available:=true"),
		SortBy:              pointer.String("_text_match:desc,rating:desc"),
		DropTokensThreshold: pointer.Int(len(keywords)),
		Page:                pointer.Int(1),
		PerPage:             pointer.Int(limit),
	}
}
