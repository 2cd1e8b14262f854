package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/typesense/typesense-go/v2/typesense/api"
	"github.com/typesense/typesense-go/v2/typesense/api/pointer"

	"github.com/lingatchoss/marketplace/internal/domain/entities"
	"github.com/lingatchoss/marketplace/internal/domain/repositories"
	tsclient "github.com/lingatchoss/marketplace/internal/infrastructure/clients/typesense"
)

const defaultPerPage = 20

// TypesenseAdapter implements service search using Typesense
type TypesenseAdapter struct {
	client *tsclient.Client
}

var _ repositories.ServiceSearchRepository = (*TypesenseAdapter)(nil)

// NewTypesenseAdapter creates a new Typesense adapter
func NewTypesenseAdapter(client *tsclient.Client) *TypesenseAdapter {
	return &TypesenseAdapter{client: client}
}

// Index upserts one document per translation of the service
func (a *TypesenseAdapter) Index(ctx context.Context, service *entities.Service) error {
	docs := Documents(service)
	collection := a.client.Client().Collection(tsclient.ServicesCollection)
	for _, doc := range docs {
		if _, err := collection.Documents().Upsert(ctx, documentMap(doc)); err != nil {
			return fmt.Errorf("failed to index service %s (%s): %w", doc.ServiceID, doc.Language, err)
		}
	}
	return nil
}

// Delete removes every document of the service
func (a *TypesenseAdapter) Delete(ctx context.Context, serviceID string) error {
	_, err := a.client.Client().Collection(tsclient.ServicesCollection).Documents().Delete(ctx,
		&api.DeleteDocumentsParams{FilterBy: pointer.String("service_id:=" + quoteFilterValue(serviceID))})
	if err != nil {
		return fmt.Errorf("failed to delete service from index: %w", err)
	}
	return nil
}

// Search searches service translations
func (a *TypesenseAdapter) Search(ctx context.Context, params repositories.ServiceSearchParams) ([]*entities.ServiceDocument, error) {
	perPage := params.Limit
	if perPage <= 0 {
		perPage = defaultPerPage
	}

	searchParams := &api.SearchCollectionParams{
		Q:       pointer.String(queryOrWildcard(params.Query)),
		QueryBy: pointer.String("name,description"),
		Page:    pointer.Int(params.Offset/perPage + 1),
		PerPage: pointer.Int(perPage),
	}
	if filter := BuildFilter(params); filter != "" {
		searchParams.FilterBy = pointer.String(filter)
	}

	result, err := a.client.Client().Collection(tsclient.ServicesCollection).Documents().Search(ctx, searchParams)
	if err != nil {
		return nil, fmt.Errorf("failed to search services: %w", err)
	}

	docs := []*entities.ServiceDocument{}
	if result.Hits == nil {
		return docs, nil
	}
	for _, hit := range *result.Hits {
		if hit.Document == nil {
			continue
		}
		docs = append(docs, documentFromMap(*hit.Document))
	}
	return docs, nil
}

// Documents flattens a service into one index document per translation.
func Documents(service *entities.Service) []entities.ServiceDocument {
	docs := make([]entities.ServiceDocument, 0, len(service.Translations))
	for _, tr := range service.Translations {
		doc := entities.ServiceDocument{
			ID:            service.ID + "_" + tr.Language,
			ServiceID:     service.ID,
			InstitutionID: service.InstitutionID,
			Language:      tr.Language,
			Name:          tr.Name,
			Description:   tr.Description,
			Price:         service.Price,
			ImageURL:      service.ImageURL,
			CreatedAt:     service.CreatedAt.Unix(),
		}
		if service.CategoryID != nil {
			doc.CategoryID = *service.CategoryID
		}
		docs = append(docs, doc)
	}
	return docs
}

// BuildFilter renders the filter_by clause for a search.
func BuildFilter(params repositories.ServiceSearchParams) string {
	var clauses []string
	if params.Language != "" {
		clauses = append(clauses, "language:="+quoteFilterValue(params.Language))
	}
	if params.CategoryID != "" && params.CategoryID != entities.AllCategories {
		clauses = append(clauses, "category_id:="+quoteFilterValue(params.CategoryID))
	}
	return strings.Join(clauses, " && ")
}

func queryOrWildcard(q string) string {
	if q = strings.TrimSpace(q); q == "" {
		return "*"
	}
	return q
}

func quoteFilterValue(v string) string {
	return "`" + strings.ReplaceAll(v, "`", "") + "`"
}

func documentMap(doc entities.ServiceDocument) map[string]interface{} {
	m := map[string]interface{}{
		"id":             doc.ID,
		"service_id":     doc.ServiceID,
		"institution_id": doc.InstitutionID,
		"language":       doc.Language,
		"name":           doc.Name,
		"description":    doc.Description,
		"price":          doc.Price,
		"created_at":     doc.CreatedAt,
	}
	if doc.CategoryID != "" {
		m["category_id"] = doc.CategoryID
	}
	if doc.ImageURL != "" {
		m["image_url"] = doc.ImageURL
	}
	return m
}

func documentFromMap(m map[string]interface{}) *entities.ServiceDocument {
	doc := &entities.ServiceDocument{
		ID:            stringField(m, "id"),
		ServiceID:     stringField(m, "service_id"),
		InstitutionID: stringField(m, "institution_id"),
		CategoryID:    stringField(m, "category_id"),
		Language:      stringField(m, "language"),
		Name:          stringField(m, "name"),
		Description:   stringField(m, "description"),
		ImageURL:      stringField(m, "image_url"),
	}
	if v, ok := m["price"].(float64); ok {
		doc.Price = v
	}
	if v, ok := m["created_at"].(float64); ok {
		doc.CreatedAt = int64(v)
	}
	return doc
}

func stringField(m map[string]interface{}, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}
