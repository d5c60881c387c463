package service

import (
	"context"

	"crm-analytics-be/internal/dto"
	"crm-analytics-be/pkg/agent/catalog"
)

type IDashboardService interface {
	ListProducts(ctx context.Context) []dto.ProductSummaryResponse
	// ShowProduct fetches one product's live payload. Returns nil when
	// the id is unknown.
	ShowProduct(ctx context.Context, id string) (*dto.ProductPayloadResponse, error)
}

type dashboardService struct {
	catalog *catalog.Catalog
}

func NewDashboardService(cat *catalog.Catalog) IDashboardService {
	return &dashboardService{catalog: cat}
}

func (ds *dashboardService) ListProducts(_ context.Context) []dto.ProductSummaryResponse {
	products := ds.catalog.Products()
	responses := make([]dto.ProductSummaryResponse, 0, len(products))
	for _, p := range products {
		responses = append(responses, dto.ProductSummaryResponse{
			Id:    p.ID,
			Label: p.Label,
			Route: p.Route,
			Tags:  p.Tags,
		})
	}
	return responses
}

func (ds *dashboardService) ShowProduct(ctx context.Context, id string) (*dto.ProductPayloadResponse, error) {
	product, ok := ds.catalog.Get(id)
	if !ok {
		return nil, nil // Not found
	}

	payload, err := product.Fetch(ctx)
	if err != nil {
		return nil, err
	}

	return &dto.ProductPayloadResponse{
		Id:      product.ID,
		Label:   product.Label,
		Payload: payload,
	}, nil
}
