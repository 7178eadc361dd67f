package service

import (
	"context"
	"fmt"
	"time"

	"elegance/backend/internal/domain"
	"elegance/backend/internal/report"
	"elegance/backend/internal/store"
)

const (
	insightOrderLimit = 50
	insightStockLimit = 5
)

// GenerateInsights asks the generator for a business summary. Generator
// problems come back as fallback text; only storage errors fail the call.
func (s *Service) GenerateInsights(ctx context.Context) (domain.InsightResponse, error) {
	s.mu.Lock()
	snap, err := s.loadSnapshot(ctx)
	s.mu.Unlock()
	if err != nil {
		return domain.InsightResponse{}, err
	}

	input := domain.InsightInput{
		RecentOrders: report.RecentOrderSummaries(snap.orders, insightOrderLimit),
		LowStock:     report.StockBelow(snap.products, insightStockLimit),
		TotalDebt:    report.TotalDebt(snap.customers),
	}

	content := s.insights.AnalyzeBusiness(ctx, input)
	return domain.InsightResponse{
		Content:     content,
		GeneratedAt: s.now().Format(time.RFC3339),
	}, nil
}

func (s *Service) DescribeProduct(ctx context.Context, productID string) (domain.ProductDescriptionResponse, error) {
	s.mu.Lock()
	products, err := s.repo.Products(ctx)
	s.mu.Unlock()
	if err != nil {
		return domain.ProductDescriptionResponse{}, err
	}

	idx := indexProduct(products, productID)
	if idx < 0 {
		return domain.ProductDescriptionResponse{}, fmt.Errorf("%w: product %s", store.ErrNotFound, productID)
	}
	product := products[idx]

	return domain.ProductDescriptionResponse{
		ProductID:   product.ID,
		Description: s.insights.DescribeProduct(ctx, product.Name, defaultString(product.Category, "Fashion")),
	}, nil
}
