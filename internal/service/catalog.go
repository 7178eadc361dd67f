package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"elegance/backend/internal/domain"
	"elegance/backend/internal/store"
	"elegance/backend/internal/xid"
)

func (s *Service) ListProducts(ctx context.Context) ([]domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.repo.Products(ctx)
}

func (s *Service) CreateProduct(ctx context.Context, req domain.ProductCreateRequest) (domain.Product, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Category = strings.TrimSpace(req.Category)

	if req.Name == "" || req.Category == "" {
		return domain.Product{}, fmt.Errorf("%w: name and category are required", store.ErrInvalid)
	}
	if req.BuyPrice.Sign() < 0 || req.SellPrice.Sign() < 0 || req.Stock < 0 {
		return domain.Product{}, fmt.Errorf("%w: prices and stock must not be negative", store.ErrInvalid)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	products, err := s.repo.Products(ctx)
	if err != nil {
		return domain.Product{}, err
	}

	product := domain.Product{
		ID:        xid.New("prd"),
		Name:      req.Name,
		Category:  req.Category,
		BuyPrice:  req.BuyPrice,
		SellPrice: req.SellPrice,
		Stock:     req.Stock,
		Image:     strings.TrimSpace(req.Image),
	}
	products = append(products, product)

	if err := s.repo.Commit(ctx, store.NewBatch().Products(products)); err != nil {
		return domain.Product{}, err
	}

	log.Printf("[service] product created id=%s name=%q stock=%d by=%s", product.ID, product.Name, product.Stock, actorName(ctx))
	return product, nil
}

// UpdateProduct edits catalog fields. A stock change here is a restock or a
// correction, never a sale.
func (s *Service) UpdateProduct(ctx context.Context, id string, req domain.ProductUpdateRequest) (domain.Product, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Product{}, store.ErrInvalid
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	products, err := s.repo.Products(ctx)
	if err != nil {
		return domain.Product{}, err
	}
	idx := indexProduct(products, id)
	if idx < 0 {
		return domain.Product{}, fmt.Errorf("%w: product %s", store.ErrNotFound, id)
	}

	updated := products[idx]
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return domain.Product{}, fmt.Errorf("%w: name is required", store.ErrInvalid)
		}
		updated.Name = name
	}
	if req.Category != nil {
		category := strings.TrimSpace(*req.Category)
		if category == "" {
			return domain.Product{}, fmt.Errorf("%w: category is required", store.ErrInvalid)
		}
		updated.Category = category
	}
	if req.BuyPrice != nil {
		if req.BuyPrice.Sign() < 0 {
			return domain.Product{}, fmt.Errorf("%w: buy price must not be negative", store.ErrInvalid)
		}
		updated.BuyPrice = *req.BuyPrice
	}
	if req.SellPrice != nil {
		if req.SellPrice.Sign() < 0 {
			return domain.Product{}, fmt.Errorf("%w: sell price must not be negative", store.ErrInvalid)
		}
		updated.SellPrice = *req.SellPrice
	}
	if req.Stock != nil {
		if *req.Stock < 0 {
			return domain.Product{}, fmt.Errorf("%w: stock must not be negative", store.ErrInvalid)
		}
		updated.Stock = *req.Stock
	}
	if req.Image != nil {
		updated.Image = strings.TrimSpace(*req.Image)
	}

	products[idx] = updated
	if err := s.repo.Commit(ctx, store.NewBatch().Products(products)); err != nil {
		return domain.Product{}, err
	}

	log.Printf("[service] product updated id=%s stock=%d by=%s", updated.ID, updated.Stock, actorName(ctx))
	return updated, nil
}

// DeleteProduct removes a product from the catalog. Orders keep their item
// snapshots.
func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	products, err := s.repo.Products(ctx)
	if err != nil {
		return err
	}
	idx := indexProduct(products, id)
	if idx < 0 {
		return fmt.Errorf("%w: product %s", store.ErrNotFound, id)
	}

	products = append(products[:idx], products[idx+1:]...)
	if err := s.repo.Commit(ctx, store.NewBatch().Products(products)); err != nil {
		return err
	}

	log.Printf("[service] product deleted id=%s by=%s", id, actorName(ctx))
	return nil
}

func indexProduct(products []domain.Product, id string) int {
	for i := range products {
		if products[i].ID == id {
			return i
		}
	}
	return -1
}
