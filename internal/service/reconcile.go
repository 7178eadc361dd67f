package service

import (
	"context"
	"fmt"
	"log"

	"elegance/backend/internal/domain"
	"elegance/backend/internal/store"
)

// RecalcDebt recomputes one customer's debt and spend from their orders.
// Calling it again without other mutations changes nothing.
func (s *Service) RecalcDebt(ctx context.Context, customerID string) (domain.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	customers, err := s.repo.Customers(ctx)
	if err != nil {
		return domain.Customer{}, err
	}
	idx := indexCustomer(customers, customerID)
	if idx < 0 {
		return domain.Customer{}, fmt.Errorf("%w: customer %s", store.ErrNotFound, customerID)
	}

	orders, err := s.repo.Orders(ctx)
	if err != nil {
		return domain.Customer{}, err
	}

	customers[idx] = customers[idx].Reconcile(orders)
	if err := s.repo.Commit(ctx, store.NewBatch().Customers(customers)); err != nil {
		return domain.Customer{}, err
	}
	return customers[idx], nil
}

// ReconcileAll recomputes every customer in a single write.
func (s *Service) ReconcileAll(ctx context.Context) ([]domain.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	customers, err := s.repo.Customers(ctx)
	if err != nil {
		return nil, err
	}
	orders, err := s.repo.Orders(ctx)
	if err != nil {
		return nil, err
	}

	changed := 0
	for i := range customers {
		reconciled := customers[i].Reconcile(orders)
		if !reconciled.CurrentDebt.Equal(customers[i].CurrentDebt) || !reconciled.TotalSpent.Equal(customers[i].TotalSpent) {
			changed++
		}
		customers[i] = reconciled
	}

	if err := s.repo.Commit(ctx, store.NewBatch().Customers(customers)); err != nil {
		return nil, err
	}
	if changed > 0 {
		log.Printf("[service] reconciled %d of %d customers", changed, len(customers))
	}
	return customers, nil
}
