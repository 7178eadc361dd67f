package service

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"elegance/backend/internal/domain"
	"elegance/backend/internal/report"
	"elegance/backend/internal/store"
	"elegance/backend/internal/xid"
)

func (s *Service) ListCustomers(ctx context.Context) ([]domain.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.repo.Customers(ctx)
}

func (s *Service) CreateCustomer(ctx context.Context, req domain.CustomerCreateRequest) (domain.Customer, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Customer{}, fmt.Errorf("%w: name is required", store.ErrInvalid)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	customers, err := s.repo.Customers(ctx)
	if err != nil {
		return domain.Customer{}, err
	}

	customer := domain.Customer{
		ID:          xid.New("cus"),
		Name:        name,
		Phone:       strings.TrimSpace(req.Phone),
		Address:     strings.TrimSpace(req.Address),
		TotalSpent:  decimal.Zero,
		CurrentDebt: decimal.Zero,
	}
	customers = append(customers, customer)

	if err := s.repo.Commit(ctx, store.NewBatch().Customers(customers)); err != nil {
		return domain.Customer{}, err
	}

	log.Printf("[service] customer created id=%s by=%s", customer.ID, actorName(ctx))
	return customer, nil
}

// UpdateCustomer edits profile fields only. Debt and spend stay as the last
// reconciliation left them.
func (s *Service) UpdateCustomer(ctx context.Context, id string, req domain.CustomerUpdateRequest) (domain.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	customers, err := s.repo.Customers(ctx)
	if err != nil {
		return domain.Customer{}, err
	}
	idx := indexCustomer(customers, id)
	if idx < 0 {
		return domain.Customer{}, fmt.Errorf("%w: customer %s", store.ErrNotFound, id)
	}

	updated := customers[idx]
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return domain.Customer{}, fmt.Errorf("%w: name is required", store.ErrInvalid)
		}
		updated.Name = name
	}
	if req.Phone != nil {
		updated.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.Address != nil {
		updated.Address = strings.TrimSpace(*req.Address)
	}

	customers[idx] = updated
	if err := s.repo.Commit(ctx, store.NewBatch().Customers(customers)); err != nil {
		return domain.Customer{}, err
	}
	return updated, nil
}

// CustomerOrders returns the customer's order history, newest first.
func (s *Service) CustomerOrders(ctx context.Context, customerID string) ([]domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	customers, err := s.repo.Customers(ctx)
	if err != nil {
		return nil, err
	}
	if indexCustomer(customers, customerID) < 0 {
		return nil, fmt.Errorf("%w: customer %s", store.ErrNotFound, customerID)
	}

	orders, err := s.repo.Orders(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]domain.Order, 0)
	for _, order := range orders {
		if order.CustomerID == customerID {
			out = append(out, order)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date)
	})
	return out, nil
}

func (s *Service) Debtors(ctx context.Context) ([]domain.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	customers, err := s.repo.Customers(ctx)
	if err != nil {
		return nil, err
	}
	return report.Debtors(customers), nil
}

func indexCustomer(customers []domain.Customer, id string) int {
	for i := range customers {
		if customers[i].ID == id {
			return i
		}
	}
	return -1
}
