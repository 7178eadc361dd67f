package service

import (
	"context"
	"fmt"
	"io"

	"elegance/backend/internal/domain"
	"elegance/backend/internal/report"
	"elegance/backend/internal/store"
)

type snapshot struct {
	products  []domain.Product
	customers []domain.Customer
	orders    []domain.Order
	expenses  []domain.Expense
}

// loadSnapshot reads every collection. Callers hold s.mu.
func (s *Service) loadSnapshot(ctx context.Context) (snapshot, error) {
	var snap snapshot
	var err error

	if snap.products, err = s.repo.Products(ctx); err != nil {
		return snapshot{}, err
	}
	if snap.customers, err = s.repo.Customers(ctx); err != nil {
		return snapshot{}, err
	}
	if snap.orders, err = s.repo.Orders(ctx); err != nil {
		return snapshot{}, err
	}
	if snap.expenses, err = s.repo.Expenses(ctx); err != nil {
		return snapshot{}, err
	}
	return snap, nil
}

func (s *Service) Dashboard(ctx context.Context) (domain.DashboardSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.loadSnapshot(ctx)
	if err != nil {
		return domain.DashboardSummary{}, err
	}
	return report.Summarize(snap.orders, snap.products, snap.customers, snap.expenses), nil
}

// Installments returns the payment feed, optionally limited to a YYYY-MM month.
func (s *Service) Installments(ctx context.Context, month string) ([]domain.InstallmentEntry, error) {
	filter, err := report.ParseMonth(month)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", store.ErrInvalid, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	orders, err := s.repo.Orders(ctx)
	if err != nil {
		return nil, err
	}
	return report.InstallmentFeed(orders, filter), nil
}

// ExportWorkbook writes the dashboard, orders and expenses as an xlsx file.
func (s *Service) ExportWorkbook(ctx context.Context, w io.Writer) error {
	s.mu.Lock()
	snap, err := s.loadSnapshot(ctx)
	s.mu.Unlock()
	if err != nil {
		return err
	}

	return report.WriteWorkbook(w, report.Snapshot{
		BusinessName: s.opts.BusinessName,
		Currency:     s.opts.Currency,
		GeneratedAt:  s.now(),
		Summary:      report.Summarize(snap.orders, snap.products, snap.customers, snap.expenses),
		Orders:       snap.orders,
		Expenses:     snap.expenses,
	})
}
