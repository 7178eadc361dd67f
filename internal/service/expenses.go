package service

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"elegance/backend/internal/domain"
	"elegance/backend/internal/store"
	"elegance/backend/internal/xid"
)

// ListExpenses returns the journal with the most recent expense first.
func (s *Service) ListExpenses(ctx context.Context) ([]domain.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	expenses, err := s.repo.Expenses(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(expenses, func(i, j int) bool {
		return expenses[i].Date.After(expenses[j].Date)
	})
	return expenses, nil
}

func (s *Service) CreateExpense(ctx context.Context, req domain.ExpenseCreateRequest) (domain.Expense, error) {
	category := strings.TrimSpace(req.Category)
	if category == "" {
		return domain.Expense{}, fmt.Errorf("%w: category is required", store.ErrInvalid)
	}
	if req.Amount.Sign() <= 0 {
		return domain.Expense{}, fmt.Errorf("%w: amount must be positive", store.ErrInvalid)
	}
	date, err := s.parseExpenseDate(req.Date)
	if err != nil {
		return domain.Expense{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	expenses, err := s.repo.Expenses(ctx)
	if err != nil {
		return domain.Expense{}, err
	}

	expense := domain.Expense{
		ID:       xid.New("exp"),
		Category: category,
		Amount:   req.Amount,
		Date:     date,
		Note:     strings.TrimSpace(req.Note),
	}
	expenses = append([]domain.Expense{expense}, expenses...)

	if err := s.repo.Commit(ctx, store.NewBatch().Expenses(expenses)); err != nil {
		return domain.Expense{}, err
	}

	log.Printf("[service] expense recorded id=%s category=%q amount=%s by=%s", expense.ID, expense.Category, expense.Amount, actorName(ctx))
	return expense, nil
}

func (s *Service) DeleteExpense(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	expenses, err := s.repo.Expenses(ctx)
	if err != nil {
		return err
	}

	idx := -1
	for i := range expenses {
		if expenses[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("%w: expense %s", store.ErrNotFound, id)
	}

	expenses = append(expenses[:idx], expenses[idx+1:]...)
	if err := s.repo.Commit(ctx, store.NewBatch().Expenses(expenses)); err != nil {
		return err
	}

	log.Printf("[service] expense deleted id=%s by=%s", id, actorName(ctx))
	return nil
}

// parseExpenseDate accepts a calendar date or an RFC 3339 timestamp. An empty
// value means now.
func (s *Service) parseExpenseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return s.now(), nil
	}
	if parsed, err := time.Parse("2006-01-02", value); err == nil {
		return parsed.UTC(), nil
	}
	if parsed, err := time.Parse(time.RFC3339, value); err == nil {
		return parsed.UTC(), nil
	}
	return time.Time{}, fmt.Errorf("%w: date must be YYYY-MM-DD", store.ErrInvalid)
}
