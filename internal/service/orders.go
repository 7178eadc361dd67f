package service

import (
	"context"
	"fmt"
	"log"
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"elegance/backend/internal/domain"
	"elegance/backend/internal/store"
	"elegance/backend/internal/xid"
)

// ListOrders returns orders newest first. An empty status returns every order.
func (s *Service) ListOrders(ctx context.Context, status domain.OrderStatus) ([]domain.Order, error) {
	if status != "" && !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", store.ErrInvalid, status)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	orders, err := s.repo.Orders(ctx)
	if err != nil {
		return nil, err
	}
	if status == "" {
		return orders, nil
	}

	out := make([]domain.Order, 0)
	for _, order := range orders {
		if order.Status == status {
			out = append(out, order)
		}
	}
	return out, nil
}

func (s *Service) GetOrder(ctx context.Context, id string) (domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	orders, err := s.repo.Orders(ctx)
	if err != nil {
		return domain.Order{}, err
	}
	idx := indexOrder(orders, id)
	if idx < 0 {
		return domain.Order{}, fmt.Errorf("%w: order %s", store.ErrNotFound, id)
	}
	return orders[idx], nil
}

// CreateOrder sells the cart to a customer. Stock, the order list and the
// customer's debt are written in one batch or not at all.
func (s *Service) CreateOrder(ctx context.Context, req domain.OrderCreateRequest) (domain.Order, error) {
	req.CustomerID = strings.TrimSpace(req.CustomerID)
	if req.CustomerID == "" {
		return domain.Order{}, fmt.Errorf("%w: customer_id is required", store.ErrInvalid)
	}
	if req.InitialPayment.Sign() < 0 {
		return domain.Order{}, fmt.Errorf("%w: initial payment must not be negative", store.ErrInvalid)
	}
	items, err := normalizeItems(req.Items)
	if err != nil {
		return domain.Order{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	customers, err := s.repo.Customers(ctx)
	if err != nil {
		return domain.Order{}, err
	}
	custIdx := indexCustomer(customers, req.CustomerID)
	if custIdx < 0 {
		return domain.Order{}, fmt.Errorf("%w: customer %s", store.ErrNotFound, req.CustomerID)
	}

	products, err := s.repo.Products(ctx)
	if err != nil {
		return domain.Order{}, err
	}
	orders, err := s.repo.Orders(ctx)
	if err != nil {
		return domain.Order{}, err
	}

	orderItems := make([]domain.OrderItem, 0, len(items))
	for _, item := range items {
		idx := indexProduct(products, item.ProductID)
		if idx < 0 {
			return domain.Order{}, fmt.Errorf("%w: product %s", store.ErrNotFound, item.ProductID)
		}
		product := products[idx]
		if product.Stock < item.Quantity {
			return domain.Order{}, &store.InsufficientStockError{
				ProductID: product.ID,
				Requested: item.Quantity,
				Available: product.Stock,
			}
		}
		orderItems = append(orderItems, domain.OrderItem{
			ProductID:   product.ID,
			ProductName: product.Name,
			Quantity:    item.Quantity,
			PriceAtSale: product.SellPrice,
		})
	}

	// All lines are valid; only now touch stock.
	for _, item := range orderItems {
		idx := indexProduct(products, item.ProductID)
		products[idx].Stock -= item.Quantity
	}

	now := s.now()
	order := domain.Order{
		ID:           xid.New("ord"),
		CustomerID:   customers[custIdx].ID,
		CustomerName: customers[custIdx].Name,
		Date:         now,
		Items:        orderItems,
		TotalAmount:  domain.ItemsTotal(orderItems),
		PaidAmount:   decimal.Zero,
		Installments: []domain.Installment{},
	}
	order.Status = domain.DeriveStatus(order.PaidAmount, order.TotalAmount)
	if req.InitialPayment.Sign() > 0 {
		order.ApplyInstallment(domain.Installment{
			ID:     xid.New("inst"),
			Amount: req.InitialPayment,
			Date:   now,
			Note:   domain.NoteInitialPayment,
		})
	}

	orders = append([]domain.Order{order}, orders...)
	customers[custIdx] = customers[custIdx].Reconcile(orders)

	batch := store.NewBatch().
		Products(products).
		Orders(orders).
		Customers(customers)
	if err := s.repo.Commit(ctx, batch); err != nil {
		return domain.Order{}, err
	}

	log.Printf("[service] order created id=%s customer=%s total=%s paid=%s status=%q by=%s",
		order.ID, order.CustomerID, order.TotalAmount, order.PaidAmount, order.Status, actorName(ctx))
	return order, nil
}

// RecordInstallment applies a payment to an order. A "full" payment must
// settle exactly the remaining balance; an "installment" may exceed it.
func (s *Service) RecordInstallment(ctx context.Context, orderID string, req domain.InstallmentRequest) (domain.Order, error) {
	if !req.Kind.Valid() {
		return domain.Order{}, fmt.Errorf("%w: kind must be %q or %q", store.ErrInvalid, domain.PaymentKindInstallment, domain.PaymentKindFull)
	}
	if req.Amount.Sign() <= 0 {
		return domain.Order{}, fmt.Errorf("%w: amount must be positive", store.ErrInvalid)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	orders, err := s.repo.Orders(ctx)
	if err != nil {
		return domain.Order{}, err
	}
	idx := indexOrder(orders, orderID)
	if idx < 0 {
		return domain.Order{}, fmt.Errorf("%w: order %s", store.ErrNotFound, orderID)
	}

	order := orders[idx]
	if req.Kind == domain.PaymentKindFull {
		remaining := order.Remaining()
		if remaining.Sign() <= 0 {
			return domain.Order{}, fmt.Errorf("%w: order %s has no remaining balance", store.ErrInvalid, order.ID)
		}
		if !req.Amount.Equal(remaining) {
			return domain.Order{}, fmt.Errorf("%w: full payment must equal remaining balance %s", store.ErrInvalid, remaining)
		}
	}

	order.Installments = append([]domain.Installment(nil), order.Installments...)
	order.ApplyInstallment(domain.Installment{
		ID:     xid.New("inst"),
		Amount: req.Amount,
		Date:   s.now(),
		Note:   req.Kind.Note(),
	})
	orders[idx] = order

	customers, err := s.repo.Customers(ctx)
	if err != nil {
		return domain.Order{}, err
	}
	batch := store.NewBatch().Orders(orders)
	if custIdx := indexCustomer(customers, order.CustomerID); custIdx >= 0 {
		customers[custIdx] = customers[custIdx].Reconcile(orders)
		batch.Customers(customers)
	} else {
		log.Printf("[service] WARN: order %s references missing customer %s", order.ID, order.CustomerID)
	}

	if err := s.repo.Commit(ctx, batch); err != nil {
		return domain.Order{}, err
	}

	log.Printf("[service] installment recorded order=%s amount=%s paid=%s status=%q by=%s",
		order.ID, req.Amount, order.PaidAmount, order.Status, actorName(ctx))
	return order, nil
}

// normalizeItems merges repeated products into one line, keeping first-seen
// order.
func normalizeItems(items []domain.CartItem) ([]domain.CartItem, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: order has no items", store.ErrInvalid)
	}

	index := make(map[string]int, len(items))
	normalized := make([]domain.CartItem, 0, len(items))
	for _, item := range items {
		id := strings.TrimSpace(item.ProductID)
		if id == "" || item.Quantity < 1 {
			return nil, fmt.Errorf("%w: every item needs a product and a positive quantity", store.ErrInvalid)
		}
		if i, ok := index[id]; ok {
			if item.Quantity > math.MaxInt-normalized[i].Quantity {
				return nil, fmt.Errorf("%w: quantity for product %s is too large", store.ErrInvalid, id)
			}
			normalized[i].Quantity += item.Quantity
			continue
		}
		index[id] = len(normalized)
		normalized = append(normalized, domain.CartItem{ProductID: id, Quantity: item.Quantity})
	}
	return normalized, nil
}

func indexOrder(orders []domain.Order, id string) int {
	for i := range orders {
		if orders[i].ID == id {
			return i
		}
	}
	return -1
}
