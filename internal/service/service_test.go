package service

import (
	"bytes"
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"elegance/backend/internal/domain"
	"elegance/backend/internal/store"
	"elegance/backend/internal/store/memory"
)

var testNow = time.Date(2026, 10, 17, 9, 30, 0, 0, time.UTC)

func money(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

// flakyBackend wraps a memory store and fails writes while failPut is set.
type flakyBackend struct {
	*memory.Store
	failPut bool
}

func (b *flakyBackend) Put(ctx context.Context, writes map[string][]byte) error {
	if b.failPut {
		return errors.New("disk full")
	}
	return b.Store.Put(ctx, writes)
}

type stubGenerator struct {
	input    domain.InsightInput
	name     string
	category string
}

func (g *stubGenerator) AnalyzeBusiness(_ context.Context, input domain.InsightInput) string {
	g.input = input
	return "insight"
}

func (g *stubGenerator) DescribeProduct(_ context.Context, name string, category string) string {
	g.name = name
	g.category = category
	return "description"
}

type fixture struct {
	svc     *Service
	repo    *store.Repository
	backend *flakyBackend
	gen     *stubGenerator
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	backend := &flakyBackend{Store: memory.New()}
	repo := store.NewRepository(backend)
	batch := store.NewBatch().
		Products([]domain.Product{
			{ID: "p1", Name: "Gold Silk Dress", Category: "Clothes", BuyPrice: money(85000), SellPrice: money(200000), Stock: 5},
			{ID: "p2", Name: "Velvet Black Heels", Category: "Shoes", BuyPrice: money(30000), SellPrice: money(65000), Stock: 2},
		}).
		Customers([]domain.Customer{
			{ID: "c1", Name: "Sophia Loren", Phone: "0991", TotalSpent: money(0), CurrentDebt: money(0)},
			{ID: "c2", Name: "Audrey Hepburn", TotalSpent: money(0), CurrentDebt: money(0)},
		})
	require.NoError(t, repo.Commit(context.Background(), batch))

	gen := &stubGenerator{}
	svc := New(repo, gen, Options{Now: func() time.Time { return testNow }})
	return fixture{svc: svc, repo: repo, backend: backend, gen: gen}
}

func (f fixture) product(t *testing.T, id string) domain.Product {
	t.Helper()
	products, err := f.repo.Products(context.Background())
	require.NoError(t, err)
	idx := indexProduct(products, id)
	require.GreaterOrEqual(t, idx, 0, "product %s missing", id)
	return products[idx]
}

func (f fixture) customer(t *testing.T, id string) domain.Customer {
	t.Helper()
	customers, err := f.repo.Customers(context.Background())
	require.NoError(t, err)
	idx := indexCustomer(customers, id)
	require.GreaterOrEqual(t, idx, 0, "customer %s missing", id)
	return customers[idx]
}

func (f fixture) sellDress(t *testing.T, initial int64) domain.Order {
	t.Helper()
	order, err := f.svc.CreateOrder(context.Background(), domain.OrderCreateRequest{
		CustomerID:     "c1",
		Items:          []domain.CartItem{{ProductID: "p1", Quantity: 1}},
		InitialPayment: money(initial),
	})
	require.NoError(t, err)
	return order
}

func TestCreateOrderPendingDecrementsStockAndAddsDebt(t *testing.T) {
	f := newFixture(t)

	order := f.sellDress(t, 0)

	assert.Equal(t, domain.OrderStatusPending, order.Status)
	assert.True(t, order.TotalAmount.Equal(money(200000)))
	assert.True(t, order.PaidAmount.IsZero())
	assert.Empty(t, order.Installments)
	assert.Equal(t, "Sophia Loren", order.CustomerName)
	assert.Equal(t, testNow, order.Date)
	require.Len(t, order.Items, 1)
	assert.True(t, order.Items[0].PriceAtSale.Equal(money(200000)))

	assert.Equal(t, 4, f.product(t, "p1").Stock)
	assert.True(t, f.customer(t, "c1").CurrentDebt.Equal(money(200000)))
}

func TestInstallmentLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.sellDress(t, 0)

	partial, err := f.svc.RecordInstallment(ctx, order.ID, domain.InstallmentRequest{Amount: money(115000), Kind: domain.PaymentKindInstallment})
	require.NoError(t, err)
	assert.True(t, partial.PaidAmount.Equal(money(115000)))
	assert.Equal(t, domain.OrderStatusPartial, partial.Status)
	require.Len(t, partial.Installments, 1)
	assert.Equal(t, domain.NoteInstallmentPayment, partial.Installments[0].Note)
	assert.True(t, f.customer(t, "c1").CurrentDebt.Equal(money(85000)))

	paid, err := f.svc.RecordInstallment(ctx, order.ID, domain.InstallmentRequest{Amount: money(85000), Kind: domain.PaymentKindFull})
	require.NoError(t, err)
	assert.True(t, paid.PaidAmount.Equal(money(200000)))
	assert.Equal(t, domain.OrderStatusPaid, paid.Status)
	require.Len(t, paid.Installments, 2)
	assert.Equal(t, domain.NoteFinalSettlement, paid.Installments[1].Note)

	customer := f.customer(t, "c1")
	assert.True(t, customer.CurrentDebt.IsZero())
	assert.True(t, customer.TotalSpent.Equal(money(200000)))

	stored, err := f.svc.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPaid, stored.Status)
	assert.True(t, stored.PaidAmount.Equal(money(200000)))
	assert.Len(t, stored.Installments, 2)
}

func TestCreateOrderWithInitialPayment(t *testing.T) {
	f := newFixture(t)

	order := f.sellDress(t, 50000)

	assert.Equal(t, domain.OrderStatusPartial, order.Status)
	require.Len(t, order.Installments, 1)
	assert.Equal(t, domain.NoteInitialPayment, order.Installments[0].Note)
	assert.True(t, order.Installments[0].Amount.Equal(money(50000)))
	assert.True(t, f.customer(t, "c1").CurrentDebt.Equal(money(150000)))
}

func TestRecordInstallmentRejectsNonPositiveAmount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.sellDress(t, 0)

	for _, amount := range []int64{0, -100} {
		_, err := f.svc.RecordInstallment(ctx, order.ID, domain.InstallmentRequest{Amount: money(amount), Kind: domain.PaymentKindInstallment})
		assert.ErrorIs(t, err, store.ErrInvalid)
	}

	stored, err := f.svc.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.Installments)
	assert.Equal(t, domain.OrderStatusPending, stored.Status)
}

func TestRecordInstallmentValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.sellDress(t, 0)

	_, err := f.svc.RecordInstallment(ctx, order.ID, domain.InstallmentRequest{Amount: money(10), Kind: "cash"})
	assert.ErrorIs(t, err, store.ErrInvalid)

	_, err = f.svc.RecordInstallment(ctx, order.ID, domain.InstallmentRequest{Amount: money(10), Kind: domain.PaymentKindFull})
	assert.ErrorIs(t, err, store.ErrInvalid)

	_, err = f.svc.RecordInstallment(ctx, "ord-missing", domain.InstallmentRequest{Amount: money(10), Kind: domain.PaymentKindInstallment})
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = f.svc.RecordInstallment(ctx, order.ID, domain.InstallmentRequest{Amount: money(200000), Kind: domain.PaymentKindFull})
	require.NoError(t, err)

	_, err = f.svc.RecordInstallment(ctx, order.ID, domain.InstallmentRequest{Amount: money(1), Kind: domain.PaymentKindFull})
	assert.ErrorIs(t, err, store.ErrInvalid)
}

func TestOverpaymentOffsetsOtherDebt(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := f.sellDress(t, 0)
	f.sellDress(t, 0)

	_, err := f.svc.RecordInstallment(ctx, first.ID, domain.InstallmentRequest{Amount: money(250000), Kind: domain.PaymentKindInstallment})
	require.NoError(t, err)

	// 200000 - 250000 + 200000
	assert.True(t, f.customer(t, "c1").CurrentDebt.Equal(money(150000)))
}

func TestCreateOrderRejectsOverStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateOrder(ctx, domain.OrderCreateRequest{
		CustomerID: "c1",
		Items: []domain.CartItem{
			{ProductID: "p1", Quantity: 1},
			{ProductID: "p2", Quantity: 3},
		},
	})
	require.ErrorIs(t, err, store.ErrInsufficientStock)

	var stockErr *store.InsufficientStockError
	require.True(t, errors.As(err, &stockErr))
	assert.Equal(t, "p2", stockErr.ProductID)
	assert.Equal(t, 3, stockErr.Requested)
	assert.Equal(t, 2, stockErr.Available)

	assert.Equal(t, 5, f.product(t, "p1").Stock)
	assert.Equal(t, 2, f.product(t, "p2").Stock)
	orders, err := f.svc.ListOrders(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, orders)
	assert.True(t, f.customer(t, "c1").CurrentDebt.IsZero())
}

func TestCreateOrderMergesDuplicateLines(t *testing.T) {
	f := newFixture(t)

	order, err := f.svc.CreateOrder(context.Background(), domain.OrderCreateRequest{
		CustomerID: "c2",
		Items: []domain.CartItem{
			{ProductID: "p2", Quantity: 1},
			{ProductID: "p1", Quantity: 1},
			{ProductID: "p2", Quantity: 1},
		},
	})
	require.NoError(t, err)

	require.Len(t, order.Items, 2)
	assert.Equal(t, "p2", order.Items[0].ProductID)
	assert.Equal(t, 2, order.Items[0].Quantity)
	assert.True(t, order.TotalAmount.Equal(money(330000)))
	assert.Equal(t, 0, f.product(t, "p2").Stock)

	_, err = f.svc.CreateOrder(context.Background(), domain.OrderCreateRequest{
		CustomerID: "c2",
		Items:      []domain.CartItem{{ProductID: "p2", Quantity: 1}, {ProductID: "p2", Quantity: 1}},
	})
	assert.ErrorIs(t, err, store.ErrInsufficientStock)
}

func TestCreateOrderValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cases := []struct {
		name string
		req  domain.OrderCreateRequest
		want error
	}{
		{"no items", domain.OrderCreateRequest{CustomerID: "c1"}, store.ErrInvalid},
		{"zero quantity", domain.OrderCreateRequest{CustomerID: "c1", Items: []domain.CartItem{{ProductID: "p1", Quantity: 0}}}, store.ErrInvalid},
		{"negative payment", domain.OrderCreateRequest{CustomerID: "c1", Items: []domain.CartItem{{ProductID: "p1", Quantity: 1}}, InitialPayment: money(-1)}, store.ErrInvalid},
		{"missing customer id", domain.OrderCreateRequest{Items: []domain.CartItem{{ProductID: "p1", Quantity: 1}}}, store.ErrInvalid},
		{"unknown customer", domain.OrderCreateRequest{CustomerID: "c9", Items: []domain.CartItem{{ProductID: "p1", Quantity: 1}}}, store.ErrNotFound},
		{"unknown product", domain.OrderCreateRequest{CustomerID: "c1", Items: []domain.CartItem{{ProductID: "p9", Quantity: 1}}}, store.ErrNotFound},
		{"merged quantity overflows", domain.OrderCreateRequest{CustomerID: "c1", Items: []domain.CartItem{{ProductID: "p1", Quantity: math.MaxInt}, {ProductID: "p1", Quantity: math.MaxInt}}}, store.ErrInvalid},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.CreateOrder(ctx, tc.req)
			assert.ErrorIs(t, err, tc.want)
		})
	}
	assert.Equal(t, 5, f.product(t, "p1").Stock)
}

func TestFailedCommitLeavesNothingWritten(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.sellDress(t, 0)

	f.backend.failPut = true
	_, err := f.svc.CreateOrder(ctx, domain.OrderCreateRequest{
		CustomerID: "c1",
		Items:      []domain.CartItem{{ProductID: "p1", Quantity: 1}},
	})
	assert.ErrorIs(t, err, store.ErrUnavailable)

	_, err = f.svc.RecordInstallment(ctx, order.ID, domain.InstallmentRequest{Amount: money(1000), Kind: domain.PaymentKindInstallment})
	assert.ErrorIs(t, err, store.ErrUnavailable)
	f.backend.failPut = false

	assert.Equal(t, 4, f.product(t, "p1").Stock)
	orders, err := f.svc.ListOrders(ctx, "")
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Empty(t, orders[0].Installments)
	assert.True(t, f.customer(t, "c1").CurrentDebt.Equal(money(200000)))
}

func TestOrdersNewestFirstAndFiltered(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := f.sellDress(t, 0)
	second := f.sellDress(t, 200000)

	orders, err := f.svc.ListOrders(ctx, "")
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, second.ID, orders[0].ID)
	assert.Equal(t, first.ID, orders[1].ID)

	paid, err := f.svc.ListOrders(ctx, domain.OrderStatusPaid)
	require.NoError(t, err)
	require.Len(t, paid, 1)
	assert.Equal(t, second.ID, paid[0].ID)

	_, err = f.svc.ListOrders(ctx, "Overdue")
	assert.ErrorIs(t, err, store.ErrInvalid)

	history, err := f.svc.CustomerOrders(ctx, "c1")
	require.NoError(t, err)
	assert.Len(t, history, 2)

	_, err = f.svc.CustomerOrders(ctx, "c9")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestRecalcDebtIdempotentAndRepairsDrift(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.sellDress(t, 15000)

	customers, err := f.repo.Customers(ctx)
	require.NoError(t, err)
	customers[indexCustomer(customers, "c1")].CurrentDebt = money(1)
	require.NoError(t, f.repo.Commit(ctx, store.NewBatch().Customers(customers)))

	first, err := f.svc.RecalcDebt(ctx, "c1")
	require.NoError(t, err)
	second, err := f.svc.RecalcDebt(ctx, "c1")
	require.NoError(t, err)

	assert.True(t, first.CurrentDebt.Equal(money(185000)))
	assert.True(t, second.CurrentDebt.Equal(first.CurrentDebt))
	assert.True(t, second.TotalSpent.Equal(money(15000)))

	_, err = f.svc.RecalcDebt(ctx, "c9")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestReconcileAll(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.sellDress(t, 0)

	customers, err := f.repo.Customers(ctx)
	require.NoError(t, err)
	for i := range customers {
		customers[i].CurrentDebt = money(999)
	}
	require.NoError(t, f.repo.Commit(ctx, store.NewBatch().Customers(customers)))

	reconciled, err := f.svc.ReconcileAll(ctx)
	require.NoError(t, err)
	require.Len(t, reconciled, 2)
	assert.True(t, f.customer(t, "c1").CurrentDebt.Equal(money(200000)))
	assert.True(t, f.customer(t, "c2").CurrentDebt.IsZero())
}

func TestUpdateCustomerPreservesDebt(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.sellDress(t, 0)

	name := "Sophia L."
	updated, err := f.svc.UpdateCustomer(ctx, "c1", domain.CustomerUpdateRequest{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Sophia L.", updated.Name)
	assert.Equal(t, "0991", updated.Phone)
	assert.True(t, updated.CurrentDebt.Equal(money(200000)))

	orders, err := f.svc.CustomerOrders(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "Sophia Loren", orders[0].CustomerName)

	blank := " "
	_, err = f.svc.UpdateCustomer(ctx, "c1", domain.CustomerUpdateRequest{Name: &blank})
	assert.ErrorIs(t, err, store.ErrInvalid)
}

func TestCreateCustomerStartsDebtFree(t *testing.T) {
	f := newFixture(t)

	customer, err := f.svc.CreateCustomer(context.Background(), domain.CustomerCreateRequest{Name: " Grace Kelly ", Phone: "0888"})
	require.NoError(t, err)
	assert.Equal(t, "Grace Kelly", customer.Name)
	assert.True(t, customer.CurrentDebt.IsZero())
	assert.True(t, strings.HasPrefix(customer.ID, "cus-"))

	_, err = f.svc.CreateCustomer(context.Background(), domain.CustomerCreateRequest{})
	assert.ErrorIs(t, err, store.ErrInvalid)
}

func TestProductLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.svc.CreateProduct(ctx, domain.ProductCreateRequest{
		Name: "Silk Scarf", Category: "Custom Gifts", BuyPrice: money(5000), SellPrice: money(12000), Stock: 4,
	})
	require.NoError(t, err)
	assert.Equal(t, "Custom Gifts", created.Category)

	restock := 10
	updated, err := f.svc.UpdateProduct(ctx, created.ID, domain.ProductUpdateRequest{Stock: &restock})
	require.NoError(t, err)
	assert.Equal(t, 10, updated.Stock)
	assert.Equal(t, "Silk Scarf", updated.Name)

	negative := -1
	_, err = f.svc.UpdateProduct(ctx, created.ID, domain.ProductUpdateRequest{Stock: &negative})
	assert.ErrorIs(t, err, store.ErrInvalid)

	_, err = f.svc.CreateProduct(ctx, domain.ProductCreateRequest{Name: "No Category"})
	assert.ErrorIs(t, err, store.ErrInvalid)

	require.NoError(t, f.svc.DeleteProduct(ctx, created.ID))
	assert.ErrorIs(t, f.svc.DeleteProduct(ctx, created.ID), store.ErrNotFound)

	products, err := f.svc.ListProducts(ctx)
	require.NoError(t, err)
	assert.Len(t, products, 2)
}

func TestExpenseJournal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	older, err := f.svc.CreateExpense(ctx, domain.ExpenseCreateRequest{Category: "Rent", Amount: money(150000), Date: "2026-09-01"})
	require.NoError(t, err)
	newer, err := f.svc.CreateExpense(ctx, domain.ExpenseCreateRequest{Category: "Packaging", Amount: money(3000)})
	require.NoError(t, err)
	assert.Equal(t, testNow, newer.Date)

	_, err = f.svc.CreateExpense(ctx, domain.ExpenseCreateRequest{Category: "Rent", Amount: money(0)})
	assert.ErrorIs(t, err, store.ErrInvalid)
	_, err = f.svc.CreateExpense(ctx, domain.ExpenseCreateRequest{Category: "", Amount: money(10)})
	assert.ErrorIs(t, err, store.ErrInvalid)
	_, err = f.svc.CreateExpense(ctx, domain.ExpenseCreateRequest{Category: "Rent", Amount: money(10), Date: "yesterday"})
	assert.ErrorIs(t, err, store.ErrInvalid)

	expenses, err := f.svc.ListExpenses(ctx)
	require.NoError(t, err)
	require.Len(t, expenses, 2)
	assert.Equal(t, newer.ID, expenses[0].ID)

	require.NoError(t, f.svc.DeleteExpense(ctx, older.ID))
	assert.ErrorIs(t, f.svc.DeleteExpense(ctx, older.ID), store.ErrNotFound)
}

func TestDashboardAndFeeds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.sellDress(t, 115000)
	_, err := f.svc.CreateExpense(ctx, domain.ExpenseCreateRequest{Category: "Rent", Amount: money(20000)})
	require.NoError(t, err)

	summary, err := f.svc.Dashboard(ctx)
	require.NoError(t, err)
	assert.True(t, summary.TotalSales.Equal(money(200000)))
	assert.True(t, summary.TotalPending.Equal(money(85000)))
	assert.True(t, summary.GrossProfit.Equal(money(115000)))
	assert.True(t, summary.NetProfit.Equal(money(95000)))
	assert.True(t, summary.TotalDebt.Equal(money(85000)))
	assert.Equal(t, 1, summary.DebtorCount)

	debtors, err := f.svc.Debtors(ctx)
	require.NoError(t, err)
	require.Len(t, debtors, 1)
	assert.Equal(t, "c1", debtors[0].ID)

	feed, err := f.svc.Installments(ctx, "2026-10")
	require.NoError(t, err)
	assert.Len(t, feed, 1)

	_, err = f.svc.Installments(ctx, "October")
	assert.ErrorIs(t, err, store.ErrInvalid)

	var buf bytes.Buffer
	require.NoError(t, f.svc.ExportWorkbook(ctx, &buf))
	assert.Greater(t, buf.Len(), 0)
}

func TestInsightsUseStoreData(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.sellDress(t, 0)

	resp, err := f.svc.GenerateInsights(ctx)
	require.NoError(t, err)
	assert.Equal(t, "insight", resp.Content)
	assert.Equal(t, testNow.Format(time.RFC3339), resp.GeneratedAt)
	assert.Len(t, f.gen.input.RecentOrders, 1)
	assert.Len(t, f.gen.input.LowStock, 2)
	assert.True(t, f.gen.input.TotalDebt.Equal(money(200000)))

	desc, err := f.svc.DescribeProduct(ctx, "p2")
	require.NoError(t, err)
	assert.Equal(t, "description", desc.Description)
	assert.Equal(t, "Velvet Black Heels", f.gen.name)
	assert.Equal(t, "Shoes", f.gen.category)

	_, err = f.svc.DescribeProduct(ctx, "p9")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestActorContext(t *testing.T) {
	ctx := WithActor(context.Background(), domain.Actor{Username: "owner", Role: domain.RoleOwner})

	actor, ok := ActorFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "owner", actor.Username)
	assert.Equal(t, "owner", actorName(ctx))
	assert.Equal(t, "system", actorName(context.Background()))
}
