package store

import (
	"context"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"elegance/backend/internal/domain"
)

// Seed writes the demo boutique data unless the store was initialized before.
// It reports whether anything was written.
func Seed(ctx context.Context, repo *Repository) (bool, error) {
	initialized, err := repo.Initialized(ctx)
	if err != nil {
		return false, err
	}
	if initialized {
		return false, nil
	}

	products, customers, orders, expenses := SeedData(time.Now().UTC())
	batch := NewBatch().
		Products(products).
		Customers(customers).
		Orders(orders).
		Expenses(expenses).
		MarkInitialized()
	if err := repo.Commit(ctx, batch); err != nil {
		return false, err
	}

	log.Printf("[store] seeded %d products, %d customers, %d orders, %d expenses", len(products), len(customers), len(orders), len(expenses))
	return true, nil
}

// SeedData returns the illustrative starting data. The seeded customer debt
// matches the seeded order balance.
func SeedData(now time.Time) ([]domain.Product, []domain.Customer, []domain.Order, []domain.Expense) {
	money := decimal.NewFromInt

	products := []domain.Product{
		{ID: "1", Name: "Gold Silk Dress", Category: "Clothes", BuyPrice: money(85000), SellPrice: money(200000), Stock: 5},
		{ID: "2", Name: "Velvet Black Heels", Category: "Shoes", BuyPrice: money(65000), SellPrice: money(150000), Stock: 2},
		{ID: "3", Name: "Shein Batch #402", Category: "Shein Custom Order", BuyPrice: money(350000), SellPrice: money(600000), Stock: 1},
		{ID: "4", Name: "Pearl Necklace", Category: "Accessories", BuyPrice: money(25000), SellPrice: money(75000), Stock: 10},
	}

	customers := []domain.Customer{
		{ID: "1", Name: "Sophia Loren", Phone: "088 555 0101", Address: "123 Luxury Ln, Blantyre", TotalSpent: money(115000), CurrentDebt: money(85000)},
		{ID: "2", Name: "Audrey Hepburn", Phone: "099 555 0102", Address: "456 Classic Blvd, Lilongwe", TotalSpent: decimal.Zero, CurrentDebt: decimal.Zero},
	}

	orders := []domain.Order{
		{
			ID:           "101",
			CustomerID:   "1",
			CustomerName: "Sophia Loren",
			Date:         now,
			Items: []domain.OrderItem{
				{ProductID: "1", ProductName: "Gold Silk Dress", Quantity: 1, PriceAtSale: money(200000)},
			},
			TotalAmount: money(200000),
			PaidAmount:  money(115000),
			Status:      domain.OrderStatusPartial,
			Installments: []domain.Installment{
				{ID: "inst_1", Amount: money(115000), Date: now, Note: "Initial deposit"},
			},
		},
	}

	expenses := []domain.Expense{
		{ID: "1", Category: "Rent", Amount: money(150000), Date: now, Note: "Shop monthly rent"},
		{ID: "2", Category: "Utilities", Amount: money(25000), Date: now, Note: "Electricity units"},
	}

	return products, customers, orders, expenses
}
