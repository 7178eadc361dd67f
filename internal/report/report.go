// Package report derives dashboard figures from the stored collections. Every
// function is pure and recomputes from its inputs on each call.
package report

import (
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"elegance/backend/internal/domain"
)

var ErrInvalidMonth = errors.New("month must be YYYY-MM")

func Summarize(orders []domain.Order, products []domain.Product, customers []domain.Customer, expenses []domain.Expense) domain.DashboardSummary {
	summary := domain.DashboardSummary{
		TotalSales:    decimal.Zero,
		TotalReceived: decimal.Zero,
		TotalExpenses: decimal.Zero,
	}

	for _, order := range orders {
		summary.TotalSales = summary.TotalSales.Add(order.TotalAmount)
		summary.TotalReceived = summary.TotalReceived.Add(order.PaidAmount)
	}
	summary.TotalPending = summary.TotalSales.Sub(summary.TotalReceived)

	for _, expense := range expenses {
		summary.TotalExpenses = summary.TotalExpenses.Add(expense.Amount)
	}

	summary.GrossProfit = GrossProfit(orders, products)
	summary.NetProfit = summary.GrossProfit.Sub(summary.TotalExpenses)

	summary.TotalDebt = TotalDebt(customers)
	for _, customer := range customers {
		if customer.CurrentDebt.Sign() > 0 {
			summary.DebtorCount++
		}
	}

	summary.LowStock = LowStock(products, domain.LowStockThreshold)
	summary.LowStockCount = len(summary.LowStock)
	summary.CategoryDistribution = CategoryDistribution(products)
	summary.ExpensesByCategory = ExpensesByCategory(expenses)
	return summary
}

// GrossProfit subtracts the current buy price of every sold unit from sales.
// Products deleted since the sale contribute no cost.
func GrossProfit(orders []domain.Order, products []domain.Product) decimal.Decimal {
	buyPrices := make(map[string]decimal.Decimal, len(products))
	for _, product := range products {
		buyPrices[product.ID] = product.BuyPrice
	}

	profit := decimal.Zero
	for _, order := range orders {
		cost := decimal.Zero
		for _, item := range order.Items {
			price, ok := buyPrices[item.ProductID]
			if !ok {
				continue
			}
			cost = cost.Add(price.Mul(decimal.NewFromInt(int64(item.Quantity))))
		}
		profit = profit.Add(order.TotalAmount.Sub(cost))
	}
	return profit
}

func TotalDebt(customers []domain.Customer) decimal.Decimal {
	total := decimal.Zero
	for _, customer := range customers {
		total = total.Add(customer.CurrentDebt)
	}
	return total
}

// LowStock returns products with stock at or below threshold, in catalog order.
func LowStock(products []domain.Product, threshold int) []domain.Product {
	out := make([]domain.Product, 0)
	for _, product := range products {
		if product.Stock <= threshold {
			out = append(out, product)
		}
	}
	return out
}

// CategoryDistribution counts products per category in first-seen order.
func CategoryDistribution(products []domain.Product) []domain.CategoryCount {
	out := make([]domain.CategoryCount, 0)
	index := make(map[string]int)
	for _, product := range products {
		i, ok := index[product.Category]
		if !ok {
			index[product.Category] = len(out)
			out = append(out, domain.CategoryCount{Category: product.Category})
			i = len(out) - 1
		}
		out[i].Count++
	}
	return out
}

// ExpensesByCategory totals expenses per category. Known categories come first
// in their canonical order, then any others as first seen. Zero totals are
// dropped.
func ExpensesByCategory(expenses []domain.Expense) []domain.CategoryTotal {
	totals := make(map[string]decimal.Decimal)
	var extra []string
	known := make(map[string]bool, len(domain.ExpenseCategories))
	for _, category := range domain.ExpenseCategories {
		known[category] = true
	}

	for _, expense := range expenses {
		current, seen := totals[expense.Category]
		if !seen && !known[expense.Category] {
			extra = append(extra, expense.Category)
		}
		totals[expense.Category] = current.Add(expense.Amount)
	}

	out := make([]domain.CategoryTotal, 0, len(totals))
	for _, category := range append(append([]string{}, domain.ExpenseCategories...), extra...) {
		total, ok := totals[category]
		if !ok || total.IsZero() {
			continue
		}
		out = append(out, domain.CategoryTotal{Category: category, Total: total})
	}
	return out
}

// Debtors lists customers that owe money, largest debt first.
func Debtors(customers []domain.Customer) []domain.Customer {
	out := make([]domain.Customer, 0)
	for _, customer := range customers {
		if customer.CurrentDebt.Sign() > 0 {
			out = append(out, customer)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CurrentDebt.GreaterThan(out[j].CurrentDebt)
	})
	return out
}

func ParseMonth(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	month, err := time.Parse("2006-01", value)
	if err != nil {
		return time.Time{}, ErrInvalidMonth
	}
	return month, nil
}

// InstallmentFeed flattens every payment across orders, newest first. A zero
// month returns the whole history; otherwise only payments in that calendar
// month (UTC) are kept.
func InstallmentFeed(orders []domain.Order, month time.Time) []domain.InstallmentEntry {
	out := make([]domain.InstallmentEntry, 0)
	for _, order := range orders {
		for _, inst := range order.Installments {
			if !month.IsZero() && !sameMonth(inst.Date, month) {
				continue
			}
			out = append(out, domain.InstallmentEntry{
				Installment:  inst,
				OrderID:      order.ID,
				CustomerID:   order.CustomerID,
				CustomerName: order.CustomerName,
			})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date)
	})
	return out
}

// RecentOrderSummaries condenses up to limit orders for the insight prompt.
// Orders are expected newest first.
func RecentOrderSummaries(orders []domain.Order, limit int) []domain.OrderSummary {
	if limit > 0 && len(orders) > limit {
		orders = orders[:limit]
	}
	out := make([]domain.OrderSummary, 0, len(orders))
	for _, order := range orders {
		names := make([]string, 0, len(order.Items))
		for _, item := range order.Items {
			names = append(names, item.ProductName)
		}
		out = append(out, domain.OrderSummary{
			Date:  order.Date.UTC().Format("2006-01-02"),
			Total: order.TotalAmount,
			Paid:  order.PaidAmount,
			Items: strings.Join(names, ", "),
		})
	}
	return out
}

// StockBelow lists name and stock for products strictly below limit.
func StockBelow(products []domain.Product, limit int) []domain.StockSummary {
	out := make([]domain.StockSummary, 0)
	for _, product := range products {
		if product.Stock < limit {
			out = append(out, domain.StockSummary{Name: product.Name, Stock: product.Stock})
		}
	}
	return out
}

func sameMonth(a time.Time, b time.Time) bool {
	a = a.UTC()
	b = b.UTC()
	return a.Year() == b.Year() && a.Month() == b.Month()
}
