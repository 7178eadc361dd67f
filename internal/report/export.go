package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"elegance/backend/internal/domain"
)

// Snapshot is everything the workbook export renders.
type Snapshot struct {
	BusinessName string
	Currency     string
	GeneratedAt  time.Time
	Summary      domain.DashboardSummary
	Orders       []domain.Order
	Expenses     []domain.Expense
}

const (
	summarySheet  = "Summary"
	ordersSheet   = "Orders"
	expensesSheet = "Expenses"
)

// WriteWorkbook renders the snapshot as an xlsx file with Summary, Orders and
// Expenses sheets.
func WriteWorkbook(w io.Writer, snap Snapshot) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := writeSummary(f, snap); err != nil {
		return err
	}

	if _, err := f.NewSheet(ordersSheet); err != nil {
		return fmt.Errorf("create orders sheet: %w", err)
	}
	if err := writeOrders(f, snap.Orders); err != nil {
		return err
	}

	if _, err := f.NewSheet(expensesSheet); err != nil {
		return fmt.Errorf("create expenses sheet: %w", err)
	}
	if err := writeExpenses(f, snap.Expenses); err != nil {
		return err
	}

	f.SetActiveSheet(0)
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeSummary(f *excelize.File, snap Snapshot) error {
	s := snap.Summary
	rows := [][]any{
		{snap.BusinessName, ""},
		{"Generated", snap.GeneratedAt.UTC().Format(time.RFC3339)},
		{"Currency", snap.Currency},
		{"", ""},
		{"Total Sales", money(s.TotalSales)},
		{"Received", money(s.TotalReceived)},
		{"Pending", money(s.TotalPending)},
		{"Expenses", money(s.TotalExpenses)},
		{"Gross Profit", money(s.GrossProfit)},
		{"Net Profit", money(s.NetProfit)},
		{"Outstanding Debt", money(s.TotalDebt)},
		{"Debtors", s.DebtorCount},
		{"Low Stock Items", s.LowStockCount},
	}
	for i, row := range rows {
		if err := f.SetSheetRow(summarySheet, fmt.Sprintf("A%d", i+1), &row); err != nil {
			return fmt.Errorf("write summary row: %w", err)
		}
	}
	return f.SetColWidth(summarySheet, "A", "A", 22)
}

func writeOrders(f *excelize.File, orders []domain.Order) error {
	if err := writeHeader(f, ordersSheet, []string{"Order", "Date", "Customer", "Items", "Total", "Paid", "Balance", "Status"}); err != nil {
		return err
	}
	for i, order := range orders {
		items := make([]string, 0, len(order.Items))
		for _, item := range order.Items {
			items = append(items, fmt.Sprintf("%s x%d", item.ProductName, item.Quantity))
		}
		row := []any{
			order.ID,
			order.Date.UTC().Format("2006-01-02"),
			order.CustomerName,
			strings.Join(items, ", "),
			money(order.TotalAmount),
			money(order.PaidAmount),
			money(order.Remaining()),
			string(order.Status),
		}
		if err := f.SetSheetRow(ordersSheet, fmt.Sprintf("A%d", i+2), &row); err != nil {
			return fmt.Errorf("write order row: %w", err)
		}
	}
	return f.SetColWidth(ordersSheet, "D", "D", 40)
}

func writeExpenses(f *excelize.File, expenses []domain.Expense) error {
	if err := writeHeader(f, expensesSheet, []string{"Date", "Category", "Amount", "Note"}); err != nil {
		return err
	}
	for i, expense := range expenses {
		row := []any{
			expense.Date.UTC().Format("2006-01-02"),
			expense.Category,
			money(expense.Amount),
			expense.Note,
		}
		if err := f.SetSheetRow(expensesSheet, fmt.Sprintf("A%d", i+2), &row); err != nil {
			return fmt.Errorf("write expense row: %w", err)
		}
	}
	return f.SetColWidth(expensesSheet, "D", "D", 30)
}

func writeHeader(f *excelize.File, sheet string, headers []string) error {
	for i, header := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}
	return nil
}

func money(d decimal.Decimal) float64 {
	return d.InexactFloat64()
}
