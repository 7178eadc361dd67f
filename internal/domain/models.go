package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Category  string          `json:"category"`
	BuyPrice  decimal.Decimal `json:"buy_price"`
	SellPrice decimal.Decimal `json:"sell_price"`
	Stock     int             `json:"stock"`
	Image     string          `json:"image,omitempty"`
}

type ProductCreateRequest struct {
	Name      string          `json:"name"`
	Category  string          `json:"category"`
	BuyPrice  decimal.Decimal `json:"buy_price"`
	SellPrice decimal.Decimal `json:"sell_price"`
	Stock     int             `json:"stock"`
	Image     string          `json:"image,omitempty"`
}

type ProductUpdateRequest struct {
	Name      *string          `json:"name,omitempty"`
	Category  *string          `json:"category,omitempty"`
	BuyPrice  *decimal.Decimal `json:"buy_price,omitempty"`
	SellPrice *decimal.Decimal `json:"sell_price,omitempty"`
	Stock     *int             `json:"stock,omitempty"`
	Image     *string          `json:"image,omitempty"`
}

type Customer struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Phone       string          `json:"phone"`
	Address     string          `json:"address"`
	TotalSpent  decimal.Decimal `json:"total_spent"`
	CurrentDebt decimal.Decimal `json:"current_debt"`
}

type CustomerCreateRequest struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

// CustomerUpdateRequest only reaches profile fields; debt and spend are
// owned by reconciliation.
type CustomerUpdateRequest struct {
	Name    *string `json:"name,omitempty"`
	Phone   *string `json:"phone,omitempty"`
	Address *string `json:"address,omitempty"`
}

type OrderItem struct {
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	PriceAtSale decimal.Decimal `json:"price_at_sale"`
}

type Installment struct {
	ID     string          `json:"id"`
	Amount decimal.Decimal `json:"amount"`
	Date   time.Time       `json:"date"`
	Note   string          `json:"note,omitempty"`
}

// Order.CustomerName is a snapshot taken at checkout and is not updated when
// the customer is renamed.
type Order struct {
	ID           string          `json:"id"`
	CustomerID   string          `json:"customer_id"`
	CustomerName string          `json:"customer_name"`
	Date         time.Time       `json:"date"`
	Items        []OrderItem     `json:"items"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	PaidAmount   decimal.Decimal `json:"paid_amount"`
	Status       OrderStatus     `json:"status"`
	Installments []Installment   `json:"installments"`
}

type CartItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type OrderCreateRequest struct {
	CustomerID     string          `json:"customer_id"`
	Items          []CartItem      `json:"items"`
	InitialPayment decimal.Decimal `json:"initial_payment"`
}

type InstallmentRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Kind   PaymentKind     `json:"kind"`
}

type Expense struct {
	ID       string          `json:"id"`
	Category string          `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
	Date     time.Time       `json:"date"`
	Note     string          `json:"note"`
}

type ExpenseCreateRequest struct {
	Category string          `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
	Date     string          `json:"date,omitempty"`
	Note     string          `json:"note"`
}

type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

type CategoryTotal struct {
	Category string          `json:"category"`
	Total    decimal.Decimal `json:"total"`
}

type DashboardSummary struct {
	TotalSales           decimal.Decimal `json:"total_sales"`
	TotalReceived        decimal.Decimal `json:"total_received"`
	TotalPending         decimal.Decimal `json:"total_pending"`
	TotalExpenses        decimal.Decimal `json:"total_expenses"`
	GrossProfit          decimal.Decimal `json:"gross_profit"`
	NetProfit            decimal.Decimal `json:"net_profit"`
	TotalDebt            decimal.Decimal `json:"total_debt"`
	DebtorCount          int             `json:"debtor_count"`
	LowStockCount        int             `json:"low_stock_count"`
	LowStock             []Product       `json:"low_stock"`
	CategoryDistribution []CategoryCount `json:"category_distribution"`
	ExpensesByCategory   []CategoryTotal `json:"expenses_by_category"`
}

// InstallmentEntry is one payment in the flattened payment feed.
type InstallmentEntry struct {
	Installment
	OrderID      string `json:"order_id"`
	CustomerID   string `json:"customer_id"`
	CustomerName string `json:"customer_name"`
}

type OrderSummary struct {
	Date  string          `json:"date"`
	Total decimal.Decimal `json:"total"`
	Paid  decimal.Decimal `json:"paid"`
	Items string          `json:"items"`
}

type StockSummary struct {
	Name  string `json:"name"`
	Stock int    `json:"stock"`
}

type InsightInput struct {
	RecentOrders []OrderSummary  `json:"recent_orders"`
	LowStock     []StockSummary  `json:"low_stock"`
	TotalDebt    decimal.Decimal `json:"total_debt"`
}

type InsightResponse struct {
	Content     string `json:"content"`
	GeneratedAt string `json:"generated_at"`
}

type ProductDescriptionResponse struct {
	ProductID   string `json:"product_id"`
	Description string `json:"description"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Role        string `json:"role"`
	ExpiresAt   string `json:"expires_at"`
}

type Actor struct {
	Username string
	Role     string
}

type OrderStatus string

const (
	OrderStatusPending OrderStatus = "Pending"
	OrderStatusPartial OrderStatus = "Partially Paid"
	OrderStatusPaid    OrderStatus = "Fully Paid"
)

type PaymentKind string

const (
	PaymentKindInstallment PaymentKind = "installment"
	PaymentKindFull        PaymentKind = "full"
)

const (
	NoteInitialPayment     = "Initial Payment"
	NoteInstallmentPayment = "Installment Payment"
	NoteFinalSettlement    = "Final Settlement"
)

const LowStockThreshold = 3

var ExpenseCategories = []string{
	"Rent",
	"Utilities",
	"Salaries",
	"Packaging",
	"Marketing",
	"Inventory Shipping",
	"Other",
}

const RoleOwner = "owner"
