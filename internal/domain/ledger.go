package domain

import "github.com/shopspring/decimal"

// DeriveStatus maps paid vs total onto the order status. It is the only
// place the status rule lives.
func DeriveStatus(paid decimal.Decimal, total decimal.Decimal) OrderStatus {
	switch {
	case paid.Sign() <= 0:
		return OrderStatusPending
	case paid.LessThan(total):
		return OrderStatusPartial
	default:
		return OrderStatusPaid
	}
}

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusPartial, OrderStatusPaid:
		return true
	}
	return false
}

func (k PaymentKind) Valid() bool {
	return k == PaymentKindInstallment || k == PaymentKindFull
}

// Note returns the installment note recorded for a payment of this kind.
func (k PaymentKind) Note() string {
	if k == PaymentKindFull {
		return NoteFinalSettlement
	}
	return NoteInstallmentPayment
}

func SumInstallments(installments []Installment) decimal.Decimal {
	total := decimal.Zero
	for _, inst := range installments {
		total = total.Add(inst.Amount)
	}
	return total
}

func ItemsTotal(items []OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.PriceAtSale.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}

// Remaining is the unpaid balance. It goes negative for overpaid orders.
func (o Order) Remaining() decimal.Decimal {
	return o.TotalAmount.Sub(o.PaidAmount)
}

// ApplyInstallment appends a payment and re-derives the paid amount and
// status from the installment list.
func (o *Order) ApplyInstallment(inst Installment) {
	o.Installments = append(o.Installments, inst)
	o.PaidAmount = SumInstallments(o.Installments)
	o.Status = DeriveStatus(o.PaidAmount, o.TotalAmount)
}

// OutstandingDebt sums total-paid over every order of the customer. Per-order
// balances are not clamped, so an overpaid order offsets debt elsewhere.
func OutstandingDebt(orders []Order, customerID string) decimal.Decimal {
	debt := decimal.Zero
	for _, order := range orders {
		if order.CustomerID != customerID {
			continue
		}
		debt = debt.Add(order.Remaining())
	}
	return debt
}

func TotalPaid(orders []Order, customerID string) decimal.Decimal {
	paid := decimal.Zero
	for _, order := range orders {
		if order.CustomerID != customerID {
			continue
		}
		paid = paid.Add(order.PaidAmount)
	}
	return paid
}

// Reconcile returns the customer with debt and spend recomputed from orders.
func (c Customer) Reconcile(orders []Order) Customer {
	c.CurrentDebt = OutstandingDebt(orders, c.ID)
	c.TotalSpent = TotalPaid(orders, c.ID)
	return c
}
