package core

import "github.com/shopspring/decimal"

// Summary is derived from the full transaction list.
type Summary struct {
	Balance float64 // sum of all amounts
	Income  float64 // sum of positive amounts
	Expense float64 // sum of negative amounts, kept negative
}

// Summarize sums amounts with exact decimal arithmetic so that e.g.
// 0.1 + 0.2 displays as 0.3.
func Summarize(txs []Transaction) Summary {
	balance, income, expense := decimal.Zero, decimal.Zero, decimal.Zero
	for _, t := range txs {
		d := decimal.NewFromFloat(t.Amount)
		balance = balance.Add(d)
		switch {
		case t.IsIncome():
			income = income.Add(d)
		case t.IsExpense():
			expense = expense.Add(d)
		}
	}
	return Summary{
		Balance: balance.InexactFloat64(),
		Income:  income.InexactFloat64(),
		Expense: expense.InexactFloat64(),
	}
}

// IsNegative reports whether the balance should get the negative treatment.
func (s Summary) IsNegative() bool {
	return s.Balance < 0
}
