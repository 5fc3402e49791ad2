package core

import (
	"errors"
	"math"
	"strings"
)

type (
	// Transaction is a single signed monetary entry. Positive amounts are
	// income, negative amounts are expenses.
	Transaction struct {
		ID          int64   `json:"id"`
		Description string  `json:"description"`
		Amount      float64 `json:"amount"`
	}
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrEmptyDescription = errors.New("empty description")
)

// IsValidation reports whether err is a user input validation failure.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidAmount) || errors.Is(err, ErrEmptyDescription)
}

// ValidateAmount rejects zero, NaN and infinite amounts.
func ValidateAmount(amount float64) error {
	if amount == 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return ErrInvalidAmount
	}
	return nil
}

func (t Transaction) Validate() error {
	if len(strings.TrimSpace(t.Description)) == 0 {
		return ErrEmptyDescription
	}
	return ValidateAmount(t.Amount)
}

// IsIncome returns true for strictly positive amounts
func (t Transaction) IsIncome() bool {
	return t.Amount > 0
}

// IsExpense returns true for strictly negative amounts
func (t Transaction) IsExpense() bool {
	return t.Amount < 0
}
