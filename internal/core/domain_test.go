package core

import (
	"errors"
	"fmt"
	"math"
	"testing"
)

func TestTransactionValidate(t *testing.T) {
	good := Transaction{ID: 1, Description: "Coffee", Amount: -3.5}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []struct {
		tx   Transaction
		want error
	}{
		{Transaction{ID: 1, Description: "", Amount: 1}, ErrEmptyDescription},
		{Transaction{ID: 1, Description: "   ", Amount: 1}, ErrEmptyDescription},
		{Transaction{ID: 1, Description: "a", Amount: 0}, ErrInvalidAmount},
		{Transaction{ID: 1, Description: "a", Amount: math.NaN()}, ErrInvalidAmount},
		{Transaction{ID: 1, Description: "a", Amount: math.Inf(-1)}, ErrInvalidAmount},
	}
	for i, tc := range bads {
		err := tc.tx.Validate()
		if !errors.Is(err, tc.want) {
			t.Fatalf("case %d expected %v, got %v", i, tc.want, err)
		}
		if !IsValidation(err) {
			t.Fatalf("case %d expected validation error, got %v", i, err)
		}
	}
}

func TestIsValidationWrapped(t *testing.T) {
	if !IsValidation(fmt.Errorf("add: %w", ErrInvalidAmount)) {
		t.Fatal("wrapped ErrInvalidAmount should be a validation error")
	}
	if IsValidation(errors.New("disk full")) {
		t.Fatal("unrelated error classified as validation")
	}
}

func TestIncomeExpenseClassification(t *testing.T) {
	if !(Transaction{Amount: 2000}).IsIncome() {
		t.Fatal("positive amount should be income")
	}
	if !(Transaction{Amount: -0.01}).IsExpense() {
		t.Fatal("negative amount should be expense")
	}
}
