// Package http serves the ledger UI.
//
// This file implements parsing and validation of form submissions.

package http

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"saldo/internal/core"
)

// TransactionForm holds the add-transaction form values.
type TransactionForm struct {
	Description string
	Amount      float64
}

// ParseTransactionForm reads description and amount. Errors satisfy
// core.IsValidation so the caller can answer with the user-facing alert.
func ParseTransactionForm(r *http.Request) (TransactionForm, error) {
	desc := sanitizeInput(r.FormValue("description"))
	if desc == "" {
		return TransactionForm{}, core.ErrEmptyDescription
	}
	amount, err := core.ParseAmount(r.FormValue("amount"))
	if err != nil {
		return TransactionForm{}, err
	}
	return TransactionForm{Description: desc, Amount: amount}, nil
}

// ParseTransactionID reads the {id} path value; ids are positive integers.
func ParseTransactionID(r *http.Request) (int64, error) {
	raw := strings.TrimSpace(r.PathValue("id"))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid transaction id %q", raw)
	}
	return id, nil
}

// Confirmed reports whether the clear form carried confirm=true.
func Confirmed(r *http.Request) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(r.FormValue("confirm")))
	return err == nil && v
}

// ParseFormOrFail parses the request form and returns an error response on failure.
// Returns nil on success.
func ParseFormOrFail(r *http.Request) *HTMXResponseBuilder {
	if err := r.ParseForm(); err != nil {
		return BadRequestError("Invalid request format")
	}
	return nil
}
