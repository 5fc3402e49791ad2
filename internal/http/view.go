package http

import (
	"saldo/internal/core"
	"saldo/internal/i18n"
)

// Default English texts for messages that are not part of the markup.
const (
	defaultAlertInvalid = "Please enter a valid description and non-zero amount."
	defaultConfirmClear = "Clear all transactions?"
	defaultAlertSave    = "Could not save your changes."
)

type rowView struct {
	ID          int64
	Description string
	Amount      string
	Kind        string
}

type ledgerView struct {
	Balance      string
	BalanceClass string
	Income       string
	Expense      string
	Rows         []rowView
	ConfirmClear string
}

type languageOption struct {
	Code     string
	Label    string
	Selected bool
}

type pageView struct {
	Lang         string
	Ledger       ledgerView
	Languages    []languageOption
	Alert        string
	AskClear     bool
	ConfirmClear string
}

// newLedgerView lists the newest transaction first.
func newLedgerView(txs []core.Transaction, sum core.Summary, confirmClear string) ledgerView {
	v := ledgerView{
		Balance:      core.FormatEUR(sum.Balance),
		BalanceClass: "positive",
		Income:       core.FormatEUR(sum.Income),
		Expense:      core.FormatEUR(sum.Expense),
		Rows:         make([]rowView, 0, len(txs)),
		ConfirmClear: confirmClear,
	}
	if sum.IsNegative() {
		v.BalanceClass = "negative"
	}
	for i := len(txs) - 1; i >= 0; i-- {
		t := txs[i]
		kind := "expense"
		if t.IsIncome() {
			kind = "income"
		}
		v.Rows = append(v.Rows, rowView{
			ID:          t.ID,
			Description: t.Description,
			Amount:      core.FormatEUR(t.Amount),
			Kind:        kind,
		})
	}
	return v
}

func languageOptions(codes []string, selected string) []languageOption {
	opts := make([]languageOption, 0, len(codes)+1)
	found := false
	for _, code := range codes {
		opts = append(opts, languageOption{Code: code, Label: i18n.Label(code), Selected: code == selected})
		found = found || code == selected
	}
	// A persisted code outside the configured list still shows as selected.
	if !found && selected != "" {
		opts = append(opts, languageOption{Code: selected, Label: i18n.Label(selected), Selected: true})
	}
	return opts
}
