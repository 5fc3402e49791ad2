package ledger

import (
	"encoding/json"
	"fmt"
	"strings"

	"saldo/internal/core"
)

// persistedEntry uses pointers so missing fields can be told apart from zero values.
type persistedEntry struct {
	ID          *int64   `json:"id"`
	Description *string  `json:"description"`
	Amount      *float64 `json:"amount"`
}

// decodeReport describes what decode kept and dropped.
type decodeReport struct {
	Kept      int
	Discarded int
}

// encode serializes the list as a JSON array of {id, description, amount}.
func encode(txs []core.Transaction) (string, error) {
	if txs == nil {
		txs = []core.Transaction{}
	}
	b, err := json.Marshal(txs)
	if err != nil {
		return "", fmt.Errorf("marshal transactions: %w", err)
	}
	return string(b), nil
}

// decode parses a persisted list. A document that is not a JSON array is an
// error; individual malformed entries are dropped and counted.
func decode(data string) ([]core.Transaction, decodeReport, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal([]byte(data), &raw); err != nil {
		return nil, decodeReport{}, fmt.Errorf("unmarshal transactions: %w", err)
	}

	var report decodeReport
	seen := make(map[int64]struct{}, len(raw))
	out := make([]core.Transaction, 0, len(raw))
	for _, item := range raw {
		tx, ok := decodeEntry(item)
		if !ok {
			report.Discarded++
			continue
		}
		if _, dup := seen[tx.ID]; dup {
			report.Discarded++
			continue
		}
		seen[tx.ID] = struct{}{}
		out = append(out, tx)
	}
	report.Kept = len(out)
	return out, report, nil
}

func decodeEntry(item json.RawMessage) (core.Transaction, bool) {
	var e persistedEntry
	if err := json.Unmarshal(item, &e); err != nil {
		return core.Transaction{}, false
	}
	if e.ID == nil || e.Description == nil || e.Amount == nil {
		return core.Transaction{}, false
	}
	if *e.ID <= 0 {
		return core.Transaction{}, false
	}
	tx := core.Transaction{
		ID:          *e.ID,
		Description: strings.TrimSpace(*e.Description),
		Amount:      *e.Amount,
	}
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, false
	}
	return tx, true
}
