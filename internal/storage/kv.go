// Package storage provides the local key-value persistence used by the
// ledger and the language preference.
package storage

import "context"

// Keys persisted by the application.
const (
	KeyLanguage     = "lang"
	KeyTransactions = "transactions"
)

// KV is a synchronous string key-value store, the server-side counterpart of
// browser local storage.
type KV interface {
	// Get returns the value stored under key; ok is false when the key is absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error

	// Delete removes key entirely. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}
