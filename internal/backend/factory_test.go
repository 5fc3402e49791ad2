package backend

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"saldo/internal/amqp"
	"saldo/internal/config"
	"saldo/internal/storage"
)

func testFactory() *DefaultFactory {
	f := NewFactory(slog.New(slog.NewTextHandler(io.Discard, nil))).(*DefaultFactory)
	f.dial = func(string, string, string, *slog.Logger) (*amqp.Client, error) {
		return nil, errors.New("connection refused")
	}
	return f
}

func TestCreateBackend(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{name: "memory", config: Config{Type: MemoryBackend}},
		{name: "sqlite", config: Config{Type: SQLiteBackend, SQLiteDBPath: filepath.Join(t.TempDir(), "saldo.db")}},
		{name: "sqlite without path", config: Config{Type: SQLiteBackend}, wantErr: true},
		{name: "unknown", config: Config{Type: "sheets"}, wantErr: true},
		{
			name:   "unreachable broker keeps the store",
			config: Config{Type: MemoryBackend, AMQPURL: "amqp://localhost:1/", AMQPExchange: "x", AMQPQueue: "q"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := testFactory().CreateBackend(ctx, tt.config)
			if (err != nil) != tt.wantErr {
				t.Fatalf("CreateBackend() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			defer res.Cleanup()

			if res.Publisher != nil {
				t.Error("publisher must be nil without a broker")
			}
			if err := res.Store.Set(ctx, storage.KeyLanguage, "de"); err != nil {
				t.Fatalf("set: %v", err)
			}
			if v, ok, _ := res.Store.Get(ctx, storage.KeyLanguage); !ok || v != "de" {
				t.Fatalf("get = %q, %v", v, ok)
			}
		})
	}
}

func TestFromAppConfig(t *testing.T) {
	cfg := &config.Config{DataBackend: "sqlite", SQLiteDBPath: "x.db", AMQPURL: "amqp://h/"}
	bc, err := FromAppConfig(cfg)
	if err != nil {
		t.Fatalf("FromAppConfig: %v", err)
	}
	if bc.Type != SQLiteBackend || bc.SQLiteDBPath != "x.db" || bc.AMQPURL != "amqp://h/" {
		t.Fatalf("unexpected %+v", bc)
	}

	if _, err := FromAppConfig(&config.Config{DataBackend: "sheets"}); err == nil {
		t.Fatal("expected error for unknown backend")
	}
	if _, err := FromAppConfig(nil); err == nil {
		t.Fatal("expected error for nil config")
	}
}
