package i18n

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"testing/fstest"
	"time"
)

func TestFSFetcher(t *testing.T) {
	fsys := fstest.MapFS{
		"locales/en.json":  {Data: []byte(`{"title":"Expense Tracker","add":"Add"}`)},
		"locales/de.json":  {Data: []byte(`{"title":"Haushaltsbuch"}`)},
		"locales/bad.json": {Data: []byte(`{"title":`)},
		"locales/nul.json": {Data: []byte(`null`)},
	}
	f := NewFSFetcher(fsys)
	ctx := context.Background()

	tr, err := f.Fetch(ctx, "en")
	if err != nil {
		t.Fatalf("fetch en: %v", err)
	}
	if tr["title"] != "Expense Tracker" || tr["add"] != "Add" {
		t.Fatalf("unexpected map %v", tr)
	}

	for _, code := range []string{"fr", "bad", "nul"} {
		if _, err := f.Fetch(ctx, code); !errors.Is(err, ErrLanguageUnavailable) {
			t.Errorf("Fetch(%q) error = %v, want ErrLanguageUnavailable", code, err)
		}
	}
}

func TestHTTPFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/app/locales/de.json":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"title":"Haushaltsbuch"}`))
		case "/app/locales/ru.json":
			_, _ = w.Write([]byte(`<html>oops</html>`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	f, err := NewHTTPFetcher(srv.URL+"/app", time.Second)
	if err != nil {
		t.Fatalf("new fetcher: %v", err)
	}
	ctx := context.Background()

	tr, err := f.Fetch(ctx, "de")
	if err != nil {
		t.Fatalf("fetch de: %v", err)
	}
	if tr["title"] != "Haushaltsbuch" {
		t.Fatalf("unexpected map %v", tr)
	}

	if _, err := f.Fetch(ctx, "fr"); !errors.Is(err, ErrLanguageUnavailable) {
		t.Errorf("404 error = %v, want ErrLanguageUnavailable", err)
	}
	if _, err := f.Fetch(ctx, "ru"); !errors.Is(err, ErrLanguageUnavailable) {
		t.Errorf("malformed body error = %v, want ErrLanguageUnavailable", err)
	}
}

func TestNewHTTPFetcherRejectsBadURL(t *testing.T) {
	for _, raw := range []string{"ftp://example.com", "not a url", ""} {
		if _, err := NewHTTPFetcher(raw, time.Second); err == nil {
			t.Errorf("NewHTTPFetcher(%q) expected error", raw)
		}
	}
}

func TestNormalizeCode(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"en", "en", false},
		{" DE ", "de", false},
		{"pt-br", "pt-BR", false},
		{"", "", true},
		{"../etc/passwd", "", true},
		{"en/../../x", "", true},
	}
	for _, tt := range tests {
		got, err := NormalizeCode(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("NormalizeCode(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if err != nil && !errors.Is(err, ErrInvalidLanguage) {
			t.Errorf("NormalizeCode(%q) error = %v, want ErrInvalidLanguage", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("NormalizeCode(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLabel(t *testing.T) {
	if got := Label("de"); got != "Deutsch" {
		t.Errorf("Label(de) = %q", got)
	}
	if got := Label("en"); got != "English" {
		t.Errorf("Label(en) = %q", got)
	}
}
