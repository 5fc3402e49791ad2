package i18n

import (
	"context"
	"fmt"
	"io/fs"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"
)

// Fetcher retrieves the translation map for one language code.
type Fetcher interface {
	Fetch(ctx context.Context, code string) (Translations, error)
}

// LocalePath is the conventional resource path for a language code.
func LocalePath(code string) string {
	return path.Join("locales", code+".json")
}

// FSFetcher reads locales/<code>.json from a filesystem, typically the
// embedded web assets.
type FSFetcher struct {
	fsys fs.FS
}

func NewFSFetcher(fsys fs.FS) *FSFetcher {
	return &FSFetcher{fsys: fsys}
}

func (f *FSFetcher) Fetch(ctx context.Context, code string) (Translations, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	file, err := f.fsys.Open(LocalePath(code))
	if err != nil {
		return nil, fmt.Errorf("%w: cannot load language file %s: %v", ErrLanguageUnavailable, code, err)
	}
	defer file.Close()

	tr, err := decode(file)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrLanguageUnavailable, code, err)
	}
	return tr, nil
}

// HTTPFetcher issues GET <base>/locales/<code>.json.
type HTTPFetcher struct {
	base   *url.URL
	client *http.Client
}

func NewHTTPFetcher(baseURL string, timeout time.Duration) (*HTTPFetcher, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, fmt.Errorf("parse locales base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("locales base url must be http or https, got %q", u.Scheme)
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPFetcher{base: u, client: &http.Client{Timeout: timeout}}, nil
}

func (f *HTTPFetcher) Fetch(ctx context.Context, code string) (Translations, error) {
	target := f.base.JoinPath(LocalePath(code))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch %s: %v", ErrLanguageUnavailable, target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: cannot load language file %s: status %d", ErrLanguageUnavailable, code, resp.StatusCode)
	}

	tr, err := decode(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrLanguageUnavailable, code, err)
	}
	return tr, nil
}
