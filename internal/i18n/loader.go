package i18n

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"saldo/internal/cache"
	"saldo/internal/storage"
)

// Loader holds the currently applied translation map and the selected
// language code.
//
// Overlapping selections are sequenced: each call to SelectLanguage takes a
// ticket and its response is applied only if no later selection was
// requested in the meantime.
type Loader struct {
	fetcher      Fetcher
	prefs        storage.KV
	cache        cache.Cache[Translations]
	group        singleflight.Group
	logger       *slog.Logger
	defaultCode  string
	supported    []string
	fetchTimeout time.Duration

	ticket atomic.Uint64

	mu       sync.RWMutex
	selected string
	applied  string
	current  Translations
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithCache keeps fetched maps so repeated switches skip the fetch.
func WithCache(c cache.Cache[Translations]) LoaderOption {
	return func(l *Loader) { l.cache = c }
}

func WithLoaderLogger(logger *slog.Logger) LoaderOption {
	return func(l *Loader) { l.logger = logger }
}

// WithDefaultLanguage overrides DefaultLanguage.
func WithDefaultLanguage(code string) LoaderOption {
	return func(l *Loader) { l.defaultCode = code }
}

// WithFetchTimeout bounds a shared fetch, which runs detached from the
// caller that started it.
func WithFetchTimeout(d time.Duration) LoaderOption {
	return func(l *Loader) {
		if d > 0 {
			l.fetchTimeout = d
		}
	}
}

// WithSupported lists the codes offered by the language selector.
func WithSupported(codes ...string) LoaderOption {
	return func(l *Loader) { l.supported = append([]string(nil), codes...) }
}

func NewLoader(fetcher Fetcher, prefs storage.KV, opts ...LoaderOption) *Loader {
	l := &Loader{
		fetcher:      fetcher,
		prefs:        prefs,
		logger:       slog.Default(),
		defaultCode:  DefaultLanguage,
		fetchTimeout: 10 * time.Second,
		current:      Translations{},
	}
	for _, opt := range opts {
		opt(l)
	}
	if len(l.supported) == 0 {
		l.supported = []string{l.defaultCode}
	}
	l.selected = l.defaultCode
	return l
}

// Startup picks the persisted language, or the default one, marks it as
// selected and tries to apply it. The choice is not persisted here; only an
// explicit SelectLanguage writes the preference. A failed fetch is logged and
// leaves the template text in place.
func (l *Loader) Startup(ctx context.Context) string {
	code := l.defaultCode
	saved, ok, err := l.prefs.Get(ctx, storage.KeyLanguage)
	if err != nil {
		l.logger.ErrorContext(ctx, "Failed to read saved language", "error", err)
	} else if ok {
		if normalized, err := NormalizeCode(saved); err == nil {
			code = normalized
		} else {
			l.logger.WarnContext(ctx, "Ignoring invalid saved language", "lang", saved)
		}
	}

	l.mu.Lock()
	l.selected = code
	l.mu.Unlock()

	if _, err := l.load(ctx, code); err != nil {
		l.logger.ErrorContext(ctx, "Failed to load startup language", "lang", code, "error", err)
	}
	return code
}

// SelectLanguage fetches and applies the translation map for code and
// persists the choice. On failure the current map is left unchanged.
func (l *Loader) SelectLanguage(ctx context.Context, code string) error {
	normalized, err := NormalizeCode(code)
	if err != nil {
		return err
	}

	applied, err := l.load(ctx, normalized)
	if err != nil {
		l.logger.ErrorContext(ctx, "Failed to load language", "lang", normalized, "error", err)
		return err
	}
	if !applied {
		l.logger.InfoContext(ctx, "Discarded superseded language response", "lang", normalized)
		return ErrSuperseded
	}

	if err := l.prefs.Set(ctx, storage.KeyLanguage, normalized); err != nil {
		// The switch is already visible; only the preference is lost.
		l.logger.ErrorContext(ctx, "Failed to persist language", "lang", normalized, "error", err)
	}
	return nil
}

// load fetches code and applies it if the request is still the latest one.
func (l *Loader) load(ctx context.Context, code string) (bool, error) {
	ticket := l.ticket.Add(1)

	tr, err := l.fetch(ctx, code)
	if err != nil {
		return false, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if ticket != l.ticket.Load() {
		return false, nil
	}
	l.current = tr.clone()
	l.selected = code
	l.applied = code
	return true, nil
}

func (l *Loader) fetch(ctx context.Context, code string) (Translations, error) {
	if l.cache != nil {
		if tr, ok := l.cache.Get(code); ok {
			return tr, nil
		}
	}

	// Joined callers share one fetch; a caller going away must not cancel it
	// for the others.
	ch := l.group.DoChan(code, func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), l.fetchTimeout)
		defer cancel()
		tr, err := l.fetcher.Fetch(fetchCtx, code)
		if err != nil {
			return nil, err
		}
		if l.cache != nil {
			l.cache.Set(code, tr)
		}
		return tr, nil
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if err := res.Err; err != nil {
		if !errors.Is(err, ErrLanguageUnavailable) {
			err = fmt.Errorf("%w: %v", ErrLanguageUnavailable, err)
		}
		return nil, err
	}
	return res.Val.(Translations), nil
}

// Current returns the selected code and a copy of the applied map.
func (l *Loader) Current() (string, Translations) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.selected, l.current.clone()
}

// Selected returns the code the language selector should show.
func (l *Loader) Selected() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.selected
}

// Applied returns the code whose map is currently applied, empty if none.
func (l *Loader) Applied() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.applied
}

// Text returns the translation for key or fallback.
func (l *Loader) Text(key, fallback string) string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if v, ok := l.current.Lookup(key); ok {
		return v
	}
	return fallback
}

// Supported returns the selectable language codes.
func (l *Loader) Supported() []string {
	return append([]string(nil), l.supported...)
}
