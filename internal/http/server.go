package http

import (
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"saldo/internal/core"
	"saldo/internal/i18n"
	"saldo/internal/log"
	"saldo/internal/middleware/ratelimit"
	"saldo/internal/middleware/security"
	"saldo/internal/middleware/trace"
	appweb "saldo/web"
)

// Ledger is the transaction store the handlers mutate.
type Ledger interface {
	Add(ctx context.Context, description string, amount float64) (core.Transaction, error)
	Remove(ctx context.Context, id int64) (bool, error)
	ClearAll(ctx context.Context, confirmed bool) error
	Transactions() []core.Transaction
}

// Languages selects and exposes the UI translation map.
type Languages interface {
	SelectLanguage(ctx context.Context, code string) error
	Current() (string, i18n.Translations)
	Text(key, fallback string) string
	Supported() []string
}

type Server struct {
	http.Server
	templates *template.Template
	locales   fs.FS
	ledger    Ledger
	languages Languages

	logger      *log.Logger
	events      *log.StructuredLogger
	rateLimiter *ratelimit.Limiter
	clientIP    *security.ClientIPResolver
	detector    *security.Detector
	startedAt   time.Time

	shutdownOnce sync.Once
}

// Option configures a Server.
type Option func(*Server)

func WithLogger(logger *log.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithRateLimit limits mutating requests per client and minute.
func WithRateLimit(perMinute int) Option {
	return func(s *Server) {
		s.rateLimiter = ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: perMinute})
	}
}

// NewServer configures routes and templates, returning a ready-to-run server.
// Templates are parsed eagerly; a parse failure is returned.
func NewServer(addr string, ledger Ledger, languages Languages, opts ...Option) (*Server, error) {
	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 10 * time.Second,
		},
		ledger:    ledger,
		languages: languages,
		clientIP:  security.NewClientIPResolver(),
		detector:  security.NewDetector(),
		startedAt: time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.New(log.DefaultConfig())
	}
	s.logger = s.logger.WithComponent(log.ComponentHTTP)
	s.events = log.NewStructuredLogger(s.logger)
	if s.rateLimiter == nil {
		s.rateLimiter = ratelimit.NewLimiter(ratelimit.DefaultConfig())
	}

	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		s.rateLimiter.Stop()
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	s.templates = t

	locales, err := fs.Sub(appweb.LocalesFS, "locales")
	if err != nil {
		s.rateLimiter.Stop()
		return nil, fmt.Errorf("mount locales: %w", err)
	}
	s.locales = locales

	s.Handler = s.middleware(s.routes())
	return s, nil
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		s.logger.Warn("Failed to mount embedded static FS", "error", err)
	}

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /ui/ledger", s.handleLedgerPartial)
	mux.HandleFunc("POST /transactions", s.handleAddTransaction)
	mux.HandleFunc("POST /transactions/clear", s.handleClearTransactions)
	mux.HandleFunc("DELETE /transactions/{id}", s.handleRemoveTransaction)
	mux.HandleFunc("POST /transactions/{id}/delete", s.handleRemoveTransaction)
	mux.HandleFunc("POST /language", s.handleSelectLanguage)
	mux.HandleFunc("GET /locales/{file}", s.handleLocale)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	return mux
}

// middleware wraps the mux: context logger, request id and access log,
// security headers, then rate limiting of mutating requests.
func (s *Server) middleware(next http.Handler) http.Handler {
	limited := s.rateLimiter.Middleware(s.clientIP.ClientIP, ratelimit.Mutating, s.onRateLimited)(next)
	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(limited)
	detected := s.detector.Middleware(s.onSuspicious)(headers)
	traced := trace.NewMiddleware(s.clientIP.ClientIP, s.logger).Middleware(detected)
	return log.Middleware(s.logger)(traced)
}

func (s *Server) onSuspicious(r *http.Request) {
	log.FromContext(r.Context()).WarnContext(r.Context(), "Suspicious request",
		log.FieldClientIP, s.clientIP.ClientIP(r),
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path,
		log.FieldUserAgent, r.UserAgent())
}

func (s *Server) onRateLimited(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.clientIP.ClientIP(r),
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)
	ErrorResponse(http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.").
		TriggerErrorNotification("Rate limit exceeded. Please try again later.").
		Write(w)
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
