package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"saldo/internal/core"
	"saldo/internal/i18n"
	"saldo/internal/ledger"
	"saldo/internal/log"
)

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.writePage(w, r, http.StatusOK, "")
}

// handleLedgerPartial renders the summary and transaction list.
func (s *Server) handleLedgerPartial(w http.ResponseWriter, r *http.Request) {
	s.writeLedger(w, r, NewHTMXResponse())
}

func (s *Server) handleAddTransaction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := log.FromContext(ctx)

	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}

	form, err := ParseTransactionForm(r)
	var tx core.Transaction
	if err == nil {
		tx, err = s.ledger.Add(ctx, form.Description, form.Amount)
	}
	switch {
	case err == nil:
	case core.IsValidation(err):
		logger.WarnContext(ctx, "Rejected transaction input",
			log.FieldOperation, log.OpValidate,
			log.FieldError, err)
		s.alert(w, r, http.StatusUnprocessableEntity, s.languages.Text("alert_invalid", defaultAlertInvalid))
		return
	default:
		logger.LogError(ctx, "Failed to add transaction", err, log.OpAdd, nil)
		s.alert(w, r, http.StatusInternalServerError, s.languages.Text("alert_save", defaultAlertSave))
		return
	}

	s.events.LogTransactionAdded(ctx, tx.ID, tx.Description, tx.Amount)

	if !isHTMX(r) {
		redirectHome(w, r, "")
		return
	}
	s.writeLedger(w, r, NewHTMXResponse().TriggerFormReset().TriggerLedgerChanged(string(ledger.EventAdded)))
}

func (s *Server) handleRemoveTransaction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := log.FromContext(ctx)

	id, err := ParseTransactionID(r)
	if err != nil {
		logger.WarnContext(ctx, "Invalid transaction id", log.FieldError, err)
		BadRequestError("Invalid transaction id").Write(w)
		return
	}

	removed, err := s.ledger.Remove(ctx, id)
	if err != nil {
		logger.LogError(ctx, "Failed to remove transaction", err, log.OpRemove, log.NewFields().WithTransaction(id, "", 0))
		s.alert(w, r, http.StatusInternalServerError, s.languages.Text("alert_save", defaultAlertSave))
		return
	}
	if removed {
		logger.InfoContext(ctx, "Transaction removed", log.FieldTxID, id, log.FieldOperation, log.OpRemove)
	} else {
		logger.DebugContext(ctx, "Remove of unknown transaction ignored", log.FieldTxID, id)
	}

	if !isHTMX(r) {
		redirectHome(w, r, "")
		return
	}
	resp := NewHTMXResponse()
	if removed {
		resp.TriggerLedgerChanged(string(ledger.EventRemoved))
	}
	s.writeLedger(w, r, resp)
}

func (s *Server) handleClearTransactions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := log.FromContext(ctx)

	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}

	err := s.ledger.ClearAll(ctx, Confirmed(r))
	switch {
	case errors.Is(err, ledger.ErrNotConfirmed):
		if !isHTMX(r) {
			redirectHome(w, r, "confirm=clear")
			return
		}
		ErrorResponse(http.StatusPreconditionRequired, "Confirmation required").Write(w)
		return
	case err != nil:
		logger.LogError(ctx, "Failed to clear transactions", err, log.OpClear, nil)
		s.alert(w, r, http.StatusInternalServerError, s.languages.Text("alert_save", defaultAlertSave))
		return
	}

	logger.InfoContext(ctx, "Transactions cleared", log.FieldOperation, log.OpClear)

	if !isHTMX(r) {
		redirectHome(w, r, "")
		return
	}
	s.writeLedger(w, r, NewHTMXResponse().TriggerLedgerChanged(string(ledger.EventCleared)))
}

// handleSelectLanguage switches the UI language. A failed switch leaves the
// page as it is.
func (s *Server) handleSelectLanguage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := log.FromContext(ctx)

	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}

	code := sanitizeInput(r.FormValue("lang"))
	if err := s.languages.SelectLanguage(ctx, code); err != nil {
		logger.WarnContext(ctx, "Language switch not applied",
			log.FieldLanguage, code,
			log.FieldOperation, log.OpSwitch,
			log.FieldError, err)
		if isHTMX(r) {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		redirectHome(w, r, "")
		return
	}

	s.events.LogLanguageSwitched(ctx, code)

	if isHTMX(r) {
		NewHTMXResponse().Refresh().Write(w)
		return
	}
	redirectHome(w, r, "")
}

// handleLocale serves /locales/<code>.json from the embedded locale files.
func (s *Server) handleLocale(w http.ResponseWriter, r *http.Request) {
	code, ok := strings.CutSuffix(r.PathValue("file"), ".json")
	if !ok {
		http.NotFound(w, r)
		return
	}
	if normalized, err := i18n.NormalizeCode(code); err != nil || normalized != code {
		http.NotFound(w, r)
		return
	}

	data, err := fs.ReadFile(s.locales, code+".json")
	if err != nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=300")
	_, _ = w.Write(data)
}

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.startedAt).Round(time.Second).String(),
	})
}

// handleReady reports whether templates are loaded and which language is
// applied.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	status, code := "ready", http.StatusOK
	checks := map[string]any{}

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status, code = "not_ready", http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	lang, tr := s.languages.Current()
	checks["language"] = map[string]any{"selected": lang, "keys": len(tr)}
	checks["ledger"] = map[string]any{"transactions": len(s.ledger.Transactions())}
	checks["rate_limiter"] = map[string]any{"active_clients": s.rateLimiter.ActiveClients()}
	checks["security"] = map[string]any{"suspicious_requests": s.detector.SuspiciousRequests()}

	writeJSON(w, code, map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// alert surfaces message to the user: a show-notification event for htmx,
// the re-rendered page otherwise.
func (s *Server) alert(w http.ResponseWriter, r *http.Request, code int, message string) {
	if isHTMX(r) {
		NewHTMXResponse().Status(code).TriggerErrorNotification(message).Write(w)
		return
	}
	s.writePage(w, r, code, message)
}

func (s *Server) page(r *http.Request, alert string) pageView {
	lang, _ := s.languages.Current()
	confirm := s.languages.Text("confirm_clear", defaultConfirmClear)
	txs := s.ledger.Transactions()
	return pageView{
		Lang:         lang,
		Ledger:       newLedgerView(txs, core.Summarize(txs), confirm),
		Languages:    languageOptions(s.languages.Supported(), lang),
		Alert:        alert,
		AskClear:     r.URL.Query().Get("confirm") == "clear",
		ConfirmClear: confirm,
	}
}

func (s *Server) writePage(w http.ResponseWriter, r *http.Request, code int, alert string) {
	body, err := s.render("index.html", s.page(r, alert), false)
	if err != nil {
		log.FromContext(r.Context()).LogError(r.Context(), "Index render failed", err, log.OpRender, nil)
		InternalServerError("Rendering failed").Write(w)
		return
	}
	NewHTMXResponse().Status(code).BodyHTML(body).Write(w)
}

func (s *Server) writeLedger(w http.ResponseWriter, r *http.Request, resp *HTMXResponseBuilder) {
	txs := s.ledger.Transactions()
	view := newLedgerView(txs, core.Summarize(txs), s.languages.Text("confirm_clear", defaultConfirmClear))
	body, err := s.render("ledger", view, true)
	if err != nil {
		log.FromContext(r.Context()).LogError(r.Context(), "Ledger render failed", err, log.OpRender, nil)
		InternalServerError("Rendering failed").Write(w)
		return
	}
	resp.BodyHTML(body).Write(w)
}

// render executes a template and applies the current translations to the
// resulting markup.
func (s *Server) render(name string, data any, fragment bool) ([]byte, error) {
	var raw bytes.Buffer
	if err := s.templates.ExecuteTemplate(&raw, name, data); err != nil {
		return nil, fmt.Errorf("execute %s: %w", name, err)
	}

	_, tr := s.languages.Current()
	var out bytes.Buffer
	translate := i18n.TranslateDocument
	if fragment {
		translate = i18n.TranslateFragment
	}
	if err := translate(&out, &raw, tr); err != nil {
		return nil, fmt.Errorf("translate %s: %w", name, err)
	}
	return out.Bytes(), nil
}
