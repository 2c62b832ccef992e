package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"

	"github.com/leapstack-labs/nebulasql/internal/server/notifier"
	"github.com/leapstack-labs/nebulasql/pkg/dialect"
	"github.com/leapstack-labs/nebulasql/pkg/format"
	"github.com/leapstack-labs/nebulasql/pkg/lint"
	"github.com/leapstack-labs/nebulasql/pkg/parser"
	"github.com/leapstack-labs/nebulasql/pkg/token"
)

const maxBodyBytes = 1 << 20

// Handlers provides the HTTP handlers of the API.
type Handlers struct {
	dialect  *dialect.Dialect
	lint     *lint.Config
	analyzer *lint.Analyzer
	caser    format.KeywordCase
	notifier *notifier.Notifier
	logger   *slog.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(d *dialect.Dialect, lintCfg *lint.Config, kc format.KeywordCase, n *notifier.Notifier, logger *slog.Logger) *Handlers {
	return &Handlers{
		dialect:  d,
		lint:     lintCfg,
		analyzer: lint.NewAnalyzer(lintCfg),
		caser:    kc,
		notifier: n,
		logger:   logger,
	}
}

// Health reports liveness.
func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Dialects lists the registered dialects.
func (h *Handlers) Dialects(w http.ResponseWriter, _ *http.Request) {
	infos := make([]DialectInfo, 0)
	for _, name := range dialect.List() {
		d, _ := dialect.Get(name)
		infos = append(infos, DialectInfo{
			Name:                    d.Name,
			Description:             d.Description,
			AnsiKeywords:            d.AnsiKeywords(),
			LegacyExponentAsDecimal: d.LegacyExponentAsDecimal(),
			Default:                 d.Name == h.dialect.Name,
		})
	}
	writeJSON(w, http.StatusOK, infos)
}

// Rules lists the lint rules with the severity the server applies.
func (h *Handlers) Rules(w http.ResponseWriter, _ *http.Request) {
	infos := make([]RuleInfo, 0)
	for _, rule := range h.lint.Rules() {
		sev := lint.SeverityOff
		if !h.lint.IsDisabled(rule.ID) {
			sev = h.lint.GetSeverity(rule.ID, rule.Severity)
		}
		infos = append(infos, RuleInfo{
			ID:          rule.ID,
			Description: rule.Description,
			Severity:    sev.String(),
			ConfigKeys:  rule.ConfigKeys,
		})
	}
	writeJSON(w, http.StatusOK, infos)
}

// Parse returns the syntax tree and canonical text of each statement.
func (h *Handlers) Parse(w http.ResponseWriter, r *http.Request) {
	var req ParseRequest
	if !h.decode(w, r, &req) {
		return
	}
	d, ok := h.resolve(w, req.Modes)
	if !ok {
		return
	}
	p := parser.New(d)
	opts := []format.Option{format.WithKeywordCase(h.caser)}

	resp := ParseResponse{Statements: []*format.TreeNode{}, Canonical: []string{}}
	if req.Expr {
		e, err := p.ParseExpression(req.SQL)
		if err != nil {
			writeParseError(w, req.SQL, err)
			return
		}
		resp.Statements = append(resp.Statements, format.Tree(e))
		resp.Canonical = append(resp.Canonical, format.Expr(e, opts...))
		writeJSON(w, http.StatusOK, resp)
		return
	}

	stmts, err := p.ParseScript(req.SQL)
	if err != nil {
		writeParseError(w, req.SQL, err)
		return
	}
	for _, stmt := range stmts {
		resp.Statements = append(resp.Statements, format.Tree(stmt))
		resp.Canonical = append(resp.Canonical, format.SQL(stmt, opts...))
	}
	writeJSON(w, http.StatusOK, resp)
}

// Format returns the script in canonical layout.
func (h *Handlers) Format(w http.ResponseWriter, r *http.Request) {
	var req FormatRequest
	if !h.decode(w, r, &req) {
		return
	}
	d, ok := h.resolve(w, req.Modes)
	if !ok {
		return
	}
	kc := h.caser
	if req.KeywordCase != "" {
		var valid bool
		if kc, valid = format.ParseKeywordCase(req.KeywordCase); !valid {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid keyword_case %q (want upper or lower)", req.KeywordCase))
			return
		}
	}
	opts := []format.Option{format.WithKeywordCase(kc)}
	if req.Compact {
		opts = append(opts, format.Compact())
	}

	out, err := format.Format(req.SQL, d, opts...)
	if err != nil {
		writeParseError(w, req.SQL, err)
		return
	}
	writeJSON(w, http.StatusOK, FormatResponse{Formatted: out, Changed: out != req.SQL})
}

// Check parses the script and runs the lint rules over it.
func (h *Handlers) Check(w http.ResponseWriter, r *http.Request) {
	var req CheckRequest
	if !h.decode(w, r, &req) {
		return
	}
	d, ok := h.resolve(w, req.Modes)
	if !ok {
		return
	}
	stmts, err := parser.New(d).ParseScript(req.SQL)
	if err != nil {
		writeParseError(w, req.SQL, err)
		return
	}
	diags := h.analyzer.AnalyzeMultiple(stmts)
	if diags == nil {
		diags = []lint.Diagnostic{}
	}
	writeJSON(w, http.StatusOK, CheckResponse{Statements: len(stmts), Diagnostics: diags})
}

// Tokens returns the token stream, optionally with comments merged in.
func (h *Handlers) Tokens(w http.ResponseWriter, r *http.Request) {
	var req TokensRequest
	if !h.decode(w, r, &req) {
		return
	}
	lexer := parser.NewLexer(req.SQL)
	toks, err := lexer.All()
	if err != nil {
		writeParseError(w, req.SQL, err)
		return
	}

	out := make([]Token, 0, len(toks))
	for _, t := range toks {
		if t.Type == token.EOF {
			continue
		}
		out = append(out, Token{
			Type:    t.Type.String(),
			Literal: t.Literal,
			Line:    t.Pos.Line,
			Column:  t.Pos.Column,
			Offset:  t.Pos.Offset,
		})
	}
	if req.Comments {
		for _, c := range lexer.Comments {
			out = append(out, Token{
				Type:    "COMMENT",
				Literal: c.Text,
				Line:    c.Span.Start.Line,
				Column:  c.Span.Start.Column,
				Offset:  c.Span.Start.Offset,
			})
		}
		sort.SliceStable(out, func(i, j int) bool { return out[i].Offset < out[j].Offset })
	}
	writeJSON(w, http.StatusOK, out)
}

// Events streams file change events as server-sent events until the
// client goes away.
func (h *Handlers) Events(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, errors.New("streaming unsupported"))
		return
	}

	ch := h.notifier.Subscribe()
	defer h.notifier.Unsubscribe(ch)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				h.logger.Error("encode event", "error", err)
				continue
			}
			if _, err := fmt.Fprintf(w, "event: change\ndata: %s\n\n", data); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

// decode reads a JSON body into v, answering 400 on failure.
func (h *Handlers) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		h.logger.Debug("bad request body", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return false
	}
	return true
}

// resolve applies the request's modes on top of the server dialect.
func (h *Handlers) resolve(w http.ResponseWriter, m Modes) (*dialect.Dialect, bool) {
	d := h.dialect
	if m.Dialect != "" {
		var err error
		if d, err = dialect.Lookup(m.Dialect); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("dialect %q: %w", m.Dialect, err))
			return nil, false
		}
	}
	if m.AnsiKeywords || m.LegacyExponentAsDecimal {
		d = d.With(d.AnsiKeywords() || m.AnsiKeywords, d.LegacyExponentAsDecimal() || m.LegacyExponentAsDecimal)
	}
	return d, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, ErrorResponse{Error: err.Error()})
}

// writeParseError answers 422 with the position of the failure.
func writeParseError(w http.ResponseWriter, sql string, err error) {
	resp := ErrorResponse{Error: err.Error()}
	var pe *parser.ParseError
	if errors.As(err, &pe) {
		resp.ParseError = &ParseErrorInfo{
			Kind:     pe.Kind.String(),
			Line:     pe.Pos.Line,
			Column:   pe.Pos.Column,
			Found:    pe.Found,
			Expected: pe.Expected,
			Message:  pe.Message,
			Context:  parser.FormatErrorContext(sql, err),
		}
	}
	writeJSON(w, http.StatusUnprocessableEntity, resp)
}
