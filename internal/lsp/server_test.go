package lsp

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/nebulasql/pkg/dialect"
	"github.com/leapstack-labs/nebulasql/pkg/lint"
)

const testURI = "file:///work/query.sql"

// session scripts client messages and replays them through a server.
type session struct {
	t  *testing.T
	in bytes.Buffer
}

func newSession(t *testing.T) *session {
	return &session{t: t}
}

func (c *session) write(msg map[string]any) {
	msg["jsonrpc"] = "2.0"
	body, err := json.Marshal(msg)
	require.NoError(c.t, err)
	fmt.Fprintf(&c.in, "Content-Length: %d\r\n\r\n%s", len(body), body)
}

func (c *session) request(id int, method string, params any) *session {
	c.write(map[string]any{"id": id, "method": method, "params": params})
	return c
}

func (c *session) notify(method string, params any) *session {
	c.write(map[string]any{"method": method, "params": params})
	return c
}

func (c *session) initialize() *session {
	return c.request(1, "initialize", map[string]any{"rootUri": "file:///work"}).
		notify("initialized", map[string]any{})
}

func (c *session) open(text string) *session {
	return c.notify("textDocument/didOpen", map[string]any{
		"textDocument": map[string]any{"uri": testURI, "languageId": "sql", "version": 1, "text": text},
	})
}

// run feeds the script to a server and returns its replies.
func (c *session) run(cfg Config) ([]JSONRPCMessage, error) {
	var out bytes.Buffer
	cfg.Logger = slog.New(slog.DiscardHandler)
	err := NewServerWithConfig(&c.in, &out, cfg).Run()
	return readFrames(c.t, &out), err
}

func readFrames(t *testing.T, r io.Reader) []JSONRPCMessage {
	t.Helper()
	br := bufio.NewReader(r)
	var msgs []JSONRPCMessage
	for {
		header, err := br.ReadString('\n')
		if err == io.EOF {
			return msgs
		}
		require.NoError(t, err)
		n, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(header, "Content-Length:")))
		require.NoError(t, err)
		_, err = br.ReadString('\n')
		require.NoError(t, err)
		body := make([]byte, n)
		_, err = io.ReadFull(br, body)
		require.NoError(t, err)

		var msg JSONRPCMessage
		require.NoError(t, json.Unmarshal(body, &msg))
		msgs = append(msgs, msg)
	}
}

func response(t *testing.T, msgs []JSONRPCMessage, id int) JSONRPCMessage {
	t.Helper()
	for _, m := range msgs {
		if m.ID != nil && string(*m.ID) == strconv.Itoa(id) {
			return m
		}
	}
	t.Fatalf("no response for id %d", id)
	return JSONRPCMessage{}
}

func notifications(t *testing.T, msgs []JSONRPCMessage, method string) []json.RawMessage {
	t.Helper()
	var out []json.RawMessage
	for _, m := range msgs {
		if m.ID == nil && m.Method == method {
			out = append(out, m.Params)
		}
	}
	return out
}

func lastDiagnostics(t *testing.T, msgs []JSONRPCMessage) PublishDiagnosticsParams {
	t.Helper()
	all := notifications(t, msgs, "textDocument/publishDiagnostics")
	require.NotEmpty(t, all)
	var p PublishDiagnosticsParams
	require.NoError(t, json.Unmarshal(all[len(all)-1], &p))
	return p
}

func decodeResult[T any](t *testing.T, msg JSONRPCMessage) T {
	t.Helper()
	require.Nil(t, msg.Error)
	var v T
	require.NoError(t, json.Unmarshal(msg.Result, &v))
	return v
}

func TestLifecycle(t *testing.T) {
	msgs, err := newSession(t).
		initialize().
		request(2, "shutdown", nil).
		notify("exit", nil).
		run(Config{})
	require.NoError(t, err)

	init := decodeResult[InitializeResult](t, response(t, msgs, 1))
	caps := init.Capabilities
	require.NotNil(t, caps.TextDocumentSync)
	assert.Equal(t, TextDocumentSyncKindFull, caps.TextDocumentSync.Change)
	assert.True(t, caps.HoverProvider)
	assert.True(t, caps.DefinitionProvider)
	assert.True(t, caps.DocumentFormattingProvider)
	require.NotNil(t, caps.CodeActionProvider)
	assert.Equal(t, "nebulasql", init.ServerInfo.Name)

	shutdown := response(t, msgs, 2)
	assert.Nil(t, shutdown.Error)
	assert.Equal(t, "null", string(shutdown.Result))

	logs := notifications(t, msgs, "window/logMessage")
	require.Len(t, logs, 1)
	assert.Contains(t, string(logs[0]), "dialect nebula")
}

func TestExitWithoutShutdown(t *testing.T) {
	_, err := newSession(t).initialize().notify("exit", nil).run(Config{})
	assert.ErrorIs(t, err, ErrExitWithoutShutdown)
}

func TestRequestsOutsideLifecycle(t *testing.T) {
	msgs, err := newSession(t).
		request(1, "textDocument/hover", map[string]any{}).
		request(2, "initialize", map[string]any{}).
		request(3, "workspace/symbol", map[string]any{}).
		request(4, "shutdown", nil).
		request(5, "textDocument/hover", map[string]any{}).
		run(Config{})
	require.NoError(t, err)

	require.NotNil(t, response(t, msgs, 1).Error)
	assert.Equal(t, codeServerNotInitialized, response(t, msgs, 1).Error.Code)
	assert.Nil(t, response(t, msgs, 2).Error)
	require.NotNil(t, response(t, msgs, 3).Error)
	assert.Equal(t, codeMethodNotFound, response(t, msgs, 3).Error.Code)
	require.NotNil(t, response(t, msgs, 5).Error)
	assert.Equal(t, codeInvalidRequest, response(t, msgs, 5).Error.Code)
}

func TestDiagnostics_ParseError(t *testing.T) {
	msgs, err := newSession(t).initialize().open("SELECT a\nFROM s\nWHERE").run(Config{})
	require.NoError(t, err)

	p := lastDiagnostics(t, msgs)
	assert.Equal(t, testURI, p.URI)
	require.NotNil(t, p.Version)
	assert.Equal(t, 1, *p.Version)
	require.Len(t, p.Diagnostics, 1)

	d := p.Diagnostics[0]
	assert.Equal(t, DiagnosticSeverityError, d.Severity)
	assert.Equal(t, "syntax-error", d.Code)
	assert.Equal(t, sourceParser, d.Source)
	assert.Equal(t, Position{Line: 2, Character: 5}, d.Range.Start)
	assert.Equal(t, Position{Line: 2, Character: 6}, d.Range.End)
	assert.Contains(t, d.Message, "end of input")
}

func TestDiagnostics_TrailingInputUnderlinesToken(t *testing.T) {
	msgs, err := newSession(t).initialize().open("SELECT a FROM s x yy").run(Config{})
	require.NoError(t, err)

	p := lastDiagnostics(t, msgs)
	require.Len(t, p.Diagnostics, 1)
	d := p.Diagnostics[0]
	assert.Equal(t, "unexpected-trailing-input", d.Code)
	assert.Equal(t, Range{Start: Position{Character: 18}, End: Position{Character: 20}}, d.Range)
}

func TestDiagnostics_LintAndAnsiMode(t *testing.T) {
	sql := "SELECT COUNT(*) FROM s WINDOW SLIDING(SIZE 1 MIN, ADVANCE BY 2 MIN)"

	msgs, err := newSession(t).initialize().open(sql).run(Config{})
	require.NoError(t, err)
	p := lastDiagnostics(t, msgs)
	require.Len(t, p.Diagnostics, 1)
	assert.Equal(t, lint.RuleSlidingAdvance, p.Diagnostics[0].Code)
	assert.Equal(t, sourceLint, p.Diagnostics[0].Source)
	assert.Equal(t, DiagnosticSeverityWarning, p.Diagnostics[0].Severity)

	cfg := lint.NewConfig()
	cfg.Disable(lint.RuleSlidingAdvance)
	msgs, err = newSession(t).initialize().open(sql).run(Config{Lint: cfg})
	require.NoError(t, err)
	assert.Empty(t, lastDiagnostics(t, msgs).Diagnostics)

	msgs, err = newSession(t).initialize().open("SELECT start FROM s").run(Config{Dialect: dialect.ANSI})
	require.NoError(t, err)
	p = lastDiagnostics(t, msgs)
	require.Len(t, p.Diagnostics, 1)
	assert.Equal(t, "syntax-error", p.Diagnostics[0].Code)
}

func TestDidChangeAndClose(t *testing.T) {
	msgs, err := newSession(t).
		initialize().
		open("SELECT").
		notify("textDocument/didChange", map[string]any{
			"textDocument":   map[string]any{"uri": testURI, "version": 2},
			"contentChanges": []map[string]any{{"text": "SELECT a FROM s"}},
		}).
		notify("textDocument/didClose", map[string]any{"textDocument": map[string]any{"uri": testURI}}).
		run(Config{})
	require.NoError(t, err)

	all := notifications(t, msgs, "textDocument/publishDiagnostics")
	require.Len(t, all, 3)

	var opened, changed, closed PublishDiagnosticsParams
	require.NoError(t, json.Unmarshal(all[0], &opened))
	require.NoError(t, json.Unmarshal(all[1], &changed))
	require.NoError(t, json.Unmarshal(all[2], &closed))
	assert.Len(t, opened.Diagnostics, 1)
	assert.Empty(t, changed.Diagnostics)
	assert.Equal(t, 2, *changed.Version)
	assert.Empty(t, closed.Diagnostics)
	assert.Nil(t, closed.Version)
}

func TestCodeAction_QuoteHyphenatedName(t *testing.T) {
	sql := "SELECT a FROM sensor-data"

	// First pass learns the published diagnostic, second asks for its fix.
	msgs, err := newSession(t).initialize().open(sql).run(Config{})
	require.NoError(t, err)
	p := lastDiagnostics(t, msgs)
	require.Len(t, p.Diagnostics, 1)
	diag := p.Diagnostics[0]
	assert.Equal(t, lint.RuleHyphenatedIdentifier, diag.Code)
	assert.Equal(t, Position{Character: 14}, diag.Range.Start)

	msgs, err = newSession(t).initialize().open(sql).
		request(2, "textDocument/codeAction", CodeActionParams{
			TextDocument: TextDocumentIdentifier{URI: testURI},
			Range:        diag.Range,
			Context:      CodeActionContext{Diagnostics: []Diagnostic{diag}},
		}).
		request(3, "textDocument/codeAction", CodeActionParams{
			TextDocument: TextDocumentIdentifier{URI: testURI},
			Context:      CodeActionContext{Diagnostics: []Diagnostic{diag}, Only: []CodeActionKind{"refactor"}},
		}).
		run(Config{})
	require.NoError(t, err)

	actions := decodeResult[[]CodeAction](t, response(t, msgs, 2))
	require.Len(t, actions, 1)
	assert.Equal(t, "Quote identifier", actions[0].Title)
	assert.True(t, actions[0].IsPreferred)
	edits := actions[0].Edit.Changes[testURI]
	require.Len(t, edits, 1)
	assert.Equal(t, "`sensor-data`", edits[0].NewText)
	assert.Equal(t, Position{Character: 14}, edits[0].Range.Start)

	assert.Empty(t, decodeResult[[]CodeAction](t, response(t, msgs, 3)))
}

func TestCompletion(t *testing.T) {
	sql := "SELECT a FROM s WINDOW "
	msgs, err := newSession(t).initialize().open(sql).
		request(2, "textDocument/completion", map[string]any{
			"textDocument": map[string]any{"uri": testURI},
			"position":     map[string]any{"line": 0, "character": len(sql)},
		}).
		request(3, "textDocument/completion", map[string]any{
			"textDocument": map[string]any{"uri": "file:///missing.sql"},
			"position":     map[string]any{"line": 0, "character": 0},
		}).
		run(Config{})
	require.NoError(t, err)

	list := decodeResult[CompletionList](t, response(t, msgs, 2))
	var labels []string
	for _, item := range list.Items {
		labels = append(labels, item.Label)
	}
	assert.ElementsMatch(t, []string{"SLIDING", "THRESHOLD", "TUMBLING"}, labels)

	assert.Empty(t, decodeResult[CompletionList](t, response(t, msgs, 3)).Items)
}

func TestHoverAndDefinition(t *testing.T) {
	sql := "SELECT COUNT(*) AS n FROM s WINDOW TUMBLING(10) HAVING n > 1"
	at := func(char int) map[string]any {
		return map[string]any{
			"textDocument": map[string]any{"uri": testURI},
			"position":     map[string]any{"line": 0, "character": char},
		}
	}
	having := strings.Index(sql, "n > 1")

	msgs, err := newSession(t).initialize().open(sql).
		request(2, "textDocument/hover", at(strings.Index(sql, "WINDOW")+1)).
		request(3, "textDocument/hover", at(having)).
		request(4, "textDocument/definition", at(having)).
		request(5, "textDocument/hover", at(strings.Index(sql, "10"))).
		run(Config{})
	require.NoError(t, err)

	kw := decodeResult[*Hover](t, response(t, msgs, 2))
	require.NotNil(t, kw)
	assert.Equal(t, MarkupKindMarkdown, kw.Contents.Kind)
	assert.Contains(t, kw.Contents.Value, "**WINDOW** keyword")
	assert.Contains(t, kw.Contents.Value, "Non-reserved in dialect `nebula`")

	alias := decodeResult[*Hover](t, response(t, msgs, 3))
	require.NotNil(t, alias)
	assert.Equal(t, "**n**: alias of `COUNT(*)`", alias.Contents.Value)

	loc := decodeResult[*Location](t, response(t, msgs, 4))
	require.NotNil(t, loc)
	assert.Equal(t, testURI, loc.URI)
	assert.Equal(t, Position{Character: 19}, loc.Range.Start)

	assert.Equal(t, "null", string(response(t, msgs, 5).Result))
}

func TestFormatting(t *testing.T) {
	msgs, err := newSession(t).initialize().open("select a from s").
		request(2, "textDocument/formatting", map[string]any{
			"textDocument": map[string]any{"uri": testURI},
			"options":      map[string]any{"tabSize": 4, "insertSpaces": true},
		}).
		run(Config{})
	require.NoError(t, err)

	edits := decodeResult[[]TextEdit](t, response(t, msgs, 2))
	require.Len(t, edits, 1)
	assert.Equal(t, "SELECT\n  a\nFROM s\n", edits[0].NewText)
	assert.Equal(t, Range{End: Position{Character: 15}}, edits[0].Range)
}

func TestReadMessage(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		method  string
		wantErr bool
	}{
		{"plain", "Content-Length: 17\r\n\r\n{\"method\":\"ping\"}", "ping", false},
		{"lower case header", "content-length: 17\r\n\r\n{\"method\":\"ping\"}", "ping", false},
		{"extra header", "Content-Length: 17\r\nContent-Type: application/vscode-jsonrpc\r\n\r\n{\"method\":\"ping\"}", "ping", false},
		{"bad length", "Content-Length: x\r\n\r\n", "", true},
		{"bad json", "Content-Length: 3\r\n\r\n{x}", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewServerWithLogger(strings.NewReader(tt.input), io.Discard, slog.New(slog.DiscardHandler))
			msg, err := s.readMessage()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.method, msg.Method)
		})
	}
}
