package lsp

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/leapstack-labs/nebulasql/pkg/dialect"
	"github.com/leapstack-labs/nebulasql/pkg/format"
	"github.com/leapstack-labs/nebulasql/pkg/lint"
)

// JSON-RPC error codes.
const (
	codeParseError           = -32700
	codeInvalidRequest       = -32600
	codeMethodNotFound       = -32601
	codeInvalidParams        = -32602
	codeServerNotInitialized = -32002
)

// ErrExitWithoutShutdown is returned by Run when the client sends exit
// before shutdown.
var ErrExitWithoutShutdown = errors.New("lsp: exit received before shutdown")

// Config configures the language server.
type Config struct {
	Dialect     *dialect.Dialect
	Lint        *lint.Config
	KeywordCase format.KeywordCase
	Version     string
	Logger      *slog.Logger
}

// Server implements the Language Server Protocol for NebulaSQL.
type Server struct {
	documents *DocumentStore
	fixes     *fixCache

	dialect  *dialect.Dialect
	lint     *lint.Config
	analyzer *lint.Analyzer
	caser    format.KeywordCase
	version  string

	// Client capabilities
	snippets bool

	// I/O
	reader  *bufio.Reader
	writer  io.Writer
	writeMu sync.Mutex

	logger *slog.Logger

	stateMu     sync.RWMutex
	initialized bool
	shutdown    bool
}

// NewServer creates a new LSP server instance.
func NewServer(reader io.Reader, writer io.Writer) *Server {
	return NewServerWithLogger(reader, writer, nil)
}

// NewServerWithLogger creates a new LSP server instance with a custom logger.
func NewServerWithLogger(reader io.Reader, writer io.Writer, logger *slog.Logger) *Server {
	return NewServerWithConfig(reader, writer, Config{Logger: logger})
}

// NewServerWithConfig creates a server with an explicit dialect, lint
// configuration and keyword case.
func NewServerWithConfig(reader io.Reader, writer io.Writer, cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	d := cfg.Dialect
	if d == nil {
		d = dialect.Default()
	}
	lintCfg := cfg.Lint
	if lintCfg == nil {
		lintCfg = lint.NewConfig()
	}
	return &Server{
		documents: NewDocumentStore(),
		fixes:     newFixCache(),
		dialect:   d,
		lint:      lintCfg,
		analyzer:  lint.NewAnalyzer(lintCfg),
		caser:     cfg.KeywordCase,
		version:   cfg.Version,
		reader:    bufio.NewReader(reader),
		writer:    writer,
		logger:    logger,
	}
}

// Run processes JSON-RPC messages until the client sends exit or closes
// the stream.
func (s *Server) Run() error {
	s.logger.Info("NebulaSQL LSP server starting", "dialect", s.dialect.Name)

	for {
		msg, err := s.readMessage()
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				s.logger.Info("Client disconnected")
				return nil
			}
			s.logger.Error("Error reading message", "error", err)
			var synErr *json.SyntaxError
			if errors.As(err, &synErr) {
				s.sendResponse(nil, nil, &JSONRPCError{Code: codeParseError, Message: err.Error()})
			}
			continue
		}

		if msg.Method == "exit" {
			s.logger.Info("Server exit")
			if !s.isShutdown() {
				return ErrExitWithoutShutdown
			}
			return nil
		}

		if err := s.handleMessage(msg); err != nil {
			s.logger.Error("Error handling message", "method", msg.Method, "error", err)
		}
	}
}

// JSONRPCMessage represents a JSON-RPC 2.0 message.
type JSONRPCMessage struct {
	JSONRPC string           `json:"jsonrpc"`
	ID      *json.RawMessage `json:"id,omitempty"`
	Method  string           `json:"method,omitempty"`
	Params  json.RawMessage  `json:"params,omitempty"`
	Result  json.RawMessage  `json:"result,omitempty"`
	Error   *JSONRPCError    `json:"error,omitempty"`
}

// JSONRPCError represents a JSON-RPC error.
type JSONRPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// readMessage reads one Content-Length framed message.
func (s *Server) readMessage() (*JSONRPCMessage, error) {
	contentLength := -1
	for {
		line, err := s.reader.ReadString('\n')
		if err != nil {
			return nil, err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			if contentLength < 0 {
				continue // stray blank line between messages
			}
			break
		}

		name, value, ok := strings.Cut(line, ":")
		if ok && strings.EqualFold(strings.TrimSpace(name), "Content-Length") {
			contentLength, err = strconv.Atoi(strings.TrimSpace(value))
			if err != nil || contentLength < 0 {
				return nil, fmt.Errorf("invalid Content-Length %q", value)
			}
		}
	}

	body := make([]byte, contentLength)
	if _, err := io.ReadFull(s.reader, body); err != nil {
		return nil, fmt.Errorf("error reading body: %w", err)
	}

	var msg JSONRPCMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return nil, fmt.Errorf("error parsing message: %w", err)
	}
	return &msg, nil
}

// sendResponse sends a JSON-RPC response.
func (s *Server) sendResponse(id *json.RawMessage, result any, rpcErr *JSONRPCError) {
	msg := JSONRPCMessage{
		JSONRPC: "2.0",
		ID:      id,
	}

	if rpcErr != nil {
		msg.Error = rpcErr
	} else {
		resultBytes, err := json.Marshal(result)
		if err != nil {
			s.logger.Error("Error marshaling result", "error", err)
			msg.Error = &JSONRPCError{Code: codeInvalidRequest, Message: err.Error()}
		} else {
			msg.Result = resultBytes
		}
	}

	s.writeMessage(&msg)
}

// sendNotification sends a JSON-RPC notification (no ID).
func (s *Server) sendNotification(method string, params any) {
	msg := JSONRPCMessage{
		JSONRPC: "2.0",
		Method:  method,
	}

	if params != nil {
		paramsBytes, err := json.Marshal(params)
		if err != nil {
			s.logger.Error("Error marshaling params", "method", method, "error", err)
			return
		}
		msg.Params = paramsBytes
	}

	s.writeMessage(&msg)
}

// writeMessage writes a JSON-RPC message to the output stream.
func (s *Server) writeMessage(msg *JSONRPCMessage) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	body, err := json.Marshal(msg)
	if err != nil {
		s.logger.Error("Error marshaling message", "error", err)
		return
	}

	header := fmt.Sprintf("Content-Length: %d\r\n\r\n", len(body))
	_, _ = s.writer.Write([]byte(header))
	_, _ = s.writer.Write(body)
}

func (s *Server) isShutdown() bool {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.shutdown
}

func (s *Server) isInitialized() bool {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.initialized
}

// handleMessage dispatches a message to the appropriate handler.
func (s *Server) handleMessage(msg *JSONRPCMessage) error {
	s.logger.Debug("Received", "method", msg.Method)

	isRequest := msg.ID != nil
	switch {
	case msg.Method == "initialize":
		return s.handleInitialize(msg)
	case !s.isInitialized():
		if isRequest {
			s.sendResponse(msg.ID, nil, &JSONRPCError{Code: codeServerNotInitialized, Message: "server not initialized"})
		}
		return nil
	case s.isShutdown():
		if isRequest {
			s.sendResponse(msg.ID, nil, &JSONRPCError{Code: codeInvalidRequest, Message: "server is shutting down"})
		}
		return nil
	}

	switch msg.Method {
	case "initialized":
		return s.handleInitialized(msg)
	case "shutdown":
		return s.handleShutdown(msg)
	case "textDocument/didOpen":
		return s.handleDidOpen(msg)
	case "textDocument/didClose":
		return s.handleDidClose(msg)
	case "textDocument/didChange":
		return s.handleDidChange(msg)
	case "textDocument/didSave":
		return s.handleDidSave(msg)
	case "textDocument/completion":
		return s.handleCompletion(msg)
	case "textDocument/hover":
		return s.handleHover(msg)
	case "textDocument/definition":
		return s.handleDefinition(msg)
	case "textDocument/formatting":
		return s.handleFormatting(msg)
	case "textDocument/codeAction":
		return s.handleCodeAction(msg)
	default:
		if isRequest {
			s.sendResponse(msg.ID, nil, &JSONRPCError{
				Code:    codeMethodNotFound,
				Message: "Method not found: " + msg.Method,
			})
		}
		return nil
	}
}

// invalidParams answers a request whose params could not be decoded.
func (s *Server) invalidParams(msg *JSONRPCMessage, err error) error {
	s.sendResponse(msg.ID, nil, &JSONRPCError{Code: codeInvalidParams, Message: err.Error()})
	return err
}

// --- Lifecycle handlers ---

func (s *Server) handleInitialize(msg *JSONRPCMessage) error {
	var params InitializeParams
	if len(msg.Params) > 0 {
		if err := json.Unmarshal(msg.Params, &params); err != nil {
			return s.invalidParams(msg, err)
		}
	}
	s.snippets = params.Capabilities.TextDocument.Completion.CompletionItem.SnippetSupport

	result := InitializeResult{
		Capabilities: ServerCapabilities{
			TextDocumentSync: &TextDocumentSyncOptions{
				OpenClose: true,
				Change:    TextDocumentSyncKindFull,
				Save: &SaveOptions{
					IncludeText: true,
				},
			},
			CompletionProvider: &CompletionOptions{
				TriggerCharacters: []string{" ", "("},
			},
			HoverProvider:              true,
			DefinitionProvider:         true,
			DocumentFormattingProvider: true,
			CodeActionProvider: &CodeActionOptions{
				CodeActionKinds: []CodeActionKind{CodeActionKindQuickFix},
			},
		},
		ServerInfo: &ServerInfo{Name: "nebulasql", Version: s.version},
	}

	s.stateMu.Lock()
	s.initialized = true
	s.stateMu.Unlock()

	s.sendResponse(msg.ID, result, nil)
	return nil
}

func (s *Server) handleInitialized(_ *JSONRPCMessage) error {
	s.logger.Info("Server initialized")
	s.sendNotification("window/logMessage", &ShowMessageParams{
		Type: MessageTypeInfo,
		Message: fmt.Sprintf("NebulaSQL dialect %s (ansi_keywords=%t, legacy_exponent_as_decimal=%t)",
			s.dialect.Name, s.dialect.AnsiKeywords(), s.dialect.LegacyExponentAsDecimal()),
	})
	return nil
}

func (s *Server) handleShutdown(msg *JSONRPCMessage) error {
	s.stateMu.Lock()
	s.shutdown = true
	s.stateMu.Unlock()

	s.sendResponse(msg.ID, nil, nil)
	s.logger.Info("Server shutdown")
	return nil
}

// --- Document handlers ---

func (s *Server) handleDidOpen(msg *JSONRPCMessage) error {
	var params DidOpenTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return err
	}

	s.documents.Open(params.TextDocument.URI, params.TextDocument.Text, params.TextDocument.Version)
	s.logger.Debug("Opened", "uri", params.TextDocument.URI)

	s.publishDiagnostics(params.TextDocument.URI)
	return nil
}

func (s *Server) handleDidClose(msg *JSONRPCMessage) error {
	var params DidCloseTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return err
	}

	s.documents.Close(params.TextDocument.URI)
	s.fixes.clearURI(params.TextDocument.URI)
	s.logger.Debug("Closed", "uri", params.TextDocument.URI)

	s.sendNotification("textDocument/publishDiagnostics", &PublishDiagnosticsParams{
		URI:         params.TextDocument.URI,
		Diagnostics: []Diagnostic{},
	})
	return nil
}

func (s *Server) handleDidChange(msg *JSONRPCMessage) error {
	var params DidChangeTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return err
	}

	// Full sync: the last change holds the whole text.
	if len(params.ContentChanges) == 0 {
		return nil
	}
	last := params.ContentChanges[len(params.ContentChanges)-1]
	if !s.documents.Update(params.TextDocument.URI, last.Text, params.TextDocument.Version) {
		return fmt.Errorf("didChange for unopened document %s", params.TextDocument.URI)
	}

	s.publishDiagnostics(params.TextDocument.URI)
	return nil
}

func (s *Server) handleDidSave(msg *JSONRPCMessage) error {
	var params DidSaveTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return err
	}

	uri := params.TextDocument.URI
	s.logger.Debug("Saved", "path", URIToPath(uri))
	if params.Text == nil {
		return nil
	}
	doc := s.documents.Get(uri)
	if doc == nil || doc.Content == *params.Text {
		return nil
	}
	s.documents.Update(uri, *params.Text, doc.Version)
	s.publishDiagnostics(uri)
	return nil
}

// --- Feature handlers ---

func (s *Server) handleCompletion(msg *JSONRPCMessage) error {
	var params CompletionParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return s.invalidParams(msg, err)
	}

	items := s.getCompletions(params)
	if items == nil {
		items = []CompletionItem{}
	}
	s.sendResponse(msg.ID, &CompletionList{Items: items}, nil)
	return nil
}

func (s *Server) handleHover(msg *JSONRPCMessage) error {
	var params HoverParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return s.invalidParams(msg, err)
	}

	s.sendResponse(msg.ID, s.getHover(params), nil)
	return nil
}

func (s *Server) handleDefinition(msg *JSONRPCMessage) error {
	var params DefinitionParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return s.invalidParams(msg, err)
	}

	s.sendResponse(msg.ID, s.getDefinition(params), nil)
	return nil
}
