package server

import (
	"context"
	"fmt"
	"mime"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	lspproto "go.lsp.dev/protocol"

	"lsp-folding/src/internal/common"
	"lsp-folding/src/internal/constants"
	"lsp-folding/src/internal/registry"
	"lsp-folding/src/internal/types"
	versionpkg "lsp-folding/src/internal/version"
	"lsp-folding/src/server/documents"
	"lsp-folding/src/server/folding"
	"lsp-folding/src/server/outline"
	"lsp-folding/src/server/protocol"
)

// RequestIDHeader carries the id assigned to every HTTP request
const RequestIDHeader = "X-Request-ID"

// DefaultRequestTimeout bounds a single /jsonrpc request
const DefaultRequestTimeout = constants.DefaultRequestTimeout

// GatewayConfig configures the HTTP gateway
type GatewayConfig struct {
	Addr           string
	Outlines       *outline.Registry
	Documents      documents.Options
	RequestTimeout time.Duration
}

// HTTPGateway serves folding ranges over HTTP JSON-RPC and LSP over websockets
type HTTPGateway struct {
	cfg      GatewayConfig
	docs     *documents.LSPDocumentManager
	builder  *folding.Builder
	server   *http.Server
	listener net.Listener
	upgrader websocket.Upgrader

	ctx      context.Context
	cancel   context.CancelFunc
	sessions sync.WaitGroup
	active   atomic.Int64
}

type jsonrpcRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// NewHTTPGateway creates the gateway. /jsonrpc resolves documents from disk because it
// has no didOpen channel; websocket sessions follow cfg.Documents.
func NewHTTPGateway(cfg GatewayConfig) *HTTPGateway {
	if cfg.Outlines == nil {
		cfg.Outlines = outline.NewRegistry()
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}

	ctx, cancel := context.WithCancel(context.Background())
	docs := documents.NewLSPDocumentManager(documents.Options{ReadFromDisk: true})
	gateway := &HTTPGateway{
		cfg:     cfg,
		docs:    docs,
		builder: folding.NewBuilder(docs, cfg.Outlines),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 64 * 1024,
			Subprotocols:    []string{"jsonrpc"},
		},
		ctx:    ctx,
		cancel: cancel,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/jsonrpc", gateway.handleJSONRPC)
	mux.HandleFunc("/health", gateway.handleHealth)
	mux.HandleFunc("/languages", gateway.handleLanguages)
	mux.HandleFunc("/lsp", gateway.handleWebsocket)

	gateway.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      withRequestID(mux),
		ReadTimeout:  cfg.RequestTimeout,
		WriteTimeout: cfg.RequestTimeout + constants.WriteTimeout,
		// Prevent slowloris: bound time to read headers and keep-alives
		ReadHeaderTimeout: constants.ReadHeaderTimeout,
		IdleTimeout:       constants.IdleTimeout,
	}

	return gateway
}

// Handler returns the gateway's HTTP handler
func (g *HTTPGateway) Handler() http.Handler {
	return g.server.Handler
}

// Start starts listening in the background
func (g *HTTPGateway) Start(ctx context.Context) error {
	ln, err := (&net.ListenConfig{}).Listen(ctx, "tcp", g.server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", g.server.Addr, err)
	}
	g.listener = ln
	common.GatewayLogger.Info("HTTP gateway listening on %s", ln.Addr())

	go func() {
		if err := g.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			common.GatewayLogger.Error("HTTP server error: %v", err)
		}
	}()

	return nil
}

// Stop shuts the HTTP server down and ends websocket sessions
func (g *HTTPGateway) Stop() error {
	ctx, cancel := common.CreateContext(constants.ShutdownTimeout)
	defer cancel()

	g.cancel()

	var lastErr error
	if g.server != nil {
		if err := g.server.Shutdown(ctx); err != nil {
			common.GatewayLogger.Error("HTTP server shutdown error: %v", err)
			lastErr = err
		}
	}

	done := make(chan struct{})
	go func() {
		g.sessions.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		common.GatewayLogger.Warn("Timed out waiting for %d websocket sessions", g.active.Load())
	}

	return lastErr
}

// Address returns the bound address of the HTTP server (host:port). If not yet started, returns configured Addr.
func (g *HTTPGateway) Address() string {
	if g.listener != nil {
		return g.listener.Addr().String()
	}
	return g.server.Addr
}

// Port returns the actual TCP port the server is listening on, or 0 if unavailable.
func (g *HTTPGateway) Port() int {
	if g.listener == nil {
		return 0
	}
	if addr, ok := g.listener.Addr().(*net.TCPAddr); ok {
		return addr.Port
	}
	return 0
}

// handleJSONRPC answers a single textDocument/foldingRange request
func (g *HTTPGateway) handleJSONRPC(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		g.writeResponse(w, protocol.CreateResponse(nil, nil, protocol.NewInvalidRequestError("Only POST method allowed")))
		return
	}

	// Accept application/json with optional parameters (e.g., charset)
	ct := r.Header.Get("Content-Type")
	if mt, _, err := mime.ParseMediaType(ct); err != nil || mt != "application/json" {
		g.writeResponse(w, protocol.CreateResponse(nil, nil, protocol.NewInvalidRequestError("Content-Type must be application/json")))
		return
	}

	var req jsonrpcRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		g.writeResponse(w, protocol.CreateResponse(nil, nil, protocol.NewParseError(err.Error())))
		return
	}

	if req.JSONRPC != protocol.JSONRPCVersion {
		g.writeResponse(w, protocol.CreateResponse(req.ID, nil, protocol.NewInvalidRequestError("jsonrpc must be 2.0")))
		return
	}

	if req.Method != types.MethodTextDocumentFoldingRange {
		g.writeResponse(w, protocol.CreateResponse(req.ID, nil, protocol.NewMethodNotFoundError(req.Method)))
		return
	}

	var params lspproto.FoldingRangeParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		g.writeResponse(w, protocol.CreateResponse(req.ID, nil, protocol.NewInvalidParamsError(err.Error())))
		return
	}
	if _, err := g.docs.ExtractURI(&params); err != nil {
		g.writeResponse(w, protocol.CreateUnifiedErrorResponse(req.ID, err))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), g.cfg.RequestTimeout)
	defer cancel()

	startTime := time.Now()
	ranges, err := g.builder.FoldingRanges(ctx, &params)
	if err != nil {
		common.GatewayLogger.Warn("[%s] foldingRange failed (%s) for %s: %s", w.Header().Get(RequestIDHeader),
			common.GetErrorCategory(err), params.TextDocument.URI, common.SanitizeErrorForLogging(err))
		g.writeResponse(w, protocol.CreateUnifiedErrorResponse(req.ID, err))
		return
	}

	w.Header().Set("X-Response-Time", time.Since(startTime).String())
	g.writeResponse(w, protocol.CreateResponse(req.ID, ranges, nil))
}

// handleWebsocket runs one LSP session per websocket connection
func (g *HTTPGateway) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	requestID := w.Header().Get(RequestIDHeader)
	conn, err := g.upgrader.Upgrade(w, r, http.Header{RequestIDHeader: []string{requestID}})
	if err != nil {
		common.GatewayLogger.Warn("[%s] websocket upgrade failed: %v", requestID, err)
		return
	}

	g.sessions.Add(1)
	g.active.Add(1)
	defer func() {
		g.active.Add(-1)
		g.sessions.Done()
	}()

	stream := protocol.NewWebsocketStream(conn)
	defer stream.Close()

	session := NewLSPServer(LSPServerConfig{
		Name:      "ws-" + requestID,
		Outlines:  g.cfg.Outlines,
		Documents: g.cfg.Documents,
	})
	if err := session.Serve(g.ctx, stream); err != nil {
		common.GatewayLogger.Warn("[%s] websocket session ended: %v", requestID, err)
	}
}

// handleHealth reports liveness and outline provider coverage
func (g *HTTPGateway) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := map[string]interface{}{
		"status":            "healthy",
		"version":           versionpkg.GetVersion(),
		"outline_languages": g.cfg.Outlines.Languages(),
		"lsp_sessions":      g.active.Load(),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(health); err != nil {
		common.GatewayLogger.Error("Failed to encode health response: %v", err)
	}
}

// handleLanguages returns supported language names and their file extensions
func (g *HTTPGateway) handleLanguages(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	result := map[string]interface{}{
		"languages":  registry.GetLanguageNames(),
		"outlines":   g.cfg.Outlines.Languages(),
		"extensions": registry.GetSupportedExtensions(),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(result); err != nil {
		common.GatewayLogger.Error("Failed to encode languages response: %v", err)
	}
}

// writeResponse writes a JSON-RPC response (success or error) to the HTTP response writer
func (g *HTTPGateway) writeResponse(w http.ResponseWriter, response protocol.JSONRPCMessage) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK) // JSON-RPC errors still return 200
	if err := json.NewEncoder(w).Encode(response); err != nil {
		common.GatewayLogger.Error("Failed to encode JSON-RPC response: %v", err)
	}
}

// withRequestID tags every request with an id, keeping one supplied by the client
func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)

		start := time.Now()
		next.ServeHTTP(w, r)
		common.GatewayLogger.Debug("[%s] %s %s (%v)", id, r.Method, r.URL.Path, time.Since(start))
	})
}
