package server

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/goccy/go-json"
	cmap "github.com/orcaman/concurrent-map/v2"
	lspproto "go.lsp.dev/protocol"

	"lsp-folding/src/internal/common"
	"lsp-folding/src/internal/types"
	versionpkg "lsp-folding/src/internal/version"
	"lsp-folding/src/server/documents"
	"lsp-folding/src/server/folding"
	"lsp-folding/src/server/outline"
	"lsp-folding/src/server/protocol"
)

// ErrExitWithoutShutdown is returned by Serve when the client sent exit before shutdown
var ErrExitWithoutShutdown = stderrors.New("exit received before shutdown")

// LSPServerConfig holds what a language server session needs
type LSPServerConfig struct {
	Name      string
	Outlines  *outline.Registry
	Documents documents.Options
}

// LSPServer is one language server session over a message stream. It answers
// textDocument/foldingRange and keeps the client's open documents.
type LSPServer struct {
	name      string
	documents *documents.LSPDocumentManager
	outlines  *outline.Registry
	builder   *folding.Builder
	rpc       *protocol.LSPJSONRPCProtocol

	stream   protocol.MessageStream
	inflight cmap.ConcurrentMap[string, *inflightRequest]
	wg       sync.WaitGroup
	mu       sync.Mutex
	closed   bool

	initialized  atomic.Bool
	shuttingDown atomic.Bool

	ctx      context.Context
	cancel   context.CancelFunc
	exitCh   chan struct{}
	exitOnce sync.Once
}

// inflightRequest is the cancel handle of one running request. Entries are compared by
// pointer so a reused id never removes another request's handle.
type inflightRequest struct {
	cancel context.CancelFunc
}

// NewLSPServer creates a session; call Serve to run it
func NewLSPServer(cfg LSPServerConfig) *LSPServer {
	if cfg.Name == "" {
		cfg.Name = "lsp"
	}
	if cfg.Outlines == nil {
		cfg.Outlines = outline.NewRegistry()
	}
	docs := documents.NewLSPDocumentManager(cfg.Documents)
	return &LSPServer{
		name:      cfg.Name,
		documents: docs,
		outlines:  cfg.Outlines,
		builder:   folding.NewBuilder(docs, cfg.Outlines),
		rpc:       protocol.NewLSPJSONRPCProtocol(cfg.Name),
		inflight:  cmap.New[*inflightRequest](),
		exitCh:    make(chan struct{}),
	}
}

// Documents exposes the session's document store
func (s *LSPServer) Documents() *documents.LSPDocumentManager {
	return s.documents
}

// Serve processes messages from stream until the client exits, the stream ends or ctx is
// cancelled. In-flight requests are cancelled and awaited before it returns. A read that
// cannot be interrupted (stdin) is abandoned when ctx is cancelled.
func (s *LSPServer) Serve(ctx context.Context, stream protocol.MessageStream) error {
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.stream = stream
	defer func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()
		s.cancel()
		s.wg.Wait()
	}()

	common.LSPLogger.Info("Language server session %s started", s.name)
	readErr := make(chan error, 1)
	go func() {
		readErr <- s.rpc.HandleMessages(stream, s, s.exitCh)
	}()

	select {
	case err := <-readErr:
		if err != nil && ctx.Err() == nil {
			return fmt.Errorf("session %s: %w", s.name, err)
		}
	case <-s.ctx.Done():
		_ = stream.Close()
		common.LSPLogger.Info("Language server session %s stopped: %v", s.name, ctx.Err())
		return nil
	}

	select {
	case <-s.exitCh:
		if !s.shuttingDown.Load() {
			return ErrExitWithoutShutdown
		}
	default:
	}
	common.LSPLogger.Info("Language server session %s ended", s.name)
	return nil
}

// HandleRequest answers client requests; foldingRange runs in its own goroutine
func (s *LSPServer) HandleRequest(method string, id interface{}, params json.RawMessage) error {
	if s.shuttingDown.Load() {
		return s.reply(id, nil, protocol.NewInvalidRequestError("server is shutting down"))
	}
	if method != types.MethodInitialize && !s.initialized.Load() {
		return s.reply(id, nil, protocol.NewServerNotInitializedError())
	}

	switch method {
	case types.MethodInitialize:
		return s.handleInitialize(id)
	case types.MethodShutdown:
		s.shuttingDown.Store(true)
		s.cancelInflight()
		return s.reply(id, nil, nil)
	case types.MethodTextDocumentFoldingRange:
		var p lspproto.FoldingRangeParams
		if err := json.Unmarshal(params, &p); err != nil {
			return s.reply(id, nil, protocol.NewInvalidParamsError(err.Error()))
		}
		if _, err := s.documents.ExtractURI(&p); err != nil {
			return s.reply(id, nil, protocol.NewUnifiedRPCError(err))
		}
		s.startFoldingRange(id, &p)
		return nil
	default:
		return s.reply(id, nil, protocol.NewMethodNotFoundError(method))
	}
}

// HandleNotification updates session state; unknown notifications are ignored
func (s *LSPServer) HandleNotification(method string, params json.RawMessage) error {
	if method == types.MethodExit {
		s.exitOnce.Do(func() { close(s.exitCh) })
		return nil
	}
	if !s.initialized.Load() {
		common.LSPLogger.Debug("Dropping %s before initialize", method)
		return nil
	}

	switch method {
	case types.MethodInitialized:
		common.LSPLogger.Debug("Client initialized (%s)", s.name)
	case types.MethodCancelRequest:
		var p lspproto.CancelParams
		if err := json.Unmarshal(params, &p); err != nil {
			return fmt.Errorf("decode %s: %w", method, err)
		}
		if req, ok := s.inflight.Get(requestKey(p.ID)); ok {
			common.LSPLogger.Debug("Cancelling request %v", p.ID)
			req.cancel()
		}
	case types.MethodTextDocumentDidOpen:
		var p lspproto.DidOpenTextDocumentParams
		if err := json.Unmarshal(params, &p); err != nil {
			return fmt.Errorf("decode %s: %w", method, err)
		}
		s.documents.Open(p.TextDocument)
	case types.MethodTextDocumentDidChange:
		var p lspproto.DidChangeTextDocumentParams
		if err := json.Unmarshal(params, &p); err != nil {
			return fmt.Errorf("decode %s: %w", method, err)
		}
		if _, err := s.documents.Change(&p); err != nil {
			return err
		}
	case types.MethodTextDocumentDidClose:
		var p lspproto.DidCloseTextDocumentParams
		if err := json.Unmarshal(params, &p); err != nil {
			return fmt.Errorf("decode %s: %w", method, err)
		}
		if !s.documents.Close(string(p.TextDocument.URI)) {
			common.LSPLogger.Debug("didClose for unknown document %s", p.TextDocument.URI)
		}
	default:
		common.LSPLogger.Debug("Ignoring notification %s", method)
	}
	return nil
}

// HandleResponse is a no-op; the server never sends requests to the client
func (s *LSPServer) HandleResponse(id interface{}, result json.RawMessage, err *protocol.RPCError) error {
	common.LSPLogger.Debug("Ignoring response for id=%v", id)
	return nil
}

// HandleParseError answers a message that was not valid JSON
func (s *LSPServer) HandleParseError(err *protocol.ParseFailure) {
	_ = s.reply(nil, nil, protocol.NewParseError(err.Error()))
}

func (s *LSPServer) handleInitialize(id interface{}) error {
	if !s.initialized.CompareAndSwap(false, true) {
		return s.reply(id, nil, protocol.NewInvalidRequestError("initialize may only be sent once"))
	}

	result := lspproto.InitializeResult{
		Capabilities: lspproto.ServerCapabilities{
			TextDocumentSync: lspproto.TextDocumentSyncOptions{
				OpenClose: true,
				Change:    lspproto.TextDocumentSyncKindFull,
			},
			FoldingRangeProvider: true,
		},
		ServerInfo: &lspproto.ServerInfo{
			Name:    versionpkg.ServerName,
			Version: versionpkg.GetVersion(),
		},
	}
	common.LSPLogger.Info("Initialized session %s, outline languages: %v", s.name, s.outlines.Languages())
	return s.reply(id, result, nil)
}

func (s *LSPServer) startFoldingRange(id interface{}, params *lspproto.FoldingRangeParams) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		_ = s.reply(id, nil, protocol.NewRequestCancelledError(nil))
		return
	}
	s.wg.Add(1)
	s.mu.Unlock()

	key := requestKey(id)
	ctx, cancel := context.WithCancel(s.ctx)
	req := &inflightRequest{cancel: cancel}
	s.inflight.Set(key, req)

	go func() {
		defer s.wg.Done()
		defer func() {
			s.inflight.RemoveCb(key, func(_ string, v *inflightRequest, exists bool) bool {
				return exists && v == req
			})
			cancel()
		}()

		ranges, err := s.builder.FoldingRanges(ctx, params)
		if err != nil {
			if ctx.Err() != nil {
				_ = s.reply(id, nil, protocol.NewRequestCancelledError(nil))
				return
			}
			common.LSPLogger.Warn("foldingRange failed (%s) for %s: %s",
				common.GetErrorCategory(err), params.TextDocument.URI, common.SanitizeErrorForLogging(err))
			_ = s.reply(id, nil, protocol.NewUnifiedRPCError(err))
			return
		}
		_ = s.reply(id, ranges, nil)
	}()
}

func (s *LSPServer) cancelInflight() {
	for item := range s.inflight.IterBuffered() {
		item.Val.cancel()
	}
}

func (s *LSPServer) reply(id interface{}, result interface{}, rpcErr *protocol.RPCError) error {
	data, err := json.Marshal(protocol.CreateResponse(id, result, rpcErr))
	if err != nil {
		return fmt.Errorf("encode response %v: %w", id, err)
	}
	if err := s.stream.WriteMessage(data); err != nil {
		common.LSPLogger.Error("Failed to write response %v: %v", id, err)
		return err
	}
	return nil
}

// requestKey normalizes JSON-RPC ids; numbers decode as float64
func requestKey(id interface{}) string {
	return fmt.Sprint(id)
}
