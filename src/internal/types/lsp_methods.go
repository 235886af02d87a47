package types

import "go.lsp.dev/protocol"

// LSP protocol lifecycle methods
const (
	MethodInitialize    = protocol.MethodInitialize
	MethodInitialized   = protocol.MethodInitialized
	MethodShutdown      = protocol.MethodShutdown
	MethodExit          = protocol.MethodExit
	MethodCancelRequest = protocol.MethodCancelRequest
)

// LSP document synchronization methods
const (
	MethodTextDocumentDidOpen   = protocol.MethodTextDocumentDidOpen
	MethodTextDocumentDidChange = protocol.MethodTextDocumentDidChange
	MethodTextDocumentDidClose  = protocol.MethodTextDocumentDidClose
)

// LSP language feature methods
const (
	// MethodTextDocumentFoldingRange returns the foldable regions of a document
	MethodTextDocumentFoldingRange = protocol.MethodTextDocumentFoldingRange
)
