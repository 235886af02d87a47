// Package errors provides the typed errors shared by the server and its collaborators.
package errors

// Standard JSON-RPC error codes as defined in RFC 7309
const (
	ParseError     = -32700 // Invalid JSON was received by the server
	InvalidRequest = -32600 // The JSON sent is not a valid Request object
	MethodNotFound = -32601 // The method does not exist / is not available
	InvalidParams  = -32602 // Invalid method parameter(s)
	InternalError  = -32603 // Internal JSON-RPC error
)

// LSP-specific error codes as defined in the LSP specification
const (
	ServerNotInitialized = -32002 // Server not initialized
	UnknownErrorCode     = -32001 // Unknown error code
	RequestCancelled     = -32800 // Request was cancelled
	ContentModified      = -32801 // Content was modified
	RequestFailed        = -32803 // Request failed with unrecoverable error
)

// Custom error codes (range: -33000 to -33099)
const (
	OutlineFailure      = -33001 // Outline provider failed or produced unreadable output
	OutlineTimeout      = -33011 // Outline provider exceeded its timeout
	InvalidURI          = -33020 // Invalid URI format
	InvalidTextDocument = -33022 // Invalid text document identifier
	UnsupportedMethod   = -33030 // Method not supported by server
)

// GetErrorCodeDescription returns a short description of a known error code
func GetErrorCodeDescription(code int) string {
	switch code {
	case ParseError:
		return "Parse error"
	case InvalidRequest:
		return "Invalid Request"
	case MethodNotFound:
		return "Method not found"
	case InvalidParams:
		return "Invalid params"
	case InternalError:
		return "Internal error"
	case ServerNotInitialized:
		return "Server not initialized"
	case RequestCancelled:
		return "Request cancelled"
	case ContentModified:
		return "Content modified"
	case RequestFailed:
		return "Request failed"
	case OutlineFailure:
		return "Outline provider failure"
	case OutlineTimeout:
		return "Outline provider timeout"
	case InvalidURI:
		return "Invalid URI"
	case InvalidTextDocument:
		return "Invalid text document"
	case UnsupportedMethod:
		return "Unsupported method"
	default:
		return "Unknown error"
	}
}
