package protocol

import (
	"bufio"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"lsp-folding/src/internal/common"
	"lsp-folding/src/internal/errors"
)

// JSON-RPC protocol constants
const (
	JSONRPCVersion = "2.0"
)

// JSON-RPC error codes (RFC 7309)
const (
	ParseError     = errors.ParseError
	InvalidRequest = errors.InvalidRequest
	MethodNotFound = errors.MethodNotFound
	InvalidParams  = errors.InvalidParams
	InternalError  = errors.InternalError
)

// ReadBufferSize is the reader buffer used for framed streams
const ReadBufferSize = 1024 * 1024

// MaxContentLength bounds a single framed message
const MaxContentLength = 64 * 1024 * 1024

// JSONRPCMessage represents an outgoing JSON-RPC 2.0 message
type JSONRPCMessage struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id,omitempty"`
	Method  string      `json:"method,omitempty"`
	Params  interface{} `json:"params,omitempty"`
	Result  interface{} `json:"result,omitempty"`
	Error   *RPCError   `json:"error,omitempty"`
}

// MarshalJSON always emits "id" on responses and "result" on successful ones, even when null
func (m JSONRPCMessage) MarshalJSON() ([]byte, error) {
	type plain JSONRPCMessage
	if m.Method != "" {
		return json.Marshal(plain(m))
	}
	if m.Error != nil {
		return json.Marshal(struct {
			JSONRPC string      `json:"jsonrpc"`
			ID      interface{} `json:"id"`
			Error   *RPCError   `json:"error"`
		}{m.JSONRPC, m.ID, m.Error})
	}
	return json.Marshal(struct {
		JSONRPC string      `json:"jsonrpc"`
		ID      interface{} `json:"id"`
		Result  interface{} `json:"result"`
	}{m.JSONRPC, m.ID, m.Result})
}

// incomingMessage keeps params and result raw so handlers decode them into their own types
type incomingMessage struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// RPCError represents a JSON-RPC error
type RPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("jsonrpc error %d: %s", e.Code, e.Message)
}

// MessageHandler defines the interface for handling different types of JSON-RPC messages
type MessageHandler interface {
	HandleRequest(method string, id interface{}, params json.RawMessage) error
	HandleResponse(id interface{}, result json.RawMessage, err *RPCError) error
	HandleNotification(method string, params json.RawMessage) error
}

// ParseErrorHandler is implemented by handlers that answer unparsable messages
type ParseErrorHandler interface {
	HandleParseError(err *ParseFailure)
}

// LSPJSONRPCProtocol implements JSON-RPC protocol handling for LSP communication
type LSPJSONRPCProtocol struct {
	name string // Connection name for logging context
}

// NewLSPJSONRPCProtocol creates a new LSP JSON-RPC protocol handler
func NewLSPJSONRPCProtocol(name string) *LSPJSONRPCProtocol {
	return &LSPJSONRPCProtocol{
		name: name,
	}
}

// WriteMessage sends a JSON-RPC message with proper Content-Length header formatting
func (p *LSPJSONRPCProtocol) WriteMessage(writer io.Writer, msg JSONRPCMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return WriteFramed(writer, data)
}

// HandleMessages reads messages from stream until EOF or stopCh closes and routes each one
func (p *LSPJSONRPCProtocol) HandleMessages(stream MessageStream, messageHandler MessageHandler, stopCh <-chan struct{}) error {
	for {
		select {
		case <-stopCh:
			return nil
		default:
		}

		data, err := stream.ReadMessage()
		if err != nil {
			if stderrors.Is(err, io.EOF) || stderrors.Is(err, io.ErrClosedPipe) {
				return nil
			}
			return err
		}
		if len(data) == 0 {
			continue
		}

		if err := p.HandleMessage(data, messageHandler); err != nil {
			common.LSPLogger.Error("Error handling message on %s: %v", p.name, err)
			var parseErr *ParseFailure
			if reporter, ok := messageHandler.(ParseErrorHandler); ok && stderrors.As(err, &parseErr) {
				reporter.HandleParseError(parseErr)
			}
			// Continue processing other messages
		}
	}
}

// HandleMessage processes a single JSON-RPC message and routes it to the appropriate handler
func (p *LSPJSONRPCProtocol) HandleMessage(data []byte, messageHandler MessageHandler) error {
	var msg incomingMessage
	err := json.Unmarshal(data, &msg)
	if err != nil {
		common.LSPLogger.Error("Failed to unmarshal JSON from %s: %v", p.name, err)
		return &ParseFailure{Cause: err}
	}

	if msg.Method != "" {
		if msg.ID != nil {
			common.LSPLogger.Debug("Received request: method=%s, id=%v from %s", msg.Method, msg.ID, p.name)
			return messageHandler.HandleRequest(msg.Method, msg.ID, msg.Params)
		}
		common.LSPLogger.Debug("Received notification: method=%s from %s", msg.Method, p.name)
		return messageHandler.HandleNotification(msg.Method, msg.Params)
	} else if msg.ID != nil {
		if msg.Error != nil {
			common.LSPLogger.Warn("Response contains error: id=%v, error=%s", msg.ID, common.SanitizeErrorForLogging(msg.Error.Message))
		}
		return messageHandler.HandleResponse(msg.ID, msg.Result, msg.Error)
	}

	common.LSPLogger.Warn("Received malformed message (no ID and no method) from %s", p.name)
	return fmt.Errorf("malformed JSON-RPC message: no ID and no method")
}

// ParseFailure wraps a message body that is not valid JSON
type ParseFailure struct {
	Cause error
}

func (e *ParseFailure) Error() string {
	return fmt.Sprintf("parse error: %v", e.Cause)
}

func (e *ParseFailure) Unwrap() error {
	return e.Cause
}

// ReadFramed reads one Content-Length framed message body from r
func ReadFramed(r *bufio.Reader) ([]byte, error) {
	contentLength := -1
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			if err == io.EOF && line == "" && contentLength < 0 {
				return nil, io.EOF
			}
			if err == io.EOF {
				return nil, io.ErrUnexpectedEOF
			}
			return nil, err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			if contentLength < 0 {
				// Stray blank line between messages
				continue
			}
			break
		}

		if strings.HasPrefix(line, "Content-Length:") {
			lengthStr := strings.TrimSpace(strings.TrimPrefix(line, "Content-Length:"))
			length, err := strconv.Atoi(lengthStr)
			if err != nil || length < 0 {
				return nil, fmt.Errorf("invalid Content-Length: %q", lengthStr)
			}
			if length > MaxContentLength {
				return nil, fmt.Errorf("content length %d exceeds limit %d", length, MaxContentLength)
			}
			contentLength = length
		}
	}

	body := make([]byte, contentLength)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, err
	}
	return body, nil
}

// WriteFramed writes data with a Content-Length header
func WriteFramed(w io.Writer, data []byte) error {
	content := make([]byte, 0, len(data)+32)
	content = append(content, "Content-Length: "...)
	content = strconv.AppendInt(content, int64(len(data)), 10)
	content = append(content, "\r\n\r\n"...)
	content = append(content, data...)
	_, err := w.Write(content)
	return err
}

// CreateMessage creates a JSON-RPC message with the specified parameters
func CreateMessage(method string, id interface{}, params interface{}) JSONRPCMessage {
	return JSONRPCMessage{
		JSONRPC: JSONRPCVersion,
		ID:      id,
		Method:  method,
		Params:  params,
	}
}

// CreateNotification creates a JSON-RPC notification (no ID)
func CreateNotification(method string, params interface{}) JSONRPCMessage {
	return JSONRPCMessage{
		JSONRPC: JSONRPCVersion,
		Method:  method,
		Params:  params,
	}
}

// CreateResponse creates a JSON-RPC response message
func CreateResponse(id interface{}, result interface{}, err *RPCError) JSONRPCMessage {
	return JSONRPCMessage{
		JSONRPC: JSONRPCVersion,
		ID:      id,
		Result:  result,
		Error:   err,
	}
}

// Helper functions for creating error responses

// NewRPCError creates a new RPCError with the specified code and message
func NewRPCError(code int, message string, data interface{}) *RPCError {
	return &RPCError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// NewParseError creates a parse error (-32700)
func NewParseError(data interface{}) *RPCError {
	return NewRPCError(ParseError, "Parse error", data)
}

// NewInvalidRequestError creates an invalid request error (-32600)
func NewInvalidRequestError(data interface{}) *RPCError {
	return NewRPCError(InvalidRequest, "Invalid Request", data)
}

// NewMethodNotFoundError creates a method not found error (-32601)
func NewMethodNotFoundError(data interface{}) *RPCError {
	return NewRPCError(MethodNotFound, "Method not found", data)
}

// NewInvalidParamsError creates an invalid params error (-32602)
func NewInvalidParamsError(data interface{}) *RPCError {
	return NewRPCError(InvalidParams, "Invalid params", data)
}

// NewInternalError creates an internal error (-32603)
func NewInternalError(data interface{}) *RPCError {
	return NewRPCError(InternalError, "Internal error", data)
}

// NewServerNotInitializedError creates a server not initialized error (-32002)
func NewServerNotInitializedError() *RPCError {
	return NewRPCError(errors.ServerNotInitialized, "Server not initialized", nil)
}

// NewRequestCancelledError creates a request cancelled error (-32800)
func NewRequestCancelledError(data interface{}) *RPCError {
	return NewRPCError(errors.RequestCancelled, "Request cancelled", data)
}

// NewUnifiedRPCError maps an error returned by a handler to an RPCError
func NewUnifiedRPCError(err error) *RPCError {
	if err == nil {
		return nil
	}

	var rpcErr *RPCError
	if stderrors.As(err, &rpcErr) {
		return rpcErr
	}

	var valErr *errors.ValidationError
	if stderrors.As(err, &valErr) {
		return NewValidationRPCError(valErr.Parameter, valErr.Message)
	}

	var outlineErr *errors.OutlineError
	if stderrors.As(err, &outlineErr) {
		code := errors.OutlineFailure
		if outlineErr.Timeout > 0 {
			code = errors.OutlineTimeout
		}
		return NewRPCError(code, outlineErr.Error(), map[string]string{
			"language": outlineErr.Language,
			"command":  outlineErr.Command,
		})
	}

	var mismatchErr *errors.SnapshotMismatchError
	if stderrors.As(err, &mismatchErr) {
		return NewRPCError(errors.ContentModified, mismatchErr.Error(), map[string]interface{}{
			"uri":            mismatchErr.URI,
			"outlineVersion": mismatchErr.OutlineVersion,
			"textVersion":    mismatchErr.TextVersion,
		})
	}

	var methodErr *errors.MethodNotSupportedError
	if stderrors.As(err, &methodErr) {
		return NewRPCError(MethodNotFound, methodErr.Error(), map[string]string{
			"method": methodErr.Method,
		})
	}

	var parseErr *ParseFailure
	if stderrors.As(err, &parseErr) {
		return NewParseError(parseErr.Error())
	}

	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return NewRequestCancelledError(err.Error())
	}

	// Default to internal error for unknown types
	return NewInternalError(err.Error())
}

// CreateUnifiedErrorResponse creates a JSON-RPC error response from a handler error
func CreateUnifiedErrorResponse(id interface{}, err error) JSONRPCMessage {
	rpcError := NewUnifiedRPCError(err)
	return CreateResponse(id, nil, rpcError)
}

// NewValidationRPCError creates an RPCError for parameter validation failures
func NewValidationRPCError(parameter, message string) *RPCError {
	return NewRPCError(InvalidParams,
		fmt.Sprintf("Invalid parameter '%s': %s", parameter, message),
		map[string]string{"parameter": parameter})
}
