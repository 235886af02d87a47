package protocol

import (
	"bufio"
	"io"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"lsp-folding/src/internal/common"
)

// MessageStream carries whole JSON-RPC message bodies in both directions
type MessageStream interface {
	ReadMessage() ([]byte, error)
	WriteMessage(msg []byte) error
	Close() error
}

var (
	_ MessageStream = (*FramedStream)(nil)
	_ MessageStream = (*WebsocketStream)(nil)
)

// FramedStream speaks Content-Length framing over a reader/writer pair such as stdio
type FramedStream struct {
	reader *bufio.Reader
	writer io.Writer
	closer io.Closer
	mu     sync.Mutex
}

// NewFramedStream creates a framed stream. closer may be nil.
func NewFramedStream(r io.Reader, w io.Writer, closer io.Closer) *FramedStream {
	return &FramedStream{
		reader: bufio.NewReaderSize(r, ReadBufferSize),
		writer: w,
		closer: closer,
	}
}

func (s *FramedStream) ReadMessage() ([]byte, error) {
	return ReadFramed(s.reader)
}

func (s *FramedStream) WriteMessage(msg []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return WriteFramed(s.writer, msg)
}

func (s *FramedStream) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

// WebsocketStream carries one message per websocket text frame
type WebsocketStream struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

// NewWebsocketStream wraps an upgraded connection
func NewWebsocketStream(conn *websocket.Conn) *WebsocketStream {
	return &WebsocketStream{conn: conn}
}

func (s *WebsocketStream) ReadMessage() ([]byte, error) {
	for {
		msgType, msg, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil, io.EOF
			}
			return nil, err
		}
		if msgType != websocket.TextMessage {
			common.GatewayLogger.Debug("Ignoring non-text websocket message, type is %s", strconv.Itoa(msgType))
			continue
		}
		return msg, nil
	}
}

func (s *WebsocketStream) WriteMessage(msg []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteMessage(websocket.TextMessage, msg)
}

func (s *WebsocketStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	return s.conn.Close()
}
