// internal/realtime/websocket.go
package realtime

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
)

const writeWait = 10 * time.Second

// WebSocketConn wraps websocket.Conn so the hub never touches the socket directly.
type WebSocketConn struct {
	Conn *websocket.Conn
	wmu  sync.Mutex
}

func NewWebSocketConn(c *websocket.Conn) *WebSocketConn {
	return &WebSocketConn{Conn: c}
}

// ReadFrame blocks until the next client frame arrives.
func (w *WebSocketConn) ReadFrame() (Frame, error) {
	var f Frame
	_, data, err := w.Conn.ReadMessage()
	if err != nil {
		return f, err
	}
	if err := json.Unmarshal(data, &f); err != nil {
		return Frame{}, &BadFrameError{Err: err}
	}
	return f, nil
}

func (w *WebSocketConn) WriteRaw(payload []byte) error {
	w.wmu.Lock()
	defer w.wmu.Unlock()
	_ = w.Conn.SetWriteDeadline(time.Now().Add(writeWait))
	return w.Conn.WriteMessage(websocket.TextMessage, payload)
}

func (w *WebSocketConn) Close() error {
	w.wmu.Lock()
	defer w.wmu.Unlock()
	_ = w.Conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	return w.Conn.Close()
}

// BadFrameError reports a frame that was not valid JSON. The socket stays usable.
type BadFrameError struct {
	Err error
}

func (e *BadFrameError) Error() string { return "malformed frame: " + e.Err.Error() }
func (e *BadFrameError) Unwrap() error { return e.Err }
