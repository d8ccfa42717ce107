package client

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/fasthttp/websocket"

	"github.com/Bla-nqo/fundiconnect-builder/internal/realtime"
)

const feedWriteWait = 10 * time.Second

// FeedConn is one open change-feed socket.
type FeedConn interface {
	ReadFrame() (realtime.Frame, error)
	WriteFrame(f realtime.Frame) error
	Close() error
}

// Dialer opens feed sockets authenticated with token.
type Dialer interface {
	Dial(ctx context.Context, token string) (FeedConn, error)
}

// WSDialer dials the server's /ws/feed endpoint.
type WSDialer struct {
	URL    string
	Dialer *websocket.Dialer
}

// NewWSDialer derives the feed URL from the API base URL.
func NewWSDialer(baseURL string) *WSDialer {
	u := strings.TrimRight(baseURL, "/")
	switch {
	case strings.HasPrefix(u, "https://"):
		u = "wss://" + strings.TrimPrefix(u, "https://")
	case strings.HasPrefix(u, "http://"):
		u = "ws://" + strings.TrimPrefix(u, "http://")
	}
	return &WSDialer{
		URL:    u + "/ws/feed",
		Dialer: &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
	}
}

func (d *WSDialer) Dial(ctx context.Context, token string) (FeedConn, error) {
	if token == "" {
		return nil, ErrUnauthenticated
	}
	hdr := http.Header{}
	hdr.Set("Authorization", "Bearer "+token)

	conn, resp, err := d.Dialer.DialContext(ctx, d.URL, hdr)
	if err != nil {
		if resp != nil {
			switch resp.StatusCode {
			case http.StatusUnauthorized:
				return nil, ErrUnauthenticated
			case http.StatusForbidden:
				return nil, ErrForbidden
			}
		}
		return nil, err
	}
	return &wsFeedConn{conn: conn}, nil
}

type wsFeedConn struct {
	conn *websocket.Conn
	wmu  sync.Mutex
}

func (c *wsFeedConn) ReadFrame() (realtime.Frame, error) {
	var f realtime.Frame
	err := c.conn.ReadJSON(&f)
	return f, err
}

func (c *wsFeedConn) WriteFrame(f realtime.Frame) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(feedWriteWait))
	return c.conn.WriteJSON(f)
}

func (c *wsFeedConn) Close() error {
	c.wmu.Lock()
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	c.wmu.Unlock()
	return c.conn.Close()
}
