package services

import (
	"time"

	"github.com/gofiber/contrib/websocket"
)

// wsConn is the subset of *websocket.Conn the client pumps use.
type wsConn interface {
	WriteMessage(messageType int, data []byte) error
	ReadMessage() (messageType int, p []byte, err error)
	SetWriteDeadline(t time.Time) error
	SetReadDeadline(t time.Time) error
	SetReadLimit(limit int64)
	SetPongHandler(h func(appData string) error)
	Close() error
}

type WSClient struct {
	id   string
	conn wsConn
	send chan []byte
}

func NewWSClient(id string, conn wsConn) *WSClient {
	return &WSClient{
		id:   id,
		conn: conn,
		send: make(chan []byte, 32),
	}
}

func (c *WSClient) close() {
	if c.conn != nil {
		_ = c.conn.Close()
	}
}

func (c *WSClient) writeLoop() {
	ping := time.NewTicker(10 * time.Second)
	defer ping.Stop()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ping.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump hands every text frame to onMessage until the connection drops.
func (c *WSClient) readPump(onMessage func([]byte), onDone func()) {
	defer onDone()
	c.conn.SetReadLimit(1 << 20)
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})
	for {
		mt, msg, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		if mt == websocket.TextMessage && onMessage != nil {
			onMessage(msg)
		}
	}
}
