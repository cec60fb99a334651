package websocket

import (
	"context"
	"time"

	ws "github.com/coder/websocket"

	"github.com/dukerupert/kidbank/internal/auth"
)

const (
	sendBufferSize = 16
	pingInterval   = 30 * time.Second
	writeTimeout   = 10 * time.Second
)

// Client is one notice stream opened by one actor. The stream is server to
// client only; incoming frames other than control frames close it.
type Client struct {
	hub   *Hub
	conn  *ws.Conn
	actor auth.Actor
	send  chan []byte
}

func NewClient(hub *Hub, conn *ws.Conn, actor auth.Actor) *Client {
	return &Client{
		hub:   hub,
		conn:  conn,
		actor: actor,
		send:  make(chan []byte, sendBufferSize),
	}
}

// Run streams queued notices until the peer goes away, ctx ends or the hub
// drops the client. It blocks for the lifetime of the connection.
func (c *Client) Run(ctx context.Context) {
	c.hub.Register(c)
	defer c.hub.Unregister(c)

	ctx = c.conn.CloseRead(ctx)

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-c.send:
			if !ok {
				c.conn.Close(ws.StatusGoingAway, "stream closed")
				return
			}
			if err := c.write(ctx, msg); err != nil {
				return
			}
		case <-ticker.C:
			pctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := c.conn.Ping(pctx)
			cancel()
			if err != nil {
				return
			}
		}
	}
}

func (c *Client) write(ctx context.Context, msg []byte) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return c.conn.Write(ctx, ws.MessageText, msg)
}
