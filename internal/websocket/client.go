package websocket

import (
	"context"
	"encoding/json"
	"time"

	ws "github.com/coder/websocket"
)

const (
	sendBufferSize = 16
	pingInterval   = 30 * time.Second
	writeTimeout   = 10 * time.Second

	// The feed is one-way; members only send control frames.
	readLimit = 512
)

// Client is one family member's live feed.
type Client struct {
	hub      *Hub
	conn     *ws.Conn
	familyID string
	userID   string
	send     chan []byte
}

// NewClient creates a feed for userID in familyID.
func NewClient(hub *Hub, conn *ws.Conn, familyID, userID string) *Client {
	return &Client{
		hub:      hub,
		conn:     conn,
		familyID: familyID,
		userID:   userID,
		send:     make(chan []byte, sendBufferSize),
	}
}

// Run queues the feed_connected greeting, joins the family feed and pumps
// until the member disconnects or the hub drops them.
func (c *Client) Run(ctx context.Context) {
	c.conn.SetReadLimit(readLimit)
	if hello, err := json.Marshal(NewMessage("feed", "connected", c.familyID, map[string]any{"user_id": c.userID})); err == nil {
		c.send <- hello
	}

	c.hub.Register(c)
	defer c.hub.Unregister(c)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go c.writePump(ctx)
	c.readPump(ctx)
}

func (c *Client) readPump(ctx context.Context) {
	for {
		if _, _, err := c.conn.Read(ctx); err != nil {
			return
		}
	}
}

// writePump delivers family events and pings. A closed send channel means
// the hub dropped the member, so the connection is closed with a policy
// status the app can tell apart from a network drop.
func (c *Client) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				c.conn.Close(ws.StatusPolicyViolation, "membership ended")
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
		case <-ctx.Done():
			return
		}
	}
}

func (c *Client) write(ctx context.Context, msg []byte) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return c.conn.Write(ctx, ws.MessageText, msg)
}
