// SignageFleet Kiosk Coordination Server
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package transport implements the Session Transport (spec §4.3): one
// duplex, message-framed websocket connection per session, with a bounded
// outbound queue as the sole backpressure mechanism. Grounded on the
// teacher's internal/websocket/client.go readPump/writePump pattern,
// generalized to the spec's heartbeat policy and frame format.
package transport

import (
	"sync"
	"time"

	goccyjson "github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/signagefleet/kioskd/internal/events"
	"github.com/signagefleet/kioskd/internal/logging"
)

func marshalPayload(payload any) (goccyjson.RawMessage, error) {
	if payload == nil {
		return nil, nil
	}
	return goccyjson.Marshal(payload)
}

const (
	// writeWait is the time allowed to write a frame.
	writeWait = 10 * time.Second

	// heartbeatInterval is the ping cadence (spec §4.3: default 30s).
	heartbeatInterval = 30 * time.Second

	// pongWait is the read deadline renewed on every pong. It spans
	// missedPongLimit heartbeat intervals plus slack, so a single missed pong
	// doesn't close the session and a second consecutive one does.
	pongWait = missedPongLimit*heartbeatInterval + 5*time.Second

	// missedPongLimit is the number of consecutive missed pongs tolerated
	// before the session is closed.
	missedPongLimit = 2

	// outboundQueueCapacity is the bounded outbound queue size (spec §4.3).
	outboundQueueCapacity = 256

	maxMessageSize = 512 * 1024
)

// Handler processes one decoded inbound frame, attributed to the session it
// arrived on (I2: identity comes from the session, never the payload).
type Handler interface {
	HandleInbound(sess *Client, event string, payload []byte)
}

// CloseNotifier is told exactly once when a session's connection goes away,
// regardless of which side (read failure, write failure, heartbeat
// timeout, explicit Close) triggered it.
type CloseNotifier interface {
	OnClose(sess *Client)
}

// Client is one live duplex session. It implements registry.Sender.
type Client struct {
	conn    *websocket.Conn
	send    chan events.Frame
	handler Handler
	onClose CloseNotifier

	closeOnce sync.Once
	closed    chan struct{}

	missedPongs int
}

// NewClient wraps an established websocket connection as a session.
// Call Start to begin its reader/writer pumps.
func NewClient(conn *websocket.Conn, handler Handler, onClose CloseNotifier) *Client {
	return &Client{
		conn:    conn,
		send:    make(chan events.Frame, outboundQueueCapacity),
		handler: handler,
		onClose: onClose,
		closed:  make(chan struct{}),
	}
}

// Start launches the reader and writer pumps. Returns once both have exited.
// Intended to be run from its own goroutine by the caller (or supervised,
// see internal/supervisor).
func (c *Client) Start() {
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		c.writePump()
	}()
	go func() {
		defer wg.Done()
		c.readPump()
	}()
	wg.Wait()
}

// Send enqueues a frame for delivery. Non-blocking: if the outbound queue is
// full the session is closed and an error is returned, never blocking the
// caller (spec §4.3's backpressure policy).
func (c *Client) Send(event string, payload any) error {
	raw, err := marshalPayload(payload)
	if err != nil {
		return err
	}
	frame := events.Frame{Event: event, Payload: raw}
	select {
	case c.send <- frame:
		return nil
	case <-c.closed:
		return errClosed
	default:
		logging.Logger().Warn().Str("event", event).Msg("outbound queue full, closing session")
		c.Close()
		return errQueueFull
	}
}

// Close tears the session down idempotently and notifies the close
// listener exactly once.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.closed)
		_ = c.conn.Close()
		if c.onClose != nil {
			c.onClose.OnClose(c)
		}
	})
}

func (c *Client) readPump() {
	defer c.Close()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.missedPongs = 0
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		frame, err := events.Decode(data)
		if err != nil {
			logging.Logger().Debug().Err(err).Msg("dropping unparsable frame")
			continue
		}
		if c.handler != nil {
			c.handler.HandleInbound(c, frame.Event, frame.Payload)
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(heartbeatInterval)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			data, err := goccyjson.Marshal(frame)
			if err != nil {
				logging.Logger().Error().Err(err).Msg("failed to marshal outbound frame")
				continue
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			c.missedPongs++
			if c.missedPongs > missedPongLimit {
				return
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.closed:
			return
		}
	}
}
