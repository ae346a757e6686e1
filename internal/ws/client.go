// Package ws is the downstream relay client: a WebSocket connection
// that carries encoded video/audio frames out and control acks plus
// inbound playback audio back in, adapted from the teacher's chat
// client's reconnect/ping-loop shape onto a binary frame protocol.
package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/duskcast/streampipe/internal/config"
)

// Handler receives frames and control acks read off the connection.
type Handler interface {
	HandleFrame(f Frame)
	HandleControlAck(msg *ControlAckMessage)
}

// Client is the WebSocket relay client.
type Client struct {
	config  *config.WebSocketConfig
	conn    *websocket.Conn
	handler Handler
	mutex   sync.RWMutex

	ctx    context.Context
	cancel context.CancelFunc

	enableDebug bool
}

// NewClient creates a new relay client.
func NewClient(parentCtx context.Context, cfg *config.WebSocketConfig, handler Handler, enableDebug bool) *Client {
	ctx, cancel := context.WithCancel(parentCtx)
	return &Client{
		config:      cfg,
		handler:     handler,
		ctx:         ctx,
		cancel:      cancel,
		enableDebug: enableDebug,
	}
}

// Start begins the connect/reconnect loop in the background.
func (c *Client) Start() error {
	go c.connectLoop()
	return nil
}

// Stop tears down the client.
func (c *Client) Stop() error {
	c.cancel()
	c.mutex.Lock()
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			log.Printf("ws: close connection: %v", err)
		}
	}
	c.mutex.Unlock()
	return nil
}

// SendFrame writes a binary video/audio frame.
func (c *Client) SendFrame(typ FrameType, seq uint32, endOfStream bool, payload []byte) error {
	return c.writeMessage(websocket.BinaryMessage, EncodeFrame(typ, seq, endOfStream, payload))
}

// SendControlAck writes a JSON control acknowledgement.
func (c *Client) SendControlAck(msg ControlAckMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode control ack: %w", err)
	}
	return c.writeMessage(websocket.TextMessage, data)
}

func (c *Client) writeMessage(messageType int, data []byte) error {
	c.mutex.RLock()
	conn := c.conn
	c.mutex.RUnlock()

	if conn == nil {
		return fmt.Errorf("websocket not connected")
	}
	if err := conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout)); err != nil {
		return fmt.Errorf("set write deadline: %w", err)
	}
	if err := conn.WriteMessage(messageType, data); err != nil {
		return fmt.Errorf("write message: %w", err)
	}
	return nil
}

// IsConnected reports whether the client currently has a live connection.
func (c *Client) IsConnected() bool {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.conn != nil
}

func (c *Client) connectLoop() {
	for {
		select {
		case <-c.ctx.Done():
			return
		default:
			if err := c.connect(); err != nil {
				log.Printf("ws: connect failed: %v (retrying in %.1fs)", err, c.config.ReconnectDelay.Seconds())
				select {
				case <-c.ctx.Done():
					return
				case <-time.After(c.config.ReconnectDelay):
					continue
				}
			}
			c.messageLoop()
		}
	}
}

func (c *Client) connect() error {
	dialer := websocket.DefaultDialer
	dialer.HandshakeTimeout = c.config.WriteTimeout

	conn, _, err := dialer.Dial(c.config.URL, nil)
	if err != nil {
		return err
	}

	conn.SetReadLimit(c.config.MaxMessageSize)
	if err := conn.SetReadDeadline(time.Now().Add(c.config.ReadTimeout)); err != nil {
		conn.Close()
		return fmt.Errorf("set read deadline: %w", err)
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))
	})

	c.mutex.Lock()
	c.conn = conn
	c.mutex.Unlock()

	if c.enableDebug {
		log.Println("ws: connected")
	}
	return nil
}

func (c *Client) messageLoop() {
	defer func() {
		c.mutex.Lock()
		if c.conn != nil {
			if err := c.conn.Close(); err != nil {
				log.Printf("ws: close on exit: %v", err)
			}
			c.conn = nil
		}
		c.mutex.Unlock()
		if c.enableDebug {
			log.Println("ws: disconnected")
		}
	}()

	go c.pingLoop()

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
			c.mutex.RLock()
			conn := c.conn
			c.mutex.RUnlock()
			if conn == nil {
				return
			}

			messageType, message, err := conn.ReadMessage()
			if err != nil {
				log.Printf("ws: read error: %v", err)
				return
			}
			c.handleMessage(messageType, message)
		}
	}
}

func (c *Client) pingLoop() {
	ticker := time.NewTicker(c.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			c.mutex.RLock()
			conn := c.conn
			c.mutex.RUnlock()
			if conn == nil {
				return
			}
			if err := conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout)); err != nil {
				return
			}
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Printf("ws: send ping: %v", err)
				return
			}
		}
	}
}

func (c *Client) handleMessage(messageType int, message []byte) {
	switch messageType {
	case websocket.BinaryMessage:
		frame, ok := DecodeFrame(message)
		if !ok {
			log.Printf("ws: dropped undersized binary frame (%d bytes)", len(message))
			return
		}
		c.handler.HandleFrame(frame)
	case websocket.TextMessage:
		var ack ControlAckMessage
		if err := json.Unmarshal(message, &ack); err != nil {
			log.Printf("ws: malformed control message: %v", err)
			return
		}
		c.handler.HandleControlAck(&ack)
	}
}
