package server

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vango-dev/patchwire/pkg/protocol"
)

// Message operations on the WebSocket channel.
const (
	OpMount   = "mount"
	OpUpdate  = "update"
	OpDiscard = "discard"
)

// Message is a client request on the WebSocket channel. Seq is echoed in
// the reply so a client can match them.
type Message struct {
	Seq    uint64         `json:"seq"`
	Op     string         `json:"op"`
	Name   string         `json:"name,omitempty"`
	ID     string         `json:"id,omitempty"`
	Update *UpdateRequest `json:"update,omitempty"`
}

// Reply answers one Message. Body holds what the HTTP route for the same
// operation would send: the first render for mount, the encoded response
// for update, or an error response.
type Reply struct {
	Seq  uint64          `json:"seq"`
	Body json.RawMessage `json:"body"`
}

var okBody = json.RawMessage(`{"s":true}`)

// HandleWebSocket upgrades the request and serves the channel until the
// client goes away. Every instance mounted or updated over the connection
// is discarded when it closes.
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.metrics.RecordWebSocketError("upgrade")
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	c := &conn{
		server: s,
		ws:     ws,
		scope:  NewScope(s.renderer),
		done:   make(chan struct{}),
		logger: s.logger.With("remote", r.RemoteAddr),
	}
	s.track(c)
	s.metrics.ConnectionOpened()
	defer func() {
		s.untrack(c)
		s.metrics.ConnectionClosed()
	}()

	c.serve(r.Context())
}

type conn struct {
	server *Server
	ws     *websocket.Conn
	scope  *Scope
	logger *slog.Logger

	writeMu   sync.Mutex
	done      chan struct{}
	closeOnce sync.Once
}

func (c *conn) serve(ctx context.Context) {
	defer c.close()

	cfg := c.server.config
	c.ws.SetReadLimit(cfg.MaxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(cfg.ReadTimeout))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(cfg.ReadTimeout))
	})
	go c.pingLoop()

	for {
		_, msg, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				c.server.metrics.RecordWebSocketError("read")
				c.logger.Error("read error", "error", err)
			}
			return
		}
		_ = c.ws.SetReadDeadline(time.Now().Add(cfg.ReadTimeout))

		reply, fatal := c.handle(ctx, msg)
		if err := c.write(reply); err != nil {
			c.server.metrics.RecordWebSocketError("write")
			c.logger.Warn("write failed", "error", err)
			return
		}
		if fatal {
			c.closeWith(websocket.ClosePolicyViolation, "fatal error")
			return
		}
	}
}

// handle runs one message and reports whether the connection must close.
func (c *conn) handle(ctx context.Context, data []byte) (*Reply, bool) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var msg Message
	if err := dec.Decode(&msg); err != nil {
		return c.fail(0, protocol.NewError(protocol.ErrInvalidRequest, "malformed message"))
	}

	s := c.server
	switch msg.Op {
	case OpMount:
		init, em := s.Mount(ctx, msg.Name)
		if em != nil {
			return c.fail(msg.Seq, em)
		}
		if err := c.scope.Add(init.ID); err != nil {
			_ = s.Discard(ctx, init.ID)
			return c.fail(msg.Seq, protocol.NewFatalError(protocol.ErrServerError, err.Error()))
		}
		body, err := json.Marshal(init)
		if err != nil {
			return c.fail(msg.Seq, protocol.NewError(protocol.ErrServerError, "encode failed"))
		}
		return &Reply{Seq: msg.Seq, Body: body}, false

	case OpUpdate:
		if msg.Update == nil {
			return c.fail(msg.Seq, protocol.NewError(protocol.ErrInvalidRequest, "update is required"))
		}
		if err := msg.Update.validate(); err != nil {
			return c.fail(msg.Seq, protocol.NewError(protocol.ErrInvalidRequest, err.Error()))
		}
		// Updates never adopt an id: only instances mounted on this
		// connection are discarded when it closes.
		data, em := s.Update(ctx, msg.Update)
		if em != nil {
			return c.fail(msg.Seq, em)
		}
		return &Reply{Seq: msg.Seq, Body: data}, false

	case OpDiscard:
		c.scope.Remove(msg.ID)
		if err := s.Discard(ctx, msg.ID); err != nil {
			c.logger.Error("discard failed", "id", msg.ID, "error", err)
			return c.fail(msg.Seq, protocol.NewError(protocol.ErrServerError, "discard failed"))
		}
		return &Reply{Seq: msg.Seq, Body: okBody}, false

	default:
		return c.fail(msg.Seq, protocol.NewError(protocol.ErrInvalidRequest, "unknown op "+msg.Op))
	}
}

func (c *conn) fail(seq uint64, em *protocol.ErrorMessage) (*Reply, bool) {
	return &Reply{Seq: seq, Body: protocol.ToErrorResponse(em)}, em.IsFatal()
}

func (c *conn) write(reply *Reply) error {
	data, err := json.Marshal(reply)
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.ws.SetWriteDeadline(time.Now().Add(c.server.config.WriteTimeout))
	return c.ws.WriteMessage(websocket.TextMessage, data)
}

func (c *conn) pingLoop() {
	ticker := time.NewTicker(c.server.config.pingInterval())
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			deadline := time.Now().Add(c.server.config.WriteTimeout)
			if err := c.ws.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return
			}
		}
	}
}

// shutdown asks the client to go away. The read loop then ends and closes
// the connection.
func (c *conn) shutdown() {
	deadline := time.Now().Add(c.server.config.WriteTimeout)
	msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
	if err := c.ws.WriteControl(websocket.CloseMessage, msg, deadline); err != nil {
		_ = c.ws.Close()
	}
}

func (c *conn) closeWith(code int, text string) {
	deadline := time.Now().Add(c.server.config.WriteTimeout)
	_ = c.ws.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, text), deadline)
}

func (c *conn) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.ws.Close()
		if err := c.scope.Close(context.Background()); err != nil {
			c.logger.Error("discard on close failed", "error", err)
		}
	})
}
