package ws

import (
	"context"
	"errors"
	"time"

	"github.com/gorilla/websocket"

	"github.com/autopeer-io/fleethub/internal/fleethub/hub"
	"github.com/autopeer-io/fleethub/pkg/log"
	"github.com/autopeer-io/fleethub/pkg/options"
	"github.com/autopeer-io/fleethub/pkg/protocol"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	sendBuffer = 16
)

var errExpectedAuth = errors.New("the first message must be an auth event")

// connection is one websocket client. Requests are handled in the order they
// are read, so responses leave in the same order.
type connection struct {
	conn    *websocket.Conn
	gateway Gateway
	opts    *options.WsOptions
	send    chan protocol.Envelope
	remote  string
}

func (c *connection) serve() {
	defer c.conn.Close()

	c.conn.SetReadLimit(c.opts.MaxMessageSize)

	sess, ok := c.handshake()
	if !ok {
		return
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		c.writePump()
	}()

	c.readPump(sess)

	if err := c.gateway.Disconnect(context.Background(), sess); err != nil {
		log.Warn("Disconnect not processed", "vehicleID", sess.VehicleID, "error", err.Error())
	}
	close(c.send)
	<-done
}

// handshake waits for the auth frame and answers it. On rejection the
// connect_error frame is written and the socket closed.
func (c *connection) handshake() (*hub.Session, bool) {
	_ = c.conn.SetReadDeadline(time.Now().Add(c.opts.HandshakeTimeout))

	_, frame, err := c.conn.ReadMessage()
	if err != nil {
		log.Debug("Connection closed before auth", "remote", c.remote, "error", err.Error())
		return nil, false
	}

	env, err := protocol.Decode(frame)
	if err == nil && env.Event != protocol.EventAuth {
		err = errExpectedAuth
	}
	var hs protocol.Handshake
	if err == nil {
		hs, err = protocol.ParseHandshake(env.Data)
	}
	if err != nil {
		c.reject(err.Error())
		return nil, false
	}

	sess, reply, err := c.gateway.Connect(context.Background(), hs.ID)
	if err != nil {
		_ = c.write(reply)
		c.close(websocket.ClosePolicyViolation, err.Error())
		return nil, false
	}
	if err := c.write(reply); err != nil {
		_ = c.gateway.Disconnect(context.Background(), sess)
		return nil, false
	}

	log.Info("Vehicle connection established", "vehicleID", sess.VehicleID, "session", sess.ID, "remote", c.remote)
	return sess, true
}

func (c *connection) reject(msg string) {
	if env, err := protocol.NewEnvelope(protocol.EventConnectError, msg); err == nil {
		_ = c.write(env)
	}
	c.close(websocket.ClosePolicyViolation, msg)
}

func (c *connection) readPump(sess *hub.Session) {
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, frame, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Error(err, "Websocket read error", "vehicleID", sess.VehicleID)
			}
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))

		var reply protocol.Envelope
		env, err := protocol.Decode(frame)
		switch {
		case err != nil:
			reply, _ = protocol.NewEnvelope(protocol.EventError, err.Error())
		case env.Event == protocol.EventRequest:
			reply = c.gateway.Request(context.Background(), sess, env.Data)
		default:
			reply, _ = protocol.NewEnvelope(protocol.EventError, "unsupported event "+env.Event)
		}
		c.send <- reply
	}
}

func (c *connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case env, ok := <-c.send:
			if !ok {
				c.close(websocket.CloseNormalClosure, "")
				return
			}
			if err := c.write(env); err != nil {
				// Unblock the read pump.
				_ = c.conn.Close()
				c.discard()
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				_ = c.conn.Close()
				c.discard()
				return
			}
		}
	}
}

// discard drains send until the read pump closes it.
func (c *connection) discard() {
	for range c.send {
	}
}

func (c *connection) write(env protocol.Envelope) error {
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(env)
}

func (c *connection) close(code int, text string) {
	_ = c.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, text), time.Now().Add(writeWait))
}
