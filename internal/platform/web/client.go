package web

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vovakirdan/merge5/internal/games/merge5"
)

// readPump turns client commands into session calls. State changes reach
// the client through the manager subscription, so only errors and explicit
// state requests are answered directly.
func (c *client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Warn("websocket read failed", "session", c.sessionID, "error", err)
			}
			return
		}
		var cmd Command
		if err := json.Unmarshal(data, &cmd); err != nil {
			c.fail("malformed command")
			continue
		}
		c.handle(cmd)
	}
}

func (c *client) handle(cmd Command) {
	m := c.hub.manager
	switch cmd.Action {
	case "move":
		dir, ok := merge5.ParseDirection(cmd.Direction)
		if !ok {
			c.fail("unknown direction " + cmd.Direction)
			return
		}
		if _, err := m.Move(c.sessionID, dir); err != nil {
			c.fail(err.Error())
		}
	case "reset":
		if _, err := m.Reset(c.sessionID); err != nil {
			c.fail(err.Error())
		}
	case "state":
		snap, err := m.Get(c.sessionID)
		if err != nil {
			c.fail(err.Error())
			return
		}
		c.hub.reply(c, Message{Event: EventState, SessionID: c.sessionID, State: &snap})
	default:
		c.fail("unknown action " + cmd.Action)
	}
}

func (c *client) fail(msg string) {
	c.hub.reply(c, Message{Event: EventError, SessionID: c.sessionID, Error: msg})
}

// writePump writes one message per frame and keeps the connection alive.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
