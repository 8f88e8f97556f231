package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/mossy-p/webrtc-chat/internal/chat"
	"github.com/mossy-p/webrtc-chat/internal/middleware"
	"github.com/mossy-p/webrtc-chat/internal/models"
	"github.com/mossy-p/webrtc-chat/internal/relay"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
	sendBuffer     = 256
)

var errSendBufferFull = errors.New("send buffer full")

// Client is one relay websocket connection
type Client struct {
	id   string
	name string
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
}

func (c *Client) ID() string   { return c.id }
func (c *Client) Name() string { return c.name }

// Send queues data for the write pump without blocking
func (c *Client) Send(data []byte) error {
	select {
	case <-c.done:
		return websocket.ErrCloseSent
	default:
	}
	select {
	case c.send <- data:
		return nil
	default:
		return errSendBufferFull
	}
}

// HandleRelay upgrades the request and serves the pub/sub relay protocol.
// The display name comes from a valid ?token= JWT, else from ?name=
func HandleRelay(handler *relay.Handler, jwtSecret string, allowedOrigins []string) gin.HandlerFunc {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || middleware.OriginAllowed(allowedOrigins, origin)
		},
	}

	return func(c *gin.Context) {
		name := c.Query("name")
		if token := c.Query("token"); token != "" {
			claims, err := middleware.ParseToken(jwtSecret, token)
			if err != nil {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
				return
			}
			name = claims.Name
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			slog.Warn("failed to upgrade connection", "error", err)
			return
		}

		client := &Client{
			id:   uuid.New().String(),
			name: chat.NormalizeUserName(name),
			conn: conn,
			send: make(chan []byte, sendBuffer),
			done: make(chan struct{}),
		}
		slog.Info("relay client connected", "clientId", client.id, "name", client.name)

		hello, _ := json.Marshal(models.Frame{Type: models.FrameHello, ClientID: client.id})
		client.send <- hello

		go client.writePump()
		go client.readPump(handler)
	}
}

func (c *Client) readPump(handler *relay.Handler) {
	defer func() {
		handler.Leave(c)
		close(c.done)
		c.conn.Close()
		slog.Info("relay client disconnected", "clientId", c.id)
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Warn("websocket error", "clientId", c.id, "error", err)
			}
			return
		}

		var frame models.Frame
		if err := json.Unmarshal(message, &frame); err != nil {
			slog.Debug("failed to parse frame", "clientId", c.id, "error", err)
			c.reportError("", "invalid frame")
			continue
		}

		if err := handler.Handle(context.Background(), c, frame); err != nil {
			slog.Debug("frame rejected", "clientId", c.id, "type", frame.Type, "error", err)
			c.reportError(frame.Room, err.Error())
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				slog.Debug("failed to write message", "clientId", c.id, "error", err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}

func (c *Client) reportError(room chat.ChannelID, msg string) {
	data, err := json.Marshal(models.Frame{Type: models.FrameError, Room: room, Error: msg})
	if err != nil {
		return
	}
	if err := c.Send(data); err != nil {
		slog.Debug("failed to report error", "clientId", c.id, "error", err)
	}
}
