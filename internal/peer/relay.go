package peer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mossy-p/webrtc-chat/internal/chat"
	"github.com/mossy-p/webrtc-chat/internal/models"
	"github.com/mossy-p/webrtc-chat/internal/session"
)

const (
	writeWait = 10 * time.Second
	pongWait  = 60 * time.Second
)

var ErrRelayClosed = errors.New("relay connection closed")

// RelayClient is a connection to the pub/sub relay. Inbound frames are
// translated into session events and handed to emit.
type RelayClient struct {
	conn *websocket.Conn
	emit func(session.Event)

	writeMu sync.Mutex
	once    sync.Once
	closed  chan struct{}
}

// DialRelay connects to relayURL announcing name as the display name.
func DialRelay(ctx context.Context, relayURL, name string, emit func(session.Event)) (*RelayClient, error) {
	u, err := url.Parse(relayURL)
	if err != nil {
		return nil, fmt.Errorf("parse relay url: %w", err)
	}
	q := u.Query()
	q.Set("name", name)
	u.RawQuery = q.Encode()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("dial relay: %w", err)
	}

	c := &RelayClient{conn: conn, emit: emit, closed: make(chan struct{})}
	go c.readLoop()
	return c, nil
}

// RelayDialerFor returns a RelayDialer for the relay at relayURL.
func RelayDialerFor(relayURL string) RelayDialer {
	return func(ctx context.Context, user string, emit func(session.Event)) (Relay, error) {
		c, err := DialRelay(ctx, relayURL, user, emit)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
}

func (c *RelayClient) Subscribe(channel chat.ChannelID) error {
	return c.write(models.Frame{Type: models.FrameSubscribe, Room: channel})
}

func (c *RelayClient) Publish(env chat.Envelope) error {
	frame, err := models.PublishFrame(env)
	if err != nil {
		return fmt.Errorf("encode publish: %w", err)
	}
	return c.write(frame)
}

// Close sends a close frame and drops the connection. Safe to call twice.
func (c *RelayClient) Close() error {
	var err error
	c.once.Do(func() {
		close(c.closed)
		c.writeMu.Lock()
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		c.writeMu.Unlock()
		err = c.conn.Close()
	})
	return err
}

func (c *RelayClient) write(frame models.Frame) error {
	select {
	case <-c.closed:
		return ErrRelayClosed
	default:
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(frame)
}

func (c *RelayClient) readLoop() {
	var readErr error
	defer func() {
		c.emit(session.RelayClosed{Err: readErr})
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPingHandler(func(data string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		c.writeMu.Lock()
		defer c.writeMu.Unlock()
		return c.conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(writeWait))
	})

	for {
		var frame models.Frame
		if err := c.conn.ReadJSON(&frame); err != nil {
			select {
			case <-c.closed:
			default:
				readErr = err
			}
			return
		}
		if ev, ok := frameEvent(frame); ok {
			c.emit(ev)
		}
	}
}

// frameEvent maps a relay frame onto the session event it represents.
func frameEvent(frame models.Frame) (session.Event, bool) {
	switch frame.Type {
	case models.FrameHello:
		return session.RelayOpened{ClientID: frame.ClientID}, true

	case models.FrameOpen:
		return session.RoomOpened{}, true

	case models.FrameMembers:
		return session.Members{Count: len(frame.Members)}, true

	case models.FrameMemberJoin:
		return session.MemberJoined{Name: memberName(frame.Member)}, true

	case models.FrameMemberLeave:
		return session.MemberLeft{Name: memberName(frame.Member)}, true

	case models.FrameMessage:
		var sig chat.Signal
		if err := json.Unmarshal(frame.Data, &sig); err != nil {
			slog.Debug("dropping relay message", "clientId", frame.ClientID, "error", err)
			return nil, false
		}
		return session.RelayMessage{ClientID: frame.ClientID, Signal: sig}, true

	case models.FrameError:
		// An error tied to a room means we are not a member of it.
		if frame.Room == "" {
			slog.Warn("relay error", "error", frame.Error)
			return nil, false
		}
		return session.RoomOpened{Err: errors.New(frame.Error)}, true
	}
	return nil, false
}

func memberName(m *models.Member) string {
	if m == nil {
		return ""
	}
	return m.ClientData.Name
}
