package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mossy-p/webrtc-chat/config"
	"github.com/mossy-p/webrtc-chat/internal/chat"
	"github.com/mossy-p/webrtc-chat/internal/models"
	"github.com/mossy-p/webrtc-chat/internal/relay"
)

const testSecret = "test-secret"

func newTestServer(t *testing.T) (*httptest.Server, *relay.Hub) {
	t.Helper()
	return newTestServerWithHistory(t, relay.NewMemoryHistory(10))
}

func newTestServerWithHistory(t *testing.T, history relay.History) (*httptest.Server, *relay.Hub) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		AllowedOrigins: []string{"https://chat.example"},
		JWTSecret:      testSecret,
		Public:         config.PublicConfig{Origin: "https://chat.example", Path: "/app/"},
	}
	hub := relay.NewHub()
	srv := httptest.NewServer(NewRouter(cfg, hub, history))
	t.Cleanup(srv.Close)
	return srv, hub
}

func login(t *testing.T, srv *httptest.Server, body string) LoginResponse {
	t.Helper()
	resp, err := http.Post(srv.URL+"/api/auth/login", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out LoginResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func dial(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/relay?" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

// next reads frames until one of type typ arrives.
func next(t *testing.T, conn *websocket.Conn, typ models.FrameType) models.Frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	for {
		var f models.Frame
		require.NoError(t, conn.ReadJSON(&f))
		if f.Type == typ {
			return f
		}
	}
}

func TestLogin(t *testing.T) {
	srv, _ := newTestServer(t)

	out := login(t, srv, `{"username":"avi","displayName":"  Avi  "}`)
	assert.Equal(t, "avi", out.UserID)
	assert.Equal(t, "Avi", out.Name)
	assert.NotEmpty(t, out.Token)

	out = login(t, srv, `{"username":"bob"}`)
	assert.Equal(t, "bob", out.Name)

	resp, err := http.Post(srv.URL+"/api/auth/login", "application/json", strings.NewReader(`{}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreateRoom(t *testing.T) {
	srv, _ := newTestServer(t)
	token := login(t, srv, `{"username":"avi"}`).Token

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/rooms", bytes.NewBufferString(`{"name":"  friday standup "}`))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var out models.CreateRoomResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, models.CreateRoomResponse{
		Room:    "friday standup",
		Channel: "observable-friday standup",
		Link:    "https://chat.example/app/#friday%20standup",
	}, out)

	unauth, err := http.Post(srv.URL+"/api/rooms", "application/json", strings.NewReader(`{"name":"x"}`))
	require.NoError(t, err)
	unauth.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, unauth.StatusCode)
}

func TestRelay_TwoPartyFlow(t *testing.T) {
	srv, hub := newTestServer(t)

	alice := dial(t, srv, "name=Alice")
	aliceID := next(t, alice, models.FrameHello).ClientID
	require.NotEmpty(t, aliceID)

	room := chat.GetChannelRoom("room")
	require.NoError(t, alice.WriteJSON(models.Frame{Type: models.FrameSubscribe, Room: room}))
	next(t, alice, models.FrameOpen)
	assert.Len(t, next(t, alice, models.FrameMembers).Members, 1)

	token := login(t, srv, `{"username":"bob","displayName":"Bob"}`).Token
	bob := dial(t, srv, "token="+token)
	bobID := next(t, bob, models.FrameHello).ClientID
	require.NoError(t, bob.WriteJSON(models.Frame{Type: models.FrameSubscribe, Room: room}))
	members := next(t, bob, models.FrameMembers).Members
	require.Len(t, members, 2)
	assert.True(t, chat.IsOfferer(len(members)))

	joined := next(t, alice, models.FrameMemberJoin)
	assert.Equal(t, "Bob", joined.Member.ClientData.Name)
	assert.Equal(t, 2, hub.MemberCount(room))

	frame, err := models.PublishFrame(chat.BuildChatPayload("room", "Bob", " <b>hi</b> "))
	require.NoError(t, err)
	require.NoError(t, bob.WriteJSON(frame))

	for _, conn := range []*websocket.Conn{alice, bob} {
		msg := next(t, conn, models.FrameMessage)
		assert.Equal(t, bobID, msg.ClientID)
		var sig chat.Signal
		require.NoError(t, json.Unmarshal(msg.Data, &sig))
		text, ok := sig.Chat()
		require.True(t, ok)
		assert.Equal(t, "<b>hi</b>", text.ChatText)
	}

	want := `<div class="chat-msg own"><div class="msg-author">You</div><div>&lt;b&gt;hi&lt;/b&gt;</div></div>`
	assert.Eventually(t, func() bool {
		resp, err := http.Get(srv.URL + "/api/rooms/room/history?clientId=" + bobID)
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		return err == nil && string(body) == want
	}, 2*time.Second, 20*time.Millisecond)

	bob.Close()
	left := next(t, alice, models.FrameMemberLeave)
	assert.Equal(t, bobID, left.Member.ID)
	assert.NotEqual(t, aliceID, bobID)
}

func TestClearHistory(t *testing.T) {
	history := relay.NewMemoryHistory(10)
	srv, _ := newTestServerWithHistory(t, history)
	require.NoError(t, history.Append(context.Background(), chat.GetChannelRoom("room"), models.HistoryEntry{
		ClientID: "c1",
		User:     "Avi",
		Text:     "hello",
	}))

	getHistory := func() string {
		resp, err := http.Get(srv.URL + "/api/rooms/room/history")
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		return string(body)
	}
	clearHistory := func(token string) int {
		req, err := http.NewRequest(http.MethodDelete, srv.URL+"/api/rooms/room/history", nil)
		require.NoError(t, err)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		return resp.StatusCode
	}

	want := `<div class="chat-msg peer"><div class="msg-author">Avi</div><div>hello</div></div>`
	assert.Equal(t, want, getHistory())

	assert.Equal(t, http.StatusUnauthorized, clearHistory(""))
	assert.Equal(t, want, getHistory(), "unauthenticated clear keeps history")

	token := login(t, srv, `{"username":"avi"}`).Token
	assert.Equal(t, http.StatusOK, clearHistory(token))
	assert.Empty(t, getHistory())
}

func TestRelay_Errors(t *testing.T) {
	srv, _ := newTestServer(t)
	conn := dial(t, srv, "")
	next(t, conn, models.FrameHello)

	require.NoError(t, conn.WriteJSON(models.Frame{Type: models.FrameSubscribe, Room: "room"}))
	assert.Contains(t, next(t, conn, models.FrameError).Error, "not observable")

	frame, err := models.PublishFrame(chat.BuildChatPayload("room", "a", "hi"))
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(frame))
	assert.Contains(t, next(t, conn, models.FrameError).Error, "not subscribed")

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	assert.Equal(t, "invalid frame", next(t, conn, models.FrameError).Error)
}

func TestRelay_RejectsBadToken(t *testing.T) {
	srv, _ := newTestServer(t)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/relay?token=bogus"

	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestGetRoom(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/rooms/lobby")
	require.NoError(t, err)
	defer resp.Body.Close()

	var info models.RoomInfo
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&info))
	assert.Equal(t, models.RoomInfo{
		Room:        "lobby",
		Channel:     "observable-lobby",
		MemberCount: 0,
		NextOffers:  false,
	}, info)
}
