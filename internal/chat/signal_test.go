package chat

import (
	"encoding/json"
	"testing"

	"github.com/pion/webrtc/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSignalPayload(t *testing.T) {
	desc := webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: "v=0"}
	env := BuildSignalPayload("my-room", SDPSignal(desc))

	assert.Equal(t, ChannelID("observable-my-room"), env.Room)
	got, ok := env.Message.SDP()
	require.True(t, ok)
	assert.Equal(t, desc, got)

	data, err := json.Marshal(env)
	require.NoError(t, err)
	assert.JSONEq(t, `{"room":"observable-my-room","message":{"sdp":{"type":"offer","sdp":"v=0"}}}`, string(data))
}

func TestBuildSignalPayload_Candidate(t *testing.T) {
	mid := "0"
	candidate := webrtc.ICECandidateInit{Candidate: "candidate:1 1 udp 1 1.2.3.4 5 typ host", SDPMid: &mid}
	env := BuildSignalPayload("room1", CandidateSignal(candidate))

	assert.Equal(t, ChannelID("observable-room1"), env.Room)
	assert.Equal(t, SignalCandidate, env.Message.Kind())

	data, err := json.Marshal(env)
	require.NoError(t, err)

	var decoded Envelope
	require.NoError(t, json.Unmarshal(data, &decoded))
	got, ok := decoded.Message.Candidate()
	require.True(t, ok)
	assert.Equal(t, candidate.Candidate, got.Candidate)
	require.NotNil(t, got.SDPMid)
	assert.Equal(t, "0", *got.SDPMid)
}

func TestBuildChatPayload(t *testing.T) {
	env := BuildChatPayload("r", "Avi", "  hi  ")

	assert.Equal(t, ChannelID("observable-r"), env.Room)
	msg, ok := env.Message.Chat()
	require.True(t, ok)
	assert.Equal(t, ChatMessage{ChatText: "hi", User: "Avi"}, msg)

	data, err := json.Marshal(env)
	require.NoError(t, err)
	assert.JSONEq(t, `{"room":"observable-r","message":{"chatText":"hi","user":"Avi"}}`, string(data))
}

func TestBuildChatPayload_UserNotNormalized(t *testing.T) {
	msg, _ := BuildChatPayload("r", "  ", "hi").Message.Chat()
	assert.Equal(t, "  ", msg.User)
}

func TestClassifiers(t *testing.T) {
	tests := []struct {
		name     string
		msg      map[string]any
		wantSDP  bool
		wantICE  bool
		wantChat bool
	}{
		{name: "nil", msg: nil},
		{name: "empty", msg: map[string]any{}},
		{name: "sdp", msg: map[string]any{"sdp": map[string]any{"type": "offer"}}, wantSDP: true},
		{name: "candidate", msg: map[string]any{"candidate": map[string]any{}}, wantICE: true},
		{name: "falsy sdp", msg: map[string]any{"sdp": ""}},
		{name: "null candidate", msg: map[string]any{"candidate": nil}},
		{name: "zero sdp", msg: map[string]any{"sdp": float64(0)}},
		{name: "chat", msg: map[string]any{"chatText": "hi", "user": "Avi"}, wantChat: true},
		{name: "empty chat text", msg: map[string]any{"chatText": ""}, wantChat: true},
		{name: "null chat text", msg: map[string]any{"chatText": nil}, wantChat: true},
		{name: "both sdp and candidate", msg: map[string]any{"sdp": "x", "candidate": "y"}, wantSDP: true, wantICE: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantSDP, IsSDPMessage(tt.msg))
			assert.Equal(t, tt.wantICE, IsICEMessage(tt.msg))
			assert.Equal(t, tt.wantChat, IsChatMessage(tt.msg))
		})
	}
}

func TestSignal_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantKind SignalKind
		wantErr  error
	}{
		{name: "sdp", input: `{"sdp":{"type":"answer","sdp":"v=0"}}`, wantKind: SignalSDP},
		{name: "candidate", input: `{"candidate":{"candidate":"candidate:1","sdpMLineIndex":0}}`, wantKind: SignalCandidate},
		{name: "chat", input: `{"chatText":"","user":"Bob"}`, wantKind: SignalChat},
		{name: "ambiguous", input: `{"sdp":{"type":"offer","sdp":"v=0"},"candidate":{"candidate":"c"}}`, wantErr: ErrAmbiguousSignal},
		{name: "chat with sdp", input: `{"sdp":{"type":"offer","sdp":"v=0"},"chatText":"hi"}`, wantErr: ErrAmbiguousSignal},
		{name: "nothing", input: `{"foo":1}`, wantErr: ErrUnknownSignal},
		{name: "falsy sdp only", input: `{"sdp":null}`, wantErr: ErrUnknownSignal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s Signal
			err := json.Unmarshal([]byte(tt.input), &s)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantKind, s.Kind())
		})
	}
}

func TestSignal_AccessorsAreExclusive(t *testing.T) {
	s := ChatSignal(ChatMessage{ChatText: "hi", User: "Avi"})

	_, ok := s.SDP()
	assert.False(t, ok)
	_, ok = s.Candidate()
	assert.False(t, ok)
	_, ok = s.Chat()
	assert.True(t, ok)
}

func TestSignal_ZeroValueDoesNotMarshal(t *testing.T) {
	_, err := json.Marshal(Signal{})
	assert.ErrorIs(t, err, ErrUnknownSignal)
}
