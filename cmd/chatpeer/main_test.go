package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mossy-p/webrtc-chat/config"
)

func TestRoomFromConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.PeerConfig
		want string
	}{
		{name: "room only", cfg: config.PeerConfig{Room: "lobby"}, want: "lobby"},
		{name: "nothing", cfg: config.PeerConfig{}, want: ""},
		{
			name: "link wins",
			cfg:  config.PeerConfig{Room: "lobby", RoomLink: "https://chat.example/app/#friday%20standup"},
			want: "friday standup",
		},
		{name: "link without fragment", cfg: config.PeerConfig{RoomLink: "https://chat.example/"}, want: ""},
		{
			name: "malformed escape kept raw",
			cfg:  config.PeerConfig{RoomLink: "https://chat.example/app/#50%off"},
			want: "50%off",
		},
		{
			name: "second hash belongs to the room",
			cfg:  config.PeerConfig{RoomLink: "https://chat.example/#a#b"},
			want: "a#b",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, roomFromConfig(tt.cfg))
		})
	}
}
