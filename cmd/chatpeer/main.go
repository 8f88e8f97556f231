package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/mossy-p/webrtc-chat/config"
	"github.com/mossy-p/webrtc-chat/internal/chat"
	"github.com/mossy-p/webrtc-chat/internal/peer"
	"github.com/mossy-p/webrtc-chat/internal/session"
)

const usage = "commands: /mute, /video, /quit; anything else is sent as chat"

func main() {
	cfg := config.Load()
	cfg.SetupLogger()

	room := roomFromConfig(cfg.Peer)

	rtcConfig := chat.DefaultRTCConfig()
	if len(cfg.Peer.STUNURLs) > 0 {
		rtcConfig = chat.RTCConfig(chat.WithICEServers(cfg.Peer.STUNURLs...))
	}

	ctrl := peer.NewController(peer.Options{
		Dial:    peer.RelayDialerFor(cfg.Peer.RelayURL),
		NewPeer: peer.PionPeerFactory(peer.NewAPI(cfg.SlogLevel()), rtcConfig),
		Out:     os.Stdout,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go readCommands(ctrl, stop)

	ctrl.Dispatch(session.Join{Room: room, User: cfg.Peer.UserName})
	fmt.Println(usage)
	slog.Info("joining room", "room", chat.NormalizeRoomName(room), "relay", cfg.Peer.RelayURL)

	if err := ctrl.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("peer stopped", "error", err)
		os.Exit(1)
	}
}

// roomFromConfig prefers the fragment of a shared room link over ROOM. The
// fragment is cut out by hand so badly escaped links still yield a room.
func roomFromConfig(cfg config.PeerConfig) string {
	if cfg.RoomLink == "" {
		return cfg.Room
	}
	_, fragment, _ := strings.Cut(cfg.RoomLink, "#")
	return chat.ParseRoomFromHash("#" + fragment)
}

func readCommands(ctrl *peer.Controller, quit context.CancelFunc) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := scanner.Text()
		switch strings.TrimSpace(line) {
		case "/quit":
			quit()
			return
		case "/mute":
			ctrl.Dispatch(session.ToggleAudio{})
		case "/video":
			ctrl.Dispatch(session.ToggleVideo{})
		default:
			ctrl.Dispatch(session.SendChat{Text: line})
		}
	}
	quit()
}
