package chat

import "github.com/pion/webrtc/v4"

// Glyphs shown on the media control buttons.
const (
	GlyphMuted    = "\U0001F507" // speaker with cancellation stroke
	GlyphUnmuted  = "\U0001F509" // speaker with one sound wave
	GlyphVideoOff = "\U0001F6AB" // no entry sign
	GlyphVideoOn  = "\U0001F3A5" // movie camera
)

const offererMembers = 2

// AudioState is the microphone control after a toggle.
type AudioState struct {
	Muted     bool
	Tooltip   string
	IconGlyph string
}

// VideoState is the camera control after a toggle.
type VideoState struct {
	Off       bool
	Tooltip   string
	IconGlyph string
}

// ToggleAudioState returns the microphone control after a click while
// currentlyMuted.
func ToggleAudioState(currentlyMuted bool) AudioState {
	if currentlyMuted {
		return AudioState{Muted: false, Tooltip: "Mute", IconGlyph: GlyphUnmuted}
	}
	return AudioState{Muted: true, Tooltip: "Unmute", IconGlyph: GlyphMuted}
}

// ToggleVideoState returns the camera control after a click while
// currentlyOff.
func ToggleVideoState(currentlyOff bool) VideoState {
	if currentlyOff {
		return VideoState{Off: false, Tooltip: "Stop Video", IconGlyph: GlyphVideoOn}
	}
	return VideoState{Off: true, Tooltip: "Start Video", IconGlyph: GlyphVideoOff}
}

// IsOfferer reports whether the client that sees memberCount members on
// joining should create the offer. Only the second joiner of a two-party
// room does.
func IsOfferer(memberCount int) bool {
	return memberCount == offererMembers
}

// DefaultSTUNServers are the public STUN servers used when none are configured.
var DefaultSTUNServers = []string{
	"stun:stun.l.google.com:19302",
	"stun:stun1.l.google.com:19302",
}

// DefaultRTCConfig returns a fresh configuration using DefaultSTUNServers.
func DefaultRTCConfig() webrtc.Configuration {
	servers := make([]webrtc.ICEServer, 0, len(DefaultSTUNServers))
	for _, u := range DefaultSTUNServers {
		servers = append(servers, webrtc.ICEServer{URLs: []string{u}})
	}
	return webrtc.Configuration{ICEServers: servers}
}

// RTCConfig applies overrides on top of DefaultRTCConfig.
func RTCConfig(overrides ...func(*webrtc.Configuration)) webrtc.Configuration {
	cfg := DefaultRTCConfig()
	for _, o := range overrides {
		o(&cfg)
	}
	return cfg
}

// WithICEServers replaces the ICE servers with one entry per URL.
func WithICEServers(urls ...string) func(*webrtc.Configuration) {
	return func(cfg *webrtc.Configuration) {
		servers := make([]webrtc.ICEServer, 0, len(urls))
		for _, u := range urls {
			servers = append(servers, webrtc.ICEServer{URLs: []string{u}})
		}
		cfg.ICEServers = servers
	}
}
