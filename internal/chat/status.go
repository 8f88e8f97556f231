package chat

import "github.com/pion/webrtc/v4"

// Status is the user-facing connection status.
type Status string

const (
	StatusConnecting   Status = "connecting"
	StatusConnected    Status = "connected"
	StatusDisconnected Status = "disconnected"
)

var statusLabels = map[string]string{
	string(StatusConnecting):   "Connecting",
	string(StatusConnected):    "Connected",
	string(StatusDisconnected): "Disconnected",
}

// StatusLabel returns the display label for status, or status itself when
// it has none.
func StatusLabel(status string) string {
	if label, ok := statusLabels[status]; ok {
		return label
	}
	return status
}

// MapConnectionState maps a peer connection state name to a Status.
// ok is false for states that should leave the UI unchanged
// (new, checking, unknown).
func MapConnectionState(state string) (Status, bool) {
	switch state {
	case "connecting":
		return StatusConnecting, true
	case "connected":
		return StatusConnected, true
	case "disconnected", "failed", "closed":
		return StatusDisconnected, true
	default:
		return "", false
	}
}

// MapPeerConnectionState is MapConnectionState over pion's enum.
func MapPeerConnectionState(state webrtc.PeerConnectionState) (Status, bool) {
	return MapConnectionState(state.String())
}
