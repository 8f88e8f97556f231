package peer

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/pion/logging"
	"github.com/pion/rtcp"
	"github.com/pion/rtp"
	"github.com/pion/webrtc/v4"

	"github.com/mossy-p/webrtc-chat/internal/chat"
	"github.com/mossy-p/webrtc-chat/internal/session"
)

// NewAPI builds a pion API whose internal logging honors level. Extra
// options adjust the setting engine, e.g. to bind a virtual network.
func NewAPI(level slog.Level, opts ...func(*webrtc.SettingEngine)) *webrtc.API {
	lf := logging.NewDefaultLoggerFactory()
	lf.DefaultLogLevel = pionLogLevel(level)

	s := webrtc.SettingEngine{LoggerFactory: lf}
	for _, opt := range opts {
		opt(&s)
	}
	return webrtc.NewAPI(webrtc.WithSettingEngine(s))
}

func pionLogLevel(level slog.Level) logging.LogLevel {
	switch {
	case level <= slog.LevelDebug:
		return logging.LogLevelDebug
	case level <= slog.LevelInfo:
		return logging.LogLevelInfo
	case level <= slog.LevelWarn:
		return logging.LogLevelWarn
	default:
		return logging.LogLevelError
	}
}

// PionPeer is a receive-only audio/video peer connection.
type PionPeer struct {
	pc *webrtc.PeerConnection

	mu      sync.Mutex
	pending []webrtc.ICECandidateInit
}

// NewPionPeer creates a peer connection that reports candidates and state
// changes through emit.
func NewPionPeer(api *webrtc.API, cfg webrtc.Configuration, emit func(session.Event)) (*PionPeer, error) {
	pc, err := api.NewPeerConnection(cfg)
	if err != nil {
		return nil, fmt.Errorf("create peer connection: %w", err)
	}

	for _, kind := range []webrtc.RTPCodecType{webrtc.RTPCodecTypeAudio, webrtc.RTPCodecTypeVideo} {
		if _, err := pc.AddTransceiverFromKind(kind, webrtc.RTPTransceiverInit{
			Direction: webrtc.RTPTransceiverDirectionRecvonly,
		}); err != nil {
			pc.Close()
			return nil, fmt.Errorf("add %s transceiver: %w", kind, err)
		}
	}

	pc.OnICECandidate(func(c *webrtc.ICECandidate) {
		if c == nil {
			return
		}
		emit(session.LocalCandidate{Candidate: c.ToJSON()})
	})

	pc.OnConnectionStateChange(func(s webrtc.PeerConnectionState) {
		slog.Debug("peer connection state changed", "state", s.String())
		emit(session.ConnectionStateChanged{State: s.String()})
	})

	pc.OnTrack(func(track *webrtc.TrackRemote, _ *webrtc.RTPReceiver) {
		slog.Info("remote track started", "kind", track.Kind().String(), "codec", track.Codec().MimeType)
		if track.Kind() == webrtc.RTPCodecTypeVideo {
			if err := pc.WriteRTCP(keyframeRequest(track.SSRC())); err != nil {
				slog.Debug("failed to request keyframe", "error", err)
			}
		}
		go drainTrack(track)
	})

	return &PionPeer{pc: pc}, nil
}

// trackCounter tallies the RTP packets received on one remote track.
type trackCounter struct {
	packets uint64
	bytes   uint64
	lastSeq uint16
}

func (t *trackCounter) observe(pkt *rtp.Packet) {
	t.packets++
	t.bytes += uint64(len(pkt.Payload))
	t.lastSeq = pkt.SequenceNumber
}

// drainTrack reads track until it ends. Nothing is played back.
func drainTrack(track *webrtc.TrackRemote) {
	var counter trackCounter
	for {
		pkt, _, err := track.ReadRTP()
		if err != nil {
			slog.Info("remote track ended", "kind", track.Kind().String(),
				"packets", counter.packets, "bytes", counter.bytes, "lastSeq", counter.lastSeq)
			return
		}
		counter.observe(pkt)
	}
}

func keyframeRequest(ssrc webrtc.SSRC) []rtcp.Packet {
	return []rtcp.Packet{&rtcp.PictureLossIndication{MediaSSRC: uint32(ssrc)}}
}

// PionPeerFactory returns a PeerFactory creating PionPeers from api and cfg.
func PionPeerFactory(api *webrtc.API, cfg webrtc.Configuration) PeerFactory {
	return func(emit func(session.Event)) (Peer, error) {
		p, err := NewPionPeer(api, cfg, emit)
		if err != nil {
			return nil, err
		}
		return p, nil
	}
}

// Offer creates and applies the local offer.
func (p *PionPeer) Offer() (webrtc.SessionDescription, error) {
	offer, err := p.pc.CreateOffer(nil)
	if err != nil {
		return webrtc.SessionDescription{}, fmt.Errorf("create offer: %w", err)
	}
	if err := p.pc.SetLocalDescription(offer); err != nil {
		return webrtc.SessionDescription{}, fmt.Errorf("set local offer: %w", err)
	}
	return offer, nil
}

// ApplyRemoteDescription sets desc as the remote description and flushes
// buffered candidates. For an offer it returns the local answer.
func (p *PionPeer) ApplyRemoteDescription(desc webrtc.SessionDescription) (*webrtc.SessionDescription, error) {
	p.mu.Lock()
	if err := p.pc.SetRemoteDescription(desc); err != nil {
		p.mu.Unlock()
		return nil, fmt.Errorf("set remote %s: %w", desc.Type, err)
	}
	pending := p.pending
	p.pending = nil
	p.mu.Unlock()
	for _, c := range pending {
		if err := p.pc.AddICECandidate(c); err != nil {
			slog.Warn("failed to add buffered candidate", "error", err)
		}
	}

	if desc.Type != webrtc.SDPTypeOffer {
		return nil, nil
	}
	answer, err := p.pc.CreateAnswer(nil)
	if err != nil {
		return nil, fmt.Errorf("create answer: %w", err)
	}
	if err := p.pc.SetLocalDescription(answer); err != nil {
		return nil, fmt.Errorf("set local answer: %w", err)
	}
	return &answer, nil
}

// AddCandidate adds a remote candidate, holding it until a remote
// description exists.
func (p *PionPeer) AddCandidate(c webrtc.ICECandidateInit) error {
	p.mu.Lock()
	if p.pc.RemoteDescription() == nil {
		p.pending = append(p.pending, c)
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()
	return p.pc.AddICECandidate(c)
}

func (p *PionPeer) Stats() []chat.StatRecord {
	return chat.StatRecordsFromReport(p.pc.GetStats())
}

func (p *PionPeer) Close() error {
	return p.pc.Close()
}
