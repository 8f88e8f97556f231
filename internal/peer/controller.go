// Package peer runs a headless chat client: it drives session.Reduce from
// relay, peer connection and user events and performs the resulting
// commands against real connections.
package peer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/pion/webrtc/v4"
	"golang.org/x/net/html"

	"github.com/mossy-p/webrtc-chat/internal/chat"
	"github.com/mossy-p/webrtc-chat/internal/session"
)

// Relay is the signaling side of a call.
type Relay interface {
	Subscribe(channel chat.ChannelID) error
	Publish(env chat.Envelope) error
	Close() error
}

// Peer is the media side of a call.
type Peer interface {
	Offer() (webrtc.SessionDescription, error)
	ApplyRemoteDescription(desc webrtc.SessionDescription) (*webrtc.SessionDescription, error)
	AddCandidate(c webrtc.ICECandidateInit) error
	Stats() []chat.StatRecord
	Close() error
}

// RelayDialer connects to the relay as user.
type RelayDialer func(ctx context.Context, user string, emit func(session.Event)) (Relay, error)

// PeerFactory creates a fresh peer connection.
type PeerFactory func(emit func(session.Event)) (Peer, error)

type Options struct {
	Dial         RelayDialer
	NewPeer      PeerFactory
	Out          io.Writer
	PollInterval time.Duration
}

type source int

const (
	fromUser source = iota
	fromRelay
	fromPeer
)

type envelope struct {
	ev  session.Event
	src source
	gen int
}

// Controller owns one client's session state. All state is confined to
// the Run goroutine; other goroutines talk to it through Dispatch.
type Controller struct {
	dial     RelayDialer
	newPeer  PeerFactory
	out      io.Writer
	interval time.Duration

	events chan envelope
	done   chan struct{}
	ctx    context.Context

	state    session.State
	relay    Relay
	peer     Peer
	relayGen int
	peerGen  int
	stopPoll context.CancelFunc
}

func NewController(opts Options) *Controller {
	interval := opts.PollInterval
	if interval <= 0 {
		interval = chat.QualityPollInterval
	}
	return &Controller{
		dial:     opts.Dial,
		newPeer:  opts.NewPeer,
		out:      opts.Out,
		interval: interval,
		events:   make(chan envelope, 64),
		done:     make(chan struct{}),
		ctx:      context.Background(),
	}
}

// Dispatch queues a user event such as Join, SendChat or EndCall.
func (c *Controller) Dispatch(ev session.Event) {
	c.enqueue(envelope{ev: ev, src: fromUser})
}

// Run processes events until ctx is done, then ends the call.
func (c *Controller) Run(ctx context.Context) error {
	c.ctx = ctx
	defer close(c.done)

	for {
		select {
		case <-ctx.Done():
			c.apply(session.EndCall{})
			return ctx.Err()
		case env := <-c.events:
			c.handle(env)
		}
	}
}

// State returns the current session state. Only meaningful from the Run
// goroutine or after Run returns.
func (c *Controller) State() session.State {
	return c.state
}

func (c *Controller) enqueue(env envelope) {
	select {
	case c.events <- env:
	case <-c.done:
	}
}

func (c *Controller) emitter(src source, gen int) func(session.Event) {
	return func(ev session.Event) {
		c.enqueue(envelope{ev: ev, src: src, gen: gen})
	}
}

// handle drops events from connections that were already replaced.
func (c *Controller) handle(env envelope) {
	switch env.src {
	case fromRelay:
		if env.gen != c.relayGen {
			return
		}
	case fromPeer:
		if env.gen != c.peerGen {
			return
		}
	}

	if e, ok := env.ev.(session.SendChat); ok && !chat.ShouldSendMessage(e.Text, c.relay) {
		return
	}
	c.apply(env.ev)
}

func (c *Controller) apply(ev session.Event) {
	next, cmds := session.Reduce(c.state, ev)
	c.state = next
	for _, cmd := range cmds {
		c.execute(cmd)
	}
}

func (c *Controller) execute(cmd session.Command) {
	switch cmd := cmd.(type) {
	case session.SetStatus:
		c.printf("status: %s\n", chat.StatusLabel(string(cmd.Status)))

	case session.AppendSystem:
		c.printf("* %s\n", chat.TextContent(chat.CreateSystemMessageElement(cmd.Text)))

	case session.AppendChat:
		c.printf("%s\n", chatLine(chat.CreateChatMessageElement(cmd.Author, cmd.Text, cmd.IsSelf)))

	case session.ConnectRelay:
		c.relayGen++
		relay, err := c.dial(c.ctx, cmd.User, c.emitter(fromRelay, c.relayGen))
		if err != nil {
			slog.Error("failed to connect to relay", "error", err)
			c.apply(session.RelayClosed{Err: err})
			return
		}
		c.relay = relay

	case session.Subscribe:
		if c.relay == nil {
			return
		}
		if err := c.relay.Subscribe(cmd.Channel); err != nil {
			c.apply(session.RoomOpened{Err: err})
		}

	case session.Publish:
		if c.relay == nil {
			return
		}
		if err := c.relay.Publish(cmd.Envelope); err != nil {
			slog.Warn("failed to publish", "room", cmd.Envelope.Room, "kind", cmd.Envelope.Message.Kind(), "error", err)
		}

	case session.StartPeer:
		c.startPeer(cmd.Offerer)

	case session.ClosePeer:
		c.closePeer()

	case session.ApplyRemoteDescription:
		if c.peer == nil {
			return
		}
		answer, err := c.peer.ApplyRemoteDescription(cmd.Description)
		if err != nil {
			slog.Warn("failed to apply remote description", "error", err)
			return
		}
		if answer != nil {
			c.apply(session.LocalDescription{Description: *answer})
		}

	case session.AddCandidate:
		if c.peer == nil {
			return
		}
		if err := c.peer.AddCandidate(cmd.Candidate); err != nil {
			slog.Warn("failed to add candidate", "error", err)
		}

	case session.StartQualityMonitor:
		c.startPoll()

	case session.StopQualityMonitor:
		c.stopPolling()

	case session.SetQuality:
		if cmd.Quality != chat.QualityUnknown {
			c.printf("quality: %s\n", strings.TrimPrefix(string(cmd.Quality), "quality-"))
		}

	case session.SetAudio:
		c.printf("[%s] %s\n", cmd.State.IconGlyph, cmd.State.Tooltip)

	case session.SetVideo:
		c.printf("[%s] %s\n", cmd.State.IconGlyph, cmd.State.Tooltip)

	case session.Teardown:
		c.relayGen++
		if c.relay != nil {
			if err := c.relay.Close(); err != nil {
				slog.Debug("relay close", "error", err)
			}
			c.relay = nil
		}
	}
}

func (c *Controller) startPeer(offerer bool) {
	c.closePeer()

	p, err := c.newPeer(c.emitter(fromPeer, c.peerGen))
	if err != nil {
		slog.Error("failed to create peer connection", "error", err)
		return
	}
	c.peer = p
	slog.Info("peer connection created", "offerer", offerer)

	if !offerer {
		return
	}
	offer, err := p.Offer()
	if err != nil {
		slog.Error("failed to create offer", "error", err)
		return
	}
	c.apply(session.LocalDescription{Description: offer})
}

// closePeer also invalidates callbacks still in flight from the old peer.
func (c *Controller) closePeer() {
	c.peerGen++
	if c.peer == nil {
		return
	}
	if err := c.peer.Close(); err != nil {
		slog.Debug("peer close", "error", err)
	}
	c.peer = nil
}

func (c *Controller) startPoll() {
	c.stopPolling()
	if c.peer == nil {
		return
	}

	ctx, cancel := context.WithCancel(c.ctx)
	c.stopPoll = cancel
	p, emit := c.peer, c.emitter(fromPeer, c.peerGen)

	go func() {
		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				rtt, ok := chat.ExtractRTT(p.Stats())
				emit(session.StatsSampled{RTT: rtt, OK: ok})
			}
		}
	}()
}

func (c *Controller) stopPolling() {
	if c.stopPoll != nil {
		c.stopPoll()
		c.stopPoll = nil
	}
}

func (c *Controller) printf(format string, args ...any) {
	if c.out == nil {
		return
	}
	fmt.Fprintf(c.out, format, args...)
}

// chatLine flattens a chat bubble into "author: text".
func chatLine(n *html.Node) string {
	var parts []string
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		parts = append(parts, chat.TextContent(child))
	}
	return strings.Join(parts, ": ")
}
