package webrtc

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/tkachv/parley/internal/core"
	"github.com/tkachv/parley/internal/domain"
)

// dial builds the loopback call: a local and a simulated remote peer
// connection negotiated in-process, with one remote participant per
// callee. Remote video streams surface once the connection settles.
func (a *agent) dial(ctx context.Context, callees []domain.ParticipantID, opts core.CallOptions) (core.CallHandle, error) {
	local, err := webrtc.NewPeerConnection(a.engine.rtcCfg)
	if err != nil {
		return nil, err
	}
	remote, err := webrtc.NewPeerConnection(a.engine.rtcCfg)
	if err != nil {
		local.Close()
		return nil, err
	}

	call := &loopCall{
		agent:  a,
		id:     domain.CallID(uuid.NewString()),
		state:  domain.StateConnecting,
		local:  local,
		remote: remote,
	}
	for _, p := range callees {
		call.participants = append(call.participants, &loopParticipant{
			id:      p,
			streams: []core.StreamSource{loopStream{id: a.engine.nextStreamID()}},
		})
	}

	// Control channel keeps the loopback alive and gives ICE something
	// to negotiate.
	if _, err := local.CreateDataChannel("control", nil); err != nil {
		call.closePeers()
		return nil, err
	}

	local.OnICECandidate(func(cand *webrtc.ICECandidate) {
		if cand != nil {
			_ = remote.AddICECandidate(cand.ToJSON())
		}
	})
	remote.OnICECandidate(func(cand *webrtc.ICECandidate) {
		if cand != nil {
			_ = local.AddICECandidate(cand.ToJSON())
		}
	})

	local.OnConnectionStateChange(func(s webrtc.PeerConnectionState) {
		log.Info().Str("module", "platform.webrtc").Str("call_id", string(call.id)).Str("peer_state", s.String()).Msg("peer state")
		switch s {
		case webrtc.PeerConnectionStateConnected:
			call.setState(domain.StateConnected)
			call.announceParticipants()
		case webrtc.PeerConnectionStateFailed, webrtc.PeerConnectionStateClosed:
			call.setState(domain.StateDisconnected)
		}
	})

	if err := call.negotiate(ctx); err != nil {
		call.closePeers()
		return nil, err
	}

	log.Info().Str("module", "platform.webrtc").Str("call_id", string(call.id)).Int("callees", len(callees)).Msg("loopback call dialed")
	return call, nil
}

type loopCall struct {
	agent *agent
	id    domain.CallID

	mu           sync.Mutex
	state        domain.CallState
	local        *webrtc.PeerConnection
	remote       *webrtc.PeerConnection
	participants []*loopParticipant
	announced    bool
	muted        bool
	videoOn      bool
	hungUp       bool
}

func (c *loopCall) negotiate(ctx context.Context) error {
	offer, err := c.local.CreateOffer(nil)
	if err != nil {
		return err
	}
	gatherLocal := webrtc.GatheringCompletePromise(c.local)
	if err := c.local.SetLocalDescription(offer); err != nil {
		return err
	}
	select {
	case <-gatherLocal:
	case <-ctx.Done():
		return ctx.Err()
	}

	if err := c.remote.SetRemoteDescription(*c.local.LocalDescription()); err != nil {
		return err
	}
	answer, err := c.remote.CreateAnswer(nil)
	if err != nil {
		return err
	}
	gatherRemote := webrtc.GatheringCompletePromise(c.remote)
	if err := c.remote.SetLocalDescription(answer); err != nil {
		return err
	}
	select {
	case <-gatherRemote:
	case <-ctx.Done():
		return ctx.Err()
	}

	return c.local.SetRemoteDescription(*c.remote.LocalDescription())
}

func (c *loopCall) setState(s domain.CallState) {
	c.mu.Lock()
	if c.hungUp || c.state == s {
		c.mu.Unlock()
		return
	}
	c.state = s
	c.mu.Unlock()
	c.agent.push(core.CallEvent{Kind: core.EventStateChanged, CallID: c.id, State: s})
}

// announceParticipants pushes the participants-updated event exactly once
// per call, after the connection settles.
func (c *loopCall) announceParticipants() {
	c.mu.Lock()
	if c.announced {
		c.mu.Unlock()
		return
	}
	c.announced = true
	added := make([]core.RemoteParticipant, len(c.participants))
	for i, p := range c.participants {
		added[i] = p
	}
	c.mu.Unlock()
	c.agent.push(core.CallEvent{Kind: core.EventParticipantsUpdated, CallID: c.id, Added: added})
}

func (c *loopCall) ID() domain.CallID { return c.id }

func (c *loopCall) State() domain.CallState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *loopCall) RemoteParticipants() []core.RemoteParticipant {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]core.RemoteParticipant, len(c.participants))
	for i, p := range c.participants {
		out[i] = p
	}
	return out
}

func (c *loopCall) Hangup(ctx context.Context) error {
	c.mu.Lock()
	c.hungUp = true
	c.state = domain.StateDisconnected
	c.mu.Unlock()
	c.closePeers()
	log.Info().Str("module", "platform.webrtc").Str("call_id", string(c.id)).Msg("hung up")
	return nil
}

func (c *loopCall) closePeers() {
	if err := c.local.Close(); err != nil {
		log.Error().Err(err).Str("module", "platform.webrtc").Msg("close local peer")
	}
	if err := c.remote.Close(); err != nil {
		log.Error().Err(err).Str("module", "platform.webrtc").Msg("close remote peer")
	}
}

func (c *loopCall) Mute(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.hungUp {
		return errors.New("call already ended")
	}
	c.muted = true
	return nil
}

func (c *loopCall) Unmute(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.hungUp {
		return errors.New("call already ended")
	}
	c.muted = false
	return nil
}

func (c *loopCall) StartVideo(ctx context.Context, stream core.LocalStream) error {
	if stream == nil {
		return errors.New("no local stream")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.hungUp {
		return errors.New("call already ended")
	}
	if c.videoOn {
		return nil
	}
	if _, err := c.local.AddTransceiverFromKind(webrtc.RTPCodecTypeVideo, webrtc.RTPTransceiverInit{
		Direction: webrtc.RTPTransceiverDirectionSendonly,
	}); err != nil {
		return err
	}
	c.videoOn = true
	return nil
}

func (c *loopCall) StopVideo(ctx context.Context, stream core.LocalStream) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.videoOn = false
	return nil
}

type loopParticipant struct {
	id      domain.ParticipantID
	streams []core.StreamSource
}

func (p *loopParticipant) ID() domain.ParticipantID          { return p.id }
func (p *loopParticipant) VideoStreams() []core.StreamSource { return p.streams }

type loopStream struct {
	id domain.StreamID
}

func (s loopStream) StreamID() domain.StreamID { return s.id }
