package app

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/tkachv/parley/internal/core"
	"github.com/tkachv/parley/internal/domain"
)

// runEvents drains one agent's event feed. The loop ends when the agent
// is disposed; a replacement agent gets its own loop.
func (c *CallCoordinator) runEvents(agent core.CallAgent) {
	for ev := range agent.Events() {
		c.handleEvent(ev)
	}
	log.Debug().Str("module", "app.coordinator").Msg("event feed closed")
}

func (c *CallCoordinator) handleEvent(ev core.CallEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ev.Kind == core.EventIncomingCall {
		c.handleIncomingLocked(ev.Incoming)
		return
	}

	// Stale-callback guard: the session this event was meant for may be
	// superseded or disposed already.
	if c.call == nil || ev.CallID != c.call.ID() {
		log.Debug().Str("module", "app.coordinator").Str("call_id", string(ev.CallID)).Msg("discarding stale event")
		return
	}

	switch ev.Kind {
	case core.EventStateChanged:
		c.callState = ev.State
		c.notify("callStateChanged", map[string]any{
			"callId": string(ev.CallID),
			"state":  ev.State.String(),
		})
		log.Info().Str("module", "app.coordinator").Str("call_id", string(ev.CallID)).Str("state", ev.State.String()).Msg("call state changed")
		if ev.State.Terminal() {
			c.teardownLocked()
		}

	case core.EventParticipantsUpdated:
		for _, p := range ev.Added {
			c.addParticipantLocked(p)
		}
		for _, p := range ev.Removed {
			c.removeParticipantLocked(p)
		}
		c.notify("participantsUpdated", map[string]any{
			"callId": string(ev.CallID),
			"count":  len(c.participants),
		})

	case core.EventVideoStreamsUpdated:
		for _, s := range ev.StreamsAdded {
			c.acquireRemoteLocked(s)
		}
		for _, s := range ev.StreamsRemoved {
			c.registry.Release(s.StreamID())
		}
	}
}

// handleIncomingLocked stores the pending offer and answers it,
// attaching a best-effort local preview. Caller holds c.mu.
func (c *CallCoordinator) handleIncomingLocked(inc core.IncomingCall) {
	if inc == nil {
		return
	}
	c.incoming = inc
	c.notify("incomingCall", nil)

	ctx := context.Background()
	var opts core.CallOptions
	if stream, err := c.ensureLocalStream(ctx); err == nil && stream != nil {
		if _, err := c.registry.AcquireLocal(stream.Source()); err == nil {
			opts.Stream = stream
		}
	}

	call, err := inc.Accept(ctx, opts)
	c.incoming = nil
	if err != nil {
		log.Warn().Err(err).Str("module", "app.coordinator").Msg("accept incoming call")
		return
	}
	c.attachCall(call)
	log.Info().Str("module", "app.coordinator").Str("call_id", string(call.ID())).Msg("incoming call accepted")
}

// attachCall installs a freshly created session. The previous session's
// remote resources are fully released first, so no event of the new call
// can observe cross-session leakage. Caller holds c.mu.
func (c *CallCoordinator) attachCall(call core.CallHandle) {
	if c.call != nil {
		c.registry.ClearRemote()
		c.participants = nil
		log.Info().Str("module", "app.coordinator").Str("call_id", string(c.call.ID())).Msg("detached previous call")
	}
	c.call = call
	c.callState = call.State()
	c.incoming = nil
	for _, p := range call.RemoteParticipants() {
		c.addParticipantLocked(p)
	}
}

// addParticipantLocked tracks a remote participant and registers its
// already-present streams. Remote renderer failures are logged, never
// surfaced; a failed remote render must not abort participant
// bookkeeping. Caller holds c.mu.
func (c *CallCoordinator) addParticipantLocked(p core.RemoteParticipant) {
	c.participants = append(c.participants, p.ID())
	for _, s := range p.VideoStreams() {
		c.acquireRemoteLocked(s)
	}
}

func (c *CallCoordinator) acquireRemoteLocked(s core.StreamSource) {
	if _, err := c.registry.Acquire(s); err != nil {
		log.Warn().Err(err).Str("module", "app.coordinator").Int("stream_id", int(s.StreamID())).Msg("remote renderer failed")
	}
}

// removeParticipantLocked releases a participant's streams and drops it
// from the tracked set. Caller holds c.mu.
func (c *CallCoordinator) removeParticipantLocked(p core.RemoteParticipant) {
	for _, s := range p.VideoStreams() {
		c.registry.Release(s.StreamID())
	}
	id := p.ID()
	for i, pid := range c.participants {
		if pid == id {
			c.participants = append(c.participants[:i], c.participants[i+1:]...)
			break
		}
	}
}

// teardownLocked releases everything the session owns. Registry entries
// go first, the session reference is cleared last. Caller holds c.mu.
func (c *CallCoordinator) teardownLocked() {
	c.registry.Clear()
	if c.localStream != nil {
		c.localStream.Dispose()
		c.localStream = nil
	}
	c.cameraIdx = -1
	c.call = nil
	c.incoming = nil
	c.participants = nil
	c.callState = domain.StateNone
	log.Info().Str("module", "app.coordinator").Msg("call resources released")
}
