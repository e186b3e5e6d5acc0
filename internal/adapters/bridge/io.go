package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"runtime"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/tkachv/parley/internal/core"
)

// request is the host command envelope.
type request struct {
	ID      string          `json:"id"`
	Command string          `json:"command"`
	Args    json.RawMessage `json:"args"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// response carries either a result (null is a valid success value) or an
// error, never both.
type response struct {
	ID     string     `json:"id"`
	Result any        `json:"result"`
	Error  *errorBody `json:"error,omitempty"`
}

func (ctl *Controller) writePump(ctx context.Context, c *wsConn) {
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "bridge").Msg("writePump ctx done")
			return
		case data, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second)); err != nil {
				log.Error().Err(err).Str("module", "bridge").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "bridge").Msg("writePump write error")
				return
			}
		}
	}
}

func (ctl *Controller) readPump(ctx context.Context, c *wsConn) {
	defer func() {
		log.Info().Str("module", "bridge").Msg("readPump closing")
		c.Close()
	}()

	limiter := newCommandLimiter(ctl.limit, ctl.interval)

	for {
		select {
		case <-ctx.Done():
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				log.Error().Err(err).Str("module", "bridge").Msg("readPump read error")
				return
			}
			ctl.handleCommand(ctx, c, limiter, data)
		}
	}
}

func (ctl *Controller) handleCommand(ctx context.Context, c *wsConn, limiter *commandLimiter, data []byte) {
	var req request
	if err := json.Unmarshal(data, &req); err != nil {
		log.Error().Err(err).Str("module", "bridge").Msg("bad command frame")
		ctl.sendError(c, "", core.CodeInvalidArgument, "malformed command frame")
		return
	}
	if !limiter.Allow() {
		ctl.sendError(c, req.ID, "RATE_LIMITED", "too many commands")
		return
	}

	switch req.Command {
	case "getPlatformVersion":
		ctl.sendResult(c, req.ID, "go "+runtime.Version()+" "+runtime.GOOS)
	case "initializeIdentity":
		ctl.initializeIdentity(c, req)
	case "createUser", "getToken", "revokeToken":
		ctl.sendError(c, req.ID, core.CodeNotImplemented, "identity management should be implemented on your backend")

	case "initializeCalling":
		ctl.initializeCalling(ctx, c, req)
	case "requestPermissions":
		ctl.requestPermissions(ctx, c, req)
	case "startCall":
		ctl.startCall(ctx, c, req)
	case "joinCall":
		ctl.joinCall(ctx, c, req)
	case "endCall":
		ctl.endCall(ctx, c, req)
	case "muteAudio":
		ctl.setMuted(ctx, c, req, true)
	case "unmuteAudio":
		ctl.setMuted(ctx, c, req, false)
	case "startVideo":
		ctl.startVideo(ctx, c, req)
	case "stopVideo":
		ctl.stopVideo(ctx, c, req)
	case "switchCamera":
		ctl.switchCamera(ctx, c, req)
	case "getCallState":
		ctl.sendResult(c, req.ID, ctl.Calls.State().String())

	case "initializeChat":
		ctl.initializeChat(c, req)
	case "createChatThread":
		ctl.createChatThread(ctx, c, req)
	case "joinChatThread":
		ctl.joinChatThread(c, req)
	case "sendMessage":
		ctl.sendMessage(ctx, c, req)
	case "getMessages":
		ctl.getMessages(ctx, c, req)
	case "sendTypingNotification":
		ctl.sendTyping(ctx, c, req)

	default:
		log.Warn().Str("module", "bridge").Str("command", req.Command).Msg("unknown command")
		ctl.sendError(c, req.ID, core.CodeUnknownCommand, "unknown command: "+req.Command)
	}
}

func (ctl *Controller) sendResult(c *wsConn, id string, result any) {
	ctl.sendJSON(c, response{ID: id, Result: result})
}

func (ctl *Controller) sendError(c *wsConn, id, code, message string) {
	ctl.sendJSON(c, response{ID: id, Error: &errorBody{Code: code, Message: message}})
}

// sendAppError maps a coordinator/manager error onto the wire pair.
func (ctl *Controller) sendAppError(c *wsConn, id string, err error) {
	var ce *core.Error
	if errors.As(err, &ce) {
		ctl.sendError(c, id, ce.Code, ce.Message)
		return
	}
	ctl.sendError(c, id, "INTERNAL", err.Error())
}

func (ctl *Controller) sendJSON(c *wsConn, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "bridge").Msg("sendJSON marshal")
		return
	}
	_ = c.TrySend(b)
}

// eventSink pushes coordinator events to the host. Frames are dropped on
// backpressure; the host can re-query state at any time.
type eventSink struct {
	conn *wsConn
}

func (s *eventSink) Notify(event string, payload map[string]any) {
	frame := map[string]any{"event": event}
	for k, v := range payload {
		frame[k] = v
	}
	b, err := json.Marshal(frame)
	if err != nil {
		log.Error().Err(err).Str("module", "bridge").Msg("event marshal")
		return
	}
	if err := s.conn.TrySend(b); err != nil {
		log.Warn().Err(err).Str("module", "bridge").Str("event", event).Msg("event dropped")
	}
}
