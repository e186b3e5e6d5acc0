package bridge

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/tkachv/parley/internal/core"
	"github.com/tkachv/parley/internal/domain"
)

func (ctl *Controller) initializeIdentity(c *wsConn, req request) {
	var args struct {
		ConnectionString string `json:"connectionString"`
	}
	if err := json.Unmarshal(req.Args, &args); err != nil || args.ConnectionString == "" {
		ctl.sendError(c, req.ID, core.CodeInvalidArgument, "connection string is required")
		return
	}
	ctl.sendResult(c, req.ID, map[string]any{"status": "initialized"})
}

func (ctl *Controller) initializeCalling(ctx context.Context, c *wsConn, req request) {
	var args struct {
		AccessToken string `json:"accessToken"`
	}
	if err := json.Unmarshal(req.Args, &args); err != nil || args.AccessToken == "" {
		ctl.sendError(c, req.ID, core.CodeInvalidArgument, "access token is required")
		return
	}
	if err := ctl.Calls.Initialize(ctx, args.AccessToken); err != nil {
		ctl.sendAppError(c, req.ID, err)
		return
	}
	ctl.sendResult(c, req.ID, map[string]any{"status": "initialized"})
}

func (ctl *Controller) requestPermissions(ctx context.Context, c *wsConn, req request) {
	granted, err := ctl.Calls.RequestPermissions(ctx)
	if err != nil {
		log.Warn().Err(err).Str("module", "bridge").Msg("permission request failed")
		ctl.sendResult(c, req.ID, false)
		return
	}
	ctl.sendResult(c, req.ID, granted)
}

func (ctl *Controller) startCall(ctx context.Context, c *wsConn, req request) {
	var args struct {
		Participants []string `json:"participants"`
		WithVideo    bool     `json:"withVideo"`
	}
	if err := json.Unmarshal(req.Args, &args); err != nil || len(args.Participants) == 0 {
		ctl.sendError(c, req.ID, core.CodeInvalidArgument, "participants list is required")
		return
	}

	ids := make([]domain.ParticipantID, len(args.Participants))
	for i, p := range args.Participants {
		ids[i] = domain.ParticipantID(p)
	}

	id, state, err := ctl.Calls.StartCall(ctx, ids, args.WithVideo)
	if err != nil {
		ctl.sendAppError(c, req.ID, err)
		return
	}
	ctl.sendResult(c, req.ID, map[string]any{"id": string(id), "state": state.String()})
}

func (ctl *Controller) joinCall(ctx context.Context, c *wsConn, req request) {
	var args struct {
		GroupCallID string `json:"groupCallId"`
		WithVideo   bool   `json:"withVideo"`
	}
	if err := json.Unmarshal(req.Args, &args); err != nil || args.GroupCallID == "" {
		ctl.sendError(c, req.ID, core.CodeInvalidArgument, "valid group call ID is required")
		return
	}

	id, state, err := ctl.Calls.JoinCall(ctx, args.GroupCallID, args.WithVideo)
	if err != nil {
		ctl.sendAppError(c, req.ID, err)
		return
	}
	ctl.sendResult(c, req.ID, map[string]any{"id": string(id), "state": state.String()})
}

func (ctl *Controller) endCall(ctx context.Context, c *wsConn, req request) {
	if err := ctl.Calls.EndCall(ctx); err != nil {
		ctl.sendAppError(c, req.ID, err)
		return
	}
	ctl.sendResult(c, req.ID, nil)
}

func (ctl *Controller) setMuted(ctx context.Context, c *wsConn, req request, muted bool) {
	if err := ctl.Calls.SetAudioMuted(ctx, muted); err != nil {
		ctl.sendAppError(c, req.ID, err)
		return
	}
	ctl.sendResult(c, req.ID, nil)
}

func (ctl *Controller) startVideo(ctx context.Context, c *wsConn, req request) {
	if err := ctl.Calls.StartVideo(ctx); err != nil {
		ctl.sendAppError(c, req.ID, err)
		return
	}
	ctl.sendResult(c, req.ID, nil)
}

func (ctl *Controller) stopVideo(ctx context.Context, c *wsConn, req request) {
	if err := ctl.Calls.StopVideo(ctx); err != nil {
		ctl.sendAppError(c, req.ID, err)
		return
	}
	ctl.sendResult(c, req.ID, nil)
}

func (ctl *Controller) switchCamera(ctx context.Context, c *wsConn, req request) {
	if err := ctl.Calls.SwitchCamera(ctx); err != nil {
		ctl.sendAppError(c, req.ID, err)
		return
	}
	ctl.sendResult(c, req.ID, nil)
}
