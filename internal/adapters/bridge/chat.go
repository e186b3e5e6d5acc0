package bridge

import (
	"context"
	"encoding/json"
	"time"

	"github.com/tkachv/parley/internal/core"
	"github.com/tkachv/parley/internal/domain"
)

func (ctl *Controller) initializeChat(c *wsConn, req request) {
	var args struct {
		AccessToken string `json:"accessToken"`
		Endpoint    string `json:"endpoint"`
	}
	if err := json.Unmarshal(req.Args, &args); err != nil || args.AccessToken == "" || args.Endpoint == "" {
		ctl.sendError(c, req.ID, core.CodeInvalidArgument, "access token and endpoint are required")
		return
	}
	if err := ctl.Chat.Initialize(args.AccessToken, args.Endpoint); err != nil {
		ctl.sendAppError(c, req.ID, err)
		return
	}
	ctl.sendResult(c, req.ID, map[string]any{"status": "initialized"})
}

func (ctl *Controller) createChatThread(ctx context.Context, c *wsConn, req request) {
	var args struct {
		Topic        string   `json:"topic"`
		Participants []string `json:"participants"`
	}
	if err := json.Unmarshal(req.Args, &args); err != nil || args.Topic == "" {
		ctl.sendError(c, req.ID, core.CodeInvalidArgument, "topic is required")
		return
	}

	ids := make([]domain.ParticipantID, len(args.Participants))
	for i, p := range args.Participants {
		ids[i] = domain.ParticipantID(p)
	}

	thread, err := ctl.Chat.CreateThread(ctx, args.Topic, ids)
	if err != nil {
		ctl.sendAppError(c, req.ID, err)
		return
	}
	ctl.sendResult(c, req.ID, map[string]any{"id": string(thread.ID), "topic": thread.Topic})
}

func (ctl *Controller) joinChatThread(c *wsConn, req request) {
	var args struct {
		ThreadID string `json:"threadId"`
	}
	if err := json.Unmarshal(req.Args, &args); err != nil || args.ThreadID == "" {
		ctl.sendError(c, req.ID, core.CodeInvalidArgument, "thread ID is required")
		return
	}

	id, err := ctl.Chat.JoinThread(domain.ThreadID(args.ThreadID))
	if err != nil {
		ctl.sendAppError(c, req.ID, err)
		return
	}
	// The join is client construction only; no thread metadata is fetched.
	ctl.sendResult(c, req.ID, map[string]any{"id": string(id), "topic": ""})
}

func (ctl *Controller) sendMessage(ctx context.Context, c *wsConn, req request) {
	var args struct {
		ThreadID string `json:"threadId"`
		Content  string `json:"content"`
	}
	if err := json.Unmarshal(req.Args, &args); err != nil || args.ThreadID == "" || args.Content == "" {
		ctl.sendError(c, req.ID, core.CodeInvalidArgument, "thread ID and content are required")
		return
	}

	id, err := ctl.Chat.SendMessage(ctx, domain.ThreadID(args.ThreadID), args.Content)
	if err != nil {
		ctl.sendAppError(c, req.ID, err)
		return
	}
	ctl.sendResult(c, req.ID, id)
}

func (ctl *Controller) getMessages(ctx context.Context, c *wsConn, req request) {
	var args struct {
		ThreadID    string `json:"threadId"`
		MaxMessages int    `json:"maxMessages"`
	}
	if err := json.Unmarshal(req.Args, &args); err != nil || args.ThreadID == "" {
		ctl.sendError(c, req.ID, core.CodeInvalidArgument, "thread ID is required")
		return
	}

	msgs, err := ctl.Chat.ListMessages(ctx, domain.ThreadID(args.ThreadID), args.MaxMessages)
	if err != nil {
		ctl.sendAppError(c, req.ID, err)
		return
	}

	out := make([]map[string]any, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, map[string]any{
			"id":       m.ID,
			"content":  m.Content,
			"senderId": string(m.SenderID),
			"sentOn":   m.SentOn.UTC().Format(time.RFC3339Nano),
		})
	}
	ctl.sendResult(c, req.ID, out)
}

func (ctl *Controller) sendTyping(ctx context.Context, c *wsConn, req request) {
	if err := ctl.Chat.SendTyping(ctx); err != nil {
		ctl.sendAppError(c, req.ID, err)
		return
	}
	ctl.sendResult(c, req.ID, nil)
}
