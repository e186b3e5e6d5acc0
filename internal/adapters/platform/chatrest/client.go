// Package chatrest speaks the platform's thread REST API. Thread clients
// are plain URL-scoped views over one shared HTTP client; deriving one is
// local construction, matching the join semantics upstream.
package chatrest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tkachv/parley/internal/core"
	"github.com/tkachv/parley/internal/domain"
)

const apiVersion = "2021-09-07"

type Engine struct {
	// HTTPClient may be replaced before Connect for tests.
	HTTPClient *http.Client
}

func NewEngine() *Engine {
	return &Engine{HTTPClient: &http.Client{Timeout: 15 * time.Second}}
}

func (e *Engine) Connect(endpoint, accessToken string) (core.ChatClient, error) {
	base, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid endpoint %q", endpoint)
	}
	return &client{
		http:  e.HTTPClient,
		base:  strings.TrimRight(base.String(), "/"),
		token: accessToken,
	}, nil
}

type client struct {
	http  *http.Client
	base  string
	token string
}

func (c *client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	u := c.base + path + "?api-version=" + apiVersion
	for k, vs := range query {
		for _, v := range vs {
			u += "&" + k + "=" + url.QueryEscape(v)
		}
	}

	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, rd)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		log.Warn().Str("module", "platform.chatrest").Int("status", resp.StatusCode).Str("path", path).Msg("chat API rejected request")
		return fmt.Errorf("chat API %s %s: status %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(data)))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

type wireIdentifier struct {
	RawID string `json:"rawId"`
}

func (c *client) CreateThread(ctx context.Context, topic string, participants []domain.ParticipantID) (domain.ChatThread, error) {
	reqBody := struct {
		Topic        string `json:"topic"`
		Participants []struct {
			CommunicationIdentifier wireIdentifier `json:"communicationIdentifier"`
		} `json:"participants,omitempty"`
	}{Topic: topic}
	for _, p := range participants {
		reqBody.Participants = append(reqBody.Participants, struct {
			CommunicationIdentifier wireIdentifier `json:"communicationIdentifier"`
		}{wireIdentifier{RawID: string(p)}})
	}

	var respBody struct {
		ChatThread struct {
			ID    string `json:"id"`
			Topic string `json:"topic"`
		} `json:"chatThread"`
	}
	if err := c.do(ctx, http.MethodPost, "/chat/threads", nil, reqBody, &respBody); err != nil {
		return domain.ChatThread{}, err
	}
	if respBody.ChatThread.ID == "" {
		return domain.ChatThread{}, fmt.Errorf("chat API returned no thread id")
	}
	return domain.ChatThread{
		ID:           domain.ThreadID(respBody.ChatThread.ID),
		Topic:        respBody.ChatThread.Topic,
		Participants: participants,
	}, nil
}

func (c *client) ThreadClient(threadID domain.ThreadID) (core.ThreadClient, error) {
	if threadID == "" {
		return nil, fmt.Errorf("empty thread id")
	}
	return &threadClient{client: c, threadID: threadID}, nil
}

type threadClient struct {
	client   *client
	threadID domain.ThreadID
}

func (t *threadClient) ThreadID() domain.ThreadID { return t.threadID }

func (t *threadClient) path(suffix string) string {
	return "/chat/threads/" + url.PathEscape(string(t.threadID)) + suffix
}

func (t *threadClient) Send(ctx context.Context, content string) (string, error) {
	reqBody := struct {
		Content string `json:"content"`
		Type    string `json:"type"`
	}{Content: content, Type: "text"}

	var respBody struct {
		ID string `json:"id"`
	}
	if err := t.client.do(ctx, http.MethodPost, t.path("/messages"), nil, reqBody, &respBody); err != nil {
		return "", err
	}
	if respBody.ID == "" {
		return "", fmt.Errorf("chat API returned no message id")
	}
	return respBody.ID, nil
}

func (t *threadClient) ListMessages(ctx context.Context, maxMessages int) ([]domain.ChatMessage, error) {
	query := url.Values{"maxPageSize": []string{strconv.Itoa(maxMessages)}}

	var respBody struct {
		Value []struct {
			ID      string `json:"id"`
			Type    string `json:"type"`
			Content struct {
				Message string `json:"message"`
			} `json:"content"`
			Sender    wireIdentifier `json:"senderCommunicationIdentifier"`
			CreatedOn time.Time      `json:"createdOn"`
		} `json:"value"`
	}
	if err := t.client.do(ctx, http.MethodGet, t.path("/messages"), query, nil, &respBody); err != nil {
		return nil, err
	}

	out := make([]domain.ChatMessage, 0, len(respBody.Value))
	for _, m := range respBody.Value {
		out = append(out, domain.ChatMessage{
			ID:       m.ID,
			Content:  m.Content.Message,
			SenderID: domain.ParticipantID(m.Sender.RawID),
			SentOn:   m.CreatedOn,
		})
		if len(out) >= maxMessages {
			break
		}
	}
	return out, nil
}

func (t *threadClient) SendTyping(ctx context.Context) error {
	return t.client.do(ctx, http.MethodPost, t.path("/typing"), nil, nil, nil)
}
