package app

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/tkachv/parley/internal/core"
	"github.com/tkachv/parley/internal/domain"
)

// DefaultMaxMessages is the page size used when the caller does not
// specify one.
const DefaultMaxMessages = 20

// ChatManager owns at most one joined thread binding and issues
// thread-scoped operations. Send and list operate on a client freshly
// scoped to the given thread, independent of the joined one; only the
// typing signal requires the binding.
type ChatManager struct {
	engine core.ChatEngine

	mu     sync.Mutex
	cred   *Credential
	client core.ChatClient
	joined core.ThreadClient
}

func NewChatManager(engine core.ChatEngine) *ChatManager {
	return &ChatManager{engine: engine}
}

// Initialize builds the credential and the endpoint-bound chat client.
// Re-initialization replaces both; the joined binding is kept since
// thread clients derive from the endpoint, not the client instance.
func (m *ChatManager) Initialize(accessToken, endpoint string) error {
	if endpoint == "" {
		return core.NewError(core.CodeInvalidArgument, "access token and endpoint are required")
	}
	cred, err := NewCredential(accessToken)
	if err != nil {
		return err
	}

	client, err := m.engine.Connect(endpoint, cred.Token())
	if err != nil {
		return core.WrapError(core.CodeInitializationError, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.cred = cred
	m.client = client
	log.Info().Str("module", "app.chat").Str("endpoint", endpoint).Msg("chat initialized")
	return nil
}

// CreateThread creates a thread without binding it as the active session.
func (m *ChatManager) CreateThread(ctx context.Context, topic string, participants []domain.ParticipantID) (domain.ChatThread, error) {
	if topic == "" {
		return domain.ChatThread{}, core.NewError(core.CodeInvalidArgument, "topic is required")
	}

	m.mu.Lock()
	client := m.client
	m.mu.Unlock()
	if client == nil {
		return domain.ChatThread{}, core.NewError(core.CodeNotInitialized, "chat client not initialized")
	}

	thread, err := client.CreateThread(ctx, topic, participants)
	if err != nil {
		return domain.ChatThread{}, core.WrapError(core.CodeCreateThreadFailed, err)
	}
	log.Info().Str("module", "app.chat").Str("thread_id", string(thread.ID)).Msg("thread created")
	return thread, nil
}

// JoinThread replaces the active binding with a fresh client scoped to
// threadID. The join is local client construction; no network call.
func (m *ChatManager) JoinThread(threadID domain.ThreadID) (domain.ThreadID, error) {
	if threadID == "" {
		return "", core.NewError(core.CodeInvalidArgument, "thread ID is required")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.client == nil {
		return "", core.NewError(core.CodeNotInitialized, "chat client not initialized")
	}

	tc, err := m.client.ThreadClient(threadID)
	if err != nil {
		return "", core.WrapError(core.CodeJoinThreadFailed, err)
	}
	m.joined = tc
	log.Info().Str("module", "app.chat").Str("thread_id", string(threadID)).Msg("thread joined")
	return threadID, nil
}

// SendMessage sends content on a client freshly scoped to threadID.
func (m *ChatManager) SendMessage(ctx context.Context, threadID domain.ThreadID, content string) (string, error) {
	if threadID == "" || content == "" {
		return "", core.NewError(core.CodeInvalidArgument, "thread ID and content are required")
	}

	m.mu.Lock()
	client := m.client
	m.mu.Unlock()
	if client == nil {
		return "", core.NewError(core.CodeNotInitialized, "chat client not initialized")
	}

	tc, err := client.ThreadClient(threadID)
	if err != nil {
		return "", core.WrapError(core.CodeSendMessageFailed, err)
	}
	id, err := tc.Send(ctx, content)
	if err != nil {
		return "", core.WrapError(core.CodeSendMessageFailed, err)
	}
	return id, nil
}

// ListMessages returns the newest page of messages, at most maxMessages
// entries (DefaultMaxMessages when zero or negative).
func (m *ChatManager) ListMessages(ctx context.Context, threadID domain.ThreadID, maxMessages int) ([]domain.ChatMessage, error) {
	if threadID == "" {
		return nil, core.NewError(core.CodeInvalidArgument, "thread ID is required")
	}
	if maxMessages <= 0 {
		maxMessages = DefaultMaxMessages
	}

	m.mu.Lock()
	client := m.client
	m.mu.Unlock()
	if client == nil {
		return nil, core.NewError(core.CodeNotInitialized, "chat client not initialized")
	}

	tc, err := client.ThreadClient(threadID)
	if err != nil {
		return nil, core.WrapError(core.CodeGetMessagesFailed, err)
	}
	msgs, err := tc.ListMessages(ctx, maxMessages)
	if err != nil {
		return nil, core.WrapError(core.CodeGetMessagesFailed, err)
	}
	return msgs, nil
}

// SendTyping signals typing on the joined thread. Unlike send/list it
// requires the binding specifically.
func (m *ChatManager) SendTyping(ctx context.Context) error {
	m.mu.Lock()
	joined := m.joined
	m.mu.Unlock()
	if joined == nil {
		return core.NewError(core.CodeNotInitialized, "chat thread client not initialized; join a thread first")
	}
	if err := joined.SendTyping(ctx); err != nil {
		return core.WrapError(core.CodeTypingFailed, err)
	}
	return nil
}

// JoinedThread reports the bound thread id, empty when none is joined.
func (m *ChatManager) JoinedThread() domain.ThreadID {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.joined == nil {
		return ""
	}
	return m.joined.ThreadID()
}
