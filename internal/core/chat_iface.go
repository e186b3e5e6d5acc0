package core

import (
	"context"

	"github.com/tkachv/parley/internal/domain"
)

// ChatEngine builds chat clients bound to a platform endpoint.
type ChatEngine interface {
	Connect(endpoint, accessToken string) (ChatClient, error)
}

// ChatClient issues endpoint-scoped operations and derives thread clients.
// Deriving a client is local construction; no network call is involved.
type ChatClient interface {
	CreateThread(ctx context.Context, topic string, participants []domain.ParticipantID) (domain.ChatThread, error)
	ThreadClient(threadID domain.ThreadID) (ThreadClient, error)
}

// ThreadClient issues operations scoped to one thread.
type ThreadClient interface {
	ThreadID() domain.ThreadID
	Send(ctx context.Context, content string) (string, error)
	ListMessages(ctx context.Context, maxMessages int) ([]domain.ChatMessage, error)
	SendTyping(ctx context.Context) error
}
