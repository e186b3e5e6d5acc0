package domain

import "time"

type ThreadID string

// ChatThread is the creation-time record of a thread. Creating a thread
// does not bind it as the active session.
type ChatThread struct {
	ID           ThreadID
	Topic        string
	Participants []ParticipantID
}

type ChatMessage struct {
	ID       string
	Content  string
	SenderID ParticipantID
	SentOn   time.Time
}
