package chat

import "github.com/zhouzirui/persona-probe/backend/internal/model/persona"

// SessionInfo is returned to the client when a session is created.
type SessionInfo struct {
	ID      string           `json:"session_id"`
	Persona *persona.Persona `json:"persona"`
}

// Summary is a read-only projection of a conversation.
// Pending is set while the transcript ends with an unanswered user turn.
type Summary struct {
	SessionID     string           `json:"session_id"`
	Persona       *persona.Persona `json:"persona"`
	TotalTurns    int              `json:"total_turns"`
	RoleResponses []RoleCheck      `json:"role_responses"`
	Messages      []Turn           `json:"messages"`
	Pending       bool             `json:"pending,omitempty"`
}
