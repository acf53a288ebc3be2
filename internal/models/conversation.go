package models

import "time"

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of a conversation.
type Message struct {
	Seq       uint64    `json:"seq"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// ChatMessage is the wire form sent to the knowledge service.
type ChatMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

type SessionState string

const (
	StateIdle             SessionState = "idle"
	StateAwaitingResponse SessionState = "awaiting_response"
)

// ErrorInfo is the presentation form of a session's last error.
type ErrorInfo struct {
	Kind       string `json:"kind"`
	Message    string `json:"message"`
	StatusCode int    `json:"status_code,omitempty"`
}

// SessionView is a point-in-time copy of a conversation session.
type SessionView struct {
	ID          string       `json:"id"`
	State       SessionState `json:"state"`
	Messages    []Message    `json:"messages"`
	LastError   *ErrorInfo   `json:"last_error,omitempty"`
	Suggestions []string     `json:"suggestions,omitempty"`
}
