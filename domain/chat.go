// Package domain defines the core domain models for the gateway.
package domain

import "time"

// Turn is a single message in a conversation.
type Turn struct {
	Role       string     `json:"role"` // system, user, assistant, tool
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`   // assistant turns only
	ToolCallID string     `json:"tool_call_id,omitempty"` // tool turns only
	CreatedAt  time.Time  `json:"created_at"`
}

// ToolCall is a structured request from the model to invoke a named tool.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"` // raw JSON payload as produced by the model
}

// Session is the bounded conversation history for one client.
// An anonymous session has an empty ID and is never held by the store.
type Session struct {
	ID        string    `json:"session_id"`
	Turns     []Turn    `json:"turns"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Anonymous reports whether the session is ephemeral.
func (s *Session) Anonymous() bool {
	return s.ID == ""
}

// ChatRequest is the client request body for both chat endpoints.
type ChatRequest struct {
	SessionID string `json:"sessionId"`
	Message   string `json:"message"`
	Model     string `json:"model,omitempty"`
}

// ChatResponse is the buffered chat endpoint response.
type ChatResponse struct {
	SessionID string `json:"sessionId"`
	Message   string `json:"message"`
	Model     string `json:"model"`
}

// ToolDescriptor describes one locally resolvable tool to the model.
type ToolDescriptor struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"` // JSON-schema object contract
}
