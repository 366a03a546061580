package domain

// Turn roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// TurnState represents where a chat turn is in the tool resolution loop.
type TurnState string

const (
	TurnStateCalling      TurnState = "CALLING"
	TurnStateToolsPending TurnState = "TOOLS_PENDING"
	TurnStateAnswered     TurnState = "ANSWERED"
	TurnStateExhausted    TurnState = "EXHAUSTED"
)

// EventType represents the type of an audit event.
type EventType string

const (
	EventTypeChatStarted    EventType = "chat_started"
	EventTypeUserInput      EventType = "user_input"
	EventTypeLLMCallStarted EventType = "llm_call_started"
	EventTypeLLMCallDone    EventType = "llm_call_done"
	EventTypeToolCall       EventType = "tool_call"
	EventTypeToolResult     EventType = "tool_result"
	EventTypePolicyDecision EventType = "policy_decision"
	EventTypeChatDone       EventType = "chat_done"
	EventTypeChatFailed     EventType = "chat_failed"
)
