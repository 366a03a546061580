package domain

// ChatStartedPayload is the payload for chat_started events.
type ChatStartedPayload struct {
	TurnID    string `json:"turn_id"`
	SessionID string `json:"session_id,omitempty"`
	Model     string `json:"model"`
	Stream    bool   `json:"stream"`
}

// UserInputPayload is the payload for user_input events.
type UserInputPayload struct {
	TurnID  string `json:"turn_id"`
	Content string `json:"content"`
}

// LLMCallStartedPayload is the payload for llm_call_started events.
type LLMCallStartedPayload struct {
	RequestID string `json:"request_id"`
	Model     string `json:"model"`
	Stream    bool   `json:"stream"`
}

// LLMCallDonePayload is the payload for llm_call_done events.
type LLMCallDonePayload struct {
	RequestID        string `json:"request_id"`
	Model            string `json:"model"`
	LatencyMs        int64  `json:"latency_ms"`
	PromptTokens     int    `json:"prompt_tokens,omitempty"`
	CompletionTokens int    `json:"completion_tokens,omitempty"`
	TotalTokens      int    `json:"total_tokens,omitempty"`
	Error            string `json:"error,omitempty"`
}

// ToolCallPayload is the payload for tool_call events.
type ToolCallPayload struct {
	ToolCallID string `json:"tool_call_id"`
	ToolName   string `json:"tool_name"`
	Args       string `json:"args,omitempty"`
}

// ToolResultPayload is the payload for tool_result events.
type ToolResultPayload struct {
	ToolCallID string `json:"tool_call_id"`
	Result     string `json:"result"`
	LatencyMs  int64  `json:"latency_ms"`
}

// PolicyDecisionPayload is the payload for policy_decision events.
type PolicyDecisionPayload struct {
	ToolCallID string `json:"tool_call_id"`
	Decision   string `json:"decision"`
	Reason     string `json:"reason,omitempty"`
}

// ChatDonePayload is the payload for chat_done events.
type ChatDonePayload struct {
	TurnID       string `json:"turn_id"`
	FinalMessage string `json:"final_message,omitempty"`
	Iterations   int    `json:"iterations"`
}

// ChatFailedPayload is the payload for chat_failed events.
type ChatFailedPayload struct {
	TurnID  string `json:"turn_id"`
	Code    string `json:"code"`
	Message string `json:"message"`
}
