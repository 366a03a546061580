package domain

// Downstream stream event payloads. Each is emitted as one
// `data: <json>` record followed by a blank line; the literal
// `[DONE]` payload terminates a successful stream.

// ModelEvent announces which model serves the request. Sent once,
// before any delta.
type ModelEvent struct {
	Model string `json:"model"`
}

// DeltaEvent carries one increment of answer text.
type DeltaEvent struct {
	Delta string `json:"delta"`
}

// ErrorEvent is terminal; at most one is sent per stream.
type ErrorEvent struct {
	Error string `json:"error"`
}

// StreamDone is the literal terminal payload on non-error completion.
const StreamDone = "[DONE]"
