package llm

import (
	"context"
	"fmt"
	"time"
)

// MockClient is an offline CompletionClient for local development.
type MockClient struct{}

// NewMockClient creates a new mock completion client.
func NewMockClient() *MockClient {
	return &MockClient{}
}

var _ CompletionClient = (*MockClient)(nil)

// CreateChatCompletion returns a canned content answer; it never requests
// tools, so the resolution loop terminates on the first iteration.
func (m *MockClient) CreateChatCompletion(ctx context.Context, req *ChatCompletionRequest) (*ChatCompletionResponse, error) {
	content := m.respond(req)
	return &ChatCompletionResponse{
		ID:      fmt.Sprintf("mock-chatcmpl-%d", time.Now().UnixNano()),
		Object:  "chat.completion",
		Created: time.Now().Unix(),
		Model:   req.Model,
		Choices: []Choice{
			{
				Index:        0,
				Message:      &ChatMessage{Role: "assistant", Content: content},
				FinishReason: "stop",
			},
		},
		Usage: &Usage{},
	}, nil
}

// CreateChatCompletionStream simulates a streamed answer in small deltas.
func (m *MockClient) CreateChatCompletionStream(ctx context.Context, req *ChatCompletionRequest, callback StreamCallback) error {
	content := m.respond(req)
	id := fmt.Sprintf("mock-chatcmpl-%d", time.Now().UnixNano())
	created := time.Now().Unix()

	for i := 0; i < len(content); i += 10 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		end := i + 10
		if end > len(content) {
			end = len(content)
		}
		chunk := &StreamChunk{
			ID:      id,
			Object:  "chat.completion.chunk",
			Created: created,
			Model:   req.Model,
			Choices: []Choice{
				{Index: 0, Delta: &ChatMessage{Role: "assistant", Content: content[i:end]}},
			},
		}
		if err := callback(chunk); err != nil {
			return err
		}
	}
	return nil
}

func (m *MockClient) respond(req *ChatCompletionRequest) string {
	var lastUser string
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == "user" {
			lastUser = req.Messages[i].Content
			break
		}
	}
	if lastUser == "" {
		return "[MOCK] This is a mock answer."
	}
	if len(lastUser) > 100 {
		lastUser = lastUser[:100] + "..."
	}
	return fmt.Sprintf("[MOCK] Received your message: %q.", lastUser)
}
