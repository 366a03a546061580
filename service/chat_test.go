package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leiyu1203/chatgate/config"
	"github.com/leiyu1203/chatgate/domain"
	"github.com/leiyu1203/chatgate/llm"
	"github.com/leiyu1203/chatgate/policy"
	"github.com/leiyu1203/chatgate/service"
	"github.com/leiyu1203/chatgate/session"
	"github.com/leiyu1203/chatgate/tests/helpers"
	"github.com/leiyu1203/chatgate/tools"
)

// scriptedClient replays canned buffered responses and one streamed answer.
type scriptedClient struct {
	responses []*llm.ChatCompletionResponse
	streamed  []string
	calls     int
	buffered  []*llm.ChatCompletionRequest
	streamReq *llm.ChatCompletionRequest
	streamErr error
}

func (c *scriptedClient) CreateChatCompletion(ctx context.Context, req *llm.ChatCompletionRequest) (*llm.ChatCompletionResponse, error) {
	c.buffered = append(c.buffered, req)
	if c.calls >= len(c.responses) {
		return nil, &domain.UpstreamError{Err: errors.New("no scripted response left")}
	}
	resp := c.responses[c.calls]
	c.calls++
	return resp, nil
}

func (c *scriptedClient) CreateChatCompletionStream(ctx context.Context, req *llm.ChatCompletionRequest, callback llm.StreamCallback) error {
	c.streamReq = req
	if c.streamErr != nil {
		return c.streamErr
	}
	for _, delta := range c.streamed {
		chunk := &llm.StreamChunk{Choices: []llm.Choice{{Delta: &llm.ChatMessage{Content: delta}}}}
		if err := callback(chunk); err != nil {
			return err
		}
	}
	return nil
}

func contentResponse(content string) *llm.ChatCompletionResponse {
	return &llm.ChatCompletionResponse{
		Model: "gpt",
		Choices: []llm.Choice{
			{Message: &llm.ChatMessage{Role: "assistant", Content: content}, FinishReason: "stop"},
		},
	}
}

func toolCallResponse(id, name, args string) *llm.ChatCompletionResponse {
	return &llm.ChatCompletionResponse{
		Model: "gpt",
		Choices: []llm.Choice{
			{
				Message: &llm.ChatMessage{
					Role: "assistant",
					ToolCalls: []llm.ToolCall{
						{ID: id, Type: "function", Function: llm.ToolCallFunction{Name: name, Arguments: args}},
					},
				},
				FinishReason: "tool_calls",
			},
		},
	}
}

func newTestService(t *testing.T, client llm.CompletionClient) (*service.Service, *session.Store) {
	t.Helper()

	cfg := &config.Config{
		MaxSessionTurns:   30,
		SessionTTL:        time.Minute,
		MaxToolIterations: 3,
		Temperature:       0.7,
	}
	sessions := session.NewStore(cfg.MaxSessionTurns, cfg.SessionTTL)
	engine, err := policy.NewEngine(context.Background(), policy.DefaultPolicy)
	require.NoError(t, err)

	svc := service.New(sessions, tools.NewDefaultRegistry(), engine, client, helpers.NewTestSQLiteStore(t), cfg)
	return svc, sessions
}

func TestChatDirectAnswer(t *testing.T) {
	client := &scriptedClient{responses: []*llm.ChatCompletionResponse{contentResponse("hello there")}}
	svc, sessions := newTestService(t, client)

	sess := sessions.GetOrCreate("session-1")
	result, err := svc.Chat(context.Background(), sess, "hi", "gpt", "1.2.3.4")
	require.NoError(t, err)
	assert.Equal(t, "hello there", result.Answer)
	assert.Equal(t, 1, result.Iterations)

	require.Len(t, sess.Turns, 2)
	assert.Equal(t, domain.RoleUser, sess.Turns[0].Role)
	assert.Equal(t, domain.RoleAssistant, sess.Turns[1].Role)
}

func TestChatToolResolution(t *testing.T) {
	client := &scriptedClient{responses: []*llm.ChatCompletionResponse{
		toolCallResponse("tc_1", "get_server_time", "{}"),
		contentResponse("It is currently 2024-01-01T00:00:00Z."),
	}}
	svc, sessions := newTestService(t, client)

	sess := sessions.GetOrCreate("session-1")
	result, err := svc.Chat(context.Background(), sess, "What time is it?", "gpt", "1.2.3.4")
	require.NoError(t, err)
	assert.Equal(t, "It is currently 2024-01-01T00:00:00Z.", result.Answer)
	assert.Equal(t, 2, result.Iterations)

	// user / assistant(tool_calls) / tool / assistant, in that order.
	require.Len(t, sess.Turns, 4)
	assert.Equal(t, domain.RoleUser, sess.Turns[0].Role)
	assert.Equal(t, domain.RoleAssistant, sess.Turns[1].Role)
	require.Len(t, sess.Turns[1].ToolCalls, 1)
	assert.Equal(t, domain.RoleTool, sess.Turns[2].Role)
	assert.Equal(t, "tc_1", sess.Turns[2].ToolCallID)
	assert.Equal(t, domain.RoleAssistant, sess.Turns[3].Role)

	// Every tool turn correlates to an earlier assistant tool call.
	for i, turn := range sess.Turns {
		if turn.Role != domain.RoleTool {
			continue
		}
		found := false
		for _, earlier := range sess.Turns[:i] {
			for _, call := range earlier.ToolCalls {
				if call.ID == turn.ToolCallID {
					found = true
				}
			}
		}
		assert.True(t, found, "tool turn %d has no matching tool call", i)
	}
}

func TestChatToolChainUnresolved(t *testing.T) {
	client := &scriptedClient{responses: []*llm.ChatCompletionResponse{
		toolCallResponse("tc_1", "get_server_time", "{}"),
		toolCallResponse("tc_2", "get_server_time", "{}"),
		toolCallResponse("tc_3", "get_server_time", "{}"),
		toolCallResponse("tc_4", "get_server_time", "{}"),
	}}
	svc, sessions := newTestService(t, client)

	sess := sessions.GetOrCreate("session-1")
	_, err := svc.Chat(context.Background(), sess, "loop forever", "gpt", "1.2.3.4")
	require.ErrorIs(t, err, domain.ErrToolChainUnresolved)
	assert.Equal(t, 3, client.calls, "loop must stop at the iteration bound")
}

func TestChatPolicyBlockedTool(t *testing.T) {
	client := &scriptedClient{responses: []*llm.ChatCompletionResponse{
		toolCallResponse("tc_1", "execute_shell", `{"cmd":"rm -rf /"}`),
		contentResponse("I cannot do that."),
	}}
	svc, sessions := newTestService(t, client)

	sess := sessions.GetOrCreate("session-1")
	_, err := svc.Chat(context.Background(), sess, "run a command", "gpt", "1.2.3.4")
	require.NoError(t, err)

	require.Len(t, sess.Turns, 4)
	assert.Contains(t, sess.Turns[2].Content, "not permitted")
}

func TestChatUnknownToolDegrades(t *testing.T) {
	client := &scriptedClient{responses: []*llm.ChatCompletionResponse{
		toolCallResponse("tc_1", "no_such_tool", "{}"),
		contentResponse("done"),
	}}
	svc, sessions := newTestService(t, client)

	sess := sessions.GetOrCreate("session-1")
	_, err := svc.Chat(context.Background(), sess, "hi", "gpt", "1.2.3.4")
	require.NoError(t, err)
	assert.Contains(t, sess.Turns[2].Content, "not available")
}

func TestChatStreamTwoPhase(t *testing.T) {
	client := &scriptedClient{
		responses: []*llm.ChatCompletionResponse{contentResponse("discarded buffered answer")},
		streamed:  []string{"It is ", "currently ", "2024-01-01T00:00:00Z."},
	}
	svc, sessions := newTestService(t, client)

	sess := sessions.GetOrCreate("session-1")
	var deltas []string
	err := svc.ChatStream(context.Background(), sess, "What time is it?", "gpt", "1.2.3.4", func(delta string) error {
		deltas = append(deltas, delta)
		return nil
	})
	require.NoError(t, err)

	// Concatenated deltas equal the appended assistant turn.
	joined := strings.Join(deltas, "")
	require.Len(t, sess.Turns, 2)
	assert.Equal(t, joined, sess.Turns[1].Content)
	assert.Equal(t, "It is currently 2024-01-01T00:00:00Z.", joined)

	// The streaming phase disables tools.
	require.NotNil(t, client.streamReq)
	assert.Equal(t, "none", client.streamReq.ToolChoice)
	assert.Empty(t, client.streamReq.Tools)
}

func TestChatStreamUpstreamFailure(t *testing.T) {
	client := &scriptedClient{
		responses: []*llm.ChatCompletionResponse{contentResponse("ok")},
		streamErr: &domain.UpstreamError{Err: errors.New("connection reset")},
	}
	svc, sessions := newTestService(t, client)

	sess := sessions.GetOrCreate("session-1")
	err := svc.ChatStream(context.Background(), sess, "hi", "gpt", "1.2.3.4", func(delta string) error { return nil })
	require.Error(t, err)

	// No assistant turn is appended on a failed stream.
	require.Len(t, sess.Turns, 1)
	assert.Equal(t, domain.RoleUser, sess.Turns[0].Role)
}

func TestChatBufferedSendsTools(t *testing.T) {
	client := &scriptedClient{responses: []*llm.ChatCompletionResponse{contentResponse("hi")}}
	svc, sessions := newTestService(t, client)

	sess := sessions.GetOrCreate("session-1")
	_, err := svc.Chat(context.Background(), sess, "hi", "gpt", "1.2.3.4")
	require.NoError(t, err)

	require.Len(t, client.buffered, 1)
	req := client.buffered[0]
	assert.Equal(t, "auto", req.ToolChoice)
	assert.Len(t, req.Tools, 3)
	require.NotEmpty(t, req.Messages)
	assert.Equal(t, "system", req.Messages[0].Role)
}
