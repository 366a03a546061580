package service

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/leiyu1203/chatgate/domain"
	"github.com/leiyu1203/chatgate/llm"
	"github.com/leiyu1203/chatgate/metrics"
)

// systemPrompt is the fixed system turn prepended to every upstream call.
const systemPrompt = "You are a helpful assistant. Use the available tools when they help you answer, and answer concisely."

// DeltaFunc receives each increment of the streamed answer.
type DeltaFunc func(delta string) error

// ChatResult is the outcome of a buffered chat turn.
type ChatResult struct {
	Answer     string
	Iterations int
}

// Chat runs one buffered chat turn: append the user turn, resolve tool
// calls, append the final assistant answer. The session is serialized for
// the whole turn.
func (s *Service) Chat(ctx context.Context, sess *domain.Session, message, model, clientKey string) (*ChatResult, error) {
	s.locker.Lock(sess.ID)
	defer s.locker.Unlock(sess.ID)

	turnID := newTurnID()
	s.recordEvent(ctx, turnID, domain.EventTypeChatStarted, domain.ChatStartedPayload{
		TurnID: turnID, SessionID: sess.ID, Model: model, Stream: false,
	})
	s.recordEvent(ctx, turnID, domain.EventTypeUserInput, domain.UserInputPayload{TurnID: turnID, Content: message})

	s.sessions.Append(sess, domain.Turn{Role: domain.RoleUser, Content: message})

	answer, state, iterations, err := s.resolveTools(ctx, turnID, sess, model, clientKey)
	if err != nil {
		s.recordFailure(ctx, turnID, state, err)
		return nil, err
	}

	s.sessions.Append(sess, domain.Turn{Role: domain.RoleAssistant, Content: answer})
	s.recordEvent(ctx, turnID, domain.EventTypeChatDone, domain.ChatDonePayload{
		TurnID: turnID, FinalMessage: answer, Iterations: iterations,
	})
	return &ChatResult{Answer: answer, Iterations: iterations}, nil
}

// ChatStream runs one streamed chat turn: append the user turn, resolve
// tool calls with buffered upstream calls, then relay exactly one streamed
// call to onDelta. The accumulated stream text — not the buffered answer
// that terminated the loop — becomes the session's assistant turn.
func (s *Service) ChatStream(ctx context.Context, sess *domain.Session, message, model, clientKey string, onDelta DeltaFunc) error {
	s.locker.Lock(sess.ID)
	defer s.locker.Unlock(sess.ID)

	turnID := newTurnID()
	s.recordEvent(ctx, turnID, domain.EventTypeChatStarted, domain.ChatStartedPayload{
		TurnID: turnID, SessionID: sess.ID, Model: model, Stream: true,
	})
	s.recordEvent(ctx, turnID, domain.EventTypeUserInput, domain.UserInputPayload{TurnID: turnID, Content: message})

	s.sessions.Append(sess, domain.Turn{Role: domain.RoleUser, Content: message})

	if _, state, _, err := s.resolveTools(ctx, turnID, sess, model, clientKey); err != nil {
		s.recordFailure(ctx, turnID, state, err)
		return err
	}

	answer, err := s.relayStream(ctx, turnID, sess, model, onDelta)
	if err != nil {
		s.recordFailure(ctx, turnID, domain.TurnStateAnswered, err)
		return err
	}

	s.sessions.Append(sess, domain.Turn{Role: domain.RoleAssistant, Content: answer})
	s.recordEvent(ctx, turnID, domain.EventTypeChatDone, domain.ChatDonePayload{
		TurnID: turnID, FinalMessage: answer,
	})
	return nil
}

// resolveTools drives the conversation to a non-tool-call answer with at
// most MaxToolIterations buffered upstream calls. It is an explicit state
// machine — Calling, ToolsPending, Answered, Exhausted — whose only
// repetition is the counted iteration, so termination is unconditional.
// Each tool call is gated by the policy engine and executed synchronously
// in the order received; its result is appended as a tool turn so the
// next call sees it.
func (s *Service) resolveTools(ctx context.Context, turnID string, sess *domain.Session, model, clientKey string) (string, domain.TurnState, int, error) {
	state := domain.TurnStateCalling

	for i := 0; i < s.config.MaxToolIterations; i++ {
		req := s.buildRequest(sess, model, false)
		resp, err := s.completeBuffered(ctx, turnID, req)
		if err != nil {
			return "", state, i + 1, err
		}

		if len(resp.Choices) == 0 || resp.Choices[0].Message == nil {
			return "", state, i + 1, &domain.UpstreamError{Err: errNoChoices}
		}
		msg := resp.Choices[0].Message

		if len(msg.ToolCalls) == 0 {
			return msg.Content, domain.TurnStateAnswered, i + 1, nil
		}

		state = domain.TurnStateToolsPending
		calls := llm.ToolCallsFromWire(msg.ToolCalls)
		s.sessions.Append(sess, domain.Turn{
			Role:      domain.RoleAssistant,
			Content:   msg.Content,
			ToolCalls: calls,
		})

		for _, call := range calls {
			result := s.executeToolCall(ctx, turnID, call, clientKey)
			s.sessions.Append(sess, domain.Turn{
				Role:       domain.RoleTool,
				Content:    result,
				ToolCallID: call.ID,
			})
		}
		state = domain.TurnStateCalling
	}

	return "", domain.TurnStateExhausted, s.config.MaxToolIterations, domain.ErrToolChainUnresolved
}

// relayStream issues the single streamed upstream call with tools disabled
// and re-emits each content delta downstream while accumulating the full
// answer. Tool use is off in this phase: a tool call surfacing mid-stream
// could not be resolved without breaking the stream.
func (s *Service) relayStream(ctx context.Context, turnID string, sess *domain.Session, model string, onDelta DeltaFunc) (string, error) {
	req := s.buildRequest(sess, model, true)

	requestID := newRequestID()
	startTime := time.Now()
	s.recordEvent(ctx, turnID, domain.EventTypeLLMCallStarted, domain.LLMCallStartedPayload{
		RequestID: requestID, Model: model, Stream: true,
	})

	var accum strings.Builder
	err := s.llmClient.CreateChatCompletionStream(ctx, req, func(chunk *llm.StreamChunk) error {
		delta := chunk.DeltaContent()
		if delta == "" {
			return nil
		}
		accum.WriteString(delta)
		return onDelta(delta)
	})

	donePayload := domain.LLMCallDonePayload{
		RequestID: requestID, Model: model, LatencyMs: time.Since(startTime).Milliseconds(),
	}
	if err != nil {
		donePayload.Error = err.Error()
		metrics.UpstreamErrors.Inc()
	}
	s.recordEvent(ctx, turnID, domain.EventTypeLLMCallDone, donePayload)

	if err != nil {
		return "", err
	}
	return accum.String(), nil
}

// buildRequest reconstructs the upstream conversation: the fixed system
// turn followed by the session history. Tools ride along only on buffered
// calls; the streaming phase disables tool choice outright.
func (s *Service) buildRequest(sess *domain.Session, model string, streaming bool) *llm.ChatCompletionRequest {
	messages := make([]llm.ChatMessage, 0, len(sess.Turns)+1)
	messages = append(messages, llm.ChatMessage{Role: domain.RoleSystem, Content: systemPrompt})
	messages = append(messages, llm.MessagesFromTurns(s.sessions.Snapshot(sess))...)

	temp := s.config.Temperature
	req := &llm.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		Temperature: &temp,
	}
	if streaming {
		req.ToolChoice = "none"
	} else if descs := s.registry.Descriptors(); len(descs) > 0 {
		req.Tools = llm.ToolsFromDescriptors(descs)
		req.ToolChoice = "auto"
	}
	return req
}

// completeBuffered performs one buffered upstream call with audit events
// and upstream error accounting.
func (s *Service) completeBuffered(ctx context.Context, turnID string, req *llm.ChatCompletionRequest) (*llm.ChatCompletionResponse, error) {
	requestID := newRequestID()
	startTime := time.Now()
	s.recordEvent(ctx, turnID, domain.EventTypeLLMCallStarted, domain.LLMCallStartedPayload{
		RequestID: requestID, Model: req.Model, Stream: false,
	})

	resp, err := s.llmClient.CreateChatCompletion(ctx, req)

	donePayload := domain.LLMCallDonePayload{
		RequestID: requestID, Model: req.Model, LatencyMs: time.Since(startTime).Milliseconds(),
	}
	if err != nil {
		donePayload.Error = err.Error()
		metrics.UpstreamErrors.Inc()
	} else if resp.Usage != nil {
		donePayload.PromptTokens = resp.Usage.PromptTokens
		donePayload.CompletionTokens = resp.Usage.CompletionTokens
		donePayload.TotalTokens = resp.Usage.TotalTokens
	}
	s.recordEvent(ctx, turnID, domain.EventTypeLLMCallDone, donePayload)

	return resp, err
}

// executeToolCall gates one tool call through the policy engine and runs
// it. The loop always receives a result string, never an error: blocked
// and failed calls degrade to descriptive text fed back to the model.
func (s *Service) executeToolCall(ctx context.Context, turnID string, call domain.ToolCall, clientKey string) string {
	s.recordEvent(ctx, turnID, domain.EventTypeToolCall, domain.ToolCallPayload{
		ToolCallID: call.ID, ToolName: call.Name, Args: call.Arguments,
	})

	policyInput := map[string]interface{}{
		"tool_name":  call.Name,
		"client_key": clientKey,
		"args":       map[string]interface{}{},
	}
	if call.Arguments != "" {
		var argsMap map[string]interface{}
		if err := json.Unmarshal([]byte(call.Arguments), &argsMap); err == nil {
			policyInput["args"] = argsMap
		}
	}

	startTime := time.Now()
	var result string
	decision, reason, err := s.policyEngine.Evaluate(ctx, policyInput)
	if err != nil {
		log.Printf("WARN: policy evaluation failed for %s: %v", call.Name, err)
		decision = "allow"
	}
	s.recordEvent(ctx, turnID, domain.EventTypePolicyDecision, domain.PolicyDecisionPayload{
		ToolCallID: call.ID, Decision: decision, Reason: reason,
	})

	if decision == "block" {
		result = "Tool " + call.Name + " is not permitted by policy."
	} else {
		result = s.registry.Execute(ctx, call.Name, json.RawMessage(call.Arguments))
		metrics.ToolExecutions.WithLabelValues(call.Name).Inc()
	}

	s.recordEvent(ctx, turnID, domain.EventTypeToolResult, domain.ToolResultPayload{
		ToolCallID: call.ID, Result: result, LatencyMs: time.Since(startTime).Milliseconds(),
	})
	return result
}

func (s *Service) recordFailure(ctx context.Context, turnID string, state domain.TurnState, err error) {
	code := "upstream_error"
	if state == domain.TurnStateExhausted || errors.Is(err, domain.ErrToolChainUnresolved) {
		code = "tool_chain_unresolved"
	}
	s.recordEvent(ctx, turnID, domain.EventTypeChatFailed, domain.ChatFailedPayload{
		TurnID: turnID, Code: code, Message: err.Error(),
	})
}

var errNoChoices = errors.New("upstream response carried no choices")
