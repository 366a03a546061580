package api

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/labstack/echo/v4"

	"github.com/leiyu1203/chatgate/domain"
	"github.com/leiyu1203/chatgate/metrics"
)

// Chat handles a buffered chat turn.
// POST /api/chat
func (h *Handler) Chat(c echo.Context) error {
	ctx := c.Request().Context()

	req, ok := h.admit(c, "chat")
	if !ok {
		return nil
	}

	sess := h.svc.Sessions().GetOrCreate(req.SessionID)
	result, err := h.svc.Chat(ctx, sess, req.Message, req.Model, c.RealIP())
	if err != nil {
		log.Printf("ERROR: chat turn failed: %v", err)
		metrics.ChatRequests.WithLabelValues("chat", "error").Inc()
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "chat turn failed"})
	}

	metrics.ChatRequests.WithLabelValues("chat", "ok").Inc()
	return c.JSON(http.StatusOK, domain.ChatResponse{
		SessionID: sess.ID,
		Message:   result.Answer,
		Model:     req.Model,
	})
}

// ChatStream handles a streamed chat turn over server-sent events.
// POST /api/chat/stream
func (h *Handler) ChatStream(c echo.Context) error {
	ctx := c.Request().Context()

	req, ok := h.admit(c, "chat_stream")
	if !ok {
		return nil
	}

	resp := c.Response()
	resp.Header().Set(echo.HeaderContentType, "text/event-stream")
	resp.Header().Set("Cache-Control", "no-cache")
	resp.Header().Set("Connection", "keep-alive")
	resp.WriteHeader(http.StatusOK)

	if err := writeSSE(resp, domain.ModelEvent{Model: req.Model}); err != nil {
		return nil
	}

	sess := h.svc.Sessions().GetOrCreate(req.SessionID)
	err := h.svc.ChatStream(ctx, sess, req.Message, req.Model, c.RealIP(), func(delta string) error {
		return writeSSE(resp, domain.DeltaEvent{Delta: delta})
	})
	if err != nil {
		// Headers are already out, so the failure travels in-band.
		log.Printf("ERROR: stream turn failed: %v", err)
		metrics.ChatRequests.WithLabelValues("chat_stream", "error").Inc()
		writeSSE(resp, domain.ErrorEvent{Error: "stream failed"})
		return nil
	}

	metrics.ChatRequests.WithLabelValues("chat_stream", "ok").Inc()
	fmt.Fprintf(resp, "data: %s\n\n", domain.StreamDone)
	resp.Flush()
	return nil
}

// ClearMemory drops a session's history. Clearing an unknown or
// anonymous session is a no-op that still succeeds.
// POST /api/memory/clear
func (h *Handler) ClearMemory(c echo.Context) error {
	var req domain.ChatRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	h.svc.Sessions().Delete(req.SessionID)
	return c.JSON(http.StatusOK, map[string]interface{}{"ok": true})
}

// admit binds and validates the chat request body and applies the
// per-client rate limit. On rejection the response has already been
// written and ok is false.
func (h *Handler) admit(c echo.Context, endpoint string) (req *domain.ChatRequest, ok bool) {
	req = new(domain.ChatRequest)
	if err := c.Bind(req); err != nil {
		metrics.ChatRequests.WithLabelValues(endpoint, "bad_request").Inc()
		c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return nil, false
	}

	if req.Message == "" {
		metrics.ChatRequests.WithLabelValues(endpoint, "bad_request").Inc()
		c.JSON(http.StatusBadRequest, map[string]string{"error": "message is required"})
		return nil, false
	}
	if utf8.RuneCountInString(req.Message) > h.config.MaxMessageChars {
		metrics.ChatRequests.WithLabelValues(endpoint, "bad_request").Inc()
		c.JSON(http.StatusBadRequest, map[string]string{
			"error": fmt.Sprintf("message exceeds %d characters", h.config.MaxMessageChars),
		})
		return nil, false
	}

	if req.Model == "" {
		req.Model = h.config.DefaultModel
	}
	if !h.config.ModelAllowed(req.Model) {
		metrics.ChatRequests.WithLabelValues(endpoint, "bad_request").Inc()
		c.JSON(http.StatusBadRequest, map[string]string{
			"error": fmt.Sprintf("model %q is not allowed", req.Model),
		})
		return nil, false
	}

	now := time.Now()
	allowed, retryAfter := h.limiter.Admit(c.RealIP(), now)
	if !allowed {
		metrics.RateLimited.Inc()
		c.Response().Header().Set("Retry-After", strconv.Itoa(retryAfter))
		c.JSON(http.StatusTooManyRequests, map[string]interface{}{
			"error":       "rate limit exceeded",
			"retry_after": retryAfter,
		})
		return nil, false
	}

	// Expired sessions are reaped opportunistically on admitted traffic;
	// the background ticker covers idle periods.
	if swept := h.svc.Sessions().Sweep(now); swept > 0 {
		metrics.SessionsSwept.Add(float64(swept))
	}

	return req, true
}

// writeSSE emits one event as a data record and flushes it downstream.
func writeSSE(resp *echo.Response, event interface{}) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(resp, "data: %s\n\n", payload); err != nil {
		return err
	}
	resp.Flush()
	return nil
}
