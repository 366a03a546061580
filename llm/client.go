// Package llm provides the client for the upstream chat completion API.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/leiyu1203/chatgate/domain"
)

// StreamCallback is called for each parsed chunk of a streaming response.
type StreamCallback func(chunk *StreamChunk) error

// CompletionClient defines the upstream completion operations the
// orchestration engine depends on.
type CompletionClient interface {
	// CreateChatCompletion sends a buffered (non-streaming) completion call.
	CreateChatCompletion(ctx context.Context, req *ChatCompletionRequest) (*ChatCompletionResponse, error)

	// CreateChatCompletionStream sends a streaming completion call. The
	// callback runs once per parsed chunk; a callback error aborts the read.
	CreateChatCompletionStream(ctx context.Context, req *ChatCompletionRequest, callback StreamCallback) error
}

// Client talks to an OpenAI-compatible completion API.
type Client struct {
	baseURL         string
	apiKey          string
	httpClient      *http.Client
	bufferedTimeout time.Duration
	streamTimeout   time.Duration
	throttle        *rate.Limiter // nil when disabled
}

var _ CompletionClient = (*Client)(nil)

// NewClient creates an upstream client. Buffered calls are bounded by
// bufferedTimeout, streamed calls by streamTimeout. When rps > 0 every
// upstream call first waits on a shared token-bucket throttle.
func NewClient(baseURL, apiKey string, bufferedTimeout, streamTimeout time.Duration, rps float64) *Client {
	c := &Client{
		baseURL:         strings.TrimSuffix(baseURL, "/"),
		apiKey:          apiKey,
		httpClient:      &http.Client{},
		bufferedTimeout: bufferedTimeout,
		streamTimeout:   streamTimeout,
	}
	if rps > 0 {
		c.throttle = rate.NewLimiter(rate.Limit(rps), 1)
	}
	return c
}

// CreateChatCompletion sends a buffered chat completion request.
func (c *Client) CreateChatCompletion(ctx context.Context, req *ChatCompletionRequest) (*ChatCompletionResponse, error) {
	req.Stream = false

	ctx, cancel := context.WithTimeout(ctx, c.bufferedTimeout)
	defer cancel()

	resp, err := c.post(ctx, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.UpstreamError{Err: fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, upstreamStatusError(resp.StatusCode, respBody)
	}

	var result ChatCompletionResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, &domain.UpstreamError{Err: fmt.Errorf("failed to unmarshal response: %w", err)}
	}

	return &result, nil
}

// CreateChatCompletionStream sends a streaming chat completion request and
// invokes callback for every parsed chunk. Chunks arrive on arbitrary byte
// boundaries; the frame decoder reassembles them. Individual malformed
// frames are skipped without aborting the stream.
func (c *Client) CreateChatCompletionStream(ctx context.Context, req *ChatCompletionRequest, callback StreamCallback) error {
	req.Stream = true

	ctx, cancel := context.WithTimeout(ctx, c.streamTimeout)
	defer cancel()

	resp, err := c.post(ctx, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return upstreamStatusError(resp.StatusCode, respBody)
	}

	decoder := NewFrameDecoder()
	buf := make([]byte, 4096)

	for {
		select {
		case <-ctx.Done():
			return &domain.UpstreamError{Err: ctx.Err()}
		default:
		}

		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			for _, payload := range decoder.Feed(buf[:n]) {
				if payload == doneSentinel {
					return nil
				}
				var chunk StreamChunk
				if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
					// One corrupt frame must not drop the rest of the answer.
					continue
				}
				if err := callback(&chunk); err != nil {
					return err
				}
			}
		}
		if readErr == io.EOF {
			return nil
		}
		if readErr != nil {
			return &domain.UpstreamError{Err: fmt.Errorf("failed to read stream: %w", readErr)}
		}
	}
}

func (c *Client) post(ctx context.Context, req *ChatCompletionRequest) (*http.Response, error) {
	if c.throttle != nil {
		if err := c.throttle.Wait(ctx); err != nil {
			return nil, &domain.UpstreamError{Err: err}
		}
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &domain.UpstreamError{Err: fmt.Errorf("failed to send request: %w", err)}
	}
	return resp, nil
}

func upstreamStatusError(status int, body []byte) error {
	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != nil {
		return &domain.UpstreamError{StatusCode: status, Body: errResp.Error.Message}
	}
	return &domain.UpstreamError{StatusCode: status, Body: string(body)}
}
