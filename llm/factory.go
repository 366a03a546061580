package llm

import (
	"log"
	"os"
	"time"
)

const (
	// EnvGatewayMode is the environment variable name for mode selection.
	EnvGatewayMode = "CHATGATE_MODE"
	// ModeMock indicates the offline mock client should be used.
	ModeMock = "MOCK"
)

// NewCompletionClient creates a completion client based on CHATGATE_MODE.
// CHATGATE_MODE=MOCK returns the offline mock; anything else the real client.
func NewCompletionClient(baseURL, apiKey string, bufferedTimeout, streamTimeout time.Duration, rps float64) CompletionClient {
	if os.Getenv(EnvGatewayMode) == ModeMock {
		log.Println("CHATGATE_MODE=MOCK detected, using mock completion client")
		return NewMockClient()
	}
	return NewClient(baseURL, apiKey, bufferedTimeout, streamTimeout, rps)
}
