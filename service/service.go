// Package service implements the chat orchestration engine: the tool
// resolution loop and the stream relay.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/leiyu1203/chatgate/config"
	"github.com/leiyu1203/chatgate/domain"
	"github.com/leiyu1203/chatgate/llm"
	"github.com/leiyu1203/chatgate/policy"
	"github.com/leiyu1203/chatgate/session"
	"github.com/leiyu1203/chatgate/store"
	"github.com/leiyu1203/chatgate/tools"
)

// Service coordinates one chat turn end to end.
type Service struct {
	sessions     *session.Store
	locker       *session.Locker
	registry     *tools.Registry
	policyEngine *policy.Engine
	llmClient    llm.CompletionClient
	store        store.Store
	config       *config.Config
}

// New creates a service.
func New(sessions *session.Store, registry *tools.Registry, policyEngine *policy.Engine, llmClient llm.CompletionClient, auditStore store.Store, cfg *config.Config) *Service {
	return &Service{
		sessions:     sessions,
		locker:       session.NewLocker(),
		registry:     registry,
		policyEngine: policyEngine,
		llmClient:    llmClient,
		store:        auditStore,
		config:       cfg,
	}
}

// Sessions exposes the session store to the HTTP layer.
func (s *Service) Sessions() *session.Store {
	return s.sessions
}

// recordEvent records an audit event. Failures are logged, never fatal.
func (s *Service) recordEvent(ctx context.Context, turnID string, eventType domain.EventType, payload interface{}) {
	if s.store == nil {
		return
	}
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		log.Printf("WARN: failed to marshal %s payload: %v", eventType, err)
		return
	}
	event := &domain.Event{
		EventID: "evt_" + uuid.New().String()[:8],
		TurnID:  turnID,
		Ts:      time.Now().UnixMilli(),
		Type:    eventType,
		Payload: payloadJSON,
	}
	if err := s.store.CreateEvent(ctx, event); err != nil {
		log.Printf("WARN: failed to record %s event: %v", eventType, err)
	}
}

func newTurnID() string {
	return "turn_" + uuid.New().String()[:8]
}

func newRequestID() string {
	return fmt.Sprintf("llm_%s", uuid.New().String()[:8])
}
