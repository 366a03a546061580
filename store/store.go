// Package store defines the audit event storage interface and implementations.
package store

import (
	"context"

	"github.com/leiyu1203/chatgate/domain"
)

// Store persists the audit trail of chat turn lifecycle events. It is an
// append-mostly log; conversation state itself never touches disk.
type Store interface {
	CreateEvent(ctx context.Context, event *domain.Event) error
	GetEvents(ctx context.Context, turnID string, afterTs int64, limit int) ([]domain.Event, error)
	Close() error
}
