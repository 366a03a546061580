// Package tools provides the registry of locally resolvable functions.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/leiyu1203/chatgate/domain"
)

// ExecutorFunc runs one tool call with the model's raw argument payload.
type ExecutorFunc func(ctx context.Context, args json.RawMessage) (string, error)

// Registry stores tool executors and their descriptors keyed by name.
// The descriptor set is fixed at startup and passed verbatim upstream.
type Registry struct {
	mu        sync.RWMutex
	executors map[string]ExecutorFunc
	descs     []domain.ToolDescriptor
}

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{executors: make(map[string]ExecutorFunc)}
}

// Register adds an executor with its descriptor.
func (r *Registry) Register(desc domain.ToolDescriptor, exec ExecutorFunc) error {
	if desc.Name == "" {
		return fmt.Errorf("tool name is required")
	}
	if exec == nil {
		return fmt.Errorf("executor is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.executors[desc.Name]; exists {
		return fmt.Errorf("executor already registered for %s", desc.Name)
	}
	r.executors[desc.Name] = exec
	r.descs = append(r.descs, desc)
	return nil
}

// MustRegister adds an executor or panics. For startup registration only.
func (r *Registry) MustRegister(desc domain.ToolDescriptor, exec ExecutorFunc) {
	if err := r.Register(desc, exec); err != nil {
		panic(err)
	}
}

// Execute runs the named tool and always yields a result string: unknown
// names and executor failures degrade to descriptive text, so the
// resolution loop always has something to feed back to the model.
func (r *Registry) Execute(ctx context.Context, name string, args json.RawMessage) string {
	r.mu.RLock()
	exec := r.executors[name]
	r.mu.RUnlock()

	if exec == nil {
		return fmt.Sprintf("Tool %q is not available.", name)
	}
	result, err := exec(ctx, args)
	if err != nil {
		return fmt.Sprintf("Tool %q failed: %v", name, err)
	}
	return result
}

// Descriptors returns the registered descriptor set.
func (r *Registry) Descriptors() []domain.ToolDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.ToolDescriptor, len(r.descs))
	copy(out, r.descs)
	return out
}
