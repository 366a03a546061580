package policy

import (
	"context"
	"testing"
)

func TestDefaultPolicyAllows(t *testing.T) {
	e, err := NewEngine(context.Background(), DefaultPolicy)
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}

	decision, _, err := e.Evaluate(context.Background(), map[string]interface{}{
		"tool_name": "get_server_time",
		"args":      map[string]interface{}{},
	})
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if decision != "allow" {
		t.Fatalf("expected allow, got %s", decision)
	}
}

func TestDefaultPolicyBlocksDenied(t *testing.T) {
	e, err := NewEngine(context.Background(), DefaultPolicy)
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}

	decision, _, err := e.Evaluate(context.Background(), map[string]interface{}{
		"tool_name": "execute_shell",
		"args":      map[string]interface{}{},
	})
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if decision != "block" {
		t.Fatalf("expected block, got %s", decision)
	}
}

func TestInvalidPolicy(t *testing.T) {
	if _, err := NewEngine(context.Background(), "not rego at all {{{"); err == nil {
		t.Fatalf("expected error for invalid policy")
	}
}
