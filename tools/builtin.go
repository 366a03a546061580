package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/leiyu1203/chatgate/domain"
)

// NewDefaultRegistry returns a registry with the built-in tools.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()

	r.MustRegister(domain.ToolDescriptor{
		Name:        "get_server_time",
		Description: "Returns the current server time in UTC.",
		Parameters: map[string]any{
			"type":                 "object",
			"properties":           map[string]any{},
			"additionalProperties": false,
		},
	}, func(ctx context.Context, args json.RawMessage) (string, error) {
		return time.Now().UTC().Format(time.RFC3339), nil
	})

	r.MustRegister(domain.ToolDescriptor{
		Name:        "roll_dice",
		Description: "Rolls dice and returns the results.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"sides": map[string]any{"type": "integer", "description": "Number of sides per die."},
				"count": map[string]any{"type": "integer", "description": "Number of dice to roll."},
			},
			"additionalProperties": false,
		},
	}, func(ctx context.Context, args json.RawMessage) (string, error) {
		var req struct {
			Sides int `json:"sides"`
			Count int `json:"count"`
		}
		if len(args) > 0 {
			if err := json.Unmarshal(args, &req); err != nil {
				return "", fmt.Errorf("invalid arguments: %w", err)
			}
		}
		if req.Sides <= 0 {
			req.Sides = 6
		}
		if req.Count <= 0 {
			req.Count = 1
		}
		if req.Count > 20 {
			req.Count = 20
		}
		rolls := make([]string, req.Count)
		for i := range rolls {
			rolls[i] = fmt.Sprintf("%d", rand.Intn(req.Sides)+1)
		}
		return strings.Join(rolls, ", "), nil
	})

	r.MustRegister(domain.ToolDescriptor{
		Name:        "summarize_text",
		Description: "Produces a short summary of the given text.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"text": map[string]any{"type": "string", "description": "Text to summarize."},
			},
			"required":             []string{"text"},
			"additionalProperties": false,
		},
	}, func(ctx context.Context, args json.RawMessage) (string, error) {
		var req struct {
			Text string `json:"text"`
		}
		if err := json.Unmarshal(args, &req); err != nil {
			return "", fmt.Errorf("invalid arguments: %w", err)
		}
		words := strings.Fields(req.Text)
		if len(words) <= 25 {
			return req.Text, nil
		}
		return strings.Join(words[:25], " ") + "…", nil
	})

	return r
}
