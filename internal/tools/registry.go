// Package tools defines the closed set of gateway tools and their executors.
package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/vantage-bot/gateway/internal/adapter/llm"
)

// Handler is one registered tool: its schema plus its executor. The full
// handler set is assembled by All, so every declared tool carries its
// executor by construction.
type Handler interface {
	// Definition returns the OpenAI-format tool schema.
	Definition() llm.Tool

	// Execute runs the tool with the raw argument JSON from the model.
	Execute(ctx context.Context, args json.RawMessage) (json.RawMessage, error)
}

// Registry maps tool names to handlers.
type Registry struct {
	handlers map[string]Handler
	defs     []llm.Tool
}

// NewRegistry builds a registry from a handler set. Duplicate or empty tool
// names are rejected.
func NewRegistry(handlers ...Handler) (*Registry, error) {
	r := &Registry{
		handlers: make(map[string]Handler, len(handlers)),
		defs:     make([]llm.Tool, 0, len(handlers)),
	}
	for _, h := range handlers {
		def := h.Definition()
		name := def.Function.Name
		if name == "" {
			return nil, fmt.Errorf("tool name is required")
		}
		if _, exists := r.handlers[name]; exists {
			return nil, fmt.Errorf("handler already registered for %s", name)
		}
		r.handlers[name] = h
		r.defs = append(r.defs, def)
	}
	return r, nil
}

// Definitions returns the tool schemas in registration order, suitable for
// the chat completion request's tools field.
func (r *Registry) Definitions() []llm.Tool {
	return r.defs
}

// Names returns the registered tool names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.defs))
	for _, def := range r.defs {
		names = append(names, def.Function.Name)
	}
	return names
}

// Execute runs the handler for the tool name.
func (r *Registry) Execute(ctx context.Context, toolName string, args json.RawMessage) (json.RawMessage, error) {
	if toolName == "" {
		return nil, fmt.Errorf("tool name is required")
	}
	h := r.handlers[toolName]
	if h == nil {
		return nil, fmt.Errorf("unknown tool: %s", toolName)
	}
	return h.Execute(ctx, args)
}
