package rag

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// Tool is a capability the model may invoke during generation.
type Tool interface {
	Name() string
	Declaration() *genai.FunctionDeclaration
	Execute(ctx context.Context, args map[string]any) string
	LastSources() []Source
	ResetSources()
}

// Registry maps tool names to tools and produces the declaration set
// offered to the model.
type Registry struct {
	order []string
	tools map[string]Tool
}

func NewRegistry(tools ...Tool) *Registry {
	r := &Registry{tools: make(map[string]Tool)}
	for _, t := range tools {
		r.Register(t)
	}
	return r
}

func (r *Registry) Register(t Tool) {
	if _, ok := r.tools[t.Name()]; !ok {
		r.order = append(r.order, t.Name())
	}
	r.tools[t.Name()] = t
}

// Declarations returns the genai tool definitions for every registered
// tool, or nil when the registry is empty.
func (r *Registry) Declarations() []*genai.Tool {
	if len(r.order) == 0 {
		return nil
	}
	decls := make([]*genai.FunctionDeclaration, 0, len(r.order))
	for _, name := range r.order {
		decls = append(decls, r.tools[name].Declaration())
	}
	return []*genai.Tool{{FunctionDeclarations: decls}}
}

// Execute dispatches a model-requested call to the named tool. An unknown
// name becomes tool-result text the model can report on.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]any) string {
	t, ok := r.tools[name]
	if !ok {
		return fmt.Sprintf("Tool '%s' not found", name)
	}
	return t.Execute(ctx, args)
}

// LastSources aggregates the retained sources of all tools, in
// registration order.
func (r *Registry) LastSources() []Source {
	var out []Source
	for _, name := range r.order {
		out = append(out, r.tools[name].LastSources()...)
	}
	return out
}

// ResetSources clears retained sources on every tool.
func (r *Registry) ResetSources() {
	for _, t := range r.tools {
		t.ResetSources()
	}
}
