package ai

import (
	"context"
	"fmt"
	"log/slog"

	"google.golang.org/genai"
)

// Model is the single-invocation surface of the language model backend.
// *Client implements it; tests substitute stubs.
type Model interface {
	GenerateContent(ctx context.Context, system string, contents []*genai.Content, tools []*genai.Tool) (*genai.GenerateContentResponse, error)
}

// ToolExecutor supplies tool definitions for a model call and executes a
// model-requested invocation.
type ToolExecutor interface {
	Declarations() []*genai.Tool
	Execute(ctx context.Context, name string, args map[string]any) string
}

// Generator drives answer generation: one model call with tools offered,
// at most one tool execution, then one final call with no tools. Every
// query completes in at most two model invocations.
type Generator struct {
	model Model
}

func NewGenerator(model Model) *Generator {
	return &Generator{model: model}
}

// Generate produces the final answer for a query given prior conversation
// history. Backend failures are returned unretried.
func (g *Generator) Generate(ctx context.Context, query string, history []*genai.Content, tools ToolExecutor) (string, error) {
	contents := make([]*genai.Content, 0, len(history)+3)
	contents = append(contents, history...)
	contents = append(contents, genai.NewContentFromText(query, genai.RoleUser))

	var decls []*genai.Tool
	if tools != nil {
		decls = tools.Declarations()
	}

	resp, err := g.model.GenerateContent(ctx, SystemPrompt, contents, decls)
	if err != nil {
		return "", fmt.Errorf("model call: %w", err)
	}

	calls := functionCalls(resp)
	if len(calls) == 0 || tools == nil {
		return resp.Text(), nil
	}

	// Execute only the first requested call; anything further the model
	// asked for in the same response is discarded, and the replayed
	// assistant turn contains just the executed call so the call/response
	// pair stays consistent.
	call := calls[0]
	if len(calls) > 1 {
		slog.Debug("model requested multiple tool calls, executing first only", "requested", len(calls))
	}
	result := tools.Execute(ctx, call.Name, call.Args)

	contents = append(contents,
		genai.NewContentFromParts([]*genai.Part{{FunctionCall: call}}, genai.RoleModel),
		genai.NewContentFromParts([]*genai.Part{{FunctionResponse: &genai.FunctionResponse{
			Name:     call.Name,
			Response: map[string]any{"result": result},
		}}}, genai.RoleUser),
	)

	// Second call offers no tools, so another search is impossible.
	resp, err = g.model.GenerateContent(ctx, SystemPrompt, contents, nil)
	if err != nil {
		return "", fmt.Errorf("model call: %w", err)
	}
	return resp.Text(), nil
}

func functionCalls(resp *genai.GenerateContentResponse) []*genai.FunctionCall {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil
	}
	var calls []*genai.FunctionCall
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil && part.FunctionCall != nil {
			calls = append(calls, part.FunctionCall)
		}
	}
	return calls
}
