package ai

import (
	"context"
	"errors"
	"strings"
	"testing"

	"google.golang.org/genai"
)

type modelCall struct {
	contents []*genai.Content
	tools    []*genai.Tool
}

type stubModel struct {
	responses []*genai.GenerateContentResponse
	errs      []error
	calls     []modelCall
}

func (m *stubModel) GenerateContent(_ context.Context, _ string, contents []*genai.Content, tools []*genai.Tool) (*genai.GenerateContentResponse, error) {
	i := len(m.calls)
	m.calls = append(m.calls, modelCall{contents: contents, tools: tools})
	if i < len(m.errs) && m.errs[i] != nil {
		return nil, m.errs[i]
	}
	if i >= len(m.responses) {
		return nil, errors.New("stub exhausted")
	}
	return m.responses[i], nil
}

type stubTools struct {
	result    string
	execCount int
	lastName  string
	lastArgs  map[string]any
}

func (s *stubTools) Declarations() []*genai.Tool {
	return []*genai.Tool{{FunctionDeclarations: []*genai.FunctionDeclaration{{Name: "search_course_content"}}}}
}

func (s *stubTools) Execute(_ context.Context, name string, args map[string]any) string {
	s.execCount++
	s.lastName = name
	s.lastArgs = args
	return s.result
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: text}}},
		}},
	}
}

func toolCallResponse(queries ...string) *genai.GenerateContentResponse {
	parts := make([]*genai.Part, 0, len(queries))
	for _, q := range queries {
		parts = append(parts, &genai.Part{FunctionCall: &genai.FunctionCall{
			Name: "search_course_content",
			Args: map[string]any{"query": q},
		}})
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: &genai.Content{Parts: parts}}},
	}
}

func TestGenerateDirectAnswerSkipsSecondCall(t *testing.T) {
	model := &stubModel{responses: []*genai.GenerateContentResponse{textResponse("direct answer")}}
	tools := &stubTools{}

	answer, err := NewGenerator(model).Generate(context.Background(), "hi", nil, tools)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if answer != "direct answer" {
		t.Errorf("answer = %q", answer)
	}
	if len(model.calls) != 1 {
		t.Errorf("model called %d times, want 1", len(model.calls))
	}
	if tools.execCount != 0 {
		t.Errorf("tool executed %d times, want 0", tools.execCount)
	}
}

func TestGenerateToolCallThenFinalAnswer(t *testing.T) {
	model := &stubModel{responses: []*genai.GenerateContentResponse{
		toolCallResponse("what is covered in lesson 1"),
		textResponse("final answer with facts"),
	}}
	tools := &stubTools{result: "[Intro to X - Lesson 1]\nchunk text"}

	answer, err := NewGenerator(model).Generate(context.Background(), "lesson 1?", nil, tools)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if answer != "final answer with facts" {
		t.Errorf("answer = %q", answer)
	}
	if tools.execCount != 1 {
		t.Fatalf("tool executed %d times, want 1", tools.execCount)
	}
	if tools.lastName != "search_course_content" {
		t.Errorf("tool name = %q", tools.lastName)
	}
	if got := tools.lastArgs["query"]; got != "what is covered in lesson 1" {
		t.Errorf("tool args = %v", tools.lastArgs)
	}

	if len(model.calls) != 2 {
		t.Fatalf("model called %d times, want 2", len(model.calls))
	}
	if model.calls[0].tools == nil {
		t.Error("first call offered no tools")
	}
	if model.calls[1].tools != nil {
		t.Error("second call offered tools; further searches must be structurally impossible")
	}

	// The second call must carry the tool invocation and its result.
	second := model.calls[1].contents
	foundResult := false
	for _, content := range second {
		for _, part := range content.Parts {
			if part.FunctionResponse != nil {
				if s, ok := part.FunctionResponse.Response["result"].(string); ok && strings.Contains(s, "chunk text") {
					foundResult = true
				}
			}
		}
	}
	if !foundResult {
		t.Error("second call does not include the tool result")
	}
}

func TestGenerateExecutesAtMostOneToolCall(t *testing.T) {
	// The stub asks for two searches up front and yet another one on the
	// final call; only the first may execute.
	model := &stubModel{responses: []*genai.GenerateContentResponse{
		toolCallResponse("first query", "second query"),
		toolCallResponse("third query"),
	}}
	tools := &stubTools{result: "result"}

	_, err := NewGenerator(model).Generate(context.Background(), "q", nil, tools)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if tools.execCount != 1 {
		t.Fatalf("tool executed %d times, want exactly 1", tools.execCount)
	}
	if got := tools.lastArgs["query"]; got != "first query" {
		t.Errorf("executed args = %v, want the first requested call", tools.lastArgs)
	}
}

func TestGenerateHistoryPrecedesQuery(t *testing.T) {
	model := &stubModel{responses: []*genai.GenerateContentResponse{textResponse("ok")}}
	history := []*genai.Content{
		genai.NewContentFromText("earlier question", genai.RoleUser),
		genai.NewContentFromText("earlier answer", genai.RoleModel),
	}

	_, err := NewGenerator(model).Generate(context.Background(), "follow-up", history, &stubTools{})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	contents := model.calls[0].contents
	if len(contents) != 3 {
		t.Fatalf("contents length = %d, want history + query", len(contents))
	}
}

func TestGenerateBackendFailurePropagates(t *testing.T) {
	backendErr := errors.New("rate limited")

	model := &stubModel{errs: []error{backendErr}}
	_, err := NewGenerator(model).Generate(context.Background(), "q", nil, &stubTools{})
	if !errors.Is(err, backendErr) {
		t.Fatalf("first-call failure not propagated: %v", err)
	}

	model = &stubModel{
		responses: []*genai.GenerateContentResponse{toolCallResponse("q"), nil},
		errs:      []error{nil, backendErr},
	}
	_, err = NewGenerator(model).Generate(context.Background(), "q", nil, &stubTools{result: "r"})
	if !errors.Is(err, backendErr) {
		t.Fatalf("second-call failure not propagated: %v", err)
	}
	if len(model.calls) != 2 {
		t.Fatalf("model called %d times, want 2", len(model.calls))
	}
}
