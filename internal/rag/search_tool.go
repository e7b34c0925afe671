package rag

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"google.golang.org/genai"
)

// Source is one citation produced by a search, rendered alongside the
// final answer.
type Source struct {
	Label string `json:"label"`
	URL   string `json:"url,omitempty"`
}

// CourseSearchTool is the single model-callable capability: semantic
// search over course content with fuzzy course-name resolution and an
// optional lesson filter. Failures are reported as tool-result text, not
// errors, so the model can compose an answer around them.
type CourseSearchTool struct {
	store         *Store
	topK          int
	minSimilarity float32

	mu          sync.Mutex
	lastSources []Source
}

func NewCourseSearchTool(store *Store, topK int, minSimilarity float32) *CourseSearchTool {
	return &CourseSearchTool{store: store, topK: topK, minSimilarity: minSimilarity}
}

func (t *CourseSearchTool) Name() string { return "search_course_content" }

func (t *CourseSearchTool) Declaration() *genai.FunctionDeclaration {
	return &genai.FunctionDeclaration{
		Name:        t.Name(),
		Description: "Search course materials with smart course name matching and lesson filtering",
		Parameters: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"query": {
					Type:        genai.TypeString,
					Description: "What to search for in the course content",
				},
				"course_name": {
					Type:        genai.TypeString,
					Description: "Course title (partial matches work, e.g. 'MCP' or 'Intro')",
				},
				"lesson_number": {
					Type:        genai.TypeInteger,
					Description: "Specific lesson number to search within (e.g. 1, 2, 3)",
				},
			},
			Required: []string{"query"},
		},
	}
}

// Execute runs one search with model-supplied arguments and remembers the
// sources of whatever it returned. Each call replaces the previous call's
// sources.
func (t *CourseSearchTool) Execute(ctx context.Context, args map[string]any) string {
	query, _ := args["query"].(string)
	if strings.TrimSpace(query) == "" {
		return "Search failed: 'query' argument is required"
	}
	courseName, _ := args["course_name"].(string)
	lessonNumber := intArg(args, "lesson_number")

	resolvedTitle := ""
	if courseName != "" {
		title, similarity, err := t.store.ResolveCourseName(ctx, courseName)
		if err != nil || similarity < t.minSimilarity {
			slog.Debug("course resolution failed", "hint", courseName, "error", err, "similarity", similarity)
			t.setSources(nil)
			return fmt.Sprintf("No course found matching '%s'", courseName)
		}
		resolvedTitle = title
	}

	results, err := t.store.Search(ctx, query, resolvedTitle, lessonNumber, t.topK)
	if err != nil {
		t.setSources(nil)
		return fmt.Sprintf("Search failed: %v", err)
	}
	if len(results) == 0 {
		t.setSources(nil)
		return t.emptyMessage(resolvedTitle, courseName, lessonNumber)
	}

	blocks := make([]string, 0, len(results))
	sources := make([]Source, 0, len(results))
	for _, r := range results {
		label := fmt.Sprintf("%s - Lesson %d", r.CourseTitle, r.LessonNumber)
		blocks = append(blocks, fmt.Sprintf("[%s]\n%s", label, r.Content))

		link, err := t.store.LessonLink(ctx, r.CourseTitle, r.LessonNumber)
		if err != nil {
			slog.Debug("lesson link lookup failed", "course", r.CourseTitle, "lesson", r.LessonNumber, "error", err)
		}
		sources = append(sources, Source{Label: label, URL: link})
	}
	t.setSources(sources)
	return strings.Join(blocks, "\n\n")
}

func (t *CourseSearchTool) emptyMessage(resolvedTitle, courseName string, lessonNumber *int) string {
	var b strings.Builder
	b.WriteString("No relevant content found")
	switch {
	case resolvedTitle != "":
		fmt.Fprintf(&b, " in course '%s'", resolvedTitle)
	case courseName != "":
		fmt.Fprintf(&b, " in course '%s'", courseName)
	}
	if lessonNumber != nil {
		fmt.Fprintf(&b, " in lesson %d", *lessonNumber)
	}
	b.WriteString(".")
	return b.String()
}

// LastSources returns the citations from the most recent search.
func (t *CourseSearchTool) LastSources() []Source {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Source(nil), t.lastSources...)
}

// ResetSources clears the retained citations.
func (t *CourseSearchTool) ResetSources() {
	t.setSources(nil)
}

func (t *CourseSearchTool) setSources(sources []Source) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lastSources = sources
}

func intArg(args map[string]any, key string) *int {
	switch v := args[key].(type) {
	case float64:
		n := int(v)
		return &n
	case int:
		n := v
		return &n
	case int64:
		n := int(v)
		return &n
	}
	return nil
}
