package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"google.golang.org/genai"

	"github.com/liao/course-rag/internal/ai"
	"github.com/liao/course-rag/internal/chat"
	"github.com/liao/course-rag/internal/parser"
	"github.com/liao/course-rag/internal/rag"
)

type generator interface {
	Generate(ctx context.Context, query string, history []*genai.Content, tools ai.ToolExecutor) (string, error)
}

// System ties the pieces together: document loading, vector search,
// generation and per-session history.
type System struct {
	gen      generator
	registry *rag.Registry
	sessions *chat.Store
	store    *rag.Store
	loader   *parser.Loader
}

func NewSystem(gen generator, registry *rag.Registry, sessions *chat.Store, store *rag.Store, loader *parser.Loader) *System {
	return &System{
		gen:      gen,
		registry: registry,
		sessions: sessions,
		store:    store,
		loader:   loader,
	}
}

// Query answers a user question. An empty sessionID starts a new
// session; the (possibly fresh) ID is returned so the caller can keep
// the conversation going.
func (s *System) Query(ctx context.Context, query, sessionID string) (string, []rag.Source, string, error) {
	if sessionID == "" {
		sessionID = s.sessions.Create()
	}
	history := s.sessions.History(sessionID)

	s.registry.ResetSources()
	answer, err := s.gen.Generate(ctx, query, history, s.registry)
	if err != nil {
		return "", nil, "", fmt.Errorf("generate answer: %w", err)
	}
	sources := s.registry.LastSources()
	s.registry.ResetSources()

	s.sessions.Append(sessionID, query, answer)
	return answer, sources, sessionID, nil
}

// ClearSession drops a conversation's history.
func (s *System) ClearSession(id string) {
	s.sessions.Clear(id)
}

// LoadCourseFolder ingests every course document in dir. Documents
// whose course title is already indexed are skipped, so re-running on
// the same folder is safe. Returns the number of courses added and
// the total chunks indexed.
func (s *System) LoadCourseFolder(ctx context.Context, dir string) (int, int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, 0, fmt.Errorf("read docs dir: %w", err)
	}

	added, chunks := 0, 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".txt" && ext != ".html" && ext != ".htm" {
			continue
		}
		path := filepath.Join(dir, entry.Name())

		course, err := s.loader.LoadFile(path)
		if err != nil {
			slog.Warn("skipping document", "path", path, "err", err)
			continue
		}

		exists, err := s.store.HasCourse(ctx, course.Title)
		if err != nil {
			return added, chunks, fmt.Errorf("check course %q: %w", course.Title, err)
		}
		if exists {
			slog.Info("course already indexed", "title", course.Title)
			continue
		}

		if err := s.store.AddCourse(ctx, course); err != nil {
			return added, chunks, fmt.Errorf("index course %q: %w", course.Title, err)
		}
		added++
		chunks += course.ChunkCount()
		slog.Info("indexed course", "title", course.Title, "chunks", course.ChunkCount())
	}
	return added, chunks, nil
}

// Analytics reports what is in the index.
func (s *System) Analytics(ctx context.Context) (int, []string, error) {
	titles, err := s.store.CourseTitles(ctx)
	if err != nil {
		return 0, nil, fmt.Errorf("list courses: %w", err)
	}
	return s.store.CourseCount(), titles, nil
}
