package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/liao/course-rag/internal/ai"
	"github.com/liao/course-rag/internal/parser"
	"github.com/liao/course-rag/internal/rag"
)

func main() {
	docsDir := flag.String("docs", "docs", "directory of course documents (.txt/.html)")
	vectorsDir := flag.String("vectors", "data/vectors", "vector store directory")
	apiKey := flag.String("api-key", "", "Gemini API key (or set GEMINI_API_KEY env)")
	embeddingModel := flag.String("embedding-model", "text-embedding-004", "embedding model name")
	chunkSize := flag.Int("chunk-size", 800, "target chunk size in characters")
	chunkOverlap := flag.Int("chunk-overlap", 100, "overlap between consecutive chunks")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})))

	key := *apiKey
	if key == "" {
		key = os.Getenv("GEMINI_API_KEY")
	}
	if key == "" {
		fmt.Fprintf(os.Stderr, "Error: Gemini API key required (-api-key or GEMINI_API_KEY env)\n")
		os.Exit(1)
	}

	ctx := context.Background()

	aiClient, err := ai.NewClient(ctx, key, "", *embeddingModel, 0, 0, 0)
	if err != nil {
		slog.Error("create AI client failed", "error", err)
		os.Exit(1)
	}

	store, err := rag.NewStore(*vectorsDir, aiClient.EmbedFunc())
	if err != nil {
		slog.Error("open vector store failed", "error", err)
		os.Exit(1)
	}

	loader := parser.NewLoader(parser.NewChunker(*chunkSize, *chunkOverlap))

	entries, err := os.ReadDir(*docsDir)
	if err != nil {
		slog.Error("read docs dir failed", "error", err)
		os.Exit(1)
	}

	added, skipped, chunks := 0, 0, 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".txt" && ext != ".html" && ext != ".htm" {
			continue
		}
		path := filepath.Join(*docsDir, entry.Name())
		course, err := loader.LoadFile(path)
		if err != nil {
			slog.Warn("skipping document", "path", path, "err", err)
			skipped++
			continue
		}
		exists, err := store.HasCourse(ctx, course.Title)
		if err != nil {
			slog.Error("check course failed", "title", course.Title, "error", err)
			os.Exit(1)
		}
		if exists {
			slog.Info("course already indexed", "title", course.Title)
			skipped++
			continue
		}
		if err := store.AddCourse(ctx, course); err != nil {
			slog.Error("index course failed", "title", course.Title, "error", err)
			os.Exit(1)
		}
		added++
		chunks += course.ChunkCount()
		slog.Info("indexed course", "title", course.Title, "lessons", len(course.Lessons), "chunks", course.ChunkCount())
	}

	fmt.Printf("\nDone. %d courses added, %d skipped, %d chunks indexed, %d courses total.\n",
		added, skipped, chunks, store.CourseCount())
}
