package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/liao/course-rag/internal/ai"
	"github.com/liao/course-rag/internal/app"
	"github.com/liao/course-rag/internal/chat"
	"github.com/liao/course-rag/internal/config"
	"github.com/liao/course-rag/internal/parser"
	"github.com/liao/course-rag/internal/rag"
	"github.com/liao/course-rag/internal/server"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "config file path")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})))

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("load config failed", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Gemini client
	aiClient, err := ai.NewClient(ctx,
		cfg.Gemini.APIKey,
		cfg.Gemini.ChatModel,
		cfg.Gemini.EmbeddingModel,
		cfg.Gemini.Temperature,
		cfg.Gemini.MaxOutputTokens,
		cfg.Gemini.RPMLimit,
	)
	if err != nil {
		slog.Error("create AI client failed", "error", err)
		os.Exit(1)
	}
	slog.Info("AI client initialized", "model", cfg.Gemini.ChatModel)

	// vector store
	store, err := rag.NewStore(cfg.RAG.VectorsDir, aiClient.EmbedFunc())
	if err != nil {
		slog.Error("open vector store failed", "error", err)
		os.Exit(1)
	}

	searchTool := rag.NewCourseSearchTool(store, cfg.RAG.TopK, cfg.RAG.MinSimilarity)
	registry := rag.NewRegistry(searchTool)
	gen := ai.NewGenerator(aiClient)
	sessions := chat.NewStore(cfg.Chat.MaxHistory)
	loader := parser.NewLoader(parser.NewChunker(cfg.Chunking.ChunkSize, cfg.Chunking.ChunkOverlap))

	sys := app.NewSystem(gen, registry, sessions, store, loader)

	// index course documents on startup
	if cfg.Server.DocsDir != "" {
		if _, statErr := os.Stat(cfg.Server.DocsDir); statErr == nil {
			added, chunks, err := sys.LoadCourseFolder(ctx, cfg.Server.DocsDir)
			if err != nil {
				slog.Error("load course documents failed", "error", err)
				os.Exit(1)
			}
			slog.Info("course documents loaded", "courses", added, "chunks", chunks, "total", store.CourseCount())
		} else {
			slog.Warn("docs dir not found, starting with existing index", "dir", cfg.Server.DocsDir)
		}
	}

	srv := server.New(sys, cfg.Server.FrontendDir)

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		slog.Info("shutting down...")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown failed", "error", err)
		}
		cancel()
	}()

	slog.Info("starting server", "addr", cfg.Server.Addr)
	if err := srv.Start(cfg.Server.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
