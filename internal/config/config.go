package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Gemini   GeminiConfig   `mapstructure:"gemini"`
	RAG      RAGConfig      `mapstructure:"rag"`
	Chunking ChunkingConfig `mapstructure:"chunking"`
	Chat     ChatConfig     `mapstructure:"chat"`
}

type ServerConfig struct {
	Addr        string `mapstructure:"addr"`
	DocsDir     string `mapstructure:"docs_dir"`
	FrontendDir string `mapstructure:"frontend_dir"`
}

type GeminiConfig struct {
	APIKey          string  `mapstructure:"api_key"`
	ChatModel       string  `mapstructure:"chat_model"`
	EmbeddingModel  string  `mapstructure:"embedding_model"`
	Temperature     float32 `mapstructure:"temperature"`
	MaxOutputTokens int32   `mapstructure:"max_output_tokens"`
	RPMLimit        int     `mapstructure:"rpm_limit"`
}

type RAGConfig struct {
	VectorsDir    string  `mapstructure:"vectors_dir"`
	TopK          int     `mapstructure:"top_k"`
	MinSimilarity float32 `mapstructure:"min_similarity"`
}

type ChunkingConfig struct {
	ChunkSize    int `mapstructure:"chunk_size"`
	ChunkOverlap int `mapstructure:"chunk_overlap"`
}

type ChatConfig struct {
	MaxHistory int `mapstructure:"max_history"`
}

func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("server.addr", ":8000")
	v.SetDefault("server.docs_dir", "docs")
	v.SetDefault("gemini.chat_model", "gemini-2.0-flash")
	v.SetDefault("gemini.embedding_model", "text-embedding-004")
	v.SetDefault("gemini.max_output_tokens", 800)
	v.SetDefault("rag.vectors_dir", "data/vectors")
	v.SetDefault("rag.top_k", 5)
	v.SetDefault("chunking.chunk_size", 800)
	v.SetDefault("chunking.chunk_overlap", 100)
	v.SetDefault("chat.max_history", 2)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// env override
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		v.Set("gemini.api_key", key)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.Gemini.APIKey == "" {
		return nil, fmt.Errorf("gemini.api_key is required (set in config or GEMINI_API_KEY env)")
	}

	return &cfg, nil
}
