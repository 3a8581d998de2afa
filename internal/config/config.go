package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xxxsen/common/logger"
)

type Config struct {
	Port        int               `json:"port"`
	CORSOrigins []string          `json:"cors_origins"`
	AdminToken  string            `json:"admin_token"`
	RateLimitMS int               `json:"rate_limit_ms"`
	LogConfig   logger.LogConfig  `json:"log_config"`
	Corpus      CorpusConfig      `json:"corpus"`
	VectorStore VectorStoreConfig `json:"vector_store"`
	AI          AIConfig          `json:"ai"`
	RAG         RAGConfig         `json:"rag"`
	Schedule    ScheduleConfig    `json:"schedule"`
}

type CorpusConfig struct {
	Source        string      `json:"source"`
	Data          interface{} `json:"data"`
	MaxChunkChars int         `json:"max_chunk_chars"`
	MinChunkChars int         `json:"min_chunk_chars"`
}

type VectorStoreConfig struct {
	Type      string      `json:"type"`
	Dimension int         `json:"dimension"`
	Data      interface{} `json:"data"`
}

type AIProviderConfig struct {
	Provider string      `json:"provider"`
	Model    string      `json:"model"`
	Data     interface{} `json:"data"`
}

type AIConfig struct {
	// Generator is optional: without one the service answers with the
	// local keyword-extractive method only.
	Generator      *AIProviderConfig `json:"generator"`
	Embedder       *AIProviderConfig `json:"embedder"`
	TimeoutSeconds int               `json:"timeout_seconds"`
	EmbedCacheSize int               `json:"embed_cache_size"`
	EmbedCacheTTL  int               `json:"embed_cache_ttl_minutes"`
}

type RAGConfig struct {
	RetrieveLimit   int     `json:"retrieve_limit"`
	Confidence      float64 `json:"confidence"`
	VerifyGrounding bool    `json:"verify_grounding"`
	UploadBatchSize int     `json:"upload_batch_size"`
}

type ScheduleConfig struct {
	// Reindex is a cron spec; empty disables the scheduled re-index.
	Reindex string `json:"reindex"`
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Port == 0 {
		return nil, fmt.Errorf("port is required")
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	if cfg.Corpus.Source == "" {
		cfg.Corpus.Source = "local"
	}
	if cfg.Corpus.MaxChunkChars == 0 {
		cfg.Corpus.MaxChunkChars = 1000
	}
	if cfg.Corpus.MinChunkChars == 0 {
		cfg.Corpus.MinChunkChars = 50
	}
	if cfg.VectorStore.Type == "" {
		return nil, fmt.Errorf("vector_store.type is required")
	}
	if cfg.VectorStore.Dimension == 0 {
		cfg.VectorStore.Dimension = 384
	}
	if cfg.AI.Embedder == nil || cfg.AI.Embedder.Provider == "" || cfg.AI.Embedder.Model == "" {
		return nil, fmt.Errorf("ai.embedder provider/model are required")
	}
	if cfg.AI.Generator != nil && (cfg.AI.Generator.Provider == "" || cfg.AI.Generator.Model == "") {
		return nil, fmt.Errorf("ai.generator provider/model are required when set")
	}
	if cfg.AI.TimeoutSeconds == 0 {
		cfg.AI.TimeoutSeconds = 30
	}
	if cfg.RAG.RetrieveLimit == 0 {
		cfg.RAG.RetrieveLimit = 5
	}
	if cfg.RAG.Confidence == 0 {
		cfg.RAG.Confidence = 0.95
	}
	if cfg.RAG.UploadBatchSize == 0 {
		cfg.RAG.UploadBatchSize = 100
	}
	return &cfg, nil
}
