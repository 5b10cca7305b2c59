package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	Server struct {
		Host        string   `yaml:"host"`
		Port        int      `yaml:"port"`
		CORSOrigins []string `yaml:"cors_origins"`
	} `yaml:"server"`

	LLM struct {
		BaseURL        string  `yaml:"base_url"`
		Model          string  `yaml:"model"`
		MaxTokens      int     `yaml:"max_tokens"`
		Temperature    float64 `yaml:"temperature"`
		TopP           float64 `yaml:"top_p"`
		TopK           int     `yaml:"top_k"`
		TimeoutSeconds int     `yaml:"timeout_seconds"`
	} `yaml:"llm"`

	Embedding struct {
		Model     string `yaml:"model"`
		VectorDim int    `yaml:"vector_dim"`
	} `yaml:"embedding"`

	Database struct {
		URL       string `yaml:"url"`
		TableName string `yaml:"table_name"`
		BatchSize int    `yaml:"batch_size"`
	} `yaml:"database"`

	RAG struct {
		TopK                int     `yaml:"top_k"`
		SimilarityThreshold float32 `yaml:"similarity_threshold"`
		ChunkSize           int     `yaml:"chunk_size"`
		ChunkOverlap        int     `yaml:"chunk_overlap"`
	} `yaml:"rag"`

	Cache struct {
		Enabled    bool   `yaml:"enabled"`
		Addr       string `yaml:"addr"`
		TTLSeconds int    `yaml:"ttl_seconds"`
	} `yaml:"cache"`

	Corpus struct {
		Path        string `yaml:"path"`
		SourcesPath string `yaml:"sources_path"`
	} `yaml:"corpus"`

	Scraper struct {
		RateLimit      float64 `yaml:"rate_limit"`
		TimeoutSeconds int     `yaml:"timeout_seconds"`
	} `yaml:"scraper"`
}

func LoadConfig(path string) (*Config, error) {
	// .env is optional; environment wins over file values either way.
	_ = godotenv.Load()

	// If no path provided, try default locations
	if path == "" {
		locations := []string{
			"config.yaml",
			"config.yml",
			filepath.Join(os.Getenv("HOME"), ".config/fasotour/config.yaml"),
			"/etc/fasotour/config.yaml",
		}

		for _, loc := range locations {
			if _, err := os.Stat(loc); err == nil {
				path = loc
				break
			}
		}
	}

	if path == "" {
		return getDefaultConfig()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	mergeWithEnv(&config)
	applyDefaults(&config)

	return &config, nil
}

func getDefaultConfig() (*Config, error) {
	config := &Config{}
	mergeWithEnv(config)
	applyDefaults(config)
	return config, nil
}

func applyDefaults(config *Config) {
	if config.App.Name == "" {
		config.App.Name = "Burkina Tourisme Chatbot"
	}
	if config.App.Version == "" {
		config.App.Version = "1.0.0"
	}

	if config.Server.Host == "" {
		config.Server.Host = "0.0.0.0"
	}
	if config.Server.Port == 0 {
		config.Server.Port = 8000
	}
	if len(config.Server.CORSOrigins) == 0 {
		config.Server.CORSOrigins = []string{
			"http://localhost:3000",
			"http://localhost:5173",
			"http://127.0.0.1:5173",
		}
	}

	if config.LLM.BaseURL == "" {
		config.LLM.BaseURL = "http://localhost:11434"
	}
	if config.LLM.Model == "" {
		config.LLM.Model = "mistral"
	}
	if config.LLM.MaxTokens == 0 {
		config.LLM.MaxTokens = 512
	}
	if config.LLM.Temperature == 0 {
		config.LLM.Temperature = 0.7
	}
	if config.LLM.TopP == 0 {
		config.LLM.TopP = 0.9
	}
	if config.LLM.TopK == 0 {
		config.LLM.TopK = 50
	}
	if config.LLM.TimeoutSeconds == 0 {
		config.LLM.TimeoutSeconds = 60
	}

	if config.Embedding.Model == "" {
		config.Embedding.Model = "nomic-embed-text:latest"
	}
	if config.Embedding.VectorDim == 0 {
		config.Embedding.VectorDim = 768
	}

	if config.Database.TableName == "" {
		config.Database.TableName = "documents"
	}
	if config.Database.BatchSize == 0 {
		config.Database.BatchSize = 100
	}

	if config.RAG.TopK == 0 {
		config.RAG.TopK = 5
	}
	if config.RAG.SimilarityThreshold == 0 {
		config.RAG.SimilarityThreshold = 0.3
	}
	if config.RAG.ChunkSize == 0 {
		config.RAG.ChunkSize = 500
	}
	if config.RAG.ChunkOverlap == 0 {
		config.RAG.ChunkOverlap = 50
	}

	if config.Cache.TTLSeconds == 0 {
		config.Cache.TTLSeconds = 300
	}

	if config.Corpus.Path == "" {
		config.Corpus.Path = "data/corpus.json"
	}
	if config.Corpus.SourcesPath == "" {
		config.Corpus.SourcesPath = "data/sources.txt"
	}

	if config.Scraper.RateLimit == 0 {
		config.Scraper.RateLimit = 2.0
	}
	if config.Scraper.TimeoutSeconds == 0 {
		config.Scraper.TimeoutSeconds = 30
	}
}

func mergeWithEnv(config *Config) {
	if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" {
		config.LLM.BaseURL = baseURL
	}
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		config.Database.URL = dbURL
	}
	if model := os.Getenv("EMBEDDING_MODEL"); model != "" {
		config.Embedding.Model = model
	}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		config.Cache.Addr = addr
		config.Cache.Enabled = true
	}
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
}
