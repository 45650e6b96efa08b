package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Qdrant   QdrantConfig
	LLM      LLMConfig
	Storage  StorageConfig
	Worker   WorkerConfig
	Pipeline PipelineConfig
}

type ServerConfig struct {
	Port     string
	Env      string
	LogLevel string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

type QdrantConfig struct {
	URL        string
	APIKey     string
	Collection string
	VectorSize uint64
	Timeout    time.Duration
}

type LLMConfig struct {
	Provider string

	GeminiAPIKey     string
	GeminiModel      string
	GeminiEmbedModel string

	OllamaURL        string
	OllamaModel      string
	OllamaEmbedModel string

	RequestTimeout time.Duration
	MaxTokens      int
	Temperature    float32
}

type StorageConfig struct {
	UploadPath  string
	MaxFileSize int64
}

type WorkerConfig struct {
	Concurrency  int
	PollInterval time.Duration
}

// PipelineConfig holds the evaluation pipeline knobs. RequisitesFile
// points at a YAML file with the weighted requirements; when empty the
// built-in default set is used.
type PipelineConfig struct {
	RequisitesFile    string
	ChunkSize         int
	ChunkOverlap      int
	MinDocumentChars  int
	EvidenceK         int
	ExtractionRetries int
	JudgeRetries      int
	SummaryRetries    int
	IndexAttempts     int
	IndexRetryDelay   time.Duration
	EvalConcurrency   int
	StrengthThreshold int
	GapThreshold      int
}

func Load() *Config {
	// Missing .env is fine, env vars and defaults cover it.
	_ = godotenv.Load()

	return &Config{
		Server: ServerConfig{
			Port:     getEnv("PORT", "3000"),
			Env:      getEnv("ENV", "development"),
			LogLevel: getEnv("LOG_LEVEL", "info"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "shortlister"),
		},
		Qdrant: QdrantConfig{
			URL:        getEnv("QDRANT_URL", "http://localhost:6333"),
			APIKey:     getEnv("QDRANT_API_KEY", ""),
			Collection: getEnv("QDRANT_COLLECTION", "resume_chunks"),
			VectorSize: uint64(getEnvAsInt("QDRANT_VECTOR_SIZE", 768)),
			Timeout:    getEnvAsDuration("QDRANT_TIMEOUT", "15s"),
		},
		LLM: LLMConfig{
			Provider:         getEnv("LLM_PROVIDER", "ollama"),
			GeminiAPIKey:     getEnv("GEMINI_API_KEY", ""),
			GeminiModel:      getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
			GeminiEmbedModel: getEnv("GEMINI_EMBED_MODEL", "text-embedding-004"),
			OllamaURL:        getEnv("OLLAMA_URL", "http://localhost:11434"),
			OllamaModel:      getEnv("OLLAMA_MODEL", "llama3.1"),
			OllamaEmbedModel: getEnv("OLLAMA_EMBED_MODEL", "nomic-embed-text"),
			RequestTimeout:   getEnvAsDuration("LLM_REQUEST_TIMEOUT", "90s"),
			MaxTokens:        getEnvAsInt("LLM_MAX_TOKENS", 1024),
			Temperature:      getEnvAsFloat32("LLM_TEMPERATURE", 0.2),
		},
		Storage: StorageConfig{
			UploadPath:  getEnv("UPLOAD_PATH", "./uploads"),
			MaxFileSize: getEnvAsInt64("MAX_FILE_SIZE", 10485760),
		},
		Worker: WorkerConfig{
			Concurrency:  getEnvAsInt("WORKER_CONCURRENCY", 3),
			PollInterval: getEnvAsDuration("WORKER_POLL_INTERVAL", "10s"),
		},
		Pipeline: PipelineConfig{
			RequisitesFile:    getEnv("REQUISITES_FILE", ""),
			ChunkSize:         getEnvAsInt("CHUNK_SIZE", 800),
			ChunkOverlap:      getEnvAsInt("CHUNK_OVERLAP", 100),
			MinDocumentChars:  getEnvAsInt("MIN_DOCUMENT_CHARS", 50),
			EvidenceK:         getEnvAsInt("EVIDENCE_K", 6),
			ExtractionRetries: getEnvAsInt("EXTRACTION_RETRIES", 1),
			JudgeRetries:      getEnvAsInt("JUDGE_RETRIES", 2),
			SummaryRetries:    getEnvAsInt("SUMMARY_RETRIES", 1),
			IndexAttempts:     getEnvAsInt("INDEX_ATTEMPTS", 3),
			IndexRetryDelay:   getEnvAsDuration("INDEX_RETRY_DELAY", "2s"),
			EvalConcurrency:   getEnvAsInt("EVAL_CONCURRENCY", 3),
			StrengthThreshold: getEnvAsInt("STRENGTH_THRESHOLD", 70),
			GapThreshold:      getEnvAsInt("GAP_THRESHOLD", 70),
		},
	}
}

func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseInt(valueStr, 10, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 32); err == nil {
		return float32(value)
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}
