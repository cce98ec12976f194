package domain

import (
	"fmt"
	"time"
)

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or LLM.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderLMStudio is a local LM Studio server speaking the OpenAI API.
	AIProviderLMStudio AIProvider = "lmstudio"

	// AIProviderAnthropic is Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderLMStudio, AIProviderAnthropic:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama || p == AIProviderLMStudio
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderLMStudio:
		return "LM Studio (local, OpenAI compatible)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	default:
		return unknownDescription
	}
}

// VectorBackend selects the vector index implementation.
type VectorBackend string

// Available vector backends.
const (
	// VectorBackendLocal stores vectors in a SQLite file under the data directory.
	VectorBackendLocal VectorBackend = "local"

	// VectorBackendPgvector stores vectors in PostgreSQL with the pgvector extension.
	VectorBackendPgvector VectorBackend = "pgvector"

	// VectorBackendMemory keeps vectors in process memory. Nothing survives a restart.
	VectorBackendMemory VectorBackend = "memory"
)

// IsValid returns true if the backend is recognised.
func (b VectorBackend) IsValid() bool {
	switch b {
	case VectorBackendLocal, VectorBackendPgvector, VectorBackendMemory:
		return true
	default:
		return false
	}
}

// ChunkingSettings holds the sliding-window parameters.
type ChunkingSettings struct {
	// Size is the window length in characters.
	Size int

	// Overlap is the number of characters shared by adjacent windows.
	Overlap int
}

// Validate checks Size > Overlap >= 0.
func (c ChunkingSettings) Validate() error {
	if c.Size <= 0 {
		return fmt.Errorf("%w: chunk size must be positive, got %d", ErrInvalidConfig, c.Size)
	}
	if c.Overlap < 0 {
		return fmt.Errorf("%w: chunk overlap must not be negative, got %d", ErrInvalidConfig, c.Overlap)
	}
	if c.Size <= c.Overlap {
		return fmt.Errorf("%w: chunk size %d must be greater than overlap %d",
			ErrInvalidConfig, c.Size, c.Overlap)
	}
	return nil
}

// RetrievalSettings holds query-time limits.
type RetrievalSettings struct {
	// TopK is the default number of chunks a query returns.
	TopK int

	// MaxContextChunks caps how many chunks reach answer generation.
	MaxContextChunks int
}

// Validate checks both limits are positive.
func (r RetrievalSettings) Validate() error {
	if r.TopK <= 0 {
		return fmt.Errorf("%w: top_k must be positive, got %d", ErrInvalidConfig, r.TopK)
	}
	if r.MaxContextChunks <= 0 {
		return fmt.Errorf("%w: max_context_chunks must be positive, got %d",
			ErrInvalidConfig, r.MaxContextChunks)
	}
	return nil
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint (for Ollama and LM Studio).
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string

	// Dimensions requests a reduced output size where the model supports it.
	// Zero keeps the model default.
	Dimensions int
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() || e.Provider == AIProviderAnthropic {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// LLMSettings holds LLM provider configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name.
	Model string

	// BaseURL is the API endpoint (for Ollama and LM Studio).
	BaseURL string

	// APIKey is the API key (for OpenAI/Anthropic).
	APIKey string

	// Timeout bounds a single generation request.
	Timeout time.Duration

	// Temperature is the sampling temperature for answers.
	Temperature float64
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// VectorSettings holds vector index configuration.
type VectorSettings struct {
	// Backend selects the implementation.
	Backend VectorBackend

	// DSN is the PostgreSQL connection string for the pgvector backend.
	DSN string
}

// IngestSettings holds extraction and worker pool configuration.
type IngestSettings struct {
	// Workers is the number of concurrent ingestion workers.
	Workers int

	// QueueSize is how many jobs may wait before submissions are rejected.
	QueueSize int

	// UploadsDir is where uploaded files are stored and watched.
	UploadsDir string

	// FetchTimeout bounds a single HTTP fetch by the extractors.
	FetchTimeout time.Duration

	// FetchRate is the maximum outbound fetches per second.
	FetchRate float64

	// YouTubeAPIKey enables title lookup through the YouTube Data API.
	YouTubeAPIKey string

	// TranscriptLanguages lists caption languages in priority order.
	TranscriptLanguages []string

	// Include lists glob patterns a file must match to be ingested from
	// a directory or the watcher. Empty means every file.
	Include []string
}

// Settings holds all application settings.
type Settings struct {
	// DataDir is the root under which both stores live.
	DataDir string

	// Chunking holds the chunker parameters.
	Chunking ChunkingSettings

	// Retrieval holds query-time limits.
	Retrieval RetrievalSettings

	// Embedding holds embedding provider settings.
	Embedding EmbeddingSettings

	// LLM holds answer-generation provider settings.
	LLM LLMSettings

	// Vector holds vector index settings.
	Vector VectorSettings

	// Ingest holds extraction and pool settings.
	Ingest IngestSettings
}

// Default values.
const (
	DefaultDataDir          = "./data"
	DefaultChunkSize        = 1200
	DefaultChunkOverlap     = 200
	DefaultTopK             = 6
	DefaultMaxContextChunks = 8
	DefaultWorkers          = 2
	DefaultQueueSize        = 16
	DefaultLLMTimeout       = 300 * time.Second
	DefaultFetchTimeout     = 20 * time.Second
	DefaultTemperature      = 0.2
)

// DefaultSettings returns settings with sensible defaults.
// Embeddings default to a local Ollama model and answers to a local
// LM Studio server.
func DefaultSettings() Settings {
	return Settings{
		DataDir: DefaultDataDir,
		Chunking: ChunkingSettings{
			Size:    DefaultChunkSize,
			Overlap: DefaultChunkOverlap,
		},
		Retrieval: RetrievalSettings{
			TopK:             DefaultTopK,
			MaxContextChunks: DefaultMaxContextChunks,
		},
		Embedding: EmbeddingSettings{
			Provider: AIProviderOllama,
			Model:    DefaultEmbeddingModels()[AIProviderOllama],
			BaseURL:  "http://localhost:11434",
		},
		LLM: LLMSettings{
			Provider:    AIProviderLMStudio,
			Model:       DefaultLLMModels()[AIProviderLMStudio],
			BaseURL:     "http://127.0.0.1:1234/v1",
			Timeout:     DefaultLLMTimeout,
			Temperature: DefaultTemperature,
		},
		Vector: VectorSettings{
			Backend: VectorBackendLocal,
		},
		Ingest: IngestSettings{
			Workers:             DefaultWorkers,
			QueueSize:           DefaultQueueSize,
			FetchTimeout:        DefaultFetchTimeout,
			FetchRate:           2,
			TranscriptLanguages: []string{"ko", "en"},
		},
	}
}

// Validate reports the first invalid setting, wrapped in ErrInvalidConfig.
func (s Settings) Validate() error {
	if s.DataDir == "" {
		return fmt.Errorf("%w: data directory must be set", ErrInvalidConfig)
	}
	if err := s.Chunking.Validate(); err != nil {
		return err
	}
	if err := s.Retrieval.Validate(); err != nil {
		return err
	}
	if !containsProvider(AllEmbeddingProviders(), s.Embedding.Provider) {
		return fmt.Errorf("%w: %q does not provide embeddings", ErrInvalidConfig, s.Embedding.Provider)
	}
	if !s.LLM.Provider.IsValid() {
		return fmt.Errorf("%w: unknown LLM provider %q", ErrInvalidConfig, s.LLM.Provider)
	}
	if !s.Vector.Backend.IsValid() {
		return fmt.Errorf("%w: unknown vector backend %q", ErrInvalidConfig, s.Vector.Backend)
	}
	if s.Vector.Backend == VectorBackendPgvector && s.Vector.DSN == "" {
		return fmt.Errorf("%w: pgvector backend requires a DSN", ErrInvalidConfig)
	}
	if s.Ingest.Workers <= 0 {
		return fmt.Errorf("%w: workers must be positive, got %d", ErrInvalidConfig, s.Ingest.Workers)
	}
	if s.Ingest.QueueSize < 0 {
		return fmt.Errorf("%w: queue size must not be negative, got %d", ErrInvalidConfig, s.Ingest.QueueSize)
	}
	return nil
}

func containsProvider(providers []AIProvider, p AIProvider) bool {
	for _, candidate := range providers {
		if candidate == p {
			return true
		}
	}
	return false
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderLMStudio,
	}
}

// AllLLMProviders returns providers that support LLM operations.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderLMStudio,
		AIProviderAnthropic,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:   "nomic-embed-text",
		AIProviderOpenAI:   "text-embedding-3-small",
		AIProviderLMStudio: "text-embedding-nomic-embed-text-v1.5",
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    "llama3.2",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderLMStudio:  "local-model",
		AIProviderAnthropic: "claude-3-5-sonnet-latest",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
		// LM Studio
		"text-embedding-nomic-embed-text-v1.5": 768,
	}
}
