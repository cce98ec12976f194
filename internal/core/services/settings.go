package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/notebook-cli/internal/core/domain"
	"github.com/custodia-labs/notebook-cli/internal/core/ports/driven"
	"github.com/custodia-labs/notebook-cli/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

type valueKind int

const (
	kindString valueKind = iota
	kindInt
	kindFloat
	kindSeconds
	kindList
)

// setting binds a config key and its environment variables to a field.
type setting struct {
	driving.SettingKey
	kind  valueKind
	apply func(s *domain.Settings, v value)
}

// value is a parsed raw setting.
type value struct {
	str  string
	num  int
	flt  float64
	dur  time.Duration
	list []string
}

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyDataDir         = "data_dir"
	keyChunkSize       = "chunking.size"
	keyChunkOverlap    = "chunking.overlap"
	keyTopK            = "retrieval.top_k"
	keyMaxContext      = "retrieval.max_context_chunks"
	keyEmbedProvider   = "embedding.provider"
	keyEmbedModel      = "embedding.model"
	keyEmbedBaseURL    = "embedding.base_url"
	keyEmbedAPIKey     = "embedding.api_key"
	keyEmbedDimensions = "embedding.dimensions"
	keyLLMProvider     = "llm.provider"
	keyLLMModel        = "llm.model"
	keyLLMBaseURL      = "llm.base_url"
	keyLLMAPIKey       = "llm.api_key"
	keyLLMTimeout      = "llm.timeout"
	keyLLMTemperature  = "llm.temperature"
	keyVectorBackend   = "vector.backend"
	keyVectorDSN       = "vector.dsn"
	keyWorkers         = "ingest.workers"
	keyQueueSize       = "ingest.queue_size"
	keyUploadsDir      = "ingest.uploads_dir"
	keyFetchTimeout    = "ingest.fetch_timeout"
	keyFetchRate       = "ingest.fetch_rate"
	keyYouTubeAPIKey   = "ingest.youtube_api_key"
	keyTranscriptLangs = "ingest.transcript_languages"
	keyIncludePatterns = "ingest.include"
)

//nolint:funlen // Declarative table
func settingsTable() []setting {
	key := func(k, desc string, secret bool, env ...string) driving.SettingKey {
		return driving.SettingKey{Key: k, Env: env, Description: desc, Secret: secret}
	}
	return []setting{
		{key(keyDataDir, "Directory holding the metadata store and vector index", false,
			"NOTEBOOK_DATA_DIR", "DATA_DIR"),
			kindString, func(s *domain.Settings, v value) { s.DataDir = v.str }},
		{key(keyChunkSize, "Chunk window size in characters", false, "CHUNK_SIZE"),
			kindInt, func(s *domain.Settings, v value) { s.Chunking.Size = v.num }},
		{key(keyChunkOverlap, "Characters shared by adjacent chunks", false, "CHUNK_OVERLAP"),
			kindInt, func(s *domain.Settings, v value) { s.Chunking.Overlap = v.num }},
		{key(keyTopK, "Default number of chunks a query returns", false, "TOP_K"),
			kindInt, func(s *domain.Settings, v value) { s.Retrieval.TopK = v.num }},
		{key(keyMaxContext, "Maximum chunks passed to answer generation", false, "MAX_CONTEXT_CHUNKS"),
			kindInt, func(s *domain.Settings, v value) { s.Retrieval.MaxContextChunks = v.num }},
		{key(keyEmbedProvider, "Embedding provider (ollama, openai, lmstudio)", false, "EMBEDDING_PROVIDER"),
			kindString, func(s *domain.Settings, v value) { s.Embedding.Provider = domain.AIProvider(v.str) }},
		{key(keyEmbedModel, "Embedding model name", false, "EMBEDDING_MODEL"),
			kindString, func(s *domain.Settings, v value) { s.Embedding.Model = v.str }},
		{key(keyEmbedBaseURL, "Embedding API endpoint", false, "EMBEDDING_BASE_URL"),
			kindString, func(s *domain.Settings, v value) { s.Embedding.BaseURL = v.str }},
		{key(keyEmbedAPIKey, "Embedding API key", true, "EMBEDDING_API_KEY", "OPENAI_API_KEY"),
			kindString, func(s *domain.Settings, v value) { s.Embedding.APIKey = v.str }},
		{key(keyEmbedDimensions, "Requested embedding dimensions (0 keeps the model default)", false,
			"EMBEDDING_DIMENSIONS"),
			kindInt, func(s *domain.Settings, v value) { s.Embedding.Dimensions = v.num }},
		{key(keyLLMProvider, "Answer model provider (lmstudio, ollama, openai, anthropic)", false, "LLM_PROVIDER"),
			kindString, func(s *domain.Settings, v value) { s.LLM.Provider = domain.AIProvider(v.str) }},
		{key(keyLLMModel, "Answer model name", false, "LLM_MODEL", "LMSTUDIO_MODEL"),
			kindString, func(s *domain.Settings, v value) { s.LLM.Model = v.str }},
		{key(keyLLMBaseURL, "Answer model API endpoint", false, "LLM_BASE_URL", "LMSTUDIO_BASE_URL"),
			kindString, func(s *domain.Settings, v value) { s.LLM.BaseURL = v.str }},
		{key(keyLLMAPIKey, "Answer model API key", true, "LLM_API_KEY"),
			kindString, func(s *domain.Settings, v value) { s.LLM.APIKey = v.str }},
		{key(keyLLMTimeout, "Answer request timeout in seconds", false, "LLM_TIMEOUT", "LMSTUDIO_TIMEOUT"),
			kindSeconds, func(s *domain.Settings, v value) { s.LLM.Timeout = v.dur }},
		{key(keyLLMTemperature, "Answer sampling temperature", false, "LLM_TEMPERATURE"),
			kindFloat, func(s *domain.Settings, v value) { s.LLM.Temperature = v.flt }},
		{key(keyVectorBackend, "Vector index backend (local, pgvector, memory)", false, "VECTOR_BACKEND"),
			kindString, func(s *domain.Settings, v value) { s.Vector.Backend = domain.VectorBackend(v.str) }},
		{key(keyVectorDSN, "PostgreSQL DSN for the pgvector backend", true, "PGVECTOR_DSN"),
			kindString, func(s *domain.Settings, v value) { s.Vector.DSN = v.str }},
		{key(keyWorkers, "Concurrent ingestion workers", false, "WORKERS"),
			kindInt, func(s *domain.Settings, v value) { s.Ingest.Workers = v.num }},
		{key(keyQueueSize, "Ingestion jobs that may wait before new ones are rejected", false, "QUEUE_SIZE"),
			kindInt, func(s *domain.Settings, v value) { s.Ingest.QueueSize = v.num }},
		{key(keyUploadsDir, "Directory for uploaded files (default {data_dir}/uploads)", false, "UPLOADS_DIR"),
			kindString, func(s *domain.Settings, v value) { s.Ingest.UploadsDir = v.str }},
		{key(keyFetchTimeout, "Web and video fetch timeout in seconds", false, "FETCH_TIMEOUT"),
			kindSeconds, func(s *domain.Settings, v value) { s.Ingest.FetchTimeout = v.dur }},
		{key(keyFetchRate, "Maximum outbound fetches per second", false, "FETCH_RATE"),
			kindFloat, func(s *domain.Settings, v value) { s.Ingest.FetchRate = v.flt }},
		{key(keyYouTubeAPIKey, "YouTube Data API key for video titles", true, "YOUTUBE_API_KEY"),
			kindString, func(s *domain.Settings, v value) { s.Ingest.YouTubeAPIKey = v.str }},
		{key(keyTranscriptLangs, "Caption languages in priority order (comma separated)", false,
			"TRANSCRIPT_LANGUAGES"),
			kindList, func(s *domain.Settings, v value) { s.Ingest.TranscriptLanguages = v.list }},
		{key(keyIncludePatterns, "Glob patterns for directory and watch ingestion (comma separated)", false,
			"INCLUDE"),
			kindList, func(s *domain.Settings, v value) { s.Ingest.Include = v.list }},
	}
}

// SettingsService resolves settings from defaults, the config store and
// the environment, in that order.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
	lookupEnv   func(string) (string, bool)
	table       []setting
}

// NewSettingsService creates a new settings service. aiValidator may be nil.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
		lookupEnv:   os.LookupEnv,
		table:       settingsTable(),
	}
}

// SetEnvLookup replaces the environment lookup. Used by tests.
func (s *SettingsService) SetEnvLookup(lookup func(string) (string, bool)) {
	s.lookupEnv = lookup
}

// Get returns the resolved settings. The result is validated.
func (s *SettingsService) Get() (*domain.Settings, error) {
	settings, err := s.resolve()
	if err != nil {
		return nil, err
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return settings, nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.Settings {
	return domain.DefaultSettings()
}

// Keys describes every supported setting.
func (s *SettingsService) Keys() []driving.SettingKey {
	keys := make([]driving.SettingKey, len(s.table))
	for i, st := range s.table {
		keys[i] = st.SettingKey
	}
	return keys
}

// Set validates value for key and persists it.
func (s *SettingsService) Set(key, raw string) error {
	st, ok := s.lookup(key)
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}

	v, err := parseValue(st.kind, raw)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrInvalidConfig, key, err)
	}

	settings, err := s.resolve()
	if err != nil {
		return err
	}
	st.apply(settings, v)
	if err := settings.Validate(); err != nil {
		return err
	}

	var stored any
	switch st.kind {
	case kindInt:
		stored = v.num
	case kindFloat:
		stored = v.flt
	case kindSeconds:
		stored = int(v.dur / time.Second)
	case kindList:
		stored = v.list
	default:
		stored = v.str
	}
	if err := s.configStore.Set(key, stored); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// ValidateEmbeddingConfig pings the configured embedding provider.
func (s *SettingsService) ValidateEmbeddingConfig(ctx context.Context) error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(ctx, &settings.Embedding)
}

// ValidateLLMConfig pings the configured LLM provider.
func (s *SettingsService) ValidateLLMConfig(ctx context.Context) error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateLLM(ctx, &settings.LLM)
}

func (s *SettingsService) lookup(key string) (setting, bool) {
	for _, st := range s.table {
		if st.Key == key {
			return st, true
		}
	}
	return setting{}, false
}

func (s *SettingsService) resolve() (*domain.Settings, error) {
	settings := domain.DefaultSettings()
	explicit := make(map[string]bool)

	for _, st := range s.table {
		raw, ok := s.rawValue(st)
		if !ok {
			continue
		}
		v, err := parseValue(st.kind, raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", domain.ErrInvalidConfig, st.Key, err)
		}
		st.apply(&settings, v)
		explicit[st.Key] = true
	}

	applyProviderDefaults(&settings, explicit)
	if settings.Ingest.UploadsDir == "" {
		settings.Ingest.UploadsDir = filepath.Join(settings.DataDir, "uploads")
	}
	return &settings, nil
}

// rawValue returns the highest-priority raw value for st.
func (s *SettingsService) rawValue(st setting) (string, bool) {
	for _, env := range st.Env {
		if v, ok := s.lookupEnv(env); ok && v != "" {
			return v, true
		}
	}
	if s.configStore == nil {
		return "", false
	}
	if st.kind == kindList {
		if list := s.configStore.GetStringSlice(st.Key); list != nil {
			return strings.Join(list, ","), true
		}
	}
	v, ok := s.configStore.Get(st.Key)
	if !ok || v == nil {
		return "", false
	}
	return fmt.Sprint(v), true
}

// applyProviderDefaults fills model and endpoint defaults for providers
// chosen without an explicit model or endpoint.
func applyProviderDefaults(s *domain.Settings, explicit map[string]bool) {
	if explicit[keyEmbedProvider] {
		if !explicit[keyEmbedModel] {
			s.Embedding.Model = domain.DefaultEmbeddingModels()[s.Embedding.Provider]
		}
		if !explicit[keyEmbedBaseURL] {
			s.Embedding.BaseURL = defaultBaseURL(s.Embedding.Provider)
		}
	}
	if explicit[keyLLMProvider] {
		if !explicit[keyLLMModel] {
			s.LLM.Model = domain.DefaultLLMModels()[s.LLM.Provider]
		}
		if !explicit[keyLLMBaseURL] {
			s.LLM.BaseURL = defaultBaseURL(s.LLM.Provider)
		}
	}
}

func defaultBaseURL(p domain.AIProvider) string {
	switch p {
	case domain.AIProviderOllama:
		return "http://localhost:11434"
	case domain.AIProviderLMStudio:
		return "http://127.0.0.1:1234/v1"
	default:
		return ""
	}
}

func parseValue(kind valueKind, raw string) (value, error) {
	raw = strings.TrimSpace(raw)
	switch kind {
	case kindInt:
		n, err := strconv.Atoi(raw)
		if err != nil {
			return value{}, fmt.Errorf("expected an integer, got %q", raw)
		}
		return value{num: n}, nil
	case kindFloat:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return value{}, fmt.Errorf("expected a number, got %q", raw)
		}
		return value{flt: f}, nil
	case kindSeconds:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil || f < 0 {
			return value{}, fmt.Errorf("expected seconds, got %q", raw)
		}
		return value{dur: time.Duration(f * float64(time.Second))}, nil
	case kindList:
		raw = strings.Trim(raw, "[]")
		var list []string
		for _, part := range strings.FieldsFunc(raw, func(r rune) bool { return r == ',' || r == ' ' }) {
			if part = strings.TrimSpace(part); part != "" {
				list = append(list, part)
			}
		}
		return value{list: list}, nil
	default:
		return value{str: raw}, nil
	}
}
