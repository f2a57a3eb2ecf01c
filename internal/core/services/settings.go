package services

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/vippawar1104/RAG-agent/internal/core/domain"
	"github.com/vippawar1104/RAG-agent/internal/core/ports/driven"
	"github.com/vippawar1104/RAG-agent/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyChunkSize        = "pipeline.chunk_size"
	keyChunkOverlap     = "pipeline.chunk_overlap"
	keyTopK             = "retrieval.top_k"
	keyThreshold        = "retrieval.similarity_threshold"
	keyHistoryWindow    = "session.history_window"
	keySessionStore     = "session.store"
	keyEmbedProvider    = "embedding.provider"
	keyEmbedModel       = "embedding.model"
	keyEmbedBaseURL     = "embedding.base_url"
	keyEmbedAPIKey      = "embedding.api_key"
	keyEmbedDims        = "embedding.dimensions"
	keyEmbedBatchSize   = "embedding.batch_size"
	keyEmbedAttempts    = "embedding.max_attempts"
	keyEmbedTimeout     = "embedding.timeout"
	keyEmbedRate        = "embedding.requests_per_second"
	keyLLMProvider      = "llm.provider"
	keyLLMModel         = "llm.model"
	keyLLMBaseURL       = "llm.base_url"
	keyLLMAPIKey        = "llm.api_key"
	keyLLMTimeout       = "llm.timeout"
	keyLLMMaxTokens     = "llm.max_tokens"
	keyVectorBackend    = "vector_index.backend"
	keyVectorDSN        = "vector_index.dsn"
	keyIngestionWorkers = "ingestion.workers"
	keyHTTPAddr         = "server.http_addr"
	keyMCPAddr          = "server.mcp_addr"
	keyWatchDir         = "watch.dir"
	keyWatchSchedule    = "watch.rescan_schedule"
)

// Provider credentials honoured when no key is configured.
//
//nolint:gosec // G101: environment variable names, not credentials.
const (
	envOpenAIKey    = "OPENAI_API_KEY"
	envAnthropicKey = "ANTHROPIC_API_KEY"
	envPrefix       = "RAGENT_"
)

type valueKind int

const (
	kindString valueKind = iota
	kindInt
	kindFloat
	kindDuration
)

// setting binds one config key to its field in AppSettings.
type setting struct {
	kind  valueKind
	apply func(s *domain.AppSettings, v any)
}

func str(f func(*domain.AppSettings, string)) setting {
	return setting{kind: kindString, apply: func(s *domain.AppSettings, v any) { f(s, v.(string)) }}
}

func integer(f func(*domain.AppSettings, int)) setting {
	return setting{kind: kindInt, apply: func(s *domain.AppSettings, v any) { f(s, v.(int)) }}
}

func float(f func(*domain.AppSettings, float64)) setting {
	return setting{kind: kindFloat, apply: func(s *domain.AppSettings, v any) { f(s, v.(float64)) }}
}

func duration(f func(*domain.AppSettings, time.Duration)) setting {
	return setting{kind: kindDuration, apply: func(s *domain.AppSettings, v any) { f(s, v.(time.Duration)) }}
}

var settingKeys = map[string]setting{
	keyChunkSize:     integer(func(s *domain.AppSettings, v int) { s.Pipeline.ChunkSize = v }),
	keyChunkOverlap:  integer(func(s *domain.AppSettings, v int) { s.Pipeline.ChunkOverlap = v }),
	keyTopK:          integer(func(s *domain.AppSettings, v int) { s.Retrieval.TopK = v }),
	keyThreshold:     float(func(s *domain.AppSettings, v float64) { s.Retrieval.SimilarityThreshold = v }),
	keyHistoryWindow: integer(func(s *domain.AppSettings, v int) { s.Session.HistoryWindow = v }),
	keySessionStore: str(func(s *domain.AppSettings, v string) {
		s.Session.Store = domain.ParseSessionBackend(v)
	}),
	keyEmbedProvider: str(func(s *domain.AppSettings, v string) {
		s.Embedding.Provider = domain.AIProvider(v)
	}),
	keyEmbedModel:     str(func(s *domain.AppSettings, v string) { s.Embedding.Model = v }),
	keyEmbedBaseURL:   str(func(s *domain.AppSettings, v string) { s.Embedding.BaseURL = v }),
	keyEmbedAPIKey:    str(func(s *domain.AppSettings, v string) { s.Embedding.APIKey = v }),
	keyEmbedDims:      integer(func(s *domain.AppSettings, v int) { s.Embedding.Dimensions = v }),
	keyEmbedBatchSize: integer(func(s *domain.AppSettings, v int) { s.Embedding.BatchSize = v }),
	keyEmbedAttempts:  integer(func(s *domain.AppSettings, v int) { s.Embedding.MaxAttempts = v }),
	keyEmbedTimeout:   duration(func(s *domain.AppSettings, v time.Duration) { s.Embedding.Timeout = v }),
	keyEmbedRate:      float(func(s *domain.AppSettings, v float64) { s.Embedding.RequestsPerSecond = v }),
	keyLLMProvider: str(func(s *domain.AppSettings, v string) {
		s.LLM.Provider = domain.AIProvider(v)
	}),
	keyLLMModel:     str(func(s *domain.AppSettings, v string) { s.LLM.Model = v }),
	keyLLMBaseURL:   str(func(s *domain.AppSettings, v string) { s.LLM.BaseURL = v }),
	keyLLMAPIKey:    str(func(s *domain.AppSettings, v string) { s.LLM.APIKey = v }),
	keyLLMTimeout:   duration(func(s *domain.AppSettings, v time.Duration) { s.LLM.Timeout = v }),
	keyLLMMaxTokens: integer(func(s *domain.AppSettings, v int) { s.LLM.MaxTokens = v }),
	keyVectorBackend: str(func(s *domain.AppSettings, v string) {
		s.VectorIndex.Backend = domain.VectorBackend(v)
	}),
	keyVectorDSN:        str(func(s *domain.AppSettings, v string) { s.VectorIndex.DSN = v }),
	keyIngestionWorkers: integer(func(s *domain.AppSettings, v int) { s.Ingestion.Workers = v }),
	keyHTTPAddr:         str(func(s *domain.AppSettings, v string) { s.Server.HTTPAddr = v }),
	keyMCPAddr:          str(func(s *domain.AppSettings, v string) { s.Server.MCPAddr = v }),
	keyWatchDir:         str(func(s *domain.AppSettings, v string) { s.Watch.Dir = v }),
	keyWatchSchedule:    str(func(s *domain.AppSettings, v string) { s.Watch.RescanSchedule = v }),
}

// SettingsService manages application settings.
// Values resolve in order: defaults, config store, then environment.
type SettingsService struct {
	configStore driven.ConfigStore
	lookupEnv   func(string) (string, bool)
}

// NewSettingsService creates a new settings service.
// lookupEnv defaults to os.LookupEnv when nil.
func NewSettingsService(configStore driven.ConfigStore, lookupEnv func(string) (string, bool)) *SettingsService {
	if lookupEnv == nil {
		lookupEnv = os.LookupEnv
	}
	return &SettingsService{
		configStore: configStore,
		lookupEnv:   lookupEnv,
	}
}

// Get retrieves current application settings.
// A stored or environment value that cannot be parsed is an ErrInvalidConfig;
// range checks are left to Validate.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	result := domain.DefaultAppSettings()
	explicit := make(map[string]bool)

	for _, key := range s.Keys() {
		def := settingKeys[key]

		if raw, ok := s.configStore.Get(key); ok {
			v, err := fromStored(def.kind, raw)
			if err != nil {
				return nil, fmt.Errorf("%w: %s: %w", domain.ErrInvalidConfig, key, err)
			}
			def.apply(&result, v)
			explicit[key] = true
		}

		if raw, ok := s.lookupEnv(EnvName(key)); ok && raw != "" {
			v, err := parseValue(def.kind, raw)
			if err != nil {
				return nil, fmt.Errorf("%w: %s: %w", domain.ErrInvalidConfig, EnvName(key), err)
			}
			def.apply(&result, v)
			explicit[key] = true
		}
	}

	s.applyProviderDefaults(&result, explicit)
	return &result, nil
}

// applyProviderDefaults fills model, dimensions and API keys that follow
// from the chosen providers when they were not set explicitly.
func (s *SettingsService) applyProviderDefaults(settings *domain.AppSettings, explicit map[string]bool) {
	if !explicit[keyEmbedModel] {
		if model, ok := domain.DefaultEmbeddingModels()[settings.Embedding.Provider]; ok {
			settings.Embedding.Model = model
		}
	}
	if !explicit[keyEmbedDims] {
		if dims, ok := domain.EmbeddingDimensions()[settings.Embedding.Model]; ok {
			settings.Embedding.Dimensions = dims
		}
	}
	if !explicit[keyLLMModel] {
		if model, ok := domain.DefaultLLMModels()[settings.LLM.Provider]; ok {
			settings.LLM.Model = model
		}
	}

	if settings.Embedding.APIKey == "" {
		settings.Embedding.APIKey = s.providerKey(settings.Embedding.Provider)
	}
	if settings.LLM.APIKey == "" {
		settings.LLM.APIKey = s.providerKey(settings.LLM.Provider)
	}
}

func (s *SettingsService) providerKey(provider domain.AIProvider) string {
	var name string
	switch provider {
	case domain.AIProviderOpenAI:
		name = envOpenAIKey
	case domain.AIProviderAnthropic:
		name = envAnthropicKey
	default:
		return ""
	}
	v, _ := s.lookupEnv(name)
	return v
}

// Set stores a single key. The value is parsed for the key's type and the
// resulting settings must validate, otherwise nothing is written.
func (s *SettingsService) Set(key, value string) error {
	def, ok := settingKeys[key]
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidConfig, key)
	}

	v, err := parseValue(def.kind, value)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrInvalidConfig, key, err)
	}

	current, err := s.Get()
	if err != nil {
		return err
	}
	def.apply(current, v)
	if err := current.Validate(); err != nil {
		return err
	}

	if err := s.configStore.Set(key, toStored(def.kind, v)); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// Keys lists every recognised configuration key in sorted order.
func (s *SettingsService) Keys() []string {
	keys := make([]string, 0, len(settingKeys))
	for k := range settingKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Validate checks the current settings.
func (s *SettingsService) Validate() error {
	current, err := s.Get()
	if err != nil {
		return err
	}
	return current.Validate()
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// EnvName returns the environment variable that overrides key,
// e.g. retrieval.top_k becomes RAGENT_RETRIEVAL_TOP_K.
func EnvName(key string) string {
	return envPrefix + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// IsSecret reports whether key holds a credential that should be masked.
func IsSecret(key string) bool {
	return strings.HasSuffix(key, ".api_key")
}

func parseValue(kind valueKind, raw string) (any, error) {
	raw = strings.TrimSpace(raw)
	switch kind {
	case kindInt:
		return strconv.Atoi(raw)
	case kindFloat:
		return strconv.ParseFloat(raw, 64)
	case kindDuration:
		return time.ParseDuration(raw)
	default:
		return raw, nil
	}
}

// fromStored converts a value read from the config store. TOML decodes
// integers as int64 and durations are kept as strings.
func fromStored(kind valueKind, raw any) (any, error) {
	switch kind {
	case kindInt:
		switch v := raw.(type) {
		case int:
			return v, nil
		case int64:
			return int(v), nil
		case float64:
			return int(v), nil
		case string:
			return parseValue(kind, v)
		}
	case kindFloat:
		switch v := raw.(type) {
		case float64:
			return v, nil
		case int64:
			return float64(v), nil
		case int:
			return float64(v), nil
		case string:
			return parseValue(kind, v)
		}
	case kindDuration:
		switch v := raw.(type) {
		case string:
			return parseValue(kind, v)
		case time.Duration:
			return v, nil
		}
	default:
		if v, ok := raw.(string); ok {
			return v, nil
		}
	}
	return nil, fmt.Errorf("unexpected value %v of type %T", raw, raw)
}

func toStored(kind valueKind, v any) any {
	if kind == kindDuration {
		return v.(time.Duration).String()
	}
	return v
}
