// Package config provides file-based configuration for docrag.
// Configuration is resolved with a layered precedence: defaults → config file
// → env vars. The resolved *Config is passed explicitly to every constructor;
// the process environment is read but never modified.
//
// File search order:
//  1. --config CLI flag (explicit path)
//  2. DOCRAG_CONFIG environment variable
//  3. ~/.docrag/config.yaml
//  4. ./docrag.yaml
//  5. ./docrag.toml
//
// Files ending in .toml are decoded as TOML, everything else as YAML.
// If no file is found the system runs from defaults and env vars only.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/54b3r/docrag/internal/logging"
)

// Storage backends understood by the vector store factory.
const (
	BackendLocal    = "local"
	BackendWeaviate = "weaviate"
	BackendQdrant   = "qdrant"
)

// Config is the top-level configuration structure.
// Field names use tags that mirror the env var naming (lowercase, underscored).
type Config struct {
	// Backend selects the vector store: local, weaviate, qdrant.
	Backend string `yaml:"backend" toml:"backend"`

	// Loader configures document parsing.
	Loader LoaderConfig `yaml:"loader" toml:"loader"`

	// Chunking configures the text splitter.
	Chunking ChunkingConfig `yaml:"chunking" toml:"chunking"`

	// Model configures the LLM chat model provider.
	Model ModelConfig `yaml:"model" toml:"model"`

	// Embedding configures the embedding provider.
	Embedding EmbeddingConfig `yaml:"embedding" toml:"embedding"`

	// Local configures the embedded on-disk vector store.
	Local LocalConfig `yaml:"local" toml:"local"`

	// Weaviate configures the Weaviate vector store connection.
	Weaviate WeaviateConfig `yaml:"weaviate" toml:"weaviate"`

	// Qdrant configures the Qdrant vector store connection.
	Qdrant QdrantConfig `yaml:"qdrant" toml:"qdrant"`

	// Answer configures question answering.
	Answer AnswerConfig `yaml:"answer" toml:"answer"`

	// Feedback configures storing answers back into the vector store.
	Feedback FeedbackConfig `yaml:"feedback" toml:"feedback"`

	// Server configures the HTTP server.
	Server ServerConfig `yaml:"server" toml:"server"`

	// Logging configures structured logging.
	Logging LoggingConfig `yaml:"logging" toml:"logging"`

	// Tracing configures Langfuse tracing integration.
	Tracing TracingConfig `yaml:"tracing" toml:"tracing"`

	// Path is the config file that was loaded, empty if none was found.
	Path string `yaml:"-" toml:"-"`
}

// LoaderConfig holds document loader settings.
type LoaderConfig struct {
	// JSONPath is a gjson path selecting the content inside JSON documents.
	// Empty selects the document root.
	JSONPath string `yaml:"json_path" toml:"json_path"`
	// Match is the glob used when ingesting a directory.
	Match string `yaml:"match" toml:"match"`
}

// ChunkingConfig holds text splitter settings, measured in characters.
type ChunkingConfig struct {
	Size    int `yaml:"size" toml:"size"`
	Overlap int `yaml:"overlap" toml:"overlap"`
}

// ModelConfig holds LLM chat model settings.
type ModelConfig struct {
	// Provider selects the backend: openai, azure, ollama, ark, gemini.
	Provider string `yaml:"provider" toml:"provider"`

	// MaxTokens is the maximum number of tokens in the response. Zero leaves
	// the provider default in place.
	MaxTokens int `yaml:"max_tokens" toml:"max_tokens"`

	// Temperature controls response randomness (0.0–1.0).
	Temperature float32 `yaml:"temperature" toml:"temperature"`

	Ollama OllamaConfig `yaml:"ollama" toml:"ollama"`
	OpenAI OpenAIConfig `yaml:"openai" toml:"openai"`
	Azure  AzureConfig  `yaml:"azure" toml:"azure"`
	Ark    ArkConfig    `yaml:"ark" toml:"ark"`
	Gemini GeminiConfig `yaml:"gemini" toml:"gemini"`
}

// OllamaConfig holds Ollama provider settings.
type OllamaConfig struct {
	// Host is the Ollama API endpoint.
	Host string `yaml:"host" toml:"host"`
	// Model is the Ollama model name.
	Model string `yaml:"model" toml:"model"`
}

// OpenAIConfig holds OpenAI provider settings.
type OpenAIConfig struct {
	// APIKey is the OpenAI API key. Prefer env var OPENAI_API_KEY.
	APIKey string `yaml:"api_key" toml:"api_key"`
	// Model is the OpenAI model name.
	Model string `yaml:"model" toml:"model"`
	// BaseURL overrides the API endpoint for OpenAI-compatible servers.
	BaseURL string `yaml:"base_url" toml:"base_url"`
}

// AzureConfig holds Azure OpenAI provider settings.
type AzureConfig struct {
	// APIKey is the Azure OpenAI API key. Prefer env var AZURE_OPENAI_API_KEY.
	APIKey string `yaml:"api_key" toml:"api_key"`
	// Endpoint is the Azure OpenAI resource endpoint.
	Endpoint string `yaml:"endpoint" toml:"endpoint"`
	// Deployment is the Azure OpenAI deployment name.
	Deployment string `yaml:"deployment" toml:"deployment"`
	// APIVersion is the Azure OpenAI API version.
	APIVersion string `yaml:"api_version" toml:"api_version"`
}

// ArkConfig holds Volcengine Ark provider settings.
type ArkConfig struct {
	// APIKey is the Ark API key. Prefer env var ARK_API_KEY.
	APIKey string `yaml:"api_key" toml:"api_key"`
	// Model is the Ark endpoint or model ID.
	Model string `yaml:"model" toml:"model"`
	// BaseURL overrides the Ark API endpoint.
	BaseURL string `yaml:"base_url" toml:"base_url"`
}

// GeminiConfig holds Google Gemini provider settings.
type GeminiConfig struct {
	// APIKey is the Google API key. Prefer env var GOOGLE_API_KEY.
	APIKey string `yaml:"api_key" toml:"api_key"`
	// Model is the Gemini model name.
	Model string `yaml:"model" toml:"model"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	// Provider selects the embedding backend (openai, azure, ollama, gemini).
	// Empty inherits Model.Provider.
	Provider string `yaml:"provider" toml:"provider"`
	// Model is the embedding model name.
	Model string `yaml:"model" toml:"model"`
	// Dimensions overrides the embedding vector size.
	Dimensions int `yaml:"dimensions" toml:"dimensions"`
	// APIKey is the embedding API key. Prefer env var EMBEDDING_API_KEY.
	APIKey string `yaml:"api_key" toml:"api_key"`
	// Endpoint is the embedding API endpoint.
	Endpoint string `yaml:"endpoint" toml:"endpoint"`
	// APIVersion is the Azure OpenAI API version used for embeddings.
	APIVersion string `yaml:"api_version" toml:"api_version"`
	// BatchSize is the number of chunks sent per embedding request.
	BatchSize int `yaml:"batch_size" toml:"batch_size"`
}

// LocalConfig holds settings for the embedded SQLite vector store.
type LocalConfig struct {
	// Dir is the persistence directory.
	Dir string `yaml:"dir" toml:"dir"`
}

// WeaviateConfig holds Weaviate vector store settings.
type WeaviateConfig struct {
	// URL is the Weaviate base URL (scheme and host).
	URL string `yaml:"url" toml:"url"`
	// APIKey is the Weaviate API key. Prefer env var WEAVIATE_API_KEY.
	APIKey string `yaml:"api_key" toml:"api_key"`
	// Class is the Weaviate class that holds documents.
	Class string `yaml:"class" toml:"class"`
	// Search selects the query strategy: near_text or near_vector.
	Search string `yaml:"search" toml:"search"`
	// Vectorizer is the vectorizer module set on a newly created class.
	// Empty selects text2vec-openai for near_text and none for near_vector.
	Vectorizer string `yaml:"vectorizer" toml:"vectorizer"`
	// BatchSize is the number of objects sent per batch request.
	BatchSize int `yaml:"batch_size" toml:"batch_size"`
}

// QdrantConfig holds Qdrant vector store settings.
type QdrantConfig struct {
	// Host is the Qdrant server hostname.
	Host string `yaml:"host" toml:"host"`
	// Port is the Qdrant gRPC port.
	Port int `yaml:"port" toml:"port"`
	// Collection is the Qdrant collection name.
	Collection string `yaml:"collection" toml:"collection"`
	// APIKey is the Qdrant API key. Prefer env var QDRANT_API_KEY.
	APIKey string `yaml:"api_key" toml:"api_key"`
	// TLS enables TLS for the Qdrant connection.
	TLS bool `yaml:"tls" toml:"tls"`
}

// AnswerConfig holds question answering settings.
type AnswerConfig struct {
	// Mode is retrieval or direct. Empty picks the backend default.
	Mode string `yaml:"mode" toml:"mode"`
	// TopK is the number of chunks retrieved as context.
	TopK int `yaml:"top_k" toml:"top_k"`
	// MaxContextTokens is the estimated token budget for the prompt.
	MaxContextTokens int `yaml:"max_context_tokens" toml:"max_context_tokens"`
	// Question is the default question used by `docrag run`.
	Question string `yaml:"question" toml:"question"`
}

// FeedbackConfig holds settings for writing answers back into the store.
type FeedbackConfig struct {
	// Disabled skips the write-back and verification search.
	Disabled bool `yaml:"disabled" toml:"disabled"`
	// TopK is the number of items returned by the verification search.
	TopK int `yaml:"top_k" toml:"top_k"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the bind address.
	Host string `yaml:"host" toml:"host"`
	// Port is the TCP port.
	Port int `yaml:"port" toml:"port"`
	// APIKey is the Bearer token for API authentication. Prefer env var DOCRAG_API_KEY.
	APIKey string `yaml:"api_key" toml:"api_key"`
	// RateLimit is the sustained per-IP request rate on mutating routes.
	RateLimit float64 `yaml:"rate_limit" toml:"rate_limit"`
	// RateBurst is the per-IP burst on mutating routes.
	RateBurst int `yaml:"rate_burst" toml:"rate_burst"`
	// IngestRoot confines POST /api/ingest to files under this directory.
	// Empty means the working directory of the server process.
	IngestRoot string `yaml:"ingest_root" toml:"ingest_root"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error.
	Level string `yaml:"level" toml:"level"`
	// Format is the log output format: json, text.
	Format string `yaml:"format" toml:"format"`
}

// TracingConfig holds Langfuse tracing settings.
type TracingConfig struct {
	// PublicKey is the Langfuse public key. Prefer env var LANGFUSE_PUBLIC_KEY.
	PublicKey string `yaml:"public_key" toml:"public_key"`
	// SecretKey is the Langfuse secret key. Prefer env var LANGFUSE_SECRET_KEY.
	SecretKey string `yaml:"secret_key" toml:"secret_key"`
	// Host is the Langfuse API host.
	Host string `yaml:"host" toml:"host"`
}

// Default returns a Config populated with built-in defaults.
func Default() *Config {
	return &Config{
		Backend:  BackendLocal,
		Loader:   LoaderConfig{Match: "**.{pdf,csv,json,xlsx}"},
		Chunking: ChunkingConfig{Size: 1000, Overlap: 200},
		Model: ModelConfig{
			Provider: "openai",
			Ollama:   OllamaConfig{Host: "http://localhost:11434", Model: "llama3"},
			OpenAI:   OpenAIConfig{Model: "gpt-4o-mini"},
			Azure:    AzureConfig{APIVersion: "2024-10-21"},
			Gemini:   GeminiConfig{Model: "gemini-1.5-pro"},
		},
		Embedding: EmbeddingConfig{BatchSize: 100},
		Local:     LocalConfig{Dir: "chroma_db"},
		Weaviate: WeaviateConfig{
			URL:       "http://localhost:8080",
			Class:     "Document_index",
			Search:    "near_text",
			BatchSize: 100,
		},
		Qdrant: QdrantConfig{
			Host:       "localhost",
			Port:       6334,
			Collection: "docrag",
		},
		Answer: AnswerConfig{
			TopK:             4,
			MaxContextTokens: 6000,
			Question:         "What is this document about?",
		},
		Feedback: FeedbackConfig{TopK: 4},
		Server: ServerConfig{
			Host:      "127.0.0.1",
			Port:      8080,
			RateLimit: 10,
			RateBurst: 20,
		},
		Logging: LoggingConfig{Level: "info", Format: "json"},
		Tracing: TracingConfig{Host: "http://localhost:3000"},
	}
}

// envMapping maps env var names to the config field they override.
// Env vars are applied after the config file, so env always wins.
var envMapping = []struct {
	envKey string
	apply  func(*Config, string) error
}{
	{"DOCRAG_BACKEND", str(func(c *Config) *string { return &c.Backend })},
	{"LOADER_JSON_PATH", str(func(c *Config) *string { return &c.Loader.JSONPath })},
	{"LOADER_MATCH", str(func(c *Config) *string { return &c.Loader.Match })},
	{"CHUNK_SIZE", integer(func(c *Config) *int { return &c.Chunking.Size })},
	{"CHUNK_OVERLAP", integer(func(c *Config) *int { return &c.Chunking.Overlap })},
	{"MODEL_PROVIDER", str(func(c *Config) *string { return &c.Model.Provider })},
	{"MODEL_MAX_TOKENS", integer(func(c *Config) *int { return &c.Model.MaxTokens })},
	{"MODEL_TEMPERATURE", float(func(c *Config) *float32 { return &c.Model.Temperature })},
	{"OLLAMA_HOST", str(func(c *Config) *string { return &c.Model.Ollama.Host })},
	{"OLLAMA_MODEL", str(func(c *Config) *string { return &c.Model.Ollama.Model })},
	{"OPENAI_API_KEY", str(func(c *Config) *string { return &c.Model.OpenAI.APIKey })},
	{"OPENAI_MODEL", str(func(c *Config) *string { return &c.Model.OpenAI.Model })},
	{"OPENAI_BASE_URL", str(func(c *Config) *string { return &c.Model.OpenAI.BaseURL })},
	{"AZURE_OPENAI_API_KEY", str(func(c *Config) *string { return &c.Model.Azure.APIKey })},
	{"AZURE_OPENAI_ENDPOINT", str(func(c *Config) *string { return &c.Model.Azure.Endpoint })},
	{"AZURE_OPENAI_DEPLOYMENT", str(func(c *Config) *string { return &c.Model.Azure.Deployment })},
	{"AZURE_OPENAI_API_VERSION", str(func(c *Config) *string { return &c.Model.Azure.APIVersion })},
	{"ARK_API_KEY", str(func(c *Config) *string { return &c.Model.Ark.APIKey })},
	{"ARK_MODEL", str(func(c *Config) *string { return &c.Model.Ark.Model })},
	{"ARK_BASE_URL", str(func(c *Config) *string { return &c.Model.Ark.BaseURL })},
	{"GOOGLE_API_KEY", str(func(c *Config) *string { return &c.Model.Gemini.APIKey })},
	{"GEMINI_MODEL", str(func(c *Config) *string { return &c.Model.Gemini.Model })},
	{"EMBEDDING_PROVIDER", str(func(c *Config) *string { return &c.Embedding.Provider })},
	{"EMBEDDING_MODEL", str(func(c *Config) *string { return &c.Embedding.Model })},
	{"EMBEDDING_DIMENSIONS", integer(func(c *Config) *int { return &c.Embedding.Dimensions })},
	{"EMBEDDING_API_KEY", str(func(c *Config) *string { return &c.Embedding.APIKey })},
	{"EMBEDDING_ENDPOINT", str(func(c *Config) *string { return &c.Embedding.Endpoint })},
	{"EMBEDDING_BATCH_SIZE", integer(func(c *Config) *int { return &c.Embedding.BatchSize })},
	{"LOCAL_STORE_DIR", str(func(c *Config) *string { return &c.Local.Dir })},
	{"WEAVIATE_URL", str(func(c *Config) *string { return &c.Weaviate.URL })},
	{"WEAVIATE_API_KEY", str(func(c *Config) *string { return &c.Weaviate.APIKey })},
	{"WEAVIATE_CLASS", str(func(c *Config) *string { return &c.Weaviate.Class })},
	{"WEAVIATE_SEARCH", str(func(c *Config) *string { return &c.Weaviate.Search })},
	{"WEAVIATE_VECTORIZER", str(func(c *Config) *string { return &c.Weaviate.Vectorizer })},
	{"WEAVIATE_BATCH_SIZE", integer(func(c *Config) *int { return &c.Weaviate.BatchSize })},
	{"QDRANT_HOST", str(func(c *Config) *string { return &c.Qdrant.Host })},
	{"QDRANT_PORT", integer(func(c *Config) *int { return &c.Qdrant.Port })},
	{"QDRANT_COLLECTION", str(func(c *Config) *string { return &c.Qdrant.Collection })},
	{"QDRANT_API_KEY", str(func(c *Config) *string { return &c.Qdrant.APIKey })},
	{"QDRANT_TLS", boolean(func(c *Config) *bool { return &c.Qdrant.TLS })},
	{"ANSWER_MODE", str(func(c *Config) *string { return &c.Answer.Mode })},
	{"ANSWER_TOP_K", integer(func(c *Config) *int { return &c.Answer.TopK })},
	{"ANSWER_MAX_CONTEXT_TOKENS", integer(func(c *Config) *int { return &c.Answer.MaxContextTokens })},
	{"FEEDBACK_DISABLED", boolean(func(c *Config) *bool { return &c.Feedback.Disabled })},
	{"FEEDBACK_TOP_K", integer(func(c *Config) *int { return &c.Feedback.TopK })},
	{"DOCRAG_SERVER_HOST", str(func(c *Config) *string { return &c.Server.Host })},
	{"DOCRAG_SERVER_PORT", integer(func(c *Config) *int { return &c.Server.Port })},
	{"DOCRAG_API_KEY", str(func(c *Config) *string { return &c.Server.APIKey })},
	{"DOCRAG_INGEST_ROOT", str(func(c *Config) *string { return &c.Server.IngestRoot })},
	{"LOG_LEVEL", str(func(c *Config) *string { return &c.Logging.Level })},
	{"LOG_FORMAT", str(func(c *Config) *string { return &c.Logging.Format })},
	{"LANGFUSE_PUBLIC_KEY", str(func(c *Config) *string { return &c.Tracing.PublicKey })},
	{"LANGFUSE_SECRET_KEY", str(func(c *Config) *string { return &c.Tracing.SecretKey })},
	{"LANGFUSE_HOST", str(func(c *Config) *string { return &c.Tracing.Host })},
}

// Load resolves the configuration: defaults, then the first config file found
// (see package docs), then environment variables. The result is validated.
func Load(explicitPath string) (*Config, error) {
	cfg := Default()

	path, err := resolveConfigPath(explicitPath)
	if err != nil {
		return nil, err
	}
	if path != "" {
		if err := cfg.decodeFile(path); err != nil {
			return nil, err
		}
		cfg.Path = path
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.inheritEmbeddingCredentials()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// decodeFile reads path and decodes it over the receiver, leaving fields the
// file does not mention at their current values.
func (c *Config) decodeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: failed to read %s: %w", path, err)
	}

	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if err := toml.Unmarshal(data, c); err != nil {
			return fmt.Errorf("config: failed to parse %s: %w", path, err)
		}
		return nil
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("config: failed to parse %s: %w", path, err)
	}
	return nil
}

// applyEnv overrides fields from non-empty environment variables.
func (c *Config) applyEnv() error {
	for _, m := range envMapping {
		v := strings.TrimSpace(os.Getenv(m.envKey))
		if v == "" {
			continue
		}
		if err := m.apply(c, v); err != nil {
			return fmt.Errorf("config: invalid %s=%q: %w", m.envKey, v, err)
		}
	}
	return nil
}

// inheritEmbeddingCredentials fills embedding credentials from the chat
// provider when no embedding-specific override is set.
func (c *Config) inheritEmbeddingCredentials() {
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = c.Model.Provider
	}
	switch c.Embedding.Provider {
	case "openai":
		if c.Embedding.APIKey == "" {
			c.Embedding.APIKey = c.Model.OpenAI.APIKey
		}
		if c.Embedding.Endpoint == "" {
			c.Embedding.Endpoint = c.Model.OpenAI.BaseURL
		}
	case "azure":
		if c.Embedding.APIKey == "" {
			c.Embedding.APIKey = c.Model.Azure.APIKey
		}
		if c.Embedding.Endpoint == "" {
			c.Embedding.Endpoint = c.Model.Azure.Endpoint
		}
		if c.Embedding.APIVersion == "" {
			c.Embedding.APIVersion = c.Model.Azure.APIVersion
		}
	case "ollama":
		if c.Embedding.Endpoint == "" {
			c.Embedding.Endpoint = c.Model.Ollama.Host
		}
	case "gemini":
		if c.Embedding.APIKey == "" {
			c.Embedding.APIKey = c.Model.Gemini.APIKey
		}
	}
}

// Validate reports the first configuration error that would make the
// pipeline unusable.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendLocal, BackendWeaviate, BackendQdrant:
	default:
		return fmt.Errorf("config: unknown backend %q (valid values: local, weaviate, qdrant)", c.Backend)
	}
	if c.Chunking.Size <= 0 {
		return fmt.Errorf("config: chunking.size must be positive, got %d", c.Chunking.Size)
	}
	if c.Chunking.Overlap < 0 || c.Chunking.Overlap >= c.Chunking.Size {
		return fmt.Errorf("config: chunking.overlap must be in [0, %d), got %d", c.Chunking.Size, c.Chunking.Overlap)
	}
	if c.Embedding.BatchSize <= 0 {
		return fmt.Errorf("config: embedding.batch_size must be positive, got %d", c.Embedding.BatchSize)
	}
	switch c.Answer.Mode {
	case "", "retrieval", "direct":
	default:
		return fmt.Errorf("config: unknown answer.mode %q (valid values: retrieval, direct)", c.Answer.Mode)
	}
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if !logging.ValidFormat(c.Logging.Format) {
		return fmt.Errorf("config: unknown logging.format %q (valid values: json, text)", c.Logging.Format)
	}
	if c.Backend == BackendWeaviate {
		switch c.Weaviate.Search {
		case "near_text", "near_vector":
		default:
			return fmt.Errorf("config: unknown weaviate.search %q (valid values: near_text, near_vector)", c.Weaviate.Search)
		}
		if _, _, err := c.Weaviate.HostScheme(); err != nil {
			return err
		}
	}
	return nil
}

// HostScheme splits the Weaviate URL into the host and scheme the client
// expects.
func (w WeaviateConfig) HostScheme() (host, scheme string, err error) {
	u, err := url.Parse(w.URL)
	if err != nil {
		return "", "", fmt.Errorf("config: invalid weaviate.url %q: %w", w.URL, err)
	}
	if u.Host == "" || u.Scheme == "" {
		return "", "", fmt.Errorf("config: weaviate.url %q must include scheme and host", w.URL)
	}
	return u.Host, u.Scheme, nil
}

// resolveConfigPath returns the first config file path that exists.
// An explicit path that does not exist is an error.
func resolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config: %w", err)
		}
		return explicit, nil
	}

	if envPath := os.Getenv("DOCRAG_CONFIG"); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath, nil
		}
	}

	if home, err := os.UserHomeDir(); err == nil {
		p := filepath.Join(home, ".docrag", "config.yaml")
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	for _, p := range []string{"docrag.yaml", "docrag.toml"} {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", nil
}

func str(field func(*Config) *string) func(*Config, string) error {
	return func(c *Config, v string) error {
		*field(c) = v
		return nil
	}
}

func integer(field func(*Config) *int) func(*Config, string) error {
	return func(c *Config, v string) error {
		i, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		*field(c) = i
		return nil
	}
}

func float(field func(*Config) *float32) func(*Config, string) error {
	return func(c *Config, v string) error {
		f, err := strconv.ParseFloat(v, 32)
		if err != nil {
			return err
		}
		*field(c) = float32(f)
		return nil
	}
}

func boolean(field func(*Config) *bool) func(*Config, string) error {
	return func(c *Config, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		*field(c) = b
		return nil
	}
}
