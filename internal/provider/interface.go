// Package provider selects and constructs the LLM chat model used to answer
// questions. Supported backends: Ollama, OpenAI, Azure OpenAI, Volcengine
// Ark, Google Gemini.
package provider

import (
	"context"
	"fmt"

	"github.com/54b3r/docrag/internal/config"
)

// Backend enumerates the supported LLM inference providers.
type Backend string

const (
	// BackendOllama selects a locally running Ollama instance.
	BackendOllama Backend = "ollama"
	// BackendOpenAI selects the OpenAI API.
	BackendOpenAI Backend = "openai"
	// BackendAzure selects Azure OpenAI Service.
	BackendAzure Backend = "azure"
	// BackendArk selects Volcengine Ark.
	BackendArk Backend = "ark"
	// BackendGemini selects Google Gemini via AI Studio.
	BackendGemini Backend = "gemini"
)

// Config holds all provider-level configuration. Each backend keeps its own
// credentials; only the block matching Backend is used.
type Config struct {
	// Backend identifies which inference provider to use.
	Backend Backend

	Ollama      ProviderOllama
	OpenAI      ProviderOpenAI
	AzureOpenAI ProviderAzureOpenAI
	Ark         ProviderArk
	Gemini      ProviderGemini

	// Tuning holds generation settings shared by every backend.
	Tuning SharedTuning
}

// ProviderOllama holds Ollama settings.
type ProviderOllama struct {
	// Host is the Ollama API endpoint (e.g. "http://localhost:11434").
	Host string
	// Model is the model name (e.g. "llama3").
	Model string
}

// ProviderOpenAI holds OpenAI settings.
type ProviderOpenAI struct {
	APIKey string
	Model  string
	// BaseURL overrides the endpoint for OpenAI-compatible servers.
	BaseURL string
}

// ProviderAzureOpenAI holds Azure OpenAI settings.
type ProviderAzureOpenAI struct {
	APIKey string
	// Endpoint is the resource endpoint (e.g. "https://my.openai.azure.com").
	Endpoint string
	// Deployment is the deployment name, used as the model.
	Deployment string
	// APIVersion is the REST API version (e.g. "2024-10-21").
	APIVersion string
}

// ProviderArk holds Volcengine Ark settings.
type ProviderArk struct {
	APIKey string
	// Model is the Ark endpoint or model ID.
	Model   string
	BaseURL string
}

// ProviderGemini holds Google Gemini settings.
type ProviderGemini struct {
	APIKey string
	Model  string
}

// SharedTuning holds generation settings applied to every backend.
type SharedTuning struct {
	// MaxTokens caps the number of tokens generated per response.
	// Zero leaves the provider default in place.
	MaxTokens int
	// Temperature controls response randomness (0.0–1.0).
	Temperature float32
}

// FromConfig maps the model section of the application config onto a
// provider Config.
func FromConfig(mc config.ModelConfig) *Config {
	return &Config{
		Backend: Backend(mc.Provider),
		Ollama:  ProviderOllama{Host: mc.Ollama.Host, Model: mc.Ollama.Model},
		OpenAI:  ProviderOpenAI{APIKey: mc.OpenAI.APIKey, Model: mc.OpenAI.Model, BaseURL: mc.OpenAI.BaseURL},
		AzureOpenAI: ProviderAzureOpenAI{
			APIKey:     mc.Azure.APIKey,
			Endpoint:   mc.Azure.Endpoint,
			Deployment: mc.Azure.Deployment,
			APIVersion: mc.Azure.APIVersion,
		},
		Ark:    ProviderArk{APIKey: mc.Ark.APIKey, Model: mc.Ark.Model, BaseURL: mc.Ark.BaseURL},
		Gemini: ProviderGemini{APIKey: mc.Gemini.APIKey, Model: mc.Gemini.Model},
		Tuning: SharedTuning{MaxTokens: mc.MaxTokens, Temperature: mc.Temperature},
	}
}

// Validate reports the first missing setting for the selected backend,
// naming the env var that supplies it.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendOllama:
		if c.Ollama.Model == "" {
			return fmt.Errorf("provider: OLLAMA_MODEL is required for ollama backend")
		}
	case BackendOpenAI:
		if c.OpenAI.APIKey == "" {
			return fmt.Errorf("provider: OPENAI_API_KEY is required for openai backend")
		}
		if c.OpenAI.Model == "" {
			return fmt.Errorf("provider: OPENAI_MODEL is required for openai backend")
		}
	case BackendAzure:
		if c.AzureOpenAI.APIKey == "" {
			return fmt.Errorf("provider: AZURE_OPENAI_API_KEY is required for azure backend")
		}
		if c.AzureOpenAI.Endpoint == "" {
			return fmt.Errorf("provider: AZURE_OPENAI_ENDPOINT is required for azure backend")
		}
		if c.AzureOpenAI.Deployment == "" {
			return fmt.Errorf("provider: AZURE_OPENAI_DEPLOYMENT is required for azure backend")
		}
	case BackendArk:
		if c.Ark.APIKey == "" {
			return fmt.Errorf("provider: ARK_API_KEY is required for ark backend")
		}
		if c.Ark.Model == "" {
			return fmt.Errorf("provider: ARK_MODEL is required for ark backend")
		}
	case BackendGemini:
		if c.Gemini.APIKey == "" {
			return fmt.Errorf("provider: GOOGLE_API_KEY is required for gemini backend")
		}
		if c.Gemini.Model == "" {
			return fmt.Errorf("provider: GEMINI_MODEL is required for gemini backend")
		}
	default:
		return fmt.Errorf("provider: unknown backend %q (valid values: ollama, openai, azure, ark, gemini)", c.Backend)
	}
	return nil
}

// HealthChecker reports whether the model backend is reachable without
// spending tokens.
type HealthChecker interface {
	Ping(ctx context.Context) error
}
