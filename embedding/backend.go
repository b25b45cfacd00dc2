package embedding

import (
	"context"

	"github.com/localkb/engine/llm/iface"
	"github.com/localkb/engine/llm/models"
	"github.com/localkb/engine/llm/ollama"
	"github.com/localkb/engine/llm/openai"
)

// NewOllamaBackend returns a newBackend func for Manager that talks to a
// locally running Ollama server, the default "locally-hosted model"
// runtime. url is passed through unchanged; an empty url defers to the
// client's own default (http://localhost:11434 or $OLLAMA_URL).
func NewOllamaBackend(url string) func(ctx context.Context) (iface.LLM, error) {
	return func(ctx context.Context) (iface.LLM, error) {
		cfg := &models.LLMConfig{Provider: models.OLLAMA, Url: url}
		return ollama.NewClient(cfg)
	}
}

// NewOpenAICompatibleBackend returns a newBackend func pointed at any
// server that speaks the OpenAI embeddings wire format locally — llama.cpp
// server, text-embeddings-inference, vLLM. apiKey may be empty for
// servers that don't check it.
func NewOpenAICompatibleBackend(url, apiKey string) func(ctx context.Context) (iface.LLM, error) {
	return func(ctx context.Context) (iface.LLM, error) {
		cfg := &models.LLMConfig{Provider: models.OPENAI, Url: url, ApiKey: apiKey}
		return openai.NewClient(cfg)
	}
}
