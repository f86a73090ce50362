package llm

import (
	"context"
	"fmt"
	"log/slog"

	"engram/internal/config"
	"engram/internal/domain"
	"engram/internal/ports"
)

// Summarization runs at a low temperature to bias toward extraction-style
// output; follow-up chat runs higher (see usecase).
const summarizeTemperature = 0.3

const defaultSummaryPrompt = `You are a content summarizer. Summarize the key points of the following content.

Requirements:
1. Extract 3-5 key points.
2. One sentence per point.
3. Answer in the content's own language.
4. Use Markdown formatting.`

const instructedSummaryPrompt = `You are a content extraction assistant. Extract information from the content according to the user's instruction.

Instruction: %s

Answer in the content's own language, clearly formatted, using Markdown.`

// Router holds the configured providers and resolves logical requests to a
// concrete one. The map is built once at startup from whichever credentials
// are present.
type Router struct {
	providers map[string]ports.ChatProvider
	order     []string
	fallback  string
	logger    *slog.Logger
}

// NewRouter constructs providers from config and fails fast when none are
// configured.
func NewRouter(cfg config.LLMConfig, logger *slog.Logger) (*Router, error) {
	r := &Router{
		providers: map[string]ports.ChatProvider{},
		fallback:  cfg.Default,
		logger:    logger,
	}

	if cfg.OpenAI.APIKey != "" {
		r.add(NewClient("openai", cfg.OpenAI.BaseURL, cfg.OpenAI.Model, cfg.OpenAI.APIKey))
	}
	if cfg.DeepSeek.APIKey != "" {
		r.add(NewClient("deepseek", cfg.DeepSeek.BaseURL, cfg.DeepSeek.Model, cfg.DeepSeek.APIKey))
	}

	if len(r.order) == 0 {
		return nil, domain.ErrNoProvider
	}

	if logger != nil {
		logger.Info("llm providers ready", "providers", r.order, "default", r.fallback)
	}
	return r, nil
}

func (r *Router) add(p ports.ChatProvider) {
	r.providers[p.Name()] = p
	r.order = append(r.order, p.Name())
}

// Resolve returns the named provider, the configured default when name is
// empty, or the first available provider when the requested one is missing.
// Falling back instead of failing keeps a misconfigured default from
// blocking user-visible operations.
func (r *Router) Resolve(name string) ports.ChatProvider {
	if name == "" {
		name = r.fallback
	}
	if p, ok := r.providers[name]; ok {
		return p
	}

	first := r.providers[r.order[0]]
	if r.logger != nil {
		r.logger.Warn("provider not available, falling back", "requested", name, "using", first.Name())
	}
	return first
}

// Providers lists available provider names in registration order.
func (r *Router) Providers() []string {
	return append([]string(nil), r.order...)
}

// Chat forwards the exchange to the default provider.
func (r *Router) Chat(ctx context.Context, messages []domain.Message, temperature float64, maxTokens int) (string, error) {
	return r.Resolve("").Chat(ctx, messages, temperature, maxTokens)
}

// Summarize builds the two-message summarization exchange and delegates to
// Chat. A non-empty instruction swaps in the extraction prompt.
func (r *Router) Summarize(ctx context.Context, content, instruction string) (string, error) {
	system := defaultSummaryPrompt
	if instruction != "" {
		system = fmt.Sprintf(instructedSummaryPrompt, instruction)
	}

	messages := []domain.Message{
		{Role: domain.RoleSystem, Content: system},
		{Role: domain.RoleUser, Content: content},
	}
	return r.Chat(ctx, messages, summarizeTemperature, 0)
}
