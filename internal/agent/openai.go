package agent

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/nerdscourt/canon-core/internal/router"
)

const (
	// DefaultLLMBaseURL is OpenRouter, which serves every routed provider.
	DefaultLLMBaseURL = "https://openrouter.ai/api/v1"
	llmTimeout        = 120 * time.Second
)

// openRouterModels maps routed model ids to OpenRouter model slugs.
var openRouterModels = map[string]string{
	router.ModelResonance:  "qwen/qwen-2.5-72b-instruct",
	router.ModelQuirky:     "deepseek/deepseek-coder",
	router.ModelRational:   "google/gemma-7b-it",
	router.ModelReflective: "deepseek/deepseek-chat",
	router.ModelFallback:   "google/gemini-pro-vision",
}

// OpenAIResponder asks an OpenAI-compatible endpoint for the reply, using the
// model the session was routed to. Against OpenRouter routed ids are sent as
// OpenRouter slugs; other endpoints get the bare model name.
type OpenAIResponder struct {
	client     *openai.Client
	openRouter bool
}

// NewOpenAIResponder returns a responder for baseURL. An empty baseURL uses OpenRouter.
func NewOpenAIResponder(apiKey, baseURL string) *OpenAIResponder {
	if baseURL == "" {
		baseURL = DefaultLLMBaseURL
	}
	config := openai.DefaultConfig(apiKey)
	config.BaseURL = baseURL
	config.HTTPClient = &http.Client{Timeout: llmTimeout}
	return &OpenAIResponder{
		client:     openai.NewClientWithConfig(config),
		openRouter: isOpenRouter(baseURL),
	}
}

func isOpenRouter(baseURL string) bool {
	u, err := url.Parse(baseURL)
	if err != nil {
		return false
	}
	host := u.Hostname()
	return host == "openrouter.ai" || strings.HasSuffix(host, ".openrouter.ai")
}

// modelName returns the model string to request for a routed id.
func (o *OpenAIResponder) modelName(id string) string {
	if o.openRouter {
		if slug, ok := openRouterModels[id]; ok {
			return slug
		}
	}
	_, name := router.SplitModel(id)
	return name
}

func (o *OpenAIResponder) Respond(ctx context.Context, s *Session, system string) (string, error) {
	var messages []openai.ChatCompletionMessage
	if system != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: system})
	}
	for _, m := range s.Messages() {
		role := openai.ChatMessageRoleUser
		if m.Role == RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}
	if len(messages) == 0 {
		return "", fmt.Errorf("messages cannot be empty")
	}

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    o.modelName(s.Model),
		Messages: messages,
	})
	if err != nil {
		return "", fmt.Errorf("openai chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("received empty response from API")
	}
	return resp.Choices[0].Message.Content, nil
}
