package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	appLog "campusbot/internal/log"
	"campusbot/internal/model"
)

const defaultSystemPrompt = "You are the friendly assistant of a university campus event portal. " +
	"Answer briefly. If the user asks about events, suggest phrasing such as " +
	"\"events today\", \"technical events this week\" or \"upcoming events tag:ai\"."

type chatCompletionClient interface {
	New(ctx context.Context, body openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error)
}

// OpenAIConfig selects the model and credentials for OpenAIBackend.
type OpenAIConfig struct {
	APIKey       string
	BaseURL      string
	Model        string
	SystemPrompt string
	// MaxHistory bounds how many prior messages are sent; 0 sends all.
	MaxHistory int
}

// OpenAIBackend answers chat turns with the OpenAI Chat Completions API.
type OpenAIBackend struct {
	cfg  OpenAIConfig
	chat chatCompletionClient
}

// NewOpenAIBackend builds a backend. Without an API key the backend reports
// itself as not configured and the engine keeps using canned replies.
func NewOpenAIBackend(cfg OpenAIConfig) *OpenAIBackend {
	b := &OpenAIBackend{cfg: cfg}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return b
	}

	opts := []option.RequestOption{option.WithAPIKey(strings.TrimSpace(cfg.APIKey))}
	if baseURL := strings.TrimSpace(cfg.BaseURL); baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	client := openai.NewClient(opts...)
	service := client.Chat.Completions
	b.chat = &service
	return b
}

func (b *OpenAIBackend) Configured() bool {
	return b != nil && b.chat != nil
}

func (b *OpenAIBackend) Send(ctx context.Context, message string, history []model.Message) (string, error) {
	if !b.Configured() {
		return "", ErrBackendNotConfigured
	}

	params := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(b.model()),
		Messages: b.buildMessages(message, history),
	}

	resp, err := b.chat.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai chat completion: %w", err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", errors.New("openai chat completion: empty response")
	}

	appLog.Debug("openai reply", "model", resp.Model, "total_tokens", resp.Usage.TotalTokens)
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func (b *OpenAIBackend) model() string {
	if m := strings.TrimSpace(b.cfg.Model); m != "" {
		return m
	}
	return string(shared.ChatModelGPT4oMini)
}

func (b *OpenAIBackend) buildMessages(message string, history []model.Message) []openai.ChatCompletionMessageParamUnion {
	system := b.cfg.SystemPrompt
	if strings.TrimSpace(system) == "" {
		system = defaultSystemPrompt
	}

	if b.cfg.MaxHistory > 0 && len(history) > b.cfg.MaxHistory {
		history = history[len(history)-b.cfg.MaxHistory:]
	}

	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(history)+2)
	msgs = append(msgs, openai.SystemMessage(system))
	for _, m := range history {
		text := m.Text()
		if strings.TrimSpace(text) == "" {
			continue
		}
		if m.Role == model.RoleUser {
			msgs = append(msgs, openai.UserMessage(text))
		} else {
			msgs = append(msgs, openai.AssistantMessage(text))
		}
	}
	msgs = append(msgs, openai.UserMessage(message))
	return msgs
}
