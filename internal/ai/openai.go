package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

// OpenAIClient calls the OpenAI chat completions API through go-openai.
type OpenAIClient struct {
	client    *openai.Client
	model     string
	maxTokens int
	hasKey    bool
}

// NewOpenAIClient создает клиент OpenAI; пустой baseURL означает официальный API.
func NewOpenAIClient(apiKey, baseURL, model string, timeout time.Duration, maxTokens int) *OpenAIClient {
	cfg := openai.DefaultConfig(apiKey)
	if trimmed := strings.TrimRight(baseURL, "/"); trimmed != "" {
		cfg.BaseURL = trimmed
	}
	cfg.HTTPClient = &http.Client{Timeout: timeout}

	return &OpenAIClient{
		client:    openai.NewClientWithConfig(cfg),
		model:     model,
		maxTokens: maxTokens,
		hasKey:    strings.TrimSpace(apiKey) != "",
	}
}

// Chat отправляет сообщения в OpenAI и возвращает текст ответа и сериализованный ответ API.
func (c *OpenAIClient) Chat(ctx context.Context, messages []Message) (string, []byte, error) {
	if !c.hasKey {
		return "", nil, errors.New("openai api key is missing")
	}

	chat := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, message := range messages {
		role := openai.ChatMessageRoleUser
		switch strings.ToLower(strings.TrimSpace(message.Role)) {
		case "system":
			role = openai.ChatMessageRoleSystem
		case "assistant", "model":
			role = openai.ChatMessageRoleAssistant
		}
		chat = append(chat, openai.ChatCompletionMessage{Role: role, Content: message.Content})
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    chat,
		Temperature: 0,
		MaxTokens:   resolveMaxTokens(c.maxTokens),
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return "", nil, err
	}

	raw, _ := json.Marshal(resp)
	if len(resp.Choices) == 0 {
		return "", raw, errors.New("openai response missing choices")
	}

	return resp.Choices[0].Message.Content, raw, nil
}
