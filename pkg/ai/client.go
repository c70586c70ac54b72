package ai

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"escape-server/internal/model"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"
)

var log = zerolog.New(zerolog.NewConsoleWriter()).With().Timestamp().Logger()

//go:embed prompts/room_creator.md
var roomCreatorPrompt string

//go:embed prompts/room_continuation.md
var roomContinuationPrompt string

//go:embed prompts/game_chat.md
var chatSystemPrompt string

// Client предоставляет интерфейс для работы с API нейросети.
type Client struct {
	client     *openai.Client
	baseURL    string
	modelName  string
	timeout    time.Duration
	maxRetries int
}

// Config содержит конфигурацию для клиента нейросети.
type Config struct {
	APIKey     string
	ModelName  string
	BaseURL    string
	Timeout    int // секунды
	MaxRetries int
}

// New создает новый экземпляр клиента нейросети.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("AI API key is not set")
	}

	if cfg.ModelName == "" {
		cfg.ModelName = "deepseek/deepseek-chat-v3-0324:free"
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://openrouter.ai/api/v1"
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = 120
	}

	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}

	config := openai.DefaultConfig(cfg.APIKey)
	config.BaseURL = cfg.BaseURL

	return &Client{
		client:     openai.NewClientWithConfig(config),
		baseURL:    cfg.BaseURL,
		modelName:  cfg.ModelName,
		timeout:    time.Duration(cfg.Timeout) * time.Second,
		maxRetries: cfg.MaxRetries,
	}, nil
}

// clientFor возвращает клиент для указанного ключа. Если ключ пустой или
// совпадает с серверным, используется общий клиент.
func (c *Client) clientFor(credential string) *openai.Client {
	if credential == "" {
		return c.client
	}
	config := openai.DefaultConfig(credential)
	config.BaseURL = c.baseURL
	return openai.NewClientWithConfig(config)
}

// GenerateRoomContent генерирует описание комнаты по запросу и возвращает
// сырой текст ответа модели. Парсинг и валидация выполняются вызывающей
// стороной (см. parser.go).
func (c *Client) GenerateRoomContent(ctx context.Context, req model.GenerateRoomRequest) (string, error) {
	systemPrompt := roomCreatorPrompt
	if !req.Standalone() && req.SequenceIndex > 1 {
		systemPrompt = roomContinuationPrompt
	}

	inputJSON, err := json.MarshalIndent(req, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal generation request: %w", err)
	}

	return c.complete(ctx, c.clientFor(req.Credential), systemPrompt, string(inputJSON), 0.8)
}

// Chat отправляет свободное сообщение игрока чат-модели от имени рассказчика.
func (c *Client) Chat(ctx context.Context, message string) (string, error) {
	return c.complete(ctx, c.client, chatSystemPrompt, message, 0.7)
}

// complete выполняет запрос к chat-completions API с таймаутом и повторами.
func (c *Client) complete(ctx context.Context, client *openai.Client, systemPrompt, userContent string, temperature float32) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	attempts := 0
	for attempts < c.maxRetries {
		attempts++

		req := openai.ChatCompletionRequest{
			Model: c.modelName,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleSystem,
					Content: systemPrompt,
				},
				{
					Role:    openai.ChatMessageRoleUser,
					Content: userContent,
				},
			},
			Temperature: temperature,
			MaxTokens:   4000,
			TopP:        0.95,
		}

		resp, err := client.CreateChatCompletion(ctx, req)
		if err != nil {
			log.Error().Err(err).Int("attempt", attempts).Msg("CreateChatCompletion call failed")
			if attempts >= c.maxRetries {
				return "", fmt.Errorf("AI call failed after %d attempts: %w", attempts, err)
			}
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(time.Duration(attempts) * time.Second):
			}
			continue
		}

		if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
			log.Warn().Int("attempt", attempts).Msg("empty response from AI")
			if attempts >= c.maxRetries {
				return "", errors.New("empty response from AI after retries")
			}
			continue
		}

		content := resp.Choices[0].Message.Content
		log.Debug().
			Str("model", c.modelName).
			Int("attempt", attempts).
			Int("length", len(content)).
			Msg("received AI response")

		return content, nil
	}

	return "", errors.New("no valid response from AI after retries")
}
