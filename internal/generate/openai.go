package generate

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/dgallion1/reportdoc/internal/parser"
)

// OpenAIClient writes reports through an OpenAI-compatible chat API.
type OpenAIClient struct {
	client *openai.Client
	model  string
	parse  parser.Options
	stats  *LLMStats
}

// NewOpenAIClient builds a client. An empty baseURL uses the OpenAI API.
func NewOpenAIClient(apiKey, model, baseURL string, stats *LLMStats) *OpenAIClient {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	if model == "" {
		model = openai.GPT4o
	}
	return &OpenAIClient{
		client: openai.NewClientWithConfig(config),
		model:  model,
		parse:  parser.DefaultOptions(),
		stats:  stats,
	}
}

// Generate asks the model for a report and returns its cleaned text.
func (c *OpenAIClient) Generate(ctx context.Context, req Request) (text string, err error) {
	start := time.Now()
	defer func() { c.stats.Record(c.model, time.Since(start), err) }()
	return c.generate(ctx, req)
}

func (c *OpenAIClient) generate(ctx context.Context, req Request) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: SystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: BuildPrompt(req)},
		},
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) && (apiErr.HTTPStatusCode == http.StatusTooManyRequests || apiErr.HTTPStatusCode >= 500) {
			return "", &RetryableError{StatusCode: apiErr.HTTPStatusCode, Message: apiErr.Message}
		}
		var reqErr *openai.RequestError
		if errors.As(err, &reqErr) && (reqErr.HTTPStatusCode == http.StatusTooManyRequests || reqErr.HTTPStatusCode >= 500) {
			return "", &RetryableError{StatusCode: reqErr.HTTPStatusCode, Message: reqErr.Error()}
		}
		return "", fmt.Errorf("openai api: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty response from openai")
	}
	return Clean(resp.Choices[0].Message.Content, c.parse)
}
