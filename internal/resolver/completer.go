package resolver

import (
	"context"

	"github.com/rotisserie/eris"
	openai "github.com/sashabaranov/go-openai"

	"github.com/sells-group/lead-finder/pkg/anthropic"
)

// Completer sends one system+user exchange to an LLM and returns the text
// of its reply.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Params are the sampling settings shared by all backends.
type Params struct {
	Model       string
	MaxTokens   int
	Temperature float64
}

// AnthropicCompleter completes through the Anthropic Messages API.
type AnthropicCompleter struct {
	client anthropic.Client
	params Params
}

// NewAnthropicCompleter returns a Completer backed by client.
func NewAnthropicCompleter(client anthropic.Client, p Params) *AnthropicCompleter {
	return &AnthropicCompleter{client: client, params: p}
}

// Complete implements Completer.
func (c *AnthropicCompleter) Complete(ctx context.Context, system, user string) (string, error) {
	temp := c.params.Temperature
	resp, err := c.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       c.params.Model,
		MaxTokens:   int64(c.params.MaxTokens),
		System:      system,
		Messages:    []anthropic.Message{{Role: "user", Content: user}},
		Temperature: &temp,
	})
	if err != nil {
		return "", err
	}
	resp.Usage.Log(c.params.Model, "resolve")
	return resp.Text(), nil
}

// ChatClient is the go-openai surface used by OpenAICompleter.
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAICompleter completes through an OpenAI-compatible chat API.
type OpenAICompleter struct {
	client ChatClient
	params Params
}

// NewOpenAIClient builds a go-openai client. An empty baseURL keeps the
// library default.
func NewOpenAIClient(apiKey, baseURL string) *openai.Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return openai.NewClientWithConfig(cfg)
}

// NewOpenAICompleter returns a Completer backed by client.
func NewOpenAICompleter(client ChatClient, p Params) *OpenAICompleter {
	return &OpenAICompleter{client: client, params: p}
}

// Complete implements Completer. The reply is requested in JSON mode.
func (c *OpenAICompleter) Complete(ctx context.Context, system, user string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.params.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		MaxTokens:      c.params.MaxTokens,
		Temperature:    float32(c.params.Temperature),
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
	})
	if err != nil {
		return "", eris.Wrap(err, "openai: create chat completion")
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}
