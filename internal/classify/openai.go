package classify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// DefaultTimeout bounds a single classification call.
const DefaultTimeout = 60 * time.Second

// completer abstracts the go-openai client methods we use, enabling test mocks.
type completer interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Client classifies chat turns through an OpenAI-compatible chat
// completions endpoint in JSON mode.
type Client struct {
	api         completer
	model       string
	temperature float32
	timeout     time.Duration
}

// ClientOpts holds parameters for creating a Client.
type ClientOpts struct {
	APIKey      string
	BaseURL     string // optional; OpenAI-compatible gateway
	Model       string
	Temperature float32
	Timeout     time.Duration // defaults to DefaultTimeout
	// For testing: inject a mock completer instead of the real API.
	API completer
}

// NewClient creates a Client.
func NewClient(opts ClientOpts) (*Client, error) {
	if opts.API == nil && opts.APIKey == "" {
		return nil, fmt.Errorf("classify: api key is required")
	}
	if opts.Model == "" {
		return nil, fmt.Errorf("classify: model is required")
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	api := opts.API
	if api == nil {
		cfg := openai.DefaultConfig(opts.APIKey)
		if opts.BaseURL != "" {
			cfg.BaseURL = strings.TrimRight(opts.BaseURL, "/")
		}
		api = openai.NewClientWithConfig(cfg)
	}

	return &Client{
		api:         api,
		model:       opts.Model,
		temperature: opts.Temperature,
		timeout:     timeout,
	}, nil
}

// Classify sends the latest message and prior history to the model and
// returns its Outcome. Every fault (transport, timeout, empty or malformed
// output) is returned as a *Failure.
func (c *Client) Classify(ctx context.Context, message string, history []HistoryLine) (Outcome, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.api.CreateChatCompletion(ctx, c.request(message, history))
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, &Failure{Reason: ReasonTimeout, Err: err}
		}
		return nil, transportFailure(err)
	}
	if len(resp.Choices) == 0 {
		return nil, &Failure{Reason: ReasonEmpty, Err: fmt.Errorf("no choices in response")}
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return nil, &Failure{Reason: ReasonEmpty, Err: fmt.Errorf("empty message content")}
	}
	return parseOutput([]byte(content))
}

func (c *Client) request(message string, history []HistoryLine) openai.ChatCompletionRequest {
	return openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: c.temperature,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt(message, history)},
		},
	}
}
