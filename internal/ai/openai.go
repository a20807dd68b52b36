package ai

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// DefaultLocalBaseURL is the usual address of a local OpenAI-compatible
// server.
const DefaultLocalBaseURL = "http://localhost:5272/v1/"

// OpenAI talks to the OpenAI chat API or any server speaking it.
type OpenAI struct {
	client openai.Client
	model  string
}

// NewOpenAI requires a key only when no base URL is given; local servers
// usually accept any key.
func NewOpenAI(apiKey, model, baseURL string) (*OpenAI, error) {
	if model == "" {
		return nil, errors.New("openai: model is required")
	}
	if apiKey == "" && baseURL == "" {
		return nil, fmt.Errorf("openai: %w", ErrMissingKey)
	}
	if apiKey == "" {
		apiKey = "local"
	}
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &OpenAI{client: openai.NewClient(opts...), model: model}, nil
}

func (o *OpenAI) Rewrite(ctx context.Context, system, title, abstract string) (string, error) {
	var msgs []openai.ChatCompletionMessageParamUnion
	if system != "" {
		msgs = append(msgs, openai.SystemMessage(system))
	}
	msgs = append(msgs, openai.UserMessage(userMessage(title, abstract)))

	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(o.model),
		Messages:    msgs,
		MaxTokens:   openai.Int(1000),
		Temperature: openai.Float(0.5),
		TopP:        openai.Float(0.8),
	})
	if err != nil {
		return "", fmt.Errorf("openai: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai: no choices in response")
	}
	out := stripCodeFences(resp.Choices[0].Message.Content)
	if out == "" {
		return "", errors.New("openai: empty response")
	}
	return out, nil
}
