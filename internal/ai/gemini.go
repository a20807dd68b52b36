package ai

import (
	"context"
	"errors"
	"fmt"

	genai "google.golang.org/genai"
)

const defaultGeminiModel = "gemini-2.5-flash"

type Gemini struct {
	client *genai.Client
	model  string
}

func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini: %w", ErrMissingKey)
	}
	if model == "" {
		model = defaultGeminiModel
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey, Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, err
	}
	return &Gemini{client: c, model: model}, nil
}

func (g *Gemini) Rewrite(ctx context.Context, system, title, abstract string) (string, error) {
	conf := &genai.GenerateContentConfig{
		Temperature: genai.Ptr[float32](0.5),
		TopP:        genai.Ptr[float32](0.8),
	}
	if system != "" {
		conf.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}
	res, err := g.client.Models.GenerateContent(ctx, g.model, []*genai.Content{
		genai.NewContentFromText(userMessage(title, abstract), genai.RoleUser),
	}, conf)
	if err != nil {
		return "", fmt.Errorf("gemini: %w", err)
	}
	out := stripCodeFences(res.Text())
	if out == "" {
		return "", errors.New("gemini: empty response")
	}
	return out, nil
}
