// Package ai rewrites extracted abstracts with a language model.
package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
)

// Rewriter turns an abstract into new text following a system instruction.
type Rewriter interface {
	Rewrite(ctx context.Context, system, title, abstract string) (string, error)
}

// Noop returns the abstract unchanged.
type Noop struct{}

func (Noop) Rewrite(_ context.Context, _, _, abstract string) (string, error) { return abstract, nil }

const (
	ProviderOff    = "off"
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

var ErrMissingKey = errors.New("missing API key")

type Config struct {
	Provider string
	Model    string
	BaseURL  string
	APIKey   string
	Attempts int
	Delay    time.Duration
	Log      *slog.Logger
}

// New builds the rewriter for cfg.Provider, wrapped with retries when
// Attempts is above one.
func New(ctx context.Context, cfg Config) (Rewriter, error) {
	var (
		rw  Rewriter
		err error
	)
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", ProviderOff:
		return Noop{}, nil
	case ProviderGemini:
		rw, err = NewGemini(ctx, cfg.APIKey, cfg.Model)
	case ProviderOpenAI:
		rw, err = NewOpenAI(cfg.APIKey, cfg.Model, cfg.BaseURL)
	default:
		return nil, fmt.Errorf("unknown llm provider %q (want off, gemini or openai)", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}
	if cfg.Attempts > 1 {
		rw = &Retrying{Next: rw, Attempts: cfg.Attempts, Delay: cfg.Delay, Log: cfg.Log}
	}
	return rw, nil
}

// Retrying retries failed rewrites.
type Retrying struct {
	Next     Rewriter
	Attempts int
	Delay    time.Duration
	Log      *slog.Logger
}

func (r *Retrying) Rewrite(ctx context.Context, system, title, abstract string) (string, error) {
	delay := r.Delay
	if delay <= 0 {
		delay = time.Second
	}
	return retry.DoWithData(
		func() (string, error) {
			return r.Next.Rewrite(ctx, system, title, abstract)
		},
		retry.Context(ctx),
		retry.Attempts(uint(r.Attempts)),
		retry.Delay(delay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			if r.Log != nil {
				r.Log.Warn("rewrite failed, retrying", "attempt", n+1, "error", err)
			}
		}),
	)
}

// userMessage is the text sent alongside the system instruction.
func userMessage(title, abstract string) string {
	return "title: " + strings.TrimSpace(title) + ". abstract: " + strings.TrimSpace(abstract)
}

// stripCodeFences removes a surrounding ``` block some models add.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		if i := strings.Index(s, "\n"); i != -1 {
			s = s[i+1:]
		} else {
			s = strings.TrimPrefix(s, "```")
		}
	}
	if strings.HasSuffix(s, "```") {
		s = strings.TrimSpace(strings.TrimSuffix(s, "```"))
	}
	return s
}
