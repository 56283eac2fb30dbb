// Package llmprovider implements the LLM-provider capability interface:
// text completion with a small prompt, used for entity/relation
// extraction and community summaries at index time and
// recognition-memory filtering at query time. All three call sites use
// deterministic (temperature=0) completions.
package llmprovider

import (
	"context"
	"errors"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/lex00/hipporag2-go/internal/corerr"
	"github.com/lex00/hipporag2-go/internal/retry"
)

// CompletionOptions configures a single completion call.
type CompletionOptions struct {
	// Temperature of 0 requests deterministic output; extraction and
	// the recognition-memory filter always pass 0.
	Temperature float64
	MaxTokens   int64
}

// Completion is the provider's response, including token usage for the
// caller's observability counters.
type Completion struct {
	Text         string
	InputTokens  int64
	OutputTokens int64
}

// Provider completes a prompt.
type Provider interface {
	Complete(ctx context.Context, prompt string, opts CompletionOptions) (Completion, error)
}

// Anthropic implements Provider over the Anthropic Messages API.
type Anthropic struct {
	client anthropic.Client
	model  anthropic.Model
}

// Config configures an Anthropic-backed Provider.
type Config struct {
	APIKey string
	Model  string
}

// NewAnthropic constructs an Anthropic-backed Provider. Returns a
// KindConfiguration error if required fields are missing.
func NewAnthropic(cfg Config) (*Anthropic, error) {
	if cfg.APIKey == "" {
		return nil, corerr.New(corerr.KindConfiguration, "llmprovider.NewAnthropic", fmt.Errorf("missing API key"))
	}
	model := cfg.Model
	if model == "" {
		model = string(anthropic.ModelClaude3_5HaikuLatest)
	}
	return &Anthropic{
		client: anthropic.NewClient(option.WithAPIKey(cfg.APIKey)),
		model:  anthropic.Model(model),
	}, nil
}

func (a *Anthropic) Complete(ctx context.Context, prompt string, opts CompletionOptions) (Completion, error) {
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}

	var resp *anthropic.Message
	err := retry.Do(ctx, retry.DefaultPolicy, func(ctx context.Context) error {
		r, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
			Model:       a.model,
			MaxTokens:   maxTokens,
			Temperature: anthropic.Float(opts.Temperature),
			Messages: []anthropic.MessageParam{
				anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
			},
		})
		if err != nil {
			if isTransientError(err) {
				return retry.AsTransient(err)
			}
			return err
		}
		resp = r
		return nil
	})
	if err != nil {
		return Completion{}, fmt.Errorf("llm complete: %w", err)
	}

	var text string
	for _, block := range resp.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}

	return Completion{
		Text:         text,
		InputTokens:  resp.Usage.InputTokens,
		OutputTokens: resp.Usage.OutputTokens,
	}, nil
}

func isTransientError(err error) bool {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429 || apiErr.StatusCode >= 500
	}
	return false
}
