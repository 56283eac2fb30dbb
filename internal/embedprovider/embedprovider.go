// Package embedprovider implements the embedding-provider capability
// interface: document-batch and single-query text-to-vector mapping,
// with a fixed output dimensionality per model.
package embedprovider

import (
	"context"
	"errors"
	"fmt"

	"github.com/lex00/hipporag2-go/internal/corerr"
	"github.com/lex00/hipporag2-go/internal/retry"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// isTransientError reports whether err is a 429 or 5xx response, per the
// provider's "standard 429 signaling" retry contract.
func isTransientError(err error) bool {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429 || apiErr.StatusCode >= 500
	}
	return false
}

// Provider maps text to dense vectors.
type Provider interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
}

// OpenAI implements Provider over the OpenAI embeddings endpoint.
type OpenAI struct {
	client     openai.Client
	model      string
	dimensions int
	batchSize  int
}

// Config configures an OpenAI embedding provider.
type Config struct {
	APIKey     string
	Model      string
	Dimensions int
	// BatchSize bounds how many texts are sent per embeddings call.
	// Defaults to 128.
	BatchSize int
}

// NewOpenAI constructs an OpenAI-backed Provider. Returns a
// KindConfiguration error if required fields are missing.
func NewOpenAI(cfg Config) (*OpenAI, error) {
	if cfg.APIKey == "" {
		return nil, corerr.New(corerr.KindConfiguration, "embedprovider.NewOpenAI", fmt.Errorf("missing API key"))
	}
	if cfg.Model == "" {
		return nil, corerr.New(corerr.KindConfiguration, "embedprovider.NewOpenAI", fmt.Errorf("missing model"))
	}
	if cfg.Dimensions <= 0 {
		return nil, corerr.New(corerr.KindConfiguration, "embedprovider.NewOpenAI", fmt.Errorf("invalid dimensions %d", cfg.Dimensions))
	}
	batch := cfg.BatchSize
	if batch <= 0 {
		batch = 128
	}
	return &OpenAI{
		client:     openai.NewClient(option.WithAPIKey(cfg.APIKey)),
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
		batchSize:  batch,
	}, nil
}

func (o *OpenAI) Dimensions() int { return o.dimensions }

// EmbedDocuments embeds texts in batches of o.batchSize, preserving input
// order across batches.
func (o *OpenAI) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += o.batchSize {
		end := start + o.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch, err := o.embed(ctx, texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("embed documents [%d:%d]: %w", start, end, err)
		}
		out = append(out, batch...)
	}
	return out, nil
}

// EmbedQuery embeds a single query string.
func (o *OpenAI) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vecs, err := o.embed(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	return vecs[0], nil
}

func (o *OpenAI) embed(ctx context.Context, texts []string) ([][]float32, error) {
	var resp *openai.CreateEmbeddingResponse
	err := retry.Do(ctx, retry.DefaultPolicy, func(ctx context.Context) error {
		r, err := o.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
			Input:          openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
			Model:          o.model,
			Dimensions:     openai.Int(int64(o.dimensions)),
			EncodingFormat: openai.EmbeddingNewParamsEncodingFormatFloat,
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
		return nil, err
	}

	out := make([][]float32, len(resp.Data))
	for i, d := range resp.Data {
		vec := make([]float32, len(d.Embedding))
		for j, f := range d.Embedding {
			vec[j] = float32(f)
		}
		if len(vec) != o.dimensions {
			return nil, corerr.New(corerr.KindConfiguration, "embedprovider.embed",
				fmt.Errorf("provider returned %d dims, configured for %d", len(vec), o.dimensions))
		}
		out[i] = vec
	}
	return out, nil
}
