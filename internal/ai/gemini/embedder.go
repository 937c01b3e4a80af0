package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

const (
	defaultEmbeddingModel = "gemini-embedding-001"
	maxEmbedBatch         = 100
	embedTaskType         = "SEMANTIC_SIMILARITY"
)

// Embedder produces text embeddings through the Gemini API. Requests are
// batched and throttled by a shared limiter.
type Embedder struct {
	models     modelsAPI
	model      string
	maxRetries int
	limiter    *rate.Limiter
	logger     *zap.Logger
}

// NewEmbedder creates an embedder. requestsPerMinute <= 0 disables throttling.
func NewEmbedder(client *genai.Client, model string, maxRetries, requestsPerMinute int, logger *zap.Logger) (*Embedder, error) {
	if client == nil {
		return nil, errors.New("genai client is required")
	}
	return newEmbedder(client.Models, model, maxRetries, requestsPerMinute, logger), nil
}

func newEmbedder(models modelsAPI, model string, maxRetries, requestsPerMinute int, logger *zap.Logger) *Embedder {
	if model = strings.TrimSpace(model); model == "" {
		model = defaultEmbeddingModel
	}
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if requestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Limit(float64(requestsPerMinute)/60), 1)
	}

	return &Embedder{
		models:     models,
		model:      model,
		maxRetries: maxRetries,
		limiter:    limiter,
		logger:     logger,
	}
}

func (e *Embedder) Model() string { return e.model }

// Embed returns one vector per text, in input order.
func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += maxEmbedBatch {
		end := min(start+maxEmbedBatch, len(texts))

		vectors, err := e.embedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		out = append(out, vectors...)
	}
	return out, nil
}

func (e *Embedder) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	contents := make([]*genai.Content, len(texts))
	for i, text := range texts {
		contents[i] = genai.NewContentFromText(text, genai.RoleUser)
	}

	config := &genai.EmbedContentConfig{TaskType: embedTaskType}

	var resp *genai.EmbedContentResponse
	err := withRetry(ctx, e.maxRetries, e.logger, "embed content", func() error {
		if err := e.limiter.Wait(ctx); err != nil {
			return err
		}
		var err error
		resp, err = e.models.EmbedContent(ctx, e.model, contents, config)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("embed content: %w", err)
	}

	if resp == nil || len(resp.Embeddings) != len(texts) {
		got := 0
		if resp != nil {
			got = len(resp.Embeddings)
		}
		return nil, fmt.Errorf("gemini returned %d embeddings for %d texts", got, len(texts))
	}

	vectors := make([][]float32, len(texts))
	for i, emb := range resp.Embeddings {
		if emb == nil || len(emb.Values) == 0 {
			return nil, fmt.Errorf("gemini returned an empty embedding at %d", i)
		}
		vectors[i] = append([]float32(nil), emb.Values...)
	}

	e.logger.Debug("embedded batch", zap.Int("texts", len(texts)), zap.String("model", e.model))
	return vectors, nil
}
