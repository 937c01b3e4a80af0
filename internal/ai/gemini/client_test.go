package gemini

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

type fakeResponse struct {
	generate *genai.GenerateContentResponse
	embed    *genai.EmbedContentResponse
	err      error
}

type fakeModels struct {
	mu       sync.Mutex
	queue    []fakeResponse
	calls    int
	models   []string
	contents [][]*genai.Content
	configs  []*genai.GenerateContentConfig
}

func (f *fakeModels) enqueue(resp fakeResponse) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queue = append(f.queue, resp)
}

func (f *fakeModels) next(model string, contents []*genai.Content) (fakeResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.models = append(f.models, model)
	f.contents = append(f.contents, contents)
	if len(f.queue) == 0 {
		return fakeResponse{}, errors.New("unexpected call")
	}
	res := f.queue[0]
	f.queue = f.queue[1:]
	return res, nil
}

func (f *fakeModels) GenerateContent(_ context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.mu.Lock()
	f.configs = append(f.configs, config)
	f.mu.Unlock()
	res, err := f.next(model, contents)
	if err != nil {
		return nil, err
	}
	return res.generate, res.err
}

func (f *fakeModels) EmbedContent(_ context.Context, model string, contents []*genai.Content, _ *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error) {
	res, err := f.next(model, contents)
	if err != nil {
		return nil, err
	}
	return res.embed, res.err
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: text}}},
		}},
	}
}

func noSleep(t *testing.T) *[]time.Duration {
	t.Helper()
	var delays []time.Duration
	original := sleep
	sleep = func(_ context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	}
	t.Cleanup(func() { sleep = original })
	return &delays
}

func TestGeneratorRetriesOnTemporaryError(t *testing.T) {
	delays := noSleep(t)

	models := &fakeModels{}
	models.enqueue(fakeResponse{err: genai.APIError{Code: http.StatusInternalServerError, Status: "INTERNAL"}})
	models.enqueue(fakeResponse{generate: textResponse("retry ok")})

	g := newGenerator(models, "gemini-pro", 2, zap.NewNop())

	output, err := g.GenerateContent(context.Background(), "extract this")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if output != "retry ok" {
		t.Fatalf("unexpected output: %q", output)
	}
	if models.calls != 2 {
		t.Fatalf("expected 2 calls, got %d", models.calls)
	}
	if len(*delays) != 1 || (*delays)[0] != baseBackoff {
		t.Fatalf("unexpected backoff delays: %v", *delays)
	}
	for _, cfg := range models.configs {
		if cfg == nil || cfg.ResponseMIMEType != "application/json" {
			t.Fatalf("expected json response mime type, got %+v", cfg)
		}
	}
	for _, m := range models.models {
		if m != "gemini-pro" {
			t.Fatalf("unexpected model: %s", m)
		}
	}
}

func TestGeneratorStopsAfterRetriesExhausted(t *testing.T) {
	noSleep(t)

	models := &fakeModels{}
	tempErr := genai.APIError{Code: http.StatusServiceUnavailable, Status: "UNAVAILABLE"}
	models.enqueue(fakeResponse{err: tempErr})
	models.enqueue(fakeResponse{err: tempErr})

	g := newGenerator(models, "gemini-pro", 2, zap.NewNop())

	if _, err := g.GenerateContent(context.Background(), "msg"); err == nil {
		t.Fatal("expected error after retries exhausted")
	}
	if models.calls != 2 {
		t.Fatalf("expected 2 calls, got %d", models.calls)
	}
}

func TestGeneratorDoesNotRetryOnLongQuotaDelay(t *testing.T) {
	noSleep(t)

	models := &fakeModels{}
	models.enqueue(fakeResponse{err: genai.APIError{
		Code:    http.StatusTooManyRequests,
		Status:  "RESOURCE_EXHAUSTED",
		Message: "quota exhausted, retry after 60 seconds",
	}})

	g := newGenerator(models, "gemini-pro", 3, zap.NewNop())

	if _, err := g.GenerateContent(context.Background(), "msg"); err == nil {
		t.Fatal("expected error when quota delay too long")
	}
	if models.calls != 1 {
		t.Fatalf("expected single call, got %d", models.calls)
	}
}

func TestGeneratorHonoursShortQuotaDelay(t *testing.T) {
	delays := noSleep(t)

	models := &fakeModels{}
	models.enqueue(fakeResponse{err: genai.APIError{
		Code:    http.StatusTooManyRequests,
		Details: []map[string]any{{"retryDelay": "7s"}},
	}})
	models.enqueue(fakeResponse{generate: textResponse("{}")})

	g := newGenerator(models, "", 3, nil)

	if _, err := g.GenerateContent(context.Background(), "msg"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(*delays) != 1 || (*delays)[0] != 7*time.Second {
		t.Fatalf("expected the server-provided delay, got %v", *delays)
	}
	if g.Model() != defaultModel {
		t.Fatalf("expected default model, got %s", g.Model())
	}
}

func TestGeneratorDoesNotRetryClientErrors(t *testing.T) {
	noSleep(t)

	models := &fakeModels{}
	models.enqueue(fakeResponse{err: genai.APIError{Code: http.StatusBadRequest}})

	g := newGenerator(models, "gemini-pro", 3, nil)
	if _, err := g.GenerateContent(context.Background(), "msg"); err == nil {
		t.Fatal("expected error")
	}
	if models.calls != 1 {
		t.Fatalf("expected single call, got %d", models.calls)
	}
}

func TestGeneratorRejectsEmptyInputAndOutput(t *testing.T) {
	models := &fakeModels{}
	models.enqueue(fakeResponse{generate: textResponse("   ")})
	g := newGenerator(models, "gemini-pro", 1, nil)

	if _, err := g.GenerateContent(context.Background(), "  "); err == nil {
		t.Fatal("expected error for empty prompt")
	}
	if _, err := g.GenerateContent(context.Background(), "prompt"); err == nil {
		t.Fatal("expected error for empty response")
	}
}

func TestEmbedderBatchesRequests(t *testing.T) {
	models := &fakeModels{}
	texts := make([]string, maxEmbedBatch+5)
	for i := range texts {
		texts[i] = "skill"
	}

	for _, size := range []int{maxEmbedBatch, 5} {
		embeddings := make([]*genai.ContentEmbedding, size)
		for i := range embeddings {
			embeddings[i] = &genai.ContentEmbedding{Values: []float32{1, 2}}
		}
		models.enqueue(fakeResponse{embed: &genai.EmbedContentResponse{Embeddings: embeddings}})
	}

	e := newEmbedder(models, "", 1, 0, nil)
	vectors, err := e.Embed(context.Background(), texts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vectors) != len(texts) {
		t.Fatalf("expected %d vectors, got %d", len(texts), len(vectors))
	}
	if models.calls != 2 {
		t.Fatalf("expected 2 batched calls, got %d", models.calls)
	}
	if len(models.contents[0]) != maxEmbedBatch || len(models.contents[1]) != 5 {
		t.Fatalf("unexpected batch sizes: %d, %d", len(models.contents[0]), len(models.contents[1]))
	}
	if e.Model() != defaultEmbeddingModel {
		t.Fatalf("unexpected model: %s", e.Model())
	}
}

func TestEmbedderRejectsShortResponse(t *testing.T) {
	models := &fakeModels{}
	models.enqueue(fakeResponse{embed: &genai.EmbedContentResponse{
		Embeddings: []*genai.ContentEmbedding{{Values: []float32{1}}},
	}})

	e := newEmbedder(models, "m", 1, 0, nil)
	if _, err := e.Embed(context.Background(), []string{"a", "b"}); err == nil {
		t.Fatal("expected error for missing embeddings")
	}
}
