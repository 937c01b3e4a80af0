package vocabulary

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/gofrs/flock"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	defaultBatchSize = 100
	lockRetryDelay   = 250 * time.Millisecond
)

// cacheFile is the on-disk embedding cache. It is valid only for the exact
// skill list (and model) it was built from.
type cacheFile struct {
	Model   string      `json:"model"`
	Skills  []string    `json:"skills"`
	Vectors [][]float32 `json:"vectors"`
}

// Loader embeds skill lists, persisting the result in a cache file.
// Concurrent first builds are collapsed in-process and serialized across
// processes with a lock file next to the cache.
type Loader struct {
	embedder  Embedder
	cachePath string
	batchSize int
	logger    *zap.Logger

	group singleflight.Group
}

// NewLoader creates a loader. An empty cachePath disables persistence.
func NewLoader(embedder Embedder, cachePath string, batchSize int, logger *zap.Logger) *Loader {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{
		embedder:  embedder,
		cachePath: cachePath,
		batchSize: batchSize,
		logger:    logger,
	}
}

// Load returns the vocabulary for skills, reading a valid cache or rebuilding
// it in full.
func (l *Loader) Load(ctx context.Context, skills []string) (*Vocabulary, error) {
	if l.embedder == nil {
		return nil, errors.New("embedder is required")
	}
	if len(skills) == 0 {
		return nil, errors.New("skill list is empty")
	}

	res, err, shared := l.group.Do(l.cachePath, func() (any, error) {
		return l.load(ctx, skills)
	})
	if err != nil {
		return nil, err
	}

	vocab := res.(*Vocabulary)
	if shared && !slices.Equal(vocab.names, skills) {
		// a concurrent caller loaded a different list under the same key
		return l.load(ctx, skills)
	}
	return vocab, nil
}

func (l *Loader) load(ctx context.Context, skills []string) (*Vocabulary, error) {
	model := l.embedder.Model()

	if l.cachePath == "" {
		return l.build(ctx, model, skills)
	}

	if vocab, ok := l.readCache(model, skills); ok {
		return vocab, nil
	}

	lock := flock.New(l.cachePath + ".lock")
	locked, err := lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil || !locked {
		l.logger.Warn("embedding cache lock unavailable, building without cache",
			zap.String("path", l.cachePath),
			zap.Error(err),
		)
		return l.build(ctx, model, skills)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			l.logger.Warn("releasing embedding cache lock", zap.Error(err))
		}
	}()

	// another process may have finished the build while we waited
	if vocab, ok := l.readCache(model, skills); ok {
		return vocab, nil
	}

	vocab, err := l.build(ctx, model, skills)
	if err != nil {
		return nil, err
	}

	if err := l.writeCache(vocab); err != nil {
		l.logger.Warn("saving embedding cache failed, continuing uncached",
			zap.String("path", l.cachePath),
			zap.Error(err),
		)
	} else {
		l.logger.Info("saved embedding cache", zap.String("path", l.cachePath), zap.Int("skills", vocab.Len()))
	}

	return vocab, nil
}

func (l *Loader) readCache(model string, skills []string) (*Vocabulary, bool) {
	data, err := os.ReadFile(l.cachePath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			l.logger.Warn("reading embedding cache", zap.String("path", l.cachePath), zap.Error(err))
		}
		return nil, false
	}

	var cached cacheFile
	if err := json.Unmarshal(data, &cached); err != nil {
		l.logger.Warn("embedding cache is corrupt, rebuilding", zap.String("path", l.cachePath), zap.Error(err))
		return nil, false
	}

	if cached.Model != model || !slices.Equal(cached.Skills, skills) || !consistent(cached.Vectors, len(skills)) {
		l.logger.Info("embedding cache does not match the skill list, rebuilding",
			zap.String("path", l.cachePath),
			zap.Int("cached_skills", len(cached.Skills)),
			zap.Int("skills", len(skills)),
		)
		return nil, false
	}

	for _, vec := range cached.Vectors {
		Normalize(vec)
	}

	l.logger.Debug("loaded embedding cache", zap.String("path", l.cachePath), zap.Int("skills", len(skills)))
	return newVocabulary(model, slices.Clone(skills), cached.Vectors), true
}

func (l *Loader) build(ctx context.Context, model string, skills []string) (*Vocabulary, error) {
	l.logger.Info("creating skill embeddings", zap.Int("skills", len(skills)), zap.String("model", model))

	vectors := make([][]float32, 0, len(skills))
	for start := 0; start < len(skills); start += l.batchSize {
		end := min(start+l.batchSize, len(skills))

		batch, err := l.embedder.Embed(ctx, skills[start:end])
		if err != nil {
			return nil, fmt.Errorf("embed skills %d-%d: %w", start, end, err)
		}
		if len(batch) != end-start {
			return nil, fmt.Errorf("embed skills %d-%d: got %d vectors", start, end, len(batch))
		}
		for _, vec := range batch {
			vectors = append(vectors, Normalize(vec))
		}
	}

	if !consistent(vectors, len(skills)) {
		return nil, errors.New("embedder returned vectors of different sizes")
	}

	return newVocabulary(model, slices.Clone(skills), vectors), nil
}

func (l *Loader) writeCache(vocab *Vocabulary) error {
	data, err := json.Marshal(cacheFile{Model: vocab.model, Skills: vocab.names, Vectors: vocab.vectors})
	if err != nil {
		return fmt.Errorf("encode cache: %w", err)
	}

	dir := filepath.Dir(l.cachePath)
	tmp, err := os.CreateTemp(dir, filepath.Base(l.cachePath)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), l.cachePath); err != nil {
		return fmt.Errorf("replace cache: %w", err)
	}
	return nil
}

func consistent(vectors [][]float32, n int) bool {
	if len(vectors) != n || n == 0 {
		return false
	}
	dim := len(vectors[0])
	if dim == 0 {
		return false
	}
	for _, vec := range vectors {
		if len(vec) != dim {
			return false
		}
	}
	return true
}
