package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/spigell/resume-matcher/internal/ai"
	"github.com/spigell/resume-matcher/internal/ai/gemini"
	"github.com/spigell/resume-matcher/internal/keywords"
	"github.com/spigell/resume-matcher/internal/logger"
	"github.com/spigell/resume-matcher/internal/pipeline"
	"github.com/spigell/resume-matcher/internal/resultcache"
	"github.com/spigell/resume-matcher/internal/secrets"
	"github.com/spigell/resume-matcher/internal/semantic"
	"github.com/spigell/resume-matcher/internal/similarity"
	"github.com/spigell/resume-matcher/internal/store"
	"github.com/spigell/resume-matcher/internal/vocabulary"
)

// analyzerOptions selects the optional pipeline stages for a command.
type analyzerOptions struct {
	semantic bool
	profile  bool
	cache    bool
}

// deps holds lazily created collaborators and releases them on close.
type deps struct {
	config *Config
	logger *zap.Logger

	genai   *genai.Client
	closers []func() error
}

func newDeps(config *Config, log *zap.Logger) *deps {
	return &deps{config: config, logger: log}
}

func (d *deps) close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil {
			d.logger.Warn("closing resource", zap.Error(err))
		}
	}
}

func (d *deps) openStore(ctx context.Context) (*store.Store, error) {
	st, err := store.Open(ctx, d.config.Database)
	if err != nil {
		return nil, err
	}
	d.closers = append(d.closers, st.Close)
	return st, nil
}

func (d *deps) analyzer(ctx context.Context, opts analyzerOptions) (*pipeline.Analyzer, error) {
	var linguist keywords.Linguist
	if d.config.Keywords.Linguistic {
		prose, err := keywords.NewProseLinguist()
		if err != nil {
			d.logger.Warn("linguistic keywords disabled", zap.Error(err))
		} else {
			linguist = prose
		}
	}

	extractor := keywords.NewExtractor(nil, linguist, d.config.Keywords.TopN, logger.ForComponent(d.logger, "keywords", ""))
	calculator := similarity.NewCalculator(d.config.Scoring, logger.ForComponent(d.logger, "similarity", ""))

	threshold := d.config.Semantic.Threshold
	pipelineOpts := pipeline.Options{SemanticThreshold: &threshold}

	if opts.semantic {
		matcher, err := d.matcher(ctx)
		if err != nil {
			return nil, fmt.Errorf("semantic matcher: %w", err)
		}
		pipelineOpts.Semantic = matcher
	}

	if opts.profile {
		profiler, err := d.profiler(ctx)
		if err != nil {
			return nil, fmt.Errorf("profile extractor: %w", err)
		}
		pipelineOpts.Profiler = profiler
	}

	if opts.cache && strings.TrimSpace(d.config.Cache.RedisURL) != "" {
		cache, err := resultcache.New(ctx, d.config.Cache.RedisURL, d.config.Cache.TTL, logger.ForComponent(d.logger, "resultcache", ""))
		if err != nil {
			return nil, err
		}
		d.closers = append(d.closers, cache.Close)
		if cache.Enabled() {
			pipelineOpts.Cache = cache
		}
	}

	return pipeline.NewAnalyzer(extractor, calculator, pipelineOpts, d.logger), nil
}

func (d *deps) genaiClient(ctx context.Context) (*genai.Client, error) {
	if d.genai != nil {
		return d.genai, nil
	}
	if d.config.AI == nil || d.config.AI.Gemini == nil {
		return nil, errors.New("ai.gemini section is required")
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name:  "gemini api key",
		Value: d.config.AI.Gemini.APIKey,
		File:  d.config.AI.Gemini.APIKeyFile,
		Env:   "GEMINI_API_KEY",
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set ai.gemini.api-key-file, GEMINI_API_KEY_FILE or GEMINI_API_KEY)", err)
	}

	client, err := gemini.NewClient(ctx, apiKey)
	if err != nil {
		return nil, err
	}
	d.genai = client
	return client, nil
}

func (d *deps) embedder(ctx context.Context) (vocabulary.Embedder, error) {
	if d.config.Semantic.Embedder != "gemini" {
		return semantic.NewHashingEmbedder(0), nil
	}

	client, err := d.genaiClient(ctx)
	if err != nil {
		return nil, err
	}
	cfg := d.config.AI.Gemini
	return gemini.NewEmbedder(client, cfg.EmbeddingModel, cfg.MaxRetries, cfg.RequestsPerMinute,
		logger.ForComponent(d.logger, "gemini-embedder", cfg.EmbeddingModel))
}

func (d *deps) vocabulary(ctx context.Context, embedder vocabulary.Embedder) (*vocabulary.Vocabulary, error) {
	skills := keywords.DefaultDictionary().Names()
	if file := strings.TrimSpace(d.config.Vocabulary.File); file != "" {
		var err error
		skills, err = vocabulary.LoadSkills(file, d.config.Vocabulary.Limit)
		if err != nil {
			return nil, err
		}
	}

	loader := vocabulary.NewLoader(embedder, d.config.Vocabulary.CacheFile, d.config.Vocabulary.BatchSize,
		logger.ForComponent(d.logger, "vocabulary", embedder.Model()))
	return loader.Load(ctx, skills)
}

func (d *deps) matcher(ctx context.Context) (*semantic.Matcher, error) {
	embedder, err := d.embedder(ctx)
	if err != nil {
		return nil, err
	}
	vocab, err := d.vocabulary(ctx, embedder)
	if err != nil {
		return nil, err
	}
	return semantic.NewMatcher(vocab, embedder, logger.ForComponent(d.logger, "semantic", embedder.Model()))
}

func (d *deps) profiler(ctx context.Context) (ai.ProfileExtractor, error) {
	client, err := d.genaiClient(ctx)
	if err != nil {
		return nil, err
	}
	cfg := d.config.AI.Gemini

	generator, err := gemini.NewGenerator(client, cfg.Model, cfg.MaxRetries,
		logger.ForComponent(d.logger, "gemini-generator", cfg.Model))
	if err != nil {
		return nil, err
	}
	return gemini.NewExtractor(generator, cfg.MaxLogLength, logger.ForComponent(d.logger, "gemini-profile", cfg.Model)), nil
}
